package interfaces

import (
	"context"

	"github.com/storelift/domainstack/internal/enum"
)

// VerificationResult is what a caller of "verify now" gets back.
type VerificationResult struct {
	DomainID string                   `json:"domainId"`
	Status   enum.DomainStatus        `json:"status"`
	Outcome  enum.VerificationOutcome `json:"outcome"`
	Reason   string                   `json:"reason,omitempty"`
}

type VerificationService interface {
	// RequestVerification runs one verification attempt for the domain.
	// Concurrent requests for the same domain share a single in-flight
	// attempt. Manual requests bypass the minimum re-check interval once.
	RequestVerification(ctx context.Context, domainID string, manual bool) (*VerificationResult, error)

	// VerifyPendingDomains sweeps pending and failed domains cross tenant.
	VerifyPendingDomains(ctx context.Context) error

	// RecheckVerifiedDomains re-checks verified domains and revokes the
	// ones whose DNS no longer matches.
	RecheckVerifiedDomains(ctx context.Context) error

	// Forget drops per-domain scheduling state after a domain is deleted.
	Forget(domainID string)
}
