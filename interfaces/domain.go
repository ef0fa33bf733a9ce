package interfaces

import (
	"context"

	"github.com/storelift/domainstack/internal/models"
)

// DomainDNSRecord is one DNS record the tenant must create.
type DomainDNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type DomainService interface {
	AddDomain(ctx context.Context, domain string, redirectURL string) (*models.Domain, error)
	GetDomains(ctx context.Context) ([]models.Domain, error)
	GetDomain(ctx context.Context, domainID string) (*models.Domain, error)
	UpdateDomain(ctx context.Context, domainID string, redirectURL *string) (*models.Domain, error)
	DeleteDomain(ctx context.Context, domainID string) error
	SetPrimaryDomain(ctx context.Context, domainID string) error
	RequiredDNSRecords(ctx context.Context, domainID string) ([]DomainDNSRecord, error)
	ListVerificationAttempts(ctx context.Context, domainID string, limit int) ([]models.VerificationAttempt, error)
}
