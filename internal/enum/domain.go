package enum

type DomainStatus string

const (
	DomainStatusPending  DomainStatus = "pending"
	DomainStatusVerified DomainStatus = "verified"
	DomainStatusFailed   DomainStatus = "failed"
)

func (t DomainStatus) String() string {
	return string(t)
}

type VerificationOutcome string

const (
	// OutcomeMatch means both the routing record and the ownership TXT matched.
	OutcomeMatch VerificationOutcome = "match"
	// OutcomeMismatch means a record was absent or carried the wrong value.
	OutcomeMismatch VerificationOutcome = "mismatch"
	// OutcomeInconclusive means a lookup failed transiently; status must not change.
	OutcomeInconclusive VerificationOutcome = "inconclusive"
)

func (t VerificationOutcome) String() string {
	return string(t)
}

type DomainEventType string

const (
	DomainEventVerified           DomainEventType = "domain.verified"
	DomainEventVerificationFailed DomainEventType = "domain.verification_failed"
	DomainEventPrimaryChanged     DomainEventType = "domain.primary_changed"
	DomainEventDeleted            DomainEventType = "domain.deleted"
)

func (t DomainEventType) String() string {
	return string(t)
}
