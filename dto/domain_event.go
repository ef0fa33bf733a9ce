package dto

import (
	"time"

	"github.com/storelift/domainstack/internal/enum"
)

// DomainEvent is published on the platform exchange whenever a domain
// changes lifecycle state. The edge router consumes these to update routes.
type DomainEvent struct {
	Type       enum.DomainEventType `json:"type"`
	Tenant     string               `json:"tenant"`
	DomainID   string               `json:"domainId"`
	Domain     string               `json:"domain"`
	Status     enum.DomainStatus    `json:"status"`
	IsPrimary  bool                 `json:"isPrimary"`
	Reason     string               `json:"reason,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}
