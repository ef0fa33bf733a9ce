package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/storelift/domainstack/internal/enum"
	"github.com/storelift/domainstack/internal/utils"
)

// VerificationAttempt records a single verification pass for diagnostics.
// Transient attempts are recorded too, so operators can tell "never checked"
// from "recently checked, inconclusive".
type VerificationAttempt struct {
	ID       string                   `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	DomainID string                   `gorm:"column:domain_id;type:varchar(50);NOT NULL;index" json:"domainId"`
	Tenant   string                   `gorm:"column:tenant;type:varchar(255);NOT NULL" json:"tenant"`
	Outcome  enum.VerificationOutcome `gorm:"column:outcome;type:varchar(20);NOT NULL" json:"outcome"`
	Reason   string                   `gorm:"column:reason;type:text" json:"reason,omitempty"`
	// Observed holds the raw record values seen during the attempt.
	Observed  pq.StringArray `gorm:"column:observed;type:text[]" json:"observed,omitempty"`
	Manual    bool           `gorm:"column:manual;type:boolean;NOT NULL;DEFAULT:false" json:"manual"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
}

func (VerificationAttempt) TableName() string {
	return "domain_verification_attempts"
}

func (a *VerificationAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("vat", 16)
	}
	return nil
}
