package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storelift/domainstack/internal/enum"
	"github.com/storelift/domainstack/internal/utils"
)

type Domain struct {
	ID     string            `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Tenant string            `gorm:"column:tenant;type:varchar(255);NOT NULL;index" json:"tenant"`
	Domain string            `gorm:"column:domain;type:varchar(255);NOT NULL;uniqueIndex" json:"domain"`
	Status enum.DomainStatus `gorm:"column:status;type:varchar(20);NOT NULL;index" json:"status"`
	// VerificationToken is the expected ownership TXT value. It is generated
	// once at creation and never rotated; rotating it would invalidate DNS
	// records the tenant has already configured.
	VerificationToken string     `gorm:"column:verification_token;type:varchar(255);NOT NULL" json:"verificationToken"`
	RedirectURL       string     `gorm:"column:redirect_url;type:varchar(2048)" json:"redirectUrl,omitempty"`
	IsPrimary         bool       `gorm:"column:is_primary;type:boolean;NOT NULL;DEFAULT:false" json:"isPrimary"`
	LastCheckedAt     *time.Time `gorm:"column:last_checked_at;type:timestamp" json:"lastCheckedAt,omitempty"`
	LastFailureReason string     `gorm:"column:last_failure_reason;type:text" json:"lastFailureReason,omitempty"`
	VerifiedAt        *time.Time `gorm:"column:verified_at;type:timestamp" json:"verifiedAt,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = utils.GenerateNanoIDWithPrefix("dom", 16)
	}
	if d.VerificationToken == "" {
		d.VerificationToken = GenerateVerificationToken()
	}
	if d.Status == "" {
		d.Status = enum.DomainStatusPending
	}
	return nil
}

// GenerateVerificationToken returns the opaque value the tenant must publish
// in the ownership TXT record.
func GenerateVerificationToken() string {
	return "storelift-verify=" + uuid.New().String()
}
