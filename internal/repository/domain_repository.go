package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"gorm.io/gorm"

	internalerrors "github.com/storelift/domainstack/internal/errors"
	"github.com/storelift/domainstack/internal/enum"
	"github.com/storelift/domainstack/internal/models"
	"github.com/storelift/domainstack/internal/tracing"
	"github.com/storelift/domainstack/internal/utils"
)

type DomainRepository interface {
	Create(ctx context.Context, domain *models.Domain) error
	GetByID(ctx context.Context, domainID string) (*models.Domain, error)
	GetByDomainCrossTenant(ctx context.Context, domainName string) (*models.Domain, error)
	ListByTenant(ctx context.Context, tenant string) ([]models.Domain, error)
	ListByStatusCrossTenant(ctx context.Context, statuses ...enum.DomainStatus) ([]models.Domain, error)
	UpdateRedirectURL(ctx context.Context, tenant, domainID, redirectURL string) (*models.Domain, error)
	Delete(ctx context.Context, tenant, domainID string) error
	SetPrimary(ctx context.Context, tenant, domainID string) error
	ApplyVerificationResult(ctx context.Context, domainID string, status enum.DomainStatus, reason string, checkedAt time.Time) (*models.Domain, error)
	TouchLastChecked(ctx context.Context, domainID string, checkedAt time.Time) error
}

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) Create(ctx context.Context, domain *models.Domain) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, domain.Tenant)
	span.LogKV("domain", domain.Domain)

	now := utils.Now()
	domain.CreatedAt = now
	domain.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internalerrors.ErrDuplicateDomain
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}

func (r *domainRepository) GetByID(ctx context.Context, domainID string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, domainID)

	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("id = ?", domainID).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domain, nil
}

func (r *domainRepository) GetByDomainCrossTenant(ctx context.Context, domainName string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByDomainCrossTenant")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domainName)

	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("domain = ?", domainName).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domain, nil
}

func (r *domainRepository) ListByTenant(ctx context.Context, tenant string) ([]models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.ListByTenant")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)

	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("tenant = ?", tenant).
		Order("created_at DESC").
		Find(&domains).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return domains, nil
}

func (r *domainRepository) ListByStatusCrossTenant(ctx context.Context, statuses ...enum.DomainStatus) ([]models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.ListByStatusCrossTenant")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("last_checked_at ASC NULLS FIRST").
		Find(&domains).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return domains, nil
}

func (r *domainRepository) UpdateRedirectURL(ctx context.Context, tenant, domainID, redirectURL string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.UpdateRedirectURL")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	tracing.TagEntity(span, domainID)

	result := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("id = ? AND tenant = ?", domainID, tenant).
		UpdateColumn("redirect_url", redirectURL).
		UpdateColumn("updated_at", utils.Now())
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, internalerrors.ErrDomainNotFound
	}

	return r.GetByID(ctx, domainID)
}

func (r *domainRepository) Delete(ctx context.Context, tenant, domainID string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	tracing.TagEntity(span, domainID)

	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant = ?", domainID, tenant).
		Delete(&models.Domain{})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internalerrors.ErrDomainNotFound
	}

	return nil
}

// SetPrimary makes the target domain the tenant's primary and demotes every
// other domain of the same tenant in one transaction. A concurrent reader
// never observes two primaries.
func (r *domainRepository) SetPrimary(ctx context.Context, tenant, domainID string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.SetPrimary")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	tracing.TagEntity(span, domainID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var domain models.Domain
		if err := tx.Where("id = ? AND tenant = ?", domainID, tenant).First(&domain).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internalerrors.ErrDomainNotFound
			}
			return err
		}

		if domain.Status != enum.DomainStatusVerified {
			return internalerrors.ErrNotVerified
		}

		now := utils.Now()
		if err := tx.Model(&models.Domain{}).
			Where("tenant = ? AND is_primary = ? AND id <> ?", tenant, true, domainID).
			UpdateColumn("is_primary", false).
			UpdateColumn("updated_at", now).Error; err != nil {
			return err
		}

		// status re-checked at write time; a revocation committed after the
		// read above turns the promote into a no-op
		result := tx.Model(&models.Domain{}).
			Where("id = ? AND status = ?", domainID, enum.DomainStatusVerified).
			Updates(map[string]interface{}{
				"is_primary": true,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internalerrors.ErrNotVerified
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, internalerrors.ErrDomainNotFound) && !errors.Is(err, internalerrors.ErrNotVerified) {
			tracing.TraceErr(span, errors.Wrap(err, "db error"))
		}
		return err
	}

	return nil
}

// ApplyVerificationResult persists a conclusive verification outcome. When a
// previously verified primary domain loses verification, its primary flag is
// cleared in the same transaction.
func (r *domainRepository) ApplyVerificationResult(ctx context.Context, domainID string, status enum.DomainStatus, reason string, checkedAt time.Time) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.ApplyVerificationResult")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, domainID)
	span.LogKV("status", status.String())

	var updated models.Domain
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var domain models.Domain
		if err := tx.Where("id = ?", domainID).First(&domain).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internalerrors.ErrDomainNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"status":              status,
			"last_checked_at":     checkedAt,
			"last_failure_reason": reason,
			"updated_at":          utils.Now(),
		}

		switch status {
		case enum.DomainStatusVerified:
			if domain.VerifiedAt == nil {
				updates["verified_at"] = checkedAt
			}
			updates["last_failure_reason"] = ""
		default:
			updates["verified_at"] = nil
			// cleared unconditionally; a promotion committed after the read
			// above must not survive the revocation
			updates["is_primary"] = false
		}

		if err := tx.Model(&models.Domain{}).Where("id = ?", domainID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", domainID).First(&updated).Error
	})
	if err != nil {
		if !errors.Is(err, internalerrors.ErrDomainNotFound) {
			tracing.TraceErr(span, errors.Wrap(err, "db error"))
		}
		return nil, err
	}

	return &updated, nil
}

func (r *domainRepository) TouchLastChecked(ctx context.Context, domainID string, checkedAt time.Time) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.TouchLastChecked")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, domainID)

	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("id = ?", domainID).
		UpdateColumn("last_checked_at", checkedAt).
		UpdateColumn("updated_at", utils.Now()).
		Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}
