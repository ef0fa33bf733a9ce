package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/storelift/domainstack/internal/models"
	"github.com/storelift/domainstack/internal/tracing"
	"github.com/storelift/domainstack/internal/utils"
)

type VerificationAttemptRepository interface {
	Create(ctx context.Context, attempt *models.VerificationAttempt) error
	ListByDomain(ctx context.Context, domainID string, limit int) ([]models.VerificationAttempt, error)
}

type verificationAttemptRepository struct {
	db *gorm.DB
}

func NewVerificationAttemptRepository(db *gorm.DB) VerificationAttemptRepository {
	return &verificationAttemptRepository{
		db: db,
	}
}

func (r *verificationAttemptRepository) Create(ctx context.Context, attempt *models.VerificationAttempt) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "VerificationAttemptRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, attempt.Tenant)
	tracing.TagEntity(span, attempt.DomainID)

	attempt.CreatedAt = utils.Now()

	err := r.db.WithContext(ctx).Create(attempt).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *verificationAttemptRepository) ListByDomain(ctx context.Context, domainID string, limit int) ([]models.VerificationAttempt, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "VerificationAttemptRepository.ListByDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, domainID)

	if limit <= 0 {
		limit = 20
	}

	var attempts []models.VerificationAttempt
	err := r.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return attempts, nil
}
