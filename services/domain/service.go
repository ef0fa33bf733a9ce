package domain

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/storelift/domainstack/config"
	"github.com/storelift/domainstack/dto"
	"github.com/storelift/domainstack/interfaces"
	"github.com/storelift/domainstack/internal/enum"
	internalerrors "github.com/storelift/domainstack/internal/errors"
	"github.com/storelift/domainstack/internal/logger"
	"github.com/storelift/domainstack/internal/models"
	"github.com/storelift/domainstack/internal/repository"
	"github.com/storelift/domainstack/internal/tracing"
	"github.com/storelift/domainstack/internal/utils"
)

type domainService struct {
	cfg          *config.DomainConfig
	log          logger.Logger
	postgres     *repository.Repositories
	verification interfaces.VerificationService
	publisher    interfaces.DomainEventPublisher
}

func NewDomainService(cfg *config.DomainConfig, log logger.Logger, postgres *repository.Repositories, verification interfaces.VerificationService, publisher interfaces.DomainEventPublisher) interfaces.DomainService {
	return &domainService{
		cfg:          cfg,
		log:          log,
		postgres:     postgres,
		verification: verification,
		publisher:    publisher,
	}
}

func (s *domainService) AddDomain(ctx context.Context, domainName string, redirectURL string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.AddDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		return nil, internalerrors.ErrTenantMissing
	}

	normalized := utils.NormalizeDomain(domainName)
	if !utils.IsValidHostname(normalized) {
		return nil, internalerrors.ErrInvalidHostname
	}

	existing, err := s.postgres.DomainRepository.GetByDomainCrossTenant(ctx, normalized)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if existing != nil {
		return nil, internalerrors.ErrDuplicateDomain
	}

	domain := &models.Domain{
		Tenant:      tenant,
		Domain:      normalized,
		RedirectURL: redirectURL,
	}
	if err := s.postgres.DomainRepository.Create(ctx, domain); err != nil {
		if err != internalerrors.ErrDuplicateDomain {
			tracing.TraceErr(span, err)
		}
		return nil, err
	}

	s.log.Infof("Domain %s registered for tenant %s", domain.Domain, tenant)
	return domain, nil
}

func (s *domainService) GetDomains(ctx context.Context) ([]models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.GetDomains")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		return nil, internalerrors.ErrTenantMissing
	}

	domains, err := s.postgres.DomainRepository.ListByTenant(ctx, tenant)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return domains, nil
}

func (s *domainService) GetDomain(ctx context.Context, domainID string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.GetDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		return nil, internalerrors.ErrTenantMissing
	}

	domain, err := s.postgres.DomainRepository.GetByID(ctx, domainID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	// a tenant never learns whether another tenant holds the id
	if domain == nil || domain.Tenant != tenant {
		return nil, internalerrors.ErrDomainNotFound
	}

	return domain, nil
}

func (s *domainService) UpdateDomain(ctx context.Context, domainID string, redirectURL *string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.UpdateDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		return nil, internalerrors.ErrTenantMissing
	}

	if redirectURL == nil {
		return s.GetDomain(ctx, domainID)
	}

	domain, err := s.postgres.DomainRepository.UpdateRedirectURL(ctx, tenant, domainID, *redirectURL)
	if err != nil {
		if err != internalerrors.ErrDomainNotFound {
			tracing.TraceErr(span, err)
		}
		return nil, err
	}

	return domain, nil
}

func (s *domainService) DeleteDomain(ctx context.Context, domainID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.DeleteDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		return internalerrors.ErrTenantMissing
	}

	domain, err := s.GetDomain(ctx, domainID)
	if err != nil {
		return err
	}

	if err := s.postgres.DomainRepository.Delete(ctx, tenant, domainID); err != nil {
		if err != internalerrors.ErrDomainNotFound {
			tracing.TraceErr(span, err)
		}
		return err
	}

	s.verification.Forget(domainID)
	s.publishEvent(ctx, enum.DomainEventDeleted, domain, "")
	s.log.Infof("Domain %s deleted for tenant %s", domain.Domain, tenant)
	return nil
}

func (s *domainService) SetPrimaryDomain(ctx context.Context, domainID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.SetPrimaryDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		return internalerrors.ErrTenantMissing
	}

	if err := s.postgres.DomainRepository.SetPrimary(ctx, tenant, domainID); err != nil {
		if err != internalerrors.ErrDomainNotFound && err != internalerrors.ErrNotVerified {
			tracing.TraceErr(span, err)
		}
		return err
	}

	domain, err := s.postgres.DomainRepository.GetByID(ctx, domainID)
	if err == nil && domain != nil {
		s.publishEvent(ctx, enum.DomainEventPrimaryChanged, domain, "")
	}

	return nil
}

// RequiredDNSRecords lists the records a tenant must create before the
// domain can verify. Apex domains route with A records, subdomains with a
// CNAME, and both carry the ownership TXT record.
func (s *domainService) RequiredDNSRecords(ctx context.Context, domainID string) ([]interfaces.DomainDNSRecord, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.RequiredDNSRecords")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)

	domain, err := s.GetDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}

	var records []interfaces.DomainDNSRecord
	if utils.IsApexDomain(domain.Domain) {
		for _, ip := range s.cfg.EdgeIPs {
			records = append(records, interfaces.DomainDNSRecord{
				Type:  string(interfaces.DNSRecordTypeA),
				Name:  domain.Domain,
				Value: ip,
			})
		}
	} else {
		records = append(records, interfaces.DomainDNSRecord{
			Type:  string(interfaces.DNSRecordTypeCNAME),
			Name:  domain.Domain,
			Value: s.cfg.CNAMETarget,
		})
	}
	records = append(records, interfaces.DomainDNSRecord{
		Type:  string(interfaces.DNSRecordTypeTXT),
		Name:  s.cfg.TXTLabel + "." + domain.Domain,
		Value: domain.VerificationToken,
	})

	return records, nil
}

// ListVerificationAttempts returns the most recent verification attempts of
// a domain, newest first.
func (s *domainService) ListVerificationAttempts(ctx context.Context, domainID string, limit int) ([]models.VerificationAttempt, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.ListVerificationAttempts")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)

	// ownership check before reading the cross-tenant attempt log
	if _, err := s.GetDomain(ctx, domainID); err != nil {
		return nil, err
	}

	attempts, err := s.postgres.VerificationAttemptRepository.ListByDomain(ctx, domainID, limit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return attempts, nil
}

func (s *domainService) publishEvent(ctx context.Context, eventType enum.DomainEventType, domain *models.Domain, reason string) {
	if s.publisher == nil {
		return
	}
	event := dto.DomainEvent{
		Type:       eventType,
		Tenant:     domain.Tenant,
		DomainID:   domain.ID,
		Domain:     domain.Domain,
		Status:     domain.Status,
		IsPrimary:  domain.IsPrimary,
		Reason:     reason,
		OccurredAt: utils.Now(),
	}
	if err := s.publisher.PublishDomainEvent(ctx, event); err != nil {
		s.log.Warnf("Failed to publish %s event for %s: %v", eventType, domain.Domain, err)
	}
}
