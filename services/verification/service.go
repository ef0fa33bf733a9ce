package verification

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

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

const reasonStillChecking = "still checking"

type verificationService struct {
	cfg       *config.DomainConfig
	log       logger.Logger
	postgres  *repository.Repositories
	resolver  interfaces.DNSResolver
	publisher interfaces.DomainEventPublisher
	scheduler *scheduler
}

func NewVerificationService(cfg *config.DomainConfig, log logger.Logger, postgres *repository.Repositories, resolver interfaces.DNSResolver, publisher interfaces.DomainEventPublisher) interfaces.VerificationService {
	return &verificationService{
		cfg:       cfg,
		log:       log,
		postgres:  postgres,
		resolver:  resolver,
		publisher: publisher,
		scheduler: newScheduler(cfg.MinRecheckInterval, cfg.VerifyConcurrency),
	}
}

func (s *verificationService) RequestVerification(ctx context.Context, domainID string, manual bool) (*interfaces.VerificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "VerificationService.RequestVerification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, domainID)
	span.LogKV("manual", manual)

	domain, err := s.postgres.DomainRepository.GetByID(ctx, domainID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if domain == nil {
		return nil, internalerrors.ErrDomainNotFound
	}

	// the in-flight call is joined before the rate limiter is consulted, so a
	// caller racing an ongoing check observes its result instead of a refusal
	v, err := s.scheduler.do(domainID, func() (interface{}, error) {
		if !s.scheduler.allow(domainID, manual) {
			return nil, internalerrors.ErrRecentlyChecked
		}
		return s.verifyDomain(ctx, domain, manual)
	})
	if err != nil {
		if errors.Is(err, internalerrors.ErrRecentlyChecked) {
			span.LogKV("result.skipped", "recently checked")
			return nil, err
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	result := v.(*interfaces.VerificationResult)
	span.LogKV("result.status", result.Status.String(), "result.outcome", result.Outcome.String())
	return result, nil
}

// verifyDomain runs one full verification attempt: lookups, the pure
// decision, then the state transition under a short-lived transaction. No
// lock is held across the network calls.
func (s *verificationService) verifyDomain(ctx context.Context, domain *models.Domain, manual bool) (*interfaces.VerificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "VerificationService.verifyDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, domain.Tenant)
	tracing.TagEntity(span, domain.ID)
	span.LogKV("domain", domain.Domain)

	expected := BuildExpected(s.cfg, domain.Domain)
	expected.Token = domain.VerificationToken

	routingValues, routingErr := s.resolver.Lookup(ctx, domain.Domain, expected.RoutingRecordType())
	ownershipValues, ownershipErr := s.resolver.Lookup(ctx, expected.TXTHost, interfaces.DNSRecordTypeTXT)

	// extra lookup to tell a missing record apart from a CNAME at the apex
	var apexCNAME Lookup
	if expected.Apex && interfaces.IsDefinitiveAbsent(routingErr) {
		cnameValues, cnameErr := s.resolver.Lookup(ctx, domain.Domain, interfaces.DNSRecordTypeCNAME)
		if cnameErr == nil {
			apexCNAME = Lookup{Values: cnameValues}
		}
	}

	eval := Evaluate(expected,
		Lookup{Values: routingValues, Err: routingErr},
		Lookup{Values: ownershipValues, Err: ownershipErr},
		apexCNAME,
	)

	now := utils.Now()

	attempt := &models.VerificationAttempt{
		DomainID: domain.ID,
		Tenant:   domain.Tenant,
		Outcome:  eval.Outcome,
		Reason:   eval.Reason,
		Observed: eval.Observed,
		Manual:   manual,
	}
	if err := s.postgres.VerificationAttemptRepository.Create(ctx, attempt); err != nil {
		s.log.Warnf("Failed to record verification attempt for %s: %v", domain.Domain, err)
	}

	switch eval.Outcome {
	case enum.OutcomeInconclusive:
		// transient errors cause no transition; only the bookkeeping moves
		if err := s.postgres.DomainRepository.TouchLastChecked(ctx, domain.ID, now); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		return &interfaces.VerificationResult{
			DomainID: domain.ID,
			Status:   domain.Status,
			Outcome:  eval.Outcome,
			Reason:   reasonStillChecking,
		}, nil

	case enum.OutcomeMatch:
		updated, err := s.postgres.DomainRepository.ApplyVerificationResult(ctx, domain.ID, enum.DomainStatusVerified, "", now)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if domain.Status != enum.DomainStatusVerified {
			s.publishEvent(ctx, enum.DomainEventVerified, updated, "")
		}
		return &interfaces.VerificationResult{
			DomainID: domain.ID,
			Status:   updated.Status,
			Outcome:  eval.Outcome,
		}, nil

	default:
		updated, err := s.postgres.DomainRepository.ApplyVerificationResult(ctx, domain.ID, enum.DomainStatusFailed, eval.Reason, now)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if domain.Status == enum.DomainStatusVerified {
			s.log.Warnf("Domain %s lost verification: %s", domain.Domain, eval.Reason)
		}
		if domain.Status != enum.DomainStatusFailed {
			s.publishEvent(ctx, enum.DomainEventVerificationFailed, updated, eval.Reason)
		}
		return &interfaces.VerificationResult{
			DomainID: domain.ID,
			Status:   updated.Status,
			Outcome:  eval.Outcome,
			Reason:   eval.Reason,
		}, nil
	}
}

func (s *verificationService) VerifyPendingDomains(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "VerificationService.VerifyPendingDomains")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	domains, err := s.postgres.DomainRepository.ListByStatusCrossTenant(ctx, enum.DomainStatusPending, enum.DomainStatusFailed)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.sweep(ctx, domains)
	return nil
}

func (s *verificationService) RecheckVerifiedDomains(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "VerificationService.RecheckVerifiedDomains")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	domains, err := s.postgres.DomainRepository.ListByStatusCrossTenant(ctx, enum.DomainStatusVerified)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.sweep(ctx, domains)
	return nil
}

// sweep verifies many domains in parallel, bounded by the worker pool. Each
// domain's own verification stays serialized through the scheduler.
func (s *verificationService) sweep(ctx context.Context, domains []models.Domain) {
	var wg sync.WaitGroup
	for _, domain := range domains {
		domainID := domain.ID
		wg.Add(1)
		s.scheduler.acquire()
		go func() {
			defer wg.Done()
			defer s.scheduler.release()

			_, err := s.RequestVerification(ctx, domainID, false)
			if err != nil && !errors.Is(err, internalerrors.ErrRecentlyChecked) && !errors.Is(err, internalerrors.ErrDomainNotFound) {
				s.log.Warnf("Verification sweep failed for domain %s: %v", domainID, err)
			}
		}()
	}
	wg.Wait()
}

func (s *verificationService) Forget(domainID string) {
	s.scheduler.forget(domainID)
}

func (s *verificationService) publishEvent(ctx context.Context, eventType enum.DomainEventType, domain *models.Domain, reason string) {
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
