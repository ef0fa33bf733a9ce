package services

import (
	"github.com/storelift/domainstack/config"
	"github.com/storelift/domainstack/interfaces"
	"github.com/storelift/domainstack/internal/logger"
	"github.com/storelift/domainstack/internal/repository"
	"github.com/storelift/domainstack/services/dns"
	"github.com/storelift/domainstack/services/domain"
	"github.com/storelift/domainstack/services/events"
	"github.com/storelift/domainstack/services/verification"
)

type Services struct {
	DNSResolver         interfaces.DNSResolver
	EventsPublisher     interfaces.DomainEventPublisher
	VerificationService interfaces.VerificationService
	DomainService       interfaces.DomainService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	// events publisher is optional, deployments without a broker run without it
	var publisher interfaces.DomainEventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:          events.DefaultMessageTTL,
			MaxRetries:          events.DefaultMaxRetries,
			PublishTimeout:      events.DefaultPublishTimeout,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}

		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
		if err != nil {
			return nil, err
		}
		publisher = rabbitPublisher
	}

	resolver := dns.NewResolverService(cfg.DomainConfig.LookupTimeout)
	verificationService := verification.NewVerificationService(cfg.DomainConfig, log, repos, resolver, publisher)

	services := Services{
		DNSResolver:         resolver,
		EventsPublisher:     publisher,
		VerificationService: verificationService,
		DomainService:       domain.NewDomainService(cfg.DomainConfig, log, repos, verificationService, publisher),
	}

	return &services, nil
}
