package interfaces

import (
	"context"

	"github.com/storelift/domainstack/dto"
)

type DomainEventPublisher interface {
	PublishDomainEvent(ctx context.Context, event dto.DomainEvent) error
	Close() error
}
