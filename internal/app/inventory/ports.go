package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/checkman123/OpenTelemetry/internal/domain/event"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/inventory"
)

type ItemAdder interface {
	Add(ctx context.Context, name string, quantity int) (domain.Item, error)
}

type ItemGetter interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Item, error)
}

type ItemLister interface {
	List(ctx context.Context) ([]domain.Item, error)
}

type Repo interface {
	ItemAdder
	ItemGetter
	ItemLister
}

type EventPublisher interface {
	Publish(ctx context.Context, e event.DomainEvent) (event.PublishResult, error)
}
