package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/checkman123/OpenTelemetry/internal/domain/event"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/user"
)

type Repo interface {
	Add(ctx context.Context, name, email string) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, e event.DomainEvent) (event.PublishResult, error)
}
