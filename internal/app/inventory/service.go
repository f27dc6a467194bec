package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/domain/event"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/inventory"
	"github.com/checkman123/OpenTelemetry/internal/logging"
	"github.com/checkman123/OpenTelemetry/internal/validation"
)

type Service struct {
	repo Repo
	pub  EventPublisher
}

func NewService(repo Repo, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// AddItem stores the item and publishes InventoryItemAdded. If publishing
// fails the stored row is kept and the error is returned: the add is not
// confirmed to the caller.
func (s *Service) AddItem(ctx context.Context, name string, quantity int) (domain.Item, error) {
	if err := validation.IsValidInventoryItem(name, quantity); err != nil {
		return domain.Item{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	item, err := s.repo.Add(ctx, name, quantity)
	if err != nil {
		return domain.Item{}, err
	}
	fields := logrus.Fields{"item_id": item.ID.String(), "name": item.Name, "quantity": item.Quantity}

	e, err := event.New(event.TypeInventoryItemAdded, item.ID, item.CreatedAt,
		event.Attr("name", item.Name),
		event.Attr("quantity", item.Quantity),
	)
	if err != nil {
		return domain.Item{}, err
	}
	res, err := s.pub.Publish(ctx, e)
	if err != nil {
		logging.LogErrorCtx(ctx, "inventory item stored but InventoryItemAdded was not published", err, fields)
		return domain.Item{}, fmt.Errorf("publish %s: %w", event.TypeInventoryItemAdded, err)
	}

	fields["partition"] = res.Partition
	fields["offset"] = res.Offset
	logging.LogInfoCtx(ctx, "inventory item added", fields)
	return item, nil
}

func (s *Service) Item(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Items(ctx context.Context) ([]domain.Item, error) {
	return s.repo.List(ctx)
}
