package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	app "github.com/checkman123/OpenTelemetry/internal/app/inventory"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/inventory"
)

type InventoryMemory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.Item
	order []uuid.UUID
}

func NewInventoryMemory() *InventoryMemory {
	return &InventoryMemory{items: make(map[uuid.UUID]domain.Item)}
}

func (r *InventoryMemory) Add(_ context.Context, name string, quantity int) (domain.Item, error) {
	item := domain.Item{ID: uuid.New(), Name: name, Quantity: quantity, CreatedAt: time.Now().UTC()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return item, nil
}

func (r *InventoryMemory) Get(_ context.Context, id uuid.UUID) (domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, app.ErrNotFound
	}
	return item, nil
}

func (r *InventoryMemory) List(_ context.Context) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}
