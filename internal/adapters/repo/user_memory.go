package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	app "github.com/checkman123/OpenTelemetry/internal/app/users"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/user"
)

type UserMemory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
	order []uuid.UUID
}

func NewUserMemory() *UserMemory {
	return &UserMemory{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserMemory) Add(_ context.Context, name, email string) (domain.User, error) {
	u := domain.User{ID: uuid.New(), Name: name, Email: email, CreatedAt: time.Now().UTC()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	r.order = append(r.order, u.ID)
	return u, nil
}

func (r *UserMemory) Get(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, app.ErrNotFound
	}
	return u, nil
}

func (r *UserMemory) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out, nil
}
