package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/checkman123/OpenTelemetry/internal/adapters/graphql"
	"github.com/checkman123/OpenTelemetry/internal/app/gateway"
	appinventory "github.com/checkman123/OpenTelemetry/internal/app/inventory"
	appusers "github.com/checkman123/OpenTelemetry/internal/app/users"
	"github.com/checkman123/OpenTelemetry/internal/domain/inventory"
	"github.com/checkman123/OpenTelemetry/internal/domain/user"
)

type InventoryService interface {
	AddItem(ctx context.Context, name string, quantity int) (inventory.Item, error)
	Item(ctx context.Context, id uuid.UUID) (inventory.Item, error)
	Items(ctx context.Context) ([]inventory.Item, error)
}

type UserService interface {
	AddUser(ctx context.Context, name, email string) (user.User, error)
	User(ctx context.Context, id uuid.UUID) (user.User, error)
	Users(ctx context.Context) ([]user.User, error)
}

type GatewayService interface {
	InventoryItems(ctx context.Context) ([]inventory.Item, error)
	InventoryItemByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error)
	AddInventoryItem(ctx context.Context, name string, quantity int) (*inventory.Item, error)
	Users(ctx context.Context) ([]user.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	AddUser(ctx context.Context, name, email string) (*user.User, error)
	Catalog(ctx context.Context) (gateway.Catalog, error)
}

// InventorySchema exposes inventoryItems, inventoryItemById and addInventoryItem.
func InventorySchema(svc InventoryService, tp trace.TracerProvider) *graphql.Schema {
	return graphql.NewSchema(tp).
		Query("inventoryItems", func(ctx context.Context, _ graphql.Args) (any, error) {
			return svc.Items(ctx)
		}).
		Query("inventoryItemById", func(ctx context.Context, a graphql.Args) (any, error) {
			id, err := a.UUID("id")
			if err != nil {
				return nil, err
			}
			it, err := svc.Item(ctx, id)
			if errors.Is(err, appinventory.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return it, nil
		}).
		Mutation("addInventoryItem", func(ctx context.Context, a graphql.Args) (any, error) {
			name, err := a.String("name")
			if err != nil {
				return nil, err
			}
			qty, err := a.Int("quantity")
			if err != nil {
				return nil, err
			}
			return svc.AddItem(ctx, name, qty)
		})
}

// UserSchema exposes users, userById and addUser.
func UserSchema(svc UserService, tp trace.TracerProvider) *graphql.Schema {
	return graphql.NewSchema(tp).
		Query("users", func(ctx context.Context, _ graphql.Args) (any, error) {
			return svc.Users(ctx)
		}).
		Query("userById", func(ctx context.Context, a graphql.Args) (any, error) {
			id, err := a.UUID("id")
			if err != nil {
				return nil, err
			}
			u, err := svc.User(ctx, id)
			if errors.Is(err, appusers.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return u, nil
		}).
		Mutation("addUser", func(ctx context.Context, a graphql.Args) (any, error) {
			name, err := a.String("name")
			if err != nil {
				return nil, err
			}
			email, err := a.String("email")
			if err != nil {
				return nil, err
			}
			return svc.AddUser(ctx, name, email)
		})
}

// GatewaySchema is the union of both downstream schemas plus catalog.
func GatewaySchema(svc GatewayService, tp trace.TracerProvider) *graphql.Schema {
	return graphql.NewSchema(tp).
		Query("inventoryItems", func(ctx context.Context, _ graphql.Args) (any, error) {
			return svc.InventoryItems(ctx)
		}).
		Query("inventoryItemById", func(ctx context.Context, a graphql.Args) (any, error) {
			id, err := a.UUID("id")
			if err != nil {
				return nil, err
			}
			return nullable(svc.InventoryItemByID(ctx, id))
		}).
		Query("users", func(ctx context.Context, _ graphql.Args) (any, error) {
			return svc.Users(ctx)
		}).
		Query("userById", func(ctx context.Context, a graphql.Args) (any, error) {
			id, err := a.UUID("id")
			if err != nil {
				return nil, err
			}
			return nullable(svc.UserByID(ctx, id))
		}).
		Query("catalog", func(ctx context.Context, _ graphql.Args) (any, error) {
			return svc.Catalog(ctx)
		}).
		Mutation("addInventoryItem", func(ctx context.Context, a graphql.Args) (any, error) {
			name, err := a.String("name")
			if err != nil {
				return nil, err
			}
			qty, err := a.Int("quantity")
			if err != nil {
				return nil, err
			}
			return nullable(svc.AddInventoryItem(ctx, name, qty))
		}).
		Mutation("addUser", func(ctx context.Context, a graphql.Args) (any, error) {
			name, err := a.String("name")
			if err != nil {
				return nil, err
			}
			email, err := a.String("email")
			if err != nil {
				return nil, err
			}
			return nullable(svc.AddUser(ctx, name, email))
		})
}

// nullable collapses a nil pointer to an untyped nil.
func nullable[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}
