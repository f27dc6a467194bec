package gateway

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/checkman123/OpenTelemetry/internal/adapters/downstream"
	"github.com/checkman123/OpenTelemetry/internal/domain/inventory"
	"github.com/checkman123/OpenTelemetry/internal/domain/user"
)

type (
	inventoryItemsResult struct {
		InventoryItems []inventory.Item `json:"inventoryItems"`
	}
	inventoryItemByIDResult struct {
		InventoryItemByID *inventory.Item `json:"inventoryItemById"`
	}
	addInventoryItemResult struct {
		AddInventoryItem *inventory.Item `json:"addInventoryItem"`
	}
	usersResult struct {
		Users []user.User `json:"users"`
	}
	userByIDResult struct {
		UserByID *user.User `json:"userById"`
	}
	addUserResult struct {
		AddUser *user.User `json:"addUser"`
	}
)

// Catalog is the combined view returned by Service.Catalog.
type Catalog struct {
	InventoryItems []inventory.Item `json:"inventoryItems"`
	Users          []user.User      `json:"users"`
}

// Service maps gateway operations onto downstream calls. Any failed call
// fails the operation; an unavailable downstream yields nil (or an empty
// list) with no error.
type Service struct {
	client *downstream.Client
}

func NewService(client *downstream.Client) *Service {
	return &Service{client: client}
}

func (s *Service) InventoryItems(ctx context.Context) ([]inventory.Item, error) {
	res, err := downstream.Call[inventoryItemsResult](ctx, s.client, downstream.InventoryEndpoint,
		downstream.Envelope{Query: qInventoryItems})
	if err != nil {
		return nil, err
	}
	if res == nil || res.InventoryItems == nil {
		return []inventory.Item{}, nil
	}
	return res.InventoryItems, nil
}

func (s *Service) InventoryItemByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	res, err := downstream.Call[inventoryItemByIDResult](ctx, s.client, downstream.InventoryEndpoint,
		downstream.Envelope{Query: qInventoryItemByID, Variables: map[string]any{"id": id.String()}})
	if err != nil || res == nil {
		return nil, err
	}
	return res.InventoryItemByID, nil
}

func (s *Service) AddInventoryItem(ctx context.Context, name string, quantity int) (*inventory.Item, error) {
	res, err := downstream.Call[addInventoryItemResult](ctx, s.client, downstream.InventoryEndpoint,
		downstream.Envelope{Query: mAddInventoryItem, Variables: map[string]any{"name": name, "quantity": quantity}})
	if err != nil || res == nil {
		return nil, err
	}
	return res.AddInventoryItem, nil
}

func (s *Service) Users(ctx context.Context) ([]user.User, error) {
	res, err := downstream.Call[usersResult](ctx, s.client, downstream.UsersEndpoint,
		downstream.Envelope{Query: qUsers})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Users == nil {
		return []user.User{}, nil
	}
	return res.Users, nil
}

func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	res, err := downstream.Call[userByIDResult](ctx, s.client, downstream.UsersEndpoint,
		downstream.Envelope{Query: qUserByID, Variables: map[string]any{"id": id.String()}})
	if err != nil || res == nil {
		return nil, err
	}
	return res.UserByID, nil
}

func (s *Service) AddUser(ctx context.Context, name, email string) (*user.User, error) {
	res, err := downstream.Call[addUserResult](ctx, s.client, downstream.UsersEndpoint,
		downstream.Envelope{Query: mAddUser, Variables: map[string]any{"name": name, "email": email}})
	if err != nil || res == nil {
		return nil, err
	}
	return res.AddUser, nil
}

// Catalog lists inventory items and users concurrently. The first failure
// cancels the other call and is returned.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	var out Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.InventoryItems(gctx)
		out.InventoryItems = items
		return err
	})
	g.Go(func() error {
		users, err := s.Users(gctx)
		out.Users = users
		return err
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}
	return out, nil
}
