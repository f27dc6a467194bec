package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/checkman123/OpenTelemetry/internal/adapters/graphql"
	"github.com/checkman123/OpenTelemetry/internal/app/gateway"
	appinventory "github.com/checkman123/OpenTelemetry/internal/app/inventory"
	appusers "github.com/checkman123/OpenTelemetry/internal/app/users"
	"github.com/checkman123/OpenTelemetry/internal/domain/inventory"
	"github.com/checkman123/OpenTelemetry/internal/domain/user"
	"github.com/checkman123/OpenTelemetry/internal/faults"
)

var (
	itemID = uuid.MustParse("6f1c7c1e-6a9c-4c9e-9d55-1b8a5c9f7a10")
	userID = uuid.MustParse("0b8f6b5e-8d7e-4b11-9f6f-2f7c2f0a1e22")
)

type fakeInventory struct{ added []string }

func (f *fakeInventory) AddItem(_ context.Context, name string, quantity int) (inventory.Item, error) {
	if quantity < 0 {
		return inventory.Item{}, appinventory.ErrInvalidData
	}
	f.added = append(f.added, name)
	return inventory.Item{ID: itemID, Name: name, Quantity: quantity}, nil
}

func (f *fakeInventory) Item(_ context.Context, id uuid.UUID) (inventory.Item, error) {
	if id != itemID {
		return inventory.Item{}, appinventory.ErrNotFound
	}
	return inventory.Item{ID: itemID, Name: "Widget", Quantity: 5}, nil
}

func (f *fakeInventory) Items(context.Context) ([]inventory.Item, error) {
	return []inventory.Item{{ID: itemID, Name: "Widget", Quantity: 5}}, nil
}

type fakeUsers struct{}

func (fakeUsers) AddUser(_ context.Context, name, email string) (user.User, error) {
	return user.User{ID: userID, Name: name, Email: email}, nil
}

func (fakeUsers) User(_ context.Context, id uuid.UUID) (user.User, error) {
	if id != userID {
		return user.User{}, appusers.ErrNotFound
	}
	return user.User{ID: userID, Name: "Bob", Email: "bob@example.com"}, nil
}

func (fakeUsers) Users(context.Context) ([]user.User, error) {
	return []user.User{{ID: userID, Name: "Bob"}}, nil
}

type fakeGateway struct {
	err error
}

func (f fakeGateway) InventoryItems(context.Context) ([]inventory.Item, error) {
	return []inventory.Item{{ID: itemID, Name: "Widget"}}, f.err
}

func (f fakeGateway) InventoryItemByID(context.Context, uuid.UUID) (*inventory.Item, error) {
	return nil, f.err
}

func (f fakeGateway) AddInventoryItem(_ context.Context, name string, qty int) (*inventory.Item, error) {
	return &inventory.Item{ID: itemID, Name: name, Quantity: qty}, f.err
}

func (f fakeGateway) Users(context.Context) ([]user.User, error) { return []user.User{}, f.err }

func (f fakeGateway) UserByID(context.Context, uuid.UUID) (*user.User, error) {
	return &user.User{ID: userID, Name: "Bob"}, f.err
}

func (f fakeGateway) AddUser(_ context.Context, name, email string) (*user.User, error) {
	return &user.User{ID: userID, Name: name, Email: email}, f.err
}

func (f fakeGateway) Catalog(context.Context) (gateway.Catalog, error) {
	return gateway.Catalog{
		InventoryItems: []inventory.Item{{ID: itemID, Name: "Widget"}},
		Users:          []user.User{{ID: userID, Name: "Bob"}},
	}, f.err
}

func exec(t *testing.T, s *graphql.Schema, query string, vars map[string]any) (string, []graphql.Error) {
	t.Helper()
	res := s.Execute(context.Background(), graphql.Request{Query: query, Variables: vars})
	b, err := json.Marshal(res.Data)
	require.NoError(t, err)
	return string(b), res.Errors
}

func TestInventorySchema(t *testing.T) {
	svc := &fakeInventory{}
	s := InventorySchema(svc, sdktrace.NewTracerProvider())

	data, errs := exec(t, s, `{ inventoryItems { name quantity } }`, nil)
	require.Empty(t, errs)
	assert.JSONEq(t, `{"inventoryItems":[{"name":"Widget","quantity":5}]}`, data)

	data, errs = exec(t, s, `query ($id: ID!) { inventoryItemById(id: $id) { name } }`, map[string]any{"id": uuid.NewString()})
	require.Empty(t, errs)
	assert.JSONEq(t, `{"inventoryItemById":null}`, data)

	data, errs = exec(t, s, `mutation { addInventoryItem(name: "Gadget", quantity: 2) { name quantity } }`, nil)
	require.Empty(t, errs)
	assert.JSONEq(t, `{"addInventoryItem":{"name":"Gadget","quantity":2}}`, data)
	assert.Equal(t, []string{"Gadget"}, svc.added)

	_, errs = exec(t, s, `mutation { addInventoryItem(name: "Gadget", quantity: -1) { id } }`, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, appinventory.ErrInvalidData.Error(), errs[0].Message)
}

func TestUserSchema(t *testing.T) {
	s := UserSchema(fakeUsers{}, sdktrace.NewTracerProvider())

	data, errs := exec(t, s, `query ($id: ID!) { userById(id: $id) { name email } }`, map[string]any{"id": userID.String()})
	require.Empty(t, errs)
	assert.JSONEq(t, `{"userById":{"name":"Bob","email":"bob@example.com"}}`, data)

	data, errs = exec(t, s, `mutation { addUser(name: "Ann", email: "ann@example.com") { id name } }`, nil)
	require.Empty(t, errs)
	assert.JSONEq(t, `{"addUser":{"id":"`+userID.String()+`","name":"Ann"}}`, data)

	_, errs = exec(t, s, `mutation { addUser(name: "Ann") { id } }`, nil)
	assert.Len(t, errs, 1)
}

func TestGatewaySchema(t *testing.T) {
	s := GatewaySchema(fakeGateway{}, sdktrace.NewTracerProvider())

	data, errs := exec(t, s, `{ catalog { inventoryItems { name } users { name } } }`, nil)
	require.Empty(t, errs)
	assert.JSONEq(t, `{"catalog":{"inventoryItems":[{"name":"Widget"}],"users":[{"name":"Bob"}]}}`, data)

	data, errs = exec(t, s, `{ inventoryItemById(id: "`+itemID.String()+`") { name } }`, nil)
	require.Empty(t, errs)
	assert.JSONEq(t, `{"inventoryItemById":null}`, data)

	data, errs = exec(t, s, `{ users { id } }`, nil)
	require.Empty(t, errs)
	assert.JSONEq(t, `{"users":[]}`, data)
}

func TestGatewaySchemaSurfacesDownstreamFailure(t *testing.T) {
	s := GatewaySchema(fakeGateway{err: faults.NewRemoteErrors("users-downstream", []string{"boom"})}, sdktrace.NewTracerProvider())

	data, errs := exec(t, s, `{ userById(id: "`+userID.String()+`") { name } }`, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "boom")
	assert.JSONEq(t, `{"userById":null}`, data)
}
