package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/checkman123/OpenTelemetry/internal/domain/inventory"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

var widgetID = uuid.MustParse("6f1c7c1e-6a9c-4c9e-9d55-1b8a5c9f7a10")

func testSchema() *Schema {
	items := []inventory.Item{{ID: widgetID, Name: "Widget", Quantity: 5, CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}}
	return NewSchema(sdktrace.NewTracerProvider()).
		Query("inventoryItems", func(context.Context, Args) (any, error) { return items, nil }).
		Query("inventoryItemById", func(_ context.Context, a Args) (any, error) {
			id, err := a.UUID("id")
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				if it.ID == id {
					return &it, nil
				}
			}
			return (*inventory.Item)(nil), nil
		}).
		Mutation("addInventoryItem", func(_ context.Context, a Args) (any, error) {
			name, err := a.String("name")
			if err != nil {
				return nil, err
			}
			qty, err := a.Int("quantity")
			if err != nil {
				return nil, err
			}
			if qty < 0 {
				return nil, errors.New("quantity must not be negative")
			}
			return inventory.Item{ID: uuid.New(), Name: name, Quantity: qty}, nil
		})
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestExecuteProjectsSelectedFieldsInOrder(t *testing.T) {
	res := testSchema().Execute(context.Background(), Request{Query: `{ inventoryItems { quantity name } }`})

	require.Empty(t, res.Errors)
	assert.Equal(t, `{"data":{"inventoryItems":[{"quantity":5,"name":"Widget"}]}}`, marshal(t, res))
}

func TestExecuteWithVariablesAndAlias(t *testing.T) {
	res := testSchema().Execute(context.Background(), Request{
		Query:     `query ItemById($id: ID!) { item: inventoryItemById(id: $id) { id name } }`,
		Variables: map[string]any{"id": widgetID.String()},
	})

	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"data":{"item":{"id":"`+widgetID.String()+`","name":"Widget"}}}`, marshal(t, res))
}

func TestExecuteMissingEntityIsNull(t *testing.T) {
	res := testSchema().Execute(context.Background(), Request{
		Query: `{ inventoryItemById(id: "` + uuid.NewString() + `") { id } }`,
	})

	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"data":{"inventoryItemById":null}}`, marshal(t, res))
}

func TestExecuteMutationWithLiteralArguments(t *testing.T) {
	res := testSchema().Execute(context.Background(), Request{
		Query: `mutation { addInventoryItem(name: "Gadget", quantity: 3) { name quantity } }`,
	})

	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"data":{"addInventoryItem":{"name":"Gadget","quantity":3}}}`, marshal(t, res))
}

func TestExecuteResolverErrorCarriesPath(t *testing.T) {
	res := testSchema().Execute(context.Background(), Request{
		Query:     `mutation Add($q: Int!) { addInventoryItem(name: "Gadget", quantity: $q) { id } }`,
		Variables: map[string]any{"q": float64(-1)},
	})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "quantity must not be negative", res.Errors[0].Message)
	assert.Equal(t, []any{"addInventoryItem"}, res.Errors[0].Path)
	assert.JSONEq(t, `{"addInventoryItem":null}`, marshal(t, res.Data))
}

func TestExecuteRejectsBadDocuments(t *testing.T) {
	cases := map[string]Request{
		"syntax":           {Query: `{ inventoryItems { `},
		"unknown field":    {Query: `{ orders { id } }`},
		"missing variable": {Query: `query ($id: ID!) { inventoryItemById(id: $id) { id } }`},
		"subscription":     {Query: `subscription { inventoryItems { id } }`},
		"fragment":         {Query: `{ inventoryItems { ...F } } fragment F on InventoryItem { id }`},
		"ambiguous":        {Query: `query A { inventoryItems { id } } query B { inventoryItems { id } }`},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			res := testSchema().Execute(context.Background(), req)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestExecuteSelectsNamedOperation(t *testing.T) {
	res := testSchema().Execute(context.Background(), Request{
		Query:         `query A { inventoryItems { id } } query B { inventoryItems { name } }`,
		OperationName: "B",
	})
	require.Empty(t, res.Errors)
	assert.Equal(t, `{"inventoryItems":[{"name":"Widget"}]}`, marshal(t, res.Data))
}

func TestExecuteLogsCompletionLevels(t *testing.T) {
	logging.InitLogger("gateway", "debug")
	hook := test.NewLocal(logging.Logger)
	s := testSchema()

	s.Execute(context.Background(), Request{Query: `query Items { inventoryItems { id } }`})
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "GraphQL operation completed", entry.Message)
	assert.Equal(t, "query", entry.Data["operation_type"])
	assert.Equal(t, "Items", entry.Data["operation_name"])
	assert.Equal(t, true, entry.Data["success"])

	s.Execute(context.Background(), Request{Query: `{ nope }`})
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, hook.LastEntry().Data["error_count"])

	s.Execute(context.Background(), Request{Query: `query IntrospectionQuery { __schema { types { name } } }`})
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestServeHTTP(t *testing.T) {
	srv := httptest.NewServer(testSchema())
	defer srv.Close()

	t.Run("post", func(t *testing.T) {
		resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"query":"{ inventoryItems { name } }"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data struct {
				InventoryItems []inventory.Item `json:"inventoryItems"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Data.InventoryItems, 1)
		assert.Equal(t, "Widget", body.Data.InventoryItems[0].Name)
	})

	t.Run("get", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "?query=" + "%7B%20inventoryItems%20%7B%20id%20%7D%20%7D")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`not json`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty query", func(t *testing.T) {
		resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("method", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL, nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestArgsConversions(t *testing.T) {
	a := Args{"n": float64(3), "f": 1.5, "s": "x", "i64": int64(7), "id": widgetID.String(), "bad": "nope"}

	n, err := a.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	i, err := a.Int("i64")
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	_, err = a.Int("f")
	assert.Error(t, err)

	for _, v := range []any{1e300, float64(math.MaxInt32 + 1), int64(math.MinInt32) - 1, json.Number("4294967296")} {
		_, err = Args{"q": v}.Int("q")
		assert.Error(t, err, "%v", v)
	}
	edge, err := Args{"q": float64(math.MaxInt32)}.Int("q")
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, edge)

	_, err = a.String("missing")
	assert.Error(t, err)

	id, err := a.UUID("id")
	require.NoError(t, err)
	assert.Equal(t, widgetID, id)

	_, err = a.UUID("bad")
	assert.Error(t, err)
}
