package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	app "github.com/checkman123/OpenTelemetry/internal/app/inventory"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/inventory"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

const (
	qInsertItem = `
INSERT INTO inventory_items (id, name, quantity, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, name, quantity, created_at;`

	qItemByID = `
SELECT id, name, quantity, created_at
FROM inventory_items
WHERE id = $1;`

	qListItems = `
SELECT id, name, quantity, created_at
FROM inventory_items
ORDER BY created_at, id;`
)

type InventoryPG struct {
	pool *pgxpool.Pool
}

func NewInventoryPG(pool *pgxpool.Pool) *InventoryPG { return &InventoryPG{pool: pool} }

func (r *InventoryPG) Add(ctx context.Context, name string, quantity int) (domain.Item, error) {
	id := uuid.New()
	row := r.pool.QueryRow(ctx, qInsertItem, id, name, quantity, time.Now().UTC())

	item, err := scanItem(row)
	if err != nil {
		logging.LogErrorCtx(ctx, "Error inserting inventory item", err, logrus.Fields{"item_id": id.String()})
		return domain.Item{}, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	return item, nil
}

func (r *InventoryPG) Get(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, qItemByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, app.ErrNotFound
	}
	if err != nil {
		logging.LogErrorCtx(ctx, "Error fetching inventory item", err, logrus.Fields{"item_id": id.String()})
		return domain.Item{}, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	return item, nil
}

func (r *InventoryPG) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, qListItems)
	if err != nil {
		logging.LogErrorCtx(ctx, "Error listing inventory items", err, logrus.Fields{})
		return nil, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	defer rows.Close()

	out := make([]domain.Item, 0, 16)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, mapCtxErr(ctx, err, app.ErrTimeout)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		logging.LogErrorCtx(ctx, "Error iterating inventory items", err, logrus.Fields{})
		return nil, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	return out, nil
}

func scanItem(row pgx.Row) (domain.Item, error) {
	var it domain.Item
	if err := row.Scan(&it.ID, &it.Name, &it.Quantity, &it.CreatedAt); err != nil {
		return domain.Item{}, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	return it, nil
}

// mapCtxErr turns cancellation and deadline failures into the caller's
// timeout sentinel.
func mapCtxErr(ctx context.Context, err, timeout error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return timeout
	}
	return err
}
