// Command seeder inserts demo inventory items and users into Postgres.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/adapters/repo"
	"github.com/checkman123/OpenTelemetry/internal/config"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

const (
	itemsN = 200
	usersN = 50
)

var (
	itemNames  = []string{"Widget", "Gadget", "Sprocket", "Flange", "Gizmo", "Bracket"}
	firstNames = []string{"Ada", "Grace", "Linus", "Ken", "Barbara", "Rob"}
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("seeder")
	if err != nil {
		logging.InitLogger("seeder", "info")
		logging.LogError("config load failed", err, logrus.Fields{})
		os.Exit(1)
	}
	logging.InitLogger("seeder", cfg.App.LogLevel)

	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		logging.LogError("db connect", err, logrus.Fields{})
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.Migrate(pool); err != nil {
		logging.LogError("migrate", err, logrus.Fields{})
		os.Exit(1)
	}

	if err := seed(ctx, pool, rand.New(rand.NewSource(time.Now().UnixNano()))); err != nil {
		logging.LogError("seed failed", err, logrus.Fields{})
		os.Exit(1)
	}
	logging.LogInfo("seeded demo data", logrus.Fields{"inventory_items": itemsN, "users": usersN})
}

func seed(ctx context.Context, pool *pgxpool.Pool, rnd *rand.Rand) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()

	items := &pgx.Batch{}
	for i := 1; i <= itemsN; i++ {
		name := fmt.Sprintf("%s %03d", itemNames[rnd.Intn(len(itemNames))], i)
		items.Queue(`
			INSERT INTO inventory_items (id, name, quantity, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			uuid.New(), name, rnd.Intn(500), now.Add(-time.Duration(rnd.Intn(86400))*time.Second),
		)
	}
	if err = tx.SendBatch(ctx, items).Close(); err != nil {
		return fmt.Errorf("inventory batch: %w", err)
	}

	users := &pgx.Batch{}
	for i := 1; i <= usersN; i++ {
		first := firstNames[rnd.Intn(len(firstNames))]
		users.Queue(`
			INSERT INTO users (id, name, email, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			uuid.New(), fmt.Sprintf("%s %d", first, i), fmt.Sprintf("user%03d@example.com", i), now,
		)
	}
	if err = tx.SendBatch(ctx, users).Close(); err != nil {
		return fmt.Errorf("users batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
