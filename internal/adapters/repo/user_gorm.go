package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	app "github.com/checkman123/OpenTelemetry/internal/app/users"
	domain "github.com/checkman123/OpenTelemetry/internal/domain/user"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

type userRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() domain.User {
	return domain.User{ID: r.ID, Name: r.Name, Email: r.Email, CreatedAt: r.CreatedAt.UTC()}
}

type UserGorm struct {
	db *gorm.DB
}

func NewUserGorm(db *gorm.DB) *UserGorm { return &UserGorm{db: db} }

// OpenGorm connects gorm to Postgres and checks the connection.
func OpenGorm(ctx context.Context, dsn string, maxConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (r *UserGorm) Add(ctx context.Context, name, email string) (domain.User, error) {
	row := userRow{ID: uuid.New(), Name: name, Email: email, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		logging.LogErrorCtx(ctx, "Error inserting user", err, logrus.Fields{"user_id": row.ID.String()})
		return domain.User{}, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	return row.toDomain(), nil
}

func (r *UserGorm) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, app.ErrNotFound
	}
	if err != nil {
		logging.LogErrorCtx(ctx, "Error fetching user", err, logrus.Fields{"user_id": id.String()})
		return domain.User{}, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	return row.toDomain(), nil
}

func (r *UserGorm) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		logging.LogErrorCtx(ctx, "Error listing users", err, logrus.Fields{})
		return nil, mapCtxErr(ctx, err, app.ErrTimeout)
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
