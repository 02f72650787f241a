package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reservas-backend/config"
	"reservas-backend/internal/model"
)

// IsSQLite reports whether dsn points at a SQLite database.
func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") || dsn == ":memory:"
}

// Init opens the database and migrates the tables this service owns.
func Init(cfg *config.DatabaseConfig, level zerolog.Level, log zerolog.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	dialector := postgres.Open(cfg.DSN)
	if IsSQLite(cfg.DSN) {
		dialector = sqlite.Open(cfg.DSN)
	}

	gormLevel := logger.Warn
	if level <= zerolog.DebugLevel {
		gormLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := Migrate(db, cfg.MigrateReservations); err != nil {
		return nil, err
	}
	log.Info().Bool("sqlite", IsSQLite(cfg.DSN)).Bool("reservations_migrated", cfg.MigrateReservations).Msg("database initialized")
	return db, nil
}

// Migrate creates the push subscription table and, when asked, a
// reservations table with the natural key as a unique index.
func Migrate(db *gorm.DB, withReservations bool) error {
	models := []any{&model.PushSubscription{}}
	if withReservations {
		models = append(models, &model.Row{})
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
