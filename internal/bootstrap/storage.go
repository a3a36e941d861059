// Package bootstrap opens the complaint sheet shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/repository"
	"github.com/noah-isme/minwon-api/pkg/config"
	"github.com/noah-isme/minwon-api/pkg/database"
	"github.com/noah-isme/minwon-api/pkg/sheet"
)

// Storage is the opened complaint sheet and the connection backing it.
type Storage struct {
	Sheet sheet.Store
	DB    *sqlx.DB
	// Persistent is false when the sheet only lives in process memory.
	Persistent bool
}

// Ping checks the database behind a persistent sheet. A memory sheet is always reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

// Close releases the database connection, if any.
func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStorage connects to PostgreSQL, applies migrations when configured and makes sure
// the sheet has its header row. When the database cannot be reached and durable is false,
// it falls back to an in-memory sheet and logs a warning.
func OpenStorage(ctx context.Context, cfg *config.Config, durable bool, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	storage, err := openPostgres(ctx, cfg, logger)
	if err == nil {
		return storage, nil
	}
	if durable {
		return nil, err
	}

	logger.Warn("complaint store unavailable, keeping complaints in memory only",
		zap.String("db_host", cfg.Database.Host),
		zap.Int("db_port", cfg.Database.Port),
		zap.Error(err))
	return &Storage{Sheet: sheet.NewMemoryStore(repository.Header())}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, logger); err != nil {
			return nil, errors.Join(err, db.Close())
		}
	}

	store := sheet.NewPostgresStore(db, cfg.Sheet.Name)
	if err := store.EnsureHeader(ctx, repository.Header()); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	logger.Info("complaint store ready", zap.String("sheet", store.Name()))
	return &Storage{Sheet: store, DB: db, Persistent: true}, nil
}
