package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/bootstrap"
	"github.com/noah-isme/minwon-api/internal/repository"
	"github.com/noah-isme/minwon-api/pkg/config"
	"github.com/noah-isme/minwon-api/pkg/logger"
)

// cliEnv bundles what every store-backed command needs.
type cliEnv struct {
	cfg     *config.Config
	logger  *zap.Logger
	storage *bootstrap.Storage
	repo    *repository.ComplaintRepository
}

// openEnv loads configuration and opens the durable store. Commands never fall back to
// memory: changes made there would vanish when the command exits.
func openEnv(ctx context.Context) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	storage, err := bootstrap.OpenStorage(ctx, cfg, true, logr)
	if err != nil {
		_ = logr.Sync()
		return nil, err
	}
	return &cliEnv{
		cfg:     cfg,
		logger:  logr,
		storage: storage,
		repo:    repository.NewComplaintRepository(storage.Sheet, nil, logr),
	}, nil
}

func (e *cliEnv) Close() {
	_ = e.storage.Close()
	_ = e.logger.Sync()
}
