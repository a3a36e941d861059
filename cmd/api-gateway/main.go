package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/minwon-api/api/swagger"
	"github.com/noah-isme/minwon-api/internal/bootstrap"
	"github.com/noah-isme/minwon-api/internal/repository"
	"github.com/noah-isme/minwon-api/internal/service"
	"github.com/noah-isme/minwon-api/pkg/cache"
	"github.com/noah-isme/minwon-api/pkg/config"
	"github.com/noah-isme/minwon-api/pkg/export"
	"github.com/noah-isme/minwon-api/pkg/geocode"
	"github.com/noah-isme/minwon-api/pkg/logger"
)

// @title Minwon API
// @version 1.0.0
// @description Citizen complaint board: file complaints on a map, browse, like and resolve them.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, false, logr)
	if err != nil {
		logr.Fatal("failed to open complaint store", zap.Error(err))
	}
	defer storage.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := newViewCache(ctx, cfg, metrics, logr)

	validate := validator.New()
	complaintRepo := repository.NewComplaintRepository(storage.Sheet, metrics, logr)
	geocoder := geocode.New(geocode.Config{
		BaseURL: cfg.Geocoder.BaseURL,
		APIKey:  cfg.Geocoder.APIKey,
		Timeout: cfg.Geocoder.Timeout,
	})
	if cfg.Geocoder.APIKey == "" {
		logr.Warn("geocoder API key not set, new complaints will carry no resolved address")
	}
	locationSvc := service.NewLocationService(geocoder, metrics, logr)
	complaintSvc := service.NewComplaintService(service.ComplaintServiceParams{
		Store:      complaintRepo,
		Resolver:   locationSvc,
		Cache:      cacheSvc,
		Metrics:    metrics,
		Validator:  validate,
		Logger:     logr,
		Persistent: storage.Persistent,
	})
	boardSvc := service.NewBoardService(complaintSvc, cacheSvc, cfg.Map, logr)
	exportSvc := service.NewExportService(complaintSvc, service.ExportConfig{MaxRows: cfg.Export.MaxRows}, logr,
		export.NewCSVExporter(true), export.NewPDFExporter(cfg.Export.PDFFontPath))
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminUsername:     cfg.Admin.Username,
		AdminPasswordHash: cfg.Admin.PasswordHash,
	})
	if cfg.Admin.PasswordHash == "" {
		logr.Warn("ADMIN_PASSWORD_HASH not set, staff login is disabled")
	}

	router := newRouter(cfg, logr, routeDeps{
		complaints: complaintSvc,
		board:      boardSvc,
		location:   locationSvc,
		export:     exportSvc,
		auth:       authSvc,
		backfill:   service.NewBackfillService(complaintRepo, geocoder, cacheSvc, metrics, logr, service.BackfillConfig{}),
		metrics:    metrics,
		storage:    storage,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "persistent", storage.Persistent)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newViewCache connects Redis only when view caching is switched on. Without Redis the
// service stays disabled and every view is rebuilt from a full reload.
func newViewCache(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.ViewCache.Enabled {
		return service.NewCacheService(nil, metrics, cfg.ViewCache.TTL, logr, false)
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("view cache disabled, redis unreachable", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.ViewCache.TTL, logr, false)
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, metrics, cfg.ViewCache.TTL, logr, true)
}
