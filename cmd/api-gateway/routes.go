package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/minwon-api/internal/bootstrap"
	"github.com/noah-isme/minwon-api/internal/handler"
	"github.com/noah-isme/minwon-api/internal/middleware"
	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/internal/service"
	"github.com/noah-isme/minwon-api/pkg/config"
	"github.com/noah-isme/minwon-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/minwon-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/minwon-api/pkg/middleware/requestid"
)

type routeDeps struct {
	complaints *service.ComplaintService
	board      *service.BoardService
	location   *service.LocationService
	export     *service.ExportService
	auth       *service.AuthService
	backfill   *service.BackfillService
	metrics    *service.MetricsService
	storage    *bootstrap.Storage
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.storage, deps.storage.Persistent)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.Persistence(deps.storage.Persistent))

	complaintHandler := handler.NewComplaintHandler(deps.complaints)
	exportHandler := handler.NewExportHandler(deps.export)
	complaints := api.Group("/complaints")
	complaints.POST("", complaintHandler.Submit)
	complaints.GET("", complaintHandler.List)
	complaints.GET("/export", exportHandler.Download)
	complaints.GET("/:id", complaintHandler.Get)
	complaints.POST("/:id/like", complaintHandler.Like)
	complaints.PATCH("/:id/resolve",
		middleware.JWT(deps.auth),
		middleware.RequireRoles(models.RoleAdmin),
		middleware.Audit(logr, "complaint.resolve"),
		complaintHandler.Resolve)

	boardHandler := handler.NewBoardHandler(deps.board)
	board := api.Group("/board")
	board.GET("/statistics", boardHandler.Statistics)
	board.GET("/ranking", boardHandler.Ranking)
	board.GET("/map", boardHandler.Map)

	locationHandler := handler.NewLocationHandler(deps.location)
	api.GET("/location/address", locationHandler.Address)

	authHandler := handler.NewAuthHandler(deps.auth)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", middleware.JWT(deps.auth), authHandler.Me)

	admin := api.Group("", middleware.JWT(deps.auth), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics/summary", metricsHandler.Summary)
	admin.POST("/admin/backfill-addresses",
		middleware.Audit(logr, "complaint.backfill_addresses"),
		handler.NewBackfillHandler(deps.backfill).Addresses)

	return r
}
