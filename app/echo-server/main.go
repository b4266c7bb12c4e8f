package main

import (
	"context"
	"fmt"
	"log"
	httpmetrics "modelPilot/app/echo-server/metrics"
	"modelPilot/app/echo-server/router"
	"modelPilot/business/experiment"
	"modelPilot/business/registry"
	"modelPilot/business/replay"
	userService "modelPilot/business/user"
	"modelPilot/internal/middleware"
	"modelPilot/internal/repository/modelapi"
	"modelPilot/internal/repository/notification"
	psqlRepo "modelPilot/internal/repository/postgres"
	redisRepo "modelPilot/internal/repository/redis"
	"modelPilot/internal/rest"
	"modelPilot/pkg/config"
	"modelPilot/pkg/database"
	redisdb "modelPilot/pkg/database/redis"
	"modelPilot/pkg/logger"
	"modelPilot/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Model Pilot", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}

	// Init notifier, falls back to a noop when no webhook is configured
	var notifier experiment.Notifier = notification.NoopNotifier{}
	if cfg.Notifier.NotifierWebhookUrl != "" {
		notifier = notification.NewWebhookRepository(
			notification.WebhookConfig{
				WebhookURL:        cfg.Notifier.NotifierWebhookUrl,
				BasicAuthUsername: cfg.Notifier.NotifierBasicAuthUsername,
				BasicAuthPassword: cfg.Notifier.NotifierBasicAuthPassword,
			},
		)
	}

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	endpointRepo := psqlRepo.NewModelEndpointRepository(db)
	experimentRepo := psqlRepo.NewExperimentRepository(db)
	decisionRepo := psqlRepo.NewDecisionRepository(db)
	replayRepo := psqlRepo.NewReplayRepository(db)
	tokenRepo := redisRepo.NewTokenRepository(redisClient)
	clientFactory := modelapi.NewClientFactory(time.Duration(cfg.ModelClient.TimeoutSeconds) * time.Second)

	// Init service
	userSvc := userService.NewUserService(userRepo, validate, tokenRepo)
	registrySvc := registry.NewRegistryService(endpointRepo, clientFactory, cfg.App.AppCredentialsKey)
	experimentSvc := experiment.NewExperimentService(experimentRepo, decisionRepo, registrySvc, notifier)
	replaySvc := replay.NewReplayService(replayRepo, experimentSvc)

	// Init handler
	userHandler := rest.NewUserHandler(userSvc)
	registryHandler := rest.NewRegistryHandler(registrySvc)
	experimentHandler := rest.NewExperimentHandler(experimentSvc)
	experimentAdminHandler := rest.NewExperimentAdminHandler(experimentSvc)
	replayHandler := rest.NewReplayHandler(replaySvc)

	// Init metrics
	metrics.Init()
	httpmetrics.Init()

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(httpmetrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Auth middleware
	authRequired := middleware.AuthMiddlewareWithRedis(userSvc)
	adminOnly := middleware.AdminOnly()
	selfOrAdmin := middleware.SelfOrAdmin()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, authRequired, adminOnly, selfOrAdmin)
	router.SetModelRegistryRoutes(api, registryHandler, authRequired, adminOnly)
	router.SetupExperimentRoutes(api, experimentHandler, authRequired)
	router.SetExperimentAdminRoutes(api, experimentAdminHandler, authRequired, adminOnly)
	router.SetReplayRoutes(api, replayHandler, authRequired, adminOnly)

	// Bring stored experiments back into memory
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := experimentSvc.Restore(restoreCtx); err != nil {
		logger.Error("Failed to restore experiments", "error", err)
	}
	restoreCancel()

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redisdb.CloseRedisClient(redisClient); err != nil {
		logger.Error("Redis shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
