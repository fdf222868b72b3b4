package main

import (
	"context"
	"errors"
	"jetlex_app_go/config"
	"jetlex_app_go/db"
	"jetlex_app_go/handlers"
	"jetlex_app_go/logger"
	"jetlex_app_go/middleware"
	"jetlex_app_go/services"
	"jetlex_app_go/services/jobs"
	"jetlex_app_go/services/osint"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.LogLevel)

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.MigrateAll(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// The matrix is seeded once; later edits go through the API
	if n, err := services.SeedDecisionMatrixFromFile(db.DB, cfg.DecisionMatrixPath, true); err != nil {
		log.Warn().Err(err).Str("path", cfg.DecisionMatrixPath).Msg("decision matrix not seeded")
	} else if n > 0 {
		log.Info().Int("rules", n).Msg("decision matrix seeded")
	}

	mailer := services.NewResendMailer(cfg)
	handlers.Setup(handlers.Deps{
		Storage: services.NewStorageFromConfig(cfg),
		Mailer:  mailer,
		Tokens:  services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		OSINT:   osint.NewService(db.DB, osint.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), cfg.OpenAITimeout),
	})

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(echomiddleware.BodyLimit("12M"))

	handlers.RegisterRoutes(e, cfg)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go services.Monitor.Run(monitorCtx, time.Hour)

	// Start background jobs
	if cfg.SchedulerEnabled {
		scheduler, err := jobs.StartScheduler(db.DB, cfg, mailer)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start scheduler")
		}
		defer func() {
			<-scheduler.Stop().Done()
		}()
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("server starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
