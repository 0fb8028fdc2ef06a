package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nikhil-Doal/tracker/internal/api"
	"github.com/Nikhil-Doal/tracker/internal/auth"
	"github.com/Nikhil-Doal/tracker/internal/config"
	"github.com/Nikhil-Doal/tracker/internal/database"
	"github.com/Nikhil-Doal/tracker/internal/insights"
	"github.com/Nikhil-Doal/tracker/internal/logging"
	"github.com/Nikhil-Doal/tracker/internal/metrics"
	"github.com/Nikhil-Doal/tracker/internal/scheduler"
	"github.com/Nikhil-Doal/tracker/internal/server"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting tracker", "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Log connection config (without sensitive data)
	logger.Info("database configuration", "config", database.ConnectionInfo(cfg.Database))

	dbCfg, err := database.ConfigFrom(cfg.Database)
	if err != nil {
		logger.Error("failed to build database URL", "error", err)
		os.Exit(1)
	}

	if cfg.Database.MigrateOnStart {
		logger.Info("running migrations")
		if err := database.Migrate(dbCfg.URL, "up"); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("connecting to database", "url", database.RedactURL(dbCfg.URL))
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Create repositories
	userRepo := database.NewUserRepository(db)
	eventRepo := database.NewEventRepository(db)
	insightRepo := database.NewInsightRepository(db)
	inferenceLogRepo := database.NewInferenceLogRepository(db)

	collector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	inferenceLogger := insights.NewInferenceLogger(inferenceLogRepo, logger)
	defer inferenceLogger.Wait()

	generator := insights.NewGenerator(cfg.AI, logger, inferenceLogger)
	aiService := insights.NewService(generator, collector, cfg.AI.Timeout, logger)
	logger.Info("ai configured", "provider", cfg.AI.Provider, "enabled", aiService.Configured())

	mux := http.NewServeMux()
	api.SetupRoutes(mux, api.Dependencies{
		Users:         userRepo,
		Events:        eventRepo,
		Insights:      insightRepo,
		InferenceLogs: inferenceLogRepo,
		AI:            aiService,
		Auth:          auth.ConfigFrom(cfg.Auth),
		Analytics:     cfg.Analytics,
		Recorder:      collector,
		Health: func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		},
		AIProvider: cfg.AI.Provider,
		Version:    version,
		Logger:     logger,
	})
	mux.Handle("GET /metrics", collector.Handler())

	if cfg.Digest.Enabled {
		if aiService.Configured() {
			digest := scheduler.NewDigestScheduler(eventRepo, insightRepo, aiService, logger, cfg.Digest.Interval)
			go digest.Start(ctx)
		} else {
			logger.Warn("DIGEST_ENABLED is set but no AI provider is configured, digests disabled")
		}
	}

	handler := auth.CORS(cfg.CORS.AllowedOrigins)(collector.InstrumentHandler(mux))
	srv := server.New(cfg.Server, logger, handler)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.Port))
	if err != nil {
		logger.Error("failed to listen", "port", cfg.Server.Port, "error", err)
		os.Exit(1)
	}

	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))
	if err := srv.Run(ctx, ln); err != nil {
		logger.Error("server error", "error", err)
	}

	logger.Info("shutdown complete", "db", database.Stats(db))
}
