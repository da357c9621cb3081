package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixiedash/backend/internal/config"
	"github.com/fixiedash/backend/internal/handler"
	"github.com/fixiedash/backend/internal/kafka"
	"github.com/fixiedash/backend/internal/metrics"
	"github.com/fixiedash/backend/internal/postgres"
	"github.com/fixiedash/backend/internal/redis"
	"github.com/fixiedash/backend/internal/service"
	"github.com/fixiedash/backend/internal/store"
	"github.com/fixiedash/backend/internal/websocket"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the store for the configured backend
	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("store initialized", "backend", cfg.Store.Backend)

	// Metrics
	collector := metrics.NewCollector()

	// WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Game service
	gameService := service.NewGameService(st, &cfg.Leaderboard, logger, collector)
	gameService.SetHub(wsHub)

	// Optional Kafka ingestion for ride-finished events
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, gameService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started")
		}
	}

	// HTTP handler
	httpHandler := handler.NewHandler(gameService, wsHub, collector, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	wsHub.Stop()

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}

// buildStore constructs the configured storage backend. The in-memory store
// is the default; redis and postgres keep the same Store contract for
// deployments that want state outside the process.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		return redis.NewStore(&cfg.Redis, logger)

	case config.BackendPostgres:
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		pgStore, err := postgres.NewStore(&cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if err := pgStore.RunMigrations(ctx); err != nil {
			pgStore.Close()
			return nil, err
		}
		return pgStore, nil

	default:
		return store.NewMemoryStore(), nil
	}
}
