package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/palatehq/palate-platform/internal/planner"
	"github.com/palatehq/palate-platform/internal/preference"
	"github.com/palatehq/palate-platform/pkg/config"
	"github.com/palatehq/palate-platform/pkg/health"
	"github.com/palatehq/palate-platform/pkg/mqtt"
	"github.com/palatehq/palate-platform/pkg/postgres"
	"github.com/palatehq/palate-platform/pkg/redis"
)

func main() {
	// Standard bootstrap (consistent with other agents)
	cfg := config.NewConfig()
	cfg.ServiceName = "planner-agent"
	cfg.HealthPort = 8081
	if path := os.Getenv("PALATE_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config file error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting Planner Agent",
		"mqtt", cfg.MQTTAddress(),
		"redis", cfg.RedisAddress(),
		"planDays", cfg.PlanDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize clients
	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	store, similar := buildStores(ctx, cfg, redisClient, logger)

	tables, err := loadTables(cfg)
	if err != nil {
		logger.Error("Failed to load keyword tables", "error", err)
		os.Exit(1)
	}

	// The preference agent doubles as the per-user engine cache; it is
	// never started here, so it owns no subscriptions.
	engines := preference.NewAgent(cfg, mqttClient, store, preference.SystemClock(), tables, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := planner.NewGenerator(rng, logger)
	agent := planner.NewAgent(engines, generator, similar, preference.NewExtractor(tables), mqttClient, cfg.PlanDays, cfg.NoRepeatWindow, logger)

	// Start health check server
	healthChecker := health.NewChecker(mqttClient, redisClient, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	// Start agent in a goroutine
	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	// Wait for shutdown signal or agent error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	// Graceful shutdown
	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Planner agent shutdown complete")
}

// buildStores connects Postgres for the profile store and similarity
// lookups, falling back to Redis without similarity support
func buildStores(ctx context.Context, cfg *config.Config, redisClient redis.Client, logger *slog.Logger) (preference.ProfileStore, planner.SimilarityStore) {
	pgClient := postgres.NewClient(cfg, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Warn("Postgres unavailable, using Redis store", "error", err)
		return preference.NewRedisStore(redisClient, cfg.MaxRatingHistory, logger), nil
	}

	store := preference.NewPostgresStore(pgClient, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn("Schema setup failed, using Redis store", "error", err)
		return preference.NewRedisStore(redisClient, cfg.MaxRatingHistory, logger), nil
	}
	return store, store
}

func loadTables(cfg *config.Config) (*preference.Tables, error) {
	if cfg.TablesFile == "" {
		return preference.DefaultTables(), nil
	}
	return preference.LoadTables(cfg.TablesFile)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}
