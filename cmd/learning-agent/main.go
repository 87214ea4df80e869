package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lookinops/lookin-platform/internal/archive"
	"github.com/lookinops/lookin-platform/internal/learn"
	"github.com/lookinops/lookin-platform/internal/remote"
	"github.com/lookinops/lookin-platform/pkg/config"
	"github.com/lookinops/lookin-platform/pkg/health"
	"github.com/lookinops/lookin-platform/pkg/lookin"
	"github.com/lookinops/lookin-platform/pkg/mqtt"
	"github.com/lookinops/lookin-platform/pkg/postgres"
	"github.com/lookinops/lookin-platform/pkg/redis"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration with hierarchy: defaults → file → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "learning-agent"
	if err := cfg.LoadFromFile("config.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration file error: %v\n", err)
		os.Exit(1)
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	// Set up structured logging
	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Fall back to mDNS discovery when no hub address is configured
	if cfg.HubAddress == "" {
		discoverCtx, discoverCancel := context.WithTimeout(context.Background(), 15*time.Second)
		hubs, err := lookin.Discover(discoverCtx, 10*time.Second, logger)
		discoverCancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Hub discovery error: %v\n", err)
			os.Exit(1)
		}
		if len(hubs) == 0 {
			fmt.Fprintln(os.Stderr, "No LOOKin hub found on the local network; set --hub-address")
			os.Exit(1)
		}
		cfg.HubAddress = hubs[0].Address
		logger.Info("Using discovered hub", "name", hubs[0].Name, "address", hubs[0].Address)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting LOOKin learning agent",
		"service_name", cfg.ServiceName,
		"hub_address", cfg.HubAddress,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"log_level", cfg.LogLevel)

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize hub client and resolve the device ID
	hub := lookin.NewClient(cfg, logger)
	device, err := hub.Device(ctx)
	if err != nil {
		logger.Error("Failed to reach hub", "address", cfg.HubAddress, "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to hub",
		"device_id", device.ID,
		"name", device.Name,
		"firmware", device.Firmware)

	// Initialize MQTT and Redis clients
	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	// Optional Postgres session archive
	var archiver learn.Archiver
	var pgClient postgres.Client
	if cfg.ArchiveEnabled {
		pgClient = postgres.NewClient(cfg, logger)
		if err := pgClient.Connect(ctx); err != nil {
			logger.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		storage := archive.NewSessionStorage(pgClient.DB())
		if err := storage.Migrate(ctx); err != nil {
			logger.Error("Failed to migrate archive schema", "error", err)
			os.Exit(1)
		}
		archiver = storage
	}

	// Learned commands land on the hub, with local file fallback
	aux := remote.NewAuxStore(cfg.AuxDataPath, logger)
	sink := remote.NewSink(hub, aux, redisClient, device.ID, logger)

	// Retry anything stranded in the aux file from earlier sessions
	if flushed, err := sink.FlushAll(ctx); err != nil {
		logger.Warn("Failed to flush auxiliary data", "error", err)
	} else if flushed > 0 {
		logger.Info("Flushed stranded functions to hub", "count", flushed)
	}

	if cached, err := sink.CachedFunctions(ctx, "*"); err != nil {
		logger.Warn("Failed to list cached commands", "error", err)
	} else if len(cached) > 0 {
		logger.Info("Learned command cache primed", "count", len(cached))
	}

	agent := learn.NewAgent(mqttClient, hub, sink, archiver, redisClient, cfg, device.ID, logger)

	// Start health check server
	hubProbe := func() bool {
		probeCtx, probeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer probeCancel()
		_, err := hub.Device(probeCtx)
		return err == nil
	}
	healthChecker := health.NewChecker(mqttClient, redisClient, hubProbe, logger)
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
	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis connection", "error", err)
	}
	if pgClient != nil {
		if err := pgClient.Disconnect(); err != nil {
			logger.Error("Error disconnecting Postgres", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Learning agent shutdown complete")
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

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

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
