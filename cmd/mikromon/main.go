package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	mqttadapter "github.com/regolet/mikrotikmonitoring/internal/adapter/driven/mqtt"
	"github.com/regolet/mikrotikmonitoring/internal/adapter/driven/routeros"
	sqliteadapter "github.com/regolet/mikrotikmonitoring/internal/adapter/driven/sqlite"
	httphandler "github.com/regolet/mikrotikmonitoring/internal/adapter/driving/http"
	"github.com/regolet/mikrotikmonitoring/internal/application"
	"github.com/regolet/mikrotikmonitoring/internal/config"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration and install the process logger.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"broadcast_interval", cfg.BroadcastInterval,
		"router_timeout", cfg.RouterTimeout,
		"secret_key_set", cfg.SecretKey != nil,
		"mqtt_enabled", cfg.MQTT.Enabled(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire stores and load the registry.
	endpointStore := sqliteadapter.NewEndpointRepo(db, cfg.SecretKey)
	groupStore := sqliteadapter.NewGroupRepo(db)
	categoryStore := sqliteadapter.NewCategoryRepo(db)

	registry, err := application.NewRegistry(ctx, endpointStore)
	if err != nil {
		return err
	}
	if err := seedRegistry(ctx, registry, cfg.SeedFile); err != nil {
		return err
	}

	// 6. Wire application services.
	factory := routeros.Factory{Timeout: cfg.RouterTimeout, Logger: logger}
	supervisor := application.NewSupervisor(registry, factory)
	telemetry := application.NewTelemetryService(registry, supervisor)
	selection := application.NewSelection(registry, "")
	groups := application.NewGroupService(registry, groupStore, categoryStore)

	// 7. Telemetry sinks: WebSocket hub always, MQTT when configured.
	hub := httphandler.NewHub(logger, cfg.AllowedOrigins)
	go hub.Run()
	defer hub.Stop()

	sinks := []driven.TelemetrySink{hub}
	if cfg.MQTT.Enabled() {
		publisher, err := mqttadapter.NewPublisher(mqttadapter.Config{
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	// 8. Start the broadcast loop.
	broadcaster := application.NewBroadcastService(registry, telemetry, sinks, cfg.BroadcastInterval, cfg.PollConcurrency)
	go broadcaster.Start(ctx)

	// 9. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(registry, supervisor, telemetry, selection, groups, hub, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("mikromon started",
		"listen_addr", cfg.ListenAddr,
		"endpoints", registry.Len(),
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// seedRegistry populates an empty registry from the seed file, or with a
// disabled factory-default endpoint when no seed file is configured.
func seedRegistry(ctx context.Context, registry *application.Registry, seedFile string) error {
	if registry.Len() > 0 {
		return nil
	}

	if seedFile == "" {
		ep, err := registry.Add(ctx, config.DefaultEndpoint())
		if err != nil {
			return fmt.Errorf("add default endpoint: %w", err)
		}
		slog.Info("registry empty, default endpoint created", "endpoint", ep.ID, "address", ep.Address())
		return nil
	}

	seed, err := config.LoadSeed(seedFile)
	if err != nil {
		return err
	}
	for _, entry := range seed.Endpoints {
		if _, err := registry.Add(ctx, entry.Model()); err != nil {
			return fmt.Errorf("seed endpoint %q: %w", entry.Name, err)
		}
	}
	slog.Info("registry seeded", "file", seedFile, "endpoints", len(seed.Endpoints))
	return nil
}
