package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/orderflow/internal/config"
	"github.com/dejobratic/orderflow/internal/database"
	"github.com/dejobratic/orderflow/internal/eventbus"
	idemmemory "github.com/dejobratic/orderflow/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/orderflow/internal/idempotency/postgres"
	"github.com/dejobratic/orderflow/internal/orders/adapters"
	httpadapter "github.com/dejobratic/orderflow/internal/orders/adapters/http"
	ordersmemory "github.com/dejobratic/orderflow/internal/orders/adapters/memory"
	orderspostgres "github.com/dejobratic/orderflow/internal/orders/adapters/postgres"
	"github.com/dejobratic/orderflow/internal/orders/agents"
	ordersapp "github.com/dejobratic/orderflow/internal/orders/app"
	"github.com/dejobratic/orderflow/internal/orders/app/commands"
	"github.com/dejobratic/orderflow/internal/orders/domain"
	ordersmetrics "github.com/dejobratic/orderflow/internal/orders/metrics"
	"github.com/dejobratic/orderflow/internal/orders/ports"
	"github.com/dejobratic/orderflow/internal/telemetry"
)

const meterName = "github.com/dejobratic/orderflow"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		slog.Warn("falling back to info log level", "error", err)
	}
	logger := telemetry.NewLogger(os.Stdout, level).With("service", cfg.Service.Name)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(meterName)
	busMetrics, err := eventbus.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create event bus metrics", "error", err)
		os.Exit(1)
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	workflowMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create workflow metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	store, err := openStorage(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.close()

	bus := eventbus.NewObservableBus(
		eventbus.New(eventbus.WithMaxDepth(cfg.EventBus.MaxDepth)),
		logger,
		busMetrics,
	)
	for _, eventType := range domain.WorkflowEvents {
		bus.Subscribe(eventType, eventbus.LogHandler(logger, eventType, slog.LevelInfo))
	}

	stock := agents.StaticStock{Available: cfg.Workflow.AlwaysInStock}
	workflow := commands.NewObservableWorkflow(
		commands.NewWorkflowHandler(
			agents.NewOrderAgent(bus, logger),
			agents.NewPaymentAgent(bus, logger),
			agents.NewInventoryAgent(bus, stock, logger),
			agents.NewShippingAgent(bus, logger),
		),
		logger,
		workflowMetrics,
	)

	service := ordersapp.NewService(
		bus,
		workflow,
		adapters.NewObservableRepository(store.orders, dbMetrics),
		store.idempotency,
		logger,
		workflowMetrics,
		ordersapp.Config{
			CustomerCount: cfg.Workflow.CustomerCount,
			ProductCount:  cfg.Workflow.ProductCount,
			MinAmount:     cfg.Workflow.MinAmount,
			MaxAmount:     cfg.Workflow.MaxAmount,
		},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.ready(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("GET "+cfg.HTTP.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"exporter": "otlp",
			"endpoint": cfg.Telemetry.OTelEndpoint,
			"enabled":  cfg.Telemetry.EnableMetrics && cfg.Telemetry.OTelEndpoint != "",
		})
	})

	httpadapter.NewHandler(service, httpMetrics).Register(mux)

	handler := httpadapter.WithMetrics(mux, httpMetrics)
	handler = httpadapter.WithLogging(handler, logger)
	handler = httpadapter.WithRecovery(handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"storage", cfg.Database.Driver,
			"eventbus_max_depth", cfg.EventBus.MaxDepth,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

type storage struct {
	orders      ports.OrderRepository
	idempotency ports.IdempotencyStore
	ready       func(ctx context.Context) error
	close       func()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*storage, error) {
	if cfg.Driver == config.StorageMemory {
		return &storage{
			orders:      ordersmemory.NewRepository(),
			idempotency: idemmemory.NewStore(),
			ready:       func(context.Context) error { return nil },
			close:       func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	if cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, logger, cfg.URL, cfg.MigrationsPath); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations from %s: %w", cfg.MigrationsPath, err)
		}
	}

	return &storage{
		orders:      orderspostgres.NewRepository(pool),
		idempotency: idempostgres.NewStore(pool),
		ready:       func(ctx context.Context) error { return database.CheckHealth(ctx, pool) },
		close:       pool.Close,
	}, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

