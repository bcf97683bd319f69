package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	EventBus  EventBusConfig
	Workflow  WorkflowConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

// Storage drivers for the order projection and idempotency keys.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type DatabaseConfig struct {
	Driver         string
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type EventBusConfig struct {
	// MaxDepth bounds nested emissions; zero means unlimited.
	MaxDepth int
}

type WorkflowConfig struct {
	CustomerCount int
	ProductCount  int
	MinAmount     int64
	MaxAmount     int64
	AlwaysInStock bool
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultMetricsPath    = "/metrics"
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultStorageDriver  = StorageMemory
	defaultMaxDepth       = 32
	defaultCustomerCount  = 5
	defaultProductCount   = 3
	defaultMinAmount      = 100
	defaultMaxAmount      = 500
	defaultServiceName    = "orderflow-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	busCfg, err := loadEventBusConfig()
	if err != nil {
		return nil, fmt.Errorf("loading event bus config: %w", err)
	}

	workflowCfg, err := loadWorkflowConfig()
	if err != nil {
		return nil, fmt.Errorf("loading workflow config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	return &Config{
		HTTP:      httpCfg,
		Database:  dbCfg,
		EventBus:  busCfg,
		Workflow:  workflowCfg,
		Telemetry: telCfg,
		Service:   serviceCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	metricsPath := getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath)

	return HTTPConfig{
		Port:          port,
		MetricsPath:   metricsPath,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	driver := getEnvOrDefault("STORAGE_DRIVER", defaultStorageDriver)
	if driver != StorageMemory && driver != StoragePostgres {
		return DatabaseConfig{}, fmt.Errorf("invalid STORAGE_DRIVER %q: want %s or %s", driver, StorageMemory, StoragePostgres)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	autoMigrate := defaultAutoMigrate
	if value, ok := os.LookupEnv("AUTO_MIGRATE"); ok {
		autoMigrate = value == "true"
	}

	migrationsPath := getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath)

	return DatabaseConfig{
		Driver:         driver,
		URL:            databaseURL,
		AutoMigrate:    autoMigrate,
		MigrationsPath: migrationsPath,
	}, nil
}

func loadEventBusConfig() (EventBusConfig, error) {
	maxDepth, err := getIntEnv("EVENTBUS_MAX_DEPTH", defaultMaxDepth)
	if err != nil {
		return EventBusConfig{}, err
	}
	if maxDepth < 0 {
		return EventBusConfig{}, errors.New("invalid EVENTBUS_MAX_DEPTH: must not be negative")
	}
	return EventBusConfig{MaxDepth: maxDepth}, nil
}

func loadWorkflowConfig() (WorkflowConfig, error) {
	customers, err := getIntEnv("WORKFLOW_CUSTOMER_COUNT", defaultCustomerCount)
	if err != nil {
		return WorkflowConfig{}, err
	}
	products, err := getIntEnv("WORKFLOW_PRODUCT_COUNT", defaultProductCount)
	if err != nil {
		return WorkflowConfig{}, err
	}
	minAmount, err := getIntEnv("WORKFLOW_MIN_AMOUNT", defaultMinAmount)
	if err != nil {
		return WorkflowConfig{}, err
	}
	maxAmount, err := getIntEnv("WORKFLOW_MAX_AMOUNT", defaultMaxAmount)
	if err != nil {
		return WorkflowConfig{}, err
	}

	switch {
	case customers < 1:
		return WorkflowConfig{}, errors.New("invalid WORKFLOW_CUSTOMER_COUNT: must be positive")
	case products < 1:
		return WorkflowConfig{}, errors.New("invalid WORKFLOW_PRODUCT_COUNT: must be positive")
	case minAmount < 1:
		return WorkflowConfig{}, errors.New("invalid WORKFLOW_MIN_AMOUNT: must be positive")
	case maxAmount < minAmount:
		return WorkflowConfig{}, errors.New("invalid WORKFLOW_MAX_AMOUNT: below WORKFLOW_MIN_AMOUNT")
	}

	return WorkflowConfig{
		CustomerCount: customers,
		ProductCount:  products,
		MinAmount:     int64(minAmount),
		MaxAmount:     int64(maxAmount),
		AlwaysInStock: getBoolEnv("INVENTORY_ALWAYS_IN_STOCK", true),
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "orderflow")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}
