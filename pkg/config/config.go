package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Logging LoggingConfig
	Storage StorageConfig
	Events  EventsConfig
	Billing BillingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      string
	DatabaseURL string
	DynamoDB    DynamoDBConfig
}

// DynamoDBConfig names the tables of the DynamoDB store.
type DynamoDBConfig struct {
	Endpoint       string
	ProjectsTable  string
	ContractsTable string
	InvoicesTable  string
	WalletsTable   string
	PaymentsTable  string
}

// EventsConfig configures payment event publishing. An empty queue URL disables it.
type EventsConfig struct {
	SQSQueueURL string
}

// BillingConfig holds the domain settings.
type BillingConfig struct {
	Provider           string
	StaleLockThreshold time.Duration
	// GatewayTimeout bounds a single charge. It must stay below StaleLockThreshold so that
	// an invoice claim is never reclaimed while its charge can still complete.
	GatewayTimeout time.Duration
	// SeedProjects are "owner/name" repositories registered at startup.
	SeedProjects []string
}

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 8080
	defaultReadTimeout        = 10 * time.Second
	defaultWriteTimeout       = 15 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultLoggingLevel       = "info"
	defaultLoggingFormat      = "text"
	defaultProvider           = "github"
	defaultStaleLockThreshold = 5 * time.Minute
	defaultGatewayTimeout     = time.Minute
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host: valueOrDefault("HTTP_HOST", defaultHost),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(valueOrDefault("STORAGE_DRIVER", DriverMemory)),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			DynamoDB: DynamoDBConfig{
				Endpoint:       os.Getenv("DYNAMODB_ENDPOINT"),
				ProjectsTable:  valueOrDefault("DYNAMODB_PROJECTS_TABLE_NAME", "projects"),
				ContractsTable: valueOrDefault("DYNAMODB_CONTRACTS_TABLE_NAME", "contracts"),
				InvoicesTable:  valueOrDefault("DYNAMODB_INVOICES_TABLE_NAME", "invoices"),
				WalletsTable:   valueOrDefault("DYNAMODB_WALLETS_TABLE_NAME", "wallets"),
				PaymentsTable:  valueOrDefault("DYNAMODB_PAYMENTS_TABLE_NAME", "payments"),
			},
		},
		Events: EventsConfig{
			SQSQueueURL: os.Getenv("SQS_QUEUE_URL"),
		},
		Billing: BillingConfig{
			Provider:     valueOrDefault("PROVIDER", defaultProvider),
			SeedProjects: parseList("SEED_PROJECTS"),
		},
	}

	port, err := parsePort("HTTP_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		fallback time.Duration
		dest     *time.Duration
	}{
		{"HTTP_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"HTTP_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"STALE_LOCK_THRESHOLD", defaultStaleLockThreshold, &cfg.Billing.StaleLockThreshold},
		{"GATEWAY_TIMEOUT", defaultGatewayTimeout, &cfg.Billing.GatewayTimeout},
	}
	for _, d := range durations {
		v, err := parseDurationWithDefault(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.dest = v
	}

	if cfg.Billing.GatewayTimeout <= 0 || cfg.Billing.GatewayTimeout >= cfg.Billing.StaleLockThreshold {
		return Config{}, fmt.Errorf("GATEWAY_TIMEOUT %s must be positive and below STALE_LOCK_THRESHOLD %s",
			cfg.Billing.GatewayTimeout, cfg.Billing.StaleLockThreshold)
	}

	switch cfg.Storage.Driver {
	case DriverMemory, DriverDynamoDB:
	case DriverPostgres:
		if cfg.Storage.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return port, nil
}
