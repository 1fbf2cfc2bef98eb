package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/vitas-brc20/dicer/database"
)

// Payout modes
const (
	PayoutModeQueued = "queued" // draw schedules entries, finalize disburses them
	PayoutModeDirect = "direct" // draw disburses every entry while settling
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// HTTP API
	HTTPAddr      string  `env:"HTTP_ADDR" envDefault:":8080"`
	RollRateLimit float64 `env:"ROLL_RATE_LIMIT" envDefault:"1"` // roll submissions per second per account
	RollRateBurst int     `env:"ROLL_RATE_BURST" envDefault:"5"`

	// Authorization
	AdminToken    string `env:"ADMIN_TOKEN"`            // bearer secret for privileged operations
	JWTSecret     string `env:"JWT_SECRET"`             // HS256 key for account tokens
	WebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"` // shared secret for payment notifications

	// NATS configuration
	NATSEnabled bool   `env:"NATS_ENABLED" envDefault:"true"`
	NATSServers string `env:"NATS_SERVERS" envDefault:"nats://nats:4222"` // comma-separated

	// Engine configuration
	EngineAccount  string        `env:"ENGINE_ACCOUNT" envDefault:"inchgame"` // account that receives ticket payments
	DiceSides      int           `env:"DICE_SIDES" envDefault:"6"`
	PeriodLength   time.Duration `env:"PERIOD_LENGTH" envDefault:"24h"`
	PeriodOffset   time.Duration `env:"PERIOD_OFFSET" envDefault:"0s"` // shift from midnight UTC, e.g. -9h for KST days
	RollCutoff     time.Duration `env:"ROLL_CUTOFF" envDefault:"1h"`   // rolls close this long before the period ends
	PayoutFraction string        `env:"PAYOUT_FRACTION" envDefault:"0.90"`
	PayoutMode     string        `env:"PAYOUT_MODE" envDefault:"queued"`

	// Workers
	DrawWorkerEnabled   bool   `env:"DRAW_WORKER_ENABLED" envDefault:"true"`
	PayoutWorkerEnabled bool   `env:"PAYOUT_WORKER_ENABLED" envDefault:"false"`
	PayoutSweepSchedule string `env:"PAYOUT_SWEEP_SCHEDULE" envDefault:"@every 1m"`

	// OpenTelemetry configuration
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"dicer"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"none"` // console, otlp, none
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"otel-collector:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MILLIS" envDefault:"60000"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// GetPayoutFraction returns the share of the pot paid to winners.
// Validate guarantees the value parses; an invalid value falls back to zero.
func (c *Config) GetPayoutFraction() decimal.Decimal {
	fraction, err := decimal.NewFromString(c.PayoutFraction)
	if err != nil {
		return decimal.Zero
	}
	return fraction
}

// IsDirectPayout reports whether draws disburse winnings immediately
func (c *Config) IsDirectPayout() bool {
	return c.PayoutMode == PayoutModeDirect
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	config.PayoutMode = strings.ToLower(strings.TrimSpace(config.PayoutMode))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.AdminToken == "" {
			return nil, fmt.Errorf("ADMIN_TOKEN is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// Validate checks the engine parameters for consistency
func (c *Config) Validate() error {
	if c.DiceSides < 2 {
		return fmt.Errorf("DICE_SIDES must be at least 2, got %d", c.DiceSides)
	}
	if c.PeriodLength <= 0 {
		return fmt.Errorf("PERIOD_LENGTH must be positive, got %s", c.PeriodLength)
	}
	if c.RollCutoff < 0 || c.RollCutoff >= c.PeriodLength {
		return fmt.Errorf("ROLL_CUTOFF must be within [0, PERIOD_LENGTH), got %s", c.RollCutoff)
	}

	fraction, err := decimal.NewFromString(c.PayoutFraction)
	if err != nil {
		return fmt.Errorf("invalid PAYOUT_FRACTION %q: %w", c.PayoutFraction, err)
	}
	if !fraction.IsPositive() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("PAYOUT_FRACTION must be within (0, 1], got %s", c.PayoutFraction)
	}

	switch c.PayoutMode {
	case PayoutModeQueued, PayoutModeDirect:
	default:
		return fmt.Errorf("unknown PAYOUT_MODE: %s", c.PayoutMode)
	}

	if c.EngineAccount == "" {
		return fmt.Errorf("ENGINE_ACCOUNT is required")
	}

	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:         "test",
		HTTPAddr:            ":0",
		RollRateLimit:       100,
		RollRateBurst:       100,
		AdminToken:          "test-admin-token",
		JWTSecret:           "test-jwt-secret",
		WebhookSecret:       "test-webhook-secret",
		EngineAccount:       "inchgame",
		DiceSides:           6,
		PeriodLength:        24 * time.Hour,
		PeriodOffset:        0,
		RollCutoff:          0,
		PayoutFraction:      "0.90",
		PayoutMode:          PayoutModeQueued,
		PayoutSweepSchedule: "@every 1m",
		OTelServiceName:     "dicer-test",
		OTelExporterType:    "none",
		LogLevel:            "debug",
	}
}
