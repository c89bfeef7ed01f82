package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// Storefront product configuration.
	StoreAppID        string
	SharedSecret      string
	LifetimeProductID string
	DefaultOfferID    string
	OfferIDs          []string
	AllProductIDs     []string

	// SkipPurchaseValidation short-circuits purchases to an always-subscribed
	// state without contacting the store. Honored only outside production.
	SkipPurchaseValidation bool

	OTLPEndpoint string

	// Verification endpoints, selected by Environment.
	VerifierSandboxURL    string
	VerifierProductionURL string

	// Telemetry backend.
	TelemetryBaseURL       string
	AttributionExchangeURL string
	AttributionSettleDelay time.Duration
	BackfillDelay          time.Duration

	// Device identity reported by the attribution pipeline.
	BundleID         string
	DeviceModel      string
	OSVersion        string
	Locale           string
	CountryCode      string
	VendorID         string
	AdvertisingID    string
	AttributionToken string
	SimulatedDevice  bool
	TrackingConsent  bool

	Store StoreConfig
}

// StoreConfig selects the durable key/value backend for entitlement state.
type StoreConfig struct {
	Type string // postgres, mysql, sqlite, redis

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := normalizeEnvironment(getenv("ENVIRONMENT", EnvSandbox))

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "easypurchase"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,

		StoreAppID:        strings.TrimSpace(getenv("STORE_APP_ID", "")),
		SharedSecret:      strings.TrimSpace(getenv("STORE_SHARED_SECRET", "")),
		LifetimeProductID: strings.TrimSpace(getenv("LIFETIME_PRODUCT_ID", "")),
		DefaultOfferID:    strings.TrimSpace(getenv("DEFAULT_OFFER_ID", "")),
		OfferIDs:          splitList(getenv("OFFER_IDS", "")),
		AllProductIDs:     splitList(getenv("ALL_PRODUCT_IDS", "")),

		SkipPurchaseValidation: getenvBool("SKIP_PURCHASE_VALIDATION", false),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		VerifierSandboxURL:    getenv("VERIFIER_SANDBOX_URL", "https://sandbox.itunes.apple.com/verifyReceipt"),
		VerifierProductionURL: getenv("VERIFIER_PRODUCTION_URL", "https://buy.itunes.apple.com/verifyReceipt"),

		TelemetryBaseURL:       getenv("TELEMETRY_BASE_URL", "https://apieasytracker.sandstorm-software.com"),
		AttributionExchangeURL: getenv("ATTRIBUTION_EXCHANGE_URL", "https://api-adservices.apple.com/api/v1/"),
		AttributionSettleDelay: getenvDuration("ATTRIBUTION_SETTLE_DELAY", 4*time.Second),
		BackfillDelay:          getenvDuration("BACKFILL_DELAY", 10*time.Second),

		BundleID:         strings.TrimSpace(getenv("APP_BUNDLE_ID", "")),
		DeviceModel:      getenv("DEVICE_MODEL", ""),
		OSVersion:        getenv("OS_VERSION", ""),
		Locale:           getenv("DEVICE_LOCALE", "en_US"),
		CountryCode:      getenv("DEVICE_COUNTRY", "US"),
		VendorID:         getenv("VENDOR_ID", ""),
		AdvertisingID:    getenv("ADVERTISING_ID", ""),
		AttributionToken: strings.TrimSpace(getenv("ATTRIBUTION_TOKEN", "")),
		SimulatedDevice:  getenvBool("SIMULATED_DEVICE", false),
		TrackingConsent:  getenvBool("TRACKING_CONSENT", true),

		Store: StoreConfig{
			Type:          getenv("STORE_TYPE", "sqlite"),
			DBHost:        getenv("DATABASE_HOST", "localhost"),
			DBPort:        getenv("DATABASE_PORT", "5432"),
			DBName:        getenv("DATABASE_NAME", "easypurchase"),
			DBUser:        getenv("DATABASE_USER", "postgres"),
			DBPassword:    getenv("DATABASE_PASSWORD", ""),
			DBSSLMode:     getenv("DATABASE_SSLMODE", "disable"),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
		},
	}

	// The debug bypass must never survive into a production build path.
	if cfg.Environment == EnvProduction {
		cfg.SkipPurchaseValidation = false
	}

	return cfg
}

// IsProduction reports whether the engine targets the production verifier.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// VerifierURL returns the receipt verification endpoint for the configured
// environment.
func (c Config) VerifierURL() string {
	if c.IsProduction() {
		return c.VerifierProductionURL
	}
	return c.VerifierSandboxURL
}

// Module wires configuration loading for the application.
var Module = fx.Module("config",
	fx.Provide(Load),
)

func normalizeEnvironment(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case EnvProduction, "prod", "release":
		return EnvProduction
	default:
		return EnvSandbox
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
