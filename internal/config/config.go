package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	ConnectionStoreMongo  = "mongo"
	ConnectionStoreSQLite = "sqlite"

	envProduction = "production"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"https://scantoserve.com",
	"https://dev.scantoserve.com",
	"https://www.scantoserve.com",
}

// Config is built once at process start and passed explicitly to every component.
type Config struct {
	Port        string
	AppEnv      string
	AppURL      string
	APIEndpoint string

	PublicKeyPEM  string
	TokenIssuer   string
	TokenAudience string

	TurnstileURL    string
	TurnstileSecret string

	EncryptionSecret string

	PartnerClientID      string
	PartnerClientSecret  string
	PartnerRedirectURI   string
	PartnerScope         string
	PartnerWebhookSecret string
	PartnerAuthURL       string
	PartnerTokenURL      string
	PartnerAPIURL        string

	ConnectionStore string
	MongoURI        string
	MongoDatabase   string
	SQLitePath      string

	RedisURL string

	TableServiceURL string
	OrdersTable     string

	FCMProjectID          string
	FCMServiceAccountJSON string

	CORSAllowedOrigins []string
	CORSDefaultOrigin  string

	HTTPClientTimeout time.Duration
}

// Load reads .env if present and then the process environment.
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found, using process environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and applies defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	timeout, err := time.ParseDuration(get("HTTP_CLIENT_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_CLIENT_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:        get("PORT", "8080"),
		AppEnv:      get("APP_ENV", "development"),
		AppURL:      get("APP_URL", "http://localhost:3000"),
		APIEndpoint: get("API_ENDPOINT", "http://localhost:8080"),

		PublicKeyPEM:  getenv("EC_PUBLIC_KEY_PEM"),
		TokenIssuer:   getenv("TOKEN_ISSUER"),
		TokenAudience: getenv("TOKEN_AUDIENCE"),

		TurnstileURL:    get("TURNSTILE_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		TurnstileSecret: getenv("TURNSTILE_SECRET"),

		EncryptionSecret: getenv("ENCRYPTION_SECRET"),

		PartnerClientID:      getenv("PARTNER_CLIENT_ID"),
		PartnerClientSecret:  getenv("PARTNER_CLIENT_SECRET"),
		PartnerRedirectURI:   getenv("PARTNER_REDIRECT_URI"),
		PartnerScope:         get("PARTNER_SCOPE", "location[orders.write,catalog.write]"),
		PartnerWebhookSecret: getenv("PARTNER_WEBHOOK_SECRET"),
		PartnerAuthURL:       get("PARTNER_AUTH_URL", "https://manager.hubrise.com/oauth2/v1/authorize"),
		PartnerTokenURL:      get("PARTNER_TOKEN_URL", "https://manager.hubrise.com/oauth2/v1/token"),
		PartnerAPIURL:        get("PARTNER_API_URL", "https://api.hubrise.com/v1"),

		ConnectionStore: get("CONNECTION_STORE", ConnectionStoreSQLite),
		MongoURI:        get("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   get("MONGODB_DATABASE", "partner_edge"),
		SQLitePath:      get("SQLITE_PATH", "partner-edge.db"),

		RedisURL: get("REDIS_URL", "redis://localhost:6379/0"),

		TableServiceURL: getenv("TABLE_SERVICE_URL"),
		OrdersTable:     get("ORDERS_TABLE", "Orders"),

		FCMProjectID:          getenv("FCM_PROJECT_ID"),
		FCMServiceAccountJSON: getenv("FCM_SERVICE_ACCOUNT_JSON"),

		CORSAllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", strings.Join(defaultAllowedOrigins, ","))),
		CORSDefaultOrigin:  get("CORS_DEFAULT_ORIGIN", "https://scantoserve.com"),

		HTTPClientTimeout: timeout,
	}

	switch cfg.ConnectionStore {
	case ConnectionStoreMongo, ConnectionStoreSQLite:
	default:
		return nil, fmt.Errorf("invalid CONNECTION_STORE %q: want %s or %s", cfg.ConnectionStore, ConnectionStoreMongo, ConnectionStoreSQLite)
	}
	return cfg, nil
}

// IsProduction disables development-only credential fallbacks.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, envProduction)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
