package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr  string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionKey string `envconfig:"SESSION_KEY" default:"pilotdeck:session"`

	APIBaseURL string `envconfig:"API_BASE_URL" default:"https://jsonplaceholder.typicode.com"`

	CacheStaleTTL      time.Duration `envconfig:"CACHE_STALE_TTL" default:"5m"`
	CacheGCTTL         time.Duration `envconfig:"CACHE_GC_TTL" default:"30m"`
	CacheSweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"1m"`

	// AuthMode selects the credential backend: "stub" or "api".
	AuthMode      string        `envconfig:"AUTH_MODE" default:"stub"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	StubPassword  string        `envconfig:"STUB_PASSWORD" default:"secret123"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.AuthMode != "stub" && cfg.AuthMode != "api" {
		return nil, errors.New("auth mode must be stub or api")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
