package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the gateway.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIBaseURL points at the remote Weather Flick API the gateway
	// proxies for. APILoginPath is the token issuance endpoint on it.
	APIBaseURL   string `envconfig:"API_BASE_URL" default:"http://127.0.0.1:8000"`
	APILoginPath string `envconfig:"API_LOGIN_PATH" default:"/auth/login"`

	RedisAddr        string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CredentialSecret string `envconfig:"CREDENTIAL_SECRET" required:"true"`

	// PGDSN is optional; when empty the audit trail stays in memory.
	PGDSN string `envconfig:"PG_DSN" default:""`

	LoginPath        string `envconfig:"LOGIN_PATH" default:"/auth/login"`
	UnauthorizedPath string `envconfig:"UNAUTHORIZED_PATH" default:"/unauthorized"`

	// RevalidateInterval is the cadence of the background principal
	// re-fetch performed by the worker.
	RevalidateInterval time.Duration `envconfig:"SESSION_REVALIDATE_INTERVAL" default:"5m"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CredentialSecret == "" {
		return nil, errors.New("credential secret must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the gateway runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
