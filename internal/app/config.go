package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the console.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	// AppRequestTimeout bounds each request, including the threat API calls
	// that lookup and export handlers make on the request context.
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"60s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// ThreatAPITimeout of zero sets no client deadline. Calls made while
	// serving a request are still bounded by AppRequestTimeout; the stats
	// poller is not.
	ThreatAPIURL     string        `envconfig:"THREAT_API_URL" default:"http://127.0.0.1:5001"`
	ThreatAPITimeout time.Duration `envconfig:"THREAT_API_TIMEOUT" default:"0s"`
	StatsInterval    time.Duration `envconfig:"STATS_INTERVAL" default:"60s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	LookupPanelsMax int `envconfig:"LOOKUP_PANELS_MAX" default:"1024"`

	OTelEndpoint string `envconfig:"OTEL_ENDPOINT"`
	OTelInsecure bool   `envconfig:"OTEL_INSECURE" default:"true"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.ThreatAPIURL == "" {
		return nil, errors.New("threat api url must be provided")
	}
	if cfg.StatsInterval <= 0 {
		return nil, errors.New("stats interval must be positive")
	}
	return &cfg, nil
}

// ClientConfig is the subset needed by tools that only talk to the threat API.
type ClientConfig struct {
	ThreatAPIURL     string        `envconfig:"THREAT_API_URL" default:"http://127.0.0.1:5001"`
	ThreatAPITimeout time.Duration `envconfig:"THREAT_API_TIMEOUT" default:"0s"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"pretty"`
}

// LoadClientConfig reads ClientConfig from environment variables.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
