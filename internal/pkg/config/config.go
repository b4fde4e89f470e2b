package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/V4T54L/eventbridge/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"text"`
	MetricsAddr        string        `env:"METRICS_ADDR" envDefault:":9091"`
	PIIRedactionFields []string      `env:"PII_REDACTION_FIELDS" envSeparator:"," envDefault:"password,secret,token,ssn,credit_card"`
	BridgeMinLevel     string        `env:"BRIDGE_MIN_LEVEL" envDefault:"informational"`
	SampleInterval     time.Duration `env:"SAMPLE_INTERVAL" envDefault:"1s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MinLevel returns BridgeMinLevel as an event level.
func (c *Config) MinLevel() (domain.EventLevel, error) {
	return domain.ParseEventLevel(c.BridgeMinLevel)
}
