package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL        string `env:"RABBITMQ_URL,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	GatewayURL         string `env:"GATEWAY_URL,required=true"`
	Timezone           string `env:"TIMEZONE,default=Europe/Moscow"`
	DuesAmount         int    `env:"DUES_AMOUNT,default=500"`
	VPNAmount          int    `env:"VPN_AMOUNT,default=200"`
	RateLimitPerSec    int    `env:"RATE_LIMIT_PER_SEC,default=25"`
	DeliverConcurrency int    `env:"DELIVER_CONCURRENCY,default=8"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return &cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
