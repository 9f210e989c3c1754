// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package config loads the relay's environment-driven configuration.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vrischmann/envconfig"
)

// Config is the relay's complete runtime configuration, populated from
// environment variables.
type Config struct {
	// DatabaseURL is the Store connection string (postgres:// or sqlite3://).
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// RedisURL is the Queue connection string. A rediss:// scheme selects TLS.
	RedisURL string `envconfig:"REDIS_URL,default=redis://localhost:6379"`
	// Port is the HTTP listen port.
	Port int `envconfig:"PORT,default=3000"`
	// Environment names the deployment environment. Only IsProduction reads
	// it; the relay sets no CORS headers, and internal error detail is
	// withheld from API responses in every environment.
	Environment string `envconfig:"NODE_ENV,default=development"`
	// MaxRetryAttempts is the total number of delivery attempts, including
	// the first, before a delivery job is abandoned.
	MaxRetryAttempts int `envconfig:"MAX_RETRY_ATTEMPTS,default=3"`
	// WebhookConcurrency is the number of concurrent delivery workers.
	WebhookConcurrency int `envconfig:"WEBHOOK_CONCURRENCY,default=5"`
	// WebhookTimeoutMS is the per-attempt outbound HTTP timeout in milliseconds.
	WebhookTimeoutMS int `envconfig:"WEBHOOK_TIMEOUT,default=30000"`
}

// WebhookTimeout returns WebhookTimeoutMS as a time.Duration.
func (c Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutMS) * time.Millisecond
}

// IsProduction reports whether Environment is "production". No other
// package calls it.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads and validates the relay's configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Init(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment configuration")
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return &cfg, nil
}
