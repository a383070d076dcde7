package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all tool settings, populated from environment variables.
type Config struct {
	DrawsAPIURL   string
	DrawsAPIToken string
	// DrawsTimeout bounds each request to the draws service. Zero disables it.
	DrawsTimeout time.Duration
	RoundID      int

	LogLevel  string
	LogFormat string

	// Artifact notifications are disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Metrics are pushed only when PushgatewayURL is set.
	PushgatewayURL string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("DRAWS_TIMEOUT", "0s"))
	if err != nil || timeout < 0 {
		return nil, errors.New("invalid DRAWS_TIMEOUT")
	}

	roundID, err := strconv.Atoi(sharedcfg.EnvOrDefault("GBD_ROUND_ID", "5"))
	if err != nil || roundID <= 0 {
		return nil, errors.New("invalid GBD_ROUND_ID")
	}

	cfg := &Config{
		DrawsAPIURL:    strings.TrimRight(sharedcfg.EnvOrDefault("DRAWS_API_URL", "http://localhost:8089"), "/"),
		DrawsAPIToken:  os.Getenv("DRAWS_API_TOKEN"),
		DrawsTimeout:   timeout,
		RoundID:        roundID,
		LogLevel:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "debug")),
		LogFormat:      strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "text")),
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "draws-artifacts"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if u, err := url.Parse(cfg.DrawsAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid DRAWS_API_URL")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid LOG_LEVEL")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("invalid LOG_FORMAT")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// NotificationsEnabled reports whether artifact events should be published.
func (c *Config) NotificationsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
