package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultWebhookURL is the production automation webhook the relay
// forwards to when no override is configured.
const defaultWebhookURL = "https://n8n.nemawashi.ai/webhook-test/ead68b2e-85a0-4239-bfe1-76f233f4eca4"

// Config aggregates the service configuration.
type Config struct {
	Server  ServerConfig
	Webhook WebhookConfig
	Storage StorageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	webhook, err := loadWebhookConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Webhook: webhook,
		Storage: loadStorageConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" forms directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// WebhookConfig describes the upstream automation webhook and, optionally,
// an externally hosted relay the session engine should go through instead
// of the in-process one.
type WebhookConfig struct {
	URL      string
	RelayURL string
	Timeout  time.Duration
}

func loadWebhookConfig() (WebhookConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("NEMA_WEBHOOK_TIMEOUT"); err != nil {
		return WebhookConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return WebhookConfig{}, fmt.Errorf("invalid NEMA_WEBHOOK_TIMEOUT value: %d", *override)
		}
		timeoutSeconds = *override
	}

	return WebhookConfig{
		URL:      getEnvOrDefault("NEMA_WEBHOOK_URL", defaultWebhookURL),
		RelayURL: strings.TrimSpace(os.Getenv("NEMA_RELAY_URL")),
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// StorageConfig locates durable state, currently just the visitor
// identifier file.
type StorageConfig struct {
	Dir string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{Dir: getEnvOrDefault("NEMA_STATE_DIR", "data")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
