package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultFeedEndpoint   = "ws://127.0.0.1:6557/socket"
	DefaultCatalogURL     = "https://api.beatsaver.com"
	DefaultCatalogTimeout = 5 * time.Second
	DefaultHTTPPort       = 8080
	DefaultSecretEnv      = "SONGBRIDGE_SECRET"
)

// Config is the top-level configuration for the songbridge process.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Bridge BridgeConfig `yaml:"bridge"`
	Server ServerConfig `yaml:"server"`
}

// BridgeConfig holds the feed subscription and catalog lookup settings.
type BridgeConfig struct {
	// Owner is the history key under which live feed records are appended.
	// Typically the player or stream name shown by the overlay.
	Owner string `yaml:"owner"`

	// FeedEndpoint is the websocket URL of the local game status feed.
	FeedEndpoint string `yaml:"feed_endpoint"`

	// CatalogURL is the base URL of the public beatmap catalog service.
	CatalogURL string `yaml:"catalog_url"`

	// CatalogTimeout bounds one catalog lookup. On expiry the lookup
	// degrades to the not-found sentinel instead of failing the pipeline.
	CatalogTimeout time.Duration `yaml:"catalog_timeout"`
}

// ServerConfig holds the HTTP serving settings.
type ServerConfig struct {
	// HTTPPort is the port the history API, websocket hub and metrics
	// endpoint listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures the shared secret gating mutating history calls.
	Auth AuthConfig `yaml:"auth"`

	// Webhooks are optional delivery targets notified on every appended
	// history record.
	Webhooks []Webhook `yaml:"webhooks"`
}

// AuthConfig controls write authorization for the history API.
type AuthConfig struct {
	// SecretEnv is the name of the environment variable that holds the
	// shared secret. When the variable is unset or empty, all mutating
	// calls are denied.
	SecretEnv string `yaml:"secret_env"`
}

// Secret returns the shared secret resolved from the environment.
func (a AuthConfig) Secret() string {
	if a.SecretEnv == "" {
		return ""
	}
	return os.Getenv(a.SecretEnv)
}

// Webhook defines one notification delivery target.
type Webhook struct {
	// Type is one of: http | slack.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w Webhook) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Bridge: BridgeConfig{
			FeedEndpoint:   DefaultFeedEndpoint,
			CatalogURL:     DefaultCatalogURL,
			CatalogTimeout: DefaultCatalogTimeout,
		},
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Auth: AuthConfig{
				SecretEnv: DefaultSecretEnv,
			},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Bridge.Owner == "" {
		return fmt.Errorf("bridge.owner is required")
	}
	if !strings.HasPrefix(cfg.Bridge.FeedEndpoint, "ws://") &&
		!strings.HasPrefix(cfg.Bridge.FeedEndpoint, "wss://") {
		return fmt.Errorf("bridge.feed_endpoint %q must be a ws:// or wss:// URL", cfg.Bridge.FeedEndpoint)
	}
	if cfg.Bridge.CatalogURL == "" {
		return fmt.Errorf("bridge.catalog_url is required")
	}
	if cfg.Bridge.CatalogTimeout < 0 {
		return fmt.Errorf("bridge.catalog_timeout must not be negative")
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	for _, wh := range cfg.Server.Webhooks {
		switch wh.Type {
		case "http", "slack":
		default:
			return fmt.Errorf("server.webhooks type %q unknown: want http|slack", wh.Type)
		}
	}
	return nil
}
