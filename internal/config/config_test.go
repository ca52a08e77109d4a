package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal config — only the required owner key.
	p := writeConfig(t, `bridge:
  owner: "alice"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.FeedEndpoint != DefaultFeedEndpoint {
		t.Errorf("feed_endpoint: got %q, want %q", cfg.Bridge.FeedEndpoint, DefaultFeedEndpoint)
	}
	if cfg.Bridge.CatalogURL != DefaultCatalogURL {
		t.Errorf("catalog_url: got %q, want %q", cfg.Bridge.CatalogURL, DefaultCatalogURL)
	}
	if cfg.Bridge.CatalogTimeout != DefaultCatalogTimeout {
		t.Errorf("catalog_timeout: got %v, want %v", cfg.Bridge.CatalogTimeout, DefaultCatalogTimeout)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.Auth.SecretEnv != DefaultSecretEnv {
		t.Errorf("secret_env: got %q, want %q", cfg.Server.Auth.SecretEnv, DefaultSecretEnv)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `bridge:
  owner: "streamer"
  feed_endpoint: "ws://127.0.0.1:2946/socket"
  catalog_url: "https://catalog.example.com"
  catalog_timeout: 3s
server:
  http_port: 9090
  auth:
    secret_env: MY_SECRET
  webhooks:
    - type: slack
      url_env: SLACK_URL
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.Owner != "streamer" {
		t.Errorf("owner: got %q, want streamer", cfg.Bridge.Owner)
	}
	if cfg.Bridge.FeedEndpoint != "ws://127.0.0.1:2946/socket" {
		t.Errorf("feed_endpoint: got %q", cfg.Bridge.FeedEndpoint)
	}
	if cfg.Bridge.CatalogTimeout != 3*time.Second {
		t.Errorf("catalog_timeout: got %v, want 3s", cfg.Bridge.CatalogTimeout)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port: got %d, want 9090", cfg.Server.HTTPPort)
	}
	if len(cfg.Server.Webhooks) != 1 || cfg.Server.Webhooks[0].Type != "slack" {
		t.Errorf("webhooks: got %+v, want one slack target", cfg.Server.Webhooks)
	}
}

func TestLoad_MissingOwner(t *testing.T) {
	p := writeConfig(t, `bridge:
  feed_endpoint: "ws://127.0.0.1:6557/socket"
`)
	if _, err := Load(p); err == nil {
		t.Fatal("Load without owner: expected error, got nil")
	}
}

func TestLoad_BadFeedScheme(t *testing.T) {
	p := writeConfig(t, `bridge:
  owner: "alice"
  feed_endpoint: "http://127.0.0.1:6557/socket"
`)
	if _, err := Load(p); err == nil {
		t.Fatal("Load with http feed endpoint: expected error, got nil")
	}
}

func TestLoad_BadPort(t *testing.T) {
	p := writeConfig(t, `bridge:
  owner: "alice"
server:
  http_port: 99999
`)
	if _, err := Load(p); err == nil {
		t.Fatal("Load with out-of-range port: expected error, got nil")
	}
}

func TestLoad_UnknownWebhookType(t *testing.T) {
	p := writeConfig(t, `bridge:
  owner: "alice"
server:
  webhooks:
    - type: carrier-pigeon
      url_env: X
`)
	if _, err := Load(p); err == nil {
		t.Fatal("Load with unknown webhook type: expected error, got nil")
	}
}

func TestLoad_FileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load on missing file: expected error, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, "bridge: [not a map")
	if _, err := Load(p); err == nil {
		t.Fatal("Load on invalid yaml: expected error, got nil")
	}
}

func TestAuthConfig_Secret(t *testing.T) {
	t.Setenv("TEST_BRIDGE_SECRET", "hunter2")
	a := AuthConfig{SecretEnv: "TEST_BRIDGE_SECRET"}
	if got := a.Secret(); got != "hunter2" {
		t.Errorf("Secret: got %q, want hunter2", got)
	}
	if got := (AuthConfig{}).Secret(); got != "" {
		t.Errorf("Secret with empty env name: got %q, want empty", got)
	}
}

func TestWebhook_URL(t *testing.T) {
	t.Setenv("TEST_HOOK_URL", "https://hooks.example.com/x")
	w := Webhook{Type: "http", URLEnv: "TEST_HOOK_URL"}
	if got := w.URL(); got != "https://hooks.example.com/x" {
		t.Errorf("URL: got %q", got)
	}
	if got := (Webhook{Type: "http"}).URL(); got != "" {
		t.Errorf("URL with empty env name: got %q, want empty", got)
	}
}
