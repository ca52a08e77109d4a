package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func rewriteConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
}

func startWatch(t *testing.T, path string, current *Config) <-chan Reload {
	t.Helper()
	applied := make(chan Reload, 4)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := Watch(ctx, path, current, func(r Reload) { applied <- r }); err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()
	// Give fsnotify a moment to arm before the first rewrite.
	time.Sleep(100 * time.Millisecond)
	return applied
}

func waitReload(t *testing.T, applied <-chan Reload) Reload {
	t.Helper()
	select {
	case r := <-applied:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return Reload{}
	}
}

func TestWatch_AppliesSecretRotation(t *testing.T) {
	t.Setenv("SONGBRIDGE_TEST_SECRET_A", "old-secret")
	t.Setenv("SONGBRIDGE_TEST_SECRET_B", "new-secret")

	path := writeConfig(t, `bridge:
  owner: "alice"
server:
  auth:
    secret_env: "SONGBRIDGE_TEST_SECRET_A"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	applied := startWatch(t, path, cfg)

	rewriteConfig(t, path, `bridge:
  owner: "alice"
server:
  auth:
    secret_env: "SONGBRIDGE_TEST_SECRET_B"
  webhooks:
    - type: slack
      url_env: "SONGBRIDGE_TEST_SLACK"
`)

	r := waitReload(t, applied)
	if r.Secret != "new-secret" {
		t.Errorf("Secret: got %q, want new-secret", r.Secret)
	}
	if len(r.Webhooks) != 1 || r.Webhooks[0].Type != "slack" {
		t.Errorf("Webhooks: got %+v, want one slack target", r.Webhooks)
	}
}

func TestWatch_InvalidReload_Rejected(t *testing.T) {
	t.Setenv("SONGBRIDGE_TEST_SECRET_C", "rotated")

	path := writeConfig(t, `bridge:
  owner: "alice"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	applied := startWatch(t, path, cfg)

	// Owner removed — fails validation, so nothing must be applied for it.
	rewriteConfig(t, path, `bridge:
  owner: ""
`)
	time.Sleep(200 * time.Millisecond)

	rewriteConfig(t, path, `bridge:
  owner: "alice"
server:
  auth:
    secret_env: "SONGBRIDGE_TEST_SECRET_C"
`)

	r := waitReload(t, applied)
	if r.Secret != "rotated" {
		t.Errorf("Secret: got %q, want rotated (from the valid rewrite)", r.Secret)
	}
}
