// Package config loads and validates the songbridge YAML configuration.
//
// Secrets and webhook URLs are never stored in the file itself — the config
// names the environment variables that hold them (AuthConfig.SecretEnv,
// Webhook.URLEnv) and the accessor methods resolve them at call time, so a
// secret rotated in the environment takes effect on the next reload.
//
// Watch(ctx, path, onChange) re-loads the file on every write using fsnotify.
// Invalid reloads are logged and skipped; the previous config stays active.
package config
