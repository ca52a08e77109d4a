package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Reload carries the settings a running process can apply without a restart:
// the write secret and the webhook targets. Everything else — owner, feed
// endpoint, catalog URL, listen port — is wired into long-lived components at
// startup and only takes effect on the next boot.
type Reload struct {
	Secret   string
	Webhooks []Webhook
}

// Watch re-reads the file at path whenever it is written and hands the
// hot-applicable settings to apply. A reload that fails to parse or validate
// is rejected with a log line and the running settings stay in effect.
// Changes to restart-only fields are logged so a rotated-but-ignored endpoint
// is visible. Blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, current *Config, apply func(Reload)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for secret/webhook changes", "path", path)

	last := current
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Plain writes plus fsnotify.Create, which is what an editor's
			// atomic save (write temp, rename over) shows up as.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			next, err := Load(path)
			if err != nil {
				slog.Error("config: reload rejected, keeping running settings",
					"path", path, "err", err)
				continue
			}

			warnRestartOnly(last, next)
			apply(Reload{
				Secret:   next.Server.Auth.Secret(),
				Webhooks: next.Server.Webhooks,
			})
			slog.Info("config: reload applied", "path", path)
			last = next

			// An atomic save replaced the inode; re-arm the watch.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// warnRestartOnly flags on-disk changes that the running process will not
// pick up.
func warnRestartOnly(old, next *Config) {
	if old == nil {
		return
	}
	if old.Bridge.Owner != next.Bridge.Owner {
		slog.Warn("config: bridge.owner changed, restart required",
			"running", old.Bridge.Owner, "file", next.Bridge.Owner)
	}
	if old.Bridge.FeedEndpoint != next.Bridge.FeedEndpoint {
		slog.Warn("config: bridge.feed_endpoint changed, restart required",
			"running", old.Bridge.FeedEndpoint, "file", next.Bridge.FeedEndpoint)
	}
	if old.Bridge.CatalogURL != next.Bridge.CatalogURL {
		slog.Warn("config: bridge.catalog_url changed, restart required",
			"running", old.Bridge.CatalogURL, "file", next.Bridge.CatalogURL)
	}
	if old.Server.HTTPPort != next.Server.HTTPPort {
		slog.Warn("config: server.http_port changed, restart required",
			"running", old.Server.HTTPPort, "file", next.Server.HTTPPort)
	}
}
