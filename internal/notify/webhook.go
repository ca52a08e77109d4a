// Package notify delivers webhook notifications for newly appended history
// records. Delivery is strictly best-effort: failures are logged and never
// surface to the event pipeline.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/songbridge/songbridge/internal/config"
	"github.com/songbridge/songbridge/internal/history"
)

// Notifier posts each appended record to the configured webhook targets.
// A nil Notifier or one with no targets is a no-op.
type Notifier struct {
	mu      sync.RWMutex
	targets []config.Webhook

	client *http.Client
}

// New creates a Notifier for the given targets.
func New(targets []config.Webhook) *Notifier {
	return &Notifier{
		targets: targets,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetTargets replaces the delivery targets. Used on config hot-reload;
// deliveries already in flight keep the targets they started with.
func (n *Notifier) SetTargets(targets []config.Webhook) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.targets = targets
	n.mu.Unlock()
}

// RecordAppended delivers rec to all configured targets. Callers on the hot
// path should invoke it from a goroutine.
func (n *Notifier) RecordAppended(owner string, rec history.Record) {
	if n == nil {
		return
	}
	n.mu.RLock()
	targets := n.targets
	n.mu.RUnlock()

	for _, wh := range targets {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = n.sendSlack(url, rec)
		case "http":
			err = n.sendHTTP(url, owner, rec)
		default:
			slog.Warn("notify: unknown webhook type — skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("notify: webhook delivery failed",
				"type", wh.Type,
				"map", rec.MapName,
				"err", err,
			)
		} else {
			slog.Debug("notify: webhook delivered", "type", wh.Type, "map", rec.MapName)
		}
	}
}

func (n *Notifier) sendSlack(url string, rec history.Record) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("Now playing: %s (!bsr %s)", rec.MapName, rec.BSRCode),
	})
	return n.post(url, body)
}

func (n *Notifier) sendHTTP(url, owner string, rec history.Record) error {
	body, _ := json.Marshal(map[string]interface{}{
		"owner":  owner,
		"record": rec,
	})
	return n.post(url, body)
}

func (n *Notifier) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
