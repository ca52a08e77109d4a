// Package metrics exposes the bridge's internal counters in Prometheus text
// exposition format on /metrics, encoded with the standard client_model
// metric families.
package metrics

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Counters are the bridge-wide event counters. All fields are atomic and safe
// to bump from any goroutine.
type Counters struct {
	// FeedMessages counts every message received from the status feed,
	// relevant or not.
	FeedMessages atomic.Int64

	// SongStarts counts messages classified as song-start transitions.
	SongStarts atomic.Int64

	// CatalogMisses counts resolutions that settled on the not-found sentinel.
	CatalogMisses atomic.Int64

	// RecordsAppended counts history records appended from live events.
	RecordsAppended atomic.Int64

	// FeedReconnects counts feed connection losses that triggered a reconnect.
	FeedReconnects atomic.Int64
}

// Handler serves GET /metrics.
type Handler struct {
	counters *Counters

	// wsClients reports the current number of connected overlay websocket
	// clients; nil disables the gauge.
	wsClients func() int
}

// NewHandler creates a metrics Handler over c. wsClients may be nil.
func NewHandler(c *Counters, wsClients func() int) *Handler {
	return &Handler{counters: c, wsClients: wsClients}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	families := []*dto.MetricFamily{
		counter("songbridge_feed_messages_total",
			"Status feed messages received.",
			h.counters.FeedMessages.Load()),
		counter("songbridge_song_starts_total",
			"Messages classified as song-start transitions.",
			h.counters.SongStarts.Load()),
		counter("songbridge_catalog_misses_total",
			"Catalog lookups that fell back to the not-found sentinel.",
			h.counters.CatalogMisses.Load()),
		counter("songbridge_records_appended_total",
			"History records appended from live feed events.",
			h.counters.RecordsAppended.Load()),
		counter("songbridge_feed_reconnects_total",
			"Feed connection losses that triggered a reconnect.",
			h.counters.FeedReconnects.Load()),
	}
	if h.wsClients != nil {
		families = append(families, gauge("songbridge_ws_clients",
			"Currently connected overlay websocket clients.",
			int64(h.wsClients())))
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("metrics: encode failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

func counter(name, help string, v int64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: proto.Float64(float64(v))}},
		},
	}
}

func gauge(name, help string, v int64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(float64(v))}},
		},
	}
}
