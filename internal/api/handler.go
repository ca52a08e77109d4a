package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/songbridge/songbridge/internal/auth"
	"github.com/songbridge/songbridge/internal/history"
	"github.com/songbridge/songbridge/internal/notify"
)

// Handler is the HTTP handler for all /api/* endpoints. Reads are public;
// mutations consult the auth gate first and short-circuit on denial.
type Handler struct {
	store    *history.Store
	gate     *auth.Gate
	notifier *notify.Notifier
	mux      *http.ServeMux

	// feedState reports the bridge's connection state for /api/health;
	// nil yields "unknown".
	feedState func() string

	now func() time.Time // injectable for deterministic tests
}

// New creates a Handler wired to the given store and gate and registers all
// routes. notifier and feedState may be nil.
func New(st *history.Store, gate *auth.Gate, notifier *notify.Notifier, feedState func() string) *Handler {
	h := &Handler{
		store:     st,
		gate:      gate,
		notifier:  notifier,
		mux:       http.NewServeMux(),
		feedState: feedState,
		now:       time.Now,
	}

	// The two literal routes are registered before the /api/history/
	// subtree so they win over the {owner}/list pattern.
	h.mux.HandleFunc("/api/history/push", h.pushHistory)
	h.mux.HandleFunc("/api/history/clearAll", h.clearAllHistory)
	h.mux.HandleFunc("/api/history/", h.listHistory) // subtree — extracts {owner}
	h.mux.HandleFunc("/api/health", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// listHistory returns GET /api/history/{owner}/list — the owner's records,
// most-recent-first. Always 200 with a JSON array; unknown owners get [].
// No credential required: reads are public by design.
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/history/")
	owner, ok := strings.CutSuffix(rest, "/list")
	if !ok || owner == "" || strings.Contains(owner, "/") {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	jsonResp(w, http.StatusOK, h.store.List(owner))
}

// pushHistory handles POST /api/history/push — manual record injection, used
// by the authoring/testing view. Gated.
func (h *Handler) pushHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !h.gate.Authorize(req.Secret) {
		jsonErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if req.PlayerName == "" {
		jsonErr(w, http.StatusBadRequest, "playerName is required")
		return
	}

	rec := history.Record{
		MapName:   req.MapName,
		MapHash:   req.MapHash,
		BSRCode:   req.BSRCode,
		CoverURL:  req.CoverURL,
		Timestamp: req.Timestamp,
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = h.now().UnixMilli()
	}
	h.store.Append(req.PlayerName, rec)

	slog.Info("api: record pushed", "owner", req.PlayerName, "map", rec.MapName)
	go h.notifier.RecordAppended(req.PlayerName, rec)

	jsonResp(w, http.StatusOK, OKResponse{OK: true})
}

// clearAllHistory handles POST /api/history/clearAll — removes every record
// for the named owner. Gated; idempotent.
func (h *Handler) clearAllHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ClearAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !h.gate.Authorize(req.Secret) {
		jsonErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if req.PlayerName == "" {
		jsonErr(w, http.StatusBadRequest, "playerName is required")
		return
	}

	h.store.ClearAll(req.PlayerName)
	slog.Info("api: history cleared", "owner", req.PlayerName)

	jsonResp(w, http.StatusOK, OKResponse{OK: true})
}

// health returns GET /api/health — bridge state and record totals.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	feed := "unknown"
	if h.feedState != nil {
		feed = h.feedState()
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Feed:    feed,
		Records: h.store.Count(),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
