package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/songbridge/songbridge/internal/api"
	"github.com/songbridge/songbridge/internal/auth"
	"github.com/songbridge/songbridge/internal/bridge"
	"github.com/songbridge/songbridge/internal/catalog"
	"github.com/songbridge/songbridge/internal/config"
	"github.com/songbridge/songbridge/internal/history"
	"github.com/songbridge/songbridge/internal/metrics"
	"github.com/songbridge/songbridge/internal/notify"
	"github.com/songbridge/songbridge/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("songbridge starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"owner", cfg.Bridge.Owner,
		"feed_endpoint", cfg.Bridge.FeedEndpoint,
		"catalog_url", cfg.Bridge.CatalogURL,
		"http_port", cfg.Server.HTTPPort,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := history.New()
	gate := auth.New(cfg.Server.Auth.Secret())
	counters := &metrics.Counters{}
	notifier := notify.New(cfg.Server.Webhooks)

	// Feed bridge: subscribe to the game's status feed and append plays.
	resolver := catalog.New(cfg.Bridge.CatalogURL, cfg.Bridge.CatalogTimeout)
	ctrl := bridge.New(bridge.Config{
		FeedEndpoint: cfg.Bridge.FeedEndpoint,
		Owner:        cfg.Bridge.Owner,
	}, st, resolver, counters, notifier)
	go ctrl.Run(ctx)

	// WebSocket hub — pushes an owner's history to overlay clients on change.
	hub := ws.New(st)
	st.SetOnChange(hub.Notify)
	go hub.Run(ctx)

	// Hot-reload the config file so the shared secret and webhook targets can
	// rotate without a restart. Connection endpoints still require one.
	go func() {
		if err := config.Watch(ctx, *configPath, cfg, func(r config.Reload) {
			gate.SetSecret(r.Secret)
			notifier.SetTargets(r.Webhooks)
		}); err != nil {
			slog.Warn("config watch disabled", "err", err)
		}
	}()

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(st, gate, notifier, func() string {
		return ctrl.State().String()
	}))
	httpMux.Handle("/ws/history", hub)
	httpMux.Handle("/metrics", metrics.NewHandler(counters, hub.Count))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("songbridge shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
