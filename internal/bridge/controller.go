package bridge

import (
	"context"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/songbridge/songbridge/internal/catalog"
	"github.com/songbridge/songbridge/internal/feed"
	"github.com/songbridge/songbridge/internal/history"
	"github.com/songbridge/songbridge/internal/metrics"
	"github.com/songbridge/songbridge/internal/notify"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	handshakeTimeout  = 10 * time.Second
)

// State is the bridge's connection state with respect to the status feed.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	default:
		return "disconnected"
	}
}

// Resolver is the catalog lookup consumed by the controller.
// Satisfied by *catalog.Resolver; abstracted so tests can inject a fake.
type Resolver interface {
	Resolve(ctx context.Context, hash string) catalog.Entry
}

// Config holds the controller's wiring parameters.
type Config struct {
	// FeedEndpoint is the websocket URL of the game's status feed.
	FeedEndpoint string

	// Owner is the history key live records are appended under.
	Owner string
}

// dialFunc opens the feed connection. Abstracted so tests can dial an
// in-process httptest server.
type dialFunc func(ctx context.Context, endpoint string) (*websocket.Conn, error)

// Controller owns the long-lived status feed subscription and drives the
// classify → resolve → append pipeline for every qualifying event.
// Run must be called in a goroutine; it reconnects with truncated exponential
// backoff until its context is cancelled.
type Controller struct {
	cfg      Config
	store    *history.Store
	resolver Resolver
	counters *metrics.Counters
	notifier *notify.Notifier

	dialFn dialFunc
	state  atomic.Int32
	now    func() time.Time // injectable for deterministic tests
}

// New creates a Controller. counters may be nil; notifier may be nil.
func New(cfg Config, st *history.Store, r Resolver, c *metrics.Counters, n *notify.Notifier) *Controller {
	if c == nil {
		c = &metrics.Counters{}
	}
	return &Controller{
		cfg:      cfg,
		store:    st,
		resolver: r,
		counters: c,
		notifier: n,
		dialFn:   defaultDial,
		now:      time.Now,
	}
}

// State returns the current feed connection state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Run subscribes to the status feed and processes messages until ctx is
// cancelled. Feed-level faults tear the connection down and re-enter the
// connect loop; nothing here is fatal to the process.
func (c *Controller) Run(ctx context.Context) {
	bo := newBackoff()

	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dialFn(ctx, c.cfg.FeedEndpoint)
		if err != nil {
			c.setState(StateDisconnected)
			wait := bo.next()
			slog.Warn("bridge: feed dial failed, will retry",
				"endpoint", c.cfg.FeedEndpoint,
				"err", err,
				"retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				continue
			}
		}

		slog.Info("bridge: subscribed to status feed", "endpoint", c.cfg.FeedEndpoint)
		c.setState(StateSubscribed)
		bo.reset()

		err = c.readLoop(ctx, conn)
		conn.Close()
		c.setState(StateDisconnected)

		if ctx.Err() != nil {
			return
		}

		c.counters.FeedReconnects.Add(1)
		wait := bo.next()
		slog.Warn("bridge: feed connection lost, will reconnect",
			"endpoint", c.cfg.FeedEndpoint,
			"err", err,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// readLoop consumes feed messages until the connection fails or ctx is
// cancelled. Classification runs inline; the resolve-then-append sequence is
// spawned so the loop never blocks on the catalog.
func (c *Controller) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close() // unblocks ReadMessage
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.counters.FeedMessages.Add(1)

		ev, ok := feed.Classify(raw)
		if !ok {
			continue
		}
		c.counters.SongStarts.Add(1)
		slog.Debug("bridge: song start", "hash", ev.SongHash, "name", ev.SongName)

		go c.record(ev)
	}
}

// record resolves ev's catalog metadata and appends the history record.
// It deliberately runs on a background context rather than the run context:
// there is no cancellation of in-flight resolutions, and a late-settling
// lookup still appends even across a reconnect.
func (c *Controller) record(ev *feed.SongStart) {
	entry := c.resolver.Resolve(context.Background(), ev.SongHash)
	if entry.BSRCode == "none" {
		c.counters.CatalogMisses.Add(1)
	}

	rec := history.Record{
		MapName:   feed.ComposeMapName(ev),
		MapHash:   ev.SongHash,
		BSRCode:   entry.BSRCode,
		CoverURL:  entry.CoverURL,
		Timestamp: c.now().UnixMilli(),
	}
	c.store.Append(c.cfg.Owner, rec)
	c.counters.RecordsAppended.Add(1)

	slog.Info("bridge: recorded play",
		"owner", c.cfg.Owner,
		"map", rec.MapName,
		"bsr", rec.BSRCode,
	)

	go c.notifier.RecordAppended(c.cfg.Owner, rec)
}

// defaultDial opens the websocket connection to the feed endpoint.
func defaultDial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	return conn, err
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	// Advance for next call.
	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
