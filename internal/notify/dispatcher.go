package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/luvhive/hivelink/internal/observability"
	"github.com/luvhive/hivelink/internal/session"
)

// Config controls dispatcher construction.
type Config struct {
	StreamURL      string
	Session        *session.Session
	Backend        Backend
	CallInterval   time.Duration
	UnreadInterval time.Duration
	Logger         zerolog.Logger
	Metrics        *observability.Metrics
	Callbacks      Callbacks
}

// Dispatcher prefers the push stream when one is configured and falls back
// to polling when the stream is unavailable or breaks.
type Dispatcher struct {
	listener *Listener
	poller   *Poller
	logger   zerolog.Logger

	mu   sync.Mutex
	mode string
}

func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		poller: NewPoller(cfg.Backend, cfg.CallInterval, cfg.UnreadInterval, cfg.Logger, cfg.Metrics, cfg.Callbacks),
		logger: cfg.Logger,
		mode:   "idle",
	}
	if strings.TrimSpace(cfg.StreamURL) != "" {
		d.listener = NewListener(cfg.StreamURL, cfg.Session, cfg.Logger, cfg.Metrics, cfg.Callbacks)
	}
	return d
}

// Run blocks until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.listener != nil {
		d.setMode("push")
		err := d.listener.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		d.logger.Warn().Err(err).Msg("push stream unavailable, falling back to polling")
	}
	d.setMode("poll")
	d.poller.Run(ctx)
}

// Mode reports the active delivery path: idle, push or poll.
func (d *Dispatcher) Mode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Dispatcher) setMode(mode string) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
}
