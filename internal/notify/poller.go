package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/luvhive/hivelink/internal/observability"
)

// Poller is the fallback delivery path: timer-driven checks of the
// incoming-call and unread-count endpoints. Each record is transient; a
// newer poll result supersedes the previous one and a repeated message id
// is delivered once.
type Poller struct {
	backend        Backend
	callInterval   time.Duration
	unreadInterval time.Duration
	logger         zerolog.Logger
	metrics        *observability.Metrics
	cbs            Callbacks

	lastMessageID string
	lastUnread    int
	unreadSeen    bool
}

func NewPoller(backend Backend, callInterval, unreadInterval time.Duration, logger zerolog.Logger, metrics *observability.Metrics, cbs Callbacks) *Poller {
	if callInterval <= 0 {
		callInterval = 3 * time.Second
	}
	if unreadInterval <= 0 {
		unreadInterval = 15 * time.Second
	}
	return &Poller{
		backend:        backend,
		callInterval:   callInterval,
		unreadInterval: unreadInterval,
		logger:         logger,
		metrics:        metrics,
		cbs:            cbs,
	}
}

// Run polls until the context is cancelled. Poll errors are logged and the
// next tick tries again; there is no backoff.
func (p *Poller) Run(ctx context.Context) {
	callTicker := time.NewTicker(p.callInterval)
	defer callTicker.Stop()
	unreadTicker := time.NewTicker(p.unreadInterval)
	defer unreadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-callTicker.C:
			p.checkIncomingCall(ctx)
		case <-unreadTicker.C:
			p.checkUnreadCount(ctx)
		}
	}
}

func (p *Poller) checkIncomingCall(ctx context.Context) {
	rec, err := p.backend.IncomingCall(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("incoming call poll")
		return
	}
	if rec == nil {
		p.lastMessageID = ""
		return
	}
	if rec.MessageID == p.lastMessageID {
		return
	}
	p.lastMessageID = rec.MessageID
	if p.metrics != nil {
		p.metrics.NotifyMessages.WithLabelValues("poll", "incoming_call").Inc()
	}
	if p.cbs.OnIncomingCall != nil {
		p.cbs.OnIncomingCall(*rec)
	}
}

func (p *Poller) checkUnreadCount(ctx context.Context) {
	count, err := p.backend.UnreadCount(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("unread count poll")
		return
	}
	if p.unreadSeen && count == p.lastUnread {
		return
	}
	p.lastUnread = count
	p.unreadSeen = true
	if p.metrics != nil {
		p.metrics.NotifyMessages.WithLabelValues("poll", "unread_count").Inc()
	}
	if p.cbs.OnUnreadCount != nil {
		p.cbs.OnUnreadCount(count)
	}
}
