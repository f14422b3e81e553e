package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/luvhive/hivelink/internal/api"
	"github.com/luvhive/hivelink/internal/observability"
	"github.com/luvhive/hivelink/internal/session"
)

const listenerHandshakeTimeout = 10 * time.Second

// Listener is the primary delivery path: a long-lived websocket
// subscription to the backend's event stream.
type Listener struct {
	url     string
	session *session.Session
	logger  zerolog.Logger
	metrics *observability.Metrics
	cbs     Callbacks
}

func NewListener(url string, sess *session.Session, logger zerolog.Logger, metrics *observability.Metrics, cbs Callbacks) *Listener {
	return &Listener{url: url, session: sess, logger: logger, metrics: metrics, cbs: cbs}
}

type streamEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Run subscribes and dispatches events until the context is cancelled or
// the stream breaks. A broken stream returns the read error so the caller
// can fall back to polling.
func (l *Listener) Run(ctx context.Context) error {
	header := http.Header{}
	if tok := l.session.Token(ctx); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	dialer := websocket.Dialer{HandshakeTimeout: listenerHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	l.logger.Info().Str("url", l.url).Msg("event stream connected")
	for {
		var env streamEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event stream read: %w", err)
		}
		l.dispatch(env)
	}
}

func (l *Listener) dispatch(env streamEnvelope) {
	switch env.Type {
	case "incoming_call":
		var rec api.IncomingCall
		if err := json.Unmarshal(env.Payload, &rec); err != nil {
			l.logger.Warn().Err(err).Msg("drop malformed incoming call event")
			return
		}
		if l.metrics != nil {
			l.metrics.NotifyMessages.WithLabelValues("push", "incoming_call").Inc()
		}
		if l.cbs.OnIncomingCall != nil {
			l.cbs.OnIncomingCall(rec)
		}
	case "unread_count":
		var payload struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			l.logger.Warn().Err(err).Msg("drop malformed unread count event")
			return
		}
		if l.metrics != nil {
			l.metrics.NotifyMessages.WithLabelValues("push", "unread_count").Inc()
		}
		if l.cbs.OnUnreadCount != nil {
			l.cbs.OnUnreadCount(payload.Count)
		}
	default:
		l.logger.Debug().Str("type", env.Type).Msg("ignore unknown stream event")
	}
}
