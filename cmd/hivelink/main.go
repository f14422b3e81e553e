package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luvhive/hivelink/internal/api"
	"github.com/luvhive/hivelink/internal/call"
	"github.com/luvhive/hivelink/internal/config"
	"github.com/luvhive/hivelink/internal/httpapi"
	"github.com/luvhive/hivelink/internal/notify"
	"github.com/luvhive/hivelink/internal/observability"
	"github.com/luvhive/hivelink/internal/session"
	"github.com/luvhive/hivelink/internal/store"
)

const answerTimeout = 30 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(ctx, cfg.StorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	sess := session.New(st, cfg.HostUserID)
	log.Info().Str("scope", sess.Scope()).Msg("session scope")

	apiClient := api.New(api.Config{
		BaseURL: cfg.APIBaseURL,
		Session: sess,
		Timeout: cfg.HTTPTimeout,
		Logger:  log.With().Str("component", "api").Logger(),
		Metrics: metrics,
		OnUnauthorized: func() {
			log.Warn().Str("login", cfg.LoginPath).Msg("session expired, sign in again")
		},
	})

	engines, err := call.NewEngineFactory(call.FactoryConfig{
		Mode:      cfg.EngineMode,
		AppID:     cfg.RTCAppID,
		ServerURL: cfg.RTCServerURL,
		Logger:    log.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine factory")
	}

	supervisor := &callSupervisor{
		apiClient:  apiClient,
		engines:    engines,
		metrics:    metrics,
		autoAnswer: cfg.AutoAnswer,
		logger:     log.With().Str("component", "calls").Logger(),
	}

	dispatcher := notify.NewDispatcher(notify.Config{
		StreamURL:      cfg.PushStreamURL,
		Session:        sess,
		Backend:        apiClient,
		CallInterval:   cfg.CallPollInterval,
		UnreadInterval: cfg.UnreadPollInterval,
		Logger:         log.With().Str("component", "notify").Logger(),
		Metrics:        metrics,
		Callbacks: notify.Callbacks{
			OnIncomingCall: supervisor.handleIncoming,
			OnUnreadCount: func(count int) {
				log.Info().Int("count", count).Msg("unread messages")
			},
		},
	})
	go dispatcher.Run(ctx)

	control := httpapi.New(cfg, sess, func() map[string]any {
		out := map[string]any{"delivery": dispatcher.Mode()}
		if state, room, ok := supervisor.snapshot(); ok {
			out["call_state"] = state
			out["call_room"] = room
		}
		return out
	})

	srv := &http.Server{Addr: cfg.BindAddr, Handler: control.Router()}
	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("control server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("control server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	supervisor.shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("control server shutdown")
	}
}

// callSupervisor owns at most one active call session. The UI layer is
// responsible for serializing call intents; here that means busy means
// reject.
type callSupervisor struct {
	apiClient  *api.Client
	engines    call.EngineFactory
	metrics    *observability.Metrics
	autoAnswer bool
	logger     zerolog.Logger

	mu     sync.Mutex
	active *call.Manager
}

func (s *callSupervisor) handleIncoming(rec api.IncomingCall) {
	s.logger.Info().
		Str("from", rec.Caller.Username).
		Str("kind", rec.Kind).
		Msg("incoming call")

	if !s.autoAnswer {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
	defer cancel()

	s.mu.Lock()
	busy := s.active != nil
	s.mu.Unlock()
	if busy {
		s.logger.Info().Str("message", rec.MessageID).Msg("busy, rejecting call")
		if err := s.apiClient.RejectCall(ctx, rec.MessageID); err != nil {
			s.logger.Warn().Err(err).Msg("reject call")
		}
		return
	}

	profile, ok := s.apiClient.Session().Profile(ctx)
	if !ok {
		s.logger.Warn().Msg("no signed-in profile, cannot answer")
		return
	}

	if err := s.apiClient.AcceptCall(ctx, rec.MessageID); err != nil {
		s.logger.Warn().Err(err).Msg("accept call")
		return
	}

	kind := call.KindVideo
	if rec.Kind == "audio" {
		kind = call.KindAudio
	}
	mgr, err := call.NewManager(call.Config{
		LocalUserID:  profile.ID,
		RemoteUserID: rec.Caller.ID,
		Kind:         kind,
		Engine:       s.engines,
		Tokens:       s.apiClient,
		Logger:       s.logger,
		Metrics:      s.metrics,
		Callbacks: call.Callbacks{
			OnCallEnd: func() { s.clear() },
			OnError: func(err error) {
				s.logger.Error().Err(err).Msg("call error")
			},
		},
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("build call session")
		return
	}

	s.mu.Lock()
	s.active = mgr
	s.mu.Unlock()

	if err := mgr.StartCall(ctx); err != nil {
		s.clear()
	}
}

func (s *callSupervisor) snapshot() (state, room string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", "", false
	}
	return string(s.active.State()), s.active.RoomID(), true
}

func (s *callSupervisor) clear() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

func (s *callSupervisor) shutdown() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active != nil {
		active.EndCall(context.Background())
	}
}
