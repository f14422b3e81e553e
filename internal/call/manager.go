package call

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/luvhive/hivelink/internal/observability"
)

// State is the tagged lifecycle position of a call session. Deriving the
// in-room and publishing answers from one variant keeps illegal flag
// combinations unrepresentable.
type State string

const (
	StateIdle           State = "idle"
	StateInitializing   State = "initializing"
	StateTokenFetching  State = "token_fetching"
	StateAcquiringMedia State = "acquiring_media"
	StateJoiningRoom    State = "joining_room"
	StatePublishing     State = "publishing"
	StateInCall         State = "in_call"
	StateEnding         State = "ending"
)

// TokenMinter mints the room credential for a user/room pair. Satisfied by
// the API client.
type TokenMinter interface {
	CallToken(ctx context.Context, userID, roomID string) (string, error)
}

// Callbacks are the session's outward edges. All of them may be nil.
type Callbacks struct {
	// OnParticipantJoined fires when the peer enters the room.
	OnParticipantJoined func(userID string)
	// OnRemoteStream fires once the peer's published stream has been
	// subscribed.
	OnRemoteStream func(userID string, s *Stream)
	// OnCallEnd fires exactly once per call, on every exit path that goes
	// through EndCall.
	OnCallEnd func()
	// OnError receives classified media errors during setup and raw engine
	// errors afterwards. Nothing is retried on its behalf.
	OnError func(err error)
}

// Config describes one call session.
type Config struct {
	LocalUserID  string
	RemoteUserID string
	Kind         Kind

	Engine EngineFactory
	Tokens TokenMinter

	Logger    zerolog.Logger
	Metrics   *observability.Metrics
	Callbacks Callbacks
}

// Manager drives one call from initiation to termination. It owns the
// engine handle and the local stream exclusively and guarantees both are
// released on every exit path, including failures partway through setup.
//
// A failed StartCall must be retried from idle; there is no partial retry
// and no way to abort a StartCall in flight.
type Manager struct {
	cfg    Config
	roomID string
	logger zerolog.Logger

	mu           sync.Mutex
	state        State
	engine       Engine
	local        *Stream
	remote       *Stream
	audioEnabled bool
	videoEnabled bool
	counted      bool
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.LocalUserID == "" || cfg.RemoteUserID == "" {
		return nil, errors.New("call: both participant ids are required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("call: engine factory is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("call: token minter is required")
	}
	if cfg.Kind == "" {
		cfg.Kind = KindVideo
	}
	roomID := DeriveRoomID(cfg.LocalUserID, cfg.RemoteUserID)
	return &Manager{
		cfg:    cfg,
		roomID: roomID,
		logger: cfg.Logger.With().Str("room", roomID).Logger(),
		state:  StateIdle,
	}, nil
}

// RoomID is immutable for the lifetime of the session.
func (m *Manager) RoomID() string { return m.roomID }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// InRoom reports whether the session holds a joined room.
func (m *Manager) InRoom() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StatePublishing || m.state == StateInCall
}

// IsPublishing reports whether the local stream is being sent. Implies
// InRoom.
func (m *Manager) IsPublishing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateInCall
}

// StartCall runs the full setup sequence: engine construction, room token,
// local media, room join, publish. Any failure aborts forward progress and
// runs cleanup before returning, so a failed start never leaks a track or
// an engine handle.
func (m *Manager) StartCall(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return fmt.Errorf("call: start from state %q", m.state)
	}
	m.state = StateInitializing
	m.mu.Unlock()

	started := time.Now()

	eng, err := m.cfg.Engine.Create(ctx)
	if err != nil {
		return m.fail(fmt.Errorf("create engine: %w", err))
	}
	m.mu.Lock()
	m.engine = eng
	m.state = StateTokenFetching
	m.mu.Unlock()

	token, err := m.cfg.Tokens.CallToken(ctx, m.cfg.LocalUserID, m.roomID)
	if err != nil {
		return m.fail(fmt.Errorf("fetch room token: %w", err))
	}

	m.setState(StateAcquiringMedia)
	local, err := eng.CreateStream(ctx, m.cfg.Kind)
	if err != nil {
		return m.fail(ClassifyMediaError(err))
	}
	m.mu.Lock()
	m.local = local
	m.audioEnabled = true
	m.videoEnabled = m.cfg.Kind == KindVideo
	m.state = StateJoiningRoom
	m.mu.Unlock()

	if err := eng.Join(ctx, m.roomID, token, m.cfg.LocalUserID); err != nil {
		return m.fail(fmt.Errorf("join room: %w", err))
	}
	go m.consumeEvents(eng)

	m.setState(StatePublishing)
	if err := eng.Publish(ctx, local); err != nil {
		return m.fail(fmt.Errorf("publish stream: %w", err))
	}

	m.mu.Lock()
	m.state = StateInCall
	m.counted = true
	m.mu.Unlock()

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.ActiveCalls.Inc()
		m.cfg.Metrics.ObserveCallSetup(time.Since(started))
	}
	m.logger.Info().Str("kind", string(m.cfg.Kind)).Msg("call established")
	return nil
}

// ToggleAudio flips the local audio track and returns the new flag, or the
// current flag unchanged when no local stream exists.
func (m *Manager) ToggleAudio() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.local == nil {
		return m.audioEnabled
	}
	m.audioEnabled = !m.audioEnabled
	if t := m.local.Track(TrackAudio); t != nil {
		t.SetEnabled(m.audioEnabled)
	}
	return m.audioEnabled
}

// ToggleVideo flips the local video track and returns the new flag, or the
// current flag unchanged when no local stream exists.
func (m *Manager) ToggleVideo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.local == nil {
		return m.videoEnabled
	}
	m.videoEnabled = !m.videoEnabled
	if t := m.local.Track(TrackVideo); t != nil {
		t.SetEnabled(m.videoEnabled)
	}
	return m.videoEnabled
}

// EndCall unpublishes, leaves the room and releases everything. Errors on
// the way down are logged, never propagated: teardown always completes and
// the end callback fires exactly once per call.
func (m *Manager) EndCall(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateIdle || m.state == StateEnding {
		m.mu.Unlock()
		return
	}
	eng := m.engine
	publishing := m.state == StateInCall
	inRoom := publishing || m.state == StatePublishing
	m.state = StateEnding
	m.mu.Unlock()

	if eng != nil {
		if publishing {
			if err := eng.StopPublish(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("stop publishing")
			}
		}
		if inRoom {
			if err := eng.Leave(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("leave room")
			}
		}
	}

	m.Cleanup()
	m.logger.Info().Msg("call ended")
	if m.cfg.Callbacks.OnCallEnd != nil {
		m.cfg.Callbacks.OnCallEnd()
	}
}

// Cleanup releases the local and remote streams, destroys the engine handle
// and resets the session to idle. Safe to call any number of times.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.local != nil {
		m.local.Release()
		m.local = nil
	}
	if m.remote != nil {
		m.remote.Release()
		m.remote = nil
	}
	if m.engine != nil {
		if err := m.engine.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("close engine")
		}
		m.engine = nil
	}
	m.audioEnabled = false
	m.videoEnabled = false
	if m.counted && m.cfg.Metrics != nil {
		m.cfg.Metrics.ActiveCalls.Dec()
	}
	m.counted = false
	m.state = StateIdle
}

func (m *Manager) fail(err error) error {
	m.logger.Error().Err(err).Msg("call setup failed")
	m.Cleanup()
	if m.cfg.Callbacks.OnError != nil {
		m.cfg.Callbacks.OnError(err)
	}
	return err
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) consumeEvents(eng Engine) {
	for ev := range eng.Events() {
		m.handleEvent(eng, ev)
	}
}

func (m *Manager) handleEvent(eng Engine, ev Event) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.CallEvents.WithLabelValues(string(ev.Type)).Inc()
	}
	switch ev.Type {
	case EventParticipantJoined:
		m.logger.Info().Str("user", ev.UserID).Msg("participant joined")
		if m.cfg.Callbacks.OnParticipantJoined != nil {
			m.cfg.Callbacks.OnParticipantJoined(ev.UserID)
		}
	case EventParticipantLeft:
		// A two-party call cannot continue without the peer; departure
		// always ends the session.
		m.logger.Info().Str("user", ev.UserID).Msg("participant left")
		m.EndCall(context.Background())
	case EventStreamAdded:
		remote, err := eng.Subscribe(context.Background(), ev.StreamID)
		if err != nil {
			m.logger.Error().Err(err).Str("stream", ev.StreamID).Msg("subscribe remote stream")
			if m.cfg.Callbacks.OnError != nil {
				m.cfg.Callbacks.OnError(fmt.Errorf("subscribe stream: %w", err))
			}
			return
		}
		m.mu.Lock()
		m.remote = remote
		m.mu.Unlock()
		if m.cfg.Callbacks.OnRemoteStream != nil {
			m.cfg.Callbacks.OnRemoteStream(ev.UserID, remote)
		}
	case EventStreamRemoved:
		// The peer dropped a stream but is still in the room; release only
		// the remote tracks.
		m.mu.Lock()
		if m.remote != nil && (ev.StreamID == "" || m.remote.ID == ev.StreamID) {
			m.remote.Release()
			m.remote = nil
		}
		m.mu.Unlock()
	case EventRoomDropped:
		m.logger.Warn().Str("reason", ev.Reason).Msg("room connection lost")
		if m.cfg.Callbacks.OnError != nil {
			m.cfg.Callbacks.OnError(fmt.Errorf("room connection lost: %s", ev.Reason))
		}
	}
}

// RemoteStream returns the currently subscribed remote stream, if any.
func (m *Manager) RemoteStream() *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remote
}

// LocalStream returns the local stream handle, if any.
func (m *Manager) LocalStream() *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local
}
