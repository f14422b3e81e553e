package call

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubMinter struct {
	token    string
	err      error
	lastUser string
	lastRoom string
}

func (s *stubMinter) CallToken(_ context.Context, userID, roomID string) (string, error) {
	s.lastUser = userID
	s.lastRoom = roomID
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func newTestManager(t *testing.T, factory EngineFactory, minter TokenMinter, cbs Callbacks) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		LocalUserID:  "alice",
		RemoteUserID: "bob",
		Kind:         KindVideo,
		Engine:       factory,
		Tokens:       minter,
		Logger:       zerolog.Nop(),
		Callbacks:    cbs,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func assertIdle(t *testing.T, m *Manager) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine != nil {
		t.Fatalf("engine handle should be nil")
	}
	if m.local != nil {
		t.Fatalf("local stream should be nil")
	}
	if m.remote != nil {
		t.Fatalf("remote stream should be nil")
	}
	if m.state != StateIdle {
		t.Fatalf("state = %q, want idle", m.state)
	}
	if m.audioEnabled || m.videoEnabled {
		t.Fatalf("track flags should be reset")
	}
}

func TestStartCallHappyPath(t *testing.T) {
	eng := NewMockEngine()
	minter := &stubMinter{token: "room-tok"}
	m := newTestManager(t, &MockFactory{Engine: eng}, minter, Callbacks{})

	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if m.State() != StateInCall {
		t.Fatalf("State() = %q, want in_call", m.State())
	}
	if !m.InRoom() || !m.IsPublishing() {
		t.Fatalf("InRoom/IsPublishing should both be true")
	}
	if !eng.Joined() || !eng.Publishing() {
		t.Fatalf("engine should be joined and publishing")
	}
	room, token := eng.RoomSeen()
	if room != "call_alice_bob" || token != "room-tok" {
		t.Fatalf("engine joined room=%q token=%q", room, token)
	}
	if minter.lastUser != "alice" || minter.lastRoom != "call_alice_bob" {
		t.Fatalf("token minted for user=%q room=%q", minter.lastUser, minter.lastRoom)
	}
	if m.LocalStream() == nil {
		t.Fatalf("local stream should exist")
	}
}

func TestStartCallFailureAtEachStepCleansUp(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name    string
		factory func() EngineFactory
		minter  *stubMinter
	}{
		{
			name:    "engine construction",
			factory: func() EngineFactory { return &MockFactory{Err: boom} },
			minter:  &stubMinter{token: "t"},
		},
		{
			name:    "token fetch",
			factory: func() EngineFactory { return &MockFactory{Engine: NewMockEngine()} },
			minter:  &stubMinter{err: boom},
		},
		{
			name: "media acquisition",
			factory: func() EngineFactory {
				eng := NewMockEngine()
				eng.CreateStreamErr = boom
				return &MockFactory{Engine: eng}
			},
			minter: &stubMinter{token: "t"},
		},
		{
			name: "room join",
			factory: func() EngineFactory {
				eng := NewMockEngine()
				eng.JoinErr = boom
				return &MockFactory{Engine: eng}
			},
			minter: &stubMinter{token: "t"},
		},
		{
			name: "publish",
			factory: func() EngineFactory {
				eng := NewMockEngine()
				eng.PublishErr = boom
				return &MockFactory{Engine: eng}
			},
			minter: &stubMinter{token: "t"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var errCount atomic.Int32
			m := newTestManager(t, tc.factory(), tc.minter, Callbacks{
				OnError: func(error) { errCount.Add(1) },
			})
			if err := m.StartCall(context.Background()); err == nil {
				t.Fatalf("StartCall() should fail")
			}
			assertIdle(t, m)
			if m.InRoom() || m.IsPublishing() {
				t.Fatalf("InRoom/IsPublishing should be false after failure")
			}
			if errCount.Load() != 1 {
				t.Fatalf("error callback fired %d times, want 1", errCount.Load())
			}
		})
	}
}

func TestStartCallMapsMediaErrors(t *testing.T) {
	eng := NewMockEngine()
	eng.CreateStreamErr = errors.New("permission denied by user")
	m := newTestManager(t, &MockFactory{Engine: eng}, &stubMinter{token: "t"}, Callbacks{})

	err := m.StartCall(context.Background())
	var me *MediaError
	if !errors.As(err, &me) {
		t.Fatalf("StartCall() error = %v, want MediaError", err)
	}
	if me.Code != MediaPermissionDenied {
		t.Fatalf("Code = %q, want permission_denied", me.Code)
	}
}

func TestStartCallAfterFailureIsSafe(t *testing.T) {
	eng := NewMockEngine()
	eng.JoinErr = errors.New("room full")
	factory := &MockFactory{Engine: eng}
	minter := &stubMinter{token: "t"}
	m := newTestManager(t, factory, minter, Callbacks{})

	if err := m.StartCall(context.Background()); err == nil {
		t.Fatalf("first StartCall() should fail")
	}

	fresh := NewMockEngine()
	factory.Engine = fresh
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("retry StartCall() error = %v", err)
	}
	if m.State() != StateInCall {
		t.Fatalf("State() = %q after retry", m.State())
	}
}

func TestStartCallWhileActiveRejected(t *testing.T) {
	m := newTestManager(t, &MockFactory{Engine: NewMockEngine()}, &stubMinter{token: "t"}, Callbacks{})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if err := m.StartCall(context.Background()); err == nil {
		t.Fatalf("second StartCall() should be rejected")
	}
}

func TestCleanupTwiceIsIdempotent(t *testing.T) {
	m := newTestManager(t, &MockFactory{Engine: NewMockEngine()}, &stubMinter{token: "t"}, Callbacks{})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	m.Cleanup()
	m.Cleanup()
	assertIdle(t, m)
}

func TestToggleWithoutStreamIsNoOp(t *testing.T) {
	m := newTestManager(t, &MockFactory{}, &stubMinter{token: "t"}, Callbacks{})
	if m.ToggleAudio() {
		t.Fatalf("ToggleAudio() without stream should report current (false) flag")
	}
	if m.ToggleVideo() {
		t.Fatalf("ToggleVideo() without stream should report current (false) flag")
	}
}

func TestToggleFlipsLocalTracks(t *testing.T) {
	m := newTestManager(t, &MockFactory{Engine: NewMockEngine()}, &stubMinter{token: "t"}, Callbacks{})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	if m.ToggleAudio() {
		t.Fatalf("first ToggleAudio() should disable audio")
	}
	local := m.LocalStream()
	if tr := local.Track(TrackAudio); tr == nil || tr.Enabled() {
		t.Fatalf("audio track should be disabled")
	}
	if !m.ToggleAudio() {
		t.Fatalf("second ToggleAudio() should re-enable audio")
	}

	if m.ToggleVideo() {
		t.Fatalf("first ToggleVideo() should disable video")
	}
	if tr := local.Track(TrackVideo); tr == nil || tr.Enabled() {
		t.Fatalf("video track should be disabled")
	}
}

func TestEndCallReleasesEverythingAndFiresCallbackOnce(t *testing.T) {
	var ends atomic.Int32
	eng := NewMockEngine()
	m := newTestManager(t, &MockFactory{Engine: eng}, &stubMinter{token: "t"}, Callbacks{
		OnCallEnd: func() { ends.Add(1) },
	})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	local := m.LocalStream()

	m.EndCall(context.Background())
	m.EndCall(context.Background())

	assertIdle(t, m)
	if ends.Load() != 1 {
		t.Fatalf("end callback fired %d times, want 1", ends.Load())
	}
	if eng.Publishing() || eng.Joined() {
		t.Fatalf("engine should have unpublished and left")
	}
	for _, tr := range local.Tracks {
		if !tr.Stopped() {
			t.Fatalf("track %s should be stopped", tr.ID)
		}
	}
}

func TestRemoteLeaveEndsCallExactlyOnce(t *testing.T) {
	var ends atomic.Int32
	ended := make(chan struct{})
	eng := NewMockEngine()
	m := newTestManager(t, &MockFactory{Engine: eng}, &stubMinter{token: "t"}, Callbacks{
		OnCallEnd: func() {
			ends.Add(1)
			close(ended)
		},
	})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	eng.EmitParticipantLeft("bob")
	waitSignal(t, ended, "call end callback")

	assertIdle(t, m)
	if m.InRoom() {
		t.Fatalf("InRoom should be false after remote leave")
	}

	// A late manual EndCall must not fire the callback again.
	m.EndCall(context.Background())
	if ends.Load() != 1 {
		t.Fatalf("end callback fired %d times, want 1", ends.Load())
	}
}

func TestVideoCallScenario(t *testing.T) {
	eng := NewMockEngine()
	eng.AddRemoteStream("bob", "bob_main", KindVideo)

	type remote struct {
		userID string
		stream *Stream
	}
	gotRemote := make(chan remote, 1)
	ended := make(chan struct{})

	m := newTestManager(t, &MockFactory{Engine: eng}, &stubMinter{token: "t"}, Callbacks{
		OnRemoteStream: func(userID string, s *Stream) {
			gotRemote <- remote{userID: userID, stream: s}
		},
		OnCallEnd: func() { close(ended) },
	})

	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	eng.EmitStreamAdded("bob", "bob_main")
	select {
	case r := <-gotRemote:
		if r.userID != "bob" {
			t.Fatalf("remote stream userID = %q, want bob", r.userID)
		}
		if r.stream == nil {
			t.Fatalf("remote stream should not be nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for remote stream")
	}
	if m.RemoteStream() == nil {
		t.Fatalf("manager should hold the remote stream")
	}

	eng.EmitParticipantLeft("bob")
	waitSignal(t, ended, "call end callback")
	if m.InRoom() {
		t.Fatalf("InRoom should be false after bob left")
	}
	assertIdle(t, m)
}

func TestStreamRemovedReleasesOnlyRemote(t *testing.T) {
	eng := NewMockEngine()
	remote := eng.AddRemoteStream("bob", "bob_main", KindVideo)
	gotRemote := make(chan struct{})

	m := newTestManager(t, &MockFactory{Engine: eng}, &stubMinter{token: "t"}, Callbacks{
		OnRemoteStream: func(string, *Stream) { close(gotRemote) },
	})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	eng.EmitStreamAdded("bob", "bob_main")
	waitSignal(t, gotRemote, "remote stream callback")

	eng.EmitStreamRemoved("bob", "bob_main")
	deadline := time.After(2 * time.Second)
	for m.RemoteStream() != nil {
		select {
		case <-deadline:
			t.Fatalf("remote stream should have been released")
		case <-time.After(10 * time.Millisecond):
		}
	}

	for _, tr := range remote.Tracks {
		if !tr.Stopped() {
			t.Fatalf("remote track %s should be stopped", tr.ID)
		}
	}
	if !m.InRoom() || !m.IsPublishing() {
		t.Fatalf("dropping the remote stream must not end the call")
	}
	if m.LocalStream() == nil {
		t.Fatalf("local stream should survive a remote stream removal")
	}
}

func TestRoomDroppedReportedNotRetried(t *testing.T) {
	errCh := make(chan error, 1)
	eng := NewMockEngine()
	m := newTestManager(t, &MockFactory{Engine: eng}, &stubMinter{token: "t"}, Callbacks{
		OnError: func(err error) { errCh <- err },
	})
	if err := m.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	eng.EmitRoomDropped("network gone")
	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected a room dropped error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for error callback")
	}
	// Reported, not torn down: the caller decides what happens next.
	if m.State() != StateInCall {
		t.Fatalf("State() = %q, want in_call", m.State())
	}
}
