package call

import (
	"context"
	"fmt"
	"sync"
)

// MockEngine is an in-process engine used in tests and when no signaling
// server is configured. Failures are scriptable per lifecycle step and
// events are injected through the Emit helpers.
type MockEngine struct {
	CreateStreamErr error
	JoinErr         error
	PublishErr      error
	SubscribeErr    error

	mu         sync.Mutex
	events     chan Event
	closed     bool
	joined     bool
	publishing bool
	roomID     string
	token      string
	userID     string
	remote     map[string]*Stream
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		events: make(chan Event, 32),
		remote: make(map[string]*Stream),
	}
}

func (e *MockEngine) CreateStream(_ context.Context, kind Kind) (*Stream, error) {
	if e.CreateStreamErr != nil {
		return nil, e.CreateStreamErr
	}
	return NewStream("mock_local", "", kind), nil
}

func (e *MockEngine) Join(_ context.Context, roomID, token, userID string) error {
	if e.JoinErr != nil {
		return e.JoinErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.joined = true
	e.roomID = roomID
	e.token = token
	e.userID = userID
	return nil
}

func (e *MockEngine) Publish(_ context.Context, _ *Stream) error {
	if e.PublishErr != nil {
		return e.PublishErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publishing = true
	return nil
}

func (e *MockEngine) StopPublish(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publishing = false
	return nil
}

func (e *MockEngine) Subscribe(_ context.Context, streamID string) (*Stream, error) {
	if e.SubscribeErr != nil {
		return nil, e.SubscribeErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.remote[streamID]
	if !ok {
		return nil, fmt.Errorf("unknown stream %q", streamID)
	}
	return s, nil
}

func (e *MockEngine) Leave(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.joined = false
	return nil
}

func (e *MockEngine) Events() <-chan Event { return e.events }

func (e *MockEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.events)
	return nil
}

// Joined reports whether the engine currently holds the room.
func (e *MockEngine) Joined() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.joined
}

// Publishing reports whether the local stream is being sent.
func (e *MockEngine) Publishing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.publishing
}

// RoomSeen returns the room and token from the last Join.
func (e *MockEngine) RoomSeen() (roomID, token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roomID, e.token
}

// AddRemoteStream registers a stream that Subscribe will hand out.
func (e *MockEngine) AddRemoteStream(userID, streamID string, kind Kind) *Stream {
	s := NewStream(streamID, userID, kind)
	e.mu.Lock()
	e.remote[streamID] = s
	e.mu.Unlock()
	return s
}

func (e *MockEngine) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.events <- ev
}

func (e *MockEngine) EmitParticipantJoined(userID string) {
	e.emit(Event{Type: EventParticipantJoined, UserID: userID})
}

func (e *MockEngine) EmitParticipantLeft(userID string) {
	e.emit(Event{Type: EventParticipantLeft, UserID: userID})
}

func (e *MockEngine) EmitStreamAdded(userID, streamID string) {
	e.emit(Event{Type: EventStreamAdded, UserID: userID, StreamID: streamID})
}

func (e *MockEngine) EmitStreamRemoved(userID, streamID string) {
	e.emit(Event{Type: EventStreamRemoved, UserID: userID, StreamID: streamID})
}

func (e *MockEngine) EmitRoomDropped(reason string) {
	e.emit(Event{Type: EventRoomDropped, Reason: reason})
}

// MockFactory hands out a pre-built engine, or a fresh one per call when
// none is set.
type MockFactory struct {
	Engine *MockEngine
	Err    error
}

func (f *MockFactory) Create(_ context.Context) (Engine, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Engine != nil {
		return f.Engine, nil
	}
	return NewMockEngine(), nil
}
