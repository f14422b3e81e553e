package call

import "context"

type EventType string

const (
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventStreamAdded       EventType = "stream_added"
	EventStreamRemoved     EventType = "stream_removed"
	EventRoomDropped       EventType = "room_dropped"
)

// Event is one room-level occurrence reported by the engine.
type Event struct {
	Type     EventType
	UserID   string
	StreamID string
	Reason   string
}

// Engine is the vendor signaling capability a call session drives: create a
// local stream, authenticate into a room, publish, subscribe, leave. The
// engine owns the media plane; the session sequences the lifecycle.
//
// Events delivers room occurrences until Close; the channel is closed when
// the engine shuts down.
type Engine interface {
	CreateStream(ctx context.Context, kind Kind) (*Stream, error)
	Join(ctx context.Context, roomID, token, userID string) error
	Publish(ctx context.Context, s *Stream) error
	StopPublish(ctx context.Context) error
	Subscribe(ctx context.Context, streamID string) (*Stream, error)
	Leave(ctx context.Context) error
	Events() <-chan Event
	Close() error
}

// EngineFactory constructs a fresh engine per call session. The handle is
// owned exclusively by that session and destroyed with it.
type EngineFactory interface {
	Create(ctx context.Context) (Engine, error)
}
