package call

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RoomMinter mints a hosted room through the backend. Satisfied by the API
// client.
type RoomMinter interface {
	HostedRoom(ctx context.Context, kind string) (roomURL, meetingID string, err error)
}

// EmbeddedRoom is the hosted-room integration: the backend mints a room URL
// and the embedding surface renders it, so there is no engine and no local
// media to manage. Only the join state is tracked here.
type EmbeddedRoom struct {
	minter RoomMinter
	logger zerolog.Logger

	mu        sync.Mutex
	roomURL   string
	meetingID string
	joined    bool
	joinedAt  time.Time
}

func NewEmbeddedRoom(minter RoomMinter, logger zerolog.Logger) *EmbeddedRoom {
	return &EmbeddedRoom{minter: minter, logger: logger}
}

// Open mints the room and marks it joined.
func (r *EmbeddedRoom) Open(ctx context.Context, kind Kind) error {
	r.mu.Lock()
	if r.joined {
		r.mu.Unlock()
		return errors.New("embedded room already open")
	}
	r.mu.Unlock()

	roomURL, meetingID, err := r.minter.HostedRoom(ctx, string(kind))
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.roomURL = roomURL
	r.meetingID = meetingID
	r.joined = true
	r.joinedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info().Str("meeting", meetingID).Msg("hosted room opened")
	return nil
}

// Leave drops the join state. The hosted room itself expires server-side.
func (r *EmbeddedRoom) Leave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.joined {
		return
	}
	r.joined = false
	r.logger.Info().Str("meeting", r.meetingID).Dur("duration", time.Since(r.joinedAt)).Msg("hosted room left")
}

func (r *EmbeddedRoom) Joined() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joined
}

func (r *EmbeddedRoom) RoomURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roomURL
}

func (r *EmbeddedRoom) MeetingID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetingID
}
