package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	signalHandshakeTimeout = 10 * time.Second
	signalWriteTimeout     = 3 * time.Second
)

// wsEngine speaks the signaling server's frame protocol over a websocket:
// requests carry an id and a method, responses echo the id, events arrive
// unsolicited. One engine handles one call and dies with it.
type wsEngine struct {
	appID  string
	logger zerolog.Logger

	conn   *websocket.Conn
	events chan Event
	done   chan struct{}

	writeMu sync.Mutex

	pendMu  sync.Mutex
	pending map[string]chan signalFrame

	closeOnce sync.Once
}

type signalFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Event   string          `json:"event,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *signalError    `json:"error,omitempty"`
}

type signalError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type signalRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

func newWSEngine(ctx context.Context, serverURL, appID string, logger zerolog.Logger) (*wsEngine, error) {
	dialer := websocket.Dialer{HandshakeTimeout: signalHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, serverURL+"?appId="+appID, nil)
	if err != nil {
		return nil, fmt.Errorf("dial signaling server: %w", err)
	}
	e := &wsEngine{
		appID:   appID,
		logger:  logger,
		conn:    conn,
		events:  make(chan Event, 32),
		done:    make(chan struct{}),
		pending: make(map[string]chan signalFrame),
	}
	go e.readLoop()
	return e, nil
}

func (e *wsEngine) CreateStream(ctx context.Context, kind Kind) (*Stream, error) {
	var res struct {
		StreamID string `json:"streamId"`
	}
	if err := e.call(ctx, "createStream", map[string]string{"kind": string(kind)}, &res); err != nil {
		return nil, err
	}
	return NewStream(res.StreamID, "", kind), nil
}

func (e *wsEngine) Join(ctx context.Context, roomID, token, userID string) error {
	params := map[string]string{
		"roomId": roomID,
		"token":  token,
		"userId": userID,
	}
	return e.call(ctx, "loginRoom", params, nil)
}

func (e *wsEngine) Publish(ctx context.Context, s *Stream) error {
	return e.call(ctx, "publishStream", map[string]string{"streamId": s.ID}, nil)
}

func (e *wsEngine) StopPublish(ctx context.Context) error {
	return e.call(ctx, "stopPublishing", nil, nil)
}

func (e *wsEngine) Subscribe(ctx context.Context, streamID string) (*Stream, error) {
	var res struct {
		UserID string `json:"userId"`
		Kind   string `json:"kind"`
	}
	if err := e.call(ctx, "subscribeStream", map[string]string{"streamId": streamID}, &res); err != nil {
		return nil, err
	}
	kind := Kind(res.Kind)
	if kind != KindAudio {
		kind = KindVideo
	}
	return NewStream(streamID, res.UserID, kind), nil
}

func (e *wsEngine) Leave(ctx context.Context) error {
	return e.call(ctx, "logoutRoom", nil, nil)
}

func (e *wsEngine) Events() <-chan Event { return e.events }

func (e *wsEngine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		e.conn.Close()
	})
	return nil
}

// call issues one request and waits for the matching response.
func (e *wsEngine) call(ctx context.Context, method string, params, out any) error {
	id := uuid.NewString()
	ch := make(chan signalFrame, 1)
	e.pendMu.Lock()
	e.pending[id] = ch
	e.pendMu.Unlock()
	defer func() {
		e.pendMu.Lock()
		delete(e.pending, id)
		e.pendMu.Unlock()
	}()

	req := signalRequest{Type: "req", ID: id, Method: method, Params: params}
	e.writeMu.Lock()
	e.conn.SetWriteDeadline(time.Now().Add(signalWriteTimeout))
	err := e.conn.WriteJSON(req)
	e.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return errors.New("signaling connection closed")
	case frame, ok := <-ch:
		if !ok {
			return errors.New("signaling connection closed")
		}
		if frame.Error != nil {
			return fmt.Errorf("%s: %s", method, frame.Error.Message)
		}
		if !frame.OK {
			return fmt.Errorf("%s rejected", method)
		}
		if out != nil && len(frame.Payload) > 0 {
			if err := json.Unmarshal(frame.Payload, out); err != nil {
				return fmt.Errorf("%s: decode payload: %w", method, err)
			}
		}
		return nil
	}
}

func (e *wsEngine) readLoop() {
	defer func() {
		e.pendMu.Lock()
		for id, ch := range e.pending {
			close(ch)
			delete(e.pending, id)
		}
		e.pendMu.Unlock()
		close(e.events)
	}()

	for {
		var frame signalFrame
		if err := e.conn.ReadJSON(&frame); err != nil {
			select {
			case <-e.done:
			default:
				e.logger.Warn().Err(err).Msg("signaling connection lost")
				e.events <- Event{Type: EventRoomDropped, Reason: err.Error()}
			}
			return
		}

		switch frame.Type {
		case "res":
			e.pendMu.Lock()
			ch, ok := e.pending[frame.ID]
			e.pendMu.Unlock()
			if ok {
				ch <- frame
			}
		case "event":
			if ev, ok := e.translate(frame); ok {
				e.events <- ev
			}
		}
	}
}

func (e *wsEngine) translate(frame signalFrame) (Event, bool) {
	var payload struct {
		UserID   string `json:"userId"`
		StreamID string `json:"streamId"`
		Reason   string `json:"reason"`
	}
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			e.logger.Warn().Err(err).Str("event", frame.Event).Msg("drop malformed event")
			return Event{}, false
		}
	}
	switch frame.Event {
	case "peerJoined":
		return Event{Type: EventParticipantJoined, UserID: payload.UserID}, true
	case "peerLeft":
		return Event{Type: EventParticipantLeft, UserID: payload.UserID}, true
	case "streamAdded":
		return Event{Type: EventStreamAdded, UserID: payload.UserID, StreamID: payload.StreamID}, true
	case "streamRemoved":
		return Event{Type: EventStreamRemoved, UserID: payload.UserID, StreamID: payload.StreamID}, true
	case "disconnected":
		return Event{Type: EventRoomDropped, Reason: payload.Reason}, true
	}
	e.logger.Debug().Str("event", frame.Event).Msg("ignore unknown signaling event")
	return Event{}, false
}
