package call

import "sync"

// Kind selects the media a call carries.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

const (
	TrackAudio = "audio"
	TrackVideo = "video"
)

// Track is a handle on one media track of a stream. The media plane itself
// belongs to the engine; the handle carries the enabled flag and releases
// the underlying track on Stop.
type Track struct {
	ID   string
	Kind string

	mu      sync.Mutex
	enabled bool
	stopped bool
}

func newTrack(id, kind string) *Track {
	return &Track{ID: id, Kind: kind, enabled: true}
}

func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.enabled = enabled
}

func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.enabled = false
}

func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stream groups the tracks published or subscribed under one stream id.
type Stream struct {
	ID     string
	UserID string
	Tracks []*Track
}

// NewStream builds a stream handle with one track per kind; KindVideo
// carries both audio and video.
func NewStream(id, userID string, kind Kind) *Stream {
	s := &Stream{ID: id, UserID: userID}
	s.Tracks = append(s.Tracks, newTrack(id+":audio", TrackAudio))
	if kind == KindVideo {
		s.Tracks = append(s.Tracks, newTrack(id+":video", TrackVideo))
	}
	return s
}

// Track returns the first track of the given kind, or nil.
func (s *Stream) Track(kind string) *Track {
	for _, t := range s.Tracks {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

// Release stops every track. Safe to call more than once.
func (s *Stream) Release() {
	for _, t := range s.Tracks {
		t.Stop()
	}
}
