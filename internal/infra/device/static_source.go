package device

import (
	"context"
	"errors"
	"sync"

	"quickscreen/internal/domain/ports/adapter"
)

// StaticSource is a deterministic stand-in for a platform capture device:
// it replays a fixed chunk sequence. Used by demos and anywhere a real
// device is unavailable; acquisition can be forced to fail to exercise the
// denial path.
type StaticSource struct {
	Chunks [][]byte
	Deny   bool

	last *staticStream
}

var errDenied = errors.New("device permission denied")

var _ adapter.DeviceSource = (*StaticSource)(nil)

func (s *StaticSource) Acquire(ctx context.Context) (adapter.DeviceStream, error) {
	if s.Deny {
		return nil, errDenied
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := &staticStream{events: make(chan adapter.StreamEvent, len(s.Chunks)+1), live: 2}
	for _, c := range s.Chunks {
		st.events <- adapter.StreamEvent{Kind: adapter.StreamEventChunk, Data: c}
	}
	s.last = st
	return st, nil
}

// LastLiveTracks reports the live-track count of the most recently acquired
// stream, or 0 if none was ever acquired. Lets tests assert the
// release-on-every-exit-path invariant.
func (s *StaticSource) LastLiveTracks() int {
	if s.last == nil {
		return 0
	}
	return s.last.LiveTracks()
}

type staticStream struct {
	mu     sync.Mutex
	events chan adapter.StreamEvent
	live   int // video + audio tracks
	done   bool
}

var _ adapter.DeviceStream = (*staticStream)(nil)

func (s *staticStream) Events() <-chan adapter.StreamEvent { return s.events }

func (s *staticStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.live = 0
	s.events <- adapter.StreamEvent{Kind: adapter.StreamEventEnd}
	close(s.events)
}

func (s *staticStream) LiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}
