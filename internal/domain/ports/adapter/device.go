package adapter

import "context"

// DeviceSource acquires a capture device (camera/microphone). Acquisition
// fails when the platform denies permission or no device is present.
type DeviceSource interface {
	Acquire(ctx context.Context) (DeviceStream, error)
}

// DeviceStream is one held recording stream. Events delivers chunk and
// end-of-stream events in arrival order; the capture session consumes them
// synchronously so finalization is deterministic. Stop releases every track
// and must be safe to call more than once. LiveTracks exists so callers can
// assert the release invariant.
type DeviceStream interface {
	Events() <-chan StreamEvent
	Stop()
	LiveTracks() int
}

type StreamEventKind int

const (
	// StreamEventChunk carries one buffered slice of recorded data.
	StreamEventChunk StreamEventKind = iota
	// StreamEventEnd signals the device finished flushing after a stop
	// request; no further chunks follow.
	StreamEventEnd
)

type StreamEvent struct {
	Kind StreamEventKind
	Data []byte
}
