package capture

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quickscreen/internal/domain"
	"quickscreen/internal/domain/ports/adapter"
)

// State of a capture session. Transitions are linear for the happy path
// (Idle -> Acquiring -> Streaming -> Recording -> Finalizing -> Ready) with
// Discard/Close escaping back to Idle or Discarded from anywhere a device
// may be held.
type State string

const (
	StateIdle       State = "idle"
	StateAcquiring  State = "acquiring"
	StateStreaming  State = "streaming"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateReady      State = "ready"
	StateDiscarded  State = "discarded"
)

// Session owns at most one device stream and buffers its chunks in arrival
// order until Stop finalizes them into a single immutable payload. Events
// are consumed synchronously (Poll/Stop) rather than via callbacks, so
// ordering and finalization are deterministic and testable without a real
// device.
//
// Session is not safe for concurrent use; it models a single client
// interaction context.
type Session struct {
	id     string
	source adapter.DeviceSource
	log    zerolog.Logger

	state   State
	stream  adapter.DeviceStream
	chunks  [][]byte
	payload []byte
	ended   bool // end-of-stream event observed
}

func NewSession(source adapter.DeviceSource, logger *zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		source: source,
		log:    logger.With().Str("component", "CaptureSession").Str("session_id", id).Logger(),
		state:  StateIdle,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.state }

// Acquire requests the device stream. On denial or absence the session
// stays Idle and the failure surfaces as a DeviceError.
func (s *Session) Acquire(ctx context.Context) error {
	if s.state != StateIdle {
		return &domain.InvalidStateError{Op: "acquire", State: string(s.state)}
	}
	s.state = StateAcquiring
	stream, err := s.source.Acquire(ctx)
	if err != nil {
		s.state = StateIdle
		s.log.Warn().Err(err).Msg("device acquisition failed")
		return &domain.DeviceError{Cause: err}
	}
	s.stream = stream
	s.state = StateStreaming
	s.log.Debug().Msg("device stream acquired")
	return nil
}

// Start begins buffering. Valid only while Streaming.
func (s *Session) Start() error {
	if s.state != StateStreaming {
		return &domain.InvalidStateError{Op: "start", State: string(s.state)}
	}
	s.chunks = s.chunks[:0]
	s.ended = false
	s.state = StateRecording
	return nil
}

// Poll drains every event currently queued on the stream without blocking.
// Chunks are appended in arrival order. Valid only while Recording.
func (s *Session) Poll() error {
	if s.state != StateRecording {
		return &domain.InvalidStateError{Op: "poll", State: string(s.state)}
	}
	for {
		select {
		case ev, ok := <-s.stream.Events():
			if !ok || s.consume(ev) {
				return nil
			}
		default:
			return nil
		}
	}
}

// consume appends a chunk or records end-of-stream; returns true once the
// stream has ended.
func (s *Session) consume(ev adapter.StreamEvent) bool {
	switch ev.Kind {
	case adapter.StreamEventChunk:
		if len(ev.Data) > 0 {
			s.chunks = append(s.chunks, ev.Data)
		}
	case adapter.StreamEventEnd:
		s.ended = true
	}
	return s.ended
}

// Stop finalizes the recording: the device is asked to flush, remaining
// events are drained, and the buffered chunks are concatenated in arrival
// order into one immutable payload. The device is released unconditionally,
// even if finalization fails, so a camera is never left held open.
func (s *Session) Stop() error {
	if s.state != StateRecording {
		return &domain.InvalidStateError{Op: "stop", State: string(s.state)}
	}
	s.state = StateFinalizing
	defer s.release()

	s.stream.Stop()
	for !s.ended {
		ev, ok := <-s.stream.Events()
		if !ok {
			break
		}
		s.consume(ev)
	}

	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	payload := make([]byte, 0, total)
	for _, c := range s.chunks {
		payload = append(payload, c...)
	}
	s.payload = payload
	s.state = StateReady
	s.log.Debug().Int("bytes", total).Int("chunks", len(s.chunks)).Msg("recording finalized")
	return nil
}

// Payload returns the finalized answer data. Valid only in Ready.
func (s *Session) Payload() ([]byte, error) {
	if s.state != StateReady {
		return nil, &domain.InvalidStateError{Op: "payload", State: string(s.state)}
	}
	return s.payload, nil
}

// Discard throws away the buffered or finalized answer so the candidate can
// re-record. Valid from Recording or Ready; releases the device if still
// held and returns the session to Idle.
func (s *Session) Discard() error {
	if s.state != StateRecording && s.state != StateReady {
		return &domain.InvalidStateError{Op: "discard", State: string(s.state)}
	}
	s.release()
	s.chunks = nil
	s.payload = nil
	s.state = StateIdle
	return nil
}

// Close tears the session down from any state. The device-release invariant
// holds on this path too: after Close, zero live tracks remain.
func (s *Session) Close() {
	s.release()
	s.chunks = nil
	s.payload = nil
	s.state = StateDiscarded
}

func (s *Session) release() {
	if s.stream == nil {
		return
	}
	s.stream.Stop()
	s.stream = nil
}
