//go:build !integration

package capture_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"quickscreen/internal/capture"
	"quickscreen/internal/domain"
	"quickscreen/internal/infra/device"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestSession_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("should concatenate chunks in arrival order into the payload", func(t *testing.T) {
		// --- Arrange ---
		src := &device.StaticSource{Chunks: [][]byte{[]byte("aa"), []byte("b"), []byte("ccc")}}
		s := capture.NewSession(src, newTestLogger())

		// --- Act ---
		if err := s.Acquire(ctx); err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if err := s.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := s.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
		if err := s.Stop(); err != nil {
			t.Fatalf("stop: %v", err)
		}

		// --- Assert ---
		payload, err := s.Payload()
		if err != nil {
			t.Fatalf("payload: %v", err)
		}
		if !bytes.Equal(payload, []byte("aabccc")) {
			t.Errorf("expected payload %q, got %q", "aabccc", payload)
		}
		if s.State() != capture.StateReady {
			t.Errorf("expected state ready, got %s", s.State())
		}
	})

	t.Run("should finalize chunks left queued on the stream at stop time", func(t *testing.T) {
		src := &device.StaticSource{Chunks: [][]byte{[]byte("x"), []byte("yz")}}
		s := capture.NewSession(src, newTestLogger())

		if err := s.Acquire(ctx); err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if err := s.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
		// No Poll: Stop alone must drain the queue.
		if err := s.Stop(); err != nil {
			t.Fatalf("stop: %v", err)
		}
		payload, _ := s.Payload()
		if !bytes.Equal(payload, []byte("xyz")) {
			t.Errorf("expected payload %q, got %q", "xyz", payload)
		}
		if len(payload) == 0 {
			t.Error("expected non-empty payload when non-empty chunks were delivered")
		}
	})

	t.Run("should fail acquisition with DeviceError and stay idle when denied", func(t *testing.T) {
		s := capture.NewSession(&device.StaticSource{Deny: true}, newTestLogger())

		err := s.Acquire(ctx)

		var devErr *domain.DeviceError
		if !errors.As(err, &devErr) {
			t.Fatalf("expected DeviceError, got %v", err)
		}
		if s.State() != capture.StateIdle {
			t.Errorf("expected session to remain idle, got %s", s.State())
		}
	})
}

func TestSession_InvalidTransitions(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		run  func(s *capture.Session) error
	}{
		{"start before acquire", func(s *capture.Session) error { return s.Start() }},
		{"stop before recording", func(s *capture.Session) error {
			if err := s.Acquire(ctx); err != nil {
				return err
			}
			return s.Stop()
		}},
		{"discard from streaming", func(s *capture.Session) error {
			if err := s.Acquire(ctx); err != nil {
				return err
			}
			return s.Discard()
		}},
		{"payload before ready", func(s *capture.Session) error {
			_, err := s.Payload()
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := capture.NewSession(&device.StaticSource{}, newTestLogger())
			err := tc.run(s)
			var stateErr *domain.InvalidStateError
			if !errors.As(err, &stateErr) {
				t.Fatalf("expected InvalidStateError, got %v", err)
			}
		})
	}
}

func TestSession_DeviceRelease(t *testing.T) {
	ctx := context.Background()

	acquireRecording := func(t *testing.T, src *device.StaticSource) *capture.Session {
		t.Helper()
		s := capture.NewSession(src, newTestLogger())
		if err := s.Acquire(ctx); err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if err := s.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
		return s
	}

	t.Run("stop releases every track", func(t *testing.T) {
		src := &device.StaticSource{Chunks: [][]byte{[]byte("a")}}
		s := acquireRecording(t, src)

		if err := s.Stop(); err != nil {
			t.Fatalf("stop: %v", err)
		}

		if n := src.LastLiveTracks(); n != 0 {
			t.Errorf("expected 0 live tracks after stop, got %d", n)
		}
	})

	t.Run("discard mid-recording releases every track", func(t *testing.T) {
		src := &device.StaticSource{Chunks: [][]byte{[]byte("a")}}
		s := acquireRecording(t, src)

		if err := s.Discard(); err != nil {
			t.Fatalf("discard: %v", err)
		}

		if n := src.LastLiveTracks(); n != 0 {
			t.Errorf("expected 0 live tracks after discard, got %d", n)
		}
		if s.State() != capture.StateIdle {
			t.Errorf("expected idle after discard, got %s", s.State())
		}
	})

	t.Run("close releases from any state", func(t *testing.T) {
		src := &device.StaticSource{}
		s := capture.NewSession(src, newTestLogger())
		if err := s.Acquire(ctx); err != nil {
			t.Fatalf("acquire: %v", err)
		}

		s.Close()

		if n := src.LastLiveTracks(); n != 0 {
			t.Errorf("expected 0 live tracks after close, got %d", n)
		}
		if s.State() != capture.StateDiscarded {
			t.Errorf("expected discarded after close, got %s", s.State())
		}
	})

	t.Run("re-record after discard starts a fresh recording", func(t *testing.T) {
		src := &device.StaticSource{Chunks: [][]byte{[]byte("old")}}
		s := acquireRecording(t, src)
		if err := s.Discard(); err != nil {
			t.Fatalf("discard: %v", err)
		}

		src.Chunks = [][]byte{[]byte("new")}
		if err := s.Acquire(ctx); err != nil {
			t.Fatalf("re-acquire: %v", err)
		}
		if err := s.Start(); err != nil {
			t.Fatalf("re-start: %v", err)
		}
		if err := s.Stop(); err != nil {
			t.Fatalf("re-stop: %v", err)
		}

		payload, _ := s.Payload()
		if !bytes.Equal(payload, []byte("new")) {
			t.Errorf("expected re-recorded payload %q, got %q", "new", payload)
		}
	})
}
