// Package audiocontext adapts the host's audio-capture session to the
// displaydevice.AudioContext capability the settings manager coordinates
// with during a primary-device swap.
package audiocontext

import (
	"log"
	"sync"
)

// Stub is a lightweight implementation used until a real platform audio
// session backend is wired. It honors the capture/release contract exactly
// (captured state is tracked, release is idempotent) so callers exercising
// the real SettingsManager logic observe correct coordination even before
// a concrete audio backend exists.
type Stub struct {
	mu       sync.Mutex
	captured bool
}

// NewStub constructs an audio context with nothing captured.
func NewStub() *Stub {
	return &Stub{}
}

// Capture claims the audio session. Idempotent: calling it while already
// captured is a no-op success.
func (s *Stub) Capture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captured {
		return true
	}
	s.captured = true
	log.Printf("INFO: audiocontext stub captured")
	return true
}

// Release gives up the audio session. Idempotent.
func (s *Stub) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.captured {
		return
	}
	s.captured = false
	log.Printf("INFO: audiocontext stub released")
}

// IsCaptured reports whether the session is currently held.
func (s *Stub) IsCaptured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captured
}
