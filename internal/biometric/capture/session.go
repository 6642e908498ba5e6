package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"novenantes/internal/biometric"
	"novenantes/pkg/platform/sentinel"
)

// State of a capture session.
type State string

const (
	StateIdle            State = "idle"
	StateConnecting      State = "connecting"
	StateReady           State = "ready"
	StateCapturing       State = "capturing"
	StateSampleAvailable State = "sample_available"
	StateError           State = "error"
)

// Options bound the session's waits and fix the sample encoding. Passing the
// format here keeps it out of hidden device-global state.
type Options struct {
	ConnectTimeout time.Duration
	ScanTimeout    time.Duration
	Format         biometric.SampleFormat
}

func (o *Options) defaults() {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.ScanTimeout <= 0 {
		o.ScanTimeout = 60 * time.Second
	}
	if o.Format == "" {
		o.Format = biometric.SampleFormatPNG
	}
}

// Session owns a single device exclusively: only one session may hold
// Ready/Capturing state against a reader at a time.
type Session struct {
	device Device
	opts   Options

	mu         sync.Mutex
	state      State
	sample     *biometric.Sample
	cancelScan context.CancelFunc
	cancelled  bool
}

func NewSession(device Device, opts Options) *Session {
	opts.defaults()
	return &Session{device: device, opts: opts, state: StateIdle}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect binds the reader within the configured timeout. Valid from Idle or
// Error; a failed attempt is reported as ErrDeviceUnavailable and leaves the
// session Idle so the caller can retry.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateError {
		s.mu.Unlock()
		return fmt.Errorf("connect from %s: %w", s.state, sentinel.ErrInvalidState)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	openCtx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()
	err := s.device.Open(openCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateIdle
		return fmt.Errorf("%w: %v", biometric.ErrDeviceUnavailable, err)
	}
	s.state = StateReady
	return nil
}

// Disconnect releases the reader and returns to Idle. Any held sample is
// discarded.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCapturing {
		return fmt.Errorf("disconnect while capturing: %w", sentinel.ErrInvalidState)
	}
	s.sample = nil
	s.state = StateIdle
	return s.device.Close()
}

// StartCapture acquires one sample. Valid only from Ready. The call blocks
// until the device reports a scan, the scan timeout elapses, the caller's
// context is cancelled, or CancelCapture is invoked.
func (s *Session) StartCapture(ctx context.Context) (biometric.Sample, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return biometric.Sample{}, fmt.Errorf("start capture from %s: %w", s.state, sentinel.ErrInvalidState)
	}
	scanCtx, cancel := context.WithTimeout(ctx, s.opts.ScanTimeout)
	s.state = StateCapturing
	s.sample = nil
	s.cancelScan = cancel
	s.cancelled = false
	s.mu.Unlock()

	sample, err := s.device.Scan(scanCtx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelScan = nil

	if err != nil {
		// User cancellation (or the caller abandoning the request) is a
		// normal transition back to Ready, not a device fault.
		if s.cancelled || errors.Is(err, context.Canceled) {
			s.state = StateReady
			return biometric.Sample{}, biometric.ErrCaptureCancelled
		}
		s.state = StateError
		if errors.Is(err, context.DeadlineExceeded) {
			return biometric.Sample{}, fmt.Errorf("%w: scan timed out", biometric.ErrDeviceUnavailable)
		}
		return biometric.Sample{}, fmt.Errorf("%w: %v", biometric.ErrDeviceUnavailable, err)
	}

	sample.Format = s.opts.Format
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now()
	}
	s.sample = &sample
	s.state = StateSampleAvailable
	return sample, nil
}

// CancelCapture aborts an in-flight capture. Valid from Capturing; a no-op
// otherwise.
func (s *Session) CancelCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCapturing || s.cancelScan == nil {
		return
	}
	s.cancelled = true
	s.cancelScan()
}

// Sample returns the held sample without consuming it; clearing is explicit.
func (s *Session) Sample() (biometric.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSampleAvailable || s.sample == nil {
		return biometric.Sample{}, biometric.ErrNoSample
	}
	return *s.sample, nil
}

// Clear discards any held sample and returns to Ready (or stays wherever a
// disconnected session was).
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = nil
	if s.state == StateSampleAvailable {
		s.state = StateReady
	}
}
