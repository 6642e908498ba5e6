package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novenantes/internal/biometric"
)

func TestSession_ConnectLifecycle(t *testing.T) {
	t.Run("connect moves idle to ready", func(t *testing.T) {
		dev := NewSimulatedDevice()
		s := NewSession(dev, Options{})
		assert.Equal(t, StateIdle, s.State())

		require.NoError(t, s.Connect(context.Background()))
		assert.Equal(t, StateReady, s.State())
	})

	t.Run("failed connect returns to idle and is retryable", func(t *testing.T) {
		dev := NewSimulatedDevice()
		dev.FailOpen(errors.New("no reader attached"))
		s := NewSession(dev, Options{})

		err := s.Connect(context.Background())
		require.ErrorIs(t, err, biometric.ErrDeviceUnavailable)
		assert.Equal(t, StateIdle, s.State())

		dev.FailOpen(nil)
		require.NoError(t, s.Connect(context.Background()))
		assert.Equal(t, StateReady, s.State())
	})

	t.Run("connect from ready is rejected", func(t *testing.T) {
		s := NewSession(NewSimulatedDevice(), Options{})
		require.NoError(t, s.Connect(context.Background()))
		require.Error(t, s.Connect(context.Background()))
	})

	t.Run("disconnect discards held sample", func(t *testing.T) {
		dev := NewSimulatedDevice()
		dev.QueueScan(biometric.Sample{Image: []byte("img")})
		s := NewSession(dev, Options{})
		require.NoError(t, s.Connect(context.Background()))

		_, err := s.StartCapture(context.Background())
		require.NoError(t, err)

		require.NoError(t, s.Disconnect())
		assert.Equal(t, StateIdle, s.State())
		_, err = s.Sample()
		assert.ErrorIs(t, err, biometric.ErrNoSample)
	})
}

func TestSession_Capture(t *testing.T) {
	t.Run("successful scan holds a sample", func(t *testing.T) {
		dev := NewSimulatedDevice()
		dev.QueueScan(biometric.Sample{Image: []byte("img"), Quality: 80})
		s := NewSession(dev, Options{Format: biometric.SampleFormatPNG})
		require.NoError(t, s.Connect(context.Background()))

		sample, err := s.StartCapture(context.Background())
		require.NoError(t, err)
		assert.Equal(t, biometric.SampleFormatPNG, sample.Format)
		assert.False(t, sample.CapturedAt.IsZero())
		assert.Equal(t, StateSampleAvailable, s.State())

		held, err := s.Sample()
		require.NoError(t, err)
		assert.Equal(t, sample.Image, held.Image)

		// Sample does not consume; a second read sees the same sample.
		again, err := s.Sample()
		require.NoError(t, err)
		assert.Equal(t, held.Image, again.Image)
	})

	t.Run("capture from idle is rejected", func(t *testing.T) {
		s := NewSession(NewSimulatedDevice(), Options{})
		_, err := s.StartCapture(context.Background())
		require.Error(t, err)
	})

	t.Run("cancel returns to ready without a sample", func(t *testing.T) {
		dev := NewSimulatedDevice()
		s := NewSession(dev, Options{})
		require.NoError(t, s.Connect(context.Background()))

		done := make(chan error, 1)
		go func() {
			_, err := s.StartCapture(context.Background())
			done <- err
		}()

		require.Eventually(t, func() bool {
			return s.State() == StateCapturing
		}, time.Second, time.Millisecond)

		s.CancelCapture()
		err := <-done
		require.ErrorIs(t, err, biometric.ErrCaptureCancelled)
		assert.Equal(t, StateReady, s.State())

		_, err = s.Sample()
		assert.ErrorIs(t, err, biometric.ErrNoSample)
	})

	t.Run("cancel outside capturing is a no-op", func(t *testing.T) {
		s := NewSession(NewSimulatedDevice(), Options{})
		require.NoError(t, s.Connect(context.Background()))
		s.CancelCapture()
		assert.Equal(t, StateReady, s.State())
	})

	t.Run("scan timeout faults the session", func(t *testing.T) {
		dev := NewSimulatedDevice()
		s := NewSession(dev, Options{ScanTimeout: 20 * time.Millisecond})
		require.NoError(t, s.Connect(context.Background()))

		_, err := s.StartCapture(context.Background())
		require.ErrorIs(t, err, biometric.ErrDeviceUnavailable)
		assert.Equal(t, StateError, s.State())

		// Error state is recoverable through a fresh Connect.
		require.NoError(t, s.Connect(context.Background()))
		assert.Equal(t, StateReady, s.State())
	})

	t.Run("device fault faults the session", func(t *testing.T) {
		dev := NewSimulatedDevice()
		dev.FailScan(errors.New("reader unplugged"))
		s := NewSession(dev, Options{})
		require.NoError(t, s.Connect(context.Background()))

		_, err := s.StartCapture(context.Background())
		require.ErrorIs(t, err, biometric.ErrDeviceUnavailable)
		assert.Equal(t, StateError, s.State())
	})

	t.Run("new capture discards previous sample", func(t *testing.T) {
		dev := NewSimulatedDevice()
		dev.QueueScan(biometric.Sample{Image: []byte("first")})
		dev.QueueScan(biometric.Sample{Image: []byte("second")})
		s := NewSession(dev, Options{})
		require.NoError(t, s.Connect(context.Background()))

		_, err := s.StartCapture(context.Background())
		require.NoError(t, err)
		s.Clear()
		assert.Equal(t, StateReady, s.State())

		sample, err := s.StartCapture(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), sample.Image)
	})
}
