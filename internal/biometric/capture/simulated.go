package capture

import (
	"context"
	"errors"
	"sync"

	"novenantes/internal/biometric"
)

// SimulatedDevice is a Device fed by queued scans. It backs development
// environments without a physical reader and every capture test.
type SimulatedDevice struct {
	mu      sync.Mutex
	open    bool
	openErr error
	scanErr error
	scans   chan biometric.Sample
}

func NewSimulatedDevice() *SimulatedDevice {
	return &SimulatedDevice{scans: make(chan biometric.Sample, 4)}
}

// QueueScan makes the next Scan call return the given sample, as if a finger
// had been placed on the reader.
func (d *SimulatedDevice) QueueScan(sample biometric.Sample) {
	d.scans <- sample
}

// FailOpen makes Open return err, simulating an absent reader.
func (d *SimulatedDevice) FailOpen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErr = err
}

// FailScan makes the next Scan return err, simulating a device fault.
func (d *SimulatedDevice) FailScan(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanErr = err
}

func (d *SimulatedDevice) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	d.open = true
	return nil
}

func (d *SimulatedDevice) Scan(ctx context.Context) (biometric.Sample, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return biometric.Sample{}, errors.New("device not open")
	}
	if err := d.scanErr; err != nil {
		d.scanErr = nil
		d.mu.Unlock()
		return biometric.Sample{}, err
	}
	d.mu.Unlock()

	select {
	case sample := <-d.scans:
		return sample, nil
	case <-ctx.Done():
		return biometric.Sample{}, ctx.Err()
	}
}

func (d *SimulatedDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}
