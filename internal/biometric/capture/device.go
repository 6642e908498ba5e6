// Package capture manages one fingerprint reader connection and one in-flight
// capture at a time behind an explicit state machine, replacing the legacy
// callback-driven WebSDK glue with a blocking, cancellable call.
package capture

import (
	"context"

	"novenantes/internal/biometric"
)

// Device abstracts the local reader SDK. Implementations adapt whatever
// driver/agent is deployed; the session never sees SDK types.
type Device interface {
	// Open discovers and binds the reader. It must honor ctx cancellation.
	Open(ctx context.Context) error

	// Scan blocks until the device reports a finished scan or ctx is
	// cancelled. The returned sample carries the device's quality indicator.
	Scan(ctx context.Context) (biometric.Sample, error)

	// Close releases the reader.
	Close() error
}
