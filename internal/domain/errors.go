package domain

import "errors"

var (
	// ErrNoTelemetry is returned by a gateway when the store holds no reading.
	// It is distinct from a reading whose fields are all zero.
	ErrNoTelemetry = errors.New("no telemetry available")

	// ErrMalformedReading marks a reading with a missing or non-numeric field.
	ErrMalformedReading = errors.New("malformed reading")

	// ErrModelNotReady means inference was attempted without a trained model.
	// It is a wiring bug and terminates the process.
	ErrModelNotReady = errors.New("severity model not ready")
)
