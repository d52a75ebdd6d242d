package scanner

import "errors"

// Lifecycle errors
var (
	ErrScannerRunning    = errors.New("scanner is already running")
	ErrScannerNotRunning = errors.New("scanner is not running")
	ErrDeviceNotReady    = errors.New("device is not ready")
)

// Configuration errors. Validate wraps ErrFrequencyOutOfRange with the
// offending value; the rest are returned as-is.
var (
	ErrInvalidConfig       = errors.New("invalid scanner configuration")
	ErrFrequencyOutOfRange = errors.New("frequency out of valid range")
	ErrNoFrequencies       = errors.New("no frequencies specified for scanning")
	ErrInvalidThreshold    = errors.New("RSSI threshold must be negative (dBm)")
	ErrInvalidDwellTime    = errors.New("dwell time must be between 1-100 ms")
	ErrInvalidScanStep     = errors.New("scan step must be non-zero")
	ErrConfigVersion       = errors.New("unsupported configuration version")
)
