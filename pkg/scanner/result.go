package scanner

import "time"

// ScanResult holds the result of a single scan cycle
type ScanResult struct {
	// Coarse scan results
	CoarseFrequency uint32  // Hz - frequency with strongest signal in coarse scan
	CoarseRSSI      float32 // dBm - signal strength at coarse frequency

	// Fine scan results (only populated if signal detected)
	FineFrequency uint32  // Hz - refined frequency from fine scan
	FineRSSI      float32 // dBm - signal strength at fine frequency

	// Metadata
	Timestamp      time.Time
	SignalDetected bool // True if RSSI exceeded threshold
}

// SignalInfo represents a detected signal with history
type SignalInfo struct {
	Frequency      uint32    // Hz - smoothed frequency
	RawFrequency   uint32    // Hz - last measured frequency
	RSSI           float32   // dBm - current signal strength
	MaxRSSI        float32   // dBm - maximum observed RSSI
	FirstSeen      time.Time // When signal was first detected
	LastSeen       time.Time // When signal was last detected
	DetectionCount uint32    // Number of times detected
}
