// Package scanner sweeps the SX1261/2 across a frequency list and
// reports the strongest carrier. A coarse pass with a wide receiver
// filter finds the band, a fine pass with a narrow filter pins the
// frequency down, and a tracker with hysteresis turns the raw sweep
// results into stable signal detections.
package scanner

import (
	"time"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Default scanning parameters
const (
	// DefaultRSSIThreshold is the minimum RSSI for signal detection (dBm)
	DefaultRSSIThreshold float32 = -93.0

	// DefaultFineScanRange is the range around detected signal (±Hz)
	DefaultFineScanRange uint32 = 300000

	// DefaultFineScanStep is the step size for fine scan (Hz)
	DefaultFineScanStep uint32 = 20000

	// DefaultDwellTime is the time the receiver AGC gets to settle
	// before the RSSI sample
	DefaultDwellTime = 2 * time.Millisecond

	// DefaultScanInterval is the delay between scan cycles
	DefaultScanInterval = 10 * time.Millisecond
)

// Signal tracking defaults
const (
	// DefaultHoldMax is the maximum hold counter value
	DefaultHoldMax = 20

	// DefaultLostThreshold is when signal is considered lost
	DefaultLostThreshold = 15

	// DefaultFrequencyResolution is the grouping resolution for signals (Hz)
	DefaultFrequencyResolution uint32 = 10000
)

// Frequency smoothing defaults
const (
	// DefaultSmoothThreshold is the threshold for fast/slow adaptation (Hz)
	DefaultSmoothThreshold float64 = 500000

	// DefaultKFast is the adaptation coefficient for large changes
	DefaultKFast float64 = 0.9

	// DefaultKSlow is the adaptation coefficient for small changes
	DefaultKSlow float64 = 0.03
)

// Receiver presets for the two sweep passes. The chip samples RSSI
// through the GFSK channel filter, so the filter bandwidth sets the
// sweep resolution. Bit rate and deviation only need to be legal for
// the modem; nothing is demodulated during a sweep.
var (
	// CoarsePreset opens the filter wide so one sample covers nearly
	// half a megahertz
	CoarsePreset = ModemPreset{
		BitRateBps:      50000,
		RxBandwidthHz:   467000,
		FreqDeviationHz: 25000,
	}

	// FinePreset narrows the filter to resolve the carrier
	FinePreset = ModemPreset{
		BitRateBps:      50000,
		RxBandwidthHz:   58600,
		FreqDeviationHz: 25000,
	}
)

// DefaultFrequencies is the standard set of frequencies for scanning
var DefaultFrequencies = []uint32{
	// 300-348 MHz band
	300000000,
	303875000, // Garage doors
	304250000,
	310000000, // US keyless entry
	315000000, // US keyless entry
	318000000,

	// 387-464 MHz band
	390000000,
	418000000,
	433075000, // LPD433 first channel
	433420000,
	433920000, // LPD433 center (most common)
	434420000,
	434775000, // LPD433 last channel
	438900000,

	// 779-928 MHz band
	868350000, // EU SRD
	915000000, // US ISM
	925000000,
}

// HopperFrequencies is a minimal set for rapid scanning
var HopperFrequencies = []uint32{
	310000000, // 300 MHz band
	315000000,
	390000000, // 400 MHz band
	433920000,
	868350000, // 800 MHz band
	915000000,
}

// IsValidFrequency checks if a frequency is within the chip's PLL range
func IsValidFrequency(freq uint32) bool {
	return freq >= sx1262.MinFrequencyHz && freq <= sx1262.MaxFrequencyHz
}

// FrequencyBand returns the band name for a given frequency
func FrequencyBand(freq uint32) string {
	switch {
	case freq >= 300000000 && freq <= 348000000:
		return "300MHz"
	case freq >= 387000000 && freq <= 464000000:
		return "400MHz"
	case freq >= 779000000 && freq <= 928000000:
		return "800MHz"
	case IsValidFrequency(freq):
		return "Other"
	default:
		return "Unknown"
	}
}
