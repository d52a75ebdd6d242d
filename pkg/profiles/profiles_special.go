package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Special Multi-Band Profile Factories
// These create specialized profiles for specific use cases that work
// across multiple frequency bands.

// bandFrequency maps a band name to its customary center frequency.
func bandFrequency(band string) uint32 {
	switch band {
	case "868":
		return 868300000
	case "915":
		return 915000000
	default:
		return 433920000
	}
}

// bandTxPower maps a band name to its regulatory power ceiling, capped
// at what the chip can produce.
func bandTxPower(band string) int8 {
	switch band {
	case "868":
		return 14
	case "915":
		return 22
	default:
		return 10
	}
}

// NewLongRange creates a long-range profile for maximum distance
// Uses the slowest spreading factor and the strongest coding rate for
// best sensitivity
// band: "433", "868", or "915"
func NewLongRange(band string) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("%s-longrange", band),
		Description: fmt.Sprintf("%s MHz long-range LoRa SF12 CR4/8", band),
		FrequencyHz: bandFrequency(band),
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF12,
			BandwidthHz:     62500,
			CodingRate:      8,
			PreambleLength:  12,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:    bandTxPower(band),
		RampTime:      sx1262.Ramp800us,
		Regulator:     sx1262.RegulatorDcDc,
		Dio2RfSwitch:  true,
		RxBoostedGain: true,
		Calibrate:     true,
		IrqMask:       linkIrqs,
		Dio1Mask:      linkIrqs,
	}
}

// NewHighSpeed creates a high-speed profile for maximum throughput
// Uses the chip's top GFSK bit rate with the widest channel filter
// band: "433", "868", or "915"
func NewHighSpeed(band string) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("%s-highspeed", band),
		Description: fmt.Sprintf("%s MHz high-speed GFSK at 300k baud", band),
		FrequencyHz: bandFrequency(band),
		Gfsk: &GfskSettings{
			BitRate:              300000,
			FreqDeviationHz:      50000,
			PulseShape:           sx1262.ShapeBT05,
			BandwidthHz:          467000,
			PreambleBits:         40,
			PreambleDetectorBits: 16,
			SyncWord:             HexBytes{0xD3, 0x91},
			PayloadLength:        255,
			CrcType:              sx1262.GfskCrc2Byte,
			Whitening:            true,
		},
		TxPowerDBm:   bandTxPower(band),
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// NewRobust creates a robust GFSK profile with every protection the
// packet engine offers
// Long preamble, strict detector, 2-byte CRC and whitening
// band: "433", "868", or "915"
func NewRobust(band string) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("%s-robust", band),
		Description: fmt.Sprintf("%s MHz robust GFSK with CRC16+whitening", band),
		FrequencyHz: bandFrequency(band),
		Gfsk: &GfskSettings{
			BitRate:              19200,
			FreqDeviationHz:      9600,
			PulseShape:           sx1262.ShapeBT05,
			BandwidthHz:          autoGfskBandwidthHz(2 * 19200),
			PreambleBits:         64,
			PreambleDetectorBits: 24,
			SyncWord:             HexBytes{0xD3, 0x91},
			PayloadLength:        255,
			CrcType:              sx1262.GfskCrc2Byte,
			Whitening:            true,
		},
		TxPowerDBm:    bandTxPower(band),
		RampTime:      sx1262.Ramp200us,
		Regulator:     sx1262.RegulatorDcDc,
		Dio2RfSwitch:  true,
		RxBoostedGain: true,
		Calibrate:     true,
		IrqMask:       linkIrqs,
		Dio1Mask:      linkIrqs,
	}
}

// NewBalanced creates a balanced profile with good range and throughput
// Good middle-ground for general use
// band: "433", "868", or "915"
func NewBalanced(band string) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("%s-balanced", band),
		Description: fmt.Sprintf("%s MHz balanced LoRa SF9 at 125 kHz", band),
		FrequencyHz: bandFrequency(band),
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF9,
			BandwidthHz:     125000,
			CodingRate:      5,
			PreambleLength:  8,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:   bandTxPower(band),
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// NewSpectrumMonitor creates a wide-bandwidth RX profile for RSSI
// sweeps. The preamble detector stays off so the receiver settles on
// raw channel noise instead of waiting for packets.
// centerFreq: center frequency in Hz (e.g., 433920000)
func NewSpectrumMonitor(centerFreq uint32) *Profile {
	band := "custom"
	if centerFreq >= 400e6 && centerFreq < 470e6 {
		band = "433"
	} else if centerFreq >= 800e6 && centerFreq < 870e6 {
		band = "868"
	} else if centerFreq >= 900e6 && centerFreq < 930e6 {
		band = "915"
	}

	return &Profile{
		Name:        fmt.Sprintf("%s-spectrum-mon", band),
		Description: fmt.Sprintf("%.0f MHz spectrum monitor (wide BW)", float64(centerFreq)/1e6),
		FrequencyHz: centerFreq,
		Gfsk: &GfskSettings{
			BitRate:              100000,
			FreqDeviationHz:      50000,
			PulseShape:           sx1262.ShapeOff,
			BandwidthHz:          467000,
			PreambleBits:         16,
			PreambleDetectorBits: 0,
			PayloadLength:        255,
			FixedLength:          true,
			CrcType:              sx1262.GfskCrcOff,
		},
		TxPowerDBm:    bandTxPower(band),
		RampTime:      sx1262.Ramp200us,
		Regulator:     sx1262.RegulatorDcDc,
		Dio2RfSwitch:  true,
		RxBoostedGain: true,
		Calibrate:     true,
		IrqMask:       sx1262.IrqNone,
		Dio1Mask:      sx1262.IrqNone,
		Entry:         EntryRx,
	}
}

// GenerateSpecialProfiles generates all special profile configurations
func GenerateSpecialProfiles(basePath string) error {
	profiles := []*Profile{
		// LongRange profiles for each band
		NewLongRange("433"),
		NewLongRange("868"),
		NewLongRange("915"),

		// HighSpeed profiles for each band
		NewHighSpeed("433"),
		NewHighSpeed("868"),
		NewHighSpeed("915"),

		// Robust profiles for each band
		NewRobust("433"),
		NewRobust("868"),
		NewRobust("915"),

		// Balanced profiles for each band
		NewBalanced("433"),
		NewBalanced("868"),
		NewBalanced("915"),

		// Spectrum monitor profiles
		NewSpectrumMonitor(433920000),
		NewSpectrumMonitor(868300000),
		NewSpectrumMonitor(915000000),
	}

	if err := EnsureDir(basePath + "/dummy"); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, p := range profiles {
		filename := fmt.Sprintf("%s/%s.json", basePath, p.Name)
		if err := p.SaveToFile(filename); err != nil {
			return fmt.Errorf("failed to save profile %s: %w", p.Name, err)
		}
	}

	return nil
}
