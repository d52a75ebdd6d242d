package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// 433 MHz Band Profile Factories
// These create profiles for the 433 MHz ISM band, commonly used for
// remotes and wireless sensors. Power stays at the band's 10 dBm ERP
// ceiling, and image calibration runs with the 430-440 MHz codes.

// New433LoRaSensor creates a 433 MHz LoRa profile for battery sensors
// sf: SF7 through SF10
func New433LoRaSensor(sf sx1262.SpreadingFactor) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("433-lora-sensor-sf%d", sf),
		Description: fmt.Sprintf("433 MHz LoRa SF%d at 125 kHz for battery sensors", sf),
		FrequencyHz: 433920000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sf,
			BandwidthHz:     125000,
			CodingRate:      5,
			PreambleLength:  8,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:   10,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New433LoRaNarrow creates a 433 MHz LoRa profile on a narrow channel
// for crowded-band coexistence
func New433LoRaNarrow() *Profile {
	return &Profile{
		Name:        "433-lora-narrow-sf9-bw62",
		Description: "433 MHz LoRa SF9 at 62.5 kHz for crowded-band coexistence",
		FrequencyHz: 433920000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF9,
			BandwidthHz:     62500,
			CodingRate:      6,
			PreambleLength:  10,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:   10,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New433Gfsk creates a 433 MHz GFSK profile for smart home devices
// bitRate: 9600, 19200, or 38400 b/s for the stock presets; any
// supported rate works, with deviation and bandwidth derived from it
func New433Gfsk(bitRate uint32) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("433-gfsk-%s", formatBitRate(bitRate)),
		Description: fmt.Sprintf("433 MHz GFSK at %s baud for smart home devices", formatBitRate(bitRate)),
		FrequencyHz: 433920000,
		Gfsk: &GfskSettings{
			BitRate:              bitRate,
			FreqDeviationHz:      bitRate / 2,
			PulseShape:           sx1262.ShapeBT05,
			BandwidthHz:          autoGfskBandwidthHz(2 * bitRate),
			PreambleBits:         40,
			PreambleDetectorBits: 16,
			SyncWord:             HexBytes{0xD3, 0x91},
			PayloadLength:        255,
			CrcType:              sx1262.GfskCrc2Byte,
			Whitening:            true,
		},
		TxPowerDBm:   10,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// Generate433Profiles generates all 433 MHz band profile configurations
func Generate433Profiles(basePath string) error {
	profiles := []*Profile{
		// 433-LoRa-Sensor variants
		New433LoRaSensor(sx1262.SF7),
		New433LoRaSensor(sx1262.SF8),
		New433LoRaSensor(sx1262.SF9),
		New433LoRaSensor(sx1262.SF10),

		// 433-LoRa narrow channel
		New433LoRaNarrow(),

		// 433-GFSK variants
		New433Gfsk(9600),
		New433Gfsk(19200),
		New433Gfsk(38400),
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
