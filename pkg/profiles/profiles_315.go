package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// 315 MHz Band Profile Factories
// These create profiles for the 315 MHz band used by periodic
// transmitters in the US. The band sits below the chip's documented
// image calibration range, so Apply leaves image calibration alone.

// New315GfskRemote creates a 315 MHz narrowband GFSK profile for
// remote links
// bitRate: 2400, 4800, or 9600 b/s for the stock presets
func New315GfskRemote(bitRate uint32) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("315-gfsk-remote-%s", formatBitRate(bitRate)),
		Description: fmt.Sprintf("315 MHz narrowband GFSK at %s baud for remote links", formatBitRate(bitRate)),
		FrequencyHz: 315000000,
		Gfsk: &GfskSettings{
			BitRate:              bitRate,
			FreqDeviationHz:      bitRate / 2,
			PulseShape:           sx1262.ShapeBT05,
			BandwidthHz:          autoGfskBandwidthHz(2 * bitRate),
			PreambleBits:         40,
			PreambleDetectorBits: 16,
			SyncWord:             HexBytes{0xD3, 0x91},
			PayloadLength:        64,
			FixedLength:          true,
			CrcType:              sx1262.GfskCrc2Byte,
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

// New315LoRaTelemetry creates a 315 MHz LoRa profile for low-rate
// telemetry, trading the band's modest bandwidth allowance for
// sensitivity
// sf: SF8 through SF10
func New315LoRaTelemetry(sf sx1262.SpreadingFactor) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("315-lora-telemetry-sf%d", sf),
		Description: fmt.Sprintf("315 MHz LoRa SF%d at 62.5 kHz for telemetry", sf),
		FrequencyHz: 315000000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sf,
			BandwidthHz:     62500,
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

// Generate315Profiles generates all 315 MHz band profile configurations
func Generate315Profiles(basePath string) error {
	profiles := []*Profile{
		// 315-GFSK-Remote variants
		New315GfskRemote(2400),
		New315GfskRemote(4800),
		New315GfskRemote(9600),

		// 315-LoRa-Telemetry variants
		New315LoRaTelemetry(sx1262.SF8),
		New315LoRaTelemetry(sx1262.SF9),
		New315LoRaTelemetry(sx1262.SF10),
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
