package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// 868 MHz Band Profile Factories
// These create profiles for the 863-870 MHz EU SRD band. Power stays
// at the band's 14 dBm ERP ceiling.

// New868LoRaStandard creates an 868 MHz LoRa profile for general links
// sf: SF7 through SF10
func New868LoRaStandard(sf sx1262.SpreadingFactor) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("868-lora-std-sf%d", sf),
		Description: fmt.Sprintf("868 MHz LoRa SF%d at 125 kHz for general links", sf),
		FrequencyHz: 868100000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sf,
			BandwidthHz:     125000,
			CodingRate:      5,
			PreambleLength:  8,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:   14,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New868LoRaPublic creates an 868 MHz LoRa profile on the public
// network sync word, matching the common EU868 channel 1 uplink
func New868LoRaPublic() *Profile {
	return &Profile{
		Name:        "868-lora-public-sf7",
		Description: "868.1 MHz LoRa SF7 with the public network sync word",
		FrequencyHz: 868100000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF7,
			BandwidthHz:     125000,
			CodingRate:      5,
			PreambleLength:  8,
			PayloadLength:   255,
			CrcOn:           true,
			PublicNetwork:   true,
		},
		TxPowerDBm:   14,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New868LoRaLongRange creates an 868 MHz LoRa profile for maximum range
// Low data rate optimization engages automatically at SF12.
func New868LoRaLongRange() *Profile {
	return &Profile{
		Name:        "868-lora-longrange-sf12",
		Description: "868 MHz LoRa SF12 at 125 kHz for max range",
		FrequencyHz: 868100000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF12,
			BandwidthHz:     125000,
			CodingRate:      8,
			PreambleLength:  12,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:    14,
		RampTime:      sx1262.Ramp200us,
		Regulator:     sx1262.RegulatorDcDc,
		Dio2RfSwitch:  true,
		RxBoostedGain: true,
		Calibrate:     true,
		IrqMask:       linkIrqs,
		Dio1Mask:      linkIrqs,
	}
}

// New868Gfsk creates an 868 MHz GFSK profile for digital links
// bitRate: 38400 or 100000 b/s for the stock presets; any supported
// rate works, with deviation and bandwidth derived from it
func New868Gfsk(bitRate uint32) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("868-gfsk-%s", formatBitRate(bitRate)),
		Description: fmt.Sprintf("868 MHz GFSK at %s baud for digital links", formatBitRate(bitRate)),
		FrequencyHz: 868300000,
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
		TxPowerDBm:   14,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// Generate868Profiles generates all 868 MHz band profile configurations
func Generate868Profiles(basePath string) error {
	profiles := []*Profile{
		// 868-LoRa-Standard variants
		New868LoRaStandard(sx1262.SF7),
		New868LoRaStandard(sx1262.SF8),
		New868LoRaStandard(sx1262.SF9),
		New868LoRaStandard(sx1262.SF10),

		// 868-LoRa extremes
		New868LoRaPublic(),
		New868LoRaLongRange(),

		// 868-GFSK variants
		New868Gfsk(38400),
		New868Gfsk(100000),
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
