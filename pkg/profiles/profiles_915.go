package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// 915 MHz Band Profile Factories
// These create profiles for the 902-928 MHz US ISM band.

// linkIrqs covers the events a plain point-to-point link cares about.
const linkIrqs = sx1262.IrqTxDone | sx1262.IrqRxDone | sx1262.IrqTimeout | sx1262.IrqCrcError

// New915LoRaStandard creates a 915 MHz LoRa profile for general links
// sf: SF7 through SF10
func New915LoRaStandard(sf sx1262.SpreadingFactor) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("915-lora-std-sf%d", sf),
		Description: fmt.Sprintf("915 MHz LoRa SF%d at 125 kHz for general links", sf),
		FrequencyHz: 915000000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sf,
			BandwidthHz:     125000,
			CodingRate:      5,
			PreambleLength:  8,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:   22,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New915LoRaFast creates a 915 MHz LoRa profile for maximum throughput
func New915LoRaFast() *Profile {
	return &Profile{
		Name:        "915-lora-fast-sf7-bw500",
		Description: "915 MHz LoRa SF7 at 500 kHz for max throughput",
		FrequencyHz: 915000000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF7,
			BandwidthHz:     500000,
			CodingRate:      5,
			PreambleLength:  8,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:   22,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New915LoRaLongRange creates a 915 MHz LoRa profile for maximum range
// Low data rate optimization engages automatically at SF12.
func New915LoRaLongRange() *Profile {
	return &Profile{
		Name:        "915-lora-longrange-sf12",
		Description: "915 MHz LoRa SF12 at 125 kHz for max range",
		FrequencyHz: 915000000,
		LoRa: &LoRaSettings{
			SpreadingFactor: sx1262.SF12,
			BandwidthHz:     125000,
			CodingRate:      8,
			PreambleLength:  12,
			PayloadLength:   255,
			CrcOn:           true,
		},
		TxPowerDBm:    22,
		RampTime:      sx1262.Ramp200us,
		Regulator:     sx1262.RegulatorDcDc,
		Dio2RfSwitch:  true,
		RxBoostedGain: true,
		Calibrate:     true,
		IrqMask:       linkIrqs,
		Dio1Mask:      linkIrqs,
	}
}

// New915Gfsk creates a 915 MHz GFSK profile for digital links
// bitRate: 50000, 100000, or 150000 b/s for the stock presets; any
// supported rate works, with deviation and bandwidth derived from it
func New915Gfsk(bitRate uint32) *Profile {
	return &Profile{
		Name:        fmt.Sprintf("915-gfsk-%s", formatBitRate(bitRate)),
		Description: fmt.Sprintf("915 MHz GFSK at %s baud for digital links", formatBitRate(bitRate)),
		FrequencyHz: 915000000,
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
		TxPowerDBm:   22,
		RampTime:     sx1262.Ramp200us,
		Regulator:    sx1262.RegulatorDcDc,
		Dio2RfSwitch: true,
		Calibrate:    true,
		IrqMask:      linkIrqs,
		Dio1Mask:     linkIrqs,
	}
}

// New915GfskAddressed creates a 915 MHz GFSK profile with hardware
// address filtering for small node networks
// node: this node's address
// broadcast: the address all nodes accept
func New915GfskAddressed(node, broadcast uint8) *Profile {
	p := New915Gfsk(50000)
	p.Name = fmt.Sprintf("915-gfsk-50k-node%02X", node)
	p.Description = fmt.Sprintf("915 MHz GFSK at 50k baud, address filter node 0x%02X", node)
	p.Gfsk.AddressFilter = sx1262.AddressFilterNodeBroadcast
	p.Gfsk.NodeAddress = node
	p.Gfsk.BroadcastAddress = broadcast
	// The hardware prepends the address byte, so the payload ceiling
	// drops by one.
	p.Gfsk.PayloadLength = 254
	return p
}

// Generate915Profiles generates all 915 MHz band profile configurations
func Generate915Profiles(basePath string) error {
	profiles := []*Profile{
		// 915-LoRa-Standard variants
		New915LoRaStandard(sx1262.SF7),
		New915LoRaStandard(sx1262.SF8),
		New915LoRaStandard(sx1262.SF9),
		New915LoRaStandard(sx1262.SF10),

		// 915-LoRa extremes
		New915LoRaFast(),
		New915LoRaLongRange(),

		// 915-GFSK variants
		New915Gfsk(50000),
		New915Gfsk(100000),
		New915Gfsk(150000),
		New915GfskAddressed(0x01, 0xFF),
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
