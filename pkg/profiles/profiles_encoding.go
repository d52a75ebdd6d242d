package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Encoding Variation Profile Factories
// These exercise the packet engine's encoding options one at a time:
// whitening, CRC flavors, preamble detection, sync word lengths. All
// variants start from the 433 MHz 38.4k GFSK base so a pair of nodes
// can flip one option per experiment.

// NewWhiteningVariant creates profiles with data whitening on or off
func NewWhiteningVariant(whitening bool) *Profile {
	p := New433Gfsk(38400)
	p.Name = "enc-white-off"
	p.Description = "Data whitening test: whitening off"
	if whitening {
		p.Name = "enc-white-on"
		p.Description = "Data whitening test: whitening on"
	}
	p.Gfsk.Whitening = whitening
	return p
}

// NewCrcVariant creates profiles with different CRC configurations
// crc: one of the GfskCrc* constants
// crcName: human-readable CRC name
func NewCrcVariant(crc sx1262.GfskCrcType, crcName string) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("enc-crc-%s", crcName)
	p.Description = fmt.Sprintf("CRC test: %s", crcName)
	p.Gfsk.CrcType = crc
	return p
}

// NewPreambleDetectorVariant creates profiles with different detector
// lengths
// bits: 0 (off), 8, 16, 24, or 32
func NewPreambleDetectorVariant(bits uint8) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("enc-detect-%d", bits)
	p.Description = fmt.Sprintf("Preamble detector test: %d bits", bits)
	p.Gfsk.PreambleDetectorBits = bits
	return p
}

// NewPreambleLengthVariant creates profiles with different preamble
// lengths
// bits: transmitted preamble length in bits
func NewPreambleLengthVariant(bits uint16) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("enc-preamble-%d", bits)
	p.Description = fmt.Sprintf("Preamble length test: %d bits", bits)
	p.Gfsk.PreambleBits = bits
	return p
}

// NewSyncLengthVariant creates profiles with different sync word
// lengths
// sync: the sync pattern, up to 8 bytes
// syncName: human-readable sync name
func NewSyncLengthVariant(sync HexBytes, syncName string) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("enc-sync-%s", syncName)
	p.Description = fmt.Sprintf("Sync word test: %d bytes (%s)", len(sync), syncName)
	p.Gfsk.SyncWord = sync
	return p
}

// GenerateEncodingProfiles generates all encoding variation profiles
func GenerateEncodingProfiles(basePath string) error {
	profiles := []*Profile{
		// Data whitening variants
		NewWhiteningVariant(false),
		NewWhiteningVariant(true),

		// CRC variants
		NewCrcVariant(sx1262.GfskCrcOff, "off"),
		NewCrcVariant(sx1262.GfskCrc1Byte, "1byte"),
		NewCrcVariant(sx1262.GfskCrc2Byte, "2byte"),
		NewCrcVariant(sx1262.GfskCrc2ByteInv, "2byte-inv"),

		// Preamble detector variants
		NewPreambleDetectorVariant(8),
		NewPreambleDetectorVariant(16),
		NewPreambleDetectorVariant(24),
		NewPreambleDetectorVariant(32),

		// Preamble length variants
		NewPreambleLengthVariant(16),
		NewPreambleLengthVariant(40),
		NewPreambleLengthVariant(64),

		// Sync word length variants
		NewSyncLengthVariant(HexBytes{0xD3, 0x91}, "short"),
		NewSyncLengthVariant(HexBytes{0xD3, 0x91, 0xD3, 0x91}, "medium"),
		NewSyncLengthVariant(HexBytes{0xD3, 0x91, 0xD3, 0x91, 0xD3, 0x91, 0xD3, 0x91}, "long"),
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
