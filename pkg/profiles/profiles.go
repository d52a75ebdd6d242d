// Package profiles provides declarative radio configuration profiles
// for the SX1261/2. A profile captures one complete modem setup;
// applying it always issues the chip's documented bring-up order, so
// two profiles with the same fields configure the hardware
// identically regardless of how they were built or stored.
package profiles

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// HexBytes marshals as a hex string so profile files stay
// hand-editable.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("failed to parse hex bytes: %w", err)
	}
	*h = b
	return nil
}

// EntryMode is the state Apply leaves the chip in.
type EntryMode string

const (
	EntryStandby EntryMode = "standby" // default
	EntryRx      EntryMode = "rx"      // continuous receive
	EntryTx      EntryMode = "tx"      // transmit the staged buffer
)

// LoRaSettings is the LoRa half of a profile.
type LoRaSettings struct {
	SpreadingFactor sx1262.SpreadingFactor `json:"spreading_factor"`
	BandwidthHz     uint32                 `json:"bandwidth_hz"`
	CodingRate      uint8                  `json:"coding_rate"` // denominator of 4/x, 5-8

	// LowDataRateOptimize forces the optimization on; it is enabled
	// automatically whenever the symbol time requires it.
	LowDataRateOptimize bool `json:"low_data_rate_optimize,omitempty"`

	PreambleLength uint16 `json:"preamble_length"`
	ImplicitHeader bool   `json:"implicit_header,omitempty"`
	PayloadLength  uint8  `json:"payload_length"`
	CrcOn          bool   `json:"crc_on"`
	InvertIq       bool   `json:"invert_iq,omitempty"`
	PublicNetwork  bool   `json:"public_network,omitempty"`
	SymbolTimeout  uint8  `json:"symbol_timeout,omitempty"`
}

// GfskSettings is the GFSK half of a profile.
type GfskSettings struct {
	BitRate         uint32                `json:"bit_rate"`
	FreqDeviationHz uint32                `json:"freq_deviation_hz"`
	PulseShape      sx1262.GfskPulseShape `json:"pulse_shape"`
	BandwidthHz     uint32                `json:"bandwidth_hz"`

	PreambleBits         uint16   `json:"preamble_bits"`
	PreambleDetectorBits uint8    `json:"preamble_detector_bits"` // 0, 8, 16, 24 or 32
	SyncWord             HexBytes `json:"sync_word,omitempty"`

	AddressFilter    sx1262.GfskAddressFilter `json:"address_filter,omitempty"`
	NodeAddress      uint8                    `json:"node_address,omitempty"`
	BroadcastAddress uint8                    `json:"broadcast_address,omitempty"`

	FixedLength   bool  `json:"fixed_length,omitempty"`
	PayloadLength uint8 `json:"payload_length"`

	CrcType sx1262.GfskCrcType `json:"crc_type"`
	// CrcSeed and CrcPoly default to CRC-16-CCITT when both are zero.
	CrcSeed uint16 `json:"crc_seed,omitempty"`
	CrcPoly uint16 `json:"crc_poly,omitempty"`

	Whitening bool `json:"whitening,omitempty"`
	// WhiteningSeed defaults to the chip's 0x0100 when zero.
	WhiteningSeed uint16 `json:"whitening_seed,omitempty"`
}

// TcxoSettings configures DIO3 as the supply for an external TCXO.
type TcxoSettings struct {
	Voltage sx1262.TcxoVoltage `json:"voltage"`
	DelayMs uint32             `json:"delay_ms"` // stabilization time before each start
}

// Profile is a complete radio configuration. Exactly one of LoRa or
// Gfsk must be set.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FrequencyHz uint32 `json:"frequency_hz"`

	// Modulation
	LoRa *LoRaSettings `json:"lora,omitempty"`
	Gfsk *GfskSettings `json:"gfsk,omitempty"`

	// Power settings
	Part       sx1262.Part     `json:"part"` // zero value is the SX1262
	TxPowerDBm int8            `json:"tx_power_dbm"`
	RampTime   sx1262.RampTime `json:"ramp_time"`

	// Bring-up options
	Regulator     sx1262.RegulatorMode `json:"regulator"`
	Tcxo          *TcxoSettings        `json:"tcxo,omitempty"`
	Dio2RfSwitch  bool                 `json:"dio2_rf_switch,omitempty"`
	RxBoostedGain bool                 `json:"rx_boosted_gain,omitempty"`
	Calibrate     bool                 `json:"calibrate,omitempty"`
	FallbackMode  sx1262.FallbackMode  `json:"fallback_mode,omitempty"` // zero = FallbackStandbyRC

	// IRQ routing
	IrqMask  sx1262.Irq `json:"irq_mask"`
	Dio1Mask sx1262.Irq `json:"dio1_mask"`
	Dio2Mask sx1262.Irq `json:"dio2_mask,omitempty"`
	Dio3Mask sx1262.Irq `json:"dio3_mask,omitempty"`

	// Entry is the state to leave the chip in, EntryStandby when empty.
	Entry EntryMode `json:"entry,omitempty"`
}

// Validate checks the profile's structure. Parameter domains are
// enforced by the individual commands during Apply.
func (p *Profile) Validate() error {
	if (p.LoRa == nil) == (p.Gfsk == nil) {
		return &sx1262.RangeError{Param: "profile",
			Msg: "exactly one of lora or gfsk must be set"}
	}
	switch p.Entry {
	case "", EntryStandby, EntryRx, EntryTx:
	default:
		return &sx1262.RangeError{Param: "entry",
			Msg: fmt.Sprintf("%q is not a known entry mode", p.Entry)}
	}
	return nil
}

// ProfileConfig is the JSON format for storing profiles on disk.
type ProfileConfig struct {
	Profile   Profile   `json:"profile"`
	Timestamp time.Time `json:"timestamp"`
}

// SaveToFile saves a profile to a JSON file.
func (p *Profile) SaveToFile(path string) error {
	config := ProfileConfig{
		Profile:   *p,
		Timestamp: time.Now(),
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// LoadProfileFromFile loads a profile from a JSON file.
func LoadProfileFromFile(path string) (*ProfileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var config ProfileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &config, nil
}

// EnsureDir ensures the directory for a file path exists.
func EnsureDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return os.MkdirAll(dir, 0755)
}

// loRaBandwidthFromHz maps a nominal bandwidth to its code.
func loRaBandwidthFromHz(hz uint32) (sx1262.LoRaBandwidth, error) {
	for _, bw := range []sx1262.LoRaBandwidth{
		sx1262.LoRaBw7, sx1262.LoRaBw10, sx1262.LoRaBw15, sx1262.LoRaBw20,
		sx1262.LoRaBw31, sx1262.LoRaBw41, sx1262.LoRaBw62, sx1262.LoRaBw125,
		sx1262.LoRaBw250, sx1262.LoRaBw500,
	} {
		if bw.Hz() == hz {
			return bw, nil
		}
	}
	return 0, &sx1262.RangeError{Param: "lora bandwidth",
		Msg: fmt.Sprintf("%d Hz is not a supported bandwidth", hz)}
}

// gfskBandwidths lists the channel filter codes in ascending nominal
// bandwidth.
var gfskBandwidths = []struct {
	hz   uint32
	code sx1262.GfskBandwidth
}{
	{4800, sx1262.GfskBw4}, {5800, sx1262.GfskBw5}, {7300, sx1262.GfskBw7},
	{9700, sx1262.GfskBw9}, {11700, sx1262.GfskBw11}, {14600, sx1262.GfskBw14},
	{19500, sx1262.GfskBw19}, {23400, sx1262.GfskBw23}, {29300, sx1262.GfskBw29},
	{39000, sx1262.GfskBw39}, {46900, sx1262.GfskBw46}, {58600, sx1262.GfskBw58},
	{78200, sx1262.GfskBw78}, {93800, sx1262.GfskBw93}, {117300, sx1262.GfskBw117},
	{156200, sx1262.GfskBw156}, {187200, sx1262.GfskBw187}, {234300, sx1262.GfskBw234},
	{312000, sx1262.GfskBw312}, {373600, sx1262.GfskBw373}, {467000, sx1262.GfskBw467},
}

// gfskBandwidthFromHz maps a nominal channel bandwidth to its code.
func gfskBandwidthFromHz(hz uint32) (sx1262.GfskBandwidth, error) {
	for _, e := range gfskBandwidths {
		if e.hz == hz {
			return e.code, nil
		}
	}
	return 0, &sx1262.RangeError{Param: "gfsk bandwidth",
		Msg: fmt.Sprintf("%d Hz is not a supported bandwidth", hz)}
}

// autoGfskBandwidthHz returns the smallest nominal channel bandwidth
// covering the given occupied bandwidth, or the widest filter when
// nothing covers it.
func autoGfskBandwidthHz(occupiedHz uint32) uint32 {
	for _, e := range gfskBandwidths {
		if e.hz >= occupiedHz {
			return e.hz
		}
	}
	return gfskBandwidths[len(gfskBandwidths)-1].hz
}

// preambleDetectorFromBits maps a detector length to its code.
func preambleDetectorFromBits(bits uint8) (sx1262.GfskPreambleDetector, error) {
	switch bits {
	case 0:
		return sx1262.PreambleDetectorOff, nil
	case 8:
		return sx1262.PreambleDetector8Bits, nil
	case 16:
		return sx1262.PreambleDetector16Bits, nil
	case 24:
		return sx1262.PreambleDetector24Bits, nil
	case 32:
		return sx1262.PreambleDetector32Bits, nil
	default:
		return 0, &sx1262.RangeError{Param: "preamble detector",
			Msg: fmt.Sprintf("%d bits is not a supported detector length", bits)}
	}
}

// codingRateFromDenom maps the denominator of 4/x to its code.
func codingRateFromDenom(d uint8) (sx1262.CodingRate, error) {
	if d < 5 || d > 8 {
		return 0, &sx1262.RangeError{Param: "coding rate",
			Msg: fmt.Sprintf("4/%d is not a supported coding rate", d)}
	}
	return sx1262.CodingRate(d - 4), nil
}

// ldroRequired reports whether the symbol time mandates low data rate
// optimization (16.38 ms or longer).
func ldroRequired(sf sx1262.SpreadingFactor, bw sx1262.LoRaBandwidth) bool {
	hz := bw.Hz()
	if hz == 0 {
		return false
	}
	symbolNs := (uint64(1) << sf) * 1_000_000_000 / uint64(hz)
	return symbolNs >= 16_380_000
}

// formatBitRate formats a bit rate for use in profile names.
func formatBitRate(br uint32) string {
	if br%1000 == 0 {
		return fmt.Sprintf("%dk", br/1000)
	}
	return fmt.Sprintf("%.1fk", float64(br)/1000)
}
