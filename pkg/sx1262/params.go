package sx1262

// PacketType selects the modem: GFSK or LoRa. Changing it resets every
// modulation and packet parameter, which must then be reloaded.
type PacketType byte

const (
	PacketTypeGfsk PacketType = 0x00
	PacketTypeLoRa PacketType = 0x01
)

// packetTypeNone marks the packet type as not yet confirmed, mirroring
// ModeUnknown for the mode machine.
const packetTypeNone PacketType = 0xFF

func (p PacketType) String() string {
	switch p {
	case PacketTypeGfsk:
		return "GFSK"
	case PacketTypeLoRa:
		return "LoRa"
	default:
		return "unknown"
	}
}

// Part identifies the chip variant, encoded exactly as the deviceSel
// field of SetPaConfig expects it.
type Part byte

const (
	PartSX1262 Part = 0x00 // up to +22 dBm
	PartSX1261 Part = 0x01 // up to +15 dBm
)

func (p Part) String() string {
	if p == PartSX1261 {
		return "SX1261"
	}
	return "SX1262"
}

// TX output power limits in dBm by part
const (
	MinPowerSX1262 = -9
	MaxPowerSX1262 = 22
	MinPowerSX1261 = -17
	MaxPowerSX1261 = 14
)

// SleepConfig selects the sleep entry behavior. Flags can be combined.
type SleepConfig byte

const (
	SleepColdStart SleepConfig = 0x00   // configuration lost, ~160 nA
	SleepRtcWakeup SleepConfig = 1 << 0 // wake on RTC timeout as well as NSS
	SleepWarmStart SleepConfig = 1 << 2 // configuration retained, ~600 nA
)

// RegulatorMode selects the supply regulator configuration.
type RegulatorMode byte

const (
	RegulatorLdo  RegulatorMode = 0x00 // LDO only, no external inductor
	RegulatorDcDc RegulatorMode = 0x01 // DC-DC plus LDO, roughly half the current
)

// CalibParam selects which blocks the Calibrate command runs. Flags can
// be combined; CalibAll matches the power-on calibration.
type CalibParam byte

const (
	CalibRC64K    CalibParam = 1 << 0
	CalibRC13M    CalibParam = 1 << 1
	CalibPll      CalibParam = 1 << 2
	CalibAdcPulse CalibParam = 1 << 3
	CalibAdcBulkN CalibParam = 1 << 4
	CalibAdcBulkP CalibParam = 1 << 5
	CalibImage    CalibParam = 1 << 6

	CalibAll CalibParam = 0x7F
)

// FallbackMode is the mode the chip enters after a packet operation
// finishes or times out.
type FallbackMode byte

const (
	FallbackStandbyRC   FallbackMode = 0x20 // power-on default
	FallbackStandbyXosc FallbackMode = 0x30
	FallbackFS          FallbackMode = 0x40 // fastest turnaround to the next TX or RX
)

// RampTime is the PA ramp-up time. Longer ramps reduce spectral
// spreading at the cost of time on air.
type RampTime byte

const (
	Ramp10us   RampTime = 0x00
	Ramp20us   RampTime = 0x01
	Ramp40us   RampTime = 0x02
	Ramp80us   RampTime = 0x03
	Ramp200us  RampTime = 0x04
	Ramp800us  RampTime = 0x05
	Ramp1700us RampTime = 0x06
	Ramp3400us RampTime = 0x07
)

// TcxoVoltage is the supply voltage DIO3 regulates for an external
// TCXO. VBAT must stay at least 200 mV above the selected voltage.
type TcxoVoltage byte

const (
	Tcxo1V6 TcxoVoltage = 0x00
	Tcxo1V7 TcxoVoltage = 0x01
	Tcxo1V8 TcxoVoltage = 0x02
	Tcxo2V2 TcxoVoltage = 0x03
	Tcxo2V4 TcxoVoltage = 0x04
	Tcxo2V7 TcxoVoltage = 0x05
	Tcxo3V0 TcxoVoltage = 0x06
	Tcxo3V3 TcxoVoltage = 0x07
)

// PaConfig sizes the power amplifier. The datasheet publishes optimal
// combinations per part and target power; use the Pa* presets unless
// you have measured better values for your matching network.
type PaConfig struct {
	DutyCycle byte // PA conduction angle
	HpMax     byte // high-power PA sizing, SX1262 only, 0x00-0x07
	Part      Part
}

// Optimal PA settings from the datasheet power tables.
var (
	PaSX1262Power22 = PaConfig{DutyCycle: 0x04, HpMax: 0x07, Part: PartSX1262}
	PaSX1262Power20 = PaConfig{DutyCycle: 0x03, HpMax: 0x05, Part: PartSX1262}
	PaSX1262Power17 = PaConfig{DutyCycle: 0x02, HpMax: 0x03, Part: PartSX1262}
	PaSX1262Power14 = PaConfig{DutyCycle: 0x02, HpMax: 0x02, Part: PartSX1262}

	PaSX1261Power15 = PaConfig{DutyCycle: 0x06, HpMax: 0x00, Part: PartSX1261}
	PaSX1261Power14 = PaConfig{DutyCycle: 0x04, HpMax: 0x00, Part: PartSX1261}
	PaSX1261Power10 = PaConfig{DutyCycle: 0x01, HpMax: 0x00, Part: PartSX1261}
)

// SpreadingFactor is the LoRa chips-per-symbol exponent. Higher factors
// trade data rate for sensitivity.
type SpreadingFactor byte

const (
	SF5  SpreadingFactor = 5
	SF6  SpreadingFactor = 6
	SF7  SpreadingFactor = 7
	SF8  SpreadingFactor = 8
	SF9  SpreadingFactor = 9
	SF10 SpreadingFactor = 10
	SF11 SpreadingFactor = 11
	SF12 SpreadingFactor = 12
)

// LoRaBandwidth is the LoRa signal bandwidth code.
type LoRaBandwidth byte

const (
	LoRaBw7   LoRaBandwidth = 0x00 // 7.81 kHz
	LoRaBw10  LoRaBandwidth = 0x08 // 10.42 kHz
	LoRaBw15  LoRaBandwidth = 0x01 // 15.63 kHz
	LoRaBw20  LoRaBandwidth = 0x09 // 20.83 kHz
	LoRaBw31  LoRaBandwidth = 0x02 // 31.25 kHz
	LoRaBw41  LoRaBandwidth = 0x0A // 41.67 kHz
	LoRaBw62  LoRaBandwidth = 0x03 // 62.50 kHz
	LoRaBw125 LoRaBandwidth = 0x04 // 125 kHz
	LoRaBw250 LoRaBandwidth = 0x05 // 250 kHz
	LoRaBw500 LoRaBandwidth = 0x06 // 500 kHz
)

// Hz returns the nominal bandwidth in Hz, or 0 for an invalid code.
func (b LoRaBandwidth) Hz() uint32 {
	switch b {
	case LoRaBw7:
		return 7810
	case LoRaBw10:
		return 10420
	case LoRaBw15:
		return 15630
	case LoRaBw20:
		return 20830
	case LoRaBw31:
		return 31250
	case LoRaBw41:
		return 41670
	case LoRaBw62:
		return 62500
	case LoRaBw125:
		return 125000
	case LoRaBw250:
		return 250000
	case LoRaBw500:
		return 500000
	default:
		return 0
	}
}

// CodingRate is the LoRa forward error correction rate.
type CodingRate byte

const (
	CR45 CodingRate = 0x01 // 4/5
	CR46 CodingRate = 0x02 // 4/6
	CR47 CodingRate = 0x03 // 4/7
	CR48 CodingRate = 0x04 // 4/8
)

// GfskPulseShape is the Gaussian filter applied to GFSK transmissions.
type GfskPulseShape byte

const (
	ShapeOff  GfskPulseShape = 0x00
	ShapeBT03 GfskPulseShape = 0x08 // BT = 0.3
	ShapeBT05 GfskPulseShape = 0x09 // BT = 0.5
	ShapeBT07 GfskPulseShape = 0x0A // BT = 0.7
	ShapeBT10 GfskPulseShape = 0x0B // BT = 1.0
)

// GfskBandwidth is the GFSK receiver channel filter code. Pick the
// smallest bandwidth larger than 2*(fdev + bitrate/2) plus the expected
// frequency error.
type GfskBandwidth byte

const (
	GfskBw4   GfskBandwidth = 0x1F // 4.8 kHz
	GfskBw5   GfskBandwidth = 0x17 // 5.8 kHz
	GfskBw7   GfskBandwidth = 0x0F // 7.3 kHz
	GfskBw9   GfskBandwidth = 0x1E // 9.7 kHz
	GfskBw11  GfskBandwidth = 0x16 // 11.7 kHz
	GfskBw14  GfskBandwidth = 0x0E // 14.6 kHz
	GfskBw19  GfskBandwidth = 0x1D // 19.5 kHz
	GfskBw23  GfskBandwidth = 0x15 // 23.4 kHz
	GfskBw29  GfskBandwidth = 0x0D // 29.3 kHz
	GfskBw39  GfskBandwidth = 0x1C // 39.0 kHz
	GfskBw46  GfskBandwidth = 0x14 // 46.9 kHz
	GfskBw58  GfskBandwidth = 0x0C // 58.6 kHz
	GfskBw78  GfskBandwidth = 0x1B // 78.2 kHz
	GfskBw93  GfskBandwidth = 0x13 // 93.8 kHz
	GfskBw117 GfskBandwidth = 0x0B // 117.3 kHz
	GfskBw156 GfskBandwidth = 0x1A // 156.2 kHz
	GfskBw187 GfskBandwidth = 0x12 // 187.2 kHz
	GfskBw234 GfskBandwidth = 0x0A // 234.3 kHz
	GfskBw312 GfskBandwidth = 0x19 // 312.0 kHz
	GfskBw373 GfskBandwidth = 0x11 // 373.6 kHz
	GfskBw467 GfskBandwidth = 0x09 // 467.0 kHz
)

// GFSK modulation limits
const (
	MinBitRate       = 600 // b/s
	MaxBitRate       = 300_000
	MinFreqDeviation = 600 // Hz
	MaxFreqDeviation = 200_000
)

func (b LoRaBandwidth) valid() bool { return b.Hz() != 0 }

func (s GfskPulseShape) valid() bool {
	return s == ShapeOff || (s >= ShapeBT03 && s <= ShapeBT10)
}

func (b GfskBandwidth) valid() bool {
	switch b {
	case GfskBw4, GfskBw5, GfskBw7, GfskBw9, GfskBw11, GfskBw14,
		GfskBw19, GfskBw23, GfskBw29, GfskBw39, GfskBw46, GfskBw58,
		GfskBw78, GfskBw93, GfskBw117, GfskBw156, GfskBw187, GfskBw234,
		GfskBw312, GfskBw373, GfskBw467:
		return true
	}
	return false
}

// ModulationParams configures the modem for one packet type. The
// variant must match the active packet type: LoRaModParams or
// GfskModParams.
type ModulationParams interface {
	packetType() PacketType
	modulationBytes() ([]byte, error)
}

// LoRaModParams is the LoRa variant of SetModulationParams.
type LoRaModParams struct {
	SpreadingFactor SpreadingFactor
	Bandwidth       LoRaBandwidth
	CodingRate      CodingRate

	// LowDataRateOptimize must be enabled when the symbol time is
	// 16.38 ms or longer (SF11/SF12 at 125 kHz, SF12 at 250 kHz).
	LowDataRateOptimize bool
}

func (p LoRaModParams) packetType() PacketType { return PacketTypeLoRa }

func (p LoRaModParams) modulationBytes() ([]byte, error) {
	if p.SpreadingFactor < SF5 || p.SpreadingFactor > SF12 {
		return nil, rangeErrorf("spreading factor", "%d not in 5-12", p.SpreadingFactor)
	}
	if !p.Bandwidth.valid() {
		return nil, rangeErrorf("lora bandwidth", "code 0x%02X not documented", byte(p.Bandwidth))
	}
	if p.CodingRate < CR45 || p.CodingRate > CR48 {
		return nil, rangeErrorf("coding rate", "code 0x%02X not in 4/5-4/8", byte(p.CodingRate))
	}
	var ldro byte
	if p.LowDataRateOptimize {
		ldro = 1
	}
	return []byte{byte(p.SpreadingFactor), byte(p.Bandwidth), byte(p.CodingRate), ldro, 0, 0, 0, 0}, nil
}

// GfskModParams is the GFSK variant of SetModulationParams. BitRate and
// FreqDeviation are given in b/s and Hz; the driver converts them to
// the chip's raw register scales.
type GfskModParams struct {
	BitRate       uint32
	PulseShape    GfskPulseShape
	Bandwidth     GfskBandwidth
	FreqDeviation uint32
}

func (p GfskModParams) packetType() PacketType { return PacketTypeGfsk }

func (p GfskModParams) modulationBytes() ([]byte, error) {
	if p.BitRate < MinBitRate || p.BitRate > MaxBitRate {
		return nil, rangeErrorf("bit rate", "%d b/s not in %d-%d", p.BitRate, MinBitRate, MaxBitRate)
	}
	if !p.PulseShape.valid() {
		return nil, rangeErrorf("pulse shape", "code 0x%02X not documented", byte(p.PulseShape))
	}
	if !p.Bandwidth.valid() {
		return nil, rangeErrorf("gfsk bandwidth", "code 0x%02X not documented", byte(p.Bandwidth))
	}
	if p.FreqDeviation < MinFreqDeviation || p.FreqDeviation > MaxFreqDeviation {
		return nil, rangeErrorf("frequency deviation", "%d Hz not in %d-%d",
			p.FreqDeviation, MinFreqDeviation, MaxFreqDeviation)
	}

	br := gfskBitRateRaw(p.BitRate)
	fdev := pllSteps(p.FreqDeviation)
	return []byte{
		byte(br >> 16), byte(br >> 8), byte(br),
		byte(p.PulseShape),
		byte(p.Bandwidth),
		byte(fdev >> 16), byte(fdev >> 8), byte(fdev),
	}, nil
}

// LoRaHeaderType selects the LoRa header scheme.
type LoRaHeaderType byte

const (
	// LoRaHeaderExplicit carries length, coding rate and header CRC in
	// the packet header.
	LoRaHeaderExplicit LoRaHeaderType = 0x00
	// LoRaHeaderImplicit omits the header; length must be known on both
	// sides.
	LoRaHeaderImplicit LoRaHeaderType = 0x01
)

// GfskHeaderType selects how the GFSK payload length travels.
type GfskHeaderType byte

const (
	GfskHeaderFixed    GfskHeaderType = 0x00 // length known to both sides
	GfskHeaderVariable GfskHeaderType = 0x01 // first payload byte carries the length
)

// GfskPreambleDetector gates the packet controller on a minimum run of
// received preamble bits.
type GfskPreambleDetector byte

const (
	PreambleDetectorOff    GfskPreambleDetector = 0x00
	PreambleDetector8Bits  GfskPreambleDetector = 0x04
	PreambleDetector16Bits GfskPreambleDetector = 0x05
	PreambleDetector24Bits GfskPreambleDetector = 0x06
	PreambleDetector32Bits GfskPreambleDetector = 0x07
)

// GfskAddressFilter enables hardware filtering on the node and
// broadcast address registers.
type GfskAddressFilter byte

const (
	AddressFilterOff           GfskAddressFilter = 0x00
	AddressFilterNode          GfskAddressFilter = 0x01
	AddressFilterNodeBroadcast GfskAddressFilter = 0x02
)

// GfskCrcType selects the GFSK CRC width and polarity. The polynomial
// and seed come from the CRC registers.
type GfskCrcType byte

const (
	GfskCrc1Byte    GfskCrcType = 0x00
	GfskCrcOff      GfskCrcType = 0x01
	GfskCrc2Byte    GfskCrcType = 0x02
	GfskCrc1ByteInv GfskCrcType = 0x04
	GfskCrc2ByteInv GfskCrcType = 0x06
)

// PacketParams configures packet framing for one packet type. The
// variant must match the active packet type: LoRaPacketParams or
// GfskPacketParams.
type PacketParams interface {
	packetType() PacketType
	packetBytes() ([]byte, error)
}

// LoRaPacketParams is the LoRa variant of SetPacketParams.
type LoRaPacketParams struct {
	PreambleLength uint16 // symbols
	HeaderType     LoRaHeaderType
	PayloadLength  uint8 // TX length, or the RX maximum
	CrcOn          bool
	InvertIq       bool // standard IQ for uplinks, inverted for downlinks
}

func (p LoRaPacketParams) packetType() PacketType { return PacketTypeLoRa }

func (p LoRaPacketParams) packetBytes() ([]byte, error) {
	if p.PreambleLength == 0 {
		return nil, rangeErrorf("preamble length", "must be at least 1 symbol")
	}
	if p.HeaderType != LoRaHeaderExplicit && p.HeaderType != LoRaHeaderImplicit {
		return nil, rangeErrorf("header type", "code 0x%02X not documented", byte(p.HeaderType))
	}
	var crc, iq byte
	if p.CrcOn {
		crc = 1
	}
	if p.InvertIq {
		iq = 1
	}
	return []byte{
		byte(p.PreambleLength >> 8), byte(p.PreambleLength),
		byte(p.HeaderType),
		p.PayloadLength,
		crc,
		iq,
		0, 0, 0,
	}, nil
}

// GfskPacketParams is the GFSK variant of SetPacketParams.
type GfskPacketParams struct {
	PreambleLength   uint16 // bits
	PreambleDetector GfskPreambleDetector
	SyncWordLength   uint8 // bits, up to 64; the pattern sits in the sync word registers
	AddressFilter    GfskAddressFilter
	HeaderType       GfskHeaderType
	PayloadLength    uint8
	CrcType          GfskCrcType
	Whitening        bool
}

func (p GfskPacketParams) packetType() PacketType { return PacketTypeGfsk }

func (p GfskPacketParams) packetBytes() ([]byte, error) {
	if p.PreambleLength == 0 {
		return nil, rangeErrorf("preamble length", "must be at least 1 bit")
	}
	switch p.PreambleDetector {
	case PreambleDetectorOff, PreambleDetector8Bits, PreambleDetector16Bits,
		PreambleDetector24Bits, PreambleDetector32Bits:
	default:
		return nil, rangeErrorf("preamble detector", "code 0x%02X not documented", byte(p.PreambleDetector))
	}
	if p.SyncWordLength > 64 {
		return nil, rangeErrorf("sync word length", "%d bits exceeds 64", p.SyncWordLength)
	}
	if p.AddressFilter > AddressFilterNodeBroadcast {
		return nil, rangeErrorf("address filter", "code 0x%02X not documented", byte(p.AddressFilter))
	}
	if p.AddressFilter != AddressFilterOff && p.PayloadLength > 254 {
		return nil, rangeErrorf("payload length", "at most 254 with address filtering")
	}
	if p.HeaderType != GfskHeaderFixed && p.HeaderType != GfskHeaderVariable {
		return nil, rangeErrorf("header type", "code 0x%02X not documented", byte(p.HeaderType))
	}
	switch p.CrcType {
	case GfskCrcOff, GfskCrc1Byte, GfskCrc2Byte, GfskCrc1ByteInv, GfskCrc2ByteInv:
	default:
		return nil, rangeErrorf("crc type", "code 0x%02X not documented", byte(p.CrcType))
	}
	var wh byte
	if p.Whitening {
		wh = 1
	}
	return []byte{
		byte(p.PreambleLength >> 8), byte(p.PreambleLength),
		byte(p.PreambleDetector),
		p.SyncWordLength,
		byte(p.AddressFilter),
		byte(p.HeaderType),
		p.PayloadLength,
		byte(p.CrcType),
		wh,
	}, nil
}

// CadSymbols is the number of symbols a channel activity detection
// scan listens for.
type CadSymbols byte

const (
	CadOn1Symbol   CadSymbols = 0x00
	CadOn2Symbols  CadSymbols = 0x01
	CadOn4Symbols  CadSymbols = 0x02
	CadOn8Symbols  CadSymbols = 0x03
	CadOn16Symbols CadSymbols = 0x04
)

// CadExitMode is what the chip does when a CAD scan finishes.
type CadExitMode byte

const (
	CadOnly CadExitMode = 0x00 // back to StandbyRC
	CadRx   CadExitMode = 0x01 // stay in RX when activity was detected
)

// CadParams tunes channel activity detection. Peak and min thresholds
// depend on spreading factor and bandwidth; the datasheet tables are a
// good starting point.
type CadParams struct {
	Symbols    CadSymbols
	DetectPeak byte
	DetectMin  byte
	ExitMode   CadExitMode
	Timeout    uint32 // timer steps, CadRx mode only
}

func (p CadParams) cadBytes() ([]byte, error) {
	if p.Symbols > CadOn16Symbols {
		return nil, rangeErrorf("cad symbols", "code 0x%02X not documented", byte(p.Symbols))
	}
	if p.ExitMode != CadOnly && p.ExitMode != CadRx {
		return nil, rangeErrorf("cad exit mode", "code 0x%02X not documented", byte(p.ExitMode))
	}
	if p.Timeout > MaxTimeoutSteps {
		return nil, rangeErrorf("cad timeout", "%d exceeds %d steps", p.Timeout, MaxTimeoutSteps)
	}
	return []byte{
		byte(p.Symbols),
		p.DetectPeak,
		p.DetectMin,
		byte(p.ExitMode),
		byte(p.Timeout >> 16), byte(p.Timeout >> 8), byte(p.Timeout),
	}, nil
}

// pllSteps converts Hz into the chip's 2^25 / 32 MHz frequency scale,
// used both for the RF frequency and the GFSK deviation.
func pllSteps(hz uint32) uint32 {
	return uint32((uint64(hz) << 25) / XtalFreqHz)
}

// gfskBitRateRaw converts b/s into the 24-bit raw bit rate field.
func gfskBitRateRaw(bitRate uint32) uint32 {
	return 32 * XtalFreqHz / bitRate
}
