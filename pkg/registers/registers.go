// Package registers describes the SX1261/2 configuration registers
// reachable over the ReadRegister/WriteRegister commands, and provides
// typed access to the documented fields and errata workarounds.
package registers

import (
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Register describes one addressable register. Width is 1, 2 or 4
// bytes, big-endian on the wire. A non-zero Mask limits the writable
// field; bits outside it are reserved and must not be written.
type Register struct {
	Name     string
	Address  uint16
	Width    int
	Mask     uint32 // writable field bits, 0 = whole register
	ReadOnly bool
	Default  uint32 // documented reset value, where the datasheet lists one
}

// Encode converts a field value to wire bytes. Values outside the
// register width or its writable field are rejected, never truncated.
func (r Register) Encode(value uint32) ([]byte, error) {
	if r.Width != 1 && r.Width != 2 && r.Width != 4 {
		return nil, &sx1262.RangeError{Param: r.Name, Msg: "unsupported register width"}
	}
	if r.Width < 4 && value>>(8*r.Width) != 0 {
		return nil, &sx1262.RangeError{Param: r.Name,
			Msg: "value does not fit the register width"}
	}
	if r.Mask != 0 && value&^r.Mask != 0 {
		return nil, &sx1262.RangeError{Param: r.Name,
			Msg: "value has bits outside the writable field"}
	}
	data := make([]byte, r.Width)
	for i := 0; i < r.Width; i++ {
		data[i] = byte(value >> (8 * (r.Width - 1 - i)))
	}
	return data, nil
}

// Decode converts wire bytes back to a field value, applying the field
// mask. The byte count must match the register width exactly.
func (r Register) Decode(data []byte) (uint32, error) {
	if len(data) != r.Width {
		return 0, &sx1262.FormatError{What: r.Name, Want: r.Width, Got: len(data)}
	}
	var v uint32
	for _, b := range data {
		v = v<<8 | uint32(b)
	}
	if r.Mask != 0 {
		v &= r.Mask
	}
	return v, nil
}

// LoRa sync word values (LoRaSyncWord register)
const (
	LoRaSyncPublic  = 0x3444 // LoRaWAN public networks
	LoRaSyncPrivate = 0x1424 // reset value, private networks
)

// RX gain settings (RxGain register)
const (
	RxGainPowerSaving = 0x94 // reset value
	RxGainBoosted     = 0x96 // ~2 dB better sensitivity, ~2 mA more current
)

// Overcurrent protection settings (OcpConfiguration register, 2.5 mA steps)
const (
	OcpSX1261 = 0x18 // 60 mA
	OcpSX1262 = 0x38 // 140 mA
)

const (
	iqSetupBit      = 0x04 // IqPolaritySetup bit 2, clear for inverted IQ RX
	txModulationBit = 0x04 // TxModulation bit 2, clear for LoRa BW500
	txClampBits     = 0x1E // TxClampConfig bits 4:1, set for SX1262 PA protection
	rtcEventBit     = 0x02 // EventMask bit 1, clears a pending RTC timeout event
	maxCrystalTrim  = 0x2F // trim caps run 11.3-33.4 pF in 0.47 pF steps
)

// GFSK sync word block and sleep retention list, accessed as byte
// blocks rather than scalar registers
const (
	syncWordAddr      = 0x06C0
	syncWordLen       = 8
	retentionListAddr = 0x02F9
	maxRetained       = 4
)

// Documented registers. DIO control registers drive the pins directly
// when a command has not claimed them; bits 0-2 map to DIO1-3.
var (
	DioOutputEnable    = Register{Name: "DioOutputEnable", Address: 0x0580, Width: 1, Mask: 0x07}
	DioInputEnable     = Register{Name: "DioInputEnable", Address: 0x0583, Width: 1, Mask: 0x07}
	DioPullUpControl   = Register{Name: "DioPullUpControl", Address: 0x0584, Width: 1, Mask: 0x07}
	DioPullDownControl = Register{Name: "DioPullDownControl", Address: 0x0585, Width: 1, Mask: 0x07}

	// GFSK packet engine
	WhiteningInitialValue = Register{Name: "WhiteningInitialValue", Address: 0x06B8, Width: 2, Mask: 0x01FF, Default: 0x0100}
	CrcInitialValue       = Register{Name: "CrcInitialValue", Address: 0x06BC, Width: 2, Default: 0x1D0F}
	CrcPolynomial         = Register{Name: "CrcPolynomial", Address: 0x06BE, Width: 2, Default: 0x1021}
	NodeAddress           = Register{Name: "NodeAddress", Address: 0x06CD, Width: 1}
	BroadcastAddress      = Register{Name: "BroadcastAddress", Address: 0x06CE, Width: 1}

	// LoRa packet engine
	IqPolaritySetup = Register{Name: "IqPolaritySetup", Address: 0x0736, Width: 1, Default: 0x0D}
	LoRaSyncWord    = Register{Name: "LoRaSyncWord", Address: 0x0740, Width: 2, Default: LoRaSyncPrivate}

	// Entropy source, refreshed while the receiver runs
	RandomNumber = Register{Name: "RandomNumber", Address: 0x0819, Width: 4, ReadOnly: true}

	// RF front end
	TxModulation     = Register{Name: "TxModulation", Address: 0x0889, Width: 1}
	RxGain           = Register{Name: "RxGain", Address: 0x08AC, Width: 1, Default: RxGainPowerSaving}
	TxClampConfig    = Register{Name: "TxClampConfig", Address: 0x08D8, Width: 1}
	OcpConfiguration = Register{Name: "OcpConfiguration", Address: 0x08E7, Width: 1, Default: OcpSX1262}

	// Timing and crystal
	RtcControl        = Register{Name: "RtcControl", Address: 0x0902, Width: 1, Mask: 0x01}
	XtaTrim           = Register{Name: "XtaTrim", Address: 0x0911, Width: 1, Default: 0x05}
	XtbTrim           = Register{Name: "XtbTrim", Address: 0x0912, Width: 1, Default: 0x05}
	Dio3OutputVoltage = Register{Name: "Dio3OutputVoltage", Address: 0x0920, Width: 1, Mask: 0x07}
	EventMask         = Register{Name: "EventMask", Address: 0x0944, Width: 1}
)

// All lists every described register in address order.
var All = []Register{
	DioOutputEnable,
	DioInputEnable,
	DioPullUpControl,
	DioPullDownControl,
	WhiteningInitialValue,
	CrcInitialValue,
	CrcPolynomial,
	NodeAddress,
	BroadcastAddress,
	IqPolaritySetup,
	LoRaSyncWord,
	RandomNumber,
	TxModulation,
	RxGain,
	TxClampConfig,
	OcpConfiguration,
	RtcControl,
	XtaTrim,
	XtbTrim,
	Dio3OutputVoltage,
	EventMask,
}

// RegisterMap is a snapshot of the writable retained registers, in the
// shape the dump and load tools serialize.
type RegisterMap struct {
	// GFSK sync, integrity and addressing
	WhiteningInit    uint16   `json:"whitening_init"`    // 0x06B8
	CrcInit          uint16   `json:"crc_init"`          // 0x06BC
	CrcPoly          uint16   `json:"crc_polynomial"`    // 0x06BE
	SyncWord         [8]uint8 `json:"sync_word"`         // 0x06C0-0x06C7
	NodeAddress      uint8    `json:"node_address"`      // 0x06CD
	BroadcastAddress uint8    `json:"broadcast_address"` // 0x06CE

	// LoRa
	IqPolarity   uint8  `json:"iq_polarity"`    // 0x0736
	LoRaSyncWord uint16 `json:"lora_sync_word"` // 0x0740-0x0741

	// RF front end
	TxModulation  uint8 `json:"tx_modulation"`   // 0x0889
	RxGain        uint8 `json:"rx_gain"`         // 0x08AC
	TxClampConfig uint8 `json:"tx_clamp_config"` // 0x08D8
	OcpConfig     uint8 `json:"ocp_config"`      // 0x08E7

	// Crystal trim
	XtaTrim uint8 `json:"xta_trim"` // 0x0911
	XtbTrim uint8 `json:"xtb_trim"` // 0x0912
}
