package sx1262

import "time"

// SPI frame prefixes for register and data buffer access
const (
	FrameWriteRegister = 0x0D
	FrameReadRegister  = 0x1D
	FrameWriteBuffer   = 0x0E
	FrameReadBuffer    = 0x1E
)

// Operational mode commands
const (
	OpSetStandby            = 0x80
	OpSetRx                 = 0x82
	OpSetTx                 = 0x83
	OpSetSleep              = 0x84
	OpCalibrate             = 0x89
	OpSetRxTxFallbackMode   = 0x93
	OpSetRxDutyCycle        = 0x94
	OpSetPaConfig           = 0x95
	OpSetRegulatorMode      = 0x96
	OpCalibrateImage        = 0x98
	OpStopTimerOnPreamble   = 0x9F
	OpSetFs                 = 0xC1
	OpSetCad                = 0xC5
	OpSetTxContinuousWave   = 0xD1 // test mode, unmodulated carrier
	OpSetTxInfinitePreamble = 0xD2 // test mode, endless preamble
)

// RF, modulation and packet commands
const (
	OpGetPacketType         = 0x11
	OpSetRfFrequency        = 0x86
	OpSetCadParams          = 0x88
	OpSetPacketType         = 0x8A
	OpSetModulationParams   = 0x8B
	OpSetPacketParams       = 0x8C
	OpSetTxParams           = 0x8E
	OpSetBufferBaseAddress  = 0x8F
	OpSetLoRaSymbNumTimeout = 0xA0
)

// DIO and IRQ commands
const (
	OpClearIrqStatus        = 0x02
	OpSetDioIrqParams       = 0x08
	OpGetIrqStatus          = 0x12
	OpSetDio3AsTcxoCtrl     = 0x97
	OpSetDio2AsRfSwitchCtrl = 0x9D
)

// Status and telemetry commands
const (
	OpResetStats        = 0x00
	OpClearDeviceErrors = 0x07
	OpGetStats          = 0x10
	OpGetRxBufferStatus = 0x13
	OpGetPacketStatus   = 0x14
	OpGetRssiInst       = 0x15
	OpGetDeviceErrors   = 0x17
	OpGetStatus         = 0xC0
)

// Crystal and timing constants
const (
	XtalFreqHz = 32_000_000 // reference crystal, all PLL math derives from it

	// TimeoutStep is the resolution of every chip timer field: RX/TX
	// timeouts, duty cycle periods and the TCXO stabilization delay.
	TimeoutStep = 15625 * time.Nanosecond

	MaxTimeoutSteps = 0xFFFFFF // timer fields are 24-bit
)

// RX timeout values with special meaning to the chip
const (
	RxSingle     = 0x000000 // stay in RX for one packet, no timeout
	RxContinuous = 0xFFFFFF // stay in RX until told otherwise
)

// RF frequency limits
const (
	MinFrequencyHz = 150_000_000
	MaxFrequencyHz = 960_000_000
)

// Data buffer geometry
const (
	BufferSize = 256 // shared TX/RX data buffer
)

// TimeoutSteps converts a duration to chip timer steps, rounding down
// and saturating at the 24-bit field maximum (about 262 s).
func TimeoutSteps(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	steps := d / TimeoutStep
	if steps > MaxTimeoutSteps {
		return MaxTimeoutSteps
	}
	return uint32(steps)
}
