package sx1262

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIrqStatusDecodes(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 0x01, 0x03})
	irq, err := d.GetIrqStatus()
	require.NoError(t, err)
	assert.Equal(t, IrqTxDone|IrqRxDone|IrqTimeout, irq)
	assert.True(t, irq&IrqRxDone != 0)
}

func TestGetRxBufferStatusDecodes(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 0x40, 0x80})
	bs, err := d.GetRxBufferStatus()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x40), bs.PayloadLength)
	assert.Equal(t, uint8(0x80), bs.BufferStart)
}

func TestGetPacketStatusLoRaDecodes(t *testing.T) {
	d, st := standbyDevice(t)

	// rssi raw 80 -> -40 dBm, snr raw 20 -> +5 dB, signal rssi 84 -> -42 dBm
	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 80, 20, 84})
	ps, err := d.GetPacketStatus()
	require.NoError(t, err)

	lora := ps.LoRa()
	assert.Equal(t, -40.0, lora.RssiPkt)
	assert.Equal(t, 5.0, lora.SnrPkt)
	assert.Equal(t, -42.0, lora.SignalRssiPkt)
}

func TestGetPacketStatusLoRaNegativeSnr(t *testing.T) {
	d, st := standbyDevice(t)

	// snr raw 0xE8 = -24 as int8 -> -6 dB
	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 200, 0xE8, 210})
	ps, err := d.GetPacketStatus()
	require.NoError(t, err)

	lora := ps.LoRa()
	assert.Equal(t, -100.0, lora.RssiPkt)
	assert.Equal(t, -6.0, lora.SnrPkt)
	assert.Equal(t, -105.0, lora.SignalRssiPkt)
}

func TestGetPacketStatusGfskDecodes(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 0x12, 120, 124})
	ps, err := d.GetPacketStatus()
	require.NoError(t, err)

	gfsk := ps.Gfsk()
	assert.Equal(t, GfskRxPacketReceived|GfskRxCrcError, gfsk.RxStatus)
	assert.Equal(t, -60.0, gfsk.RssiSync)
	assert.Equal(t, -62.0, gfsk.RssiAvg)
}

func TestGetDeviceErrorsDecodes(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 0x01, 0x20})
	errs, err := d.GetDeviceErrors()
	require.NoError(t, err)
	assert.Equal(t, ErrPaRamp|ErrXoscStart, errs)
	assert.Equal(t, "XoscStart|PaRamp", errs.String())

	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 0x00, 0x00})
	errs, err = d.GetDeviceErrors()
	require.NoError(t, err)
	assert.Equal(t, DeviceErrors(0), errs)
	assert.Equal(t, "none", errs.String())
}

func TestGetStatsDecodes(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{
		0x00, statusStandbyRC,
		0x01, 0x00, // 256 received
		0x00, 0x05, // 5 CRC errors
		0x00, 0x02, // 2 header errors
	})
	stats, err := d.GetStats()
	require.NoError(t, err)
	assert.Equal(t, uint16(256), stats.PacketsReceived)
	assert.Equal(t, uint16(5), stats.CrcErrors)
	assert.Equal(t, uint16(2), stats.HeaderErrors)
}

func TestStatusDecode(t *testing.T) {
	cases := []struct {
		b    byte
		mode Mode
		cmd  CommandStatus
	}{
		{0x24, ModeStandbyRC, CmdDataAvailable},
		{0x36, ModeStandbyXosc, CmdTimeout},
		{0x48, ModeFS, CmdProcessingError},
		{0x5A, ModeRX, CmdExecutionFailure},
		{0x6C, ModeTX, CmdTxDone},
		{0x00, ModeUnknown, 0},
	}
	for _, c := range cases {
		s := Status(c.b)
		assert.Equal(t, c.mode, s.ChipMode(), "0x%02X", c.b)
		assert.Equal(t, c.cmd, s.CommandStatus(), "0x%02X", c.b)
	}
}

func TestStatusString(t *testing.T) {
	assert.Contains(t, Status(0x24).String(), "StandbyRC")
	assert.Contains(t, Status(0x5A).String(), "RX")
}

func TestIrqString(t *testing.T) {
	assert.Equal(t, "none", Irq(0).String())
	assert.Equal(t, "TxDone", IrqTxDone.String())
	assert.Equal(t, "TxDone|RxDone", (IrqTxDone | IrqRxDone).String())
	assert.Equal(t, "RxDone|Timeout", (IrqRxDone | IrqTimeout).String())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "StandbyRC", ModeStandbyRC.String())
	assert.Equal(t, "Sleep", ModeSleep.String())
	assert.Equal(t, "Unknown", ModeUnknown.String())
}
