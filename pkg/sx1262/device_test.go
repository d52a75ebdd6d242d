package sx1262

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport records every frame and replays scripted full-duplex
// replies. Replies are consumed in order and zero-padded to the frame
// length; with no script the chip answers all zeros.
type stubTransport struct {
	frames  [][]byte
	replies [][]byte
	err     error
	trunc   int // bytes to drop from each reply
}

func (s *stubTransport) Exchange(w []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.frames = append(s.frames, append([]byte(nil), w...))
	r := make([]byte, len(w))
	if len(s.replies) > 0 {
		copy(r, s.replies[0])
		s.replies = s.replies[1:]
	}
	if s.trunc > 0 && s.trunc < len(r) {
		r = r[:len(r)-s.trunc]
	}
	return r, nil
}

func (s *stubTransport) lastFrame() []byte {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// statusStandbyRC is a status byte reporting StandbyRC with data
// available.
const statusStandbyRC = 0x24

// standbyDevice returns a device whose believed mode is confirmed
// StandbyRC, with the frame log cleared.
func standbyDevice(t *testing.T) (*Device, *stubTransport) {
	t.Helper()
	st := &stubTransport{}
	d := New(st)
	st.replies = append(st.replies, []byte{0x00, statusStandbyRC})
	_, err := d.GetStatus()
	require.NoError(t, err)
	require.Equal(t, ModeStandbyRC, d.CurrentMode())
	st.frames = nil
	return d, st
}

func TestNewDeviceStartsUnknown(t *testing.T) {
	d := New(&stubTransport{})
	assert.Equal(t, ModeUnknown, d.CurrentMode())
	assert.Equal(t, PartSX1262, d.Part())
}

func TestGetStatusSyncsMode(t *testing.T) {
	st := &stubTransport{}
	d := New(st)

	cases := []struct {
		status byte
		mode   Mode
	}{
		{0x24, ModeStandbyRC},
		{0x34, ModeStandbyXosc},
		{0x44, ModeFS},
		{0x54, ModeRX},
		{0x64, ModeTX},
		{0x04, ModeUnknown}, // reserved mode bits stay unknown
	}
	for _, c := range cases {
		st.replies = append(st.replies, []byte{0x00, c.status})
		status, err := d.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, c.mode, status.ChipMode())
		assert.Equal(t, c.mode, d.CurrentMode())
	}
	assert.Equal(t, [][]byte{{0xC0, 0x00}, {0xC0, 0x00}, {0xC0, 0x00},
		{0xC0, 0x00}, {0xC0, 0x00}, {0xC0, 0x00}}, st.frames)
}

func TestUnknownModeIsOptimistic(t *testing.T) {
	st := &stubTransport{}
	d := New(st)

	// Configuration commands cannot be proven illegal before the first
	// status read, so they go through.
	require.NoError(t, d.SetRfFrequency(915_000_000))
	assert.Len(t, st.frames, 1)
}

func TestModeLegality(t *testing.T) {
	d, st := standbyDevice(t)

	// RSSI sampling needs RX.
	_, err := d.GetRssiInst()
	var ise *IllegalStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "GetRssiInst", ise.Op)
	assert.Empty(t, st.frames, "illegal command must not touch the transport")
	assert.Equal(t, ModeStandbyRC, d.CurrentMode())

	// After a confirmed transition to RX the same command succeeds.
	require.NoError(t, d.SetRx(RxContinuous))
	require.Equal(t, ModeRX, d.CurrentMode())

	st.replies = append(st.replies, []byte{0x00, 0x54, 0x64})
	rssi, err := d.GetRssiInst()
	require.NoError(t, err)
	assert.Equal(t, -50.0, rssi)
}

func TestConfigCommandIllegalInReceive(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetRx(RxContinuous))
	st.frames = nil

	err := d.SetRfFrequency(915_000_000)
	var ise *IllegalStateError
	require.ErrorAs(t, err, &ise)
	assert.Empty(t, st.frames)
}

func TestTransportFailureDemotesMode(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetRx(RxContinuous))
	require.Equal(t, ModeRX, d.CurrentMode())

	busErr := errors.New("bus gone")
	st.err = busErr

	err := d.SetStandby(ModeStandbyRC)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, busErr)
	assert.Equal(t, ModeUnknown, d.CurrentMode())
}

func TestTransportFailureOnTelemetryDemotesMode(t *testing.T) {
	// The chip may have half-heard any frame, so even a failed counter
	// read means the hardware state is no longer trustworthy.
	d, st := standbyDevice(t)
	st.err = errors.New("bus gone")

	_, err := d.GetStats()
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ModeUnknown, d.CurrentMode())
}

func TestShortResponseIsFormatError(t *testing.T) {
	d, st := standbyDevice(t)
	st.trunc = 1

	_, err := d.GetStatus()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Want)
	assert.Equal(t, 1, fe.Got)
	// A length mismatch is desync, not a confirmed mode change.
	assert.Equal(t, ModeStandbyRC, d.CurrentMode())
}

func TestModeDefiningCommandsAdvanceMode(t *testing.T) {
	cases := []struct {
		name string
		run  func(d *Device) error
		want Mode
	}{
		{"SetSleep", func(d *Device) error { return d.SetSleep(SleepWarmStart) }, ModeSleep},
		{"SetStandbyRC", func(d *Device) error { return d.SetStandby(ModeStandbyRC) }, ModeStandbyRC},
		{"SetStandbyXosc", func(d *Device) error { return d.SetStandby(ModeStandbyXosc) }, ModeStandbyXosc},
		{"SetFs", func(d *Device) error { return d.SetFs() }, ModeFS},
		{"SetTx", func(d *Device) error { return d.SetTx(0) }, ModeTX},
		{"SetRx", func(d *Device) error { return d.SetRx(RxSingle) }, ModeRX},
		{"SetTxContinuousWave", func(d *Device) error { return d.SetTxContinuousWave() }, ModeTX},
		{"SetTxInfinitePreamble", func(d *Device) error { return d.SetTxInfinitePreamble() }, ModeTX},
		{"SetRxDutyCycle", func(d *Device) error { return d.SetRxDutyCycle(64, 640) }, ModeRX},
		{"SetCad", func(d *Device) error { return d.SetCad() }, ModeRX},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, _ := standbyDevice(t)
			require.NoError(t, c.run(d))
			assert.Equal(t, c.want, d.CurrentMode())
		})
	}
}

func TestConfigCommandsDoNotChangeMode(t *testing.T) {
	d, _ := standbyDevice(t)
	require.NoError(t, d.SetRfFrequency(868_000_000))
	require.NoError(t, d.SetPacketType(PacketTypeLoRa))
	require.NoError(t, d.SetBufferBaseAddress(0, 0))
	assert.Equal(t, ModeStandbyRC, d.CurrentMode())
}

func TestSleepBlocksRegisterAndBufferAccess(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetSleep(SleepWarmStart))
	st.frames = nil

	var ise *IllegalStateError
	_, err := d.ReadRegister(0x0740, 2)
	require.ErrorAs(t, err, &ise)

	err = d.WriteRegister(0x0740, []byte{0x34, 0x44})
	require.ErrorAs(t, err, &ise)

	_, err = d.ReadBuffer(0, 4)
	require.ErrorAs(t, err, &ise)

	err = d.WriteBuffer(0, []byte{1, 2, 3})
	require.ErrorAs(t, err, &ise)

	assert.Empty(t, st.frames)

	// A chip select edge wakes the chip; a status read both wakes and
	// re-synchronizes.
	st.replies = append(st.replies, []byte{0x00, statusStandbyRC})
	_, err = d.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, ModeStandbyRC, d.CurrentMode())
}

func TestRegisterFrames(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{0, 0, 0, 0, 0x14, 0x24})
	val, err := d.ReadRegister(0x0740, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x14, 0x24}, val)
	assert.Equal(t, []byte{0x1D, 0x07, 0x40, 0x00, 0x00, 0x00}, st.lastFrame())

	require.NoError(t, d.WriteRegister(0x0740, []byte{0x34, 0x44}))
	assert.Equal(t, []byte{0x0D, 0x07, 0x40, 0x34, 0x44}, st.lastFrame())
}

func TestBufferFrames(t *testing.T) {
	d, st := standbyDevice(t)

	require.NoError(t, d.WriteBuffer(0x10, []byte{0xDE, 0xAD}))
	assert.Equal(t, []byte{0x0E, 0x10, 0xDE, 0xAD}, st.lastFrame())

	st.replies = append(st.replies, []byte{0, 0, 0, 0xCA, 0xFE, 0x42})
	data, err := d.ReadBuffer(5, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE, 0x42}, data)
	assert.Equal(t, []byte{0x1E, 0x05, 0x00, 0x00, 0x00, 0x00}, st.lastFrame())
}

func TestBufferBounds(t *testing.T) {
	d, st := standbyDevice(t)

	var re *RangeError
	err := d.WriteBuffer(250, make([]byte, 10))
	require.ErrorAs(t, err, &re)

	_, err = d.ReadBuffer(0, 257)
	require.ErrorAs(t, err, &re)

	_, err = d.ReadBuffer(0, 0)
	require.ErrorAs(t, err, &re)

	assert.Empty(t, st.frames)
}

func TestReadPayload(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetRx(RxContinuous))

	// 3 bytes at offset 7
	st.replies = append(st.replies,
		[]byte{0x00, 0x54, 0x03, 0x07},
		[]byte{0x00, 0x00, 0x00, 0x01, 0x02, 0x03},
	)
	data, err := d.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, data)
	assert.Equal(t, []byte{0x1E, 0x07, 0x00, 0x00, 0x00, 0x00}, st.lastFrame())
}

func TestReadPayloadEmpty(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetRx(RxContinuous))
	st.frames = nil

	st.replies = append(st.replies, []byte{0x00, 0x54, 0x00, 0x00})
	data, err := d.ReadPayload()
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Len(t, st.frames, 1, "an empty packet needs no buffer read")
}

func TestPacketTypeConsistency(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetPacketType(PacketTypeLoRa))
	st.frames = nil

	var ise *IllegalStateError
	err := d.SetModulationParams(GfskModParams{
		BitRate: 50_000, PulseShape: ShapeBT05, Bandwidth: GfskBw117, FreqDeviation: 25_000,
	})
	require.ErrorAs(t, err, &ise)

	err = d.SetPacketParams(GfskPacketParams{
		PreambleLength: 16, HeaderType: GfskHeaderVariable, CrcType: GfskCrcOff,
	})
	require.ErrorAs(t, err, &ise)
	assert.Empty(t, st.frames)

	// The matching variant goes through.
	require.NoError(t, d.SetModulationParams(LoRaModParams{
		SpreadingFactor: SF7, Bandwidth: LoRaBw125, CodingRate: CR45,
	}))
}

func TestCadCommandsRejectGfsk(t *testing.T) {
	d, st := standbyDevice(t)
	require.NoError(t, d.SetPacketType(PacketTypeGfsk))
	st.frames = nil

	var ise *IllegalStateError
	err := d.SetCadParams(CadParams{Symbols: CadOn2Symbols, DetectPeak: 22, DetectMin: 10})
	require.ErrorAs(t, err, &ise)

	err = d.SetCad()
	require.ErrorAs(t, err, &ise)

	err = d.SetLoRaSymbNumTimeout(8)
	require.ErrorAs(t, err, &ise)
	assert.Empty(t, st.frames)
}

func TestGetPacketTypeSyncs(t *testing.T) {
	d, st := standbyDevice(t)

	st.replies = append(st.replies, []byte{0x00, statusStandbyRC, 0x01})
	pt, err := d.GetPacketType()
	require.NoError(t, err)
	assert.Equal(t, PacketTypeLoRa, pt)
	assert.Equal(t, []byte{0x11, 0x00, 0x00}, st.lastFrame())

	// The synced type now gates LoRa-only commands.
	require.NoError(t, d.SetCad())
}

func TestSetPaConfigSelectsPart(t *testing.T) {
	d, _ := standbyDevice(t)
	require.Equal(t, PartSX1262, d.Part())

	require.NoError(t, d.SetPaConfig(PaSX1261Power14))
	assert.Equal(t, PartSX1261, d.Part())

	// The SX1261 tops out at +14 dBm.
	var re *RangeError
	err := d.SetTxParams(20, Ramp200us)
	require.ErrorAs(t, err, &re)
	require.NoError(t, d.SetTxParams(-17, Ramp200us))

	require.NoError(t, d.SetPaConfig(PaSX1262Power22))
	require.NoError(t, d.SetTxParams(22, Ramp200us))
	err = d.SetTxParams(-10, Ramp200us)
	require.ErrorAs(t, err, &re)
}

type stubPin struct {
	levels []bool // consumed per read; last value repeats
	err    error
}

func (p *stubPin) Read() (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	if len(p.levels) == 0 {
		return false, nil
	}
	v := p.levels[0]
	if len(p.levels) > 1 {
		p.levels = p.levels[1:]
	}
	return v, nil
}

func TestWaitReady(t *testing.T) {
	d := New(&stubTransport{})

	// No pin attached: nothing to wait on.
	require.NoError(t, d.WaitReady(time.Millisecond))

	d.SetBusyPin(&stubPin{levels: []bool{true, true, false}})
	require.NoError(t, d.WaitReady(100*time.Millisecond))

	d.SetBusyPin(&stubPin{levels: []bool{true}})
	err := d.WaitReady(2 * time.Millisecond)
	require.Error(t, err)

	d.SetBusyPin(&stubPin{err: errors.New("gpio gone")})
	err = d.WaitReady(time.Millisecond)
	require.Error(t, err)
}

func TestLogfSeesFrames(t *testing.T) {
	d, st := standbyDevice(t)
	var lines []string
	d.Logf = func(format string, args ...any) {
		lines = append(lines, format)
	}
	require.NoError(t, d.SetRfFrequency(915_000_000))
	assert.Len(t, st.frames, 1)
	assert.Len(t, lines, 2, "one line out, one line back")
}
