package profiles

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// stubTransport records every frame and replies with zeros, so
// register read-modify-write steps always see a cleared register.
// failAt makes the nth exchange fail.
type stubTransport struct {
	frames [][]byte
	failAt int
	err    error
}

func (st *stubTransport) Exchange(frame []byte) ([]byte, error) {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	st.frames = append(st.frames, cp)
	if st.failAt > 0 && len(st.frames) == st.failAt {
		return nil, st.err
	}
	return make([]byte, len(frame)), nil
}

// frameOp names a frame for sequence assertions: register accesses by
// address, commands by opcode.
func frameOp(frame []byte) string {
	switch frame[0] {
	case 0x0D:
		return fmt.Sprintf("wr:%02X%02X", frame[1], frame[2])
	case 0x1D:
		return fmt.Sprintf("rd:%02X%02X", frame[1], frame[2])
	default:
		return fmt.Sprintf("%02X", frame[0])
	}
}

func frameOps(frames [][]byte) []string {
	ops := make([]string, len(frames))
	for i, f := range frames {
		ops[i] = frameOp(f)
	}
	return ops
}

func TestApplyLoRaSequence(t *testing.T) {
	st := &stubTransport{}
	d := sx1262.New(st)

	p := New915LoRaStandard(sx1262.SF7)
	require.NoError(t, p.Apply(d))

	want := []string{
		"80",      // standby RC
		"96",      // regulator
		"9D",      // DIO2 RF switch
		"89",      // calibrate
		"8A",      // packet type
		"86",      // frequency
		"98",      // image calibration
		"8B",      // modulation params
		"8C",      // packet params
		"wr:0740", // LoRa sync word
		"rd:0736", // IQ polarity read-modify-write
		"wr:0736",
		"A0",      // symbol timeout
		"rd:0889", // tx modulation read-modify-write
		"wr:0889",
		"8F",      // buffer base
		"95",      // PA config
		"wr:08E7", // OCP
		"rd:08D8", // tx clamp read-modify-write
		"wr:08D8",
		"wr:08AC", // rx gain
		"8E",      // tx params
		"08",      // DIO IRQ params
		"93",      // fallback mode
	}
	require.Equal(t, want, frameOps(st.frames))

	require.Equal(t, []byte{0x80, 0x00}, st.frames[0])
	require.Equal(t, []byte{0x8A, 0x01}, st.frames[4])
	require.Equal(t, []byte{0x86, 0x39, 0x30, 0x00, 0x00}, st.frames[5])
	require.Equal(t, []byte{0x98, 0xE1, 0xE9}, st.frames[6])
	require.Equal(t, []byte{0x8B, 0x07, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}, st.frames[7])
	require.Equal(t, []byte{0x8C, 0x00, 0x08, 0x00, 0xFF, 0x01, 0x00, 0x00, 0x00, 0x00}, st.frames[8])
	require.Equal(t, []byte{0x0D, 0x07, 0x40, 0x14, 0x24}, st.frames[9])
	require.Equal(t, []byte{0x95, 0x04, 0x07, 0x00, 0x01}, st.frames[16])
	require.Equal(t, []byte{0x8E, 0x16, 0x04}, st.frames[21])
	require.Equal(t, []byte{0x08, 0x01, 0x23, 0x01, 0x23, 0x00, 0x00, 0x00, 0x00}, st.frames[22])
	require.Equal(t, []byte{0x93, 0x20}, st.frames[23])

	require.Equal(t, sx1262.ModeStandbyRC, d.CurrentMode())
}

func TestApplyGfskSequence(t *testing.T) {
	st := &stubTransport{}
	d := sx1262.New(st)

	p := New915Gfsk(50000)
	require.NoError(t, p.Apply(d))

	want := []string{
		"80", "96", "9D", "89",
		"8A", "86", "98",
		"8B", "8C",
		"wr:06C0", // GFSK sync word
		"wr:06BC", // CRC seed and polynomial
		"wr:06B8", // whitening seed
		"rd:0889",
		"wr:0889",
		"8F", "95",
		"wr:08E7",
		"rd:08D8",
		"wr:08D8",
		"wr:08AC",
		"8E", "08", "93",
	}
	require.Equal(t, want, frameOps(st.frames))

	require.Equal(t, []byte{0x8A, 0x00}, st.frames[4])
	// Two sync bytes land at the head of the 8-byte block.
	require.Equal(t, []byte{0x0D, 0x06, 0xC0, 0xD3, 0x91, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, st.frames[9])
	// CRC-16-CCITT seed and polynomial by default.
	require.Equal(t, []byte{0x0D, 0x06, 0xBC, 0x1D, 0x0F, 0x10, 0x21}, st.frames[10])
	require.Equal(t, []byte{0x0D, 0x06, 0xB8, 0x01, 0x00}, st.frames[11])
}

func TestApplyTcxoSequence(t *testing.T) {
	st := &stubTransport{}
	d := sx1262.New(st)

	p := New915LoRaStandard(sx1262.SF7)
	p.Calibrate = false
	p.Tcxo = &TcxoSettings{Voltage: sx1262.Tcxo1V8, DelayMs: 5}
	require.NoError(t, p.Apply(d))

	ops := frameOps(st.frames)
	// TCXO switch, error clear, then calibration even with the
	// calibrate flag off.
	require.Equal(t, []string{"80", "96", "97", "07", "9D", "89"}, ops[:6])
	require.Equal(t, []byte{0x97, 0x02, 0x00, 0x01, 0x40}, st.frames[2])
}

func TestApplyEntryRx(t *testing.T) {
	st := &stubTransport{}
	d := sx1262.New(st)

	p := New915LoRaStandard(sx1262.SF8)
	p.Entry = EntryRx
	require.NoError(t, p.Apply(d))

	last := st.frames[len(st.frames)-1]
	require.Equal(t, []byte{0x82, 0xFF, 0xFF, 0xFF}, last)
	require.Equal(t, sx1262.ModeRX, d.CurrentMode())
}

func TestApplySX1261Variant(t *testing.T) {
	st := &stubTransport{}
	d := sx1262.New(st)

	p := New433Gfsk(9600)
	p.Part = sx1262.PartSX1261
	p.TxPowerDBm = 15
	require.NoError(t, p.Apply(d))

	ops := frameOps(st.frames)
	require.NotContains(t, ops, "rd:08D8")
	require.NotContains(t, ops, "wr:08D8")

	var pa, ocp, tx []byte
	for _, f := range st.frames {
		switch frameOp(f) {
		case "95":
			pa = f
		case "wr:08E7":
			ocp = f
		case "8E":
			tx = f
		}
	}
	require.Equal(t, []byte{0x95, 0x06, 0x00, 0x01, 0x01}, pa)
	require.Equal(t, []byte{0x0D, 0x08, 0xE7, 0x18}, ocp)
	// +15 dBm requests clamp to the commanded +14 ceiling.
	require.Equal(t, []byte{0x8E, 0x0E, 0x04}, tx)
}

func TestApplyAbortsOnTransportError(t *testing.T) {
	busErr := errors.New("spi glitch")
	st := &stubTransport{failAt: 5, err: busErr}
	d := sx1262.New(st)

	err := New915LoRaStandard(sx1262.SF7).Apply(d)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to set packet type")

	var te *sx1262.TransportError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, busErr)

	require.Len(t, st.frames, 5)
	require.Equal(t, sx1262.ModeUnknown, d.CurrentMode())
}

func TestApplyAbortsOnBadBandwidth(t *testing.T) {
	st := &stubTransport{}
	d := sx1262.New(st)

	p := New915LoRaStandard(sx1262.SF7)
	p.LoRa.BandwidthHz = 100000
	err := p.Apply(d)

	var re *sx1262.RangeError
	require.ErrorAs(t, err, &re)
	// Everything up to the modulation step already ran.
	require.Len(t, st.frames, 7)
	require.Equal(t, sx1262.ModeStandbyRC, d.CurrentMode())
}

func TestApplyRejectsInvalidProfiles(t *testing.T) {
	cases := map[string]*Profile{
		"no modem":    {Name: "empty", FrequencyHz: 915000000},
		"both modems": {Name: "both", FrequencyHz: 915000000, LoRa: &LoRaSettings{}, Gfsk: &GfskSettings{}},
	}
	bad := New915LoRaStandard(sx1262.SF7)
	bad.Entry = EntryMode("fs")
	cases["bad entry"] = bad

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			st := &stubTransport{}
			d := sx1262.New(st)

			var re *sx1262.RangeError
			require.ErrorAs(t, p.Apply(d), &re)
			require.Empty(t, st.frames)
		})
	}
}

func TestAllPresetsApply(t *testing.T) {
	presets := []*Profile{
		New915LoRaStandard(sx1262.SF7),
		New915LoRaStandard(sx1262.SF10),
		New915LoRaFast(),
		New915LoRaLongRange(),
		New915Gfsk(50000),
		New915Gfsk(100000),
		New915Gfsk(150000),
		New915GfskAddressed(0x01, 0xFF),
		New868LoRaStandard(sx1262.SF9),
		New868LoRaPublic(),
		New868LoRaLongRange(),
		New868Gfsk(38400),
		New868Gfsk(100000),
		New433LoRaSensor(sx1262.SF8),
		New433LoRaNarrow(),
		New433Gfsk(9600),
		New433Gfsk(38400),
		New315GfskRemote(2400),
		New315GfskRemote(9600),
		New315LoRaTelemetry(sx1262.SF10),
		NewLongRange("433"),
		NewLongRange("868"),
		NewLongRange("915"),
		NewHighSpeed("915"),
		NewRobust("868"),
		NewBalanced("433"),
		NewSpectrumMonitor(433920000),
		NewSpectrumMonitor(915000000),
		NewWhiteningVariant(true),
		NewCrcVariant(sx1262.GfskCrcOff, "off"),
		NewPreambleDetectorVariant(32),
		NewPreambleLengthVariant(64),
		NewSyncLengthVariant(HexBytes{0xD3, 0x91, 0xD3, 0x91, 0xD3, 0x91, 0xD3, 0x91}, "long"),
		NewFixedLengthVariant(8),
		NewVariableLengthVariant(255),
		NewImplicitHeaderVariant(16),
		NewInvertedIqVariant(),
		NewAddressFilterVariant(0x42),
		NewMaxPacketSize(),
		NewMinPacketSize(),
	}

	for _, p := range presets {
		t.Run(p.Name, func(t *testing.T) {
			st := &stubTransport{}
			d := sx1262.New(st)
			require.NoError(t, p.Apply(d))
			require.NotEmpty(t, st.frames)
		})
	}
}
