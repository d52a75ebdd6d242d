package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BroderickCarlin/gosx1262/pkg/registers"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// stubTransport serves register reads from a sparse register file,
// records register writes, and answers the status and packet type
// commands from fixed bytes.
type stubTransport struct {
	frames  [][]byte
	regs    map[uint16]byte
	writes  map[uint16][]byte
	status  byte
	pktType byte
}

func newStubTransport(status byte) *stubTransport {
	return &stubTransport{
		regs:   make(map[uint16]byte),
		writes: make(map[uint16][]byte),
		status: status,
	}
}

func (st *stubTransport) poke(addr uint16, data ...byte) {
	for i, b := range data {
		st.regs[addr+uint16(i)] = b
	}
}

func (st *stubTransport) Exchange(frame []byte) ([]byte, error) {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	st.frames = append(st.frames, cp)

	resp := make([]byte, len(frame))
	switch frame[0] {
	case 0x1D: // register read
		addr := uint16(frame[1])<<8 | uint16(frame[2])
		for i := range resp[4:] {
			resp[4+i] = st.regs[addr+uint16(i)]
		}
	case 0x0D: // register write
		addr := uint16(frame[1])<<8 | uint16(frame[2])
		st.writes[addr] = append([]byte(nil), frame[3:]...)
	case 0xC0: // GetStatus
		resp[1] = st.status
	case 0x11: // GetPacketType
		resp[1] = st.status
		resp[2] = st.pktType
	}
	return resp, nil
}

// statusStandbyRC reports StandbyRC with data available.
const statusStandbyRC = 0x24

// pokeDefaults loads the chip's reset values into the register file.
func pokeDefaults(st *stubTransport) {
	st.poke(0x06B8, 0x01, 0x00)             // whitening seed 0x0100
	st.poke(0x06BC, 0x1D, 0x0F, 0x10, 0x21) // CRC seed and polynomial
	st.poke(0x06C0, 0x97, 0x23, 0x52, 0x25, 0x56, 0x53, 0x65, 0x64)
	st.poke(0x06CD, 0x11) // node address
	st.poke(0x06CE, 0x22) // broadcast address
	st.poke(0x0736, 0x0D)
	st.poke(0x0740, 0x14, 0x24) // private LoRa sync word
	st.poke(0x0889, 0x04)
	st.poke(0x08AC, 0x94) // power-saving RX gain
	st.poke(0x08D8, 0x38)
	st.poke(0x08E7, 0x38) // 140 mA OCP
	st.poke(0x0911, 0x05, 0x05)
}

func TestDumpFromDevice(t *testing.T) {
	st := newStubTransport(statusStandbyRC)
	st.pktType = byte(sx1262.PacketTypeLoRa)
	pokeDefaults(st)

	d := sx1262.New(st)
	cfg, err := DumpFromDevice(d)
	require.NoError(t, err)

	assert.Equal(t, sx1262.PacketTypeLoRa.String(), cfg.PacketType)
	assert.Equal(t, "StandbyRC", cfg.Telemetry.Mode)

	assert.Equal(t, uint16(0x0100), cfg.Registers.WhiteningInit)
	assert.Equal(t, uint16(0x1D0F), cfg.Registers.CrcInit)
	assert.Equal(t, uint16(0x1021), cfg.Registers.CrcPoly)
	assert.Equal(t, [8]uint8{0x97, 0x23, 0x52, 0x25, 0x56, 0x53, 0x65, 0x64}, cfg.Registers.SyncWord)
	assert.Equal(t, uint8(0x11), cfg.Registers.NodeAddress)
	assert.Equal(t, uint8(0x22), cfg.Registers.BroadcastAddress)
	assert.Equal(t, uint16(0x1424), cfg.Registers.LoRaSyncWord)
	assert.Equal(t, uint8(0x94), cfg.Registers.RxGain)
	assert.Equal(t, uint8(0x38), cfg.Registers.OcpConfig)
	assert.Equal(t, uint8(0x05), cfg.Registers.XtaTrim)
	assert.Equal(t, uint8(0x05), cfg.Registers.XtbTrim)
}

func TestDumpRestoresReceiveMode(t *testing.T) {
	// Chip is receiving when the dump starts.
	st := newStubTransport(0x54)
	pokeDefaults(st)

	d := sx1262.New(st)
	_, err := DumpFromDevice(d)
	require.NoError(t, err)

	// The dump parks the chip in standby for the reads and re-enters
	// RX at the end.
	var sawStandby, sawRx bool
	for _, f := range st.frames {
		switch f[0] {
		case 0x80:
			sawStandby = true
		case 0x82:
			sawRx = true
		}
	}
	assert.True(t, sawStandby, "dump must park the chip in standby")
	assert.True(t, sawRx, "dump must restore receive mode")
	assert.Equal(t, sx1262.ModeRX, d.CurrentMode())
}

func TestApplyToDevice(t *testing.T) {
	st := newStubTransport(statusStandbyRC)

	cfg := &DeviceConfig{
		Registers: registers.RegisterMap{
			WhiteningInit:    0x01FF,
			CrcInit:          0x1D0F,
			CrcPoly:          0x1021,
			SyncWord:         [8]uint8{0xDE, 0xAD, 0xBE, 0xEF},
			NodeAddress:      0x42,
			BroadcastAddress: 0xFF,
			IqPolarity:       0x0D,
			LoRaSyncWord:     0x3444,
			TxModulation:     0x04,
			RxGain:           0x96,
			TxClampConfig:    0x38,
			OcpConfig:        0x18,
			XtaTrim:          0x12,
			XtbTrim:          0x10,
		},
	}

	d := sx1262.New(st)
	require.NoError(t, ApplyToDevice(d, cfg))

	assert.Equal(t, []byte{0x01, 0xFF}, st.writes[0x06B8])
	assert.Equal(t, []byte{0x1D, 0x0F, 0x10, 0x21}, st.writes[0x06BC])
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0}, st.writes[0x06C0])
	assert.Equal(t, []byte{0x42, 0xFF}, st.writes[0x06CD])
	assert.Equal(t, []byte{0x0D}, st.writes[0x0736])
	assert.Equal(t, []byte{0x34, 0x44}, st.writes[0x0740])
	assert.Equal(t, []byte{0x96}, st.writes[0x08AC])
	assert.Equal(t, []byte{0x18}, st.writes[0x08E7])
	assert.Equal(t, []byte{0x12, 0x10}, st.writes[0x0911])
}

func TestDumpApplyRoundTrip(t *testing.T) {
	src := newStubTransport(statusStandbyRC)
	src.pktType = byte(sx1262.PacketTypeGfsk)
	pokeDefaults(src)

	cfg, err := DumpFromDevice(sx1262.New(src))
	require.NoError(t, err)

	// Apply the dump to a second chip and read it back.
	dst := newStubTransport(statusStandbyRC)
	d := sx1262.New(dst)
	require.NoError(t, ApplyToDevice(d, cfg))

	for addr, data := range dst.writes {
		dst.poke(addr, data...)
	}
	readBack, err := registers.ReadAllRegisters(d)
	require.NoError(t, err)
	assert.Equal(t, cfg.Registers, *readBack)
}

func TestConfigFileRoundTrip(t *testing.T) {
	st := newStubTransport(statusStandbyRC)
	pokeDefaults(st)

	cfg, err := DumpFromDevice(sx1262.New(st))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "chip.json")
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Registers, loaded.Registers)
	assert.Equal(t, cfg.PacketType, loaded.PacketType)
}

func TestDisplayHelpers(t *testing.T) {
	cfg := &DeviceConfig{}
	cfg.Registers.LoRaSyncWord = registers.LoRaSyncPublic
	assert.Equal(t, "Public (0x3444)", cfg.GetLoRaSyncWordString())

	cfg.Registers.LoRaSyncWord = 0x1234
	assert.Equal(t, "0x1234", cfg.GetLoRaSyncWordString())

	cfg.Registers.SyncWord = [8]uint8{0xDE, 0xAD, 0, 0, 0, 0, 0, 0}
	assert.Equal(t, "DEAD000000000000", cfg.GetGfskSyncWordHex())

	cfg.Registers.OcpConfig = 0x18
	assert.Equal(t, 60.0, cfg.GetOcpMilliamps())

	cfg.Registers.RxGain = registers.RxGainBoosted
	assert.Equal(t, "Boosted", cfg.GetRxGainString())
}
