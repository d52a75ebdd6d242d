package registers

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Read reads one register and decodes its field value.
func Read(d *sx1262.Device, r Register) (uint32, error) {
	data, err := d.ReadRegister(r.Address, r.Width)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", r.Name, err)
	}
	return r.Decode(data)
}

// Write encodes a field value and writes it to the register.
func Write(d *sx1262.Device, r Register, value uint32) error {
	if r.ReadOnly {
		return &sx1262.RangeError{Param: r.Name, Msg: "register is read-only"}
	}
	data, err := r.Encode(value)
	if err != nil {
		return err
	}
	if err := d.WriteRegister(r.Address, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.Name, err)
	}
	return nil
}

// update does a read-modify-write, clearing clear and setting set.
func update(d *sx1262.Device, r Register, clear, set uint8) error {
	data, err := d.ReadRegister(r.Address, 1)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.Name, err)
	}
	v := data[0]&^clear | set
	if v == data[0] {
		return nil
	}
	if err := d.WriteRegister(r.Address, []byte{v}); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.Name, err)
	}
	return nil
}

// ReadAllRegisters reads every writable retained register into a
// RegisterMap. The GFSK packet engine block is fetched in one transfer;
// the scattered front-end registers are read individually.
func ReadAllRegisters(d *sx1262.Device) (*RegisterMap, error) {
	reg := &RegisterMap{}

	// GFSK block 0x06B8-0x06CE, 23 bytes including reserved gaps
	blk, err := d.ReadRegister(0x06B8, 23)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet engine block: %w", err)
	}
	reg.WhiteningInit = uint16(blk[0]&0x01)<<8 | uint16(blk[1])
	reg.CrcInit = uint16(blk[4])<<8 | uint16(blk[5])
	reg.CrcPoly = uint16(blk[6])<<8 | uint16(blk[7])
	copy(reg.SyncWord[:], blk[8:16])
	reg.NodeAddress = blk[21]
	reg.BroadcastAddress = blk[22]

	blk, err = d.ReadRegister(IqPolaritySetup.Address, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read IQ polarity setup: %w", err)
	}
	reg.IqPolarity = blk[0]

	blk, err = d.ReadRegister(LoRaSyncWord.Address, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to read LoRa sync word: %w", err)
	}
	reg.LoRaSyncWord = uint16(blk[0])<<8 | uint16(blk[1])

	singles := []struct {
		reg Register
		dst *uint8
	}{
		{TxModulation, &reg.TxModulation},
		{RxGain, &reg.RxGain},
		{TxClampConfig, &reg.TxClampConfig},
		{OcpConfiguration, &reg.OcpConfig},
	}
	for _, s := range singles {
		blk, err = d.ReadRegister(s.reg.Address, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.reg.Name, err)
		}
		*s.dst = blk[0]
	}

	// XTA and XTB trim are adjacent
	blk, err = d.ReadRegister(XtaTrim.Address, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to read crystal trim: %w", err)
	}
	reg.XtaTrim = blk[0]
	reg.XtbTrim = blk[1]

	return reg, nil
}

// WriteAllRegisters writes every writable retained register from a
// RegisterMap. Reserved gaps in the packet engine block are skipped.
func WriteAllRegisters(d *sx1262.Device, reg *RegisterMap) error {
	whitening, err := WhiteningInitialValue.Encode(uint32(reg.WhiteningInit))
	if err != nil {
		return err
	}
	if err := d.WriteRegister(WhiteningInitialValue.Address, whitening); err != nil {
		return fmt.Errorf("failed to write whitening seed: %w", err)
	}

	crc := []byte{
		byte(reg.CrcInit >> 8), byte(reg.CrcInit),
		byte(reg.CrcPoly >> 8), byte(reg.CrcPoly),
	}
	if err := d.WriteRegister(CrcInitialValue.Address, crc); err != nil {
		return fmt.Errorf("failed to write CRC registers: %w", err)
	}

	if err := d.WriteRegister(syncWordAddr, reg.SyncWord[:]); err != nil {
		return fmt.Errorf("failed to write sync word: %w", err)
	}

	addrs := []byte{reg.NodeAddress, reg.BroadcastAddress}
	if err := d.WriteRegister(NodeAddress.Address, addrs); err != nil {
		return fmt.Errorf("failed to write address filter: %w", err)
	}

	if err := d.WriteRegister(IqPolaritySetup.Address, []byte{reg.IqPolarity}); err != nil {
		return fmt.Errorf("failed to write IQ polarity setup: %w", err)
	}

	sync := []byte{byte(reg.LoRaSyncWord >> 8), byte(reg.LoRaSyncWord)}
	if err := d.WriteRegister(LoRaSyncWord.Address, sync); err != nil {
		return fmt.Errorf("failed to write LoRa sync word: %w", err)
	}

	singles := []struct {
		reg Register
		val uint8
	}{
		{TxModulation, reg.TxModulation},
		{RxGain, reg.RxGain},
		{TxClampConfig, reg.TxClampConfig},
		{OcpConfiguration, reg.OcpConfig},
	}
	for _, s := range singles {
		if err := d.WriteRegister(s.reg.Address, []byte{s.val}); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.reg.Name, err)
		}
	}

	trim := []byte{reg.XtaTrim, reg.XtbTrim}
	if err := d.WriteRegister(XtaTrim.Address, trim); err != nil {
		return fmt.Errorf("failed to write crystal trim: %w", err)
	}

	return nil
}

// GetGfskSyncWord reads the 8-byte GFSK sync word block. Only the
// leading SyncWordLength bits configured in the packet params are
// matched on the air.
func GetGfskSyncWord(d *sx1262.Device) ([]byte, error) {
	return d.ReadRegister(syncWordAddr, syncWordLen)
}

// SetGfskSyncWord writes the GFSK sync word, zero-padding to the full
// 8-byte block so stale bytes never leak into longer sync lengths.
func SetGfskSyncWord(d *sx1262.Device, word []byte) error {
	if len(word) > syncWordLen {
		return &sx1262.RangeError{Param: "sync word",
			Msg: fmt.Sprintf("%d bytes exceeds %d", len(word), syncWordLen)}
	}
	padded := make([]byte, syncWordLen)
	copy(padded, word)
	if err := d.WriteRegister(syncWordAddr, padded); err != nil {
		return fmt.Errorf("failed to write sync word: %w", err)
	}
	return nil
}

// SetAddressFilter loads the node and broadcast addresses the GFSK
// packet engine filters on when SetPacketParams enables filtering.
func SetAddressFilter(d *sx1262.Device, node, broadcast uint8) error {
	if err := d.WriteRegister(NodeAddress.Address, []byte{node, broadcast}); err != nil {
		return fmt.Errorf("failed to write address filter: %w", err)
	}
	return nil
}

// SetGfskCrc loads the CRC seed and polynomial for the configured GFSK
// CRC type. The defaults compute CRC-16-CCITT.
func SetGfskCrc(d *sx1262.Device, seed, poly uint16) error {
	data := []byte{byte(seed >> 8), byte(seed), byte(poly >> 8), byte(poly)}
	if err := d.WriteRegister(CrcInitialValue.Address, data); err != nil {
		return fmt.Errorf("failed to write CRC registers: %w", err)
	}
	return nil
}

// SetGfskWhitening loads the 9-bit whitening LFSR seed.
func SetGfskWhitening(d *sx1262.Device, seed uint16) error {
	return Write(d, WhiteningInitialValue, uint32(seed))
}

// UseLoRaPublicNetwork selects the public (LoRaWAN) or private LoRa
// sync word.
func UseLoRaPublicNetwork(d *sx1262.Device, public bool) error {
	word := uint32(LoRaSyncPrivate)
	if public {
		word = LoRaSyncPublic
	}
	return Write(d, LoRaSyncWord, word)
}

// OptimizeIqPolarity applies the documented IQ setup: bit 2 of the
// IqPolaritySetup register must be cleared for inverted IQ reception
// and set for standard IQ. Call it whenever the packet params change
// the InvertIq flag.
func OptimizeIqPolarity(d *sx1262.Device, inverted bool) error {
	if inverted {
		return update(d, IqPolaritySetup, iqSetupBit, 0)
	}
	return update(d, IqPolaritySetup, 0, iqSetupBit)
}

// CompensateTxModulation applies the documented modulation quality
// setting: bit 2 of TxModulation must be cleared for LoRa at 500 kHz
// bandwidth and set for every other configuration.
func CompensateTxModulation(d *sx1262.Device, pt sx1262.PacketType, bw sx1262.LoRaBandwidth) error {
	if pt == sx1262.PacketTypeLoRa && bw == sx1262.LoRaBw500 {
		return update(d, TxModulation, txModulationBit, 0)
	}
	return update(d, TxModulation, 0, txModulationBit)
}

// ApplyTxClampFix raises the SX1262 PA clamping threshold (bits 4:1 of
// TxClampConfig), the documented protection for antenna mismatch on
// the high-power PA. Harmless on the SX1261.
func ApplyTxClampFix(d *sx1262.Device) error {
	return update(d, TxClampConfig, 0, txClampBits)
}

// SetRxBoostedGain trades ~2 mA of RX current for ~2 dB of
// sensitivity. The setting is lost in cold-start sleep unless the
// register is on the retention list.
func SetRxBoostedGain(d *sx1262.Device, boosted bool) error {
	v := uint32(RxGainPowerSaving)
	if boosted {
		v = RxGainBoosted
	}
	return Write(d, RxGain, v)
}

// SetOvercurrentProtection loads the documented OCP limit for the
// part: 60 mA for the SX1261, 140 mA for the SX1262. SetPaConfig
// resets this register, so reapply it afterwards.
func SetOvercurrentProtection(d *sx1262.Device, part sx1262.Part) error {
	v := uint32(OcpSX1262)
	if part == sx1262.PartSX1261 {
		v = OcpSX1261
	}
	return Write(d, OcpConfiguration, v)
}

// SetCrystalTrim adjusts the XTA/XTB load capacitors. Trim values run
// 0x00 (11.3 pF) to 0x2F (33.4 pF); the chip must be in StandbyXosc
// so the write reaches the live oscillator.
func SetCrystalTrim(d *sx1262.Device, xta, xtb uint8) error {
	if xta > maxCrystalTrim || xtb > maxCrystalTrim {
		return &sx1262.RangeError{Param: "crystal trim",
			Msg: fmt.Sprintf("trim exceeds 0x%02X", maxCrystalTrim)}
	}
	if err := d.WriteRegister(XtaTrim.Address, []byte{xta, xtb}); err != nil {
		return fmt.Errorf("failed to write crystal trim: %w", err)
	}
	return nil
}

// StopDutyCycleTimer stops the RTC behind SetRxDutyCycle and clears a
// pending timeout event, the documented sequence for leaving the
// listen loop by command instead of by packet.
func StopDutyCycleTimer(d *sx1262.Device) error {
	if err := Write(d, RtcControl, 0); err != nil {
		return fmt.Errorf("failed to stop RTC: %w", err)
	}
	if err := update(d, EventMask, 0, rtcEventBit); err != nil {
		return fmt.Errorf("failed to clear RTC event: %w", err)
	}
	return nil
}

// GetRandom reads the 32-bit entropy register. The value is refreshed
// from receiver noise, so put the chip in RX first for fresh entropy;
// outside RX it returns the last captured value.
func GetRandom(d *sx1262.Device) (uint32, error) {
	return Read(d, RandomNumber)
}

// RetainRegisters loads the sleep retention list: up to 4 register
// addresses whose values survive warm-start sleep in addition to the
// built-in retained set.
func RetainRegisters(d *sx1262.Device, regs ...Register) error {
	if len(regs) > maxRetained {
		return &sx1262.RangeError{Param: "retention list",
			Msg: fmt.Sprintf("%d registers exceeds %d", len(regs), maxRetained)}
	}
	data := make([]byte, 1+2*maxRetained)
	data[0] = byte(len(regs))
	for i, r := range regs {
		data[1+2*i] = byte(r.Address >> 8)
		data[2+2*i] = byte(r.Address)
	}
	if err := d.WriteRegister(retentionListAddr, data); err != nil {
		return fmt.Errorf("failed to write retention list: %w", err)
	}
	return nil
}
