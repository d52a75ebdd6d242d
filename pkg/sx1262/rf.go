package sx1262

// SetPacketType selects the GFSK or LoRa modem. The chip resets the
// modulation and packet parameters of the previous modem, so this is
// always the first configuration command after standby.
func (d *Device) SetPacketType(pt PacketType) error {
	if pt != PacketTypeGfsk && pt != PacketTypeLoRa {
		return rangeErrorf("packet type", "code 0x%02X not documented", byte(pt))
	}
	_, err := d.execute(command{
		name:   "SetPacketType",
		opcode: OpSetPacketType,
		params: []byte{byte(pt)},
		legal:  configModes,
	})
	if err != nil {
		return err
	}
	d.packetType = pt
	return nil
}

// GetPacketType reads back the active modem selection.
func (d *Device) GetPacketType() (PacketType, error) {
	resp, err := d.execute(command{
		name:    "GetPacketType",
		opcode:  OpGetPacketType,
		respLen: 2, // status byte, then the packet type
	})
	if err != nil {
		return 0, err
	}
	pt := PacketType(resp[1])
	if pt == PacketTypeGfsk || pt == PacketTypeLoRa {
		d.packetType = pt
	}
	return pt, nil
}

// SetRfFrequency tunes the PLL for both TX and RX. hz must lie in the
// chip's 150-960 MHz range; the frequency is loaded as a 32-bit count
// of 32 MHz / 2^25 steps, about 0.95 Hz per step.
func (d *Device) SetRfFrequency(hz uint32) error {
	if hz < MinFrequencyHz || hz > MaxFrequencyHz {
		return rangeErrorf("rf frequency", "%d Hz not in %d-%d", hz, MinFrequencyHz, MaxFrequencyHz)
	}
	f := pllSteps(hz)
	_, err := d.execute(command{
		name:   "SetRfFrequency",
		opcode: OpSetRfFrequency,
		params: []byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)},
		legal:  configModes,
	})
	return err
}

// SetTxParams sets the output power in dBm and the PA ramp time. The
// legal power range follows the part selected by the last SetPaConfig:
// -9 to +22 dBm on the SX1262, -17 to +14 dBm on the SX1261.
func (d *Device) SetTxParams(power int8, ramp RampTime) error {
	min, max := int8(MinPowerSX1262), int8(MaxPowerSX1262)
	if d.part == PartSX1261 {
		min, max = MinPowerSX1261, MaxPowerSX1261
	}
	if power < min || power > max {
		return rangeErrorf("tx power", "%d dBm not in %d..%d for the %s", power, min, max, d.part)
	}
	if ramp > Ramp3400us {
		return rangeErrorf("ramp time", "code 0x%02X not documented", byte(ramp))
	}
	_, err := d.execute(command{
		name:   "SetTxParams",
		opcode: OpSetTxParams,
		params: []byte{byte(power), byte(ramp)},
		legal:  configModes,
	})
	return err
}

// SetModulationParams loads the modem parameters. The variant must
// match the packet type selected by SetPacketType.
func (d *Device) SetModulationParams(p ModulationParams) error {
	if d.packetType != packetTypeNone && d.packetType != p.packetType() {
		return &IllegalStateError{Op: "SetModulationParams", State: "packet type " + d.packetType.String()}
	}
	params, err := p.modulationBytes()
	if err != nil {
		return err
	}
	_, err = d.execute(command{
		name:   "SetModulationParams",
		opcode: OpSetModulationParams,
		params: params,
		legal:  configModes,
	})
	return err
}

// SetPacketParams loads the packet framing parameters. The variant
// must match the packet type selected by SetPacketType.
func (d *Device) SetPacketParams(p PacketParams) error {
	if d.packetType != packetTypeNone && d.packetType != p.packetType() {
		return &IllegalStateError{Op: "SetPacketParams", State: "packet type " + d.packetType.String()}
	}
	params, err := p.packetBytes()
	if err != nil {
		return err
	}
	_, err = d.execute(command{
		name:   "SetPacketParams",
		opcode: OpSetPacketParams,
		params: params,
		legal:  configModes,
	})
	return err
}

// SetCadParams tunes channel activity detection. LoRa only.
func (d *Device) SetCadParams(p CadParams) error {
	if d.packetType == PacketTypeGfsk {
		return &IllegalStateError{Op: "SetCadParams", State: "packet type GFSK"}
	}
	params, err := p.cadBytes()
	if err != nil {
		return err
	}
	_, err = d.execute(command{
		name:   "SetCadParams",
		opcode: OpSetCadParams,
		params: params,
		legal:  configModes,
	})
	return err
}

// SetBufferBaseAddress places the TX and RX regions inside the shared
// 256-byte data buffer. The buffer does not wrap: an oversized RX
// packet runs over the TX region.
func (d *Device) SetBufferBaseAddress(txBase, rxBase uint8) error {
	_, err := d.execute(command{
		name:   "SetBufferBaseAddress",
		opcode: OpSetBufferBaseAddress,
		params: []byte{txBase, rxBase},
		legal:  configModes,
	})
	return err
}

// SetLoRaSymbNumTimeout requires symbols of valid modulation before a
// LoRa reception counts as detected, filtering false wakeups on noise.
// 0 validates on the first symbol.
func (d *Device) SetLoRaSymbNumTimeout(symbols uint8) error {
	if d.packetType == PacketTypeGfsk {
		return &IllegalStateError{Op: "SetLoRaSymbNumTimeout", State: "packet type GFSK"}
	}
	_, err := d.execute(command{
		name:   "SetLoRaSymbNumTimeout",
		opcode: OpSetLoRaSymbNumTimeout,
		params: []byte{symbols},
		legal:  configModes,
	})
	return err
}
