package sx1262

// SetStandby puts the chip in standby. mode selects the clock source
// and must be ModeStandbyRC or ModeStandbyXosc. StandbyRC is the
// power-on state and the one every configuration command requires.
func (d *Device) SetStandby(mode Mode) error {
	var cfg byte
	switch mode {
	case ModeStandbyRC:
		cfg = 0x00
	case ModeStandbyXosc:
		cfg = 0x01
	default:
		return rangeErrorf("standby mode", "%s is not a standby mode", mode)
	}
	_, err := d.execute(command{
		name:   "SetStandby",
		opcode: OpSetStandby,
		params: []byte{cfg},
		target: mode,
	})
	return err
}

// SetSleep puts the chip in sleep, its lowest-power state. The chip
// stops answering SPI until woken by a chip select edge or, with
// SleepRtcWakeup, by the RTC. Allow ~500 us for the configuration save
// before the next frame.
func (d *Device) SetSleep(cfg SleepConfig) error {
	if cfg&^(SleepWarmStart|SleepRtcWakeup) != 0 {
		return rangeErrorf("sleep config", "bits 0x%02X not documented", byte(cfg))
	}
	_, err := d.execute(command{
		name:   "SetSleep",
		opcode: OpSetSleep,
		params: []byte{byte(cfg)},
		legal:  standbyModes,
		target: ModeSleep,
	})
	return err
}

// SetFs locks the PLL on the configured frequency without keying the
// PA. Mostly a test mode; TX and RX pass through it on their own.
func (d *Device) SetFs() error {
	_, err := d.execute(command{
		name:   "SetFs",
		opcode: OpSetFs,
		legal:  standbyModes,
		target: ModeFS,
	})
	return err
}

// SetTx starts a transmission of the buffer contents. timeout is in
// timer steps of 15.625 us; 0 disables the timeout. The chip drops to
// the fallback mode on TxDone or timeout, which the driver only learns
// through GetIrqStatus or GetStatus.
func (d *Device) SetTx(timeout uint32) error {
	if timeout > MaxTimeoutSteps {
		return rangeErrorf("tx timeout", "%d exceeds %d steps", timeout, MaxTimeoutSteps)
	}
	_, err := d.execute(command{
		name:   "SetTx",
		opcode: OpSetTx,
		params: []byte{byte(timeout >> 16), byte(timeout >> 8), byte(timeout)},
		legal:  entryModes,
		target: ModeTX,
	})
	return err
}

// SetRx starts reception. timeout is in timer steps of 15.625 us;
// RxSingle waits for one packet with no timeout and RxContinuous
// stays in RX across packets until commanded out.
func (d *Device) SetRx(timeout uint32) error {
	if timeout > MaxTimeoutSteps {
		return rangeErrorf("rx timeout", "%d exceeds %d steps", timeout, MaxTimeoutSteps)
	}
	_, err := d.execute(command{
		name:   "SetRx",
		opcode: OpSetRx,
		params: []byte{byte(timeout >> 16), byte(timeout >> 8), byte(timeout)},
		legal:  entryModes,
		target: ModeRX,
	})
	return err
}

// StopTimerOnPreamble makes the RX timeout timer stop on preamble
// detection instead of the default sync word or header detection.
func (d *Device) StopTimerOnPreamble(enable bool) error {
	var cfg byte
	if enable {
		cfg = 1
	}
	_, err := d.execute(command{
		name:   "StopTimerOnPreamble",
		opcode: OpStopTimerOnPreamble,
		params: []byte{cfg},
		legal:  configModes,
	})
	return err
}

// SetRxDutyCycle cycles the chip between rxPeriod of listening and
// sleepPeriod of sleep, both in timer steps, until a packet arrives or
// a SetStandby interrupts the loop. registers.StopDutyCycleTimer has
// the documented cleanup for stopping the loop by command.
func (d *Device) SetRxDutyCycle(rxPeriod, sleepPeriod uint32) error {
	if rxPeriod > MaxTimeoutSteps {
		return rangeErrorf("rx period", "%d exceeds %d steps", rxPeriod, MaxTimeoutSteps)
	}
	if sleepPeriod > MaxTimeoutSteps {
		return rangeErrorf("sleep period", "%d exceeds %d steps", sleepPeriod, MaxTimeoutSteps)
	}
	_, err := d.execute(command{
		name:   "SetRxDutyCycle",
		opcode: OpSetRxDutyCycle,
		params: []byte{
			byte(rxPeriod >> 16), byte(rxPeriod >> 8), byte(rxPeriod),
			byte(sleepPeriod >> 16), byte(sleepPeriod >> 8), byte(sleepPeriod),
		},
		legal:  standbyModes,
		target: ModeRX,
	})
	return err
}

// SetCad runs one channel activity detection scan with the parameters
// from SetCadParams. LoRa only. The chip raises CadDone when the scan
// ends and falls back per the configured exit mode.
func (d *Device) SetCad() error {
	if d.packetType == PacketTypeGfsk {
		return &IllegalStateError{Op: "SetCad", State: "packet type GFSK"}
	}
	_, err := d.execute(command{
		name:   "SetCad",
		opcode: OpSetCad,
		legal:  standbyModes,
		target: ModeRX,
	})
	return err
}

// SetTxContinuousWave keys an unmodulated carrier at the configured
// frequency and power. Test mode; leave it with SetStandby.
func (d *Device) SetTxContinuousWave() error {
	_, err := d.execute(command{
		name:   "SetTxContinuousWave",
		opcode: OpSetTxContinuousWave,
		legal:  standbyModes,
		target: ModeTX,
	})
	return err
}

// SetTxInfinitePreamble transmits preamble forever: alternating bits
// in GFSK, preamble symbols in LoRa. Test mode; leave it with
// SetStandby.
func (d *Device) SetTxInfinitePreamble() error {
	_, err := d.execute(command{
		name:   "SetTxInfinitePreamble",
		opcode: OpSetTxInfinitePreamble,
		legal:  standbyModes,
		target: ModeTX,
	})
	return err
}

// SetRegulatorMode selects LDO-only or DC-DC operation. DC-DC needs
// the external inductor fitted.
func (d *Device) SetRegulatorMode(mode RegulatorMode) error {
	if mode != RegulatorLdo && mode != RegulatorDcDc {
		return rangeErrorf("regulator mode", "code 0x%02X not documented", byte(mode))
	}
	_, err := d.execute(command{
		name:   "SetRegulatorMode",
		opcode: OpSetRegulatorMode,
		params: []byte{byte(mode)},
		legal:  configModes,
	})
	return err
}

// Calibrate runs the selected calibration blocks. The chip holds BUSY
// high for up to 3.5 ms; wait on it before the next command.
func (d *Device) Calibrate(blocks CalibParam) error {
	if blocks&^CalibAll != 0 {
		return rangeErrorf("calibration blocks", "bits 0x%02X not documented", byte(blocks))
	}
	_, err := d.execute(command{
		name:   "Calibrate",
		opcode: OpCalibrate,
		params: []byte{byte(blocks)},
		legal:  configModes,
	})
	return err
}

// CalibrateImage recalibrates image rejection for the band delimited
// by the two frequency codes. CalibrateImageForFrequency picks the
// documented codes for the common bands.
func (d *Device) CalibrateImage(freq1, freq2 byte) error {
	_, err := d.execute(command{
		name:   "CalibrateImage",
		opcode: OpCalibrateImage,
		params: []byte{freq1, freq2},
		legal:  configModes,
	})
	return err
}

// CalibrateImageForFrequency runs image calibration with the
// datasheet's band codes for the band containing hz. The power-on
// calibration covers 902-928 MHz only, so call this after moving to
// any other band.
func (d *Device) CalibrateImageForFrequency(hz uint32) error {
	freq1, freq2, err := imageCalibBand(hz)
	if err != nil {
		return err
	}
	return d.CalibrateImage(freq1, freq2)
}

// imageCalibBand maps a frequency to the documented image calibration
// band codes.
func imageCalibBand(hz uint32) (byte, byte, error) {
	switch {
	case hz >= 900_000_000:
		return 0xE1, 0xE9, nil // 902-928 MHz
	case hz >= 850_000_000:
		return 0xD7, 0xDB, nil // 863-870 MHz
	case hz >= 770_000_000:
		return 0xC1, 0xC5, nil // 779-787 MHz
	case hz >= 460_000_000:
		return 0x75, 0x81, nil // 470-510 MHz
	case hz >= 425_000_000:
		return 0x6B, 0x6F, nil // 430-440 MHz
	default:
		return 0, 0, rangeErrorf("image calibration", "no documented band for %d Hz", hz)
	}
}

// SetPaConfig sizes the power amplifier and selects the part variant,
// which in turn bounds the legal SetTxParams power range. Use the Pa*
// presets for the datasheet's optimal combinations.
func (d *Device) SetPaConfig(cfg PaConfig) error {
	if cfg.Part != PartSX1261 && cfg.Part != PartSX1262 {
		return rangeErrorf("part", "code 0x%02X not documented", byte(cfg.Part))
	}
	if cfg.Part == PartSX1262 && cfg.DutyCycle > 0x04 {
		return rangeErrorf("pa duty cycle", "0x%02X exceeds 0x04 on the SX1262", cfg.DutyCycle)
	}
	if cfg.DutyCycle > 0x07 {
		return rangeErrorf("pa duty cycle", "0x%02X exceeds 0x07", cfg.DutyCycle)
	}
	if cfg.HpMax > 0x07 {
		return rangeErrorf("pa hp max", "0x%02X exceeds 0x07", cfg.HpMax)
	}
	_, err := d.execute(command{
		name:   "SetPaConfig",
		opcode: OpSetPaConfig,
		params: []byte{cfg.DutyCycle, cfg.HpMax, byte(cfg.Part), 0x01},
		legal:  configModes,
	})
	if err != nil {
		return err
	}
	d.part = cfg.Part
	return nil
}

// SetRxTxFallbackMode selects the mode the chip drops to after a
// packet operation ends.
func (d *Device) SetRxTxFallbackMode(fb FallbackMode) error {
	switch fb {
	case FallbackStandbyRC, FallbackStandbyXosc, FallbackFS:
	default:
		return rangeErrorf("fallback mode", "code 0x%02X not documented", byte(fb))
	}
	_, err := d.execute(command{
		name:   "SetRxTxFallbackMode",
		opcode: OpSetRxTxFallbackMode,
		params: []byte{byte(fb)},
		legal:  configModes,
	})
	return err
}
