package profiles

import (
	"fmt"
	"time"

	"github.com/BroderickCarlin/gosx1262/pkg/registers"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Apply configures the chip for the profile. The command order follows
// the datasheet's bring-up sequence and depends only on which profile
// options are set, never on prior chip state; the first failing step
// aborts with an error naming it.
func (p *Profile) Apply(d *sx1262.Device) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if err := d.SetStandby(sx1262.ModeStandbyRC); err != nil {
		return fmt.Errorf("failed to enter standby: %w", err)
	}
	if err := d.SetRegulatorMode(p.Regulator); err != nil {
		return fmt.Errorf("failed to set regulator mode: %w", err)
	}
	if t := p.Tcxo; t != nil {
		delay := sx1262.TimeoutSteps(time.Duration(t.DelayMs) * time.Millisecond)
		if err := d.SetDio3AsTcxoCtrl(t.Voltage, delay); err != nil {
			return fmt.Errorf("failed to configure TCXO: %w", err)
		}
		// Switching to the TCXO flags XOSC_START_ERR from the earlier
		// crystal start.
		if err := d.ClearDeviceErrors(); err != nil {
			return fmt.Errorf("failed to clear device errors: %w", err)
		}
	}
	if p.Dio2RfSwitch {
		if err := d.SetDio2AsRfSwitchCtrl(true); err != nil {
			return fmt.Errorf("failed to configure RF switch: %w", err)
		}
	}
	if p.Tcxo != nil || p.Calibrate {
		if err := d.Calibrate(sx1262.CalibAll); err != nil {
			return fmt.Errorf("failed to calibrate: %w", err)
		}
	}

	pt := sx1262.PacketTypeLoRa
	if p.Gfsk != nil {
		pt = sx1262.PacketTypeGfsk
	}
	if err := d.SetPacketType(pt); err != nil {
		return fmt.Errorf("failed to set packet type: %w", err)
	}
	if err := d.SetRfFrequency(p.FrequencyHz); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}
	// Power-on image calibration covers 902-928 MHz only. Bands below
	// 430 MHz have no documented codes and are skipped.
	if p.FrequencyHz >= 425_000_000 {
		if err := d.CalibrateImageForFrequency(p.FrequencyHz); err != nil {
			return fmt.Errorf("failed to calibrate image: %w", err)
		}
	}

	var loraBw sx1262.LoRaBandwidth
	if p.LoRa != nil {
		bw, err := p.applyLoRa(d)
		if err != nil {
			return err
		}
		loraBw = bw
	} else {
		if err := p.applyGfsk(d); err != nil {
			return err
		}
	}
	if err := registers.CompensateTxModulation(d, pt, loraBw); err != nil {
		return fmt.Errorf("failed to compensate tx modulation: %w", err)
	}
	if err := d.SetBufferBaseAddress(0, 0); err != nil {
		return fmt.Errorf("failed to set buffer base: %w", err)
	}

	if err := d.SetPaConfig(paPreset(p.Part, p.TxPowerDBm)); err != nil {
		return fmt.Errorf("failed to configure PA: %w", err)
	}
	// SetPaConfig resets the OCP register.
	if err := registers.SetOvercurrentProtection(d, p.Part); err != nil {
		return fmt.Errorf("failed to set overcurrent protection: %w", err)
	}
	if p.Part == sx1262.PartSX1262 {
		if err := registers.ApplyTxClampFix(d); err != nil {
			return fmt.Errorf("failed to apply tx clamp fix: %w", err)
		}
	}
	if err := registers.SetRxBoostedGain(d, p.RxBoostedGain); err != nil {
		return fmt.Errorf("failed to set rx gain: %w", err)
	}
	// The SX1261 reaches its +15 dBm point with the oversized PA at a
	// commanded +14, so the commanded power clamps at the part ceiling.
	power := p.TxPowerDBm
	if p.Part == sx1262.PartSX1261 && power > sx1262.MaxPowerSX1261 {
		power = sx1262.MaxPowerSX1261
	}
	if p.Part == sx1262.PartSX1262 && power > sx1262.MaxPowerSX1262 {
		power = sx1262.MaxPowerSX1262
	}
	if err := d.SetTxParams(power, p.RampTime); err != nil {
		return fmt.Errorf("failed to set tx params: %w", err)
	}
	if err := d.SetDioIrqParams(sx1262.DioMapping{
		Irq:  p.IrqMask,
		Dio1: p.Dio1Mask,
		Dio2: p.Dio2Mask,
		Dio3: p.Dio3Mask,
	}); err != nil {
		return fmt.Errorf("failed to set IRQ routing: %w", err)
	}
	fb := p.FallbackMode
	if fb == 0 {
		fb = sx1262.FallbackStandbyRC
	}
	if err := d.SetRxTxFallbackMode(fb); err != nil {
		return fmt.Errorf("failed to set fallback mode: %w", err)
	}

	switch p.Entry {
	case EntryRx:
		if err := d.SetRx(sx1262.RxContinuous); err != nil {
			return fmt.Errorf("failed to enter receive: %w", err)
		}
	case EntryTx:
		if err := d.SetTx(0); err != nil {
			return fmt.Errorf("failed to enter transmit: %w", err)
		}
	}
	return nil
}

func (p *Profile) applyLoRa(d *sx1262.Device) (sx1262.LoRaBandwidth, error) {
	s := p.LoRa
	bw, err := loRaBandwidthFromHz(s.BandwidthHz)
	if err != nil {
		return 0, err
	}
	cr, err := codingRateFromDenom(s.CodingRate)
	if err != nil {
		return 0, err
	}
	mod := sx1262.LoRaModParams{
		SpreadingFactor:     s.SpreadingFactor,
		Bandwidth:           bw,
		CodingRate:          cr,
		LowDataRateOptimize: s.LowDataRateOptimize || ldroRequired(s.SpreadingFactor, bw),
	}
	if err := d.SetModulationParams(mod); err != nil {
		return 0, fmt.Errorf("failed to set modulation params: %w", err)
	}

	header := sx1262.LoRaHeaderExplicit
	if s.ImplicitHeader {
		header = sx1262.LoRaHeaderImplicit
	}
	pkt := sx1262.LoRaPacketParams{
		PreambleLength: s.PreambleLength,
		HeaderType:     header,
		PayloadLength:  s.PayloadLength,
		CrcOn:          s.CrcOn,
		InvertIq:       s.InvertIq,
	}
	if err := d.SetPacketParams(pkt); err != nil {
		return 0, fmt.Errorf("failed to set packet params: %w", err)
	}

	if err := registers.UseLoRaPublicNetwork(d, s.PublicNetwork); err != nil {
		return 0, fmt.Errorf("failed to set sync word: %w", err)
	}
	if err := registers.OptimizeIqPolarity(d, s.InvertIq); err != nil {
		return 0, fmt.Errorf("failed to set IQ polarity: %w", err)
	}
	if err := d.SetLoRaSymbNumTimeout(s.SymbolTimeout); err != nil {
		return 0, fmt.Errorf("failed to set symbol timeout: %w", err)
	}
	return bw, nil
}

func (p *Profile) applyGfsk(d *sx1262.Device) error {
	s := p.Gfsk
	bw, err := gfskBandwidthFromHz(s.BandwidthHz)
	if err != nil {
		return err
	}
	det, err := preambleDetectorFromBits(s.PreambleDetectorBits)
	if err != nil {
		return err
	}
	mod := sx1262.GfskModParams{
		BitRate:       s.BitRate,
		PulseShape:    s.PulseShape,
		Bandwidth:     bw,
		FreqDeviation: s.FreqDeviationHz,
	}
	if err := d.SetModulationParams(mod); err != nil {
		return fmt.Errorf("failed to set modulation params: %w", err)
	}

	header := sx1262.GfskHeaderVariable
	if s.FixedLength {
		header = sx1262.GfskHeaderFixed
	}
	if len(s.SyncWord) > 8 {
		return &sx1262.RangeError{Param: "sync word",
			Msg: fmt.Sprintf("%d bytes exceeds 8", len(s.SyncWord))}
	}
	pkt := sx1262.GfskPacketParams{
		PreambleLength:   s.PreambleBits,
		PreambleDetector: det,
		SyncWordLength:   uint8(len(s.SyncWord)) * 8,
		AddressFilter:    s.AddressFilter,
		HeaderType:       header,
		PayloadLength:    s.PayloadLength,
		CrcType:          s.CrcType,
		Whitening:        s.Whitening,
	}
	if err := d.SetPacketParams(pkt); err != nil {
		return fmt.Errorf("failed to set packet params: %w", err)
	}

	if len(s.SyncWord) > 0 {
		if err := registers.SetGfskSyncWord(d, s.SyncWord); err != nil {
			return fmt.Errorf("failed to set sync word: %w", err)
		}
	}
	if s.CrcType != sx1262.GfskCrcOff {
		seed, poly := s.CrcSeed, s.CrcPoly
		if seed == 0 && poly == 0 {
			seed, poly = 0x1D0F, 0x1021
		}
		if err := registers.SetGfskCrc(d, seed, poly); err != nil {
			return fmt.Errorf("failed to set CRC registers: %w", err)
		}
	}
	if s.Whitening {
		seed := s.WhiteningSeed
		if seed == 0 {
			seed = 0x0100
		}
		if err := registers.SetGfskWhitening(d, seed); err != nil {
			return fmt.Errorf("failed to set whitening seed: %w", err)
		}
	}
	if s.AddressFilter != sx1262.AddressFilterOff {
		if err := registers.SetAddressFilter(d, s.NodeAddress, s.BroadcastAddress); err != nil {
			return fmt.Errorf("failed to set address filter: %w", err)
		}
	}
	return nil
}

// paPreset picks the datasheet's optimal PA sizing at or above the
// requested power.
func paPreset(part sx1262.Part, power int8) sx1262.PaConfig {
	if part == sx1262.PartSX1261 {
		switch {
		case power >= 15:
			return sx1262.PaSX1261Power15
		case power >= 11:
			return sx1262.PaSX1261Power14
		default:
			return sx1262.PaSX1261Power10
		}
	}
	switch {
	case power >= 21:
		return sx1262.PaSX1262Power22
	case power >= 18:
		return sx1262.PaSX1262Power20
	case power >= 15:
		return sx1262.PaSX1262Power17
	default:
		return sx1262.PaSX1262Power14
	}
}
