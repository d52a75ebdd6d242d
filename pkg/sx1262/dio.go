package sx1262

import "strings"

// Irq is the chip's interrupt flag set. Flags combine with bitwise or.
type Irq uint16

const (
	IrqTxDone           Irq = 1 << 0
	IrqRxDone           Irq = 1 << 1
	IrqPreambleDetected Irq = 1 << 2
	IrqSyncWordValid    Irq = 1 << 3 // GFSK sync word, or LoRa header, detected
	IrqHeaderError      Irq = 1 << 4 // LoRa header CRC failed
	IrqCrcError         Irq = 1 << 5
	IrqCadDone          Irq = 1 << 6
	IrqCadDetected      Irq = 1 << 7
	IrqTimeout          Irq = 1 << 8

	IrqAll  Irq = 0x01FF
	IrqNone Irq = 0
)

var irqNames = []struct {
	bit  Irq
	name string
}{
	{IrqTxDone, "TxDone"},
	{IrqRxDone, "RxDone"},
	{IrqPreambleDetected, "PreambleDetected"},
	{IrqSyncWordValid, "SyncWordValid"},
	{IrqHeaderError, "HeaderError"},
	{IrqCrcError, "CrcError"},
	{IrqCadDone, "CadDone"},
	{IrqCadDetected, "CadDetected"},
	{IrqTimeout, "Timeout"},
}

func (i Irq) String() string {
	if i == 0 {
		return "none"
	}
	var parts []string
	for _, n := range irqNames {
		if i&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// DioMapping routes interrupt flags to the three DIO pins. Irq enables
// the sources; a flag raises a pin when it is set in both Irq and that
// pin's mask. The Dio2 and Dio3 masks are ignored by the chip while
// those pins serve as RF switch or TCXO control.
type DioMapping struct {
	Irq  Irq // enabled interrupt sources
	Dio1 Irq
	Dio2 Irq
	Dio3 Irq
}

// Validate rejects undocumented flag bits and mappings that route one
// interrupt to more than one pin. The hardware accepts such aliasing
// and then signals the same event on several lines at once, which no
// host handler expects, so the driver refuses it up front.
func (m DioMapping) Validate() error {
	for _, p := range []struct {
		name string
		mask Irq
	}{
		{"irq mask", m.Irq},
		{"dio1 mask", m.Dio1},
		{"dio2 mask", m.Dio2},
		{"dio3 mask", m.Dio3},
	} {
		if p.mask&^IrqAll != 0 {
			return rangeErrorf(p.name, "bits 0x%04X not documented", uint16(p.mask))
		}
	}
	if alias := m.Dio1&m.Dio2 | m.Dio1&m.Dio3 | m.Dio2&m.Dio3; alias != 0 {
		return rangeErrorf("dio mapping", "%s routed to more than one pin", alias)
	}
	return nil
}

// SetDioIrqParams loads the interrupt routing. The mapping must pass
// Validate.
func (d *Device) SetDioIrqParams(m DioMapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := d.execute(command{
		name:   "SetDioIrqParams",
		opcode: OpSetDioIrqParams,
		params: []byte{
			byte(m.Irq >> 8), byte(m.Irq),
			byte(m.Dio1 >> 8), byte(m.Dio1),
			byte(m.Dio2 >> 8), byte(m.Dio2),
			byte(m.Dio3 >> 8), byte(m.Dio3),
		},
		legal: configModes,
	})
	return err
}

// GetIrqStatus reads the pending interrupt flags. Flags stay set until
// cleared with ClearIrqStatus.
func (d *Device) GetIrqStatus() (Irq, error) {
	resp, err := d.execute(command{
		name:    "GetIrqStatus",
		opcode:  OpGetIrqStatus,
		respLen: 3, // status byte, then the 16-bit flag set
	})
	if err != nil {
		return 0, err
	}
	return Irq(resp[1])<<8 | Irq(resp[2]), nil
}

// ClearIrqStatus clears the given interrupt flags and releases any DIO
// line they held high.
func (d *Device) ClearIrqStatus(flags Irq) error {
	if flags&^IrqAll != 0 {
		return rangeErrorf("irq flags", "bits 0x%04X not documented", uint16(flags))
	}
	_, err := d.execute(command{
		name:   "ClearIrqStatus",
		opcode: OpClearIrqStatus,
		params: []byte{byte(flags >> 8), byte(flags)},
	})
	return err
}

// SetDio2AsRfSwitchCtrl hands DIO2 to the chip as an RF switch
// control: high in TX, low otherwise. Any interrupt mapping on DIO2 is
// ignored while enabled.
func (d *Device) SetDio2AsRfSwitchCtrl(enable bool) error {
	var cfg byte
	if enable {
		cfg = 1
	}
	_, err := d.execute(command{
		name:   "SetDio2AsRfSwitchCtrl",
		opcode: OpSetDio2AsRfSwitchCtrl,
		params: []byte{cfg},
		legal:  configModes,
	})
	return err
}

// SetDio3AsTcxoCtrl makes DIO3 supply an external TCXO at the given
// voltage. delay, in timer steps, is how long the chip waits for the
// oscillator to stabilize on each wakeup. Only a full chip reset
// returns DIO3 to normal use.
func (d *Device) SetDio3AsTcxoCtrl(voltage TcxoVoltage, delay uint32) error {
	if voltage > Tcxo3V3 {
		return rangeErrorf("tcxo voltage", "code 0x%02X not documented", byte(voltage))
	}
	if delay > MaxTimeoutSteps {
		return rangeErrorf("tcxo delay", "%d exceeds %d steps", delay, MaxTimeoutSteps)
	}
	_, err := d.execute(command{
		name:   "SetDio3AsTcxoCtrl",
		opcode: OpSetDio3AsTcxoCtrl,
		params: []byte{byte(voltage), byte(delay >> 16), byte(delay >> 8), byte(delay)},
		legal:  configModes,
	})
	return err
}
