package sx1262

import "strings"

// GetStatus reads the chip status byte and re-synchronizes the
// believed mode with the mode the chip reports. This is the recovery
// step after a transport error and the first call on a freshly
// powered chip.
func (d *Device) GetStatus() (Status, error) {
	resp, err := d.execute(command{
		name:    "GetStatus",
		opcode:  OpGetStatus,
		respLen: 1,
	})
	if err != nil {
		return 0, err
	}
	status := Status(resp[0])
	d.mode = status.ChipMode()
	return status, nil
}

// GetRssiInst samples the instantaneous RSSI. Only meaningful while
// the chip is receiving.
func (d *Device) GetRssiInst() (float64, error) {
	resp, err := d.execute(command{
		name:    "GetRssiInst",
		opcode:  OpGetRssiInst,
		respLen: 2, // status byte, then the RSSI sample
		legal:   receiveModes,
	})
	if err != nil {
		return 0, err
	}
	return -float64(resp[1]) / 2, nil
}

// RxBufferStatus locates the most recently received packet inside the
// data buffer.
type RxBufferStatus struct {
	PayloadLength uint8 // bytes of the last packet
	BufferStart   uint8 // offset of its first byte
}

// GetRxBufferStatus reports where the last received packet landed.
// Pass the result to ReadBuffer, or use ReadPayload which does both.
func (d *Device) GetRxBufferStatus() (RxBufferStatus, error) {
	resp, err := d.execute(command{
		name:    "GetRxBufferStatus",
		opcode:  OpGetRxBufferStatus,
		respLen: 3,
	})
	if err != nil {
		return RxBufferStatus{}, err
	}
	return RxBufferStatus{PayloadLength: resp[1], BufferStart: resp[2]}, nil
}

// PacketStatus is the raw GetPacketStatus response. The three bytes
// mean different things per modem; decode with LoRa or Gfsk to match
// the active packet type.
type PacketStatus struct {
	raw [3]byte
}

// LoRaPacketStatus is the LoRa decode of a packet status.
type LoRaPacketStatus struct {
	RssiPkt       float64 // average RSSI over the packet, dBm
	SnrPkt        float64 // estimated SNR, dB
	SignalRssiPkt float64 // RSSI after despreading, dBm
}

// GfskPacketStatus is the GFSK decode of a packet status.
type GfskPacketStatus struct {
	RxStatus GfskRxStatus
	RssiSync float64 // RSSI at sync word detection, dBm
	RssiAvg  float64 // RSSI averaged over the payload, dBm
}

// GfskRxStatus is the GFSK receive status flag byte.
type GfskRxStatus byte

const (
	GfskRxPacketSent     GfskRxStatus = 1 << 0
	GfskRxPacketReceived GfskRxStatus = 1 << 1
	GfskRxAbortError     GfskRxStatus = 1 << 2
	GfskRxLengthError    GfskRxStatus = 1 << 3
	GfskRxCrcError       GfskRxStatus = 1 << 4
	GfskRxAddressError   GfskRxStatus = 1 << 5
	GfskRxSyncError      GfskRxStatus = 1 << 6
	GfskRxPreambleError  GfskRxStatus = 1 << 7
)

// LoRa decodes the status bytes as a LoRa reception.
func (s PacketStatus) LoRa() LoRaPacketStatus {
	return LoRaPacketStatus{
		RssiPkt:       -float64(s.raw[0]) / 2,
		SnrPkt:        float64(int8(s.raw[1])) / 4,
		SignalRssiPkt: -float64(s.raw[2]) / 2,
	}
}

// Gfsk decodes the status bytes as a GFSK reception.
func (s PacketStatus) Gfsk() GfskPacketStatus {
	return GfskPacketStatus{
		RxStatus: GfskRxStatus(s.raw[0]),
		RssiSync: -float64(s.raw[1]) / 2,
		RssiAvg:  -float64(s.raw[2]) / 2,
	}
}

// GetPacketStatus reads the link quality measurements of the last
// packet.
func (d *Device) GetPacketStatus() (PacketStatus, error) {
	resp, err := d.execute(command{
		name:    "GetPacketStatus",
		opcode:  OpGetPacketStatus,
		respLen: 4,
	})
	if err != nil {
		return PacketStatus{}, err
	}
	var s PacketStatus
	copy(s.raw[:], resp[1:])
	return s, nil
}

// DeviceErrors is the chip's sticky error flag set. Flags accumulate
// until ClearDeviceErrors.
type DeviceErrors uint16

const (
	ErrRC64KCalib DeviceErrors = 1 << 0 // RC64K calibration failed
	ErrRC13MCalib DeviceErrors = 1 << 1 // RC13M calibration failed
	ErrPllCalib   DeviceErrors = 1 << 2 // PLL calibration failed
	ErrAdcCalib   DeviceErrors = 1 << 3 // ADC calibration failed
	ErrImgCalib   DeviceErrors = 1 << 4 // image calibration failed
	ErrXoscStart  DeviceErrors = 1 << 5 // crystal failed to start
	ErrPllLock    DeviceErrors = 1 << 6 // PLL failed to lock
	ErrPaRamp     DeviceErrors = 1 << 8 // PA ramping failed
)

var deviceErrorNames = []struct {
	bit  DeviceErrors
	name string
}{
	{ErrRC64KCalib, "RC64KCalib"},
	{ErrRC13MCalib, "RC13MCalib"},
	{ErrPllCalib, "PllCalib"},
	{ErrAdcCalib, "AdcCalib"},
	{ErrImgCalib, "ImgCalib"},
	{ErrXoscStart, "XoscStart"},
	{ErrPllLock, "PllLock"},
	{ErrPaRamp, "PaRamp"},
}

func (e DeviceErrors) String() string {
	if e == 0 {
		return "none"
	}
	var parts []string
	for _, n := range deviceErrorNames {
		if e&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// GetDeviceErrors reads the sticky error flags.
func (d *Device) GetDeviceErrors() (DeviceErrors, error) {
	resp, err := d.execute(command{
		name:    "GetDeviceErrors",
		opcode:  OpGetDeviceErrors,
		respLen: 3,
	})
	if err != nil {
		return 0, err
	}
	return DeviceErrors(resp[1])<<8 | DeviceErrors(resp[2]), nil
}

// ClearDeviceErrors clears every sticky error flag.
func (d *Device) ClearDeviceErrors() error {
	_, err := d.execute(command{
		name:   "ClearDeviceErrors",
		opcode: OpClearDeviceErrors,
		params: []byte{0, 0},
	})
	return err
}

// Stats are the chip's packet counters since the last ResetStats.
type Stats struct {
	PacketsReceived uint16
	CrcErrors       uint16
	HeaderErrors    uint16 // LoRa only
}

// GetStats reads the packet counters.
func (d *Device) GetStats() (Stats, error) {
	resp, err := d.execute(command{
		name:    "GetStats",
		opcode:  OpGetStats,
		respLen: 7,
	})
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		PacketsReceived: uint16(resp[1])<<8 | uint16(resp[2]),
		CrcErrors:       uint16(resp[3])<<8 | uint16(resp[4]),
		HeaderErrors:    uint16(resp[5])<<8 | uint16(resp[6]),
	}, nil
}

// ResetStats zeroes the packet counters.
func (d *Device) ResetStats() error {
	_, err := d.execute(command{
		name:   "ResetStats",
		opcode: OpResetStats,
		params: []byte{0, 0, 0, 0, 0, 0},
	})
	return err
}
