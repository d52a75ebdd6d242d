// Package sx1262 drives the Semtech SX1261/2 sub-GHz transceiver
// family over a byte-exchange transport.
//
// The package owns command and register encoding, response decoding,
// and the operational mode bookkeeping. It does not own the bus: a
// Transport carries frames, and pkg/spibus and pkg/bridge provide
// implementations for a local SPI port and for the companion bridge
// firmware over USB or serial.
package sx1262

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Transport moves one encoded frame to and from the chip. Exchange
// clocks every byte of w while the chip select stays asserted, and
// returns the bytes clocked back, one per byte written. The chip
// select must be released on every return path.
type Transport interface {
	Exchange(w []byte) ([]byte, error)
}

// Pin reports the level of a digital input line, such as the chip's
// BUSY pin or a DIO interrupt line.
type Pin interface {
	Read() (bool, error)
}

// Device drives one SX1261 or SX1262 over a Transport.
//
// Device is not safe for concurrent use: the chip runs one command at
// a time on one chip select, and callers hold the same discipline.
//
// The driver tracks the mode it believes the chip is in. The belief
// advances only when a mode-changing command is confirmed transported
// or when GetStatus reports the mode, and it falls back to ModeUnknown
// on any transport failure. It can still diverge from the hardware,
// for example when an RX timeout drops the chip back to standby;
// GetStatus re-synchronizes.
type Device struct {
	transport Transport
	busy      Pin

	mode       Mode
	packetType PacketType
	part       Part

	// Logf, when set, receives one line per frame exchanged. The
	// driver never logs anywhere else.
	Logf func(format string, args ...any)
}

// New returns a Device over the given transport. The believed mode
// starts at ModeUnknown until the first status read or mode command,
// and the part defaults to SX1262 until SetPaConfig says otherwise.
func New(t Transport) *Device {
	return &Device{
		transport:  t,
		part:       PartSX1262,
		packetType: packetTypeNone,
	}
}

// SetBusyPin attaches the chip's BUSY line so WaitReady can poll it.
func (d *Device) SetBusyPin(p Pin) { d.busy = p }

// CurrentMode returns the believed operational mode.
func (d *Device) CurrentMode() Mode { return d.mode }

// Part returns the chip variant selected by the last SetPaConfig.
func (d *Device) Part() Part { return d.part }

const busyPollInterval = 100 * time.Microsecond

// WaitReady polls the BUSY pin until the chip reports ready. The
// engine never waits on its own; callers invoke this between commands
// when the chip needs settling time, such as after waking from sleep
// or starting a calibration. Returns immediately when no BUSY pin is
// attached.
func (d *Device) WaitReady(timeout time.Duration) error {
	if d.busy == nil {
		return nil
	}
	deadline := time.Now().Add(timeout)
	for {
		high, err := d.busy.Read()
		if err != nil {
			return fmt.Errorf("failed to read busy pin: %w", err)
		}
		if !high {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("chip busy after %v", timeout)
		}
		time.Sleep(busyPollInterval)
	}
}

// command is one opcode transaction: the opcode byte, its marshaled
// parameters, the response bytes clocked back after the parameters,
// and the modes the chip documents it for. target, when not
// ModeUnknown, is the mode the chip enters once the frame is
// confirmed transported.
type command struct {
	name    string
	opcode  byte
	params  []byte
	respLen int
	legal   []Mode
	target  Mode
}

// execute runs one command through the legality check, the transport
// and the length check, and returns the response bytes that followed
// the parameters.
func (d *Device) execute(cmd command) ([]byte, error) {
	if !legalIn(d.mode, cmd.legal) {
		return nil, &IllegalStateError{Op: cmd.name, State: "mode " + d.mode.String()}
	}

	frame := make([]byte, 1+len(cmd.params)+cmd.respLen)
	frame[0] = cmd.opcode
	copy(frame[1:], cmd.params)

	resp, err := d.exchange(cmd.name, frame)
	if err != nil {
		return nil, err
	}
	if cmd.target != ModeUnknown {
		d.mode = cmd.target
	}
	return resp[len(resp)-cmd.respLen:], nil
}

// exchange moves one frame and enforces the equal-length transport
// contract. A transport failure leaves the believed mode and packet
// type unconfirmed: the chip may or may not have acted on the frame.
func (d *Device) exchange(name string, frame []byte) ([]byte, error) {
	if d.Logf != nil {
		d.Logf("%s > % X", name, frame)
	}
	resp, err := d.transport.Exchange(frame)
	if err != nil {
		d.mode = ModeUnknown
		d.packetType = packetTypeNone
		return nil, &TransportError{Op: name, Err: err}
	}
	if len(resp) != len(frame) {
		return nil, &FormatError{What: name + " response", Want: len(frame), Got: len(resp)}
	}
	if d.Logf != nil {
		d.Logf("%s < % X", name, resp)
	}
	return resp, nil
}

// ReadRegister reads length bytes starting at a 16-bit register
// address. Register access works in every mode except Sleep.
func (d *Device) ReadRegister(addr uint16, length int) ([]byte, error) {
	if length < 1 || length > 255 {
		return nil, rangeErrorf("register read length", "%d not in 1-255", length)
	}
	if !legalIn(d.mode, awakeModes) {
		return nil, &IllegalStateError{Op: "ReadRegister", State: "mode " + d.mode.String()}
	}

	frame := make([]byte, 4+length)
	frame[0] = FrameReadRegister
	binary.BigEndian.PutUint16(frame[1:3], addr)
	// frame[3] clocks out the status byte, the rest the value

	resp, err := d.exchange("ReadRegister", frame)
	if err != nil {
		return nil, err
	}
	return resp[4:], nil
}

// WriteRegister writes data starting at a 16-bit register address.
func (d *Device) WriteRegister(addr uint16, data []byte) error {
	if len(data) < 1 || len(data) > 255 {
		return rangeErrorf("register write length", "%d not in 1-255", len(data))
	}
	if !legalIn(d.mode, awakeModes) {
		return &IllegalStateError{Op: "WriteRegister", State: "mode " + d.mode.String()}
	}

	frame := make([]byte, 3+len(data))
	frame[0] = FrameWriteRegister
	binary.BigEndian.PutUint16(frame[1:3], addr)
	copy(frame[3:], data)

	_, err := d.exchange("WriteRegister", frame)
	return err
}

// ReadBuffer reads length bytes from the 256-byte data buffer starting
// at offset.
func (d *Device) ReadBuffer(offset uint8, length int) ([]byte, error) {
	if length < 1 || int(offset)+length > BufferSize {
		return nil, rangeErrorf("buffer read", "%d bytes at offset %d overruns the %d-byte buffer",
			length, offset, BufferSize)
	}
	if !legalIn(d.mode, awakeModes) {
		return nil, &IllegalStateError{Op: "ReadBuffer", State: "mode " + d.mode.String()}
	}

	frame := make([]byte, 3+length)
	frame[0] = FrameReadBuffer
	frame[1] = offset
	// frame[2] clocks out the status byte, the rest the data

	resp, err := d.exchange("ReadBuffer", frame)
	if err != nil {
		return nil, err
	}
	return resp[3:], nil
}

// WriteBuffer writes data into the 256-byte data buffer starting at
// offset.
func (d *Device) WriteBuffer(offset uint8, data []byte) error {
	if len(data) < 1 || int(offset)+len(data) > BufferSize {
		return rangeErrorf("buffer write", "%d bytes at offset %d overruns the %d-byte buffer",
			len(data), offset, BufferSize)
	}
	if !legalIn(d.mode, awakeModes) {
		return &IllegalStateError{Op: "WriteBuffer", State: "mode " + d.mode.String()}
	}

	frame := make([]byte, 2+len(data))
	frame[0] = FrameWriteBuffer
	frame[1] = offset
	copy(frame[2:], data)

	_, err := d.exchange("WriteBuffer", frame)
	return err
}
