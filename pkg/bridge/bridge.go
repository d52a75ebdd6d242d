// Package bridge drives an SX1261/2 through the companion SPI-bridge
// firmware: a small microcontroller that owns the chip select, BUSY
// and NRST lines and relays SPI frames over USB or a serial port.
//
// The wire protocol is one request frame per response frame. A request
// is marker 0x5A, an op byte, a little-endian u16 payload length and
// the payload; the response mirrors it with marker 0xA5 and a status
// byte in place of the op. The firmware waits out the chip's BUSY line
// around every SPI transfer, so the host never has to.
package bridge

import (
	"fmt"
	"io"
)

// Carrier moves raw bridge frames. USB and serial carriers live in
// this package; anything byte-stream shaped works.
type Carrier interface {
	io.ReadWriteCloser
}

// Bridge is an sx1262.Transport backed by the companion firmware.
// Not safe for concurrent use, matching the one-command-at-a-time
// discipline of the chip itself.
type Bridge struct {
	carrier Carrier
}

// New wraps a carrier. Callers usually reach for OpenUSB or OpenSerial
// instead.
func New(c Carrier) *Bridge {
	return &Bridge{carrier: c}
}

// Close releases the carrier.
func (b *Bridge) Close() error {
	return b.carrier.Close()
}

// roundTrip sends one request and reads the matching response payload.
func (b *Bridge) roundTrip(op byte, payload []byte) ([]byte, error) {
	frame, err := encodeRequest(op, payload)
	if err != nil {
		return nil, err
	}
	if _, err := b.carrier.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(b.carrier, header); err != nil {
		return nil, fmt.Errorf("failed to read response header: %w", err)
	}
	status, length, err := decodeResponseHeader(header)
	if err != nil {
		return nil, err
	}
	resp := make([]byte, length)
	if _, err := io.ReadFull(b.carrier, resp); err != nil {
		return nil, fmt.Errorf("failed to read response payload: %w", err)
	}
	if err := statusError(status); err != nil {
		return nil, err
	}
	return resp, nil
}

// Exchange relays one SPI frame through the bridge. The firmware
// asserts the chip select for the whole frame and returns the bytes
// the chip clocked back, one per byte written.
func (b *Bridge) Exchange(w []byte) ([]byte, error) {
	resp, err := b.roundTrip(OpExchange, w)
	if err != nil {
		return nil, err
	}
	if len(resp) != len(w) {
		return nil, fmt.Errorf("%w: wrote %d bytes, read %d", ErrShortFrame, len(w), len(resp))
	}
	return resp, nil
}

// Busy reads the chip's BUSY line through the bridge.
func (b *Bridge) Busy() (bool, error) {
	resp, err := b.roundTrip(OpBusy, nil)
	if err != nil {
		return false, err
	}
	if len(resp) != 1 {
		return false, fmt.Errorf("%w: %d busy bytes", ErrShortFrame, len(resp))
	}
	return resp[0] != 0, nil
}

// BusyLine adapts Busy to the sx1262.Pin shape.
type BusyLine struct{ b *Bridge }

func (p BusyLine) Read() (bool, error) { return p.b.Busy() }

// BusyPin returns the BUSY line as a pin for Device.SetBusyPin.
func (b *Bridge) BusyPin() BusyLine { return BusyLine{b} }

// Reset pulses the chip's NRST line. The chip comes back in StandbyRC
// with every register at its reset value; the driver's believed mode
// should be re-synchronized with a status read.
func (b *Bridge) Reset() error {
	_, err := b.roundTrip(OpReset, nil)
	return err
}

// Ping echoes data through the firmware to verify the link.
func (b *Bridge) Ping(data []byte) error {
	resp, err := b.roundTrip(OpPing, data)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if len(resp) != len(data) {
		return fmt.Errorf("ping response length mismatch: sent %d bytes, got %d", len(data), len(resp))
	}
	for i := range data {
		if resp[i] != data[i] {
			return fmt.Errorf("ping response data mismatch at byte %d: sent 0x%02X, got 0x%02X",
				i, data[i], resp[i])
		}
	}
	return nil
}

// Version returns the firmware version string.
func (b *Bridge) Version() (string, error) {
	resp, err := b.roundTrip(OpVersion, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	for i, c := range resp {
		if c == 0 {
			return string(resp[:i]), nil
		}
	}
	return string(resp), nil
}
