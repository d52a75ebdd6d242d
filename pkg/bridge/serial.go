package bridge

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Serial link settings for the bridge firmware's UART port. The
// framing is self-delimiting, so the only tunable is the baud rate.
const (
	SerialBaudRate = 115200

	serialReadTimeout = 2 * time.Second
)

// OpenSerial opens a bridge over a serial port, such as a UART-only
// build of the firmware or a USB CDC-ACM port, and verifies the link
// with a ping.
func OpenSerial(portName string) (*Bridge, error) {
	mode := &serial.Mode{
		BaudRate: SerialBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	// Drop anything a previous session left in the buffers
	port.ResetInputBuffer()
	port.ResetOutputBuffer()

	b := New(port)
	if err := b.Ping([]byte{0x55, 0xAA}); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// ListSerialPorts enumerates the serial ports visible to the host. It
// cannot tell a bridge from any other serial device; OpenSerial's ping
// does that.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
