// Package spibus connects an SX1261/2 wired directly to the host: the
// SPI port carries frames and GPIO lines carry BUSY, NRST and the DIO
// interrupts. Built on periph.io, so it runs anywhere periph has a
// host driver, a Raspberry Pi being the usual case.
package spibus

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Config names the SPI port and GPIO lines wired to the chip. Busy,
// Reset and Dio1 are optional; leave them empty when the line is not
// wired.
type Config struct {
	Port  string // SPI port name, e.g. "/dev/spidev0.0" or "SPI0.0"
	Busy  string // BUSY input, e.g. "GPIO24"
	Reset string // NRST output, e.g. "GPIO23"
	Dio1  string // DIO1 interrupt input, e.g. "GPIO25"

	// Speed is the SPI clock. Zero selects 8 MHz, comfortably inside
	// the chip's 16 MHz limit.
	Speed physic.Frequency
}

// Bus is an sx1262.Transport over a host SPI port.
type Bus struct {
	port spi.PortCloser
	conn spi.Conn

	busy  gpio.PinIO
	reset gpio.PinIO
	dio1  gpio.PinIO
}

// DefaultSpeed is the SPI clock used when Config.Speed is zero.
const DefaultSpeed = 8 * physic.MegaHertz

// Open initializes the periph host drivers, opens the SPI port and
// claims the configured GPIO lines.
func Open(cfg Config) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	speed := cfg.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure SPI port: %w", err)
	}

	b := &Bus{port: port, conn: conn}

	if cfg.Busy != "" {
		pin := gpioreg.ByName(cfg.Busy)
		if pin == nil {
			port.Close()
			return nil, fmt.Errorf("failed to find BUSY pin %q", cfg.Busy)
		}
		if err := pin.In(gpio.PullDown, gpio.NoEdge); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to configure BUSY pin: %w", err)
		}
		b.busy = pin
	}

	if cfg.Reset != "" {
		pin := gpioreg.ByName(cfg.Reset)
		if pin == nil {
			port.Close()
			return nil, fmt.Errorf("failed to find RESET pin %q", cfg.Reset)
		}
		// NRST is active low; park it deasserted
		if err := pin.Out(gpio.High); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to configure RESET pin: %w", err)
		}
		b.reset = pin
	}

	if cfg.Dio1 != "" {
		pin := gpioreg.ByName(cfg.Dio1)
		if pin == nil {
			port.Close()
			return nil, fmt.Errorf("failed to find DIO1 pin %q", cfg.Dio1)
		}
		if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to configure DIO1 pin: %w", err)
		}
		b.dio1 = pin
	}

	return b, nil
}

// Exchange clocks one frame through the SPI port. periph asserts the
// chip select for the duration of the transfer and releases it on
// every return path.
func (b *Bus) Exchange(w []byte) ([]byte, error) {
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return nil, fmt.Errorf("spi transfer failed: %w", err)
	}
	return r, nil
}

// Close releases the SPI port.
func (b *Bus) Close() error {
	return b.port.Close()
}

// Line adapts a periph pin to the sx1262.Pin shape.
type Line struct{ pin gpio.PinIO }

func (p *Line) Read() (bool, error) { return p.pin.Read() == gpio.High, nil }

// BusyPin returns the BUSY line as a pin for Device.SetBusyPin, or nil
// when the line is not wired.
func (b *Bus) BusyPin() *Line {
	if b.busy == nil {
		return nil
	}
	return &Line{b.busy}
}

// Dio1Pin returns the DIO1 interrupt line, or nil when not wired.
func (b *Bus) Dio1Pin() *Line {
	if b.dio1 == nil {
		return nil
	}
	return &Line{b.dio1}
}

// WaitDio1 blocks until DIO1 rises or the timeout passes. Returns
// false on timeout.
func (b *Bus) WaitDio1(timeout time.Duration) (bool, error) {
	if b.dio1 == nil {
		return false, fmt.Errorf("DIO1 pin not configured")
	}
	return b.dio1.WaitForEdge(timeout), nil
}

// Reset pulses NRST low for well over the chip's 100 us minimum, then
// waits out the post-reset BUSY period. The chip comes back in
// StandbyRC with every register at its reset value.
func (b *Bus) Reset() error {
	if b.reset == nil {
		return fmt.Errorf("RESET pin not configured")
	}
	if err := b.reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to assert reset: %w", err)
	}
	time.Sleep(time.Millisecond)
	if err := b.reset.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to release reset: %w", err)
	}

	if b.busy != nil {
		deadline := time.Now().Add(20 * time.Millisecond)
		for b.busy.Read() == gpio.High {
			if time.Now().After(deadline) {
				return fmt.Errorf("chip busy after reset")
			}
			time.Sleep(100 * time.Microsecond)
		}
	} else {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// ListPorts enumerates the SPI ports periph can see.
func ListPorts() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}
	var names []string
	for _, ref := range spireg.All() {
		names = append(names, ref.Name)
	}
	return names, nil
}
