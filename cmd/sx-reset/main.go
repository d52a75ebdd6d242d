// sx-reset pulses the chip's NRST line to recover from a wedged state.
// Works through a USB bridge, a serial bridge, or a directly wired
// reset GPIO.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/gousb"

	"github.com/BroderickCarlin/gosx1262/pkg/bridge"
	"github.com/BroderickCarlin/gosx1262/pkg/spibus"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

func main() {
	spiPort := flag.String("spi", "", "SPI port for a directly wired chip (e.g. /dev/spidev0.0)")
	busyPin := flag.String("busy", "", "BUSY GPIO name for SPI (e.g. GPIO24)")
	rstPin := flag.String("rst", "", "NRST GPIO name for SPI (e.g. GPIO23)")
	serialPort := flag.String("serial", "", "Serial port carrying a bridge (e.g. /dev/ttyACM0)")
	deviceSel := flag.String("d", "", bridge.DeviceFlagUsage())
	flag.Parse()

	if *spiPort != "" {
		resetSpi(*spiPort, *busyPin, *rstPin)
		return
	}
	if *serialPort != "" {
		resetSerial(*serialPort)
		return
	}
	resetUsb(bridge.DeviceSelector(*deviceSel))
}

func resetSpi(port, busy, rst string) {
	if rst == "" {
		fmt.Fprintln(os.Stderr, "Error: -rst is required for SPI reset")
		os.Exit(1)
	}

	bus, err := spibus.Open(spibus.Config{Port: port, Busy: busy, Reset: rst})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	if err := bus.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Reset failed: %v\n", err)
		os.Exit(1)
	}

	d := sx1262.New(bus)
	if pin := bus.BusyPin(); pin != nil {
		d.SetBusyPin(pin)
	}
	verify(d)
}

func resetSerial(port string) {
	b, err := bridge.OpenSerial(port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	if err := b.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Reset failed: %v\n", err)
		os.Exit(1)
	}

	d := sx1262.New(b)
	d.SetBusyPin(b.BusyPin())
	verify(d)
}

func resetUsb(selector bridge.DeviceSelector) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	// The bridge itself may need a moment to enumerate after a replug
	var b *bridge.Bridge
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		b, err = bridge.OpenUSB(ctx, selector)
		if err == nil {
			break
		}
		fmt.Printf("Attempt %d: %v\n", attempt+1, err)
		time.Sleep(time.Second)
	}
	if b == nil {
		fmt.Fprintln(os.Stderr, "Error: Failed to open bridge after 3 attempts")
		os.Exit(1)
	}
	defer b.Close()

	if err := b.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Reset failed: %v\n", err)
		os.Exit(1)
	}

	d := sx1262.New(b)
	d.SetBusyPin(b.BusyPin())
	verify(d)
}

// verify reads the chip status after the reset pulse. A fresh chip
// reports StandbyRC.
func verify(d *sx1262.Device) {
	if err := d.WaitReady(20 * time.Millisecond); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	status, err := d.GetStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Status read after reset failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Reset OK, chip reports %s\n", status.ChipMode())
}
