// sx-load-config: Load SX1261/2 configuration from JSON file
//
// This tool reads a configuration file produced by sx-dump-config and
// writes the register block back to a chip.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gousb"

	"github.com/BroderickCarlin/gosx1262/pkg/bridge"
	"github.com/BroderickCarlin/gosx1262/pkg/config"
	"github.com/BroderickCarlin/gosx1262/pkg/registers"
	"github.com/BroderickCarlin/gosx1262/pkg/spibus"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

func main() {
	// Parse command line flags
	configPath := flag.String("c", "", "Configuration file path (required)")
	spiPort := flag.String("spi", "", "SPI port for a directly wired chip (e.g. /dev/spidev0.0)")
	busyPin := flag.String("busy", "", "BUSY GPIO name for SPI (e.g. GPIO24)")
	serialPort := flag.String("serial", "", "Serial port carrying a bridge (e.g. /dev/ttyACM0)")
	deviceSel := flag.String("d", "", bridge.DeviceFlagUsage())
	verbose := flag.Bool("v", false, "Verbose output")
	verify := flag.Bool("verify", false, "Read registers back after writing and compare")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: Configuration file (-c) is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load configuration
	if *verbose {
		fmt.Printf("Loading configuration from: %s\n", *configPath)
	}

	configuration, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Configuration loaded:\n")
		fmt.Printf("  Packet Type:    %s\n", configuration.PacketType)
		fmt.Printf("  LoRa Sync Word: %s\n", configuration.GetLoRaSyncWordString())
		fmt.Printf("  GFSK Sync Word: 0x%s\n", configuration.GetGfskSyncWordHex())
		fmt.Printf("  Dumped at:      %s\n", configuration.Timestamp.Format("2006-01-02 15:04:05"))
	}

	device, closeTransport, err := openDevice(*spiPort, *busyPin, *serialPort, *deviceSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeTransport()

	// Apply configuration
	if *verbose {
		fmt.Println("Writing registers...")
	}

	if err := config.ApplyToDevice(device, configuration); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to apply configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration applied")

	if *verify {
		if *verbose {
			fmt.Println("Reading registers back...")
		}
		readBack, err := registers.ReadAllRegisters(device)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Verify read failed: %v\n", err)
			os.Exit(1)
		}
		if *readBack != configuration.Registers {
			fmt.Fprintln(os.Stderr, "Error: Verify failed: register readback differs")
			os.Exit(1)
		}
		fmt.Println("Verify OK")
	}
}

// openDevice opens the transport the flags select and returns the
// driver with the believed mode synchronized.
func openDevice(spiPort, busyPin, serialPort, deviceSel string) (*sx1262.Device, func(), error) {
	switch {
	case spiPort != "":
		bus, err := spibus.Open(spibus.Config{Port: spiPort, Busy: busyPin})
		if err != nil {
			return nil, nil, err
		}
		d := sx1262.New(bus)
		if pin := bus.BusyPin(); pin != nil {
			d.SetBusyPin(pin)
		}
		if _, err := d.GetStatus(); err != nil {
			bus.Close()
			return nil, nil, err
		}
		return d, func() { bus.Close() }, nil

	case serialPort != "":
		b, err := bridge.OpenSerial(serialPort)
		if err != nil {
			return nil, nil, err
		}
		d := sx1262.New(b)
		d.SetBusyPin(b.BusyPin())
		if _, err := d.GetStatus(); err != nil {
			b.Close()
			return nil, nil, err
		}
		return d, func() { b.Close() }, nil

	default:
		ctx := gousb.NewContext()
		b, err := bridge.OpenUSB(ctx, bridge.DeviceSelector(deviceSel))
		if err != nil {
			ctx.Close()
			return nil, nil, err
		}
		d := sx1262.New(b)
		d.SetBusyPin(b.BusyPin())
		if _, err := d.GetStatus(); err != nil {
			b.Close()
			ctx.Close()
			return nil, nil, err
		}
		return d, func() { b.Close(); ctx.Close() }, nil
	}
}
