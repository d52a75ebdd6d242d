// sx-dump-config: Dump SX1261/2 configuration to JSON file
//
// This tool connects to a chip, reads its retained register block, and
// saves it to a JSON file. The configuration can later be loaded using
// sx-load-config.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/gousb"

	"github.com/BroderickCarlin/gosx1262/pkg/bridge"
	"github.com/BroderickCarlin/gosx1262/pkg/config"
	"github.com/BroderickCarlin/gosx1262/pkg/spibus"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

func main() {
	// Parse command line flags
	outputFile := flag.String("o", "", "Output file path (default: etc/sx1262/<name>.json)")
	spiPort := flag.String("spi", "", "SPI port for a directly wired chip (e.g. /dev/spidev0.0)")
	busyPin := flag.String("busy", "", "BUSY GPIO name for SPI (e.g. GPIO24)")
	serialPort := flag.String("serial", "", "Serial port carrying a bridge (e.g. /dev/ttyACM0)")
	deviceSel := flag.String("d", "", bridge.DeviceFlagUsage())
	verbose := flag.Bool("v", false, "Verbose output")
	listOnly := flag.Bool("l", false, "List bridges only, don't dump config")
	jsonOutput := flag.Bool("json", false, "Output config to stdout as JSON instead of file")
	flag.Parse()

	if *listOnly {
		listBridges()
		return
	}

	device, name, closeTransport, err := openDevice(*spiPort, *busyPin, *serialPort, *deviceSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeTransport()

	if *verbose {
		fmt.Printf("Connected to: %s\n", name)
	}

	// Dump configuration
	if *verbose {
		fmt.Println("Reading device configuration...")
	}

	configuration, err := config.DumpFromDevice(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to dump configuration: %v\n", err)
		os.Exit(1)
	}

	// Output to stdout as JSON
	if *jsonOutput {
		data, err := json.MarshalIndent(configuration, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to marshal configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	// Determine output path
	path := *outputFile
	if path == "" {
		path = config.GetConfigPath(name)
	}

	// Save to file
	if err := config.SaveToFile(configuration, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to save configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration saved to: %s\n", path)

	// Print summary
	if *verbose {
		printConfigSummary(configuration)
	}
}

// openDevice opens the transport the flags select and returns the
// driver with the believed mode synchronized, plus a name for default
// file paths.
func openDevice(spiPort, busyPin, serialPort, deviceSel string) (*sx1262.Device, string, func(), error) {
	switch {
	case spiPort != "":
		bus, err := spibus.Open(spibus.Config{Port: spiPort, Busy: busyPin})
		if err != nil {
			return nil, "", nil, err
		}
		d := sx1262.New(bus)
		if pin := bus.BusyPin(); pin != nil {
			d.SetBusyPin(pin)
		}
		if _, err := d.GetStatus(); err != nil {
			bus.Close()
			return nil, "", nil, err
		}
		return d, "spi", func() { bus.Close() }, nil

	case serialPort != "":
		b, err := bridge.OpenSerial(serialPort)
		if err != nil {
			return nil, "", nil, err
		}
		d := sx1262.New(b)
		d.SetBusyPin(b.BusyPin())
		if _, err := d.GetStatus(); err != nil {
			b.Close()
			return nil, "", nil, err
		}
		return d, "serial", func() { b.Close() }, nil

	default:
		ctx := gousb.NewContext()
		carrier, err := bridge.SelectCarrier(ctx, bridge.DeviceSelector(deviceSel))
		if err != nil {
			ctx.Close()
			return nil, "", nil, err
		}
		name := carrier.Serial
		if name == "" {
			name = "default"
		}
		b := bridge.New(carrier)
		if err := b.Ping([]byte{0x55, 0xAA}); err != nil {
			b.Close()
			ctx.Close()
			return nil, "", nil, err
		}
		d := sx1262.New(b)
		d.SetBusyPin(b.BusyPin())
		if _, err := d.GetStatus(); err != nil {
			b.Close()
			ctx.Close()
			return nil, "", nil, err
		}
		return d, name, func() { b.Close(); ctx.Close() }, nil
	}
}

func listBridges() {
	ctx := gousb.NewContext()
	defer ctx.Close()

	carriers, err := bridge.FindAllCarriers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enumerate devices: %v\n", err)
		os.Exit(1)
	}

	if len(carriers) == 0 {
		fmt.Println("No USB bridges found")
		return
	}

	fmt.Printf("Found %d USB bridge(s):\n\n", len(carriers))

	for i, c := range carriers {
		defer c.Close()

		fmt.Printf("Device %d:\n", i+1)
		fmt.Printf("  Manufacturer: %s\n", c.Manufacturer)
		fmt.Printf("  Product:      %s\n", c.Product)
		fmt.Printf("  Serial:       %s\n", c.Serial)

		b := bridge.New(c)
		if version, err := b.Version(); err == nil {
			fmt.Printf("  Firmware:     %s\n", version)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.DeviceConfig) {
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("  Packet Type:    %s\n", cfg.PacketType)
	fmt.Printf("  Mode at dump:   %s\n", cfg.Telemetry.Mode)
	fmt.Printf("  LoRa Sync Word: %s\n", cfg.GetLoRaSyncWordString())
	fmt.Printf("  GFSK Sync Word: 0x%s\n", cfg.GetGfskSyncWordHex())
	fmt.Printf("  RX Gain:        %s\n", cfg.GetRxGainString())
	fmt.Printf("  OCP Limit:      %.1f mA\n", cfg.GetOcpMilliamps())
	fmt.Printf("  Device Errors:  %s\n", cfg.Telemetry.DeviceErrors)
}
