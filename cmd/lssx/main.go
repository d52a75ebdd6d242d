// lssx lists the ways an SX1261/2 can be reached from this host: USB
// bridges, serial ports that might carry a bridge, and local SPI ports.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/gousb"

	"github.com/BroderickCarlin/gosx1262/pkg/bridge"
	"github.com/BroderickCarlin/gosx1262/pkg/spibus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output - query firmware versions")
	flag.Parse()

	listBridges(*verbose)
	listSerial()
	listSpi()
}

func listBridges(verbose bool) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	carriers, err := bridge.FindAllCarriers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enumerate USB devices: %v\n", err)
		os.Exit(1)
	}

	if len(carriers) == 0 {
		fmt.Println("No USB bridges found")
	} else {
		fmt.Printf("Found %d USB bridge(s):\n\n", len(carriers))
		for i, c := range carriers {
			fmt.Printf("  #%d  %s  %d:%d\n", i, c.Serial, c.Bus, c.Address)
			if verbose {
				b := bridge.New(c)
				if version, err := b.Version(); err == nil {
					fmt.Printf("      Firmware: %s\n", version)
				}
			}
		}
	}
	fmt.Println()

	for _, c := range carriers {
		c.Close()
	}
}

func listSerial() {
	ports, err := bridge.ListSerialPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list serial ports: %v\n", err)
		return
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
	} else {
		fmt.Printf("Serial ports (may carry a bridge):\n")
		for _, p := range ports {
			fmt.Printf("  %s\n", p)
		}
	}
	fmt.Println()
}

func listSpi() {
	ports, err := spibus.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list SPI ports: %v\n", err)
		return
	}

	if len(ports) == 0 {
		fmt.Println("No SPI ports found")
		return
	}
	fmt.Printf("SPI ports:\n")
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
}
