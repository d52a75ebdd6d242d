// send-recv: Example program for sending and receiving packets with an
// SX1261/2
//
// This tool applies a radio profile and then either transmits data or
// listens for packets, polling the chip's interrupt flags.
//
// Examples:
//
//	# Receive mode - listen for packets and display them
//	./send-recv -m recv -c etc/profiles/915-lora-sf7.json
//
//	# Send mode - transmit data from command line
//	./send-recv -m send -c etc/profiles/915-lora-sf7.json -data "Hello World"
//
//	# Send mode - transmit hex data
//	./send-recv -m send -c etc/profiles/915-lora-sf7.json -hex "DEADBEEF"
//
//	# Send mode - repeat transmission 10 times
//	./send-recv -m send -c etc/profiles/915-lora-sf7.json -data "test" -repeat 10
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gousb"

	"github.com/BroderickCarlin/gosx1262/pkg/bridge"
	"github.com/BroderickCarlin/gosx1262/pkg/profiles"
	"github.com/BroderickCarlin/gosx1262/pkg/spibus"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

func main() {
	// Parse command line flags
	mode := flag.String("m", "", "Mode: 'send' or 'recv' (required)")
	profilePath := flag.String("c", "", "Profile file path (required)")
	spiPort := flag.String("spi", "", "SPI port for a directly wired chip (e.g. /dev/spidev0.0)")
	busyPin := flag.String("busy", "", "BUSY GPIO name for SPI (e.g. GPIO24)")
	serialPort := flag.String("serial", "", "Serial port carrying a bridge (e.g. /dev/ttyACM0)")
	deviceSel := flag.String("d", "", bridge.DeviceFlagUsage())
	verbose := flag.Bool("v", false, "Verbose output")

	// Send mode options
	dataStr := flag.String("data", "", "Data to send (ASCII string)")
	hexStr := flag.String("hex", "", "Data to send (hex encoded)")
	repeat := flag.Uint("repeat", 0, "Number of times to repeat transmission (0 = once)")
	interval := flag.Duration("interval", 100*time.Millisecond, "Delay between repeated transmissions")

	// Receive mode options
	count := flag.Int("count", 0, "Number of packets to receive (0 = infinite)")
	rawOutput := flag.Bool("raw", false, "Output raw hex only (for piping)")

	flag.Parse()

	// Validate required arguments
	if *mode == "" {
		fmt.Fprintln(os.Stderr, "Error: Mode (-m) is required. Use 'send' or 'recv'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *profilePath == "" {
		fmt.Fprintln(os.Stderr, "Error: Profile file (-c) is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	*mode = strings.ToLower(*mode)
	if *mode != "send" && *mode != "recv" {
		fmt.Fprintf(os.Stderr, "Error: Invalid mode '%s'. Use 'send' or 'recv'\n", *mode)
		os.Exit(1)
	}

	// Load profile
	if *verbose {
		fmt.Printf("Loading profile from: %s\n", *profilePath)
	}

	profileConfig, err := profiles.LoadProfileFromFile(*profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load profile: %v\n", err)
		os.Exit(1)
	}
	profile := &profileConfig.Profile

	if *verbose {
		fmt.Printf("Profile loaded: %s\n", profile.Name)
		fmt.Printf("  Frequency: %.6f MHz\n", float64(profile.FrequencyHz)/1e6)
		if profile.LoRa != nil {
			fmt.Printf("  Modem:     LoRa SF%d, %d Hz\n",
				profile.LoRa.SpreadingFactor, profile.LoRa.BandwidthHz)
		} else if profile.Gfsk != nil {
			fmt.Printf("  Modem:     GFSK %d b/s, %d Hz deviation\n",
				profile.Gfsk.BitRate, profile.Gfsk.FreqDeviationHz)
		}
		fmt.Printf("  TX Power:  %d dBm\n", profile.TxPowerDBm)
	}

	device, closeTransport, err := openDevice(*spiPort, *busyPin, *serialPort, *deviceSel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeTransport()

	// Apply profile
	if *verbose {
		fmt.Println("Applying radio profile...")
	}

	if err := profile.Apply(device); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to apply profile: %v\n", err)
		os.Exit(1)
	}

	// The tool polls GetIrqStatus, so enable every source regardless of
	// what the profile routed to the DIO pins.
	if err := device.SetDioIrqParams(sx1262.DioMapping{
		Irq:  sx1262.IrqAll,
		Dio1: profile.Dio1Mask,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to set IRQ params: %v\n", err)
		os.Exit(1)
	}

	// Run appropriate mode
	switch *mode {
	case "send":
		runSendMode(device, *dataStr, *hexStr, *repeat, *interval, *verbose)
	case "recv":
		runRecvMode(device, *count, *verbose, *rawOutput)
	}
}

// irqPollInterval paces the interrupt flag polling loops.
const irqPollInterval = 5 * time.Millisecond

// txTimeout bounds one transmission; a packet that takes longer than
// this is stuck.
const txTimeout = 10 * time.Second

func runSendMode(device *sx1262.Device, dataStr, hexStr string, repeat uint, interval time.Duration, verbose bool) {
	// Determine data to send
	var data []byte

	if hexStr != "" {
		var err error
		data, err = hex.DecodeString(hexStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Invalid hex string: %v\n", err)
			os.Exit(1)
		}
	} else if dataStr != "" {
		data = []byte(dataStr)
	} else {
		fmt.Fprintln(os.Stderr, "Error: Must specify -data or -hex for send mode")
		os.Exit(1)
	}

	if len(data) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No data to send")
		os.Exit(1)
	}

	transmissions := int(repeat)
	if transmissions == 0 {
		transmissions = 1
	}

	if verbose {
		fmt.Printf("Transmitting %d bytes", len(data))
		if transmissions > 1 {
			fmt.Printf(" (%d times, %v apart)", transmissions, interval)
		}
		fmt.Println()
		fmt.Printf("Data (hex): %s\n", hex.EncodeToString(data))
	}

	for i := 0; i < transmissions; i++ {
		if err := transmitOnce(device, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Transmit failed: %v\n", err)
			os.Exit(1)
		}
		if verbose && transmissions > 1 {
			fmt.Printf("  Sent %d/%d\n", i+1, transmissions)
		}
		if i < transmissions-1 {
			time.Sleep(interval)
		}
	}

	fmt.Println("Transmission complete")
}

// transmitOnce stages one payload, starts the transmission and waits
// for the chip to report TxDone.
func transmitOnce(device *sx1262.Device, data []byte) error {
	if err := device.ClearIrqStatus(sx1262.IrqAll); err != nil {
		return err
	}
	if err := device.WritePayload(data); err != nil {
		return err
	}
	if err := device.SetTx(sx1262.TimeoutSteps(txTimeout)); err != nil {
		return err
	}

	deadline := time.Now().Add(txTimeout + time.Second)
	for {
		irqs, err := device.GetIrqStatus()
		if err != nil {
			return err
		}
		if irqs&sx1262.IrqTxDone != 0 {
			if err := device.ClearIrqStatus(sx1262.IrqAll); err != nil {
				return err
			}
			// The chip fell back to standby on its own; pick that up
			// so the next transmission is legal.
			_, err := device.GetStatus()
			return err
		}
		if irqs&sx1262.IrqTimeout != 0 {
			device.ClearIrqStatus(sx1262.IrqAll)
			return fmt.Errorf("chip reported TX timeout")
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no TxDone within %v", txTimeout)
		}
		time.Sleep(irqPollInterval)
	}
}

func runRecvMode(device *sx1262.Device, count int, verbose, rawOutput bool) {
	// Set up signal handler for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Enter receive mode
	if verbose {
		fmt.Println("Entering receive mode...")
	}

	if err := device.SetRx(sx1262.RxContinuous); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to enter RX mode: %v\n", err)
		os.Exit(1)
	}

	if !rawOutput {
		fmt.Println("Listening for packets (Ctrl+C to stop)...")
		fmt.Println()
	}

	packetsReceived := 0
	crcDropped := 0
	startTime := time.Now()

	for {
		// Check for shutdown signal (non-blocking)
		select {
		case <-sigChan:
			if !rawOutput {
				fmt.Printf("\n\nReceived %d packets, dropped %d CRC failures in %v\n",
					packetsReceived, crcDropped, time.Since(startTime).Round(time.Second))
			}
			return
		default:
		}

		irqs, err := device.GetIrqStatus()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: IRQ read failed: %v\n", err)
			os.Exit(1)
		}

		if irqs&sx1262.IrqRxDone == 0 {
			time.Sleep(irqPollInterval)
			continue
		}

		crcFailed := irqs&sx1262.IrqCrcError != 0
		if err := device.ClearIrqStatus(sx1262.IrqAll); err != nil {
			fmt.Fprintf(os.Stderr, "Error: IRQ clear failed: %v\n", err)
			os.Exit(1)
		}

		if crcFailed {
			crcDropped++
			if verbose {
				fmt.Println("  [dropped] CRC failed")
			}
			continue
		}

		data, err := device.ReadPayload()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Payload read failed: %v\n", err)
			os.Exit(1)
		}

		packetsReceived++
		timestamp := time.Now()

		if rawOutput {
			// Raw hex output for piping
			fmt.Println(hex.EncodeToString(data))
		} else {
			// Formatted output with link quality
			fmt.Printf("[%s] Packet #%d (%d bytes):\n",
				timestamp.Format("15:04:05.000"),
				packetsReceived,
				len(data))

			if status, err := device.GetPacketStatus(); err == nil {
				if pt, err := device.GetPacketType(); err == nil && pt == sx1262.PacketTypeLoRa {
					lora := status.LoRa()
					fmt.Printf("  RSSI: %.1f dBm, SNR: %.2f dB\n", lora.RssiPkt, lora.SnrPkt)
				} else {
					gfsk := status.Gfsk()
					fmt.Printf("  RSSI: %.1f dBm (sync), %.1f dBm (avg)\n", gfsk.RssiSync, gfsk.RssiAvg)
				}
			}

			fmt.Printf("  Hex: %s\n", hex.EncodeToString(data))
			if len(data) <= 64 {
				fmt.Printf("  ASCII: %s\n", makePrintable(data))
			} else {
				fmt.Printf("  ASCII: %s... (truncated)\n", makePrintable(data[:64]))
			}
			fmt.Println()
		}

		// Check packet count limit
		if count > 0 && packetsReceived >= count {
			if !rawOutput {
				fmt.Printf("Received requested %d packets\n", count)
			}
			return
		}
	}
}

// makePrintable converts bytes to a printable string, replacing non-printable characters
func makePrintable(data []byte) string {
	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b < 127 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
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
