// sx-scan sweeps an SX1261/2 across a frequency list and reports the
// strongest carriers.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/gousb"

	"github.com/BroderickCarlin/gosx1262/pkg/bridge"
	"github.com/BroderickCarlin/gosx1262/pkg/scanner"
	"github.com/BroderickCarlin/gosx1262/pkg/spibus"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

var (
	configPath = flag.String("config", "", "Scanner configuration file (JSON)")
	freqList   = flag.String("freqs", "", "Comma-separated frequencies in MHz (default: built-in list)")
	hopper     = flag.Bool("hopper", false, "Use the minimal frequency set for rapid scanning")
	threshold  = flag.Float64("threshold", float64(scanner.DefaultRSSIThreshold), "RSSI threshold in dBm for signal detection")
	dwell      = flag.Duration("dwell", scanner.DefaultDwellTime, "Dwell time per frequency")
	duration   = flag.Duration("duration", 0, "Scan duration (0 = indefinite)")
	spiPort    = flag.String("spi", "", "SPI port for a directly wired chip (e.g. /dev/spidev0.0)")
	busyPin    = flag.String("busy", "", "BUSY GPIO name for SPI (e.g. GPIO24)")
	serialPort = flag.String("serial", "", "Serial port carrying a bridge (e.g. /dev/ttyACM0)")
	deviceSel  = flag.String("d", "", bridge.DeviceFlagUsage())
	verbose    = flag.Bool("v", false, "Verbose output - show every sweep")
	quiet      = flag.Bool("q", false, "Quiet mode - only show detected signals")
	csvOut     = flag.String("csv", "", "Output CSV file for sweep results")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Frequency scanner for the SX1261/2\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                 # Scan the built-in frequency list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -freqs 433.92,868.35,915        # Scan specific frequencies\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -threshold -80 -q               # Only show signals above -80 dBm\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -csv sweep.csv -duration 30s    # Save sweep results to CSV\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -spi /dev/spidev0.0 -busy GPIO24 # Directly wired chip\n", os.Args[0])
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	device, closeTransport, err := openDevice(*spiPort, *busyPin, *serialPort, *deviceSel)
	if err != nil {
		return err
	}
	defer closeTransport()

	scan, cfg, err := buildScanner(device)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %d frequencies, threshold %.1f dBm\n",
		len(cfg.CoarseFrequencies), cfg.RSSIThreshold)

	// Set up CSV output if requested
	var csvWriter *bufio.Writer
	if *csvOut != "" {
		csvFile, err := os.Create(*csvOut)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer csvFile.Close()
		csvWriter = bufio.NewWriter(csvFile)
		defer csvWriter.Flush()

		fmt.Fprintln(csvWriter, "timestamp_ms,detected,coarse_mhz,coarse_dbm,fine_mhz,fine_dbm")
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx := context.Background()
	var cancel context.CancelFunc
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		fmt.Printf("Scanning for %v...\n", *duration)
	} else {
		ctx, cancel = context.WithCancel(ctx)
		fmt.Println("Scanning... (Press Ctrl+C to stop)")
	}
	defer cancel()

	results := make(chan *scanner.ScanResult, 16)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- scan.ScanContinuous(ctx, results)
	}()

	sweepCount := 0
	signalCount := 0

	if !*quiet {
		fmt.Println("\n Sweep | Frequency (MHz) | RSSI (dBm) | Signal")
		fmt.Println("-------+-----------------+------------+--------")
	}

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nStopping...")
			cancel()
			<-scanErr
			printSummary(scan, sweepCount, signalCount)
			return nil

		case err := <-scanErr:
			if err != nil && err != context.DeadlineExceeded && err != context.Canceled {
				return err
			}
			printSummary(scan, sweepCount, signalCount)
			return nil

		case result, ok := <-results:
			if !ok {
				// Drained; wait for the scan goroutine to report
				results = nil
				continue
			}
			sweepCount++

			freq := result.CoarseFrequency
			rssi := result.CoarseRSSI
			if result.SignalDetected {
				signalCount++
				freq = result.FineFrequency
				rssi = result.FineRSSI
			}

			if csvWriter != nil {
				fmt.Fprintf(csvWriter, "%d,%t,%.6f,%.1f,%.6f,%.1f\n",
					result.Timestamp.UnixMilli(), result.SignalDetected,
					float64(result.CoarseFrequency)/1e6, result.CoarseRSSI,
					float64(result.FineFrequency)/1e6, result.FineRSSI)
			}

			if result.SignalDetected {
				if *quiet {
					fmt.Printf("SIGNAL: %.3f MHz @ %.1f dBm (%s)\n",
						float64(freq)/1e6, rssi, scanner.FrequencyBand(freq))
				} else {
					fmt.Printf(" %5d | %15.3f | %10.1f | %s\n",
						sweepCount, float64(freq)/1e6, rssi, scanner.FrequencyBand(freq))
				}
			} else if !*quiet && (*verbose || sweepCount%50 == 0) {
				fmt.Printf(" %5d | %15.3f | %10.1f | scanning...\n",
					sweepCount, float64(freq)/1e6, rssi)
			}
		}
	}
}

// buildScanner assembles the scanner from the config file or the flags.
func buildScanner(device *sx1262.Device) (scanner.Scanner, *scanner.ScanConfig, error) {
	if *configPath != "" {
		scan, err := scanner.NewFromConfigFile(device, *configPath)
		if err != nil {
			return nil, nil, err
		}
		return scan, scan.GetConfig(), nil
	}

	cfg := scanner.DefaultConfig()
	cfg.RSSIThreshold = float32(*threshold)
	cfg.DwellTime = *dwell
	if *hopper {
		cfg.CoarseFrequencies = scanner.HopperFrequencies
	}
	if *freqList != "" {
		freqs, err := parseFrequencies(*freqList)
		if err != nil {
			return nil, nil, err
		}
		cfg.CoarseFrequencies = freqs
	}
	if *verbose {
		cfg.DebugLog = func(format string, args ...interface{}) {
			fmt.Printf("  debug: "+format+"\n", args...)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return scanner.New(device, cfg), cfg, nil
}

// parseFrequencies parses a comma-separated list of MHz values.
func parseFrequencies(list string) ([]uint32, error) {
	var freqs []uint32
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		mhz, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency %q: %w", part, err)
		}
		freqs = append(freqs, uint32(mhz*1e6))
	}
	return freqs, nil
}

func printSummary(scan scanner.Scanner, sweeps, signals int) {
	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Sweeps:  %d\n", sweeps)
	fmt.Printf("Signals: %d\n", signals)

	tracked := scan.GetActiveSignals()
	if len(tracked) == 0 {
		return
	}
	fmt.Printf("\nTracked signals:\n")
	for _, s := range tracked {
		fmt.Printf("  %.3f MHz  max %.1f dBm  seen %d times  (%s)\n",
			float64(s.Frequency)/1e6, s.MaxRSSI, s.DetectionCount,
			scanner.FrequencyBand(s.Frequency))
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
