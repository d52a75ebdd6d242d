package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"
)

// USB identifiers of the bridge firmware
const (
	VendorID  = 0x1D50
	ProductID = 0x6112

	// Bulk endpoint pair carrying bridge frames
	EndpointNum = 1
)

const usbIOTimeout = 2 * time.Second

// USBCarrier is a Carrier over the bridge's bulk endpoint pair.
type USBCarrier struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         *gousb.InEndpoint
	epOut        *gousb.OutEndpoint

	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int
}

// FindAllCarriers opens every connected bridge.
func FindAllCarriers(ctx *gousb.Context) ([]*USBCarrier, error) {
	carriers := []*USBCarrier{}

	usbDevices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, usbDev := range usbDevices {
		carrier, err := wrapUSBDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		carriers = append(carriers, carrier)
	}

	return carriers, nil
}

func wrapUSBDevice(usbDev *gousb.Device) (*USBCarrier, error) {
	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()
	serial, _ := usbDev.SerialNumber()

	usbDev.SetAutoDetach(true)

	config, err := usbDev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(EndpointNum)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(EndpointNum)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	desc := usbDev.Desc
	carrier := &USBCarrier{
		usbDevice:    usbDev,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          desc.Bus,
		Address:      desc.Address,
	}

	// Drain stale response data left by a previous session
	carrier.drain()

	return carrier, nil
}

// drain reads and discards pending data on the IN endpoint.
func (c *USBCarrier) drain() {
	buf := make([]byte, 512)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := c.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil || n == 0 {
			break
		}
	}
}

func (c *USBCarrier) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), usbIOTimeout)
	defer cancel()
	n, err := c.epOut.WriteContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("failed to write to bulk endpoint: %w", err)
	}
	if n != len(p) {
		return n, fmt.Errorf("short write: wrote %d of %d bytes", n, len(p))
	}
	return n, nil
}

func (c *USBCarrier) Read(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), usbIOTimeout)
	defer cancel()
	n, err := c.epIn.ReadContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("failed to read from bulk endpoint: %w", err)
	}
	return n, nil
}

// Close releases the interface, configuration and device.
func (c *USBCarrier) Close() error {
	if c.usbInterface != nil {
		c.usbInterface.Close()
	}
	if c.usbConfig != nil {
		c.usbConfig.Close()
	}
	if c.usbDevice != nil {
		return c.usbDevice.Close()
	}
	return nil
}

// String returns a human-readable description of the carrier.
func (c *USBCarrier) String() string {
	return fmt.Sprintf("%s %s (Serial: %s)", c.Manufacturer, c.Product, c.Serial)
}

// DeviceSelector specifies how to identify a bridge device
// Supported formats:
//   - ""           : Use first available device
//   - "serial"     : Match by serial number (e.g., "009a")
//   - "bus:addr"   : Match by USB bus and address (e.g., "1:10")
//   - "#N"         : Use Nth device, 0-indexed (e.g., "#0", "#1")
type DeviceSelector string

// DeviceFlagUsage returns the usage text for a device selector flag.
func DeviceFlagUsage() string {
	return "Device selector: serial, bus:addr, or #N (default: first device)"
}

// SelectCarrier opens the bridge matching the selector.
func SelectCarrier(ctx *gousb.Context, selector DeviceSelector) (*USBCarrier, error) {
	carriers, err := FindAllCarriers(ctx)
	if err != nil {
		return nil, err
	}
	if len(carriers) == 0 {
		return nil, ErrNoDevices
	}

	keep := -1
	sel := string(selector)
	switch {
	case sel == "":
		keep = 0
	case strings.HasPrefix(sel, "#"):
		index, err := strconv.Atoi(sel[1:])
		if err != nil {
			closeAll(carriers)
			return nil, fmt.Errorf("invalid device index: %s", sel)
		}
		if index < 0 || index >= len(carriers) {
			closeAll(carriers)
			return nil, fmt.Errorf("device index %d out of range (found %d devices)", index, len(carriers))
		}
		keep = index
	case strings.Contains(sel, ":"):
		parts := strings.SplitN(sel, ":", 2)
		bus, busErr := strconv.Atoi(parts[0])
		addr, addrErr := strconv.Atoi(parts[1])
		if busErr != nil || addrErr != nil {
			closeAll(carriers)
			return nil, fmt.Errorf("invalid bus:address format: %s", sel)
		}
		for i, c := range carriers {
			if c.Bus == bus && c.Address == addr {
				keep = i
				break
			}
		}
		if keep == -1 {
			closeAll(carriers)
			return nil, fmt.Errorf("no bridge at bus %d address %d", bus, addr)
		}
	default:
		for i, c := range carriers {
			if c.Serial == sel {
				keep = i
				break
			}
		}
		if keep == -1 {
			closeAll(carriers)
			return nil, fmt.Errorf("no bridge with serial %s", sel)
		}
	}

	for i, c := range carriers {
		if i != keep {
			c.Close()
		}
	}
	return carriers[keep], nil
}

func closeAll(carriers []*USBCarrier) {
	for _, c := range carriers {
		c.Close()
	}
}

// OpenUSB opens the bridge matching the selector and verifies the
// firmware link with a ping.
func OpenUSB(ctx *gousb.Context, selector DeviceSelector) (*Bridge, error) {
	carrier, err := SelectCarrier(ctx, selector)
	if err != nil {
		return nil, err
	}
	b := New(carrier)
	if err := b.Ping([]byte{0x55, 0xAA}); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}
