// Package config snapshots the full configuration of an SX1261/2 into
// a JSON file and loads it back. A snapshot combines the retained
// register block with a telemetry section describing the chip's state
// at dump time.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/BroderickCarlin/gosx1262/pkg/registers"
	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// DeviceConfig holds all configuration data for an SX1261/2 device
type DeviceConfig struct {
	PacketType string                `json:"packet_type"`
	Timestamp  time.Time             `json:"timestamp"`
	Registers  registers.RegisterMap `json:"registers"`
	Telemetry  Telemetry             `json:"telemetry"`
}

// Telemetry captures the chip's volatile status at dump time. It is
// informational only; ApplyToDevice ignores it.
type Telemetry struct {
	Mode            string `json:"mode"`
	CommandStatus   string `json:"command_status"`
	PendingIrqs     string `json:"pending_irqs"`
	DeviceErrors    string `json:"device_errors"`
	PacketsReceived uint16 `json:"packets_received"`
	CrcErrors       uint16 `json:"crc_errors"`
	HeaderErrors    uint16 `json:"header_errors"`
}

// DumpFromDevice reads all configuration from a device. The chip is
// parked in standby for the register reads and the original mode is
// restored afterwards, except for TX, where re-entering would
// retransmit the staged buffer.
func DumpFromDevice(device *sx1262.Device) (*DeviceConfig, error) {
	status, err := device.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get chip status: %w", err)
	}
	originalMode := status.ChipMode()

	if originalMode != sx1262.ModeStandbyRC {
		if err := device.SetStandby(sx1262.ModeStandbyRC); err != nil {
			return nil, fmt.Errorf("failed to enter standby: %w", err)
		}
	}

	packetType, err := device.GetPacketType()
	if err != nil {
		return nil, fmt.Errorf("failed to get packet type: %w", err)
	}

	registerMap, err := registers.ReadAllRegisters(device)
	if err != nil {
		return nil, fmt.Errorf("failed to read registers: %w", err)
	}

	// Telemetry is best effort
	irqs, _ := device.GetIrqStatus()
	deviceErrors, _ := device.GetDeviceErrors()
	stats, _ := device.GetStats()

	restoreMode(device, originalMode)

	return &DeviceConfig{
		PacketType: packetType.String(),
		Timestamp:  time.Now(),
		Registers:  *registerMap,
		Telemetry: Telemetry{
			Mode:            originalMode.String(),
			CommandStatus:   status.CommandStatus().String(),
			PendingIrqs:     irqs.String(),
			DeviceErrors:    deviceErrors.String(),
			PacketsReceived: stats.PacketsReceived,
			CrcErrors:       stats.CrcErrors,
			HeaderErrors:    stats.HeaderErrors,
		},
	}, nil
}

// ApplyToDevice writes the register block of a configuration to a
// device, parking the chip in standby for the writes and restoring the
// original mode afterwards.
func ApplyToDevice(device *sx1262.Device, configuration *DeviceConfig) error {
	status, err := device.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get chip status: %w", err)
	}
	originalMode := status.ChipMode()

	if originalMode != sx1262.ModeStandbyRC {
		if err := device.SetStandby(sx1262.ModeStandbyRC); err != nil {
			return fmt.Errorf("failed to enter standby: %w", err)
		}
	}

	if err := registers.WriteAllRegisters(device, &configuration.Registers); err != nil {
		return fmt.Errorf("failed to write registers: %w", err)
	}

	restoreMode(device, originalMode)

	return nil
}

// restoreMode puts the chip back into the mode it was in before a dump
// or apply. Best effort: a chip left in standby is always safe.
func restoreMode(device *sx1262.Device, mode sx1262.Mode) {
	switch mode {
	case sx1262.ModeStandbyXosc:
		device.SetStandby(sx1262.ModeStandbyXosc)
	case sx1262.ModeFS:
		device.SetFs()
	case sx1262.ModeRX:
		device.SetRx(sx1262.RxContinuous)
	}
}

// GetLoRaSyncWordString returns a human-readable LoRa sync word
func (c *DeviceConfig) GetLoRaSyncWordString() string {
	switch c.Registers.LoRaSyncWord {
	case registers.LoRaSyncPublic:
		return "Public (0x3444)"
	case registers.LoRaSyncPrivate:
		return "Private (0x1424)"
	default:
		return fmt.Sprintf("0x%04X", c.Registers.LoRaSyncWord)
	}
}

// GetGfskSyncWordHex returns the GFSK sync word as a hex string
func (c *DeviceConfig) GetGfskSyncWordHex() string {
	return strings.ToUpper(hex.EncodeToString(c.Registers.SyncWord[:]))
}

// GetOcpMilliamps returns the configured overcurrent limit in mA
func (c *DeviceConfig) GetOcpMilliamps() float64 {
	// 2.5 mA per step
	return float64(c.Registers.OcpConfig) * 2.5
}

// GetRxGainString returns a human-readable RX gain setting
func (c *DeviceConfig) GetRxGainString() string {
	switch c.Registers.RxGain {
	case registers.RxGainBoosted:
		return "Boosted"
	case registers.RxGainPowerSaving:
		return "Power-saving"
	default:
		return fmt.Sprintf("0x%02X", c.Registers.RxGain)
	}
}
