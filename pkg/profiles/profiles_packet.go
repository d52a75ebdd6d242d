package profiles

import (
	"fmt"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Packet Format Profile Factories
// These test different packet configurations: length modes, headers,
// IQ polarity, addressing.

// NewFixedLengthVariant creates GFSK profiles with fixed packet length
// pktLen: packet length in bytes (1-255)
func NewFixedLengthVariant(pktLen uint8) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("pkt-fixed-%d", pktLen)
	p.Description = fmt.Sprintf("Fixed packet length: %d bytes", pktLen)
	p.Gfsk.FixedLength = true
	p.Gfsk.PayloadLength = pktLen
	return p
}

// NewVariableLengthVariant creates GFSK profiles with variable packet
// length
// maxLen: maximum packet length in bytes
func NewVariableLengthVariant(maxLen uint8) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("pkt-var-max%d", maxLen)
	p.Description = fmt.Sprintf("Variable packet length: max %d bytes", maxLen)
	p.Gfsk.PayloadLength = maxLen
	return p
}

// NewImplicitHeaderVariant creates LoRa profiles with the implicit
// header, where both sides must agree on the length in advance
// payloadLen: the fixed payload length in bytes
func NewImplicitHeaderVariant(payloadLen uint8) *Profile {
	p := New433LoRaSensor(sx1262.SF7)
	p.Name = fmt.Sprintf("pkt-lora-implicit-%d", payloadLen)
	p.Description = fmt.Sprintf("LoRa implicit header: %d byte payload", payloadLen)
	p.LoRa.ImplicitHeader = true
	p.LoRa.PayloadLength = payloadLen
	return p
}

// NewInvertedIqVariant creates a LoRa profile with inverted IQ, the
// polarity gateways transmit downlinks with
func NewInvertedIqVariant() *Profile {
	p := New433LoRaSensor(sx1262.SF7)
	p.Name = "pkt-lora-inverted-iq"
	p.Description = "LoRa inverted IQ polarity"
	p.LoRa.InvertIq = true
	return p
}

// NewAddressFilterVariant creates a GFSK profile with hardware address
// filtering
// node: this node's address
func NewAddressFilterVariant(node uint8) *Profile {
	p := New433Gfsk(38400)
	p.Name = fmt.Sprintf("pkt-addr-node%02X", node)
	p.Description = fmt.Sprintf("Address filter: node 0x%02X, broadcast 0xFF", node)
	p.Gfsk.AddressFilter = sx1262.AddressFilterNodeBroadcast
	p.Gfsk.NodeAddress = node
	p.Gfsk.BroadcastAddress = 0xFF
	p.Gfsk.PayloadLength = 254
	return p
}

// NewMaxPacketSize creates a profile for maximum packet size testing
func NewMaxPacketSize() *Profile {
	p := New433Gfsk(100000)
	p.Name = "pkt-max-size"
	p.Description = "Maximum packet size: 255 bytes"
	p.Gfsk.PayloadLength = 255
	return p
}

// NewMinPacketSize creates a profile for minimum packet size testing
func NewMinPacketSize() *Profile {
	p := New433Gfsk(9600)
	p.Name = "pkt-min-size"
	p.Description = "Minimum packet size: 1 byte"
	p.Gfsk.FixedLength = true
	p.Gfsk.PayloadLength = 1
	return p
}

// GeneratePacketProfiles generates all packet format profiles
func GeneratePacketProfiles(basePath string) error {
	profiles := []*Profile{
		// Fixed length variants
		NewFixedLengthVariant(8),
		NewFixedLengthVariant(32),
		NewFixedLengthVariant(64),
		NewFixedLengthVariant(128),

		// Variable length variants
		NewVariableLengthVariant(60),
		NewVariableLengthVariant(128),
		NewVariableLengthVariant(255),

		// LoRa header and polarity variants
		NewImplicitHeaderVariant(16),
		NewImplicitHeaderVariant(64),
		NewInvertedIqVariant(),

		// Address filtering
		NewAddressFilterVariant(0x01),
		NewAddressFilterVariant(0x42),

		// Size extremes
		NewMaxPacketSize(),
		NewMinPacketSize(),
	}

	if err := EnsureDir(basePath + "/dummy"); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, p := range profiles {
		filename := fmt.Sprintf("%s/%s.json", basePath, p.Name)
		if err := p.SaveToFile(filename); err != nil {
			return fmt.Errorf("failed to save profile %s: %w", p.Name, err)
		}
	}

	return nil
}
