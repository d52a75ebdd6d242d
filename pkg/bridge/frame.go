package bridge

import (
	"encoding/binary"
	"fmt"
)

// Request and response markers. Every exchange is one request frame
// followed by exactly one response frame; the markers let the host
// re-find frame boundaries after a dropped byte.
const (
	RequestMarker  = 0x5A
	ResponseMarker = 0xA5
)

// Bridge operations
const (
	OpExchange = 0x01 // SPI frame exchange, payload echoed back full-duplex
	OpBusy     = 0x02 // read the chip BUSY line, 1-byte response
	OpReset    = 0x03 // pulse NRST, no response payload
	OpPing     = 0x04 // echo the payload
	OpVersion  = 0x05 // firmware version string
)

// Response status codes
const (
	StatusOK          = 0x00
	StatusBusyTimeout = 0x01 // chip BUSY never released
	StatusSpiFault    = 0x02
	StatusBadRequest  = 0x03 // unknown op or malformed frame
	StatusOverflow    = 0x04 // payload exceeds the firmware buffer
)

// MaxPayload is the largest payload the bridge firmware buffers. SPI
// frames top out at an opcode plus 255 data bytes, so this leaves
// headroom.
const MaxPayload = 512

const headerLen = 4 // marker + op/status + length (u16 LE)

// encodeRequest builds one request frame: marker, op, payload length
// as a little-endian u16, payload.
func encodeRequest(op byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	frame := make([]byte, headerLen+len(payload))
	frame[0] = RequestMarker
	frame[1] = op
	binary.LittleEndian.PutUint16(frame[2:4], uint16(len(payload)))
	copy(frame[4:], payload)
	return frame, nil
}

// decodeResponseHeader validates a response header and returns the
// status code and payload length.
func decodeResponseHeader(header []byte) (status byte, length int, err error) {
	if len(header) < headerLen {
		return 0, 0, fmt.Errorf("%w: %d header bytes", ErrShortFrame, len(header))
	}
	if header[0] != ResponseMarker {
		return 0, 0, fmt.Errorf("%w: 0x%02X", ErrBadMarker, header[0])
	}
	length = int(binary.LittleEndian.Uint16(header[2:4]))
	if length > MaxPayload {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, length)
	}
	return header[1], length, nil
}

// statusError maps a non-OK status code to its sentinel error.
func statusError(status byte) error {
	switch status {
	case StatusOK:
		return nil
	case StatusBusyTimeout:
		return ErrBusyTimeout
	case StatusSpiFault:
		return ErrSpiFault
	case StatusBadRequest:
		return ErrBadRequest
	case StatusOverflow:
		return ErrPayloadTooLarge
	default:
		return fmt.Errorf("%w: 0x%02X", ErrUnknownStatus, status)
	}
}
