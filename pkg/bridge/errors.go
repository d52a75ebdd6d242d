package bridge

import "errors"

// Bridge errors
var (
	// ErrBadMarker indicates a response that did not start with the
	// response marker; host and bridge have lost frame sync
	ErrBadMarker = errors.New("bad response marker")

	// ErrShortFrame indicates a truncated response frame
	ErrShortFrame = errors.New("short response frame")

	// ErrPayloadTooLarge indicates a payload exceeding the firmware buffer
	ErrPayloadTooLarge = errors.New("payload exceeds bridge buffer")

	// ErrBusyTimeout indicates the chip BUSY line never released
	ErrBusyTimeout = errors.New("bridge: chip busy timeout")

	// ErrSpiFault indicates the bridge could not complete the SPI transfer
	ErrSpiFault = errors.New("bridge: SPI fault")

	// ErrBadRequest indicates the firmware rejected the request frame
	ErrBadRequest = errors.New("bridge: malformed request")

	// ErrUnknownStatus indicates a status code this driver does not know
	ErrUnknownStatus = errors.New("bridge: unknown status")

	// ErrNoDevices indicates no bridge hardware was found
	ErrNoDevices = errors.New("no bridge devices found")
)
