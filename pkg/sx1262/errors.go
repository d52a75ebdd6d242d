package sx1262

import "fmt"

// RangeError reports a command or register parameter outside its
// documented domain. A request that fails validation is never sent to
// the chip, so retrying with the same value always fails the same way.
type RangeError struct {
	Param string // parameter name
	Msg   string // what was wrong with the value
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Msg)
}

// FormatError reports a response whose length or shape does not match
// the command descriptor. It usually means the host and chip have lost
// frame sync; callers should re-synchronize with GetStatus.
type FormatError struct {
	What string
	Want int // expected byte count
	Got  int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: want %d bytes, got %d", e.What, e.Want, e.Got)
}

// IllegalStateError reports a command issued while the driver believes
// the chip is in a state the command is not documented for, such as a
// configuration command outside StandbyRC or LoRa parameters while the
// chip is set for GFSK. The transport is never touched; callers must
// transition the chip first.
type IllegalStateError struct {
	Op    string
	State string // believed state that made the command illegal
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s not legal in %s", e.Op, e.State)
}

// TransportError wraps a failed bus exchange. The chip may or may not
// have acted on the frame, so the believed mode is demoted to
// ModeUnknown; callers re-synchronize with GetStatus or reset the chip.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func rangeErrorf(param, format string, args ...any) error {
	return &RangeError{Param: param, Msg: fmt.Sprintf(format, args...)}
}
