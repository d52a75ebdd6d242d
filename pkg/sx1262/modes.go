package sx1262

// Mode is an operational mode of the chip as tracked by the driver.
// The zero value is ModeUnknown: the driver starts there and returns
// there whenever a transport failure leaves the hardware state
// unconfirmed.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeSleep
	ModeStandbyRC   // standby on the 13 MHz RC oscillator
	ModeStandbyXosc // standby on the 32 MHz crystal
	ModeFS          // frequency synthesis, PLL locked
	ModeRX
	ModeTX
)

func (m Mode) String() string {
	switch m {
	case ModeSleep:
		return "Sleep"
	case ModeStandbyRC:
		return "StandbyRC"
	case ModeStandbyXosc:
		return "StandbyXOSC"
	case ModeFS:
		return "FS"
	case ModeRX:
		return "RX"
	case ModeTX:
		return "TX"
	default:
		return "Unknown"
	}
}

// Command legality sets, matching the datasheet preconditions for each
// opcode. A nil set means the command is documented for every mode.
// ModeUnknown always passes: before the first status read the driver
// cannot prove a command illegal, so it stays optimistic.
var (
	configModes  = []Mode{ModeStandbyRC}
	standbyModes = []Mode{ModeStandbyRC, ModeStandbyXosc}
	entryModes   = []Mode{ModeStandbyRC, ModeStandbyXosc, ModeFS}
	awakeModes   = []Mode{ModeStandbyRC, ModeStandbyXosc, ModeFS, ModeRX, ModeTX}
	receiveModes = []Mode{ModeRX}
)

func legalIn(mode Mode, set []Mode) bool {
	if mode == ModeUnknown || len(set) == 0 {
		return true
	}
	for _, m := range set {
		if m == mode {
			return true
		}
	}
	return false
}

// Status is the chip status byte clocked out as the first response byte
// of every Get command.
type Status byte

// ChipMode decodes the operating mode reported in bits 6:4. Values the
// datasheet leaves reserved decode to ModeUnknown.
func (s Status) ChipMode() Mode {
	switch (s >> 4) & 0x07 {
	case 0x2:
		return ModeStandbyRC
	case 0x3:
		return ModeStandbyXosc
	case 0x4:
		return ModeFS
	case 0x5:
		return ModeRX
	case 0x6:
		return ModeTX
	default:
		return ModeUnknown
	}
}

// CommandStatus decodes the command status reported in bits 3:1.
func (s Status) CommandStatus() CommandStatus {
	return CommandStatus((s >> 1) & 0x07)
}

func (s Status) String() string {
	return s.ChipMode().String() + "/" + s.CommandStatus().String()
}

// CommandStatus is the outcome of the previous command as reported in
// the status byte.
type CommandStatus byte

const (
	CmdDataAvailable    CommandStatus = 0x2 // packet received, data can be retrieved
	CmdTimeout          CommandStatus = 0x3 // command timed out
	CmdProcessingError  CommandStatus = 0x4 // command could not be processed
	CmdExecutionFailure CommandStatus = 0x5 // command could not be executed in the current mode
	CmdTxDone           CommandStatus = 0x6 // transmission finished
)

func (c CommandStatus) String() string {
	switch c {
	case CmdDataAvailable:
		return "DataAvailable"
	case CmdTimeout:
		return "Timeout"
	case CmdProcessingError:
		return "ProcessingError"
	case CmdExecutionFailure:
		return "ExecutionFailure"
	case CmdTxDone:
		return "TxDone"
	default:
		return "Reserved"
	}
}
