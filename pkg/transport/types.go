package transport

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=types.go -destination=mock_transport.go -package=transport

// Command is the closed set of device commands the monitor issues
type Command int

// device commands
const (
	CmdIdentify Command = iota
	CmdReadValues
	CmdReadThresholds
	CmdReadErrorLog
	CmdReadSelfTestLog
	CmdEnableSMART
	CmdDisableSMART
	CmdEnableAutosave
	CmdDisableAutosave
	CmdEnableAutoOffline
	CmdDisableAutoOffline
	CmdStartSelfTest
	CmdAbortSelfTest
	CmdStatusCheck
)

var commandNames = map[Command]string{
	CmdIdentify:           "IDENTIFY DEVICE",
	CmdReadValues:         "SMART READ DATA",
	CmdReadThresholds:     "SMART READ THRESHOLDS",
	CmdReadErrorLog:       "SMART READ LOG (error log)",
	CmdReadSelfTestLog:    "SMART READ LOG (self-test log)",
	CmdEnableSMART:        "SMART ENABLE",
	CmdDisableSMART:       "SMART DISABLE",
	CmdEnableAutosave:     "SMART ENABLE AUTOSAVE",
	CmdDisableAutosave:    "SMART DISABLE AUTOSAVE",
	CmdEnableAutoOffline:  "SMART ENABLE AUTO OFFLINE",
	CmdDisableAutoOffline: "SMART DISABLE AUTO OFFLINE",
	CmdStartSelfTest:      "SMART EXECUTE OFFLINE IMMEDIATE",
	CmdAbortSelfTest:      "SMART ABORT SELF-TEST",
	CmdStatusCheck:        "SMART RETURN STATUS",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// TransfersData reports commands that fill the 512-byte buffer
func (c Command) TransfersData() bool {
	switch c {
	case CmdIdentify, CmdReadValues, CmdReadThresholds, CmdReadErrorLog, CmdReadSelfTestLog:
		return true
	}
	return false
}

// self-test subcommands passed as select of CmdStartSelfTest
const (
	SelectOfflineImmediate = 0x00
	SelectShortSelfTest    = 0x01
	SelectExtendedSelfTest = 0x02
	SelectConveyanceTest   = 0x03
	SelectSelectiveTest    = 0x04
	SelectAbortSelfTest    = 0x7f
)

// BufferSize is the size of the data buffer of every command
const BufferSize = 512

// status register signatures returned by CmdStatusCheck in buf[0:2]
const (
	StatusMidOK      = 0x4F
	StatusHighOK     = 0xC2
	StatusMidFailed  = 0xF4
	StatusHighFailed = 0x2C
)

// Transport issues commands to a single device
type Transport interface {
	// SendCommand issues cmd. For data commands buf receives the 512-byte
	// response; for CmdStatusCheck buf[0:2] receives the LBA mid and high
	// registers. The error is an *Error.
	SendCommand(ctx context.Context, cmd Command, sel int, buf []byte) error
	Close() error
}

// Opener opens a device by name and type
type Opener interface {
	Open(name, devType string) (Transport, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(name, devType string) (Transport, error)

// Open calls f
func (f OpenerFunc) Open(name, devType string) (Transport, error) {
	return f(name, devType)
}

// ErrorKind separates capability errors from transport errors
type ErrorKind int

// error kinds
const (
	// KindRejected: the device refused the command as unsupported
	KindRejected ErrorKind = iota
	// KindIO: the command could not be delivered or completed
	KindIO
	// KindTimeout: the command did not complete before its deadline
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindIO:
		return "I/O error"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

var (
	// ErrTimeout is wrapped by timeout errors
	ErrTimeout = errors.New("device command timed out")
	// ErrBusy is wrapped by timeout errors of commands refused while an
	// abandoned command is still running on the device
	ErrBusy = fmt.Errorf("%w, previous command still running", ErrTimeout)
	// ErrBadStatus is returned for status registers matching neither outcome
	ErrBadStatus = errors.New("unexpected status registers")
)

// Error is returned by Transport implementations
type Error struct {
	Kind    ErrorKind
	Command Command
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Command, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Command, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an *Error
func NewError(kind ErrorKind, cmd Command, err error) *Error {
	return &Error{Kind: kind, Command: cmd, Err: err}
}

// IsRejected reports a capability error
func IsRejected(err error) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == KindRejected
}

// IsTransport reports an I/O or timeout error. Errors of unknown type count
// as transport errors.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	return !IsRejected(err)
}

// HealthStatus decodes the registers returned by CmdStatusCheck
func HealthStatus(buf []byte) (failing bool, err error) {
	if len(buf) < 2 {
		return false, fmt.Errorf("%w: short status buffer", ErrBadStatus)
	}
	switch {
	case buf[0] == StatusMidOK && buf[1] == StatusHighOK:
		return false, nil
	case buf[0] == StatusMidFailed && buf[1] == StatusHighFailed:
		return true, nil
	}
	return false, fmt.Errorf("%w 0x%02x 0x%02x", ErrBadStatus, buf[0], buf[1])
}
