package ata

import (
	"errors"
	"fmt"
)

// sizes of the fixed-layout records
const (
	SectorSize    = 512
	NumAttributes = 30

	attributeEntrySize = 12
	attributeTableOff  = 2
)

// attribute flag bits
const (
	FlagPrefailure   uint16 = 0x0001
	FlagOnline       uint16 = 0x0002
	FlagPerformance  uint16 = 0x0004
	FlagErrorRate    uint16 = 0x0008
	FlagEventCount   uint16 = 0x0010
	FlagSelfPreserve uint16 = 0x0020
)

// ThresholdNeverFails marks a threshold that is never compared
const ThresholdNeverFails = 0xFE

var (
	// ErrChecksum is returned for a record whose byte sum is not zero
	ErrChecksum = errors.New("checksum mismatch")
	// ErrShortRecord is returned for a buffer that is not one sector long
	ErrShortRecord = errors.New("record is not 512 bytes")
)

// ProtocolError wraps a malformed record
type ProtocolError struct {
	Record string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Record, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Attribute is one slot of the SMART values page
type Attribute struct {
	ID       uint8
	Flags    uint16
	Current  uint8
	Worst    uint8
	Raw      [6]byte
	Reserved uint8
}

// Prefailure reports whether the attribute predicts imminent failure
func (a Attribute) Prefailure() bool {
	return a.Flags&FlagPrefailure != 0
}

// Online reports whether the attribute is updated during normal operation
func (a Attribute) Online() bool {
	return a.Flags&FlagOnline != 0
}

// RawValue returns the 48-bit little-endian raw counter
func (a Attribute) RawValue() uint64 {
	var v uint64
	for i := len(a.Raw) - 1; i >= 0; i-- {
		v = v<<8 | uint64(a.Raw[i])
	}
	return v
}

// FlagsString renders the flags the way smartctl's brief mode does
func (a Attribute) FlagsString() string {
	b := []byte("------")
	for i, c := range "POSRCK" {
		if a.Flags&(1<<uint(i)) != 0 {
			b[i] = byte(c)
		}
	}
	return string(b)
}

// Threshold is one slot of the thresholds page
type Threshold struct {
	ID        uint8
	Threshold uint8
}

// Values is the SMART READ DATA page
type Values struct {
	Revision                uint16
	Attributes              [NumAttributes]Attribute
	OfflineStatus           uint8
	SelfTestExecStatus      uint8
	TotalOfflineTime        uint16
	OfflineCapability       uint8
	SmartCapability         uint16
	ErrorLogCapability      uint8
	ShortTestMinutes        uint8
	ExtendedTestMinutes     uint8
	ConveyanceTestMinutes   uint8
	ExtendedTestMinutesWord uint16
	Checksum                uint8
}

// Thresholds is the SMART READ THRESHOLDS page
type Thresholds struct {
	Revision   uint16
	Thresholds [NumAttributes]Threshold
	Checksum   uint8
}

// IDMismatch reports a values slot whose threshold slot carries another id
type IDMismatch struct {
	Slot        int
	ValueID     uint8
	ThresholdID uint8
}

func (m IDMismatch) String() string {
	return fmt.Sprintf("slot %d: attribute id %d has threshold id %d", m.Slot, m.ValueID, m.ThresholdID)
}
