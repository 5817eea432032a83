package ata

import (
	"encoding/binary"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// summary error log layout
const (
	errorLogEntries    = 5
	errorLogEntrySize  = 90
	errorLogEntriesOff = 2
	offErrorCount      = 452
)

// self-test log layout
const (
	SelfTestLogEntries    = 21
	selfTestEntrySize     = 24
	selfTestEntriesOff    = 2
	offMostRecentSelfTest = 508
)

// self-test numbers of an extended test, offline and captive
const (
	testNumberExtended        = 0x02
	testNumberExtendedCaptive = 0x82
)

// ErrorLog is the SMART summary error log
type ErrorLog struct {
	Revision   uint8
	Pointer    uint8
	Entries    [errorLogEntries][errorLogEntrySize]byte
	ErrorCount uint16
}

// ParseErrorLog decodes log page 0x01. With the samsung fixes the error count
// is stored byte-swapped.
func ParseErrorLog(b []byte, fix attrdef.FirmwareFix) (*ErrorLog, error) {
	if err := validate("SMART error log", b); err != nil {
		return nil, err
	}
	l := &ErrorLog{Revision: b[0], Pointer: b[1]}
	for i := range l.Entries {
		copy(l.Entries[i][:], b[errorLogEntriesOff+i*errorLogEntrySize:])
	}
	if fix == attrdef.FixSamsung || fix == attrdef.FixSamsung2 {
		l.ErrorCount = binary.BigEndian.Uint16(b[offErrorCount:])
	} else {
		l.ErrorCount = binary.LittleEndian.Uint16(b[offErrorCount:])
	}
	return l, nil
}

// Marshal encodes the log and sets its checksum
func (l *ErrorLog) Marshal() []byte {
	b := make([]byte, SectorSize)
	b[0] = l.Revision
	b[1] = l.Pointer
	for i := range l.Entries {
		copy(b[errorLogEntriesOff+i*errorLogEntrySize:], l.Entries[i][:])
	}
	binary.LittleEndian.PutUint16(b[offErrorCount:], l.ErrorCount)
	SetChecksum(b)
	return b
}

// SelfTestEntry is one descriptor of the self-test log
type SelfTestEntry struct {
	TestNumber uint8
	Status     uint8
	Hours      uint16
	Checkpoint uint8
	FailingLBA uint32
}

// Result returns the status nibble of the entry
func (e SelfTestEntry) Result() SelfTestStatus {
	return SelfTestStatus(e.Status >> 4)
}

// SelfTestLog is log page 0x06
type SelfTestLog struct {
	Revision   uint16
	Entries    [SelfTestLogEntries]SelfTestEntry
	MostRecent uint8

	// raw descriptors, used to tell empty entries apart
	raw [SelfTestLogEntries][selfTestEntrySize]byte
}

// ParseSelfTestLog decodes log page 0x06. The samsung fix undoes the swap of
// the test number and status bytes and of the most recent index.
func ParseSelfTestLog(b []byte, fix attrdef.FirmwareFix) (*SelfTestLog, error) {
	if err := validate("SMART self-test log", b); err != nil {
		return nil, err
	}
	l := &SelfTestLog{Revision: binary.LittleEndian.Uint16(b[0:2]), MostRecent: b[offMostRecentSelfTest]}
	if fix == attrdef.FixSamsung {
		l.MostRecent = b[offMostRecentSelfTest+1]
	}
	for i := range l.Entries {
		e := b[selfTestEntriesOff+i*selfTestEntrySize:]
		copy(l.raw[i][:], e[:selfTestEntrySize])
		l.Entries[i] = SelfTestEntry{
			TestNumber: e[0],
			Status:     e[1],
			Hours:      binary.LittleEndian.Uint16(e[2:4]),
			Checkpoint: e[4],
			FailingLBA: binary.LittleEndian.Uint32(e[5:9]),
		}
		if fix == attrdef.FixSamsung {
			l.Entries[i].TestNumber, l.Entries[i].Status = e[1], e[0]
		}
	}
	return l, nil
}

// Marshal encodes the log and sets its checksum
func (l *SelfTestLog) Marshal() []byte {
	b := make([]byte, SectorSize)
	binary.LittleEndian.PutUint16(b[0:2], l.Revision)
	for i, en := range l.Entries {
		e := b[selfTestEntriesOff+i*selfTestEntrySize:]
		e[0] = en.TestNumber
		e[1] = en.Status
		binary.LittleEndian.PutUint16(e[2:4], en.Hours)
		e[4] = en.Checkpoint
		binary.LittleEndian.PutUint32(e[5:9], en.FailingLBA)
		copy(e[9:selfTestEntrySize], l.raw[i][9:])
	}
	b[offMostRecentSelfTest] = l.MostRecent
	SetChecksum(b)
	return b
}

func (l *SelfTestLog) empty(i int) bool {
	if l.raw[i] != [selfTestEntrySize]byte{} {
		return false
	}
	return l.Entries[i] == SelfTestEntry{}
}

// SelfTestSummary is the outcome of walking the self-test log
type SelfTestSummary struct {
	// Errors counts failed tests more recent than the last successful
	// extended test
	Errors int
	// LastErrorHour is the power-on hour of the most recent failed test
	LastErrorHour uint16
	Entries       int
}

// Summarize walks the log from the most recent entry backwards. Counting stops
// at a successful extended self-test since older failures are superseded by it.
func (l *SelfTestLog) Summarize() SelfTestSummary {
	var s SelfTestSummary
	for i := SelfTestLogEntries - 1; i >= 0; i-- {
		j := (i + int(l.MostRecent)) % SelfTestLogEntries
		if l.empty(j) {
			continue
		}
		s.Entries++
		e := l.Entries[j]
		if e.Result() == SelfTestCompleted &&
			(e.TestNumber == testNumberExtended || e.TestNumber == testNumberExtendedCaptive) {
			break
		}
		if e.Result().Failed() {
			if s.Errors == 0 {
				s.LastErrorHour = e.Hours
			}
			s.Errors++
		}
	}
	return s
}
