package ata

import (
	"encoding/binary"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// byte offsets in the values page
const (
	offOfflineStatus      = 362
	offSelfTestExecStatus = 363
	offTotalOfflineTime   = 364
	offOfflineCapability  = 367
	offSmartCapability    = 368
	offErrorLogCapability = 370
	offShortTestTime      = 372
	offExtendedTestTime   = 373
	offConveyanceTestTime = 374
	offExtendedTestWord   = 375
	offChecksum           = 511
)

// ValidateChecksum verifies that the bytes of a record sum to zero mod 256
func ValidateChecksum(b []byte) error {
	if len(b) != SectorSize {
		return ErrShortRecord
	}
	var sum uint8
	for _, c := range b {
		sum += c
	}
	if sum != 0 {
		return ErrChecksum
	}
	return nil
}

// SetChecksum writes the last byte of a record so that it validates
func SetChecksum(b []byte) {
	if len(b) != SectorSize {
		return
	}
	var sum uint8
	for _, c := range b[:SectorSize-1] {
		sum += c
	}
	b[SectorSize-1] = -sum
}

func validate(record string, b []byte) error {
	if err := ValidateChecksum(b); err != nil {
		return &ProtocolError{Record: record, Err: err}
	}
	return nil
}

// ParseValues decodes a SMART READ DATA page. A page that fails the checksum
// is rejected as a whole.
func ParseValues(b []byte) (*Values, error) {
	if err := validate("SMART values", b); err != nil {
		return nil, err
	}
	v := &Values{Revision: binary.LittleEndian.Uint16(b[0:2])}
	for i := range v.Attributes {
		e := b[attributeTableOff+i*attributeEntrySize:]
		a := &v.Attributes[i]
		a.ID = e[0]
		a.Flags = binary.LittleEndian.Uint16(e[1:3])
		a.Current = e[3]
		a.Worst = e[4]
		copy(a.Raw[:], e[5:11])
		a.Reserved = e[11]
	}
	v.OfflineStatus = b[offOfflineStatus]
	v.SelfTestExecStatus = b[offSelfTestExecStatus]
	v.TotalOfflineTime = binary.LittleEndian.Uint16(b[offTotalOfflineTime:])
	v.OfflineCapability = b[offOfflineCapability]
	v.SmartCapability = binary.LittleEndian.Uint16(b[offSmartCapability:])
	v.ErrorLogCapability = b[offErrorLogCapability]
	v.ShortTestMinutes = b[offShortTestTime]
	v.ExtendedTestMinutes = b[offExtendedTestTime]
	v.ConveyanceTestMinutes = b[offConveyanceTestTime]
	v.ExtendedTestMinutesWord = binary.LittleEndian.Uint16(b[offExtendedTestWord:])
	v.Checksum = b[offChecksum]
	return v, nil
}

// Marshal encodes the page and sets its checksum
func (v *Values) Marshal() []byte {
	b := make([]byte, SectorSize)
	binary.LittleEndian.PutUint16(b[0:2], v.Revision)
	for i, a := range v.Attributes {
		e := b[attributeTableOff+i*attributeEntrySize:]
		e[0] = a.ID
		binary.LittleEndian.PutUint16(e[1:3], a.Flags)
		e[3] = a.Current
		e[4] = a.Worst
		copy(e[5:11], a.Raw[:])
		e[11] = a.Reserved
	}
	b[offOfflineStatus] = v.OfflineStatus
	b[offSelfTestExecStatus] = v.SelfTestExecStatus
	binary.LittleEndian.PutUint16(b[offTotalOfflineTime:], v.TotalOfflineTime)
	b[offOfflineCapability] = v.OfflineCapability
	binary.LittleEndian.PutUint16(b[offSmartCapability:], v.SmartCapability)
	b[offErrorLogCapability] = v.ErrorLogCapability
	b[offShortTestTime] = v.ShortTestMinutes
	b[offExtendedTestTime] = v.ExtendedTestMinutes
	b[offConveyanceTestTime] = v.ConveyanceTestMinutes
	binary.LittleEndian.PutUint16(b[offExtendedTestWord:], v.ExtendedTestMinutesWord)
	SetChecksum(b)
	return b
}

// ParseThresholds decodes a SMART READ THRESHOLDS page
func ParseThresholds(b []byte) (*Thresholds, error) {
	if err := validate("SMART thresholds", b); err != nil {
		return nil, err
	}
	t := &Thresholds{Revision: binary.LittleEndian.Uint16(b[0:2]), Checksum: b[offChecksum]}
	for i := range t.Thresholds {
		e := b[attributeTableOff+i*attributeEntrySize:]
		t.Thresholds[i] = Threshold{ID: e[0], Threshold: e[1]}
	}
	return t, nil
}

// Marshal encodes the page and sets its checksum
func (t *Thresholds) Marshal() []byte {
	b := make([]byte, SectorSize)
	binary.LittleEndian.PutUint16(b[0:2], t.Revision)
	for i, th := range t.Thresholds {
		e := b[attributeTableOff+i*attributeEntrySize:]
		e[0] = th.ID
		e[1] = th.Threshold
	}
	SetChecksum(b)
	return b
}

// Find returns the slot index of id, or -1
func (v *Values) Find(id uint8) int {
	if id == 0 {
		return -1
	}
	for i := range v.Attributes {
		if v.Attributes[i].ID == id {
			return i
		}
	}
	return -1
}

// Attribute returns the attribute with the given id
func (v *Values) Attribute(id uint8) (Attribute, bool) {
	i := v.Find(id)
	if i < 0 {
		return Attribute{}, false
	}
	return v.Attributes[i], true
}

// AttributeRaw returns the 48-bit raw counter of id
func (v *Values) AttributeRaw(id uint8) (uint64, bool) {
	a, ok := v.Attribute(id)
	if !ok {
		return 0, false
	}
	return a.RawValue(), true
}

// Threshold returns the threshold of the attribute in slot i when the ids agree
func (t *Thresholds) Threshold(slot int, id uint8) (uint8, bool) {
	if t == nil || slot < 0 || slot >= NumAttributes || id == 0 {
		return 0, false
	}
	th := t.Thresholds[slot]
	if th.ID != id {
		return 0, false
	}
	return th.Threshold, true
}

// CheckFailure scans the slots in ascending order and returns the id of the
// first pre-failure attribute whose current value is below its threshold.
// Slots whose value and threshold ids disagree are returned as mismatches
// and are not compared.
func CheckFailure(v *Values, t *Thresholds) (uint8, []IDMismatch) {
	var mismatches []IDMismatch
	var failed uint8
	for i := 0; i < NumAttributes; i++ {
		a := v.Attributes[i]
		th := t.Thresholds[i]
		if a.ID == 0 || th.ID == 0 {
			continue
		}
		if a.ID != th.ID {
			mismatches = append(mismatches, IDMismatch{Slot: i, ValueID: a.ID, ThresholdID: th.ID})
			continue
		}
		if failed == 0 && a.Prefailure() && th.Threshold != ThresholdNeverFails && a.Current < th.Threshold {
			failed = a.ID
		}
	}
	return failed, mismatches
}

// AttrState classifies an attribute against its threshold
type AttrState int

// attribute states
const (
	AttrStateNonExisting AttrState = iota
	AttrStateNoNormVal
	AttrStateNoThreshold
	AttrStateOK
	AttrStateFailedPast
	AttrStateFailedNow
)

func (s AttrState) String() string {
	switch s {
	case AttrStateNoNormVal:
		return "no normalized value"
	case AttrStateNoThreshold:
		return "no threshold"
	case AttrStateOK:
		return "ok"
	case AttrStateFailedPast:
		return "failed in the past"
	case AttrStateFailedNow:
		return "failing now"
	}
	return "non-existing"
}

// State returns the state of the attribute in slot i. Unlike CheckFailure a
// value equal to the threshold counts as failing, matching what is printed in
// reports; a threshold of zero never fails.
func State(v *Values, t *Thresholds, slot int, def attrdef.Def) AttrState {
	a := v.Attributes[slot]
	if a.ID == 0 {
		return AttrStateNonExisting
	}
	if def.Flags&attrdef.FlagNoNormVal != 0 {
		return AttrStateNoNormVal
	}
	th, ok := t.Threshold(slot, a.ID)
	if !ok {
		return AttrStateNoThreshold
	}
	if th == 0 || th == ThresholdNeverFails {
		return AttrStateOK
	}
	if a.Current <= th {
		return AttrStateFailedNow
	}
	if def.Flags&attrdef.FlagNoWorstVal == 0 && a.Worst <= th {
		return AttrStateFailedPast
	}
	return AttrStateOK
}
