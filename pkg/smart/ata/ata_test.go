package ata

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

func TestValidateChecksum(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		b := make([]byte, SectorSize)
		r.Read(b)
		SetChecksum(b)
		require.NoError(t, ValidateChecksum(b))

		i := r.Intn(SectorSize)
		b[i] ^= byte(1 + r.Intn(255))
		assert.ErrorIs(t, ValidateChecksum(b), ErrChecksum, "flipped byte %d", i)
	}

	assert.ErrorIs(t, ValidateChecksum(make([]byte, 100)), ErrShortRecord)
}

func TestParseValuesRejectsBadChecksum(t *testing.T) {
	v := &Values{Revision: 16}
	b := v.Marshal()
	b[10]++

	_, err := ParseValues(b)
	var perr *ProtocolError
	assert.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, ErrChecksum)
}

func newTables(ids []uint8) (*Values, *Thresholds) {
	v, th := &Values{}, &Thresholds{}
	for i, id := range ids {
		v.Attributes[i] = Attribute{ID: id, Flags: FlagPrefailure, Current: 100, Worst: 100}
		th.Thresholds[i] = Threshold{ID: id, Threshold: 10}
	}
	return v, th
}

func TestCheckFailureScanOrder(t *testing.T) {
	v, th := newTables([]uint8{5, 3, 9})
	v.Attributes[1].Current = 5

	id, mismatches := CheckFailure(v, th)
	assert.Equal(t, uint8(3), id)
	assert.Empty(t, mismatches)

	// slot order wins over id order
	v.Attributes[2].Current = 1
	id, _ = CheckFailure(v, th)
	assert.Equal(t, uint8(3), id)
}

func TestCheckFailureSkips(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(v *Values, th *Thresholds)
		want   uint8
	}{
		{
			name:   "usage attribute",
			modify: func(v *Values, th *Thresholds) { v.Attributes[0].Flags = FlagOnline },
			want:   0,
		},
		{
			name:   "never fails threshold",
			modify: func(v *Values, th *Thresholds) { th.Thresholds[0].Threshold = ThresholdNeverFails },
			want:   0,
		},
		{
			name:   "equal to threshold",
			modify: func(v *Values, th *Thresholds) { v.Attributes[0].Current = 10 },
			want:   0,
		},
		{
			name:   "below threshold",
			modify: func(v *Values, th *Thresholds) {},
			want:   5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, th := newTables([]uint8{5})
			v.Attributes[0].Current = 9
			tc.modify(v, th)
			id, _ := CheckFailure(v, th)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestCheckFailureReportsMismatch(t *testing.T) {
	v, th := newTables([]uint8{5, 3})
	th.Thresholds[0].ID = 7
	v.Attributes[0].Current = 1

	id, mismatches := CheckFailure(v, th)
	assert.Equal(t, uint8(0), id)
	require.Len(t, mismatches, 1)
	assert.Equal(t, IDMismatch{Slot: 0, ValueID: 5, ThresholdID: 7}, mismatches[0])
}

func TestAttributeRaw(t *testing.T) {
	v := &Values{}
	v.Attributes[3] = Attribute{ID: 197, Raw: [6]byte{0x01, 0x02, 0, 0, 0, 0x01}}

	raw, ok := v.AttributeRaw(197)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x010000000201), raw)

	_, ok = v.AttributeRaw(198)
	assert.False(t, ok)
	_, ok = v.AttributeRaw(0)
	assert.False(t, ok)
}

func TestState(t *testing.T) {
	v, th := newTables([]uint8{5})
	assert.Equal(t, AttrStateOK, State(v, th, 0, attrdef.Def{}))

	v.Attributes[0].Worst = 10
	assert.Equal(t, AttrStateFailedPast, State(v, th, 0, attrdef.Def{}))

	v.Attributes[0].Current = 10
	assert.Equal(t, AttrStateFailedNow, State(v, th, 0, attrdef.Def{}))

	th.Thresholds[0].Threshold = 0
	assert.Equal(t, AttrStateOK, State(v, th, 0, attrdef.Def{}))

	assert.Equal(t, AttrStateNoNormVal, State(v, th, 0, attrdef.Def{Flags: attrdef.FlagNoNormVal}))

	th.Thresholds[0].ID = 6
	assert.Equal(t, AttrStateNoThreshold, State(v, th, 0, attrdef.Def{}))
}

func TestVersionFromIdentity(t *testing.T) {
	testCases := []struct {
		name   string
		major  uint16
		minor  uint16
		want   int
		wantOK bool
	}{
		{name: "minor code table", major: 0x003e, minor: 0x0013, want: 5, wantOK: true},
		{name: "highest major bit", major: 0x001e, minor: 0, want: 4, wantOK: true},
		{name: "reserved minor code", major: 0x00fe, minor: 0x001f, want: 7, wantOK: true},
		{name: "acs-2 minor code", major: 0x01fe, minor: 0x0110, want: 9, wantOK: true},
		{name: "all ones", major: 0xffff, minor: 0x0013, wantOK: false},
		{name: "all zeros", major: 0x0000, minor: 0, wantOK: false},
		{name: "only bit zero", major: 0x0001, minor: 0, wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := VersionFromIdentity(tc.major, tc.minor)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestParseIdentity(t *testing.T) {
	in := &Identity{
		Model:           "ST3000DM001-1CH166",
		Serial:          "Z1F0ABCD",
		Firmware:        "CC24",
		MajorRevision:   0x01f0,
		MinorRevision:   0x0029,
		CommandSet1:     0x7469,
		CommandEnabled1: 0x3469,
		RotationRate:    7200,
	}
	got, err := ParseIdentity(in.Marshal(), attrdef.FixNone)
	require.NoError(t, err)
	assert.Equal(t, "ST3000DM001-1CH166", got.Model)
	assert.Equal(t, "Z1F0ABCD", got.Serial)
	assert.Equal(t, "CC24", got.Firmware)
	assert.True(t, got.SMARTSupported())
	assert.True(t, got.SMARTEnabled())
	assert.False(t, got.IsSSD())

	v, ok := got.ATAVersion()
	assert.True(t, ok)
	assert.Equal(t, 8, v)

	swapped, err := ParseIdentity(in.Marshal(), attrdef.FixSwapID)
	require.NoError(t, err)
	assert.Equal(t, "TS0300MD00-1C11H66", swapped.Model)
}

func TestSelfTestLogSummarize(t *testing.T) {
	l := &SelfTestLog{Revision: 1, MostRecent: 4}
	// oldest first: failed short, ok extended, failed short, failed read
	l.Entries[0] = SelfTestEntry{TestNumber: 0x01, Status: 0x70, Hours: 100}
	l.Entries[1] = SelfTestEntry{TestNumber: 0x02, Status: 0x00, Hours: 200}
	l.Entries[2] = SelfTestEntry{TestNumber: 0x01, Status: 0x50, Hours: 300}
	l.Entries[3] = SelfTestEntry{TestNumber: 0x01, Status: 0x70, Hours: 400}

	parsed, err := ParseSelfTestLog(l.Marshal(), attrdef.FixNone)
	require.NoError(t, err)

	s := parsed.Summarize()
	assert.Equal(t, 2, s.Errors)
	assert.Equal(t, uint16(400), s.LastErrorHour)
	assert.Equal(t, 3, s.Entries)
}

func TestSelfTestLogSamsungFix(t *testing.T) {
	l := &SelfTestLog{Revision: 1}
	l.Entries[0] = SelfTestEntry{TestNumber: 0x70, Status: 0x01, Hours: 10}
	b := l.Marshal()
	b[offMostRecentSelfTest], b[offMostRecentSelfTest+1] = 0, 1
	SetChecksum(b)

	parsed, err := ParseSelfTestLog(b, attrdef.FixSamsung)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), parsed.MostRecent)
	assert.Equal(t, 1, parsed.Summarize().Errors)
}

func TestParseErrorLog(t *testing.T) {
	l := &ErrorLog{Revision: 1, ErrorCount: 0x0102}
	b := l.Marshal()

	parsed, err := ParseErrorLog(b, attrdef.FixNone)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), parsed.ErrorCount)

	parsed, err = ParseErrorLog(b, attrdef.FixSamsung2)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), parsed.ErrorCount)
}

func TestFormatRaw(t *testing.T) {
	testCases := []struct {
		name string
		raw  [6]byte
		opt  string
		want string
	}{
		{name: "raw48", raw: [6]byte{0x10, 0x27}, opt: "5,raw48", want: "10000"},
		{name: "hex48", raw: [6]byte{0xff}, opt: "5,hex48", want: "0x0000000000ff"},
		{name: "min2hour", raw: [6]byte{0x5b, 0x00}, opt: "9,min2hour", want: "1h+31m"},
		{name: "sec2hour", raw: [6]byte{0x11, 0x0e}, opt: "9,sec2hour", want: "1h+00m+01s"},
		{name: "halfmin2hour", raw: [6]byte{0xf4, 0x01}, opt: "9,halfmin2hour", want: "4h+10m"},
		{name: "raw24/raw24", raw: [6]byte{0x02, 0, 0, 0x01}, opt: "193,raw24/raw24", want: "1/2"},
		{name: "tempminmax", raw: [6]byte{35, 0, 20, 0, 45, 0}, opt: "194,tempminmax", want: "35 (Min/Max 20/45)"},
		{name: "temp10x", raw: [6]byte{0x61, 0x01}, opt: "194,temp10x", want: "35.3"},
		{name: "raw16(raw16)", raw: [6]byte{3, 0, 2, 0, 1, 0}, opt: "5,raw16(raw16)", want: "3 (1 2)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defs := &attrdef.Defs{}
			require.NoError(t, attrdef.ParseOption(tc.opt, defs, attrdef.PriorityUser))
			a := Attribute{ID: 5, Raw: tc.raw}
			var id uint8
			for i := 1; i < len(defs); i++ {
				if defs[i].IsSet() {
					id = uint8(i)
				}
			}
			assert.Equal(t, tc.want, FormatRaw(a, defs[id]))
		})
	}
}

func TestDecodeRawByteOrder(t *testing.T) {
	a := Attribute{ID: 241, Current: 0x11, Worst: 0x22, Raw: [6]byte{1, 2, 3, 4, 5, 6}}
	assert.Equal(t, uint64(0x0605040302012211), DecodeRaw(a, attrdef.Def{Format: attrdef.FormatRaw64}))
	assert.Equal(t, uint64(0x0102), DecodeRaw(a, attrdef.Def{ByteOrder: "01"}))
}

func TestTemperature(t *testing.T) {
	v := &Values{}
	v.Attributes[0] = Attribute{ID: 9, Raw: [6]byte{0x30, 0x20}}
	v.Attributes[1] = Attribute{ID: 190, Raw: [6]byte{41, 0, 0, 0, 0, 0}}

	temp, ok := Temperature(v, nil, false)
	assert.True(t, ok)
	assert.Equal(t, 41, temp)

	// a temperature format on another id is honored only after 194 and 190
	v.Attributes[1] = Attribute{}
	defs := &attrdef.Defs{}
	require.NoError(t, attrdef.ParseOption("9,temp", defs, attrdef.PriorityDatabase))
	temp, ok = Temperature(v, defs, false)
	assert.True(t, ok)
	assert.Equal(t, 48, temp)

	_, ok = Temperature(v, nil, false)
	assert.False(t, ok)
}

func TestSelfTestInProgress(t *testing.T) {
	v := &Values{SelfTestExecStatus: 0xF0}
	assert.True(t, v.SelfTestInProgressNow(attrdef.FixNone))
	assert.False(t, v.SelfTestInProgressNow(attrdef.FixSamsung3))

	v.SelfTestExecStatus = 0xF3
	assert.True(t, v.SelfTestInProgressNow(attrdef.FixSamsung3))
	assert.Equal(t, 30, v.RemainingPercent())
}

func TestCapabilities(t *testing.T) {
	v := &Values{OfflineCapability: 0x13, SmartCapability: 0x0003}
	assert.True(t, v.SupportsExecOfflineImmediate())
	assert.True(t, v.SupportsAutoOffline())
	assert.True(t, v.SupportsSelfTest())
	assert.False(t, v.SupportsConveyanceSelfTest())
	assert.True(t, v.SupportsAutosave())

	v = &Values{OfflineCapability: 0x01, SmartCapability: 0x0001}
	assert.False(t, v.SupportsAutoOffline())
	assert.False(t, v.SupportsAutosave())
}

func TestExtendedTestDuration(t *testing.T) {
	v := &Values{ExtendedTestMinutes: 120}
	assert.Equal(t, 120, v.ExtendedTestDuration())

	// 0xFF redirects to the word field
	v = &Values{ExtendedTestMinutes: 0xFF, ExtendedTestMinutesWord: 480}
	assert.Equal(t, 480, v.ExtendedTestDuration())
}

func TestAttributeFlags(t *testing.T) {
	testcases := []struct {
		flags   uint16
		online  bool
		display string
	}{
		{flags: FlagPrefailure | FlagOnline, online: true, display: "PO----"},
		{flags: FlagOnline | FlagErrorRate | FlagEventCount, online: true, display: "-O-RC-"},
		{flags: FlagPerformance | FlagSelfPreserve, online: false, display: "--S--K"},
		{flags: 0, online: false, display: "------"},
	}
	for _, testcase := range testcases {
		a := Attribute{ID: 1, Flags: testcase.flags}
		assert.Equal(t, testcase.online, a.Online(), "flags 0x%04x", testcase.flags)
		assert.Equal(t, testcase.display, a.FlagsString(), "flags 0x%04x", testcase.flags)
	}
}
