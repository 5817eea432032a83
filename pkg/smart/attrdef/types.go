package attrdef

import (
	"fmt"
	"strings"
)

// RawFormat selects how the raw counter of an attribute is interpreted
type RawFormat int

// raw formats
const (
	FormatDefault RawFormat = iota
	FormatRaw8
	FormatRaw16
	FormatRaw48
	FormatHex48
	FormatRaw56
	FormatHex56
	FormatRaw64
	FormatHex64
	FormatRaw16OptRaw16
	FormatRaw16OptAvg16
	FormatRaw24OptRaw8
	FormatRaw24DivRaw24
	FormatRaw24DivRaw32
	FormatSec2Hour
	FormatMin2Hour
	FormatHalfMin2Hour
	FormatMsec24Hour32
	FormatTempMinMax
	FormatTemp10x
)

var formatNames = []struct {
	name   string
	format RawFormat
}{
	{"raw8", FormatRaw8},
	{"raw16", FormatRaw16},
	{"raw48", FormatRaw48},
	{"hex48", FormatHex48},
	{"raw56", FormatRaw56},
	{"hex56", FormatHex56},
	{"raw64", FormatRaw64},
	{"hex64", FormatHex64},
	{"raw16(raw16)", FormatRaw16OptRaw16},
	{"raw16(avg16)", FormatRaw16OptAvg16},
	{"raw24(raw8)", FormatRaw24OptRaw8},
	{"raw24/raw24", FormatRaw24DivRaw24},
	{"raw24/raw32", FormatRaw24DivRaw32},
	{"sec2hour", FormatSec2Hour},
	{"min2hour", FormatMin2Hour},
	{"halfmin2hour", FormatHalfMin2Hour},
	{"msec24hour32", FormatMsec24Hour32},
	{"tempminmax", FormatTempMinMax},
	{"temp10x", FormatTemp10x},
}

func (f RawFormat) String() string {
	for _, fn := range formatNames {
		if fn.format == f {
			return fn.name
		}
	}
	return "raw48"
}

// ParseRawFormat returns the format registered under name
func ParseRawFormat(name string) (RawFormat, bool) {
	for _, fn := range formatNames {
		if fn.name == name {
			return fn.format, true
		}
	}
	return FormatDefault, false
}

// DefaultByteOrder returns the byte order used when a definition carries none.
// Positions are listed most significant first: '0'..'5' raw bytes,
// 'r' reserved, 'v' current value, 'w' worst value, 'z' zero.
func (f RawFormat) DefaultByteOrder() string {
	switch f {
	case FormatRaw64, FormatHex64:
		return "543210wv"
	case FormatRaw56, FormatHex56, FormatRaw24DivRaw32, FormatMsec24Hour32:
		return "r543210"
	default:
		return "543210"
	}
}

// Flag modifies how an attribute is monitored
type Flag uint16

// attribute definition flags
const (
	// FlagIncreasing marks a counter where only growth is of interest
	FlagIncreasing Flag = 1 << iota
	FlagHDDOnly
	FlagSSDOnly
	// FlagNoNormVal marks attributes whose normalized value byte is part of the raw value
	FlagNoNormVal
	FlagNoWorstVal
)

// Priority orders the sources of an attribute definition
type Priority int

// priorities, lowest first
const (
	PriorityNone Priority = iota
	PriorityDefault
	PriorityDatabase
	PriorityUser
)

func (p Priority) String() string {
	switch p {
	case PriorityDefault:
		return "default"
	case PriorityDatabase:
		return "database"
	case PriorityUser:
		return "user"
	}
	return "none"
}

// Def is the interpretation of a single attribute id
type Def struct {
	Name      string
	Format    RawFormat
	ByteOrder string
	Flags     Flag
	Priority  Priority
}

// IsSet reports whether the definition came from any source
func (d Def) IsSet() bool {
	return d.Priority != PriorityNone
}

// EffectiveByteOrder returns the configured byte order or the format default
func (d Def) EffectiveByteOrder() string {
	if d.ByteOrder != "" {
		return d.ByteOrder
	}
	return d.Format.DefaultByteOrder()
}

// Defs is indexed by attribute id; slot 0 is never used.
type Defs [256]Def

// Merge copies definitions from other into slots whose priority is lower
func (d *Defs) Merge(other *Defs) {
	if other == nil {
		return
	}
	for id := 1; id < len(d); id++ {
		if other[id].Priority > d[id].Priority {
			d[id] = other[id]
		}
	}
}

// Get returns the effective definition of id for a drive of the given kind.
// A definition restricted to the other kind of drive is ignored.
func (d *Defs) Get(id uint8, isSSD bool) Def {
	if d != nil && id != 0 {
		def := d[id]
		if def.IsSet() && !(def.Flags&FlagHDDOnly != 0 && isSSD) && !(def.Flags&FlagSSDOnly != 0 && !isSSD) {
			if def.Name == "" {
				def.Name = DefaultName(id, isSSD)
			}
			return def
		}
	}
	return Def{Name: DefaultName(id, isSSD)}
}

// Count returns the number of slots set at priority p or higher
func (d *Defs) Count(p Priority) int {
	n := 0
	for id := 1; id < len(d); id++ {
		if d[id].Priority >= p && d[id].Priority != PriorityNone {
			n++
		}
	}
	return n
}

// FirmwareFix selects a workaround for a known firmware defect
type FirmwareFix int

// firmware fixes
const (
	FixNone FirmwareFix = iota
	FixNoLogDir
	FixSamsung
	FixSamsung2
	FixSamsung3
	FixXErrorLBA
	FixSwapID
)

var fixNames = map[FirmwareFix]string{
	FixNone:      "none",
	FixNoLogDir:  "nologdir",
	FixSamsung:   "samsung",
	FixSamsung2:  "samsung2",
	FixSamsung3:  "samsung3",
	FixXErrorLBA: "xerrorlba",
	FixSwapID:    "swapid",
}

func (f FirmwareFix) String() string {
	if s, ok := fixNames[f]; ok {
		return s
	}
	return fmt.Sprintf("FirmwareFix(%d)", int(f))
}

// ParseFirmwareFix converts the -F argument into a FirmwareFix
func ParseFirmwareFix(name string) (FirmwareFix, error) {
	for fix, s := range fixNames {
		if s == name {
			return fix, nil
		}
	}
	valid := make([]string, 0, len(fixNames))
	for fix := FixNone; fix <= FixSwapID; fix++ {
		valid = append(valid, fixNames[fix])
	}
	return FixNone, fmt.Errorf("unknown firmware fix %q, valid values are %s", name, strings.Join(valid, ", "))
}
