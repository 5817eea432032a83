package ata

import (
	"fmt"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// DecodeRaw assembles the raw value of a according to the byte order of def
func DecodeRaw(a Attribute, def attrdef.Def) uint64 {
	var v uint64
	for _, c := range def.EffectiveByteOrder() {
		var b byte
		switch {
		case c >= '0' && c <= '5':
			b = a.Raw[c-'0']
		case c == 'r':
			b = a.Reserved
		case c == 'v':
			b = a.Current
		case c == 'w':
			b = a.Worst
		}
		v = v<<8 | uint64(b)
	}
	return v
}

// FormatRaw renders the raw value of a for messages and reports
func FormatRaw(a Attribute, def attrdef.Def) string {
	raw := DecodeRaw(a, def)
	word := func(i uint) uint64 { return (raw >> (16 * i)) & 0xffff }

	switch def.Format {
	case attrdef.FormatRaw8:
		order := def.EffectiveByteOrder()
		s := ""
		for i := len(order) - 1; i >= 0; i-- {
			if s != "" {
				s += " "
			}
			s += fmt.Sprintf("%d", (raw>>(8*uint(i)))&0xff)
		}
		return s
	case attrdef.FormatRaw16:
		return fmt.Sprintf("%d %d %d", word(2), word(1), word(0))
	case attrdef.FormatHex48:
		return fmt.Sprintf("0x%012x", raw)
	case attrdef.FormatHex56:
		return fmt.Sprintf("0x%014x", raw)
	case attrdef.FormatHex64:
		return fmt.Sprintf("0x%016x", raw)
	case attrdef.FormatRaw16OptRaw16:
		s := fmt.Sprintf("%d", word(0))
		if word(1) != 0 || word(2) != 0 {
			s += fmt.Sprintf(" (%d %d)", word(2), word(1))
		}
		return s
	case attrdef.FormatRaw16OptAvg16:
		s := fmt.Sprintf("%d", word(0))
		if word(1) != 0 {
			s += fmt.Sprintf(" (Average %d)", word(1))
		}
		return s
	case attrdef.FormatRaw24OptRaw8:
		s := fmt.Sprintf("%d", raw&0xffffff)
		if raw>>24 != 0 {
			s += fmt.Sprintf(" (%d %d %d)", (raw>>40)&0xff, (raw>>32)&0xff, (raw>>24)&0xff)
		}
		return s
	case attrdef.FormatRaw24DivRaw24:
		return fmt.Sprintf("%d/%d", raw>>24, raw&0xffffff)
	case attrdef.FormatRaw24DivRaw32:
		return fmt.Sprintf("%d/%d", raw>>32, raw&0xffffffff)
	case attrdef.FormatMin2Hour:
		minutes := raw & 0xffffffff
		s := fmt.Sprintf("%dh+%02dm", minutes/60, minutes%60)
		if word(2) != 0 {
			s += fmt.Sprintf(" (%d)", word(2))
		}
		return s
	case attrdef.FormatSec2Hour:
		secs := raw & 0xffffffff
		s := fmt.Sprintf("%dh+%02dm+%02ds", secs/3600, (secs%3600)/60, secs%60)
		if word(2) != 0 {
			s += fmt.Sprintf(" (%d)", word(2))
		}
		return s
	case attrdef.FormatHalfMin2Hour:
		s := fmt.Sprintf("%dh+%02dm", word(0)/120, (word(0)%120)/2)
		if word(1) != 0 || word(2) != 0 {
			s += fmt.Sprintf(" (%d %d)", word(2), word(1))
		}
		return s
	case attrdef.FormatMsec24Hour32:
		hours := raw & 0xffffffff
		msec := raw >> 32
		return fmt.Sprintf("%dh+%02dm+%02d.%03ds", hours, msec/60000, (msec/1000)%60, msec%1000)
	case attrdef.FormatTempMinMax:
		t := int(raw & 0xff)
		lo, hi := int((raw>>16)&0xff), int((raw>>32)&0xff)
		if lo != 0 && hi != 0 && lo <= t && t <= hi {
			return fmt.Sprintf("%d (Min/Max %d/%d)", t, lo, hi)
		}
		return fmt.Sprintf("%d", t)
	case attrdef.FormatTemp10x:
		return fmt.Sprintf("%d.%d", word(0)/10, word(0)%10)
	}
	return fmt.Sprintf("%d", raw)
}

var temperatureIDs = []uint8{194, 190, 9, 220}

// Temperature returns the drive temperature in Celsius. Attributes 194 and
// 190 are read with their default meaning; any attribute defined with a
// temperature format is considered as well.
func Temperature(v *Values, defs *attrdef.Defs, isSSD bool) (int, bool) {
	try := func(id uint8, always bool) (int, bool) {
		a, ok := v.Attribute(id)
		if !ok {
			return 0, false
		}
		def := defs.Get(id, isSSD)
		var t int
		switch def.Format {
		case attrdef.FormatTemp10x:
			t = int(DecodeRaw(a, def)&0xffff) / 10
		case attrdef.FormatTempMinMax:
			t = int(DecodeRaw(a, def) & 0xff)
		default:
			if !always {
				return 0, false
			}
			t = int(DecodeRaw(a, def) & 0xff)
		}
		if t > 0 && t < 128 {
			return t, true
		}
		return 0, false
	}
	for _, id := range temperatureIDs {
		if t, ok := try(id, id == 194 || id == 190); ok {
			return t, true
		}
	}
	for _, a := range v.Attributes {
		if a.ID == 0 {
			continue
		}
		if t, ok := try(a.ID, false); ok {
			return t, true
		}
	}
	return 0, false
}
