package drivedb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// Kind tells regular drive records apart from the special entries
type Kind int

// record kinds
const (
	KindDrive Kind = iota
	KindVersion
	KindDefault
	KindUSB
)

func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "version"
	case KindDefault:
		return "default"
	case KindUSB:
		return "usb"
	}
	return "drive"
}

// Record is one entry of the drive database
type Record struct {
	Family          string
	ModelPattern    string
	FirmwarePattern string
	Warning         string
	Presets         string

	// Source is "builtin" or file:line of an external record
	Source string

	pos      Position
	kind     Kind
	model    *regexp.Regexp
	firmware *regexp.Regexp
	defs     *attrdef.Defs
	fix      attrdef.FirmwareFix
}

// Kind returns the kind of the record derived from its family text
func (r *Record) Kind() Kind {
	return r.kind
}

// Defs returns the attribute definitions of the preset, at database priority
func (r *Record) Defs() *attrdef.Defs {
	return r.defs
}

// FirmwareFix returns the -F selection of the preset
func (r *Record) FirmwareFix() attrdef.FirmwareFix {
	return r.fix
}

func kindOf(family string) Kind {
	switch {
	case strings.HasPrefix(family, "VERSION:") || strings.HasPrefix(family, "$Id"):
		return KindVersion
	case family == "DEFAULT":
		return KindDefault
	case strings.HasPrefix(family, "USB:"):
		return KindUSB
	}
	return KindDrive
}

// compilePattern anchors pattern so that it must match the whole string
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

// compile validates the patterns and the preset string
func (r *Record) compile() error {
	r.kind = kindOf(r.Family)
	if r.kind == KindVersion {
		return nil
	}
	if r.kind != KindDefault {
		if r.ModelPattern == "" {
			return fmt.Errorf("%q: empty model pattern", r.Family)
		}
		re, err := compilePattern(r.ModelPattern)
		if err != nil {
			return fmt.Errorf("%q: invalid model pattern: %w", r.Family, err)
		}
		r.model = re
		if r.FirmwarePattern != "" {
			re, err := compilePattern(r.FirmwarePattern)
			if err != nil {
				return fmt.Errorf("%q: invalid firmware pattern: %w", r.Family, err)
			}
			r.firmware = re
		}
	}
	if r.kind == KindUSB {
		return nil
	}
	defs, fix, err := ParsePreset(r.Presets)
	if err != nil {
		return fmt.Errorf("%q: invalid presets: %w", r.Family, err)
	}
	r.defs, r.fix = defs, fix
	return nil
}

// Matches reports whether the record applies to the model and firmware
func (r *Record) Matches(model, firmware string) bool {
	if r.kind != KindDrive || r.model == nil {
		return false
	}
	if !r.model.MatchString(model) {
		return false
	}
	return r.firmware == nil || r.firmware.MatchString(firmware)
}

// Version returns the text of a version record
func (r *Record) Version() string {
	if r.kind != KindVersion {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(r.Family, "VERSION:"))
}
