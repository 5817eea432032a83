package drivedb

import (
	"fmt"
	"strings"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// ParsePreset parses the preset string of a record: whitespace separated
// "-v ID,OPTION" and "-F FIXNAME" options. Definitions are returned at
// database priority; the last -F wins.
func ParsePreset(s string) (*attrdef.Defs, attrdef.FirmwareFix, error) {
	defs := &attrdef.Defs{}
	fix := attrdef.FixNone

	tokens := strings.Fields(s)
	for i := 0; i < len(tokens); i++ {
		opt := tokens[i]
		if opt != "-v" && opt != "-F" {
			return nil, attrdef.FixNone, fmt.Errorf("unknown option %q", opt)
		}
		if i+1 >= len(tokens) {
			return nil, attrdef.FixNone, fmt.Errorf("missing argument for %s", opt)
		}
		i++
		arg := tokens[i]
		switch opt {
		case "-v":
			if err := attrdef.ParseOption(arg, defs, attrdef.PriorityDatabase); err != nil {
				return nil, attrdef.FixNone, err
			}
		case "-F":
			f, err := attrdef.ParseFirmwareFix(arg)
			if err != nil {
				return nil, attrdef.FixNone, err
			}
			fix = f
		}
	}
	return defs, fix, nil
}
