package attrdef

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxNameLength      = 32
	maxByteOrderLength = 8
	byteOrderChars     = "012345rvwz"
)

// legacy -v arguments from before the ID,FORMAT syntax existed
var legacyOptions = []struct {
	id   int
	name string
	def  string
}{
	{9, "halfminutes", "halfmin2hour,Power_On_Half_Minutes"},
	{9, "minutes", "min2hour,Power_On_Minutes"},
	{9, "seconds", "sec2hour,Power_On_Seconds"},
	{9, "temp", "tempminmax,Temperature_Celsius"},
	{192, "emergencyretractcyclect", "raw48,Emerg_Retract_Cycle_Ct"},
	{193, "loadunload", "raw24/raw24"},
	{194, "hours", "raw48,Power_On_Hours"},
	{194, "10xCelsius", "temp10x,Temperature_Celsius_x10"},
	{194, "unknown", "raw48,Unknown_Attribute"},
	{197, "increasing", "raw48+,Total_Pending_Sectors"},
	{198, "offlinescanuncsectorct", "raw48,Offline_Scan_UNC_SectCt"},
	{198, "increasing", "raw48+,Total_Offl_Uncorrectabl"},
	{200, "writeerrorcount", "raw48,Write_Error_Count"},
	{201, "detectedtacount", "raw48,Detected_TA_Count"},
	{220, "temp", "tempminmax,Temperature_Celsius"},
}

// LegacyOptions returns the accepted legacy "ID,NAME" arguments
func LegacyOptions() []string {
	opts := make([]string, 0, len(legacyOptions))
	for _, o := range legacyOptions {
		opts = append(opts, fmt.Sprintf("%d,%s", o.id, o.name))
	}
	return opts
}

func mapLegacyOption(opt string) string {
	for _, o := range legacyOptions {
		if opt == fmt.Sprintf("%d,%s", o.id, o.name) {
			return fmt.Sprintf("%d,%s", o.id, o.def)
		}
	}
	return opt
}

// ParseOption parses the argument of a -v option,
// ID,FORMAT[:BYTEORDER][,NAME[,HDD|SSD]] where ID is 1-255 or N for all
// attributes, and stores it into defs. Slots that already hold a definition
// of equal or higher priority are left unchanged.
func ParseOption(opt string, defs *Defs, priority Priority) error {
	opt = mapLegacyOption(opt)

	fields := strings.Split(opt, ",")
	if len(fields) < 2 || len(fields) > 4 {
		return fmt.Errorf("invalid attribute definition %q", opt)
	}

	allIDs := fields[0] == "N"
	id := 0
	if !allIDs {
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 1 || n > 255 {
			return fmt.Errorf("invalid attribute id in %q", opt)
		}
		id = n
	}

	def := Def{Priority: priority}

	formatSpec := fields[1]
	if i := strings.IndexByte(formatSpec, ':'); i >= 0 {
		def.ByteOrder = formatSpec[i+1:]
		formatSpec = formatSpec[:i]
		if len(def.ByteOrder) == 0 || len(def.ByteOrder) > maxByteOrderLength {
			return fmt.Errorf("invalid byte order in %q", opt)
		}
		for _, c := range def.ByteOrder {
			if !strings.ContainsRune(byteOrderChars, c) {
				return fmt.Errorf("invalid byte order character %q in %q", c, opt)
			}
		}
	}
	if strings.HasSuffix(formatSpec, "+") {
		def.Flags |= FlagIncreasing
		formatSpec = strings.TrimSuffix(formatSpec, "+")
	}
	format, ok := ParseRawFormat(formatSpec)
	if !ok {
		return fmt.Errorf("unknown raw format %q in %q", formatSpec, opt)
	}
	def.Format = format
	if format == FormatRaw64 || format == FormatHex64 {
		def.Flags |= FlagNoNormVal | FlagNoWorstVal
	}
	if def.ByteOrder != "" {
		if strings.ContainsRune(def.ByteOrder, 'v') {
			def.Flags |= FlagNoNormVal
		}
		if strings.ContainsRune(def.ByteOrder, 'w') {
			def.Flags |= FlagNoWorstVal
		}
	}

	if len(fields) >= 3 {
		name := fields[2]
		if name == "" || len(name) > maxNameLength || strings.ContainsAny(name, " \t") {
			return fmt.Errorf("invalid attribute name in %q", opt)
		}
		if allIDs {
			return fmt.Errorf("attribute name not allowed with N in %q", opt)
		}
		def.Name = name
	}
	if len(fields) == 4 {
		switch fields[3] {
		case "HDD":
			def.Flags |= FlagHDDOnly
		case "SSD":
			def.Flags |= FlagSSDOnly
		default:
			return fmt.Errorf("expected HDD or SSD in %q", opt)
		}
	}

	if !allIDs {
		if defs[id].Priority < priority {
			defs[id] = def
		}
		return nil
	}
	for i := 1; i < len(defs); i++ {
		if defs[i].Priority < priority {
			defs[i] = def
		}
	}
	return nil
}

// Format renders def as a -v argument for id
func Format(id uint8, def Def) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d,%s", id, def.Format)
	if def.Flags&FlagIncreasing != 0 {
		sb.WriteByte('+')
	}
	if def.ByteOrder != "" {
		sb.WriteString(":" + def.ByteOrder)
	}
	if def.Name != "" {
		sb.WriteString("," + def.Name)
	}
	if def.Flags&FlagHDDOnly != 0 {
		sb.WriteString(",HDD")
	} else if def.Flags&FlagSSDOnly != 0 {
		sb.WriteString(",SSD")
	}
	return sb.String()
}
