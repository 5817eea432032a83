package presets

import (
	"github.com/hwameistor/diskhealth/pkg/drivedb"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// Result is the outcome of applying presets to a drive
type Result struct {
	Defs *attrdef.Defs
	Fix  attrdef.FirmwareFix
	// Record is the matched database entry, nil when there was none
	Record *drivedb.Record
}

// Options carry the operator's explicit configuration for a drive
type Options struct {
	Defs *attrdef.Defs
	Fix  attrdef.FirmwareFix
	// FixSet marks Fix as chosen by the operator, FixNone included
	FixSet bool
	// IgnoreDatabase skips the lookup, only DEFAULT presets are applied
	IgnoreDatabase bool
}

// Apply merges the attribute definitions of a drive. Operator definitions
// always win, the matched record fills the remaining slots and the DEFAULT
// record comes last. The matched record is returned even when it carries no
// presets.
func Apply(db *drivedb.Database, model, firmware string, opts Options) Result {
	defs := &attrdef.Defs{}
	if opts.Defs != nil {
		*defs = *opts.Defs
	}
	res := Result{Defs: defs, Fix: opts.Fix}
	if db == nil {
		return res
	}
	fixSet := opts.FixSet || opts.Fix != attrdef.FixNone

	if !opts.IgnoreDatabase {
		res.Record = db.Lookup(model, firmware)
	}
	if res.Record != nil {
		defs.Merge(res.Record.Defs())
		if !fixSet {
			res.Fix = res.Record.FirmwareFix()
		}
	}

	defaults, defaultFix := db.DefaultDefs()
	defs.Merge(defaults)
	if !fixSet && res.Fix == attrdef.FixNone {
		res.Fix = defaultFix
	}
	return res
}
