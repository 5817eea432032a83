package drivedb

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// Database is an ordered list of drive records. Lookup returns the first
// matching record, so records loaded from external files are prepended to
// take precedence over the built-in ones. A Database is not modified once it
// has been handed to the monitor.
type Database struct {
	logger *log.Entry

	records  []*Record
	defaults *Record
}

// New returns a database holding the built-in records
func New() (*Database, error) {
	db := &Database{logger: log.WithField("Module", "DriveDatabase")}
	for i := range builtinRecords {
		rec := builtinRecords[i]
		rec.Source = "builtin"
		if err := rec.compile(); err != nil {
			return nil, fmt.Errorf("built-in drive database: %w", err)
		}
		db.records = append(db.records, &rec)
		if rec.kind == KindDefault && db.defaults == nil {
			db.defaults = &rec
		}
	}
	return db, nil
}

// NewFromRecords builds a database from records, in lookup order. It is used
// to load a database with no built-in entries.
func NewFromRecords(records []Record) (*Database, error) {
	db := &Database{logger: log.WithField("Module", "DriveDatabase")}
	for i := range records {
		rec := records[i]
		if err := rec.compile(); err != nil {
			return nil, err
		}
		db.records = append(db.records, &rec)
		if rec.kind == KindDefault && db.defaults == nil {
			db.defaults = &rec
		}
	}
	return db, nil
}

// Records returns the records in lookup order
func (db *Database) Records() []*Record {
	return db.records
}

// Len returns the number of records
func (db *Database) Len() int {
	return len(db.records)
}

// Lookup returns the first drive record matching model and firmware, or nil.
// Version, default and USB records never match.
func (db *Database) Lookup(model, firmware string) *Record {
	for _, rec := range db.records {
		if rec.Matches(model, firmware) {
			return rec
		}
	}
	return nil
}

// DefaultDefs returns the presets of the DEFAULT record at default priority
func (db *Database) DefaultDefs() (*attrdef.Defs, attrdef.FirmwareFix) {
	if db.defaults == nil || db.defaults.defs == nil {
		return &attrdef.Defs{}, attrdef.FixNone
	}
	defs := &attrdef.Defs{}
	for id := range db.defaults.defs {
		if db.defaults.defs[id].IsSet() {
			defs[id] = db.defaults.defs[id]
			defs[id].Priority = attrdef.PriorityDefault
		}
	}
	return defs, db.defaults.fix
}

// Version returns the text of the first version record
func (db *Database) Version() string {
	for _, rec := range db.records {
		if v := rec.Version(); v != "" {
			return v
		}
	}
	return ""
}

// LoadExternal parses records from r and prepends the valid ones in source
// order. Parsing continues past malformed records; the returned error, if
// any, is a ParseErrors listing every problem found.
func (db *Database) LoadExternal(r io.Reader, name string) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read drive database %s: %w", name, err)
	}

	records, errs := parseSource(name, src)
	for _, rec := range records {
		if rec.kind == KindDefault {
			db.defaults = rec
			break
		}
	}
	db.records = append(records, db.records...)

	db.logger.WithFields(log.Fields{"file": name, "records": len(records), "errors": len(errs)}).Info("Loaded drive database")
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LoadFile loads an external database file. A missing file is not an error.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			db.logger.WithField("file", path).Debug("No external drive database")
			return nil
		}
		return err
	}
	defer f.Close()

	return db.LoadExternal(f, path)
}
