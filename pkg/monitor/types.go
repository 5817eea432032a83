package monitor

import (
	"time"

	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/drivedb"
)

// WakeReason tells the loop why its sleep was cut short
type WakeReason int

// wake reasons
const (
	// WakeCheckNow runs a pass immediately and keeps the schedule
	WakeCheckNow WakeReason = iota
	// WakeReload discards every device and registers them again from a
	// freshly loaded configuration
	WakeReload
)

func (r WakeReason) String() string {
	switch r {
	case WakeCheckNow:
		return "check-now"
	case WakeReload:
		return "reload"
	}
	return "unknown"
}

// Loader produces the configuration and drive database the devices are
// registered from. Scan directives must already be expanded.
type Loader interface {
	Load() (*config.Config, *drivedb.Database, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func() (*config.Config, *drivedb.Database, error)

// Load implements Loader
func (f LoaderFunc) Load() (*config.Config, *drivedb.Database, error) {
	return f()
}

// AttributeSummary is the last reading of one attribute
type AttributeSummary struct {
	ID         uint8
	Name       string
	Current    uint8
	Worst      uint8
	Threshold  uint8
	Raw        uint64
	RawString  string
	Flags      string
	Prefailure bool
	Online     bool
	State      string
}

// DeviceSummary is a read-only snapshot of a monitored device
type DeviceSummary struct {
	Name       string
	Type       string
	Model      string
	Serial     string
	Firmware   string
	Family     string
	ATAVersion int
	SSD        bool

	// HealthChecked is false until a status check succeeded
	HealthChecked bool
	HealthPassed  bool

	Temperature    int
	MinTemperature int
	MaxTemperature int

	Attributes []AttributeSummary
	// PrefailBelowThreshold is the first prefailure attribute whose value
	// dropped below its threshold, 0 when none
	PrefailBelowThreshold uint8

	SelfTestErrors int
	ErrorCount     int
	AlertCounts    map[string]int

	LastCheck time.Time
}
