package config

import (
	"fmt"
	"time"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/scheduler"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// misc
const (
	DefaultConfigPath = "/etc/diskhealth/diskhealth.yaml"
	DefaultInterval   = 30 * time.Minute
	MinInterval       = 10 * time.Second

	DefaultDeviceType = "sat"

	DefaultCurrentPending       = "197"
	DefaultOfflineUncorrectable = "198"

	DriveDatabaseUse    = "use"
	DriveDatabaseIgnore = "ignore"

	ToggleOn  = "on"
	ToggleOff = "off"
)

// File is the YAML document
type File struct {
	Interval      time.Duration `yaml:"interval"`
	DriveDatabase string        `yaml:"driveDatabase"`
	Defaults      DeviceEntry   `yaml:"defaults"`
	Devices       []DeviceEntry `yaml:"devices"`
}

// DeviceEntry is one device, or a scan directive when Scan is set
type DeviceEntry struct {
	Name    string   `yaml:"name"`
	Scan    bool     `yaml:"scan"`
	Exclude []string `yaml:"exclude"`
	Type    string   `yaml:"type"`

	Checks               Checks      `yaml:"checks"`
	CurrentPending       string      `yaml:"currentPending"`
	OfflineUncorrectable string      `yaml:"offlineUncorrectable"`
	Temperature          Temperature `yaml:"temperature"`

	Schedule      string   `yaml:"schedule"`
	Presets       []string `yaml:"presets"`
	FirmwareFix   string   `yaml:"firmwareFix"`
	DriveDatabase string   `yaml:"driveDatabase"`

	IgnoreFailure  []int    `yaml:"ignoreFailure"`
	IgnoreTracking []int    `yaml:"ignoreTracking"`
	ReportRaw      []string `yaml:"reportRaw"`
	TrackRaw       []string `yaml:"trackRaw"`

	Autosave    string        `yaml:"autosave"`
	AutoOffline string        `yaml:"autoOffline"`
	Permissive  bool          `yaml:"permissive"`
	Timeout     time.Duration `yaml:"timeout"`

	Alert AlertEntry `yaml:"alert"`
}

// Checks enable the per-cycle checks
type Checks struct {
	Health       bool `yaml:"health"`
	UsageFailure bool `yaml:"usageFailure"`
	Prefail      bool `yaml:"prefail"`
	Usage        bool `yaml:"usage"`
	SelfTestLog  bool `yaml:"selfTestLog"`
	ErrorLog     bool `yaml:"errorLog"`
}

// Temperature limits in Celsius, 0 disables each one
type Temperature struct {
	Diff     int `yaml:"diff"`
	Info     int `yaml:"info"`
	Critical int `yaml:"critical"`
}

// AlertEntry configures alert delivery
type AlertEntry struct {
	Address   []string `yaml:"address"`
	Exec      string   `yaml:"exec"`
	Mailer    string   `yaml:"mailer"`
	Frequency string   `yaml:"frequency"`
	Test      bool     `yaml:"test"`
}

// SectorCheck watches a pending or offline uncorrectable sector counter
type SectorCheck struct {
	// ID of the attribute, 0 disables the check
	ID uint8
	// IncreaseOnly reports only when the count grew
	IncreaseOnly bool
}

// Toggle is an optional on/off device setting
type Toggle int

// toggles
const (
	ToggleUnset Toggle = iota
	ToggleEnable
	ToggleDisable
)

// AttrSet is a set of attribute ids
type AttrSet [256]bool

// Has reports whether id is in the set
func (s *AttrSet) Has(id uint8) bool {
	return s != nil && s[id]
}

// Device is the resolved configuration of one monitored device
type Device struct {
	Name string
	Type string

	// Scan marks a directive expanded into devices found on the host
	Scan    bool
	Exclude []string

	Checks      Checks
	Pending     SectorCheck
	Offline     SectorCheck
	Temperature Temperature

	Schedule       *scheduler.Schedule
	Defs           *attrdef.Defs
	FirmwareFix    attrdef.FirmwareFix
	FirmwareFixSet bool
	IgnoreDatabase bool

	IgnoreFailure  AttrSet
	IgnoreTracking AttrSet
	ReportRaw      AttrSet
	TrackRaw       AttrSet
	// Critical raw tracked attributes are reported as errors
	Critical AttrSet

	Autosave    Toggle
	AutoOffline Toggle
	Permissive  bool
	Timeout     time.Duration

	Alert alerter.Settings
}

// WithName returns a copy of a scan directive for a found device
func (d *Device) WithName(name, devType string) *Device {
	c := *d
	c.Name = name
	if devType != "" {
		c.Type = devType
	}
	c.Scan = false
	c.Exclude = nil
	if d.Defs != nil {
		defs := *d.Defs
		c.Defs = &defs
	}
	return &c
}

// Config is the resolved daemon configuration
type Config struct {
	Path          string
	Interval      time.Duration
	DriveDatabase string
	Devices       []*Device
}

// ValidationError is an invalid setting of a device entry
type ValidationError struct {
	Device string
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("device %s: %s: %v", e.Device, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
