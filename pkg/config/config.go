// Package config loads the daemon configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/scheduler"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// ErrNoDevices is returned for a configuration without any device entry
var ErrNoDevices = errors.New("no devices to monitor")

// layout is decoded without strict checking to keep the raw nodes for layering
type layout struct {
	Defaults yaml.Node   `yaml:"defaults"`
	Devices  []yaml.Node `yaml:"devices"`
}

// BuiltinDefaults is the device entry every configured entry starts from
func BuiltinDefaults() DeviceEntry {
	return DeviceEntry{
		Type: DefaultDeviceType,
		Checks: Checks{
			Health:       true,
			UsageFailure: true,
			Prefail:      true,
			Usage:        true,
			SelfTestLog:  true,
			ErrorLog:     true,
		},
		CurrentPending:       DefaultCurrentPending,
		OfflineUncorrectable: DefaultOfflineUncorrectable,
		DriveDatabase:        DriveDatabaseUse,
		Alert:                AlertEntry{Mailer: alerter.DefaultMailer},
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates a configuration document
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// strict pass, unknown keys are errors
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var raw layout
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	defaults := BuiltinDefaults()
	if raw.Defaults.Kind != 0 {
		if err := raw.Defaults.Decode(&defaults); err != nil {
			return nil, fmt.Errorf("invalid defaults: %w", err)
		}
	}

	cfg := &Config{
		Interval:      file.Interval,
		DriveDatabase: file.DriveDatabase,
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < MinInterval {
		return nil, &ValidationError{Field: "interval", Err: fmt.Errorf("%s is shorter than %s", cfg.Interval, MinInterval)}
	}

	seen := map[string]bool{}
	for i := range raw.Devices {
		entry := defaults
		// slices are replaced, never appended to, when decoded
		if err := raw.Devices[i].Decode(&entry); err != nil {
			return nil, fmt.Errorf("invalid device entry %d: %w", i+1, err)
		}
		dev, err := Resolve(entry)
		if err != nil {
			return nil, err
		}
		if !dev.Scan {
			if seen[dev.Name] {
				return nil, &ValidationError{Device: dev.Name, Field: "name", Err: errors.New("listed more than once")}
			}
			seen[dev.Name] = true
		}
		cfg.Devices = append(cfg.Devices, dev)
	}
	if len(cfg.Devices) == 0 {
		return nil, ErrNoDevices
	}

	log.WithFields(log.Fields{"devices": len(cfg.Devices), "interval": cfg.Interval}).Debug("Parsed configuration")
	return cfg, nil
}

// Resolve validates a device entry and converts it into a Device
func Resolve(e DeviceEntry) (*Device, error) {
	name := e.Name
	if e.Scan {
		name = "DEVICESCAN"
	}
	fail := func(field string, err error) (*Device, error) {
		return nil, &ValidationError{Device: name, Field: field, Err: err}
	}

	if !e.Scan && e.Name == "" {
		return fail("name", errors.New("missing device name"))
	}
	if e.Scan && e.Name != "" {
		return fail("name", errors.New("a scan entry has no name"))
	}
	if !e.Scan && len(e.Exclude) > 0 {
		return fail("exclude", errors.New("only valid for a scan entry"))
	}

	dev := &Device{
		Name:        e.Name,
		Type:        strings.ToLower(e.Type),
		Scan:        e.Scan,
		Exclude:     e.Exclude,
		Checks:      e.Checks,
		Temperature: e.Temperature,
		Permissive:  e.Permissive,
		Timeout:     e.Timeout,
	}
	switch dev.Type {
	case "":
		dev.Type = DefaultDeviceType
	case "ata", "sat":
	default:
		return fail("type", fmt.Errorf("unsupported device type %q", e.Type))
	}

	var err error
	if dev.Pending, err = ParseSectorCheck(e.CurrentPending); err != nil {
		return fail("currentPending", err)
	}
	if dev.Offline, err = ParseSectorCheck(e.OfflineUncorrectable); err != nil {
		return fail("offlineUncorrectable", err)
	}

	t := e.Temperature
	if t.Diff < 0 || t.Info < 0 || t.Critical < 0 || t.Diff > 255 || t.Info > 255 || t.Critical > 255 {
		return fail("temperature", errors.New("limits must be within 0..255"))
	}
	if t.Info > 0 && t.Critical > 0 && t.Info > t.Critical {
		return fail("temperature", errors.New("info limit is above the critical limit"))
	}

	if dev.Schedule, err = scheduler.Compile(e.Schedule); err != nil {
		return fail("schedule", err)
	}

	dev.Defs = &attrdef.Defs{}
	for _, opt := range e.Presets {
		if err := attrdef.ParseOption(opt, dev.Defs, attrdef.PriorityUser); err != nil {
			return fail("presets", err)
		}
	}
	if e.FirmwareFix != "" {
		if dev.FirmwareFix, err = attrdef.ParseFirmwareFix(e.FirmwareFix); err != nil {
			return fail("firmwareFix", err)
		}
		dev.FirmwareFixSet = true
	}

	switch strings.ToLower(e.DriveDatabase) {
	case "", DriveDatabaseUse:
	case DriveDatabaseIgnore:
		dev.IgnoreDatabase = true
	default:
		return fail("driveDatabase", fmt.Errorf("expected %s or %s, got %q", DriveDatabaseUse, DriveDatabaseIgnore, e.DriveDatabase))
	}

	if err := fillIDs(&dev.IgnoreFailure, e.IgnoreFailure); err != nil {
		return fail("ignoreFailure", err)
	}
	if err := fillIDs(&dev.IgnoreTracking, e.IgnoreTracking); err != nil {
		return fail("ignoreTracking", err)
	}
	if err := fillRaw(&dev.ReportRaw, &dev.Critical, e.ReportRaw); err != nil {
		return fail("reportRaw", err)
	}
	if err := fillRaw(&dev.TrackRaw, &dev.Critical, e.TrackRaw); err != nil {
		return fail("trackRaw", err)
	}

	if dev.Autosave, err = parseToggle(e.Autosave); err != nil {
		return fail("autosave", err)
	}
	if dev.AutoOffline, err = parseToggle(e.AutoOffline); err != nil {
		return fail("autoOffline", err)
	}
	if e.Timeout < 0 {
		return fail("timeout", errors.New("must not be negative"))
	}

	freq, err := alerter.ParseFrequency(e.Alert.Frequency)
	if err != nil {
		return fail("alert.frequency", err)
	}
	dev.Alert = alerter.Settings{
		Addresses: e.Alert.Address,
		Exec:      e.Alert.Exec,
		Mailer:    e.Alert.Mailer,
		Frequency: freq,
		Test:      e.Alert.Test,
	}
	return dev, nil
}

// ParseSectorCheck parses "ID" or "ID+"; "0" and "" disable the check
func ParseSectorCheck(s string) (SectorCheck, error) {
	s = strings.TrimSpace(s)
	var c SectorCheck
	if strings.HasSuffix(s, "+") {
		c.IncreaseOnly = true
		s = strings.TrimSuffix(s, "+")
	}
	if s == "" || s == "0" {
		return SectorCheck{}, nil
	}
	id, err := parseID(s)
	if err != nil {
		return SectorCheck{}, err
	}
	c.ID = id
	return c, nil
}

func parseID(s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 255 {
		return 0, fmt.Errorf("invalid attribute id %q, expected 1..255", s)
	}
	return uint8(n), nil
}

func fillIDs(set *AttrSet, ids []int) error {
	for _, id := range ids {
		if id < 1 || id > 255 {
			return fmt.Errorf("invalid attribute id %d, expected 1..255", id)
		}
		set[id] = true
	}
	return nil
}

// fillRaw accepts "ID" and "ID!", the latter also marks the id critical
func fillRaw(set, critical *AttrSet, items []string) error {
	for _, item := range items {
		item = strings.TrimSpace(item)
		crit := strings.HasSuffix(item, "!")
		id, err := parseID(strings.TrimSuffix(item, "!"))
		if err != nil {
			return err
		}
		set[id] = true
		if crit {
			critical[id] = true
		}
	}
	return nil
}

func parseToggle(s string) (Toggle, error) {
	switch strings.ToLower(s) {
	case "":
		return ToggleUnset, nil
	case ToggleOn:
		return ToggleEnable, nil
	case ToggleOff:
		return ToggleDisable, nil
	}
	return ToggleUnset, fmt.Errorf("expected %s or %s, got %q", ToggleOn, ToggleOff, s)
}
