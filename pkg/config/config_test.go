package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

const sample = `
interval: 15m
driveDatabase: /etc/diskhealth/drivedb.h
defaults:
  schedule: "(S/../.././02|L/../../6/03)"
  alert:
    address: [root]
    frequency: diminishing
devices:
  - name: /dev/sda
    presets: ["9,minutes", "194,tempminmax"]
    firmwareFix: samsung
    currentPending: "197+"
    offlineUncorrectable: "0"
    temperature: { diff: 4, info: 45, critical: 55 }
    ignoreFailure: [190]
    reportRaw: ["5", "197!"]
    trackRaw: ["5!"]
    autosave: on
    timeout: 20s
  - name: /dev/sdb
    type: ata
    checks: { selfTestLog: false }
    driveDatabase: ignore
    alert:
      exec: /usr/local/bin/notify
      test: true
  - scan: true
    exclude: ["/dev/loop*"]
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, "/etc/diskhealth/drivedb.h", cfg.DriveDatabase)
	require.Len(t, cfg.Devices, 3)

	sda := cfg.Devices[0]
	assert.Equal(t, "/dev/sda", sda.Name)
	assert.Equal(t, "sat", sda.Type)
	assert.True(t, sda.Checks.Health)
	assert.True(t, sda.Checks.SelfTestLog)
	assert.Equal(t, SectorCheck{ID: 197, IncreaseOnly: true}, sda.Pending)
	assert.Equal(t, SectorCheck{}, sda.Offline)
	assert.Equal(t, Temperature{Diff: 4, Info: 45, Critical: 55}, sda.Temperature)
	assert.Equal(t, "(S/../.././02|L/../../6/03)", sda.Schedule.String())
	assert.Equal(t, attrdef.FormatMin2Hour, sda.Defs[9].Format)
	assert.Equal(t, attrdef.PriorityUser, sda.Defs[194].Priority)
	assert.Equal(t, attrdef.FixSamsung, sda.FirmwareFix)
	assert.True(t, sda.FirmwareFixSet)
	assert.True(t, sda.IgnoreFailure.Has(190))
	assert.True(t, sda.ReportRaw.Has(197))
	assert.True(t, sda.TrackRaw.Has(5))
	assert.True(t, sda.Critical.Has(5))
	assert.True(t, sda.Critical.Has(197))
	assert.False(t, sda.IgnoreTracking.Has(5))
	assert.Equal(t, ToggleEnable, sda.Autosave)
	assert.Equal(t, ToggleUnset, sda.AutoOffline)
	assert.Equal(t, 20*time.Second, sda.Timeout)
	assert.Equal(t, alerter.Settings{Addresses: []string{"root"}, Mailer: "mail", Frequency: alerter.FrequencyDiminishing}, sda.Alert)

	sdb := cfg.Devices[1]
	assert.Equal(t, "ata", sdb.Type)
	assert.False(t, sdb.Checks.SelfTestLog)
	assert.True(t, sdb.Checks.ErrorLog)
	assert.True(t, sdb.IgnoreDatabase)
	assert.False(t, sdb.FirmwareFixSet)
	assert.Equal(t, SectorCheck{ID: 197}, sdb.Pending)
	assert.Equal(t, SectorCheck{ID: 198}, sdb.Offline)
	assert.Equal(t, "/usr/local/bin/notify", sdb.Alert.Exec)
	assert.True(t, sdb.Alert.Test)
	// inherited from defaults
	assert.Equal(t, []string{"root"}, sdb.Alert.Addresses)
	assert.Equal(t, alerter.FrequencyDiminishing, sdb.Alert.Frequency)

	scan := cfg.Devices[2]
	assert.True(t, scan.Scan)
	assert.Equal(t, []string{"/dev/loop*"}, scan.Exclude)

	found := scan.WithName("/dev/sdc", "sat")
	assert.Equal(t, "/dev/sdc", found.Name)
	assert.False(t, found.Scan)
	assert.Nil(t, found.Exclude)
	assert.NotSame(t, scan.Defs, found.Defs)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("devices:\n  - name: /dev/sda\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, cfg.Interval)

	dev := cfg.Devices[0]
	assert.Equal(t, Checks{true, true, true, true, true, true}, dev.Checks)
	assert.Nil(t, dev.Schedule)
	assert.Equal(t, alerter.FrequencyOnce, dev.Alert.Frequency)
	assert.Zero(t, dev.Defs.Count(attrdef.PriorityDefault))
}

func TestParseErrors(t *testing.T) {
	testcases := []struct {
		description string
		doc         string
		field       string
	}{
		{"unknown field", "devices:\n  - name: /dev/sda\n    colour: red\n", ""},
		{"no devices", "interval: 1h\n", ""},
		{"interval too short", "interval: 1s\ndevices:\n  - name: /dev/sda\n", "interval"},
		{"missing name", "devices:\n  - type: sat\n", "name"},
		{"duplicate", "devices:\n  - name: /dev/sda\n  - name: /dev/sda\n", "name"},
		{"bad type", "devices:\n  - name: /dev/sda\n    type: nvme\n", "type"},
		{"bad pending", "devices:\n  - name: /dev/sda\n    currentPending: \"256\"\n", "currentPending"},
		{"bad schedule", "devices:\n  - name: /dev/sda\n    schedule: \"(S/..\"\n", "schedule"},
		{"bad preset", "devices:\n  - name: /dev/sda\n    presets: [\"9,bogus\"]\n", "presets"},
		{"bad fix", "devices:\n  - name: /dev/sda\n    firmwareFix: lenovo\n", "firmwareFix"},
		{"bad raw id", "devices:\n  - name: /dev/sda\n    reportRaw: [\"x!\"]\n", "reportRaw"},
		{"bad ignore id", "devices:\n  - name: /dev/sda\n    ignoreFailure: [0]\n", "ignoreFailure"},
		{"bad frequency", "devices:\n  - name: /dev/sda\n    alert: { frequency: hourly }\n", "alert.frequency"},
		{"temperature order", "devices:\n  - name: /dev/sda\n    temperature: { info: 60, critical: 50 }\n", "temperature"},
		{"exclude without scan", "devices:\n  - name: /dev/sda\n    exclude: [\"/dev/sdb\"]\n", "exclude"},
		{"bad toggle", "devices:\n  - name: /dev/sda\n    autosave: maybe\n", "autosave"},
	}

	for _, tc := range testcases {
		_, err := Parse(strings.NewReader(tc.doc))
		require.Error(t, err, tc.description)
		if tc.field != "" {
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), tc.description)
			assert.Equal(t, tc.field, verr.Field, tc.description)
		}
	}

	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestParseSectorCheck(t *testing.T) {
	testcases := []struct {
		in       string
		expected SectorCheck
	}{
		{"197", SectorCheck{ID: 197}},
		{"197+", SectorCheck{ID: 197, IncreaseOnly: true}},
		{" 5 ", SectorCheck{ID: 5}},
		{"0", SectorCheck{}},
		{"", SectorCheck{}},
	}
	for _, tc := range testcases {
		c, err := ParseSectorCheck(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expected, c, tc.in)
	}
	_, err := ParseSectorCheck("abc")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diskhealth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
