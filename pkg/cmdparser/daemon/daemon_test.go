package daemon

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/devicescan"
	"github.com/hwameistor/diskhealth/pkg/monitor"
)

type fakeScanner []devicescan.DeviceInfo

func (f fakeScanner) Scan() ([]devicescan.DeviceInfo, error) { return f, nil }

const configFile = `
interval: 20m
devices:
  - name: /dev/sda
  - scan: true
    exclude: ["/dev/sdc"]
`

const drivedbFile = `
{ "Example drive", "EXAMPLE DISK [0-9]+", "", "", "-v 9,minutes" },
{ "Broken record", "(", "", "", "" },
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	loader := &FileLoader{
		ConfigPath:  writeFile(t, dir, "diskhealth.yaml", configFile),
		DrivedbPath: writeFile(t, dir, "drivedb.h", drivedbFile),
		Scanner:     fakeScanner{{Name: "/dev/sda", Type: "sat"}, {Name: "/dev/sdb", Type: "sat"}, {Name: "/dev/sdc", Type: "sat"}},
	}

	cfg, db, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, cfg.Interval)
	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "/dev/sda", cfg.Devices[0].Name)
	assert.Equal(t, "/dev/sdb", cfg.Devices[1].Name)

	rec := db.Lookup("EXAMPLE DISK 100", "FW1")
	require.NotNil(t, rec)
	assert.Equal(t, "Example drive", rec.Family)

	assert.Equal(t, []string{loader.ConfigPath, loader.DrivedbPath}, loader.WatchedFiles())
}

func TestFileLoaderOverrides(t *testing.T) {
	dir := t.TempDir()
	loader := &FileLoader{
		ConfigPath: writeFile(t, dir, "diskhealth.yaml", configFile),
		Interval:   time.Minute,
		Scanner:    fakeScanner{},
	}
	cfg, _, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Interval)

	loader.Interval = time.Second
	_, _, err = loader.Load()
	assert.Error(t, err)

	loader.ConfigPath = filepath.Join(dir, "missing.yaml")
	_, _, err = loader.Load()
	assert.Error(t, err)
	assert.Equal(t, []string{loader.ConfigPath}, loader.WatchedFiles())
	assert.NotEqual(t, config.DefaultConfigPath, loader.ConfigPath)
}

type recordingWaker struct {
	lock    sync.Mutex
	reasons []monitor.WakeReason
}

func (r *recordingWaker) Wake(reason monitor.WakeReason) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.reasons = append(r.reasons, reason)
}

func TestDispatchSignals(t *testing.T) {
	sigCh := make(chan os.Signal, 3)
	sigCh <- syscall.SIGUSR1
	sigCh <- syscall.SIGHUP
	sigCh <- syscall.SIGTERM

	ctx, cancel := context.WithCancel(context.Background())
	w := &recordingWaker{}
	require.NoError(t, dispatchSignals(ctx, sigCh, w, cancel))

	assert.Equal(t, []monitor.WakeReason{monitor.WakeCheckNow, monitor.WakeReload}, w.reasons)
	assert.Error(t, ctx.Err())
}

func TestPrintReport(t *testing.T) {
	summaries := []monitor.DeviceSummary{
		{
			Name:                  "/dev/sda",
			Model:                 "EXAMPLE DISK 100",
			HealthChecked:         true,
			HealthPassed:          false,
			PrefailBelowThreshold: 5,
			Attributes: []monitor.AttributeSummary{
				{ID: 5, Name: "Reallocated_Sector_Ct", Flags: "PO--CK", Current: 10, Worst: 10, Threshold: 36,
					Prefailure: true, Online: true, State: "failing now", RawString: "2040"},
				{ID: 9, Name: "Power_On_Hours", Flags: "---R--", Current: 99, Worst: 99,
					State: "ok", RawString: "1200"},
			},
		},
		{Name: "/dev/sdb"},
	}

	var out bytes.Buffer
	printReport(&out, summaries)
	report := out.String()

	assert.Contains(t, report, "/dev/sda")
	assert.Contains(t, report, "FAILED")
	assert.Contains(t, report, "Attribute 5")
	assert.Contains(t, report, "PO--CK")
	assert.Contains(t, report, "Pre-fail")
	assert.Contains(t, report, "Always")
	assert.Contains(t, report, "Offline")
	assert.Contains(t, report, "failing now")
	assert.Contains(t, report, "/dev/sdb")
	assert.Contains(t, report, "UNKNOWN")
}
