// Package monitor registers the configured devices and checks them in a loop.
package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/drivedb"
	"github.com/hwameistor/diskhealth/pkg/transport"
)

// ErrNoDevices is returned when no configured device could be registered
var ErrNoDevices = errors.New("unable to monitor any SMART enabled devices")

// Monitor owns the monitored devices. CheckAll, Load and Run must not be
// called concurrently; Wake and Summaries are safe from any goroutine.
type Monitor struct {
	logger *log.Entry
	loader Loader
	opener transport.Opener
	alerts *alerter.AlertManager
	clock  clock.Clock

	wake     chan WakeReason
	interval time.Duration
	devices  []*device

	lock      sync.RWMutex
	summaries []DeviceSummary
}

// New creates a monitor instance
func New(loader Loader, opener transport.Opener, alerts *alerter.AlertManager, clk clock.Clock) *Monitor {
	return &Monitor{
		logger:   log.WithField("Module", "Monitor"),
		loader:   loader,
		opener:   opener,
		alerts:   alerts,
		clock:    clk,
		wake:     make(chan WakeReason, 4),
		interval: config.DefaultInterval,
	}
}

// Load reads the configuration and registers its devices, replacing the
// current ones. When the configuration can not be loaded the current devices
// are kept.
func (m *Monitor) Load(ctx context.Context) error {
	cfg, db, err := m.loader.Load()
	if err != nil {
		return err
	}
	if db == nil {
		if db, err = drivedb.New(); err != nil {
			return err
		}
	}

	// transports are exclusive, release them before opening again
	m.closeDevices()

	devices := make([]*device, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		if ctx.Err() != nil {
			for _, d := range devices {
				d.tr.Close()
			}
			return ctx.Err()
		}
		if dc.Scan {
			m.logger.Warning("Unexpanded scan directive, ignored")
			continue
		}
		d, err := m.register(ctx, dc, db)
		if err != nil {
			m.logger.WithFields(log.Fields{"device": dc.Name, "type": dc.Type}).WithError(err).Error("Unable to register device")
			alt := m.alerts.ForDevice(alerter.Device{Name: dc.Name, Type: dc.Type, Info: "[" + strings.ToUpper(dc.Type) + "]"}, dc.Alert)
			alt.Raise(alerter.ClassFailedOpenDevice, "Device: %s, unable to open device: %v", dc.Name, err)
			continue
		}
		devices = append(devices, d)
	}

	m.devices = devices
	m.interval = cfg.Interval
	m.publish()
	if len(devices) == 0 {
		return ErrNoDevices
	}
	m.logger.WithFields(log.Fields{"devices": len(devices), "interval": m.interval}).Info("Monitoring devices")
	return nil
}

// CheckAll runs one pass over every device
func (m *Monitor) CheckAll(ctx context.Context) {
	for _, d := range m.devices {
		if ctx.Err() != nil {
			break
		}
		m.checkDevice(ctx, d)
	}
	m.publish()
}

// Run checks the devices every interval until ctx is done. Wake cuts the
// current sleep short; a reload that leaves no device to monitor ends Run
// with an error.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.closeDevices()

	wake := m.clock.Now()
	for {
		m.CheckAll(ctx)

		now := m.clock.Now()
		wake = nextWake(wake, now, m.interval)
		m.logger.WithField("next", wake.Format(time.RFC3339)).Debug("Sleeping until next check")

		timer := m.clock.NewTimer(wake.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("Stopped monitoring")
			return nil
		case <-timer.C():
		case reason := <-m.wake:
			timer.Stop()
			m.logger.WithField("reason", reason.String()).Info("Woken up")
			if reason != WakeReload {
				continue
			}
			if err := m.reload(ctx); err != nil {
				return err
			}
			wake = m.clock.Now()
		}
	}
}

// reload keeps the current devices when the configuration is invalid
func (m *Monitor) reload(ctx context.Context) error {
	m.logger.Info("Reloading configuration")
	err := m.Load(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoDevices), errors.Is(err, context.Canceled):
		return err
	}
	m.logger.WithError(err).Error("Failed to reload configuration, keeping the current one")
	return nil
}

// nextWake returns the first instant after now on the interval grid of wake.
// A clock moved backwards restarts the grid at now.
func nextWake(wake, now time.Time, interval time.Duration) time.Time {
	if wake.Sub(now) > interval {
		return now.Add(interval)
	}
	if wake.After(now) {
		return wake
	}
	k := now.Sub(wake)/interval + 1
	return wake.Add(k * interval)
}

// Wake interrupts the sleep of Run. Requests arriving while the queue is
// full are dropped.
func (m *Monitor) Wake(reason WakeReason) {
	select {
	case m.wake <- reason:
	default:
		m.logger.WithField("reason", reason.String()).Debug("Wake request already pending, dropped")
	}
}

// Summaries returns the state of the devices as of the last pass
func (m *Monitor) Summaries() []DeviceSummary {
	m.lock.RLock()
	defer m.lock.RUnlock()
	out := make([]DeviceSummary, len(m.summaries))
	copy(out, m.summaries)
	return out
}

func (m *Monitor) publish() {
	summaries := make([]DeviceSummary, 0, len(m.devices))
	for _, d := range m.devices {
		summaries = append(summaries, d.summary())
	}
	m.lock.Lock()
	m.summaries = summaries
	m.lock.Unlock()
}

// Close releases every device
func (m *Monitor) Close() {
	m.closeDevices()
}

func (m *Monitor) closeDevices() {
	for _, d := range m.devices {
		if err := d.tr.Close(); err != nil {
			d.logger.WithError(err).Warning("Failed to close device")
		}
	}
	m.devices = nil
}
