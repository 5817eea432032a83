package alerter

import (
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/hwameistor/diskhealth/pkg/exechelper"
)

// DefaultMailer is used when a device configures addresses without a mailer
const DefaultMailer = "mail"

// AlertManager creates the alerters of monitored devices
type AlertManager struct {
	logger   *log.Entry
	executor exechelper.Executor
	clock    clock.PassiveClock
	hostname string
}

// NewManager creates an alert manager instance
func NewManager(executor exechelper.Executor, clk clock.PassiveClock) *AlertManager {
	return &AlertManager{
		logger:   log.WithField("Module", ModuleAlerter),
		executor: executor,
		clock:    clk,
		hostname: hostname(),
	}
}

// ForDevice returns a fresh alerter for device
func (m *AlertManager) ForDevice(device Device, settings Settings) *DeviceAlerter {
	if settings.Mailer == "" {
		settings.Mailer = DefaultMailer
	}
	logger := m.logger.WithField("device", device.Name)

	notifiers := []Notifier{&LogNotifier{Logger: logger}}
	switch {
	case settings.Exec != "":
		notifiers = append(notifiers, &ExecNotifier{Executor: m.executor, Program: settings.Exec})
	case len(settings.Addresses) > 0:
		notifiers = append(notifiers, &MailNotifier{Executor: m.executor, Mailer: settings.Mailer})
	}

	return &DeviceAlerter{
		logger:    logger,
		device:    device,
		settings:  settings,
		notifiers: notifiers,
		clock:     m.clock,
		hostname:  m.hostname,
		states:    map[Class]*State{},
	}
}
