package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/drivedb"
	"github.com/hwameistor/diskhealth/pkg/presets"
	"github.com/hwameistor/diskhealth/pkg/scheduler"
	"github.com/hwameistor/diskhealth/pkg/smart/ata"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
	"github.com/hwameistor/diskhealth/pkg/transport"
)

// errSkipDevice ends the checks of a device for the current cycle
var errSkipDevice = errors.New("device skipped for this cycle")

// temperature tracking of one device
type temperatureState struct {
	current  int
	reported int
	min      int
	max      int
}

// device is the state of one monitored device, rebuilt on every reload
type device struct {
	logger *log.Entry
	cfg    *config.Device
	tr     transport.Transport
	alerts *alerter.DeviceAlerter

	identity *ata.Identity
	record   *drivedb.Record
	defs     *attrdef.Defs
	fix      attrdef.FirmwareFix
	isSSD    bool
	info     string

	// enabled checks, downgraded when the device rejects a command
	checks      config.Checks
	pending     config.SectorCheck
	offline     config.SectorCheck
	temperature bool

	values     *ata.Values
	thresholds *ata.Thresholds
	// first prefailure attribute below its threshold, 0 when none
	prefailFailed uint8
	// capsKnown is set once values were read and the checks the device can
	// not serve were dropped
	capsKnown bool

	selfTestErrors   int
	selfTestHour     uint16
	errorCount       int
	selfTestLogKnown bool
	errorLogKnown    bool

	schedule   *scheduler.Schedule
	sched      scheduler.State
	notCapable map[scheduler.TestType]bool

	temp temperatureState

	healthChecked bool
	healthPassed  bool
	lastCheck     time.Time
}

func (d *device) name() string {
	return d.cfg.Name
}

func (d *device) attributeChecks() bool {
	return d.checks.UsageFailure || d.checks.Prefail || d.checks.Usage ||
		d.pending.ID != 0 || d.offline.ID != 0 || d.temperature
}

// needsValues tells whether a cycle has to read the attribute values
func (d *device) needsValues() bool {
	if d.attributeChecks() || d.schedule != nil {
		return true
	}
	return !d.capsKnown && (d.checks.SelfTestLog || d.checks.ErrorLog ||
		d.cfg.Autosave != config.ToggleUnset || d.cfg.AutoOffline != config.ToggleUnset)
}

func (d *device) disableAttributeChecks() {
	d.checks.UsageFailure = false
	d.checks.Prefail = false
	d.checks.Usage = false
	d.pending = config.SectorCheck{}
	d.offline = config.SectorCheck{}
	d.temperature = false
}

// valuesRejected drops every check depending on the attribute values. Log
// checks and self-tests stay enabled when the capabilities were already read.
func (d *device) valuesRejected() {
	d.disableAttributeChecks()
	if d.capsKnown {
		return
	}
	d.checks.SelfTestLog = false
	d.checks.ErrorLog = false
	d.schedule = nil
}

// send issues one command with a fresh buffer
func (d *device) send(ctx context.Context, cmd transport.Command, sel int) ([]byte, error) {
	buf := make([]byte, transport.BufferSize)
	if err := d.tr.SendCommand(ctx, cmd, sel, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func deviceInfo(cfg *config.Device, id *ata.Identity) string {
	return fmt.Sprintf("[%s], %s, S/N:%s, FW:%s", strings.ToUpper(cfg.Type), id.Model, id.Serial, id.Firmware)
}

// register opens the device and prepares its state. A device that can not be
// monitored returns an error and is left out.
func (m *Monitor) register(ctx context.Context, cfg *config.Device, db *drivedb.Database) (*device, error) {
	logger := m.logger.WithFields(log.Fields{"device": cfg.Name, "type": cfg.Type})
	logger.Info("Opening device")

	tr, err := m.opener.Open(cfg.Name, cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("unable to open device: %w", err)
	}
	d := &device{
		logger:      logger,
		cfg:         cfg,
		tr:          transport.WithTimeout(tr, cfg.Timeout),
		checks:      cfg.Checks,
		pending:     cfg.Pending,
		offline:     cfg.Offline,
		temperature: cfg.Temperature.Diff > 0 || cfg.Temperature.Info > 0 || cfg.Temperature.Critical > 0,
		schedule:    cfg.Schedule,
		notCapable:  map[scheduler.TestType]bool{},
	}
	if err := m.prepare(ctx, d, db); err != nil {
		d.tr.Close()
		return nil, err
	}
	return d, nil
}

func (m *Monitor) prepare(ctx context.Context, d *device, db *drivedb.Database) error {
	cfg := d.cfg

	buf, err := d.send(ctx, transport.CmdIdentify, 0)
	if err != nil {
		return fmt.Errorf("IDENTIFY DEVICE failed: %w", err)
	}
	id, err := ata.ParseIdentity(buf, cfg.FirmwareFix)
	if err != nil {
		return fmt.Errorf("IDENTIFY DEVICE failed: %w", err)
	}
	if id.IsPacketDevice() {
		return errors.New("packet device, not an ATA disk")
	}

	res := presets.Apply(db, id.Model, id.Firmware, presets.Options{
		Defs:           cfg.Defs,
		Fix:            cfg.FirmwareFix,
		FixSet:         cfg.FirmwareFixSet,
		IgnoreDatabase: cfg.IgnoreDatabase,
	})
	if res.Fix == attrdef.FixSwapID && cfg.FirmwareFix != attrdef.FixSwapID {
		if id, err = ata.ParseIdentity(buf, res.Fix); err != nil {
			return fmt.Errorf("IDENTIFY DEVICE failed: %w", err)
		}
	}
	d.identity = id
	d.defs = res.Defs
	d.fix = res.Fix
	d.record = res.Record
	d.isSSD = id.IsSSD()
	d.info = deviceInfo(cfg, id)
	d.logger = d.logger.WithFields(log.Fields{"model": id.Model, "serial": id.Serial})

	if res.Record != nil {
		d.logger.WithFields(log.Fields{"family": res.Record.Family, "source": res.Record.Source}).Info("Found in drive database")
		if res.Record.Warning != "" {
			d.logger.Warningf("Drive database warning: %s", res.Record.Warning)
		}
	} else if !cfg.IgnoreDatabase {
		d.logger.Info("Not found in drive database")
	}
	version, ok := id.ATAVersion()
	d.logger.WithFields(log.Fields{"firmware": id.Firmware, "ataVersion": version, "known": ok, "fix": d.fix.String()}).Debug("Identified device")

	if !id.SMARTSupported() {
		if !cfg.Permissive {
			return errors.New("lacks SMART capability")
		}
		d.logger.Warning("Device lacks SMART capability, continuing in permissive mode")
	}
	if !id.SMARTEnabled() {
		if _, err := d.send(ctx, transport.CmdEnableSMART, 0); err != nil {
			if !cfg.Permissive {
				return fmt.Errorf("could not enable SMART capability: %w", err)
			}
			d.logger.WithError(err).Warning("Could not enable SMART capability, continuing in permissive mode")
		} else {
			d.logger.Info("Enabled SMART capability")
		}
	}

	if d.checks.Health {
		if _, err := d.send(ctx, transport.CmdStatusCheck, 0); err != nil {
			if classify(err) == failCapability {
				d.logger.WithError(err).Warning("Not capable of SMART health status check, disabled")
				d.checks.Health = false
			} else {
				d.logger.WithError(err).Warning("SMART health status check failed, retrying on the next cycle")
			}
		}
	}

	if d.needsValues() {
		m.prepareAttributes(ctx, d)
	}
	if d.capsKnown {
		m.readLogBaselines(ctx, d)
	}

	d.alerts = m.alerts.ForDevice(alerter.Device{Name: cfg.Name, Type: cfg.Type, Info: d.info}, cfg.Alert)
	d.alerts.SendTest()

	d.logger.WithField("checks", fmt.Sprintf("%+v", d.checks)).Info("Device is monitored")
	return nil
}

func (m *Monitor) toggle(ctx context.Context, d *device, t config.Toggle, on, off transport.Command, what string) {
	var cmd transport.Command
	switch t {
	case config.ToggleEnable:
		cmd = on
	case config.ToggleDisable:
		cmd = off
	default:
		return
	}
	if _, err := d.send(ctx, cmd, 0); err != nil {
		d.logger.WithError(err).Warningf("Could not change %s", what)
		return
	}
	d.logger.Infof("%s succeeded", cmd)
}

// prepareAttributes reads the baseline values and thresholds. Only a rejected
// command drops checks, any other failure leaves them to the first cycle.
func (m *Monitor) prepareAttributes(ctx context.Context, d *device) {
	values, err := m.readValues(ctx, d)
	if err != nil {
		if classify(err) == failCapability {
			d.logger.WithError(err).Warning("Read SMART Values rejected, attribute checks disabled")
			d.valuesRejected()
		} else {
			d.logger.WithError(err).Warning("Read SMART Values failed, retrying on the next cycle")
		}
		return
	}
	d.values = values

	thresholds, err := m.readThresholds(ctx, d)
	switch classify(err) {
	case failNone:
		d.thresholds = thresholds
	case failCapability:
		d.logger.WithError(err).Warning("Read SMART Thresholds rejected, usage failure check disabled")
		d.checks.UsageFailure = false
	default:
		d.logger.WithError(err).Warning("Read SMART Thresholds failed, retrying on the next cycle")
	}
	m.learnCapabilities(ctx, d, values)
}

// learnCapabilities applies the device settings and drops the checks the
// device can not serve according to its first good values record
func (m *Monitor) learnCapabilities(ctx context.Context, d *device, values *ata.Values) {
	d.capsKnown = true

	if values.SupportsAutosave() {
		m.toggle(ctx, d, d.cfg.Autosave, transport.CmdEnableAutosave, transport.CmdDisableAutosave, "attribute autosave")
	} else if d.cfg.Autosave != config.ToggleUnset {
		d.logger.Info("Not capable of attribute autosave, setting left unchanged")
	}
	if values.SupportsAutoOffline() {
		m.toggle(ctx, d, d.cfg.AutoOffline, transport.CmdEnableAutoOffline, transport.CmdDisableAutoOffline, "automatic offline testing")
	} else if d.cfg.AutoOffline != config.ToggleUnset {
		d.logger.Info("Not capable of automatic offline testing, setting left unchanged")
	}

	if d.pending.ID != 0 {
		if _, ok := values.Attribute(d.pending.ID); !ok {
			d.logger.Infof("Can't monitor Current_Pending_Sector count, no Attribute %d", d.pending.ID)
			d.pending = config.SectorCheck{}
		}
	}
	if d.offline.ID != 0 {
		if _, ok := values.Attribute(d.offline.ID); !ok {
			d.logger.Infof("Can't monitor Offline_Uncorrectable count, no Attribute %d", d.offline.ID)
			d.offline = config.SectorCheck{}
		}
	}
	if d.temperature {
		if _, ok := ata.Temperature(values, d.defs, d.isSSD); !ok {
			d.logger.Info("Can't monitor temperature, no temperature attribute")
			d.temperature = false
		}
	}
	if d.checks.SelfTestLog && !d.identity.SelfTestLogCapable(values) {
		d.logger.Info("Does not support SMART self-test log, self-test log check disabled")
		d.checks.SelfTestLog = false
	}
	if d.checks.ErrorLog && !d.identity.ErrorLogCapable(values) {
		d.logger.Info("Does not support SMART error logging, error log check disabled")
		d.checks.ErrorLog = false
	}
	m.prepareSelfTest(d, values)
}

func (m *Monitor) prepareSelfTest(d *device, v *ata.Values) {
	if d.schedule == nil {
		return
	}
	if !v.SupportsSelfTest() {
		d.notCapable[scheduler.TestLong] = true
		d.notCapable[scheduler.TestShort] = true
	}
	if !v.SupportsConveyanceSelfTest() {
		d.notCapable[scheduler.TestConveyance] = true
	}
	if !v.SupportsExecOfflineImmediate() {
		d.notCapable[scheduler.TestOffline] = true
	}
	for _, t := range scheduler.Order {
		if d.notCapable[t] {
			d.logger.Infof("Not capable of %s", t)
		}
	}
}

// readLogBaselines reads the log counters later cycles are compared against
func (m *Monitor) readLogBaselines(ctx context.Context, d *device) {
	if d.checks.SelfTestLog {
		if sum, err := m.readSelfTestLog(ctx, d); err == nil {
			d.selfTestErrors, d.selfTestHour, d.selfTestLogKnown = sum.Errors, sum.LastErrorHour, true
		} else {
			d.logger.WithError(err).Warning("Failed to read SMART self-test log")
		}
	}
	if d.checks.ErrorLog {
		if count, err := m.readErrorCount(ctx, d); err == nil {
			d.errorCount, d.errorLogKnown = count, true
		} else {
			d.logger.WithError(err).Warning("Failed to read SMART error log")
		}
	}
}

func (m *Monitor) readValues(ctx context.Context, d *device) (*ata.Values, error) {
	buf, err := d.send(ctx, transport.CmdReadValues, 0)
	if err != nil {
		return nil, err
	}
	return ata.ParseValues(buf)
}

func (m *Monitor) readThresholds(ctx context.Context, d *device) (*ata.Thresholds, error) {
	buf, err := d.send(ctx, transport.CmdReadThresholds, 0)
	if err != nil {
		return nil, err
	}
	return ata.ParseThresholds(buf)
}

func (m *Monitor) readSelfTestLog(ctx context.Context, d *device) (ata.SelfTestSummary, error) {
	buf, err := d.send(ctx, transport.CmdReadSelfTestLog, 0)
	if err != nil {
		return ata.SelfTestSummary{}, err
	}
	l, err := ata.ParseSelfTestLog(buf, d.fix)
	if err != nil {
		return ata.SelfTestSummary{}, err
	}
	return l.Summarize(), nil
}

func (m *Monitor) readErrorCount(ctx context.Context, d *device) (int, error) {
	buf, err := d.send(ctx, transport.CmdReadErrorLog, 0)
	if err != nil {
		return 0, err
	}
	l, err := ata.ParseErrorLog(buf, d.fix)
	if err != nil {
		return 0, err
	}
	return int(l.ErrorCount), nil
}

// summary renders the read-only view of the device
func (d *device) summary() DeviceSummary {
	s := DeviceSummary{
		Name:           d.cfg.Name,
		Type:           d.cfg.Type,
		SSD:            d.isSSD,
		HealthChecked:  d.healthChecked,
		HealthPassed:   d.healthPassed,
		Temperature:    d.temp.current,
		MinTemperature: d.temp.min,
		MaxTemperature: d.temp.max,
		SelfTestErrors: d.selfTestErrors,
		ErrorCount:     d.errorCount,
		AlertCounts:    map[string]int{},
		LastCheck:      d.lastCheck,
	}
	if d.identity != nil {
		s.Model, s.Serial, s.Firmware = d.identity.Model, d.identity.Serial, d.identity.Firmware
		if v, ok := d.identity.ATAVersion(); ok {
			s.ATAVersion = v
		}
	}
	if d.record != nil {
		s.Family = d.record.Family
	}
	if d.alerts != nil {
		for c, n := range d.alerts.Counts() {
			s.AlertCounts[c.String()] = n
		}
	}
	if d.values == nil {
		return s
	}
	s.PrefailBelowThreshold = d.prefailFailed
	for slot, a := range d.values.Attributes {
		if a.ID == 0 {
			continue
		}
		def := d.defs.Get(a.ID, d.isSSD)
		as := AttributeSummary{
			ID:         a.ID,
			Name:       def.Name,
			Current:    a.Current,
			Worst:      a.Worst,
			Raw:        ata.DecodeRaw(a, def),
			RawString:  ata.FormatRaw(a, def),
			Flags:      a.FlagsString(),
			Prefailure: a.Prefailure(),
			Online:     a.Online(),
			State:      ata.AttrStateNoThreshold.String(),
		}
		if d.thresholds != nil {
			as.Threshold, _ = d.thresholds.Threshold(slot, a.ID)
			as.State = ata.State(d.values, d.thresholds, slot, def).String()
		}
		s.Attributes = append(s.Attributes, as)
	}
	return s
}
