package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/scheduler"
	"github.com/hwameistor/diskhealth/pkg/smart/ata"
	"github.com/hwameistor/diskhealth/pkg/transport"
)

// failure kinds of a command or of the record it returned
const (
	failNone = iota
	failCapability
	failProtocol
	failTransport
)

func classify(err error) int {
	var perr *ata.ProtocolError
	switch {
	case err == nil:
		return failNone
	case transport.IsRejected(err):
		return failCapability
	case errors.As(err, &perr), errors.Is(err, ata.ErrChecksum), errors.Is(err, ata.ErrShortRecord), errors.Is(err, transport.ErrBadStatus):
		return failProtocol
	}
	return failTransport
}

// checkDevice runs one monitoring cycle of d
func (m *Monitor) checkDevice(ctx context.Context, d *device) {
	d.lastCheck = m.clock.Now()
	steps := []func(context.Context, *device) error{
		m.checkHealth,
		m.checkAttributes,
		m.checkSelfTestLog,
		m.checkErrorLog,
		m.runScheduledTest,
	}
	for _, step := range steps {
		if err := step(ctx, d); err != nil {
			d.logger.WithError(err).Warning("Skipping the remaining checks of this cycle")
			return
		}
	}
}

func (m *Monitor) transportFailed(d *device, err error, what string) error {
	d.logger.WithError(err).Errorf("%s failed", what)
	return fmt.Errorf("%s: %w: %v", what, errSkipDevice, err)
}

func (m *Monitor) checkHealth(ctx context.Context, d *device) error {
	if !d.checks.Health {
		return nil
	}
	buf, err := d.send(ctx, transport.CmdStatusCheck, 0)
	var failing bool
	if err == nil {
		failing, err = transport.HealthStatus(buf)
	}
	switch classify(err) {
	case failCapability:
		d.logger.WithError(err).Warning("Not capable of SMART health status check, disabled")
		d.checks.Health = false
		return nil
	case failProtocol:
		d.logger.WithError(err).Error("SMART health status check returned unexpected registers")
		d.alerts.Raise(alerter.ClassFailedHealthCheck, "Device: %s, not capable of SMART self-check", d.name())
		return nil
	case failTransport:
		d.alerts.Raise(alerter.ClassFailedHealthCheck, "Device: %s, not capable of SMART self-check", d.name())
		return m.transportFailed(d, err, "SMART health status check")
	}

	d.healthChecked = true
	d.healthPassed = !failing
	if failing {
		msg := fmt.Sprintf("Device: %s, FAILED SMART self-check. BACK UP DATA NOW!", d.name())
		d.logger.Error(msg)
		d.alerts.Raise(alerter.ClassHealth, "%s", msg)
	}
	return nil
}

func (m *Monitor) checkAttributes(ctx context.Context, d *device) error {
	if !d.needsValues() {
		return nil
	}

	values, err := m.readValues(ctx, d)
	switch classify(err) {
	case failCapability:
		d.logger.WithError(err).Warning("Read SMART Values rejected, attribute checks disabled")
		d.valuesRejected()
		return nil
	case failProtocol:
		d.logger.WithError(err).Error("Read SMART Values failed")
		d.alerts.Raise(alerter.ClassFailedReadSmartData, "Device: %s, failed to read SMART Attribute Data", d.name())
		return nil
	case failTransport:
		d.alerts.Raise(alerter.ClassFailedReadSmartData, "Device: %s, failed to read SMART Attribute Data", d.name())
		return m.transportFailed(d, err, "Read SMART Values")
	}

	thresholds, err := m.readThresholds(ctx, d)
	switch classify(err) {
	case failNone:
		d.thresholds = thresholds
	case failCapability, failProtocol:
		// keep comparing against the last good thresholds
		d.logger.WithError(err).Warning("Read SMART Thresholds failed")
	case failTransport:
		return m.transportFailed(d, err, "Read SMART Thresholds")
	}

	if !d.capsKnown {
		m.learnCapabilities(ctx, d, values)
	}
	prev := d.values
	d.values = values

	if d.thresholds != nil {
		failed, mismatches := ata.CheckFailure(values, d.thresholds)
		for _, mm := range mismatches {
			d.logger.Warningf("Attribute and threshold tables disagree, %s", mm)
		}
		if failed != 0 {
			d.logger.WithField("attribute", failed).Debug("Prefailure attribute below its threshold")
		}
		d.prefailFailed = failed
	}

	m.checkSectors(d, prev, values, d.pending, alerter.ClassCurrentPendingSector, "Currently unreadable (pending) sectors")
	m.checkSectors(d, prev, values, d.offline, alerter.ClassOfflineUncorrectableSector, "Offline uncorrectable sectors")
	m.checkTemperature(d, values)
	if d.thresholds != nil {
		m.checkUsage(d, prev, values)
	}
	return nil
}

// checkSectors reports a non-zero sector counter. In increase-only mode only
// growth since the previous cycle is reported.
func (m *Monitor) checkSectors(d *device, prev, values *ata.Values, check config.SectorCheck, class alerter.Class, what string) {
	if check.ID == 0 {
		return
	}
	a, ok := values.Attribute(check.ID)
	if !ok {
		return
	}
	def := d.defs.Get(check.ID, d.isSSD)
	count := ata.DecodeRaw(a, def)

	var prevCount uint64
	havePrev := false
	if prev != nil {
		if pa, ok := prev.Attribute(check.ID); ok {
			prevCount, havePrev = ata.DecodeRaw(pa, def), true
		}
	}

	if count == 0 {
		d.alerts.Clear(class)
		return
	}
	if check.IncreaseOnly && havePrev && count <= prevCount {
		return
	}

	msg := fmt.Sprintf("Device: %s, %d %s", d.name(), count, what)
	if havePrev && prevCount > 0 && count != prevCount {
		msg += fmt.Sprintf(" (changed %+d)", int64(count)-int64(prevCount))
	}
	d.logger.Error(msg)
	d.alerts.Raise(class, "%s", msg)
}

// checkUsage reports failing attributes and tracks changes of the normalized
// and raw values against the previous cycle
func (m *Monitor) checkUsage(d *device, prev, values *ata.Values) {
	for slot, a := range values.Attributes {
		if a.ID == 0 {
			continue
		}
		def := d.defs.Get(a.ID, d.isSSD)

		if d.checks.UsageFailure && !d.cfg.IgnoreFailure.Has(a.ID) &&
			ata.State(values, d.thresholds, slot, def) == ata.AttrStateFailedNow {
			msg := fmt.Sprintf("Device: %s, Failed SMART usage Attribute: %d %s.", d.name(), a.ID, def.Name)
			d.logger.Error(msg)
			d.alerts.Raise(alerter.ClassUsage, "%s", msg)
		}

		if prev == nil || d.cfg.IgnoreTracking.Has(a.ID) {
			continue
		}
		old, ok := prev.Attribute(a.ID)
		if !ok {
			continue
		}
		prefail := a.Prefailure()
		if (prefail && !d.checks.Prefail) || (!prefail && !d.checks.Usage) {
			continue
		}
		trackRaw := d.cfg.TrackRaw.Has(a.ID)
		if old.Current == a.Current && (!trackRaw || old.Raw == a.Raw) {
			continue
		}

		from, to := fmt.Sprint(old.Current), fmt.Sprint(a.Current)
		if trackRaw || d.cfg.ReportRaw.Has(a.ID) {
			from += fmt.Sprintf(" [Raw %s]", ata.FormatRaw(old, def))
			to += fmt.Sprintf(" [Raw %s]", ata.FormatRaw(a, def))
		}
		kind := "Usage"
		if prefail {
			kind = "Prefailure"
		}
		msg := fmt.Sprintf("Device: %s, SMART %s Attribute: %d %s changed from %s to %s", d.name(), kind, a.ID, def.Name, from, to)
		if d.cfg.Critical.Has(a.ID) {
			d.logger.Error(msg)
			d.alerts.Raise(alerter.ClassUsage, "%s", msg)
		} else {
			d.logger.Info(msg)
		}
	}
}

func (m *Monitor) checkSelfTestLog(ctx context.Context, d *device) error {
	if !d.checks.SelfTestLog || !d.capsKnown {
		return nil
	}
	sum, err := m.readSelfTestLog(ctx, d)
	switch classify(err) {
	case failCapability:
		d.logger.WithError(err).Warning("Read SMART Self-Test Log rejected, self-test log check disabled")
		d.checks.SelfTestLog = false
		return nil
	case failProtocol:
		d.logger.WithError(err).Error("Read SMART Self-Test Log failed")
		d.alerts.Raise(alerter.ClassFailedReadSmartSelfTestLog, "Device: %s, Read SMART Self-Test Log Failed", d.name())
		return nil
	case failTransport:
		d.alerts.Raise(alerter.ClassFailedReadSmartSelfTestLog, "Device: %s, Read SMART Self-Test Log Failed", d.name())
		return m.transportFailed(d, err, "Read SMART Self-Test Log")
	}

	if d.selfTestLogKnown {
		switch {
		case sum.Errors > d.selfTestErrors:
			msg := fmt.Sprintf("Device: %s, Self-Test Log error count increased from %d to %d", d.name(), d.selfTestErrors, sum.Errors)
			d.logger.Error(msg)
			d.alerts.Raise(alerter.ClassSelfTest, "%s", msg)
		case sum.Errors > 0 && sum.LastErrorHour != d.selfTestHour:
			msg := fmt.Sprintf("Device: %s, new Self-Test Log error at hour timestamp %d", d.name(), sum.LastErrorHour)
			d.logger.Error(msg)
			d.alerts.Raise(alerter.ClassSelfTest, "%s", msg)
		case sum.Errors < d.selfTestErrors:
			d.logger.Infof("Self-Test Log error count decreased from %d to %d", d.selfTestErrors, sum.Errors)
		}
	}
	if sum.Errors == 0 {
		d.alerts.Clear(alerter.ClassSelfTest)
	}
	d.selfTestErrors, d.selfTestHour, d.selfTestLogKnown = sum.Errors, sum.LastErrorHour, true
	return nil
}

func (m *Monitor) checkErrorLog(ctx context.Context, d *device) error {
	if !d.checks.ErrorLog || !d.capsKnown {
		return nil
	}
	count, err := m.readErrorCount(ctx, d)
	switch classify(err) {
	case failCapability:
		d.logger.WithError(err).Warning("Read SMART Error Log rejected, error log check disabled")
		d.checks.ErrorLog = false
		return nil
	case failProtocol:
		d.logger.WithError(err).Error("Read SMART Error Log failed")
		d.alerts.Raise(alerter.ClassFailedReadSmartErrorLog, "Device: %s, Read SMART Error Log Failed", d.name())
		return nil
	case failTransport:
		d.alerts.Raise(alerter.ClassFailedReadSmartErrorLog, "Device: %s, Read SMART Error Log Failed", d.name())
		return m.transportFailed(d, err, "Read SMART Error Log")
	}

	if d.errorLogKnown && count > d.errorCount {
		msg := fmt.Sprintf("Device: %s, ATA error count increased from %d to %d", d.name(), d.errorCount, count)
		d.logger.Error(msg)
		d.alerts.Raise(alerter.ClassErrorCount, "%s", msg)
	}
	d.errorCount, d.errorLogKnown = count, true
	return nil
}

// runScheduledTest starts the self-test due now, if any
func (m *Monitor) runScheduledTest(ctx context.Context, d *device) error {
	if d.schedule == nil {
		return nil
	}
	if !d.capsKnown {
		d.logger.Debug("Self-test capabilities unknown, schedule not evaluated")
		return nil
	}
	t := scheduler.Due(m.clock.Now(), d.schedule, &d.sched, d.notCapable)
	if t == scheduler.TestNone {
		return nil
	}
	if d.values.SelfTestInProgressNow(d.fix) {
		d.logger.Infof("Skipping scheduled %s, %d%% of current Self-Test remaining", t, d.values.RemainingPercent())
		return nil
	}

	_, err := d.send(ctx, transport.CmdStartSelfTest, t.Select())
	switch classify(err) {
	case failNone:
		if t == scheduler.TestLong {
			d.logger.WithField("minutes", d.values.ExtendedTestDuration()).Infof("Starting scheduled %s", t)
		} else {
			d.logger.Infof("Starting scheduled %s", t)
		}
	case failCapability:
		d.notCapable[t] = true
		d.logger.WithError(err).Warningf("Not capable of %s, disabled", t)
	default:
		d.logger.WithError(err).Errorf("Failed to start scheduled %s", t)
		if classify(err) == failTransport {
			return m.transportFailed(d, err, "Execute Self-Test")
		}
	}
	return nil
}

// checkTemperature logs temperature changes of at least Diff degrees and
// alerts when the critical limit is reached. The condition is cleared once the
// temperature drops below the info limit, or 5 degrees below the critical
// limit when no info limit is set.
func (m *Monitor) checkTemperature(d *device, values *ata.Values) {
	if !d.temperature {
		return
	}
	t, ok := ata.Temperature(values, d.defs, d.isSSD)
	if !ok {
		return
	}
	limits := d.cfg.Temperature
	st := &d.temp
	st.current = t

	if st.reported == 0 {
		st.reported, st.min, st.max = t, t, t
		d.logger.Infof("Temperature %d Celsius (initial)", t)
	} else {
		if t < st.min {
			st.min = t
		}
		if t > st.max {
			st.max = t
		}
		if delta := t - st.reported; limits.Diff > 0 && (delta >= limits.Diff || -delta >= limits.Diff) {
			d.logger.Infof("Temperature changed %+d Celsius to %d Celsius (Min/Max %d/%d)", delta, t, st.min, st.max)
			st.reported = t
		}
	}

	switch {
	case limits.Critical > 0 && t >= limits.Critical:
		msg := fmt.Sprintf("Device: %s, Temperature %d Celsius reached critical limit of %d Celsius (Min/Max %d/%d)",
			d.name(), t, limits.Critical, st.min, st.max)
		d.logger.Error(msg)
		d.alerts.Raise(alerter.ClassTemperature, "%s", msg)
	case limits.Info > 0 && t >= limits.Info:
		d.logger.Infof("Temperature %d Celsius reached limit of %d Celsius (Min/Max %d/%d)", t, limits.Info, st.min, st.max)
	case limits.Info > 0 && t < limits.Info,
		limits.Info == 0 && limits.Critical > 0 && t < limits.Critical-5:
		d.alerts.Clear(alerter.ClassTemperature)
	}
}
