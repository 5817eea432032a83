package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/monitor"
)

var _ prometheus.Collector = &SMARTCollector{}
var smartDescMaps sync.Map

// SummarySource provides the device snapshots exported as metrics
type SummarySource interface {
	Summaries() []monitor.DeviceSummary
}

// SMARTCollector exports the last reading of every monitored device
type SMARTCollector struct {
	source SummarySource
}

// emitter writes the metrics of one scrape
type emitter chan<- prometheus.Metric

// NewSMARTCollector collects SMART metrics from the monitor snapshots
func NewSMARTCollector(source SummarySource) *SMARTCollector {
	return &SMARTCollector{source: source}
}

func (sc *SMARTCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(sc, ch)
}

func (sc *SMARTCollector) Collect(ch chan<- prometheus.Metric) {
	log.Debug("Collecting metrics for S.M.A.R.T")
	e := emitter(ch)
	for _, s := range sc.source.Summaries() {
		e.collectDevice(s)
		e.collectAtaAttributes(s)
	}
}

func (e emitter) collectDevice(s monitor.DeviceSummary) {
	e.gauge("device_info", 1, s.Name, s.Model, s.Serial, s.Firmware, s.Family, fmt.Sprintf("%d", s.ATAVersion))
	if s.HealthChecked {
		e.gauge("device_health_passed", boolValue(s.HealthPassed), s.Name)
	}
	if s.Temperature > 0 {
		e.gauge("device_temperature", float64(s.Temperature), s.Name, "current")
		e.gauge("device_temperature", float64(s.MinTemperature), s.Name, "min")
		e.gauge("device_temperature", float64(s.MaxTemperature), s.Name, "max")
	}
	e.gauge("device_selftest_errors", float64(s.SelfTestErrors), s.Name)
	e.gauge("device_error_count", float64(s.ErrorCount), s.Name)
	for class, n := range s.AlertCounts {
		e.gauge("device_alerts_sent", float64(n), s.Name, class)
	}
	if len(s.Attributes) > 0 {
		e.gauge("device_prefail_below_threshold", float64(s.PrefailBelowThreshold), s.Name)
	}
	if !s.LastCheck.IsZero() {
		e.gauge("device_last_check", float64(s.LastCheck.Unix()), s.Name)
	}
}

// collectAtaAttributes collect all ATA attributes
func (e emitter) collectAtaAttributes(s monitor.DeviceSummary) {
	for _, attr := range s.Attributes {
		id := fmt.Sprintf("%d", attr.ID)
		flags := flagsLong(attr)
		e.gauge("ata_smart_attributes", float64(attr.Current), s.Name, attr.Name, flags, "value", id)
		e.gauge("ata_smart_attributes", float64(attr.Worst), s.Name, attr.Name, flags, "worst", id)
		e.gauge("ata_smart_attributes", float64(attr.Threshold), s.Name, attr.Name, flags, "thresh", id)
		e.gauge("ata_smart_attributes", float64(attr.Raw), s.Name, attr.Name, flags, "raw", id)
	}
}

func (e emitter) gauge(key string, value float64, labels ...string) {
	e.emit(key, prometheus.GaugeValue, value, labels...)
}

func (e emitter) emit(key string, vt prometheus.ValueType, value float64, labels ...string) {
	val, ok := smartDescMaps.Load(key)
	if !ok {
		return
	}
	e <- prometheus.MustNewConstMetric(val.(*prometheus.Desc), vt, value, labels...)
}

func flagsLong(attr monitor.AttributeSummary) string {
	if attr.Prefailure {
		return "prefailure"
	}
	return "old_age"
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func init() {
	setupDescMaps()
}

func setupDescMaps() {
	smartDescMaps.Store("ata_smart_attributes", prometheus.NewDesc(
		"ata_smart_attribute",
		"device attributes",
		[]string{
			"device",
			"attribute_name",
			"attribute_type",
			"attribute_value_type",
			"attribute_id",
		},
		nil,
	))
	smartDescMaps.Store("device_info", prometheus.NewDesc(
		"diskhealth_device_info",
		"identity of a monitored device",
		[]string{"device", "model", "serial", "firmware", "family", "ata_version"},
		nil,
	))
	smartDescMaps.Store("device_health_passed", prometheus.NewDesc(
		"diskhealth_device_health_passed",
		"1 when the last SMART health status check passed",
		[]string{"device"},
		nil,
	))
	smartDescMaps.Store("device_temperature", prometheus.NewDesc(
		"diskhealth_device_temperature_celsius",
		"drive temperature",
		[]string{"device", "kind"},
		nil,
	))
	smartDescMaps.Store("device_selftest_errors", prometheus.NewDesc(
		"diskhealth_device_selftest_errors",
		"failed self-tests since the last successful extended self-test",
		[]string{"device"},
		nil,
	))
	smartDescMaps.Store("device_error_count", prometheus.NewDesc(
		"diskhealth_device_ata_error_count",
		"ATA error count of the SMART error log",
		[]string{"device"},
		nil,
	))
	smartDescMaps.Store("device_alerts_sent", prometheus.NewDesc(
		"diskhealth_device_alerts_sent",
		"alerts sent per class for the conditions currently raised",
		[]string{"device", "class"},
		nil,
	))
	smartDescMaps.Store("device_prefail_below_threshold", prometheus.NewDesc(
		"diskhealth_device_prefail_below_threshold",
		"id of the first prefailure attribute below its threshold, 0 when none",
		[]string{"device"},
		nil,
	))
	smartDescMaps.Store("device_last_check", prometheus.NewDesc(
		"diskhealth_device_last_check_timestamp_seconds",
		"time of the last monitoring cycle",
		[]string{"device"},
		nil,
	))
}
