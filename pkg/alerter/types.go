package alerter

import (
	"fmt"
	"strings"
	"time"
)

// misc
const (
	SeverityCritical = iota
	SeverityWarning
	SeverityNotice

	ModuleAlerter = "Alerter"
)

// Class is the kind of a finding; alert state is kept per device per class
type Class int

// finding classes
const (
	ClassTest Class = iota
	ClassHealth
	ClassUsage
	ClassSelfTest
	ClassErrorCount
	ClassFailedHealthCheck
	ClassFailedReadSmartData
	ClassFailedReadSmartErrorLog
	ClassFailedReadSmartSelfTestLog
	ClassFailedOpenDevice
	ClassCurrentPendingSector
	ClassOfflineUncorrectableSector
	ClassTemperature

	numClasses
)

var classNames = [numClasses]string{
	ClassTest:                       "EmailTest",
	ClassHealth:                     "Health",
	ClassUsage:                      "Usage",
	ClassSelfTest:                   "SelfTest",
	ClassErrorCount:                 "ErrorCount",
	ClassFailedHealthCheck:          "FailedHealthCheck",
	ClassFailedReadSmartData:        "FailedReadSmartData",
	ClassFailedReadSmartErrorLog:    "FailedReadSmartErrorLog",
	ClassFailedReadSmartSelfTestLog: "FailedReadSmartSelfTestLog",
	ClassFailedOpenDevice:           "FailedOpenDevice",
	ClassCurrentPendingSector:       "CurrentPendingSector",
	ClassOfflineUncorrectableSector: "OfflineUncorrectableSector",
	ClassTemperature:                "Temperature",
}

func (c Class) String() string {
	if c >= 0 && c < numClasses {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Classes returns every finding class
func Classes() []Class {
	out := make([]Class, 0, numClasses)
	for c := Class(0); c < numClasses; c++ {
		out = append(out, c)
	}
	return out
}

// Severity of a finding class
func (c Class) Severity() int {
	switch c {
	case ClassHealth, ClassUsage, ClassSelfTest, ClassCurrentPendingSector, ClassOfflineUncorrectableSector:
		return SeverityCritical
	case ClassTest:
		return SeverityNotice
	}
	return SeverityWarning
}

// Frequency controls how often a persisting finding is re-sent
type Frequency int

// alert frequencies
const (
	FrequencyOnce Frequency = iota
	FrequencyDaily
	FrequencyDiminishing
)

func (f Frequency) String() string {
	switch f {
	case FrequencyOnce:
		return "once"
	case FrequencyDaily:
		return "daily"
	case FrequencyDiminishing:
		return "diminishing"
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// ParseFrequency accepts once, daily and diminishing; empty means once
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(s) {
	case "", "once":
		return FrequencyOnce, nil
	case "daily":
		return FrequencyDaily, nil
	case "diminishing":
		return FrequencyDiminishing, nil
	}
	return FrequencyOnce, fmt.Errorf("invalid alert frequency %q", s)
}

// State is the escalation memory of one class on one device
type State struct {
	TimesSent int
	FirstSent time.Time
	LastSent  time.Time
}

// Settings configure alert delivery for a device
type Settings struct {
	// Addresses receive mail through Mailer
	Addresses []string
	// Exec is a program run for every alert instead of the mailer
	Exec      string
	Mailer    string
	Frequency Frequency
	// Test sends a single test alert at registration
	Test bool
}

// Device identifies the subject of an alert
type Device struct {
	Name string
	Type string
	// Info is a one line identity, e.g. "[SAT], ST2000DM001-1CH164, S/N:Z1E..."
	Info string
}

// Alert is one notification
type Alert struct {
	ID        string
	Device    Device
	Class     Class
	Severity  int
	Hostname  string
	Subject   string
	Message   string
	Full      string
	Addresses []string
	Mailer    string
	FirstSent time.Time
	// NextDays is the delay before a repeat, -1 when none is sent
	NextDays int
	// PrevCount is the number of earlier alerts of the class
	PrevCount int
}

// Notifier delivers an alert
type Notifier interface {
	Name() string
	Notify(a *Alert) error
}
