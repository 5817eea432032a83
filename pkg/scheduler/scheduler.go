// Package scheduler decides when a device is due for a self-test.
//
// A schedule is a regular expression matched against the string
// "T/MM/DD/d/HH" where T is the test type letter, MM the month, DD the day of
// month, d the ISO weekday (Monday=1, Sunday=7) and HH the hour. The whole
// string must match.
package scheduler

import (
	"fmt"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/transport"
)

// TestType is a self-test kind, identified by its schedule letter
type TestType byte

// test types in evaluation order
const (
	TestNone       TestType = 0
	TestLong       TestType = 'L'
	TestShort      TestType = 'S'
	TestConveyance TestType = 'C'
	TestOffline    TestType = 'O'
)

// Order is the priority in which test types are considered
var Order = []TestType{TestLong, TestShort, TestConveyance, TestOffline}

func (t TestType) String() string {
	switch t {
	case TestLong:
		return "Long Self-Test"
	case TestShort:
		return "Short Self-Test"
	case TestConveyance:
		return "Conveyance Self-Test"
	case TestOffline:
		return "Offline Immediate Test"
	case TestNone:
		return "None"
	}
	return fmt.Sprintf("TestType(%c)", byte(t))
}

// Select returns the subcommand that starts the test
func (t TestType) Select() int {
	switch t {
	case TestLong:
		return transport.SelectExtendedSelfTest
	case TestShort:
		return transport.SelectShortSelfTest
	case TestConveyance:
		return transport.SelectConveyanceTest
	}
	return transport.SelectOfflineImmediate
}

// Schedule is a compiled self-test schedule
type Schedule struct {
	expr    string
	pattern *regexp.Regexp
}

// Compile parses a schedule expression. An empty expression never fires.
func Compile(expr string) (*Schedule, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid self-test schedule %q: %w", expr, err)
	}
	return &Schedule{expr: expr, pattern: re}, nil
}

// MustCompile is Compile that panics on error
func MustCompile(expr string) *Schedule {
	s, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schedule) String() string {
	if s == nil {
		return ""
	}
	return s.expr
}

// Matches reports whether test type t is scheduled at now
func (s *Schedule) Matches(t TestType, now time.Time) bool {
	if s == nil {
		return false
	}
	return s.pattern.MatchString(Format(t, now))
}

// Format renders the string a schedule is matched against
func Format(t TestType, now time.Time) string {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return fmt.Sprintf("%c/%02d/%02d/%1d/%02d", byte(t), int(now.Month()), now.Day(), weekday, now.Hour())
}

// HourSlot returns the number of hours since the epoch in the location of now
func HourSlot(now time.Time) int64 {
	_, offset := now.Zone()
	secs := now.Unix() + int64(offset)
	if secs < 0 {
		return (secs - 3599) / 3600
	}
	return secs / 3600
}

// State is the per-device scheduler memory
type State struct {
	LastHour int64
	LastType TestType
}

// Due returns the test to start at now, or TestNone. When a test is returned
// the state is updated with the current hour and the test type, whether or
// not the device then accepts the command.
func Due(now time.Time, sched *Schedule, state *State, notCapable map[TestType]bool) TestType {
	if sched == nil || state == nil {
		return TestNone
	}
	for _, t := range Order {
		if notCapable[t] || !sched.Matches(t, now) {
			continue
		}
		hour := HourSlot(now)
		if state.LastType != TestNone && hour == state.LastHour {
			if state.LastType != t {
				log.WithFields(log.Fields{"schedule": sched.String()}).
					Infof("did test of type %c in current hour, skipping test of type %c", byte(state.LastType), byte(t))
			}
			return TestNone
		}
		state.LastHour = hour
		state.LastType = t
		return t
	}
	return TestNone
}
