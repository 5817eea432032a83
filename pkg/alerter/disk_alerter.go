package alerter

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// DeviceAlerter raises and clears findings of one device
type DeviceAlerter struct {
	logger *log.Entry

	device    Device
	settings  Settings
	notifiers []Notifier
	clock     clock.PassiveClock
	hostname  string

	lock   sync.Mutex
	states map[Class]*State
}

// Raise reports a finding. It returns true when a notification was attempted.
// The state is recorded even if a notifier fails.
func (alt *DeviceAlerter) Raise(class Class, format string, args ...interface{}) bool {
	alt.lock.Lock()
	defer alt.lock.Unlock()

	now := alt.clock.Now()
	state := alt.stateOf(class)
	message := fmt.Sprintf(format, args...)
	if !ShouldSend(now, alt.settings.Frequency, class, state) {
		alt.logger.WithFields(log.Fields{"class": class.String(), "sent": state.TimesSent}).Debug("Alert suppressed by frequency policy")
		return false
	}

	prev := state.TimesSent
	RecordSent(state, now)

	a := &Alert{
		ID:        uuid.New().String(),
		Device:    alt.device,
		Class:     class,
		Severity:  class.Severity(),
		Hostname:  alt.hostname,
		Message:   message,
		Addresses: alt.settings.Addresses,
		Mailer:    alt.settings.Mailer,
		FirstSent: state.FirstSent,
		NextDays:  NextDays(alt.settings.Frequency, class, state),
		PrevCount: prev,
	}
	a.Subject = composeSubject(a)
	a.Full = composeFull(a)

	for _, n := range alt.notifiers {
		if err := n.Notify(a); err != nil {
			alt.logger.WithFields(log.Fields{"alert": a.ID, "class": class.String(), "notifier": n.Name()}).WithError(err).Error("Failed to deliver alert")
			continue
		}
		alt.logger.WithFields(log.Fields{"alert": a.ID, "class": class.String(), "notifier": n.Name()}).Debug("Alert delivered")
	}
	return true
}

// Clear resets the state of class once its condition went away
func (alt *DeviceAlerter) Clear(class Class) {
	alt.lock.Lock()
	defer alt.lock.Unlock()

	state, has := alt.states[class]
	if !has || state.TimesSent == 0 {
		return
	}
	alt.logger.WithField("class", class.String()).Infof("%s condition cleared", class)
	delete(alt.states, class)
}

// SendTest sends the registration test alert when configured
func (alt *DeviceAlerter) SendTest() {
	if !alt.settings.Test {
		return
	}
	alt.Raise(ClassTest, "TEST ALERT from diskhealth for device: %s", alt.device.Name)
}

// State returns a copy of the state of class
func (alt *DeviceAlerter) State(class Class) State {
	alt.lock.Lock()
	defer alt.lock.Unlock()
	if s, has := alt.states[class]; has {
		return *s
	}
	return State{}
}

// Counts returns the number of notifications sent per class
func (alt *DeviceAlerter) Counts() map[Class]int {
	alt.lock.Lock()
	defer alt.lock.Unlock()
	out := make(map[Class]int, len(alt.states))
	for c, s := range alt.states {
		out[c] = s.TimesSent
	}
	return out
}

func (alt *DeviceAlerter) stateOf(class Class) *State {
	s, has := alt.states[class]
	if !has {
		s = &State{}
		alt.states[class] = s
	}
	return s
}
