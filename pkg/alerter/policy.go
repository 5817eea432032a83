package alerter

import "time"

const day = 24 * time.Hour

// ShouldSend decides whether a finding of class is notified at now
func ShouldSend(now time.Time, freq Frequency, class Class, state *State) bool {
	if state == nil || state.TimesSent == 0 {
		return true
	}
	if class == ClassTest {
		return false
	}
	elapsed := now.Sub(state.LastSent)
	switch freq {
	case FrequencyDaily:
		return elapsed >= day
	case FrequencyDiminishing:
		return elapsed >= diminishingDelay(state.TimesSent)
	}
	return false
}

// RecordSent updates the state after a notification attempt
func RecordSent(state *State, now time.Time) {
	if state.TimesSent == 0 {
		state.FirstSent = now
	}
	state.TimesSent++
	state.LastSent = now
}

// NextDays returns the days until the next notification once the state
// was recorded, or -1 when no further notification is sent
func NextDays(freq Frequency, class Class, state *State) int {
	if class == ClassTest {
		return -1
	}
	switch freq {
	case FrequencyDaily:
		return 1
	case FrequencyDiminishing:
		return int(diminishingDelay(state.TimesSent) / day)
	}
	return -1
}

// diminishingDelay is 2^(n-1) days for n notifications sent
func diminishingDelay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	shift := n - 1
	// cap at about 90 years
	if shift > 15 {
		shift = 15
	}
	return day << uint(shift)
}
