package ata

import "github.com/hwameistor/diskhealth/pkg/smart/attrdef"

// offline collection capability bits
const (
	capExecOfflineImmediate = 0x01
	capAutoOffline          = 0x02
	capSelfTest             = 0x10
	capConveyanceSelfTest   = 0x20
)

// SupportsExecOfflineImmediate reports offline immediate collection support
func (v *Values) SupportsExecOfflineImmediate() bool {
	return v.OfflineCapability&capExecOfflineImmediate != 0
}

// SupportsAutoOffline reports automatic offline collection support
func (v *Values) SupportsAutoOffline() bool {
	return v.OfflineCapability&capAutoOffline != 0
}

// SupportsSelfTest reports short and extended self-test support
func (v *Values) SupportsSelfTest() bool {
	return v.OfflineCapability&capSelfTest != 0
}

// SupportsConveyanceSelfTest reports conveyance self-test support
func (v *Values) SupportsConveyanceSelfTest() bool {
	return v.OfflineCapability&capConveyanceSelfTest != 0
}

// SupportsAutosave reports attribute autosave support
func (v *Values) SupportsAutosave() bool {
	return v.SmartCapability&0x0002 != 0
}

// SupportsErrorLog reports SMART error logging support
func (v *Values) SupportsErrorLog() bool {
	return v.ErrorLogCapability&0x01 != 0
}

// SelfTestStatus is the high nibble of the self-test execution status
type SelfTestStatus uint8

// self-test status values
const (
	SelfTestCompleted       SelfTestStatus = 0x0
	SelfTestAbortedByHost   SelfTestStatus = 0x1
	SelfTestInterrupted     SelfTestStatus = 0x2
	SelfTestFatal           SelfTestStatus = 0x3
	SelfTestUnknownFailure  SelfTestStatus = 0x4
	SelfTestElectrical      SelfTestStatus = 0x5
	SelfTestServo           SelfTestStatus = 0x6
	SelfTestRead            SelfTestStatus = 0x7
	SelfTestHandlingDamage  SelfTestStatus = 0x8
	SelfTestInProgress      SelfTestStatus = 0xF
	selfTestFirstErrorState                = SelfTestFatal
	selfTestLastErrorState                 = SelfTestHandlingDamage
)

// Failed reports statuses that record a failing test
func (s SelfTestStatus) Failed() bool {
	return s >= selfTestFirstErrorState && s <= selfTestLastErrorState
}

func (s SelfTestStatus) String() string {
	switch s {
	case SelfTestCompleted:
		return "Completed without error"
	case SelfTestAbortedByHost:
		return "Aborted by host"
	case SelfTestInterrupted:
		return "Interrupted (host reset)"
	case SelfTestFatal:
		return "Fatal or unknown error"
	case SelfTestUnknownFailure:
		return "Completed: unknown failure"
	case SelfTestElectrical:
		return "Completed: electrical failure"
	case SelfTestServo:
		return "Completed: servo/seek failure"
	case SelfTestRead:
		return "Completed: read failure"
	case SelfTestHandlingDamage:
		return "Completed: handling damage??"
	case SelfTestInProgress:
		return "Self-test routine in progress"
	}
	return "Unknown status"
}

// SelfTestInProgressNow reports whether the drive is still executing a
// self-test. With the samsung3 fix an in-progress status with zero percent
// remaining means the test has finished.
func (v *Values) SelfTestInProgressNow(fix attrdef.FirmwareFix) bool {
	if SelfTestStatus(v.SelfTestExecStatus>>4) != SelfTestInProgress {
		return false
	}
	if fix == attrdef.FixSamsung3 && v.SelfTestExecStatus&0x0F == 0 {
		return false
	}
	return true
}

// RemainingPercent returns the remaining work of a running self-test
func (v *Values) RemainingPercent() int {
	return int(v.SelfTestExecStatus&0x0F) * 10
}

// ExtendedTestDuration returns the extended self-test polling time in minutes
func (v *Values) ExtendedTestDuration() int {
	if v.ExtendedTestMinutes == 0xFF {
		return int(v.ExtendedTestMinutesWord)
	}
	return int(v.ExtendedTestMinutes)
}
