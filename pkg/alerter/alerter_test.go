package alerter

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/hwameistor/diskhealth/pkg/exechelper"
)

var start = time.Date(2023, time.March, 1, 10, 0, 0, 0, time.UTC)

func TestShouldSend(t *testing.T) {
	testcases := []struct {
		description string
		freq        Frequency
		class       Class
		state       State
		elapsed     time.Duration
		expected    bool
	}{
		{"first alert", FrequencyOnce, ClassUsage, State{}, 0, true},
		{"once never repeats", FrequencyOnce, ClassUsage, State{TimesSent: 1}, 1000 * day, false},
		{"daily before a day", FrequencyDaily, ClassHealth, State{TimesSent: 1}, day - time.Second, false},
		{"daily after a day", FrequencyDaily, ClassHealth, State{TimesSent: 4}, day, true},
		{"diminishing after first", FrequencyDiminishing, ClassUsage, State{TimesSent: 1}, day, true},
		{"diminishing third exactly four days", FrequencyDiminishing, ClassUsage, State{TimesSent: 3}, 4 * day, true},
		{"diminishing third just before four days", FrequencyDiminishing, ClassUsage, State{TimesSent: 3}, 4*day - time.Second, false},
		{"test class is sent once under daily", FrequencyDaily, ClassTest, State{TimesSent: 1}, 10 * day, false},
		{"test class is sent first time", FrequencyDiminishing, ClassTest, State{}, 0, true},
	}

	for _, tc := range testcases {
		state := tc.state
		state.LastSent = start
		assert.Equal(t, tc.expected, ShouldSend(start.Add(tc.elapsed), tc.freq, tc.class, &state), tc.description)
	}
}

func TestRecordSentAndNextDays(t *testing.T) {
	state := &State{}
	RecordSent(state, start)
	RecordSent(state, start.Add(day))
	RecordSent(state, start.Add(3*day))

	assert.Equal(t, 3, state.TimesSent)
	assert.Equal(t, start, state.FirstSent)
	assert.Equal(t, start.Add(3*day), state.LastSent)

	assert.Equal(t, 4, NextDays(FrequencyDiminishing, ClassUsage, state))
	assert.Equal(t, 1, NextDays(FrequencyDaily, ClassUsage, state))
	assert.Equal(t, -1, NextDays(FrequencyOnce, ClassUsage, state))
	assert.Equal(t, -1, NextDays(FrequencyDaily, ClassTest, state))
}

func TestParseFrequency(t *testing.T) {
	for in, expected := range map[string]Frequency{"": FrequencyOnce, "once": FrequencyOnce, "Daily": FrequencyDaily, "diminishing": FrequencyDiminishing} {
		f, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, f, in)
	}
	_, err := ParseFrequency("weekly")
	assert.Error(t, err)
}

func TestClassNames(t *testing.T) {
	assert.Len(t, Classes(), 13)
	assert.Equal(t, "CurrentPendingSector", ClassCurrentPendingSector.String())
	assert.Equal(t, SeverityCritical, ClassHealth.Severity())
	assert.Equal(t, SeverityWarning, ClassTemperature.Severity())
}

var sda = Device{Name: "/dev/sda", Type: "sat", Info: "[SAT], ST2000DM001-1CH164, S/N:Z1E0ABCD"}

func envValue(env []string, key string) string {
	for _, kv := range env {
		if strings.HasPrefix(kv, key+"=") {
			return strings.TrimPrefix(kv, key+"=")
		}
	}
	return ""
}

func TestDeviceAlerterExec(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clk := testingclock.NewFakeClock(start)
	executor := exechelper.NewMockExecutor(ctrl)

	var got []exechelper.ExecParams
	executor.EXPECT().
		RunCommand(gomock.Any()).
		DoAndReturn(func(params exechelper.ExecParams) exechelper.ExecResult {
			got = append(got, params)
			return exechelper.ExecResult{OutBuf: &bytes.Buffer{}, ErrBuf: &bytes.Buffer{}}
		}).
		Times(2)

	alt := NewManager(executor, clk).ForDevice(sda, Settings{
		Addresses: []string{"root", "ops@example.com"},
		Exec:      "/usr/local/bin/notify",
		Frequency: FrequencyDiminishing,
	})

	assert.True(t, alt.Raise(ClassUsage, "Device: %s, Failed SMART usage Attribute: %d %s.", sda.Name, 5, "Reallocated_Sector_Ct"))
	clk.Step(12 * time.Hour)
	assert.False(t, alt.Raise(ClassUsage, "again"))
	clk.Step(12 * time.Hour)
	assert.True(t, alt.Raise(ClassUsage, "again"))

	require.Len(t, got, 2)
	assert.Equal(t, "/usr/local/bin/notify", got[0].CmdName)
	assert.Equal(t, "/dev/sda", envValue(got[0].Env, "DISKHEALTH_DEVICE"))
	assert.Equal(t, "Usage", envValue(got[0].Env, "DISKHEALTH_FAILTYPE"))
	assert.Equal(t, "root ops@example.com", envValue(got[0].Env, "DISKHEALTH_ADDRESS"))
	assert.Equal(t, "mail", envValue(got[0].Env, "DISKHEALTH_MAILER"))
	assert.Equal(t, "0", envValue(got[0].Env, "DISKHEALTH_PREVCNT"))
	assert.Equal(t, "1", envValue(got[0].Env, "DISKHEALTH_NEXTDAYS"))
	assert.Equal(t, "Device: /dev/sda, Failed SMART usage Attribute: 5 Reallocated_Sector_Ct.", envValue(got[0].Env, "DISKHEALTH_MESSAGE"))
	assert.NotEmpty(t, envValue(got[0].Env, "DISKHEALTH_ALERTID"))

	assert.Equal(t, "1", envValue(got[1].Env, "DISKHEALTH_PREVCNT"))
	assert.Equal(t, "2", envValue(got[1].Env, "DISKHEALTH_NEXTDAYS"))
	assert.NotEqual(t, envValue(got[0].Env, "DISKHEALTH_ALERTID"), envValue(got[1].Env, "DISKHEALTH_ALERTID"))
	assert.Equal(t, envValue(got[0].Env, "DISKHEALTH_TFIRSTEPOCH"), envValue(got[1].Env, "DISKHEALTH_TFIRSTEPOCH"))

	body, err := io.ReadAll(got[1].Stdin)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Another message will be sent in 2 days")
	assert.Contains(t, string(body), "The original message about this issue was sent at")
}

func TestDeviceAlerterMail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	executor := exechelper.NewMockExecutor(ctrl)
	executor.EXPECT().
		RunCommand(gomock.Any()).
		DoAndReturn(func(params exechelper.ExecParams) exechelper.ExecResult {
			assert.Equal(t, "/usr/bin/mailx", params.CmdName)
			assert.Equal(t, []string{"-s", "SMART error (Health) detected on host: " + hostname(), "root"}, params.CmdArgs)
			return exechelper.ExecResult{OutBuf: &bytes.Buffer{}, ErrBuf: bytes.NewBufferString("no MTA"), ExitCode: 1, Error: errors.New("exit status 1")}
		}).
		Times(1)

	alt := NewManager(executor, testingclock.NewFakeClock(start)).ForDevice(sda, Settings{
		Addresses: []string{"root"},
		Mailer:    "/usr/bin/mailx",
	})

	// delivery failed, the attempt still counts
	assert.True(t, alt.Raise(ClassHealth, "FAILED SMART self-check. BACK UP DATA NOW!"))
	assert.Equal(t, 1, alt.State(ClassHealth).TimesSent)
	assert.False(t, alt.Raise(ClassHealth, "FAILED SMART self-check. BACK UP DATA NOW!"))
}

func TestDeviceAlerterClearAndTest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// log notifier only, the executor must not be used
	executor := exechelper.NewMockExecutor(ctrl)
	clk := testingclock.NewFakeClock(start)
	alt := NewManager(executor, clk).ForDevice(sda, Settings{Test: true})

	alt.SendTest()
	alt.SendTest()
	assert.Equal(t, 1, alt.State(ClassTest).TimesSent)

	assert.True(t, alt.Raise(ClassTemperature, "Temperature 60 Celsius reached critical limit of 55 Celsius"))
	assert.False(t, alt.Raise(ClassTemperature, "still hot"))
	alt.Clear(ClassTemperature)
	assert.Equal(t, State{}, alt.State(ClassTemperature))
	assert.True(t, alt.Raise(ClassTemperature, "hot again"))

	assert.Equal(t, map[Class]int{ClassTest: 1, ClassTemperature: 1}, alt.Counts())
}

func TestComposeFull(t *testing.T) {
	a := &Alert{Device: sda, Class: ClassUsage, Hostname: "node1", Message: "msg", NextDays: -1}
	a.Subject = composeSubject(a)
	assert.Equal(t, "SMART error (Usage) detected on host: node1", a.Subject)
	full := composeFull(a)
	assert.Contains(t, full, "No additional messages about this problem will be sent.")
	assert.Contains(t, full, sda.Info)
	assert.NotContains(t, full, "original message")
}
