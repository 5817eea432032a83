package sgio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwameistor/diskhealth/pkg/transport"
)

func TestBuildCommand(t *testing.T) {
	testcases := []struct {
		cmd      transport.Command
		sel      int
		features uint8
		lbaLow   uint8
		dataIn   bool
	}{
		{transport.CmdReadValues, 0, smartReadData, 0, true},
		{transport.CmdReadThresholds, 0, smartReadThresholds, 1, true},
		{transport.CmdReadErrorLog, 0, smartReadLog, logSummaryError, true},
		{transport.CmdReadSelfTestLog, 0, smartReadLog, logSelfTest, true},
		{transport.CmdStartSelfTest, transport.SelectExtendedSelfTest, smartExecOfflineImm, 2, false},
		{transport.CmdAbortSelfTest, 0, smartExecOfflineImm, 0x7f, false},
		{transport.CmdStatusCheck, 0, smartReturnStatus, 0, false},
	}

	for _, tc := range testcases {
		c, err := buildCommand(tc.cmd, tc.sel)
		require.NoError(t, err, tc.cmd.String())

		cdb := c.cdb()
		assert.Equal(t, uint8(0x85), cdb[0])
		assert.Equal(t, uint8(ataSMART), cdb[14], tc.cmd.String())
		assert.Equal(t, tc.features, cdb[4], tc.cmd.String())
		assert.Equal(t, tc.lbaLow, cdb[8], tc.cmd.String())
		assert.Equal(t, uint8(smartLBAMid), cdb[10])
		assert.Equal(t, uint8(smartLBAHigh), cdb[12])
		assert.Equal(t, tc.dataIn, c.dataIn, tc.cmd.String())
	}

	c, err := buildCommand(transport.CmdIdentify, 0)
	require.NoError(t, err)
	cdb := c.cdb()
	assert.Equal(t, uint8(ataIdentifyDevice), cdb[14])
	assert.Equal(t, uint8(protoPIODataIn<<1), cdb[1])
	assert.Equal(t, uint8(0x0e), cdb[2])

	c, _ = buildCommand(transport.CmdStatusCheck, 0)
	assert.Equal(t, uint8(0x20), c.cdb()[2])

	_, err = buildCommand(transport.CmdStartSelfTest, 0x100)
	assert.Error(t, err)
}

func statusSense(key, errorReg, mid, high, status uint8) []byte {
	sense := make([]byte, 22)
	sense[0] = 0x72
	sense[1] = key
	sense[7] = 14
	d := sense[8:]
	d[0] = 0x09
	d[1] = 12
	d[3] = errorReg
	d[9] = mid
	d[11] = high
	d[13] = status
	return sense
}

func TestParseSense(t *testing.T) {
	key, st := parseSense(statusSense(senseRecoveredError, 0, 0xF4, 0x2C, 0x50))
	assert.Equal(t, uint8(senseRecoveredError), key)
	require.NotNil(t, st)
	assert.Equal(t, uint8(0xF4), st.lbaMid)
	assert.Equal(t, uint8(0x2C), st.lbaHigh)

	fixed := make([]byte, 18)
	fixed[0] = 0x70
	fixed[2] = senseIllegalRequest
	key, st = parseSense(fixed)
	assert.Equal(t, uint8(senseIllegalRequest), key)
	assert.Nil(t, st)

	key, st = parseSense(nil)
	assert.Zero(t, key)
	assert.Nil(t, st)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(transport.CmdReadValues, 0, nil, false))
	assert.NoError(t, classify(transport.CmdStatusCheck, 0x02, statusSense(senseRecoveredError, 0, 0x4F, 0xC2, 0x50), true))

	err := classify(transport.CmdStatusCheck, 0, nil, true)
	assert.True(t, transport.IsTransport(err))

	err = classify(transport.CmdStartSelfTest, 0x02, statusSense(senseAbortedCommand, 0x04, 0, 0, 0x51), false)
	assert.True(t, transport.IsRejected(err))

	fixed := make([]byte, 18)
	fixed[0] = 0x70
	fixed[2] = senseIllegalRequest
	assert.True(t, transport.IsRejected(classify(transport.CmdEnableAutosave, 0x02, fixed, false)))

	fixed[2] = 0x03
	assert.True(t, transport.IsTransport(classify(transport.CmdReadValues, 0x02, fixed, false)))
}
