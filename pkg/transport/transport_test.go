package transport_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwameistor/diskhealth/pkg/smart/ata"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
	"github.com/hwameistor/diskhealth/pkg/transport"
	"github.com/hwameistor/diskhealth/pkg/transport/simdisk"
)

func TestErrorKinds(t *testing.T) {
	rejected := transport.NewError(transport.KindRejected, transport.CmdStartSelfTest, nil)
	io := transport.NewError(transport.KindIO, transport.CmdReadValues, errors.New("EIO"))
	timeout := transport.NewError(transport.KindTimeout, transport.CmdReadValues, transport.ErrTimeout)

	assert.True(t, transport.IsRejected(rejected))
	assert.False(t, transport.IsTransport(rejected))
	assert.True(t, transport.IsTransport(io))
	assert.True(t, transport.IsTransport(timeout))
	assert.True(t, errors.Is(timeout, transport.ErrTimeout))
	assert.True(t, transport.IsTransport(errors.New("unknown")))
	assert.False(t, transport.IsTransport(nil))

	wrapped := errors.New("wrapped: " + rejected.Error())
	assert.False(t, transport.IsRejected(wrapped))
	assert.Contains(t, rejected.Error(), "rejected")
}

func TestHealthStatus(t *testing.T) {
	failing, err := transport.HealthStatus([]byte{0x4F, 0xC2})
	require.NoError(t, err)
	assert.False(t, failing)

	failing, err = transport.HealthStatus([]byte{0xF4, 0x2C})
	require.NoError(t, err)
	assert.True(t, failing)

	_, err = transport.HealthStatus([]byte{0x00, 0x00})
	assert.Error(t, err)
}

func TestWithTimeoutExpires(t *testing.T) {
	disk := simdisk.New("SIM", "1", "1.0")
	disk.Delay = time.Second

	tr := transport.WithTimeout(disk, 20*time.Millisecond)
	buf := make([]byte, transport.BufferSize)
	err := tr.SendCommand(context.Background(), transport.CmdReadValues, 0, buf)

	var terr *transport.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, transport.KindTimeout, terr.Kind)
	assert.Equal(t, make([]byte, transport.BufferSize), buf)
}

func TestWithTimeoutCompletes(t *testing.T) {
	disk := simdisk.New("SIM", "1", "1.0")
	disk.SetAttribute(0, ata.Attribute{ID: 5, Flags: ata.FlagPrefailure, Current: 100, Worst: 100}, 10)

	tr := transport.WithTimeout(disk, time.Second)
	buf := make([]byte, transport.BufferSize)
	require.NoError(t, tr.SendCommand(context.Background(), transport.CmdReadValues, 0, buf))

	v, err := ata.ParseValues(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), v.Attributes[0].ID)
}

func TestWithTimeoutPassesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := transport.NewMockTransport(ctrl)
	m.EXPECT().
		SendCommand(gomock.Any(), transport.CmdStartSelfTest, transport.SelectConveyanceTest, gomock.Any()).
		Return(transport.NewError(transport.KindRejected, transport.CmdStartSelfTest, nil)).
		Times(1)

	tr := transport.WithTimeout(m, time.Second)
	err := tr.SendCommand(context.Background(), transport.CmdStartSelfTest, transport.SelectConveyanceTest, make([]byte, transport.BufferSize))
	assert.True(t, transport.IsRejected(err))
}

func TestWithTimeoutBusy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})
	m := transport.NewMockTransport(ctrl)
	m.EXPECT().
		SendCommand(gomock.Any(), transport.CmdReadValues, 0, gomock.Any()).
		DoAndReturn(func(context.Context, transport.Command, int, []byte) error {
			// ignores the deadline like a stuck ioctl
			<-release
			return nil
		}).
		Times(2)

	tr := transport.WithTimeout(m, 20*time.Millisecond)
	buf := make([]byte, transport.BufferSize)
	ctx := context.Background()

	err := tr.SendCommand(ctx, transport.CmdReadValues, 0, buf)
	require.ErrorIs(t, err, transport.ErrTimeout)
	assert.NotErrorIs(t, err, transport.ErrBusy)

	// the abandoned command still owns the device
	err = tr.SendCommand(ctx, transport.CmdReadValues, 0, buf)
	assert.ErrorIs(t, err, transport.ErrBusy)
	assert.True(t, transport.IsTransport(err))

	close(release)
	assert.Eventually(t, func() bool {
		return tr.SendCommand(ctx, transport.CmdReadValues, 0, buf) == nil
	}, time.Second, 10*time.Millisecond)
}

func TestWithTimeoutDisabled(t *testing.T) {
	disk := simdisk.New("SIM", "1", "1.0")
	assert.Same(t, transport.Transport(disk), transport.WithTimeout(disk, 0))
}

func TestSimDisk(t *testing.T) {
	disk := simdisk.New("SIM MODEL", "SN1", "FW1")
	ctx := context.Background()
	buf := make([]byte, transport.BufferSize)

	require.NoError(t, disk.SendCommand(ctx, transport.CmdIdentify, 0, buf))
	id, err := ata.ParseIdentity(buf, attrdef.FixNone)
	require.NoError(t, err)
	assert.Equal(t, "SIM MODEL", id.Model)

	disk.Corrupt[transport.CmdReadThresholds] = true
	require.NoError(t, disk.SendCommand(ctx, transport.CmdReadThresholds, 0, buf))
	_, err = ata.ParseThresholds(buf)
	assert.ErrorIs(t, err, ata.ErrChecksum)

	disk.Failing = true
	require.NoError(t, disk.SendCommand(ctx, transport.CmdStatusCheck, 0, buf))
	failing, err := transport.HealthStatus(buf)
	require.NoError(t, err)
	assert.True(t, failing)

	disk.Rejected[transport.CmdStartSelfTest] = true
	err = disk.SendCommand(ctx, transport.CmdStartSelfTest, transport.SelectShortSelfTest, buf)
	assert.True(t, transport.IsRejected(err))

	require.NoError(t, disk.Close())
	err = disk.SendCommand(ctx, transport.CmdReadValues, 0, buf)
	assert.True(t, transport.IsTransport(err))
}
