//go:build linux

package sgio

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/hwameistor/diskhealth/pkg/transport"
)

const (
	sgIO          = 0x2285
	sgDxferNone   = -1
	sgDxferFromDv = -3
	sgInfoOkMask  = 0x1

	defaultTimeoutMs = 20000
	senseLength      = 32
)

// sgIoHdr mirrors sg_io_hdr_t
type sgIoHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         uintptr
	cmdp           uintptr
	sbp            uintptr
	timeout        uint32
	flags          uint32
	packID         int32
	usrPtr         uintptr
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

// Device is an open SCSI generic handle
type Device struct {
	name string
	fd   int
	mu   sync.Mutex
}

// Open opens name for ATA pass-through
func Open(name, devType string) (transport.Transport, error) {
	switch devType {
	case "", TypeSAT, TypeATA:
	default:
		return nil, fmt.Errorf("unsupported device type %q", devType)
	}
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return &Device{name: name, fd: fd}, nil
}

// Opener opens devices through SG_IO
var Opener = transport.OpenerFunc(Open)

// SendCommand implements transport.Transport. The call blocks in the kernel
// and does not observe ctx; wrap the device with transport.WithTimeout to
// bound it.
func (d *Device) SendCommand(_ context.Context, cmd transport.Command, sel int, buf []byte) error {
	c, err := buildCommand(cmd, sel)
	if err != nil {
		return transport.NewError(transport.KindRejected, cmd, err)
	}
	if c.dataIn && len(buf) < transport.BufferSize {
		return transport.NewError(transport.KindIO, cmd, fmt.Errorf("buffer smaller than %d bytes", transport.BufferSize))
	}

	cdb := c.cdb()
	sense := make([]byte, senseLength)
	hdr := sgIoHdr{
		interfaceID:    'S',
		dxferDirection: sgDxferNone,
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        uint8(len(sense)),
		cmdp:           uintptr(unsafe.Pointer(&cdb[0])),
		sbp:            uintptr(unsafe.Pointer(&sense[0])),
		timeout:        defaultTimeoutMs,
	}
	if c.dataIn {
		hdr.dxferDirection = sgDxferFromDv
		hdr.dxferLen = transport.BufferSize
		hdr.dxferp = uintptr(unsafe.Pointer(&buf[0]))
	}

	d.mu.Lock()
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), sgIO, uintptr(unsafe.Pointer(&hdr)))
	d.mu.Unlock()
	if errno != 0 {
		return transport.NewError(transport.KindIO, cmd, errno)
	}

	if hdr.hostStatus != 0 || (hdr.driverStatus&0x0f) > 0x08 {
		return transport.NewError(transport.KindIO, cmd,
			fmt.Errorf("host status 0x%02x, driver status 0x%02x", hdr.hostStatus, hdr.driverStatus))
	}
	if err := classify(cmd, hdr.status, sense[:hdr.sbLenWr], c.checkCondition); err != nil {
		log.WithFields(log.Fields{"device": d.name, "command": cmd.String()}).WithError(err).Debug("ATA pass-through failed")
		return err
	}
	if hdr.info&sgInfoOkMask != 0 && !c.checkCondition {
		return transport.NewError(transport.KindIO, cmd, fmt.Errorf("SG_IO reported status 0x%02x", hdr.status))
	}

	if cmd == transport.CmdStatusCheck {
		_, st := parseSense(sense[:hdr.sbLenWr])
		if len(buf) < 2 {
			return transport.NewError(transport.KindIO, cmd, fmt.Errorf("status buffer too small"))
		}
		buf[0], buf[1] = st.lbaMid, st.lbaHigh
	}
	return nil
}

// Close releases the handle
func (d *Device) Close() error {
	return unix.Close(d.fd)
}
