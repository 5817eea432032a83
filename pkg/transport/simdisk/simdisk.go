// Package simdisk implements an in-memory ATA device for exercising the
// monitor without hardware.
package simdisk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hwameistor/diskhealth/pkg/smart/ata"
	"github.com/hwameistor/diskhealth/pkg/transport"
)

// Issued records one command received by the disk
type Issued struct {
	Command transport.Command
	Select  int
}

// Disk is a simulated SMART capable drive. Its exported fields may be
// changed between monitoring cycles.
type Disk struct {
	mu sync.Mutex

	Identity    *ata.Identity
	Values      *ata.Values
	Thresholds  *ata.Thresholds
	ErrorLog    *ata.ErrorLog
	SelfTestLog *ata.SelfTestLog

	// Failing makes CmdStatusCheck report a threshold exceeded condition
	Failing bool
	// Rejected commands fail with a capability error
	Rejected map[transport.Command]bool
	// Broken commands fail with an I/O error
	Broken map[transport.Command]bool
	// Corrupt commands return a record with a bad checksum
	Corrupt map[transport.Command]bool
	// Delay blocks every command until it elapses or the context ends
	Delay time.Duration

	issued []Issued
	closed bool
}

// New returns a healthy drive supporting every self-test type
func New(model, serial, firmware string) *Disk {
	return &Disk{
		Identity: &ata.Identity{
			Model:           model,
			Serial:          serial,
			Firmware:        firmware,
			MajorRevision:   0x01f0,
			MinorRevision:   0x0029,
			CommandSet1:     0x7469,
			CommandSetExt:   0x4163,
			CommandEnabled1: 0x3469,
			CommandDefault:  0x4163,
			RotationRate:    7200,
		},
		Values: &ata.Values{
			Revision:            16,
			OfflineCapability:   0x7b,
			SmartCapability:     0x0003,
			ErrorLogCapability:  0x01,
			ShortTestMinutes:    1,
			ExtendedTestMinutes: 120,
		},
		Thresholds:  &ata.Thresholds{Revision: 16},
		ErrorLog:    &ata.ErrorLog{Revision: 1},
		SelfTestLog: &ata.SelfTestLog{Revision: 1},
		Rejected:    map[transport.Command]bool{},
		Broken:      map[transport.Command]bool{},
		Corrupt:     map[transport.Command]bool{},
	}
}

// SetAttribute stores an attribute and its threshold in slot
func (d *Disk) SetAttribute(slot int, attr ata.Attribute, threshold uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Values.Attributes[slot] = attr
	d.Thresholds.Thresholds[slot] = ata.Threshold{ID: attr.ID, Threshold: threshold}
}

// SetRaw sets the raw counter of the attribute with the given id
func (d *Disk) SetRaw(id uint8, raw uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.Values.Find(id)
	if i < 0 {
		return
	}
	for b := 0; b < 6; b++ {
		d.Values.Attributes[i].Raw[b] = byte(raw >> (8 * uint(b)))
	}
}

// SetCurrent sets the normalized value of the attribute with the given id
func (d *Disk) SetCurrent(id uint8, current uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.Values.Find(id); i >= 0 {
		d.Values.Attributes[i].Current = current
		if current < d.Values.Attributes[i].Worst {
			d.Values.Attributes[i].Worst = current
		}
	}
}

// Issued returns the commands received so far
func (d *Disk) Issued() []Issued {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Issued, len(d.issued))
	copy(out, d.issued)
	return out
}

// SelfTests returns the select values of every started self-test
func (d *Disk) SelfTests() []int {
	var tests []int
	for _, c := range d.Issued() {
		if c.Command == transport.CmdStartSelfTest {
			tests = append(tests, c.Select)
		}
	}
	return tests
}

// Closed reports whether Close was called
func (d *Disk) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// SendCommand implements transport.Transport
func (d *Disk) SendCommand(ctx context.Context, cmd transport.Command, sel int, buf []byte) error {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return transport.NewError(transport.KindTimeout, cmd, ctx.Err())
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.issued = append(d.issued, Issued{Command: cmd, Select: sel})
	if d.closed {
		return transport.NewError(transport.KindIO, cmd, errors.New("device closed"))
	}
	if d.Broken[cmd] {
		return transport.NewError(transport.KindIO, cmd, errors.New("simulated I/O error"))
	}
	if d.Rejected[cmd] {
		return transport.NewError(transport.KindRejected, cmd, nil)
	}
	if cmd.TransfersData() && len(buf) < transport.BufferSize {
		return transport.NewError(transport.KindIO, cmd, errors.New("buffer too small"))
	}

	var page []byte
	switch cmd {
	case transport.CmdIdentify:
		page = d.Identity.Marshal()
	case transport.CmdReadValues:
		page = d.Values.Marshal()
	case transport.CmdReadThresholds:
		page = d.Thresholds.Marshal()
	case transport.CmdReadErrorLog:
		page = d.ErrorLog.Marshal()
	case transport.CmdReadSelfTestLog:
		page = d.SelfTestLog.Marshal()
	case transport.CmdStatusCheck:
		if len(buf) < 2 {
			return transport.NewError(transport.KindIO, cmd, errors.New("buffer too small"))
		}
		if d.Failing {
			buf[0], buf[1] = transport.StatusMidFailed, transport.StatusHighFailed
		} else {
			buf[0], buf[1] = transport.StatusMidOK, transport.StatusHighOK
		}
	case transport.CmdEnableSMART:
		d.Identity.CommandEnabled1 |= 0x0001
	case transport.CmdDisableSMART:
		d.Identity.CommandEnabled1 &^= 0x0001
	case transport.CmdStartSelfTest:
		if sel != transport.SelectOfflineImmediate {
			d.Values.SelfTestExecStatus = 0xF9
		}
	case transport.CmdAbortSelfTest:
		d.Values.SelfTestExecStatus = 0x10
	}
	if page != nil {
		if d.Corrupt[cmd] {
			page[0]++
		}
		copy(buf, page)
	}
	return nil
}

// FinishSelfTest marks the running self-test complete and logs it
func (d *Disk) FinishSelfTest(testNumber uint8, status ata.SelfTestStatus, hours uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Values.SelfTestExecStatus = uint8(status) << 4
	d.appendSelfTest(testNumber, status, hours)
}

// AppendSelfTest adds an entry to the self-test log
func (d *Disk) AppendSelfTest(testNumber uint8, status ata.SelfTestStatus, hours uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendSelfTest(testNumber, status, hours)
}

func (d *Disk) appendSelfTest(testNumber uint8, status ata.SelfTestStatus, hours uint16) {
	l := d.SelfTestLog
	next := int(l.MostRecent) % ata.SelfTestLogEntries
	l.Entries[next] = ata.SelfTestEntry{TestNumber: testNumber, Status: uint8(status) << 4, Hours: hours}
	l.MostRecent = uint8(next + 1)
}

// Close implements transport.Transport
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var _ transport.Transport = &Disk{}
