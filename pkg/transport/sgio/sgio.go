// Package sgio issues ATA commands through the SCSI generic driver using
// ATA PASS-THROUGH(16), as implemented by libata and most SAT bridges.
package sgio

import (
	"fmt"

	"github.com/hwameistor/diskhealth/pkg/transport"
)

// device types accepted by Open
const (
	TypeSAT = "sat"
	TypeATA = "ata"
)

// ATA command and SMART feature codes
const (
	ataIdentifyDevice = 0xEC
	ataSMART          = 0xB0

	smartReadData          = 0xD0
	smartReadThresholds    = 0xD1
	smartAutosave          = 0xD2
	smartExecOfflineImm    = 0xD4
	smartReadLog           = 0xD5
	smartEnableOperations  = 0xD8
	smartDisableOperations = 0xD9
	smartReturnStatus      = 0xDA
	smartAutoOffline       = 0xDB

	smartLBAMid  = 0x4F
	smartLBAHigh = 0xC2

	logSummaryError = 0x01
	logSelfTest     = 0x06
)

// ATA PASS-THROUGH(16) protocols
const (
	protoNonData   = 3
	protoPIODataIn = 4
)

// ataCommand is the register image of one ATA command
type ataCommand struct {
	command  uint8
	features uint8
	count    uint8
	lbaLow   uint8
	lbaMid   uint8
	lbaHigh  uint8
	dataIn   bool
	// checkCondition asks the device to return the output registers
	checkCondition bool
}

func smartCommand(features, count, lbaLow uint8, dataIn bool) ataCommand {
	return ataCommand{
		command:  ataSMART,
		features: features,
		count:    count,
		lbaLow:   lbaLow,
		lbaMid:   smartLBAMid,
		lbaHigh:  smartLBAHigh,
		dataIn:   dataIn,
	}
}

// buildCommand maps a transport command to its ATA registers
func buildCommand(cmd transport.Command, sel int) (ataCommand, error) {
	switch cmd {
	case transport.CmdIdentify:
		return ataCommand{command: ataIdentifyDevice, count: 1, dataIn: true}, nil
	case transport.CmdReadValues:
		return smartCommand(smartReadData, 1, 0, true), nil
	case transport.CmdReadThresholds:
		return smartCommand(smartReadThresholds, 1, 1, true), nil
	case transport.CmdReadErrorLog:
		return smartCommand(smartReadLog, 1, logSummaryError, true), nil
	case transport.CmdReadSelfTestLog:
		return smartCommand(smartReadLog, 1, logSelfTest, true), nil
	case transport.CmdEnableSMART:
		return smartCommand(smartEnableOperations, 0, 0, false), nil
	case transport.CmdDisableSMART:
		return smartCommand(smartDisableOperations, 0, 0, false), nil
	case transport.CmdEnableAutosave:
		return smartCommand(smartAutosave, 0xF1, 0, false), nil
	case transport.CmdDisableAutosave:
		return smartCommand(smartAutosave, 0x00, 0, false), nil
	case transport.CmdEnableAutoOffline:
		return smartCommand(smartAutoOffline, 0xF8, 0, false), nil
	case transport.CmdDisableAutoOffline:
		return smartCommand(smartAutoOffline, 0x00, 0, false), nil
	case transport.CmdStartSelfTest:
		if sel < 0 || sel > 0xFF {
			return ataCommand{}, fmt.Errorf("invalid self-test subcommand %d", sel)
		}
		return smartCommand(smartExecOfflineImm, 0, uint8(sel), false), nil
	case transport.CmdAbortSelfTest:
		return smartCommand(smartExecOfflineImm, 0, transport.SelectAbortSelfTest, false), nil
	case transport.CmdStatusCheck:
		c := smartCommand(smartReturnStatus, 0, 0, false)
		c.checkCondition = true
		return c, nil
	}
	return ataCommand{}, fmt.Errorf("unsupported command %s", cmd)
}

// cdb encodes the command as an ATA PASS-THROUGH(16) CDB
func (c ataCommand) cdb() [16]byte {
	var cdb [16]byte
	cdb[0] = 0x85
	if c.dataIn {
		cdb[1] = protoPIODataIn << 1
		// T_DIR from device, BYT_BLOK, T_LENGTH in sector count
		cdb[2] = 0x0e
	} else {
		cdb[1] = protoNonData << 1
	}
	if c.checkCondition {
		cdb[2] |= 0x20
	}
	cdb[4] = c.features
	cdb[6] = c.count
	cdb[8] = c.lbaLow
	cdb[10] = c.lbaMid
	cdb[12] = c.lbaHigh
	cdb[14] = c.command
	return cdb
}

// sense keys
const (
	senseRecoveredError = 0x01
	senseIllegalRequest = 0x05
	senseAbortedCommand = 0x0B
)

// ataStatus is the ATA Status Return sense descriptor
type ataStatus struct {
	errorReg uint8
	lbaMid   uint8
	lbaHigh  uint8
	status   uint8
}

// parseSense returns the sense key and, when present, the ATA status
// descriptor of descriptor-format sense data
func parseSense(sense []byte) (key uint8, st *ataStatus) {
	if len(sense) < 8 {
		return 0, nil
	}
	switch sense[0] & 0x7f {
	case 0x70, 0x71:
		return sense[2] & 0x0f, nil
	case 0x72, 0x73:
		key = sense[1] & 0x0f
	default:
		return 0, nil
	}
	addl := int(sense[7])
	for off := 8; off+1 < len(sense) && off < 8+addl; {
		dlen := int(sense[off+1]) + 2
		if sense[off] == 0x09 && dlen >= 14 && off+14 <= len(sense) {
			d := sense[off:]
			st = &ataStatus{errorReg: d[3], lbaMid: d[9], lbaHigh: d[11], status: d[13]}
			break
		}
		off += dlen
	}
	return key, st
}

// classify turns the outcome of a command into a transport error, or nil
func classify(cmd transport.Command, scsiStatus uint8, sense []byte, expectRegisters bool) error {
	key, st := parseSense(sense)
	if st != nil && st.status&0x01 != 0 && st.errorReg&0x04 != 0 {
		return transport.NewError(transport.KindRejected, cmd, fmt.Errorf("command aborted by device"))
	}
	switch key {
	case senseIllegalRequest:
		return transport.NewError(transport.KindRejected, cmd, fmt.Errorf("illegal request"))
	case senseAbortedCommand:
		if st == nil {
			return transport.NewError(transport.KindRejected, cmd, fmt.Errorf("command aborted"))
		}
	case 0, senseRecoveredError:
	default:
		return transport.NewError(transport.KindIO, cmd, fmt.Errorf("sense key 0x%x", key))
	}
	if expectRegisters && st == nil {
		return transport.NewError(transport.KindIO, cmd, fmt.Errorf("no ATA status returned"))
	}
	// CHECK CONDITION is expected when the registers were requested
	if scsiStatus != 0 && scsiStatus != 0x02 {
		return transport.NewError(transport.KindIO, cmd, fmt.Errorf("SCSI status 0x%02x", scsiStatus))
	}
	return nil
}
