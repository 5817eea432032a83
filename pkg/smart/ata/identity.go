package ata

import (
	"encoding/binary"
	"strings"

	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

// IDENTIFY DEVICE word offsets
const (
	wordGeneralConfig   = 0
	wordSerialStart     = 10
	wordSerialEnd       = 20
	wordFirmwareStart   = 23
	wordFirmwareEnd     = 27
	wordModelStart      = 27
	wordModelEnd        = 47
	wordMajorRevision   = 80
	wordMinorRevision   = 81
	wordCommandSet1     = 82
	wordCommandSetExt   = 84
	wordCommandEnabled1 = 85
	wordCommandDefault  = 87
	wordRotationRate    = 217
	wordIntegrity       = 255
)

// Identity is the decoded IDENTIFY DEVICE page
type Identity struct {
	Model    string
	Serial   string
	Firmware string

	MajorRevision uint16
	MinorRevision uint16

	GeneralConfig   uint16
	CommandSet1     uint16
	CommandSetExt   uint16
	CommandEnabled1 uint16
	CommandDefault  uint16
	RotationRate    uint16
}

// ParseIdentity decodes an IDENTIFY DEVICE page. The checksum in word 255 is
// only verified when its signature byte is present. With the swapid fix the
// identity strings are taken without the per-word byte swap.
func ParseIdentity(b []byte, fix attrdef.FirmwareFix) (*Identity, error) {
	if len(b) != SectorSize {
		return nil, &ProtocolError{Record: "IDENTIFY DEVICE", Err: ErrShortRecord}
	}
	if b[wordIntegrity*2] == 0xA5 {
		if err := validate("IDENTIFY DEVICE", b); err != nil {
			return nil, err
		}
	}
	word := func(n int) uint16 { return binary.LittleEndian.Uint16(b[n*2:]) }
	swap := fix != attrdef.FixSwapID
	return &Identity{
		Model:           identString(b[wordModelStart*2:wordModelEnd*2], swap),
		Serial:          identString(b[wordSerialStart*2:wordSerialEnd*2], swap),
		Firmware:        identString(b[wordFirmwareStart*2:wordFirmwareEnd*2], swap),
		MajorRevision:   word(wordMajorRevision),
		MinorRevision:   word(wordMinorRevision),
		GeneralConfig:   word(wordGeneralConfig),
		CommandSet1:     word(wordCommandSet1),
		CommandSetExt:   word(wordCommandSetExt),
		CommandEnabled1: word(wordCommandEnabled1),
		CommandDefault:  word(wordCommandDefault),
		RotationRate:    word(wordRotationRate),
	}, nil
}

// identity strings are stored with the two bytes of each word swapped
func identString(b []byte, swap bool) string {
	s := make([]byte, len(b))
	copy(s, b)
	if swap {
		for i := 0; i+1 < len(s); i += 2 {
			s[i], s[i+1] = s[i+1], s[i]
		}
	}
	return strings.TrimSpace(strings.TrimRight(string(s), "\x00"))
}

// PutIdentString stores s into an identity field of n bytes
func PutIdentString(b []byte, s string) {
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}

// Marshal encodes the identity into a page
func (id *Identity) Marshal() []byte {
	b := make([]byte, SectorSize)
	put := func(n int, v uint16) { binary.LittleEndian.PutUint16(b[n*2:], v) }
	PutIdentString(b[wordSerialStart*2:wordSerialEnd*2], id.Serial)
	PutIdentString(b[wordFirmwareStart*2:wordFirmwareEnd*2], id.Firmware)
	PutIdentString(b[wordModelStart*2:wordModelEnd*2], id.Model)
	put(wordGeneralConfig, id.GeneralConfig)
	put(wordMajorRevision, id.MajorRevision)
	put(wordMinorRevision, id.MinorRevision)
	put(wordCommandSet1, id.CommandSet1)
	put(wordCommandSetExt, id.CommandSetExt)
	put(wordCommandEnabled1, id.CommandEnabled1)
	put(wordCommandDefault, id.CommandDefault)
	put(wordRotationRate, id.RotationRate)
	b[wordIntegrity*2] = 0xA5
	SetChecksum(b)
	return b
}

// IsPacketDevice reports ATAPI devices, which do not support SMART
func (id *Identity) IsPacketDevice() bool {
	return id.GeneralConfig&0x8000 != 0
}

func validWord(w uint16) bool {
	return w>>14 == 0x01
}

// SMARTSupported reports the SMART feature set bit of word 82
func (id *Identity) SMARTSupported() bool {
	if id.CommandSet1 == 0x0000 || id.CommandSet1 == 0xFFFF {
		return false
	}
	return id.CommandSet1&0x0001 != 0
}

// SMARTEnabled reports the SMART enabled bit of word 85
func (id *Identity) SMARTEnabled() bool {
	if id.CommandEnabled1 == 0x0000 || id.CommandEnabled1 == 0xFFFF {
		return false
	}
	return id.CommandEnabled1&0x0001 != 0
}

func (id *Identity) ata6or7() bool {
	return id.MajorRevision&(1<<6) != 0 || id.MajorRevision&(1<<7) != 0
}

// ErrorLogCapable reports whether the drive keeps a SMART error log
func (id *Identity) ErrorLogCapable(v *Values) bool {
	if v != nil && v.SupportsErrorLog() {
		return true
	}
	if !id.ata6or7() {
		return false
	}
	return (validWord(id.CommandSetExt) && id.CommandSetExt&0x01 != 0) ||
		(validWord(id.CommandDefault) && id.CommandDefault&0x01 != 0)
}

// SelfTestLogCapable reports whether the drive keeps a self-test log
func (id *Identity) SelfTestLogCapable(v *Values) bool {
	if v != nil && v.SupportsSelfTest() {
		return true
	}
	if !id.ata6or7() {
		return false
	}
	return (validWord(id.CommandSetExt) && id.CommandSetExt&0x02 != 0) ||
		(validWord(id.CommandDefault) && id.CommandDefault&0x02 != 0)
}

// IsSSD reports a nominal media rotation rate of "non-rotating"
func (id *Identity) IsSSD() bool {
	return id.RotationRate == 1
}

// ATAVersion returns the major ATA version of the drive
func (id *Identity) ATAVersion() (int, bool) {
	return VersionFromIdentity(id.MajorRevision, id.MinorRevision)
}
