package ata

// major version for each minor revision code of word 81,
// 0 marks reserved codes
var minorRevisionVersion = map[uint16]int{
	0x0001: 1, 0x0002: 1, 0x0003: 1,
	0x0004: 2, 0x0005: 2, 0x0006: 3, 0x0007: 2,
	0x0008: 3, 0x0009: 2, 0x000a: 3, 0x000b: 3, 0x000c: 3,
	0x000d: 4, 0x000e: 4, 0x000f: 4, 0x0010: 4, 0x0011: 4, 0x0012: 4,
	0x0013: 5, 0x0014: 4, 0x0015: 5, 0x0016: 5, 0x0017: 4,
	0x0018: 6, 0x0019: 6, 0x001a: 7, 0x001b: 6, 0x001c: 6,
	0x001d: 7, 0x001e: 7, 0x001f: 0, 0x0020: 0, 0x0021: 7, 0x0022: 6,
	// ATA8-ACS
	0x0027: 8, 0x0028: 8, 0x0029: 8, 0x0033: 8, 0x0039: 8,
	0x0042: 8, 0x0052: 8, 0x0107: 8,
	// ACS-2
	0x0031: 9, 0x0082: 9, 0x0110: 9,
	// ACS-3
	0x006d: 10, 0x010a: 10, 0x011b: 10,
	// ACS-4
	0x005e: 11,
}

// VersionFromIdentity derives the major ATA version from words 80 and 81 of
// IDENTIFY DEVICE. An all-zero or all-one major word carries no information.
// A known minor revision code takes precedence over the highest bit set in
// bits 1-15 of the major word.
func VersionFromIdentity(major, minor uint16) (int, bool) {
	if major == 0x0000 || major == 0xFFFF {
		return 0, false
	}
	if v, ok := minorRevisionVersion[minor]; ok && v != 0 {
		return v, true
	}
	for bit := 15; bit >= 1; bit-- {
		if major&(1<<uint(bit)) != 0 {
			return bit, true
		}
	}
	return 0, false
}
