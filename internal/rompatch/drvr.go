package rompatch

import "encoding/binary"

// Driver flag bits used in the DRVR header's drvrFlags word (Inside
// Macintosh: Devices, "Driver Header"); only the subset the patched ROM
// drivers actually set is named here.
const (
	drvrFlagRead       = 1 << 8
	drvrFlagWrite      = 1 << 9
	drvrFlagControl    = 1 << 10
	drvrFlagStatus     = 1 << 11
	drvrFlagNeedGoodbye = 1 << 13
	drvrFlagNeedTime   = 1 << 14
	drvrFlagNeedLock   = 1 << 15
)

// DriverDescriptor is the minimal DRVR resource shape the ROM's unit table
// needs: a header naming its four entry points (as escape ordinals encoded
// into EMUL_OP stubs) and a one-line display name used by Get/SetDrvrName.
type DriverDescriptor struct {
	Name          string
	OpenOrdinal   byte
	PrimeOrdinal  byte
	ControlOrdinal byte
	StatusOrdinal byte
	Flags         uint16
}

// Build lays out d as a DRVR resource: the fixed header, four jump-table
// entries pointing at fixed offsets right after the header, and each entry
// point compiled as EMUL_OP + RTS, followed by the Pascal-string name Inside
// Macintosh's driver loader expects immediately after the jump table.
func (d DriverDescriptor) Build() []byte {
	const headerLen = 18
	const entryLen = 4 // EMUL_OP word + RTS word, per entry

	buf := make([]byte, headerLen+4*entryLen)
	binary.BigEndian.PutUint16(buf[0:], d.Flags)
	// drvrDelay and drvrEMask (offsets 2 and 4) are left zero; this layout has
	// no drvrMenu word, so the entry offsets start at 6.
	binary.BigEndian.PutUint16(buf[6:], uint16(headerLen+0*entryLen)) // drvrOpen
	binary.BigEndian.PutUint16(buf[8:], uint16(headerLen+1*entryLen)) // drvrPrime
	binary.BigEndian.PutUint16(buf[10:], uint16(headerLen+2*entryLen)) // drvrCtl
	binary.BigEndian.PutUint16(buf[12:], uint16(headerLen+3*entryLen)) // drvrStatus
	binary.BigEndian.PutUint16(buf[14:], uint16(headerLen+4*entryLen)) // drvrClose (unused; points just past the four entries, where the name starts)
	buf[16] = 0 // stays zero; the name is appended after the entries

	ordinals := []byte{d.OpenOrdinal, d.PrimeOrdinal, d.ControlOrdinal, d.StatusOrdinal}
	for i, ord := range ordinals {
		off := headerLen + i*entryLen
		binary.BigEndian.PutUint16(buf[off:], EmulOpWord(ord))
		binary.BigEndian.PutUint16(buf[off+2:], 0x4e75) // RTS
	}

	name := pascalString(d.Name)
	return append(buf, name...)
}

// pascalString encodes s as a length-prefixed Pascal string, truncating to
// 255 bytes (the Str255 limit every Mac OS resource convention assumes).
func pascalString(s string) []byte {
	if len(s) > 255 {
		s = s[:255]
	}
	return append([]byte{byte(len(s))}, []byte(s)...)
}
