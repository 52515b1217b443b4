package rompatch

import "encoding/binary"

// ROM header offsets, fixed since the Mac Plus (68000 ROMs place the same
// fields at the same addresses right through the 68040 "New World" ROMs
// this patcher targets).
const (
	offChecksum    = 0x00
	offVersion     = 0x08
	offResourceMap = 0x1a
	offTrapTableHi = 0x22
)

// Version identifies a known ROM revision by its 32-bit version word at
// offset 8. Patch scripts key off this rather than the whole-ROM checksum
// so a byte-identical dump under a different checksum algorithm still
// matches.
type Version struct {
	Name  string
	Major uint16
	Lo    uint16
}

// knownVersions lists the ROM revisions the patch engine recognizes.
// Unrecognized ROMs still run: Identify reports a zero Version and false,
// and the patcher applies only fingerprint-matched patches, skipping
// anything that needs a known base address.
var knownVersions = []Version{
	{Name: "Quadra 800 v77", Major: 0x77, Lo: 0x0609},
	{Name: "Quadra 650 v77", Major: 0x77, Lo: 0x0605},
	{Name: "PowerMac 9500 v77", Major: 0x77, Lo: 0x10f0},
	{Name: "IIsi v6", Major: 0x06, Lo: 0x9427},
}

// Identify reports the recognized Version for rom, or a zero Version and
// false if the version words at offset 8 don't match anything known.
func Identify(rom []byte) (Version, bool) {
	if len(rom) < offVersion+4 {
		return Version{}, false
	}
	major := binary.BigEndian.Uint16(rom[offVersion:])
	lo := binary.BigEndian.Uint16(rom[offVersion+2:])
	for _, v := range knownVersions {
		if v.Major == major && v.Lo == lo {
			return v, true
		}
	}
	return Version{}, false
}

// Checksum reproduces the ROM's self-check value: a rotate-left-by-one
// accumulate over every big-endian long word following the checksum slot
// itself. This is NOT CRC-32 — the Mac ROM's own checksum routine, and the
// routine patched ROM slot images reuse for their own trailer, are both
// this simpler rotate-and-add form.
func Checksum(rom []byte) uint32 {
	var sum uint32
	for i := 4; i+4 <= len(rom); i += 4 {
		sum = (sum << 1) | (sum >> 31)
		sum += binary.BigEndian.Uint32(rom[i:])
	}
	return sum
}
