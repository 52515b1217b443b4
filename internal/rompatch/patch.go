package rompatch

import (
	"encoding/binary"
	"fmt"
)

// Patch describes one fingerprint-driven rewrite: find the first match
// against pattern (a byte/wildcard template) within rom and overwrite it
// with replace at the same offset. A nil byte in mask means "don't care",
// letting a single pattern match a routine whose embedded displacements or
// register numbers vary across ROM revisions.
type Patch struct {
	Name    string
	Pattern []byte
	Mask    []byte // len(Mask)==len(Pattern); mask[i]==0 means wildcard byte i
	Replace []byte
}

// escapeMarker is 0x7100-0x713F's fixed top byte, which EmulOpWord combines
// with an ordinal. Apply does not check that a patch's Replace holds an
// escape; it writes whatever bytes Replace contains.
const escapeMarker = 0x71

// Script is an ordered list of patches to try against a ROM image. Patches
// are independent; a later one running after an earlier one's rewrite is
// intentional; some ROM routines are chained rewrites (patch the call site,
// then patch the callee the new call site jumps to).
type Script []Patch

// Apply runs every patch in s against rom in place, returning the names of
// patches that matched and were applied. A patch whose pattern does not
// appear is simply skipped — not every patch in a script applies to every
// ROM revision.
func Apply(rom []byte, s Script) []string {
	var applied []string
	for _, p := range s {
		if p.apply(rom) {
			applied = append(applied, p.Name)
		}
	}
	return applied
}

func (p Patch) apply(rom []byte) bool {
	if len(p.Pattern) == 0 || len(p.Pattern) != len(p.Replace) {
		return false
	}
	off := p.find(rom)
	if off < 0 {
		return false
	}
	copy(rom[off:off+len(p.Replace)], p.Replace)
	return true
}

func (p Patch) find(rom []byte) int {
	n := len(p.Pattern)
	for off := 0; off+n <= len(rom); off++ {
		if p.matchesAt(rom, off) {
			return off
		}
	}
	return -1
}

func (p Patch) matchesAt(rom []byte, off int) bool {
	for i, want := range p.Pattern {
		if p.Mask != nil && i < len(p.Mask) && p.Mask[i] == 0 {
			continue
		}
		if rom[off+i] != want {
			return false
		}
	}
	return true
}

// EmulOpWord encodes one EMUL_OP escape opcode word for ordinal. The 68020
// decoder treats 0x7100-0x713F as MOVEQ with an invalid (non-zero top
// nibble) form; real hardware would fault, but this patcher's target is
// always a Go interpreter whose decode table routes the whole 0x71xx range
// to the trap dispatcher instead, so the collision is never live.
func EmulOpWord(ordinal byte) uint16 {
	return uint16(escapeMarker)<<8 | uint16(ordinal)
}

// PutEmulOp writes a single EMUL_OP escape word (and nothing else) at addr,
// the common case for a patch that redirects one call site to a host
// routine and trusts the original RTS/RTE that follows.
func PutEmulOp(rom []byte, addr uint32, ordinal byte) error {
	if uint64(addr)+2 > uint64(len(rom)) {
		return fmt.Errorf("rompatch: PutEmulOp address %#x out of range", addr)
	}
	binary.BigEndian.PutUint16(rom[addr:], EmulOpWord(ordinal))
	return nil
}

// FindLiteral is a convenience Patch constructor for fixed-byte, no-wildcard
// replacement — the common "find this literal instruction sequence, replace
// with an EMUL_OP + RTS" case.
func FindLiteral(name string, find, replace []byte) Patch {
	return Patch{Name: name, Pattern: find, Replace: replace}
}

