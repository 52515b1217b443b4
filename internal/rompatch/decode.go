// Package rompatch implements ROM image decoding and the fingerprint-driven
// patch engine that rewrites ROM routines to call back into the host
// through EMUL_OP escape opcodes.
package rompatch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
)

const (
	// Accepted raw image sizes; anything else must decode through a
	// wrapper format below.
	size512KiB = 512 * 1024
	size1MiB   = 1024 * 1024
	size4MiB   = 4 * 1024 * 1024

	chrpMagic = "<CHRP-BOOT>"
)

// Decode converts raw ROM file bytes (plain, CHRP-BOOT wrapped, or a
// parcels archive) into a flat 4 MiB ROM image ready for patching. A raw
// image smaller than 4 MiB is zero-padded at the high end.
func Decode(raw []byte) ([]byte, error) {
	switch {
	case len(raw) >= len(chrpMagic) && string(raw[:len(chrpMagic)]) == chrpMagic:
		return decodeCHRP(raw)
	case hasParcelsHeader(raw):
		return decodeParcels(raw)
	case len(raw) == size512KiB || len(raw) == size1MiB || len(raw) == size4MiB:
		return padToFull(raw), nil
	default:
		return nil, fmt.Errorf("rompatch: unrecognized ROM image size %d", len(raw))
	}
}

func padToFull(raw []byte) []byte {
	if len(raw) >= size4MiB {
		return raw[:size4MiB]
	}
	out := make([]byte, size4MiB)
	copy(out, raw)
	return out
}

var lzssOffsetRE = regexp.MustCompile(`constant lzss-offset[^0-9a-fA-F]*([0-9a-fA-F]{6})`)
var lzssSizeRE = regexp.MustCompile(`constant lzss-size[^0-9a-fA-F]*([0-9a-fA-F]{6})`)

// decodeCHRP parses the ASCII metadata in a CHRP-BOOT wrapper to locate the
// LZSS-compressed payload and inflate it.
func decodeCHRP(raw []byte) ([]byte, error) {
	offM := lzssOffsetRE.FindSubmatch(raw)
	sizeM := lzssSizeRE.FindSubmatch(raw)
	if offM == nil || sizeM == nil {
		return nil, fmt.Errorf("rompatch: CHRP-BOOT wrapper missing lzss-offset/lzss-size directives")
	}
	offset, err := strconv.ParseUint(string(offM[1]), 16, 32)
	if err != nil {
		return nil, fmt.Errorf("rompatch: bad lzss-offset: %w", err)
	}
	size, err := strconv.ParseUint(string(sizeM[1]), 16, 32)
	if err != nil {
		return nil, fmt.Errorf("rompatch: bad lzss-size: %w", err)
	}
	if uint64(offset) >= uint64(len(raw)) {
		return nil, fmt.Errorf("rompatch: lzss-offset %#x beyond image length %d", offset, len(raw))
	}
	dest := make([]byte, size4MiB)
	decodeLZSS(raw[offset:], dest, int(size))
	return dest, nil
}

func hasParcelsHeader(raw []byte) bool {
	const parcelsStart = 0x14
	return len(raw) > parcelsStart+4 && bytes.Equal(raw[parcelsStart:parcelsStart+4], []byte("prcl"))
}

// decodeParcels walks the forward-linked parcel chain starting at offset
// 0x14; each parcel carries a four-character type and, for type "rom ", an
// LZSS payload whose offset/size are the first two big-endian longs of the
// parcel body.
func decodeParcels(raw []byte) ([]byte, error) {
	dest := make([]byte, size4MiB)
	offset := uint32(0x14)
	for offset != 0 {
		if uint64(offset)+8 > uint64(len(raw)) {
			return nil, fmt.Errorf("rompatch: parcel chain runs past end of image at offset %#x", offset)
		}
		next := binary.BigEndian.Uint32(raw[offset:])
		parcelType := raw[offset+4 : offset+8]
		if string(parcelType) == "rom " {
			if len(raw) < int(offset)+16 {
				return nil, fmt.Errorf("rompatch: truncated rom parcel at %#x", offset)
			}
			lzssOffset := binary.BigEndian.Uint32(raw[offset+8:])
			var lzssSize uint32
			if next != 0 {
				lzssSize = (offset + lzssOffset) - next
				lzssSize = next - (offset + lzssOffset)
			} else {
				lzssSize = uint32(len(raw)) - (offset + lzssOffset)
			}
			src := raw[offset+lzssOffset:]
			decodeLZSS(src, dest, int(lzssSize))
		}
		if next == offset {
			break // malformed chain, avoid spinning forever
		}
		offset = next
	}
	return dest, nil
}

// decodeLZSS inflates a 4096-byte sliding-window LZSS stream: one control
// byte selects, bit by bit LSB-first, between a verbatim literal and a
// (index,count) back-reference into the dictionary, which is preloaded as
// all-zero with the write cursor starting at 0xfee (grounded on the
// original ROM decompressor's exact dictionary seeding).
func decodeLZSS(src []byte, dest []byte, size int) {
	var dict [0x1000]byte
	dictIdx := 0xfee
	runMask := 0
	destIdx := 0
	srcIdx := 0

	for {
		if runMask < 0x100 {
			if size--; size < 0 {
				break
			}
			if srcIdx >= len(src) {
				break
			}
			runMask = int(src[srcIdx]) | 0xff00
			srcIdx++
		}
		bit := runMask & 1
		runMask >>= 1
		if bit != 0 {
			if size--; size < 0 {
				break
			}
			if srcIdx >= len(src) || destIdx >= len(dest) {
				break
			}
			c := src[srcIdx]
			srcIdx++
			dict[dictIdx] = c
			dictIdx = (dictIdx + 1) & 0xfff
			dest[destIdx] = c
			destIdx++
		} else {
			if size--; size < 0 {
				break
			}
			if srcIdx >= len(src) {
				break
			}
			idx := int(src[srcIdx])
			srcIdx++
			if size--; size < 0 {
				break
			}
			if srcIdx >= len(src) {
				break
			}
			cntByte := int(src[srcIdx])
			srcIdx++
			idx |= (cntByte << 4) & 0xf00
			cnt := (cntByte & 0x0f) + 3
			for ; cnt > 0; cnt-- {
				if destIdx >= len(dest) {
					return
				}
				c := dict[idx]
				idx = (idx + 1) & 0xfff
				dict[dictIdx] = c
				dictIdx = (dictIdx + 1) & 0xfff
				dest[destIdx] = c
				destIdx++
			}
		}
	}
}
