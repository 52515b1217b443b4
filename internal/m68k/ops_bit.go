package m68k

func init() {
	registerBitOpsDn()
	registerBitOpsImmediate()
}

// bitOp is one of BTST/BCHG/BCLR/BSET's four actions on a single bit.
type bitOp int

const (
	bitTst bitOp = iota
	bitChg
	bitClr
	bitSet
)

// applyBitOp reads bit number n out of v (already masked to the operand's
// width), sets Z from its prior value, and returns the possibly-modified v.
func applyBitOp(c *CPU, op bitOp, v uint32, n uint32) uint32 {
	bit := (v >> n) & 1
	if bit == 0 {
		c.reg.SR |= flagZ
	} else {
		c.reg.SR &^= flagZ
	}
	switch op {
	case bitChg:
		v ^= 1 << n
	case bitClr:
		v &^= 1 << n
	case bitSet:
		v |= 1 << n
	}
	return v
}

// registerBitOpsDn installs BTST/BCHG/BCLR/BSET Dn,<ea>: bit number comes
// from a data register. Memory operands are always byte-wide (bit number
// mod 8); a Dn destination is treated as a full long (bit number mod 32).
func registerBitOpsDn() {
	specs := []struct {
		base uint16
		op   bitOp
	}{{0x0100, bitTst}, {0x0140, bitChg}, {0x0180, bitClr}, {0x01C0, bitSet}}
	for _, spec := range specs {
		for dn := uint16(0); dn < 8; dn++ {
			forEachEAPattern(func(mode, reg uint8) {
				if mode == 1 {
					return
				}
				word := spec.base | dn<<9 | uint16(mode)<<3 | uint16(reg)
				d, op := dn, spec.op
				register(word, func(c *CPU) {
					bitNum := uint32(c.reg.D[d])
					if mode == 0 {
						bitNum %= 32
						v := applyBitOp(c, op, c.reg.D[reg], bitNum)
						if op != bitTst {
							c.reg.D[reg] = v
						}
						return
					}
					bitNum %= 8
					e := c.resolveEA(mode, reg, Byte)
					v := applyBitOp(c, op, e.read(c, Byte), bitNum)
					if op != bitTst {
						e.write(c, Byte, v)
					}
				})
			})
		}
	}
}

// registerBitOpsImmediate installs BTST/BCHG/BCLR/BSET #imm,<ea>: bit number
// is a literal fetched as an extension word.
func registerBitOpsImmediate() {
	specs := []struct {
		base uint16
		op   bitOp
	}{{0x0800, bitTst}, {0x0840, bitChg}, {0x0880, bitClr}, {0x08C0, bitSet}}
	for _, spec := range specs {
		forEachEAPattern(func(mode, reg uint8) {
			if mode == 1 {
				return
			}
			word := spec.base | uint16(mode)<<3 | uint16(reg)
			op := spec.op
			register(word, func(c *CPU) {
				bitNum := uint32(c.fetchPC())
				if mode == 0 {
					bitNum %= 32
					v := applyBitOp(c, op, c.reg.D[reg], bitNum)
					if op != bitTst {
						c.reg.D[reg] = v
					}
					return
				}
				bitNum %= 8
				e := c.resolveEA(mode, reg, Byte)
				v := applyBitOp(c, op, e.read(c, Byte), bitNum)
				if op != bitTst {
					e.write(c, Byte, v)
				}
			})
		})
	}
}
