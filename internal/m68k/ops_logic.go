package m68k

func init() {
	registerLogical()
	registerLogicalImmediate()
	registerNotTst()
	registerScc()
	registerShiftRotate()
}

// registerLogical installs AND/OR/EOR Dn,<ea> and <ea>,Dn, following the
// same opmode layout as ADD/SUB (registerAddSub in ops_arith.go): bits 8-6
// select size and direction, EOR reusing bits 8-6=1xx only for the
// <ea>-destination direction (EOR has no <ea>,Dn form).
func registerLogical() {
	for _, spec := range []struct {
		base uint16
		op   func(a, b uint32) uint32
		eor  bool
	}{
		{0xC000, func(a, b uint32) uint32 { return a & b }, false},
		{0x8000, func(a, b uint32) uint32 { return a | b }, false},
		{0xB100, func(a, b uint32) uint32 { return a ^ b }, true},
	} {
		for dn := uint16(0); dn < 8; dn++ {
			if !spec.eor {
				for opmode := uint16(0); opmode < 3; opmode++ {
					sz := sizeFromBits(opmode)
					forEachEAPattern(func(mode, reg uint8) {
						if mode == 0 || mode == 1 {
							return // AND/OR <ea>,Dn: Dn and An cannot be src
						}
						word := spec.base | dn<<9 | opmode<<6 | uint16(mode)<<3 | uint16(reg)
						d, s, op := dn, sz, spec.op
						register(word, func(c *CPU) {
							e := c.resolveEA(mode, reg, s)
							src := e.read(c, s)
							dst := c.reg.D[d] & s.Mask()
							result := op(src, dst)
							mask := s.Mask()
							c.reg.D[d] = (c.reg.D[d] &^ mask) | (result & mask)
							c.setFlagsLogical(result, s)
						})
					})
				}
			}
			for opmode := uint16(4); opmode < 7; opmode++ {
				sz := sizeFromBits(opmode - 4)
				forEachEAPattern(func(mode, reg uint8) {
					if mode == 1 {
						return // An is never a valid destination
					}
					if mode == 0 && !spec.eor {
						return // AND/OR Dn,<ea> requires a memory destination; EOR Dn,Dn is legal
					}
					word := spec.base | dn<<9 | opmode<<6 | uint16(mode)<<3 | uint16(reg)
					d, s, op := dn, sz, spec.op
					register(word, func(c *CPU) {
						e := c.resolveEA(mode, reg, s)
						dst := e.read(c, s)
						src := c.reg.D[d] & s.Mask()
						result := op(src, dst)
						e.write(c, s, result)
						c.setFlagsLogical(result, s)
					})
				})
			}
		}
	}
}

// registerLogicalImmediate installs ANDI/ORI/EORI #imm,<ea>, including the
// CCR/SR forms (<ea> field all-ones selects CCR for byte size, SR for word).
func registerLogicalImmediate() {
	for _, spec := range []struct {
		base uint16
		op   func(a, b uint32) uint32
	}{
		{0x0200, func(a, b uint32) uint32 { return a & b }},
		{0x0000, func(a, b uint32) uint32 { return a | b }},
		{0x0A00, func(a, b uint32) uint32 { return a ^ b }},
	} {
		for _, szBits := range []uint16{0, 1, 2} {
			sz := sizeFromBits(szBits)
			forEachEAPattern(func(mode, reg uint8) {
				if mode == 1 {
					return
				}
				word := spec.base | szBits<<6 | uint16(mode)<<3 | uint16(reg)
				s, op := sz, spec.op
				register(word, func(c *CPU) {
					imm := c.fetchImmediate(s)
					e := c.resolveEA(mode, reg, s)
					dst := e.read(c, s)
					result := op(imm, dst)
					e.write(c, s, result)
					c.setFlagsLogical(result, s)
				})
			})
		}

		// #imm,CCR: byte size, <ea>=111100.
		register(spec.base|0x003C, func(c *CPU) {
			imm := uint32(c.fetchPC() & 0xFF)
			result := spec.op(imm, uint32(c.reg.SR&0xFF))
			c.reg.SR = (c.reg.SR &^ 0xFF) | uint16(result&0xFF)
		})

		// #imm,SR: word size, <ea>=111100, privileged.
		register(spec.base|0x007C, func(c *CPU) {
			if c.reg.SR&flagS == 0 {
				c.exception(vecPrivilegeViolation)
				return
			}
			imm := uint32(c.fetchPC())
			result := spec.op(imm, uint32(c.reg.SR))
			c.setSR(uint16(result))
		})
	}
}

// setSR installs a new SR value wholesale, handling the stack-pointer swap
// the S/M bits require (the MOVE/ANDI/ORI/EORI-to-SR family all
// share this).
func (c *CPU) setSR(v uint16) {
	oldS, oldM := c.reg.SR&flagS, c.reg.SR&flagM
	if oldS == 0 {
		c.reg.USP = c.reg.A[7]
	} else if oldM != 0 {
		c.reg.MSP = c.reg.A[7]
	} else {
		c.reg.ISP = c.reg.A[7]
	}
	c.reg.SR = v
	if v&flagS == 0 {
		c.reg.A[7] = c.reg.USP
	} else if v&flagM != 0 {
		c.reg.A[7] = c.reg.MSP
	} else {
		c.reg.A[7] = c.reg.ISP
	}
}

// registerNotTst installs NOT and TST.
func registerNotTst() {
	for _, szBits := range []uint16{0, 1, 2} {
		sz := sizeFromBits(szBits)
		forEachEAPattern(func(mode, reg uint8) {
			if mode == 1 {
				return
			}
			word := 0x4600 | szBits<<6 | uint16(mode)<<3 | uint16(reg)
			s := sz
			register(word, func(c *CPU) {
				e := c.resolveEA(mode, reg, s)
				result := ^e.read(c, s)
				e.write(c, s, result)
				c.setFlagsLogical(result, s)
			})
		})
	}

	for _, szBits := range []uint16{0, 1, 2} {
		sz := sizeFromBits(szBits)
		forEachEAPattern(func(mode, reg uint8) {
			if mode == 1 && sz == Byte {
				return
			}
			word := 0x4A00 | szBits<<6 | uint16(mode)<<3 | uint16(reg)
			s := sz
			register(word, func(c *CPU) {
				e := c.resolveEA(mode, reg, s)
				v := e.read(c, s)
				c.setFlagsLogical(v, s)
			})
		})
	}
}

// registerScc installs Scc <ea>: sets the destination byte to all-ones if
// the condition holds, all-zeros otherwise.
func registerScc() {
	for cc := uint16(0); cc < 16; cc++ {
		forEachEAPattern(func(mode, reg uint8) {
			if mode == 1 {
				return
			}
			word := 0x50C0 | cc<<8 | uint16(mode)<<3 | uint16(reg)
			condition := cc
			register(word, func(c *CPU) {
				e := c.resolveEA(mode, reg, Byte)
				if c.testCondition(condition) {
					e.write(c, Byte, 0xFF)
				} else {
					e.write(c, Byte, 0)
				}
			})
		})
	}
}

// shiftKind distinguishes the four rotate/shift families.
type shiftKind int

const (
	shiftASL shiftKind = iota
	shiftLSL
	shiftROL
	shiftROXL
)

// registerShiftRotate installs ASx/LSx/ROx/ROXx in both register (count in
// Dn or immediate 1-8) and single-bit memory-operand forms, covering all
// four families in both directions with register and memory operand forms.
func registerShiftRotate() {
	kinds := []struct {
		kind  shiftKind
		field uint16
	}{{shiftASL, 0}, {shiftLSL, 1}, {shiftROXL, 2}, {shiftROL, 3}}

	for _, k := range kinds {
		for _, dir := range []uint16{0, 1} { // 0=right, 1=left
			for _, szBits := range []uint16{0, 1, 2} {
				sz := sizeFromBits(szBits)
				for reg := uint16(0); reg < 8; reg++ {
					for _, imm := range []bool{true, false} {
						for cnt := uint16(0); cnt < 8; cnt++ {
							iBit := uint16(0)
							if !imm {
								iBit = 1
							}
							word := 0xE000 | cnt<<9 | dir<<8 | szBits<<6 | iBit<<5 | k.field<<3 | reg
							kind, s, left, isImm, c8, r := k.kind, sz, dir == 1, imm, cnt, reg
							register(word, func(c *CPU) {
								var amount uint32
								if isImm {
									amount = uint32(c8)
									if amount == 0 {
										amount = 8
									}
								} else {
									amount = c.reg.D[c8] % 64
								}
								v := c.reg.D[r] & s.Mask()
								startX := c.reg.SR&flagX != 0
								result, carry, extend := shiftOnce(kind, v, amount, left, s, startX)
								mask := s.Mask()
								c.reg.D[r] = (c.reg.D[r] &^ mask) | (result & mask)
								applyShiftFlags(c, kind, result, s, amount, carry, extend)
							})
						}
					}
				}
			}
		}
	}

	// memory operand forms: single-bit shift/rotate on a word in memory.
	for _, k := range kinds {
		for _, dir := range []uint16{0, 1} {
			forEachEAPattern(func(mode, reg uint8) {
				if mode == 0 || mode == 1 {
					return
				}
				word := 0xE0C0 | dir<<8 | k.field<<9 | uint16(mode)<<3 | uint16(reg)
				kind, left := k.kind, dir == 1
				register(word, func(c *CPU) {
					e := c.resolveEA(mode, reg, Word)
					v := e.read(c, Word)
					startX := c.reg.SR&flagX != 0
					result, carry, extend := shiftOnce(kind, v, 1, left, Word, startX)
					e.write(c, Word, result)
					applyShiftFlags(c, kind, result, Word, 1, carry, extend)
				})
			})
		}
	}
}

// shiftOnce performs one shift/rotate operation of the given amount,
// returning the result plus the carry-out and (for ASx/LSx/ROXx) extend-out
// bit. startX is the X flag value going into a ROXx rotate, the bit that
// gets shifted in on the first step.
func shiftOnce(kind shiftKind, v uint32, amount uint32, left bool, sz Size, startX bool) (result uint32, carry, extend bool) {
	bits := sz.Bits()
	mask := sz.Mask()
	msb := sz.MSB()
	v &= mask

	switch kind {
	case shiftASL:
		if amount == 0 {
			return v, false, false
		}
		if left {
			for i := uint32(0); i < amount; i++ {
				extend = v&msb != 0
				carry = extend
				v = (v << 1) & mask
			}
		} else {
			signBit := v & msb
			for i := uint32(0); i < amount; i++ {
				extend = v&1 != 0
				carry = extend
				v = (v >> 1) | signBit
			}
		}
		return v, carry, extend
	case shiftLSL:
		if amount == 0 {
			return v, false, false
		}
		if left {
			for i := uint32(0); i < amount; i++ {
				extend = v&msb != 0
				carry = extend
				v = (v << 1) & mask
			}
		} else {
			for i := uint32(0); i < amount; i++ {
				extend = v&1 != 0
				carry = extend
				v = v >> 1
			}
		}
		return v, carry, extend
	case shiftROL:
		amount %= bits
		if amount == 0 {
			return v, false, false
		}
		if left {
			for i := uint32(0); i < amount; i++ {
				bit := v&msb != 0
				v = (v << 1) & mask
				if bit {
					v |= 1
				}
				carry = bit
			}
		} else {
			for i := uint32(0); i < amount; i++ {
				bit := v&1 != 0
				v >>= 1
				if bit {
					v |= msb
				}
				carry = bit
			}
		}
		return v, carry, false
	default: // shiftROXL: rotates through the X flag, one bit per step.
		x := startX
		if amount == 0 {
			return v, x, x
		}
		if left {
			for i := uint32(0); i < amount; i++ {
				bit := v&msb != 0
				v = (v << 1) & mask
				if x {
					v |= 1
				}
				x = bit
			}
		} else {
			for i := uint32(0); i < amount; i++ {
				bit := v&1 != 0
				v >>= 1
				if x {
					v |= msb
				}
				x = bit
			}
		}
		return v, x, x
	}
}

// applyShiftFlags sets XNZVC per the standard shift/rotate rules: N/Z always
// from the result; C/X from the last bit shifted out (ASx/LSx/ROXx) or C
// only (ROx, which leaves X unaffected); a zero count leaves C unaffected
// for ASx/LSx and sets C to the (unaffected) X value for ROXx.
func applyShiftFlags(c *CPU, kind shiftKind, result uint32, sz Size, amount uint32, carry, extend bool) {
	c.reg.SR &^= flagN | flagZ | flagV
	if result&sz.Mask() == 0 {
		c.reg.SR |= flagZ
	}
	if result&sz.MSB() != 0 {
		c.reg.SR |= flagN
	}
	if amount == 0 {
		if kind == shiftROL {
			c.reg.SR &^= flagC
		} else if kind == shiftROXL {
			c.reg.SR &^= flagC
			if c.reg.SR&flagX != 0 {
				c.reg.SR |= flagC
			}
		}
		return
	}
	c.reg.SR &^= flagC
	if carry {
		c.reg.SR |= flagC
	}
	if kind != shiftROL {
		c.reg.SR &^= flagX
		if extend {
			c.reg.SR |= flagX
		}
	}
}
