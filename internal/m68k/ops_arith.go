package m68k

func init() {
	registerAddSub()
	registerAddaSuba()
	registerAddiSubi()
	registerAddqSubq()
	registerCmp()
	registerNeg()
	registerMul()
	registerDivWord()
	registerDivLong()
	registerChk()
}

// registerAddSub installs ADD/SUB Dn,<ea> and <ea>,Dn: 1101/1001 rrr opmode
// mmm xxx where opmode bits 8-6 select size and direction (0-2: <ea>+Dn->Dn
// byte/word/long; 4-6: Dn+<ea>-><ea> byte/word/long).
func registerAddSub() {
	for _, spec := range []struct {
		base uint16
		sub  bool
	}{{0xD000, false}, {0x9000, true}} {
		for dn := uint16(0); dn < 8; dn++ {
			for opmode := uint16(0); opmode < 3; opmode++ {
				sz := sizeFromBits(opmode)
				forEachEAPattern(func(mode, reg uint8) {
					if mode == 1 && sz == Byte {
						return
					}
					word := spec.base | dn<<9 | opmode<<6 | uint16(mode)<<3 | uint16(reg)
					d, s, sub := dn, sz, spec.sub
					register(word, func(c *CPU) {
						e := c.resolveEA(mode, reg, s)
						src := e.read(c, s)
						dst := c.reg.D[d] & s.Mask()
						var result uint32
						if sub {
							result = dst - src
							c.setFlagsSub(src, dst, result, s)
						} else {
							result = dst + src
							c.setFlagsAdd(src, dst, result, s)
						}
						mask := s.Mask()
						c.reg.D[d] = (c.reg.D[d] &^ mask) | (result & mask)
					})
				})
			}
			for opmode := uint16(4); opmode < 7; opmode++ {
				sz := sizeFromBits(opmode - 4)
				forEachEAPattern(func(mode, reg uint8) {
					if mode == 0 || mode == 1 {
						return // <ea> must be alterable memory here
					}
					word := spec.base | dn<<9 | opmode<<6 | uint16(mode)<<3 | uint16(reg)
					d, s, sub := dn, sz, spec.sub
					register(word, func(c *CPU) {
						e := c.resolveEA(mode, reg, s)
						dst := e.read(c, s)
						src := c.reg.D[d] & s.Mask()
						var result uint32
						if sub {
							result = dst - src
							c.setFlagsSub(src, dst, result, s)
						} else {
							result = dst + src
							c.setFlagsAdd(src, dst, result, s)
						}
						e.write(c, s, result)
					})
				})
			}
		}
	}
}

// registerAddaSuba installs ADDA/SUBA <ea>,An (word and long source).
func registerAddaSuba() {
	for _, spec := range []struct {
		base uint16
		sub  bool
	}{{0xD0C0, false}, {0x90C0, true}} {
		for an := uint16(0); an < 8; an++ {
			for _, szBit := range []uint16{0, 1} {
				sz := Word
				if szBit == 1 {
					sz = Long
				}
				forEachEAPattern(func(mode, reg uint8) {
					word := spec.base | an<<9 | szBit<<8 | uint16(mode)<<3 | uint16(reg)
					a, s, sub := an, sz, spec.sub
					register(word, func(c *CPU) {
						e := c.resolveEA(mode, reg, s)
						v := e.read(c, s)
						if s == Word {
							v = uint32(int32(int16(v)))
						}
						if sub {
							c.setA(int(a), c.reg.A[a]-v)
						} else {
							c.setA(int(a), c.reg.A[a]+v)
						}
					})
				})
			}
		}
	}
}

// registerAddiSubi installs ADDI/SUBI #imm,<ea>.
func registerAddiSubi() {
	for _, spec := range []struct {
		base uint16
		sub  bool
	}{{0x0600, false}, {0x0400, true}} {
		for _, szBits := range []uint16{0, 1, 2} {
			sz := sizeFromBits(szBits)
			forEachEAPattern(func(mode, reg uint8) {
				if mode == 1 {
					return
				}
				word := spec.base | szBits<<6 | uint16(mode)<<3 | uint16(reg)
				s, sub := sz, spec.sub
				register(word, func(c *CPU) {
					imm := c.fetchImmediate(s)
					e := c.resolveEA(mode, reg, s)
					dst := e.read(c, s)
					var result uint32
					if sub {
						result = dst - imm
						c.setFlagsSub(imm, dst, result, s)
					} else {
						result = dst + imm
						c.setFlagsAdd(imm, dst, result, s)
					}
					e.write(c, s, result)
				})
			})
		}
	}
}

func (c *CPU) fetchImmediate(sz Size) uint32 {
	switch sz {
	case Byte:
		return uint32(c.fetchPC() & 0xFF)
	case Word:
		return uint32(c.fetchPC())
	default:
		return c.fetchPCLong()
	}
}

// registerAddqSubq installs ADDQ/SUBQ #data,<ea>, data 1-8 (encoded 0-7,
// 0 means 8).
func registerAddqSubq() {
	for _, spec := range []struct {
		base uint16
		sub  bool
	}{{0x5000, false}, {0x5100, true}} {
		for data := uint16(0); data < 8; data++ {
			for _, szBits := range []uint16{0, 1, 2} {
				sz := sizeFromBits(szBits)
				forEachEAPattern(func(mode, reg uint8) {
					if mode == 1 && sz == Byte {
						return
					}
					word := spec.base | data<<9 | szBits<<6 | uint16(mode)<<3 | uint16(reg)
					d, s, sub := data, sz, spec.sub
					register(word, func(c *CPU) {
						amount := uint32(d)
						if amount == 0 {
							amount = 8
						}
						if mode == 1 {
							// ADDQ/SUBQ to An affects the whole register,
							// not just the operand size, and sets no flags.
							if sub {
								c.setA(int(reg), c.reg.A[reg]-amount)
							} else {
								c.setA(int(reg), c.reg.A[reg]+amount)
							}
							return
						}
						e := c.resolveEA(mode, reg, s)
						dst := e.read(c, s)
						var result uint32
						if sub {
							result = dst - amount
							c.setFlagsSub(amount, dst, result, s)
						} else {
							result = dst + amount
							c.setFlagsAdd(amount, dst, result, s)
						}
						e.write(c, s, result)
					})
				})
			}
		}
	}
}

// registerCmp installs CMP/CMPA/CMPI/CMPM.
func registerCmp() {
	for dn := uint16(0); dn < 8; dn++ {
		for _, szBits := range []uint16{0, 1, 2} {
			sz := sizeFromBits(szBits)
			forEachEAPattern(func(mode, reg uint8) {
				word := 0xB000 | dn<<9 | szBits<<6 | uint16(mode)<<3 | uint16(reg)
				d, s := dn, sz
				register(word, func(c *CPU) {
					e := c.resolveEA(mode, reg, s)
					src := e.read(c, s)
					dst := c.reg.D[d] & s.Mask()
					c.setFlagsCmp(src, dst, dst-src, s)
				})
			})
		}
		for _, szBit := range []uint16{0, 1} {
			sz := Word
			if szBit == 1 {
				sz = Long
			}
			forEachEAPattern(func(mode, reg uint8) {
				word := 0xB0C0 | dn<<9 | szBit<<8 | uint16(mode)<<3 | uint16(reg)
				a, s := dn, sz
				register(word, func(c *CPU) {
					e := c.resolveEA(mode, reg, s)
					v := e.read(c, s)
					if s == Word {
						v = uint32(int32(int16(v)))
					}
					dst := c.reg.A[a]
					c.setFlagsCmp(v, dst, dst-v, Long)
				})
			})
		}
	}

	for _, szBits := range []uint16{0, 1, 2} {
		sz := sizeFromBits(szBits)
		forEachEAPattern(func(mode, reg uint8) {
			if mode == 1 {
				return
			}
			word := 0x0C00 | szBits<<6 | uint16(mode)<<3 | uint16(reg)
			s := sz
			register(word, func(c *CPU) {
				imm := c.fetchImmediate(s)
				e := c.resolveEA(mode, reg, s)
				dst := e.read(c, s)
				c.setFlagsCmp(imm, dst, dst-imm, s)
			})
		})
	}

	for _, szBits := range []uint16{0, 1, 2} {
		sz := sizeFromBits(szBits)
		for ax := uint16(0); ax < 8; ax++ {
			for ay := uint16(0); ay < 8; ay++ {
				word := 0xB108 | ay<<9 | szBits<<6 | ax
				s := sz
				register(word, func(c *CPU) {
					srcAddr := c.reg.A[ax]
					c.setA(int(ax), srcAddr+uint32(s))
					src := c.readBus(s, srcAddr)
					dstAddr := c.reg.A[ay]
					c.setA(int(ay), dstAddr+uint32(s))
					dst := c.readBus(s, dstAddr)
					c.setFlagsCmp(src, dst, dst-src, s)
				})
			}
		}
	}
}

// registerNeg installs NEG and NEGX.
func registerNeg() {
	for _, spec := range []struct {
		base uint16
		x    bool
	}{{0x4400, false}, {0x4000, true}} {
		for _, szBits := range []uint16{0, 1, 2} {
			sz := sizeFromBits(szBits)
			forEachEAPattern(func(mode, reg uint8) {
				if mode == 1 {
					return
				}
				word := spec.base | szBits<<6 | uint16(mode)<<3 | uint16(reg)
				s, x := sz, spec.x
				register(word, func(c *CPU) {
					e := c.resolveEA(mode, reg, s)
					v := e.read(c, s)
					borrow := uint32(0)
					if x && c.reg.SR&flagX != 0 {
						borrow = 1
					}
					result := uint32(0) - v - borrow
					c.setFlagsSub(v, 0, result, s)
					e.write(c, s, result)
				})
			})
		}
	}
}

// registerMul installs MULU.W and MULS.W (16x16->32 in Dn).
func registerMul() {
	for _, spec := range []struct {
		base   uint16
		signed bool
	}{{0xC0C0, false}, {0xC1C0, true}} {
		for dn := uint16(0); dn < 8; dn++ {
			forEachEAPattern(func(mode, reg uint8) {
				word := spec.base | dn<<9 | uint16(mode)<<3 | uint16(reg)
				d, signed := dn, spec.signed
				register(word, func(c *CPU) {
					e := c.resolveEA(mode, reg, Word)
					src := e.read(c, Word)
					dst := c.reg.D[d] & 0xFFFF
					var result uint32
					if signed {
						result = uint32(int32(int16(src)) * int32(int16(dst)))
					} else {
						result = src * dst
					}
					c.reg.D[d] = result
					c.setFlagsLogical(result, Long)
				})
			})
		}
	}
}

// registerDivWord installs DIVU.W and DIVS.W (32/16 -> 16 quotient, 16
// remainder packed into Dn).
func registerDivWord() {
	for _, spec := range []struct {
		base   uint16
		signed bool
	}{{0x80C0, false}, {0x81C0, true}} {
		for dn := uint16(0); dn < 8; dn++ {
			forEachEAPattern(func(mode, reg uint8) {
				word := spec.base | dn<<9 | uint16(mode)<<3 | uint16(reg)
				d, signed := dn, spec.signed
				register(word, func(c *CPU) {
					e := c.resolveEA(mode, reg, Word)
					divisor := e.read(c, Word)
					if divisor&0xFFFF == 0 {
						c.exceptionWithExtra(vecDivideByZero, c.prevPC)
						return
					}
					dividend := c.reg.D[d]
					if signed {
						num := int32(dividend)
						den := int32(int16(divisor))
						q := num / den
						if q > 0x7FFF || q < -0x8000 {
							c.reg.SR |= flagV
							return
						}
						r := num % den
						c.reg.D[d] = uint32(uint16(r))<<16 | uint32(uint16(q))
						c.setFlagsLogical(uint32(int32(int16(q))), Long)
					} else {
						num := dividend
						den := divisor & 0xFFFF
						q := num / den
						if q > 0xFFFF {
							c.reg.SR |= flagV
							return
						}
						r := num % den
						c.reg.D[d] = (r&0xFFFF)<<16 | (q & 0xFFFF)
						c.setFlagsLogical(q&0xFFFF, Long)
					}
				})
			})
		}
	}
}

// registerDivLong installs DIVU.L/DIVS.L and the 64:32 extended forms
// (68020+): opcode word + extension word carrying Dq/Dr/size selectors,
// Division by zero raises exception 5 with the
// pre-instruction PC; signed overflow sets V, clears C, and leaves the
// destination unchanged.
func registerDivLong() {
	const base uint16 = 0x4C40 // DIVU.L/DIVS.L/64:32 share one opcode; the
	// extension word's bit 11 (signed) and bit 10 (64-bit dividend) select
	// the actual operation at runtime.
	forEachEAPattern(func(mode, reg uint8) {
		if mode == 1 {
			return
		}
		word := base | uint16(mode)<<3 | uint16(reg)
		register(word, func(c *CPU) {
				ext := c.fetchPC()
				dq := (ext >> 12) & 7
				dr := ext & 7
				is64 := ext&0x0400 != 0
				signed := ext&0x0800 != 0

				e := c.resolveEA(mode, reg, Long)
				divisor := e.read(c, Long)
				if divisor == 0 {
					c.exceptionWithExtra(vecDivideByZero, c.prevPC)
					return
				}

				if !is64 || dq == dr {
					// 32:32 -> 32q:32r form. When dq==dr only the quotient
					// is stored; the remainder is computed but discarded.
					solo := dq == dr
					if signed {
						num := int64(int32(c.reg.D[dq]))
						den := int64(int32(divisor))
						q := num / den
						if q > 0x7FFFFFFF || q < -0x80000000 {
							c.reg.SR &^= flagC
							c.reg.SR |= flagV
							return
						}
						r := num % den
						c.reg.D[dq] = uint32(q)
						if !solo {
							c.reg.D[dr] = uint32(r)
						}
						c.setFlagsLogical(uint32(q), Long)
					} else {
						num := uint64(c.reg.D[dq])
						den := uint64(divisor)
						q := num / den
						if q > 0xFFFFFFFF {
							c.reg.SR &^= flagC
							c.reg.SR |= flagV
							return
						}
						r := num % den
						c.reg.D[dq] = uint32(q)
						if !solo {
							c.reg.D[dr] = uint32(r)
						}
						c.setFlagsLogical(uint32(q), Long)
					}
					return
				}

				// 64:32 -> 32q:32r form: dividend is Dr:Dq (high:low).
				if signed {
					num := int64(uint64(c.reg.D[dr])<<32 | uint64(c.reg.D[dq]))
					den := int64(int32(divisor))
					q := num / den
					if q > 0x7FFFFFFF || q < -0x80000000 {
						c.reg.SR &^= flagC
						c.reg.SR |= flagV
						return
					}
					r := num % den
					c.reg.D[dq] = uint32(q)
					c.reg.D[dr] = uint32(r)
					c.setFlagsLogical(uint32(q), Long)
				} else {
					num := uint64(c.reg.D[dr])<<32 | uint64(c.reg.D[dq])
					den := uint64(divisor)
					q := num / den
					if q > 0xFFFFFFFF {
						c.reg.SR &^= flagC
						c.reg.SR |= flagV
						return
					}
					r := num % den
					c.reg.D[dq] = uint32(q)
					c.reg.D[dr] = uint32(r)
					c.setFlagsLogical(uint32(q), Long)
				}
		})
	})
}

// registerChk installs CHK.W: traps (vector 6) if Dn is negative or exceeds
// the upper bound given by <ea>.
func registerChk() {
	for dn := uint16(0); dn < 8; dn++ {
		forEachEAPattern(func(mode, reg uint8) {
			word := 0x4180 | dn<<9 | uint16(mode)<<3 | uint16(reg)
			d := dn
			register(word, func(c *CPU) {
				e := c.resolveEA(mode, reg, Word)
				bound := int16(e.read(c, Word))
				v := int16(c.reg.D[d])
				if v < 0 {
					c.reg.SR |= flagN
					c.exceptionWithExtra(vecCHK, c.prevPC)
					return
				}
				if v > bound {
					c.reg.SR &^= flagN
					c.exceptionWithExtra(vecCHK, c.prevPC)
				}
			})
		})
	}
}
