package m68k

func init() {
	registerMove()
	registerMoveq()
	registerLeaPea()
	registerMovem()
	registerMisc()
}

// registerMove installs MOVE.b/w/l and MOVEA for every legal source EA x
// every legal destination EA, at the word layout 00 SS DDD MMM mmm rrr
// (bits 15-14=00, 13-12=size, 11-9=dst reg, 8-6=dst mode, 5-3=src mode,
// 2-0=src reg).
func registerMove() {
	for _, szBits := range []uint16{1, 2, 3} {
		sz := moveSizeFromBits(szBits)
		forEachEAPattern(func(srcMode, srcReg uint8) {
			if sz == Byte && srcMode == 1 {
				return // An cannot be a byte source
			}
			forEachEAPattern(func(dstMode, dstReg uint8) {
				if dstMode == 1 && sz != Byte {
					// MOVEA: dst is An, size word/long only
					word := szBits<<12 | uint16(dstReg)<<9 | 1<<6 | uint16(srcMode)<<3 | uint16(srcReg)
					register(word, makeMoveA(sz, srcMode, srcReg, dstReg))
					return
				}
				if dstMode == 1 {
					return
				}
				word := szBits<<12 | uint16(dstReg)<<9 | uint16(dstMode)<<6 | uint16(srcMode)<<3 | uint16(srcReg)
				register(word, makeMove(sz, srcMode, srcReg, dstMode, dstReg))
			})
		})
	}
}

func makeMove(sz Size, srcMode, srcReg, dstMode, dstReg uint8) opFunc {
	return func(c *CPU) {
		src := c.resolveEA(srcMode, srcReg, sz)
		v := src.read(c, sz)
		dst := c.resolveEA(dstMode, dstReg, sz)
		dst.write(c, sz, v)
		c.setFlagsLogical(v, sz)
	}
}

func makeMoveA(sz Size, srcMode, srcReg, dstReg uint8) opFunc {
	return func(c *CPU) {
		src := c.resolveEA(srcMode, srcReg, sz)
		v := src.read(c, sz)
		if sz == Word {
			v = uint32(int32(int16(v)))
		}
		c.setA(int(dstReg), v)
		// MOVEA does not affect flags.
	}
}

// registerMoveq installs MOVEQ #imm,Dn: 0111 rrr 0 dddddddd.
func registerMoveq() {
	for reg := uint16(0); reg < 8; reg++ {
		for data := uint16(0); data < 256; data++ {
			word := 0x7000 | reg<<9 | data
			r, d := reg, data
			register(word, func(c *CPU) {
				v := uint32(int32(int8(d)))
				c.reg.D[r] = v
				c.setFlagsLogical(v, Long)
			})
		}
	}
}

// registerLeaPea installs LEA (ea),An and PEA (ea).
func registerLeaPea() {
	forEachEAPattern(func(mode, reg uint8) {
		if mode == 0 || mode == 1 || mode == 3 || mode == 4 {
			return // LEA/PEA require a control addressing mode
		}
		for an := uint16(0); an < 8; an++ {
			word := 0x41C0 | an<<9 | uint16(mode)<<3 | uint16(reg)
			m, rg, a := mode, reg, an
			register(word, func(c *CPU) {
				e := c.resolveEA(m, rg, Long)
				c.setA(int(a), e.addr)
			})
		}
		peaWord := uint16(0x4840) | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(peaWord, func(c *CPU) {
			e := c.resolveEA(m, rg, Long)
			c.pushLong(e.addr)
		})
	})
}

// registerMovem installs MOVEM register-list <-> memory, word and long,
// both directions (0100 1d00 1sz MMM rrr, d=0 register-to-memory).
func registerMovem() {
	for _, dir := range []uint16{0, 1} {
		for _, szBit := range []uint16{0, 1} {
			sz := Word
			if szBit == 1 {
				sz = Long
			}
			forEachEAPattern(func(mode, reg uint8) {
				if mode == 0 || mode == 1 {
					return
				}
				if dir == 0 && mode == 3 {
					return // MOVEM to memory cannot use (An)+
				}
				if dir == 1 && mode == 4 {
					return // MOVEM from memory cannot use -(An)
				}
				word := 0x4880 | dir<<10 | szBit<<6 | uint16(mode)<<3 | uint16(reg)
				d, s, m, rg := dir, sz, mode, reg
				register(word, makeMovem(d, s, m, rg))
			})
		}
	}
}

func makeMovem(dir uint16, sz Size, mode, reg uint8) opFunc {
	return func(c *CPU) {
		list := c.fetchPC()
		if dir == 0 {
			// register to memory
			if mode == 4 {
				// predecrement: list bit 0 = A7, scanned high-to-low, and
				// each register is written before the pointer is further
				// decremented.
				addr := c.reg.A[reg]
				for i := 0; i < 16; i++ {
					if list&(1<<uint(i)) == 0 {
						continue
					}
					regNum := 15 - i
					addr -= uint32(sz)
					v := c.regValueForMovem(regNum)
					c.writeBus(sz, addr, v)
				}
				c.setA(int(reg), addr)
				return
			}
			e := c.resolveEA(mode, reg, sz)
			addr := e.addr
			for i := 0; i < 16; i++ {
				if list&(1<<uint(i)) == 0 {
					continue
				}
				v := c.regValueForMovem(i)
				c.writeBus(sz, addr, v)
				addr += uint32(sz)
			}
			return
		}

		// memory to register
		e := c.resolveEA(mode, reg, sz)
		addr := e.addr
		for i := 0; i < 16; i++ {
			if list&(1<<uint(i)) == 0 {
				continue
			}
			v := c.readBus(sz, addr)
			if sz == Word {
				v = uint32(int32(int16(v)))
			}
			c.setRegValueForMovem(i, v)
			addr += uint32(sz)
		}
		if mode == 3 {
			c.setA(int(reg), addr)
		}
	}
}

func (c *CPU) regValueForMovem(i int) uint32 {
	if i < 8 {
		return c.reg.D[i]
	}
	return c.reg.A[i-8]
}

func (c *CPU) setRegValueForMovem(i int, v uint32) {
	if i < 8 {
		c.reg.D[i] = v
	} else {
		c.setA(i-8, v)
	}
}

// registerMisc installs CLR, EXG, SWAP, EXT, LINK, UNLK, and MOVE USP.
func registerMisc() {
	for _, szBits := range []uint16{0, 1, 2} {
		sz := sizeFromBits(szBits)
		forEachEAPattern(func(mode, reg uint8) {
			if mode == 1 {
				return
			}
			word := 0x4200 | szBits<<6 | uint16(mode)<<3 | uint16(reg)
			m, rg, s := mode, reg, sz
			register(word, func(c *CPU) {
				e := c.resolveEA(m, rg, s)
				e.write(c, s, 0)
				c.setFlagsLogical(0, s)
			})
		})
	}

	for mode := uint16(0); mode < 3; mode++ {
		for rx := uint16(0); rx < 8; rx++ {
			for ry := uint16(0); ry < 8; ry++ {
				var opmode uint16
				switch mode {
				case 0:
					opmode = 0x08 // Dx,Dy
				case 1:
					opmode = 0x09 // Ax,Ay
				case 2:
					opmode = 0x11 // Dx,Ay
				}
				word := 0xC100 | rx<<9 | opmode<<3 | ry
				x, y, md := rx, ry, mode
				register(word, func(c *CPU) {
					switch md {
					case 0:
						c.reg.D[x], c.reg.D[y] = c.reg.D[y], c.reg.D[x]
					case 1:
						a, b := c.reg.A[x], c.reg.A[y]
						c.setA(int(x), b)
						c.setA(int(y), a)
					case 2:
						d, a := c.reg.D[x], c.reg.A[y]
						c.reg.D[x] = a
						c.setA(int(y), d)
					}
				})
			}
		}
	}

	for reg := uint16(0); reg < 8; reg++ {
		r := reg
		register(0x4840|reg, func(c *CPU) {
			v := c.reg.D[r]
			v = v<<16 | v>>16
			c.reg.D[r] = v
			c.setFlagsLogical(v, Long)
		})
		register(0x4880|reg, func(c *CPU) { // EXT.W
			v := uint32(int32(int8(c.reg.D[r])))
			c.reg.D[r] = (c.reg.D[r] &^ 0xFFFF) | (v & 0xFFFF)
			c.setFlagsLogical(v, Word)
		})
		register(0x48C0|reg, func(c *CPU) { // EXT.L
			v := uint32(int32(int16(c.reg.D[r])))
			c.reg.D[r] = v
			c.setFlagsLogical(v, Long)
		})
		register(0x49C0|reg, func(c *CPU) { // EXTB.L (68020+)
			v := uint32(int32(int8(c.reg.D[r])))
			c.reg.D[r] = v
			c.setFlagsLogical(v, Long)
		})
		register(0x4E50|reg, func(c *CPU) { // LINK.W
			disp := int16(c.fetchPC())
			c.pushLong(c.reg.A[r])
			c.setA(int(r), c.reg.A[7])
			c.setA(7, uint32(int32(c.reg.A[7])+int32(disp)))
		})
		register(0x4E58|reg, func(c *CPU) { // UNLK
			c.setA(7, c.reg.A[r])
			v := c.popLong()
			c.setA(int(r), v)
		})
		register(0x4E68|reg, func(c *CPU) { // MOVE An,USP
			if c.reg.SR&flagS == 0 {
				c.exception(vecPrivilegeViolation)
				return
			}
			c.reg.USP = c.reg.A[r]
		})
		register(0x4E60|reg, func(c *CPU) { // MOVE USP,An
			if c.reg.SR&flagS == 0 {
				c.exception(vecPrivilegeViolation)
				return
			}
			c.setA(int(r), c.reg.USP)
		})
	}
}
