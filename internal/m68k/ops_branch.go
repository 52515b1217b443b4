package m68k

func init() {
	registerBcc()
	registerDbcc()
	registerJmpJsr()
	registerMisc2()
}

// registerBcc installs BRA/BSR/Bcc: 0110 cccc dddddddd, with a word or long
// displacement when the low byte is $00 or $FF respectively (68020+ long
// form).
func registerBcc() {
	for cc := uint16(0); cc < 16; cc++ {
		for disp8 := uint16(0); disp8 < 256; disp8++ {
			word := 0x6000 | cc<<8 | disp8
			condition, d8 := cc, disp8
			register(word, func(c *CPU) {
				base := c.reg.PC
				var disp int32
				switch d8 {
				case 0x00:
					disp = int32(int16(c.fetchPC()))
				case 0xFF:
					disp = int32(c.fetchPCLong())
				default:
					disp = int32(int8(d8))
				}
				target := uint32(int32(base) + disp)

				if condition == 1 { // BSR
					c.pushLong(c.reg.PC)
					c.reg.PC = target
					return
				}
				if condition == 0 || c.testCondition(condition) { // BRA or Bcc true
					c.reg.PC = target
				}
			})
		}
	}
}

// registerDbcc installs DBcc Dn,<label>: 0101 cccc 11001 rrr, decrementing
// Dn's low word and branching while the condition is false and the
// counter has not wrapped past -1.
func registerDbcc() {
	for cc := uint16(0); cc < 16; cc++ {
		for dn := uint16(0); dn < 8; dn++ {
			word := 0x50C8 | cc<<8 | dn
			condition, d := cc, dn
			register(word, func(c *CPU) {
				disp := int32(int16(c.fetchPC()))
				if c.testCondition(condition) {
					return
				}
				lo := int16(c.reg.D[d]) - 1
				c.reg.D[d] = (c.reg.D[d] &^ 0xFFFF) | uint32(uint16(lo))
				if lo != -1 {
					c.reg.PC = uint32(int32(c.reg.PC-2) + disp)
				}
			})
		}
	}
}

// registerJmpJsr installs JMP/JSR <ea> (control addressing modes only) and
// RTS/RTR.
func registerJmpJsr() {
	forEachEAPattern(func(mode, reg uint8) {
		if mode == 0 || mode == 1 || mode == 3 || mode == 4 {
			return
		}
		jmpWord := 0x4EC0 | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(jmpWord, func(c *CPU) {
			e := c.resolveEA(m, rg, Long)
			c.reg.PC = e.addr
		})

		jsrWord := 0x4E80 | uint16(mode)<<3 | uint16(reg)
		register(jsrWord, func(c *CPU) {
			e := c.resolveEA(m, rg, Long)
			c.pushLong(c.reg.PC)
			c.reg.PC = e.addr
		})
	})

	register(0x4E75, func(c *CPU) { // RTS
		c.reg.PC = c.popLong()
	})

	register(0x4E77, func(c *CPU) { // RTR: pop CCR (not full SR) then PC
		ccr := c.popWord()
		c.reg.SR = (c.reg.SR &^ ccrMask) | (ccr & ccrMask)
		c.reg.PC = c.popLong()
	})
}

// registerMisc2 installs NOP, RESET, STOP, TRAP, TRAPV, ILLEGAL, TAS,
// RTE, and the MOVE to/from SR/CCR family.
func registerMisc2() {
	register(0x4E71, func(c *CPU) {}) // NOP

	register(0x4E70, func(c *CPU) { // RESET: privileged, asserts the reset line
		if c.reg.SR&flagS == 0 {
			c.exception(vecPrivilegeViolation)
			return
		}
		// The guest-visible RESET instruction only pulses the hardware reset
		// line for peripherals; it does not re-home the CPU itself. Host
		// wiring (the escape dispatcher's own RESET ordinal) handles a full
		// cold restart.
	})

	register(0x4E72, func(c *CPU) { // STOP #imm
		if c.reg.SR&flagS == 0 {
			c.exception(vecPrivilegeViolation)
			return
		}
		imm := c.fetchPC()
		c.setSR(imm)
		c.stopped = true
	})

	register(0x4E73, func(c *CPU) { c.RTE() }) // RTE

	for n := uint16(0); n < 16; n++ {
		vector := n
		register(0x4E40|n, func(c *CPU) { // TRAP #n
			c.exceptionWithExtra(int(vecTrap0)+int(vector), c.prevPC)
		})
	}

	register(0x4E76, func(c *CPU) { // TRAPV
		if c.reg.SR&flagV != 0 {
			c.exceptionWithExtra(vecTRAPV, c.prevPC)
		}
	})

	register(0x4AFC, func(c *CPU) { // ILLEGAL
		c.exception(vecIllegalInstruction)
	})

	// TAS <ea>: test the operand then set its high bit, as one indivisible
	// read-modify-write bus cycle on real hardware; this core performs the
	// read and write as ordinary bus accesses since it has no other bus
	// master to race against.
	forEachEAPattern(func(mode, reg uint8) {
		if mode == 1 || (mode == 7 && reg == 4) { // 7/4 would overwrite ILLEGAL
			return
		}
		word := 0x4AC0 | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(word, func(c *CPU) {
			e := c.resolveEA(m, rg, Byte)
			v := e.read(c, Byte)
			c.setFlagsLogical(v, Byte)
			e.write(c, Byte, v|0x80)
		})
	})

	// MOVE from SR: <ea> <- SR (word). Privileged on the 68010+; this core
	// allows user-mode reads, matching the plain 68000 behavior the ROM and
	// Mac OS toolbox still assume.
	forEachEAPattern(func(mode, reg uint8) {
		if mode == 1 {
			return
		}
		word := 0x40C0 | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(word, func(c *CPU) {
			e := c.resolveEA(m, rg, Word)
			e.write(c, Word, uint32(c.reg.SR))
		})
	})

	// MOVE to SR: SR <- <ea> (word), privileged.
	forEachEAPattern(func(mode, reg uint8) {
		word := 0x46C0 | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(word, func(c *CPU) {
			if c.reg.SR&flagS == 0 {
				c.exception(vecPrivilegeViolation)
				return
			}
			e := c.resolveEA(m, rg, Word)
			c.setSR(uint16(e.read(c, Word)))
		})
	})

	// MOVE from CCR (68010+): <ea> <- CCR (word, high byte zero).
	forEachEAPattern(func(mode, reg uint8) {
		if mode == 1 {
			return
		}
		word := 0x42C0 | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(word, func(c *CPU) {
			e := c.resolveEA(m, rg, Word)
			e.write(c, Word, uint32(c.reg.SR&ccrMask))
		})
	})

	// MOVE to CCR: CCR <- <ea> (word, only the low byte is meaningful).
	forEachEAPattern(func(mode, reg uint8) {
		word := 0x44C0 | uint16(mode)<<3 | uint16(reg)
		m, rg := mode, reg
		register(word, func(c *CPU) {
			e := c.resolveEA(m, rg, Word)
			v := e.read(c, Word)
			c.reg.SR = (c.reg.SR &^ ccrMask) | (uint16(v) & ccrMask)
		})
	})
}
