package m68k

// EA operand-class tags.
const (
	eaDataReg = iota
	eaAddrReg
	eaMemory
	eaImmediate
)

// ea is a resolved effective-address operand: either a register, a memory
// address, or an immediate value, read and written through a uniform
// interface so instruction handlers don't need a mode switch of their own.
type ea struct {
	mode uint8
	reg  uint8
	addr uint32
	imm  uint32
}

func (e ea) read(c *CPU, sz Size) uint32 {
	switch e.mode {
	case eaDataReg:
		return c.reg.D[e.reg] & sz.Mask()
	case eaAddrReg:
		return c.reg.A[e.reg] & sz.Mask()
	case eaMemory:
		return c.readBus(sz, e.addr)
	default:
		return e.imm & sz.Mask()
	}
}

func (e ea) write(c *CPU, sz Size, v uint32) {
	switch e.mode {
	case eaDataReg:
		mask := sz.Mask()
		c.reg.D[e.reg] = (c.reg.D[e.reg] &^ mask) | (v & mask)
	case eaAddrReg:
		c.setA(int(e.reg), v)
	case eaMemory:
		c.writeBus(sz, e.addr, v)
	}
}

// resolveEA decodes the standard 6-bit mode/register effective-address
// field, fetching extension words from the instruction stream as needed.
// It implements all twelve 68000 addressing modes plus the 68020 extended
// indexed mode (base suppression, outer displacement, memory indirection,
// scaled index).
func (c *CPU) resolveEA(mode, reg uint8, sz Size) ea {
	switch mode {
	case 0:
		return ea{mode: eaDataReg, reg: reg}
	case 1:
		return ea{mode: eaAddrReg, reg: reg}
	case 2:
		return ea{mode: eaMemory, addr: c.reg.A[reg]}
	case 3:
		addr := c.reg.A[reg]
		inc := uint32(sz)
		if reg == 7 && sz == Byte {
			inc = 2
		}
		c.setA(int(reg), addr+inc)
		return ea{mode: eaMemory, addr: addr}
	case 4:
		dec := uint32(sz)
		if reg == 7 && sz == Byte {
			dec = 2
		}
		c.setA(int(reg), c.reg.A[reg]-dec)
		return ea{mode: eaMemory, addr: c.reg.A[reg]}
	case 5:
		disp := int16(c.fetchPC())
		return ea{mode: eaMemory, addr: uint32(int32(c.reg.A[reg]) + int32(disp))}
	case 6:
		ext := c.fetchPC()
		return ea{mode: eaMemory, addr: c.resolveIndexed(c.reg.A[reg], ext)}
	case 7:
		switch reg {
		case 0:
			disp := int16(c.fetchPC())
			return ea{mode: eaMemory, addr: uint32(int32(disp))}
		case 1:
			return ea{mode: eaMemory, addr: c.fetchPCLong()}
		case 2:
			base := c.reg.PC
			disp := int16(c.fetchPC())
			return ea{mode: eaMemory, addr: uint32(int32(base) + int32(disp))}
		case 3:
			base := c.reg.PC
			ext := c.fetchPC()
			return ea{mode: eaMemory, addr: c.resolveIndexed(base, ext)}
		case 4:
			switch sz {
			case Byte:
				return ea{mode: eaImmediate, imm: uint32(c.fetchPC() & 0xFF)}
			case Word:
				return ea{mode: eaImmediate, imm: uint32(c.fetchPC())}
			default:
				return ea{mode: eaImmediate, imm: c.fetchPCLong()}
			}
		}
	}
	c.exception(vecIllegalInstruction)
	return ea{}
}

// resolveIndexed decodes a (d8,An,Xn) / (d8,PC,Xn) extension word. base is
// the register or PC value captured BEFORE any further extension words are
// fetched, since fetching advances PC.
func (c *CPU) resolveIndexed(base uint32, ext uint16) uint32 {
	da := ext&0x8000 != 0
	xn := (ext >> 12) & 7
	wl := ext&0x0800 != 0
	scale := uint32(1) << ((ext >> 9) & 3)
	full := ext&0x0100 != 0

	indexValue := func(suppressed bool) int32 {
		if suppressed {
			return 0
		}
		var raw int32
		if da {
			raw = int32(c.reg.A[xn])
		} else {
			raw = int32(c.reg.D[xn])
		}
		if !wl {
			raw = int32(int16(raw))
		}
		return raw * int32(scale)
	}

	if !full {
		disp := int32(int8(ext & 0xFF))
		return uint32(int32(base) + indexValue(false) + disp)
	}

	bs := ext&0x0080 != 0  // base register suppress
	is := ext&0x0040 != 0  // index suppress
	bdSize := (ext >> 4) & 3
	iis := ext & 7

	var baseReg int32
	if !bs {
		baseReg = int32(base)
	}

	var baseDisp int32
	switch bdSize {
	case 2:
		baseDisp = int32(int16(c.fetchPC()))
	case 3:
		baseDisp = int32(c.fetchPCLong())
	}

	intermediate := uint32(baseReg + baseDisp)
	idx := indexValue(is)

	fetchOuter := func(sel uint16) int32 {
		switch sel {
		case 2, 6:
			return int32(int16(c.fetchPC()))
		case 3, 7:
			return int32(c.fetchPCLong())
		default:
			return 0
		}
	}

	switch {
	case iis == 0:
		// Register indirect with index, no memory indirection.
		return uint32(int32(intermediate) + idx)
	case iis >= 1 && iis <= 3:
		// Memory indirect pre-indexed: index is added before the indirect
		// load, then the outer displacement is added after.
		memAddr := uint32(int32(intermediate) + idx)
		indirect := c.readBus(Long, memAddr)
		od := fetchOuter(iis)
		return uint32(int32(indirect) + od)
	case iis >= 5 && iis <= 7:
		// Memory indirect post-indexed: the indirect load happens first,
		// then index and outer displacement are added to its result.
		indirect := c.readBus(Long, intermediate)
		od := fetchOuter(iis)
		return uint32(int32(indirect) + idx + od)
	default:
		// iis==4 reserved; fall back to the no-indirection case.
		return uint32(int32(intermediate) + idx)
	}
}
