package m68k

import "log"

// Bus is the Memory Plane contract the CPU drives. All
// multi-byte accesses are big-endian; word/long accesses at odd addresses
// and accesses to unmapped addresses must arrive through TakeFault rather
// than panicking, so the CPU can turn them into the appropriate exception
// at the next instruction boundary.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	ReadInstruction(pc uint32) uint16
	TakeFault() Fault
	PendingInterrupts() uint32
	ClearInterrupt(bits uint32)
}

// FaultKind mirrors memory.FaultKind without importing the memory package,
// keeping m68k free of a dependency cycle (memory never needs to know about
// the CPU).
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultBusError
	FaultAddressError
)

// Fault is the bus-reported access failure the CPU polls for after each
// instruction.
type Fault struct {
	Kind FaultKind
	Addr uint32
	PC   uint32
}

// FPU is consulted for F-line opcodes. The core does not specify 68881
// semantics (the FPU is treated as an opaque collaborator); a CPU
// built without one simply raises vector 11 (Line-F emulator) for every
// F-line opcode, which is itself correct 68040-without-FPU behavior.
type FPU interface {
	// Execute handles one F-line instruction word. ok is false if the FPU
	// does not implement this opcode, causing the CPU to raise vector 11.
	Execute(word uint16) (ok bool)
}

// InterruptSource describes a pending asynchronous interrupt for callers
// that want to force a specific vector (used by the trap dispatcher's IRQ
// escape, which delivers the Mac's level-1 VIA interrupt through the
// auto-vector path rather than a dedicated vector).
type InterruptSource struct {
	Level  uint8
	Vector *uint8 // nil selects the auto-vector (24+level)
}

// Registers holds the programmer-visible state of the 680x0.
type Registers struct {
	D   [8]uint32
	A   [8]uint32 // A7 is the active stack pointer (USP, ISP, or MSP)
	PC  uint32
	SR  uint16
	USP uint32
	ISP uint32
	MSP uint32

	VBR uint32

	ir uint16 // first word of the currently executing instruction
}

// CPU is the 680x0 interpreter: fetch/decode/execute, effective-address
// computation, flags, exceptions, and interrupt delivery.
type CPU struct {
	reg Registers
	bus Bus
	fpu FPU

	cycles uint64
	prevPC uint32 // PC of the instruction currently executing; used to
	// stamp group-1 fault exceptions (illegal/privilege/line-A/line-F) with
	// the faulting instruction's address rather than the next one.

	escapes Escapes // optional EMUL_OP collaborator; nil raises vector 4 like any other unassigned opcode

	stopped      bool // set by STOP, cleared by a serviced interrupt
	halted       bool // set by a double bus fault; the loop stops advancing
	inFaultFrame bool // true while building a bus-error frame; a second
	// fault in this window is a double bus fault, not a recursive one

	quit bool // set by the Quit request; checked between instructions

	pending *pendingRequest // explicit interrupt request from RequestInterrupt

	// EmulatedSR shadows S and the interrupt mask so the illegal-instruction
	// escape path can check masking without re-decoding the full SR
	// (invariant: EmulatedSR&0x0700 == SR's interrupt mask<<8).
	emulatedSR uint16

	debug bool
}

// New constructs a CPU wired to bus. SR starts in supervisor mode with
// interrupts masked and the master bit clear (68040 reset state); PC and
// the initial SSP must be loaded by LoadFromVector once the ROM's reset
// vector is in place.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// SetFPU installs the FPU collaborator. A nil FPU (the default) causes
// every F-line opcode to raise vector 11.
func (c *CPU) SetFPU(fpu FPU) { c.fpu = fpu }

// Escapes services the EMUL_OP escape opcode range (0x7100-0x71FF): the
// host call-outs patched ROM code uses in place of the routines it used to
// contain. A 680x0 can never legally execute one of these words (bit 8 set
// rules out MOVEQ, the only real instruction that shares 0x7000-0x7Fxx), so
// stealing the whole byte range for ordinals costs nothing.
type Escapes interface {
	Dispatch(ordinal byte, c *CPU)
}

// SetEscapes installs the EMUL_OP collaborator. A nil value (the default)
// leaves EMUL_OP words raising vector 4 like any other illegal opcode.
func (c *CPU) SetEscapes(e Escapes) { c.escapes = e }

// SetDebug toggles per-exception diagnostic logging.
func (c *CPU) SetDebug(on bool) { c.debug = on }

// Reset performs the RESET escape's CPU-side half: it does not re-home PC
// (the trap dispatcher's RESET handler does that after rebuilding
// BootGlobs), but it does clear register file, flags, and the stopped/
// halted/quit state, matching a hardware reset's effect on the CPU core.
func (c *CPU) Reset() {
	c.reg = Registers{SR: flagS | maskIPL}
	c.emulatedSR = c.reg.SR
	c.stopped = false
	c.halted = false
	c.quit = false
	c.cycles = 0
}

// LoadFromVector reads the initial SSP and PC from guest addresses 0 and 4,
// the 68000 hardware-reset convention the Mac ROM's own reset vector relies
// on.
func (c *CPU) LoadFromVector() {
	ssp := c.bus.Read32(0)
	c.reg.A[7] = ssp
	c.reg.ISP = ssp
	c.reg.PC = c.bus.Read32(4)
}

// Registers returns a copy of the current register file, for escape
// handlers and diagnostics that need full context.
func (c *CPU) Registers() Registers { return c.reg }

// SetPC overrides the program counter directly; used by the RESET and
// EMUL_RETURN escapes.
func (c *CPU) SetPC(pc uint32) { c.reg.PC = pc }

// SetReg writes a data (n<8) or address (n>=8, n-8 is the register number)
// register; used by escape handlers that must set up register context
// before returning to guest code (e.g. RESET seeding a0/d0 for boot).
func (c *CPU) SetReg(n int, v uint32) {
	if n < 8 {
		c.reg.D[n] = v
	} else {
		c.setA(n-8, v)
	}
}

// Reg reads a data (n<8) or address (n>=8) register.
func (c *CPU) Reg(n int) uint32 {
	if n < 8 {
		return c.reg.D[n]
	}
	return c.reg.A[n-8]
}

// PC returns the current program counter.
func (c *CPU) PC() uint32 { return c.reg.PC }

// SR returns the current status register.
func (c *CPU) SR() uint16 { return c.reg.SR }

// SetSR installs a new status register value, handling the USP/MSP/ISP
// stack-pointer swap the S/M bits require. Exported for escape handlers
// (e.g. RESET) that must leave the guest in a specific privilege state.
func (c *CPU) SetSR(v uint16) { c.setSR(v) }

// A7 returns the active stack pointer.
func (c *CPU) A7() uint32 { return c.reg.A[7] }

// SetA7 writes the active stack pointer, keeping the USP/MSP/ISP shadow in
// sync.
func (c *CPU) SetA7(v uint32) { c.setA(7, v) }

func (c *CPU) setA(n int, v uint32) {
	c.reg.A[n] = v
	if n == 7 {
		c.syncActiveSP(v)
	}
}

// syncActiveSP writes back A7's new value into whichever shadow stack
// pointer is currently active, keeping the (A7, S, M) invariant of
// the (A7, S, M) invariant intact across direct A7 writes (e.g. MOVE to A7).
func (c *CPU) syncActiveSP(v uint32) {
	switch {
	case c.reg.SR&flagS == 0:
		c.reg.USP = v
	case c.reg.SR&flagM != 0:
		c.reg.MSP = v
	default:
		c.reg.ISP = v
	}
}

// enterSupervisor swaps A7 to the correct supervisor stack and sets S,
// honoring the invariant: A7==USP when S==0; A7==MSP when
// S==1&&M==1; A7==ISP when S==1&&M==0. Must be called with the OLD SR still
// in effect so the USP save below is correct.
func (c *CPU) enterSupervisor() {
	if c.reg.SR&flagS == 0 {
		c.reg.USP = c.reg.A[7]
		if c.reg.SR&flagM != 0 {
			c.reg.A[7] = c.reg.MSP
		} else {
			c.reg.A[7] = c.reg.ISP
		}
	}
	c.reg.SR |= flagS
}

// Halted reports whether a double bus fault has stopped the CPU.
func (c *CPU) Halted() bool { return c.halted }

// Stopped reports whether the CPU is parked in a STOP.
func (c *CPU) Stopped() bool { return c.stopped }

// RequestQuit sets the soft-cancellation flag checked between instructions
// (the cooperative "Quit request" the host loop polls for).
func (c *CPU) RequestQuit() { c.quit = true }

// Quit reports whether a quit has been requested.
func (c *CPU) Quit() bool { return c.quit }

// Cycles returns the running cycle counter, consulted by host code pacing
// the 60.15 Hz tick against real time.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Step executes one instruction (or, if stopped, advances past one
// STOP-idle tick) and returns the cycles it consumed. It is the sole entry
// point the host emulation loop drives.
func (c *CPU) Step() int {
	if c.halted {
		return 0
	}

	before := c.cycles
	c.checkInterrupt()
	if c.halted {
		return int(c.cycles - before)
	}

	if c.stopped {
		c.cycles += 4
		return int(c.cycles - before)
	}

	c.prevPC = c.reg.PC
	word := c.bus.ReadInstruction(c.reg.PC)
	if f := c.bus.TakeFault(); f.Kind != FaultNone {
		c.raiseBusFault(f)
		return int(c.cycles - before)
	}
	c.reg.PC += 2
	c.reg.ir = word

	if word&0xff00 == 0x7100 && c.escapes != nil {
		c.escapes.Dispatch(byte(word), c)
		c.cycles += 4
		return int(c.cycles - before)
	}

	h := opcodeTable[word]
	if h == nil {
		c.exception(vecIllegalInstruction)
	} else {
		h(c)
		if f := c.bus.TakeFault(); f.Kind != FaultNone {
			c.raiseBusFault(f)
		}
	}

	c.cycles += 4
	return int(c.cycles - before)
}

func (c *CPU) raiseBusFault(f Fault) {
	switch f.Kind {
	case FaultAddressError:
		c.exceptionAddressError(f.Addr, f.PC)
	case FaultBusError:
		c.exceptionBusError(f.Addr)
	}
}

func (c *CPU) logf(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[CPU] "+format, args...)
	}
}

// readBus/writeBus are the handler-facing memory accessors; ops_*.go files
// call these rather than c.bus directly so a future cycle-accurate bus
// adapter has one seam to intercept.
func (c *CPU) readBus(sz Size, addr uint32) uint32 {
	switch sz {
	case Byte:
		return uint32(c.bus.Read8(addr))
	case Word:
		return uint32(c.bus.Read16(addr))
	default:
		return c.bus.Read32(addr)
	}
}

func (c *CPU) writeBus(sz Size, addr uint32, v uint32) {
	switch sz {
	case Byte:
		c.bus.Write8(addr, uint8(v))
	case Word:
		c.bus.Write16(addr, uint16(v))
	default:
		c.bus.Write32(addr, v)
	}
}

func (c *CPU) fetchPC() uint16 {
	w := c.bus.ReadInstruction(c.reg.PC)
	c.reg.PC += 2
	return w
}

func (c *CPU) fetchPCLong() uint32 {
	hi := c.fetchPC()
	lo := c.fetchPC()
	return uint32(hi)<<16 | uint32(lo)
}

func (c *CPU) pushLong(v uint32) {
	c.reg.A[7] -= 4
	c.writeBus(Long, c.reg.A[7], v)
	c.syncActiveSP(c.reg.A[7])
}

func (c *CPU) pushWord(v uint16) {
	c.reg.A[7] -= 2
	c.writeBus(Word, c.reg.A[7], uint32(v))
	c.syncActiveSP(c.reg.A[7])
}

func (c *CPU) popLong() uint32 {
	v := c.readBus(Long, c.reg.A[7])
	c.reg.A[7] += 4
	c.syncActiveSP(c.reg.A[7])
	return v
}

func (c *CPU) popWord() uint16 {
	v := uint16(c.readBus(Word, c.reg.A[7]))
	c.reg.A[7] += 2
	c.syncActiveSP(c.reg.A[7])
	return v
}
