package trap

import "log"

// Escape ordinals. The low byte of the
// 0x71XX opcode word is the ordinal.
const (
	ordEmulReturn      = 0x00
	ordBreak           = 0x01
	ordShutdown        = 0x02
	ordReset           = 0x03
	ordClkNoMem        = 0x04
	ordXPRAMRead       = 0x05
	ordXPRAMWrite      = 0x06
	ordXPRAMReadBlock  = 0x07
	ordFixBootStack    = 0x08
	ordFixMemSize      = 0x09
	ordInstallDrivers  = 0x0A
	ordSerD            = 0x0B
	ordSonyOpen        = 0x0C
	ordSonyPrime       = 0x0D
	ordSonyControl     = 0x0E
	ordSonyStatus      = 0x0F
	ordDiskOpen        = 0x10
	ordDiskPrime       = 0x11
	ordDiskControl     = 0x12
	ordDiskStatus      = 0x13
	ordCDROMOpen       = 0x14
	ordCDROMPrime      = 0x15
	ordCDROMControl    = 0x16
	ordCDROMStatus     = 0x17
	ordADBOp           = 0x18
	ordInsTime         = 0x19
	ordRmvTime         = 0x1A
	ordPrimeTime       = 0x1B
	ordMicroseconds    = 0x1C
	ordSCSIDispatch    = 0x1D
	ordIRQ             = 0x1E
	ordPutScrap        = 0x1F
	ordGetScrap        = 0x20
	ordCheckLoad       = 0x21
	ordAudio           = 0x22
	ordExtFSComm       = 0x23
	ordExtFSHFS        = 0x24
	ordBlockMove       = 0x25
	ordDebugUtil       = 0x26
	ordIdleTime        = 0x27
	ordSuspend         = 0x28
)

// registerEscapes binds every ordinal this core implements. Ordinals not
// listed here fall through to unknownEscape, matching the table's own
// "abridged; complete set is 60-odd entries" note. Driver quartets are
// registered for Sony, Disk and CDROM only (ordinals 0x0C-0x17); Video,
// Serial, Ether and SoundIn have no ordinal here, so an escape aimed at one
// of them reaches unknownEscape.
func registerEscapes(d *Dispatcher) {
	d.register(ordEmulReturn, emulReturn)
	d.register(ordBreak, breakEscape)
	d.register(ordShutdown, shutdown)
	d.register(ordReset, resetEscape)
	d.register(ordClkNoMem, clkNoMem)
	d.register(ordXPRAMRead, xpramRead)
	d.register(ordXPRAMWrite, xpramWrite)
	d.register(ordXPRAMReadBlock, xpramReadBlock)
	d.register(ordFixBootStack, fixBootStack)
	d.register(ordFixMemSize, fixMemSize)
	d.register(ordInstallDrivers, installDrivers)
	d.register(ordSerD, serD)

	d.register(ordSonyOpen, genericDriverOp("Sony", (*Dispatcher).driverOpen))
	d.register(ordSonyPrime, genericDriverOp("Sony", (*Dispatcher).driverPrime))
	d.register(ordSonyControl, genericDriverOp("Sony", (*Dispatcher).driverControl))
	d.register(ordSonyStatus, genericDriverOp("Sony", (*Dispatcher).driverStatus))
	d.register(ordDiskOpen, genericDriverOp("Disk", (*Dispatcher).driverOpen))
	d.register(ordDiskPrime, genericDriverOp("Disk", (*Dispatcher).driverPrime))
	d.register(ordDiskControl, genericDriverOp("Disk", (*Dispatcher).driverControl))
	d.register(ordDiskStatus, genericDriverOp("Disk", (*Dispatcher).driverStatus))
	d.register(ordCDROMOpen, genericDriverOp("AppleCD", (*Dispatcher).driverOpen))
	d.register(ordCDROMPrime, genericDriverOp("AppleCD", (*Dispatcher).driverPrime))
	d.register(ordCDROMControl, genericDriverOp("AppleCD", (*Dispatcher).driverControl))
	d.register(ordCDROMStatus, genericDriverOp("AppleCD", (*Dispatcher).driverStatus))

	d.register(ordADBOp, adbOp)
	d.register(ordInsTime, insTime)
	d.register(ordRmvTime, rmvTime)
	d.register(ordPrimeTime, primeTime)
	d.register(ordMicroseconds, microseconds)
	d.register(ordSCSIDispatch, scsiDispatch)
	d.register(ordIRQ, irq)
	d.register(ordPutScrap, putScrap)
	d.register(ordGetScrap, getScrap)
	d.register(ordCheckLoad, checkLoad)
	d.register(ordAudio, audio)
	d.register(ordExtFSComm, extFSComm)
	d.register(ordExtFSHFS, extFSHFS)
	d.register(ordBlockMove, blockMove)
	d.register(ordDebugUtil, debugUtil)
	d.register(ordIdleTime, idleTime)
	d.register(ordSuspend, suspend)
}

// emulReturn ends a host-initiated 68k-mode call (Execute68k): restores the
// host stack by handing control back to whatever called into guest code.
// This core's CPU loop has no separate "68k mode" call stack of its own (it
// always runs guest code on its own goroutine), so the only action needed
// is requesting the interpreter loop stop advancing past this point; the
// host caller that issued the nested call is responsible for noticing.
func emulReturn(d *Dispatcher, c CPU, m Mem) {
	c.RequestQuit()
}

func breakEscape(d *Dispatcher, c CPU, m Mem) {
	log.Printf("[TRAP] BREAK at PC=%#06x D0=%#x A0=%#x", c.PC(), c.Reg(0), c.Reg(8))
	if d.Host != nil {
		d.Host.Suspend("BREAK escape")
	}
	c.RequestQuit()
}

func shutdown(d *Dispatcher, c CPU, m Mem) {
	if d.Host != nil {
		d.Host.Shutdown()
	}
	c.RequestQuit()
}

// resetEscape rebuilds BootGlobs at the top of RAM and seeds A0/D0 for boot,
// The CPU-side register clear is the interpreter's own
// Reset (called by the host before re-entering guest code); this handler
// only has to re-establish the memory-side boot globals.
func resetEscape(d *Dispatcher, c CPU, m Mem) {
	top := m.RAMBase() + m.RAMSize()
	bootGlobs := top - 4096
	m.WriteBlock(bootGlobs, make([]byte, 4096))
	c.SetReg(8, bootGlobs) // A0
	c.SetReg(0, 0)         // D0
}

// clkNoMem substitutes for direct VIA/Cuda clock-chip access: reads return
// the RTC seconds count, writes are ignored (the chip's write path is
// XPRAM, handled by the dedicated ordinals below).
func clkNoMem(d *Dispatcher, c CPU, m Mem) {
	if d.Clock == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	c.SetReg(0, d.Clock.RealTimeClockSeconds())
}

// xpramRead: D0 low byte is the offset, returns the byte in D0.
func xpramRead(d *Dispatcher, c CPU, m Mem) {
	if d.XPRAM == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	offset := uint8(c.Reg(0))
	c.SetReg(0, uint32(d.XPRAM.ReadByte(offset)))
}

// xpramWrite: D0 low byte is the offset, D1 low byte is the value.
func xpramWrite(d *Dispatcher, c CPU, m Mem) {
	if d.XPRAM == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	offset := uint8(c.Reg(0))
	v := uint8(c.Reg(1))
	d.XPRAM.WriteByte(offset, v)
	c.SetReg(0, noErr)
}

// xpramReadBlock: A0 points at a guest buffer, D0 holds the byte count
// (capped at 256, the classic PRAM size).
func xpramReadBlock(d *Dispatcher, c CPU, m Mem) {
	if d.XPRAM == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	dst := c.Reg(8)
	n := c.Reg(0)
	if n > 256 {
		n = 256
	}
	for i := uint32(0); i < n; i++ {
		m.Write8(dst+i, d.XPRAM.ReadByte(uint8(i)))
	}
	c.SetReg(0, noErr)
}

func fixBootStack(d *Dispatcher, c CPU, m Mem) {
	c.SetReg(9, m.RAMBase()+m.RAMSize()/4*3) // A1 = RAMBase + 3/4 RAMSize
}

// fixMemSize corrects the logical-vs-physical RAM size discrepancy some ROM
// revisions compute wrong; LowMem 0x1ef4/0x1ef8 hold the two size slots
// held by LowMem.
func fixMemSize(d *Dispatcher, c CPU, m Mem) {
	size := m.RAMSize()
	m.Write32(0x1ef4, size)
	m.Write32(0x1ef8, size)
}

func installDrivers(d *Dispatcher, c CPU, m Mem) {
	// The concrete driver descriptors are built once by the ROM Patcher at
	// patch time (rompatch.DriverDescriptor.Build); this escape only signals
	// that guest boot has reached the point where the unit table entries
	// should be considered live. No further memory-side work is needed here
	// since the descriptors are already resident from patching.
	c.SetReg(0, noErr)
}

func serD(d *Dispatcher, c CPU, m Mem) {
	c.SetReg(0, noErr)
}

// genericDriverOp adapts one (name, verb) pair into an EscapeHandler that
// calls the matching DriverSet method, with pb (the parameter block
// pointer) passed in A0 by the calling stub convention.
func genericDriverOp(name string, verb func(*Dispatcher, string, uint32, Mem) int16) EscapeHandler {
	return func(d *Dispatcher, c CPU, m Mem) {
		if d.Drivers == nil {
			c.SetReg(0, uint32(int32(ioErr)))
			return
		}
		pb := c.Reg(8)
		result := verb(d, name, pb, m)
		c.SetReg(0, uint32(int32(result)))
	}
}

func (d *Dispatcher) driverOpen(name string, pb uint32, m Mem) int16    { return d.Drivers.Open(name, pb, m) }
func (d *Dispatcher) driverPrime(name string, pb uint32, m Mem) int16   { return d.Drivers.Prime(name, pb, m) }
func (d *Dispatcher) driverControl(name string, pb uint32, m Mem) int16 { return d.Drivers.Control(name, pb, m) }
func (d *Dispatcher) driverStatus(name string, pb uint32, m Mem) int16  { return d.Drivers.Status(name, pb, m) }

// adbOp calls the ADB host, then invokes the completion routine recursively
// the completion address is passed in A2 by the calling
// stub, and this core "calls" it by simply jumping PC there, relying on the
// handler-in-a-table design rather than a nested Go call since there is no
// separate 68k-mode call stack to unwind back from.
func adbOp(d *Dispatcher, c CPU, m Mem) {
	if d.ADB == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	d.ADB.Operation(c, m)
	if completion := c.Reg(10); completion != 0 { // A2
		c.SetPC(completion)
	}
}

// insTime/rmvTime/primeTime occupy the Time Manager ordinals. Each only
// returns noErr in D0: no timer task is queued, removed or run.
func insTime(d *Dispatcher, c CPU, m Mem)   { c.SetReg(0, noErr) }
func rmvTime(d *Dispatcher, c CPU, m Mem)   { c.SetReg(0, noErr) }
func primeTime(d *Dispatcher, c CPU, m Mem) { c.SetReg(0, noErr) }

func microseconds(d *Dispatcher, c CPU, m Mem) {
	if d.Clock == nil {
		c.SetReg(0, 0)
		c.SetReg(1, 0)
		return
	}
	us := d.Clock.MicrosecondsSinceBoot()
	c.SetReg(0, uint32(us>>32))
	c.SetReg(1, uint32(us))
}

// scsiDispatch implements SCSI_DISPATCH's real calling convention: the
// caller leaves its own return address at [A7], the 16-bit selector at
// [A7+4], and the selector's own arguments starting at [A7+6]. Each
// selector consumes a fixed number of argument bytes (see scsiSelectors)
// and its 16-bit result is written just past them, not into D0. Afterward
// A0 holds the caller's return address and A1 holds the stack pointer past
// the consumed arguments — the "rtd" emulation the original performs,
// applied here directly to A7 since this core has no separate 68k stub
// left to pop the stack itself.
func scsiDispatch(d *Dispatcher, c CPU, m Mem) {
	base := c.A7()
	retAddr := m.Read32(base)
	selector := m.Read16(base + 4)
	args := base + 6

	info, known := scsiSelectorLookup(selector)
	if !known {
		log.Printf("[TRAP] SCSI_DISPATCH unknown selector %d", selector)
		c.SetReg(8, retAddr)
		c.SetReg(9, args)
		c.SetA7(args)
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}

	loadSCSIArgs(c, m, args, selector)

	result := int16(ioErr)
	if d.SCSI != nil {
		result = d.SCSI.Dispatch(selector, c, m)
	}

	newSP := args + info.argBytes
	m.Write16(newSP, uint16(result))

	c.SetReg(8, retAddr) // A0: caller's return address
	c.SetReg(9, newSP)   // A1: stack pointer past the consumed arguments
	c.SetA7(newSP)
}

// loadSCSIArgs copies a selector's stack-resident arguments into scratch
// data registers so the SCSIBus collaborator reads them the same way every
// other escape handler reads its parameter block, without needing to know
// SCSI_DISPATCH's own stack layout.
func loadSCSIArgs(c CPU, m Mem, args uint32, selector uint16) {
	switch selector {
	case SCSISelSelect, SCSISelSelAtn:
		c.SetReg(1, uint32(m.Read16(args))) // target id, low byte
	case SCSISelCmd:
		c.SetReg(1, uint32(m.Read16(args))) // CDB length
		c.SetReg(2, m.Read32(args+2))       // CDB pointer
	case SCSISelComplete:
		c.SetReg(1, m.Read32(args))
		c.SetReg(2, m.Read32(args+4))
		c.SetReg(3, m.Read32(args+8))
	case SCSISelRead, SCSISelRBlind, SCSISelWrite, SCSISelWBlind:
		c.SetReg(1, m.Read32(args)) // transfer-info-block pointer
	}
}

// Level-1 InterruptFlags bits this escape services, mirrored by value from
// memory.Flag* the same way m68k's classifyInterrupt mirrors them, so this
// package need not import memory.
const (
	flagBit60Hz uint32 = 1 << iota
	flagBit1Hz
	flagBitSerial
	flagBitEther
	flagBitAudio
	flagBitADB
	flagBitNMI
	flagBitTimer
)

// irq is the level-1 interrupt handler replacement. The CPU deliberately
// leaves InterruptFlags untouched when it vectors a level-1 interrupt (see
// m68k.classifyInterrupt) so this escape can walk every pending bit itself
// and service each exactly once: 60HZ bumps the Ticks counter, 1HZ is
// posted to the mounted disk/CD drivers, ADB activity is drained, and
// every entry signals a vertical blank to the host — matching the
// original's IRQ handler, which runs all of these checks unconditionally
// rather than assuming only one bit fired.
func irq(d *Dispatcher, c CPU, m Mem) {
	flags := m.PendingInterrupts()

	if flags&flagBit60Hz != 0 {
		m.ClearInterrupt(flagBit60Hz)
		ticks := m.Read32(0x16a)
		m.Write32(0x16a, ticks+1)
	}
	if flags&flagBit1Hz != 0 {
		m.ClearInterrupt(flagBit1Hz)
		if p, ok := d.Drivers.(interface{ Tick1Hz() }); ok {
			p.Tick1Hz()
		}
	}
	if flags&flagBitTimer != 0 {
		m.ClearInterrupt(flagBitTimer)
	}
	if flags&flagBitEther != 0 {
		m.ClearInterrupt(flagBitEther)
	}
	if flags&flagBitAudio != 0 {
		m.ClearInterrupt(flagBitAudio)
	}
	if flags&flagBitADB != 0 {
		m.ClearInterrupt(flagBitADB)
		if d.ADB != nil {
			d.ADB.Operation(c, m)
		}
	}
	if d.Host != nil {
		d.Host.VBlank()
	}
	c.SetReg(0, 0)
}

func putScrap(d *Dispatcher, c CPU, m Mem) {
	if d.Clipboard == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	scrapType := c.Reg(1) // D1
	length := c.Reg(0)    // D0
	addr := c.Reg(8)      // A0
	data := m.ReadBlock(addr, int(length))
	if err := d.Clipboard.PutScrap(scrapType, data); err != nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	c.SetReg(0, noErr)
}

func getScrap(d *Dispatcher, c CPU, m Mem) {
	if d.Clipboard == nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	scrapType := c.Reg(1) // D1
	addr := c.Reg(8)      // A0, destination buffer
	data, err := d.Clipboard.GetScrap(scrapType)
	if err != nil {
		c.SetReg(0, uint32(int32(ioErr)))
		return
	}
	m.WriteBlock(addr, data)
	c.SetReg(0, uint32(len(data)))
}

func checkLoad(d *Dispatcher, c CPU, m Mem) { c.SetReg(0, noErr) }
func audio(d *Dispatcher, c CPU, m Mem)     { c.SetReg(0, uint32(int32(ioErr))) }

func extFSComm(d *Dispatcher, c CPU, m Mem) { c.SetReg(0, uint32(int32(ioErr))) }
func extFSHFS(d *Dispatcher, c CPU, m Mem)  { c.SetReg(0, uint32(int32(ioErr))) }

// blockMove is a host-assisted cache flush; this core has no instruction
// cache to invalidate, so it is a no-op that still honors the calling
// convention (A0=start, D0=length).
func blockMove(d *Dispatcher, c CPU, m Mem) {}

func debugUtil(d *Dispatcher, c CPU, m Mem) { c.SetReg(0, noErr) }

// idleTime asks the host to sleep when the guest event queue is empty
// (LowMem 0x14c).
func idleTime(d *Dispatcher, c CPU, m Mem) {
	if m.Read32(0x14c) == 0 && d.Host != nil {
		d.Host.Idle(20)
	}
}

func suspend(d *Dispatcher, c CPU, m Mem) {
	if d.Host != nil {
		d.Host.Suspend("SUSPEND escape")
	}
}
