// Package memory implements the flat, big-endian guest address space shared
// by every other component of the emulator: the Memory Plane.
package memory

import (
	"fmt"
	"sync/atomic"
)

// Interrupt flag bits, mutated atomically by producers running on other
// goroutines (the 60.15 Hz tick, host-event translation, audio, ADB,
// Ethernet). The CPU loop is the sole consumer.
const (
	Flag60Hz uint32 = 1 << iota
	Flag1Hz
	FlagSerial
	FlagEther
	FlagAudio
	FlagADB
	FlagNMI
	FlagTimer
)

// FaultKind identifies why an access could not complete.
type FaultKind int

const (
	// FaultNone indicates the access succeeded.
	FaultNone FaultKind = iota
	// FaultBusError is raised for accesses to unmapped addresses (vector 2).
	FaultBusError
	// FaultAddressError is raised for misaligned word/long accesses (vector 3).
	FaultAddressError
)

// Fault describes a failed memory access, queued for the CPU to turn into
// an exception on its next instruction boundary.
type Fault struct {
	Kind FaultKind
	Addr uint32 // offending address (address errors: low bit cleared)
	PC   uint32 // PC of the instruction that caused the fault
}

const (
	minRAMSize   = 1 << 20        // 1 MiB minimum
	ramGranule   = 1 << 20        // RAM size is rounded down to 1 MiB alignment
	scratchSize  = 64 * 1024      // 64 KiB scratch buffer
	lowMemLimit  = 0x2000         // zeroed at boot except the 8-byte reset vector
	fakeZeroPage = 0xccaa         // offset within 32-bit clean ROMs patched to point at scratch

	// videoCapacity bounds the video frame buffer region: enough for the
	// largest mode this core advertises (1024x768 at 32 bits per pixel).
	videoCapacity = 1024 * 768 * 4
)

// region is a contiguous, independently based span of the guest address
// space.
type region struct {
	base     uint32
	data     []byte
	writable bool
}

func (r region) contains(addr uint32) bool {
	return addr >= r.base && addr-r.base < uint32(len(r.data))
}

// Plane is the Memory Plane: RAM, ROM, and the scratch buffer presented as
// one big-endian guest address space, plus the atomic interrupt flag word
// shared across every interrupt-producing goroutine.
type Plane struct {
	ram     region
	rom     region
	scratch region

	// InterruptFlags is mutated with atomic OR/AND by any thread; the CPU
	// loop reads it between instructions. Bits are defined above.
	InterruptFlags atomic.Uint32

	// instrFetchPC tracks the address of the most recent instruction fetch,
	// used to stamp address-error faults with the faulting PC.
	instrFetchPC uint32

	pendingFault Fault

	video      region
	videoW     int
	videoH     int
	videoDepth int
	videoRow   int
}

// Config bounds the Memory Plane at construction time.
type Config struct {
	RAMSize uint32 // requested RAM size; rounded down to 1 MiB, floored at 1 MiB
	ROM     []byte // patched or unpatched ROM image (512 KiB, 1 MiB, or 4 MiB)
}

// New allocates a Memory Plane. RAM requests below the 1 MiB floor are
// rejected; requests are rounded down to 1 MiB granularity, never rounded
// up, so a constrained host allocator is honored rather than silently
// exceeded.
func New(cfg Config) (*Plane, error) {
	size := (cfg.RAMSize / ramGranule) * ramGranule
	if size < minRAMSize {
		return nil, fmt.Errorf("memory: requested RAM size %d below 1 MiB floor", cfg.RAMSize)
	}
	if len(cfg.ROM) == 0 {
		return nil, fmt.Errorf("memory: empty ROM image")
	}

	romBase := size
	scratchBase := romBase + uint32(len(cfg.ROM))
	videoBase := scratchBase + scratchSize

	p := &Plane{
		ram:     region{base: 0, data: make([]byte, size), writable: true},
		rom:     region{base: romBase, data: cfg.ROM, writable: true}, // writable during patching
		scratch: region{base: scratchBase, data: make([]byte, scratchSize), writable: true},
		video:   region{base: videoBase, data: make([]byte, videoCapacity), writable: true},
	}
	p.SetVideoMode(640, 480, 8)

	// Zero LowMem globals except the 8-byte reset vector, which is read
	// from ROM offset 0 by convention and left intact by callers that seed
	// it explicitly; we only guarantee the region starts zeroed here.
	for i := 8; i < lowMemLimit && i < len(p.ram.data); i++ {
		p.ram.data[i] = 0
	}

	return p, nil
}

// RAMBase returns the guest base address of RAM (always 0).
func (p *Plane) RAMBase() uint32 { return p.ram.base }

// RAMSize returns the size in bytes of the RAM region.
func (p *Plane) RAMSize() uint32 { return uint32(len(p.ram.data)) }

// ROMBase returns the guest base address of the ROM image.
func (p *Plane) ROMBase() uint32 { return p.rom.base }

// ROMSize returns the size in bytes of the ROM image.
func (p *Plane) ROMSize() uint32 { return uint32(len(p.rom.data)) }

// ScratchBase returns the guest base address of the scratch buffer.
func (p *Plane) ScratchBase() uint32 { return p.scratch.base }

// ScratchMidpoint returns the address the fake-zero-page handle at ROM
// offset 0xccaa is rewritten to point at.
func (p *Plane) ScratchMidpoint() uint32 { return p.scratch.base + scratchSize/2 }

// LockROM marks the ROM region read-only, to be called once the ROM Patcher
// has finished rewriting it. Writes after this point are bus errors, per
// the "logically read-only from emulated code" requirement.
func (p *Plane) LockROM() { p.rom.writable = false }

// ROMWritable reports whether the ROM region currently accepts writes
// (true only during the one-shot patch pass).
func (p *Plane) ROMWritable() bool { return p.rom.writable }

// regionFor returns the region covering addr, or nil if unmapped.
func (p *Plane) regionFor(addr uint32) *region {
	switch {
	case p.ram.contains(addr):
		return &p.ram
	case p.rom.contains(addr):
		return &p.rom
	case p.scratch.contains(addr):
		return &p.scratch
	case p.video.contains(addr):
		return &p.video
	}
	return nil
}

// VideoBase returns the guest base address of the video frame buffer
// region (the address a Slot ROM video sResource's FrameBufferBase entry
// should point at).
func (p *Plane) VideoBase() uint32 { return p.video.base }

// VideoSize returns the capacity in bytes of the video frame buffer
// region, regardless of the currently selected mode.
func (p *Plane) VideoSize() uint32 { return uint32(len(p.video.data)) }

// SetVideoMode selects the frame buffer's width, height, and pixel depth
// (1, 2, 4, 8, 16, or 32 bits per pixel), computing a tightly packed row
// stride. It rejects modes that would overrun the fixed-size video region.
func (p *Plane) SetVideoMode(width, height, depth int) error {
	switch depth {
	case 1, 2, 4, 8, 16, 32:
	default:
		return fmt.Errorf("memory: unsupported video depth %d", depth)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("memory: invalid video mode %dx%d", width, height)
	}
	rowBytes := (width*depth + 7) / 8
	if need := rowBytes * height; need > len(p.video.data) {
		return fmt.Errorf("memory: video mode %dx%d@%d needs %d bytes, region holds %d", width, height, depth, need, len(p.video.data))
	}
	p.videoW, p.videoH, p.videoDepth, p.videoRow = width, height, depth, rowBytes
	return nil
}

// VideoMode returns the currently selected frame buffer geometry.
func (p *Plane) VideoMode() (width, height, depth, rowBytes int) {
	return p.videoW, p.videoH, p.videoDepth, p.videoRow
}

// VideoPixels returns the frame buffer bytes actually in use by the
// current mode (width/height/depth), a prefix of the full video region.
func (p *Plane) VideoPixels() []byte {
	n := p.videoRow * p.videoH
	if n > len(p.video.data) {
		n = len(p.video.data)
	}
	return p.video.data[:n]
}

// TakeFault returns and clears the most recently raised fault. The CPU
// polls this once per instruction boundary.
func (p *Plane) TakeFault() Fault {
	f := p.pendingFault
	p.pendingFault = Fault{}
	return f
}

func (p *Plane) raiseBusError(addr uint32) {
	p.pendingFault = Fault{Kind: FaultBusError, Addr: addr}
}

func (p *Plane) raiseAddressError(addr uint32) {
	p.pendingFault = Fault{Kind: FaultAddressError, Addr: addr &^ 1, PC: p.instrFetchPC}
}

// Read8 reads a single byte. Bus errors on unmapped addresses.
func (p *Plane) Read8(addr uint32) uint8 {
	r := p.regionFor(addr)
	if r == nil {
		p.raiseBusError(addr)
		return 0xFF
	}
	return r.data[addr-r.base]
}

// Write8 writes a single byte. Bus errors on unmapped or locked-ROM
// addresses.
func (p *Plane) Write8(addr uint32, v uint8) {
	r := p.regionFor(addr)
	if r == nil || !r.writable {
		p.raiseBusError(addr)
		return
	}
	r.data[addr-r.base] = v
}

// Read16 reads a big-endian 16-bit word. Odd addresses raise an address
// error (vector 3).
func (p *Plane) Read16(addr uint32) uint16 {
	if addr&1 != 0 {
		p.raiseAddressError(addr)
		return 0xFFFF
	}
	r := p.regionFor(addr)
	if r == nil || addr+1-r.base >= uint32(len(r.data)) {
		p.raiseBusError(addr)
		return 0xFFFF
	}
	off := addr - r.base
	return uint16(r.data[off])<<8 | uint16(r.data[off+1])
}

// Write16 writes a big-endian 16-bit word.
func (p *Plane) Write16(addr uint32, v uint16) {
	if addr&1 != 0 {
		p.raiseAddressError(addr)
		return
	}
	r := p.regionFor(addr)
	if r == nil || !r.writable || addr+1-r.base >= uint32(len(r.data)) {
		p.raiseBusError(addr)
		return
	}
	off := addr - r.base
	r.data[off] = byte(v >> 8)
	r.data[off+1] = byte(v)
}

// Read32 reads a big-endian 32-bit long. Odd addresses raise an address
// error.
func (p *Plane) Read32(addr uint32) uint32 {
	if addr&1 != 0 {
		p.raiseAddressError(addr)
		return 0xFFFFFFFF
	}
	hi := p.Read16(addr)
	lo := p.Read16(addr + 2)
	return uint32(hi)<<16 | uint32(lo)
}

// Write32 writes a big-endian 32-bit long.
func (p *Plane) Write32(addr uint32, v uint32) {
	if addr&1 != 0 {
		p.raiseAddressError(addr)
		return
	}
	p.Write16(addr, uint16(v>>16))
	p.Write16(addr+2, uint16(v))
}

// ReadInstruction fetches the 16-bit opcode word at pc for the CPU's fetch
// stage. It is the only accessor that may legitimately observe the
// fake-zero-page handle the ROM Patcher installs at guest address 0.
func (p *Plane) ReadInstruction(pc uint32) uint16 {
	p.instrFetchPC = pc
	return p.Read16(pc)
}

// ReadBlock copies length bytes starting at addr, for bulk operations such
// as ROM pattern matching and DMA-style block moves. Returns a short slice
// if the region ends early; callers that need exact-length reads should
// check len(result).
func (p *Plane) ReadBlock(addr uint32, length int) []byte {
	r := p.regionFor(addr)
	if r == nil {
		return nil
	}
	off := int(addr - r.base)
	end := off + length
	if end > len(r.data) {
		end = len(r.data)
	}
	if off > end {
		return nil
	}
	out := make([]byte, end-off)
	copy(out, r.data[off:end])
	return out
}

// WriteBlock writes data starting at addr, bypassing the read-only ROM
// check; used exclusively by the ROM Patcher during its one-shot pass
// before LockROM is called.
func (p *Plane) WriteBlock(addr uint32, data []byte) error {
	r := p.regionFor(addr)
	if r == nil {
		return fmt.Errorf("memory: WriteBlock at %#06x: unmapped", addr)
	}
	off := int(addr - r.base)
	if off+len(data) > len(r.data) {
		return fmt.Errorf("memory: WriteBlock at %#06x: %d bytes overruns region", addr, len(data))
	}
	copy(r.data[off:off+len(data)], data)
	return nil
}

// RawROM exposes the underlying ROM bytes for the patcher's pattern
// matching. Callers must not retain the slice past LockROM.
func (p *Plane) RawROM() []byte { return p.rom.data }

// SetInterrupt atomically ORs bits into InterruptFlags. Producers must set
// their bit before signaling the CPU and must clear it before raising the
// same interrupt again).
func (p *Plane) SetInterrupt(bits uint32) {
	p.InterruptFlags.Or(bits)
}

// ClearInterrupt atomically clears bits from InterruptFlags.
func (p *Plane) ClearInterrupt(bits uint32) {
	p.InterruptFlags.And(^bits)
}

// PendingInterrupts returns the current interrupt flag word.
func (p *Plane) PendingInterrupts() uint32 {
	return p.InterruptFlags.Load()
}
