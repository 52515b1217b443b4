package trap

import "testing"

type fakeCPU struct {
	d      [16]uint32
	pc     uint32
	sr     uint16
	a7     uint32
	quit   bool
	pend   *uint8
	pendLv uint8
}

func (f *fakeCPU) Reg(n int) uint32     { return f.d[n] }
func (f *fakeCPU) SetReg(n int, v uint32) { f.d[n] = v }
func (f *fakeCPU) PC() uint32            { return f.pc }
func (f *fakeCPU) SetPC(pc uint32)       { f.pc = pc }
func (f *fakeCPU) SR() uint16            { return f.sr }
func (f *fakeCPU) SetSR(v uint16)        { f.sr = v }
func (f *fakeCPU) A7() uint32            { return f.a7 }
func (f *fakeCPU) SetA7(v uint32)        { f.a7 = v }
func (f *fakeCPU) RequestInterrupt(level uint8, vector *uint8) {
	f.pendLv, f.pend = level, vector
}
func (f *fakeCPU) RequestQuit() { f.quit = true }

type fakeMem struct {
	ram   [1 << 16]byte
	flags uint32
}

func (m *fakeMem) Read8(addr uint32) uint8    { return m.ram[addr] }
func (m *fakeMem) Read16(addr uint32) uint16  { return uint16(m.ram[addr])<<8 | uint16(m.ram[addr+1]) }
func (m *fakeMem) Read32(addr uint32) uint32  { return uint32(m.Read16(addr))<<16 | uint32(m.Read16(addr+2)) }
func (m *fakeMem) Write8(addr uint32, v uint8) { m.ram[addr] = v }
func (m *fakeMem) Write16(addr uint32, v uint16) {
	m.ram[addr] = byte(v >> 8)
	m.ram[addr+1] = byte(v)
}
func (m *fakeMem) Write32(addr uint32, v uint32) {
	m.Write16(addr, uint16(v>>16))
	m.Write16(addr+2, uint16(v))
}
func (m *fakeMem) ReadBlock(addr uint32, length int) []byte {
	out := make([]byte, length)
	copy(out, m.ram[addr:])
	return out
}
func (m *fakeMem) WriteBlock(addr uint32, data []byte) error {
	copy(m.ram[addr:], data)
	return nil
}
func (m *fakeMem) RAMBase() uint32 { return 0 }
func (m *fakeMem) RAMSize() uint32 { return 1 << 16 }
func (m *fakeMem) PendingInterrupts() uint32 { return m.flags }
func (m *fakeMem) ClearInterrupt(bits uint32) { m.flags &^= bits }

type fakeXPRAM struct {
	bytes [256]byte
}

func (x *fakeXPRAM) ReadByte(offset uint8) byte     { return x.bytes[offset] }
func (x *fakeXPRAM) WriteByte(offset uint8, v byte) { x.bytes[offset] = v }

func TestUnknownEscapeReturnsIOErr(t *testing.T) {
	d := New()
	c, m := &fakeCPU{}, &fakeMem{}
	d.Dispatch(0xFE, c, m)
	if int32(c.Reg(0)) != ioErr {
		t.Fatalf("unknown escape should return ioErr in D0, got %d", int32(c.Reg(0)))
	}
}

func TestXPRAMRoundTrip(t *testing.T) {
	d := New()
	xp := &fakeXPRAM{}
	d.XPRAM = xp
	c, m := &fakeCPU{}, &fakeMem{}

	c.SetReg(0, 0x10) // offset
	c.SetReg(1, 0x42) // value
	d.Dispatch(ordXPRAMWrite, c, m)

	c2 := &fakeCPU{}
	c2.SetReg(0, 0x10)
	d.Dispatch(ordXPRAMRead, c2, m)
	if c2.Reg(0) != 0x42 {
		t.Fatalf("XPRAM round-trip: want 0x42, got %#x", c2.Reg(0))
	}
}

func TestPanicInHandlerReturnsIOErrNotCrash(t *testing.T) {
	d := New()
	d.register(0x50, func(d *Dispatcher, c CPU, m Mem) {
		panic("collaborator exploded")
	})
	c, m := &fakeCPU{}, &fakeMem{}
	d.Dispatch(0x50, c, m)
	if int32(c.Reg(0)) != ioErr {
		t.Fatalf("a panicking handler must be recovered into ioErr, got %d", int32(c.Reg(0)))
	}
}

func TestShutdownRequestsQuit(t *testing.T) {
	d := New()
	c, m := &fakeCPU{}, &fakeMem{}
	d.Dispatch(ordShutdown, c, m)
	if !c.quit {
		t.Fatal("SHUTDOWN escape must request CPU quit")
	}
}

func TestFixMemSizeWritesBothSlots(t *testing.T) {
	d := New()
	c, m := &fakeCPU{}, &fakeMem{}
	d.Dispatch(ordFixMemSize, c, m)
	if m.Read32(0x1ef4) != m.RAMSize() || m.Read32(0x1ef8) != m.RAMSize() {
		t.Fatal("FIX_MEMSIZE must write the RAM size into both LowMem slots")
	}
}
