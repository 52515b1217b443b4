package drivers

import "testing"

// fakeCPU and fakeMem mirror internal/trap's hand-rolled test stubs, kept
// local to this package's tests.
type fakeCPU struct {
	d [16]uint32
}

func (f *fakeCPU) Reg(n int) uint32              { return f.d[n] }
func (f *fakeCPU) SetReg(n int, v uint32)        { f.d[n] = v }
func (f *fakeCPU) PC() uint32                    { return 0 }
func (f *fakeCPU) SetPC(pc uint32)               {}
func (f *fakeCPU) SR() uint16                    { return 0 }
func (f *fakeCPU) SetSR(v uint16)                {}
func (f *fakeCPU) A7() uint32                    { return 0 }
func (f *fakeCPU) SetA7(v uint32)                {}
func (f *fakeCPU) RequestInterrupt(level uint8, vector *uint8) {}
func (f *fakeCPU) RequestQuit()                  {}

type fakeMem struct {
	ram   [1 << 16]byte
	flags uint32
}

func (m *fakeMem) Read8(addr uint32) uint8   { return m.ram[addr] }
func (m *fakeMem) Read16(addr uint32) uint16 { return uint16(m.ram[addr])<<8 | uint16(m.ram[addr+1]) }
func (m *fakeMem) Read32(addr uint32) uint32 { return uint32(m.Read16(addr))<<16 | uint32(m.Read16(addr+2)) }
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
func (m *fakeMem) PendingInterrupts() uint32  { return m.flags }
func (m *fakeMem) ClearInterrupt(bits uint32) { m.flags &^= bits }

func refNumFor(unit int) int16 { return int16(^unit) }

func TestSetMountAndPrimeRoundTrip(t *testing.T) {
	s := NewSet()
	img := &Image{Name: "disk.img", Data: make([]byte, 4096), BlockSize: 512}
	unit := s.Mount("Disk", img)
	if unit != 0 {
		t.Fatalf("Mount returned unit %d, want 0", unit)
	}

	m := &fakeMem{}
	const pb = 0x1000
	m.Write16(pb+pbIORefNum, uint16(refNumFor(unit)))
	m.Write32(pb+pbIOBuffer, 0x2000)
	m.Write32(pb+pbIOReqCount, 4)
	m.Write32(pb+pbIOPosOff, 0)
	copy(img.Data[:4], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	if res := s.Prime("Disk", pb, m); res != noErr {
		t.Fatalf("Prime read = %d, want noErr", res)
	}
	if got := m.ReadBlock(0x2000, 4); string(got) != "\xDE\xAD\xBE\xEF" {
		t.Fatalf("Prime did not copy image data into the guest buffer: %x", got)
	}
	if got := m.Read32(pb + pbIOActCount); got != 4 {
		t.Fatalf("ioActCount = %d, want 4", got)
	}
}

func TestSetPrimeRejectsWriteToReadOnlyImage(t *testing.T) {
	s := NewSet()
	img := &Image{Name: "cd.img", Data: make([]byte, 2048), BlockSize: 2048, ReadOnly: true}
	unit := s.Mount("AppleCD", img)

	m := &fakeMem{}
	const pb = 0x1000
	m.Write16(pb+pbIORefNum, uint16(refNumFor(unit)))
	m.Write32(pb+pbIOBuffer, 0x2000)
	m.Write32(pb+pbIOReqCount, 4)
	m.Write16(pb+pbIOPosMode, 0x80) // write bit

	if res := s.Prime("AppleCD", pb, m); res != wrPermErr {
		t.Fatalf("Prime write to read-only image = %d, want wrPermErr", res)
	}
}

func TestSetControlEjectMarksImageEjected(t *testing.T) {
	s := NewSet()
	img := &Image{Name: "floppy.img", Data: make([]byte, 800 * 1024), BlockSize: 512}
	unit := s.Mount("Sony", img)

	m := &fakeMem{}
	const pb = 0x1000
	m.Write16(pb+pbIORefNum, uint16(refNumFor(unit)))
	m.Write16(pb+pbCSCode, 7) // eject

	if res := s.Control("Sony", pb, m); res != noErr {
		t.Fatalf("Control eject = %d, want noErr", res)
	}
	if !img.Ejected {
		t.Fatalf("expected image to be marked ejected")
	}

	m.Write16(pb+pbIOPosOff, 0)
	if res := s.Prime("Sony", pb, m); res != offLinErr {
		t.Fatalf("Prime on an ejected image = %d, want offLinErr", res)
	}
}

func TestSetStatusReportsBlockCount(t *testing.T) {
	s := NewSet()
	img := &Image{Name: "disk.img", Data: make([]byte, 4096), BlockSize: 512}
	unit := s.Mount("Disk", img)

	m := &fakeMem{}
	const pb = 0x1000
	m.Write16(pb+pbIORefNum, uint16(refNumFor(unit)))
	m.Write16(pb+pbCSCode, 1)

	if res := s.Status("Disk", pb, m); res != noErr {
		t.Fatalf("Status = %d, want noErr", res)
	}
	if got := m.Read32(pb + pbIOBuffer); got != 8 {
		t.Fatalf("reported block count = %d, want 8", got)
	}
}

func TestSCSIBusSelectReadWriteRoundTrip(t *testing.T) {
	b := NewSCSIBus()
	img := &Image{Name: "scsi0.img", Data: make([]byte, 1024)}
	copy(img.Data[:4], []byte{1, 2, 3, 4})
	b.AddTarget(0, img)

	c := &fakeCPU{}
	m := &fakeMem{}

	c.SetReg(1, 0)
	if res := b.Dispatch(scsiSelect, c, m); res != scsiStatGood {
		t.Fatalf("Select = %d, want scsiStatGood", res)
	}

	const tib = 0x3000
	m.Write32(tib, 0x2000) // buffer
	m.Write32(tib+4, 4)    // length
	c.SetReg(1, tib)
	if res := b.Dispatch(scsiRead, c, m); res != scsiStatGood {
		t.Fatalf("Read = %d, want scsiStatGood", res)
	}
	if got := m.ReadBlock(0x2000, 4); got[0] != 1 || got[3] != 4 {
		t.Fatalf("Read did not transfer target data: %v", got)
	}
}

func TestSCSIBusSelectUnknownTargetFails(t *testing.T) {
	b := NewSCSIBus()
	c := &fakeCPU{}
	c.SetReg(1, 5)
	if res := b.Dispatch(scsiSelect, c, &fakeMem{}); res != -1 {
		t.Fatalf("Select on unattached id = %d, want -1", res)
	}
}

func TestADBKeyboardTalkDrainsQueuedEvents(t *testing.T) {
	a := NewADB()
	a.KeyDown(0x00) // 'A'
	a.KeyUp(0x00)

	m := &fakeMem{}
	c := &fakeCPU{}
	// D0: address=keyboard(2)<<4 | cmd=Talk(3)<<2; A0 (reg 8) = buffer.
	c.SetReg(0, uint32(adbAddrKeyboard)<<4|uint32(adbCmdTalk)<<2)
	c.SetReg(8, 0x3000)

	a.Operation(c, m)
	if got := m.Read8(0x3000); got != 0x00 {
		t.Fatalf("first talk byte = %#x, want 0x00 (key-down A)", got)
	}

	a.Operation(c, m)
	if got := m.Read8(0x3000); got != 0x80 {
		t.Fatalf("second talk byte = %#x, want 0x80 (key-up A)", got)
	}
}

func TestADBMouseMoveClampsToSigned7Bit(t *testing.T) {
	a := NewADB()
	a.MouseMoved(1000, -1000)
	if a.mouseDX != 63 || a.mouseDY != -64 {
		t.Fatalf("mouse delta not clamped: dx=%d dy=%d", a.mouseDX, a.mouseDY)
	}
}
