package memory

import "testing"

func testPlane(t *testing.T) *Plane {
	t.Helper()
	p, err := New(Config{RAMSize: 1 << 20, ROM: make([]byte, 512*1024)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestRAMSizeFloorAndRounding(t *testing.T) {
	if _, err := New(Config{RAMSize: 512 * 1024, ROM: make([]byte, 1024)}); err == nil {
		t.Fatalf("expected error for RAM below 1 MiB floor")
	}
	p, err := New(Config{RAMSize: (3 << 20) + 1, ROM: make([]byte, 1024)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.RAMSize() != 3<<20 {
		t.Fatalf("RAM size not rounded down to 1 MiB granule: got %d", p.RAMSize())
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	p := testPlane(t)
	p.Write32(0x2000, 0xCAFEBABE)
	if got := p.Read32(0x2000); got != 0xCAFEBABE {
		t.Fatalf("Read32 = %#x, want 0xCAFEBABE", got)
	}
	p.Write16(0x2010, 0xBEEF)
	if got := p.Read16(0x2010); got != 0xBEEF {
		t.Fatalf("Read16 = %#x, want 0xBEEF", got)
	}
	p.Write8(0x2020, 0x42)
	if got := p.Read8(0x2020); got != 0x42 {
		t.Fatalf("Read8 = %#x, want 0x42", got)
	}
}

func TestOddAddressRaisesAddressError(t *testing.T) {
	p := testPlane(t)
	_ = p.Read16(0x2001)
	f := p.TakeFault()
	if f.Kind != FaultAddressError || f.Addr != 0x2000 {
		t.Fatalf("expected address error at 0x2000, got %+v", f)
	}
}

func TestUnmappedAccessRaisesBusError(t *testing.T) {
	p := testPlane(t)
	_ = p.Read8(0xFFFFFF)
	f := p.TakeFault()
	if f.Kind != FaultBusError {
		t.Fatalf("expected bus error, got %+v", f)
	}
}

func TestROMLockPreventsWrites(t *testing.T) {
	p := testPlane(t)
	romBase := p.ROMBase()
	p.Write8(romBase, 0x11)
	if got := p.Read8(romBase); got != 0x11 {
		t.Fatalf("expected patch write to succeed before lock, got %#x", got)
	}
	p.LockROM()
	p.Write8(romBase, 0x22)
	f := p.TakeFault()
	if f.Kind != FaultBusError {
		t.Fatalf("expected bus error writing locked ROM, got %+v", f)
	}
	if got := p.Read8(romBase); got != 0x11 {
		t.Fatalf("locked ROM write should not have taken effect, got %#x", got)
	}
}

func TestInterruptFlagsAtomicOrAndClear(t *testing.T) {
	p := testPlane(t)
	p.SetInterrupt(Flag60Hz | FlagADB)
	if p.PendingInterrupts()&Flag60Hz == 0 {
		t.Fatalf("Flag60Hz not set")
	}
	p.ClearInterrupt(Flag60Hz)
	if p.PendingInterrupts()&Flag60Hz != 0 {
		t.Fatalf("Flag60Hz not cleared")
	}
	if p.PendingInterrupts()&FlagADB == 0 {
		t.Fatalf("FlagADB should remain set")
	}
}

func TestNewDefaultsVideoModeTo640x480x8(t *testing.T) {
	p := testPlane(t)
	w, h, depth, rowBytes := p.VideoMode()
	if w != 640 || h != 480 || depth != 8 {
		t.Fatalf("VideoMode = %dx%dx%d, want 640x480x8", w, h, depth)
	}
	if rowBytes != 640 {
		t.Fatalf("rowBytes = %d, want 640", rowBytes)
	}
	if got := len(p.VideoPixels()); got != 640*480 {
		t.Fatalf("VideoPixels length = %d, want %d", got, 640*480)
	}
}

func TestSetVideoModeRecomputesRowBytes(t *testing.T) {
	p := testPlane(t)
	if err := p.SetVideoMode(512, 342, 1); err != nil {
		t.Fatalf("SetVideoMode: %v", err)
	}
	_, _, _, rowBytes := p.VideoMode()
	if want := (512 + 7) / 8; rowBytes != want {
		t.Fatalf("rowBytes = %d, want %d", rowBytes, want)
	}
}

func TestSetVideoModeRejectsModeLargerThanRegion(t *testing.T) {
	p := testPlane(t)
	if err := p.SetVideoMode(1 << 20, 1 << 20, 32); err == nil {
		t.Fatalf("expected error for oversized video mode")
	}
}

func TestVideoRegionReadWriteThroughGuestAddress(t *testing.T) {
	p := testPlane(t)
	base := p.VideoBase()
	p.Write32(base, 0x11223344)
	if got := p.Read32(base); got != 0x11223344 {
		t.Fatalf("Read32 at video base = %#x, want 0x11223344", got)
	}
}

func TestDriveQueueAllocatesFreeNumbers(t *testing.T) {
	p := testPlane(t)
	p.PushDriveQueueElement(0x3000, DriveQueueElement{DQDrive: 1})
	p.PushDriveQueueElement(0x3010, DriveQueueElement{DQDrive: 2})
	if got := p.NextFreeDriveNumber(); got != 3 {
		t.Fatalf("NextFreeDriveNumber = %d, want 3", got)
	}
	elems := p.WalkDriveQueue()
	if len(elems) != 2 {
		t.Fatalf("WalkDriveQueue returned %d elements, want 2", len(elems))
	}
}
