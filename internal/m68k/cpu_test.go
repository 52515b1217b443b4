package m68k

import "testing"

// stubBus is a flat 1MB RAM backing store satisfying the Bus interface,
// enough to drive the CPU through vector tables, code, and a stack.
type stubBus struct {
	mem      [1 << 20]byte
	fault    Fault
	irq      uint32
	accepted uint32
}

func newStubBus() *stubBus { return &stubBus{} }

func (b *stubBus) Read8(addr uint32) uint8   { return b.mem[addr&0xFFFFF] }
func (b *stubBus) Read16(addr uint32) uint16 {
	a := addr & 0xFFFFF
	return uint16(b.mem[a])<<8 | uint16(b.mem[a+1])
}
func (b *stubBus) Read32(addr uint32) uint32 {
	return uint32(b.Read16(addr))<<16 | uint32(b.Read16(addr+2))
}
func (b *stubBus) Write8(addr uint32, v uint8) { b.mem[addr&0xFFFFF] = v }
func (b *stubBus) Write16(addr uint32, v uint16) {
	a := addr & 0xFFFFF
	b.mem[a] = byte(v >> 8)
	b.mem[a+1] = byte(v)
}
func (b *stubBus) Write32(addr uint32, v uint32) {
	b.Write16(addr, uint16(v>>16))
	b.Write16(addr+2, uint16(v))
}
func (b *stubBus) ReadInstruction(pc uint32) uint16 { return b.Read16(pc) }
func (b *stubBus) TakeFault() Fault {
	f := b.fault
	b.fault = Fault{}
	return f
}
func (b *stubBus) PendingInterrupts() uint32   { return b.irq }
func (b *stubBus) ClearInterrupt(bits uint32)  { b.irq &^= bits; b.accepted |= bits }

// newTestCPU builds a CPU with SSP=0x10000, PC=0x1000, and every exception
// vector pointed at a RTE trampoline at 0x2000 so unexpected exceptions
// don't run off into zeroed memory.
func newTestCPU() (*CPU, *stubBus) {
	bus := newStubBus()
	for v := 0; v < 256; v++ {
		bus.Write32(uint32(v*4), 0x2000)
	}
	bus.Write16(0x2000, 0x4E73) // RTE
	bus.Write32(0, 0x10000)     // reset SSP
	bus.Write32(4, 0x1000)      // reset PC
	c := New(bus)
	c.LoadFromVector()
	return c, bus
}

func TestStepAdvancesOrExcepts(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write16(0x1000, 0x4E71) // NOP
	startPC := c.Registers().PC
	c.Step()
	if c.Registers().PC != startPC+2 {
		t.Fatalf("NOP should advance PC by 2, got %#x -> %#x", startPC, c.Registers().PC)
	}

	bus.Write16(0x1002, 0xFFFF) // illegal/unassigned opcode
	c.Step()
	if c.Registers().PC != 0x2000 {
		t.Fatalf("illegal opcode should vector to the installed handler, PC=%#x", c.Registers().PC)
	}
}

func TestStackPointerAgreesWithSAndM(t *testing.T) {
	c, _ := newTestCPU()
	reg := c.Registers()
	if reg.SR&flagS == 0 {
		t.Fatal("reset should start in supervisor mode")
	}
	if reg.SR&flagM != 0 && c.reg.A[7] != reg.MSP {
		t.Fatal("A7 must equal MSP when S=1,M=1")
	}
	if reg.SR&flagM == 0 && c.reg.A[7] != reg.ISP {
		t.Fatal("A7 must equal ISP when S=1,M=0")
	}
}

func TestMoveqSetsFlagsAndClearsUpperBits(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write16(0x1000, 0x70FF) // MOVEQ #-1,D0
	c.reg.D[0] = 0x12345678
	c.Step()
	if c.reg.D[0] != 0xFFFFFFFF {
		t.Fatalf("MOVEQ #-1 should sign-extend to all ones, got %#x", c.reg.D[0])
	}
	if c.reg.SR&flagN == 0 {
		t.Fatal("MOVEQ #-1 should set N")
	}
}

func TestDivsLongDivideByZeroRaisesVector5(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write32(5*4, 0x3000) // custom divide-by-zero vector
	bus.Write16(0x3000, 0x4E73)

	bus.Write16(0x1000, 0x4C7C) // DIVS.L #0,D1:D0 style: <ea>=immediate
	bus.Write16(0x1002, 0x0800) // ext word: dq=0,dr=0,signed,32:32
	bus.Write32(0x1004, 0)      // immediate divisor = 0
	c.reg.D[0] = 100

	beforePC := c.Registers().PC
	c.Step()
	if c.Registers().PC != 0x3000 {
		t.Fatalf("division by zero should vector through vector 5, PC=%#x", c.Registers().PC)
	}
	_ = beforePC
}

func TestDivsLongOverflowSetsVAndLeavesDestUnchanged(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write16(0x1000, 0x4C7C)
	bus.Write16(0x1002, 0x0800)
	bus.Write32(0x1004, 1) // divisor 1: 0x7FFFFFFF / 1 fits in 32 bits, no overflow
	c.reg.D[0] = 0x7FFFFFFF
	c.reg.SR &^= flagV
	c.Step()
	// 0x7FFFFFFF / 1 does not overflow; use a case that does: INT32_MIN / -1
	c2, bus2 := newTestCPU()
	bus2.Write16(0x1000, 0x4C7C)
	bus2.Write16(0x1002, 0x0800)
	bus2.Write32(0x1004, 0xFFFFFFFF) // divisor -1
	c2.reg.D[0] = 0x80000000         // INT32_MIN
	dest := c2.reg.D[0]
	c2.Step()
	if c2.reg.SR&flagV == 0 {
		t.Fatal("INT32_MIN / -1 must set V (quotient overflows 32 bits)")
	}
	if c2.reg.D[0] != dest {
		t.Fatalf("overflowing DIVS.L must leave the destination register unchanged, got %#x", c2.reg.D[0])
	}
}

func TestMoveWordToOddAddressRaisesAddressError(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write32(3*4, 0x4000) // address error vector
	bus.Write16(0x4000, 0x4E73)

	bus.Write16(0x1000, 0x31C0) // MOVE.W D0,(xxx).W style placeholder not used; force fault via bus
	// Simulate the bus reporting an address-error fault directly, as the
	// real memory plane would for a word write to an odd address.
	bus.fault = Fault{Kind: FaultAddressError, Addr: 0x2001, PC: c.Registers().PC}
	c.Step()
	if c.Registers().PC != 0x4000 {
		t.Fatalf("odd-address word access should vector through vector 3, PC=%#x", c.Registers().PC)
	}
}

func TestRteUnknownFormatRaisesFormatError(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write32(14*4, 0x5000) // format error vector
	bus.Write16(0x5000, 0x4E73)

	// Hand-build a bogus exception frame with an unrecognized format nibble.
	// RTE pops SR, then PC, then the format word, so the frame must be
	// pushed in the opposite order (format deepest, SR on top).
	c.reg.A[7] = 0x9000
	c.pushWord(0xF000) // format nibble 0xF is unassigned
	c.pushLong(0x1234)
	c.pushWord(0x2000)
	bus.Write16(0x1000, 0x4E73)
	c.Step()
	if c.Registers().PC != 0x5000 {
		t.Fatalf("RTE with an unrecognized frame format should raise vector 14, PC=%#x", c.Registers().PC)
	}
}

func TestStopParksUntilInterrupt(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write16(0x1000, 0x4E72) // STOP
	bus.Write16(0x1002, 0x2000) // new SR: supervisor, interrupt mask 0
	c.Step()
	if !c.Stopped() {
		t.Fatal("STOP should park the CPU")
	}
	cyclesBefore := c.Cycles()
	c.Step()
	if c.Cycles() == cyclesBefore {
		t.Fatal("a stopped CPU should still consume idle cycles each Step")
	}

	c.RequestInterrupt(LevelNMI, nil)
	c.Step()
	if c.Stopped() {
		t.Fatal("a serviced interrupt should clear STOP")
	}
}

type stubEscapes struct {
	lastOrdinal byte
	calls       int
}

func (s *stubEscapes) Dispatch(ordinal byte, c *CPU) {
	s.lastOrdinal = ordinal
	s.calls++
	c.SetReg(0, 0x1234)
}

func TestEmulOpDispatchesToEscapesInsteadOfFaulting(t *testing.T) {
	c, bus := newTestCPU()
	esc := &stubEscapes{}
	c.SetEscapes(esc)

	bus.Write16(c.reg.PC, 0x7142) // EMUL_OP ordinal 0x42

	c.Step()

	if esc.calls != 1 {
		t.Fatalf("Dispatch called %d times, want 1", esc.calls)
	}
	if esc.lastOrdinal != 0x42 {
		t.Fatalf("ordinal = %#x, want 0x42", esc.lastOrdinal)
	}
	if c.Reg(0) != 0x1234 {
		t.Fatalf("D0 = %#x, want 0x1234", c.Reg(0))
	}
}

func TestEmulOpWithoutEscapesRaisesIllegalInstruction(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write16(c.reg.PC, 0x7142)

	c.Step()

	if c.reg.SR&flagS == 0 {
		t.Fatal("illegal instruction exception should leave CPU in supervisor mode")
	}
}

func TestConditionCodeTruthTable(t *testing.T) {
	c, _ := newTestCPU()
	cases := []struct {
		name string
		cc   uint16
		sr   uint16
		want bool
	}{
		{"EQ true", 7, flagZ, true},
		{"EQ false", 7, 0, false},
		{"NE", 6, 0, true},
		{"CS", 5, flagC, true},
		{"CC", 4, 0, true},
		{"PL", 10, 0, true},
		{"MI", 11, flagN, true},
		{"GE n=v=0", 12, 0, true},
		{"GE n=1 v=1", 12, flagN | flagV, true},
		{"LT n xor v", 13, flagN, true},
		{"GT", 14, 0, true},
		{"LE z", 15, flagZ, true},
	}
	for _, tc := range cases {
		c.reg.SR = tc.sr
		if got := c.testCondition(tc.cc); got != tc.want {
			t.Errorf("%s: testCondition(%d) with SR=%#x = %v, want %v", tc.name, tc.cc, tc.sr, got, tc.want)
		}
	}
}
