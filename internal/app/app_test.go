package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"basiliskgo/internal/m68k"
	"basiliskgo/internal/memory"
	"basiliskgo/internal/trap"
)

func TestConfigDefaultsAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := NewConfig()
	c.Machine.RAMSize = 16 << 20
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded := &Config{}
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Machine.RAMSize != 16<<20 {
		t.Fatalf("RAMSize = %d, want %d", loaded.Machine.RAMSize, 16<<20)
	}
	if !loaded.IsLoaded() {
		t.Fatalf("expected IsLoaded to be true after a successful load")
	}
}

func TestConfigLoadFromMissingFileSeedsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.json")

	c := &Config{}
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if c.Window.Width != 800 {
		t.Fatalf("Window.Width = %d, want default 800", c.Window.Width)
	}
}

func TestConfigValidateRepairsZeroedFields(t *testing.T) {
	c := &Config{}
	c.validate()
	if c.Window.Width == 0 || c.Window.Height == 0 {
		t.Fatalf("validate did not repair zeroed window size")
	}
	if c.Machine.RAMSize == 0 {
		t.Fatalf("validate did not repair zeroed RAM size")
	}
	if c.Video.Backend == "" || c.Video.Filter == "" {
		t.Fatalf("validate did not repair zeroed video fields")
	}
}

func TestBusAdapterConvertsFaultKindByValue(t *testing.T) {
	mem, err := memory.New(memory.Config{RAMSize: 1 << 20, ROM: make([]byte, 512*1024)})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	bus := newBusAdapter(mem)

	_ = bus.Read8(0xFFFFFF) // unmapped: raises a bus error
	f := bus.TakeFault()
	if f.Kind != m68k.FaultBusError {
		t.Fatalf("TakeFault().Kind = %v, want FaultBusError", f.Kind)
	}
}

func TestSystemClockAdvancesMonotonically(t *testing.T) {
	c := newSystemClock()
	first := c.MicrosecondsSinceBoot()
	time.Sleep(time.Millisecond)
	second := c.MicrosecondsSinceBoot()
	if second <= first {
		t.Fatalf("MicrosecondsSinceBoot did not advance: %d -> %d", first, second)
	}
	if c.RealTimeClockSeconds() == 0 {
		t.Fatalf("RealTimeClockSeconds returned 0")
	}
}

func TestHostControlShutdownRequestsStop(t *testing.T) {
	app := &Application{stopCh: make(chan struct{})}
	mem, err := memory.New(memory.Config{RAMSize: 1 << 20, ROM: make([]byte, 512*1024)})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	app.bus = newBusAdapter(mem)
	app.cpu = m68k.New(app.bus)

	hc := newHostControl(app)
	hc.Shutdown()

	select {
	case <-app.stopCh:
	default:
		t.Fatalf("expected stopCh to be closed after Shutdown")
	}
	if !app.cpu.Quit() {
		t.Fatalf("expected CPU quit flag to be set after Shutdown")
	}
}

func TestCurrentFrameBufferReflectsVideoMode(t *testing.T) {
	mem, err := memory.New(memory.Config{RAMSize: 1 << 20, ROM: make([]byte, 512*1024)})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	if err := mem.SetVideoMode(320, 200, 8); err != nil {
		t.Fatalf("SetVideoMode: %v", err)
	}
	app := &Application{mem: mem}

	fb := app.currentFrameBuffer()
	if fb.Width != 320 || fb.Height != 200 || int(fb.Depth) != 8 {
		t.Fatalf("currentFrameBuffer = %+v, want 320x200x8", fb)
	}
	if len(fb.Pixels) != 320*200 {
		t.Fatalf("Pixels length = %d, want %d", len(fb.Pixels), 320*200)
	}
	if fb.CLUT[0] == fb.CLUT[255] {
		t.Fatalf("expected CLUT to be a gradient, got uniform entries")
	}
}

func TestEscapeBridgeDispatchesThroughDispatcher(t *testing.T) {
	mem, err := memory.New(memory.Config{RAMSize: 1 << 20, ROM: make([]byte, 512*1024)})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	bus := newBusAdapter(mem)
	cpu := m68k.New(bus)

	d := trap.New()
	bridge := newEscapeBridge(d, bus)
	cpu.SetEscapes(bridge)

	if cpu.Quit() {
		t.Fatalf("CPU should not start with quit requested")
	}
	// Ordinal 0x00 is EmulReturn, which requests the CPU stop.
	bridge.Dispatch(0x00, cpu)
	if !cpu.Quit() {
		t.Fatalf("expected EmulReturn dispatch to request quit")
	}
}

func TestBootRejectsUnrecognizedROMSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.rom")
	if err := os.WriteFile(path, make([]byte, 123), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	application := &Application{config: NewConfig(), initialized: true, stopCh: make(chan struct{})}
	application.drvSet = nil
	if err := application.Boot(path); err == nil {
		t.Fatalf("expected Boot to reject an unrecognized ROM size")
	}
}
