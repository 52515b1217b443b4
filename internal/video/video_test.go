package video

import "testing"

func TestNewBackendDefaultsToEbitengine(t *testing.T) {
	b, err := NewBackend("")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.GetName() != "ebitengine" {
		t.Fatalf("GetName() = %q, want %q", b.GetName(), "ebitengine")
	}
}

func TestNewBackendHeadless(t *testing.T) {
	b, err := NewBackend(BackendHeadless)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if !b.IsHeadless() {
		t.Fatal("headless backend reports IsHeadless() = false")
	}
}

func TestHeadlessBackendLifecycle(t *testing.T) {
	b := NewHeadlessBackend()
	if err := b.Initialize(Config{WindowWidth: 640, WindowHeight: 480}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := b.Initialize(Config{}); err == nil {
		t.Fatal("double Initialize should fail")
	}

	win, err := b.CreateWindow("test", 640, 480)
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	w, h := win.GetSize()
	if w != 640 || h != 480 {
		t.Fatalf("GetSize() = (%d, %d), want (640, 480)", w, h)
	}
	if win.ShouldClose() {
		t.Fatal("freshly created window reports ShouldClose() = true")
	}

	fb := FrameBuffer{Width: 4, Height: 4, RowBytes: 4, Depth: Depth8Bit, Pixels: make([]byte, 16)}
	if err := win.RenderFrame(fb); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	hw := win.(*HeadlessWindow)
	if hw.frameCount != 1 {
		t.Fatalf("frameCount = %d, want 1", hw.frameCount)
	}
	if hw.lastFrame.Width != 4 {
		t.Fatalf("lastFrame.Width = %d, want 4", hw.lastFrame.Width)
	}

	if err := win.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if !win.ShouldClose() {
		t.Fatal("window should report ShouldClose() = true after Cleanup")
	}
}

func TestHeadlessBackendRejectsWindowBeforeInitialize(t *testing.T) {
	b := NewHeadlessBackend()
	if _, err := b.CreateWindow("test", 100, 100); err == nil {
		t.Fatal("CreateWindow before Initialize should fail")
	}
}
