package video

import (
	"image"
	"image/color"
	"testing"
)

func TestDecodeFrame8BitIndexed(t *testing.T) {
	fb := FrameBuffer{
		Width: 2, Height: 1, RowBytes: 2, Depth: Depth8Bit,
		Pixels: []byte{0x01, 0x02},
	}
	fb.CLUT[1] = color.RGBA{R: 10, G: 20, B: 30, A: 255}
	fb.CLUT[2] = color.RGBA{R: 40, G: 50, B: 60, A: 255}

	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
	decodeFrame(fb, dst)

	if got := dst.RGBAAt(0, 0); got != fb.CLUT[1] {
		t.Fatalf("pixel 0 = %v, want %v", got, fb.CLUT[1])
	}
	if got := dst.RGBAAt(1, 0); got != fb.CLUT[2] {
		t.Fatalf("pixel 1 = %v, want %v", got, fb.CLUT[2])
	}
}

func TestDecodeFrame1BitIndexed(t *testing.T) {
	fb := FrameBuffer{
		Width: 8, Height: 1, RowBytes: 1, Depth: Depth1Bit,
		Pixels: []byte{0b10110000},
	}
	fb.CLUT[0] = color.RGBA{R: 255, G: 255, B: 255, A: 255} // white
	fb.CLUT[1] = color.RGBA{A: 255}                         // black

	dst := image.NewRGBA(image.Rect(0, 0, 8, 1))
	decodeFrame(fb, dst)

	want := []bool{true, false, true, true, false, false, false, false} // bit set => black (CLUT[1])
	for x, bit := range want {
		got := dst.RGBAAt(x, 0)
		isBlack := got == fb.CLUT[1]
		if isBlack != bit {
			t.Fatalf("pixel %d black=%v, want %v", x, isBlack, bit)
		}
	}
}

func TestDecodeFrame16BitDirect(t *testing.T) {
	// RGB555 word: R=0x1f, G=0x00, B=0x1f -> magenta-ish, big-endian in the buffer.
	word := uint16(0x1f)<<10 | uint16(0)<<5 | uint16(0x1f)
	fb := FrameBuffer{
		Width: 1, Height: 1, RowBytes: 2, Depth: Depth16Bit,
		Pixels: []byte{byte(word >> 8), byte(word)},
	}
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	decodeFrame(fb, dst)

	got := dst.RGBAAt(0, 0)
	if got.R != 255 || got.B != 255 || got.G != 0 {
		t.Fatalf("pixel = %v, want full R/B, zero G", got)
	}
}

func TestDecodeFrame32BitDirect(t *testing.T) {
	fb := FrameBuffer{
		Width: 1, Height: 1, RowBytes: 4, Depth: Depth32Bit,
		Pixels: []byte{0x00, 0x11, 0x22, 0x33},
	}
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	decodeFrame(fb, dst)

	got := dst.RGBAAt(0, 0)
	if got.R != 0x11 || got.G != 0x22 || got.B != 0x33 {
		t.Fatalf("pixel = %v, want {0x11 0x22 0x33}", got)
	}
}

func TestDecodeFrameShortBufferDoesNotPanic(t *testing.T) {
	fb := FrameBuffer{Width: 4, Height: 4, RowBytes: 4, Depth: Depth8Bit, Pixels: []byte{1}}
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	decodeFrame(fb, dst) // must not panic despite pixels being far shorter than Width*Height
}

func TestExpand5to8Bounds(t *testing.T) {
	if got := expand5to8(0); got != 0 {
		t.Fatalf("expand5to8(0) = %d, want 0", got)
	}
	if got := expand5to8(0x1f); got != 255 {
		t.Fatalf("expand5to8(0x1f) = %d, want 255", got)
	}
}

func TestSetEmulatorUpdateFuncDrivesGameUpdate(t *testing.T) {
	game := &ebitengineGame{}
	win := &EbitengineWindow{game: game, running: true}
	game.window = win

	called := false
	win.SetEmulatorUpdateFunc(func() error {
		called = true
		return nil
	})

	if err := game.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !called {
		t.Fatal("emulator update func was not invoked by Update")
	}
}

func TestClipboardHostRoundTrip(t *testing.T) {
	win := &EbitengineWindow{}
	if _, ok := win.ReadText(); ok {
		t.Fatal("fresh window should report no clipboard text")
	}
	win.WriteText("hello")
	text, ok := win.ReadText()
	if !ok || text != "hello" {
		t.Fatalf("ReadText() = (%q, %v), want (%q, true)", text, ok, "hello")
	}
}
