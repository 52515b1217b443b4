package video

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitengineBackend implements Backend using Ebitengine.
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *ebitengineGame
}

// EbitengineWindow implements Window for Ebitengine.
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width, height      int
	game               *ebitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error

	clipboardText string
	hasClipboard  bool
}

type ebitengineGame struct {
	window         *EbitengineWindow
	frame          FrameBuffer
	frameImage     *ebiten.Image
	imageBuffer    *image.RGBA
	windowWidth    int
	windowHeight   int
	drawCount      int
	prevMouseX     int
	prevMouseY     int
	prevMouseValid bool
}

// NewEbitengineBackend builds an Ebitengine-backed Backend.
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

func (b *EbitengineBackend) Initialize(cfg Config) error {
	if b.initialized {
		return fmt.Errorf("video: ebitengine backend already initialized")
	}
	b.config = cfg
	b.initialized = true
	return nil
}

func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("video: backend not initialized")
	}
	if b.config.Headless {
		return nil, fmt.Errorf("video: cannot create window in headless mode")
	}

	game := &ebitengineGame{
		windowWidth:  width,
		windowHeight: height,
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")

	return window, nil
}

func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

func (b *EbitengineBackend) IsHeadless() bool { return b.config.Headless }
func (b *EbitengineBackend) GetName() string  { return "ebitengine" }

func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

func (w *EbitengineWindow) GetSize() (int, int) { return w.width, w.height }
func (w *EbitengineWindow) ShouldClose() bool   { return !w.running }
func (w *EbitengineWindow) SwapBuffers()        {}

func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop; blocks until the window closes.
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("video: game not initialized")
	}
	return ebiten.RunGame(w.game)
}

// SetEmulatorUpdateFunc installs the per-frame callback the game loop
// drives the emulator with, so ebiten owns the loop and the emulator
// stays a plain function call from its perspective.
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// ReadText satisfies clipboard.Host. Ebiten has no OS clipboard primitive,
// so this window holds its own in-process clipboard text; a guest's
// PutScrap/GetScrap round-trips through it rather than the host OS
// clipboard, which is an accepted simplification since no clipboard
// library appears anywhere in the retrieval pack.
func (w *EbitengineWindow) ReadText() (string, bool) { return w.clipboardText, w.hasClipboard }

// WriteText satisfies clipboard.Host.
func (w *EbitengineWindow) WriteText(s string) { w.clipboardText, w.hasClipboard = s, true }

// RenderFrame stores fb for the next Draw call; the pixel conversion
// itself happens lazily in Draw so a frame dropped by Update (emulator
// running faster than the display) never gets converted twice.
func (w *EbitengineWindow) RenderFrame(fb FrameBuffer) error {
	if w.game == nil {
		return fmt.Errorf("video: game not initialized")
	}
	w.game.frame = fb
	return nil
}

func (g *ebitengineGame) Update() error {
	if g.window == nil {
		return nil
	}
	g.processInput()
	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			log.Printf("[VIDEO] emulator update error: %v", err)
		}
	}
	return nil
}

func (g *ebitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 255})
	if g.frame.Pixels == nil || g.frame.Width == 0 || g.frame.Height == 0 {
		return
	}

	if g.frameImage == nil || g.imageBuffer == nil ||
		g.imageBuffer.Bounds().Dx() != g.frame.Width || g.imageBuffer.Bounds().Dy() != g.frame.Height {
		g.frameImage = ebiten.NewImage(g.frame.Width, g.frame.Height)
		g.imageBuffer = image.NewRGBA(image.Rect(0, 0, g.frame.Width, g.frame.Height))
	}

	decodeFrame(g.frame, g.imageBuffer)
	g.frameImage.WritePixels(g.imageBuffer.Pix)

	op := &ebiten.DrawImageOptions{}
	scaleX := float64(g.windowWidth) / float64(g.frame.Width)
	scaleY := float64(g.windowHeight) / float64(g.frame.Height)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	offsetX := (float64(g.windowWidth) - float64(g.frame.Width)*scale) / 2
	offsetY := (float64(g.windowHeight) - float64(g.frame.Height)*scale) / 2
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)

	g.drawCount++
	if g.drawCount%1800 == 0 {
		log.Printf("[VIDEO] drew frame %d (%dx%d depth %d, scaled %.2fx)",
			g.drawCount, g.frame.Width, g.frame.Height, g.frame.Depth, scale)
	}
}

func (g *ebitengineGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// decodeFrame expands fb's guest pixel format into 32-bit RGBA in dst,
// handling the indexed (CLUT) depths and the two direct depths the Mac
// video frame buffer uses.
func decodeFrame(fb FrameBuffer, dst *image.RGBA) {
	for y := 0; y < fb.Height; y++ {
		rowStart := y * fb.RowBytes
		for x := 0; x < fb.Width; x++ {
			var c color.RGBA
			switch fb.Depth {
			case Depth1Bit:
				byteIdx := rowStart + x/8
				if byteIdx >= len(fb.Pixels) {
					continue
				}
				bit := (fb.Pixels[byteIdx] >> (7 - uint(x%8))) & 1
				c = fb.CLUT[bit]
			case Depth2Bit:
				byteIdx := rowStart + x/4
				if byteIdx >= len(fb.Pixels) {
					continue
				}
				shift := uint(6 - 2*(x%4))
				idx := (fb.Pixels[byteIdx] >> shift) & 0x3
				c = fb.CLUT[idx]
			case Depth4Bit:
				byteIdx := rowStart + x/2
				if byteIdx >= len(fb.Pixels) {
					continue
				}
				b := fb.Pixels[byteIdx]
				var idx byte
				if x%2 == 0 {
					idx = b >> 4
				} else {
					idx = b & 0xf
				}
				c = fb.CLUT[idx]
			case Depth8Bit:
				byteIdx := rowStart + x
				if byteIdx >= len(fb.Pixels) {
					continue
				}
				c = fb.CLUT[fb.Pixels[byteIdx]]
			case Depth16Bit:
				off := rowStart + x*2
				if off+1 >= len(fb.Pixels) {
					continue
				}
				word := uint16(fb.Pixels[off])<<8 | uint16(fb.Pixels[off+1])
				r5 := (word >> 10) & 0x1f
				g5 := (word >> 5) & 0x1f
				b5 := word & 0x1f
				c = color.RGBA{R: expand5to8(r5), G: expand5to8(g5), B: expand5to8(b5), A: 255}
			default: // Depth32Bit, and anything unrecognized falls back to 32-bit direct
				off := rowStart + x*4
				if off+3 >= len(fb.Pixels) {
					continue
				}
				c = color.RGBA{R: fb.Pixels[off+1], G: fb.Pixels[off+2], B: fb.Pixels[off+3], A: 255}
			}
			dst.SetRGBA(x, y, c)
		}
	}
}

func expand5to8(v uint16) uint8 {
	return uint8((v << 3) | (v >> 2))
}

var ebitenKeyToADB = map[ebiten.Key]ADBKeycode{
	ebiten.KeyA: ADBKeyA, ebiten.KeyS: ADBKeyS, ebiten.KeyD: ADBKeyD,
	ebiten.KeyF: ADBKeyF, ebiten.KeyH: ADBKeyH, ebiten.KeyG: ADBKeyG,
	ebiten.KeyZ: ADBKeyZ, ebiten.KeyX: ADBKeyX, ebiten.KeyC: ADBKeyC,
	ebiten.KeyV: ADBKeyV, ebiten.KeyB: ADBKeyB, ebiten.KeyQ: ADBKeyQ,
	ebiten.KeyW: ADBKeyW, ebiten.KeyE: ADBKeyE, ebiten.KeyR: ADBKeyR,
	ebiten.KeyY: ADBKeyY, ebiten.KeyT: ADBKeyT,
	ebiten.KeySpace: ADBKeySpace, ebiten.KeyEnter: ADBKeyReturn,
	ebiten.KeyTab: ADBKeyTab, ebiten.KeyEscape: ADBKeyEscape,
	ebiten.KeyArrowLeft: ADBKeyLeft, ebiten.KeyArrowRight: ADBKeyRight,
	ebiten.KeyArrowDown: ADBKeyDown, ebiten.KeyArrowUp: ADBKeyUp,
}

func (g *ebitengineGame) processInput() {
	if g.window == nil {
		return
	}
	var events []InputEvent

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		events = append(events, InputEvent{Type: InputEventQuit, Pressed: true})
	}

	for ek, adb := range ebitenKeyToADB {
		if inpututil.IsKeyJustPressed(ek) {
			events = append(events, InputEvent{Type: InputEventKey, Key: adb, Pressed: true})
		} else if inpututil.IsKeyJustReleased(ek) {
			events = append(events, InputEvent{Type: InputEventKey, Key: adb, Pressed: false})
		}
	}

	mx, my := ebiten.CursorPosition()
	if g.prevMouseValid {
		dx, dy := mx-g.prevMouseX, my-g.prevMouseY
		if dx != 0 || dy != 0 {
			events = append(events, InputEvent{Type: InputEventMouseMove, MouseDX: dx, MouseDY: dy})
		}
	}
	g.prevMouseX, g.prevMouseY, g.prevMouseValid = mx, my, true

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		events = append(events, InputEvent{Type: InputEventMouseButton, Pressed: true})
	} else if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		events = append(events, InputEvent{Type: InputEventMouseButton, Pressed: false})
	}

	g.window.events = append(g.window.events, events...)
}
