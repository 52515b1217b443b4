package video

import "fmt"

// HeadlessBackend implements Backend without creating any real window,
// for -nogui runs and automated testing.
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements Window with no actual presentation.
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	lastFrame  FrameBuffer
}

// NewHeadlessBackend builds a headless backend.
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

func (b *HeadlessBackend) Initialize(cfg Config) error {
	if b.initialized {
		return fmt.Errorf("video: headless backend already initialized")
	}
	b.config = cfg
	b.initialized = true
	return nil
}

func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("video: backend not initialized")
	}
	return &HeadlessWindow{title: title, width: width, height: height, running: true}, nil
}

func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

func (b *HeadlessBackend) IsHeadless() bool { return true }
func (b *HeadlessBackend) GetName() string  { return "headless" }

func (w *HeadlessWindow) SetTitle(title string)        { w.title = title }
func (w *HeadlessWindow) GetSize() (int, int)          { return w.width, w.height }
func (w *HeadlessWindow) ShouldClose() bool            { return !w.running }
func (w *HeadlessWindow) SwapBuffers()                 {}
func (w *HeadlessWindow) PollEvents() []InputEvent     { return nil }
func (w *HeadlessWindow) Cleanup() error                { w.running = false; return nil }

func (w *HeadlessWindow) RenderFrame(fb FrameBuffer) error {
	w.lastFrame = fb
	w.frameCount++
	return nil
}
