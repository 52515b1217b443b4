package app

import (
	"image/color"
	"sync"

	"basiliskgo/internal/video"
)

// defaultCLUT is a static grayscale ramp used for every indexed video
// depth (1/2/4/8-bit). The real Color Manager lets the guest load an
// arbitrary table via the Video driver's cscSetEntries control call; this
// core does not yet expose that call (see drivers.Set), so one fixed ramp
// is used for all indexed modes instead of per-mode guest-supplied tables.
var (
	defaultCLUTOnce sync.Once
	defaultCLUTData [256]color.RGBA
)

func defaultCLUT() [256]color.RGBA {
	defaultCLUTOnce.Do(func() {
		for i := 0; i < 256; i++ {
			v := uint8(255 - i)
			defaultCLUTData[i] = color.RGBA{R: v, G: v, B: v, A: 255}
		}
	})
	return defaultCLUTData
}

// currentFrameBuffer snapshots the Memory Plane's video region into the
// read-only view RenderFrame expects.
func (app *Application) currentFrameBuffer() video.FrameBuffer {
	width, height, depth, rowBytes := app.mem.VideoMode()
	fb := video.FrameBuffer{
		Width:    width,
		Height:   height,
		RowBytes: rowBytes,
		Depth:    video.Depth(depth),
		Pixels:   app.mem.VideoPixels(),
	}
	if depth <= 8 {
		fb.CLUT = defaultCLUT()
	}
	return fb
}
