package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"basiliskgo/internal/clipboard"
	"basiliskgo/internal/drivers"
	"basiliskgo/internal/m68k"
	"basiliskgo/internal/memory"
	"basiliskgo/internal/prefs"
	"basiliskgo/internal/rompatch"
	"basiliskgo/internal/trap"
	"basiliskgo/internal/video"
	"basiliskgo/internal/xpram"
)

// tickInterval is the 60.15 Hz vertical-blank rate real Mac hardware runs
// its tick interrupt at (60.15 Hz, not an even 60 Hz — NTSC heritage).
const tickInterval = time.Second * 10000 / 601500

// Application wires together every component: the Memory Plane, the CPU
// interpreter, the trap dispatcher and its host collaborators, the ROM
// patcher, and the video backend, and drives them through their run loop.
type Application struct {
	config *Config

	mem      *memory.Plane
	bus      *busAdapter
	cpu      *m68k.CPU
	trap     *trap.Dispatcher
	xpram    *xpram.Store
	prefs    *prefs.Store
	drvSet   *drivers.Set
	scsiBus  *drivers.SCSIBus
	adb      *drivers.ADB
	clipping *clipboard.Bridge

	videoBackend video.Backend
	window       video.Window

	headless    bool
	initialized bool
	running     bool

	startTime   time.Time
	frameCount  uint64
	vblankCount uint64

	stopCh chan struct{}
}

// ApplicationError wraps a component failure with enough context to
// identify which subsystem produced it, matching the category-1
// ("unrecoverable startup fault") error path.
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

// NewApplication creates a new application in GUI mode.
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates a new application, optionally forcing the
// headless backend regardless of config.
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	app := &Application{
		config:   NewConfig(),
		headless: headless,
		stopCh:   make(chan struct{}),
	}

	if configPath != "" {
		if err := app.config.LoadFromFile(configPath); err != nil {
			fmt.Printf("[APP_WARNING] could not load config from %s, using defaults: %v\n", configPath, err)
		}
	}

	if err := app.initializeComponents(); err != nil {
		return nil, &ApplicationError{Component: "initialization", Operation: "component setup", Err: err}
	}

	return app, nil
}

func (app *Application) initializeComponents() error {
	var err error

	app.prefs, err = prefs.Load(app.config.Paths.Prefs)
	if err != nil {
		return fmt.Errorf("prefs: %w", err)
	}

	app.xpram, err = xpram.Open(app.config.Paths.XPRAM)
	if err != nil {
		return fmt.Errorf("xpram: %w", err)
	}
	app.xpram.StartWatchdog()

	app.drvSet = drivers.NewSet()
	app.scsiBus = drivers.NewSCSIBus()
	app.adb = drivers.NewADB()

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("video: %w", err)
	}

	if ebWindow, ok := app.window.(*video.EbitengineWindow); ok {
		app.clipping = clipboard.New(ebWindow)
	} else {
		app.clipping = clipboard.New(nil)
	}

	app.initialized = true
	return nil
}

func (app *Application) initializeGraphicsBackend() error {
	backendType := video.BackendEbitengine
	if app.headless || app.config.Video.Backend == "headless" {
		backendType = video.BackendHeadless
	}

	backend, err := video.NewBackend(backendType)
	if err != nil {
		return err
	}

	cfg := video.Config{
		WindowTitle:  "BasiliskGo",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		Headless:     backendType == video.BackendHeadless,
		Debug:        app.config.Debug.EnableLogging,
	}

	if err := backend.Initialize(cfg); err != nil {
		if backendType == video.BackendEbitengine {
			log.Printf("[APP] ebitengine backend failed (%v), falling back to headless", err)
			backend, err = video.NewBackend(video.BackendHeadless)
			if err != nil {
				return err
			}
			cfg.Headless = true
			if err := backend.Initialize(cfg); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	app.videoBackend = backend

	if !backend.IsHeadless() {
		app.window, err = backend.CreateWindow(cfg.WindowTitle, cfg.WindowWidth, cfg.WindowHeight)
		if err != nil {
			return err
		}
	}
	return nil
}

// Boot loads and patches romPath, allocates the Memory Plane and CPU, wires
// the trap dispatcher's collaborators, mounts any configured disks/CD-ROMs,
// and resets the CPU at the ROM's reset vector. Startup errors (an
// unreadable or undecodable ROM image, a failed RAM allocation or disk
// mount) are returned rather than panicking.
func (app *Application) Boot(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	raw, err := os.ReadFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "rom", Operation: "read", Err: err}
	}

	rom, err := rompatch.Decode(raw)
	if err != nil {
		return &ApplicationError{Component: "rom", Operation: "decode", Err: err}
	}

	if v, ok := rompatch.Identify(rom); ok {
		log.Printf("[APP] identified ROM: %s", v.Name)
	} else {
		log.Printf("[APP] unrecognized ROM version, applying fingerprint-matched patches only")
	}

	app.applyEntryPatches(rom)

	app.mem, err = memory.New(memory.Config{RAMSize: app.config.Machine.RAMSize, ROM: rom})
	if err != nil {
		return &ApplicationError{Component: "memory", Operation: "allocate", Err: err}
	}
	app.bus = newBusAdapter(app.mem)

	app.trap = trap.New()
	app.trap.SetDebug(app.config.Debug.EnableLogging)
	app.trap.Clock = newSystemClock()
	app.trap.XPRAM = app.xpram
	app.trap.Clipboard = app.clipping
	app.trap.Drivers = app.drvSet
	app.trap.SCSI = app.scsiBus
	app.trap.ADB = app.adb
	app.trap.Prefs = app.prefs
	app.trap.Host = newHostControl(app)

	app.cpu = m68k.New(app.bus)
	app.cpu.SetDebug(app.config.Debug.CPUTracing)
	app.cpu.SetEscapes(newEscapeBridge(app.trap, app.bus))
	app.cpu.LoadFromVector()

	if err := app.mountImages(); err != nil {
		return &ApplicationError{Component: "drivers", Operation: "mount", Err: err}
	}

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("BasiliskGo — %s", romPath))
	}

	return nil
}

func (app *Application) applyEntryPatches(rom []byte) {
	rp := app.config.Machine.ROMPatch
	var entries []rompatch.EntryPatch
	if rp.DiskOpenAddr != 0 {
		entries = append(entries, rompatch.DiskEntries(rp.DiskOpenAddr, rp.DiskPrimeAddr, rp.DiskControlAddr, rp.DiskStatusAddr)...)
	}
	if rp.SCSIManagerAddr != 0 {
		entries = append(entries, rompatch.ScsiManagerEntry(rp.SCSIManagerAddr))
	}
	if rp.PutScrapAddr != 0 && rp.GetScrapAddr != 0 {
		entries = append(entries, rompatch.ScrapEntries(rp.PutScrapAddr, rp.GetScrapAddr)...)
	}
	if len(entries) == 0 {
		return
	}
	applied := rompatch.ApplyEntries(rom, entries)
	log.Printf("[APP] applied entry patches: %v", applied)
}

func (app *Application) mountImages() error {
	for i, path := range app.config.Machine.Disks {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("disk %d (%s): %w", i, path, err)
		}
		app.drvSet.Mount("Sony", &drivers.Image{Name: path, Data: data, BlockSize: 512})
	}
	for i, path := range app.config.Machine.CDROMs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cdrom %d (%s): %w", i, path, err)
		}
		img := &drivers.Image{Name: path, Data: data, BlockSize: 2048, ReadOnly: true}
		app.drvSet.Mount("AppleCD", img)
		app.scsiBus.AddTarget(3+i, img)
	}
	return nil
}

// Run drives the emulator until the guest shuts down or the window closes.
// With an Ebitengine window, ebiten owns the loop (SetEmulatorUpdateFunc);
// otherwise a plain ticking loop steps the CPU directly. Either way, three
// background goroutines run for the session's duration: the 60.15 Hz tick,
// host input/event pumping, and (implicitly, already started in
// initializeComponents) the XPRAM watchdog. An errgroup ties the first two
// to the session's lifetime so an error returned by either surfaces through Run
// instead of silently stopping.
func (app *Application) Run() error {
	if !app.initialized || app.cpu == nil {
		return errors.New("application not booted")
	}

	app.running = true
	app.startTime = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.runTick(ctx) })

	if ebWindow, ok := app.window.(*video.EbitengineWindow); ok {
		ebWindow.SetEmulatorUpdateFunc(func() error {
			app.processHostEvents()
			app.stepFrame()
			if app.window.ShouldClose() {
				app.requestStop()
			}
			return nil
		})
		g.Go(func() error {
			err := ebWindow.Run()
			app.requestStop()
			cancel()
			return err
		})
	} else {
		g.Go(func() error { return app.runHeadlessLoop(ctx) })
	}

	err := g.Wait()
	app.running = false
	return err
}

func (app *Application) runTick(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.stopCh:
			return nil
		case <-ticker.C:
			app.mem.SetInterrupt(memory.Flag60Hz)
		}
	}
}

func (app *Application) runHeadlessLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.stopCh:
			return nil
		case <-ticker.C:
			app.processHostEvents()
			app.stepFrame()
			if app.window != nil && app.window.ShouldClose() {
				app.requestStop()
				return nil
			}
		}
	}
}

// stepFrame advances the CPU enough cycles for one video frame at the
// guest's nominal clock rate, then presents the resulting frame buffer.
func (app *Application) stepFrame() {
	const cyclesPerFrame = 16_000_000 / 60 // ~16 MHz 68040, 60 Hz frame budget
	total := 0
	for total < cyclesPerFrame && !app.cpu.Halted() && !app.cpu.Quit() {
		total += app.cpu.Step()
	}
	app.frameCount++
	if err := app.render(); err != nil {
		log.Printf("[APP] render error: %v", err)
	}
	if app.cpu.Quit() {
		app.requestStop()
	}
}

func (app *Application) render() error {
	if app.window == nil {
		return nil
	}
	return app.window.RenderFrame(app.currentFrameBuffer())
}

// processHostEvents drains the window's input queue and feeds it to ADB,
// or to Stop for a quit event.
func (app *Application) processHostEvents() {
	if app.window == nil {
		return
	}
	for _, ev := range app.window.PollEvents() {
		switch ev.Type {
		case video.InputEventQuit:
			app.requestStop()
		case video.InputEventKey:
			if ev.Pressed {
				app.adb.KeyDown(uint8(ev.Key))
			} else {
				app.adb.KeyUp(uint8(ev.Key))
			}
		case video.InputEventMouseMove:
			app.adb.MouseMoved(ev.MouseDX, ev.MouseDY)
		case video.InputEventMouseButton:
			app.adb.MouseButton(ev.Pressed)
		}
	}
}

func (app *Application) requestStop() {
	app.cpu.RequestQuit()
	select {
	case <-app.stopCh:
	default:
		close(app.stopCh)
	}
}

// Stop requests the run loop to end from outside (signal handler, test).
func (app *Application) Stop() { app.requestStop() }

// GetConfig returns the application's configuration.
func (app *Application) GetConfig() *Config { return app.config }

// ApplyDebugSettings pushes config.Debug onto the already-booted CPU/trap
// collaborators.
func (app *Application) ApplyDebugSettings() {
	if app.cpu != nil {
		app.cpu.SetDebug(app.config.Debug.CPUTracing)
	}
	if app.trap != nil {
		app.trap.SetDebug(app.config.Debug.EnableLogging)
	}
}

// GetFrameCount returns the number of frames rendered this session.
func (app *Application) GetFrameCount() uint64 { return app.frameCount }

// GetVBlankCount returns the number of IRQ escape dispatches serviced this
// session (one per vertical blank the guest's level-1 handler observed).
func (app *Application) GetVBlankCount() uint64 { return app.vblankCount }

// GetUptime returns how long the application has been running.
func (app *Application) GetUptime() time.Duration {
	if app.startTime.IsZero() {
		return 0
	}
	return time.Since(app.startTime)
}

// Cleanup releases every collaborator holding a host resource.
func (app *Application) Cleanup() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if app.xpram != nil {
		record(app.xpram.Close())
	}
	if app.window != nil {
		record(app.window.Cleanup())
	}
	if app.videoBackend != nil {
		record(app.videoBackend.Cleanup())
	}
	return firstErr
}
