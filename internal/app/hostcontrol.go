package app

import (
	"fmt"
	"log"
	"time"
)

// hostControl implements trap.HostControl: the app-level lifecycle surface
// the SHUTDOWN, IDLE, and SUSPEND escapes call into.
type hostControl struct {
	app *Application
}

func newHostControl(app *Application) *hostControl {
	return &hostControl{app: app}
}

// Shutdown is called from the guest's clean-shutdown escape; it asks the
// CPU loop to stop and the Run loop to exit with a success status.
func (h *hostControl) Shutdown() {
	log.Println("[APP] guest requested shutdown")
	h.app.requestStop()
}

// Idle parks the host thread briefly when the guest has nothing pending
// (the IDLE escape's maxWait is milliseconds), so an idle guest does not
// spin the host CPU at 100%.
func (h *hostControl) Idle(maxWait uint32) {
	wait := time.Duration(maxWait) * time.Millisecond
	if wait > 50*time.Millisecond {
		wait = 50 * time.Millisecond
	}
	time.Sleep(wait)
}

// VBlank is called once per IRQ escape dispatch, regardless of which
// level-1 bit(s) triggered it, mirroring the original's unconditional
// VideoInterrupt() call inside its IRQ handler. The video backend already
// redraws on its own frame timer (ebiten's Draw), so this only needs to
// keep a count a test or diagnostic dump can observe.
func (h *hostControl) VBlank() {
	h.app.vblankCount++
}

// Suspend writes a diagnostic register/memory dump and logs it, mirroring
// what a native host would do on BREAK/SUSPEND: surface enough state to
// debug the guest without crashing the host process.
func (h *hostControl) Suspend(reason string) {
	msg := fmt.Sprintf("[APP] guest suspend requested: %s", reason)
	log.Println(msg)
	if h.app.cpu == nil {
		return
	}
	log.Printf("[APP] PC=%#08x SR=%#04x A7=%#08x", h.app.cpu.PC(), h.app.cpu.SR(), h.app.cpu.A7())
}
