package app

import (
	"basiliskgo/internal/m68k"
	"basiliskgo/internal/memory"
)

// busAdapter adapts *memory.Plane to m68k.Bus. The two packages define
// their own identical FaultKind enums to stay decoupled (memory never
// needs to import m68k, and vice versa); this is the one place that
// bridges them, converting memory.Fault into m68k.Fault by value.
type busAdapter struct {
	*memory.Plane
}

func newBusAdapter(p *memory.Plane) *busAdapter {
	return &busAdapter{Plane: p}
}

func (b *busAdapter) TakeFault() m68k.Fault {
	f := b.Plane.TakeFault()
	return m68k.Fault{
		Kind: m68k.FaultKind(f.Kind),
		Addr: f.Addr,
		PC:   f.PC,
	}
}
