package app

import (
	"basiliskgo/internal/m68k"
	"basiliskgo/internal/trap"
)

// escapeBridge satisfies m68k.Escapes, closing over the Mem collaborator so
// the CPU core never needs to know about the trap dispatcher's wider
// Mem/collaborator surface — it only ever sees the narrow Escapes interface.
type escapeBridge struct {
	dispatcher *trap.Dispatcher
	mem        trap.Mem
}

func newEscapeBridge(d *trap.Dispatcher, mem trap.Mem) *escapeBridge {
	return &escapeBridge{dispatcher: d, mem: mem}
}

func (b *escapeBridge) Dispatch(ordinal byte, c *m68k.CPU) {
	b.dispatcher.Dispatch(ordinal, c, b.mem)
}
