package app

import "time"

// systemClock implements trap.Clock against the host's own clock. No
// library in the retrieval pack wraps time.Now()/time.Since() any more
// usefully than the stdlib already does for this narrow a surface, so this
// is one of the few components built directly on the standard library.
type systemClock struct {
	boot time.Time
}

func newSystemClock() *systemClock {
	return &systemClock{boot: time.Now()}
}

func (c *systemClock) MicrosecondsSinceBoot() uint64 {
	return uint64(time.Since(c.boot).Microseconds())
}

func (c *systemClock) RealTimeClockSeconds() uint32 {
	// Classic Mac OS measures from 1904-01-01, not the Unix epoch.
	const macEpochOffset = 2082844800
	return uint32(time.Now().Unix() + macEpochOffset)
}
