//go:build unix

package xpram

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive takes a non-blocking exclusive advisory lock on f, failing
// fast rather than blocking if another instance already holds it — a
// second emulator process racing the same XPRAM file is a misconfiguration,
// not something worth waiting on.
func lockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}
