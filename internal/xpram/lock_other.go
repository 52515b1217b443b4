//go:build !unix

package xpram

import "os"

// lockExclusive is a no-op on non-unix hosts; golang.org/x/sys has no
// portable advisory-lock primitive there, and this core's non-unix support
// is best-effort only.
func lockExclusive(f *os.File) error {
	return nil
}
