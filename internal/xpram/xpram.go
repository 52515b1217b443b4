// Package xpram implements the 8 KiB file-backed Extended Parameter RAM
// store, its default-value seeding, and the one-second watchdog that
// flushes changes to disk the way the original's XPRAMInit/main loop pair
// does.
package xpram

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Size is the on-disk and in-memory XPRAM region size. Real PRAM is 256
// bytes; the file format reserves 8 KiB the way Nanokernel-era ROMs expect.
const Size = 8192

// signature offset/bytes: ASCII "NuMc", written by a healthy boot and
// checked on every load to decide whether defaults must be seeded.
const (
	sigOffset = 0x0c
	watchdogMaxOffset = 0x100 // only the first 256 bytes (real PRAM) are watched for changes
)

var signature = [4]byte{'N', 'u', 'M', 'c'}

// Store is the in-memory XPRAM image plus its backing file. ReadByte/
// WriteByte satisfy trap.XPRAMStore.
type Store struct {
	path string
	data [Size]byte
	file *os.File

	lastFlushed [watchdogMaxOffset]byte
	stop        chan struct{}
	done        chan struct{}
}

// Open loads path into memory, creating and seeding it with defaults if it
// does not exist or fails the signature check, and takes an exclusive
// advisory lock on the backing file for the process lifetime.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("xpram: open %s: %w", path, err)
	}
	s.file = f

	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("xpram: lock %s: %w", path, err)
	}

	n, err := f.Read(s.data[:])
	if err != nil && n == 0 {
		// Newly created empty file: fall through to default seeding below.
	}

	if !s.hasSignature() {
		log.Printf("[XPRAM] signature missing in %s, writing defaults", path)
		s.writeDefaults()
		if err := s.flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	copy(s.lastFlushed[:], s.data[:watchdogMaxOffset])

	return s, nil
}

func (s *Store) hasSignature() bool {
	return s.data[sigOffset] == signature[0] &&
		s.data[sigOffset+1] == signature[1] &&
		s.data[sigOffset+2] == signature[2] &&
		s.data[sigOffset+3] == signature[3]
}

// writeDefaults seeds the standard values BasiliskII's main.cpp writes on a
// missing signature: LocalTalk disabled, boot from internal drive, 32-bit
// addressing mode, MacOS as default OS.
func (s *Store) writeDefaults() {
	for i := range s.data {
		s.data[i] = 0
	}
	s.data[sigOffset] = signature[0]
	s.data[sigOffset+1] = signature[1]
	s.data[sigOffset+2] = signature[2]
	s.data[sigOffset+3] = signature[3]

	s.data[0x01] = 0x80 // InternalWaitFlags = DynWait

	s.data[0x08] = 0x13
	s.data[0x09] = 0x88
	s.data[0x0a] = 0x00
	s.data[0x0b] = 0xcc

	s.data[0x10] = 0xa8 // standard PRAM values
	s.data[0x11] = 0x00
	s.data[0x12] = 0x00
	s.data[0x13] = 0x22
	s.data[0x14] = 0xcc
	s.data[0x15] = 0x0a
	s.data[0x16] = 0xcc
	s.data[0x17] = 0x0a

	s.data[0x1c] = 0x00
	s.data[0x1d] = 0x02
	s.data[0x1e] = 0x63
	s.data[0x1f] = 0x00

	s.data[0x76] = 0x00 // OSDefault = MacOS
	s.data[0x77] = 0x01
}

// ReadByte reads one byte of the PRAM region.
func (s *Store) ReadByte(offset uint8) byte {
	return s.data[offset]
}

// WriteByte writes one byte of the PRAM region.
func (s *Store) WriteByte(offset uint8, v byte) {
	s.data[offset] = v
}

func (s *Store) flush() error {
	if _, err := s.file.WriteAt(s.data[:], 0); err != nil {
		return fmt.Errorf("xpram: write %s: %w", s.path, err)
	}
	return s.file.Sync()
}

// changed reports whether the watched 256-byte PRAM region differs from
// the last flushed snapshot, per the watchdog's memcmp-based change check.
func (s *Store) changed() bool {
	for i := 0; i < watchdogMaxOffset; i++ {
		if s.data[i] != s.lastFlushed[i] {
			return true
		}
	}
	return false
}

// StartWatchdog launches the one-second polling goroutine that flushes the
// PRAM region to disk at most once per minute when it has changed,
// matching the scheduling model's XPRAM watchdog thread. Call Stop to
// terminate it.
func (s *Store) StartWatchdog() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.watchdogLoop()
}

func (s *Store) watchdogLoop() {
	defer close(s.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var sinceFlush time.Duration
	const minFlushInterval = time.Minute

	for {
		select {
		case <-s.stop:
			if s.changed() {
				if err := s.flush(); err != nil {
					log.Printf("[XPRAM] final flush failed: %v", err)
				}
			}
			return
		case <-ticker.C:
			sinceFlush += time.Second
			if sinceFlush < minFlushInterval {
				continue
			}
			if s.changed() {
				if err := s.flush(); err != nil {
					log.Printf("[XPRAM] flush failed: %v", err)
				} else {
					copy(s.lastFlushed[:], s.data[:watchdogMaxOffset])
				}
			}
			sinceFlush = 0
		}
	}
}

// Close stops the watchdog (if running), flushes any pending change, and
// releases the backing file and its lock.
func (s *Store) Close() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
	} else if s.changed() {
		if err := s.flush(); err != nil {
			return err
		}
	}
	return s.file.Close()
}
