package xpram

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenSeedsDefaultsOnMissingSignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpram.bin")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if got := s.ReadByte(sigOffset); got != signature[0] {
		t.Fatalf("signature byte 0 = %#02x, want %#02x", got, signature[0])
	}
	if got := s.ReadByte(0x01); got != 0x80 {
		t.Fatalf("InternalWaitFlags = %#02x, want 0x80", got)
	}
	if got := s.ReadByte(0x76); got != 0x00 {
		t.Fatalf("OSDefault low byte = %#02x, want 0x00", got)
	}
}

func TestOpenPreservesExistingSignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpram.bin")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s1.WriteByte(0x20, 0x42)
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	if got := s2.ReadByte(0x20); got != 0x42 {
		t.Fatalf("ReadByte(0x20) = %#02x, want 0x42 (value should survive reopen)", got)
	}
	if !s2.hasSignature() {
		t.Fatal("reopened file lost its signature")
	}
}

func TestReadWriteByteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpram.bin")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.WriteByte(0x55, 0xAB)
	if got := s.ReadByte(0x55); got != 0xAB {
		t.Fatalf("ReadByte(0x55) = %#02x, want 0xAB", got)
	}
}

func TestCloseFlushesChangedBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpram.bin")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.WriteByte(0x30, 0x99)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) != Size {
		t.Fatalf("file size = %d, want %d", len(raw), Size)
	}
	if raw[0x30] != 0x99 {
		t.Fatalf("on-disk byte 0x30 = %#02x, want 0x99", raw[0x30])
	}
}

func TestWatchdogFlushesOnStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpram.bin")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.StartWatchdog()
	s.WriteByte(0x10, 0x7f)

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if raw[0x10] != 0x7f {
		t.Fatalf("watchdog stop did not flush pending change: got %#02x", raw[0x10])
	}
}
