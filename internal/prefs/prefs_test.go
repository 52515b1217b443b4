package prefs

import (
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := s.Int32("bootdriver"); !ok || v != 0 {
		t.Fatalf("bootdriver = %d, %v; want 0, true", v, ok)
	}
	if v, ok := s.Bool("32bit"); !ok || !v {
		t.Fatalf("32bit = %v, %v; want true, true", v, ok)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("file was not written on first Load: %v", err)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.SetInt32("bootdriver", 2)
	s.SetString("diskimage0", "/tmp/disk.img")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if v, _ := s2.Int32("bootdriver"); v != 2 {
		t.Fatalf("bootdriver = %d, want 2", v)
	}
	if v, _ := s2.String("diskimage0"); v != "/tmp/disk.img" {
		t.Fatalf("diskimage0 = %q, want /tmp/disk.img", v)
	}
}

func TestMissingKeyReportsNotFound(t *testing.T) {
	s := DefaultStore()
	if _, ok := s.Int32("nosuchkey"); ok {
		t.Fatal("Int32 on missing key reported ok=true")
	}
}
