// Package prefs implements the JSON-backed preference store the trap
// dispatcher holds as its PrefsStore: boot-time settings such as which
// drive to boot from and whether to run the guest in 32-bit addressing mode.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store holds typed preference values loaded from (and saved to) a JSON
// file, using a flat, open-ended key/value set rather than a fixed struct,
// since the guest can query arbitrary boot-preference keys the core does
// not otherwise need to know about.
type Store struct {
	path   string
	Ints   map[string]int32  `json:"ints"`
	Strs   map[string]string `json:"strings"`
	Bools  map[string]bool   `json:"bools"`
}

// DefaultStore returns the boot preferences a fresh installation would
// have: boot from the internal drive, run in 32-bit addressing mode.
func DefaultStore() *Store {
	return &Store{
		Ints:  map[string]int32{"bootdriver": 0},
		Strs:  map[string]string{},
		Bools: map[string]bool{"32bit": true, "nocdrom": false},
	}
}

// Load reads path, returning a freshly defaulted Store (and writing it to
// path) if the file does not yet exist, matching LoadFromFile's
// create-on-first-run behavior.
func Load(path string) (*Store, error) {
	s := DefaultStore()
	s.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, s.Save()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prefs: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("prefs: parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes the store back to its backing path.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("prefs: create directory for %s: %w", s.path, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("prefs: write %s: %w", s.path, err)
	}
	return nil
}

// Int32 reports a preference's integer value, satisfying trap.PrefsStore.
func (s *Store) Int32(key string) (int32, bool) {
	v, ok := s.Ints[key]
	return v, ok
}

// String reports a preference's string value.
func (s *Store) String(key string) (string, bool) {
	v, ok := s.Strs[key]
	return v, ok
}

// Bool reports a preference's boolean value.
func (s *Store) Bool(key string) (bool, bool) {
	v, ok := s.Bools[key]
	return v, ok
}

// SetInt32 sets an integer preference, creating the backing map if needed.
func (s *Store) SetInt32(key string, v int32) {
	if s.Ints == nil {
		s.Ints = make(map[string]int32)
	}
	s.Ints[key] = v
}

// SetString sets a string preference.
func (s *Store) SetString(key, v string) {
	if s.Strs == nil {
		s.Strs = make(map[string]string)
	}
	s.Strs[key] = v
}

// SetBool sets a boolean preference.
func (s *Store) SetBool(key string, v bool) {
	if s.Bools == nil {
		s.Bools = make(map[string]bool)
	}
	s.Bools[key] = v
}
