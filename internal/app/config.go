// Package app wires the CPU interpreter, Memory Plane, trap dispatcher, ROM
// patcher, and host collaborators into a runnable emulator, and carries its
// JSON configuration.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration.
type Config struct {
	Window  WindowConfig  `json:"window"`
	Video   VideoConfig   `json:"video"`
	Machine MachineConfig `json:"machine"`
	Debug   DebugConfig   `json:"debug"`
	Paths   PathsConfig   `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration.
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
}

// VideoConfig contains video presentation configuration.
type VideoConfig struct {
	VSync   bool   `json:"vsync"`
	Filter  string `json:"filter"`  // "nearest", "linear"
	Backend string `json:"backend"` // "ebitengine", "headless"
}

// MachineConfig describes the emulated Macintosh itself: RAM size, the ROM
// image to patch and boot, the disks to mount, and the ROM entry-point
// addresses the patcher redirects. Entry addresses are specific to one ROM
// dump's build and cannot be shipped baked in (this project, like its
// teacher's BasiliskII ancestor, never embeds a copyrighted ROM image or
// the addresses derived from disassembling one) — a zero address simply
// skips that one patch, leaving the corresponding ROM routine as shipped.
type MachineConfig struct {
	RAMSize  uint32   `json:"ram_size"`
	ROMPath  string   `json:"rom_path"`
	Disks    []string `json:"disks"`
	CDROMs   []string `json:"cdroms"`
	ROMPatch ROMPatchConfig `json:"rom_patch"`
}

// ROMPatchConfig names the ROM entry points to redirect to EMUL_OP escapes.
type ROMPatchConfig struct {
	DiskOpenAddr    uint32 `json:"disk_open_addr"`
	DiskPrimeAddr   uint32 `json:"disk_prime_addr"`
	DiskControlAddr uint32 `json:"disk_control_addr"`
	DiskStatusAddr  uint32 `json:"disk_status_addr"`
	SCSIManagerAddr uint32 `json:"scsi_manager_addr"`
	PutScrapAddr    uint32 `json:"put_scrap_addr"`
	GetScrapAddr    uint32 `json:"get_scrap_addr"`
}

// DebugConfig contains debugging and development options.
type DebugConfig struct {
	ShowFPS       bool   `json:"show_fps"`
	EnableLogging bool   `json:"enable_logging"`
	LogLevel      string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	CPUTracing    bool   `json:"cpu_tracing"`
}

// PathsConfig contains file and directory paths.
type PathsConfig struct {
	XPRAM string `json:"xpram"`
	Prefs string `json:"prefs"`
	Logs  string `json:"logs"`
}

// NewConfig creates a configuration with default values.
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      800,
			Height:     600,
			Fullscreen: false,
		},
		Video: VideoConfig{
			VSync:   true,
			Filter:  "nearest",
			Backend: "ebitengine",
		},
		Machine: MachineConfig{
			RAMSize: 8 << 20, // 8 MiB
		},
		Debug: DebugConfig{
			ShowFPS:       false,
			EnableLogging: false,
			LogLevel:      "INFO",
		},
		Paths: PathsConfig{
			XPRAM: "./state/xpram.bin",
			Prefs: "./state/prefs.json",
			Logs:  "./logs",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, creating it with
// defaults on first run.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	c.validate()

	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %v", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

func (c *Config) validate() {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		c.Window.Width, c.Window.Height = 800, 600
	}
	if c.Machine.RAMSize == 0 {
		c.Machine.RAMSize = 8 << 20
	}
	if c.Video.Backend == "" {
		c.Video.Backend = "ebitengine"
	}
	if c.Video.Filter == "" {
		c.Video.Filter = "nearest"
	}
}

func (c *Config) createDirectories() error {
	dirs := []string{
		filepath.Dir(c.Paths.XPRAM),
		filepath.Dir(c.Paths.Prefs),
		c.Paths.Logs,
	}
	for _, d := range dirs {
		if d == "" || d == "." {
			continue
		}
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// IsLoaded reports whether LoadFromFile successfully loaded an existing file.
func (c *Config) IsLoaded() bool { return c.loaded }

// GetConfigPath returns the path this config was loaded from or saved to.
func (c *Config) GetConfigPath() string { return c.configPath }

// UpdateDebug applies debug flags.
func (c *Config) UpdateDebug(showFPS, enableLogging, cpuTracing bool) {
	c.Debug.ShowFPS = showFPS
	c.Debug.EnableLogging = enableLogging
	c.Debug.CPUTracing = cpuTracing
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return "./config/basiliskgo.json"
}
