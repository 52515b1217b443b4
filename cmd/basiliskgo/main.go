// Package main implements the basiliskgo emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"basiliskgo/internal/app"
	"basiliskgo/internal/version"
)

// diskFlags collects repeated -disk flags into a slice.
type diskFlags []string

func (d *diskFlags) String() string     { return strings.Join(*d, ",") }
func (d *diskFlags) Set(v string) error { *d = append(*d, v); return nil }

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to Macintosh ROM image (required)")
		configFile = flag.String("config", "", "Path to configuration file")
		debug      = flag.Bool("debug", false, "Enable debug mode (CPU tracing, verbose logging)")
		nogui      = flag.Bool("nogui", false, "Run without a window (headless mode)")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	var disks diskFlags
	flag.Var(&disks, "disk", "Path to a disk image to mount (repeatable)")
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	fmt.Println("basiliskgo - 680x0 Macintosh core emulator")

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		// Category 1 (startup fault): print and exit(1), no host alert
		// surface exists on a terminal-only CLI.
		fmt.Fprintf(os.Stderr, "basiliskgo: failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	setupGracefulShutdown(application)

	if *nogui {
		application.GetConfig().Video.Backend = "headless"
		fmt.Println("running headless")
	}

	if *debug {
		cfg := application.GetConfig()
		cfg.UpdateDebug(true, true, true)
		application.ApplyDebugSettings()
		fmt.Println("debug mode enabled")
	}

	if len(disks) > 0 {
		application.GetConfig().Machine.Disks = append(application.GetConfig().Machine.Disks, disks...)
	}

	if *romFile == "" {
		fmt.Fprintln(os.Stderr, "basiliskgo: -rom is required")
		os.Exit(1)
	}

	fmt.Printf("loading ROM: %s\n", *romFile)
	if err := application.Boot(*romFile); err != nil {
		// Category 1 startup fault (unreadable or undecodable ROM image,
		// RAM allocation below the 1 MiB floor, disk mount failure): exit(1),
		// the same code as the initialization failure above.
		fmt.Fprintf(os.Stderr, "basiliskgo: failed to boot ROM: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ROM booted")

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "basiliskgo: run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("shut down after %d frames, uptime %v\n", application.GetFrameCount(), application.GetUptime())
}

// setupGracefulShutdown asks the application to stop cleanly on SIGINT/
// SIGTERM rather than letting the process die mid-frame.
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\ninterrupt received, shutting down")
		application.Stop()
	}()
}

func printUsage() {
	fmt.Println("basiliskgo - 680x0 Macintosh core emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  basiliskgo -rom <file> [options]")
	fmt.Println("  basiliskgo -nogui -rom <file> [options]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  basiliskgo -rom quadra650.rom")
	fmt.Println("  basiliskgo -rom quadra650.rom -disk system.img -disk work.img")
	fmt.Println("  basiliskgo -nogui -rom quadra650.rom -debug")
	fmt.Println()
	fmt.Println("EXIT CODES:")
	fmt.Println("  0  clean shutdown (guest SHUTDOWN escape, window closed, or signal)")
	fmt.Println("  1  startup fault (config/driver/video init, ROM load/decode, RAM allocation, or disk mount failure), or run-loop error")
}
