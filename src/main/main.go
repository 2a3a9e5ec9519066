// Command screen-rec is the resident screen recorder: tray icon, main
// window, global hotkey, and a loopback TCP server that secondary
// invocations (--toggle, --start, --stop, --status) delegate to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"screen-rec/src/audio"
	"screen-rec/src/clipboard"
	"screen-rec/src/config"
	"screen-rec/src/display"
	"screen-rec/src/encoder"
	"screen-rec/src/eventloop"
	"screen-rec/src/geometry"
	"screen-rec/src/gui"
	"screen-rec/src/logutil"
	"screen-rec/src/presets"
	"screen-rec/src/recorder"
	"screen-rec/src/singleinstance"
	"screen-rec/src/tray"
)

// normalizeFlagDashes maps GNU-style --toggle etc. to Go's single-dash form.
func normalizeFlagDashes() {
	names := []string{"toggle", "start", "stop", "status", "mode", "output"}
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		for _, name := range names {
			long := "--" + name
			if arg == long || strings.HasPrefix(arg, long+"=") {
				os.Args[i] = arg[1:]
				break
			}
		}
	}
}

func main() {
	// DPI awareness must be set before creating any windows or querying
	// monitor metrics.
	enableDPIAwareness()
	runtime.LockOSThread()

	normalizeFlagDashes()
	toggleFlag := flag.Bool("toggle", false, "Toggle recording in the running instance and exit")
	startFlag := flag.Bool("start", false, "Start recording in the running instance and exit")
	stopFlag := flag.Bool("stop", false, "Stop recording in the running instance and exit")
	statusFlag := flag.Bool("status", false, "Print the running instance's state and exit")
	modeFlag := flag.String("mode", "", "Capture mode override: region, display or window")
	outputFlag := flag.String("output", "", "Output directory override")
	flag.Parse()

	// Load .env early so SCREENREC_PORT_* apply before any delegation scan.
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		DefaultModeOverride: *modeFlag,
		OutputDirOverride:   *outputFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if command := pickCommand(*toggleFlag, *startFlag, *stopFlag, *statusFlag); command != "" {
		delegate(command)
		return
	}

	setupLogging(cfg.EnableFileLogging)

	// ---------- SINGLE-INSTANCE PRE-FLIGHT ----------
	startPort, _ := singleinstance.GetPortRangeForDebug()
	addr := fmt.Sprintf("127.0.0.1:%d", startPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("Pre-flight: port %d busy, resident already exists", startPort)
		fmt.Printf("screen-rec is already running on port %d; use --toggle, --start, --stop or --status\n", startPort)
		os.Exit(1)
	}
	// We claimed the port; release it so the event loop can re-bind.
	_ = listener.Close()
	log.Printf("Pre-flight: port %d free, becoming the resident", startPort)
	// ------------------------------------------------

	display.Init()
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable, saved paths will not be copied: %v", err)
	}
	probeAudio(cfg)

	presetList := loadPresets(cfg)

	engine, err := encoder.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s engine: %v", cfg.Engine, err)
	}
	rec := recorder.New(cfg, engine)
	loop := eventloop.New(cfg, rec, monitorList)

	log.Printf("Screen recorder initialized")
	log.Printf("Engine: %s", cfg.Engine)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("Output dir: %s", cfg.OutputDir)

	ui := gui.New(cfg, loop, rec, presetList)
	loop.SetSaveTarget(ui.SaveTarget)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Event loop stopped: %v", err)
		}
	}()

	loop.StartHotkey(cfg.Hotkey)

	go tray.Run(tray.Handlers{
		OnRecordRegion:  func() { loop.Post(eventloop.Request{Mode: encoder.ModeRegion}) },
		OnRecordDisplay: ui.ShowDisplayPicker,
		OnRecordWindow:  ui.ShowWindowPicker,
		OnStop:          loop.PostStop,
		OnShowWindow:    ui.Show,
		OnQuit: func() {
			cancel()
			ui.Quit()
		},
	})

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
		ui.Quit()
	}()

	// Blocks on the main goroutine until Quit; fyne owns the main thread.
	ui.Run()
	cancel()
	tray.Quit()
}

func setupLogging(enableFileLogging bool) {
	logutil.Setup(enableFileLogging)
}

// pickCommand maps control flags to the singleinstance command to forward.
func pickCommand(toggle, start, stop, status bool) string {
	switch {
	case toggle:
		return singleinstance.CommandToggle
	case start:
		return singleinstance.CommandStart
	case stop:
		return singleinstance.CommandStop
	case status:
		return singleinstance.CommandStatus
	default:
		return ""
	}
}

// delegate forwards a control command to the resident instance and prints
// its reply.
func delegate(command string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := singleinstance.NewClient()
	delegated, reply, err := client.Send(ctx, command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", strings.ToLower(command), err)
		os.Exit(1)
	}
	if !delegated {
		fmt.Fprintln(os.Stderr, "no running screen-rec instance found")
		os.Exit(1)
	}
	if reply != "" {
		fmt.Println(reply)
	}
}

// monitorList adapts display enumeration for the event loop, which expects
// an infallible supplier.
func monitorList() []geometry.Monitor {
	monitors, err := display.Displays()
	if err != nil {
		log.Printf("Display enumeration failed: %v", err)
		return nil
	}
	return monitors
}

// probeAudio checks the system-audio loopback device so a missing driver is
// visible in the log before the first recording.
func probeAudio(cfg *config.Config) {
	if !cfg.CaptureAudio {
		return
	}
	mgr, err := audio.NewManager()
	if err != nil {
		log.Printf("Audio: loopback context unavailable: %v", err)
		return
	}
	defer mgr.Close()
	if !mgr.Available() {
		log.Printf("Audio: no loopback device found, recordings may be silent")
	}
}

// loadPresets reads the preset file, defaulting to presets.toml next to the
// executable. A broken file falls back to the built-in set.
func loadPresets(cfg *config.Config) []presets.Preset {
	path := cfg.PresetsPath
	if path == "" {
		path = "presets.toml"
		if exe, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exe), "presets.toml")
		}
	}
	list, err := presets.Load(path)
	if err != nil {
		log.Printf("Presets: %v, using built-in defaults", err)
		return presets.Defaults()
	}
	return list
}
