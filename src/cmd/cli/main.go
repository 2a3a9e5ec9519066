// Command rec-cli records the screen headlessly for a fixed duration. It
// drives the engine directly and never touches the tray, GUI, or resident
// instance, so it suits scripts and scheduled captures.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-rec/src/config"
	"screen-rec/src/display"
	"screen-rec/src/encoder"
	"screen-rec/src/geometry"
)

type cliOptions struct {
	duration    time.Duration
	mode        string
	displayIdx  int
	region      string
	window      string
	fps         int
	bitrateKbps int
	noAudio     bool
	outPath     string
	jsonOutput  bool
	verbose     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(os.Args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rec-cli",
		Short:         "Record the screen for a fixed duration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "Recording length")
	cmd.Flags().StringVar(&opts.mode, "mode", "desktop", "Capture mode: desktop, display, region or window")
	cmd.Flags().IntVar(&opts.displayIdx, "display", 0, "Display index for display mode")
	cmd.Flags().StringVar(&opts.region, "region", "", "Region for region mode as x,y,WxH")
	cmd.Flags().StringVar(&opts.window, "window", "", "Window title for window mode")
	cmd.Flags().IntVar(&opts.fps, "fps", 0, "Frame rate override")
	cmd.Flags().IntVar(&opts.bitrateKbps, "bitrate", 0, "Video bitrate override in kbps")
	cmd.Flags().BoolVar(&opts.noAudio, "no-audio", false, "Disable system audio capture")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Output file (default <output dir>/rec_<timestamp>.mp4)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	return cmd
}

func runWithOptions(opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting headless capture\n")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.fps > 0 {
		cfg.FPS = opts.fps
	}
	if opts.bitrateKbps > 0 {
		cfg.VideoBitrateKbps = opts.bitrateKbps
	}
	if opts.noAudio {
		cfg.CaptureAudio = false
	}

	display.Init()

	job, err := buildJob(cfg, opts)
	if err != nil {
		return err
	}
	outPath := opts.outPath
	if outPath == "" {
		outPath = filepath.Join(cfg.OutputDir, time.Now().Format("rec_20060102_150405.mp4"))
	}
	job.OutputPath = outPath

	engine, err := encoder.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s engine: %w", cfg.Engine, err)
	}

	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Engine=%s mode=%s fps=%d out=%s\n",
			cfg.Engine, job.Mode, job.FPS, outPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	if err := engine.Start(ctx, job); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	done := make(chan encoder.Event, 1)
	go func() {
		for ev := range engine.Events() {
			if ev.Kind == encoder.EventFinished || ev.Kind == encoder.EventFailed {
				done <- ev
				return
			}
		}
	}()

	// SIGINT stops the recording early but still finalizes the file.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-time.After(opts.duration):
		if err := engine.Stop(); err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
	case <-sig:
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Interrupted, stopping early\n")
		}
		if err := engine.Stop(); err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
	case ev := <-done:
		if ev.Kind == encoder.EventFailed {
			return fmt.Errorf("engine exited early: %w", ev.Err)
		}
		done <- ev
	}

	select {
	case ev := <-done:
		if ev.Kind == encoder.EventFailed {
			return fmt.Errorf("recording failed: %w", ev.Err)
		}
		if ev.OutputPath != "" {
			outPath = ev.OutputPath
		}
	case <-time.After(30 * time.Second):
		return fmt.Errorf("engine did not finalize within 30s")
	}

	return outputResult(outPath, job.Mode, time.Since(start), opts.jsonOutput)
}

// buildJob translates CLI options into an engine job.
func buildJob(cfg *config.Config, opts cliOptions) (encoder.Job, error) {
	job := encoder.Job{
		FPS:          cfg.FPS,
		BitrateKbps:  cfg.VideoBitrateKbps,
		CaptureAudio: cfg.CaptureAudio,
	}

	switch opts.mode {
	case "desktop":
		job.Mode = encoder.ModeDesktop
	case "display":
		monitors, err := display.Displays()
		if err != nil {
			return job, err
		}
		if opts.displayIdx < 0 || opts.displayIdx >= len(monitors) {
			return job, fmt.Errorf("display index %d out of range (%d displays)", opts.displayIdx, len(monitors))
		}
		job.Mode = encoder.ModeDisplay
		job.Display = monitors[opts.displayIdx]
	case "region":
		r, err := parseRegion(opts.region)
		if err != nil {
			return job, err
		}
		monitors, err := display.Displays()
		if err != nil {
			return job, err
		}
		job.Mode = encoder.ModeRegion
		job.Region = r
		if idx := geometry.ResolveMonitor(r, monitors); idx >= 0 {
			job.Display = monitors[idx]
		} else {
			return job, fmt.Errorf("region %s is outside every display", opts.region)
		}
	case "window":
		if opts.window == "" {
			return job, fmt.Errorf("window mode requires --window <title>")
		}
		job.Mode = encoder.ModeWindow
		job.WindowTitle = opts.window
	default:
		return job, fmt.Errorf("unknown mode %q, want desktop, display, region or window", opts.mode)
	}
	return job, nil
}

// parseRegion parses "x,y,WxH", e.g. "100,200,1280x720". Coordinates are
// virtual-screen pixels and may be negative on multi-monitor setups.
func parseRegion(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geometry.Rect{}, fmt.Errorf("invalid region %q, want x,y,WxH", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("invalid region x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("invalid region y in %q: %w", s, err)
	}
	dims := strings.Split(strings.TrimSpace(parts[2]), "x")
	if len(dims) != 2 {
		return geometry.Rect{}, fmt.Errorf("invalid region size in %q, want WxH", s)
	}
	w, err := strconv.Atoi(dims[0])
	if err != nil || w <= 0 {
		return geometry.Rect{}, fmt.Errorf("invalid region width in %q", s)
	}
	h, err := strconv.Atoi(dims[1])
	if err != nil || h <= 0 {
		return geometry.Rect{}, fmt.Errorf("invalid region height in %q", s)
	}
	return geometry.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

type captureResult struct {
	Path      string  `json:"path"`
	Mode      string  `json:"mode"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	SizeBytes int64   `json:"size_bytes"`
}

func outputResult(path string, mode encoder.Mode, elapsed time.Duration, jsonOutput bool) error {
	var size int64
	if st, err := os.Stat(path); err == nil {
		size = st.Size()
	}

	if jsonOutput {
		res := captureResult{
			Path:      path,
			Mode:      string(mode),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  elapsed.Seconds(),
			SizeBytes: size,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Println(path)
	return nil
}
