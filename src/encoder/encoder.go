// Package encoder drives the external capture/encode engine. The engine does
// all the heavy lifting (GPU capture, encoding, muxing); this package only
// marshals a capture job into engine parameters and tracks the engine's
// lifecycle.
package encoder

import (
	"context"
	"fmt"

	"screen-rec/src/config"
	"screen-rec/src/geometry"
)

// Mode selects what the engine captures.
type Mode string

const (
	// ModeDesktop records the primary display edge to edge.
	ModeDesktop Mode = "desktop"
	// ModeDisplay records one specific display edge to edge.
	ModeDisplay Mode = "display"
	// ModeWindow records one application window by title.
	ModeWindow Mode = "window"
	// ModeRegion records a cropped rectangle of one display.
	ModeRegion Mode = "region"
)

// Job describes one recording for the engine.
type Job struct {
	Mode         Mode
	Display      geometry.Monitor // ModeDisplay and ModeRegion
	WindowTitle  string           // ModeWindow
	Region       geometry.Rect    // ModeRegion, virtual-screen pixels
	FPS          int
	BitrateKbps  int
	CaptureAudio bool
	AudioDevice  string // dshow device; empty picks the loopback default
	OutputPath   string
}

// Validate rejects jobs the engine cannot express.
func (j Job) Validate() error {
	if j.OutputPath == "" {
		return fmt.Errorf("job has no output path")
	}
	if j.FPS <= 0 {
		return fmt.Errorf("job FPS must be positive, got %d", j.FPS)
	}
	switch j.Mode {
	case ModeDesktop:
	case ModeDisplay:
		if j.Display.Bounds.Area() == 0 {
			return fmt.Errorf("display job has empty display bounds")
		}
	case ModeWindow:
		if j.WindowTitle == "" {
			return fmt.Errorf("window job has no window title")
		}
	case ModeRegion:
		if j.Region.Width <= 0 || j.Region.Height <= 0 {
			return fmt.Errorf("region job has invalid rect %+v", j.Region)
		}
	default:
		return fmt.Errorf("unknown capture mode %q", j.Mode)
	}
	return nil
}

// Event reports an engine lifecycle transition.
type Event struct {
	Kind EventKind
	// Err is set for EventFailed.
	Err error
	// OutputPath echoes the job's output for EventFinished.
	OutputPath string
}

type EventKind int

const (
	// EventStarted fires once the engine process/connection is up.
	EventStarted EventKind = iota
	// EventFinished fires when the engine stopped and the file is complete.
	EventFinished
	// EventFailed fires when the engine exits abnormally.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Engine is a capture/encode backend. Start is non-blocking; completion and
// failure arrive on Events. Stop asks for a graceful shutdown so the
// container is finalized properly.
type Engine interface {
	Start(ctx context.Context, job Job) error
	Stop() error
	Events() <-chan Event
}

// New returns the engine selected by configuration.
func New(cfg *config.Config) (Engine, error) {
	switch cfg.Engine {
	case config.EngineOBS:
		return NewOBSEngine(cfg.OBSWebSocketURL), nil
	case config.EngineFFmpeg:
		return NewFFmpegEngine(cfg.FFmpegPath, cfg.StopTimeoutSec), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}
