// Package recorder owns the recording lifecycle: one engine job at a time,
// recorded into a temp file that is handed off for finalizing once the
// engine confirms the container is complete.
package recorder

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"screen-rec/src/config"
	"screen-rec/src/encoder"
)

// State is the recorder lifecycle state.
type State int

const (
	// StateIdle means no recording is active.
	StateIdle State = iota
	// StateRecording means the engine is capturing.
	StateRecording
	// StateStopping means a stop was requested and the engine is finalizing.
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot for UI display.
type Status struct {
	State   State
	Mode    encoder.Mode
	Elapsed time.Duration
}

// EventKind classifies recorder events.
type EventKind int

const (
	// EventStarted fires when the engine confirms capture is running.
	EventStarted EventKind = iota
	// EventFinished fires when the temp file is complete and ready to save.
	EventFinished
	// EventFailed fires when the engine failed; the temp file is removed.
	EventFailed
)

// Event reports a lifecycle transition. TempPath is set for EventFinished.
type Event struct {
	Kind     EventKind
	Err      error
	TempPath string
	Mode     encoder.Mode
}

// Recorder drives one engine and serializes start/stop requests.
type Recorder struct {
	cfg    *config.Config
	engine encoder.Engine
	events chan Event

	mu        sync.Mutex
	state     State
	mode      encoder.Mode
	startTime time.Time
	tempPath  string
}

// New creates a recorder around the configured engine.
func New(cfg *config.Config, engine encoder.Engine) *Recorder {
	r := &Recorder{
		cfg:    cfg,
		engine: engine,
		events: make(chan Event, 4),
		state:  StateIdle,
	}
	go r.pump()
	return r
}

// Events delivers recorder lifecycle events to the coordinator.
func (r *Recorder) Events() <-chan Event { return r.events }

// Status returns the current snapshot.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Status{State: r.state, Mode: r.mode}
	if r.state != StateIdle {
		s.Elapsed = time.Since(r.startTime)
	}
	return s
}

// Busy reports whether a recording is active or finalizing.
func (r *Recorder) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != StateIdle
}

// Start begins recording the job into a fresh temp file in the output
// directory. The job's OutputPath is set here; callers choose everything else.
func (r *Recorder) Start(ctx context.Context, job encoder.Job) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return fmt.Errorf("recorder is %s, cannot start", r.state)
	}

	tempPath, err := r.newTempPath()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	job.OutputPath = tempPath

	r.state = StateRecording
	r.mode = job.Mode
	r.startTime = time.Now()
	r.tempPath = tempPath
	r.mu.Unlock()

	if err := r.engine.Start(ctx, job); err != nil {
		r.mu.Lock()
		r.state = StateIdle
		r.tempPath = ""
		r.mu.Unlock()
		return fmt.Errorf("failed to start engine: %w", err)
	}

	log.Printf("Recorder: recording %s into %s", job.Mode, tempPath)
	return nil
}

// Stop requests a graceful stop. The result arrives as EventFinished or
// EventFailed on Events.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return fmt.Errorf("recorder is %s, cannot stop", r.state)
	}
	r.state = StateStopping
	r.mu.Unlock()

	log.Printf("Recorder: stop requested")
	return r.engine.Stop()
}

// pump translates engine events into recorder events and keeps state honest
// when the engine dies on its own.
func (r *Recorder) pump() {
	for ev := range r.engine.Events() {
		switch ev.Kind {
		case encoder.EventStarted:
			r.mu.Lock()
			mode := r.mode
			r.mu.Unlock()
			r.events <- Event{Kind: EventStarted, Mode: mode}

		case encoder.EventFinished:
			r.mu.Lock()
			tempPath := r.tempPath
			if ev.OutputPath != "" {
				// OBS writes wherever it is configured to; trust its answer.
				tempPath = ev.OutputPath
			}
			mode := r.mode
			r.state = StateIdle
			r.tempPath = ""
			r.mu.Unlock()
			r.events <- Event{Kind: EventFinished, TempPath: tempPath, Mode: mode}

		case encoder.EventFailed:
			r.mu.Lock()
			tempPath := r.tempPath
			mode := r.mode
			r.state = StateIdle
			r.tempPath = ""
			r.mu.Unlock()
			if tempPath != "" {
				if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
					log.Printf("Recorder: could not remove temp file %s: %v", tempPath, err)
				}
			}
			r.events <- Event{Kind: EventFailed, Err: ev.Err, Mode: mode}
		}
	}
}

// newTempPath returns a unique temp recording path inside the output
// directory, so finalizing is a cheap same-volume rename.
func (r *Recorder) newTempPath() (string, error) {
	dir := r.cfg.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	name := fmt.Sprintf("rec_%s_tmp.mp4", time.Now().Format("20060102_150405"))
	return filepath.Join(dir, name), nil
}

// FinalName derives the user-visible file name from a temp path.
func FinalName(tempPath string) string {
	base := filepath.Base(tempPath)
	if n := len(base) - len("_tmp.mp4"); n > 0 && base[n:] == "_tmp.mp4" {
		return base[:n] + ".mp4"
	}
	return base
}
