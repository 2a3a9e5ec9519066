package overlay

import (
	"context"

	"screen-rec/src/geometry"
)

// Result is a completed region selection. Region is in virtual-screen pixels
// and Display is the monitor that owns it.
type Result struct {
	Region    geometry.Rect
	Display   geometry.Monitor
	Cancelled bool
}

// Options controls one selection pass. Ratio locks the dragged rectangle to
// width/height (0 is freeform). Monitors is the current display list used to
// resolve which monitor owns the final rectangle.
type Options struct {
	Ratio    float64
	Monitors []geometry.Monitor
}

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
type Selector interface {
	Select(ctx context.Context, opts Options) (Result, error)
}

// NewSelector returns the platform implementation (Windows in this project).
// Implementation is provided in a platform-specific file.
func NewSelector() Selector {
	return newPlatformSelector()
}

// resolveDisplay maps a selected rectangle to its owning monitor. Falls back
// to a monitor shaped like the rectangle itself when the list is empty so the
// encoder still gets usable clamp bounds.
func resolveDisplay(r geometry.Rect, monitors []geometry.Monitor) geometry.Monitor {
	if idx := geometry.ResolveMonitor(r, monitors); idx >= 0 {
		return monitors[idx]
	}
	return geometry.Monitor{Bounds: r, Scale: 1.0}
}
