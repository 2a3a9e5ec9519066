package display

import (
	"fmt"

	"screen-rec/src/geometry"

	"github.com/kbinani/screenshot"
)

// Window is one top-level application window offered as a capture source.
type Window struct {
	Handle uintptr
	Title  string
}

func Init() {
	// Initialize display package if needed
}

// Displays enumerates the active displays, primary first, with virtual-screen
// bounds and per-monitor DPI scale factors.
func Displays() ([]geometry.Monitor, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	monitors := make([]geometry.Monitor, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		r := geometry.Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
		monitors = append(monitors, geometry.Monitor{
			Index:   i,
			Bounds:  r,
			Scale:   scaleForRect(r),
			Primary: i == 0,
			Name:    fmt.Sprintf("Display %d (%dx%d)", i+1, r.Width, r.Height),
		})
	}
	return monitors, nil
}

// VirtualBounds returns the bounding rectangle of the whole virtual desktop.
func VirtualBounds() (geometry.Rect, error) {
	monitors, err := Displays()
	if err != nil {
		return geometry.Rect{}, err
	}
	rects := make([]geometry.Rect, len(monitors))
	for i, m := range monitors {
		rects[i] = m.Bounds
	}
	return unionRects(rects), nil
}

func unionRects(rects []geometry.Rect) geometry.Rect {
	if len(rects) == 0 {
		return geometry.Rect{}
	}
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.Right() > maxX {
			maxX = r.Right()
		}
		if r.Bottom() > maxY {
			maxY = r.Bottom()
		}
	}
	return geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
