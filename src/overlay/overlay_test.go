package overlay

import (
	"testing"

	"screen-rec/src/geometry"
)

func TestResolveDisplayUsesMonitorList(t *testing.T) {
	monitors := []geometry.Monitor{
		{Index: 0, Bounds: geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Scale: 1.0},
		{Index: 1, Bounds: geometry.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}, Scale: 1.5},
	}
	r := geometry.Rect{X: 2000, Y: 100, Width: 640, Height: 360}

	got := resolveDisplay(r, monitors)
	if got.Index != 1 {
		t.Errorf("resolveDisplay picked monitor %d, want 1", got.Index)
	}
}

func TestResolveDisplayFallback(t *testing.T) {
	r := geometry.Rect{X: 10, Y: 20, Width: 300, Height: 200}

	got := resolveDisplay(r, nil)
	if got.Bounds != r {
		t.Errorf("fallback bounds = %+v, want %+v", got.Bounds, r)
	}
	if got.Scale != 1.0 {
		t.Errorf("fallback scale = %f, want 1.0", got.Scale)
	}
}
