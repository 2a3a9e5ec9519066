// Package frame draws the red border around the area being recorded. The
// border sits outside the captured rectangle, ignores the mouse, and is
// excluded from capture so it never shows up in the video.
package frame

import "screen-rec/src/geometry"

// BorderThickness is the width of the recording border in pixels.
const BorderThickness = 3

// Show displays the border around the given virtual-screen rectangle,
// flashing it briefly so the user sees where recording starts.
func Show(r geometry.Rect) error {
	return platformShow(r)
}

// Hide removes the border.
func Hide() {
	platformHide()
}

// outerRect expands the recorded rectangle so the border sits outside it.
func outerRect(r geometry.Rect) geometry.Rect {
	return geometry.Rect{
		X:      r.X - BorderThickness,
		Y:      r.Y - BorderThickness,
		Width:  r.Width + 2*BorderThickness,
		Height: r.Height + 2*BorderThickness,
	}
}
