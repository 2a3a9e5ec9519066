package geometry

import "math"

// MinSide is the smallest selection side the overlay will produce, in
// virtual-screen pixels.
const MinSide = 50

// Point is a position in virtual-screen coordinates.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned rectangle in virtual-screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Monitor describes one display in the virtual desktop. Bounds are in
// virtual-screen pixels; Scale is the DPI scale factor (1.0 == 96 DPI).
type Monitor struct {
	Index   int
	Bounds  Rect
	Scale   float64
	Primary bool
	Name    string
}

func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Intersect returns the overlap of two rectangles (zero Rect when disjoint).
func (r Rect) Intersect(o Rect) Rect {
	x1 := maxInt(r.X, o.X)
	y1 := maxInt(r.Y, o.Y)
	x2 := minInt(r.Right(), o.Right())
	y2 := minInt(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Area returns the rectangle's area in square pixels.
func (r Rect) Area() int { return r.Width * r.Height }

// DragRect builds the selection rectangle for a drag from anchor to cursor.
// ratio is width/height; ratio <= 0 means freeform. The rectangle keeps one
// corner at the anchor and extends toward the cursor. With a ratio, the
// dominant drag axis drives the size. Both sides are at least MinSide; when
// the clamp hits, the other side is expanded to restore the ratio.
func DragRect(anchor, cursor Point, ratio float64) Rect {
	w, h := dragSize(float64(cursor.X-anchor.X), float64(cursor.Y-anchor.Y), ratio)

	r := Rect{Width: int(math.Round(w)), Height: int(math.Round(h))}
	if cursor.X >= anchor.X {
		r.X = anchor.X
	} else {
		r.X = anchor.X - r.Width
	}
	if cursor.Y >= anchor.Y {
		r.Y = anchor.Y
	} else {
		r.Y = anchor.Y - r.Height
	}
	return r
}

// dragSize computes the unclamped-to-rounded selection size in float space so
// the ratio invariant holds exactly before integer rounding.
func dragSize(dx, dy, ratio float64) (w, h float64) {
	dx = math.Abs(dx)
	dy = math.Abs(dy)

	if ratio <= 0 {
		w, h = dx, dy
		if w < MinSide {
			w = MinSide
		}
		if h < MinSide {
			h = MinSide
		}
		return w, h
	}

	// Whichever axis dominates after applying the ratio wins.
	if dx >= dy*ratio {
		w = dx
		h = w / ratio
	} else {
		h = dy
		w = h * ratio
	}
	if w < MinSide {
		w = MinSide
		h = w / ratio
	}
	if h < MinSide {
		h = MinSide
		w = h * ratio
	}
	return w, h
}

// ResolveMonitor picks the monitor owning r: the one containing r's center,
// else the one with the largest intersection area, ties going to the
// first-enumerated monitor. Returns -1 only for an empty monitor list.
func ResolveMonitor(r Rect, monitors []Monitor) int {
	if len(monitors) == 0 {
		return -1
	}

	c := r.Center()
	for i, m := range monitors {
		if m.Bounds.Contains(c) {
			return i
		}
	}

	best := 0
	bestArea := monitors[0].Bounds.Intersect(r).Area()
	for i := 1; i < len(monitors); i++ {
		if a := monitors[i].Bounds.Intersect(r).Area(); a > bestArea {
			best = i
			bestArea = a
		}
	}
	return best
}

// DIPToPixels converts device-independent pixels to physical pixels for the
// given DPI scale factor.
func DIPToPixels(dip, scale float64) int {
	return int(math.Round(dip * scale))
}

// LocalToMonitor rebases a virtual-screen rectangle onto monitor-local
// coordinates (origin at the monitor's top-left pixel).
func LocalToMonitor(r Rect, m Monitor) Rect {
	return Rect{X: r.X - m.Bounds.X, Y: r.Y - m.Bounds.Y, Width: r.Width, Height: r.Height}
}

// ClampToRect shrinks and shifts r so it lies entirely within bounds.
func ClampToRect(r, bounds Rect) Rect {
	if r.Width > bounds.Width {
		r.Width = bounds.Width
	}
	if r.Height > bounds.Height {
		r.Height = bounds.Height
	}
	if r.X < bounds.X {
		r.X = bounds.X
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	}
	if r.Right() > bounds.Right() {
		r.X = bounds.Right() - r.Width
	}
	if r.Bottom() > bounds.Bottom() {
		r.Y = bounds.Bottom() - r.Height
	}
	return r
}

// SnapEven aligns origin and size down to even values. H.264 in yuv420p
// rejects odd frame dimensions, and gdigrab offsets behave the same way.
func SnapEven(r Rect) Rect {
	r.X -= r.X & 1
	r.Y -= r.Y & 1
	r.Width -= r.Width & 1
	r.Height -= r.Height & 1
	return r
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
