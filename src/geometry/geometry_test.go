package geometry

import (
	"math"
	"math/rand"
	"testing"
)

var testRatios = []float64{16.0 / 9.0, 9.0 / 16.0, 4.0 / 3.0, 1.0, 21.0 / 9.0, 3.0 / 2.0}

func TestDragRectAspectInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 5000; i++ {
		ratio := testRatios[rng.Intn(len(testRatios))]
		dx := float64(rng.Intn(4001) - 2000)
		dy := float64(rng.Intn(4001) - 2000)

		w, h := dragSize(dx, dy, ratio)
		if w < MinSide || h < MinSide {
			t.Fatalf("dragSize(%v,%v,%v) = %vx%v, below minimum", dx, dy, ratio, w, h)
		}
		if math.Round(w/h*1000) != math.Round(ratio*1000) {
			t.Fatalf("dragSize(%v,%v,%v) = %vx%v, ratio %v != %v", dx, dy, ratio, w, h, w/h, ratio)
		}
	}
}

func TestDragRectRoundedAspect(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 5000; i++ {
		ratio := testRatios[rng.Intn(len(testRatios))]
		anchor := Point{X: rng.Intn(2001) - 1000, Y: rng.Intn(2001) - 1000}
		cursor := Point{X: anchor.X + rng.Intn(3001) - 1500, Y: anchor.Y + rng.Intn(3001) - 1500}

		r := DragRect(anchor, cursor, ratio)
		if r.Width < MinSide || r.Height < MinSide {
			t.Fatalf("DragRect(%v,%v,%v) = %+v, below minimum", anchor, cursor, ratio, r)
		}
		// Integer rounding perturbs the ratio by at most half a pixel per side.
		got := float64(r.Width) / float64(r.Height)
		tol := (ratio + 1.0) / float64(r.Height)
		if math.Abs(got-ratio) > tol {
			t.Fatalf("DragRect(%v,%v,%v) = %+v, ratio %v not within %v of %v", anchor, cursor, ratio, r, got, tol, ratio)
		}
	}
}

func TestDragRectSignRule(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 2000; i++ {
		ratio := 0.0
		if rng.Intn(2) == 0 {
			ratio = testRatios[rng.Intn(len(testRatios))]
		}
		anchor := Point{X: rng.Intn(2001) - 1000, Y: rng.Intn(2001) - 1000}
		cursor := Point{X: anchor.X + rng.Intn(2001) - 1000, Y: anchor.Y + rng.Intn(2001) - 1000}

		r := DragRect(anchor, cursor, ratio)
		if cursor.X >= anchor.X && r.X != anchor.X {
			t.Fatalf("rightward drag should anchor left edge: anchor=%v cursor=%v rect=%+v", anchor, cursor, r)
		}
		if cursor.X < anchor.X && r.Right() != anchor.X {
			t.Fatalf("leftward drag should anchor right edge: anchor=%v cursor=%v rect=%+v", anchor, cursor, r)
		}
		if cursor.Y >= anchor.Y && r.Y != anchor.Y {
			t.Fatalf("downward drag should anchor top edge: anchor=%v cursor=%v rect=%+v", anchor, cursor, r)
		}
		if cursor.Y < anchor.Y && r.Bottom() != anchor.Y {
			t.Fatalf("upward drag should anchor bottom edge: anchor=%v cursor=%v rect=%+v", anchor, cursor, r)
		}
	}
}

func TestDragRectFreeform(t *testing.T) {
	r := DragRect(Point{X: 100, Y: 100}, Point{X: 420, Y: 340}, 0)
	want := Rect{X: 100, Y: 100, Width: 320, Height: 240}
	if r != want {
		t.Errorf("freeform drag: got %+v, want %+v", r, want)
	}

	// Tiny drags clamp both sides independently.
	r = DragRect(Point{X: 100, Y: 100}, Point{X: 103, Y: 101}, 0)
	if r.Width != MinSide || r.Height != MinSide {
		t.Errorf("tiny freeform drag should clamp to %dx%d, got %+v", MinSide, MinSide, r)
	}
}

func TestDragRectMinimumRestoresRatio(t *testing.T) {
	// A 10px drag at 16:9 clamps height to 50 and expands width.
	r := DragRect(Point{}, Point{X: 10, Y: 10}, 16.0/9.0)
	if r.Height != MinSide {
		t.Fatalf("expected height clamp to %d, got %+v", MinSide, r)
	}
	if want := int(math.Round(MinSide * 16.0 / 9.0)); r.Width != want {
		t.Errorf("expected width %d to restore ratio, got %d", want, r.Width)
	}

	// Portrait ratio clamps width instead.
	r = DragRect(Point{}, Point{X: 10, Y: 10}, 9.0/16.0)
	if r.Width != MinSide {
		t.Fatalf("expected width clamp to %d, got %+v", MinSide, r)
	}
	if want := int(math.Round(MinSide * 16.0 / 9.0)); r.Height != want {
		t.Errorf("expected height %d to restore ratio, got %d", want, r.Height)
	}
}

func twoMonitorSetup() []Monitor {
	return []Monitor{
		{Index: 0, Bounds: Rect{X: 0, Y: 0, Width: 2560, Height: 1440}, Scale: 1.25, Primary: true},
		{Index: 1, Bounds: Rect{X: 2560, Y: 120, Width: 1920, Height: 1080}, Scale: 1.0},
	}
}

func TestResolveMonitorCenter(t *testing.T) {
	monitors := twoMonitorSetup()

	if got := ResolveMonitor(Rect{X: 100, Y: 100, Width: 400, Height: 300}, monitors); got != 0 {
		t.Errorf("rect on primary resolved to %d", got)
	}
	if got := ResolveMonitor(Rect{X: 3000, Y: 400, Width: 400, Height: 300}, monitors); got != 1 {
		t.Errorf("rect on secondary resolved to %d", got)
	}
}

func TestResolveMonitorIntersectionFallback(t *testing.T) {
	monitors := twoMonitorSetup()

	// Center sits in the dead zone above the secondary; most of the area
	// overlaps the secondary monitor.
	r := Rect{X: 2500, Y: 0, Width: 1000, Height: 200}
	c := r.Center()
	for _, m := range monitors {
		if m.Bounds.Contains(c) {
			t.Fatalf("test rect center unexpectedly inside monitor %d", m.Index)
		}
	}
	if got := ResolveMonitor(r, monitors); got != 1 {
		t.Errorf("expected intersection fallback to pick monitor 1, got %d", got)
	}
}

func TestResolveMonitorTieBreak(t *testing.T) {
	monitors := twoMonitorSetup()

	// Entirely outside every monitor: zero intersection everywhere, the
	// first-enumerated (primary) monitor wins.
	if got := ResolveMonitor(Rect{X: -5000, Y: -5000, Width: 100, Height: 100}, monitors); got != 0 {
		t.Errorf("expected tie-break to monitor 0, got %d", got)
	}

	if got := ResolveMonitor(Rect{X: 0, Y: 0, Width: 10, Height: 10}, nil); got != -1 {
		t.Errorf("expected -1 for empty monitor list, got %d", got)
	}
}

func TestResolveMonitorRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	for i := 0; i < 2000; i++ {
		monitors := []Monitor{
			{Index: 0, Bounds: Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Primary: true, Scale: 1},
			{Index: 1, Bounds: Rect{X: 1920, Y: rng.Intn(400) - 200, Width: 1920, Height: 1080}, Scale: 1},
			{Index: 2, Bounds: Rect{X: -1280, Y: rng.Intn(400) - 200, Width: 1280, Height: 1024}, Scale: 1},
		}
		r := Rect{
			X:      rng.Intn(6000) - 2000,
			Y:      rng.Intn(3000) - 1000,
			Width:  rng.Intn(1000) + MinSide,
			Height: rng.Intn(1000) + MinSide,
		}

		got := ResolveMonitor(r, monitors)
		if got < 0 || got >= len(monitors) {
			t.Fatalf("ResolveMonitor returned out-of-range index %d", got)
		}

		c := r.Center()
		contained := -1
		for idx, m := range monitors {
			if m.Bounds.Contains(c) {
				contained = idx
				break
			}
		}
		if contained >= 0 {
			if got != contained {
				t.Fatalf("center containment must win: rect=%+v got=%d want=%d", r, got, contained)
			}
			continue
		}
		for idx, m := range monitors {
			if m.Bounds.Intersect(r).Area() > monitors[got].Bounds.Intersect(r).Area() {
				t.Fatalf("monitor %d overlaps more than chosen %d for rect %+v", idx, got, r)
			}
		}
	}
}

func TestDIPToPixels(t *testing.T) {
	cases := []struct {
		dip   float64
		scale float64
		want  int
	}{
		{100, 1.0, 100},
		{100, 1.25, 125},
		{100, 1.5, 150},
		{33, 2.0, 66},
		{0, 1.75, 0},
	}
	for _, c := range cases {
		if got := DIPToPixels(c.dip, c.scale); got != c.want {
			t.Errorf("DIPToPixels(%v, %v) = %d, want %d", c.dip, c.scale, got, c.want)
		}
	}
}

func TestLocalToMonitor(t *testing.T) {
	m := Monitor{Bounds: Rect{X: 2560, Y: 120, Width: 1920, Height: 1080}}
	r := Rect{X: 3000, Y: 400, Width: 640, Height: 480}
	local := LocalToMonitor(r, m)
	want := Rect{X: 440, Y: 280, Width: 640, Height: 480}
	if local != want {
		t.Errorf("LocalToMonitor = %+v, want %+v", local, want)
	}
}

func TestClampToRect(t *testing.T) {
	bounds := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	r := ClampToRect(Rect{X: 1800, Y: 1000, Width: 400, Height: 300}, bounds)
	if r.Right() > bounds.Right() || r.Bottom() > bounds.Bottom() {
		t.Errorf("clamped rect %+v escapes bounds %+v", r, bounds)
	}
	if r.Width != 400 || r.Height != 300 {
		t.Errorf("clamp should shift, not shrink, when the rect fits: %+v", r)
	}

	r = ClampToRect(Rect{X: -100, Y: -100, Width: 5000, Height: 5000}, bounds)
	if r != bounds {
		t.Errorf("oversized rect should clamp to full bounds, got %+v", r)
	}
}

func TestSnapEven(t *testing.T) {
	r := SnapEven(Rect{X: 101, Y: 33, Width: 641, Height: 481})
	if r.X != 100 || r.Y != 32 || r.Width != 640 || r.Height != 480 {
		t.Errorf("SnapEven = %+v", r)
	}
	even := Rect{X: 10, Y: 20, Width: 640, Height: 480}
	if got := SnapEven(even); got != even {
		t.Errorf("SnapEven changed an already-even rect: %+v", got)
	}
}
