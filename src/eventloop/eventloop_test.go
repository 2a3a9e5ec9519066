package eventloop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"screen-rec/src/config"
	"screen-rec/src/encoder"
	"screen-rec/src/geometry"
	"screen-rec/src/overlay"
	"screen-rec/src/recorder"
	"screen-rec/src/singleinstance"
)

type fakeEngine struct {
	events   chan encoder.Event
	jobs     chan encoder.Job
	startErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		events: make(chan encoder.Event, 4),
		jobs:   make(chan encoder.Job, 4),
	}
}

func (f *fakeEngine) Start(ctx context.Context, job encoder.Job) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.jobs <- job
	f.events <- encoder.Event{Kind: encoder.EventStarted}
	return nil
}

func (f *fakeEngine) Stop() error {
	f.events <- encoder.Event{Kind: encoder.EventFinished}
	return nil
}

func (f *fakeEngine) Events() <-chan encoder.Event { return f.events }

type fakeSelector struct {
	result overlay.Result
}

func (f *fakeSelector) Select(ctx context.Context, opts overlay.Options) (overlay.Result, error) {
	return f.result, nil
}

func testMonitors() []geometry.Monitor {
	return []geometry.Monitor{
		{Index: 0, Bounds: geometry.Rect{Width: 1920, Height: 1080}, Scale: 1.0, Primary: true},
	}
}

func startLoop(t *testing.T, port, mode string, sel overlay.Selector, engine *fakeEngine) (*Loop, *fakeEngine, context.CancelFunc) {
	t.Helper()
	t.Setenv("SCREENREC_PORT_START", port)
	t.Setenv("SCREENREC_PORT_END", port)

	cfg := &config.Config{
		DefaultMode:      mode,
		FPS:              30,
		VideoBitrateKbps: 8000,
		OutputDir:        t.TempDir(),
		StopTimeoutSec:   5,
	}
	if engine == nil {
		engine = newFakeEngine()
	}
	rec := recorder.New(cfg, engine)
	l := New(cfg, rec, testMonitors)
	if sel == nil {
		sel = &fakeSelector{result: overlay.Result{
			Region:  geometry.Rect{X: 100, Y: 100, Width: 640, Height: 360},
			Display: testMonitors()[0],
		}}
	}
	l.SetSelector(sel)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := l.Run(ctx); err != nil && ctx.Err() == nil {
			t.Errorf("Run: %v", err)
		}
	}()
	// Give the server a moment to bind.
	time.Sleep(100 * time.Millisecond)
	return l, engine, cancel
}

func waitForJob(t *testing.T, engine *fakeEngine) encoder.Job {
	t.Helper()
	select {
	case job := <-engine.jobs:
		return job
	case <-time.After(5 * time.Second):
		t.Fatal("engine never started")
		return encoder.Job{}
	}
}

func TestToggleCommandStartsAndStops(t *testing.T) {
	l, engine, cancel := startLoop(t, "49620", config.ModeRegion, nil, nil)
	defer cancel()

	ctx, cctx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cctx()
	client := singleinstance.NewClient()

	delegated, reply, err := client.Send(ctx, singleinstance.CommandToggle)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !delegated {
		t.Fatal("no resident found")
	}
	// Region toggles answer as soon as the overlay is up; recording follows
	// once the selection resolves.
	if reply != "selecting region" {
		t.Errorf("reply = %q", reply)
	}

	job := waitForJob(t, engine)
	if job.Mode != encoder.ModeRegion {
		t.Errorf("job mode = %s, want region", job.Mode)
	}
	if job.Region.Width != 640 || job.Region.Height != 360 {
		t.Errorf("job region = %+v", job.Region)
	}
	if !strings.HasSuffix(job.OutputPath, "_tmp.mp4") {
		t.Errorf("job output %s is not a temp path", job.OutputPath)
	}

	// Wait until the loop has consumed the started event.
	deadline := time.Now().Add(5 * time.Second)
	for !l.rec.Busy() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	delegated, reply, err = client.Send(ctx, singleinstance.CommandToggle)
	if err != nil || !delegated {
		t.Fatalf("second toggle: delegated=%v err=%v", delegated, err)
	}
	if reply != "stopping" {
		t.Errorf("second toggle reply = %q", reply)
	}
}

func TestStatusCommand(t *testing.T) {
	_, _, cancel := startLoop(t, "49621", config.ModeRegion, nil, nil)
	defer cancel()

	ctx, cctx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cctx()
	client := singleinstance.NewClient()

	delegated, reply, err := client.Send(ctx, singleinstance.CommandStatus)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !delegated {
		t.Fatal("no resident found")
	}
	if reply != "idle" {
		t.Errorf("status reply = %q, want idle", reply)
	}
}

func TestStopWithoutRecordingFails(t *testing.T) {
	_, _, cancel := startLoop(t, "49622", config.ModeRegion, nil, nil)
	defer cancel()

	ctx, cctx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cctx()
	client := singleinstance.NewClient()

	delegated, _, err := client.Send(ctx, singleinstance.CommandStop)
	if !delegated {
		t.Fatal("no resident found")
	}
	if err == nil {
		t.Error("STOP while idle did not error")
	}
}

func TestFinishedRecordingIsSaved(t *testing.T) {
	l, engine, cancel := startLoop(t, "49623", config.ModeRegion, nil, nil)
	defer cancel()

	ctx, cctx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cctx()
	client := singleinstance.NewClient()

	if _, _, err := client.Send(ctx, singleinstance.CommandStart); err != nil {
		t.Fatalf("start: %v", err)
	}
	job := waitForJob(t, engine)
	if err := os.WriteFile(job.OutputPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !l.rec.Busy() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if _, _, err := client.Send(ctx, singleinstance.CommandStop); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Auto-save finalizes into the output dir without the _tmp suffix.
	want := filepath.Join(filepath.Dir(job.OutputPath), recorder.FinalName(job.OutputPath))
	for time.Now().Before(deadline) {
		if _, err := os.Stat(want); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("saved file %s never appeared", want)
}

// blockingSelector holds the selection open until released, standing in for
// a user who has the overlay up.
type blockingSelector struct {
	release chan overlay.Result
}

func (b *blockingSelector) Select(ctx context.Context, opts overlay.Options) (overlay.Result, error) {
	select {
	case res := <-b.release:
		return res, nil
	case <-ctx.Done():
		return overlay.Result{Cancelled: true}, nil
	}
}

func TestCommandsAnswerBusyDuringSelection(t *testing.T) {
	sel := &blockingSelector{release: make(chan overlay.Result, 1)}
	_, engine, cancel := startLoop(t, "49624", config.ModeRegion, sel, nil)
	defer cancel()

	ctx, cctx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cctx()
	client := singleinstance.NewClient()

	_, reply, err := client.Send(ctx, singleinstance.CommandStart)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if reply != "selecting region" {
		t.Errorf("start reply = %q, want selecting region", reply)
	}

	// The overlay is up; further starts must be refused, not queued.
	if _, _, err := client.Send(ctx, singleinstance.CommandToggle); err == nil {
		t.Error("toggle during selection did not error")
	} else if !strings.Contains(err.Error(), "busy") {
		t.Errorf("toggle error = %v, want busy", err)
	}

	_, reply, err = client.Send(ctx, singleinstance.CommandStatus)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if reply != "selecting region" {
		t.Errorf("status reply = %q, want selecting region", reply)
	}

	sel.release <- overlay.Result{
		Region:  geometry.Rect{X: 10, Y: 10, Width: 320, Height: 180},
		Display: testMonitors()[0],
	}
	job := waitForJob(t, engine)
	if job.Region.Width != 320 {
		t.Errorf("job region = %+v", job.Region)
	}
}

func TestStartFailureIsReported(t *testing.T) {
	engine := newFakeEngine()
	engine.startErr = errors.New("capture device unavailable")
	_, _, cancel := startLoop(t, "49625", config.ModeDisplay, nil, engine)
	defer cancel()

	ctx, cctx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cctx()
	client := singleinstance.NewClient()

	delegated, _, err := client.Send(ctx, singleinstance.CommandStart)
	if !delegated {
		t.Fatal("no resident found")
	}
	if err == nil {
		t.Fatal("failed start reported success")
	}
	if !strings.Contains(err.Error(), "capture device unavailable") {
		t.Errorf("error = %v", err)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{42 * time.Second, "00:42"},
		{61 * time.Second, "01:01"},
		{10*time.Minute + 5*time.Second, "10:05"},
	}
	for _, c := range cases {
		if got := formatElapsed(c.d); got != c.want {
			t.Errorf("formatElapsed(%v) = %s, want %s", c.d, got, c.want)
		}
	}
}
