package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-rec/src/clipboard"
	"screen-rec/src/config"
	"screen-rec/src/encoder"
	"screen-rec/src/frame"
	"screen-rec/src/geometry"
	"screen-rec/src/hotkey"
	"screen-rec/src/notification"
	"screen-rec/src/overlay"
	"screen-rec/src/recorder"
	"screen-rec/src/session"
	"screen-rec/src/singleinstance"
	"screen-rec/src/tray"
	"screen-rec/src/worker"
)

// Request asks the loop to start one recording. Display and WindowTitle are
// filled by the pickers; region mode runs the selection overlay first.
type Request struct {
	Mode        encoder.Mode
	Display     geometry.Monitor
	WindowTitle string
}

// Loop is the single-goroutine coordinator. Hotkey presses, tray clicks,
// forwarded commands, and recorder events all funnel through Run, so
// recording state never needs cross-goroutine locking beyond the recorder's
// own.
type Loop struct {
	cfg      *config.Config
	rec      *recorder.Recorder
	selector overlay.Selector
	pool     *worker.Pool
	srv      singleinstance.Server

	monitors   func() []geometry.Monitor
	saveTarget func() session.Target

	hotkeyCh   chan struct{}
	requests   chan Request
	stops      chan struct{}
	saves      chan saveResult
	selections chan selectionOutcome

	selecting bool
	activeJob encoder.Job
}

type saveResult struct {
	path string
	err  error
}

// selectionOutcome carries the overlay result back to the loop goroutine.
type selectionOutcome struct {
	job encoder.Job
	res overlay.Result
	err error
}

// New creates the loop. monitors supplies the current display list for
// region selection; saveTarget resolves where finished recordings go (nil
// means auto-save into the configured output directory).
func New(cfg *config.Config, rec *recorder.Recorder, monitors func() []geometry.Monitor) *Loop {
	l := &Loop{
		cfg:        cfg,
		rec:        rec,
		selector:   overlay.NewSelector(),
		pool:       worker.New(1),
		monitors:   monitors,
		hotkeyCh:   make(chan struct{}, 4),
		requests:   make(chan Request, 4),
		stops:      make(chan struct{}, 4),
		saves:      make(chan saveResult, 4),
		selections: make(chan selectionOutcome, 1),
	}
	l.saveTarget = func() session.Target {
		return session.AutoTarget{Dir: cfg.OutputDir}
	}
	return l
}

// SetSelector replaces the region selector (tests).
func (l *Loop) SetSelector(s overlay.Selector) { l.selector = s }

// SetSaveTarget installs the GUI save dialog as the destination chooser.
func (l *Loop) SetSaveTarget(f func() session.Target) {
	if f != nil {
		l.saveTarget = f
	}
}

// StartHotkey registers the global toggle combination.
func (l *Loop) StartHotkey(combo string) {
	if combo == "" {
		return
	}
	hotkey.Listen(combo, func() {
		select {
		case l.hotkeyCh <- struct{}{}:
		default:
		}
	})
}

// Post asks the loop to start a recording. Safe from any goroutine.
func (l *Loop) Post(req Request) {
	select {
	case l.requests <- req:
	default:
		log.Printf("Eventloop: request queue full, dropping %s request", req.Mode)
	}
}

// PostStop asks the loop to stop the active recording.
func (l *Loop) PostStop() {
	select {
	case l.stops <- struct{}{}:
	default:
	}
}

// Status renders a short state line for the STATUS command. Only called on
// the loop goroutine, which owns the selecting flag.
func (l *Loop) Status() string {
	if l.selecting {
		return "selecting region"
	}
	st := l.rec.Status()
	switch st.State {
	case recorder.StateRecording:
		return fmt.Sprintf("recording %s %s", st.Mode, formatElapsed(st.Elapsed))
	case recorder.StateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// Run starts the singleinstance server and processes events until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.srv = singleinstance.NewServer()
	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	if p := l.srv.Port(); p > 0 {
		log.Printf("Eventloop: resident listening on 127.0.0.1:%d", p)
	}
	defer l.pool.Close()

	connCh := make(chan singleinstance.Conn, 4)
	go func() {
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				close(connCh)
				return
			}
			connCh <- conn
		}
	}()

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case <-l.hotkeyCh:
			l.handleToggle(ctx)
		case req := <-l.requests:
			if err := l.handleStart(ctx, req); err != nil {
				log.Printf("Eventloop: %s request: %v", req.Mode, err)
			}
		case <-l.stops:
			l.handleStop()
		case conn, ok := <-connCh:
			if !ok {
				l.shutdown()
				return nil
			}
			l.handleConn(ctx, conn)
		case sel := <-l.selections:
			l.handleSelection(ctx, sel)
		case ev := <-l.rec.Events():
			l.handleRecorderEvent(ctx, ev)
		case res := <-l.saves:
			l.handleSaveResult(res)
		}
	}
}

func (l *Loop) shutdown() {
	if l.rec.Busy() {
		if err := l.rec.Stop(); err != nil {
			log.Printf("Eventloop: stop on shutdown: %v", err)
		}
	}
	frame.Hide()
	_ = l.srv.Close()
}

// handleToggle flips between starting the default-mode recording and
// stopping the active one.
func (l *Loop) handleToggle(ctx context.Context) {
	if l.rec.Busy() {
		l.handleStop()
		return
	}
	if err := l.handleStart(ctx, l.defaultRequest()); err != nil {
		log.Printf("Eventloop: toggle start: %v", err)
	}
}

func (l *Loop) defaultRequest() Request {
	switch l.cfg.DefaultMode {
	case config.ModeDisplay:
		return Request{Mode: encoder.ModeDisplay, Display: l.primaryMonitor()}
	case config.ModeWindow:
		// Window mode needs a picker; the hotkey path falls back to desktop.
		return Request{Mode: encoder.ModeDesktop}
	default:
		return Request{Mode: encoder.ModeRegion}
	}
}

func (l *Loop) primaryMonitor() geometry.Monitor {
	for _, m := range l.monitors() {
		if m.Primary {
			return m
		}
	}
	if ms := l.monitors(); len(ms) > 0 {
		return ms[0]
	}
	return geometry.Monitor{Scale: 1.0}
}

// handleStart validates and launches one recording request. Region mode runs
// the selection overlay on its own goroutine so the loop keeps answering
// forwarded commands (with a busy error) while the overlay is up; the
// outcome comes back through l.selections.
func (l *Loop) handleStart(ctx context.Context, req Request) error {
	if l.rec.Busy() {
		return fmt.Errorf("already recording")
	}
	if l.selecting {
		return fmt.Errorf("busy: region selection in progress")
	}

	job := encoder.Job{
		Mode:         req.Mode,
		Display:      req.Display,
		WindowTitle:  req.WindowTitle,
		FPS:          l.cfg.FPS,
		BitrateKbps:  l.cfg.VideoBitrateKbps,
		CaptureAudio: l.cfg.CaptureAudio,
	}

	if req.Mode == encoder.ModeRegion {
		opts := overlay.Options{
			Ratio:    l.cfg.AspectValue,
			Monitors: l.monitors(),
		}
		l.selecting = true
		go func() {
			res, err := l.selector.Select(ctx, opts)
			l.selections <- selectionOutcome{job: job, res: res, err: err}
		}()
		return nil
	}

	return l.startJob(ctx, job)
}

func (l *Loop) startJob(ctx context.Context, job encoder.Job) error {
	if err := l.rec.Start(ctx, job); err != nil {
		log.Printf("Eventloop: start failed: %v", err)
		notification.Notify(fmt.Sprintf("Could not start recording: %v", err))
		return err
	}
	l.activeJob = job
	return nil
}

// handleSelection finishes a region start once the overlay resolves.
func (l *Loop) handleSelection(ctx context.Context, sel selectionOutcome) {
	l.selecting = false
	if sel.err != nil {
		log.Printf("Eventloop: region selection failed: %v", sel.err)
		notification.Notify("Region selection failed")
		return
	}
	if sel.res.Cancelled {
		log.Printf("Eventloop: region selection cancelled")
		return
	}
	job := sel.job
	job.Region = sel.res.Region
	job.Display = sel.res.Display
	_ = l.startJob(ctx, job)
}

func (l *Loop) handleStop() {
	if err := l.rec.Stop(); err != nil {
		log.Printf("Eventloop: stop: %v", err)
	}
}

// handleConn serves one forwarded command from a secondary invocation.
func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	defer conn.Close()

	switch conn.Request().Command {
	case singleinstance.CommandStatus:
		_ = conn.RespondSuccess(l.Status())
	case singleinstance.CommandStart:
		l.respondStart(ctx, conn, l.defaultRequest())
	case singleinstance.CommandStop:
		if !l.rec.Busy() {
			_ = conn.RespondError("not recording")
			return
		}
		l.handleStop()
		_ = conn.RespondSuccess("stopping")
	case singleinstance.CommandToggle:
		if l.rec.Busy() {
			l.handleStop()
			_ = conn.RespondSuccess("stopping")
			return
		}
		l.respondStart(ctx, conn, l.defaultRequest())
	default:
		_ = conn.RespondError("unknown command")
	}
}

// respondStart reports the true outcome of a start: an error when it was
// rejected (already recording, selection in progress, engine failure),
// "selecting region" while the overlay is up, "recording started" once the
// engine is launching.
func (l *Loop) respondStart(ctx context.Context, conn singleinstance.Conn, req Request) {
	if err := l.handleStart(ctx, req); err != nil {
		_ = conn.RespondError(err.Error())
		return
	}
	if l.selecting {
		_ = conn.RespondSuccess("selecting region")
		return
	}
	_ = conn.RespondSuccess("recording started")
}

func (l *Loop) handleRecorderEvent(ctx context.Context, ev recorder.Event) {
	switch ev.Kind {
	case recorder.EventStarted:
		tray.SetRecording(true)
		l.showRecordingFrame(l.activeJob)
		log.Printf("Eventloop: recording started (%s)", ev.Mode)

	case recorder.EventFinished:
		frame.Hide()
		tray.SetRecording(false)
		err := session.Execute(ctx, l.pool, ev.TempPath, l.saveTarget(), func(finalPath string, err error) {
			l.saves <- saveResult{path: finalPath, err: err}
		})
		if err != nil && !errors.Is(err, session.ErrCancelled) {
			log.Printf("Eventloop: save failed: %v", err)
			notification.Notify(fmt.Sprintf("Could not save recording: %v", err))
		}

	case recorder.EventFailed:
		frame.Hide()
		tray.SetRecording(false)
		log.Printf("Eventloop: recording failed: %v", ev.Err)
		notification.Notify(fmt.Sprintf("Recording failed: %v", ev.Err))
	}
}

// showRecordingFrame draws the border for region and display recordings.
func (l *Loop) showRecordingFrame(job encoder.Job) {
	var r geometry.Rect
	switch job.Mode {
	case encoder.ModeRegion:
		r = job.Region
	case encoder.ModeDisplay:
		r = job.Display.Bounds
	default:
		return
	}
	if err := frame.Show(r); err != nil {
		log.Printf("Eventloop: recording frame: %v", err)
	}
}

func (l *Loop) handleSaveResult(res saveResult) {
	if res.err != nil {
		log.Printf("Eventloop: finalize failed: %v", res.err)
		notification.Notify(fmt.Sprintf("Could not save recording: %v", res.err))
		return
	}
	log.Printf("Eventloop: saved %s", res.path)
	if err := clipboard.Write(res.path); err != nil {
		log.Printf("Eventloop: clipboard: %v", err)
	}
	notification.ShowSaved(res.path)
}
