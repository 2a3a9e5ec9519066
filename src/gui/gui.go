// Package gui is the recorder's main window: mode pickers, preset selection,
// status line, and the save dialog. All recording control goes through the
// event loop; the GUI never talks to the engine directly.
package gui

import (
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"screen-rec/src/config"
	"screen-rec/src/display"
	"screen-rec/src/encoder"
	"screen-rec/src/eventloop"
	"screen-rec/src/presets"
	"screen-rec/src/recorder"
	"screen-rec/src/session"
)

// UI owns the main window. Create with New, then Run on the main goroutine.
type UI struct {
	app  fyne.App
	win  fyne.Window
	cfg  *config.Config
	loop *eventloop.Loop
	rec  *recorder.Recorder

	status  *widget.Label
	elapsed *widget.Label

	saveRequests chan saveRequest
}

type saveRequest struct {
	suggested string
	reply     chan saveReply
}

type saveReply struct {
	path string
	err  error
}

// New builds the window. presetList populates the preset selector.
func New(cfg *config.Config, loop *eventloop.Loop, rec *recorder.Recorder, presetList []presets.Preset) *UI {
	u := &UI{
		app:          app.NewWithID("screen-rec"),
		cfg:          cfg,
		loop:         loop,
		rec:          rec,
		saveRequests: make(chan saveRequest, 1),
	}
	u.win = u.app.NewWindow("Screen Recorder")
	u.win.Resize(fyne.NewSize(380, 260))
	u.win.SetCloseIntercept(func() {
		// Closing hides to tray; Quit comes from the tray menu.
		u.win.Hide()
	})
	u.buildContent(presetList)
	go u.statusTicker()
	go u.saveDialogPump()
	return u
}

func (u *UI) buildContent(presetList []presets.Preset) {
	u.status = widget.NewLabel("idle")
	u.elapsed = widget.NewLabel("00:00")

	presetNames := make([]string, len(presetList))
	for i, p := range presetList {
		presetNames[i] = p.Name
	}
	presetSelect := widget.NewSelect(presetNames, func(name string) {
		for _, p := range presetList {
			if p.Name == name {
				p.Apply(u.cfg)
				log.Printf("GUI: preset %q applied", name)
				return
			}
		}
	})
	presetSelect.PlaceHolder = "Preset"

	aspectSelect := widget.NewSelect(
		[]string{config.AspectFree, "16:9", "9:16", "4:3", "1:1"},
		func(value string) {
			v, err := config.ParseAspect(value)
			if err != nil {
				log.Printf("GUI: aspect %q: %v", value, err)
				return
			}
			u.cfg.AspectRatio = value
			u.cfg.AspectValue = v
		},
	)
	aspectSelect.SetSelected(u.cfg.AspectRatio)

	audioCheck := widget.NewCheck("Capture system audio", func(on bool) {
		u.cfg.CaptureAudio = on
	})
	audioCheck.SetChecked(u.cfg.CaptureAudio)

	recordRegion := widget.NewButton("Record Region", func() {
		u.win.Hide()
		u.loop.Post(eventloop.Request{Mode: encoder.ModeRegion})
	})
	recordDisplay := widget.NewButton("Record Display", u.pickDisplay)
	recordWindow := widget.NewButton("Record Window", u.pickWindow)
	stop := widget.NewButton("Stop", u.loop.PostStop)

	u.win.SetContent(container.NewVBox(
		container.NewHBox(widget.NewLabel("Status:"), u.status, u.elapsed),
		presetSelect,
		aspectSelect,
		audioCheck,
		recordRegion,
		recordDisplay,
		recordWindow,
		stop,
	))
}

// pickDisplay lists monitors and starts a display recording.
func (u *UI) pickDisplay() {
	monitors, err := display.Displays()
	if err != nil {
		dialog.ShowError(err, u.win)
		return
	}
	if len(monitors) == 0 {
		dialog.ShowError(fmt.Errorf("no displays found"), u.win)
		return
	}
	names := make([]string, len(monitors))
	for i, m := range monitors {
		names[i] = m.Name
	}

	sel := widget.NewSelect(names, nil)
	sel.SetSelectedIndex(0)
	dialog.ShowCustomConfirm("Record Display", "Record", "Cancel", sel, func(ok bool) {
		if !ok || sel.SelectedIndex() < 0 {
			return
		}
		u.win.Hide()
		u.loop.Post(eventloop.Request{
			Mode:    encoder.ModeDisplay,
			Display: monitors[sel.SelectedIndex()],
		})
	}, u.win)
}

// pickWindow lists capturable windows and starts a window recording.
func (u *UI) pickWindow() {
	windows, err := display.ListWindows()
	if err != nil {
		dialog.ShowError(err, u.win)
		return
	}
	if len(windows) == 0 {
		dialog.ShowError(fmt.Errorf("no capturable windows found"), u.win)
		return
	}
	titles := make([]string, len(windows))
	for i, w := range windows {
		titles[i] = w.Title
	}

	sel := widget.NewSelect(titles, nil)
	sel.SetSelectedIndex(0)
	dialog.ShowCustomConfirm("Record Window", "Record", "Cancel", sel, func(ok bool) {
		if !ok || sel.SelectedIndex() < 0 {
			return
		}
		u.win.Hide()
		u.loop.Post(eventloop.Request{
			Mode:        encoder.ModeWindow,
			WindowTitle: windows[sel.SelectedIndex()].Title,
		})
	}, u.win)
}

// SaveTarget returns a target that asks the user where to save through a
// file dialog. Blocks the calling goroutine until the dialog resolves.
func (u *UI) SaveTarget() session.Target {
	return session.FuncTarget(func(suggested string) (string, error) {
		req := saveRequest{suggested: suggested, reply: make(chan saveReply, 1)}
		u.saveRequests <- req
		r := <-req.reply
		return r.path, r.err
	})
}

// saveDialogPump runs save dialogs one at a time. It is not the fyne
// goroutine, so every UI mutation goes through fyne.Do.
func (u *UI) saveDialogPump() {
	for req := range u.saveRequests {
		req := req
		fyne.Do(func() {
			u.win.Show()
			d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
				if err != nil {
					req.reply <- saveReply{err: err}
					return
				}
				if writer == nil {
					req.reply <- saveReply{err: session.ErrCancelled}
					return
				}
				path := writer.URI().Path()
				_ = writer.Close()
				req.reply <- saveReply{path: path}
			}, u.win)
			d.SetFileName(req.suggested)
			if lister, err := storage.ListerForURI(storage.NewFileURI(u.cfg.OutputDir)); err == nil {
				d.SetLocation(lister)
			}
			d.Show()
		})
	}
}

// statusTicker refreshes the status line once a second.
func (u *UI) statusTicker() {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for range tick.C {
		st := u.rec.Status()
		fyne.Do(func() {
			u.status.SetText(st.State.String())
			if st.State == recorder.StateIdle {
				u.elapsed.SetText("00:00")
			} else {
				d := st.Elapsed.Round(time.Second)
				u.elapsed.SetText(fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60))
			}
		})
	}
}

// ShowDisplayPicker opens the window and the display picker. Called from the
// tray goroutine.
func (u *UI) ShowDisplayPicker() {
	fyne.Do(func() {
		u.win.Show()
		u.pickDisplay()
	})
}

// ShowWindowPicker opens the window and the window picker. Called from the
// tray goroutine.
func (u *UI) ShowWindowPicker() {
	fyne.Do(func() {
		u.win.Show()
		u.pickWindow()
	})
}

// Show brings the main window to the front. Safe from any goroutine.
func (u *UI) Show() {
	fyne.Do(func() {
		u.win.Show()
		u.win.RequestFocus()
	})
}

// Run shows the window and enters the fyne main loop. Must be called from
// the main goroutine; blocks until Quit.
func (u *UI) Run() {
	u.win.ShowAndRun()
}

// Quit stops the fyne main loop. Safe from any goroutine.
func (u *UI) Quit() {
	fyne.Do(u.app.Quit)
}
