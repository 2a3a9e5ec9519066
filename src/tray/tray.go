// Package tray owns the notification-area icon and menu. Menu clicks are
// forwarded to the event loop through Handlers; the tray never drives
// recording state itself.
package tray

import (
	"log"

	"github.com/getlantern/systray"
)

const (
	tooltipIdle      = "Screen Recorder"
	tooltipRecording = "Screen Recorder - REC"
)

// Handlers receives menu actions. All callbacks run on a tray goroutine and
// must hand off to the event loop.
type Handlers struct {
	OnRecordRegion  func()
	OnRecordDisplay func()
	OnRecordWindow  func()
	OnStop          func()
	OnShowWindow    func()
	OnQuit          func()
}

var (
	handlers Handlers

	menuRegion  *systray.MenuItem
	menuDisplay *systray.MenuItem
	menuWindow  *systray.MenuItem
	menuStop    *systray.MenuItem
)

// Run starts the systray loop. Blocks until Quit; call from a dedicated
// goroutine.
func Run(h Handlers) {
	handlers = h
	systray.Run(onReady, onExit)
}

// Quit tears down the tray icon.
func Quit() {
	systray.Quit()
}

// SetRecording flips the tooltip and menu between idle and recording states.
func SetRecording(recording bool) {
	if menuStop == nil {
		return
	}
	if recording {
		systray.SetTooltip(tooltipRecording)
		menuRegion.Disable()
		menuDisplay.Disable()
		menuWindow.Disable()
		menuStop.Enable()
	} else {
		systray.SetTooltip(tooltipIdle)
		menuRegion.Enable()
		menuDisplay.Enable()
		menuWindow.Enable()
		menuStop.Disable()
	}
}

func onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("Screen Recorder")
	systray.SetTooltip(tooltipIdle)

	mShow := systray.AddMenuItem("Open Recorder", "Show the recorder window")
	systray.AddSeparator()
	menuRegion = systray.AddMenuItem("Record Region", "Select a region and start recording")
	menuDisplay = systray.AddMenuItem("Record Display", "Pick a display and start recording")
	menuWindow = systray.AddMenuItem("Record Window", "Pick a window and start recording")
	menuStop = systray.AddMenuItem("Stop Recording", "Stop and save the current recording")
	menuStop.Disable()
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the recorder")

	go func() {
		for {
			select {
			case <-mShow.ClickedCh:
				invoke(handlers.OnShowWindow)
			case <-menuRegion.ClickedCh:
				invoke(handlers.OnRecordRegion)
			case <-menuDisplay.ClickedCh:
				invoke(handlers.OnRecordDisplay)
			case <-menuWindow.ClickedCh:
				invoke(handlers.OnRecordWindow)
			case <-menuStop.ClickedCh:
				invoke(handlers.OnStop)
			case <-mQuit.ClickedCh:
				invoke(handlers.OnQuit)
				systray.Quit()
				return
			}
		}
	}()
}

func invoke(f func()) {
	if f == nil {
		log.Printf("Tray: no handler bound for menu action")
		return
	}
	f()
}

func onExit() {}
