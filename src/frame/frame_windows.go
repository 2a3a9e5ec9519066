//go:build windows

package frame

import (
	"fmt"
	"log"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"screen-rec/src/geometry"
)

const (
	wmAppHide = win.WM_APP + 1

	flashTimerID     = 1
	flashIntervalMs  = 150
	flashToggleCount = 6 // 3 visible blinks

	wdaExcludeFromCapture = 0x00000011
	borderColor           = 0x0000FF // COLORREF, red
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procSetWindowRgn             = user32DLL.NewProc("SetWindowRgn")
	procSetWindowDisplayAffinity = user32DLL.NewProc("SetWindowDisplayAffinity")
	procFillRect                 = user32DLL.NewProc("FillRect")

	gdi32DLL             = syscall.NewLazyDLL("gdi32.dll")
	procCreateRectRgn    = gdi32DLL.NewProc("CreateRectRgn")
	procCombineRgn       = gdi32DLL.NewProc("CombineRgn")
	procCreateSolidBrush = gdi32DLL.NewProc("CreateSolidBrush")
)

// Border window state, owned by the window goroutine.
var (
	frameHwnd    win.HWND
	frameVisible bool
	flashToggles int
	frameReady   chan error
	frameDone    chan struct{}
)

func platformShow(r geometry.Rect) error {
	platformHide()

	frameReady = make(chan error, 1)
	frameDone = make(chan struct{})

	go runFrameWindow(outerRect(r))

	select {
	case err := <-frameReady:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("recording frame window did not appear")
	}
}

func platformHide() {
	if frameHwnd != 0 {
		win.PostMessage(frameHwnd, wmAppHide, 0, 0)
		select {
		case <-frameDone:
		case <-time.After(time.Second):
			log.Printf("Frame: hide timed out")
		}
	}
}

// runFrameWindow owns the border window and its message loop. Win32 windows
// are bound to their creating thread.
func runFrameWindow(outer geometry.Rect) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(frameDone)

	classNameStr := fmt.Sprintf("RecordingFrame_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(frameWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HbrBackground: 0,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		frameReady <- fmt.Errorf("failed to register frame window class")
		return
	}
	defer win.UnregisterClass(className)

	// Click-through, no taskbar entry, never activated.
	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TRANSPARENT|win.WS_EX_TOOLWINDOW|win.WS_EX_NOACTIVATE,
		className,
		nil,
		win.WS_POPUP,
		int32(outer.X), int32(outer.Y), int32(outer.Width), int32(outer.Height),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		frameReady <- fmt.Errorf("failed to create frame window")
		return
	}
	frameHwnd = hwnd

	applyBorderRegion(hwnd, outer)

	// Keep the border out of the recording itself. Older systems reject
	// WDA_EXCLUDEFROMCAPTURE; the border then appears in the video but
	// recording still works.
	if ret, _, _ := procSetWindowDisplayAffinity.Call(uintptr(hwnd), wdaExcludeFromCapture); ret == 0 {
		log.Printf("Frame: SetWindowDisplayAffinity not supported, border may appear in capture")
	}

	win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
	win.UpdateWindow(hwnd)
	frameVisible = true

	flashToggles = 0
	if win.SetTimer(hwnd, flashTimerID, flashIntervalMs, 0) == 0 {
		log.Printf("Frame: failed to start flash timer")
	}

	frameReady <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	win.DestroyWindow(hwnd)
	frameHwnd = 0
}

func frameWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		paintBorder(hwnd, hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_TIMER:
		if wParam == flashTimerID {
			flashToggles++
			if flashToggles > flashToggleCount {
				win.KillTimer(hwnd, flashTimerID)
				if !frameVisible {
					win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
					frameVisible = true
				}
				return 0
			}
			if frameVisible {
				win.ShowWindow(hwnd, win.SW_HIDE)
			} else {
				win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
			}
			frameVisible = !frameVisible
		}
		return 0

	case wmAppHide:
		win.PostQuitMessage(0)
		return 0

	case win.WM_DESTROY:
		win.KillTimer(hwnd, flashTimerID)
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// applyBorderRegion clips the window to a border ring so the interior stays
// click-through and unobscured.
func applyBorderRegion(hwnd win.HWND, outer geometry.Rect) {
	outerRgn, _, _ := procCreateRectRgn.Call(0, 0, uintptr(outer.Width), uintptr(outer.Height))
	innerRgn, _, _ := procCreateRectRgn.Call(
		BorderThickness, BorderThickness,
		uintptr(outer.Width-BorderThickness), uintptr(outer.Height-BorderThickness),
	)
	// RGN_DIFF = 4
	procCombineRgn.Call(outerRgn, outerRgn, innerRgn, 4)
	win.DeleteObject(win.HGDIOBJ(innerRgn))

	// The window owns the region after SetWindowRgn.
	procSetWindowRgn.Call(uintptr(hwnd), outerRgn, 1)
}

func paintBorder(hwnd win.HWND, hdc win.HDC) {
	var rc win.RECT
	win.GetClientRect(hwnd, &rc)

	brush, _, _ := procCreateSolidBrush.Call(borderColor)
	procFillRect.Call(uintptr(hdc), uintptr(unsafe.Pointer(&rc)), brush)
	win.DeleteObject(win.HGDIOBJ(brush))
}
