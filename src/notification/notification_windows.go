//go:build windows

package notification

import (
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
)

const (
	toastWidth      = 360
	toastHeight     = 88
	toastMargin     = 24
	toastTimerID    = 1
	toastDurationMs = 3000
)

// ShowBlockingError displays a modal, system-modal error dialog and returns
// after the user dismisses it.
func ShowBlockingError(title, message string) {
	titlePtr := syscall.StringToUTF16Ptr(title)
	msgPtr := syscall.StringToUTF16Ptr(message)
	win.MessageBox(0, msgPtr, titlePtr, win.MB_OK|win.MB_ICONERROR|win.MB_SYSTEMMODAL)
}

// showWindowsToast shows a small topmost window in the bottom-right corner
// that closes itself after a few seconds. Runs its own message loop; call
// from a throwaway goroutine.
func showWindowsToast(text string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	classNameStr := fmt.Sprintf("RecToast_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)

	toastText := syscall.StringToUTF16(text)

	wndProc := func(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
		switch msg {
		case win.WM_PAINT:
			var ps win.PAINTSTRUCT
			hdc := win.BeginPaint(hwnd, &ps)
			var rc win.RECT
			win.GetClientRect(hwnd, &rc)
			rc.Left += 12
			rc.Top += 10
			rc.Right -= 12
			win.SetBkMode(hdc, win.TRANSPARENT)
			win.DrawTextEx(hdc, &toastText[0], int32(len(toastText)-1), &rc,
				win.DT_LEFT|win.DT_WORDBREAK|win.DT_NOPREFIX, nil)
			win.EndPaint(hwnd, &ps)
			return 0
		case win.WM_TIMER:
			if wParam == toastTimerID {
				win.KillTimer(hwnd, toastTimerID)
				win.DestroyWindow(hwnd)
			}
			return 0
		case win.WM_LBUTTONDOWN:
			// Click dismisses early.
			win.DestroyWindow(hwnd)
			return 0
		case win.WM_DESTROY:
			win.PostQuitMessage(0)
			return 0
		}
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(wndProc),
		HInstance:     win.GetModuleHandle(nil),
		HbrBackground: win.HBRUSH(win.GetStockObject(win.WHITE_BRUSH)),
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return fmt.Errorf("failed to register toast window class")
	}
	defer win.UnregisterClass(className)

	screenW := win.GetSystemMetrics(win.SM_CXSCREEN)
	screenH := win.GetSystemMetrics(win.SM_CYSCREEN)

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW|win.WS_EX_NOACTIVATE,
		className,
		syscall.StringToUTF16Ptr("Notification"),
		win.WS_POPUP|win.WS_BORDER,
		screenW-toastWidth-toastMargin, screenH-toastHeight-2*toastMargin,
		toastWidth, toastHeight,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		return fmt.Errorf("failed to create toast window")
	}

	win.ShowWindow(hwnd, win.SW_SHOWNOACTIVATE)
	win.UpdateWindow(hwnd)
	win.SetTimer(hwnd, toastTimerID, toastDurationMs, 0)

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	return nil
}
