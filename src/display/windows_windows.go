//go:build windows

package display

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	procEnumWindows     = user32DLL.NewProc("EnumWindows")
	procIsWindowVisible = user32DLL.NewProc("IsWindowVisible")
	procIsIconic        = user32DLL.NewProc("IsIconic")
	procGetWindowTextW  = user32DLL.NewProc("GetWindowTextW")
	procGetWindowLongW  = user32DLL.NewProc("GetWindowLongW")
)

const (
	gwlExStyle     = ^uintptr(19) // GWL_EXSTYLE = -20
	wsExToolWindow = 0x00000080
	maxTitleLength = 256
)

// ListWindows enumerates visible, titled, non-minimized top-level windows
// that can be offered as capture sources. Tool windows are skipped.
func ListWindows() ([]Window, error) {
	var windows []Window

	cb := syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			return 1
		}
		if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
			return 1
		}
		if exStyle, _, _ := procGetWindowLongW.Call(hwnd, gwlExStyle); exStyle&wsExToolWindow != 0 {
			return 1
		}

		var buf [maxTitleLength]uint16
		n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), maxTitleLength)
		if n == 0 {
			return 1
		}

		windows = append(windows, Window{
			Handle: hwnd,
			Title:  syscall.UTF16ToString(buf[:n]),
		})
		return 1
	})

	if ret, _, _ := procEnumWindows.Call(cb, 0); ret == 0 && len(windows) == 0 {
		return nil, fmt.Errorf("window enumeration failed")
	}
	return windows, nil
}
