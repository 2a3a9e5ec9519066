//go:build windows

package display

import (
	"log"
	"syscall"
	"unsafe"

	"screen-rec/src/geometry"
)

var (
	user32DLL            = syscall.NewLazyDLL("user32.dll")
	shcoreDLL            = syscall.NewLazyDLL("Shcore.dll")
	procMonitorFromPoint = user32DLL.NewProc("MonitorFromPoint")
	procGetDpiForMonitor = shcoreDLL.NewProc("GetDpiForMonitor")
)

const (
	monitorDefaultToNearest = 2
	mdtEffectiveDPI         = 0
	baseDPI                 = 96.0
)

type pointStruct struct {
	X int32
	Y int32
}

// scaleForRect resolves the DPI scale factor of the monitor owning the
// rectangle's center. Falls back to 1.0 on pre-8.1 systems without shcore.
func scaleForRect(r geometry.Rect) float64 {
	if procGetDpiForMonitor.Find() != nil {
		return 1.0
	}

	c := r.Center()
	pt := pointStruct{X: int32(c.X), Y: int32(c.Y)}
	// MonitorFromPoint takes POINT by value: two register-sized args on amd64.
	hMonitor, _, _ := procMonitorFromPoint.Call(
		uintptr(*(*uint64)(unsafe.Pointer(&pt))),
		monitorDefaultToNearest,
	)
	if hMonitor == 0 {
		return 1.0
	}

	var dpiX, dpiY uint32
	ret, _, _ := procGetDpiForMonitor.Call(
		hMonitor,
		mdtEffectiveDPI,
		uintptr(unsafe.Pointer(&dpiX)),
		uintptr(unsafe.Pointer(&dpiY)),
	)
	if ret != 0 || dpiX == 0 {
		log.Printf("DPI: GetDpiForMonitor failed for rect %+v, assuming 96", r)
		return 1.0
	}
	return float64(dpiX) / baseDPI
}
