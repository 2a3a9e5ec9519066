//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"syscall"
	"time"
	"unsafe"

	"github.com/kbinani/screenshot"
	"github.com/lxn/win"

	"screen-rec/src/geometry"
)

// Package-global state for the selection overlay. The overlay runs on the
// event-loop goroutine only, one selection at a time.
var (
	selOverlayHwnd     win.HWND
	selIsDragging      bool
	selEscapeWasDown   bool
	selAnchor          geometry.Point
	selCursor          geometry.Point
	selRatio           float64
	selVirtualScreenX  int32
	selVirtualScreenY  int32
	selCrossCursor     win.HCURSOR
	selBackgroundImage *image.RGBA
	selResult          chan geometry.Rect
)

const (
	minSelectionSpan     = 5
	selKeyPollTimerID    = 1
	selKeyPollIntervalMs = 25
	selBorderColor       = 0x0000FF // COLORREF, red
	selHintColor         = 0x00FFFF // COLORREF, yellow
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")
)

type windowsSelector struct{}

func newPlatformSelector() Selector { return &windowsSelector{} }

func (s *windowsSelector) Select(ctx context.Context, opts Options) (Result, error) {
	region, cancelled, err := runSelectionOverlay(opts.Ratio)
	if err != nil {
		return Result{}, err
	}
	if cancelled {
		return Result{Cancelled: true}, nil
	}

	select {
	case <-ctx.Done():
		return Result{Cancelled: true}, ctx.Err()
	default:
	}

	return Result{
		Region:  region,
		Display: resolveDisplay(region, opts.Monitors),
	}, nil
}

// runSelectionOverlay shows a fullscreen overlay across the whole virtual
// screen and blocks until the user drags a rectangle or cancels with ESC.
func runSelectionOverlay(ratio float64) (geometry.Rect, bool, error) {
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("Overlay: virtual screen x=%d y=%d w=%d h=%d ratio=%.4f", vx, vy, vw, vh, ratio)

	selVirtualScreenX = vx
	selVirtualScreenY = vy
	selRatio = ratio
	selIsDragging = false
	selEscapeWasDown = false
	selResult = make(chan geometry.Rect, 1)

	// Frozen desktop snapshot as the overlay background, so the user selects
	// against a stable picture.
	bg, err := screenshot.CaptureRect(image.Rect(int(vx), int(vy), int(vx+vw), int(vy+vh)))
	if err != nil {
		return geometry.Rect{}, false, fmt.Errorf("failed to capture overlay background: %w", err)
	}
	selBackgroundImage = bg

	selCrossCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))

	classNameStr := fmt.Sprintf("RegionSelectOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(selectionWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       selCrossCursor,
		HbrBackground: 0,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return geometry.Rect{}, false, fmt.Errorf("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	selOverlayHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Select recording region"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if selOverlayHwnd == 0 {
		return geometry.Rect{}, false, fmt.Errorf("failed to create overlay window")
	}

	win.ShowWindow(selOverlayHwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(selOverlayHwnd)
	win.BringWindowToTop(selOverlayHwnd)
	win.SetFocus(selOverlayHwnd)
	win.UpdateWindow(selOverlayHwnd)

	// ESC must work even when the overlay loses keyboard focus.
	if win.SetTimer(selOverlayHwnd, selKeyPollTimerID, selKeyPollIntervalMs, 0) == 0 {
		log.Printf("Overlay: failed to start key poll timer")
	}

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case region := <-selResult:
			win.DestroyWindow(selOverlayHwnd)
			selBackgroundImage = nil
			log.Printf("Overlay: selection completed %+v", region)
			return region, false, nil
		default:
		}
	}

	win.DestroyWindow(selOverlayHwnd)
	selBackgroundImage = nil
	log.Printf("Overlay: selection cancelled")
	return geometry.Rect{}, true, nil
}

func selectionWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		x := int(int16(win.LOWORD(uint32(lParam))))
		y := int(int16(win.HIWORD(uint32(lParam))))
		win.SetCapture(hwnd)
		selIsDragging = true
		selAnchor = geometry.Point{X: x, Y: y}
		selCursor = selAnchor
		win.InvalidateRect(hwnd, nil, false)
		win.UpdateWindow(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		if selIsDragging {
			selCursor = geometry.Point{
				X: int(int16(win.LOWORD(uint32(lParam)))),
				Y: int(int16(win.HIWORD(uint32(lParam)))),
			}
			win.InvalidateRect(hwnd, nil, false)
			win.UpdateWindow(hwnd)
		}
		return 0

	case win.WM_LBUTTONUP:
		if selIsDragging {
			win.ReleaseCapture()
			selIsDragging = false
			selCursor = geometry.Point{
				X: int(int16(win.LOWORD(uint32(lParam)))),
				Y: int(int16(win.HIWORD(uint32(lParam)))),
			}

			dx := selCursor.X - selAnchor.X
			dy := selCursor.Y - selAnchor.Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			// Treat tiny drags as accidental clicks and keep selecting.
			if dx <= minSelectionSpan && dy <= minSelectionSpan {
				log.Printf("Overlay: drag span %dx%d too small, ignoring", dx, dy)
				win.InvalidateRect(hwnd, nil, false)
				win.UpdateWindow(hwnd)
				return 0
			}

			r := geometry.DragRect(selAnchor, selCursor, selRatio)
			r.X += int(selVirtualScreenX)
			r.Y += int(selVirtualScreenY)
			selResult <- r
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		if selBackgroundImage != nil {
			drawOverlayBackground(hdc)
		}
		drawSelectionHints(hdc)
		if selIsDragging {
			r := geometry.DragRect(selAnchor, selCursor, selRatio)
			drawSelectionRect(hdc, r)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if selCrossCursor != 0 {
			win.SetCursor(selCrossCursor)
		}
		return 1

	case win.WM_TIMER:
		if wParam == selKeyPollTimerID {
			pollEscapeKey()
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			selEscapeWasDown = true
			win.PostQuitMessage(0)
		}
		return 0

	case win.WM_KEYUP:
		if wParam == win.VK_ESCAPE {
			selEscapeWasDown = false
		}
		return 0

	case win.WM_NCHITTEST:
		// Force client area so the window receives mouse events everywhere.
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, selKeyPollTimerID)
		// No PostQuitMessage here; the success path returns from
		// runSelectionOverlay directly and a queued WM_QUIT would cancel the
		// next selection immediately.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func pollEscapeKey() {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	s := uint16(state)
	isDown := s&0x8000 != 0
	wasPressed := s&0x0001 != 0
	if !selEscapeWasDown && (isDown || wasPressed) {
		log.Printf("Overlay: escape detected via async polling")
		win.PostQuitMessage(0)
	}
	selEscapeWasDown = isDown
}

func drawSelectionRect(hdc win.HDC, r geometry.Rect) {
	gdi32 := syscall.NewLazyDLL("gdi32.dll")
	createPen := gdi32.NewProc("CreatePen")
	rectangle := gdi32.NewProc("Rectangle")

	pen, _, _ := createPen.Call(0, 3, selBorderColor)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	rectangle.Call(uintptr(hdc), uintptr(r.X), uintptr(r.Y), uintptr(r.Right()), uintptr(r.Bottom()))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))

	// Dimension label above the rectangle, inside the screen when possible.
	label := fmt.Sprintf("%d x %d", r.Width, r.Height)
	labelY := int32(r.Y) - 22
	if labelY < 0 {
		labelY = int32(r.Y) + 6
	}
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(selHintColor))
	win.TextOut(hdc, int32(r.X), labelY, syscall.StringToUTF16Ptr(label), int32(len(label)))
}

func drawSelectionHints(hdc win.HDC) {
	line1 := "Drag to select recording region   ESC cancels"
	line2 := "Freeform: drag any shape"
	if selRatio > 0 {
		line2 = "Aspect locked: rectangle follows the dominant drag axis"
	}

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(selHintColor))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(line1), int32(len(line1)))
	win.TextOut(hdc, 16, 38, syscall.StringToUTF16Ptr(line2), int32(len(line2)))
}

// drawOverlayBackground blits the frozen desktop snapshot behind the
// selection chrome.
func drawOverlayBackground(hdc win.HDC) {
	img := selBackgroundImage
	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// RGBA to BGRA, rows DWORD-aligned.
	stride := (((int32(width)*32 + 31) &^ 31) / 8)
	for y := 0; y < height; y++ {
		rowPtr := (*[1 << 29]byte)(unsafe.Pointer(uintptr(pBits) + uintptr(y)*uintptr(stride)))
		srcRow := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			d := x * 4
			rowPtr[d] = srcRow[d+2]   // B
			rowPtr[d+1] = srcRow[d+1] // G
			rowPtr[d+2] = srcRow[d]   // R
			rowPtr[d+3] = srcRow[d+3] // A
		}
	}

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
