//go:build !windows

package display

import "screen-rec/src/geometry"

func scaleForRect(r geometry.Rect) float64 { return 1.0 }
