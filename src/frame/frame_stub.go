//go:build !windows

package frame

import (
	"log"

	"screen-rec/src/geometry"
)

func platformShow(r geometry.Rect) error {
	log.Printf("Frame: recording border not supported on this platform")
	return nil
}

func platformHide() {}
