//go:build !windows

package display

import "fmt"

func ListWindows() ([]Window, error) {
	return nil, fmt.Errorf("window capture sources are only supported on Windows")
}
