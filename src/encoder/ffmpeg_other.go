//go:build !windows

package encoder

import (
	"log"
	"os/exec"
)

func createEngineCmd(path string, args []string) *exec.Cmd {
	if path == "" {
		resolved, err := exec.LookPath("ffmpeg")
		if err != nil {
			log.Printf("Encoder: ffmpeg not found in PATH: %v", err)
			resolved = "ffmpeg"
		}
		path = resolved
	}
	return exec.Command(path, args...)
}
