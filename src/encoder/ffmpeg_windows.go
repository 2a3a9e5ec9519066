//go:build windows

package encoder

import (
	"log"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// createEngineCmd builds the ffmpeg command without flashing a console window.
func createEngineCmd(path string, args []string) *exec.Cmd {
	if path == "" {
		resolved, err := exec.LookPath("ffmpeg.exe")
		if err != nil {
			log.Printf("Encoder: ffmpeg.exe not found in PATH: %v", err)
			resolved = "ffmpeg.exe"
		}
		path = resolved
	}

	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
	return cmd
}
