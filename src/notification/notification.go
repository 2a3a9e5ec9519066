// Package notification shows transient toasts for recording milestones and
// blocking dialogs for startup failures.
package notification

import (
	"fmt"
	"log"
	"runtime"
)

// ShowSaved announces a finished recording with its saved location.
func ShowSaved(path string) {
	Notify(fmt.Sprintf("Recording saved\n%s", path))
}

// Notify shows a transient, non-blocking toast.
func Notify(text string) {
	if runtime.GOOS == "windows" {
		go func() {
			if err := showWindowsToast(text); err != nil {
				log.Printf("Notification: %v", err)
			}
		}()
		return
	}
	log.Printf("Notification: %s", text)
}
