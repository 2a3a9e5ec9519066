// Package clipboard copies saved recording paths so they can be pasted
// straight into chats and commit messages.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu     sync.Mutex
	initialized bool
)

func Init() error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := clipboard.Init(); err != nil {
		return err
	}
	initialized = true
	return nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under
// parallel writes. Fails when Init did not succeed (headless session).
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !initialized {
		return fmt.Errorf("clipboard not initialized")
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
