// Package session turns a finished temp recording into a saved file. A
// Target decides where the file goes (auto-save directory or a save dialog)
// and the worker pool does the disk move off the event loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"screen-rec/src/recorder"
	"screen-rec/src/worker"
)

// ErrCancelled means the user dismissed the save dialog. The temp recording
// is discarded.
var ErrCancelled = errors.New("save cancelled")

// ErrBusy means the finalize queue was full and the save must be retried.
var ErrBusy = errors.New("finalize queue busy")

// Target chooses the destination for a finished recording. suggested is the
// user-visible file name derived from the temp path.
type Target interface {
	Destination(suggested string) (string, error)
}

// AutoTarget saves into a fixed directory without asking.
type AutoTarget struct {
	Dir string
}

func (t AutoTarget) Destination(suggested string) (string, error) {
	if t.Dir == "" {
		return "", fmt.Errorf("auto-save directory not configured")
	}
	return filepath.Join(t.Dir, suggested), nil
}

// FuncTarget adapts a closure (a GUI save dialog) into a Target.
type FuncTarget func(suggested string) (string, error)

func (f FuncTarget) Destination(suggested string) (string, error) {
	return f(suggested)
}

// DoneCallback reports the save outcome from a worker goroutine.
type DoneCallback func(finalPath string, err error)

// Execute resolves the destination and hands the move to the pool. A
// cancelled target discards the temp file. Returns ErrBusy without touching
// the temp file when the pool queue is full.
func Execute(ctx context.Context, pool *worker.Pool, tempPath string, target Target, cb DoneCallback) error {
	dest, err := target.Destination(recorder.FinalName(tempPath))
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			log.Printf("Session: save cancelled, discarding %s", tempPath)
			if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Printf("Session: could not remove temp file: %v", rmErr)
			}
			return ErrCancelled
		}
		return fmt.Errorf("failed to resolve save destination: %w", err)
	}

	if dest == tempPath {
		// Engine already wrote the final file (OBS manages its own paths).
		cb(dest, nil)
		return nil
	}

	if !pool.Submit(ctx, worker.Job{TempPath: tempPath, FinalPath: dest}, worker.ResultCallback(cb)) {
		return ErrBusy
	}
	return nil
}
