package worker

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ResultCallback is invoked when a finalize job completes (from a worker
// goroutine). The event loop should pass a closure that posts back into the
// event loop safely.
type ResultCallback func(finalPath string, err error)

// Job moves a finished temp recording to its destination.
type Job struct {
	TempPath  string
	FinalPath string
}

// Pool is a fixed-size finalize worker pool with a 1-slot input queue
// (strict back-pressure). Finalizing is disk-bound, so the pool stays small.
type Pool struct {
	jobs chan queued
	wg   sync.WaitGroup
}

type queued struct {
	ctx context.Context
	job Job
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to 1 when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan queued, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for q := range p.jobs {
				log.Printf("Worker: finalizing %s -> %s", q.job.TempPath, q.job.FinalPath)
				err := finalizeWithContext(q.ctx, q.job)
				if err != nil {
					log.Printf("Worker: finalize failed: %v", err)
				}
				q.cb(q.job.FinalPath, err)
			}
		}()
	}
}

// Submit enqueues a finalize job if the single-slot queue is free. Returns
// false if dropped.
func (p *Pool) Submit(ctx context.Context, job Job, cb ResultCallback) bool {
	select {
	case p.jobs <- queued{ctx: ctx, job: job, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

func finalizeWithContext(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return moveFile(job.TempPath, job.FinalPath)
}

// moveFile renames when possible and falls back to copy+delete for
// cross-volume destinations.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open temp recording: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy recording: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		log.Printf("Worker: could not remove temp file %s: %v", src, err)
	}
	return nil
}
