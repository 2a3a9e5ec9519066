package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPoolFinalizesRecording(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rec_tmp.mp4")
	dst := filepath.Join(dir, "out", "rec.mp4")
	if err := os.WriteFile(src, []byte("video data"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(1)
	defer p.Close()

	done := make(chan error, 1)
	ok := p.Submit(context.Background(), Job{TempPath: src, FinalPath: dst}, func(finalPath string, err error) {
		if finalPath != dst {
			t.Errorf("callback path = %s, want %s", finalPath, dst)
		}
		done <- err
	})
	if !ok {
		t.Fatal("Submit returned false on empty queue")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("finalize did not complete")
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("destination not written: %v", err)
	}
	if string(data) != "video data" {
		t.Errorf("destination content = %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after finalize")
	}
}

func TestPoolBackpressure(t *testing.T) {
	p := New(1)
	defer p.Close()

	dir := t.TempDir()
	release := make(chan struct{})
	src := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(src, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	// Occupy the single worker.
	blocked := make(chan struct{})
	p.Submit(context.Background(), Job{TempPath: src, FinalPath: filepath.Join(dir, "a_out.mp4")}, func(string, error) {
		close(blocked)
		<-release
	})
	<-blocked

	// Fill the one queue slot, then the next submit must be rejected.
	first := p.Submit(context.Background(), Job{TempPath: src, FinalPath: filepath.Join(dir, "b.mp4")}, func(string, error) {})
	second := p.Submit(context.Background(), Job{TempPath: src, FinalPath: filepath.Join(dir, "c.mp4")}, func(string, error) {})
	if !first {
		t.Error("queue slot submit rejected")
	}
	if second {
		t.Error("over-capacity submit accepted")
	}

	close(release)
}

func TestFinalizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := finalizeWithContext(ctx, Job{TempPath: "x", FinalPath: "y"})
	if err == nil {
		t.Fatal("cancelled context did not fail the job")
	}
}
