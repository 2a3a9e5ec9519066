package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"screen-rec/src/worker"
)

func TestAutoTargetDestination(t *testing.T) {
	target := AutoTarget{Dir: `C:\Videos`}
	got, err := target.Destination("rec_20250101_120000.mp4")
	if err != nil {
		t.Fatalf("Destination: %v", err)
	}
	want := filepath.Join(`C:\Videos`, "rec_20250101_120000.mp4")
	if got != want {
		t.Errorf("Destination = %s, want %s", got, want)
	}

	if _, err := (AutoTarget{}).Destination("x.mp4"); err == nil {
		t.Error("empty directory did not fail")
	}
}

func TestExecuteSaves(t *testing.T) {
	dir := t.TempDir()
	tempPath := filepath.Join(dir, "rec_20250101_120000_tmp.mp4")
	if err := os.WriteFile(tempPath, []byte("v"), 0o644); err != nil {
		t.Fatal(err)
	}

	pool := worker.New(1)
	defer pool.Close()

	done := make(chan string, 1)
	err := Execute(context.Background(), pool, tempPath, AutoTarget{Dir: filepath.Join(dir, "saved")}, func(finalPath string, err error) {
		if err != nil {
			t.Errorf("save failed: %v", err)
		}
		done <- finalPath
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	select {
	case finalPath := <-done:
		want := filepath.Join(dir, "saved", "rec_20250101_120000.mp4")
		if finalPath != want {
			t.Errorf("final path = %s, want %s", finalPath, want)
		}
		if _, err := os.Stat(finalPath); err != nil {
			t.Errorf("saved file missing: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("save did not complete")
	}
}

func TestExecuteCancelledDiscardsTemp(t *testing.T) {
	dir := t.TempDir()
	tempPath := filepath.Join(dir, "rec_tmp.mp4")
	if err := os.WriteFile(tempPath, []byte("v"), 0o644); err != nil {
		t.Fatal(err)
	}

	pool := worker.New(1)
	defer pool.Close()

	cancelled := FuncTarget(func(string) (string, error) { return "", ErrCancelled })
	err := Execute(context.Background(), pool, tempPath, cancelled, func(string, error) {
		t.Error("callback invoked for cancelled save")
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Execute = %v, want ErrCancelled", err)
	}
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Error("temp file not discarded on cancel")
	}
}

func TestExecuteSamePathSkipsMove(t *testing.T) {
	pool := worker.New(1)
	defer pool.Close()

	path := `C:\obs\clip.mkv`
	done := make(chan string, 1)
	err := Execute(context.Background(), pool, path, FuncTarget(func(string) (string, error) { return path, nil }), func(finalPath string, err error) {
		done <- finalPath
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	select {
	case got := <-done:
		if got != path {
			t.Errorf("final path = %s, want %s", got, path)
		}
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}
