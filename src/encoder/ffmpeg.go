package encoder

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"screen-rec/src/geometry"
)

// defaultLoopbackDevice is the dshow device exposing system audio output.
// Requires the virtual-audio-capturer driver that ships with screen-capture
// oriented ffmpeg builds.
const defaultLoopbackDevice = "virtual-audio-capturer"

// FFmpegEngine records by running ffmpeg with a gdigrab capture input and
// stopping it gracefully over stdin.
type FFmpegEngine struct {
	path        string
	stopTimeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	done   chan struct{}
	events chan Event
}

// NewFFmpegEngine creates an engine using the given ffmpeg binary (empty
// resolves from PATH) and graceful-stop timeout in seconds.
func NewFFmpegEngine(path string, stopTimeoutSec int) *FFmpegEngine {
	if stopTimeoutSec <= 0 {
		stopTimeoutSec = 10
	}
	return &FFmpegEngine{
		path:        path,
		stopTimeout: time.Duration(stopTimeoutSec) * time.Second,
		events:      make(chan Event, 4),
	}
}

func (e *FFmpegEngine) Events() <-chan Event { return e.events }

// Start launches the ffmpeg process for the job. It returns once the process
// is running; EventFinished/EventFailed arrive on Events when it exits.
func (e *FFmpegEngine) Start(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd != nil {
		return fmt.Errorf("engine already recording")
	}

	args := buildCaptureArgs(job)
	cmd := createEngineCmd(e.path, args)
	log.Printf("Encoder: starting %s", cmd.String())

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open engine stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.done = make(chan struct{})
	e.events <- Event{Kind: EventStarted}

	go e.wait(ctx, cmd, e.done, job.OutputPath)
	return nil
}

func (e *FFmpegEngine) wait(ctx context.Context, cmd *exec.Cmd, done chan struct{}, outputPath string) {
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	var err error
	select {
	case err = <-exited:
	case <-ctx.Done():
		// Context teardown (app exit) still tries the graceful path first.
		_ = e.Stop()
		err = <-exited
	}
	close(done)

	e.mu.Lock()
	stopping := e.cmd == nil
	e.cmd = nil
	e.stdin = nil
	e.mu.Unlock()

	// ffmpeg exits 0 on `q`; a non-zero exit during a requested stop still
	// usually leaves a playable file, so only unrequested exits are failures.
	if err != nil && !stopping {
		log.Printf("Encoder: ffmpeg exited abnormally: %v", err)
		e.events <- Event{Kind: EventFailed, Err: fmt.Errorf("ffmpeg exited: %w", err)}
		return
	}
	log.Printf("Encoder: ffmpeg finished, output at %s", outputPath)
	e.events <- Event{Kind: EventFinished, OutputPath: outputPath}
}

// Stop asks ffmpeg to finalize the file by sending `q`, escalating to Kill
// after the stop timeout.
func (e *FFmpegEngine) Stop() error {
	e.mu.Lock()
	cmd := e.cmd
	stdin := e.stdin
	done := e.done
	e.cmd = nil
	e.stdin = nil
	e.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if stdin != nil {
		if _, err := stdin.Write([]byte("q\n")); err == nil {
			_ = stdin.Close()
			// Give the muxer time to write the trailer.
			select {
			case <-done:
				return nil
			case <-time.After(e.stopTimeout):
				log.Printf("Encoder: graceful stop timed out, killing ffmpeg")
				return cmd.Process.Kill()
			}
		}
	}

	log.Printf("Encoder: stdin unavailable, killing ffmpeg")
	return cmd.Process.Kill()
}

// buildCaptureArgs assembles the full ffmpeg argument list for a job.
func buildCaptureArgs(job Job) []string {
	args := []string{"-hide_banner", "-y"}
	args = append(args, buildInputArgs(job)...)
	if job.CaptureAudio {
		args = append(args, buildAudioInputArgs(job)...)
	}
	args = append(args, buildEncodeArgs(job)...)
	args = append(args, job.OutputPath)
	return args
}

func buildInputArgs(job Job) []string {
	args := []string{
		"-f", "gdigrab",
		"-framerate", fmt.Sprintf("%d", job.FPS),
	}

	switch job.Mode {
	case ModeDisplay:
		args = append(args, gdigrabRectArgs(job.Display.Bounds)...)
		args = append(args, "-i", "desktop")
	case ModeRegion:
		r := geometry.SnapEven(geometry.ClampToRect(job.Region, job.Display.Bounds))
		args = append(args, gdigrabRectArgs(r)...)
		args = append(args, "-i", "desktop")
	case ModeWindow:
		args = append(args, "-i", "title="+job.WindowTitle)
	default: // ModeDesktop
		args = append(args, "-i", "desktop")
	}
	return args
}

// gdigrabRectArgs expresses a virtual-screen rectangle as gdigrab offsets.
func gdigrabRectArgs(r geometry.Rect) []string {
	return []string{
		"-offset_x", fmt.Sprintf("%d", r.X),
		"-offset_y", fmt.Sprintf("%d", r.Y),
		"-video_size", fmt.Sprintf("%dx%d", r.Width, r.Height),
	}
}

func buildAudioInputArgs(job Job) []string {
	device := job.AudioDevice
	if device == "" {
		device = defaultLoopbackDevice
	}
	return []string{
		"-f", "dshow",
		"-i", "audio=" + device,
	}
}

func buildEncodeArgs(job Job) []string {
	args := []string{
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-b:v", fmt.Sprintf("%dk", job.BitrateKbps),
		"-g", fmt.Sprintf("%d", job.FPS*2),
	}
	// Odd window sizes would otherwise fail yuv420p; displays and regions are
	// already even via SnapEven.
	if job.Mode == ModeWindow {
		args = append(args, "-vf", "crop=trunc(iw/2)*2:trunc(ih/2)*2")
	}
	if job.CaptureAudio {
		args = append(args, "-c:a", "aac", "-b:a", "160k")
	} else {
		args = append(args, "-an")
	}
	args = append(args, "-movflags", "+faststart")
	return args
}
