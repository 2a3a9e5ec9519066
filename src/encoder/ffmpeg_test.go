package encoder

import (
	"strings"
	"testing"

	"screen-rec/src/geometry"
)

func argString(args []string) string {
	return strings.Join(args, " ")
}

func TestBuildCaptureArgsDisplay(t *testing.T) {
	job := Job{
		Mode: ModeDisplay,
		Display: geometry.Monitor{
			Bounds: geometry.Rect{X: 2560, Y: 120, Width: 1920, Height: 1080},
		},
		FPS:         30,
		BitrateKbps: 8000,
		OutputPath:  "out.mp4",
	}
	got := argString(buildCaptureArgs(job))

	for _, want := range []string{
		"-f gdigrab",
		"-framerate 30",
		"-offset_x 2560",
		"-offset_y 120",
		"-video_size 1920x1080",
		"-i desktop",
		"-c:v libx264",
		"-b:v 8000k",
		"-g 60",
		"-an",
		"-movflags +faststart",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("display args missing %q in: %s", want, got)
		}
	}
	if !strings.HasSuffix(got, "out.mp4") {
		t.Errorf("output path should be the final argument: %s", got)
	}
}

func TestBuildCaptureArgsRegionSnapsAndClamps(t *testing.T) {
	job := Job{
		Mode: ModeRegion,
		Display: geometry.Monitor{
			Bounds: geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		},
		// Odd origin and size, spilling past the display's right edge.
		Region:      geometry.Rect{X: 1801, Y: 101, Width: 301, Height: 201},
		FPS:         60,
		BitrateKbps: 8000,
		OutputPath:  "out.mp4",
	}
	got := argString(buildInputArgs(job))

	// Shifted left so the full 301px width fits (x = 1920-301 = 1619), then
	// snapped down to even.
	for _, want := range []string{
		"-offset_x 1618",
		"-offset_y 100",
		"-video_size 300x200",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("region args missing %q in: %s", want, got)
		}
	}
}

func TestBuildCaptureArgsWindow(t *testing.T) {
	job := Job{
		Mode:        ModeWindow,
		WindowTitle: "Untitled - Notepad",
		FPS:         30,
		BitrateKbps: 4000,
		OutputPath:  "out.mp4",
	}
	got := buildCaptureArgs(job)
	s := argString(got)

	if !strings.Contains(s, "-i title=Untitled - Notepad") {
		t.Errorf("window args missing title input: %s", s)
	}
	// Arbitrary window sizes need the even-dimension crop for yuv420p.
	if !strings.Contains(s, "crop=trunc(iw/2)*2:trunc(ih/2)*2") {
		t.Errorf("window args missing even-dimension crop: %s", s)
	}
	if strings.Contains(s, "-offset_x") {
		t.Errorf("window args should not carry gdigrab offsets: %s", s)
	}
}

func TestBuildCaptureArgsAudio(t *testing.T) {
	job := Job{
		Mode:         ModeDesktop,
		FPS:          30,
		BitrateKbps:  8000,
		CaptureAudio: true,
		OutputPath:   "out.mp4",
	}
	s := argString(buildCaptureArgs(job))

	if !strings.Contains(s, "-f dshow -i audio="+defaultLoopbackDevice) {
		t.Errorf("audio args missing loopback input: %s", s)
	}
	if !strings.Contains(s, "-c:a aac") {
		t.Errorf("audio args missing aac encoder: %s", s)
	}
	if strings.Contains(s, "-an") {
		t.Errorf("audio job must not disable audio: %s", s)
	}

	job.AudioDevice = "Stereo Mix (Realtek)"
	s = argString(buildCaptureArgs(job))
	if !strings.Contains(s, "audio=Stereo Mix (Realtek)") {
		t.Errorf("explicit device not used: %s", s)
	}
}

func TestJobValidate(t *testing.T) {
	cases := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"desktop ok", Job{Mode: ModeDesktop, FPS: 30, OutputPath: "a.mp4"}, false},
		{"missing output", Job{Mode: ModeDesktop, FPS: 30}, true},
		{"zero fps", Job{Mode: ModeDesktop, OutputPath: "a.mp4"}, true},
		{"window without title", Job{Mode: ModeWindow, FPS: 30, OutputPath: "a.mp4"}, true},
		{"region without rect", Job{Mode: ModeRegion, FPS: 30, OutputPath: "a.mp4"}, true},
		{"unknown mode", Job{Mode: "hologram", FPS: 30, OutputPath: "a.mp4"}, true},
		{
			"display ok",
			Job{
				Mode:       ModeDisplay,
				Display:    geometry.Monitor{Bounds: geometry.Rect{Width: 1920, Height: 1080}},
				FPS:        30,
				OutputPath: "a.mp4",
			},
			false,
		},
	}

	for _, c := range cases {
		err := c.job.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr=%v", c.name, err, c.wantErr)
		}
	}
}
