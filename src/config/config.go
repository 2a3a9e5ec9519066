package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultModeEnvVar = "CAPTURE_MODE"
	ModeDisplay       = "display"
	ModeWindow        = "window"
	ModeRegion        = "region"

	EngineFFmpeg = "ffmpeg"
	EngineOBS    = "obs"

	// AspectFree disables the aspect-ratio lock in the region selector.
	AspectFree = "free"
)

type LoadOptions struct {
	DefaultModeOverride string
	OutputDirOverride   string
}

type Config struct {
	Hotkey            string
	DefaultMode       string
	AspectRatio       string  // "free" or "W:H"
	AspectValue       float64 // 0 when freeform
	FPS               int
	VideoBitrateKbps  int
	CaptureAudio      bool
	Engine            string
	OBSWebSocketURL   string
	FFmpegPath        string
	OutputDir         string
	PresetsPath       string
	EnableFileLogging bool
	StopTimeoutSec    int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Configuration sources, in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_REC env var as a path to a config file
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	aspect := resolveAspect(os.Getenv("ASPECT_RATIO"))
	aspectValue, err := ParseAspect(aspect)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Hotkey:            getEnvWithDefault("HOTKEY", "Ctrl+Alt+R"),
		DefaultMode:       resolveDefaultModeValue(opts),
		AspectRatio:       aspect,
		AspectValue:       aspectValue,
		FPS:               getEnvInt("FPS", 30, 1, 240),
		VideoBitrateKbps:  getEnvInt("VIDEO_BITRATE_KBPS", 8000, 100, 100000),
		CaptureAudio:      strings.ToLower(os.Getenv("CAPTURE_AUDIO")) != "false",
		Engine:            resolveEngine(os.Getenv("ENGINE")),
		OBSWebSocketURL:   getEnvWithDefault("OBS_WEBSOCKET_URL", "ws://localhost:4455"),
		FFmpegPath:        os.Getenv("FFMPEG_PATH"),
		OutputDir:         resolveOutputDir(opts),
		PresetsPath:       os.Getenv("PRESETS_FILE"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		StopTimeoutSec:    getEnvInt("STOP_TIMEOUT_SEC", 10, 1, 120),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv("SCREEN_REC"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue, min, max int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return defaultValue
	}
	return n
}

func resolveDefaultMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ModeDisplay, "screen", "fullscreen":
		return ModeDisplay
	case ModeWindow:
		return ModeWindow
	default:
		return ModeRegion
	}
}

func resolveDefaultModeValue(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.DefaultModeOverride); override != "" {
		return resolveDefaultMode(override)
	}
	return resolveDefaultMode(os.Getenv(DefaultModeEnvVar))
}

func resolveEngine(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case EngineOBS:
		return EngineOBS
	default:
		return EngineFFmpeg
	}
}

func resolveAspect(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return AspectFree
	}
	return value
}

func resolveOutputDir(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.OutputDirOverride); override != "" {
		return override
	}
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Videos")
	}
	return "."
}

// ParseAspect converts "W:H" (or "free"/"freeform") to a width/height ratio.
// Freeform returns 0.
func ParseAspect(value string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == AspectFree || v == "freeform" {
		return 0, nil
	}

	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid aspect ratio %q, want W:H or %q", value, AspectFree)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid aspect ratio width in %q: %w", value, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid aspect ratio height in %q: %w", value, err)
	}
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("aspect ratio %q must be positive", value)
	}
	return w / h, nil
}
