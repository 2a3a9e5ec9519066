// Package presets stores named recording profiles in a TOML file next to the
// configuration. Presets bundle the knobs users flip together (frame rate,
// bitrate, aspect lock) so switching between "full quality" and "quick clip"
// is one selection.
package presets

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"screen-rec/src/config"
)

// Preset is one named recording profile.
type Preset struct {
	Name         string `toml:"name"`
	FPS          int    `toml:"fps"`
	BitrateKbps  int    `toml:"bitrateKbps"`
	Aspect       string `toml:"aspect"`
	CaptureAudio bool   `toml:"captureAudio"`
}

type presetFile struct {
	Presets []Preset `toml:"preset"`
}

// Defaults returns the presets written on first run.
func Defaults() []Preset {
	return []Preset{
		{Name: "Full Quality", FPS: 60, BitrateKbps: 16000, Aspect: config.AspectFree, CaptureAudio: true},
		{Name: "Standard", FPS: 30, BitrateKbps: 8000, Aspect: config.AspectFree, CaptureAudio: true},
		{Name: "Vertical Clip", FPS: 30, BitrateKbps: 6000, Aspect: "9:16", CaptureAudio: true},
		{Name: "Silent GIF Source", FPS: 15, BitrateKbps: 2000, Aspect: config.AspectFree, CaptureAudio: false},
	}
}

// Load reads presets from path, writing the default set first when the file
// does not exist.
func Load(path string) ([]Preset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, Defaults()); err != nil {
			return nil, fmt.Errorf("failed to write default presets: %w", err)
		}
		log.Printf("Presets: wrote defaults to %s", path)
	}

	var file presetFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	valid := file.Presets[:0]
	for _, p := range file.Presets {
		if err := p.Validate(); err != nil {
			log.Printf("Presets: skipping %q: %v", p.Name, err)
			continue
		}
		valid = append(valid, p)
	}
	return valid, nil
}

// Save writes the preset list to path atomically.
func Save(path string, presets []Preset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create presets file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(presetFile{Presets: presets}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Validate rejects presets the encoder could not honor.
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset has no name")
	}
	if p.FPS < 1 || p.FPS > 240 {
		return fmt.Errorf("fps %d out of range 1-240", p.FPS)
	}
	if p.BitrateKbps < 100 || p.BitrateKbps > 100000 {
		return fmt.Errorf("bitrate %d out of range 100-100000", p.BitrateKbps)
	}
	if _, err := config.ParseAspect(p.Aspect); err != nil {
		return err
	}
	return nil
}

// Apply overlays the preset onto a configuration.
func (p Preset) Apply(cfg *config.Config) {
	cfg.FPS = p.FPS
	cfg.VideoBitrateKbps = p.BitrateKbps
	cfg.AspectRatio = p.Aspect
	if v, err := config.ParseAspect(p.Aspect); err == nil {
		cfg.AspectValue = v
	}
	cfg.CaptureAudio = p.CaptureAudio
}
