package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for frames2sprite.
type Config struct {
	Playback PlaybackConfig `yaml:"playback" toml:"playback"`
	Preview  PreviewConfig  `yaml:"preview" toml:"preview"`
	Decode   DecodeConfig   `yaml:"decode" toml:"decode"`
	Export   ExportConfig   `yaml:"export" toml:"export"`
	Prompt   PromptConfig   `yaml:"prompt" toml:"prompt"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

type PlaybackConfig struct {
	FPS  int  `yaml:"fps" toml:"fps"`
	Loop bool `yaml:"loop" toml:"loop"`
}

type PreviewConfig struct {
	CanvasSize int    `yaml:"canvas_size" toml:"canvas_size"`
	Scaler     string `yaml:"scaler" toml:"scaler"`
}

// DecodeConfig controls frame decoding. Workers of 0 means one per logical CPU.
type DecodeConfig struct {
	Workers int `yaml:"workers" toml:"workers"`
	PDFDPI  int `yaml:"pdf_dpi" toml:"pdf_dpi"`
}

// ExportConfig controls artifact output. Compression is one of default, none,
// speed, best. SheetIndex is none, json or yaml.
type ExportConfig struct {
	Dir         string `yaml:"dir" toml:"dir"`
	Compression string `yaml:"compression" toml:"compression"`
	SheetIndex  string `yaml:"sheet_index" toml:"sheet_index"`
	Workers     int    `yaml:"workers" toml:"workers"`
}

type PromptConfig struct {
	Game       string      `yaml:"game" toml:"game"`
	Animation  string      `yaml:"animation" toml:"animation"`
	Animations []Animation `yaml:"animations" toml:"animations"`
}

// Animation is one entry of the animation catalog.
type Animation struct {
	Name   string `yaml:"name" toml:"name"`
	Frames int    `yaml:"frames" toml:"frames"`
}

// Label is the catalog display form, e.g. "Walk Cycle (8 frames)".
func (a Animation) Label() string {
	return fmt.Sprintf("%s (%d frames)", a.Name, a.Frames)
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Playback: PlaybackConfig{FPS: 12, Loop: true},
		Preview:  PreviewConfig{CanvasSize: 512, Scaler: "catmull-rom"},
		Decode:   DecodeConfig{Workers: 0, PDFDPI: 150},
		Export: ExportConfig{
			Dir:         ".",
			Compression: "default",
			SheetIndex:  "none",
			Workers:     0,
		},
		Prompt: PromptConfig{
			Game:      "Bubble Coop",
			Animation: "Idle",
			Animations: []Animation{
				{Name: "Idle", Frames: 4},
				{Name: "Walk Cycle", Frames: 8},
				{Name: "Jump", Frames: 6},
				{Name: "Bubble Shoot", Frames: 5},
				{Name: "Hurt", Frames: 3},
				{Name: "Victory Dance", Frames: 10},
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// DefaultPath returns the per-user config location, honouring XDG_CONFIG_HOME.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "frames2sprite", "config.yaml")
}

// LoadFrom reads config from path and merges it over the defaults. A missing
// file is not an error. The format is chosen by extension: .toml is parsed as
// TOML, anything else as YAML.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := decode(path, data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Defaults(), fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// catalogFile captures only the catalog key, to tell an absent catalog from
// one the file sets.
type catalogFile struct {
	Prompt struct {
		Animations *[]Animation `yaml:"animations" toml:"animations"`
	} `yaml:"prompt" toml:"prompt"`
}

func decode(path string, data []byte, cfg *Config) error {
	var catalog catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg); err != nil {
			return err
		}
		if err := toml.Unmarshal(data, &catalog); err != nil {
			return err
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return err
		}
	}
	// a catalog in the file replaces the default one instead of extending it
	if catalog.Prompt.Animations != nil {
		cfg.Prompt.Animations = *catalog.Prompt.Animations
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Playback.FPS <= 0 {
		return fmt.Errorf("playback.fps must be positive, got %d", c.Playback.FPS)
	}
	if c.Preview.CanvasSize <= 0 {
		return fmt.Errorf("preview.canvas_size must be positive, got %d", c.Preview.CanvasSize)
	}
	switch strings.ToLower(c.Preview.Scaler) {
	case "", "nearest", "approx-bilinear", "bilinear", "catmull-rom":
	default:
		return fmt.Errorf("preview.scaler: unknown scaler %q", c.Preview.Scaler)
	}
	if c.Decode.Workers < 0 {
		return fmt.Errorf("decode.workers must not be negative, got %d", c.Decode.Workers)
	}
	if c.Decode.PDFDPI < 36 || c.Decode.PDFDPI > 1200 {
		return fmt.Errorf("decode.pdf_dpi must be between 36 and 1200, got %d", c.Decode.PDFDPI)
	}
	if c.Export.Workers < 0 {
		return fmt.Errorf("export.workers must not be negative, got %d", c.Export.Workers)
	}
	if _, ok := compressionLevels[strings.ToLower(c.Export.Compression)]; !ok {
		return fmt.Errorf("export.compression: unknown level %q", c.Export.Compression)
	}
	switch strings.ToLower(c.Export.SheetIndex) {
	case "", "none", "json", "yaml", "yml":
	default:
		return fmt.Errorf("export.sheet_index: unknown format %q", c.Export.SheetIndex)
	}
	for i, a := range c.Prompt.Animations {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("prompt.animations[%d]: name is required", i)
		}
		if a.Frames <= 0 {
			return fmt.Errorf("prompt.animations[%d] %q: frames must be positive", i, a.Name)
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// FindAnimation returns the catalog entry whose name matches, ignoring case.
func (c Config) FindAnimation(name string) (Animation, bool) {
	for _, a := range c.Prompt.Animations {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return a, true
		}
	}
	return Animation{}, false
}

var compressionLevels = map[string]png.CompressionLevel{
	"":        png.DefaultCompression,
	"default": png.DefaultCompression,
	"none":    png.NoCompression,
	"speed":   png.BestSpeed,
	"best":    png.BestCompression,
}

// PNGCompression maps export.compression to an encoder level.
func (c Config) PNGCompression() png.CompressionLevel {
	return compressionLevels[strings.ToLower(c.Export.Compression)]
}
