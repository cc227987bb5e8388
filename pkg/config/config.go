// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/motionpipe/pkg/motionpipe"
	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
)

// Config represents the full configuration file for motionpipe.
type Config struct {
	// Detection
	K                int                 `yaml:"k"`
	ThresholdDivisor float64             `yaml:"threshold_divisor"`
	PixelCompare     pipeline.Comparison `yaml:"pixel_compare"`
	MovementCompare  pipeline.Comparison `yaml:"movement_compare"`

	// Workers
	Preset  string       `yaml:"preset"`
	Workers int          `yaml:"workers"` // Total, split by preset
	Stages  StagesConfig `yaml:"stages"`  // Explicit layout, wins over workers
	Pin     bool         `yaml:"pin"`

	// Ingress
	IngressCapacity int           `yaml:"ingress_capacity"`
	IngressTimeout  time.Duration `yaml:"ingress_timeout"`

	// Input
	Decoder    string       `yaml:"decoder"` // auto, ffmpeg, gocv or images
	FFmpegPath string       `yaml:"ffmpeg_path"`
	Resize     ResizeConfig `yaml:"resize"`
	MaxFrames  int          `yaml:"max_frames"`

	// Output
	Results  string         `yaml:"results"`
	Summary  string         `yaml:"summary"`
	LogLevel ports.LogLevel `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// StagesConfig is an explicit per-stage worker layout.
type StagesConfig struct {
	Preprocess         int `yaml:"preprocess"`
	Classify           int `yaml:"classify"`
	PreprocessRowSplit int `yaml:"preprocess_row_split"`
	ClassifyRowSplit   int `yaml:"classify_row_split"`
}

// Set reports whether any stage value was given.
func (s StagesConfig) Set() bool {
	return s != StagesConfig{}
}

// ResizeConfig scales decoded frames before processing.
type ResizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		K:                12,
		ThresholdDivisor: 3,
		PixelCompare:     pipeline.Greater,
		MovementCompare:  pipeline.Greater,

		Preset: string(motionpipe.PresetBalanced),

		Decoder: "auto",

		LogLevel: ports.LevelInfo,

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.K < 0 || c.K > 100 {
		errs = append(errs, fmt.Errorf("k must be between 0 and 100, got %d", c.K))
	}
	if c.ThresholdDivisor <= 0 {
		errs = append(errs, fmt.Errorf("threshold_divisor must be > 0, got %g", c.ThresholdDivisor))
	}
	if _, err := motionpipe.ParsePreset(c.Preset); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.Stages.Set() {
		for name, v := range map[string]int{
			"stages.preprocess":           c.Stages.Preprocess,
			"stages.classify":             c.Stages.Classify,
			"stages.preprocess_row_split": c.Stages.PreprocessRowSplit,
			"stages.classify_row_split":   c.Stages.ClassifyRowSplit,
		} {
			if v < 1 {
				errs = append(errs, fmt.Errorf("%s must be >= 1, got %d", name, v))
			}
		}
	}
	switch c.Decoder {
	case "", "auto", "ffmpeg", "gocv", "images":
	default:
		errs = append(errs, fmt.Errorf("unknown decoder %q", c.Decoder))
	}
	if (c.Resize.Width > 0) != (c.Resize.Height > 0) {
		errs = append(errs, errors.New("resize needs both width and height"))
	}
	if c.IngressCapacity < 0 || c.IngressTimeout < 0 || c.MaxFrames < 0 {
		errs = append(errs, errors.New("ingress_capacity, ingress_timeout and max_frames must not be negative"))
	}
	return errors.Join(errs...)
}

// ToBuilder returns a ConfigBuilder primed with the file's values.
func (c Config) ToBuilder() *motionpipe.ConfigBuilder {
	preset, err := motionpipe.ParsePreset(c.Preset)
	if err != nil {
		preset = motionpipe.PresetBalanced
	}

	b := motionpipe.NewConfigBuilder().
		WithK(c.K).
		WithPreset(preset).
		WithTotalWorkers(c.Workers).
		WithPixelCompare(c.PixelCompare).
		WithMovementCompare(c.MovementCompare).
		WithThresholdDivisor(c.ThresholdDivisor).
		WithIngress(c.IngressCapacity, c.IngressTimeout).
		WithPinning(c.Pin).
		WithMaxFrames(c.MaxFrames)

	if c.Stages.Set() {
		b.WithWorkers(motionpipe.Workers{
			Preprocess:         c.Stages.Preprocess,
			Classify:           c.Stages.Classify,
			PreprocessRowSplit: c.Stages.PreprocessRowSplit,
			ClassifyRowSplit:   c.Stages.ClassifyRowSplit,
		})
	}
	return b
}
