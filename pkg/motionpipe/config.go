// Package motionpipe provides a high-level API for configuring motion
// detection runs.
package motionpipe

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/motionpipe/pkg/adapters/affinity"
	"github.com/user/motionpipe/pkg/orchestrator"
	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/stages/background"
)

// Preset names a strategy for splitting a total worker count between the
// stages.
type Preset string

const (
	// PresetBalanced combines stream and row parallelism: a few classify
	// workers, the rest split into preprocess workers each with a row split.
	PresetBalanced Preset = "balanced"
	// PresetStream gives every worker a whole frame: a third classify, the
	// rest preprocess.
	PresetStream Preset = "stream"
	// PresetData runs one worker per stage and spends the total on row
	// splits instead.
	PresetData Preset = "data"
)

// ParsePreset parses a preset name.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetBalanced, PresetStream, PresetData:
		return p, nil
	case "":
		return PresetBalanced, nil
	default:
		return "", fmt.Errorf("unknown preset %q (balanced, stream, data)", s)
	}
}

// Workers is the per-stage worker layout.
type Workers struct {
	Preprocess         int
	Classify           int
	PreprocessRowSplit int
	ClassifyRowSplit   int
}

// Total returns the number of goroutines doing frame work at full load.
func (w Workers) Total() int {
	return w.Preprocess*w.PreprocessRowSplit + w.Classify*w.ClassifyRowSplit
}

// String formats the layout as preprocess x split + classify x split.
func (w Workers) String() string {
	return fmt.Sprintf("%dx%d+%dx%d", w.Preprocess, w.PreprocessRowSplit, w.Classify, w.ClassifyRowSplit)
}

// SplitWorkers distributes total workers according to preset. A total
// below 1 yields one worker per stage without row splits.
func SplitWorkers(preset Preset, total int) Workers {
	w := Workers{Preprocess: 1, Classify: 1, PreprocessRowSplit: 1, ClassifyRowSplit: 1}
	if total < 1 {
		return w
	}

	switch preset {
	case PresetStream:
		w.Classify = max(1, total/3)
		w.Preprocess = max(1, total-w.Classify)
	case PresetData:
		w.ClassifyRowSplit = max(1, total/3)
		w.PreprocessRowSplit = max(1, total-w.ClassifyRowSplit)
	default:
		var classify int
		switch {
		case total <= 8:
			classify = 1
		case total <= 16:
			classify = 2
		case total <= 32:
			classify = 3
		default:
			classify = total / 8
		}
		if total > 4 {
			r := total - classify
			w.PreprocessRowSplit = max(1, r/2)
			w.Preprocess = max(1, r/w.PreprocessRowSplit)
		}
		rest := total - w.Preprocess*w.PreprocessRowSplit - classify
		w.Classify = classify + max(0, rest)
	}
	return w
}

// Config represents the configuration of a detection run.
type Config struct {
	// K is the percentage of differing pixels above which a frame counts
	// as movement.
	K int

	Preset       Preset
	TotalWorkers int     // 0 keeps Workers as given
	Workers      Workers // Explicit layout, used when TotalWorkers is 0

	PixelCompare     pipeline.Comparison
	MovementCompare  pipeline.Comparison
	ThresholdDivisor float64

	IngressCapacity int
	IngressTimeout  time.Duration

	Pin       bool // Pin workers to cores round-robin
	MaxFrames int  // 0 reads the whole source
	Program   string
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with the balanced preset and
// k = 12.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: defaults()}
}

func defaults() Config {
	return Config{
		K:                12,
		Preset:           PresetBalanced,
		Workers:          SplitWorkers(PresetBalanced, 0),
		PixelCompare:     pipeline.Greater,
		MovementCompare:  pipeline.Greater,
		ThresholdDivisor: background.DefaultDivisor,
		Program:          "motionpipe",
	}
}

// Build returns the final Config, applying the preset and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.TotalWorkers > 0 {
		cfg.Workers = SplitWorkers(cfg.Preset, cfg.TotalWorkers)
	}
	cfg.Workers.Preprocess = max(1, cfg.Workers.Preprocess)
	cfg.Workers.Classify = max(1, cfg.Workers.Classify)
	cfg.Workers.PreprocessRowSplit = max(1, cfg.Workers.PreprocessRowSplit)
	cfg.Workers.ClassifyRowSplit = max(1, cfg.Workers.ClassifyRowSplit)

	cfg.K = min(max(cfg.K, 0), 100)
	if cfg.ThresholdDivisor <= 0 {
		cfg.ThresholdDivisor = background.DefaultDivisor
	}
	return cfg
}

// WithK sets the movement percentage.
func (b *ConfigBuilder) WithK(k int) *ConfigBuilder {
	b.config.K = k
	return b
}

// WithPreset sets the worker split strategy.
func (b *ConfigBuilder) WithPreset(p Preset) *ConfigBuilder {
	b.config.Preset = p
	return b
}

// WithTotalWorkers splits total workers between the stages by preset.
func (b *ConfigBuilder) WithTotalWorkers(total int) *ConfigBuilder {
	b.config.TotalWorkers = total
	return b
}

// WithWorkers sets an explicit per-stage layout, overriding any total.
func (b *ConfigBuilder) WithWorkers(w Workers) *ConfigBuilder {
	b.config.Workers = w
	b.config.TotalWorkers = 0
	return b
}

// WithPixelCompare sets the per-pixel comparison operator.
func (b *ConfigBuilder) WithPixelCompare(c pipeline.Comparison) *ConfigBuilder {
	b.config.PixelCompare = c
	return b
}

// WithMovementCompare sets the per-frame comparison operator.
func (b *ConfigBuilder) WithMovementCompare(c pipeline.Comparison) *ConfigBuilder {
	b.config.MovementCompare = c
	return b
}

// WithThresholdDivisor sets the divisor applied to the background intensity.
func (b *ConfigBuilder) WithThresholdDivisor(d float64) *ConfigBuilder {
	b.config.ThresholdDivisor = d
	return b
}

// WithIngress bounds the ingress queue. A zero timeout blocks indefinitely.
func (b *ConfigBuilder) WithIngress(capacity int, timeout time.Duration) *ConfigBuilder {
	b.config.IngressCapacity = capacity
	b.config.IngressTimeout = timeout
	return b
}

// WithPinning enables round-robin CPU pinning.
func (b *ConfigBuilder) WithPinning(pin bool) *ConfigBuilder {
	b.config.Pin = pin
	return b
}

// WithMaxFrames limits the number of classified frames.
func (b *ConfigBuilder) WithMaxFrames(n int) *ConfigBuilder {
	b.config.MaxFrames = n
	return b
}

// WithProgram sets the program name written to result records.
func (b *ConfigBuilder) WithProgram(name string) *ConfigBuilder {
	b.config.Program = name
	return b
}

// MovementThreshold returns K as a fraction.
func (c Config) MovementThreshold() float64 {
	return float64(c.K) / 100
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	pcfg := pipeline.Config{
		PreprocessWorkers:  c.Workers.Preprocess,
		ClassifyWorkers:    c.Workers.Classify,
		PreprocessRowSplit: c.Workers.PreprocessRowSplit,
		ClassifyRowSplit:   c.Workers.ClassifyRowSplit,

		IngressCapacity: c.IngressCapacity,
		IngressTimeout:  c.IngressTimeout,

		PixelCompare:      c.PixelCompare,
		MovementThreshold: c.MovementThreshold(),
		MovementCompare:   c.MovementCompare,
	}
	if c.Pin && affinity.Supported() {
		pcfg.Affinity = affinity.RoundRobin()
	}

	return orchestrator.Config{
		Pipeline:         pcfg,
		ThresholdDivisor: c.ThresholdDivisor,
		MaxFrames:        c.MaxFrames,
		Program:          c.Program,
	}
}
