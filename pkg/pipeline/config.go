package pipeline

import (
	"fmt"
	"time"
)

// Config is the immutable configuration of a Pipeline.
type Config struct {
	// Worker pools
	PreprocessWorkers  int // Workers running greyscale + smoothing (>= 1)
	ClassifyWorkers    int // Workers running background difference (>= 1)
	PreprocessRowSplit int // Sub-workers per preprocessed frame (>= 1)
	ClassifyRowSplit   int // Sub-workers per classified frame (>= 1)

	// Ingress backpressure
	IngressCapacity int           // Bounded ingress queue size; 0 picks 2x the worker count
	IngressTimeout  time.Duration // 0 blocks indefinitely

	// Background model, read-only and shared by every classify worker
	Background     *Frame
	PixelThreshold float64    // Per-pixel difference threshold
	PixelCompare   Comparison // Operator applied to pixel differences

	// Movement decision applied by the sequencer
	MovementThreshold float64    // Fraction of differing pixels
	MovementCompare   Comparison // Operator applied to the fraction

	// Optional deployment knobs
	Affinity *Affinity
	OnRetire func(Retirement)
}

// DefaultConfig returns a Config with one worker per stage and no row split.
func DefaultConfig() Config {
	return Config{
		PreprocessWorkers:  1,
		ClassifyWorkers:    1,
		PreprocessRowSplit: 1,
		ClassifyRowSplit:   1,
		PixelCompare:       Greater,
		MovementThreshold:  0.12,
		MovementCompare:    Greater,
	}
}

// Validate checks the worker counts and split factors.
func (c Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"preprocess workers", c.PreprocessWorkers},
		{"classify workers", c.ClassifyWorkers},
		{"preprocess row split", c.PreprocessRowSplit},
		{"classify row split", c.ClassifyRowSplit},
	}
	for _, check := range checks {
		if check.value < 1 {
			return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidConfig, check.name, check.value)
		}
	}
	if c.IngressCapacity < 0 {
		return fmt.Errorf("%w: ingress capacity must be >= 0, got %d", ErrInvalidConfig, c.IngressCapacity)
	}
	if c.IngressTimeout < 0 {
		return fmt.Errorf("%w: ingress timeout must be >= 0", ErrInvalidConfig)
	}
	if c.Affinity != nil && (c.Affinity.Place == nil || c.Affinity.Pin == nil) {
		return fmt.Errorf("%w: affinity needs both Place and Pin", ErrInvalidConfig)
	}
	if c.Background != nil {
		if err := c.Background.Validate(); err != nil {
			return fmt.Errorf("%w: background: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// TotalWorkers returns the number of goroutines doing frame work at full
// load, counting row-split sub-workers.
func (c Config) TotalWorkers() int {
	return c.PreprocessWorkers*c.PreprocessRowSplit + c.ClassifyWorkers*c.ClassifyRowSplit
}

// ingressCapacity returns the effective bounded ingress size.
func (c Config) ingressCapacity() int {
	if c.IngressCapacity > 0 {
		return c.IngressCapacity
	}
	return 2 * (c.PreprocessWorkers + c.ClassifyWorkers)
}

// shifted returns an Affinity whose worker indexes start at offset, so the
// pools of successive stages land on different cores.
func (a *Affinity) shifted(offset int) *Affinity {
	if a == nil {
		return nil
	}
	return &Affinity{
		Place: func(worker int) int { return a.Place(worker + offset) },
		Pin:   a.Pin,
	}
}
