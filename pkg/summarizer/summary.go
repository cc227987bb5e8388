// Package summarizer turns detection results into result records and
// human-readable summaries.
package summarizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/user/motionpipe/pkg/orchestrator"
)

// Summary contains all data collected during a detection run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	// Input
	Source SourceInfo

	// Outcome
	Detection DetectionInfo

	// Worker layout and thresholds
	Settings Settings

	Elapsed time.Duration
}

// SourceInfo describes the processed video.
type SourceInfo struct {
	Name   string
	Width  int
	Height int
}

// DetectionInfo contains the detection outcome.
type DetectionInfo struct {
	Frames         int
	MovementFrames int
	AvgIntensity   float64
	PixelThreshold float64
}

// MovementRatio returns the share of frames with movement.
func (d DetectionInfo) MovementRatio() float64 {
	if d.Frames == 0 {
		return 0
	}
	return float64(d.MovementFrames) / float64(d.Frames)
}

// Settings contains the run configuration.
type Settings struct {
	Program string
	Preset  string
	K       int

	PreprocessWorkers  int
	ClassifyWorkers    int
	PreprocessRowSplit int
	ClassifyRowSplit   int
	TotalWorkers       int

	Debug bool
}

// NewSummary creates a new Summary with the current timestamp and a fresh
// run id.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
		RunID:       uuid.NewString(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets the input description.
func (b *Builder) WithSource(name string, width, height int) *Builder {
	b.summary.Source = SourceInfo{Name: name, Width: width, Height: height}
	return b
}

// WithDetection sets the detection outcome.
func (b *Builder) WithDetection(d DetectionInfo) *Builder {
	b.summary.Detection = d
	return b
}

// WithElapsed sets the wall-clock duration.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// WithRunResult copies everything an orchestrator run reports.
func (b *Builder) WithRunResult(r orchestrator.RunResult) *Builder {
	b.WithSource(r.Source, r.Width, r.Height).
		WithDetection(DetectionInfo{
			Frames:         r.Frames,
			MovementFrames: r.MovementFrames,
			AvgIntensity:   r.AvgIntensity,
			PixelThreshold: r.PixelThreshold,
		}).
		WithElapsed(r.Elapsed)
	s := &b.summary.Settings
	s.Program = r.Program
	s.PreprocessWorkers = r.PreprocessWorkers
	s.ClassifyWorkers = r.ClassifyWorkers
	s.PreprocessRowSplit = r.PreprocessRowSplit
	s.ClassifyRowSplit = r.ClassifyRowSplit
	s.TotalWorkers = r.TotalWorkers
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
