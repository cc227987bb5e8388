// Package synthsource generates deterministic frames: a static gradient
// scene with a bright square that appears on a fixed schedule and moves
// across it. It stands in for a video file in benchmarks and tests.
package synthsource

import (
	"context"
	"io"

	"github.com/user/motionpipe/pkg/pipeline"
)

// Options configures the generated stream.
type Options struct {
	Width  int // Default 320
	Height int // Default 240
	Frames int // Frames after the background frame

	// Frame i >= 1 shows the square when (i-1) % Period < Duty.
	Period int     // Default 4
	Duty   int     // Default 1
	Size   float64 // Square side as a fraction of the frame height, default 0.5
	Static bool    // Never show the square
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 320
	}
	if o.Height <= 0 {
		o.Height = 240
	}
	if o.Period <= 0 {
		o.Period = 4
	}
	if o.Duty <= 0 {
		o.Duty = 1
	}
	if o.Size <= 0 || o.Size > 1 {
		o.Size = 0.5
	}
	return o
}

// Source yields Frames+1 frames: the empty scene, then the schedule.
type Source struct {
	opts Options
	next int
}

// New creates a generator.
func New(opts Options) *Source {
	return &Source{opts: opts.withDefaults()}
}

// Info describes the generated stream.
func (s *Source) Info() pipeline.SourceInfo {
	return pipeline.SourceInfo{
		Name:       "synthetic",
		Width:      s.opts.Width,
		Height:     s.opts.Height,
		FrameCount: s.opts.Frames + 1,
	}
}

// HasObject reports whether frame i shows the square.
func (s *Source) HasObject(i int) bool {
	if i <= 0 || s.opts.Static {
		return false
	}
	return (i-1)%s.opts.Period < s.opts.Duty
}

// ExpectedMovement returns the number of frames after the background that
// show the square.
func (s *Source) ExpectedMovement() int {
	n := 0
	for i := 1; i <= s.opts.Frames; i++ {
		if s.HasObject(i) {
			n++
		}
	}
	return n
}

// Next generates the next frame. It returns io.EOF after the last one.
func (s *Source) Next(ctx context.Context) (*pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next > s.opts.Frames {
		return nil, io.EOF
	}
	f := s.render(s.next)
	s.next++
	return f, nil
}

// Close has nothing to release.
func (s *Source) Close() error {
	return nil
}

func (s *Source) render(i int) *pipeline.Frame {
	w, h := s.opts.Width, s.opts.Height
	f := pipeline.NewFrame(i, w, h, 3)
	for y := 0; y < h; y++ {
		row := f.Row(y)
		for x := 0; x < w; x++ {
			v := 0.2 + 0.2*float32(x)/float32(w)
			row[x*3] = v
			row[x*3+1] = v * 0.9
			row[x*3+2] = v * 1.1
		}
	}
	if !s.HasObject(i) {
		return f
	}

	side := max(1, int(float64(h)*s.opts.Size))
	side = min(side, w, h)
	x0, y0 := 0, (h-side)/2
	if span := w - side; span > 0 {
		x0 = (i * 7) % (span + 1)
	}
	for y := y0; y < y0+side; y++ {
		row := f.Row(y)
		for x := x0; x < x0+side; x++ {
			row[x*3], row[x*3+1], row[x*3+2] = 1, 1, 1
		}
	}
	return f
}

var _ pipeline.FrameSource = (*Source)(nil)
