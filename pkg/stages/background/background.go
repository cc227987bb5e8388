// Package background builds the reference frame that every later frame is
// compared against.
package background

import (
	"context"
	"fmt"
	"math"

	"github.com/user/motionpipe/pkg/pipeline"
)

// DefaultDivisor derives the per-pixel threshold from the average intensity.
const DefaultDivisor = 3

// Background is the preprocessed first frame together with the thresholds
// derived from it. It is read-only once built.
type Background struct {
	Frame          *pipeline.Frame
	AvgIntensity   float64 // Mean pixel value, rounded to two decimals
	PixelThreshold float64 // AvgIntensity / divisor
}

// Build preprocesses first and derives the pixel threshold. A divisor <= 0
// selects DefaultDivisor.
func Build(ctx context.Context, first *pipeline.Frame, preprocess pipeline.Transform, divisor float64) (*Background, error) {
	if err := first.Validate(); err != nil {
		return nil, err
	}
	if divisor <= 0 {
		divisor = DefaultDivisor
	}

	frame := first
	if preprocess != nil {
		var err error
		if frame, err = preprocess.Execute(ctx, first); err != nil {
			return nil, fmt.Errorf("preprocess background: %w", err)
		}
	}
	if frame.Channels != 1 {
		return nil, fmt.Errorf("%w: background has %d channels after preprocessing", pipeline.ErrFrameShape, frame.Channels)
	}

	avg := AvgIntensity(frame)
	return &Background{
		Frame:          frame,
		AvgIntensity:   avg,
		PixelThreshold: avg / divisor,
	}, nil
}

// AvgIntensity returns the mean sample value of f rounded to two decimals.
func AvgIntensity(f *pipeline.Frame) float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, v := range f.Pix {
		sum += float64(v)
	}
	return math.Round(sum/float64(len(f.Pix))*100) / 100
}
