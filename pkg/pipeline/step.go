package pipeline

import (
	"context"
)

// Step is a stage function: a pure transformation applied to one input.
// Steps must be safe to call concurrently on different inputs and must not
// retain the input after returning.
type Step[In, Out any] interface {
	// Execute runs the step with the given input and returns the output.
	Execute(ctx context.Context, input In) (Out, error)
}

// StepFunc is a function adapter for Step interface.
type StepFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Step interface.
func (f StepFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Transform is a step that maps a frame to a frame (possibly the same one).
type Transform = Step[*Frame, *Frame]

// Measure is a step that reduces a frame to a scalar outcome.
type Measure = Step[*Frame, float64]

// Chain runs transforms in order, feeding each output into the next.
func Chain(steps ...Transform) Transform {
	return StepFunc[*Frame, *Frame](func(ctx context.Context, f *Frame) (*Frame, error) {
		var err error
		for _, s := range steps {
			if f, err = s.Execute(ctx, f); err != nil {
				return nil, err
			}
		}
		return f, nil
	})
}
