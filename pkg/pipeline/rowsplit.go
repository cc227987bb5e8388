package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RowRange is the half-open row interval [Start, End).
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int {
	return r.End - r.Start
}

// SplitRows partitions [0, rows) into factor contiguous ranges. Every range
// has rows/factor rows and the last one absorbs the remainder. A factor
// larger than rows is clamped so that no range is empty.
func SplitRows(rows, factor int) []RowRange {
	if rows <= 0 {
		return nil
	}
	if factor < 1 {
		factor = 1
	}
	if factor > rows {
		factor = rows
	}

	chunk := rows / factor
	ranges := make([]RowRange, factor)
	for i := 0; i < factor; i++ {
		start := i * chunk
		end := start + chunk
		if i == factor-1 {
			end = rows
		}
		ranges[i] = RowRange{Start: start, End: end}
	}
	return ranges
}

// RunRows applies fn to every range of SplitRows(rows, factor), each on its
// own goroutine, and returns once all of them are done. The first error is
// returned. With a single range fn runs on the calling goroutine.
func RunRows(ctx context.Context, rows, factor int, fn func(r RowRange) error) error {
	ranges := SplitRows(rows, factor)
	if len(ranges) == 1 {
		return fn(ranges[0])
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(r)
		})
	}
	return g.Wait()
}

// ReduceRows computes a partial value per range in parallel and merges the
// partials. merge must be associative and commutative; partials are merged
// in range order but callers must not rely on it.
func ReduceRows[T any](ctx context.Context, rows, factor int, fn func(r RowRange) (T, error), merge func(a, b T) T) (T, error) {
	var zero T
	ranges := SplitRows(rows, factor)
	if len(ranges) == 0 {
		return zero, nil
	}
	if len(ranges) == 1 {
		return fn(ranges[0])
	}

	partials := make([]T, len(ranges))
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := fn(r)
			if err != nil {
				return err
			}
			partials[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return zero, err
	}

	acc := partials[0]
	for _, v := range partials[1:] {
		acc = merge(acc, v)
	}
	return acc, nil
}

// =============================================================================
// Row-splittable stage functions
// =============================================================================

// RowTransform is a frame transform that can be computed one row range at a
// time. Ranges never overlap, so TransformRows may run concurrently for
// different ranges of the same frame.
type RowTransform interface {
	// Prepare validates src and returns the frame the rows are written to.
	// It may return src itself when the transform is safe in place.
	Prepare(src *Frame) (*Frame, error)

	// TransformRows writes rows r of dst from src.
	TransformRows(dst, src *Frame, r RowRange) error
}

// RowReducer reduces a frame to a scalar by summing per-range partials.
type RowReducer interface {
	// ReduceRows returns the partial sum for rows r.
	ReduceRows(f *Frame, r RowRange) (float64, error)

	// Finish turns the merged sum into the frame's outcome.
	Finish(f *Frame, sum float64) (float64, error)
}

// SplitTransform wraps a RowTransform as a Transform that spreads each frame
// over factor sub-workers.
func SplitTransform(t RowTransform, factor int) Transform {
	return StepFunc[*Frame, *Frame](func(ctx context.Context, src *Frame) (*Frame, error) {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		dst, err := t.Prepare(src)
		if err != nil {
			return nil, err
		}
		if dst.Height != src.Height {
			return nil, fmt.Errorf("%w: transform changed height %d -> %d", ErrFrameShape, src.Height, dst.Height)
		}
		dst.Seq = src.Seq

		err = RunRows(ctx, src.Rows(), factor, func(r RowRange) error {
			return t.TransformRows(dst, src, r)
		})
		if err != nil {
			return nil, err
		}
		return dst, nil
	})
}

// SplitReduce wraps a RowReducer as a Measure that spreads each frame over
// factor sub-workers.
func SplitReduce(rr RowReducer, factor int) Measure {
	return StepFunc[*Frame, float64](func(ctx context.Context, f *Frame) (float64, error) {
		if err := f.Validate(); err != nil {
			return 0, err
		}
		sum, err := ReduceRows(ctx, f.Rows(), factor, func(r RowRange) (float64, error) {
			return rr.ReduceRows(f, r)
		}, func(a, b float64) float64 {
			return a + b
		})
		if err != nil {
			return 0, err
		}
		return rr.Finish(f, sum)
	})
}
