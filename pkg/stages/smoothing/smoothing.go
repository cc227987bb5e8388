// Package smoothing implements the 3x3 spatial smoothing stage.
package smoothing

import (
	"fmt"

	"github.com/user/motionpipe/pkg/pipeline"
)

// Kernel is a 3x3 convolution kernel in row-major order.
type Kernel [9]float32

// Box returns the averaging kernel with every weight 1/9.
func Box() Kernel {
	var k Kernel
	for i := range k {
		k[i] = float32(1) / 9
	}
	return k
}

// Smoother convolves single-channel frames with a 3x3 kernel. The first and
// last rows and columns keep their input values.
type Smoother struct {
	Kernel Kernel
}

// New returns a Smoother using the box kernel.
func New() Smoother {
	return Smoother{Kernel: Box()}
}

// Prepare copies src so border pixels carry over and every row range reads
// the unmodified input.
func (s Smoother) Prepare(src *pipeline.Frame) (*pipeline.Frame, error) {
	if src.Channels != 1 {
		return nil, fmt.Errorf("%w: smoothing expects 1 channel, got %d", pipeline.ErrFrameShape, src.Channels)
	}
	return src.Clone(), nil
}

// TransformRows smooths the interior pixels of rows r.
func (s Smoother) TransformRows(dst, src *pipeline.Frame, r pipeline.RowRange) error {
	w, h := src.Width, src.Height
	if w < 3 || h < 3 {
		return nil
	}
	k := &s.Kernel
	start, end := max(r.Start, 1), min(r.End, h-1)

	for y := start; y < end; y++ {
		up, mid, down := src.Row(y-1), src.Row(y), src.Row(y+1)
		out := dst.Row(y)
		for x := 1; x < w-1; x++ {
			out[x] = k[0]*up[x-1] + k[1]*up[x] + k[2]*up[x+1] +
				k[3]*mid[x-1] + k[4]*mid[x] + k[5]*mid[x+1] +
				k[6]*down[x-1] + k[7]*down[x] + k[8]*down[x+1]
		}
	}
	return nil
}

// NewStage returns the box smoothing step, spreading each frame over
// rowSplit sub-workers.
func NewStage(rowSplit int) pipeline.Transform {
	return pipeline.SplitTransform(New(), rowSplit)
}
