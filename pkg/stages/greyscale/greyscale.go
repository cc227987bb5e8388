// Package greyscale implements the greyscale reduction stage.
package greyscale

import (
	"fmt"
	"image"

	"github.com/user/motionpipe/pkg/pipeline"
)

// Converter reduces a colour frame to one channel holding the mean of its
// first three channels. Single-channel frames pass through unchanged.
type Converter struct{}

// Prepare allocates the single-channel output frame.
func (Converter) Prepare(src *pipeline.Frame) (*pipeline.Frame, error) {
	if src.Channels == 1 {
		return src, nil
	}
	return pipeline.NewFrame(src.Seq, src.Width, src.Height, 1), nil
}

// TransformRows converts rows r of src into dst.
func (Converter) TransformRows(dst, src *pipeline.Frame, r pipeline.RowRange) error {
	if dst == src {
		return nil
	}
	if dst.Channels != 1 || dst.Width != src.Width {
		return fmt.Errorf("%w: greyscale output is %dx%dx%d", pipeline.ErrFrameShape, dst.Width, dst.Height, dst.Channels)
	}

	used := min(src.Channels, 3)
	scale := 1 / float32(used)
	for y := r.Start; y < r.End; y++ {
		in, out := src.Row(y), dst.Row(y)
		for x := range out {
			px := in[x*src.Channels : x*src.Channels+used]
			var sum float32
			for _, v := range px {
				sum += v
			}
			out[x] = sum * scale
		}
	}
	return nil
}

// NewStage returns the greyscale step, spreading each frame over rowSplit
// sub-workers.
func NewStage(rowSplit int) pipeline.Transform {
	return pipeline.SplitTransform(Converter{}, rowSplit)
}

// Image renders a single-channel frame with samples in [0,1] as an 8-bit
// greyscale image. Samples outside the range are clamped.
func Image(f *pipeline.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		row := f.Row(y)
		for x := 0; x < f.Width; x++ {
			img.Pix[y*img.Stride+x] = toByte(row[x*f.Channels])
		}
	}
	return img
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
