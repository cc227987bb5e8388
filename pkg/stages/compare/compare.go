// Package compare implements background subtraction: the fraction of pixels
// that differ from the background by more than a threshold.
package compare

import (
	"fmt"
	"image"
	"math"

	"github.com/user/motionpipe/pkg/pipeline"
)

// Comparer measures how much of a preprocessed frame differs from the
// background. It is read-only and shared by every classify worker.
type Comparer struct {
	background *pipeline.Frame
	threshold  float64
	compare    pipeline.Comparison
}

// New creates a Comparer. The background must be a single-channel frame.
func New(background *pipeline.Frame, threshold float64, compare pipeline.Comparison) (*Comparer, error) {
	if err := background.Validate(); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	if background.Channels != 1 {
		return nil, fmt.Errorf("%w: background has %d channels", pipeline.ErrFrameShape, background.Channels)
	}
	return &Comparer{background: background, threshold: threshold, compare: compare}, nil
}

// ReduceRows counts the differing pixels in rows r.
func (c *Comparer) ReduceRows(f *pipeline.Frame, r pipeline.RowRange) (float64, error) {
	if err := c.check(f); err != nil {
		return 0, err
	}
	n := 0
	for y := r.Start; y < r.End; y++ {
		row, bg := f.Row(y), c.background.Row(y)
		for x, v := range row {
			if c.differs(v, bg[x]) {
				n++
			}
		}
	}
	return float64(n), nil
}

// Finish turns the differing pixel count into a fraction of the frame.
func (c *Comparer) Finish(f *pipeline.Frame, count float64) (float64, error) {
	return count / float64(f.Total()), nil
}

// Mask returns an image that is white where f differs from the background.
func (c *Comparer) Mask(f *pipeline.Frame) (*image.Gray, error) {
	if err := c.check(f); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		row, bg := f.Row(y), c.background.Row(y)
		for x, v := range row {
			if c.differs(v, bg[x]) {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img, nil
}

func (c *Comparer) differs(v, bg float32) bool {
	return c.compare.Exceeds(math.Abs(float64(v)-float64(bg)), c.threshold)
}

func (c *Comparer) check(f *pipeline.Frame) error {
	bg := c.background
	if f.Width != bg.Width || f.Height != bg.Height || f.Channels != 1 {
		return fmt.Errorf("%w: frame %dx%dx%d does not match background %dx%d",
			pipeline.ErrFrameShape, f.Width, f.Height, f.Channels, bg.Width, bg.Height)
	}
	return nil
}

// NewStage returns the classify step, spreading each frame over rowSplit
// sub-workers.
func NewStage(c *Comparer, rowSplit int) pipeline.Measure {
	return pipeline.SplitReduce(c, rowSplit)
}
