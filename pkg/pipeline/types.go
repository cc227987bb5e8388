package pipeline

import (
	"context"
	"fmt"
)

// =============================================================================
// Frame
// =============================================================================

// Frame is a decoded video frame with float32 pixels in row-major,
// channel-interleaved order. A Frame is owned by exactly one task at a time;
// it moves between stages through queues and is never shared.
type Frame struct {
	Seq      int       // Position in the source stream, assigned once at ingestion
	Width    int       // Pixels per row
	Height   int       // Number of rows
	Channels int       // Samples per pixel (3 for RGB, 1 for greyscale)
	Pix      []float32 // Width*Height*Channels samples
}

// NewFrame allocates a zeroed frame.
func NewFrame(seq, width, height, channels int) *Frame {
	return &Frame{
		Seq:      seq,
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int {
	return f.Height
}

// Stride returns the number of samples in one row.
func (f *Frame) Stride() int {
	return f.Width * f.Channels
}

// Row returns the samples of row y.
func (f *Frame) Row(y int) []float32 {
	stride := f.Stride()
	return f.Pix[y*stride : (y+1)*stride]
}

// Total returns the number of pixels (not samples) in the frame.
func (f *Frame) Total() int {
	return f.Width * f.Height
}

// Validate reports whether the frame's dimensions agree with its buffer.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrFrameShape)
	}
	if f.Width <= 0 || f.Height <= 0 || f.Channels <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrFrameShape, f.Width, f.Height, f.Channels)
	}
	if len(f.Pix) != f.Width*f.Height*f.Channels {
		return fmt.Errorf("%w: buffer has %d samples, want %d", ErrFrameShape, len(f.Pix), f.Width*f.Height*f.Channels)
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Pix = make([]float32, len(f.Pix))
	copy(c.Pix, f.Pix)
	return &c
}

// =============================================================================
// Task and results
// =============================================================================

// Task is a unit of work: one frame addressed to one stage.
type Task struct {
	Frame *Frame
	Stage string
}

// Seq returns the sequence number of the task's frame.
func (t Task) Seq() int {
	return t.Frame.Seq
}

// StageResult is the scalar outcome the last stage produces for a frame.
type StageResult struct {
	Seq     int
	Outcome float64
}

// Retirement describes one result released by the sequencer, in order.
type Retirement struct {
	Seq      int
	Outcome  float64
	Movement bool
	Retired  int // Retired count including this one
	Moving   int // Movement count including this one
}

// =============================================================================
// Source
// =============================================================================

// FrameSource produces decoded frames in stream order.
// Next returns io.EOF once the stream is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// SourceInfo describes a source after it has been opened.
type SourceInfo struct {
	Name       string
	Width      int
	Height     int
	FrameCount int // Estimated; 0 when unknown
}
