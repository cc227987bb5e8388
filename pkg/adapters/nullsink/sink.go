// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/motionpipe/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false; callers skip building debug images.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveBackground(img image.Image) error        { return nil }
func (s *Sink) SaveDiffMask(seq int, img image.Image) error { return nil }
func (s *Sink) SaveRunJSON(data []byte) error               { return nil }

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
