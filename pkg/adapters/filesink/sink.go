// Package filesink provides a file-based debug sink implementation.
//
// Layout under the base directory:
//
//	background.png
//	frames/diff/frame-0000.png
//	run.json
package filesink

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/user/motionpipe/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer

	dirOnce sync.Once
	dirErr  error
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveBackground saves the reference frame as PNG.
func (s *Sink) SaveBackground(img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode background: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "background.png"), data)
}

// SaveDiffMask saves the difference mask of frame seq as PNG.
func (s *Sink) SaveDiffMask(seq int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "diff")
	s.dirOnce.Do(func() {
		s.dirErr = s.fs.MkdirAll(dir)
	})
	if s.dirErr != nil {
		return s.dirErr
	}

	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode diff mask %d: %w", seq, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", seq)), data)
}

// SaveRunJSON saves the run record.
func (s *Sink) SaveRunJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "run.json"), data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
