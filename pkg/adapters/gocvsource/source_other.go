//go:build !gocv

package gocvsource

import (
	"context"
	"errors"

	"github.com/user/motionpipe/pkg/pipeline"
)

// ErrNotBuilt is returned when the binary was built without the gocv tag.
var ErrNotBuilt = errors.New("gocvsource: built without OpenCV support (use -tags gocv)")

// Source is unavailable in this build.
type Source struct{}

// Open always fails in builds without OpenCV.
func Open(ctx context.Context, path string) (*Source, error) {
	return nil, ErrNotBuilt
}

func (s *Source) Info() pipeline.SourceInfo { return pipeline.SourceInfo{} }
func (s *Source) Next(ctx context.Context) (*pipeline.Frame, error) { return nil, ErrNotBuilt }
func (s *Source) Close() error { return nil }

// Available reports whether this build can decode with OpenCV.
func Available() bool {
	return false
}

var _ pipeline.FrameSource = (*Source)(nil)
