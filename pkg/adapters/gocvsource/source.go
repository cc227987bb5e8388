//go:build gocv

// Package gocvsource decodes video with OpenCV's VideoCapture.
package gocvsource

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/user/motionpipe/pkg/pipeline"
)

// Source reads frames through an OpenCV capture.
type Source struct {
	capture *gocv.VideoCapture
	bgr     gocv.Mat
	rgb     gocv.Mat
	info    pipeline.SourceInfo
	next    int
}

// Open opens path with OpenCV.
func Open(ctx context.Context, path string) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open capture: %s cannot be opened", path)
	}

	return &Source{
		capture: capture,
		bgr:     gocv.NewMat(),
		rgb:     gocv.NewMat(),
		info: pipeline.SourceInfo{
			Name:       filepath.Base(path),
			Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
			FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		},
	}, nil
}

// Info describes the opened capture.
func (s *Source) Info() pipeline.SourceInfo {
	return s.info
}

// Next decodes the next frame. It returns io.EOF after the last one.
func (s *Source) Next(ctx context.Context) (*pipeline.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.capture.Read(&s.bgr); !ok || s.bgr.Empty() {
		return nil, io.EOF
	}

	gocv.CvtColor(s.bgr, &s.rgb, gocv.ColorBGRToRGB)
	f, err := pipeline.FromRGB24(s.next, s.rgb.Cols(), s.rgb.Rows(), s.rgb.ToBytes())
	if err != nil {
		return nil, err
	}
	s.next++
	return f, nil
}

// Close releases the capture and its buffers.
func (s *Source) Close() error {
	s.bgr.Close()
	s.rgb.Close()
	return s.capture.Close()
}

// Available reports whether this build can decode with OpenCV.
func Available() bool {
	return true
}

var _ pipeline.FrameSource = (*Source)(nil)
