package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
)

// FrameSource is a mock implementation of pipeline.FrameSource that replays
// a fixed list of frames.
type FrameSource struct {
	mu     sync.Mutex
	frames []*pipeline.Frame
	next   int
	closed bool

	// NextFunc, when set, replaces the replay.
	NextFunc func(ctx context.Context) (*pipeline.Frame, error)
	// Err is returned once the listed frames are exhausted instead of io.EOF.
	Err error
}

// NewFrameSource creates a source that yields frames in order, then io.EOF.
func NewFrameSource(frames ...*pipeline.Frame) *FrameSource {
	return &FrameSource{frames: frames}
}

func (m *FrameSource) Next(ctx context.Context) (*pipeline.Frame, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.next >= len(m.frames) {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, io.EOF
	}
	f := m.frames[m.next]
	m.next++
	return f, nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *FrameSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ pipeline.FrameSource = (*FrameSource)(nil)

// VideoProber is a mock implementation of ports.VideoProber.
type VideoProber struct {
	Info ports.VideoInfo
	Err  error

	ProbeFunc func(path string) (ports.VideoInfo, error)
}

func (m *VideoProber) Probe(path string) (ports.VideoInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(path)
	}
	return m.Info, m.Err
}

var _ ports.VideoProber = (*VideoProber)(nil)
