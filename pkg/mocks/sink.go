package mocks

import (
	"image"
	"sync"

	"github.com/user/motionpipe/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Background image.Image
	DiffMasks  map[int]image.Image
	RunJSON    []byte

	SaveDiffMaskFunc func(seq int, img image.Image) error
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		DiffMasks: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveBackground(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Background = img
	return nil
}

func (m *DebugSink) SaveDiffMask(seq int, img image.Image) error {
	if m.SaveDiffMaskFunc != nil {
		return m.SaveDiffMaskFunc(seq, img)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiffMasks[seq] = img
	return nil
}

func (m *DebugSink) SaveRunJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunJSON = data
	return nil
}

// MaskCount returns the number of saved difference masks.
func (m *DebugSink) MaskCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.DiffMasks)
}

var _ ports.DebugSink = (*DebugSink)(nil)
