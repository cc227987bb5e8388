package motionpipe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/adapters/synthsource"
	"github.com/user/motionpipe/pkg/mocks"
)

func TestRunner_Synthetic(t *testing.T) {
	fs := mocks.NewFileSystem()
	runner := NewRunner(fs, &mocks.Renderer{}, &mocks.VideoProber{}, logger.NewNoop())

	cfg := NewConfigBuilder().WithTotalWorkers(4).WithProgram("test").Build()
	opts := RunOptions{
		Input:       "clip.mp4",
		Source:      SourceOptions{Synthetic: 8, Width: 48, Height: 32},
		Debug:       true,
		DebugDir:    "debug",
		ResultsPath: "results/clip.txt",
		SummaryPath: "summary.md",
	}

	summary, err := runner.Run(context.Background(), cfg, opts)
	require.NoError(t, err)

	want := synthsource.New(synthsource.Options{Width: 48, Height: 32, Frames: 8}).ExpectedMovement()
	assert.Equal(t, 8, summary.Detection.Frames)
	assert.Equal(t, want, summary.Detection.MovementFrames)
	assert.Equal(t, 12, summary.Settings.K)
	assert.Equal(t, "balanced", summary.Settings.Preset)
	assert.True(t, summary.Settings.Debug)

	record, ok := fs.GetFile("results/clip.txt")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(string(record), ","+summary.RunID+"\n"))
	assert.Contains(t, string(record), " - synthetic,test,12,")

	_, ok = fs.GetFile("summary.md")
	assert.True(t, ok)
	_, ok = fs.GetFile("debug/background.png")
	assert.True(t, ok)
	_, ok = fs.GetFile("debug/run.json")
	assert.True(t, ok)
}

func TestRunner_NoOutputs(t *testing.T) {
	fs := mocks.NewFileSystem()
	runner := NewRunner(fs, &mocks.Renderer{}, &mocks.VideoProber{}, logger.NewNoop())

	_, err := runner.Run(context.Background(), NewConfigBuilder().Build(), RunOptions{
		Source: SourceOptions{Synthetic: 3, Width: 16, Height: 16},
	})
	require.NoError(t, err)
	assert.Empty(t, fs.GetAllFiles())
}

func TestRunner_MissingInput(t *testing.T) {
	runner := NewRunner(mocks.NewFileSystem(), &mocks.Renderer{}, &mocks.VideoProber{}, logger.NewNoop())

	summary, err := runner.Run(context.Background(), NewConfigBuilder().Build(), RunOptions{
		Input:  "frames",
		Source: SourceOptions{Decoder: DecoderImages},
	})
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Nil(t, summary)
}

func TestRunner_OpenError(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.MkdirAll("frames"))
	runner := NewRunner(fs, &mocks.Renderer{}, &mocks.VideoProber{}, logger.NewNoop())

	// An empty directory has no frames to read.
	summary, err := runner.Run(context.Background(), NewConfigBuilder().Build(), RunOptions{
		Input:  "frames",
		Source: SourceOptions{Decoder: DecoderImages},
	})
	assert.Error(t, err)
	assert.Nil(t, summary)
}
