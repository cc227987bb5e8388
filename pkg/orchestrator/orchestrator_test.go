package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/adapters/synthsource"
	"github.com/user/motionpipe/pkg/mocks"
	"github.com/user/motionpipe/pkg/pipeline"
)

func synth(frames int) *synthsource.Source {
	return synthsource.New(synthsource.Options{Width: 32, Height: 24, Frames: frames, Period: 4, Duty: 1})
}

func TestOrchestrator_Run(t *testing.T) {
	src := synth(12)
	orch := New(mocks.NewDebugSink(false), nil, logger.NewNoop())

	result, err := orch.Run(context.Background(), src, src.Info(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 12, result.Frames)
	assert.Equal(t, 3, result.MovementFrames)
	assert.Equal(t, src.ExpectedMovement(), result.MovementFrames)
	assert.Equal(t, 32, result.Width)
	assert.Equal(t, 24, result.Height)
	assert.InDelta(t, result.AvgIntensity/3, result.PixelThreshold, 1e-9)
	assert.Equal(t, "synthetic", result.Source)
	assert.Equal(t, 2, result.TotalWorkers)
}

func TestOrchestrator_Run_PhaseTimes(t *testing.T) {
	src := synth(6)
	slow := &mocks.FrameSource{NextFunc: func(ctx context.Context) (*pipeline.Frame, error) {
		time.Sleep(time.Millisecond)
		return src.Next(ctx)
	}}
	sink := mocks.NewDebugSink(true)

	result, err := New(sink, nil, logger.NewNoop()).Run(context.Background(), slow, src.Info(), DefaultConfig())
	require.NoError(t, err)

	// Six frames plus the end-of-stream read.
	assert.GreaterOrEqual(t, result.ReadTime, 7*time.Millisecond)
	assert.GreaterOrEqual(t, result.PreprocessTime, time.Duration(0))
	assert.GreaterOrEqual(t, result.ClassifyTime, time.Duration(0))
	assert.LessOrEqual(t, result.ReadTime, result.Elapsed)

	var saved map[string]any
	require.NoError(t, json.Unmarshal(sink.RunJSON, &saved))
	assert.Contains(t, saved, "readTime")
	assert.Contains(t, saved, "preprocessTime")
	assert.Contains(t, saved, "classifyTime")
}

func TestOrchestrator_Run_SameResultForAnyWorkers(t *testing.T) {
	configs := []struct {
		pre, cls, preSplit, clsSplit int
	}{
		{1, 1, 1, 1},
		{4, 2, 1, 1},
		{2, 3, 3, 2},
		{8, 8, 4, 4},
	}
	for _, c := range configs {
		src := synthsource.New(synthsource.Options{Width: 40, Height: 30, Frames: 40, Period: 3, Duty: 2})
		cfg := DefaultConfig()
		cfg.Pipeline.PreprocessWorkers = c.pre
		cfg.Pipeline.ClassifyWorkers = c.cls
		cfg.Pipeline.PreprocessRowSplit = c.preSplit
		cfg.Pipeline.ClassifyRowSplit = c.clsSplit

		result, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, src.Info(), cfg)
		require.NoError(t, err, "%+v", c)
		assert.Equal(t, src.ExpectedMovement(), result.MovementFrames, "%+v", c)
	}
}

func TestOrchestrator_Run_RetiresInOrder(t *testing.T) {
	src := synth(30)
	cfg := DefaultConfig()
	cfg.Pipeline.PreprocessWorkers = 4
	cfg.Pipeline.ClassifyWorkers = 4

	var seqs []int
	cfg.Pipeline.OnRetire = func(r pipeline.Retirement) {
		seqs = append(seqs, r.Seq)
	}

	_, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, src.Info(), cfg)
	require.NoError(t, err)

	require.Len(t, seqs, 30)
	for i, s := range seqs {
		assert.Equal(t, i, s)
	}
}

func TestOrchestrator_Run_DebugOutput(t *testing.T) {
	src := synth(5)
	sink := mocks.NewDebugSink(true)
	orch := New(sink, &mocks.Renderer{}, logger.NewNoop())

	result, err := orch.Run(context.Background(), src, src.Info(), DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, sink.Background)
	assert.Equal(t, 5, sink.MaskCount())

	var saved RunResult
	require.NoError(t, json.Unmarshal(sink.RunJSON, &saved))
	assert.Equal(t, result.MovementFrames, saved.MovementFrames)
	assert.Equal(t, 5, saved.Frames)
}

func TestOrchestrator_Run_MaxFrames(t *testing.T) {
	src := synth(20)
	cfg := DefaultConfig()
	cfg.MaxFrames = 4

	result, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, src.Info(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Frames)
	assert.Equal(t, 1, result.MovementFrames)
}

func TestOrchestrator_Run_OnlyBackground(t *testing.T) {
	src := synth(0)

	result, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, src.Info(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Frames)
	assert.Equal(t, 0, result.MovementFrames)
}

func TestOrchestrator_Run_EmptySource(t *testing.T) {
	src := mocks.NewFrameSource()

	_, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, pipeline.SourceInfo{Name: "empty"}, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestOrchestrator_Run_SourceError(t *testing.T) {
	boom := errors.New("decoder exploded")
	bg := pipeline.NewFrame(0, 8, 8, 3)
	src := mocks.NewFrameSource(bg, pipeline.NewFrame(1, 8, 8, 3))
	src.Err = boom

	_, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, pipeline.SourceInfo{}, DefaultConfig())
	assert.ErrorIs(t, err, boom)
}

func TestOrchestrator_Run_FrameShapeMismatch(t *testing.T) {
	src := mocks.NewFrameSource(pipeline.NewFrame(0, 8, 8, 3), pipeline.NewFrame(1, 9, 8, 3))

	_, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(context.Background(), src, pipeline.SourceInfo{}, DefaultConfig())
	assert.ErrorIs(t, err, pipeline.ErrFrameShape)

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, 0, stageErr.Seq)
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	src := mocks.NewFrameSource()
	src.NextFunc = func(context.Context) (*pipeline.Frame, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return pipeline.NewFrame(calls-1, 8, 8, 3), nil
	}

	_, err := New(mocks.NewDebugSink(false), nil, logger.NewNoop()).Run(ctx, src, pipeline.SourceInfo{}, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
