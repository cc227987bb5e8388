package motionpipe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/motionpipe/pkg/pipeline"
)

func TestSplitWorkers_Balanced(t *testing.T) {
	tests := []struct {
		total int
		want  Workers
	}{
		{0, Workers{1, 1, 1, 1}},
		{1, Workers{1, 1, 1, 1}},
		{4, Workers{1, 3, 1, 1}},
		{5, Workers{2, 1, 2, 1}},
		{8, Workers{2, 2, 3, 1}},
		{12, Workers{2, 2, 5, 1}},
		{16, Workers{2, 2, 7, 1}},
		{40, Workers{2, 6, 17, 1}},
	}
	for _, tt := range tests {
		got := SplitWorkers(PresetBalanced, tt.total)
		assert.Equal(t, tt.want, got, "total %d", tt.total)
		if tt.total >= 4 {
			assert.Equal(t, tt.total, got.Total(), "total %d", tt.total)
		}
	}
}

func TestSplitWorkers_Stream(t *testing.T) {
	assert.Equal(t, Workers{1, 1, 1, 1}, SplitWorkers(PresetStream, 2))
	assert.Equal(t, Workers{6, 3, 1, 1}, SplitWorkers(PresetStream, 9))
	assert.Equal(t, 16, SplitWorkers(PresetStream, 16).Total())
}

func TestSplitWorkers_Data(t *testing.T) {
	w := SplitWorkers(PresetData, 9)
	assert.Equal(t, Workers{1, 1, 6, 3}, w)
	assert.Equal(t, 9, w.Total())
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("Stream")
	require.NoError(t, err)
	assert.Equal(t, PresetStream, p)

	p, err = ParsePreset("")
	require.NoError(t, err)
	assert.Equal(t, PresetBalanced, p)

	_, err = ParsePreset("farm")
	assert.Error(t, err)
}

func TestConfigBuilder_Defaults(t *testing.T) {
	cfg := NewConfigBuilder().Build()

	assert.Equal(t, 12, cfg.K)
	assert.Equal(t, Workers{1, 1, 1, 1}, cfg.Workers)
	assert.InDelta(t, 0.12, cfg.MovementThreshold(), 1e-9)
	assert.Equal(t, 3.0, cfg.ThresholdDivisor)
}

func TestConfigBuilder_TotalWorkers(t *testing.T) {
	cfg := NewConfigBuilder().WithPreset(PresetStream).WithTotalWorkers(6).Build()
	assert.Equal(t, Workers{4, 2, 1, 1}, cfg.Workers)
}

func TestConfigBuilder_ExplicitWorkersClamped(t *testing.T) {
	cfg := NewConfigBuilder().
		WithTotalWorkers(8).
		WithWorkers(Workers{Preprocess: 3, Classify: 0, PreprocessRowSplit: 2}).
		WithK(150).
		WithThresholdDivisor(-1).
		Build()

	assert.Equal(t, Workers{3, 1, 2, 1}, cfg.Workers)
	assert.Equal(t, 100, cfg.K)
	assert.Equal(t, 3.0, cfg.ThresholdDivisor)
}

func TestConfig_ToOrchestratorConfig(t *testing.T) {
	cfg := NewConfigBuilder().
		WithK(20).
		WithWorkers(Workers{2, 3, 4, 5}).
		WithPixelCompare(pipeline.GreaterOrEqual).
		WithMovementCompare(pipeline.GreaterOrEqual).
		WithThresholdDivisor(10).
		WithIngress(8, time.Second).
		WithPinning(true).
		WithMaxFrames(50).
		WithProgram("bench").
		Build()

	oc := cfg.ToOrchestratorConfig()
	p := oc.Pipeline
	assert.Equal(t, 2, p.PreprocessWorkers)
	assert.Equal(t, 3, p.ClassifyWorkers)
	assert.Equal(t, 4, p.PreprocessRowSplit)
	assert.Equal(t, 5, p.ClassifyRowSplit)
	assert.InDelta(t, 0.2, p.MovementThreshold, 1e-9)
	assert.Equal(t, pipeline.GreaterOrEqual, p.PixelCompare)
	assert.Equal(t, pipeline.GreaterOrEqual, p.MovementCompare)
	assert.Equal(t, 8, p.IngressCapacity)
	assert.Equal(t, time.Second, p.IngressTimeout)
	require.NotNil(t, p.Affinity)
	assert.NoError(t, p.Validate())

	assert.Equal(t, 10.0, oc.ThresholdDivisor)
	assert.Equal(t, 50, oc.MaxFrames)
	assert.Equal(t, "bench", oc.Program)
}
