package summarizer

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/motionpipe/pkg/mocks"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		RunID:       "3f0c2a8e-8d1b-4c55-9a57-5e0f8f4f7b11",
		Source:      SourceInfo{Name: "people1.mp4", Width: 640, Height: 360},
		Detection:   DetectionInfo{Frames: 300, MovementFrames: 42, AvgIntensity: 0.37, PixelThreshold: 0.1233},
		Settings: Settings{
			Program:            "motionpipe",
			Preset:             "balanced",
			K:                  12,
			PreprocessWorkers:  2,
			ClassifyWorkers:    2,
			PreprocessRowSplit: 3,
			ClassifyRowSplit:   1,
			TotalWorkers:       8,
		},
		Elapsed: 1234567 * time.Microsecond,
	}
}

func TestFormatRecord(t *testing.T) {
	want := "Mon Jan 15 10:30:00 2024 - people1.mp4,motionpipe,12,8,0,1234567,42,3f0c2a8e-8d1b-4c55-9a57-5e0f8f4f7b11\n"
	assert.Equal(t, want, FormatRecord(sampleSummary()))
}

func TestFormatRecord_Debug(t *testing.T) {
	s := sampleSummary()
	s.Settings.Debug = true
	assert.Contains(t, FormatRecord(s), ",8,1,1234567,")
}

func TestResultsPath(t *testing.T) {
	tests := map[string]string{
		"Videos/people1.mp4": filepath.Join("results", "people1.txt"),
		"clip":               filepath.Join("results", "clip.txt"),
		"/tmp/a.b.avi":       filepath.Join("results", "a.b.txt"),
	}
	for video, want := range tests {
		assert.Equal(t, want, ResultsPath("results", video), video)
	}
}

func TestWriter_AppendsRecords(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(RecordFormatter, fs)

	for i := 0; i < 2; i++ {
		require.NoError(t, w.Append("results/people1.txt", sampleSummary()))
	}

	data, _ := fs.GetFile("results/people1.txt")
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(NewMarkdownFormatter(), fs)

	require.NoError(t, w.Write("out/summary.md", sampleSummary()))
	data, ok := fs.GetFile("out/summary.md")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(data), "# "), "expected a markdown document, got %q", data)
}
