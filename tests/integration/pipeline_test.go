// Package integration contains integration tests for the motionpipe
// detection stack using real adapters.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/motionpipe/pkg/adapters/ffmpegsource"
	"github.com/user/motionpipe/pkg/adapters/ggrenderer"
	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/adapters/mp4probe"
	"github.com/user/motionpipe/pkg/adapters/osfilesystem"
	"github.com/user/motionpipe/pkg/motionpipe"
	"github.com/user/motionpipe/pkg/orchestrator"
)

// writeSequence writes n+1 PNG frames to dir: a grey background followed
// by n frames in which those listed in moving show a white block covering
// half of the frame.
func writeSequence(t *testing.T, dir string, n int, moving map[int]bool) {
	t.Helper()
	const w, h = 64, 48

	for i := 0; i <= n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.RGBA{R: 60, G: 60, B: 60, A: 255}
				if moving[i] && x < w/2 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				}
				img.Set(x, y, c)
			}
		}

		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("frame-%03d.png", i)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func newRunner() *motionpipe.Runner {
	return motionpipe.NewRunner(osfilesystem.New(), ggrenderer.New(), mp4probe.New(), logger.NewNoop())
}

// TestImageSequenceDetection runs detection on a PNG directory with debug
// output and a results file on disk.
func TestImageSequenceDetection(t *testing.T) {
	root := t.TempDir()
	frames := filepath.Join(root, "frames")
	if err := os.MkdirAll(frames, 0755); err != nil {
		t.Fatal(err)
	}
	moving := map[int]bool{2: true, 3: true, 7: true}
	writeSequence(t, frames, 10, moving)

	debugDir := filepath.Join(root, "debug")
	results := filepath.Join(root, "results", "frames.txt")
	cfg := motionpipe.NewConfigBuilder().WithTotalWorkers(6).Build()

	summary, err := newRunner().Run(context.Background(), cfg, motionpipe.RunOptions{
		Input:       frames,
		Source:      motionpipe.SourceOptions{Decoder: motionpipe.DecoderAuto},
		Debug:       true,
		DebugDir:    debugDir,
		ResultsPath: results,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Detection.Frames != 10 {
		t.Errorf("expected 10 classified frames, got %d", summary.Detection.Frames)
	}
	if summary.Detection.MovementFrames != len(moving) {
		t.Errorf("expected %d movement frames, got %d", len(moving), summary.Detection.MovementFrames)
	}

	for _, name := range []string{"background.png", "run.json", filepath.Join("frames", "diff", "frame-0000.png"), filepath.Join("frames", "diff", "frame-0009.png")} {
		if _, err := os.Stat(filepath.Join(debugDir, name)); err != nil {
			t.Errorf("expected debug file %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(debugDir, "run.json"))
	if err != nil {
		t.Fatal(err)
	}
	var run orchestrator.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		t.Fatalf("run.json: %v", err)
	}
	if run.MovementFrames != len(moving) || run.Width != 64 || run.Height != 48 {
		t.Errorf("unexpected run.json content: %+v", run)
	}

	line, err := os.ReadFile(results)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(line), " - frames,motionpipe,12,6,1,") {
		t.Errorf("unexpected results line %q", line)
	}
}

// TestWorkerLayoutsAgree checks that every preset and worker count reports
// the same detections.
func TestWorkerLayoutsAgree(t *testing.T) {
	want := -1
	for _, preset := range []motionpipe.Preset{motionpipe.PresetBalanced, motionpipe.PresetStream, motionpipe.PresetData} {
		for _, total := range []int{1, 2, 5, 12} {
			cfg := motionpipe.NewConfigBuilder().WithPreset(preset).WithTotalWorkers(total).WithIngress(2, 0).Build()
			summary, err := newRunner().Run(context.Background(), cfg, motionpipe.RunOptions{
				Source: motionpipe.SourceOptions{Synthetic: 24, Width: 80, Height: 60},
			})
			if err != nil {
				t.Fatalf("%s/%d: %v", preset, total, err)
			}
			if want < 0 {
				want = summary.Detection.MovementFrames
			}
			if summary.Detection.MovementFrames != want {
				t.Errorf("%s/%d: expected %d movement frames, got %d", preset, total, want, summary.Detection.MovementFrames)
			}
		}
	}
	if want == 0 {
		t.Error("expected the synthetic object to be detected")
	}
}

// TestFFmpegDecoding decodes a generated MP4 through ffmpeg. A constant
// colour clip must report no movement.
func TestFFmpegDecoding(t *testing.T) {
	if !ffmpegsource.Available() {
		t.Skip("ffmpeg not available")
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not in PATH")
	}

	video := filepath.Join(t.TempDir(), "grey.mp4")
	gen := exec.Command(ffmpeg, "-v", "error", "-f", "lavfi", "-i", "color=c=gray:s=64x48:d=1:r=10",
		"-c:v", "mpeg4", "-y", video)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot generate test clip: %v\n%s", err, out)
	}

	// mp4v sample entries are not parsed by every mp4ff version; the size
	// is passed explicitly below.
	if info, err := mp4probe.New().Probe(video); err == nil {
		if info.Width != 64 || info.Height != 48 {
			t.Errorf("expected 64x48, got %dx%d", info.Width, info.Height)
		}
	}

	cfg := motionpipe.NewConfigBuilder().WithTotalWorkers(3).Build()
	summary, err := newRunner().Run(context.Background(), cfg, motionpipe.RunOptions{
		Input:  video,
		Source: motionpipe.SourceOptions{Decoder: motionpipe.DecoderFFmpeg, Width: 64, Height: 48},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Detection.Frames == 0 {
		t.Error("expected decoded frames")
	}
	if summary.Detection.MovementFrames != 0 {
		t.Errorf("expected no movement, got %d", summary.Detection.MovementFrames)
	}
}

// TestFFmpegProbedSize decodes H.264 clips without an explicit size, so the
// frame size comes from the container. The left half of every frame is
// white; a transposed read would put grey pixels there.
func TestFFmpegProbedSize(t *testing.T) {
	if !ffmpegsource.Available() {
		t.Skip("ffmpeg not available")
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not in PATH")
	}

	cases := []struct {
		name  string
		input []string
	}{
		{name: "plain"},
		{name: "rotated", input: []string{"-display_rotation", "90"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			video := filepath.Join(t.TempDir(), tc.name+".mp4")
			args := append([]string{"-v", "error"}, tc.input...)
			args = append(args,
				"-f", "lavfi", "-i", "color=c=gray:s=64x48:d=1:r=10",
				"-vf", "drawbox=x=0:y=0:w=32:h=48:color=white:t=fill",
				"-c:v", "libx264", "-pix_fmt", "yuv420p", "-y", video)
			if out, err := exec.Command(ffmpeg, args...).CombinedOutput(); err != nil {
				t.Skipf("cannot generate test clip: %v\n%s", err, out)
			}

			src, err := ffmpegsource.Open(context.Background(), video, ffmpegsource.Options{Prober: mp4probe.New()})
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer src.Close()

			if info := src.Info(); info.Width != 64 || info.Height != 48 {
				t.Fatalf("expected probed size 64x48, got %dx%d", info.Width, info.Height)
			}

			frame, err := src.Next(context.Background())
			if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			at := func(x, y int) float32 { return frame.Pix[(y*frame.Width+x)*frame.Channels] }
			for _, y := range []int{4, 24, 44} {
				if v := at(8, y); v < 0.8 {
					t.Errorf("expected white at (8,%d), got %.2f", y, v)
				}
				if v := at(56, y); v < 0.3 || v > 0.7 {
					t.Errorf("expected grey at (56,%d), got %.2f", y, v)
				}
			}
		})
	}
}
