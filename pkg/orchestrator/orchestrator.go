// Package orchestrator runs one motion detection job end to end: it builds
// the background from the first frame, streams the rest through the
// pipeline and collects the result.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
	"github.com/user/motionpipe/pkg/stages/background"
	"github.com/user/motionpipe/pkg/stages/compare"
	"github.com/user/motionpipe/pkg/stages/greyscale"
	"github.com/user/motionpipe/pkg/stages/smoothing"
)

// ErrNoFrames is returned when the source has no background frame.
var ErrNoFrames = errors.New("orchestrator: source has no frames")

// Config contains all configuration for a detection run.
type Config struct {
	// Pipeline holds worker counts, row splits, comparisons and the movement
	// threshold. Background and PixelThreshold are filled in by Run.
	Pipeline pipeline.Config

	// ThresholdDivisor derives the pixel threshold from the background's
	// average intensity. 0 selects background.DefaultDivisor.
	ThresholdDivisor float64

	// MaxFrames stops reading after this many frames past the background.
	// 0 reads the whole source.
	MaxFrames int

	// Program names the configuration in result records.
	Program string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Pipeline:         pipeline.DefaultConfig(),
		ThresholdDivisor: background.DefaultDivisor,
		Program:          "motionpipe",
	}
}

// RunResult contains the outcome of a detection run.
type RunResult struct {
	Source  string `json:"source"`
	Program string `json:"program"`

	// Frames
	Width          int `json:"width"`
	Height         int `json:"height"`
	Frames         int `json:"frames"` // Classified frames, the background excluded
	MovementFrames int `json:"movementFrames"`

	// Thresholds
	AvgIntensity      float64 `json:"avgIntensity"`
	PixelThreshold    float64 `json:"pixelThreshold"`
	MovementThreshold float64 `json:"movementThreshold"`

	// Workers
	PreprocessWorkers  int `json:"preprocessWorkers"`
	ClassifyWorkers    int `json:"classifyWorkers"`
	PreprocessRowSplit int `json:"preprocessRowSplit"`
	ClassifyRowSplit   int `json:"classifyRowSplit"`
	TotalWorkers       int `json:"totalWorkers"`

	// Timing. Stage times are summed over the stage's workers.
	Elapsed        time.Duration `json:"elapsed"`
	ReadTime       time.Duration `json:"readTime"`
	PreprocessTime time.Duration `json:"preprocessTime"`
	ClassifyTime   time.Duration `json:"classifyTime"`
}

// Orchestrator wires sources, stages and debug output together.
type Orchestrator struct {
	sink     ports.DebugSink
	renderer ports.Renderer
	logger   ports.Logger
}

// New creates a new Orchestrator. renderer may be nil, in which case
// difference masks are saved without annotation.
func New(sink ports.DebugSink, renderer ports.Renderer, logger ports.Logger) *Orchestrator {
	return &Orchestrator{
		sink:     sink,
		renderer: renderer,
		logger:   logger,
	}
}

// Run detects movement in src. The source's first frame becomes the
// background; the frames after it are classified with sequence numbers
// starting at 0. Cancelling ctx stops the pipeline and returns its cause.
func (o *Orchestrator) Run(ctx context.Context, src pipeline.FrameSource, info pipeline.SourceInfo, config Config) (RunResult, error) {
	started := time.Now()
	pcfg := config.Pipeline

	first, err := src.Next(ctx)
	if errors.Is(err, io.EOF) {
		return RunResult{}, fmt.Errorf("%w: %s", ErrNoFrames, info.Name)
	}
	if err != nil {
		return RunResult{}, fmt.Errorf("read background: %w", err)
	}

	preprocess := pipeline.Chain(
		greyscale.NewStage(pcfg.PreprocessRowSplit),
		smoothing.NewStage(pcfg.PreprocessRowSplit),
	)
	bg, err := background.Build(ctx, first, preprocess, config.ThresholdDivisor)
	if err != nil {
		return RunResult{}, fmt.Errorf("build background: %w", err)
	}
	o.logger.Info("Frames resolution: %d x %d", bg.Frame.Height, bg.Frame.Width)
	o.logger.Info("Background average intensity: %.2f, threshold %.4f", bg.AvgIntensity, bg.PixelThreshold)

	if o.sink.Enabled() {
		if err := o.sink.SaveBackground(greyscale.Image(bg.Frame)); err != nil {
			o.logger.Warn("Failed to save debug output: %s", err)
		}
	}

	comparer, err := compare.New(bg.Frame, bg.PixelThreshold, pcfg.PixelCompare)
	if err != nil {
		return RunResult{}, err
	}
	classify := compare.NewStage(comparer, pcfg.ClassifyRowSplit)
	if o.sink.Enabled() {
		movement := func(outcome float64) bool {
			return pcfg.MovementCompare.Exceeds(outcome, pcfg.MovementThreshold)
		}
		classify = o.withDiffMasks(classify, comparer, movement)
	}

	pcfg.Background = bg.Frame
	pcfg.PixelThreshold = bg.PixelThreshold
	pcfg.OnRetire = o.observe(pcfg.OnRetire)

	p, err := pipeline.New(pcfg, pipeline.Steps{Preprocess: preprocess, Classify: classify}, o.logger)
	if err != nil {
		return RunResult{}, err
	}

	o.logger.Info("Starting detection: %d preprocess workers, %d classify workers",
		pcfg.PreprocessWorkers, pcfg.ClassifyWorkers)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	p.Start(runCtx)

	frames, readTime, ingestErr := o.ingest(runCtx, src, p, config.MaxFrames)
	if ingestErr != nil {
		cancel(ingestErr)
	} else if err := p.EndOfInput(frames); err != nil {
		cancel(err)
	}

	// Workers always stop once the pipeline fails, so waiting here cannot
	// outlive them.
	movement, err := p.Result(context.WithoutCancel(ctx))
	if err == nil && ingestErr != nil {
		err = ingestErr
	}
	if err != nil {
		o.logger.Error("Detection failed: %s", err)
		return RunResult{}, err
	}

	result := RunResult{
		Source:             info.Name,
		Program:            config.Program,
		Width:              bg.Frame.Width,
		Height:             bg.Frame.Height,
		Frames:             frames,
		MovementFrames:     movement,
		AvgIntensity:       bg.AvgIntensity,
		PixelThreshold:     bg.PixelThreshold,
		MovementThreshold:  pcfg.MovementThreshold,
		PreprocessWorkers:  pcfg.PreprocessWorkers,
		ClassifyWorkers:    pcfg.ClassifyWorkers,
		PreprocessRowSplit: pcfg.PreprocessRowSplit,
		ClassifyRowSplit:   pcfg.ClassifyRowSplit,
		TotalWorkers:       pcfg.TotalWorkers(),
		Elapsed:            time.Since(started),
		ReadTime:           readTime,
	}
	stats := p.Stats()
	result.PreprocessTime = stats.PreprocessBusy
	result.ClassifyTime = stats.ClassifyBusy
	o.logger.Debug("Phase times: read %s, preprocess %s, classify %s",
		result.ReadTime, result.PreprocessTime, result.ClassifyTime)
	o.logger.Info("Frames with movement detected: %d of %d", movement, frames)

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			if err := o.sink.SaveRunJSON(data); err != nil {
				o.logger.Warn("Failed to save debug output: %s", err)
			}
		}
	}
	return result, nil
}

// ingest feeds frames from src into p, renumbered from 0, and returns how
// many were ingested and the time spent reading them. A source error is
// returned; a pipeline error is left for Result to report.
func (o *Orchestrator) ingest(ctx context.Context, src pipeline.FrameSource, p *pipeline.Pipeline, limit int) (int, time.Duration, error) {
	n := 0
	var reading time.Duration
	for limit <= 0 || n < limit {
		start := time.Now()
		f, err := src.Next(ctx)
		reading += time.Since(start)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if context.Cause(ctx) != nil {
				return n, reading, nil
			}
			return n, reading, fmt.Errorf("read frame %d: %w", n+1, err)
		}

		f.Seq = n
		if err := p.Ingest(ctx, f); err != nil {
			return n, reading, nil
		}
		n++
	}
	o.logger.Debug("Read %d frames in %s", n, reading)
	return n, reading, nil
}

// observe logs each retirement before passing it on to next.
func (o *Orchestrator) observe(next func(pipeline.Retirement)) func(pipeline.Retirement) {
	return func(r pipeline.Retirement) {
		if r.Movement {
			o.logger.Debug("Frame %d: %.2f%% different, movement", r.Seq, r.Outcome*100)
		}
		if next != nil {
			next(r)
		}
	}
}

// withDiffMasks saves an annotated difference mask for every classified
// frame. Saving runs on the classify workers, never inside the sequencer.
func (o *Orchestrator) withDiffMasks(classify pipeline.Measure, c *compare.Comparer, movement func(float64) bool) pipeline.Measure {
	return pipeline.StepFunc[*pipeline.Frame, float64](func(ctx context.Context, f *pipeline.Frame) (float64, error) {
		outcome, err := classify.Execute(ctx, f)
		if err != nil {
			return 0, err
		}
		mask, err := c.Mask(f)
		if err != nil {
			return 0, err
		}
		if err := o.sink.SaveDiffMask(f.Seq, o.annotate(mask, f.Seq, outcome, movement(outcome))); err != nil {
			o.logger.Warn("Failed to save debug output: %s", err)
		}
		return outcome, nil
	})
}

const labelHeight = 20

var (
	labelBackground = color.Gray{Y: 40}
	movementColor   = color.RGBA{R: 230, G: 40, B: 40, A: 255}
)

// annotate places the mask above a label strip with the frame number and
// difference ratio. Frames classified as movement get a red outline.
func (o *Orchestrator) annotate(mask *image.Gray, seq int, outcome float64, movement bool) image.Image {
	if o.renderer == nil {
		return mask
	}
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	canvas := o.renderer.CreateCanvas(w, h+labelHeight, color.Black)
	canvas.DrawImage(mask, 0, 0)
	canvas.DrawRect(0, h, w, labelHeight, labelBackground)
	canvas.DrawText(fmt.Sprintf("frame %d: %.2f%%", seq, outcome*100), 4, h+labelHeight/2, ports.TextStyle{
		Color: color.White,
		Align: ports.AlignLeft,
	})
	if movement {
		canvas.DrawRectStroke(1, 1, w-2, h-2, movementColor, 2)
		canvas.DrawText("movement", w-4, h+labelHeight/2, ports.TextStyle{
			Color: movementColor,
			Align: ports.AlignRight,
		})
	}
	return canvas.ToImage()
}
