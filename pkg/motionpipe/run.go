package motionpipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/motionpipe/pkg/adapters/filesink"
	"github.com/user/motionpipe/pkg/adapters/nullsink"
	"github.com/user/motionpipe/pkg/orchestrator"
	"github.com/user/motionpipe/pkg/ports"
	"github.com/user/motionpipe/pkg/summarizer"
)

// ErrInputNotFound is returned when the input path does not exist.
var ErrInputNotFound = errors.New("input not found")

// RunOptions describes one detection run beyond the detection Config.
type RunOptions struct {
	Input  string
	Source SourceOptions

	Debug    bool
	DebugDir string

	// ResultsPath receives one appended results line. Empty skips it.
	ResultsPath string
	// SummaryPath receives a Markdown summary. Empty skips it.
	SummaryPath string
}

// Runner opens sources and runs detections with shared adapters.
type Runner struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	prober   ports.VideoProber
	log      ports.Logger
}

// NewRunner creates a Runner.
func NewRunner(fs ports.FileSystem, renderer ports.Renderer, prober ports.VideoProber, log ports.Logger) *Runner {
	return &Runner{fs: fs, renderer: renderer, prober: prober, log: log}
}

// Run detects movement in opts.Input and writes the configured outputs.
// The returned Summary is nil when detection fails.
func (r *Runner) Run(ctx context.Context, cfg Config, opts RunOptions) (*summarizer.Summary, error) {
	if opts.Source.Synthetic == 0 {
		ok, err := r.fs.Exists(opts.Input)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, opts.Input)
		}
	}

	sink := ports.DebugSink(nullsink.New())
	if opts.Debug {
		if err := r.fs.MkdirAll(opts.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(opts.DebugDir, r.fs, r.renderer)
	}

	src, err := OpenSource(ctx, opts.Input, opts.Source, r.fs, r.prober)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Input, err)
	}
	defer src.Close()

	orch := orchestrator.New(sink, r.renderer, r.log)
	result, err := orch.Run(ctx, src, src.Info(), cfg.ToOrchestratorConfig())
	if err != nil {
		return nil, err
	}

	summary := summarizer.NewBuilder().WithRunResult(result).Build()
	summary.Settings.Preset = string(cfg.Preset)
	summary.Settings.K = cfg.K
	summary.Settings.Debug = opts.Debug

	if opts.ResultsPath != "" {
		w := summarizer.NewWriter(summarizer.RecordFormatter, r.fs)
		if err := w.Append(opts.ResultsPath, summary); err != nil {
			return summary, err
		}
	}
	if opts.SummaryPath != "" {
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), r.fs)
		if err := w.Write(opts.SummaryPath, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}
