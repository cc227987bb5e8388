package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/ports"
)

// Stage names used in logs and StageError values.
const (
	StagePreprocess = "preprocess"
	StageClassify   = "classify"
)

// Steps are the per-frame functions run by the two stages.
type Steps struct {
	// Preprocess runs on every ingested frame. Nil passes frames through.
	Preprocess Transform
	// Classify reduces a preprocessed frame to its outcome. Required.
	Classify Measure
}

// Stats is a point-in-time snapshot of a running pipeline.
type Stats struct {
	State      State
	Ingested   int64
	Retired    int64
	Expected   int64 // -1 until the end of input is announced
	Movement   int
	Parked     int
	Preprocess int // queued preprocess tasks
	Classify   int // queued classify tasks

	PreprocessBusy time.Duration // handler time summed over preprocess workers
	ClassifyBusy   time.Duration // handler time summed over classify workers
}

// Pipeline wires a preprocess stage and a classify stage to a sequencer and
// a termination coordinator.
//
// Frames enter through Ingest with strictly increasing sequence numbers
// starting at 0. Results are retired in sequence order no matter how many
// workers each stage has, so the movement count is the same for every
// worker configuration.
type Pipeline struct {
	cfg    Config
	steps  Steps
	logger ports.Logger

	preprocess *Stage
	classify   *Stage
	seq        *Sequencer
	coord      *Coordinator

	started  atomic.Bool
	next     atomic.Int64
	ingested atomic.Int64

	mu      sync.Mutex
	stopCtx func() bool
}

// New creates a pipeline. Workers are not running until Start.
func New(cfg Config, steps Steps, log ports.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if steps.Classify == nil {
		return nil, fmt.Errorf("%w: classify step is required", ErrInvalidConfig)
	}
	if log == nil {
		log = logger.NewNoop()
	}

	p := &Pipeline{
		cfg:    cfg,
		steps:  steps,
		logger: log.WithComponent("pipeline"),
	}
	p.seq = NewSequencer(cfg.MovementThreshold, cfg.MovementCompare, cfg.OnRetire)
	p.coord = NewCoordinator(p.seq.Retired, p.shutdown)

	p.preprocess = NewStage(StagePreprocess, p.runPreprocess, StageOptions{
		Workers:  cfg.PreprocessWorkers,
		Capacity: cfg.ingressCapacity(),
		Affinity: cfg.Affinity,
		Logger:   log,
		OnError:  p.fail,
	})
	p.classify = NewStage(StageClassify, p.runClassify, StageOptions{
		Workers:  cfg.ClassifyWorkers,
		Affinity: cfg.Affinity.shifted(cfg.PreprocessWorkers),
		Logger:   log,
		OnError:  p.fail,
	})
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Start launches every worker pool. Cancelling ctx fails the pipeline.
// Calling Start again has no effect.
func (p *Pipeline) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	p.mu.Lock()
	p.stopCtx = context.AfterFunc(ctx, func() {
		p.fail(context.Cause(ctx))
	})
	p.mu.Unlock()

	p.logger.Debug("Starting pipeline: %d preprocess workers, %d classify workers, row split %d/%d",
		p.cfg.PreprocessWorkers, p.cfg.ClassifyWorkers, p.cfg.PreprocessRowSplit, p.cfg.ClassifyRowSplit)
	p.preprocess.Start(ctx)
	p.classify.Start(ctx)
}

// Ingest submits the next frame. f.Seq must equal the number of frames
// ingested so far. Ingest blocks while the ingress queue is full; with an
// IngressTimeout it gives up with ErrBackpressureTimeout. Any failure to
// enqueue a frame fails the whole pipeline, since the frame can no longer be
// retired.
func (p *Pipeline) Ingest(ctx context.Context, f *Frame) error {
	if !p.started.Load() {
		return ErrNotStarted
	}
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrFrameShape)
	}
	if p.coord.State() != StateRunning {
		return p.stoppedErr()
	}
	if p.coord.Ended() {
		return fmt.Errorf("%w: frame %d ingested after end of input", ErrStopped, f.Seq)
	}
	if want := p.next.Load(); int64(f.Seq) != want || !p.next.CompareAndSwap(want, want+1) {
		return fmt.Errorf("%w: ingested %d, expected %d", ErrSequenceGap, f.Seq, want)
	}

	ictx := ctx
	if p.cfg.IngressTimeout > 0 {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(ctx, p.cfg.IngressTimeout)
		defer cancel()
	}

	err := p.preprocess.Submit(ictx, f)
	switch {
	case err == nil:
		p.ingested.Add(1)
		return nil
	case errors.Is(err, ErrStopped):
		return p.stoppedErr()
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		err = fmt.Errorf("%w: frame %d waited %s", ErrBackpressureTimeout, f.Seq, p.cfg.IngressTimeout)
	}
	p.fail(err)
	return err
}

// EndOfInput announces the total number of frames. It may be called before
// or after the last result has been retired. A total that differs from the
// number of ingested frames fails the pipeline.
func (p *Pipeline) EndOfInput(total int) error {
	err := p.coord.SetExpected(total, p.ingested.Load())
	if errors.Is(err, ErrTotalMismatch) {
		p.fail(err)
	}
	if err == nil {
		p.logger.Debug("End of input: %d frames", total)
	}
	return err
}

// Result blocks until the pipeline has stopped and returns the number of
// frames classified as movement.
func (p *Pipeline) Result(ctx context.Context) (int, error) {
	if err := p.coord.Wait(ctx); err != nil {
		return 0, err
	}
	return p.seq.Movement(), nil
}

// Done is closed once every worker has exited.
func (p *Pipeline) Done() <-chan struct{} {
	return p.coord.Done()
}

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	return p.coord.State()
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		State:      p.coord.State(),
		Ingested:   p.ingested.Load(),
		Retired:    p.seq.Retired(),
		Expected:   p.coord.Expected(),
		Movement:   p.seq.Movement(),
		Parked:     p.seq.Parked(),
		Preprocess: p.preprocess.Pending(),
		Classify:   p.classify.Pending(),

		PreprocessBusy: p.preprocess.Busy(),
		ClassifyBusy:   p.classify.Busy(),
	}
}

func (p *Pipeline) runPreprocess(ctx context.Context, task Task) error {
	out := task.Frame
	if p.steps.Preprocess != nil {
		var err error
		out, err = p.steps.Preprocess.Execute(ctx, task.Frame)
		if err != nil {
			return err
		}
		if out == nil {
			return fmt.Errorf("%w: preprocess returned no frame", ErrFrameShape)
		}
		if out.Seq != task.Seq() {
			return fmt.Errorf("%w: preprocess returned frame %d", ErrFrameShape, out.Seq)
		}
	}

	// The classify stage only stops early when the pipeline has failed.
	if err := p.classify.Submit(ctx, out); err != nil && !errors.Is(err, ErrStopped) {
		return err
	}
	return nil
}

func (p *Pipeline) runClassify(ctx context.Context, task Task) error {
	outcome, err := p.steps.Classify.Execute(ctx, task.Frame)
	if err != nil {
		return err
	}
	n, err := p.seq.Deliver(StageResult{Seq: task.Seq(), Outcome: outcome})
	if err != nil {
		return err
	}
	if n > 0 {
		p.coord.Check()
	}
	return nil
}

// fail halts retirement before the coordinator starts draining, so no
// result after the failed frame can be counted.
func (p *Pipeline) fail(err error) {
	if p.coord.State() == StateRunning {
		p.logger.Error("Pipeline failed: %v", err)
	}
	p.seq.Halt()
	p.coord.Fail(err)
}

// shutdown stops the stages upstream first. Runs on the coordinator's
// goroutine.
func (p *Pipeline) shutdown() {
	failed := p.coord.Err() != nil
	for _, s := range []*Stage{p.preprocess, p.classify} {
		if failed {
			if dropped := s.Abort(); dropped > 0 {
				p.logger.Debug("Discarded %d queued %s tasks", dropped, s.Name())
			}
			continue
		}
		s.DrainAndStop()
	}

	p.mu.Lock()
	if p.stopCtx != nil {
		p.stopCtx()
	}
	p.mu.Unlock()

	p.logger.Debug("Pipeline stopped: %d retired, %d with movement", p.seq.Retired(), p.seq.Movement())
}

func (p *Pipeline) stoppedErr() error {
	if err := p.coord.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStopped, err)
	}
	return ErrStopped
}
