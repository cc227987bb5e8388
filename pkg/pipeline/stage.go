// Package pipeline provides the streaming worker-pool engine that moves
// frames through stages and restores their order at the end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/ports"
)

// Handler executes one task on a stage worker.
type Handler func(ctx context.Context, task Task) error

// Affinity places stage workers on CPU cores. It only changes scheduling
// locality, never results.
type Affinity struct {
	// Place maps a worker index to a core id.
	Place func(worker int) int
	// Pin binds the calling OS thread to a core.
	Pin func(core int) error
}

// StageOptions configures a Stage.
type StageOptions struct {
	Workers  int       // Number of worker goroutines (>= 1)
	Capacity int       // Queue capacity; <= 0 is unbounded
	Affinity *Affinity // Optional worker placement
	Logger   ports.Logger
	OnError  func(error) // Receives fatal *StageError values
}

// Stage owns a work queue and a fixed pool of workers. Tasks are taken in
// FIFO order, but with more than one worker they may finish in any order.
type Stage struct {
	name     string
	queue    *Queue[Task]
	workers  int
	handler  Handler
	affinity *Affinity
	logger   ports.Logger
	onError  func(error)

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	discard   atomic.Bool
	processed atomic.Int64
	busy      atomic.Int64 // nanoseconds spent in the handler, summed over workers
}

// NewStage creates a stage. Workers are not running until Start.
func NewStage(name string, handler Handler, opts StageOptions) *Stage {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	return &Stage{
		name:     name,
		queue:    NewQueue[Task](opts.Capacity),
		workers:  opts.Workers,
		handler:  handler,
		affinity: opts.Affinity,
		logger:   opts.Logger.WithComponent("stage:" + name),
		onError:  opts.OnError,
	}
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.name
}

// Workers returns the size of the worker pool.
func (s *Stage) Workers() int {
	return s.workers
}

// Pending returns the number of queued, not yet started tasks.
func (s *Stage) Pending() int {
	return s.queue.Len()
}

// Processed returns the number of tasks executed so far.
func (s *Stage) Processed() int64 {
	return s.processed.Load()
}

// Busy returns the time spent executing tasks, summed over all workers.
func (s *Stage) Busy() time.Duration {
	return time.Duration(s.busy.Load())
}

// Start launches the worker pool. Calling it again has no effect.
func (s *Stage) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.logger.Debug("Starting %d workers", s.workers)
		s.wg.Add(s.workers)
		for i := 0; i < s.workers; i++ {
			go s.worker(ctx, i)
		}
	})
}

// Submit enqueues a frame for this stage. On a bounded stage it blocks
// until there is room or ctx is done. It returns ErrStopped once the stage
// has been told to stop.
func (s *Stage) Submit(ctx context.Context, f *Frame) error {
	err := s.queue.PushContext(ctx, Task{Frame: f, Stage: s.name})
	if errors.Is(err, ErrQueueClosed) {
		return ErrStopped
	}
	return err
}

// DrainAndStop stops accepting tasks, lets the workers finish what is
// queued and in flight, and waits for them to exit. Only the first call
// does anything.
func (s *Stage) DrainAndStop() {
	s.stopOnce.Do(func() {
		s.queue.Close()
		s.wg.Wait()
		s.logger.Debug("Stopped after %d tasks, busy %s", s.processed.Load(), s.Busy())
	})
}

// Abort discards queued tasks and then stops like DrainAndStop. Tasks that
// are already executing still run to completion. It returns the number of
// discarded tasks.
func (s *Stage) Abort() int {
	s.discard.Store(true)
	dropped := len(s.queue.Drain())
	s.DrainAndStop()
	return dropped
}

func (s *Stage) worker(ctx context.Context, index int) {
	defer s.wg.Done()

	if s.affinity != nil {
		s.pin(index)
	}

	for {
		task, ok := s.queue.Pop()
		if !ok {
			return
		}
		if s.discard.Load() {
			continue
		}

		start := time.Now()
		err := s.run(ctx, task)
		s.busy.Add(int64(time.Since(start)))
		s.processed.Add(1)
		if err != nil {
			s.onError(&StageError{Stage: s.name, Seq: task.Seq(), Err: err})
		}
	}
}

// run executes the handler and converts a panic into an error.
func (s *Stage) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, task)
}

// pin locks the worker to its OS thread for the rest of its life and asks
// the affinity hook to place that thread. Failure only costs locality.
func (s *Stage) pin(index int) {
	runtime.LockOSThread()
	core := s.affinity.Place(index)
	if err := s.affinity.Pin(core); err != nil {
		s.logger.Warn("Failed to pin worker %d to core %d: %s", index, core, err)
		return
	}
	s.logger.Debug("Worker %d pinned to core %d", index, core)
}
