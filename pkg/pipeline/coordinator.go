package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a pipeline.
type State int32

const (
	// StateRunning accepts frames; the total may or may not be known yet.
	StateRunning State = iota
	// StateDraining has told every stage to stop and waits for the workers.
	StateDraining
	// StateStopped has joined every worker; the result is final.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Coordinator decides when the pipeline is finished and runs the shutdown
// exactly once.
//
// The expected total is only known after ingestion ends, which may be before
// or after the last result is retired. Both sides therefore call Check after
// publishing their value: whoever observes retired == expected second wins
// the compare-and-set and starts the shutdown.
type Coordinator struct {
	state    atomic.Int32
	expected atomic.Int64
	hasTotal atomic.Bool

	retired  func() int64
	shutdown func()

	errMu sync.Mutex
	err   error
	done  chan struct{}
}

// NewCoordinator creates a coordinator. retired reports the number of
// retired results; shutdown stops every stage and must block until all
// workers have exited.
func NewCoordinator(retired func() int64, shutdown func()) *Coordinator {
	c := &Coordinator{
		retired:  retired,
		shutdown: shutdown,
		done:     make(chan struct{}),
	}
	c.expected.Store(-1)
	return c
}

// SetExpected records the total frame count. It may be called once; a
// second call returns ErrEndOfInputTwice and leaves the first value in place.
// When total differs from ingested the end of input is consumed but no total
// is stored, and ErrTotalMismatch is returned.
func (c *Coordinator) SetExpected(total int, ingested int64) error {
	if !c.hasTotal.CompareAndSwap(false, true) {
		return ErrEndOfInputTwice
	}
	if int64(total) != ingested {
		return fmt.Errorf("%w: announced %d, ingested %d", ErrTotalMismatch, total, ingested)
	}
	c.expected.Store(int64(total))
	c.Check()
	return nil
}

// Ended reports whether the end of input has been announced.
func (c *Coordinator) Ended() bool {
	return c.hasTotal.Load()
}

// Expected returns the total frame count, or -1 while it is unknown.
func (c *Coordinator) Expected() int64 {
	return c.expected.Load()
}

// Check starts the shutdown if every expected result has been retired.
func (c *Coordinator) Check() {
	expected := c.expected.Load()
	if expected < 0 {
		return
	}
	if c.retired() == expected {
		c.drain()
	}
}

// Fail records a fatal error and starts the shutdown without waiting for
// the expected total. The error is kept only if this call moves the state
// out of RUNNING, so the first failure wins and a failure that arrives after
// completion has begun is ignored.
func (c *Coordinator) Fail(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		return
	}
	c.err = err
	c.stop()
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Done is closed once the state is StateStopped.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the fatal error, if any. It is stable once Done is closed.
func (c *Coordinator) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Wait blocks until the pipeline has stopped or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain moves RUNNING -> DRAINING once.
func (c *Coordinator) drain() {
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		return
	}
	c.stop()
}

// stop runs the shutdown on its own goroutine because the caller is usually
// a stage worker that the shutdown has to wait for.
func (c *Coordinator) stop() {
	go func() {
		c.shutdown()
		c.state.Store(int32(StateStopped))
		close(c.done)
	}()
}
