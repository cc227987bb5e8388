package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a pipeline configuration is rejected.
	ErrInvalidConfig = errors.New("pipeline: invalid config")

	// ErrQueueClosed is returned when pushing to a closed queue.
	ErrQueueClosed = errors.New("pipeline: queue closed")

	// ErrBackpressureTimeout is returned when the bounded ingress queue stays
	// full longer than the configured ingress timeout.
	ErrBackpressureTimeout = errors.New("pipeline: backpressure timeout")

	// ErrEndOfInputTwice is returned when EndOfInput is called more than once.
	ErrEndOfInputTwice = errors.New("pipeline: end of input signaled twice")

	// ErrTotalMismatch is returned when the announced total differs from the
	// number of frames ingested.
	ErrTotalMismatch = errors.New("pipeline: total does not match ingested frames")

	// ErrSequenceGap is returned when a frame arrives out of sequence at ingestion.
	ErrSequenceGap = errors.New("pipeline: frame sequence out of order")

	// ErrDuplicateSequence is returned when a sequence number reaches the
	// sequencer twice.
	ErrDuplicateSequence = errors.New("pipeline: duplicate sequence number")

	// ErrStopped is returned when submitting to a pipeline that is shutting down.
	ErrStopped = errors.New("pipeline: stopped")

	// ErrNotStarted is returned when ingesting before Start.
	ErrNotStarted = errors.New("pipeline: not started")

	// ErrFrameShape is returned for frames whose dimensions are malformed.
	ErrFrameShape = errors.New("pipeline: malformed frame")
)

// StageError is the fatal error produced when a stage function fails.
type StageError struct {
	Stage string
	Seq   int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: frame %d: %v", e.Stage, e.Seq, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
