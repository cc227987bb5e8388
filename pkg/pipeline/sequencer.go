package pipeline

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"
)

// Sequencer is the reassembly buffer in front of the result aggregate.
//
// Results arrive in completion order from any number of workers. Each one is
// parked in a min-heap keyed by sequence number; whenever the smallest parked
// number is the next one expected, it is popped and retired. Retired numbers
// therefore always form the prefix 0..k, and the movement count is updated
// strictly in sequence order. Deliver runs inline on the delivering worker;
// the whole push-and-drain is one critical section.
type Sequencer struct {
	mu       sync.Mutex
	pending  resultHeap
	parked   map[int]struct{}
	next     int
	movement int
	halted   bool

	threshold float64
	compare   Comparison
	observe   func(Retirement)

	retired atomic.Int64
}

// NewSequencer creates a sequencer that counts an outcome as movement when
// it exceeds threshold under compare. observe, when not nil, is called for
// every retirement in sequence order while the sequencer lock is held.
func NewSequencer(threshold float64, compare Comparison, observe func(Retirement)) *Sequencer {
	return &Sequencer{
		parked:    make(map[int]struct{}),
		threshold: threshold,
		compare:   compare,
		observe:   observe,
	}
}

// Deliver hands a result to the sequencer and retires every result that has
// become contiguous. It returns how many results this call retired.
func (s *Sequencer) Deliver(r StageResult) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return 0, nil
	}
	if r.Seq < 0 {
		return 0, fmt.Errorf("%w: negative sequence %d", ErrSequenceGap, r.Seq)
	}
	if _, dup := s.parked[r.Seq]; dup || r.Seq < s.next {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateSequence, r.Seq)
	}

	heap.Push(&s.pending, r)
	s.parked[r.Seq] = struct{}{}

	n := 0
	for s.pending.Len() > 0 && s.pending[0].Seq == s.next {
		head := heap.Pop(&s.pending).(StageResult)
		delete(s.parked, head.Seq)

		moved := s.compare.Exceeds(head.Outcome, s.threshold)
		if moved {
			s.movement++
		}
		s.next++
		n++
		retired := s.retired.Add(1)

		if s.observe != nil {
			s.observe(Retirement{
				Seq:      head.Seq,
				Outcome:  head.Outcome,
				Movement: moved,
				Retired:  int(retired),
				Moving:   s.movement,
			})
		}
	}
	return n, nil
}

// Halt stops all further retirement. Results delivered afterwards are
// dropped. It is used once the pipeline has failed.
func (s *Sequencer) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
}

// Retired returns the number of retired results. It is safe to call
// without holding the sequencer lock.
func (s *Sequencer) Retired() int64 {
	return s.retired.Load()
}

// Movement returns the number of retired results classified as movement.
func (s *Sequencer) Movement() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movement
}

// Parked returns the number of results waiting for an earlier one.
func (s *Sequencer) Parked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

// resultHeap is a min-heap of results ordered by sequence number.
type resultHeap []StageResult

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return h[i].Seq < h[j].Seq }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(StageResult))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
