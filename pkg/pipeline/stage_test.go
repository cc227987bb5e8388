package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_ProcessesEveryTask(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]string)

	s := NewStage("count", func(ctx context.Context, task Task) error {
		mu.Lock()
		seen[task.Seq()] = task.Stage
		mu.Unlock()
		return nil
	}, StageOptions{Workers: 4})
	s.Start(context.Background())
	s.Start(context.Background())

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Submit(context.Background(), &Frame{Seq: i}))
	}
	s.DrainAndStop()
	s.DrainAndStop()

	assert.Len(t, seen, 50)
	assert.Equal(t, "count", seen[0])
	assert.Equal(t, int64(50), s.Processed())
	assert.Equal(t, 4, s.Workers())
	assert.ErrorIs(t, s.Submit(context.Background(), &Frame{Seq: 50}), ErrStopped)
}

func TestStage_TracksBusyTime(t *testing.T) {
	s := NewStage("slow", func(ctx context.Context, task Task) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	}, StageOptions{Workers: 2})
	s.Start(context.Background())

	for i := 0; i < 6; i++ {
		require.NoError(t, s.Submit(context.Background(), &Frame{Seq: i}))
	}
	s.DrainAndStop()

	assert.GreaterOrEqual(t, s.Busy(), 12*time.Millisecond)
}

func TestStage_ReportsStageError(t *testing.T) {
	boom := errors.New("boom")
	errc := make(chan error, 1)

	s := NewStage("fail", func(ctx context.Context, task Task) error {
		if task.Seq() == 2 {
			return boom
		}
		return nil
	}, StageOptions{Workers: 1, OnError: func(err error) { errc <- err }})
	s.Start(context.Background())

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Submit(context.Background(), &Frame{Seq: i}))
	}
	s.DrainAndStop()

	err := <-errc
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fail", se.Stage)
	assert.Equal(t, 2, se.Seq)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "stage fail: frame 2: boom", err.Error())
}

func TestStage_RecoversPanic(t *testing.T) {
	errc := make(chan error, 1)
	s := NewStage("panic", func(ctx context.Context, task Task) error {
		panic("bad frame")
	}, StageOptions{OnError: func(err error) { errc <- err }})
	s.Start(context.Background())

	require.NoError(t, s.Submit(context.Background(), &Frame{Seq: 0}))
	s.DrainAndStop()

	err := <-errc
	assert.Contains(t, err.Error(), "panic: bad frame")
}

func TestStage_AbortDiscardsQueued(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	var ran atomic.Int32

	s := NewStage("slow", func(ctx context.Context, task Task) error {
		ran.Add(1)
		started <- struct{}{}
		<-gate
		return nil
	}, StageOptions{Workers: 1})
	s.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Submit(context.Background(), &Frame{Seq: i}))
	}
	<-started

	done := make(chan int)
	go func() { done <- s.Abort() }()

	time.Sleep(10 * time.Millisecond)
	close(gate)

	select {
	case dropped := <-done:
		assert.Equal(t, 4, dropped)
	case <-time.After(2 * time.Second):
		t.Fatal("abort did not return")
	}
	assert.Equal(t, int32(1), ran.Load())
}

func TestStage_Affinity(t *testing.T) {
	var mu sync.Mutex
	pinned := make(map[int]bool)

	aff := &Affinity{
		Place: func(worker int) int { return worker + 10 },
		Pin: func(core int) error {
			mu.Lock()
			pinned[core] = true
			mu.Unlock()
			if core == 11 {
				return errors.New("no such core")
			}
			return nil
		},
	}

	s := NewStage("pinned", func(ctx context.Context, task Task) error { return nil },
		StageOptions{Workers: 2, Affinity: aff})
	s.Start(context.Background())
	s.DrainAndStop()

	assert.Equal(t, map[int]bool{10: true, 11: true}, pinned)
}
