// Package affinity pins pipeline workers to CPU cores.
package affinity

import (
	"runtime"

	"github.com/user/motionpipe/pkg/pipeline"
)

// RoundRobin places worker i on the i-th core the process may run on,
// wrapping around the allowed set.
func RoundRobin() *pipeline.Affinity {
	return roundRobin(AllowedCores())
}

func roundRobin(cores []int) *pipeline.Affinity {
	if len(cores) == 0 {
		cores = []int{0}
	}
	return &pipeline.Affinity{
		Place: func(worker int) int { return cores[worker%len(cores)] },
		Pin:   Pin,
	}
}

// AllowedCores returns the ids of the cores the calling thread may run on,
// in ascending order.
func AllowedCores() []int {
	if cores := allowedCores(); len(cores) > 0 {
		return cores
	}
	return sequentialCores(runtime.NumCPU())
}

func sequentialCores(n int) []int {
	cores := make([]int, n)
	for i := range cores {
		cores[i] = i
	}
	return cores
}

// Supported reports whether Pin can bind threads on this platform.
func Supported() bool {
	return supported
}
