//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const supported = true

// Pin binds the calling OS thread to core. The caller must hold the thread
// with runtime.LockOSThread.
func Pin(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity core %d: %w", core, err)
	}
	return nil
}

// allowedCores reads the affinity mask of the calling thread. A restricted
// cpuset (containers, taskset) yields ids that need not start at 0.
func allowedCores() []int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil
	}
	var cores []int
	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cores = append(cores, i)
		}
	}
	return cores
}
