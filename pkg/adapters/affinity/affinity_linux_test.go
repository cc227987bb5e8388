//go:build linux

package affinity

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPin_CurrentThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var saved unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &saved))
	defer func() { _ = unix.SchedSetaffinity(0, &saved) }()

	core := -1
	for i := 0; i < 1024; i++ {
		if saved.IsSet(i) {
			core = i
			break
		}
	}
	require.GreaterOrEqual(t, core, 0)

	require.NoError(t, Pin(core))

	var got unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &got))
	assert.Equal(t, 1, got.Count())
	assert.True(t, got.IsSet(core))
}

func TestAllowedCores_MatchesMask(t *testing.T) {
	var set unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &set))

	cores := AllowedCores()
	assert.Len(t, cores, set.Count())
	for _, core := range cores {
		assert.True(t, set.IsSet(core), "core %d not in mask", core)
	}
}

func TestRoundRobin_PinsEveryPlacement(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var saved unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &saved))
	defer func() { _ = unix.SchedSetaffinity(0, &saved) }()

	a := RoundRobin()
	for worker := 0; worker < 2*saved.Count(); worker++ {
		require.NoError(t, a.Pin(a.Place(worker)), "worker %d", worker)
		require.NoError(t, unix.SchedSetaffinity(0, &saved))
	}
}
