package affinity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobin_Place(t *testing.T) {
	a := RoundRobin()
	cores := AllowedCores()
	require.NotEmpty(t, cores)

	assert.Equal(t, cores[0], a.Place(0))
	assert.Equal(t, cores[1%len(cores)], a.Place(1))
	assert.Equal(t, cores[0], a.Place(len(cores)))
	assert.NotNil(t, a.Pin)
}

func TestRoundRobin_RestrictedSet(t *testing.T) {
	a := roundRobin([]int{2, 5, 7})

	got := make([]int, 7)
	for i := range got {
		got[i] = a.Place(i)
	}
	assert.Equal(t, []int{2, 5, 7, 2, 5, 7, 2}, got)
}

func TestRoundRobin_EmptySet(t *testing.T) {
	assert.Equal(t, 0, roundRobin(nil).Place(3))
}

func TestAllowedCores_Ascending(t *testing.T) {
	cores := AllowedCores()
	require.NotEmpty(t, cores)
	for i := 1; i < len(cores); i++ {
		assert.Less(t, cores[i-1], cores[i])
	}
}
