package proxy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnCounterPicksLeastLoaded(t *testing.T) {
	c := newConnCounter()
	candidates := []string{"a", "b"}

	require.Equal(t, "a", c.Pick(candidates))
	require.Equal(t, "b", c.Pick(candidates))
	// both now at 1; ties resolve to the first candidate
	require.Equal(t, "a", c.Pick(candidates))

	snap := c.Snapshot()
	require.Equal(t, 2, snap["a"])
	require.Equal(t, 1, snap["b"])
}

func TestConnCounterReleaseFloorsAtZero(t *testing.T) {
	c := newConnCounter()
	c.Release("never-picked")
	require.Equal(t, 0, c.Snapshot()["never-picked"])

	c.Pick([]string{"x"})
	c.Release("x")
	c.Release("x")
	require.Equal(t, 0, c.Snapshot()["x"])
}

// TestConnCounterConservation exercises testable property 4: after N
// completed picks, matched one-for-one with releases, every counter
// returns to zero regardless of interleaving.
func TestConnCounterConservation(t *testing.T) {
	c := newConnCounter()
	targets := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := c.Pick(targets)
			c.Release(target)
		}()
	}
	wg.Wait()

	for _, target := range targets {
		require.Equal(t, 0, c.Snapshot()[target])
	}
}
