package runner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogRingBoundAndOrder(t *testing.T) {
	r := newLogRing(100)
	for i := 0; i < 150; i++ {
		r.Append(fmt.Sprintf("line-%d", i))
	}

	snap := r.Snapshot()
	require.Len(t, snap, 100)
	require.Equal(t, "line-50", snap[0])
	require.Equal(t, "line-149", snap[99])
}

func TestLogRingSnapshotIsCopy(t *testing.T) {
	r := newLogRing(10)
	r.Append("a")
	snap := r.Snapshot()
	r.Append("b")
	require.Equal(t, []string{"a"}, snap)
}
