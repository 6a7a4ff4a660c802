package runner

import "sync"

// logRing is a bounded ring buffer holding exactly the most recent
// maxLines lines written to it. It is safe for concurrent use: one
// goroutine enqueues while the logs API takes snapshots.
type logRing struct {
	mu       sync.Mutex
	lines    []string
	maxLines int
}

func newLogRing(maxLines int) *logRing {
	return &logRing{
		lines:    make([]string, 0, maxLines),
		maxLines: maxLines,
	}
}

// Append adds line to the ring, discarding the oldest line if the ring is
// already full.
func (r *logRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lines) >= r.maxLines {
		copy(r.lines, r.lines[1:])
		r.lines = r.lines[:len(r.lines)-1]
	}
	r.lines = append(r.lines, line)
}

// Snapshot returns a copy of the current contents in read order.
func (r *logRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
