// Package registry implements the single join point between locally
// running models, peer-advertised models, and zoo catalogs: the model
// registry described in the core's 4.D component.
package registry

import (
	"context"
	"sync"

	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// LocalEntry is one locally-launched model, keyed by ModelName in
// LocalTable. It pairs the advertisable Model with the RunningModel that
// owns its process group, so status/listener can be read live.
type LocalEntry struct {
	Model       model.Model
	Running     *runner.RunningModel
	Environment model.EnvironmentSet
}

// LocalTable is the live list of locally running models. It is mutated
// by the dashboard's launch/stop handlers and read by every proxy
// request and registry call; a single RWMutex guards it, satisfying the
// "readers see a consistent snapshot" requirement without a
// copy-on-write list.
type LocalTable struct {
	mu      sync.RWMutex
	entries map[string]LocalEntry
}

// NewLocalTable constructs an empty table.
func NewLocalTable() *LocalTable {
	return &LocalTable{entries: map[string]LocalEntry{}}
}

// Put registers or replaces the entry for name.
func (t *LocalTable) Put(name string, e LocalEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = e
}

// Remove deletes name's entry, returning it if present.
func (t *LocalTable) Remove(name string) (LocalEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if ok {
		delete(t.entries, name)
	}
	return e, ok
}

// Get returns name's entry, if present.
func (t *LocalTable) Get(name string) (LocalEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[name]
	return e, ok
}

// Snapshot returns a point-in-time copy of every entry, safe for the
// caller to range over without holding the lock.
func (t *LocalTable) Snapshot() []LocalEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]LocalEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// AvailableModels projects the local table into model.AvailableModel
// view, rewriting the listener host to 127.0.0.1 (the core always probes
// and forwards to its own backends over loopback) and tagging every
// entry model.SourceLocal.
func (t *LocalTable) AvailableModels(ctx context.Context) []model.AvailableModel {
	entries := t.Snapshot()
	out := make([]model.AvailableModel, 0, len(entries))
	for _, e := range entries {
		listener := e.Running.Listener()
		listener.Host = "127.0.0.1"
		out = append(out, model.AvailableModel{
			ModelName:   e.Model.ModelName,
			ModelID:     e.Model.ModelID,
			Status:      e.Running.Status(ctx),
			Listener:    listener,
			Source:      model.SourceLocal,
			Environment: &model.EnvironmentRef{Name: e.Environment.CombinedName()},
		})
	}
	return out
}
