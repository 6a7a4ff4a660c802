package registry

import (
	"context"
	"net/http"

	"github.com/modelzoo/modelzoo/pkg/federation"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/zoo"
)

// Registry is the single join point over local and peer-advertised
// models. It recomputes the full merge on every call; nothing is cached.
type Registry struct {
	Local      *LocalTable
	Peers      []federation.Peer
	HTTPClient *http.Client
}

// New constructs a Registry over local and the given peer list.
func New(local *LocalTable, peers []federation.Peer, client *http.Client) *Registry {
	return &Registry{Local: local, Peers: peers, HTTPClient: client}
}

// GetAvailableModels is the single join point: local contributions (host
// rewritten to 127.0.0.1) plus peer contributions (via federation.Fetch),
// selected by the local/remote flags. Duplicates are preserved — the
// proxy resolves them later by least-connections, not here.
func (r *Registry) GetAvailableModels(ctx context.Context, local, remote bool) []model.AvailableModel {
	var out []model.AvailableModel

	if local {
		out = append(out, r.Local.AvailableModels(ctx)...)
	}
	if remote && len(r.Peers) > 0 {
		for _, snap := range federation.Fetch(ctx, r.HTTPClient, r.Peers) {
			out = append(out, snap.Models...)
		}
	}
	return out
}

// GetCatalog enumerates z's advertisable models, independent of whether
// any of them are currently running. Used by the dashboard only.
func (r *Registry) GetCatalog(z zoo.Zoo) ([]model.Model, error) {
	return z.Catalog()
}
