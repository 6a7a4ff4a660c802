// Package federation fans a running-models query out to a configured set
// of peer ModelZoo nodes, isolating one peer's failure from the rest.
package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modelzoo/modelzoo/pkg/internal/logsafe"
	"github.com/modelzoo/modelzoo/pkg/model"
)

// Peer identifies one federated node.
type Peer struct {
	Host string
	Port int
}

// PerPeerTimeout bounds each individual peer fetch; one slow or dead peer
// never delays the others beyond this budget.
const PerPeerTimeout = 5 * time.Second

// wireResponse mirrors the JSON shape peers and this node both produce
// and consume: {running_models: [...]}.
type wireResponse struct {
	RunningModels []wireModel `json:"running_models"`
}

type wireModel struct {
	ModelName   string                 `json:"model_name"`
	ModelID     string                 `json:"model_id"`
	Status      model.Status           `json:"status"`
	Listener    model.Listener         `json:"listener"`
	Source      model.Source           `json:"source"`
	Environment *model.EnvironmentRef  `json:"environment,omitempty"`
}

// Fetch queries every peer concurrently, each bounded by PerPeerTimeout,
// and returns one model.PeerSnapshot per peer. A peer's timeout,
// non-2xx, or parse failure is recorded as Err on its own snapshot and
// never prevents the others from reporting.
func Fetch(ctx context.Context, client *http.Client, peers []Peer) []model.PeerSnapshot {
	if client == nil {
		client = http.DefaultClient
	}
	snapshots := make([]model.PeerSnapshot, len(peers))

	g, gctx := errgroup.WithContext(ctx)
	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			snapshots[i] = fetchOne(gctx, client, peer)
			return nil
		})
	}
	// Errors are captured per-snapshot, never propagated: g.Wait() cannot
	// actually fail since fetchOne never returns a non-nil error itself.
	_ = g.Wait()

	return snapshots
}

func fetchOne(ctx context.Context, client *http.Client, peer Peer) model.PeerSnapshot {
	snap := model.PeerSnapshot{Host: peer.Host, Port: peer.Port}

	reqCtx, cancel := context.WithTimeout(ctx, PerPeerTimeout)
	defer cancel()

	url := fmt.Sprintf("http://%s:%d/api/running_models", peer.Host, peer.Port)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		snap.Err = err
		return snap
	}

	resp, err := client.Do(req)
	if err != nil {
		snap.Err = err
		return snap
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snap.Err = fmt.Errorf("peer %s:%d returned status %d", logsafe.Sanitize(peer.Host), peer.Port, resp.StatusCode)
		return snap
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		snap.Err = fmt.Errorf("peer %s:%d: decoding response: %w", logsafe.Sanitize(peer.Host), peer.Port, err)
		return snap
	}

	models := make([]model.AvailableModel, 0, len(wire.RunningModels))
	for _, w := range wire.RunningModels {
		listener := w.Listener
		listener.Host = peer.Host
		models = append(models, model.AvailableModel{
			ModelName:   w.ModelName,
			ModelID:     w.ModelID,
			Status:      w.Status,
			Listener:    listener,
			Source:      model.RemoteSource(peer.Host),
			Environment: w.Environment,
		})
	}
	snap.Models = models
	return snap
}
