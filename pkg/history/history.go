// Package history persists per-model launch statistics across restarts,
// grounded on original_source/zk.py's ModelHistory. It affects dashboard
// ordering only and is never consulted by the routing path.
package history

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/modelzoo/modelzoo/pkg/model"
)

// LaunchInfo is one model's launch statistics.
type LaunchInfo struct {
	ZooName         string                 `json:"zoo_name"`
	ModelName       string                 `json:"model_name"`
	LaunchCount     int                    `json:"launch_count"`
	LastLaunch      *time.Time             `json:"last_launch"`
	LastRuntime     string                 `json:"last_runtime"`
	LastEnvironment []string               `json:"last_environment"`
	LastParams      map[string]interface{} `json:"last_params"`
}

// rawLaunchInfo mirrors LaunchInfo but leaves LastEnvironment untyped, so
// legacy records where it was persisted as a bare string (rather than a
// one-element list) can be coerced on load instead of failing to parse.
type rawLaunchInfo struct {
	ZooName         string                 `json:"zoo_name"`
	ModelName       string                 `json:"model_name"`
	LaunchCount     int                    `json:"launch_count"`
	LastLaunch      *time.Time             `json:"last_launch"`
	LastRuntime     string                 `json:"last_runtime"`
	LastEnvironment json.RawMessage        `json:"last_environment"`
	LastParams      map[string]interface{} `json:"last_params"`
}

func (r rawLaunchInfo) normalize() LaunchInfo {
	info := LaunchInfo{
		ZooName:     r.ZooName,
		ModelName:   r.ModelName,
		LaunchCount: r.LaunchCount,
		LastLaunch:  r.LastLaunch,
		LastRuntime: r.LastRuntime,
		LastParams:  r.LastParams,
	}
	if len(r.LastEnvironment) == 0 {
		return info
	}
	var list []string
	if err := json.Unmarshal(r.LastEnvironment, &list); err == nil {
		info.LastEnvironment = list
		return info
	}
	var single string
	if err := json.Unmarshal(r.LastEnvironment, &single); err == nil && single != "" {
		info.LastEnvironment = []string{single}
	}
	return info
}

// History is a JSON-file-backed, mutex-guarded launch ledger keyed by
// "<zoo>:<model_name>".
type History struct {
	mu   sync.Mutex
	path string
	info map[string]LaunchInfo
}

// Load reads path, tolerating a missing file (treated as an empty
// history, matching the source's FileNotFoundError swallow).
func Load(path string) (*History, error) {
	h := &History{path: path, info: map[string]LaunchInfo{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, errors.Wrap(err, "history: reading file")
	}

	var raw map[string]rawLaunchInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "history: parsing file")
	}
	for key, r := range raw {
		h.info[key] = r.normalize()
	}
	return h, nil
}

func key(zooName, modelName string) string {
	return zooName + ":" + modelName
}

// Get returns the launch info for (zooName, modelName), or a zero-valued
// record (LaunchCount 0) if never launched.
func (h *History) Get(zooName, modelName string) LaunchInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	if info, ok := h.info[key(zooName, modelName)]; ok {
		return info
	}
	return LaunchInfo{ZooName: zooName, ModelName: modelName}
}

// Update records a launch, incrementing launch_count and persisting
// immediately (matching the source's save-on-every-update behavior).
func (h *History) Update(zooName, modelName, runtime string, environment []string, params map[string]interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key(zooName, modelName)
	info, ok := h.info[k]
	if !ok {
		info = LaunchInfo{ZooName: zooName, ModelName: modelName}
	}
	now := time.Now()
	info.LaunchCount++
	info.LastLaunch = &now
	info.LastRuntime = runtime
	info.LastEnvironment = environment
	info.LastParams = params
	h.info[k] = info

	return h.saveLocked()
}

func (h *History) saveLocked() error {
	data, err := json.MarshalIndent(h.info, "", "  ")
	if err != nil {
		return errors.Wrap(err, "history: encoding")
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return errors.Wrap(err, "history: writing file")
	}
	return nil
}

// SortModels orders models by (launch_count, last_launch) descending, so
// the most frequently and most recently launched models sort first,
// matching the source's get_sorted_models.
func (h *History) SortModels(models []model.Model) []model.Model {
	type paired struct {
		model model.Model
		info  LaunchInfo
	}

	h.mu.Lock()
	pairs := make([]paired, len(models))
	for i, m := range models {
		info, ok := h.info[key(m.ZooName, m.ModelName)]
		if !ok {
			info = LaunchInfo{ZooName: m.ZooName, ModelName: m.ModelName}
		}
		pairs[i] = paired{model: m, info: info}
	}
	h.mu.Unlock()

	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i].info, pairs[j].info
		if a.LaunchCount != b.LaunchCount {
			return a.LaunchCount > b.LaunchCount
		}
		return launchTime(a).After(launchTime(b))
	})

	sorted := make([]model.Model, len(pairs))
	for i, p := range pairs {
		sorted[i] = p.model
	}
	return sorted
}

func launchTime(info LaunchInfo) time.Time {
	if info.LastLaunch == nil {
		return time.Time{}
	}
	return *info.LastLaunch
}
