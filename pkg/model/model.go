// Package model defines the data types shared across ModelZoo: the
// advertisable Model, its Listener, the Environment/EnvironmentSet used to
// launch it, and the registry-facing AvailableModel view.
package model

import (
	"strings"
)

// ModelFormat identifies the on-disk or wire format of a Model.
type ModelFormat string

const (
	FormatGGUF    ModelFormat = "gguf"
	FormatGPTQ    ModelFormat = "gptq"
	FormatEXL2    ModelFormat = "exl2"
	FormatAWQ     ModelFormat = "awq"
	FormatFP16    ModelFormat = "fp16"
	FormatKCPPT   ModelFormat = "kcppt"
	FormatLiteLLM ModelFormat = "litellm"
	FormatUnknown ModelFormat = "unknown"
)

// Model is an advertisable inference target produced by a Zoo's Catalog.
// It is immutable except for ModelName, which may be overridden with a
// custom alias immediately before launch.
type Model struct {
	ZooName          string      `json:"zoo_name"`
	ModelID          string      `json:"model_id"`
	ModelFormat      ModelFormat `json:"model_format"`
	ModelName        string      `json:"model_name"`
	ModelSize        int64       `json:"model_size,omitempty"`
	ModelArchitecture string     `json:"model_architecture,omitempty"`
	APIURL           string      `json:"api_url,omitempty"`
	APIKey           string      `json:"api_key,omitempty"`
}

// WithName returns a copy of m with ModelName overridden. Model is
// otherwise treated as immutable once produced by a Zoo.
func (m Model) WithName(name string) Model {
	m.ModelName = name
	return m
}

// Listener is the (protocol, host, port) triple a runtime driver assigns
// to a backend at spawn time.
type Listener struct {
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// Environment is a named bag of environment-variable key/value pairs.
type Environment struct {
	Name string
	Vars map[string]string
}

// EnvironmentSet is an ordered list of Environments composed at launch
// time. See Combine for the merge semantics.
type EnvironmentSet struct {
	Members []Environment
}

// NewEnvironmentSet builds an EnvironmentSet from the given environments,
// preserving order.
func NewEnvironmentSet(envs ...Environment) EnvironmentSet {
	return EnvironmentSet{Members: envs}
}

// CombinedName returns the "+"-join of member names, or "empty" if the
// set has no members.
func (s EnvironmentSet) CombinedName() string {
	if len(s.Members) == 0 {
		return "empty"
	}
	names := make([]string, len(s.Members))
	for i, e := range s.Members {
		names[i] = e.Name
	}
	return strings.Join(names, "+")
}

// ForcedCUDADeviceOrder is appended to every combined environment,
// regardless of what the members declare.
const ForcedCUDADeviceOrder = "PCI_BUS_ID"

// CombinedVars merges all member Environments left-to-right. On key
// collision, values are concatenated with a comma (required for stacking
// CUDA_VISIBLE_DEVICES-style lists). CUDA_DEVICE_ORDER is always forced
// to ForcedCUDADeviceOrder regardless of member contents.
func (s EnvironmentSet) CombinedVars() map[string]string {
	out := make(map[string]string)
	for _, env := range s.Members {
		for k, v := range env.Vars {
			if existing, ok := out[k]; ok {
				out[k] = existing + "," + v
			} else {
				out[k] = v
			}
		}
	}
	out["CUDA_DEVICE_ORDER"] = ForcedCUDADeviceOrder
	return out
}

// ParamType enumerates the kinds of value a RuntimeParameter may hold.
type ParamType string

const (
	ParamInt   ParamType = "int"
	ParamFloat ParamType = "float"
	ParamStr   ParamType = "str"
	ParamBool  ParamType = "bool"
	ParamEnum  ParamType = "enum"
)

// RuntimeParameter is a typed descriptor for one configurable knob of a
// runtime driver. Enum values are resolved at launch by label lookup
// against Enum.
type RuntimeParameter struct {
	Name        string
	Description string
	Type        ParamType
	Default     interface{}
	Enum        map[string]interface{} // label -> underlying value
}

// ResolveEnum looks up label in p.Enum, returning the underlying value.
// ok is false if p is not an enum parameter or label is unknown.
func (p RuntimeParameter) ResolveEnum(label string) (value interface{}, ok bool) {
	if p.Type != ParamEnum || p.Enum == nil {
		return nil, false
	}
	v, ok := p.Enum[label]
	return v, ok
}

// Status is the supervisor's liveness/readiness pair for a RunningModel.
type Status struct {
	Running bool `json:"running"`
	Ready   bool `json:"ready"`
}

// Source distinguishes a locally-owned AvailableModel from one advertised
// by a peer.
type Source string

const SourceLocal Source = "local"

// RemoteSource builds the "remote:<host>" source tag for a peer-advertised
// model.
func RemoteSource(host string) Source {
	return Source("remote:" + host)
}

// IsRemote reports whether s names a peer rather than the local node.
func (s Source) IsRemote() bool {
	return s != SourceLocal
}

// AvailableModel is the unified registry entry produced by joining the
// local running-model list with peer snapshots.
type AvailableModel struct {
	ModelName   string          `json:"model_name"`
	ModelID     string          `json:"model_id"`
	Status      Status          `json:"status"`
	Listener    Listener        `json:"listener"`
	Source      Source          `json:"source"`
	Environment *EnvironmentRef `json:"environment,omitempty"`
}

// EnvironmentRef is the minimal environment identity surfaced in
// AvailableModel and the federation wire shape: just the combined name,
// not the (possibly secret-bearing) variable values.
type EnvironmentRef struct {
	Name string `json:"name"`
}

// PeerSnapshot is the result of one federation call to a single peer. Its
// lifetime is the duration of one get_available_models call; the core
// never caches it.
type PeerSnapshot struct {
	Host   string
	Port   int
	Models []AvailableModel
	Err    error
}

// DedupeLocalWins deduplicates a slice of AvailableModel by ModelName,
// keeping the local entry whenever a local and a remote entry collide,
// and otherwise keeping the first-seen entry. Input order is preserved
// for the retained entries.
func DedupeLocalWins(models []AvailableModel) []AvailableModel {
	best := make(map[string]AvailableModel, len(models))
	order := make([]string, 0, len(models))
	for _, m := range models {
		existing, seen := best[m.ModelName]
		if !seen {
			best[m.ModelName] = m
			order = append(order, m.ModelName)
			continue
		}
		if existing.Source.IsRemote() && !m.Source.IsRemote() {
			best[m.ModelName] = m
		}
	}
	out := make([]AvailableModel, 0, len(order))
	for _, name := range order {
		out = append(out, best[name])
	}
	return out
}
