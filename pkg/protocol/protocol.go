// Package protocol declares the static table of wire protocols ModelZoo's
// backends can speak, and the adapters that translate payloads between a
// public endpoint's protocol and the selected backend's protocol.
//
// The table is consulted by two layers: the process supervisor (readiness
// probing) and the proxy router (endpoint selection and payload
// adaptation). There is no dynamic class dispatch here — every entry is a
// literal map built by NewDefaultRegistry, matching the "static registry"
// design note: an unknown protocol key is reported as not found, never
// resolved by a runtime eval.
package protocol

import "context"

// Endpoint identifies one of the public operation classes the proxy
// router can dispatch to.
type Endpoint string

const (
	Completions      Endpoint = "completions"
	ChatCompletions  Endpoint = "chat_completions"
	Txt2Img          Endpoint = "txt2img"
	Img2Img          Endpoint = "img2img"
)

// Adapter rewrites a request or response payload when forwarding between
// the public protocol and a backend's native protocol. Implementations
// must be pure with respect to the supplied payload: they receive a
// caller-owned copy and return a new map rather than mutating in place,
// so a defensive copy at the call site is all that is required of
// callers.
type Adapter interface {
	// RewriteRequest adapts an inbound public payload into the shape the
	// backend at targetURL expects.
	RewriteRequest(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error)
	// RewriteResponse adapts a backend's response payload into the
	// public-facing shape the caller expects. Some adapters (sd-server)
	// perform further HTTP calls here, hence the context.
	RewriteResponse(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error)
}

// NullAdapter passes payloads through unchanged. It is the default when a
// protocol declares no adapter for an endpoint.
type NullAdapter struct{}

func (NullAdapter) RewriteRequest(_ context.Context, payload map[string]interface{}, _ string) (map[string]interface{}, error) {
	return payload, nil
}

func (NullAdapter) RewriteResponse(_ context.Context, payload map[string]interface{}, _ string) (map[string]interface{}, error) {
	return payload, nil
}

// EndpointPaths maps each public operation class to the backend's
// relative path for that operation. A zero-value (empty string) means
// the backend protocol does not support the operation.
type EndpointPaths map[Endpoint]string

// Path returns the relative path for e, and whether the protocol supports
// it at all.
func (p EndpointPaths) Path(e Endpoint) (string, bool) {
	path, ok := p[e]
	if !ok || path == "" {
		return "", false
	}
	return path, true
}

// Def declares one entry of the protocol registry.
type Def struct {
	// Key is the registry key this protocol is filed under (e.g. "openai").
	Key string
	// HealthCheck is the relative path GET'd to probe readiness. Empty
	// means the protocol has no health endpoint (readiness is always
	// false).
	HealthCheck string
	// HealthStatus is the HTTP status code that signals healthy.
	HealthStatus int
	// Paths maps each endpoint class to its relative path, or omits it
	// if unsupported.
	Paths EndpointPaths
	// Adapters maps an endpoint class to the Adapter used when
	// forwarding requests/responses for it. Endpoints absent from this
	// map use NullAdapter.
	Adapters map[Endpoint]Adapter
	// ImageSamplerMap rewrites an inbound sampler_name label to the
	// backend-specific string, applied before any request adapter runs.
	// Unmapped labels pass through unchanged.
	ImageSamplerMap map[string]string
}

// AdapterFor returns the Adapter for e, defaulting to NullAdapter.
func (d Def) AdapterFor(e Endpoint) Adapter {
	if d.Adapters == nil {
		return NullAdapter{}
	}
	if a, ok := d.Adapters[e]; ok {
		return a
	}
	return NullAdapter{}
}

// MapSampler rewrites label through d.ImageSamplerMap, returning label
// unchanged if it has no mapping.
func (d Def) MapSampler(label string) string {
	if mapped, ok := d.ImageSamplerMap[label]; ok {
		return mapped
	}
	return label
}

// Registry is a static protocol_key -> Def table.
type Registry map[string]Def

// Get looks up a protocol by key.
func (r Registry) Get(key string) (Def, bool) {
	d, ok := r[key]
	return d, ok
}

// SupportsEndpoint reports whether the protocol named key declares a
// non-null path for e.
func (r Registry) SupportsEndpoint(key string, e Endpoint) bool {
	d, ok := r[key]
	if !ok {
		return false
	}
	_, has := d.Paths.Path(e)
	return has
}
