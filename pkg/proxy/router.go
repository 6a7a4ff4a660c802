// Package proxy implements the multi-protocol reverse proxy: it
// resolves a public request to a live backend by model name and
// endpoint class, least-connections-balances across matching backends,
// and adapts payloads between the public and backend wire protocols.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/registry"
)

// Router is the proxy's HTTP entry point.
type Router struct {
	Registry   *registry.Registry
	Protocols  protocol.Registry
	HTTPClient *http.Client
	Log        logging.Logger

	conns    *connCounter
	metrics  *routerMetrics
	registry *prometheus.Registry
	mux      *http.ServeMux
}

// NewRouter builds a Router and registers its routes against a fresh
// http.ServeMux, instrumented with otelhttp and a dedicated Prometheus
// registry (so multiple Routers in the same test binary don't collide).
func NewRouter(reg *registry.Registry, protocols protocol.Registry, client *http.Client, log logging.Logger) *Router {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	promReg := prometheus.NewRegistry()
	r := &Router{
		Registry:   reg,
		Protocols:  protocols,
		HTTPClient: client,
		Log:        log,
		conns:      newConnCounter(),
		metrics:    newRouterMetrics(promReg),
		registry:   promReg,
		mux:        http.NewServeMux(),
	}
	r.registerRoutes()
	return r
}

func (r *Router) registerRoutes() {
	r.mux.HandleFunc("GET /v1/models", r.handleListModels)
	r.mux.HandleFunc("POST /v1/completions", r.handlerFor(protocol.Completions, false))
	r.mux.HandleFunc("POST /v1/chat/completions", r.handlerFor(protocol.ChatCompletions, false))
	r.mux.HandleFunc("POST /v1/images/generations", r.handlerFor(protocol.Txt2Img, true))
	r.mux.HandleFunc("GET /sdapi/v1/sd-models", r.handleListImageModels)
	r.mux.HandleFunc("POST /sdapi/v1/txt2img", r.handlerFor(protocol.Txt2Img, true))
	r.mux.HandleFunc("POST /sdapi/v1/img2img", r.handlerFor(protocol.Img2Img, true))
	r.mux.HandleFunc("GET /api/running_models", r.handleRunningModels)
}

// Handler returns the Router's routes as an http.Handler, wrapped in
// otelhttp server instrumentation.
func (r *Router) Handler() http.Handler {
	return otelhttp.NewHandler(r.mux, "modelzoo.proxy")
}

// MetricsHandler exposes the Router's own Prometheus registry.
func (r *Router) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// candidate is one backend eligible to serve a routed request.
type candidate struct {
	TargetURL string
	Def       protocol.Def
	ModelID   string
}

// candidatesFor walks the joined available-models view and returns every
// backend whose model_name matches and whose protocol declares a path
// for endpoint e.
func (r *Router) candidatesFor(ctx context.Context, modelName string, e protocol.Endpoint) []candidate {
	var out []candidate
	for _, am := range r.Registry.GetAvailableModels(ctx, true, true) {
		if am.ModelName != modelName {
			continue
		}
		def, ok := r.Protocols.Get(am.Listener.Protocol)
		if !ok {
			continue
		}
		path, ok := def.Paths.Path(e)
		if !ok {
			continue
		}
		out = append(out, candidate{
			TargetURL: fmt.Sprintf("http://%s:%d%s", am.Listener.Host, am.Listener.Port, path),
			Def:       def,
			ModelID:   am.ModelID,
		})
	}
	return out
}

// handlerFor returns the http.HandlerFunc implementing the 9-step
// routing algorithm for endpoint e. requirePrompt is set for the three
// image endpoints.
func (r *Router) handlerFor(e protocol.Endpoint, requirePrompt bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		err := r.route(req, w, e, requirePrompt)
		r.metrics.forwardSeconds.WithLabelValues(string(e)).Observe(time.Since(start).Seconds())
		if err != nil {
			r.writeError(w, string(e), err)
		}
	}
}

func (r *Router) writeError(w http.ResponseWriter, endpoint string, err error) {
	status := http.StatusInternalServerError
	if he, ok := err.(*httpError); ok {
		status = he.status
	}
	r.metrics.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.metrics.routingErrors.WithLabelValues(endpoint, errKind(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func errKind(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "unprocessable"
	default:
		return "internal"
	}
}

// route implements steps 1-9 of the routing algorithm.
func (r *Router) route(req *http.Request, w http.ResponseWriter, e protocol.Endpoint, requirePrompt bool) error {
	ctx := req.Context()

	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		return badRequest("failed to read request body")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &payload); err != nil {
		return badRequest("invalid JSON body")
	}

	modelName, _ := payload["model"].(string)
	if modelName == "" {
		return badRequest("Model not specified in the request")
	}
	if requirePrompt {
		if prompt, _ := payload["prompt"].(string); prompt == "" {
			return badRequest("prompt is required")
		}
	}

	candidates := r.candidatesFor(ctx, modelName, e)
	if len(candidates) == 0 {
		return notFound(fmt.Sprintf("Model %s not found or not running", modelName))
	}

	targets := make([]string, len(candidates))
	byTarget := make(map[string]candidate, len(candidates))
	for i, c := range candidates {
		targets[i] = c.TargetURL
		byTarget[c.TargetURL] = c
	}

	target := r.conns.Pick(targets)
	defer r.conns.Release(target)
	chosen := byTarget[target]

	adapted := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		adapted[k] = v
	}
	if sampler, ok := adapted["sampler_name"].(string); ok {
		adapted["sampler_name"] = chosen.Def.MapSampler(sampler)
	}
	adapted["model"] = chosen.ModelID

	adapted, err = chosen.Def.AdapterFor(e).RewriteRequest(ctx, adapted, target)
	if err != nil {
		return transportError(fmt.Sprintf("request adaptation failed: %v", err))
	}

	encoded, err := json.Marshal(adapted)
	if err != nil {
		return internalError("failed to encode adapted request")
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return transportError(fmt.Sprintf("building upstream request: %v", err))
	}
	for k, vs := range req.Header {
		if k == "Host" || k == "Content-Length" {
			continue
		}
		for _, v := range vs {
			upstreamReq.Header.Add(k, v)
		}
	}
	upstreamReq.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(upstreamReq)
	if err != nil {
		return transportError(fmt.Sprintf("forwarding to backend: %v", err))
	}
	defer resp.Body.Close()

	streaming, _ := adapted["stream"].(bool)
	if streaming {
		w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
		w.WriteHeader(resp.StatusCode)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		_, _ = io.Copy(flushWriter{w}, resp.Body)
		r.metrics.requestsTotal.WithLabelValues(string(e), strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(fmt.Sprintf("reading backend response: %v", err))
	}

	var decoded map[string]interface{}
	if json.Unmarshal(respBody, &decoded) == nil {
		rewritten, err := chosen.Def.AdapterFor(e).RewriteResponse(ctx, decoded, target)
		if err != nil {
			return transportError(fmt.Sprintf("response adaptation failed: %v", err))
		}
		if reencoded, encErr := json.Marshal(rewritten); encErr == nil {
			respBody = reencoded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)
	r.metrics.requestsTotal.WithLabelValues(string(e), strconv.Itoa(resp.StatusCode)).Inc()
	return nil
}

// flushWriter flushes after every chunk so a streaming response is
// relayed to the client as it arrives rather than buffered.
type flushWriter struct {
	w http.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if flusher, ok := f.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}

// handleListModels implements GET /v1/models: the union of available
// models whose protocol supports completions or chat_completions,
// deduplicated locals-win.
func (r *Router) handleListModels(w http.ResponseWriter, req *http.Request) {
	available := r.textCapableModels(req.Context())
	type entry struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by"`
	}
	out := make([]entry, 0, len(available))
	for _, am := range available {
		ownedBy := "modelzoo"
		if am.Source.IsRemote() {
			ownedBy = string(am.Source)
		}
		out = append(out, entry{ID: am.ModelName, OwnedBy: ownedBy})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

func (r *Router) textCapableModels(ctx context.Context) []model.AvailableModel {
	all := r.Registry.GetAvailableModels(ctx, true, true)
	var filtered []model.AvailableModel
	for _, am := range all {
		def, ok := r.Protocols.Get(am.Listener.Protocol)
		if !ok {
			continue
		}
		_, hasCompletions := def.Paths.Path(protocol.Completions)
		_, hasChat := def.Paths.Path(protocol.ChatCompletions)
		if hasCompletions || hasChat {
			filtered = append(filtered, am)
		}
	}
	return model.DedupeLocalWins(filtered)
}

// handleListImageModels implements GET /sdapi/v1/sd-models: the union of
// available models whose protocol supports txt2img or img2img, shaped in
// A1111's sd-models list form.
func (r *Router) handleListImageModels(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	all := r.Registry.GetAvailableModels(ctx, true, true)
	var filtered []model.AvailableModel
	for _, am := range all {
		def, ok := r.Protocols.Get(am.Listener.Protocol)
		if !ok {
			continue
		}
		_, hasTxt2Img := def.Paths.Path(protocol.Txt2Img)
		_, hasImg2Img := def.Paths.Path(protocol.Img2Img)
		if hasTxt2Img || hasImg2Img {
			filtered = append(filtered, am)
		}
	}
	filtered = model.DedupeLocalWins(filtered)

	type sdModel struct {
		Title     string  `json:"title"`
		ModelName string  `json:"model_name"`
		Hash      string  `json:"hash"`
		SHA256    string  `json:"sha256"`
		Filename  string  `json:"filename"`
		Config    *string `json:"config"`
	}
	out := make([]sdModel, 0, len(filtered))
	for _, am := range filtered {
		out = append(out, sdModel{
			Title:     am.ModelName,
			ModelName: am.ModelName,
			Hash:      "0000000000",
			SHA256:    strings.Repeat("0", 64),
			Filename:  am.ModelID,
			Config:    nil,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRunningModels implements GET /api/running_models, the peer
// federation API producer side: this node's own local models, in the
// wire shape federation.Fetch expects to consume.
func (r *Router) handleRunningModels(w http.ResponseWriter, req *http.Request) {
	local := r.Registry.GetAvailableModels(req.Context(), true, false)
	writeJSON(w, http.StatusOK, map[string]interface{}{"running_models": local})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
