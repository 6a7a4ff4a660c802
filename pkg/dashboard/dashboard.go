// Package dashboard is the operator-facing HTTP glue over the runtime
// supervisor and registry: launch, stop, logs, status, zoo toggling, and
// a running-models listing. It is thin by design — grounded on
// original_source/zk.py's route table — and carries no routing logic of
// its own; that lives in pkg/proxy.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/modelzoo/modelzoo/pkg/history"
	"github.com/modelzoo/modelzoo/pkg/internal/logsafe"
	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/ports"
	"github.com/modelzoo/modelzoo/pkg/registry"
	"github.com/modelzoo/modelzoo/pkg/runtime"
	"github.com/modelzoo/modelzoo/pkg/zoo"
)

// Handler serves the operator dashboard's API. It holds direct references
// to the live collaborators it glues together rather than going through
// the registry's read-only join, since launch/stop mutate the local
// table.
type Handler struct {
	Zoos         map[string]zoo.Zoo
	Runtimes     map[string]runtime.Driver
	Environments map[string]model.Environment
	Local        *registry.LocalTable
	History      *history.History
	Ports        *ports.Allocator
	Log          logging.Logger
}

// New builds a Handler. log may be nil.
func New(zoos map[string]zoo.Zoo, runtimes map[string]runtime.Driver, envs map[string]model.Environment, local *registry.LocalTable, hist *history.History, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Discard
	}
	return &Handler{Zoos: zoos, Runtimes: runtimes, Environments: envs, Local: local, History: hist, Ports: ports.NewAllocator(), Log: log}
}

// RegisterRoutes wires every dashboard endpoint onto mux, each wrapped in
// the handle_exception-style 500-with-stack-trace recovery the source
// applies uniformly: per §7, dashboard error responses carry a stack
// trace (proxy responses never do).
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.wrap(h.handleCatalog))
	mux.HandleFunc("POST /api/zoo/{name}/toggle", h.wrap(h.handleToggleZoo))
	mux.HandleFunc("POST /api/model/launch", h.wrap(h.handleLaunch))
	mux.HandleFunc("POST /api/model/{model_name}/stop", h.wrap(h.handleStop))
	mux.HandleFunc("GET /api/model/{model_name}/logs", h.wrap(h.handleLogs))
	mux.HandleFunc("GET /api/model/{model_name}/status", h.wrap(h.handleStatus))
	mux.HandleFunc("GET /api/running_models", h.wrap(h.handleRunningModels))
}

// dashboardError pairs an HTTP status with a message, mirroring the
// taxonomy in pkg/proxy/errors.go but kept separate: dashboard and proxy
// error bodies have different shapes and the two are never unified
// behind one helper.
type dashboardError struct {
	status  int
	message string
}

func (e *dashboardError) Error() string { return e.message }

func notFound(msg string) *dashboardError  { return &dashboardError{http.StatusNotFound, msg} }
func badRequest(msg string) *dashboardError { return &dashboardError{http.StatusBadRequest, msg} }

// wrap adapts a handler that may return an error into an http.HandlerFunc,
// translating a *dashboardError into its declared status and any other
// error into a 500 carrying a formatted stack trace (errors.Wrap/%+v),
// matching the source's handle_exception.
func (h *Handler) wrap(fn func(w http.ResponseWriter, req *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := fn(w, req)
		if err == nil {
			return
		}
		if de, ok := err.(*dashboardError); ok {
			writeJSON(w, de.status, map[string]interface{}{"success": false, "error": de.message})
			return
		}
		h.Log.WithError(err).Error("dashboard: unhandled error")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success":     false,
			"error":       err.Error(),
			"stack_trace": fmt.Sprintf("%+v", err),
		})
	}
}

// availableModels aggregates the catalogs of every enabled zoo, then
// orders them by launch history, mirroring get_available_models.
func (h *Handler) availableModels() []model.Model {
	var models []model.Model
	for _, z := range h.Zoos {
		if !z.Enabled() {
			continue
		}
		catalog, err := z.Catalog()
		if err != nil {
			h.Log.WithField("zoo", z.Name()).WithError(err).Warn("dashboard: zoo catalog failed")
			continue
		}
		models = append(models, catalog...)
	}
	if h.History != nil {
		models = h.History.SortModels(models)
	}
	return models
}

func (h *Handler) handleCatalog(w http.ResponseWriter, req *http.Request) error {
	type zooView struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	}
	zoos := make([]zooView, 0, len(h.Zoos))
	for name, z := range h.Zoos {
		zoos = append(zoos, zooView{Name: name, Enabled: z.Enabled()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"zoos":   zoos,
		"models": h.availableModels(),
	})
	return nil
}

func (h *Handler) handleToggleZoo(w http.ResponseWriter, req *http.Request) error {
	name := req.PathValue("name")
	z, ok := h.Zoos[name]
	if !ok {
		return notFound(fmt.Sprintf("zoo %s not found", logsafe.Sanitize(name)))
	}
	toggler, ok := z.(zoo.Toggler)
	if !ok {
		return badRequest(fmt.Sprintf("zoo %s does not support toggling", logsafe.Sanitize(name)))
	}
	toggler.SetEnabled(!z.Enabled())
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "enabled": z.Enabled()})
	return nil
}

// launchRequest is the JSON body of POST /api/model/launch. Params is
// forwarded verbatim to the selected Driver's Spawn, which resolves each
// entry against its own Parameters() declarations.
type launchRequest struct {
	ModelID      string                 `json:"model_id"`
	Runtime      string                 `json:"runtime"`
	Environments []string               `json:"environments"`
	Port         int                    `json:"port"`
	Params       map[string]interface{} `json:"params"`
}

func (h *Handler) handleLaunch(w http.ResponseWriter, req *http.Request) error {
	var body launchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid JSON body")
	}
	if body.ModelID == "" {
		return badRequest("model_id is required")
	}
	if body.Port == 0 {
		return badRequest("port is required")
	}

	var target *model.Model
	for _, m := range h.availableModels() {
		if m.ModelID == body.ModelID {
			mm := m
			target = &mm
			break
		}
	}
	if target == nil {
		return notFound(fmt.Sprintf("model %s not found", logsafe.Sanitize(body.ModelID)))
	}

	driver, ok := h.Runtimes[body.Runtime]
	if !ok {
		return badRequest(fmt.Sprintf("unknown runtime %s", logsafe.Sanitize(body.Runtime)))
	}

	envs := make([]model.Environment, 0, len(body.Environments))
	for _, name := range body.Environments {
		e, ok := h.Environments[name]
		if !ok {
			return badRequest(fmt.Sprintf("unknown environment %s", logsafe.Sanitize(name)))
		}
		envs = append(envs, e)
	}
	envSet := model.NewEnvironmentSet(envs...)

	// The operator chooses the port; Allocate here only guards against two
	// launches racing onto the same one.
	port, err := h.Ports.Allocate(target.ModelName, body.Port)
	if err != nil {
		return badRequest(fmt.Sprintf("allocating port: %s", err))
	}

	listener := model.Listener{Host: "0.0.0.0", Port: port}
	rm, err := driver.Spawn(req.Context(), *target, listener, body.Params, envSet, h.Log)
	if err != nil {
		h.Ports.Release(port)
		return errors.Wrapf(err, "launching %s under %s", target.ModelName, body.Runtime)
	}

	h.Local.Put(target.ModelName, registry.LocalEntry{Model: *target, Running: rm, Environment: envSet})

	if h.History != nil {
		if err := h.History.Update(target.ZooName, target.ModelName, body.Runtime, body.Environments, body.Params); err != nil {
			h.Log.WithError(err).Warn("dashboard: failed to persist launch history")
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	return nil
}

func (h *Handler) handleStop(w http.ResponseWriter, req *http.Request) error {
	name := req.PathValue("model_name")
	entry, ok := h.Local.Remove(name)
	if !ok {
		return notFound(fmt.Sprintf("model %s not found", logsafe.Sanitize(name)))
	}
	entry.Running.Stop(false)
	h.Ports.ReleaseByName(name)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	return nil
}

func (h *Handler) handleLogs(w http.ResponseWriter, req *http.Request) error {
	entry, ok := h.Local.Get(req.PathValue("model_name"))
	if !ok {
		return notFound(fmt.Sprintf("model %s not found", logsafe.Sanitize(req.PathValue("model_name"))))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": entry.Running.Logs()})
	return nil
}

func (h *Handler) handleStatus(w http.ResponseWriter, req *http.Request) error {
	entry, ok := h.Local.Get(req.PathValue("model_name"))
	if !ok {
		return notFound(fmt.Sprintf("model %s not found", logsafe.Sanitize(req.PathValue("model_name"))))
	}
	writeJSON(w, http.StatusOK, entry.Running.Status(req.Context()))
	return nil
}

func (h *Handler) handleRunningModels(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running_models": h.Local.AvailableModels(req.Context()),
	})
	return nil
}

// Shutdown stops every locally running model, honoring SIGINT/SIGTERM per
// §6's "signals honored" requirement. noWait is passed to
// RunningModel.Stop: false sends SIGTERM, waits out the grace period and
// then kills the process group; true sends SIGTERM and returns without
// waiting or killing.
func (h *Handler) Shutdown(ctx context.Context, noWait bool) {
	for _, entry := range h.Local.Snapshot() {
		entry.Running.Stop(noWait)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
