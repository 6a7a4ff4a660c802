// Package serviceinfo implements the core's liveness probe and static
// identity document: /health and /.well-known/serviceinfo.
package serviceinfo

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/elastic/go-sysinfo"
	"github.com/jaypipes/ghw"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/registry"
)

// Software identifies the running build.
type Software struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Repository string `json:"repository"`
	Homepage   string `json:"homepage"`
}

// OpenAIAPI documents the OpenAI-compatible surface the proxy exposes.
type OpenAIAPI struct {
	Name          string `json:"name"`
	RelURL        string `json:"rel_url"`
	Documentation string `json:"documentation"`
	Version       string `json:"version"`
}

// API groups every documented wire-compatible surface.
type API struct {
	OpenAI OpenAIAPI `json:"openai"`
}

// HostInfo is a supplemental block beyond what spec.md requires: best-
// effort host facts surfaced alongside the identity document, gathered
// the same way FolderZoo gathers GGUF metadata — swallow the error, log
// it, and leave the field empty rather than fail the response.
type HostInfo struct {
	Architecture  string `json:"architecture,omitempty"`
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	CPUModel      string `json:"cpu_model,omitempty"`
	CPUCores      uint32 `json:"cpu_cores,omitempty"`
	CPUThreads    uint32 `json:"cpu_threads,omitempty"`
	MemoryBytes   int64  `json:"memory_bytes,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
}

// Document is the full body of GET /.well-known/serviceinfo.
type Document struct {
	Version  string    `json:"version"`
	Software Software  `json:"software"`
	API      API       `json:"api"`
	Host     *HostInfo `json:"host,omitempty"`
}

// Handler serves the health and serviceinfo endpoints.
type Handler struct {
	Local *registry.LocalTable
	doc   Document
	log   logging.Logger
}

// New builds a Handler. version is stamped into the document's top-level
// and api.openai.version fields; host enrichment is attempted once at
// construction time and cached for the process lifetime, matching the
// "static identity document" requirement — it does not change between
// requests.
func New(local *registry.LocalTable, version string, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Discard
	}
	h := &Handler{Local: local, log: log}
	h.doc = Document{
		Version: version,
		Software: Software{
			Name:       "modelzoo",
			Version:    version,
			Repository: "https://github.com/modelzoo/modelzoo",
			Homepage:   "https://github.com/modelzoo/modelzoo",
		},
		API: API{
			OpenAI: OpenAIAPI{
				Name:          "OpenAI",
				RelURL:        "v1",
				Documentation: "https://platform.openai.com/docs/api-reference",
				Version:       version,
			},
		},
		Host: h.collectHostInfo(),
	}
	return h
}

// RegisterRoutes wires the two endpoints onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /.well-known/serviceinfo", h.handleServiceInfo)
}

// handleHealth implements scenario S6: 200 with an empty body iff at
// least one model is locally running, regardless of readiness. It is a
// liveness probe for the control plane itself, not for any one backend.
func (h *Handler) handleHealth(w http.ResponseWriter, req *http.Request) {
	if len(h.Local.Snapshot()) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleServiceInfo(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.doc)
}

func (h *Handler) collectHostInfo() *HostInfo {
	info := &HostInfo{}

	if host, err := sysinfo.Host(); err != nil {
		h.log.Debugf("serviceinfo: host info unavailable: %v", err)
	} else {
		hi := host.Info()
		info.Architecture = hi.Architecture
		info.Hostname = hi.Hostname
		info.KernelVersion = hi.KernelVersion
		if hi.OS != nil {
			info.OS = hi.OS.Name
		}
		if !hi.BootTime.IsZero() {
			info.UptimeSeconds = int64(time.Since(hi.BootTime).Seconds())
		}
	}

	if cpuInfo, err := ghw.CPU(); err != nil {
		h.log.Debugf("serviceinfo: cpu info unavailable: %v", err)
	} else {
		info.CPUCores = cpuInfo.TotalCores
		info.CPUThreads = cpuInfo.TotalThreads
		if len(cpuInfo.Processors) > 0 {
			info.CPUModel = cpuInfo.Processors[0].Model
		}
	}

	if mem, err := ghw.Memory(); err != nil {
		h.log.Debugf("serviceinfo: memory info unavailable: %v", err)
	} else {
		info.MemoryBytes = mem.TotalPhysicalBytes
	}

	return info
}
