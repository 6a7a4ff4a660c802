package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/registry"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

func spawnFixture(t *testing.T, listener model.Listener) *runner.RunningModel {
	t.Helper()
	rm, err := runner.Spawn(runner.Spec{Argv: []string{"sleep", "5"}, Listener: listener}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { rm.Stop(true) })
	return rm
}

func backendListener(t *testing.T, srv *httptest.Server, proto string) model.Listener {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return model.Listener{Protocol: proto, Host: u.Hostname(), Port: port}
}

func newRouterFixture(t *testing.T) (*Router, *registry.LocalTable) {
	t.Helper()
	table := registry.NewLocalTable()
	reg := registry.New(table, nil, http.DefaultClient)
	r := NewRouter(reg, protocol.NewDefaultRegistry(nil), http.DefaultClient, nil)
	return r, table
}

func addLocalModel(t *testing.T, table *registry.LocalTable, name string, listener model.Listener) {
	t.Helper()
	table.Put(name, registry.LocalEntry{
		Model:       model.Model{ModelName: name, ModelID: name + "-id"},
		Running:     spawnFixture(t, listener),
		Environment: model.NewEnvironmentSet(),
	})
}

func doJSON(r *Router, method, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = strings.NewReader(string(encoded))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func TestRoute404UnknownModelScenarioS5(t *testing.T) {
	r, _ := newRouterFixture(t)

	w := doJSON(r, http.MethodPost, "/v1/chat/completions", map[string]interface{}{"model": "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"Model ghost not found or not running"}`, w.Body.String())
}

func TestRouteMissingModelFieldIsBadRequest(t *testing.T) {
	r, _ := newRouterFixture(t)

	w := doJSON(r, http.MethodPost, "/v1/chat/completions", map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteImageEndpointRequiresPrompt(t *testing.T) {
	r, _ := newRouterFixture(t)

	w := doJSON(r, http.MethodPost, "/v1/images/generations", map[string]interface{}{"model": "foo"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteLeastConnectionsAvoidsBusyBackend(t *testing.T) {
	started := make(chan string, 2)
	unblock := make(chan struct{})
	var callIndex int32

	handler := func(label string) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if atomic.AddInt32(&callIndex, 1) == 1 {
				started <- label
				<-unblock
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"backend": label})
		}
	}

	srvA := httptest.NewServer(handler("A"))
	defer srvA.Close()
	srvB := httptest.NewServer(handler("B"))
	defer srvB.Close()

	r, table := newRouterFixture(t)
	addLocalModel(t, table, "foo", backendListener(t, srvA, "openai"))
	// second entry under a distinct LocalTable key but the same ModelName,
	// matching the spec's "multiple backends may share a model_name".
	table.Put("foo#2", registry.LocalEntry{
		Model:       model.Model{ModelName: "foo", ModelID: "foo-2-id"},
		Running:     spawnFixture(t, backendListener(t, srvB, "openai")),
		Environment: model.NewEnvironmentSet(),
	})

	resultCh := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		resultCh <- doJSON(r, http.MethodPost, "/v1/chat/completions", map[string]interface{}{"model": "foo"})
	}()

	firstLabel := <-started

	w2 := doJSON(r, http.MethodPost, "/v1/chat/completions", map[string]interface{}{"model": "foo"})
	require.Equal(t, http.StatusOK, w2.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &decoded))
	secondLabel, _ := decoded["backend"].(string)
	require.NotEqual(t, firstLabel, secondLabel, "second concurrent request should avoid the backend already in flight")

	close(unblock)
	w1 := <-resultCh
	require.Equal(t, http.StatusOK, w1.Code)

	snap := r.conns.Snapshot()
	for target, n := range snap {
		require.Equalf(t, 0, n, "target %s should have settled back to zero connections", target)
	}
}

func TestRouteDalleImageGenerationScenarioS3(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/v1/images/generations", req.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{"b64_json": "AAA"},
			},
		})
	}))
	defer srv.Close()

	r, table := newRouterFixture(t)
	addLocalModel(t, table, "flux", backendListener(t, srv, "dall-e"))

	w := doJSON(r, http.MethodPost, "/v1/images/generations", map[string]interface{}{
		"model":  "flux",
		"prompt": "a cat",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"images":["AAA"]}`, w.Body.String())
}

func TestRouteSDServerImageGenerationScenarioS4(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /txt2img", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"task_id": "t1"})
	})
	mux.HandleFunc("GET /result", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "Done",
			"data": []interface{}{
				map[string]interface{}{"data": "IMGDATA"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r, table := newRouterFixture(t)
	addLocalModel(t, table, "sd", backendListener(t, srv, "sd-server"))

	w := doJSON(r, http.MethodPost, "/sdapi/v1/txt2img", map[string]interface{}{
		"model":  "sd",
		"prompt": "a dog",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"images":["IMGDATA"]}`, w.Body.String())
}

func TestHandleListModelsFiltersToTextCapableProtocols(t *testing.T) {
	textSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	defer textSrv.Close()
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	defer imageSrv.Close()

	r, table := newRouterFixture(t)
	addLocalModel(t, table, "chat-model", backendListener(t, textSrv, "openai"))
	addLocalModel(t, table, "sd-model", backendListener(t, imageSrv, "sd-server"))

	w := doJSON(r, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var decoded struct {
		Data []struct {
			ID      string `json:"id"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	require.Len(t, decoded.Data, 1)
	require.Equal(t, "chat-model", decoded.Data[0].ID)
	require.Equal(t, "modelzoo", decoded.Data[0].OwnedBy)
}

func TestHandleListImageModelsShapesA1111Form(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	defer srv.Close()

	r, table := newRouterFixture(t)
	addLocalModel(t, table, "sd-model", backendListener(t, srv, "a1111"))

	w := doJSON(r, http.MethodGet, "/sdapi/v1/sd-models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "sd-model", decoded[0]["model_name"])
	require.Equal(t, strings.Repeat("0", 64), decoded[0]["sha256"])
}

func TestHandleRunningModelsProducesLocalOnlyView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	defer srv.Close()

	r, table := newRouterFixture(t)
	addLocalModel(t, table, "local-only", backendListener(t, srv, "openai"))

	w := doJSON(r, http.MethodGet, "/api/running_models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var decoded struct {
		RunningModels []model.AvailableModel `json:"running_models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	require.Len(t, decoded.RunningModels, 1)
	require.Equal(t, "local-only", decoded.RunningModels[0].ModelName)
	require.Equal(t, model.SourceLocal, decoded.RunningModels[0].Source)
}
