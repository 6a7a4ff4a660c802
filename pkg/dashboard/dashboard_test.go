package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/history"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/registry"
	"github.com/modelzoo/modelzoo/pkg/runner"
	"github.com/modelzoo/modelzoo/pkg/runtime"
	"github.com/modelzoo/modelzoo/pkg/zoo"
)

type fakeDriver struct {
	spawned model.Model
}

func (d *fakeDriver) Name() string                             { return "fake" }
func (d *fakeDriver) SupportedFormats() []model.ModelFormat     { return []model.ModelFormat{model.FormatGGUF} }
func (d *fakeDriver) Parameters() []model.RuntimeParameter      { return nil }
func (d *fakeDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, params map[string]interface{}, envSet model.EnvironmentSet, log interface {
	WithField(string, interface{}) interface{}
}) (*runner.RunningModel, error) {
	return nil, nil
}

func newFixture(t *testing.T) (*Handler, *registry.LocalTable) {
	t.Helper()
	table := registry.NewLocalTable()
	z := zoo.NewStaticZoo("curated", true, []model.Model{{ModelID: "m-1", ModelName: "m-one"}})
	hist, err := history.Load(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	h := New(
		map[string]zoo.Zoo{"curated": z},
		map[string]runtime.Driver{},
		map[string]model.Environment{"gpu0": {Name: "gpu0", Vars: map[string]string{"CUDA_VISIBLE_DEVICES": "0"}}},
		table,
		hist,
		nil,
	)
	return h, table
}

func doReq(mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestToggleZooFlipsEnabled(t *testing.T) {
	h, _ := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doReq(mux, http.MethodPost, "/api/zoo/curated/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, h.Zoos["curated"].Enabled())

	w2 := doReq(mux, http.MethodPost, "/api/zoo/curated/toggle", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	require.True(t, h.Zoos["curated"].Enabled())
}

func TestToggleUnknownZooIs404(t *testing.T) {
	h, _ := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doReq(mux, http.MethodPost, "/api/zoo/ghost/toggle", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestLaunchMissingPortIsBadRequest(t *testing.T) {
	h, _ := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doReq(mux, http.MethodPost, "/api/model/launch", map[string]interface{}{
		"model_id": "does-not-exist",
		"runtime":  "fake",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "port is required")
}

func TestLaunchUnknownModelIs404(t *testing.T) {
	h, _ := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doReq(mux, http.MethodPost, "/api/model/launch", map[string]interface{}{
		"model_id": "does-not-exist",
		"runtime":  "fake",
		"port":     50001,
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopUnknownModelIs404(t *testing.T) {
	h, _ := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doReq(mux, http.MethodPost, "/api/model/ghost/stop", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunningModelsReflectsLocalTable(t *testing.T) {
	h, table := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rm, err := runner.Spawn(runner.Spec{Argv: []string{"sleep", "5"}}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { rm.Stop(true) })
	table.Put("m-one", registry.LocalEntry{Model: model.Model{ModelName: "m-one"}, Running: rm})

	w := doReq(mux, http.MethodGet, "/api/running_models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var decoded struct {
		RunningModels []model.AvailableModel `json:"running_models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	require.Len(t, decoded.RunningModels, 1)
	require.Equal(t, "m-one", decoded.RunningModels[0].ModelName)
}

func TestCatalogListsEnabledZooModels(t *testing.T) {
	h, _ := newFixture(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doReq(mux, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "m-one")
}
