package protocol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDalleRequestAdapterScenarioS3(t *testing.T) {
	payload := map[string]interface{}{
		"model":        "flux",
		"prompt":       "cat",
		"sampler_name": "Euler",
		"size":         "512x512",
		"steps":        float64(4),
	}

	out, err := DalleTxt2ImgRequestAdapter{}.RewriteRequest(context.Background(), payload, "http://x/v1/images/generations")
	require.NoError(t, err)

	require.Equal(t, "hd", out["quality"])
	require.Equal(t, "Euler", out["style"])
	require.Equal(t, "512x512", out["size"])
	require.Equal(t, "b64_json", out["response_format"])
	_, hasSampler := out["sampler_name"]
	require.False(t, hasSampler)
	_, hasSteps := out["steps"]
	require.False(t, hasSteps)

	// original payload untouched
	require.Equal(t, "Euler", payload["sampler_name"])
}

func TestDalleResponseAdapterShape(t *testing.T) {
	payload := map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{"b64_json": "AAA"},
			map[string]interface{}{"b64_json": "BBB"},
		},
	}
	out, err := DalleTxt2ImgResponseAdapter{}.RewriteResponse(context.Background(), payload, "")
	require.NoError(t, err)
	require.Equal(t, []interface{}{"AAA", "BBB"}, out["images"])
}

// TestSDServerRequestAdapterScenarioS4 exercises the request adapter in
// isolation: it only renames sampler_name -> sample_method, so it is fed
// a payload as the router would hand it off *after* running it through
// Def.MapSampler (the actual label-to-backend-value translation happens
// there, not in the adapter). See TestRouterMapsSamplerBeforeSDServerAdapt
// for the end-to-end S4 path starting from the public "Euler" label.
func TestSDServerRequestAdapterScenarioS4(t *testing.T) {
	payload := map[string]interface{}{
		"model":        "sd",
		"prompt":       "p",
		"sampler_name": "euler",
		"steps":        float64(8),
	}
	out, err := SDServerTxt2ImgRequestAdapter{}.RewriteRequest(context.Background(), payload, "http://x/txt2img")
	require.NoError(t, err)

	want := map[string]interface{}{
		"prompt":        "p",
		"sample_method": "euler",
		"sample_steps":  float64(8),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

// TestRouterMapsSamplerBeforeSDServerAdapt drives spec scenario S4
// end-to-end through Def.MapSampler, the way the router applies it before
// calling the adapter (see router.go's handling of payload["sampler_name"]):
// public label "Euler" must reach the backend as sample_method:"euler".
func TestRouterMapsSamplerBeforeSDServerAdapt(t *testing.T) {
	def := NewDefaultRegistry(nil)["sd-server"]

	payload := map[string]interface{}{
		"model":        "sd",
		"prompt":       "p",
		"sampler_name": "Euler",
		"steps":        float64(8),
	}
	payload["sampler_name"] = def.MapSampler(payload["sampler_name"].(string))

	out, err := def.AdapterFor(Txt2Img).RewriteRequest(context.Background(), payload, "http://x/txt2img")
	require.NoError(t, err)

	want := map[string]interface{}{
		"prompt":        "p",
		"sample_method": "euler",
		"sample_steps":  float64(8),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSDServerResponseAdapterPollsUntilDone(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls < 2 {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "Pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "Done",
			"data": []interface{}{
				map[string]interface{}{"data": "IMG1"},
			},
		})
	}))
	defer srv.Close()

	adapter := SDServerTxt2ImgResponseAdapter{Client: srv.Client()}
	out, err := adapter.RewriteResponse(context.Background(), map[string]interface{}{"task_id": "abc"}, srv.URL+"/txt2img")
	require.NoError(t, err)
	require.Equal(t, []interface{}{"IMG1"}, out["images"])
	require.GreaterOrEqual(t, calls, 2)
}

func TestSDServerResponseAdapterContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "Pending"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := SDServerTxt2ImgResponseAdapter{Client: srv.Client()}
	_, err := adapter.RewriteResponse(ctx, map[string]interface{}{"task_id": "abc"}, srv.URL+"/txt2img")
	require.Error(t, err)
}

func TestRegistryRequiredEntries(t *testing.T) {
	reg := NewDefaultRegistry(nil)
	for _, key := range []string{"openai", "a1111", "sd-server", "dall-e"} {
		_, ok := reg.Get(key)
		require.True(t, ok, "missing protocol %q", key)
	}

	require.True(t, reg.SupportsEndpoint("openai", ChatCompletions))
	require.False(t, reg.SupportsEndpoint("openai", Txt2Img))
	require.True(t, reg.SupportsEndpoint("a1111", Txt2Img))
	require.True(t, reg.SupportsEndpoint("sd-server", Txt2Img))
	require.True(t, reg.SupportsEndpoint("dall-e", Txt2Img))
}

func TestSDServerHealthCheckUsesNotFoundStatus(t *testing.T) {
	reg := NewDefaultRegistry(nil)
	def, _ := reg.Get("sd-server")
	require.Equal(t, http.StatusNotFound, def.HealthStatus)
	require.Equal(t, "/", def.HealthCheck)
}
