package protocol

import (
	"context"
	"net/http"
)

// NewDefaultRegistry builds the static registry required by the
// specification: openai, a1111, sd-server, and dall-e. httpClient is used
// by the sd-server response adapter's result-polling loop; a nil value
// falls back to http.DefaultClient.
func NewDefaultRegistry(httpClient *http.Client) Registry {
	return Registry{
		"openai": {
			Key:          "openai",
			HealthCheck:  "/v1/models",
			HealthStatus: http.StatusOK,
			Paths: EndpointPaths{
				Completions:     "/v1/completions",
				ChatCompletions: "/v1/chat/completions",
			},
		},
		"a1111": {
			Key:          "a1111",
			HealthCheck:  "/sdapi/v1/sd-models",
			HealthStatus: http.StatusOK,
			Paths: EndpointPaths{
				Txt2Img: "/sdapi/v1/txt2img",
				Img2Img: "/sdapi/v1/img2img",
			},
			ImageSamplerMap: map[string]string{
				"Euler":   "k_euler",
				"Euler A": "k_euler_a",
				"Heun":    "k_heun",
				"DPM2":    "k_dpm_2",
				"DPM++":   "k_dpmpp_2m",
				"LCM":     "k_lcm",
			},
		},
		"dall-e": {
			Key:          "dall-e",
			HealthCheck:  "/v1/models",
			HealthStatus: http.StatusOK,
			Paths: EndpointPaths{
				Txt2Img: "/v1/images/generations",
			},
			Adapters: map[Endpoint]Adapter{
				Txt2Img: combinedDalleAdapter{},
			},
			ImageSamplerMap: map[string]string{
				"Euler":   "natural",
				"Euler A": "vivid",
			},
		},
		"sd-server": {
			Key:          "sd-server",
			HealthCheck:  "/",
			HealthStatus: http.StatusNotFound,
			Paths: EndpointPaths{
				Txt2Img: "/txt2img",
			},
			Adapters: map[Endpoint]Adapter{
				Txt2Img: combinedSDServerAdapter{client: httpClient},
			},
			ImageSamplerMap: map[string]string{
				"Euler":   "euler",
				"Euler A": "euler_a",
				"Heun":    "heun",
				"DPM2":    "dpm2",
				"DPM++":   "dpm++2m",
				"LCM":     "lcm",
			},
		},
	}
}

// combinedDalleAdapter composes the request and response halves into a
// single Adapter value so the registry need only store one entry per
// endpoint.
type combinedDalleAdapter struct{}

func (combinedDalleAdapter) RewriteRequest(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return DalleTxt2ImgRequestAdapter{}.RewriteRequest(ctx, payload, targetURL)
}

func (combinedDalleAdapter) RewriteResponse(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return DalleTxt2ImgResponseAdapter{}.RewriteResponse(ctx, payload, targetURL)
}

type combinedSDServerAdapter struct {
	client *http.Client
}

func (a combinedSDServerAdapter) RewriteRequest(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return SDServerTxt2ImgRequestAdapter{}.RewriteRequest(ctx, payload, targetURL)
}

func (a combinedSDServerAdapter) RewriteResponse(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return SDServerTxt2ImgResponseAdapter{Client: a.client}.RewriteResponse(ctx, payload, targetURL)
}
