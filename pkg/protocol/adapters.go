package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// copyPayload returns a shallow copy of payload so adapters never mutate
// the caller's map, per the "defensive copy before adapting" design note.
func copyPayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// DalleTxt2ImgRequestAdapter implements the dall-e txt2img request shape:
// batch_count -> n, steps -> quality ("hd" if > 1 else "standard"),
// width+height -> size ("WxH"), sampler_name -> style, and forces
// response_format=b64_json.
type DalleTxt2ImgRequestAdapter struct{}

func (DalleTxt2ImgRequestAdapter) RewriteRequest(_ context.Context, payload map[string]interface{}, _ string) (map[string]interface{}, error) {
	out := copyPayload(payload)

	if bc, ok := out["batch_count"]; ok {
		out["n"] = bc
		delete(out, "batch_count")
	}
	if steps, ok := out["steps"]; ok {
		if n, ok := toFloat(steps); ok && n > 1 {
			out["quality"] = "hd"
		} else {
			out["quality"] = "standard"
		}
		delete(out, "steps")
	}
	w, hasW := out["width"]
	h, hasH := out["height"]
	if hasW && hasH {
		out["size"] = fmt.Sprintf("%vx%v", w, h)
		delete(out, "width")
		delete(out, "height")
	}
	if sampler, ok := out["sampler_name"]; ok {
		out["style"] = sampler
		delete(out, "sampler_name")
	}
	out["response_format"] = "b64_json"
	return out, nil
}

func (DalleTxt2ImgRequestAdapter) RewriteResponse(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return NullAdapter{}.RewriteResponse(ctx, payload, targetURL)
}

// DalleTxt2ImgResponseAdapter converts {data:[{b64_json}...]} into the
// public-facing {images:[b64...]} shape.
type DalleTxt2ImgResponseAdapter struct{}

func (DalleTxt2ImgResponseAdapter) RewriteRequest(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return NullAdapter{}.RewriteRequest(ctx, payload, targetURL)
}

func (DalleTxt2ImgResponseAdapter) RewriteResponse(_ context.Context, payload map[string]interface{}, _ string) (map[string]interface{}, error) {
	data, ok := payload["data"].([]interface{})
	if !ok {
		return map[string]interface{}{"images": []interface{}{}}, nil
	}
	images := make([]interface{}, 0, len(data))
	for _, item := range data {
		if m, ok := item.(map[string]interface{}); ok {
			images = append(images, m["b64_json"])
		}
	}
	return map[string]interface{}{"images": images}, nil
}

// SDServerTxt2ImgRequestAdapter drops the model field and renames
// sampler_name -> sample_method, steps -> sample_steps.
type SDServerTxt2ImgRequestAdapter struct{}

func (SDServerTxt2ImgRequestAdapter) RewriteRequest(_ context.Context, payload map[string]interface{}, _ string) (map[string]interface{}, error) {
	out := copyPayload(payload)
	delete(out, "model")
	if v, ok := out["sampler_name"]; ok {
		out["sample_method"] = v
		delete(out, "sampler_name")
	}
	if v, ok := out["steps"]; ok {
		out["sample_steps"] = v
		delete(out, "steps")
	}
	return out, nil
}

func (SDServerTxt2ImgRequestAdapter) RewriteResponse(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return NullAdapter{}.RewriteResponse(ctx, payload, targetURL)
}

// MaxSDServerPollDuration bounds the sd-server result-polling adapter.
// The source polls indefinitely at 1Hz; this reimplementation fixes an
// explicit upper bound per the decided open question in SPEC_FULL.md.
const MaxSDServerPollDuration = 300 * time.Second

// sdServerPollInterval is the polling cadence, matching the source's 1Hz
// loop.
const sdServerPollInterval = 1 * time.Second

// ErrSDServerPollTimeout is returned when polling exceeds
// MaxSDServerPollDuration without observing status "Done".
var ErrSDServerPollTimeout = fmt.Errorf("sd-server result polling exceeded %.0fs", MaxSDServerPollDuration.Seconds())

// SDServerTxt2ImgResponseAdapter polls the sd-server's async result
// endpoint until status=="Done", then converts [{data}...] into
// {images:[data...]}.
type SDServerTxt2ImgResponseAdapter struct {
	Client *http.Client
}

func (a SDServerTxt2ImgResponseAdapter) RewriteRequest(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	return NullAdapter{}.RewriteRequest(ctx, payload, targetURL)
}

func (a SDServerTxt2ImgResponseAdapter) RewriteResponse(ctx context.Context, payload map[string]interface{}, targetURL string) (map[string]interface{}, error) {
	taskID := fmt.Sprintf("%v", payload["task_id"])
	resultURL := resultURLFor(targetURL, taskID)

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	deadline := time.Now().Add(MaxSDServerPollDuration)
	for {
		if time.Now().After(deadline) {
			return nil, ErrSDServerPollTimeout
		}

		res, err := pollOnce(ctx, client, resultURL)
		if err != nil {
			return nil, err
		}
		if status, _ := res["status"].(string); status == "Done" {
			data, _ := res["data"].([]interface{})
			images := make([]interface{}, 0, len(data))
			for _, item := range data {
				if m, ok := item.(map[string]interface{}); ok {
					images = append(images, m["data"])
				}
			}
			return map[string]interface{}{"images": images}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sdServerPollInterval):
		}
	}
}

// resultURLFor replaces the first "txt2img" in the path with "result" and
// attaches the task_id query parameter, per the source's
// target_url.replace('txt2img', 'result') behavior.
func resultURLFor(targetURL, taskID string) string {
	u, err := url.Parse(targetURL)
	if err != nil {
		replaced := strings.Replace(targetURL, "txt2img", "result", 1)
		return replaced + "?task_id=" + url.QueryEscape(taskID)
	}
	u.Path = strings.Replace(u.Path, "txt2img", "result", 1)
	q := u.Query()
	q.Set("task_id", taskID)
	u.RawQuery = q.Encode()
	return u.String()
}

func pollOnce(ctx context.Context, client *http.Client, resultURL string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
