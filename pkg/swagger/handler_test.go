package swagger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_ServeHTTP_Root(t *testing.T) {
	handler := NewHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		t.Errorf("expected Content-Type to contain text/html, got %s", contentType)
	}

	body := w.Body.String()
	if !strings.Contains(body, "ModelZoo") {
		t.Error("expected body to contain 'ModelZoo'")
	}
	if !strings.Contains(body, "swagger-ui") {
		t.Error("expected body to contain 'swagger-ui'")
	}
}

func TestHandler_ServeHTTP_IndexHTML(t *testing.T) {
	handler := NewHandler()

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		t.Errorf("expected Content-Type to contain text/html, got %s", contentType)
	}
}

func TestHandler_ServeHTTP_OpenAPISpec(t *testing.T) {
	handler := NewHandler()

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/yaml" {
		t.Errorf("expected Content-Type 'application/yaml', got %s", contentType)
	}

	body := w.Body.String()
	if !strings.Contains(body, "openapi: 3.0.3") {
		t.Error("expected body to contain OpenAPI version")
	}
	if !strings.Contains(body, "ModelZoo API") {
		t.Error("expected body to contain API title")
	}
}

func TestHandler_ServeHTTP_NotFound(t *testing.T) {
	handler := NewHandler()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestOpenAPISpecContainsAllAPIs(t *testing.T) {
	spec := string(openapiSpec)

	// Check for OpenAI-compatible endpoints
	if !strings.Contains(spec, "/v1/chat/completions") {
		t.Error("expected OpenAPI spec to contain /v1/chat/completions endpoint")
	}
	if !strings.Contains(spec, "/v1/completions") {
		t.Error("expected OpenAPI spec to contain /v1/completions endpoint")
	}
	if !strings.Contains(spec, "/v1/models") {
		t.Error("expected OpenAPI spec to contain /v1/models endpoint")
	}

	// Check for A1111-compatible endpoints
	if !strings.Contains(spec, "/sdapi/v1/txt2img") {
		t.Error("expected OpenAPI spec to contain /sdapi/v1/txt2img endpoint")
	}
	if !strings.Contains(spec, "/sdapi/v1/img2img") {
		t.Error("expected OpenAPI spec to contain /sdapi/v1/img2img endpoint")
	}

	// Check for dashboard endpoints
	if !strings.Contains(spec, "/api/catalog") {
		t.Error("expected OpenAPI spec to contain /api/catalog endpoint")
	}
	if !strings.Contains(spec, "/api/model/launch") {
		t.Error("expected OpenAPI spec to contain /api/model/launch endpoint")
	}

	// Check for tags
	if !strings.Contains(spec, "OpenAI API") {
		t.Error("expected OpenAPI spec to contain 'OpenAI API' tag")
	}
	if !strings.Contains(spec, "A1111 API") {
		t.Error("expected OpenAPI spec to contain 'A1111 API' tag")
	}
	if !strings.Contains(spec, "Dashboard API") {
		t.Error("expected OpenAPI spec to contain 'Dashboard API' tag")
	}
}
