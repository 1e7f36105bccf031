package swagger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"splitit/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Title == "" {
		t.Error("Title should not be empty")
	}
	if cfg.BasePath == "" {
		t.Error("BasePath should not be empty")
	}
	if cfg.SpecPath == "" {
		t.Error("SpecPath should not be empty")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(&config.SwaggerConfig{Title: "Trip API", BasePath: "docs/"})

	if cfg.Title != "Trip API" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.BasePath != "/docs" {
		t.Errorf("BasePath = %q, want /docs", cfg.BasePath)
	}

	cfg = FromConfig(&config.SwaggerConfig{})
	if cfg.BasePath != "/swagger" {
		t.Errorf("default BasePath = %q", cfg.BasePath)
	}
}

func TestHandler_ServeHTTP_UI(t *testing.T) {
	handler := NewHandler(nil, []byte(`{"openapi":"3.0.0"}`))

	for _, path := range []string{"/swagger/", "/swagger/index.html"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %s", ct)
			}
			if !strings.Contains(w.Body.String(), `url: "/swagger/openapi.json"`) {
				t.Error("UI should point at the spec")
			}
		})
	}
}

func TestHandler_ServeHTTP_Spec(t *testing.T) {
	spec := []byte(`{"openapi":"3.0.0","info":{"title":"Test"}}`)
	handler := NewHandler(nil, spec)

	for _, path := range []string{"/swagger/openapi.json", "/swagger/swagger.json"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %s", ct)
			}
			if w.Body.String() != string(spec) {
				t.Error("response should match spec")
			}
			if w.Header().Get("ETag") == "" {
				t.Error("ETag header should be set")
			}
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("CORS header should be set")
			}
		})
	}
}

func TestHandler_ETag(t *testing.T) {
	spec := []byte(`{"openapi":"3.0.0"}`)

	// ETag зависит только от содержимого
	if NewHandler(nil, spec).specETag != NewHandler(nil, spec).specETag {
		t.Error("ETag should be stable for the same spec")
	}
	if NewHandler(nil, spec).specETag == NewHandler(nil, []byte(`{}`)).specETag {
		t.Error("ETag should change with the spec")
	}

	handler := NewHandler(nil, spec)
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil))

	req := httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil)
	req.Header.Set("If-None-Match", w1.Header().Get("ETag"))
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req)

	if w2.Code != http.StatusNotModified {
		t.Errorf("status = %d, want %d", w2.Code, http.StatusNotModified)
	}
}

func TestHandler_NotFoundAndMethod(t *testing.T) {
	handler := NewHandler(nil, []byte(`{}`))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/nonexistent", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/swagger/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, &Config{Title: "Custom API", BasePath: "/api-docs", SpecPath: "/spec.json"}, []byte(`{}`))

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api-docs")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(string(body), "Custom API") {
		t.Error("response should contain custom title")
	}

	resp, err = srv.Client().Get(srv.URL + "/api-docs/spec.json")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("custom spec path status = %d", resp.StatusCode)
	}
}

func BenchmarkHandler_ServeSpec(b *testing.B) {
	handler := NewHandler(nil, make([]byte, 100000))
	req := httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		io.Copy(io.Discard, w.Body)
	}
}
