package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zombar/aidetect/internal/engine"
	"github.com/zombar/aidetect/internal/models"
)

// stubDetector returns canned engine results.
type stubDetector struct {
	result *models.AnalysisResult
	err    error
	cached *models.AnalysisResult
}

func (s *stubDetector) Analyze(ctx context.Context, text string, opts engine.Options) (*models.AnalysisResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubDetector) Fingerprint(text string) string {
	return engine.Fingerprint(text)
}

func (s *stubDetector) GetFromCache(fingerprint string) *models.AnalysisResult {
	return s.cached
}

type stubProber struct {
	version string
	err     error
}

func (s *stubProber) Version(ctx context.Context) (string, error) {
	return s.version, s.err
}

func detectRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return httptest.NewRequest(http.MethodPost, "/api/detect", bytes.NewReader(data))
}

func TestHandleDetect(t *testing.T) {
	detector := &stubDetector{
		result: &models.AnalysisResult{
			ID:         "abc",
			Likelihood: 72,
			Confidence: 64,
			Method:     models.MethodEnsemble,
		},
	}
	handler := NewHandler(detector, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, detectRequest(t, map[string]any{"text": "some text to analyze"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Likelihood != 72 || result.Method != models.MethodEnsemble {
		t.Errorf("unexpected response body: %+v", result)
	}
}

func TestHandleDetectErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"input too short", engine.ErrInputTooShort, http.StatusBadRequest},
		{"both signals failed", &engine.AnalysisError{StatsErr: errors.New("s"), LLMErr: errors.New("l")}, http.StatusBadGateway},
		{"request cancelled", context.Canceled, http.StatusRequestTimeout},
		{"unexpected failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&stubDetector{err: tt.err}, nil)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, detectRequest(t, map[string]any{"text": "some text to analyze"}))

			if w.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestHandleDetectBadRequests(t *testing.T) {
	handler := NewHandler(&stubDetector{}, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/detect", bytes.NewReader([]byte("not json"))))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, detectRequest(t, map[string]any{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing text, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/detect", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func TestHandleFingerprint(t *testing.T) {
	handler := NewHandler(&stubDetector{}, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fingerprint?text=hello", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["fingerprint"] != "99162322" {
		t.Errorf("expected fingerprint 99162322, got %q", response["fingerprint"])
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fingerprint", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing text parameter, got %d", w.Code)
	}
}

func TestHandleCacheLookup(t *testing.T) {
	cached := &models.AnalysisResult{ID: "abc", Likelihood: 55, FromCache: true}
	handler := NewHandler(&stubDetector{cached: cached}, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/99162322", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.FromCache || result.ID != "abc" {
		t.Errorf("unexpected cached response: %+v", result)
	}

	handler = NewHandler(&stubDetector{}, nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/12345", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown fingerprint, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name   string
		prober LivenessProber
		ollama string
	}{
		{"no prober", nil, ""},
		{"ollama reachable", &stubProber{version: "0.5.0"}, "ok"},
		{"ollama down", &stubProber{err: errors.New("refused")}, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&stubDetector{}, tt.prober)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var response map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response["status"] != "ok" {
				t.Errorf("expected status ok, got %q", response["status"])
			}
			if response["ollama"] != tt.ollama {
				t.Errorf("expected ollama %q, got %q", tt.ollama, response["ollama"])
			}
		})
	}
}
