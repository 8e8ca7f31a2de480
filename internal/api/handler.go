package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/aidetect/internal/engine"
	"github.com/zombar/aidetect/internal/models"
	"github.com/zombar/aidetect/pkg/tracing"
)

// Detector is the engine surface the API depends on.
type Detector interface {
	Analyze(ctx context.Context, text string, opts engine.Options) (*models.AnalysisResult, error)
	Fingerprint(text string) string
	GetFromCache(fingerprint string) *models.AnalysisResult
}

// LivenessProber checks the LLM endpoint for the health report.
type LivenessProber interface {
	Version(ctx context.Context) (string, error)
}

// Handler handles HTTP requests
type Handler struct {
	detector Detector
	prober   LivenessProber
	mux      *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics.
// prober may be nil when the LLM endpoint is disabled.
func NewHandler(detector Detector, prober LivenessProber) http.Handler {
	h := &Handler{
		detector: detector,
		prober:   prober,
		mux:      http.NewServeMux(),
	}

	h.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/api/detect", h.handleDetect)
	h.mux.HandleFunc("/api/fingerprint", h.handleFingerprint)
	h.mux.HandleFunc("/api/cache/", h.handleCacheLookup)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleDetect runs a detection and returns the fused verdict.
func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text        string `json:"text"`
		BypassCache bool   `json:"bypass_cache,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Text == "" {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("text.length", len(req.Text)),
		attribute.Bool("cache.bypass", req.BypassCache))

	result, err := h.detector.Analyze(r.Context(), req.Text, engine.Options{BypassCache: req.BypassCache})
	if err != nil {
		var analysisErr *engine.AnalysisError
		switch {
		case errors.Is(err, engine.ErrInputTooShort):
			respondError(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &analysisErr):
			respondError(w, err.Error(), http.StatusBadGateway)
		case errors.Is(err, context.Canceled):
			respondError(w, err.Error(), http.StatusRequestTimeout)
		default:
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// handleFingerprint returns the cache key for a text without analyzing it.
func (h *Handler) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text := r.URL.Query().Get("text")
	if text == "" {
		respondError(w, "Text parameter is required", http.StatusBadRequest)
		return
	}

	respondJSON(w, map[string]string{
		"fingerprint": h.detector.Fingerprint(text),
	}, http.StatusOK)
}

// handleCacheLookup retrieves a cached verdict by fingerprint.
func (h *Handler) handleCacheLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fingerprint := strings.TrimPrefix(r.URL.Path, "/api/cache/")
	if fingerprint == "" || strings.Contains(fingerprint, "/") {
		respondError(w, "Fingerprint is required", http.StatusBadRequest)
		return
	}

	result := h.detector.GetFromCache(fingerprint)
	if result == nil {
		respondError(w, "no cached result for fingerprint", http.StatusNotFound)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// handleHealth reports service and LLM endpoint liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	if h.prober != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if version, err := h.prober.Version(ctx); err == nil {
			response["ollama"] = "ok"
			response["ollama_version"] = version
		} else {
			response["ollama"] = "unavailable"
		}
	}

	respondJSON(w, response, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
