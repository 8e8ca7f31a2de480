package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zombar/aidetect/internal/api"
	"github.com/zombar/aidetect/internal/engine"
	"github.com/zombar/aidetect/internal/ollama"
	"github.com/zombar/aidetect/pkg/logging"
	"github.com/zombar/aidetect/pkg/metrics"
	"github.com/zombar/aidetect/pkg/tracing"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("aidetect service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("aidetect")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Get default values from environment variables, with fallbacks
	portDefault := getEnv("PORT", "8080")
	ollamaURLDefault := getEnv("OLLAMA_URL", "http://localhost:11434")
	ollamaModelDefault := getEnv("OLLAMA_MODEL", ollama.DefaultModel)
	useOllamaDefault := getEnvBool("USE_OLLAMA", true)

	var (
		port        = flag.String("port", portDefault, "Server port (env: PORT)")
		ollamaURL   = flag.String("ollama-url", ollamaURLDefault, "Ollama API URL (env: OLLAMA_URL)")
		ollamaModel = flag.String("ollama-model", ollamaModelDefault, "Ollama model to use (env: OLLAMA_MODEL)")
		useOllama   = flag.Bool("use-ollama", useOllamaDefault, "Enable the LLM signal path (env: USE_OLLAMA)")
		cacheTTL    = flag.Duration("cache-ttl", engine.DefaultCacheTTL, "Result cache TTL")
		cacheSize   = flag.Int("cache-size", engine.DefaultCacheSize, "Result cache entry bound")
	)
	flag.Parse()

	detectorMetrics := metrics.NewDetectorMetrics("aidetect", prometheus.DefaultRegisterer)

	// Initialize the LLM judge
	var judge engine.Judge
	var prober api.LivenessProber
	if *useOllama {
		client, err := ollama.New(*ollamaURL, *ollamaModel)
		if err != nil {
			logger.Warn("failed to initialize Ollama client, running statistical-only",
				"error", err,
				"ollama_url", *ollamaURL,
				"ollama_model", *ollamaModel,
			)
		} else {
			logger.Info("Ollama client initialized", "model", *ollamaModel, "url", *ollamaURL)
			judge = client
			prober = client
		}
	} else {
		logger.Info("Ollama disabled, running statistical-only")
	}

	// Initialize the detection engine
	detector := engine.New(judge, engine.Config{
		CacheTTL:  *cacheTTL,
		CacheSize: *cacheSize,
		Metrics:   detectorMetrics,
	})

	// Initialize API handler
	apiHandler := api.NewHandler(detector, prober)

	// Wrap handler with middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("aidetect")(apiHandler),
	)

	// Create server with extended write timeout for LLM round trips
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("aidetect service starting",
			"port", *port,
			"ollama_enabled", *useOllama,
			"ollama_url", *ollamaURL,
			"ollama_model", *ollamaModel,
			"cache_ttl", cacheTTL.String(),
			"cache_size", *cacheSize,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
