package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/zombar/aidetect/internal/analyzer"
	"github.com/zombar/aidetect/internal/models"
	"github.com/zombar/aidetect/pkg/metrics"
)

// MinTextLength is the smallest trimmed input the engine will analyze.
const MinTextLength = 50

var (
	// ErrInputTooShort rejects inputs below MinTextLength after trimming.
	ErrInputTooShort = errors.New("engine: input text too short")

	// ErrNoSignal means neither signal path produced a result.
	ErrNoSignal = errors.New("engine: no signal available")

	// ErrStatisticalFailure wraps an internal statistical analyzer error.
	ErrStatisticalFailure = errors.New("statistical analyzer: internal failure")
)

// AnalysisError carries both sub-errors when the statistical and LLM
// paths fail on the same call.
type AnalysisError struct {
	StatsErr error
	LLMErr   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("engine: analysis failed: statistical: %v; llm: %v", e.StatsErr, e.LLMErr)
}

func (e *AnalysisError) Unwrap() []error {
	return []error{e.StatsErr, e.LLMErr}
}

// Judge is the LLM signal source. The Ollama client satisfies it; tests
// substitute stubs.
type Judge interface {
	Judge(ctx context.Context, text string) (*models.LLMJudgment, error)
}

// Options control a single Analyze call.
type Options struct {
	BypassCache bool `json:"bypass_cache"`
}

// Config tunes an engine instance. Zero values select the defaults.
type Config struct {
	CacheTTL  time.Duration
	CacheSize int
	Metrics   *metrics.DetectorMetrics
}

// Engine orchestrates tokenization, statistical analysis, the LLM
// judgment and their fusion into one verdict. The statistical and LLM
// paths run concurrently and may independently fail; the cache is the
// only shared mutable state.
type Engine struct {
	judge   Judge
	cache   *resultCache
	metrics *metrics.DetectorMetrics
	logger  *slog.Logger
}

// New creates an engine around the given LLM judge.
func New(judge Judge, cfg Config) *Engine {
	return &Engine{
		judge:   judge,
		cache:   newResultCache(cfg.CacheTTL, cfg.CacheSize),
		metrics: cfg.Metrics,
		logger:  slog.Default(),
	}
}

// Fingerprint computes the cache key for a text: the Java-style 32-bit
// string hash over UTF-16 code units, rendered in decimal.
func Fingerprint(text string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(text)) {
		h = (h << 5) - h + int32(u)
	}
	return strconv.FormatInt(int64(h), 10)
}

// Fingerprint exposes the cache key derivation for callers that want to
// pre-check the cache.
func (e *Engine) Fingerprint(text string) string {
	return Fingerprint(text)
}

// GetFromCache returns a cached verdict for a fingerprint, or nil.
func (e *Engine) GetFromCache(fingerprint string) *models.AnalysisResult {
	result, ok := e.cache.get(fingerprint)
	if !ok {
		return nil
	}
	result.FromCache = true
	return &result
}

// CacheSize reports the number of cached verdicts.
func (e *Engine) CacheSize() int {
	return e.cache.size()
}

type statsResult struct {
	breakdown models.StatisticalBreakdown
	wordCount int
	err       error
}

type llmResult struct {
	judgment *models.LLMJudgment
	err      error
}

// Analyze runs the full detection pipeline on a text and returns the
// fused verdict. The statistical analyzer and the LLM adapter run as
// sibling goroutines; both settle before fusion so either may fail
// without losing the other's signal.
func (e *Engine) Analyze(ctx context.Context, text string, opts Options) (*models.AnalysisResult, error) {
	start := time.Now()

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinTextLength {
		return nil, fmt.Errorf("%w: %d characters after trimming, need %d",
			ErrInputTooShort, utf8.RuneCountInString(trimmed), MinTextLength)
	}

	fingerprint := Fingerprint(text)

	if !opts.BypassCache {
		if cached, ok := e.cache.get(fingerprint); ok {
			cached.FromCache = true
			cached.AnalysisTimeMs = time.Since(start).Milliseconds()
			e.observeCache(true)
			e.logger.Debug("cache hit", "fingerprint", fingerprint)
			return &cached, nil
		}
		e.observeCache(false)
	}

	statsCh := make(chan statsResult, 1)
	llmCh := make(chan llmResult, 1)

	go func() {
		statsCh <- e.runStatistical(text)
	}()
	go func() {
		judgment, err := e.runLLM(ctx, text)
		llmCh <- llmResult{judgment: judgment, err: err}
	}()

	stats := <-statsCh
	llm := <-llmCh

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("engine: analysis cancelled: %w", err)
	}

	if stats.err != nil && llm.err != nil {
		e.observeDuration(start, "error")
		return nil, &AnalysisError{StatsErr: stats.err, LLMErr: llm.err}
	}
	if stats.err != nil {
		e.observeSignalFailure("statistical")
		e.logger.Warn("statistical path failed, degrading to llm-only", "error", stats.err)
	}
	if llm.err != nil {
		e.observeSignalFailure("llm")
		e.logger.Warn("llm path failed, degrading to stats-only", "error", llm.err)
	}

	fused, err := combine(stats.breakdown, llm.judgment)
	if err != nil {
		e.observeDuration(start, "error")
		return nil, err
	}

	wordCount := stats.wordCount
	if stats.err != nil {
		wordCount = len(strings.Fields(text))
	}

	result := models.AnalysisResult{
		ID:                   newID(),
		Likelihood:           fused.likelihood,
		Confidence:           fused.confidence,
		Reasoning:            fused.reasoning,
		Method:               fused.method,
		StatisticalBreakdown: stats.breakdown,
		LLMAnalysis:          llm.judgment,
		FromCache:            false,
		AnalysisTimeMs:       time.Since(start).Milliseconds(),
		TextLength:           len(text),
		WordCount:            wordCount,
		Timestamp:            time.Now().UnixMilli(),
	}

	e.cache.put(fingerprint, result)
	e.observeDetection(fused.method, llm.judgment)
	e.observeDuration(start, "success")

	e.logger.Info("analysis completed",
		"method", fused.method,
		"likelihood", fused.likelihood,
		"confidence", fused.confidence,
		"duration_ms", result.AnalysisTimeMs,
	)

	return &result, nil
}

// runStatistical tokenizes and scores the text, converting panics into
// a recoverable signal failure.
func (e *Engine) runStatistical(text string) (out statsResult) {
	defer func() {
		if r := recover(); r != nil {
			out = statsResult{err: fmt.Errorf("%w: %v", ErrStatisticalFailure, r)}
		}
	}()

	tokens := analyzer.Tokenize(text)
	out = statsResult{
		breakdown: analyzer.Analyze(tokens),
		wordCount: len(tokens.Words),
	}
	return out
}

// runLLM queries the judge, tolerating an engine configured without one.
func (e *Engine) runLLM(ctx context.Context, text string) (*models.LLMJudgment, error) {
	if e.judge == nil {
		return nil, fmt.Errorf("llm adapter: no judge configured")
	}
	return e.judge.Judge(ctx, text)
}

// newID generates an opaque, roughly monotonic result id: epoch
// milliseconds in base 36 plus a short random suffix.
func newID() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return strconv.FormatInt(time.Now().UnixMilli(), 36)
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(suffix)
}

func (e *Engine) observeCache(hit bool) {
	if e.metrics == nil {
		return
	}
	if hit {
		e.metrics.CacheHitsTotal.Inc()
	} else {
		e.metrics.CacheMissesTotal.Inc()
	}
}

func (e *Engine) observeDetection(method models.Method, judgment *models.LLMJudgment) {
	if e.metrics == nil {
		return
	}
	e.metrics.DetectionsTotal.WithLabelValues(string(method)).Inc()
	if judgment != nil {
		e.metrics.ParseMethodTotal.WithLabelValues(string(judgment.ParsingMethod)).Inc()
	}
}

func (e *Engine) observeSignalFailure(signal string) {
	if e.metrics == nil {
		return
	}
	e.metrics.SignalFailuresTotal.WithLabelValues(signal).Inc()
}

func (e *Engine) observeDuration(start time.Time, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.DetectionDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
