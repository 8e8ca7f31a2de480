package models

// Method identifies which signal paths contributed to a verdict.
type Method string

const (
	MethodEnsemble    Method = "ensemble"
	MethodStatistical Method = "statistical"
	MethodLLM         Method = "llm"
)

// ParsingMethod identifies which waterfall strategy produced an LLMJudgment.
type ParsingMethod string

const (
	ParseStructured ParsingMethod = "structured"
	ParseMarkdown   ParsingMethod = "markdown"
	ParseKeyValue   ParsingMethod = "keyValue"
	ParseRegex      ParsingMethod = "regex"
	ParseFallback   ParsingMethod = "fallback"
)

// Statistical metric names. Every StatisticalBreakdown carries all eight.
const (
	MetricPerplexity             = "perplexity"
	MetricBurstiness             = "burstiness"
	MetricVocabularyDiversity    = "vocabularyDiversity"
	MetricSentenceLengthVariance = "sentenceLengthVariance"
	MetricAIIndicatorScore       = "aiIndicatorScore"
	MetricHedgeWordDensity       = "hedgeWordDensity"
	MetricPassiveVoiceRatio      = "passiveVoiceRatio"
	MetricRepetitionScore        = "repetitionScore"
)

// MetricNames lists the eight statistical metrics in canonical order.
var MetricNames = []string{
	MetricPerplexity,
	MetricBurstiness,
	MetricVocabularyDiversity,
	MetricSentenceLengthVariance,
	MetricAIIndicatorScore,
	MetricHedgeWordDensity,
	MetricPassiveVoiceRatio,
	MetricRepetitionScore,
}

// StatisticalBreakdown maps metric name to an integer score in [0,100].
// Higher means more AI-like for every metric.
type StatisticalBreakdown map[string]int

// TokenizedText holds the sentence and word streams derived from an input.
// Both sequences preserve document order.
type TokenizedText struct {
	Sentences  []string
	Words      []string
	Normalized string
}

// LLMJudgment is the parsed verdict from the language model.
type LLMJudgment struct {
	Likelihood    int           `json:"likelihood"`
	Confidence    int           `json:"confidence"`
	Reasoning     string        `json:"reasoning"`
	KeyIndicators []string      `json:"key_indicators"`
	ParsingMethod ParsingMethod `json:"parsing_method"`
}

// NewLLMJudgment builds a judgment with scores clamped to [0,100] and
// nil-safe defaults for reasoning and indicators.
func NewLLMJudgment(likelihood, confidence int, reasoning string, indicators []string, method ParsingMethod) *LLMJudgment {
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	if indicators == nil {
		indicators = []string{}
	}
	return &LLMJudgment{
		Likelihood:    ClampScore(likelihood),
		Confidence:    ClampScore(confidence),
		Reasoning:     reasoning,
		KeyIndicators: indicators,
		ParsingMethod: method,
	}
}

// ClampScore bounds a score to [0,100].
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// AnalysisResult is the fused verdict returned to callers.
type AnalysisResult struct {
	ID                   string               `json:"id"`
	Likelihood           int                  `json:"likelihood"`
	Confidence           int                  `json:"confidence"`
	Reasoning            string               `json:"reasoning"`
	Method               Method               `json:"method"`
	StatisticalBreakdown StatisticalBreakdown `json:"statistical_breakdown,omitempty"`
	LLMAnalysis          *LLMJudgment         `json:"llm_analysis,omitempty"`
	FromCache            bool                 `json:"from_cache"`
	AnalysisTimeMs       int64                `json:"analysis_time_ms"`
	TextLength           int                  `json:"text_length"`
	WordCount            int                  `json:"word_count"`
	Timestamp            int64                `json:"timestamp"`
}
