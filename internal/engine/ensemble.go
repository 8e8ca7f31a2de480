package engine

import (
	"fmt"
	"strings"

	"github.com/zombar/aidetect/internal/analyzer"
	"github.com/zombar/aidetect/internal/models"
)

// Degraded paths cap confidence: a single signal is never trusted as much
// as two agreeing ones.
const (
	statsOnlyConfidenceCap = 60
	llmOnlyConfidenceCap   = 70
	ensembleConfidenceCap  = 95
)

// verdict is the fused scoring before the engine enriches it with id,
// timing and input statistics.
type verdict struct {
	likelihood int
	confidence int
	reasoning  string
	method     models.Method
}

// combine fuses whichever signals arrived into one verdict. At least one
// signal must be present; the engine guarantees this or fails first.
func combine(stats models.StatisticalBreakdown, llm *models.LLMJudgment) (verdict, error) {
	switch {
	case stats != nil && llm != nil:
		ens := analyzer.Ensemble(stats, llm)
		return verdict{
			likelihood: ens.Likelihood,
			confidence: ens.Confidence,
			reasoning:  buildRationale(stats, llm, ens.StatisticalScore),
			method:     models.MethodEnsemble,
		}, nil

	case stats != nil:
		ens := analyzer.Ensemble(stats, nil)
		confidence := ens.Confidence
		if confidence > statsOnlyConfidenceCap {
			confidence = statsOnlyConfidenceCap
		}
		return verdict{
			likelihood: ens.Likelihood,
			confidence: confidence,
			reasoning:  buildRationale(stats, nil, ens.StatisticalScore),
			method:     models.MethodStatistical,
		}, nil

	case llm != nil:
		confidence := llm.Confidence
		if confidence > llmOnlyConfidenceCap {
			confidence = llmOnlyConfidenceCap
		}
		return verdict{
			likelihood: llm.Likelihood,
			confidence: confidence,
			reasoning:  buildRationale(nil, llm, 0),
			method:     models.MethodLLM,
		}, nil
	}

	return verdict{}, ErrNoSignal
}

// notableIndicator names a statistical metric worth surfacing in the
// rationale once it crosses its threshold.
type notableIndicator struct {
	metric    string
	threshold int
	label     string
}

var notableIndicators = []notableIndicator{
	{models.MetricPerplexity, 60, "low n-gram entropy"},
	{models.MetricBurstiness, 60, "uniform sentence rhythm"},
	{models.MetricAIIndicatorScore, 30, "AI-typical phrasing"},
	{models.MetricVocabularyDiversity, 60, "limited vocabulary range"},
}

// buildRationale renders the human-readable explanation: the LLM
// reasoning first, then up to four notable statistical indicators, then
// an agreement tag when the two signals can be compared.
func buildRationale(stats models.StatisticalBreakdown, llm *models.LLMJudgment, statScore int) string {
	var parts []string

	if llm != nil {
		parts = append(parts, "LLM Analysis: "+llm.Reasoning)
	}

	if stats != nil {
		var flagged []string
		for _, ind := range notableIndicators {
			if score, ok := stats[ind.metric]; ok && score > ind.threshold {
				flagged = append(flagged, fmt.Sprintf("%s (%s %d)", ind.label, ind.metric, score))
			}
		}
		if len(flagged) > 0 {
			parts = append(parts, "Statistical indicators: "+strings.Join(flagged, ", "))
		}
	}

	if stats != nil && llm != nil {
		diff := llm.Likelihood - statScore
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff < 20:
			parts = append(parts, "High confidence: statistical and LLM analysis agree")
		case diff <= 40:
			parts = append(parts, "Moderate confidence: statistical and LLM analysis partially agree")
		}
	}

	return strings.Join(parts, ". ")
}
