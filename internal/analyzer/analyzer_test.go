package analyzer

import (
	"strings"
	"testing"

	"github.com/zombar/aidetect/internal/models"
)

func TestAnalyzeProducesAllMetrics(t *testing.T) {
	text := `Climate change is a pressing global issue. Scientists have documented a steady increase in global temperatures.
	The effects are devastating: rising sea levels, extreme weather events, and loss of biodiversity.
	Many experts believe decisive action is achievable with renewable energy adoption.`

	breakdown := Analyze(Tokenize(text))

	for _, name := range models.MetricNames {
		score, ok := breakdown[name]
		if !ok {
			t.Errorf("metric %s missing from breakdown", name)
			continue
		}
		if score < 0 || score > 100 {
			t.Errorf("metric %s out of range: %d", name, score)
		}
	}
}

func TestNeutralScoresForDegenerateInput(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check string
	}{
		{"too few words for perplexity", "one two three.", models.MetricPerplexity},
		{"too few sentences for burstiness", "Just one sentence here.", models.MetricBurstiness},
		{"too few sentences for variance", "Just one sentence here.", models.MetricSentenceLengthVariance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := Analyze(Tokenize(tt.text))
			if breakdown[tt.check] != neutralScore {
				t.Errorf("expected neutral %d for %s, got %d", neutralScore, tt.check, breakdown[tt.check])
			}
		})
	}
}

func TestRepetitiveTextScoresHigh(t *testing.T) {
	text := strings.Repeat("The system processes data. ", 100)
	breakdown := Analyze(Tokenize(text))

	if breakdown[models.MetricRepetitionScore] < 80 {
		t.Errorf("expected repetition score >= 80, got %d", breakdown[models.MetricRepetitionScore])
	}
	if breakdown[models.MetricVocabularyDiversity] < 80 {
		t.Errorf("expected vocabulary diversity >= 80, got %d", breakdown[models.MetricVocabularyDiversity])
	}
	if breakdown[models.MetricBurstiness] < 90 {
		t.Errorf("expected burstiness near 100 for uniform sentences, got %d", breakdown[models.MetricBurstiness])
	}
	if breakdown[models.MetricPerplexity] < 60 {
		t.Errorf("expected elevated perplexity score for low-entropy text, got %d", breakdown[models.MetricPerplexity])
	}
}

func TestVariedHumanTextScoresLower(t *testing.T) {
	text := `I went fishing yesterday. Caught nothing, which figures. My uncle swears by dawn trips, but honestly?
	The whole charm is sitting there doing absolutely nothing while the radio crackles. A heron landed close by.
	We stared at each other for what felt like a full minute before it lost interest in me entirely.`

	breakdown := Analyze(Tokenize(text))

	if breakdown[models.MetricRepetitionScore] > 30 {
		t.Errorf("expected low repetition for varied text, got %d", breakdown[models.MetricRepetitionScore])
	}
	if breakdown[models.MetricAIIndicatorScore] > 20 {
		t.Errorf("expected low AI-indicator score for casual prose, got %d", breakdown[models.MetricAIIndicatorScore])
	}
}

func TestAIIndicatorScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"no markers", "the cat sat on the mat", 0},
		{"single indicator word", "furthermore the cat sat", 10},
		{"repeated indicator word", "furthermore and furthermore", 20},
		{"generic phrase", "it is important to note the cat sat", 15},
		{"phrase and word", "moreover, it is important to note this", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aiIndicatorScore(tt.text); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestAIIndicatorScoreCap(t *testing.T) {
	text := strings.Repeat("furthermore ", 30)
	if got := aiIndicatorScore(text); got != 100 {
		t.Errorf("expected capped score 100, got %d", got)
	}
}

func TestHedgeWordDensity(t *testing.T) {
	// 4 hedge words out of 10: density 40, score capped at 100.
	heavy := extractWords("perhaps possibly likely arguably one two three four five six")
	if got := hedgeWordDensityScore(heavy); got != 100 {
		t.Errorf("expected 100 for hedge-heavy text, got %d", got)
	}

	clean := extractWords("the cat sat on the mat and stayed there all day")
	if got := hedgeWordDensityScore(clean); got != 0 {
		t.Errorf("expected 0 for hedge-free text, got %d", got)
	}
}

func TestPassiveVoiceRatio(t *testing.T) {
	passive := []string{
		"the report was completed by the committee",
		"mistakes were committed",
	}
	if got := passiveVoiceRatioScore(passive); got != 100 {
		t.Errorf("expected 100 for fully passive text, got %d", got)
	}

	active := []string{
		"the committee wrote the report",
		"we all make mistakes",
	}
	if got := passiveVoiceRatioScore(active); got != 0 {
		t.Errorf("expected 0 for active text, got %d", got)
	}
}

func TestEnsembleWeightedScore(t *testing.T) {
	breakdown := models.StatisticalBreakdown{}
	for _, name := range models.MetricNames {
		breakdown[name] = 80
	}

	res := Ensemble(breakdown, nil)
	if res.StatisticalScore != 80 {
		t.Errorf("expected statistical score 80, got %d", res.StatisticalScore)
	}
	if res.Likelihood != 80 {
		t.Errorf("expected stats-only likelihood 80, got %d", res.Likelihood)
	}
	// All metrics agree exactly, so confidence is maximal.
	if res.Confidence != 100 {
		t.Errorf("expected confidence 100 for perfectly agreeing metrics, got %d", res.Confidence)
	}
}

func TestEnsembleRenormalizesMissingMetrics(t *testing.T) {
	breakdown := models.StatisticalBreakdown{
		models.MetricPerplexity: 100,
	}

	res := Ensemble(breakdown, nil)
	if res.StatisticalScore != 100 {
		t.Errorf("expected renormalized score 100, got %d", res.StatisticalScore)
	}
}

func TestEnsembleWithLLM(t *testing.T) {
	breakdown := models.StatisticalBreakdown{}
	for _, name := range models.MetricNames {
		breakdown[name] = 80
	}
	llm := models.NewLLMJudgment(78, 70, "clean structure", nil, models.ParseStructured)

	res := Ensemble(breakdown, llm)

	// 0.7*78 + 0.3*80 = 78.6 -> 79
	if res.Likelihood != 79 {
		t.Errorf("expected fused likelihood 79, got %d", res.Likelihood)
	}
	// 0.7*70 + 0.3*(100-2) = 78.4 -> 78
	if res.Confidence != 78 {
		t.Errorf("expected fused confidence 78, got %d", res.Confidence)
	}
}

func TestEnsembleConfidenceCap(t *testing.T) {
	breakdown := models.StatisticalBreakdown{}
	for _, name := range models.MetricNames {
		breakdown[name] = 100
	}
	llm := models.NewLLMJudgment(100, 100, "certain", nil, models.ParseStructured)

	res := Ensemble(breakdown, llm)
	if res.Confidence != 95 {
		t.Errorf("expected confidence capped at 95, got %d", res.Confidence)
	}
}

func TestAnalyzeScoresAlwaysInRange(t *testing.T) {
	samples := []string{
		"",
		"one",
		"One short sentence.",
		strings.Repeat("furthermore moreover additionally ", 50),
		strings.Repeat("a. ", 200),
		"The report was compiled and reviewed. It was then archived. Everything seemed settled and finished.",
	}

	for _, text := range samples {
		breakdown := Analyze(Tokenize(text))
		for name, score := range breakdown {
			if score < 0 || score > 100 {
				t.Errorf("metric %s out of range for %q: %d", name, text, score)
			}
		}
	}
}
