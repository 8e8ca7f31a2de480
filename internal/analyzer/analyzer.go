package analyzer

import (
	"math"
	"regexp"
	"strings"

	"github.com/zombar/aidetect/internal/models"
)

// neutralScore is returned for any metric whose input is too small to judge.
const neutralScore = 50

// metricWeights is the fixed convex combination used for the statistical
// score. The weights sum to 1.00.
var metricWeights = map[string]float64{
	models.MetricPerplexity:             0.20,
	models.MetricBurstiness:             0.15,
	models.MetricVocabularyDiversity:    0.15,
	models.MetricSentenceLengthVariance: 0.10,
	models.MetricAIIndicatorScore:       0.15,
	models.MetricHedgeWordDensity:       0.10,
	models.MetricPassiveVoiceRatio:      0.05,
	models.MetricRepetitionScore:        0.10,
}

// Analyze computes the eight linguistic metrics over tokenized text.
// Every score is an integer in [0,100] where higher means more AI-like.
func Analyze(tokens models.TokenizedText) models.StatisticalBreakdown {
	return models.StatisticalBreakdown{
		models.MetricPerplexity:             perplexityScore(tokens.Words),
		models.MetricBurstiness:             burstinessScore(tokens.Sentences),
		models.MetricVocabularyDiversity:    vocabularyDiversityScore(tokens.Words),
		models.MetricSentenceLengthVariance: sentenceLengthVarianceScore(tokens.Sentences),
		models.MetricAIIndicatorScore:       aiIndicatorScore(tokens.Normalized),
		models.MetricHedgeWordDensity:       hedgeWordDensityScore(tokens.Words),
		models.MetricPassiveVoiceRatio:      passiveVoiceRatioScore(tokens.Sentences),
		models.MetricRepetitionScore:        repetitionScore(tokens.Words),
	}
}

// EnsembleResult is the statistical-side fusion of the metric scores,
// optionally blended with an LLM judgment.
type EnsembleResult struct {
	Likelihood       int
	Confidence       int
	StatisticalScore int
	Breakdown        models.StatisticalBreakdown
}

// Ensemble combines the metric scores into a single statistical score via
// the fixed weights, renormalizing when metrics are missing. With an LLM
// judgment present the likelihood is 0.7*LLM + 0.3*stats and the confidence
// carries an agreement bonus capped at 95.
func Ensemble(stats models.StatisticalBreakdown, llm *models.LLMJudgment) EnsembleResult {
	var weighted, weightSum float64
	for name, weight := range metricWeights {
		score, ok := stats[name]
		if !ok {
			continue
		}
		weighted += weight * float64(score)
		weightSum += weight
	}

	statScore := neutralScore
	if weightSum > 0 {
		statScore = models.ClampScore(int(math.Round(weighted / weightSum)))
	}

	res := EnsembleResult{
		StatisticalScore: statScore,
		Breakdown:        stats,
	}

	if llm == nil {
		res.Likelihood = statScore
		res.Confidence = statsOnlyConfidence(stats, statScore)
		return res
	}

	diff := math.Abs(float64(llm.Likelihood - statScore))
	res.Likelihood = models.ClampScore(int(math.Round(0.7*float64(llm.Likelihood) + 0.3*float64(statScore))))
	confidence := int(math.Round(0.7*float64(llm.Confidence) + 0.3*(100-diff)))
	if confidence > 95 {
		confidence = 95
	}
	res.Confidence = models.ClampScore(confidence)
	return res
}

// statsOnlyConfidence estimates reliability from metric agreement: the
// closer the individual metrics sit to the weighted score, the higher the
// confidence.
func statsOnlyConfidence(stats models.StatisticalBreakdown, statScore int) int {
	if len(stats) == 0 {
		return 0
	}
	var deviation float64
	for _, score := range stats {
		deviation += math.Abs(float64(score - statScore))
	}
	mad := deviation / float64(len(stats))
	return models.ClampScore(int(math.Round(100 - 2*mad)))
}

// perplexityScore approximates model perplexity with the entropy of the
// observed bigram and trigram distributions. AI text exhibits lower
// n-gram entropy.
func perplexityScore(words []string) int {
	if len(words) < 4 {
		return neutralScore
	}

	bigrams := make(map[string]int)
	for i := 0; i+1 < len(words); i++ {
		bigrams[words[i]+" "+words[i+1]]++
	}
	trigrams := make(map[string]int)
	for i := 0; i+2 < len(words); i++ {
		trigrams[words[i]+" "+words[i+1]+" "+words[i+2]]++
	}

	avgEntropy := (entropy(bigrams) + entropy(trigrams)) / 2
	return models.ClampScore(int(math.Round((6 - avgEntropy) * 16.67)))
}

// entropy computes H = -sum p*log2(p) over a frequency map.
func entropy(freq map[string]int) float64 {
	total := 0
	for _, count := range freq {
		total += count
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, count := range freq {
		p := float64(count) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// burstinessScore measures sentence-length variability. Humans are
// burstier; flat rhythm scores high.
func burstinessScore(sentences []string) int {
	if len(sentences) < 3 {
		return neutralScore
	}

	mean, stddev := sentenceLengthStats(sentences)
	if mean == 0 {
		return neutralScore
	}
	return models.ClampScore(int(math.Round((1 - stddev/mean) * 100)))
}

// vocabularyDiversityScore scores low type/token ratios as AI-like.
func vocabularyDiversityScore(words []string) int {
	if len(words) < 1 {
		return neutralScore
	}

	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[w] = true
	}
	diversity := float64(len(unique)) / float64(len(words))
	return models.ClampScore(int(math.Round((1 - diversity) * 120)))
}

// sentenceLengthVarianceScore is a second, steeper view on rhythm flatness.
func sentenceLengthVarianceScore(sentences []string) int {
	if len(sentences) < 2 {
		return neutralScore
	}

	mean, stddev := sentenceLengthStats(sentences)
	if mean == 0 {
		return neutralScore
	}
	return models.ClampScore(int(math.Round((0.5 - stddev/mean) * 200)))
}

// sentenceLengthStats returns the mean and population standard deviation
// of per-sentence word counts.
func sentenceLengthStats(sentences []string) (mean, stddev float64) {
	lengths := make([]float64, len(sentences))
	var sum float64
	for i, s := range sentences {
		lengths[i] = float64(len(extractWords(s)))
		sum += lengths[i]
	}
	mean = sum / float64(len(lengths))

	var variance float64
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	variance /= float64(len(lengths))
	return mean, math.Sqrt(variance)
}

var aiIndicatorRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(aiIndicatorWords))
	for i, word := range aiIndicatorWords {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return res
}()

// aiIndicatorScore scans for AI-typical discourse markers (+10 per
// word-boundary match) and stock generic phrases (+15 per containment
// match). A phrase containing an indicator word counts both.
func aiIndicatorScore(normalized string) int {
	lower := strings.ToLower(normalized)

	score := 0
	for _, re := range aiIndicatorRes {
		score += 10 * len(re.FindAllStringIndex(lower, -1))
	}
	for _, phrase := range genericPhrases {
		score += 15 * strings.Count(lower, phrase)
	}

	if score > 100 {
		score = 100
	}
	return score
}

// hedgeWordDensityScore scores the density of hedging vocabulary.
func hedgeWordDensityScore(words []string) int {
	if len(words) < 1 {
		return neutralScore
	}

	count := 0
	for _, w := range words {
		if hedgeWords[w] {
			count++
		}
	}
	density := float64(count) / float64(len(words)) * 100
	score := int(math.Round(density * 20))
	if score > 100 {
		score = 100
	}
	return score
}

// passiveVoiceRatioScore counts a sentence as passive when it contains a
// form of "to be" together with a token ending in "ed". The heuristic
// assumes Latin-ish tokenization.
func passiveVoiceRatioScore(sentences []string) int {
	if len(sentences) < 1 {
		return neutralScore
	}

	passive := 0
	for _, s := range sentences {
		words := extractWords(s)
		hasBe, hasEd := false, false
		for _, w := range words {
			if beForms[w] {
				hasBe = true
			}
			if strings.HasSuffix(w, "ed") {
				hasEd = true
			}
		}
		if hasBe && hasEd {
			passive++
		}
	}

	ratio := float64(passive) / float64(len(sentences)) * 100
	score := int(math.Round(ratio * 2))
	if score > 100 {
		score = 100
	}
	return score
}

// repetitionScore penalizes words longer than 3 characters repeated more
// than twice: +5 per occurrence beyond the second, capped at 100.
func repetitionScore(words []string) int {
	freq := make(map[string]int)
	for _, w := range words {
		if len(w) > 3 {
			freq[w]++
		}
	}

	score := 0
	for _, count := range freq {
		if count > 2 {
			score += (count - 2) * 5
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}
