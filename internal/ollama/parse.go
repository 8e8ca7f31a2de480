package ollama

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zombar/aidetect/internal/models"
)

// The model returns arbitrary text. Strategies are tried in order of
// decreasing strictness; the first valid judgment wins. A strategy that
// cannot produce one simply reports failure, the loop moves on.
type parseStrategy struct {
	method models.ParsingMethod
	parse  func(reply string) (*models.LLMJudgment, bool)
}

var strategies = []parseStrategy{
	{models.ParseStructured, parseStructuredJSON},
	{models.ParseMarkdown, parseFencedJSON},
	{models.ParseKeyValue, parseKeyValue},
	{models.ParseRegex, parseLooseRegex},
	{models.ParseFallback, parseKeywordFallback},
}

// ParseJudgment runs the reply through the strategy waterfall.
func ParseJudgment(reply string) (*models.LLMJudgment, error) {
	for _, s := range strategies {
		if judgment, ok := s.parse(reply); ok {
			judgment.ParsingMethod = s.method
			return judgment, nil
		}
	}
	return nil, ErrUnparseable
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	likelihoodKVRe = regexp.MustCompile(`(?i)(?:likelihood|probability)[^\d]*(\d+)\s*%?`)
	confidenceKVRe = regexp.MustCompile(`(?i)confidence[^\d]*(\d+)\s*%?`)
	reasoningKVRe  = regexp.MustCompile(`(?i)(?:reasoning|explanation)\s*[:\-]\s*(.+)`)

	likelihoodLooseRe = regexp.MustCompile(`(?i)(\d+)\s*%\s*(?:ai|artificial|generated)`)
	confidenceLooseRe = regexp.MustCompile(`(?i)(\d+)\s*%\s*(?:confidence|sure)`)
	reasoningLooseRe  = regexp.MustCompile(`(?i)(?:because|reason|analysis)[:\s]+([^.!?]+)`)

	aiKeywordRe     = regexp.MustCompile(`(?i)\b(?:ai|artificial)\b`)
	humanKeywordRe  = regexp.MustCompile(`(?i)\b(?:human|person)\b`)
	strongKeywordRe = regexp.MustCompile(`(?i)\b(?:definitely|clearly)\b`)
	weakKeywordRe   = regexp.MustCompile(`(?i)\b(?:probably|likely)\b`)
)

// parseStructuredJSON finds the first balanced JSON object in the reply
// and accepts it when it exposes numeric likelihood and confidence.
// Objects living inside a code fence belong to the markdown strategy.
func parseStructuredJSON(reply string) (*models.LLMJudgment, bool) {
	if fence := strings.Index(reply, "```"); fence >= 0 && fence < strings.IndexByte(reply, '{') {
		return nil, false
	}
	obj, ok := firstBalancedObject(reply)
	if !ok {
		return nil, false
	}
	return judgmentFromJSON(obj)
}

// parseFencedJSON extracts the first fenced code block and parses it.
func parseFencedJSON(reply string) (*models.LLMJudgment, bool) {
	m := fencedJSONRe.FindStringSubmatch(reply)
	if m == nil {
		return nil, false
	}
	return judgmentFromJSON(m[1])
}

// judgmentFromJSON decodes a candidate object and validates the scores.
func judgmentFromJSON(raw string) (*models.LLMJudgment, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}

	likelihood, okL := numericField(obj, "likelihood")
	confidence, okC := numericField(obj, "confidence")
	if !okL || !okC {
		return nil, false
	}

	reasoning, _ := obj["reasoning"].(string)
	var indicators []string
	if rawList, ok := obj["key_indicators"].([]any); ok {
		for _, item := range rawList {
			if s, ok := item.(string); ok {
				indicators = append(indicators, s)
			}
		}
	}

	return models.NewLLMJudgment(likelihood, confidence, reasoning, indicators, ""), true
}

// numericField extracts a finite number from a decoded JSON object.
func numericField(obj map[string]any, key string) (int, bool) {
	f, ok := obj[key].(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

// firstBalancedObject returns the first brace-balanced {...} span.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseKeyValue pulls "likelihood: 85%" style pairs out of prose. Both
// scores must be present.
func parseKeyValue(reply string) (*models.LLMJudgment, bool) {
	likelihood, okL := firstIntMatch(likelihoodKVRe, reply)
	confidence, okC := firstIntMatch(confidenceKVRe, reply)
	if !okL || !okC {
		return nil, false
	}

	reasoning := ""
	if m := reasoningKVRe.FindStringSubmatch(reply); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	return models.NewLLMJudgment(likelihood, confidence, reasoning, nil, ""), true
}

// parseLooseRegex matches "85% AI" style fragments. Confidence defaults
// to 50 when the reply names none.
func parseLooseRegex(reply string) (*models.LLMJudgment, bool) {
	likelihood, ok := firstIntMatch(likelihoodLooseRe, reply)
	if !ok {
		return nil, false
	}

	confidence := 50
	if c, ok := firstIntMatch(confidenceLooseRe, reply); ok {
		confidence = c
	}

	reasoning := ""
	if m := reasoningLooseRe.FindStringSubmatch(reply); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	return models.NewLLMJudgment(likelihood, confidence, reasoning, nil, ""), true
}

// parseKeywordFallback scores a wholly unstructured reply from keyword
// hits alone, starting at likelihood 50, confidence 30.
func parseKeywordFallback(reply string) (*models.LLMJudgment, bool) {
	if strings.TrimSpace(reply) == "" {
		return nil, false
	}

	likelihood, confidence := 50, 30
	var indicators []string

	if aiKeywordRe.MatchString(reply) {
		likelihood += 30
		indicators = append(indicators, "mentions AI")
	}
	if humanKeywordRe.MatchString(reply) {
		likelihood -= 30
		indicators = append(indicators, "mentions human authorship")
	}
	if strongKeywordRe.MatchString(reply) {
		confidence += 20
		indicators = append(indicators, "strong assertion language")
	}
	if weakKeywordRe.MatchString(reply) {
		confidence += 10
		indicators = append(indicators, "hedged assertion language")
	}

	return models.NewLLMJudgment(likelihood, confidence,
		"Keyword-based estimate from unstructured model reply", indicators, ""), true
}

// firstIntMatch returns the first capture group of re as an int.
func firstIntMatch(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
