package analyzer

import (
	"regexp"
	"strings"

	"github.com/zombar/aidetect/internal/models"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]+`)
	nonWordCharRe  = regexp.MustCompile(`[^\w\s]`)
	curlyQuoteRepl = strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
	)
)

// Tokenize normalizes the text and splits it into sentence and word streams.
// Sentences are split on runs of '.', '!' and '?'; words are lowercased with
// punctuation stripped. Both streams preserve document order.
func Tokenize(text string) models.TokenizedText {
	normalized := normalizeText(text)

	return models.TokenizedText{
		Sentences:  splitSentences(normalized),
		Words:      extractWords(normalized),
		Normalized: normalized,
	}
}

// normalizeText collapses whitespace runs, unifies curly quotes and trims.
func normalizeText(text string) string {
	text = curlyQuoteRepl.Replace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitSentences splits text on sentence-ending punctuation runs,
// trimming each sentence and dropping empties.
func splitSentences(text string) []string {
	parts := sentenceEndRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// extractWords extracts all words from text, lowercased with punctuation removed.
func extractWords(text string) []string {
	text = strings.ToLower(text)
	text = nonWordCharRe.ReplaceAllString(text, " ")
	return strings.Fields(text)
}
