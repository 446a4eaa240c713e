// Package tokens estimates and truncates text against a token budget.
//
// The estimate is a documented heuristic, not a real tokenizer: one token is
// assumed to be CharsPerToken characters. The ratio is part of the package
// contract so callers and tests can rely on exact arithmetic.
package tokens

import (
	"math"
	"strings"
	"unicode/utf8"
)

// CharsPerToken is the fixed character-to-token ratio used by Estimate.
// Roughly matches English prose under common BPE tokenizers.
const CharsPerToken = 3.5

// Ellipsis is appended when Truncate has to cut mid-sentence.
const Ellipsis = "..."

// boundaryRatio is how close (as a fraction of the cut length) a sentence or
// line boundary must be to the cut point for Truncate to prefer it over a
// hard cut.
const boundaryRatio = 0.7

// OversizeSourceChars marks source material so large that callers should
// lower their budget to OversizeFallbackTokens before truncating, to keep the
// combined prompt from crowding out history and the response reserve.
const (
	OversizeSourceChars    = 40000
	OversizeFallbackTokens = 1500
)

// Estimate returns the heuristic token count for text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / CharsPerToken))
}

// BudgetFor returns the budget to use for text given a desired maxTokens,
// applying the oversize-source fallback.
func BudgetFor(text string, maxTokens int) int {
	if len(text) > OversizeSourceChars && maxTokens > OversizeFallbackTokens {
		return OversizeFallbackTokens
	}
	return maxTokens
}

// Truncate returns text unchanged when it fits within maxTokens. Otherwise it
// cuts at floor(maxTokens * CharsPerToken) characters, preferring the later of
// the last sentence terminator or line break when that boundary lands within
// boundaryRatio of the cut length; failing that it hard-truncates and appends
// Ellipsis. The result always satisfies Estimate(result) <= maxTokens, and is
// a prefix of text (plus the optional Ellipsis). Pure and deterministic.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if Estimate(text) <= maxTokens {
		return text
	}

	cut := int(math.Floor(float64(maxTokens) * CharsPerToken))
	if cut >= len(text) {
		return text
	}
	// Do not split a multi-byte rune.
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	head := text[:cut]
	if boundary := lastBoundary(head); boundary >= int(float64(cut)*boundaryRatio) {
		return head[:boundary]
	}

	// Hard cut: give the ellipsis back its characters so the budget still holds.
	cut -= len(Ellipsis)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + Ellipsis
}

// lastBoundary returns the index just past the later of the last sentence
// terminator or the last line break in s, or -1 when neither exists.
func lastBoundary(s string) int {
	best := -1
	for _, term := range []string{".", "!", "?"} {
		if i := strings.LastIndex(s, term); i > best {
			best = i
		}
	}
	if i := strings.LastIndex(s, "\n"); i > best {
		best = i
	}
	if best < 0 {
		return -1
	}
	return best + 1
}
