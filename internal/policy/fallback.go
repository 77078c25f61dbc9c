package policy

import (
	"strings"
	"unicode/utf8"

	"sitevoice-go/internal/extractor"
)

const (
	FallbackModel      = "local-keyword-fallback"
	FallbackConfidence = 0.5
	SummaryMaxLen      = 100
)

var approvalKeywords = []string{
	"please approve", "approve", "shall we", "can we", "should we",
	"may we", "permission", "authorize", "thinking of", "planning to",
	"want to", "would like to", "requesting", "need approval",
}

var problemKeywords = []string{
	"problem", "issue", "urgent", "danger", "weak", "broken",
	"collapsed", "unsafe", "fix", "help", "emergency",
}

// FallbackClassify is the local keyword classifier used when no analysis
// prompt is configured or the vendor call fails.
func FallbackClassify(text string) extractor.Analysis {
	lower := strings.ToLower(text)
	a := extractor.Analysis{
		Confidence:   FallbackConfidence,
		Model:        FallbackModel,
		ShortSummary: Truncate(text, SummaryMaxLen),
	}
	switch {
	case containsAny(lower, approvalKeywords):
		a.Intent, a.Priority = string(IntentApproval), string(PriorityMed)
		a.DetailedSummary = "Detected approval request (fallback classification)"
	case containsAny(lower, problemKeywords):
		a.Intent, a.Priority = string(IntentActionRequired), string(PriorityHigh)
		a.DetailedSummary = "Detected problem or concern (fallback classification)"
	default:
		a.Intent, a.Priority = string(IntentUpdate), string(PriorityLow)
		a.DetailedSummary = "General update (fallback classification)"
	}
	return a
}

// Backfill fills empty summaries from the transcript and clamps confidence.
func Backfill(a extractor.Analysis, transcript string) extractor.Analysis {
	if strings.TrimSpace(a.ShortSummary) == "" {
		a.ShortSummary = Truncate(transcript, SummaryMaxLen)
	}
	if strings.TrimSpace(a.DetailedSummary) == "" {
		a.DetailedSummary = a.ShortSummary
	}
	switch {
	case a.Confidence < 0:
		a.Confidence = 0
	case a.Confidence > 1:
		a.Confidence = 1
	}
	return a
}

// Truncate cuts s to at most n runes without splitting a character.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
