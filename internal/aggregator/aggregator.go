package aggregator

import (
	"sort"

	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/transcription"
	"sitevoice-go/internal/types"
)

// Counts is the number of extracted entities per group.
type Counts struct {
	Materials int `json:"materials"`
	Labor     int `json:"labor"`
	Approvals int `json:"approvals"`
	Events    int `json:"events"`
}

func (c Counts) Total() int {
	return c.Materials + c.Labor + c.Approvals + c.Events
}

func EntityCounts(a extractor.Analysis) Counts {
	return Counts{
		Materials: len(a.Materials),
		Labor:     len(a.Labor),
		Approvals: len(a.Approvals),
		Events:    len(a.Events),
	}
}

// RecipientLanguages returns the distinct preferred languages of users that
// need a machine translation: English and the detected source language are
// excluded since those texts already exist. Sorted for stable output.
func RecipientLanguages(users []types.User, detected string) []string {
	detected = transcription.NormalizeLanguage(detected)
	seen := map[string]bool{}
	for _, u := range users {
		lang := transcription.NormalizeLanguage(u.PreferredLanguage)
		if lang == "unknown" || lang == "en" || lang == detected {
			continue
		}
		seen[lang] = true
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
