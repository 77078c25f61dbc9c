package transcription

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// SupportedLanguages are the codes vendors commonly report for site audio.
var SupportedLanguages = []string{
	"en", "hi", "te", "ta", "kn", "ml", "mr", "bn", "gu", "pa", "ur", "or",
	"es", "fr", "de", "pt", "it", "ru", "ar", "zh", "ja", "ko",
}

var englishNamer = display.Languages(language.English)

// NormalizeLanguage maps whatever a vendor reports ("hi", "hi-IN", "Hindi",
// "hindi") to a lowercase base code. Unknown input comes back lowercased, and
// empty input becomes "unknown".
func NormalizeLanguage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	lower := strings.ToLower(s)
	if lower == "unknown" {
		return lower
	}

	if len(lower) <= 3 || strings.ContainsAny(lower, "-_") {
		if tag, err := language.Parse(strings.ReplaceAll(lower, "_", "-")); err == nil {
			base, _ := tag.Base()
			return base.String()
		}
	}

	for _, code := range SupportedLanguages {
		if strings.EqualFold(englishNamer.Name(language.Make(code)), lower) {
			return code
		}
	}
	if tag, err := language.Parse(lower); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	return lower
}

// IsEnglish reports whether a code normalizes to English.
func IsEnglish(code string) bool {
	return NormalizeLanguage(code) == "en"
}

// LanguageName returns the English display name for a code, or the upper-cased
// code when x/text has no name for it.
func LanguageName(code string) string {
	norm := NormalizeLanguage(code)
	if norm == "unknown" {
		return "Unknown"
	}
	if name := englishNamer.Name(language.Make(norm)); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
