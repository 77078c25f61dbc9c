package extractor

import (
	"fmt"
	"sort"
	"strings"

	"sitevoice-go/internal/types"
)

// AnalysisSystemMessage is sent as the system turn of every classify call.
const AnalysisSystemMessage = "You are a construction project assistant that classifies voice notes and extracts structured requests. Always respond with valid JSON only."

// AnalysisSchema is appended to every analysis prompt so the vendor knows the
// exact shape to return.
const AnalysisSchema = `Respond in EXACT JSON format (no markdown):
{
  "intent": "update" | "approval" | "action_required" | "information",
  "priority": "Low" | "Med" | "High" | "Critical",
  "short_summary": "Direct, crisp summary starting with a verb (max 15 words)",
  "detailed_summary": "Two or three sentences with the relevant specifics",
  "confidence": 0.0,
  "materials": [{"name": "", "quantity": 0, "unit": "", "needed_by": "", "confidence": 0.0}],
  "labor": [{"trade": "", "headcount": 0, "duration": "", "needed_by": "", "confidence": 0.0}],
  "approvals": [{"approval_type": "", "description": "", "amount": null, "confidence": 0.0}],
  "events": [{"event_type": "", "title": "", "description": "", "confidence": 0.0}]
}
Leave arrays empty when nothing of that kind is mentioned. Do not invent quantities.`

// DefaultAnalysisTemplate seeds the prompt registry.
const DefaultAnalysisTemplate = `You are analyzing a voice note from a construction site.

PROJECT: {{project_name}}
SPEAKER: {{speaker_name}} ({{speaker_role}})

CATEGORY DEFINITIONS:
1. "approval" - Requesting permission, approval, or authorization to proceed
2. "action_required" - Problem, concern, or urgent issue needing attention
3. "update" - Informational update about progress or status
4. "information" - General information with no progress or request

SUMMARY RULES:
- Write in ACTIVE VOICE, starting with a VERB
- NO phrases like "The speaker", "Someone is", "There is"

EXAMPLES:
{{examples}}

VOICE NOTE TEXT: "{{transcript}}"`

// DefaultTranslationTemplate seeds the prompt registry.
const DefaultTranslationTemplate = `Translate this construction site message from {{language}} ({{language_code}}) to English. Keep technical construction terms in English if they don't have direct translations. Return ONLY the translation, no explanations:

"{{transcript}}"`

// TranslationSystemMessage is the system turn for text translation.
const TranslationSystemMessage = "You are a professional translator specializing in construction industry terminology. Translate accurately while keeping technical terms clear."

// PromptInput is the context embedded into an analysis prompt.
type PromptInput struct {
	Template    string
	ProjectName string
	SpeakerRole string
	SpeakerName string
	Examples    []types.FewShotExample
	Transcript  string
}

// BuildAnalysisPrompt renders the registry template with the project,
// speaker, few-shot and transcript context, then appends the schema. A
// template without a {{transcript}} placeholder gets the context appended.
func BuildAnalysisPrompt(in PromptInput) string {
	examples := FormatExamples(in.Examples)
	vars := map[string]string{
		"project_name": orDefault(in.ProjectName, "Unknown project"),
		"speaker_role": orDefault(in.SpeakerRole, "worker"),
		"speaker_name": orDefault(in.SpeakerName, "Unknown"),
		"examples":     examples,
		"transcript":   in.Transcript,
	}

	var b strings.Builder
	b.WriteString(RenderTemplate(in.Template, vars))
	if !strings.Contains(in.Template, "{{transcript}}") {
		fmt.Fprintf(&b, "\n\nPROJECT: %s\nSPEAKER: %s (%s)\n", vars["project_name"], vars["speaker_name"], vars["speaker_role"])
		if examples != "" {
			fmt.Fprintf(&b, "\nEXAMPLES:\n%s\n", examples)
		}
		fmt.Fprintf(&b, "\nVOICE NOTE TEXT: %q", in.Transcript)
	}
	b.WriteString("\n\n")
	b.WriteString(AnalysisSchema)
	return b.String()
}

// FormatExamples renders few-shot examples one per block.
func FormatExamples(examples []types.FewShotExample) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Text: %q\n-> intent=%s priority=%s summary=%q\n", ex.Transcript, ex.Intent, ex.Priority, ex.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderTemplate substitutes {{key}} placeholders. Unknown placeholders are
// left in place.
func RenderTemplate(tmpl string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// TranslationPrompt renders a translation template for one source language.
func TranslationPrompt(tmpl, languageName, languageCode, text string) string {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTranslationTemplate
	}
	return RenderTemplate(tmpl, map[string]string{
		"language":      languageName,
		"language_code": languageCode,
		"transcript":    text,
		"text":          text,
	})
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
