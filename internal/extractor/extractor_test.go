package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sitevoice-go/internal/types"
)

func TestParseVendorJSON(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantIntent string
		wantSum    string
		wantConf   float64
	}{
		{
			name:       "plain json",
			content:    `{"intent":"approval","priority":"Med","short_summary":"Need approval","confidence":0.9}`,
			wantIntent: "approval",
			wantSum:    "Need approval",
			wantConf:   0.9,
		},
		{
			name:       "fenced with prose",
			content:    "Here you go:\n```json\n{\"category\":\"action_required\",\"summary\":\"Fix railing {north}\",\"confidence\":\"85%\"}\n```\nThanks",
			wantIntent: "action_required",
			wantSum:    "Fix railing {north}",
			wantConf:   0.85,
		},
		{
			name:       "percent as number",
			content:    `{"intent":"update","summary":"Slab done","confidence":72}`,
			wantIntent: "update",
			wantSum:    "Slab done",
			wantConf:   0.72,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseVendorJSON(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, a.Intent)
			assert.Equal(t, tt.wantSum, a.ShortSummary)
			assert.InDelta(t, tt.wantConf, a.Confidence, 1e-9)
		})
	}
}

func TestParseVendorJSONErrors(t *testing.T) {
	_, err := ParseVendorJSON("I could not classify this note.")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, errors.Is(err, ErrNoJSON))

	_, err = ParseVendorJSON(`{"intent": "update", "confidence": [1,2]}`)
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "parse vendor json")
}

func TestParseVendorJSONEntities(t *testing.T) {
	content := `{
		"intent": "action_required",
		"priority": "High",
		"material_requests": [{"name": "cement", "quantity": "20 bags", "unit": "bags", "confidence": 0.8}],
		"labor": [{"trade": "mason", "headcount": "4", "duration": "2 days"}],
		"approvals": [{"approval_type": "budget", "description": "extra rebar", "amount": null}],
		"events": []
	}`
	a, err := ParseVendorJSON(content)
	require.NoError(t, err)

	require.Len(t, a.Materials, 1)
	require.NotNil(t, a.Materials[0].Quantity)
	assert.Equal(t, 20.0, a.Materials[0].Quantity.Float())
	require.Len(t, a.Labor, 1)
	assert.Equal(t, 4.0, a.Labor[0].Headcount.Float())
	require.Len(t, a.Approvals, 1)
	assert.Nil(t, a.Approvals[0].Amount.Ptr())
	assert.Equal(t, 3, a.EntityCount())
}

func TestChoicesContent(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"role":"assistant","content":"{\"intent\":\"update\"}"}}]}`)
	assert.Equal(t, `{"intent":"update"}`, ChoicesContent(body))
	assert.Equal(t, "", ChoicesContent([]byte(`{"choices":[]}`)))
	assert.Equal(t, "", ChoicesContent([]byte(`oops`)))
}

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("{{language}} -> en: {{transcript}} {{missing}}", map[string]string{
		"language":   "Hindi",
		"transcript": "kal concrete aayega",
	})
	assert.Equal(t, "Hindi -> en: kal concrete aayega {{missing}}", out)
}

func TestTranslationPromptDefault(t *testing.T) {
	out := TranslationPrompt("", "Telugu", "te", "pani ayipoyindi")
	assert.Contains(t, out, "from Telugu (te)")
	assert.Contains(t, out, `"pani ayipoyindi"`)
}

func TestBuildAnalysisPrompt(t *testing.T) {
	examples := []types.FewShotExample{{Transcript: "Railing is weak", Intent: "action_required", Priority: "High", Summary: "Fix weak railing"}}

	t.Run("template with placeholders", func(t *testing.T) {
		p := BuildAnalysisPrompt(PromptInput{
			Template:    DefaultAnalysisTemplate,
			ProjectName: "Tower B",
			SpeakerRole: "foreman",
			SpeakerName: "Ravi",
			Examples:    examples,
			Transcript:  "Need 20 bags of cement",
		})
		assert.Contains(t, p, "PROJECT: Tower B")
		assert.Contains(t, p, "SPEAKER: Ravi (foreman)")
		assert.Contains(t, p, "Fix weak railing")
		assert.Contains(t, p, `"Need 20 bags of cement"`)
		assert.True(t, strings.HasSuffix(p, AnalysisSchema))
	})

	t.Run("bare template gets context appended", func(t *testing.T) {
		p := BuildAnalysisPrompt(PromptInput{Template: "Classify the note.", Transcript: "all good"})
		assert.True(t, strings.HasPrefix(p, "Classify the note."))
		assert.Contains(t, p, "PROJECT: Unknown project")
		assert.Contains(t, p, `VOICE NOTE TEXT: "all good"`)
		assert.NotContains(t, p, "EXAMPLES:")
	})
}
