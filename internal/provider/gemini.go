package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/config"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/retryhttp"
	"sitevoice-go/internal/transcription"
)

// Gemini sends audio inline as base64 and asks generateContent for JSON.
type Gemini struct {
	cfg  config.ProviderConfig
	http *retryhttp.Client
}

func NewGemini(cfg config.ProviderConfig, client *retryhttp.Client) *Gemini {
	return &Gemini{cfg: cfg, http: client}
}

func (g *Gemini) Name() string { return config.ProviderGemini }

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content     geminiContent `json:"content"`
		AvgLogprobs *float64      `json:"avgLogprobs"`
	} `json:"candidates"`
}

func (g *Gemini) Transcribe(ctx context.Context, clip *audio.Clip, contextHint, languageHint string) (transcription.Result, error) {
	instruction := fmt.Sprintf(`Transcribe this audio. Context: %s. Return ONLY the transcription text and detected language code (e.g., en, es, hi) in JSON format: {"text": "...", "language": "..."}`, contextHint)
	if hint := transcription.NormalizeLanguage(languageHint); hint != "unknown" {
		instruction += fmt.Sprintf(" The speaker usually talks in %s.", transcription.LanguageName(hint))
	}

	resp, err := g.generate(ctx, "transcribe", geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{
			{Text: instruction},
			{InlineData: &geminiInlineData{MimeType: clip.MimeType, Data: clip.Base64()}},
		}}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.1, MaxOutputTokens: 2000, ResponseMimeType: "application/json"},
	})
	if err != nil {
		return transcription.Result{}, err
	}

	text := firstText(resp)
	var res transcription.Result
	if len(resp.Candidates) > 0 && resp.Candidates[0].AvgLogprobs != nil {
		res.Confidence = transcription.ConfidenceFromLogProbs([]float64{*resp.Candidates[0].AvgLogprobs})
	}

	var parsed struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(stripFences(text))), &parsed); err != nil {
		res.Text = strings.TrimSpace(text)
		res.LanguageCode = "unknown"
		return res, nil
	}
	res.Text = strings.TrimSpace(parsed.Text)
	res.LanguageCode = transcription.NormalizeLanguage(parsed.Language)
	return res, nil
}

func (g *Gemini) TranslateText(ctx context.Context, req TranslateRequest) (string, error) {
	resp, err := g.generate(ctx, "translate", geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: extractor.TranslationSystemMessage}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: translationUserPrompt(req)}}}},
		GenerationConfig:  geminiGenerationConfig{Temperature: 0.3, MaxOutputTokens: 1000},
	})
	if err != nil {
		return "", err
	}
	if out := cleanTranslation(firstText(resp)); out != "" {
		return out, nil
	}
	return req.Text, nil
}

func (g *Gemini) Classify(ctx context.Context, req ClassifyRequest) (extractor.Analysis, error) {
	resp, err := g.generate(ctx, "classify", geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: instructionsOrDefault(req.Instructions)}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig:  geminiGenerationConfig{Temperature: 0.1, MaxOutputTokens: 1200, ResponseMimeType: "application/json"},
	})
	if err != nil {
		return extractor.Analysis{}, err
	}
	a, err := extractor.ParseVendorJSON(firstText(resp))
	if err != nil {
		return extractor.Analysis{}, fmt.Errorf("gemini classify: %w", err)
	}
	a.Model = g.cfg.ChatModel
	return a, nil
}

func (g *Gemini) generate(ctx context.Context, op string, body geminiRequest) (geminiResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return geminiResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	model := g.cfg.ChatModel
	if op == "transcribe" && g.cfg.ASRModel != "" {
		model = g.cfg.ASRModel
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return geminiResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.http.Execute(req)
	if err != nil {
		return geminiResponse{}, fmt.Errorf("gemini %s: %w", op, err)
	}
	if !resp.OK() {
		return geminiResponse{}, &StatusError{Provider: config.ProviderGemini, Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var out geminiResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return geminiResponse{}, fmt.Errorf("gemini %s: decode response: %w", op, err)
	}
	return out, nil
}

func firstText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	return strings.ReplaceAll(s, "```", "")
}
