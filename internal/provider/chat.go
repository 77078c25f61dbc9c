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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// openAICompatible is the shared plumbing for vendors that speak the OpenAI
// /chat/completions and /audio/transcriptions dialect.
type openAICompatible struct {
	name string
	cfg  config.ProviderConfig
	http *retryhttp.Client
}

func (c *openAICompatible) transcribe(ctx context.Context, clip *audio.Clip, contextHint, languageHint string) (transcription.Result, error) {
	req, err := transcription.NewWhisperRequest(ctx, transcription.WhisperRequest{
		Endpoint:     strings.TrimRight(c.cfg.BaseURL, "/") + "/audio/transcriptions",
		APIKey:       c.cfg.APIKey,
		Model:        c.cfg.ASRModel,
		FileName:     clip.FileName,
		MimeType:     clip.MimeType,
		Audio:        clip.Bytes,
		Prompt:       contextHint,
		LanguageHint: languageHint,
	})
	if err != nil {
		return transcription.Result{}, err
	}
	resp, err := c.http.Execute(req)
	if err != nil {
		return transcription.Result{}, fmt.Errorf("%s transcribe: %w", c.name, err)
	}
	if !resp.OK() {
		return transcription.Result{}, &StatusError{Provider: c.name, Op: "transcribe", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return transcription.ParseWhisperResponse(resp.Body)
}

func (c *openAICompatible) complete(ctx context.Context, op string, body chatRequest) (string, error) {
	body.Model = c.cfg.ChatModel
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Execute(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", c.name, op, err)
	}
	if !resp.OK() {
		return "", &StatusError{Provider: c.name, Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return extractor.ChoicesContent(resp.Body), nil
}

func (c *openAICompatible) translate(ctx context.Context, req TranslateRequest) (string, error) {
	content, err := c.complete(ctx, "translate", chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: extractor.TranslationSystemMessage},
			{Role: "user", Content: translationUserPrompt(req)},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}
	if out := cleanTranslation(content); out != "" {
		return out, nil
	}
	return req.Text, nil
}

func (c *openAICompatible) classify(ctx context.Context, req ClassifyRequest, jsonMode bool) (extractor.Analysis, error) {
	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: instructionsOrDefault(req.Instructions)},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: 0.1,
		MaxTokens:   1200,
	}
	if jsonMode {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}
	content, err := c.complete(ctx, "classify", body)
	if err != nil {
		return extractor.Analysis{}, err
	}
	a, err := extractor.ParseVendorJSON(content)
	if err != nil {
		return extractor.Analysis{}, fmt.Errorf("%s classify: %w", c.name, err)
	}
	a.Model = c.cfg.ChatModel
	return a, nil
}

func instructionsOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return extractor.AnalysisSystemMessage
	}
	return s
}

// cleanTranslation trims whitespace and the quotes models like to echo back.
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
