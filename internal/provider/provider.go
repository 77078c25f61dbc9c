// Package provider adapts speech-to-text and LLM vendors to one interface.
// Adapters hold no state beyond their credentials; every outbound call goes
// through retryhttp.
package provider

import (
	"context"
	"errors"
	"fmt"

	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/transcription"
)

var (
	ErrUnknownProvider   = errors.New("unsupported provider")
	ErrMissingCredential = errors.New("missing provider credential")
)

// Provider is implemented once per vendor.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, clip *audio.Clip, contextHint, languageHint string) (transcription.Result, error)
	TranslateText(ctx context.Context, req TranslateRequest) (string, error)
	Classify(ctx context.Context, req ClassifyRequest) (extractor.Analysis, error)
}

// TranslateRequest carries either a fully rendered Prompt or just the text
// and target language, in which case the adapter builds its own prompt.
type TranslateRequest struct {
	Text           string
	TargetLanguage string
	Prompt         string
}

type ClassifyRequest struct {
	Instructions string
	Prompt       string
}

// StatusError is a non-2xx vendor response that retryhttp handed back as-is.
type StatusError struct {
	Provider   string
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s %s failed: status %d: %s", e.Provider, e.Op, e.StatusCode, body)
}

func translationUserPrompt(req TranslateRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return fmt.Sprintf("Translate this construction site message to %s. Keep technical construction terms in English if they don't have direct translations. Return ONLY the translation, no explanations:\n\n%q",
		transcription.LanguageName(req.TargetLanguage), req.Text)
}
