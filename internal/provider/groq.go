package provider

import (
	"context"

	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/config"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/retryhttp"
	"sitevoice-go/internal/transcription"
)

// Groq runs Whisper large-v3 for speech and Llama for chat. It has no JSON
// mode, so classify output is pulled out of fenced blocks.
type Groq struct {
	api openAICompatible
}

func NewGroq(cfg config.ProviderConfig, client *retryhttp.Client) *Groq {
	return &Groq{api: openAICompatible{name: config.ProviderGroq, cfg: cfg, http: client}}
}

func (g *Groq) Name() string { return config.ProviderGroq }

func (g *Groq) Transcribe(ctx context.Context, clip *audio.Clip, contextHint, languageHint string) (transcription.Result, error) {
	return g.api.transcribe(ctx, clip, contextHint, languageHint)
}

func (g *Groq) TranslateText(ctx context.Context, req TranslateRequest) (string, error) {
	return g.api.translate(ctx, req)
}

func (g *Groq) Classify(ctx context.Context, req ClassifyRequest) (extractor.Analysis, error) {
	return g.api.classify(ctx, req, false)
}
