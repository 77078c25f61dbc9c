package provider

import (
	"context"

	"sitevoice-go/internal/audio"
	"sitevoice-go/internal/config"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/retryhttp"
	"sitevoice-go/internal/transcription"
)

// OpenAI uses whisper-1 and a chat model with JSON mode enabled for classify.
type OpenAI struct {
	api openAICompatible
}

func NewOpenAI(cfg config.ProviderConfig, client *retryhttp.Client) *OpenAI {
	return &OpenAI{api: openAICompatible{name: config.ProviderOpenAI, cfg: cfg, http: client}}
}

func (o *OpenAI) Name() string { return config.ProviderOpenAI }

func (o *OpenAI) Transcribe(ctx context.Context, clip *audio.Clip, contextHint, languageHint string) (transcription.Result, error) {
	return o.api.transcribe(ctx, clip, contextHint, languageHint)
}

func (o *OpenAI) TranslateText(ctx context.Context, req TranslateRequest) (string, error) {
	return o.api.translate(ctx, req)
}

func (o *OpenAI) Classify(ctx context.Context, req ClassifyRequest) (extractor.Analysis, error) {
	return o.api.classify(ctx, req, true)
}
