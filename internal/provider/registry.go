package provider

import (
	"fmt"
	"strings"

	"sitevoice-go/internal/config"
	"sitevoice-go/internal/retryhttp"
)

// Registry builds adapters by provider name from injected configuration.
type Registry struct {
	cfg    config.Config
	client *retryhttp.Client
}

func NewRegistry(cfg config.Config, client *retryhttp.Client) *Registry {
	return &Registry{cfg: cfg, client: client}
}

// Resolve returns the adapter for name. An empty name selects the configured
// default provider. Unknown names and missing API keys are hard failures.
func (r *Registry) Resolve(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.cfg.DefaultProvider
	}
	if name == "" {
		name = config.ProviderGroq
	}

	pc, ok := r.cfg.Providers[name]
	switch name {
	case config.ProviderGroq, config.ProviderOpenAI, config.ProviderGemini:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if !ok || pc.APIKey == "" {
		return nil, fmt.Errorf("%w: %s_API_KEY not set", ErrMissingCredential, strings.ToUpper(name))
	}

	switch name {
	case config.ProviderOpenAI:
		return NewOpenAI(pc, r.client), nil
	case config.ProviderGemini:
		return NewGemini(pc, r.client), nil
	default:
		return NewGroq(pc, r.client), nil
	}
}
