package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names known to the registry.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultContextHint primes speech recognition with site vocabulary.
const DefaultContextHint = "This is a voice note from a construction site shared between project stakeholders. " +
	"It may contain updates, requests for approval, or action items. Common terms: concrete, scaffolding, " +
	"safety, foundation, rebar, excavation, slab work, formwork, shuttering, curing. The audio may be in English, " +
	"Hindi, Telugu, Tamil, Kannada, Malayalam, or other languages."

type Config struct {
	Environment     string
	LogLevel        string
	Port            string
	DatabasePath    string
	ExamplesPath    string
	DefaultProvider string
	ContextHint     string
	Providers       map[string]ProviderConfig
	HTTP            HTTPConfig
	Audio           AudioConfig
}

// ProviderConfig carries one vendor's credential and endpoints. Empty BaseURL
// means the vendor's public endpoint.
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	ASRModel  string
}

type HTTPConfig struct {
	FirstAttemptTimeout time.Duration
	RetryTimeout        time.Duration
	RetryDelay          time.Duration
	MaxAttempts         int
}

type AudioConfig struct {
	S3Region string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8080")
	v.SetDefault("database_path", "data/sitevoice.db")
	v.SetDefault("examples_path", "")
	v.SetDefault("default_provider", ProviderGroq)
	v.SetDefault("context_hint", DefaultContextHint)

	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.chat_model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.asr_model", "whisper-large-v3")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.asr_model", "whisper-1")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.chat_model", "gemini-1.5-flash")
	v.SetDefault("gemini.asr_model", "gemini-1.5-flash")

	v.SetDefault("http.first_attempt_timeout", 30*time.Second)
	v.SetDefault("http.retry_timeout", 60*time.Second)
	v.SetDefault("http.retry_delay", time.Second)
	v.SetDefault("http.max_attempts", 3)

	v.SetDefault("audio.s3_region", "")
}

// Load reads .env (if present), the optional config file already set on v and
// the process environment. Nested keys map to env vars with dots replaced by
// underscores, e.g. http.max_attempts -> HTTP_MAX_ATTEMPTS.
func Load(v *viper.Viper) (Config, error) {
	_ = godotenv.Load() // loads .env

	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// API keys keep their conventional names.
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Environment:     v.GetString("environment"),
		LogLevel:        v.GetString("log_level"),
		Port:            v.GetString("port"),
		DatabasePath:    v.GetString("database_path"),
		ExamplesPath:    v.GetString("examples_path"),
		DefaultProvider: strings.ToLower(v.GetString("default_provider")),
		ContextHint:     v.GetString("context_hint"),
		Providers:       map[string]ProviderConfig{},
		HTTP: HTTPConfig{
			FirstAttemptTimeout: v.GetDuration("http.first_attempt_timeout"),
			RetryTimeout:        v.GetDuration("http.retry_timeout"),
			RetryDelay:          v.GetDuration("http.retry_delay"),
			MaxAttempts:         v.GetInt("http.max_attempts"),
		},
		Audio: AudioConfig{S3Region: v.GetString("audio.s3_region")},
	}
	for _, name := range []string{ProviderGroq, ProviderOpenAI, ProviderGemini} {
		cfg.Providers[name] = ProviderConfig{
			APIKey:    v.GetString(name + ".api_key"),
			BaseURL:   v.GetString(name + ".base_url"),
			ChatModel: v.GetString(name + ".chat_model"),
			ASRModel:  v.GetString(name + ".asr_model"),
		}
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the pipeline cannot run with. Missing API keys are
// not an error here: a key is only required once an account selects that provider.
func (c Config) Validate() error {
	if c.HTTP.MaxAttempts < 1 {
		return fmt.Errorf("http.max_attempts must be >= 1, got %d", c.HTTP.MaxAttempts)
	}
	if c.HTTP.FirstAttemptTimeout <= 0 || c.HTTP.RetryTimeout <= 0 {
		return errors.New("http timeouts must be positive")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	return nil
}
