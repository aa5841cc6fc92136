// Package llm wraps the text-generation providers used to describe legal
// procedures.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generator produces free text for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names a text-generation backend
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOllamaModel    = "llama3"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

var (
	ErrMissingAPIKey   = errors.New("api key not configured")
	ErrUnknownProvider = errors.New("unknown enrichment provider")
)

// Config selects and configures one provider.
type Config struct {
	Provider        Provider
	GeminiAPIKey    string
	GeminiModel     string
	OllamaHost      string
	OllamaModel     string
	AnthropicAPIKey string
	AnthropicModel  string
}

// ParseProvider validates a provider name. Empty means gemini.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProviderGemini, nil
	case ProviderGemini, ProviderOllama, ProviderAnthropic:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

// New builds the generator named by cfg.Provider
func New(ctx context.Context, cfg Config) (Generator, error) {
	var (
		g   Generator
		err error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		g, err = NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderOllama:
		g, err = NewOllamaGenerator(cfg.OllamaHost, cfg.OllamaModel)
	case ProviderAnthropic:
		g, err = NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}
