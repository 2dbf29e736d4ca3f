// Package llmimpl constructs oracle clients for configured providers with
// the standard middleware chain applied.
package llmimpl

import (
	"fmt"
	"strings"

	"mediroute/internal/llmimpl/anthropic"
	"mediroute/internal/llmimpl/google"
	"mediroute/internal/llmimpl/ollama"
	"mediroute/internal/llmimpl/openai"
	"mediroute/pkg/config"
	"mediroute/pkg/oracle"
	"mediroute/pkg/oracle/middleware/metrics"
	"mediroute/pkg/oracle/middleware/timeout"
)

// NewClient builds an oracle client for the configured model, wrapped with
// timeout and metrics middleware. The API key is read from environment
// variables based on the model's provider.
func NewClient(cfg config.OracleConfig, rec metrics.Recorder, stages metrics.StageProvider) (oracle.Client, error) {
	provider, err := config.ModelProvider(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", cfg.Model, err)
	}

	apiKey, err := config.APIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	var raw oracle.Client
	switch provider {
	case config.ProviderOpenAI:
		raw = openai.NewClient(apiKey, cfg.Model)
	case config.ProviderAnthropic:
		raw = anthropic.NewClient(apiKey, cfg.Model)
	case config.ProviderGoogle:
		raw = google.NewClient(apiKey, cfg.Model)
	case config.ProviderOllama:
		host := cfg.OllamaHost
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		raw = ollama.NewClient(host, config.OllamaModel(cfg.Model))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	return oracle.Chain(raw,
		metrics.Middleware(rec, stages),
		timeout.Middleware(cfg.Timeout),
	), nil
}
