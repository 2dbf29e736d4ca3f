// Package config provides configuration loading and validation for the
// MediRoute service.
//
// Configuration is split into three concerns:
//
//   - A YAML config file for operator-tunable settings (oracle model, call
//     timeout, session eviction policy, server address). Missing fields fall
//     back to defaults; a missing file means pure defaults.
//   - Environment variables for secrets. API keys are never stored in the
//     config file: they are read from OPENAI_API_KEY, ANTHROPIC_API_KEY and
//     GEMINI_API_KEY based on the provider inferred from the model name.
//   - Hardcoded constants for algorithm parameters users should not modify
//     (candidate cap, LOA validity window, geocode fallback).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifiers for oracle backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// providerPatterns maps model-name prefixes to providers. Checked in order;
// an explicit "ollama/" prefix always selects the local backend.
var providerPatterns = []struct {
	prefix   string
	provider string
}{
	{"ollama/", ProviderOllama},
	{"claude-", ProviderAnthropic},
	{"gemini-", ProviderGoogle},
	{"gpt-", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
}

// OracleConfig holds settings for the text-generation oracle.
type OracleConfig struct {
	// Model selects the backend via provider inference, e.g. "gpt-4o-mini",
	// "claude-sonnet-4-5", "gemini-2.0-flash", "ollama/llama3.1".
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	// OllamaHost is the local Ollama server URL, used only for ollama/ models.
	OllamaHost string `yaml:"ollama_host"`
}

// SessionConfig holds session store eviction policy.
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxSessions int           `yaml:"max_sessions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration record.
type Config struct {
	Oracle  OracleConfig  `yaml:"oracle"`
	Session SessionConfig `yaml:"session"`
	Server  ServerConfig  `yaml:"server"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Oracle: OracleConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
			OllamaHost:  "http://localhost:11434",
		},
		Session: SessionConfig{
			TTL:         30 * time.Minute,
			MaxSessions: 1000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the YAML config file at path, layered over defaults.
// A missing file is not an error: defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Oracle.Model == "" {
		return fmt.Errorf("oracle model cannot be empty")
	}
	if c.Oracle.Temperature < 0.0 || c.Oracle.Temperature > 2.0 {
		return fmt.Errorf("oracle temperature must be between 0.0 and 2.0")
	}
	if c.Oracle.MaxTokens <= 0 {
		return fmt.Errorf("oracle max_tokens must be positive")
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session max_sessions must be positive")
	}
	if _, err := ModelProvider(c.Oracle.Model); err != nil {
		return err
	}
	return nil
}

// ModelProvider infers the oracle provider from a model name.
func ModelProvider(model string) (string, error) {
	for _, p := range providerPatterns {
		if strings.HasPrefix(model, p.prefix) {
			return p.provider, nil
		}
	}
	return "", fmt.Errorf("cannot determine provider for model %q", model)
}

// APIKey returns the API key for a provider from the environment.
// Ollama runs locally and needs no key.
func APIKey(provider string) (string, error) {
	var envVar string
	switch provider {
	case ProviderOpenAI:
		envVar = "OPENAI_API_KEY"
	case ProviderAnthropic:
		envVar = "ANTHROPIC_API_KEY"
	case ProviderGoogle:
		envVar = "GEMINI_API_KEY"
	case ProviderOllama:
		return "", nil
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}

	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s is not set (required for provider %s)", envVar, provider)
	}
	return key, nil
}

// OllamaModel strips the "ollama/" prefix from a model name.
func OllamaModel(model string) string {
	return strings.TrimPrefix(model, "ollama/")
}
