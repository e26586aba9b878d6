package provider

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/models"
)

// New creates the provider described by cfg under id.
// Supported kinds: "gemini", "grok", "ollama", "mock".
func New(id string, cfg config.ProviderConfig, client *http.Client) (Provider, error) {
	pid := models.ProviderID(id)
	if config.NeedsAPIKey(cfg.Kind) && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w (set %s)", id, ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	switch cfg.Kind {
	case config.KindGemini:
		g, err := NewGemini(pid, cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.Temperature, client)
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.KindGrok:
		return NewGrok(pid, cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.Temperature, client), nil
	case config.KindOllama:
		return NewOllama(pid, cfg.BaseURL, cfg.Model, cfg.Stream, client), nil
	case config.KindMock:
		if cfg.MockError != "" {
			return NewFailingMock(pid, errors.New(cfg.MockError)), nil
		}
		return NewMock(pid, cfg.MockResponse), nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s (supported: gemini, grok, ollama, mock)", cfg.Kind)
	}
}

// Registry holds the providers available for dispatch.
type Registry map[models.ProviderID]Provider

// NewRegistry creates every configured provider. Hosted providers without an API key
// are skipped with a warning; any other construction error is returned.
func NewRegistry(cfgs map[string]config.ProviderConfig, client *http.Client, logger *zap.Logger) (Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := make(Registry, len(cfgs))
	for id, pc := range cfgs {
		p, err := New(id, pc, client)
		if errors.Is(err, ErrMissingAPIKey) {
			logger.Warn("provider disabled: missing API key",
				zap.String("provider", id), zap.String("env", pc.APIKeyEnv))
			continue
		}
		if err != nil {
			return nil, err
		}
		reg[p.ID()] = p
	}
	return reg, nil
}
