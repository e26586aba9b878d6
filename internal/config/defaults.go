package config

import (
	"time"

	"github.com/hyperjump/chatnova/internal/extract"
	"github.com/hyperjump/chatnova/internal/models"
)

// Provider kinds understood by the provider factory.
const (
	KindGemini = "gemini"
	KindGrok   = "grok"
	KindOllama = "ollama"
	KindMock   = "mock"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.QuietPaths == nil {
		cfg.Server.QuietPaths = []string{"/health"}
	}
	if cfg.Server.ChatTimeout == 0 {
		cfg.Server.ChatTimeout = 60 * time.Second
	}
	if cfg.Ingest.MaxFileSizeBytes == 0 {
		cfg.Ingest.MaxFileSizeBytes = models.MaxUploadBytes
	}
	if cfg.Ingest.MaxBatchFiles == 0 {
		cfg.Ingest.MaxBatchFiles = 10
	}
	if cfg.Ingest.BatchConcurrency == 0 {
		cfg.Ingest.BatchConcurrency = 4
	}
	if cfg.PDF.Strategies == nil {
		cfg.PDF.Strategies = append([]string(nil), extract.DefaultPDFStrategies...)
	}
	if cfg.PDF.MinTextChars == 0 {
		cfg.PDF.MinTextChars = extract.DefaultMinTextChars
	}
	if cfg.Prompt.HistoryWindow == 0 {
		cfg.Prompt.HistoryWindow = 5
	}
	if cfg.Dispatch.DefaultProvider == "" {
		cfg.Dispatch.DefaultProvider = string(models.ProviderGrok)
	}
	if cfg.Dispatch.ProviderTimeout == 0 {
		cfg.Dispatch.ProviderTimeout = 30 * time.Second
	}
	// Grok falls back to Gemini only in the built-in provider set; explicit provider maps are taken as written.
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{
			string(models.ProviderGemini): {Kind: KindGemini},
			string(models.ProviderGrok):   {Kind: KindGrok, Fallback: string(models.ProviderGemini)},
		}
	}
	for id, p := range cfg.Providers {
		applyProviderDefaults(id, &p)
		cfg.Providers[id] = p
	}
}

func applyProviderDefaults(id string, p *ProviderConfig) {
	if p.Kind == "" {
		p.Kind = id
	}
	switch p.Kind {
	case KindGemini:
		if p.BaseURL == "" {
			p.BaseURL = "https://generativelanguage.googleapis.com"
		}
		if p.Model == "" {
			p.Model = "gemini-1.5-flash"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "GEMINI_API_KEY"
		}
	case KindGrok:
		if p.BaseURL == "" {
			p.BaseURL = "https://api.x.ai"
		}
		if p.Model == "" {
			p.Model = "grok-3"
		}
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "GROK_API_KEY"
		}
		if p.Temperature == nil {
			t := 0.7
			p.Temperature = &t
		}
	case KindOllama:
		if p.BaseURL == "" {
			p.BaseURL = "http://localhost:11434"
		}
		if p.Model == "" {
			p.Model = "llama3"
		}
	}
}
