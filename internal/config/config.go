// Package config provides configuration loading and structs for the ChatNova server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                      `yaml:"debug"`
	Server    ServerConfig              `yaml:"server"`
	Ingest    IngestConfig              `yaml:"ingest"`
	PDF       PDFConfig                 `yaml:"pdf"`
	Prompt    PromptConfig              `yaml:"prompt"`
	Dispatch  DispatchConfig            `yaml:"dispatch"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	QuietPaths     []string      `yaml:"quiet_paths"`
	ChatTimeout    time.Duration `yaml:"chat_timeout"`
	// ExposeErrorDetails puts the underlying cause in the "details" field of 500 responses.
	ExposeErrorDetails bool `yaml:"expose_error_details"`
}

// IngestConfig holds upload validation and ingestion settings.
type IngestConfig struct {
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
	MaxBatchFiles    int   `yaml:"max_batch_files"`
	BatchConcurrency int   `yaml:"batch_concurrency"`
	DocxExtraction   bool  `yaml:"docx_extraction"`
	ImageDisplayRefs bool  `yaml:"image_display_refs"`
}

// PDFConfig selects the PDF text strategies and their acceptance threshold.
type PDFConfig struct {
	Strategies   []string `yaml:"strategies"`
	MinTextChars int      `yaml:"min_text_chars"`
}

// PromptConfig holds prompt composition settings.
type PromptConfig struct {
	HistoryWindow int `yaml:"history_window"`
}

// DispatchConfig holds provider selection settings.
type DispatchConfig struct {
	DefaultProvider string        `yaml:"default_provider"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
}

// ProviderConfig describes one LLM backend. APIKey is never read from or written to YAML;
// it is resolved from the environment variable named by APIKeyEnv.
type ProviderConfig struct {
	Kind         string        `yaml:"kind"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	APIKeyEnv    string        `yaml:"api_key_env"`
	APIKey       string        `yaml:"-"`
	Temperature  *float64      `yaml:"temperature"`
	Stream       bool          `yaml:"stream"`
	Fallback     string        `yaml:"fallback"`
	Persona      PersonaConfig `yaml:"persona"`
	MockResponse string        `yaml:"mock_response"`
	MockError    string        `yaml:"mock_error"`
}

// PersonaConfig overrides the built-in persona of a provider.
type PersonaConfig struct {
	DisplayName string `yaml:"display_name"`
	Intro       string `yaml:"intro"`
}

// Load reads and parses the config file at path, applies defaults, then environment overrides.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Config, error) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
