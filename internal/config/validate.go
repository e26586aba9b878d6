package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hyperjump/chatnova/internal/extract"
)

// Validate reports every problem found in cfg joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ChatTimeout < 0 {
		errs = append(errs, errors.New("server.chat_timeout must not be negative"))
	}
	if c.Ingest.MaxFileSizeBytes < 1 {
		errs = append(errs, errors.New("ingest.max_file_size_bytes must be positive"))
	}
	if c.Ingest.MaxBatchFiles < 1 {
		errs = append(errs, errors.New("ingest.max_batch_files must be positive"))
	}
	if c.Ingest.BatchConcurrency < 1 {
		errs = append(errs, errors.New("ingest.batch_concurrency must be positive"))
	}
	if len(c.PDF.Strategies) == 0 {
		errs = append(errs, errors.New("pdf.strategies must name at least one strategy"))
	}
	known := []string{extract.StrategyLibrary, extract.StrategyPDFCPU, extract.StrategyScan}
	for _, s := range c.PDF.Strategies {
		if !slices.Contains(known, strings.ToLower(strings.TrimSpace(s))) {
			errs = append(errs, fmt.Errorf("pdf.strategies: unknown strategy %q", s))
		}
	}
	if c.Prompt.HistoryWindow < 1 {
		errs = append(errs, errors.New("prompt.history_window must be positive"))
	}
	if c.Dispatch.ProviderTimeout < 0 {
		errs = append(errs, errors.New("dispatch.provider_timeout must not be negative"))
	}
	if _, ok := c.Providers[c.Dispatch.DefaultProvider]; !ok {
		errs = append(errs, fmt.Errorf("dispatch.default_provider %q is not configured", c.Dispatch.DefaultProvider))
	}
	for _, id := range c.ProviderIDs() {
		p := c.Providers[id]
		switch p.Kind {
		case KindGemini, KindGrok, KindOllama, KindMock:
		default:
			errs = append(errs, fmt.Errorf("providers.%s: unknown kind %q", id, p.Kind))
		}
		if p.Fallback == "" {
			continue
		}
		if p.Fallback == id {
			errs = append(errs, fmt.Errorf("providers.%s: fallback cannot be itself", id))
		} else if _, ok := c.Providers[p.Fallback]; !ok {
			errs = append(errs, fmt.Errorf("providers.%s: fallback %q is not configured", id, p.Fallback))
		}
	}
	return errors.Join(errs...)
}

// ProviderIDs returns the configured provider IDs in sorted order.
func (c *Config) ProviderIDs() []string {
	ids := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NeedsAPIKey reports whether providers of kind authenticate with an API key.
func NeedsAPIKey(kind string) bool {
	return kind == KindGemini || kind == KindGrok
}
