package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/cli"
	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/dispatch"
	"github.com/hyperjump/chatnova/internal/extract"
	"github.com/hyperjump/chatnova/internal/ingest"
	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/internal/prompt"
	"github.com/hyperjump/chatnova/internal/provider"
)

// Components holds everything a command needs to ingest files and answer chats.
type Components struct {
	Ingestor   *ingest.Ingestor
	Composer   *prompt.Composer
	Personas   prompt.Personas
	Registry   provider.Registry
	Dispatcher *dispatch.Dispatcher
}

// initializeComponents wires the pipeline from cfg. A nil client uses http.DefaultClient.
func initializeComponents(cfg *config.Config, logger *zap.Logger, client *http.Client) (*Components, error) {
	strategies, err := extract.NewPDFStrategies(cfg.PDF.Strategies)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pdf extractor: %w", err)
	}
	pdf := extract.NewPDFExtractor(strategies,
		extract.WithLogger(logger),
		extract.WithMinTextChars(cfg.PDF.MinTextChars))

	registry, err := provider.NewRegistry(cfg.Providers, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	personas := prompt.NewPersonas(cfg.Providers)
	dispatcher := dispatch.NewDispatcher(registry, personas, dispatch.Fallbacks(cfg.Providers),
		dispatch.WithLogger(logger),
		dispatch.WithTimeout(cfg.Dispatch.ProviderTimeout))

	return &Components{
		Ingestor:   ingest.NewIngestor(&cfg.Ingest, pdf, ingest.WithLogger(logger)),
		Composer:   prompt.NewComposer(cfg.Prompt.HistoryWindow),
		Personas:   personas,
		Registry:   registry,
		Dispatcher: dispatcher,
	}, nil
}

// providerSummaries lists the configured providers sorted by ID.
func providerSummaries(cfg *config.Config, c *Components) []cli.ProviderSummary {
	out := make([]cli.ProviderSummary, 0, len(cfg.Providers))
	for _, id := range cfg.ProviderIDs() {
		pc := cfg.Providers[id]
		pid := models.ProviderID(id)
		_, available := c.Registry[pid]
		out = append(out, cli.ProviderSummary{
			ID:          id,
			Kind:        pc.Kind,
			Model:       pc.Model,
			DisplayName: c.Personas.Lookup(pid).DisplayName,
			Fallback:    pc.Fallback,
			Available:   available,
			Default:     id == cfg.Dispatch.DefaultProvider,
		})
	}
	return out
}
