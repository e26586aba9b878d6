// Package cli provides output formatting for the ChatNova CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/chatnova/internal/ingest"
	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("invalid output format %q (use text or json)", s)
	}
}

const previewWords = 40

type ingestResultJSON struct {
	Name     string                   `json:"name"`
	Document *models.UploadedDocument `json:"document,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// WriteIngestResults writes one entry per ingested file to w in the given format.
func WriteIngestResults(w io.Writer, results []ingest.BatchResult, format OutputFormat) error {
	if format == OutputJSON {
		out := make([]ingestResultJSON, len(results))
		for i, r := range results {
			out[i] = ingestResultJSON{Name: r.Name, Document: r.Document}
			if r.Err != nil {
				out[i].Error = r.Err.Error()
			}
		}
		return writeJSON(w, out)
	}
	for _, r := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		if r.Err != nil {
			fmt.Fprintf(w, "%s: error: %v\n\n", r.Name, r.Err)
			continue
		}
		doc := r.Document
		fmt.Fprintf(w, "%s (%s, %d bytes)\n", doc.Name, doc.MimeType, doc.SizeBytes)
		fmt.Fprintf(w, "ID: %s\n", doc.ID)
		if doc.PageCount > 0 {
			fmt.Fprintf(w, "Pages: %d\n", doc.PageCount)
		}
		if doc.Degraded {
			fmt.Fprintln(w, "Degraded: content is a placeholder")
		}
		fmt.Fprintf(w, "\n%s\n\n", TruncateWords(utils.Truncate(doc.RawContent, 600), previewWords))
	}
	return nil
}

// WriteChatResponse writes an assistant reply to w in the given format.
func WriteChatResponse(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	label := string(resp.Model)
	if resp.Degraded {
		label += ", fallback"
	}
	fmt.Fprintf(w, "[%s]\n%s\n", label, resp.Content)
	return nil
}

// ProviderSummary is one row of the providers listing.
type ProviderSummary struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Model       string `json:"model,omitempty"`
	DisplayName string `json:"displayName"`
	Fallback    string `json:"fallback,omitempty"`
	Available   bool   `json:"available"`
	Default     bool   `json:"default,omitempty"`
}

// WriteProviders writes the provider listing to w in the given format.
func WriteProviders(w io.Writer, providers []ProviderSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, providers)
	}
	for _, p := range providers {
		var flags []string
		if p.Default {
			flags = append(flags, "default")
		}
		if !p.Available {
			flags = append(flags, "unavailable")
		}
		if p.Fallback != "" {
			flags = append(flags, "fallback="+p.Fallback)
		}
		line := fmt.Sprintf("%-10s %-8s %-20s %s", p.ID, p.Kind, p.Model, p.DisplayName)
		if len(flags) > 0 {
			line += " (" + strings.Join(flags, ", ") + ")"
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
