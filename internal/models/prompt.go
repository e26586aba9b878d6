package models

import "strings"

// ComposedPrompt is the final payload sent to a provider. It is a pure function of
// persona, documents, history and query.
type ComposedPrompt struct {
	SystemPreamble   string `json:"systemPreamble"`
	DocumentsSection string `json:"documentsSection,omitempty"`
	HistorySection   string `json:"historySection,omitempty"`
	UserQuery        string `json:"userQuery"`
	// QuerySection is the labeled query block with the closing instruction.
	QuerySection string `json:"querySection"`
}

// Body renders everything except the system preamble, for providers that accept
// a separate system instruction.
func (p ComposedPrompt) Body() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.DocumentsSection, p.HistorySection, p.QuerySection} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// String renders the full prompt as a single string.
func (p ComposedPrompt) String() string {
	body := p.Body()
	if p.SystemPreamble == "" {
		return body
	}
	if body == "" {
		return p.SystemPreamble
	}
	return p.SystemPreamble + "\n\n" + body
}
