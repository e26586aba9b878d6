package models

// ProviderID names a configured LLM provider (e.g. "gemini", "grok").
type ProviderID string

const (
	ProviderGemini ProviderID = "gemini"
	ProviderGrok   ProviderID = "grok"
	ProviderOllama ProviderID = "ollama"
)

// ProviderResponse is the normalized result of a dispatch.
type ProviderResponse struct {
	Role         Role       `json:"role"`
	Content      string     `json:"content"`
	ProviderUsed ProviderID `json:"providerUsed"`
	// Degraded is set when a fallback provider answered instead of the preferred one.
	Degraded bool `json:"degraded"`
}
