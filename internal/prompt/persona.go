package prompt

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/models"
)

// Persona is the voice a provider answers in.
type Persona struct {
	ID          models.ProviderID
	DisplayName string
	Intro       string
	Guidelines  []string
}

var baseGuidelines = []string{
	"Provide detailed, well-structured responses",
	"Use step-by-step thinking for complex queries",
	"Be honest when you don't know something",
	"Show your reasoning process when helpful",
	"Cite the document name whenever you use information from uploaded files",
}

func guidelines(tone, language string) []string {
	out := []string{tone}
	out = append(out, baseGuidelines[:4]...)
	out = append(out, language, "Be creative and innovative in your solutions", baseGuidelines[4])
	return out
}

// BuiltinPersona returns the persona for a provider kind. Unknown kinds get a neutral voice named after id.
func BuiltinPersona(id models.ProviderID, kind string) Persona {
	switch kind {
	case config.KindGrok:
		return Persona{
			ID:          id,
			DisplayName: "Grok",
			Intro: "You are ChatNova, powered by Grok - a witty and intelligent AI assistant. " +
				"You provide helpful, accurate, and engaging responses with a touch of humor when appropriate. " +
				"You excel at reasoning, analysis, and creative problem-solving.",
			Guidelines: guidelines("Be conversational, helpful, and engaging with a hint of wit",
				"Use clear, accessible language with personality"),
		}
	case config.KindGemini:
		return Persona{
			ID:          id,
			DisplayName: "Gemini",
			Intro: "You are ChatNova, an advanced AI assistant powered by Google Gemini. " +
				"You provide intelligent, detailed responses with a friendly and professional tone. " +
				"You excel at reasoning, analysis, and creative problem-solving.",
			Guidelines: guidelines("Be conversational, helpful, and engaging", "Use clear, accessible language"),
		}
	}
	name := displayName(string(id))
	return Persona{
		ID:          id,
		DisplayName: name,
		Intro: "You are ChatNova, an AI assistant powered by " + name + ". " +
			"You provide clear, accurate, and helpful responses.",
		Guidelines: guidelines("Be conversational, helpful, and engaging", "Use clear, accessible language"),
	}
}

// Preamble renders the system instructions for p.
func (p Persona) Preamble() string {
	var b strings.Builder
	b.WriteString(p.Intro)
	if len(p.Guidelines) > 0 {
		b.WriteString("\n\nKey guidelines:")
		for _, g := range p.Guidelines {
			b.WriteString("\n- ")
			b.WriteString(g)
		}
	}
	return b.String()
}

// Personas maps provider IDs to their persona.
type Personas map[models.ProviderID]Persona

// NewPersonas builds the persona set for the configured providers, applying per-provider overrides.
func NewPersonas(providers map[string]config.ProviderConfig) Personas {
	out := make(Personas, len(providers))
	for id, pc := range providers {
		p := BuiltinPersona(models.ProviderID(id), pc.Kind)
		if pc.Persona.DisplayName != "" {
			p.DisplayName = pc.Persona.DisplayName
		}
		if pc.Persona.Intro != "" {
			p.Intro = pc.Persona.Intro
		}
		out[p.ID] = p
	}
	return out
}

// Lookup returns the persona for id, or a neutral one when id is not configured.
func (ps Personas) Lookup(id models.ProviderID) Persona {
	if p, ok := ps[id]; ok {
		return p
	}
	return BuiltinPersona(id, "")
}

func displayName(id string) string {
	if id == "" {
		return "Assistant"
	}
	r, size := utf8.DecodeRuneInString(id)
	return string(unicode.ToUpper(r)) + id[size:]
}
