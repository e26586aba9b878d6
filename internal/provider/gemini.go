package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/hyperjump/chatnova/internal/models"
)

// geminiAPIVersion is the Generative Language API version systemInstruction is served on.
const geminiAPIVersion = "v1beta"

// Gemini calls the Google Generative Language generateContent endpoint through the genai SDK.
type Gemini struct {
	id          models.ProviderID
	model       string
	temperature *float32
	client      *genai.Client
}

// NewGemini creates a Gemini provider. apiKey is sent in the x-goog-api-key header; an empty
// baseURL uses the SDK's default endpoint.
func NewGemini(id models.ProviderID, baseURL, model, apiKey string, temperature *float64, client *http.Client) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: clientOrDefault(client),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(baseURL, "/") + "/",
			APIVersion: geminiAPIVersion,
		},
	}
	if baseURL == "" {
		cc.HTTPOptions.BaseURL = ""
	}
	c, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", id, err)
	}
	g := &Gemini{id: id, model: model, client: c}
	if temperature != nil {
		t := float32(*temperature)
		g.temperature = &t
	}
	return g, nil
}

func (g *Gemini) ID() models.ProviderID { return g.id }

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	conf := &genai.GenerateContentConfig{Temperature: g.temperature}
	if req.System != "" {
		conf.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	contents := []*genai.Content{{Role: string(genai.RoleUser), Parts: []*genai.Part{{Text: req.Prompt}}}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, conf)
	if err != nil {
		return "", g.mapError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: %s blocked the prompt (%s)", ErrEmptyResponse, g.id, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, g.id)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, g.id)
	}
	return text, nil
}

// mapError turns SDK API errors into *StatusError and decode failures into ErrMalformedResponse.
func (g *Gemini) mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(g.id, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newStatusError(g.id, apiErrPtr.Code, apiErrPtr.Message)
	}
	if isDecodeError(err) {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, g.id, err)
	}
	return fmt.Errorf("calling %s: %w", g.id, err)
}
