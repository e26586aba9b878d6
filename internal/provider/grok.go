package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/chatnova/internal/models"
)

// Grok calls the xAI chat completions API, which follows the OpenAI wire format.
type Grok struct {
	id          models.ProviderID
	model       string
	temperature float32
	client      *openai.Client
}

// NewGrok creates a Grok provider authenticated with a bearer token. baseURL is the API
// host; the /v1 prefix is appended.
func NewGrok(id models.ProviderID, baseURL, model, apiKey string, temperature *float64, client *http.Client) *Grok {
	conf := openai.DefaultConfig(apiKey)
	conf.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	conf.HTTPClient = clientOrDefault(client)
	g := &Grok{id: id, model: model, client: openai.NewClientWithConfig(conf)}
	if temperature != nil {
		g.temperature = float32(*temperature)
	}
	return g
}

func (g *Grok) ID() models.ProviderID { return g.id }

func (g *Grok) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", g.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, g.id)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, g.id)
	}
	return text, nil
}

// mapError turns SDK API errors into *StatusError and decode failures into ErrMalformedResponse.
func (g *Grok) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(g.id, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return newStatusError(g.id, reqErr.HTTPStatusCode, body)
	}
	if isDecodeError(err) {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, g.id, err)
	}
	return fmt.Errorf("calling %s: %w", g.id, err)
}
