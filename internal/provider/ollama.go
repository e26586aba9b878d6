package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hyperjump/chatnova/internal/models"
)

// Ollama calls a local Ollama server's generate API.
type Ollama struct {
	id      models.ProviderID
	baseURL string
	model   string
	stream  bool
	client  *http.Client
}

// NewOllama creates an Ollama provider. With stream set, the NDJSON token stream is
// read to completion and joined into one answer.
func NewOllama(id models.ProviderID, baseURL, model string, stream bool, client *http.Client) *Ollama {
	return &Ollama{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		stream:  stream,
		client:  clientOrDefault(client),
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (o *Ollama) ID() models.ProviderID { return o.id }

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	body := ollamaGenerateRequest{
		Model:  o.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: o.stream,
	}
	resp, err := doJSON(ctx, o.client, o.id, o.baseURL+"/api/generate", nil, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseLen)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk ollamaGenerateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrMalformedResponse, o.id, err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("%s: %s", o.id, chunk.Error)
		}
		b.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading %s stream: %w", o.id, err)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, o.id)
	}
	return text, nil
}
