// Package provider implements the LLM backends a chat request can be dispatched to.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/pkg/utils"
)

var (
	// ErrEmptyResponse is returned when a provider answers 2xx without any content.
	ErrEmptyResponse = errors.New("provider returned an empty response")
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
	ErrMalformedResponse = errors.New("provider returned a malformed response")
	// ErrMissingAPIKey is returned when a hosted provider has no credential configured.
	ErrMissingAPIKey = errors.New("API key not configured")
)

// Request is what a provider receives: the system instructions and the prompt body.
type Request struct {
	System string
	Prompt string
}

// Provider generates a completion for one request.
type Provider interface {
	ID() models.ProviderID
	Generate(ctx context.Context, req Request) (string, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Provider   models.ProviderID
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

const (
	maxErrorBody   = 512
	maxResponseLen = 8 << 20
)

// doJSON sends body as JSON and returns the open 2xx response.
func doJSON(ctx context.Context, client *http.Client, id models.ProviderID, url string, headers map[string]string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxErrorBody))
		return nil, newStatusError(id, resp.StatusCode, string(snippet))
	}
	return resp, nil
}

func newStatusError(id models.ProviderID, code int, body string) *StatusError {
	return &StatusError{
		Provider:   id,
		StatusCode: code,
		Body:       utils.Truncate(strings.TrimSpace(body), maxErrorBody),
	}
}

// isDecodeError reports whether err comes from decoding a JSON body.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
