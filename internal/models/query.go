package models

import "fmt"

// ChatRequest is the body of a chat call from the browser.
type ChatRequest struct {
	Messages      []ConversationMessage `json:"messages"`
	UploadedFiles []UploadedDocument    `json:"uploadedFiles,omitempty"`
	SelectedModel ProviderID            `json:"selectedModel,omitempty"`
}

// Validate checks every message and, when defaultModel is non-empty, fills in
// SelectedModel.
func (q *ChatRequest) Validate(defaultModel ProviderID) error {
	for i := range q.Messages {
		if err := q.Messages[i].Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	if q.SelectedModel == "" {
		q.SelectedModel = defaultModel
	}
	return nil
}

// ChatResponse is the success body of a chat call.
type ChatResponse struct {
	Role     Role       `json:"role"`
	Content  string     `json:"content"`
	Model    ProviderID `json:"model"`
	Degraded bool       `json:"degraded,omitempty"`
}

// ErrorResponse is the failure body of any API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
