package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationMessage is one turn of a conversation. Messages are append-only and
// their slice order is the chronological order.
type ConversationMessage struct {
	ID                string             `json:"id"`
	Role              Role               `json:"role"`
	Content           string             `json:"content"`
	CreatedAt         time.Time          `json:"createdAt"`
	AttachedDocuments []UploadedDocument `json:"attachedDocuments,omitempty"`
}

// NewMessage returns a message with a fresh ID and the current time.
func NewMessage(role Role, content string) ConversationMessage {
	return ConversationMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the message role.
func (m *ConversationMessage) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q (must be user or assistant)", m.Role)
	}
	return nil
}
