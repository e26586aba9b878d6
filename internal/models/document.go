// Package models defines core data structures for documents, conversations, prompts, and responses.
package models

import (
	"encoding/json"
	"time"
)

// MaxUploadBytes is the largest upload accepted for ingestion (10 MiB).
const MaxUploadBytes int64 = 10 * 1024 * 1024

// UploadedDocument is an ingested file held by the client for the duration of a conversation.
// RawContent is either extracted text or a human-readable placeholder when Degraded is set.
type UploadedDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	RawContent  string    `json:"rawContent"`
	PageCount   int       `json:"pageCount,omitempty"`
	ExtractedAt time.Time `json:"extractedAt"`
	Degraded    bool      `json:"degraded,omitempty"`
	// DisplayRef is an ephemeral data URI for image previews; it is never persisted.
	DisplayRef string `json:"displayRef,omitempty"`
}

// UnmarshalJSON accepts the legacy browser shape {name, content, type} in addition to
// the canonical field names.
func (d *UploadedDocument) UnmarshalJSON(data []byte) error {
	type plain UploadedDocument
	var aux struct {
		plain
		Content string `json:"content"`
		Type    string `json:"type"`
		Size    int64  `json:"size"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = UploadedDocument(aux.plain)
	if d.RawContent == "" {
		d.RawContent = aux.Content
	}
	if d.MimeType == "" {
		d.MimeType = aux.Type
	}
	if d.SizeBytes == 0 {
		d.SizeBytes = aux.Size
	}
	return nil
}
