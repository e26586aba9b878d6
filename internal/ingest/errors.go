package ingest

import (
	"errors"
	"fmt"
)

// Validation sentinels; every *ValidationError unwraps to exactly one of them.
var (
	ErrNoFileProvided  = errors.New("no file provided")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// ErrorKind classifies a rejected upload.
type ErrorKind int

const (
	KindNoFileProvided ErrorKind = iota + 1
	KindUnsupportedType
	KindTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoFileProvided:
		return "NoFileProvided"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindTooLarge:
		return "TooLarge"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ValidationError rejects a file before any extraction work. Message is safe to show to the user.
type ValidationError struct {
	Kind    ErrorKind
	Name    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindNoFileProvided:
		return ErrNoFileProvided
	case KindUnsupportedType:
		return ErrUnsupportedType
	case KindTooLarge:
		return ErrTooLarge
	}
	return nil
}

func noFileError() *ValidationError {
	return &ValidationError{Kind: KindNoFileProvided, Message: "No file provided."}
}

func unsupportedTypeError(name, mimeType string) *ValidationError {
	if mimeType == "" {
		mimeType = "unknown"
	}
	return &ValidationError{
		Kind: KindUnsupportedType,
		Name: name,
		Message: fmt.Sprintf("%s has unsupported file type %q. Supported types: PDF, plain text, Markdown, CSV, "+
			"JSON, HTML, Word and images.", name, mimeType),
	}
}

func tooLargeError(name string, size, limit int64) *ValidationError {
	return &ValidationError{
		Kind:    KindTooLarge,
		Name:    name,
		Message: fmt.Sprintf("%s is %s; the maximum file size is %s.", name, formatSize(size), formatSize(limit)),
	}
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
