// Package extract recovers plain text from uploaded document formats (PDF, DOCX, HTML, text).
package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionFailed matches any *ExtractionError.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrPasswordProtected is reported for encrypted PDFs.
	ErrPasswordProtected = errors.New("password-protected PDFs are not supported")
	// ErrNotPDF is returned when the bytes carry no PDF header.
	ErrNotPDF = errors.New("not a PDF file")
)

// ExtractionResult is the text recovered from a document.
// When Placeholder is set, Text describes why no usable text was found.
type ExtractionResult struct {
	Text        string
	PageCount   int
	Strategy    string
	Placeholder bool
}

// ExtractionError is a genuine parse or decode failure, distinct from "no text found".
type ExtractionError struct {
	Filename string
	Strategy string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed [%s] %s: %v", e.Strategy, e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrExtractionFailed) hold for every ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}
