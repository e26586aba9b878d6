package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMinTextChars is the shortest normalized text accepted as a real extraction.
const DefaultMinTextChars = 10

// DefaultPDFStrategies is the order strategies are tried in when none is configured.
var DefaultPDFStrategies = []string{StrategyLibrary, StrategyPDFCPU, StrategyScan}

// PDFStrategy recovers raw text and a page count from PDF bytes.
type PDFStrategy interface {
	Name() string
	Extract(content []byte) (text string, pages int, err error)
}

// PDFExtractor runs PDF strategies in order and frames the best result.
type PDFExtractor struct {
	strategies []PDFStrategy
	minChars   int
	logger     *zap.Logger
}

// PDFOption configures a PDFExtractor.
type PDFOption func(*PDFExtractor)

// WithLogger sets the logger used for strategy diagnostics.
func WithLogger(logger *zap.Logger) PDFOption {
	return func(e *PDFExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMinTextChars overrides DefaultMinTextChars.
func WithMinTextChars(n int) PDFOption {
	return func(e *PDFExtractor) {
		if n > 0 {
			e.minChars = n
		}
	}
}

// NewPDFExtractor returns an extractor over strategies. With no strategies the default chain is used.
func NewPDFExtractor(strategies []PDFStrategy, opts ...PDFOption) *PDFExtractor {
	if len(strategies) == 0 {
		strategies, _ = NewPDFStrategies(DefaultPDFStrategies)
	}
	e := &PDFExtractor{
		strategies: strategies,
		minChars:   DefaultMinTextChars,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewPDFStrategies builds strategies from their configured names.
func NewPDFStrategies(names []string) ([]PDFStrategy, error) {
	out := make([]PDFStrategy, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case StrategyLibrary:
			out = append(out, LibraryStrategy{})
		case StrategyPDFCPU:
			out = append(out, NewPDFCPUStrategy())
		case StrategyScan:
			out = append(out, ScanStrategy{})
		default:
			return nil, fmt.Errorf("unknown PDF strategy %q", name)
		}
	}
	return out, nil
}

type attempt struct {
	strategy string
	text     string
	chars    int
}

// Extract returns framed text for a PDF named filename. When every strategy succeeds
// but yields too little text, the result is a placeholder rather than an error.
// An *ExtractionError is returned only when no strategy could read the file.
func (e *PDFExtractor) Extract(content []byte, filename string) (*ExtractionResult, error) {
	var (
		best      *attempt
		pages     int
		lastErr   error
		lastName  string
		encrypted error
		lockedBy  string
	)
	for _, s := range e.strategies {
		text, n, err := runStrategy(s, content)
		if err != nil {
			e.logger.Debug("PDF strategy failed",
				zap.String("file", filename), zap.String("strategy", s.Name()), zap.Error(err))
			lastErr, lastName = err, s.Name()
			if errors.Is(err, ErrPasswordProtected) {
				encrypted, lockedBy = err, s.Name()
			}
			continue
		}
		if n > pages {
			pages = n
		}
		text = Normalize(text)
		chars := utf8.RuneCountInString(text)
		if best == nil || chars > best.chars {
			best = &attempt{strategy: s.Name(), text: text, chars: chars}
		}
		if chars >= e.minChars {
			break
		}
		e.logger.Debug("PDF strategy yielded too little text",
			zap.String("file", filename), zap.String("strategy", s.Name()), zap.Int("chars", chars))
	}

	if encrypted != nil && (best == nil || best.chars < e.minChars) {
		return nil, &ExtractionError{Filename: filename, Strategy: lockedBy, Err: encrypted}
	}
	if best == nil {
		if lastErr == nil {
			lastErr = errors.New("no PDF strategies configured")
		}
		return nil, &ExtractionError{Filename: filename, Strategy: lastName, Err: lastErr}
	}
	if best.chars < e.minChars {
		e.logger.Info("no readable text in PDF", zap.String("file", filename), zap.Int("pages", pages))
		return &ExtractionResult{
			Text:        pdfPlaceholder(filename),
			PageCount:   pages,
			Strategy:    best.strategy,
			Placeholder: true,
		}, nil
	}
	return &ExtractionResult{
		Text:      framePDF(filename, pages, len(content), best.text),
		PageCount: pages,
		Strategy:  best.strategy,
	}, nil
}

func runStrategy(s PDFStrategy, content []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: malformed PDF: %v", s.Name(), r)
		}
	}()
	return s.Extract(content)
}

func framePDF(filename string, pages, size int, text string) string {
	pageLabel := "unknown"
	if pages > 0 {
		pageLabel = fmt.Sprintf("%d", pages)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "=== PDF DOCUMENT: %s ===\n", filename)
	fmt.Fprintf(&b, "Pages: %s\n", pageLabel)
	fmt.Fprintf(&b, "File Size: %.2f MB\n\n", float64(size)/(1024*1024))
	b.WriteString("CONTENT:\n")
	b.WriteString(text)
	b.WriteString("\n\n=== END OF DOCUMENT ===")
	return b.String()
}

func pdfPlaceholder(filename string) string {
	return fmt.Sprintf("PDF Document: %s\n"+
		"No readable text could be extracted from this PDF. "+
		"It is likely image-based (scanned) or uses an unsupported text encoding.", filename)
}

// classifyPDFError maps library errors about encryption onto ErrPasswordProtected.
func classifyPDFError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return fmt.Errorf("%w: %v", ErrPasswordProtected, err)
	}
	return err
}

func hasPDFHeader(content []byte) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}
