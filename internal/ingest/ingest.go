// Package ingest validates uploaded files and turns them into document records.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/extract"
	"github.com/hyperjump/chatnova/internal/models"
)

// File is an upload awaiting ingestion. Open is called at most once and only after
// validation succeeds.
type File struct {
	Name      string
	MimeType  string
	SizeBytes int64
	Open      func() (io.ReadCloser, error)
}

// BytesFile wraps in-memory content as a File.
func BytesFile(name, mimeType string, content []byte) File {
	return File{
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// PathFile describes a local file. An empty mimeType is inferred from the extension.
func PathFile(path, mimeType string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name:      info.Name(),
		MimeType:  mimeType,
		SizeBytes: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Ingestor dispatches files to the extractor for their MIME type.
type Ingestor struct {
	cfg    *config.IngestConfig
	pdf    *extract.PDFExtractor
	html   *extract.HTMLConverter
	logger *zap.Logger
	now    func() time.Time
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets the logger for the ingestor.
func WithLogger(logger *zap.Logger) IngestorOption {
	return func(in *Ingestor) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// WithClock sets the time source used for ExtractedAt.
func WithClock(now func() time.Time) IngestorOption {
	return func(in *Ingestor) {
		in.now = now
	}
}

// NewIngestor creates an ingestor. A nil pdf extractor uses the default strategy chain.
func NewIngestor(cfg *config.IngestConfig, pdf *extract.PDFExtractor, opts ...IngestorOption) *Ingestor {
	if pdf == nil {
		pdf = extract.NewPDFExtractor(nil)
	}
	in := &Ingestor{
		cfg:    cfg,
		pdf:    pdf,
		html:   extract.NewHTMLConverter(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest validates f and extracts its text. Validation failures are *ValidationError and
// happen before f.Open is called. Extraction problems never fail the call; they yield a
// placeholder document with Degraded set.
func (in *Ingestor) Ingest(ctx context.Context, f File) (*models.UploadedDocument, error) {
	mimeType, format, err := in.validate(f)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := in.read(f)
	if err != nil {
		return nil, err
	}

	doc := &models.UploadedDocument{
		ID:          uuid.NewString(),
		Name:        f.Name,
		MimeType:    mimeType,
		SizeBytes:   int64(len(content)),
		ExtractedAt: in.now().UTC(),
	}

	switch format {
	case FormatPDF:
		in.ingestPDF(doc, content)
	case FormatText:
		doc.RawContent = extract.DecodeText(content)
	case FormatJSON:
		doc.RawContent = "JSON file content:\n" + extract.DecodeText(content)
	case FormatHTML:
		in.ingestHTML(doc, content)
	case FormatImage:
		doc.RawContent = fmt.Sprintf("Image file: %s (%s)", f.Name, mimeType)
		doc.Degraded = true
		if in.cfg.ImageDisplayRefs {
			doc.DisplayRef = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content)
		}
	case FormatWord:
		in.ingestWord(doc, content)
	}

	in.logger.Info("document ingested",
		zap.String("name", doc.Name),
		zap.String("mime_type", doc.MimeType),
		zap.Int64("size_bytes", doc.SizeBytes),
		zap.Int("chars", len(doc.RawContent)),
		zap.Bool("degraded", doc.Degraded),
	)
	return doc, nil
}

func (in *Ingestor) validate(f File) (string, Format, error) {
	if f.Name == "" || f.Open == nil {
		return "", FormatUnsupported, noFileError()
	}
	mimeType := resolveMimeType(f.Name, f.MimeType)
	format := Classify(mimeType)
	if format == FormatUnsupported {
		return "", FormatUnsupported, unsupportedTypeError(f.Name, mimeType)
	}
	if f.SizeBytes > in.cfg.MaxFileSizeBytes {
		return "", FormatUnsupported, tooLargeError(f.Name, f.SizeBytes, in.cfg.MaxFileSizeBytes)
	}
	return mimeType, format, nil
}

// read loads the file, rejecting content that exceeds the limit even when SizeBytes understated it.
func (in *Ingestor) read(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	limit := in.cfg.MaxFileSizeBytes
	content, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(content)) > limit {
		return nil, tooLargeError(f.Name, int64(len(content)), limit)
	}
	return content, nil
}

func (in *Ingestor) ingestPDF(doc *models.UploadedDocument, content []byte) {
	res, err := in.pdf.Extract(content, doc.Name)
	if err != nil {
		in.logger.Warn("PDF extraction failed", zap.String("name", doc.Name), zap.Error(err))
		doc.RawContent = pdfFailurePlaceholder(doc.Name, err)
		doc.Degraded = true
		return
	}
	doc.RawContent = res.Text
	doc.PageCount = res.PageCount
	doc.Degraded = res.Placeholder
}

func pdfFailurePlaceholder(name string, err error) string {
	reason := "The file appears to be corrupted or is not a valid PDF."
	if errors.Is(err, extract.ErrPasswordProtected) {
		reason = "The PDF is password-protected. Remove the password and upload it again."
	}
	return fmt.Sprintf("PDF Document: %s\nText could not be extracted. %s", name, reason)
}

func (in *Ingestor) ingestHTML(doc *models.UploadedDocument, content []byte) {
	text, err := in.html.Convert(content)
	if err != nil || text == "" {
		in.logger.Warn("HTML conversion failed", zap.String("name", doc.Name), zap.Error(err))
		doc.RawContent = fmt.Sprintf("HTML document: %s\nNo readable text could be extracted from this page.", doc.Name)
		doc.Degraded = true
		return
	}
	doc.RawContent = text
}

func (in *Ingestor) ingestWord(doc *models.UploadedDocument, content []byte) {
	if in.cfg.DocxExtraction && doc.MimeType == mimeDOCX {
		text, err := extract.ExtractDOCX(content)
		if err == nil && text != "" {
			doc.RawContent = text
			return
		}
		in.logger.Warn("DOCX extraction failed", zap.String("name", doc.Name), zap.Error(err))
	}
	doc.RawContent = fmt.Sprintf("Word document: %s\nFull text extraction for Word documents is not implemented. "+
		"Convert the file to PDF or plain text to include its contents.", doc.Name)
	doc.Degraded = true
}
