package ingest

import (
	"mime"
	"path/filepath"
	"strings"
)

// Format is the extraction path chosen for a MIME type.
type Format string

const (
	FormatUnsupported Format = ""
	FormatPDF         Format = "pdf"
	FormatText        Format = "text"
	FormatJSON        Format = "json"
	FormatHTML        Format = "html"
	FormatImage       Format = "image"
	FormatWord        Format = "word"
)

const (
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var formats = map[string]Format{
	"application/pdf":  FormatPDF,
	"text/plain":       FormatText,
	"text/markdown":    FormatText,
	"text/csv":         FormatText,
	"application/json": FormatJSON,
	"text/html":        FormatHTML,
	mimeDOC:            FormatWord,
	mimeDOCX:           FormatWord,
}

var extensionTypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".html":     "text/html",
	".htm":      "text/html",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".png":      "image/png",
	".gif":      "image/gif",
	".webp":     "image/webp",
	".bmp":      "image/bmp",
	".svg":      "image/svg+xml",
	".tif":      "image/tiff",
	".tiff":     "image/tiff",
	".heic":     "image/heic",
	".doc":      mimeDOC,
	".docx":     mimeDOCX,
}

// CanonicalMimeType lower-cases mimeType and strips parameters such as "; charset=utf-8".
func CanonicalMimeType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Classify returns the extraction path for a canonical MIME type. Every image/* subtype
// is accepted as an image.
func Classify(mimeType string) Format {
	if f, ok := formats[mimeType]; ok {
		return f
	}
	if strings.HasPrefix(mimeType, "image/") && len(mimeType) > len("image/") {
		return FormatImage
	}
	return FormatUnsupported
}

// MimeTypeForExtension maps a file extension (with or without the dot) to a supported MIME type.
func MimeTypeForExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return extensionTypes[ext]
}

// resolveMimeType uses the declared type unless it is missing or generic, in which case
// the type is inferred from the file name.
func resolveMimeType(name, declared string) string {
	mt := CanonicalMimeType(declared)
	if mt == "" || mt == "application/octet-stream" {
		if inferred := MimeTypeForExtension(filepath.Ext(name)); inferred != "" {
			return inferred
		}
	}
	return mt
}
