package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	wordDefaultPart  = "word/document.xml"
	contentTypesPart = "[Content_Types].xml"
	wordMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

	// maxPartBytes bounds a single decompressed archive entry.
	maxPartBytes = 64 << 20
)

var (
	wordParagraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>|<w:p/>`)
	wordTextRe      = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

	// Override elements list PartName and ContentType in either order.
	mainPartRe    = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(wordMainType) + `"`)
	mainPartAltRe = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(wordMainType) + `"[^>]+PartName="([^"]+)"`)
)

// ExtractDOCX returns the paragraph text of a Word (.docx) package, one paragraph per line.
// The main part is located through [Content_Types].xml so renamed parts are found too.
func ExtractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip archive: %w", err)
	}

	partName := wordDefaultPart
	if types, err := readArchivePart(zr, contentTypesPart); err == nil {
		if name := mainPartName(string(types)); name != "" {
			partName = name
		}
	}

	body, err := readArchivePart(zr, partName)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var paragraphs []string
	for _, p := range wordParagraphRe.FindAllString(string(body), -1) {
		var line strings.Builder
		for _, run := range wordTextRe.FindAllStringSubmatch(p, -1) {
			line.WriteString(html.UnescapeString(run[1]))
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return Normalize(strings.Join(paragraphs, "\n")), nil
}

func mainPartName(contentTypes string) string {
	for _, re := range []*regexp.Regexp{mainPartRe, mainPartAltRe} {
		if m := re.FindStringSubmatch(contentTypes); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return ""
}

func readArchivePart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
