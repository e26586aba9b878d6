package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// StrategyLibrary reads the page tree and decodes fonts with ledongthuc/pdf.
const StrategyLibrary = "library"

// LibraryStrategy is the primary, font-aware PDF strategy.
type LibraryStrategy struct{}

func (LibraryStrategy) Name() string { return StrategyLibrary }

func (LibraryStrategy) Extract(content []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, classifyPDFError(fmt.Errorf("open PDF: %w", err))
	}
	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", numPages, classifyPDFError(fmt.Errorf("extract page %d: %w", i, err))
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), numPages, nil
}
