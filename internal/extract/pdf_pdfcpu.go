package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// StrategyPDFCPU decodes page content streams with pdfcpu and scans them for text operators.
const StrategyPDFCPU = "pdfcpu"

var disablePDFCPUConfig sync.Once

// PDFCPUStrategy tolerates some structural damage the library strategy rejects.
type PDFCPUStrategy struct {
	conf *model.Configuration
}

// NewPDFCPUStrategy returns a strategy that never touches pdfcpu's on-disk config.
func NewPDFCPUStrategy() *PDFCPUStrategy {
	disablePDFCPUConfig.Do(func() { model.ConfigPath = "disable" })
	return &PDFCPUStrategy{conf: model.NewDefaultConfiguration()}
}

func (s *PDFCPUStrategy) Name() string { return StrategyPDFCPU }

func (s *PDFCPUStrategy) Extract(content []byte) (string, int, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), s.conf)
	if err != nil {
		return "", 0, classifyPDFError(fmt.Errorf("read PDF: %w", err))
	}
	var b strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return "", ctx.PageCount, fmt.Errorf("page %d content: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", ctx.PageCount, fmt.Errorf("page %d content: %w", pageNr, err)
		}
		if text := scanTextObjects(data); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String(), ctx.PageCount, nil
}
