package extract

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// HTMLConverter sanitizes HTML and renders it as Markdown.
type HTMLConverter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// NewHTMLConverter returns a converter using the user-generated-content sanitizing policy.
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Convert strips scripts and unsafe markup from content and returns normalized Markdown.
func (c *HTMLConverter) Convert(content []byte) (string, error) {
	clean := c.policy.SanitizeBytes(content)
	md, err := c.conv.ConvertString(string(clean))
	if err != nil {
		return "", fmt.Errorf("convert HTML: %w", err)
	}
	return Normalize(md), nil
}
