// Package htmltomarkdown converts extracted HTML content to Markdown.
package htmltomarkdown

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/docview"
)

// Ensure Converter implements docview.Converter at compile time.
var _ docview.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter with CommonMark and table support.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown. Links relative to pageURL
// are made absolute.
func (c *Converter) Convert(html, pageURL string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", docview.Errorf(docview.EPARSE, "empty HTML input")
	}

	var (
		md  string
		err error
	)
	if domain := origin(pageURL); domain != "" {
		md, err = c.conv.ConvertString(html, converter.WithDomain(domain))
	} else {
		md, err = c.conv.ConvertString(html)
	}
	if err != nil {
		return "", docview.WrapError(docview.EPARSE, err, "convert HTML to markdown")
	}
	return md, nil
}

// origin returns scheme and host of raw, or "" when raw is not absolute.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
