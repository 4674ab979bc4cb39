package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docview"
)

var _ docview.Extractor = (*Extractor)(nil)

// contentSelectors lists, per framework, the selectors that wrap the
// article body, most specific first.
var contentSelectors = map[docview.Framework][]string{
	docview.FrameworkDocusaurus: {".theme-doc-markdown", "article"},
	docview.FrameworkMkDocs:     {".md-content__inner", ".md-content", "article"},
	docview.FrameworkSphinx:     {"[role='main'] .body", "div.body", "[role='main']"},
	docview.FrameworkVitePress:  {".vp-doc", ".VPDoc"},
	docview.FrameworkVuePress:   {".theme-default-content"},
	docview.FrameworkGitBook:    {"main"},
	docview.FrameworkNextra:     {"article main", "article"},
}

// genericSelectors are tried when the framework is unknown or its selectors
// match nothing.
var genericSelectors = []string{"main article", "article", "main", "[role='main']", "#content", ".content", "body"}

// boilerplate is removed from the selected content.
const boilerplate = "script, style, noscript, nav, header, footer, aside, form, button, iframe, " +
	".headerlink, .hash-link, .anchor, .edit-this-page, .theme-edit-this-page, .md-source-file, " +
	".pagination-nav, .prev-next, [role='navigation'], [aria-hidden='true']"

// Extractor selects the main content of a documentation page, using
// framework-specific selectors when the framework is recognized.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the page title and the cleaned main content HTML.
func (e *Extractor) Extract(html string) (*docview.ExtractResult, error) {
	if strings.TrimSpace(html) == "" {
		return nil, docview.Errorf(docview.EPARSE, "empty HTML input")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docview.WrapError(docview.EPARSE, err, "failed to parse HTML")
	}

	title := pageTitle(doc)
	content := mainContent(doc, detect(doc))
	content.Find(boilerplate).Remove()

	out, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, docview.WrapError(docview.EPARSE, err, "failed to render content")
	}
	return &docview.ExtractResult{Title: title, ContentHTML: out}, nil
}

func mainContent(doc *goquery.Document, framework docview.Framework) *goquery.Selection {
	for _, sel := range append(contentSelectors[framework], genericSelectors...) {
		if s := doc.Find(sel).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			return s
		}
	}
	return doc.Selection
}

// pageTitle prefers Open Graph metadata, then the document title, then the
// first heading.
func pageTitle(doc *goquery.Document) string {
	if t, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := strings.TrimSpace(doc.Find("head title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
