// Package goquery reduces rendered documentation pages to their main
// content using CSS selectors.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docview"
)

var _ docview.FrameworkDetector = (*Detector)(nil)

// marker lists selectors of which any one identifies a framework.
type marker struct {
	framework docview.Framework
	selectors []string
}

// markers are checked in order. VitePress precedes VuePress since it reuses
// some VuePress class names.
var markers = []marker{
	{docview.FrameworkDocusaurus, []string{"#__docusaurus_skipToContent_fallback", ".theme-doc-sidebar-container", "[data-rh][data-theme]"}},
	{docview.FrameworkMkDocs, []string{"[data-md-color-scheme]", "[data-md-component]", ".md-nav--primary"}},
	{docview.FrameworkSphinx, []string{".toctree-wrapper", ".wy-nav-side", ".wy-menu-vertical", ".sphinxsidebar"}},
	{docview.FrameworkVitePress, []string{"#VPContent", ".VPDoc", ".VPDocAsideOutline"}},
	{docview.FrameworkVuePress, []string{".theme-default-content", ".sidebar-links", ".vuepress-navbar"}},
	{docview.FrameworkGitBook, []string{"[data-testid='space.sidebar']", "[data-testid='page.desktopTableOfContents']"}},
	{docview.FrameworkNextra, []string{".nextra-navbar", ".nextra-sidebar", ".nextra-toc"}},
}

// generators maps substrings of the meta generator tag to frameworks.
var generators = []struct {
	needle    string
	framework docview.Framework
}{
	{"sphinx", docview.FrameworkSphinx},
	{"gitbook", docview.FrameworkGitBook},
	{"docusaurus", docview.FrameworkDocusaurus},
	{"mkdocs", docview.FrameworkMkDocs},
	{"vitepress", docview.FrameworkVitePress},
	{"vuepress", docview.FrameworkVuePress},
	{"nextra", docview.FrameworkNextra},
}

// Detector identifies documentation frameworks from generator meta tags
// and framework-specific markup.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect analyzes html and returns the identified framework.
func (d *Detector) Detect(html string) docview.Framework {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return docview.FrameworkUnknown
	}
	return detect(doc)
}

func detect(doc *goquery.Document) docview.Framework {
	// The generator tag is the most reliable signal when present.
	if generator, ok := doc.Find("meta[name='generator']").Last().Attr("content"); ok {
		generator = strings.ToLower(generator)
		for _, g := range generators {
			if strings.Contains(generator, g.needle) {
				return g.framework
			}
		}
	}

	for _, m := range markers {
		for _, sel := range m.selectors {
			if doc.Find(sel).Length() > 0 {
				return m.framework
			}
		}
	}

	if hasGitBookClasses(doc) {
		return docview.FrameworkGitBook
	}
	return docview.FrameworkUnknown
}

// hasGitBookClasses requires at least two of the classes GitBook puts on the
// html element.
func hasGitBookClasses(doc *goquery.Document) bool {
	class := doc.Find("html").AttrOr("class", "")
	count := 0
	for _, c := range []string{"circular-corners", "theme-clean", "tint"} {
		if strings.Contains(class, c) {
			count++
		}
	}
	return count >= 2
}
