// Package goldmark provides a docview.Parser built on the goldmark markdown
// parser. It reduces markdown to plain-text segments for search indexing.
package goldmark

import (
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/docview"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Ensure Parser implements docview.Parser at compile time.
var _ docview.Parser = (*Parser)(nil)

// Parser wraps goldmark to extract plain text, headings and front matter.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a new Parser with GFM and YAML front matter support.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				meta.Meta,
			),
		),
	}
}

// Parse converts markdown content into its plain-text view.
func (p *Parser) Parse(content []byte) (*docview.Parsed, error) {
	if !utf8.Valid(content) {
		return nil, docview.Errorf(docview.EPARSE, "content is not valid UTF-8")
	}

	pctx := parser.NewContext()
	root := p.md.Parser().Parse(text.NewReader(content), parser.WithContext(pctx))

	metadata, err := meta.TryGet(pctx)
	if err != nil {
		return nil, docview.WrapError(docview.EPARSE, err, "malformed front matter")
	}

	w := &walker{source: content}
	if err := ast.Walk(root, w.visit); err != nil {
		return nil, docview.WrapError(docview.EPARSE, err, "walk markdown")
	}
	w.flush()

	parsed := &docview.Parsed{
		Sections: w.sections,
		Segments: w.segments,
		Meta:     metadata,
	}
	if title, ok := metadata["title"].(string); ok && strings.TrimSpace(title) != "" {
		parsed.Title = strings.TrimSpace(title)
	} else if len(w.sections) > 0 {
		parsed.Title = w.sections[0].Title
	}
	return parsed, nil
}

// walker accumulates segments, merging adjacent runs of the same weight.
type walker struct {
	source   []byte
	anchors  docview.Anchors
	sections []docview.Section
	segments []docview.Segment

	buf      strings.Builder
	weighted bool
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if !entering {
			return ast.WalkContinue, nil
		}
		title := strings.TrimSpace(inlineText(node, w.source))
		w.sections = append(w.sections, docview.Section{
			Level:  node.Level,
			Title:  title,
			Anchor: w.anchors.Next(title),
		})
		w.write(title, true)
		w.write("\n", true)
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if !entering {
			return ast.WalkContinue, nil
		}
		w.write(linesText(node, w.source), false)
		w.write("\n", false)
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil

	case *ast.AutoLink:
		if entering {
			w.write(" "+string(node.URL(w.source))+" ", false)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			w.write(" ("+string(node.Destination)+") ", false)
		}
		return ast.WalkContinue, nil

	case *ast.Image:
		if !entering {
			w.write(" ("+string(node.Destination)+") ", false)
		}
		return ast.WalkContinue, nil

	case *ast.Text:
		if !entering {
			return ast.WalkContinue, nil
		}
		w.write(string(node.Segment.Value(w.source)), true)
		if node.SoftLineBreak() || node.HardLineBreak() {
			w.write(" ", true)
		}
		return ast.WalkContinue, nil

	case *ast.String:
		if entering {
			w.write(string(node.Value), true)
		}
		return ast.WalkContinue, nil
	}

	if !entering && n.Type() == ast.TypeBlock {
		w.write("\n", w.weighted)
	}
	return ast.WalkContinue, nil
}

func (w *walker) write(s string, weighted bool) {
	if s == "" {
		return
	}
	if w.buf.Len() > 0 && weighted != w.weighted {
		w.flush()
	}
	w.weighted = weighted
	w.buf.WriteString(s)
}

func (w *walker) flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.segments = append(w.segments, docview.Segment{
		Text:     w.buf.String(),
		Weighted: w.weighted,
	})
	w.buf.Reset()
}

// inlineText concatenates the text nodes below n.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// linesText returns the raw lines of a code block.
func linesText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
