package source

import (
	"context"

	"github.com/fwojciec/docview"
)

// Ensure InlineFetcher implements docview.Fetcher.
var _ docview.Fetcher = (*InlineFetcher)(nil)

// InlineFetcher serves documents whose content is embedded in the
// configuration.
type InlineFetcher struct {
	content map[string][]byte
}

// NewInlineFetcher indexes docs by their inline key.
func NewInlineFetcher(docs []docview.SourceDocument) *InlineFetcher {
	f := &InlineFetcher{content: make(map[string][]byte, len(docs))}
	for i, doc := range docs {
		key := InlineKey(i, doc)
		if _, ok := f.content[key]; ok {
			continue
		}
		f.content[key] = []byte(doc.Content)
	}
	return f
}

// Fetch returns the embedded content for loc.
func (f *InlineFetcher) Fetch(ctx context.Context, loc docview.Locator) (*docview.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.Kind != docview.SourceInline {
		return nil, docview.Errorf(docview.EINVALID, "inline fetcher cannot serve %s", loc)
	}
	body, ok := f.content[loc.Location]
	if !ok {
		return nil, docview.Errorf(docview.ENOTFOUND, "inline document %q not found", loc.Location)
	}
	return &docview.Response{Body: body, ContentType: "text/markdown"}, nil
}
