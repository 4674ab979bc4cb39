// Package source resolves a configured Source into the ordered list of
// document stubs.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/fwojciec/docview"
	"golang.org/x/sync/errgroup"
)

// titleConcurrency bounds the reads made to find first headings.
const titleConcurrency = 8

// Resolver turns a Source into stubs. Discovery is delegated to the
// collaborator matching the source kind; a nil collaborator makes discovery
// for that kind fail with EINVALID.
type Resolver struct {
	// Local lists files below a base path.
	Local docview.Discoverer

	// Remote lists URLs below a base URL.
	Remote docview.Discoverer

	// Repository lists files of a GitHub repository.
	Repository docview.RepositoryLister

	// Parser extracts the first heading used as the title of inline and
	// discovered documents. Optional.
	Parser docview.Parser

	// Fetcher reads discovered local and github documents so their first
	// heading can replace the title derived from the file name. Optional.
	Fetcher docview.Fetcher

	Logger *slog.Logger
}

// NewResolver creates a Resolver with a discard logger.
func NewResolver() *Resolver {
	return &Resolver{Logger: slog.New(slog.DiscardHandler)}
}

// Resolve returns the stubs of src. Explicit document lists keep their
// declared order; discovered listings are sorted. Duplicate locators are
// dropped, keeping the first.
func (r *Resolver) Resolve(ctx context.Context, src docview.Source) ([]*docview.Stub, error) {
	var (
		stubs []*docview.Stub
		err   error
	)
	switch src.Kind {
	case docview.SourceLocal:
		if src.HasDocuments() {
			stubs = declared(src)
		} else {
			stubs, err = r.discover(ctx, r.Local, src.BasePath, src, docview.SourceLocal)
			if err == nil {
				err = r.headingTitles(ctx, stubs)
			}
		}
	case docview.SourceURL:
		if src.HasDocuments() {
			stubs, err = declaredURLs(src)
		} else {
			stubs, err = r.discover(ctx, r.Remote, src.BaseURL, src, docview.SourceURL)
		}
	case docview.SourceGitHub:
		stubs, err = r.listRepository(ctx, src)
		if err == nil {
			err = r.headingTitles(ctx, stubs)
		}
	case docview.SourceInline:
		stubs = r.inline(src)
	default:
		return nil, docview.Errorf(docview.EINVALID, "unknown source type %q", src.Kind)
	}
	if err != nil {
		return nil, err
	}

	stubs = dedupe(stubs)
	r.logger().Debug("source resolved", "kind", src.Kind, "documents", len(stubs))
	return stubs, nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// declared builds stubs for an explicit local document list.
func declared(src docview.Source) []*docview.Stub {
	stubs := make([]*docview.Stub, 0, len(src.Documents))
	for _, doc := range src.Documents {
		rel := cleanPath(doc.Path)
		loc := docview.Locator{Kind: docview.SourceLocal, Location: rel}
		stubs = append(stubs, declaredStub(doc, rel, loc, len(stubs)))
	}
	return stubs
}

// declaredURLs builds stubs for an explicit url document list, resolving
// each path against the base URL.
func declaredURLs(src docview.Source) ([]*docview.Stub, error) {
	base, err := baseURL(src.BaseURL)
	if err != nil {
		return nil, err
	}
	stubs := make([]*docview.Stub, 0, len(src.Documents))
	for _, doc := range src.Documents {
		ref, err := url.Parse(strings.TrimSpace(doc.Path))
		if err != nil {
			return nil, docview.WrapError(docview.EINVALID, err, "invalid document path %q", doc.Path)
		}
		abs := base.ResolveReference(ref)
		loc := docview.Locator{Kind: docview.SourceURL, Location: abs.String()}
		stubs = append(stubs, declaredStub(doc, relativeURL(base, abs), loc, len(stubs)))
	}
	return stubs, nil
}

// declaredStub applies declared metadata, falling back to what the path
// implies.
func declaredStub(doc docview.SourceDocument, rel string, loc docview.Locator, order int) *docview.Stub {
	stub := fromPath(rel, loc, order)
	if doc.ID != "" {
		stub.ID = doc.ID
	}
	if t := strings.TrimSpace(doc.Title); t != "" {
		stub.Title = t
	}
	if len(doc.Category) > 0 {
		stub.Category = append([]string(nil), doc.Category...)
	}
	return stub
}

// discover lists documents through d and maps them to stubs.
func (r *Resolver) discover(ctx context.Context, d docview.Discoverer, base string, src docview.Source, kind docview.SourceKind) ([]*docview.Stub, error) {
	if d == nil {
		return nil, docview.Errorf(docview.EINVALID, "no discoverer configured for %s sources", kind)
	}
	locations, err := d.Discover(ctx, base, src.Include, src.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", base, err)
	}
	sort.Strings(locations)

	var parsedBase *url.URL
	if kind == docview.SourceURL {
		if parsedBase, err = baseURL(base); err != nil {
			return nil, err
		}
	}

	stubs := make([]*docview.Stub, 0, len(locations))
	for _, location := range locations {
		rel := cleanPath(location)
		if parsedBase != nil {
			abs, err := parsedBase.Parse(location)
			if err != nil {
				r.logger().Warn("skipping unparseable location", "location", location, "error", err)
				continue
			}
			location = abs.String()
			rel = relativeURL(parsedBase, abs)
		}
		loc := docview.Locator{Kind: kind, Location: location}
		stubs = append(stubs, fromPath(rel, loc, len(stubs)))
	}
	return stubs, nil
}

// listRepository lists repository files below src.Path and keeps those
// matching the discovery patterns.
func (r *Resolver) listRepository(ctx context.Context, src docview.Source) ([]*docview.Stub, error) {
	if r.Repository == nil {
		return nil, docview.Errorf(docview.EINVALID, "no repository lister configured for github sources")
	}
	files, err := r.Repository.ListFiles(ctx, src.Repo, src.Ref, src.Path)
	if err != nil {
		return nil, fmt.Errorf("list %s@%s: %w", src.Repo, src.Ref, err)
	}
	sort.Strings(files)

	prefix := strings.Trim(src.Path, "/")
	stubs := make([]*docview.Stub, 0, len(files))
	for _, file := range files {
		file = strings.TrimPrefix(file, "/")
		rel := file
		if prefix != "" {
			var ok bool
			if rel, ok = strings.CutPrefix(file, prefix+"/"); !ok {
				continue
			}
		}
		if !docview.MatchPatterns(rel, src.Include, src.Exclude) {
			continue
		}
		loc := docview.Locator{Kind: docview.SourceGitHub, Location: file}
		stubs = append(stubs, fromPath(rel, loc, len(stubs)))
	}
	return stubs, nil
}

// inline builds stubs for documents with embedded content. Titles fall
// back to the first heading, then to the document key.
func (r *Resolver) inline(src docview.Source) []*docview.Stub {
	stubs := make([]*docview.Stub, 0, len(src.Documents))
	for i, doc := range src.Documents {
		key := InlineKey(i, doc)
		loc := docview.Locator{Kind: docview.SourceInline, Location: key}
		stub := &docview.Stub{
			ID:       key,
			Title:    strings.TrimSpace(doc.Title),
			Category: append([]string(nil), doc.Category...),
			Order:    len(stubs),
			Locator:  loc,
		}
		if stub.Title == "" && r.Parser != nil {
			if parsed, err := r.Parser.Parse([]byte(doc.Content)); err == nil {
				stub.Title = parsed.Title
			}
		}
		if stub.Title == "" {
			stub.Title = key
		}
		stubs = append(stubs, stub)
	}
	return stubs
}

// headingTitles replaces file name titles with the first heading of each
// document. Documents that cannot be read or have no heading keep their
// file name title.
func (r *Resolver) headingTitles(ctx context.Context, stubs []*docview.Stub) error {
	if r.Fetcher == nil || r.Parser == nil || len(stubs) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(titleConcurrency)
	for _, stub := range stubs {
		g.Go(func() error {
			resp, err := r.Fetcher.Fetch(gctx, stub.Locator)
			if err != nil || resp == nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger().Debug("keeping file name title", "location", stub.Locator.Location, "error", err)
				return nil
			}
			parsed, err := r.Parser.Parse(resp.Body)
			if err != nil {
				r.logger().Debug("keeping file name title", "location", stub.Locator.Location, "error", err)
				return nil
			}
			if t := strings.TrimSpace(parsed.Title); t != "" {
				stub.Title = t
			}
			return nil
		})
	}
	return g.Wait()
}

// InlineKey returns the key identifying an inline document: its declared
// id, else its path, else its position.
func InlineKey(i int, doc docview.SourceDocument) string {
	if doc.ID != "" {
		return doc.ID
	}
	if p := cleanPath(doc.Path); p != "" {
		return p
	}
	return fmt.Sprintf("doc-%d", i)
}

// fromPath infers title and category from a slash-separated relative path.
func fromPath(rel string, loc docview.Locator, order int) *docview.Stub {
	dir, file := path.Split(rel)
	var category []string
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if seg != "" {
			category = append(category, Humanize(seg))
		}
	}
	title := Humanize(strings.TrimSuffix(file, path.Ext(file)))
	if title == "" {
		title = loc.Location
	}
	return &docview.Stub{
		ID:       docview.StubID(loc),
		Title:    title,
		Category: category,
		Order:    order,
		Locator:  loc,
	}
}

// dedupe drops stubs whose id was already seen and renumbers Order.
func dedupe(stubs []*docview.Stub) []*docview.Stub {
	seen := make(map[string]bool, len(stubs))
	out := stubs[:0]
	for _, s := range stubs {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		s.Order = len(out)
		out = append(out, s)
	}
	return out
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func baseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, docview.WrapError(docview.EINVALID, err, "invalid base URL %q", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// relativeURL returns the path of abs relative to base, or the full path
// when abs lies outside base.
func relativeURL(base, abs *url.URL) string {
	if abs.Host != base.Host {
		return cleanPath(abs.Path)
	}
	if rel, ok := strings.CutPrefix(abs.Path, base.Path); ok {
		return cleanPath(rel)
	}
	return cleanPath(abs.Path)
}
