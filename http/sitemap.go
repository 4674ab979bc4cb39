package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docview"
)

// Ensure SitemapDiscoverer implements docview.Discoverer.
var _ docview.Discoverer = (*SitemapDiscoverer)(nil)

// maxSitemapDepth bounds nested sitemap indexes.
const maxSitemapDepth = 5

// SitemapDiscoverer lists the URLs of a site from its sitemaps. Sitemaps are
// located through robots.txt, falling back to /sitemap.xml.
type SitemapDiscoverer struct {
	client *http.Client
}

// NewSitemapDiscoverer creates a SitemapDiscoverer. If client is nil,
// http.DefaultClient is used.
func NewSitemapDiscoverer(client *http.Client) *SitemapDiscoverer {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapDiscoverer{client: client}
}

// Discover returns the sitemap URLs on the host of base whose path lies
// below the path of base. Include and exclude patterns are matched against
// the path relative to base. Missing sitemaps yield an empty list.
func (s *SitemapDiscoverer) Discover(ctx context.Context, base string, include, exclude []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return nil, docview.Errorf(docview.EINVALID, "invalid base URL %q", base)
	}
	prefix := u.Path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	root := &url.URL{Scheme: u.Scheme, Host: u.Host}
	sitemaps, err := s.locate(ctx, root)
	if err != nil {
		return nil, err
	}

	seenSitemaps := make(map[string]bool)
	seen := make(map[string]bool)
	urls := []string{}
	for _, sm := range sitemaps {
		found, err := s.read(ctx, sm, seenSitemaps, 0)
		if err != nil {
			return nil, err
		}
		for _, raw := range found {
			if seen[raw] {
				continue
			}
			seen[raw] = true
			if rel, ok := below(raw, u.Host, prefix); ok && docview.MatchPatterns(rel, include, exclude) {
				urls = append(urls, raw)
			}
		}
	}
	return urls, nil
}

// below returns the path of raw relative to prefix when raw is on host and
// under prefix.
func below(raw, host, prefix string) (string, bool) {
	p, err := url.Parse(raw)
	if err != nil || p.Host != host {
		return "", false
	}
	path := p.Path
	if path+"/" == prefix {
		return "", true
	}
	rel, ok := strings.CutPrefix(path, prefix)
	return rel, ok
}

// locate finds sitemap URLs from robots.txt or falls back to /sitemap.xml.
func (s *SitemapDiscoverer) locate(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if found, err := s.fromRobots(ctx, robots); err == nil && len(found) > 0 {
		return found, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	body, err := s.get(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if docview.ErrorCode(err) == docview.ENOTFOUND {
			return nil, nil
		}
		return nil, err
	}
	body.Close()
	return []string{fallback}, nil
}

// fromRobots extracts Sitemap: directives from robots.txt.
func (s *SitemapDiscoverer) fromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 8 && strings.EqualFold(line[:8], "sitemap:") {
			if loc := strings.TrimSpace(line[8:]); loc != "" {
				sitemaps = append(sitemaps, loc)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// read parses a urlset or recurses into a sitemapindex.
func (s *SitemapDiscoverer) read(ctx context.Context, sitemapURL string, seen map[string]bool, depth int) ([]string, error) {
	if seen[sitemapURL] || depth > maxSitemapDepth {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, docview.WrapError(docview.EPARSE, err, "parsing sitemap %s", sitemapURL)
	}
	root := doc.Root()
	if root == nil {
		return nil, docview.Errorf(docview.EPARSE, "empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		var urls []string
		for _, loc := range locs(root, "sitemap") {
			found, err := s.read(ctx, loc, seen, depth+1)
			if err != nil {
				return nil, err
			}
			urls = append(urls, found...)
		}
		return urls, nil
	}
	return locs(root, "url"), nil
}

// locs returns the trimmed <loc> text of every child element named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		if loc := el.SelectElement("loc"); loc != nil {
			if v := strings.TrimSpace(loc.Text()); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func (s *SitemapDiscoverer) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, docview.WrapError(docview.EINVALID, err, "creating request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docview.WrapError(docview.ENETWORK, err, "GET %s", target)
	}
	if err := statusError(resp.StatusCode, target); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}
