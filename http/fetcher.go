// Package http fetches documents over HTTP and discovers them from
// sitemaps.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/docview"
)

// DefaultFetchTimeout bounds a single HTTP request.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodySize caps the bytes read from a response.
const DefaultMaxBodySize = 10 << 20

// Ensure Fetcher implements docview.Fetcher at compile time.
var _ docview.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documents from URLs. Markdown and plain text responses
// are returned as is; HTML responses are reduced to their main content and
// converted to markdown when an Extractor and Converter are configured.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
	limiter     *DomainLimiter
	extractor   docview.Extractor
	converter   docview.Converter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClient sets the HTTP client. The client's own timeout takes
// precedence over WithTimeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithRateLimit limits requests per host to rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		f.limiter = NewDomainLimiter(rps)
	}
}

// WithHTML enables HTML to markdown reduction.
func WithHTML(extractor docview.Extractor, converter docview.Converter) Option {
	return func(f *Fetcher) {
		f.extractor = extractor
		f.converter = converter
	}
}

// WithMaxBodySize caps the response size. Larger responses fail with
// EPARSE.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   "docview",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f
}

// Fetch retrieves the document at loc.Location.
func (f *Fetcher) Fetch(ctx context.Context, loc docview.Locator) (*docview.Response, error) {
	u, err := url.Parse(loc.Location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, docview.Errorf(docview.EINVALID, "not an http(s) URL: %q", loc.Location)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, docview.WrapError(docview.EINVALID, err, "creating request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, text/html;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return nil, docview.WrapError(docview.ETIMEOUT, err, "GET %s", u)
		}
		return nil, docview.WrapError(docview.ENETWORK, err, "GET %s", u)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode, u.String()); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docview.WrapError(docview.ENETWORK, err, "reading %s", u)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, docview.Errorf(docview.EPARSE, "%s exceeds %d bytes", u, f.maxBodySize)
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if isHTML(contentType, body) && f.extractor != nil && f.converter != nil {
		md, err := f.toMarkdown(string(body), u.String())
		if err != nil {
			return nil, err
		}
		return &docview.Response{Body: []byte(md), ContentType: "text/markdown"}, nil
	}
	return &docview.Response{Body: body, ContentType: contentType}, nil
}

// toMarkdown extracts the main content of an HTML page and converts it. The
// page title becomes the top heading when the content has none.
func (f *Fetcher) toMarkdown(html, pageURL string) (string, error) {
	result, err := f.extractor.Extract(html)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", pageURL, err)
	}
	md, err := f.converter.Convert(result.ContentHTML, pageURL)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", pageURL, err)
	}
	md = strings.TrimSpace(md)
	if result.Title != "" && !strings.HasPrefix(md, "# ") {
		md = "# " + result.Title + "\n\n" + md
	}
	return md + "\n", nil
}

// statusError maps non-success status codes onto error codes. Throttling and
// server errors are transient; other client errors mean the document cannot
// be had.
func statusError(code int, target string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return docview.Errorf(docview.ENETWORK, "HTTP %d for %s", code, target)
	case code >= 400:
		return docview.Errorf(docview.ENOTFOUND, "HTTP %d for %s", code, target)
	default:
		return docview.Errorf(docview.EINVALID, "HTTP %d for %s", code, target)
	}
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return mt
}

// isHTML trusts the declared media type and sniffs only when none is given.
func isHTML(contentType string, body []byte) bool {
	switch contentType {
	case "text/html", "application/xhtml+xml":
		return true
	case "":
		head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
		return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
	default:
		return false
	}
}
