// Package github lists and fetches repository documents through the GitHub
// REST API.
package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/docview"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 30 * time.Second

// Client wraps a go-github client.
type Client struct {
	gh *gh.Client
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// WithToken authenticates requests with a personal access token.
func WithToken(token string) ClientOption {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client. A token configured with
// WithToken is ignored when a client is given.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// NewClient creates a GitHub API client. Without a token requests are
// anonymous and subject to the lower unauthenticated rate limit.
func NewClient(opts ...ClientOption) (*Client, error) {
	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		if cfg.token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.token})
			hc = oauth2.NewClient(context.Background(), ts)
		} else {
			hc = &http.Client{}
		}
		hc.Timeout = DefaultTimeout
	}

	client := gh.NewClient(hc)
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, docview.WrapError(docview.EINVALID, err, "invalid GitHub base URL %q", cfg.baseURL)
		}
		client.BaseURL = u
	}
	return &Client{gh: client}, nil
}

// splitRepo splits "owner/name".
func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", docview.Errorf(docview.EINVALID, "repository must be owner/name, got %q", repo)
	}
	return owner, name, nil
}

// wrapError maps go-github errors onto error codes.
func wrapError(ctx context.Context, err error, operation string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return docview.WrapError(docview.ENETWORK, err, "%s: rate limited until %s", operation, rateErr.Rate.Reset.Time.Format(time.RFC3339))
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return docview.WrapError(docview.ENETWORK, err, "%s: secondary rate limit", operation)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		switch {
		case code == http.StatusNotFound:
			return docview.WrapError(docview.ENOTFOUND, err, "%s: not found", operation)
		case code == http.StatusTooManyRequests || code >= 500:
			return docview.WrapError(docview.ENETWORK, err, "%s: HTTP %d", operation, code)
		default:
			return docview.WrapError(docview.EINVALID, err, "%s: HTTP %d", operation, code)
		}
	}

	return docview.WrapError(docview.ENETWORK, err, "%s", operation)
}
