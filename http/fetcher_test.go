package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/goquery"
	"github.com/fwojciec/docview/htmltomarkdown"
	docviewhttp "github.com/fwojciec/docview/http"
	"github.com/fwojciec/docview/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlLocator(u string) docview.Locator {
	return docview.Locator{Kind: docview.SourceURL, Location: u}
}

func serve(t *testing.T, status int, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns markdown body as is", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/markdown; charset=utf-8", "# Hello\n")

		resp, err := docviewhttp.NewFetcher().Fetch(context.Background(), urlLocator(srv.URL+"/hello.md"))

		require.NoError(t, err)
		assert.Equal(t, "# Hello\n", string(resp.Body))
		assert.Equal(t, "text/markdown", resp.ContentType)
	})

	t.Run("converts html to markdown", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/html", `<html><head><title>Guide</title></head>
<body><nav>Menu</nav><main><p>Read the <a href="/docs/api">API</a>.</p></main></body></html>`)
		f := docviewhttp.NewFetcher(docviewhttp.WithHTML(goquery.NewExtractor(), htmltomarkdown.NewConverter()))

		resp, err := f.Fetch(context.Background(), urlLocator(srv.URL+"/docs/guide"))

		require.NoError(t, err)
		md := string(resp.Body)
		assert.Equal(t, "text/markdown", resp.ContentType)
		assert.Contains(t, md, "# Guide")
		assert.Contains(t, md, "[API]("+srv.URL+"/docs/api)")
		assert.NotContains(t, md, "Menu")
	})

	t.Run("keeps html when no converter is configured", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/html", "<p>raw</p>")

		resp, err := docviewhttp.NewFetcher().Fetch(context.Background(), urlLocator(srv.URL))

		require.NoError(t, err)
		assert.Equal(t, "<p>raw</p>", string(resp.Body))
	})

	t.Run("extraction failure is returned", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/html", "<p>x</p>")
		f := docviewhttp.NewFetcher(docviewhttp.WithHTML(
			&mock.Extractor{ExtractFn: func(string) (*docview.ExtractResult, error) {
				return nil, docview.Errorf(docview.EPARSE, "bad page")
			}},
			&mock.Converter{},
		))

		_, err := f.Fetch(context.Background(), urlLocator(srv.URL))

		assert.Equal(t, docview.EPARSE, docview.ErrorCode(err))
	})

	t.Run("maps status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			status int
			code   string
		}{
			{http.StatusNotFound, docview.ENOTFOUND},
			{http.StatusGone, docview.ENOTFOUND},
			{http.StatusTooManyRequests, docview.ENETWORK},
			{http.StatusBadGateway, docview.ENETWORK},
			{http.StatusServiceUnavailable, docview.ENETWORK},
			{http.StatusForbidden, docview.ENOTFOUND},
			{http.StatusUnauthorized, docview.ENOTFOUND},
		}
		for _, tt := range tests {
			srv := serve(t, tt.status, "text/plain", "nope")

			_, err := docviewhttp.NewFetcher().Fetch(context.Background(), urlLocator(srv.URL))

			require.Error(t, err)
			assert.Equal(t, tt.code, docview.ErrorCode(err), "status %d", tt.status)
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/markdown", "# Title\n\n0123456789")

		_, err := docviewhttp.NewFetcher(docviewhttp.WithMaxBodySize(8)).
			Fetch(context.Background(), urlLocator(srv.URL))

		assert.Equal(t, docview.EPARSE, docview.ErrorCode(err))
	})

	t.Run("body at the size limit is kept", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/markdown", "# Title")

		resp, err := docviewhttp.NewFetcher(docviewhttp.WithMaxBodySize(7)).
			Fetch(context.Background(), urlLocator(srv.URL))

		require.NoError(t, err)
		assert.Equal(t, "# Title", string(resp.Body))
	})

	t.Run("client timeout is a timeout", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)

		_, err := docviewhttp.NewFetcher(docviewhttp.WithTimeout(20*time.Millisecond)).
			Fetch(context.Background(), urlLocator(srv.URL))

		require.Error(t, err)
		assert.Equal(t, docview.KindTimeout, docview.Classify(err, "").Kind)
	})

	t.Run("unreachable host is a network error", func(t *testing.T) {
		t.Parallel()

		_, err := docviewhttp.NewFetcher(docviewhttp.WithTimeout(200*time.Millisecond)).
			Fetch(context.Background(), urlLocator("http://non-existent-host.invalid/page"))

		require.Error(t, err)
		assert.True(t, docview.Classify(err, "").Retryable)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, "text/plain", "x")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := docviewhttp.NewFetcher().Fetch(ctx, urlLocator(srv.URL))

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("rejects non-http locations", func(t *testing.T) {
		t.Parallel()

		_, err := docviewhttp.NewFetcher().Fetch(context.Background(), urlLocator("file:///etc/passwd"))

		assert.Equal(t, docview.EINVALID, docview.ErrorCode(err))
	})
}

func TestDomainLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("spaces requests to the same host", func(t *testing.T) {
		t.Parallel()

		l := docviewhttp.NewDomainLimiter(20)
		start := time.Now()
		for range 3 {
			require.NoError(t, l.Wait(context.Background(), "example.com"))
		}

		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("hosts do not share a bucket", func(t *testing.T) {
		t.Parallel()

		l := docviewhttp.NewDomainLimiter(1)
		require.NoError(t, l.Wait(context.Background(), "a.example.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.NoError(t, l.Wait(ctx, "b.example.com"))
	})

	t.Run("returns context error", func(t *testing.T) {
		t.Parallel()

		l := docviewhttp.NewDomainLimiter(0.1)
		require.NoError(t, l.Wait(context.Background(), "slow.example.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		assert.Error(t, l.Wait(ctx, "slow.example.com"))
	})

	t.Run("non-positive rate is unlimited", func(t *testing.T) {
		t.Parallel()

		l := docviewhttp.NewDomainLimiter(0)
		for range 100 {
			require.NoError(t, l.Wait(context.Background(), "example.com"))
		}
	})
}
