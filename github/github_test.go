package github_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client, err := github.NewClient(github.WithBaseURL(srv.URL), github.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func TestLister_ListFiles(t *testing.T) {
	t.Parallel()

	t.Run("returns blobs below path sorted", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("recursive"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"sha":"abc","truncated":false,"tree":[
				{"path":"README.md","type":"blob"},
				{"path":"docs","type":"tree"},
				{"path":"docs/zeta.md","type":"blob"},
				{"path":"docs/guides/alpha.md","type":"blob"},
				{"path":"docsite/other.md","type":"blob"}
			]}`)
		})

		files, err := github.NewLister(newClient(t, mux)).ListFiles(context.Background(), "acme/widgets", "main", "docs/")

		require.NoError(t, err)
		assert.Equal(t, []string{"docs/guides/alpha.md", "docs/zeta.md"}, files)
	})

	t.Run("empty path lists whole repository", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets/git/trees/v1", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tree":[{"path":"b.md","type":"blob"},{"path":"a.md","type":"blob"}]}`)
		})

		files, err := github.NewLister(newClient(t, mux)).ListFiles(context.Background(), "acme/widgets", "v1", "")

		require.NoError(t, err)
		assert.Equal(t, []string{"a.md", "b.md"}, files)
	})

	t.Run("missing repository is not found", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/missing/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		})

		_, err := github.NewLister(newClient(t, mux)).ListFiles(context.Background(), "acme/missing", "main", "")

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
	})

	t.Run("server error is a network error", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message":"Bad Gateway"}`)
		})

		_, err := github.NewLister(newClient(t, mux)).ListFiles(context.Background(), "acme/widgets", "main", "")

		assert.Equal(t, docview.ENETWORK, docview.ErrorCode(err))
	})

	t.Run("rejects malformed repository", func(t *testing.T) {
		t.Parallel()

		_, err := github.NewLister(newClient(t, http.NewServeMux())).ListFiles(context.Background(), "widgets", "main", "")

		assert.Equal(t, docview.EINVALID, docview.ErrorCode(err))
	})
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("decodes base64 content", func(t *testing.T) {
		t.Parallel()

		content := base64.StdEncoding.EncodeToString([]byte("# Intro\n\nHello."))
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets/contents/docs/intro.md", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "v2", r.URL.Query().Get("ref"))
			fmt.Fprintf(w, `{"type":"file","name":"intro.md","path":"docs/intro.md","encoding":"base64","content":%q}`, content)
		})
		f := github.NewFetcher(newClient(t, mux), "acme/widgets", "v2")

		resp, err := f.Fetch(context.Background(), docview.Locator{Kind: docview.SourceGitHub, Location: "docs/intro.md"})

		require.NoError(t, err)
		assert.Equal(t, "# Intro\n\nHello.", string(resp.Body))
		assert.Equal(t, "text/markdown", resp.ContentType)
	})

	t.Run("missing file is not found", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets/contents/docs/gone.md", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		})
		f := github.NewFetcher(newClient(t, mux), "acme/widgets", "main")

		_, err := f.Fetch(context.Background(), docview.Locator{Kind: docview.SourceGitHub, Location: "docs/gone.md"})

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
	})

	t.Run("directory is invalid", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widgets/contents/docs", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"type":"file","name":"a.md","path":"docs/a.md"}]`)
		})
		f := github.NewFetcher(newClient(t, mux), "acme/widgets", "main")

		_, err := f.Fetch(context.Background(), docview.Locator{Kind: docview.SourceGitHub, Location: "docs"})

		assert.Equal(t, docview.EINVALID, docview.ErrorCode(err))
	})

	t.Run("rejects other locator kinds", func(t *testing.T) {
		t.Parallel()

		f := github.NewFetcher(newClient(t, http.NewServeMux()), "acme/widgets", "main")

		_, err := f.Fetch(context.Background(), docview.Locator{Kind: docview.SourceURL, Location: "https://example.com"})

		assert.Equal(t, docview.EINVALID, docview.ErrorCode(err))
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := github.NewFetcher(newClient(t, http.NewServeMux()), "acme/widgets", "main")

		_, err := f.Fetch(ctx, docview.Locator{Kind: docview.SourceGitHub, Location: "a.md"})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
