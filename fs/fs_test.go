package fs_test

import (
	"context"
	iofs "io/fs"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localLocator(p string) docview.Locator {
	return docview.Locator{Kind: docview.SourceLocal, Location: p}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.md":              {Data: []byte("# Home")},
		"guides/install.md":     {Data: []byte("# Install")},
		"guides/deploy.md":      {Data: []byte("# Deploy")},
		"guides/img/logo.png":   {Data: []byte{0x89}},
		"drafts/wip.md":         {Data: []byte("# WIP")},
		"reference/api/http.md": {Data: []byte("# HTTP")},
	}
}

// deniedFS refuses every open with a permission error.
type deniedFS struct{}

func (deniedFS) Open(name string) (iofs.File, error) {
	return nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrPermission}
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("reads file content", func(t *testing.T) {
		t.Parallel()

		resp, err := fs.NewFSFetcher(testFS()).Fetch(context.Background(), localLocator("guides/install.md"))

		require.NoError(t, err)
		assert.Equal(t, "# Install", string(resp.Body))
		assert.Equal(t, "text/markdown", resp.ContentType)
	})

	t.Run("missing file is not found", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewFSFetcher(testFS()).Fetch(context.Background(), localLocator("nope.md"))

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
		assert.False(t, docview.Classify(err, "").Retryable)
	})

	t.Run("unreadable file is not found", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewFSFetcher(deniedFS{}).Fetch(context.Background(), localLocator("private.md"))

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
		assert.Equal(t, docview.KindNotFound, docview.Classify(err, "").Kind)
	})

	t.Run("cannot escape the root", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.md"), []byte("secret"), 0o644))
		root := filepath.Join(dir, "docs")
		require.NoError(t, os.Mkdir(root, 0o755))

		_, err := fs.NewFetcher(root).Fetch(context.Background(), localLocator("../secret.md"))

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
	})

	t.Run("reads from disk", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A"), 0o644))

		resp, err := fs.NewFetcher(dir).Fetch(context.Background(), localLocator("a.md"))

		require.NoError(t, err)
		assert.Equal(t, "# A", string(resp.Body))
	})
}

func TestDiscoverer_Discover(t *testing.T) {
	t.Parallel()

	newDiscoverer := func() *fs.Discoverer {
		return &fs.Discoverer{Open: func(string) iofs.FS { return testFS() }}
	}

	t.Run("matches include and drops exclude", func(t *testing.T) {
		t.Parallel()

		files, err := newDiscoverer().Discover(context.Background(), "/docs", []string{"**/*.md"}, []string{"drafts/**"})

		require.NoError(t, err)
		assert.Equal(t, []string{
			"guides/deploy.md",
			"guides/install.md",
			"index.md",
			"reference/api/http.md",
		}, files)
	})

	t.Run("overlapping includes are deduplicated", func(t *testing.T) {
		t.Parallel()

		files, err := newDiscoverer().Discover(context.Background(), "/docs", []string{"guides/*.md", "**/install.md"}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"guides/deploy.md", "guides/install.md"}, files)
	})

	t.Run("empty include lists every file", func(t *testing.T) {
		t.Parallel()

		files, err := newDiscoverer().Discover(context.Background(), "/docs", nil, nil)

		require.NoError(t, err)
		assert.Len(t, files, 6)
	})

	t.Run("missing base directory is not found", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewDiscoverer().Discover(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, nil)

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newDiscoverer().Discover(ctx, "/docs", nil, nil)

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestExporter(t *testing.T) {
	t.Parallel()

	stub := &docview.Stub{
		ID:       "abc",
		Title:    "API Reference",
		Category: []string{"Reference"},
		Locator:  docview.Locator{Kind: docview.SourceURL, Location: "https://example.com/docs/api"},
	}

	t.Run("save writes to temporary directory until commit", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		e := fs.NewExporter(base, "out")

		require.NoError(t, e.Save(context.Background(), stub, []byte("# API\n")))

		_, err := os.Stat(filepath.Join(base, "out.tmp", "docs", "api.md"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(base, "out"))
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, e.Commit())

		data, err := os.ReadFile(filepath.Join(base, "out", "docs", "api.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "title: API Reference\n")
		assert.Contains(t, string(data), "url:https://example.com/docs/api")
		assert.Contains(t, string(data), "---\n\n# API\n")
		_, err = os.Stat(filepath.Join(base, "out.tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("commit replaces previous export", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(base, "out"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(base, "out", "stale.md"), []byte("old"), 0o644))
		e := fs.NewExporter(base, "out")

		require.NoError(t, e.Save(context.Background(), stub, []byte("# API")))
		require.NoError(t, e.Commit())

		_, err := os.Stat(filepath.Join(base, "out", "stale.md"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("abort removes temporary directory", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		e := fs.NewExporter(base, "out")
		require.NoError(t, e.Save(context.Background(), stub, []byte("# API")))

		require.NoError(t, e.Abort())

		_, err := os.Stat(filepath.Join(base, "out.tmp"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestExportPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		loc  docview.Locator
		want string
	}{
		{docview.Locator{Kind: docview.SourceURL, Location: "https://example.com/docs/api/users"}, "docs/api/users.md"},
		{docview.Locator{Kind: docview.SourceURL, Location: "https://example.com/docs/"}, "docs/index.md"},
		{docview.Locator{Kind: docview.SourceURL, Location: "https://example.com"}, "index.md"},
		{docview.Locator{Kind: docview.SourceURL, Location: "https://example.com/guide.html"}, "guide.md"},
		{docview.Locator{Kind: docview.SourceLocal, Location: "guides/intro.md"}, "guides/intro.md"},
		{docview.Locator{Kind: docview.SourceGitHub, Location: "docs/README.md"}, "docs/README.md"},
		{docview.Locator{Kind: docview.SourceInline, Location: "welcome"}, "welcome.md"},
		{docview.Locator{Kind: docview.SourceLocal, Location: "../../etc/passwd"}, "etc/passwd.md"},
	}
	for _, tt := range tests {
		t.Run(tt.loc.String(), func(t *testing.T) {
			t.Parallel()

			got, err := fs.ExportPath(tt.loc)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
