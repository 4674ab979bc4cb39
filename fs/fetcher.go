// Package fs reads, discovers and exports documents on the local file
// system.
package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path"
	"strings"

	"github.com/fwojciec/docview"
)

// Ensure Fetcher implements docview.Fetcher at compile time.
var _ docview.Fetcher = (*Fetcher)(nil)

// Fetcher reads documents from a file system rooted at the source base
// path. Locations are slash-separated and may not escape the root.
type Fetcher struct {
	fsys iofs.FS
}

// NewFetcher creates a Fetcher reading below dir.
func NewFetcher(dir string) *Fetcher {
	return &Fetcher{fsys: os.DirFS(dir)}
}

// NewFSFetcher creates a Fetcher over fsys.
func NewFSFetcher(fsys iofs.FS) *Fetcher {
	return &Fetcher{fsys: fsys}
}

// Fetch reads the file at loc.Location.
func (f *Fetcher) Fetch(ctx context.Context, loc docview.Locator) (*docview.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path.Clean("/"+loc.Location), "/")
	if name == "" || !iofs.ValidPath(name) {
		return nil, docview.Errorf(docview.EINVALID, "invalid document path %q", loc.Location)
	}

	body, err := iofs.ReadFile(f.fsys, name)
	switch {
	case err == nil:
		return &docview.Response{Body: body, ContentType: contentType(name)}, nil
	case errors.Is(err, iofs.ErrNotExist):
		return nil, docview.WrapError(docview.ENOTFOUND, err, "document %s not found", name)
	case errors.Is(err, iofs.ErrPermission):
		return nil, docview.WrapError(docview.ENOTFOUND, err, "document %s not readable", name)
	default:
		return nil, err
	}
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".mdx":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	default:
		return "text/plain"
	}
}
