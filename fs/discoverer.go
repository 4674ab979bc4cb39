package fs

import (
	"context"
	iofs "io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/docview"
)

// Ensure Discoverer implements docview.Discoverer at compile time.
var _ docview.Discoverer = (*Discoverer)(nil)

// Discoverer lists files below a base directory matching glob patterns.
type Discoverer struct {
	// Open returns the file system rooted at base. Defaults to os.DirFS.
	Open func(base string) iofs.FS
}

// NewDiscoverer creates a Discoverer over the operating system's files.
func NewDiscoverer() *Discoverer {
	return &Discoverer{Open: os.DirFS}
}

// Discover returns the sorted slash-separated paths, relative to base, of
// the files matching any include pattern and no exclude pattern. An empty
// include list matches every file.
func (d *Discoverer) Discover(ctx context.Context, base string, include, exclude []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	open := d.Open
	if open == nil {
		open = os.DirFS
	}
	fsys := open(base)
	if _, err := iofs.Stat(fsys, "."); err != nil {
		return nil, docview.WrapError(docview.ENOTFOUND, err, "base path %s", base)
	}

	if len(include) == 0 {
		include = []string{"**"}
	}

	seen := make(map[string]bool)
	files := []string{}
	for _, pattern := range include {
		err := doublestar.GlobWalk(fsys, pattern, func(p string, _ iofs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if seen[p] || !docview.MatchPatterns(p, nil, exclude) {
				return nil
			}
			seen[p] = true
			files = append(files, p)
			return nil
		}, doublestar.WithFilesOnly())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, docview.WrapError(docview.EINVALID, err, "glob %q", pattern)
		}
	}
	sort.Strings(files)
	return files, nil
}
