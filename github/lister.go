package github

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/docview"
)

var _ docview.RepositoryLister = (*Lister)(nil)

// Lister lists repository files with a single recursive git trees request.
type Lister struct {
	client *Client
}

// NewLister creates a Lister.
func NewLister(client *Client) *Lister {
	return &Lister{client: client}
}

// ListFiles returns the repository-relative paths of all blobs below path
// at ref, sorted.
func (l *Lister) ListFiles(ctx context.Context, repo, ref, path string) ([]string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	tree, _, err := l.client.gh.Git.GetTree(ctx, owner, name, ref, true)
	if err != nil {
		return nil, wrapError(ctx, err, "get tree "+repo+"@"+ref)
	}

	prefix := strings.Trim(path, "/")
	files := []string{}
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		p := entry.GetPath()
		if prefix != "" && !strings.HasPrefix(p, prefix+"/") {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}
