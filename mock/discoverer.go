package mock

import (
	"context"

	"github.com/fwojciec/docview"
)

var _ docview.Discoverer = (*Discoverer)(nil)

// Discoverer is a mock implementation of docview.Discoverer.
type Discoverer struct {
	DiscoverFn func(ctx context.Context, base string, include, exclude []string) ([]string, error)
}

func (d *Discoverer) Discover(ctx context.Context, base string, include, exclude []string) ([]string, error) {
	return d.DiscoverFn(ctx, base, include, exclude)
}

var _ docview.RepositoryLister = (*RepositoryLister)(nil)

// RepositoryLister is a mock implementation of docview.RepositoryLister.
type RepositoryLister struct {
	ListFilesFn func(ctx context.Context, repo, ref, path string) ([]string, error)
}

func (l *RepositoryLister) ListFiles(ctx context.Context, repo, ref, path string) ([]string, error) {
	return l.ListFilesFn(ctx, repo, ref, path)
}
