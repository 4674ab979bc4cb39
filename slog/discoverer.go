package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docview"
)

// Ensure LoggingDiscoverer implements docview.Discoverer.
var _ docview.Discoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a Discoverer with logging.
type LoggingDiscoverer struct {
	next   docview.Discoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new LoggingDiscoverer.
func NewLoggingDiscoverer(next docview.Discoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the operation.
func (d *LoggingDiscoverer) Discover(ctx context.Context, base string, include, exclude []string) (found []string, err error) {
	defer func(begin time.Time) {
		d.logger.Info("discover",
			"base", base,
			"count", len(found),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Discover(ctx, base, include, exclude)
}

// Ensure LoggingRepositoryLister implements docview.RepositoryLister.
var _ docview.RepositoryLister = (*LoggingRepositoryLister)(nil)

// LoggingRepositoryLister wraps a RepositoryLister with logging.
type LoggingRepositoryLister struct {
	next   docview.RepositoryLister
	logger *slog.Logger
}

// NewLoggingRepositoryLister creates a new LoggingRepositoryLister.
func NewLoggingRepositoryLister(next docview.RepositoryLister, logger *slog.Logger) *LoggingRepositoryLister {
	return &LoggingRepositoryLister{next: next, logger: logger}
}

// ListFiles delegates to the wrapped lister and logs the operation.
func (l *LoggingRepositoryLister) ListFiles(ctx context.Context, repo, ref, path string) (files []string, err error) {
	defer func(begin time.Time) {
		l.logger.Info("list repository",
			"repo", repo,
			"ref", ref,
			"path", path,
			"count", len(files),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.ListFiles(ctx, repo, ref, path)
}
