package github

import (
	"context"
	"io"
	"path"

	"github.com/fwojciec/docview"
	gh "github.com/google/go-github/v80/github"
)

var _ docview.Fetcher = (*Fetcher)(nil)

// Fetcher reads file contents of one repository at one ref. Locations are
// repository-relative paths.
type Fetcher struct {
	client *Client
	repo   string
	ref    string
}

// NewFetcher creates a Fetcher for repo ("owner/name") at ref.
func NewFetcher(client *Client, repo, ref string) *Fetcher {
	return &Fetcher{client: client, repo: repo, ref: ref}
}

// Fetch returns the content of the file at loc.Location.
func (f *Fetcher) Fetch(ctx context.Context, loc docview.Locator) (*docview.Response, error) {
	if loc.Kind != docview.SourceGitHub {
		return nil, docview.Errorf(docview.EINVALID, "github fetcher cannot read %s locators", loc.Kind)
	}
	owner, name, err := splitRepo(f.repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.RepositoryContentGetOptions{Ref: f.ref}
	file, dir, _, err := f.client.gh.Repositories.GetContents(ctx, owner, name, loc.Location, opts)
	if err != nil {
		return nil, wrapError(ctx, err, "get contents "+loc.Location)
	}
	if file == nil || dir != nil {
		return nil, docview.Errorf(docview.EINVALID, "%s is a directory", loc.Location)
	}

	// Files over 1MB come back without inline content.
	if file.GetEncoding() == "none" {
		return f.download(ctx, owner, name, loc.Location, opts)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, docview.WrapError(docview.EPARSE, err, "decoding %s", loc.Location)
	}
	return &docview.Response{Body: []byte(content), ContentType: contentType(loc.Location)}, nil
}

func (f *Fetcher) download(ctx context.Context, owner, name, filepath string, opts *gh.RepositoryContentGetOptions) (*docview.Response, error) {
	rc, _, err := f.client.gh.Repositories.DownloadContents(ctx, owner, name, filepath, opts)
	if err != nil {
		return nil, wrapError(ctx, err, "download "+filepath)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, wrapError(ctx, err, "read "+filepath)
	}
	return &docview.Response{Body: body, ContentType: contentType(filepath)}, nil
}

func contentType(p string) string {
	switch path.Ext(p) {
	case ".md", ".markdown", ".mdx":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
