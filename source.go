package docview

import "context"

// SourceKind identifies the variant of a Source.
type SourceKind string

// SourceKind constants.
const (
	SourceLocal  SourceKind = "local"
	SourceURL    SourceKind = "url"
	SourceGitHub SourceKind = "github"
	SourceInline SourceKind = "inline"
)

// Source describes where documents come from. Only the fields relevant to
// Kind are meaningful.
type Source struct {
	Kind SourceKind

	// Local.
	BasePath string

	// Url.
	BaseURL string

	// GitHub.
	Repo string
	Ref  string
	Path string

	// Documents is the explicit document list. For inline sources every
	// document carries its content.
	Documents []SourceDocument

	// Include and Exclude are glob patterns handed to discovery when no
	// explicit document list is given.
	Include []string
	Exclude []string
}

// HasDocuments reports whether the source declares an explicit list.
func (s *Source) HasDocuments() bool {
	return len(s.Documents) > 0
}

// SourceDocument is an explicitly declared document.
type SourceDocument struct {
	ID       string   `yaml:"id" json:"id"`
	Path     string   `yaml:"path" json:"path"`
	Title    string   `yaml:"title" json:"title"`
	Category []string `yaml:"category" json:"category"`
	Content  string   `yaml:"content" json:"content"`
}

// Discoverer lists documents below a base location. Include and exclude are
// glob patterns matched against locations relative to base.
type Discoverer interface {
	Discover(ctx context.Context, base string, include, exclude []string) ([]string, error)
}

// RepositoryLister lists file paths of a repository at a ref, below path.
type RepositoryLister interface {
	ListFiles(ctx context.Context, repo, ref, path string) ([]string, error)
}
