package fs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docview"
	"gopkg.in/yaml.v3"
)

// Exporter writes loaded documents as markdown files with YAML front
// matter. Files go to a temporary directory that replaces the output
// directory on Commit, so readers never observe a partial export.
type Exporter struct {
	baseDir string
	name    string
}

// NewExporter creates an Exporter writing to baseDir/name.
func NewExporter(baseDir, name string) *Exporter {
	return &Exporter{baseDir: baseDir, name: name}
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

func (e *Exporter) finalDir() string {
	return filepath.Join(e.baseDir, e.name)
}

// frontMatter is the metadata written ahead of each exported document.
type frontMatter struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Category []string `yaml:"category,omitempty"`
	Source   string   `yaml:"source"`
}

// Save writes one document to the temporary directory.
func (e *Exporter) Save(ctx context.Context, stub *docview.Stub, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := ExportPath(stub.Locator)
	if err != nil {
		return err
	}

	meta, err := yaml.Marshal(frontMatter{
		ID:       stub.ID,
		Title:    stub.Title,
		Category: stub.Category,
		Source:   stub.Locator.String(),
	})
	if err != nil {
		return fmt.Errorf("encode front matter: %w", err)
	}

	full := filepath.Join(e.tempDir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.Write(content)
	return os.WriteFile(full, []byte(b.String()), 0o644)
}

// Commit replaces the output directory with the temporary one.
func (e *Exporter) Commit() error {
	if err := os.RemoveAll(e.finalDir()); err != nil {
		return err
	}
	return os.Rename(e.tempDir(), e.finalDir())
}

// Abort discards the temporary directory.
func (e *Exporter) Abort() error {
	return os.RemoveAll(e.tempDir())
}

// ExportPath maps a locator to a relative markdown file path. URL paths
// ending in a slash become index.md in that directory.
//
//	url:https://example.com/docs/api/users -> docs/api/users.md
//	local:guides/intro.md                  -> guides/intro.md
func ExportPath(loc docview.Locator) (string, error) {
	p := loc.Location
	if loc.Kind == docview.SourceURL {
		u, err := url.Parse(loc.Location)
		if err != nil {
			return "", docview.WrapError(docview.EINVALID, err, "invalid document URL")
		}
		p = u.Path
	}

	trailing := strings.HasSuffix(p, "/")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	switch {
	case p == "":
		return "index.md", nil
	case trailing:
		return p + "/index.md", nil
	case path.Ext(p) == ".md":
		return p, nil
	default:
		return strings.TrimSuffix(p, path.Ext(p)) + ".md", nil
	}
}
