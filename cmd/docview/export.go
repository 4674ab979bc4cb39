package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/fs"
)

// Run executes the export command. Failed documents are skipped and
// reported; the export is committed when at least one document was saved.
func (c *ExportCmd) Run(deps *Dependencies) error {
	exporter := fs.NewExporter(c.Dir, c.Name)

	saved, failed := 0, 0
	for _, doc := range deps.Engine.LoadAll(deps.Ctx) {
		if doc.State != docview.Loaded {
			failed++
			continue
		}
		_, content, err := deps.Engine.Get(deps.Ctx, doc.ID())
		if err != nil {
			failed++
			continue
		}
		if err := exporter.Save(deps.Ctx, doc.Stub, content); err != nil {
			_ = exporter.Abort()
			fmt.Fprintf(deps.Stderr, "error: %s\n", docview.ErrorMessage(err))
			return err
		}
		saved++
	}

	if saved == 0 {
		_ = exporter.Abort()
		return docview.Errorf(docview.ENOTFOUND, "no documents could be loaded")
	}
	if err := exporter.Commit(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docview.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d documents to %s", saved, filepath.Join(c.Dir, c.Name))
	if failed > 0 {
		fmt.Fprintf(deps.Stdout, " (%d failed)", failed)
	}
	fmt.Fprintln(deps.Stdout)
	return nil
}
