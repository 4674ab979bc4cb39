package main

import (
	"fmt"

	"github.com/fwojciec/docview"
)

// Run executes the search command. Every document is loaded first so the
// results cover the whole source.
func (c *SearchCmd) Run(deps *Dependencies) error {
	deps.Engine.LoadAll(deps.Ctx)

	results, err := deps.Engine.Query(deps.Ctx, c.Query)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docview.ErrorMessage(err))
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No results for %q.\n", c.Query)
		return nil
	}

	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}
	for i, r := range results {
		title := r.DocumentID
		if doc, ok := deps.Engine.Document(r.DocumentID); ok {
			title = doc.Stub.Title
		}
		fmt.Fprintf(deps.Stdout, "%d. %s (%s) %.3f\n", i+1, title, r.DocumentID, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(deps.Stdout, "   %s\n", r.Snippet)
		}
	}
	return nil
}
