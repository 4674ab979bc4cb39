package main

import (
	"fmt"

	"github.com/fwojciec/docview"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	docs := deps.Engine.LoadAll(deps.Ctx)
	stats := deps.Engine.Stats()

	fmt.Fprintf(deps.Stdout, "%d documents, %d loaded, %d failed, %d indexed (%d terms)\n",
		stats.Documents, stats.Loaded, stats.Failed, stats.Indexed, stats.Terms)

	for _, doc := range docs {
		if doc.State != docview.Failed || doc.Err == nil {
			continue
		}
		retry := ""
		if doc.Err.Retryable {
			retry = " (retryable)"
		}
		fmt.Fprintf(deps.Stdout, "  %s  %s: %s%s\n", doc.ID(), doc.Err.Kind, doc.Err.Message, retry)
	}
	return nil
}
