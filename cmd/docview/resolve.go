package main

import (
	"fmt"
	"strings"
)

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	docs := deps.Engine.Documents()
	if len(docs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found.")
		return nil
	}

	for _, doc := range docs {
		stub := doc.Stub
		title := stub.Title
		if len(stub.Category) > 0 {
			title = strings.Join(stub.Category, " / ") + " / " + title
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", stub.ID, title, stub.Locator.Location)
	}
	return nil
}
