package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/docview/nav"
)

// Run executes the tree command.
func (c *TreeCmd) Run(deps *Dependencies) error {
	printTree(deps.Stdout, deps.Engine.Navigation(deps.Ctx), 0)
	return nil
}

// printTree writes one line per visible node. Children of collapsed
// categories are hidden.
func printTree(w io.Writer, nodes []*nav.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Kind == nav.Leaf {
			fmt.Fprintf(w, "%s  %s (%s)\n", indent, n.Title, n.DocumentID)
			continue
		}
		marker := "-"
		if n.Collapsed {
			marker = "+"
		}
		fmt.Fprintf(w, "%s%s %s [%s]\n", indent, marker, n.Title, n.ID)
		if !n.Collapsed {
			printTree(w, n.Children, depth+1)
		}
	}
}
