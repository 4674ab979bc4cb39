package main

import (
	"fmt"

	"github.com/fwojciec/docview"
)

// Run executes the collapse command.
func (c *CollapseCmd) Run(deps *Dependencies) error {
	if err := deps.Engine.SetCollapsed(deps.Ctx, c.Node, !c.Expand); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docview.ErrorMessage(err))
		return err
	}

	verb := "Collapsed"
	if c.Expand {
		verb = "Expanded"
	}
	fmt.Fprintf(deps.Stdout, "%s %s\n", verb, c.Node)
	return nil
}
