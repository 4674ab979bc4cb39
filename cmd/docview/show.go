package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/docview"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	if c.Refresh {
		deps.Engine.Invalidate(c.ID)
	}

	_, content, err := deps.Engine.Get(deps.Ctx, c.ID)
	if err != nil {
		var rec *docview.ErrorRecord
		if errors.As(err, &rec) {
			fmt.Fprintf(deps.Stderr, "error: %s (%s)\n", rec.Message, rec.MessageKey)
			if rec.Retryable {
				fmt.Fprintln(deps.Stderr, "Hint: the failure is transient, run the command again with --refresh")
			}
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", docview.ErrorMessage(err))
		return err
	}

	fmt.Fprint(deps.Stdout, string(content))
	return nil
}
