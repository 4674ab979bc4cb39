package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/fs"
)

// Run executes the watch command. It blocks until the context ends.
func (c *WatchCmd) Run(deps *Dependencies) error {
	src := deps.Engine.Config().Source
	if src.Kind != docview.SourceLocal {
		err := docview.Errorf(docview.EINVALID, "watch only supports local sources, got %s", src.Kind)
		fmt.Fprintf(deps.Stderr, "error: %s\n", docview.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Watching %s (%d documents)\n", src.BasePath, len(deps.Engine.Documents()))
	w := fs.NewWatcher(src.BasePath)
	return w.Watch(deps.Ctx, func(paths []string) {
		if err := deps.Engine.Refresh(deps.Ctx, paths); err != nil {
			fmt.Fprintf(deps.Stderr, "error: reload failed: %s\n", docview.ErrorMessage(err))
			return
		}
		fmt.Fprintf(deps.Stdout, "Reloaded after changes to %s\n", strings.Join(paths, ", "))
	})
}
