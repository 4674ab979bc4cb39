package main

import (
	"context"
	"io"

	"github.com/fwojciec/docview/viewer"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Engine *viewer.Engine
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" env:"DOCVIEW_CONFIG" default:"docview.yaml" help:"Path to the viewer configuration (YAML or JSON)"`
	State   string `env:"DOCVIEW_STATE" help:"Path to the state database (default ~/.docview/state.db)"`
	Verbose bool   `short:"v" help:"Log fetches and discovery at debug level"`

	Resolve  ResolveCmd  `cmd:"" help:"List the documents of the configured source"`
	Tree     TreeCmd     `cmd:"" help:"Print the navigation tree"`
	Search   SearchCmd   `cmd:"" help:"Search the documents"`
	Show     ShowCmd     `cmd:"" help:"Print the content of a document"`
	Collapse CollapseCmd `cmd:"" help:"Collapse or expand a navigation category"`
	Status   StatusCmd   `cmd:"" help:"Load every document and report failures"`
	Export   ExportCmd   `cmd:"" help:"Write every loaded document to a directory"`
	Watch    WatchCmd    `cmd:"" help:"Reload a local source whenever its files change"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct{}

// TreeCmd is the "tree" subcommand.
type TreeCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Search terms"`
	Limit int    `short:"n" default:"10" help:"Maximum number of results"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID      string `arg:"" help:"Document id"`
	Refresh bool   `help:"Fetch again instead of using the cache"`
}

// CollapseCmd is the "collapse" subcommand.
type CollapseCmd struct {
	Node   string `arg:"" help:"Category node id (as printed by tree)"`
	Expand bool   `help:"Expand the category instead"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Dir  string `arg:"" help:"Output base directory"`
	Name string `default:"docs" help:"Name of the export directory below Dir"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct{}
