package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/fs"
	"github.com/fwojciec/docview/github"
	"github.com/fwojciec/docview/goquery"
	"github.com/fwojciec/docview/htmltomarkdown"
	docviewhttp "github.com/fwojciec/docview/http"
	docslog "github.com/fwojciec/docview/slog"
	"github.com/fwojciec/docview/sqlite"
	"github.com/fwojciec/docview/viewer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database backing the state store.
	DB *sqlite.DB

	// Engine built from the configuration file.
	Engine *viewer.Engine

	// Getenv reads environment variables. Replaced by tests.
	Getenv func(string) string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Engine != nil {
		_ = m.Engine.Close()
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docview"),
		kong.Description("Browse and search documentation sets."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docview --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(cli.Config)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set DOCVIEW_CONFIG or pass --config to point at a configuration file")
		return fmt.Errorf("failed to read configuration %q: %w", cli.Config, err)
	}
	raw, err := docview.ParseConfig(data)
	if err != nil {
		return err
	}

	statePath := cli.State
	if statePath == "" {
		statePath = defaultStatePath()
	}
	m.DB = sqlite.NewDB(statePath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintln(stderr, "Hint: Set DOCVIEW_STATE to use a different state database path")
		return fmt.Errorf("failed to open state database at %q: %w", statePath, err)
	}
	defer m.Close()

	engineDeps, err := m.dependencies(raw, logger, cli.Verbose)
	if err != nil {
		return err
	}
	m.Engine, err = viewer.New(ctx, raw, engineDeps)
	if err != nil {
		var verrs docview.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(stderr, "config: %s\n", v)
			}
		}
		return err
	}
	deps.Engine = m.Engine

	return kongCtx.Run(deps)
}

// dependencies wires the services the configured source kind needs. With
// verbose set every remote service is wrapped with a logging decorator.
func (m *Main) dependencies(raw *docview.RawConfig, logger *slog.Logger, verbose bool) (viewer.Dependencies, error) {
	deps := viewer.Dependencies{
		StateStore: sqlite.NewStateStore(m.DB),
		Logger:     logger,
	}
	if raw.Source == nil {
		return deps, nil
	}

	switch docview.SourceKind(strings.ToLower(strings.TrimSpace(raw.Source.Type))) {
	case docview.SourceLocal:
		deps.LocalFetcher = fs.NewFetcher(raw.Source.BasePath)
		deps.LocalDiscoverer = fs.NewDiscoverer()
	case docview.SourceURL:
		var extractor docview.Extractor = goquery.NewExtractor()
		if verbose {
			extractor = docslog.NewLoggingExtractor(extractor, goquery.NewDetector(), logger)
		}
		deps.URLFetcher = docviewhttp.NewFetcher(
			docviewhttp.WithRateLimit(defaultRateLimit),
			docviewhttp.WithHTML(extractor, htmltomarkdown.NewConverter()),
		)
		deps.URLDiscoverer = docviewhttp.NewSitemapDiscoverer(nil)
	case docview.SourceGitHub:
		var opts []github.ClientOption
		if token := m.Getenv("GITHUB_TOKEN"); token != "" {
			opts = append(opts, github.WithToken(token))
		}
		client, err := github.NewClient(opts...)
		if err != nil {
			return deps, err
		}
		deps.GitHubFetcher = github.NewFetcher(client, raw.Source.Repo, githubRef(strings.TrimSpace(raw.Source.Ref)))
		deps.Repository = github.NewLister(client)
	}

	if verbose {
		if deps.LocalFetcher != nil {
			deps.LocalFetcher = docslog.NewLoggingFetcher(deps.LocalFetcher, logger)
		}
		if deps.URLFetcher != nil {
			deps.URLFetcher = docslog.NewLoggingFetcher(deps.URLFetcher, logger)
		}
		if deps.GitHubFetcher != nil {
			deps.GitHubFetcher = docslog.NewLoggingFetcher(deps.GitHubFetcher, logger)
		}
	}
	if deps.LocalDiscoverer != nil {
		deps.LocalDiscoverer = docslog.NewLoggingDiscoverer(deps.LocalDiscoverer, logger)
	}
	if deps.URLDiscoverer != nil {
		deps.URLDiscoverer = docslog.NewLoggingDiscoverer(deps.URLDiscoverer, logger)
	}
	if deps.Repository != nil {
		deps.Repository = docslog.NewLoggingRepositoryLister(deps.Repository, logger)
	}
	return deps, nil
}

// defaultRateLimit is the per-host request rate for url sources.
const defaultRateLimit = 2.0

func githubRef(ref string) string {
	if ref == "" {
		return docview.DefaultGitHubRef
	}
	return ref
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "docview.db"
	}
	dir := filepath.Join(home, ".docview")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "state.db")
}
