package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/docview"
	main "github.com/fwojciec/docview/cmd/docview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineConfig = `
container: handbook
source:
  type: inline
  documents:
    - id: intro
      title: Introduction
      content: "# Introduction\n\nWelcome to the handbook."
    - id: deploy
      category: [Guides]
      content: "# Deploying\n\nShip containers with kubernetes."
`

// fixture writes a configuration file and returns its path together with a
// state database path in the same temporary directory.
func fixture(t *testing.T, config string) (configPath, statePath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "docview.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))
	return configPath, filepath.Join(dir, "state.db")
}

func run(t *testing.T, configPath, statePath string, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	m := main.NewMain()
	m.Getenv = func(string) string { return "" }
	full := append([]string{"--config", configPath, "--state", statePath}, args...)
	err := m.Run(context.Background(), full, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("no command", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		err := main.NewMain().Run(context.Background(), nil, stdout, &bytes.Buffer{})

		require.Error(t, err)
		assert.Contains(t, stdout.String(), "Usage")
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		err := main.NewMain().Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "search")
	})

	t.Run("missing configuration", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, stderr, err := run(t, filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "state.db"), "resolve")

		require.Error(t, err)
		assert.Contains(t, stderr, "DOCVIEW_CONFIG")
	})

	t.Run("invalid configuration lists every violation", func(t *testing.T) {
		t.Parallel()

		configPath, statePath := fixture(t, "source:\n  type: local\n")
		_, stderr, err := run(t, configPath, statePath, "resolve")

		var verrs docview.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
		assert.Contains(t, stderr, "config: container")
		assert.Contains(t, stderr, "config: source.basePath")
	})
}

func TestResolveCmd(t *testing.T) {
	t.Parallel()

	configPath, statePath := fixture(t, inlineConfig)

	stdout, _, err := run(t, configPath, statePath, "resolve")

	require.NoError(t, err)
	assert.Contains(t, stdout, "intro  Introduction  intro")
	assert.Contains(t, stdout, "deploy  Guides / Deploying  deploy")
}

func TestTreeAndCollapseCmd(t *testing.T) {
	t.Parallel()

	configPath, statePath := fixture(t, inlineConfig)

	stdout, _, err := run(t, configPath, statePath, "tree")
	require.NoError(t, err)
	assert.Contains(t, stdout, "- Guides [cat:Guides]")
	assert.Contains(t, stdout, "Deploying (deploy)")

	stdout, _, err = run(t, configPath, statePath, "collapse", "cat:Guides")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Collapsed cat:Guides")

	// The flag survives into a new process through the state database.
	stdout, _, err = run(t, configPath, statePath, "tree")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+ Guides [cat:Guides]")
	assert.NotContains(t, stdout, "Deploying")

	_, _, err = run(t, configPath, statePath, "collapse", "--expand", "cat:Guides")
	require.NoError(t, err)
	stdout, _, err = run(t, configPath, statePath, "tree")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deploying (deploy)")
}

func TestCollapseCmd_UnknownNode(t *testing.T) {
	t.Parallel()

	configPath, statePath := fixture(t, inlineConfig)

	_, stderr, err := run(t, configPath, statePath, "collapse", "cat:Nope")

	assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
	assert.Contains(t, stderr, "not found")
}

func TestSearchCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints ranked results", func(t *testing.T) {
		t.Parallel()

		configPath, statePath := fixture(t, inlineConfig)

		stdout, _, err := run(t, configPath, statePath, "search", "kubernetes")

		require.NoError(t, err)
		assert.Contains(t, stdout, "1. Deploying (deploy)")
		assert.Contains(t, stdout, "kubernetes")
	})

	t.Run("no results", func(t *testing.T) {
		t.Parallel()

		configPath, statePath := fixture(t, inlineConfig)

		stdout, _, err := run(t, configPath, statePath, "search", "zzzzzz")

		require.NoError(t, err)
		assert.Contains(t, stdout, `No results for "zzzzzz"`)
	})
}

func TestShowCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints content", func(t *testing.T) {
		t.Parallel()

		configPath, statePath := fixture(t, inlineConfig)

		stdout, _, err := run(t, configPath, statePath, "show", "intro")

		require.NoError(t, err)
		assert.Equal(t, "# Introduction\n\nWelcome to the handbook.", stdout)
	})

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		configPath, statePath := fixture(t, inlineConfig)

		_, stderr, err := run(t, configPath, statePath, "show", "nope")

		assert.Equal(t, docview.ENOTFOUND, docview.ErrorCode(err))
		assert.Contains(t, stderr, "error:")
	})
}

func TestStatusCmd_LocalSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "guides"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.md"), []byte("# Home\n\nStart here."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guides", "01-setup.md"), []byte("# Setup\n\nInstall it."), 0o644))

	config := "container: local\nsource:\n  type: local\n  basePath: " + docs + "\n" +
		"  documents:\n    - path: index.md\n    - path: guides/01-setup.md\n    - path: missing.md\n" +
		"load:\n  maxRetries: 0\n"
	configPath, statePath := fixture(t, config)

	stdout, _, err := run(t, configPath, statePath, "status")

	require.NoError(t, err)
	assert.Contains(t, stdout, "3 documents, 2 loaded, 1 failed")
	assert.Contains(t, stdout, "not_found")
}

func TestExportCmd(t *testing.T) {
	t.Parallel()

	configPath, statePath := fixture(t, inlineConfig)
	out := t.TempDir()

	stdout, _, err := run(t, configPath, statePath, "export", out, "--name", "handbook")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 2 documents")
	data, err := os.ReadFile(filepath.Join(out, "handbook", "intro.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Introduction")
	assert.Contains(t, string(data), "Welcome to the handbook.")
	_, err = os.Stat(filepath.Join(out, "handbook.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestWatchCmd_RequiresLocalSource(t *testing.T) {
	t.Parallel()

	configPath, statePath := fixture(t, inlineConfig)

	_, stderr, err := run(t, configPath, statePath, "watch")

	assert.Equal(t, docview.EINVALID, docview.ErrorCode(err))
	assert.Contains(t, stderr, "only supports local sources")
}
