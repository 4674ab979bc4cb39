package docview_test

import (
	"testing"
	"time"

	"github.com/fwojciec/docview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func fields(err error) []string {
	verrs, ok := err.(docview.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]string, len(verrs))
	for i, v := range verrs {
		out[i] = v.Field
	}
	return out
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("decodes yaml", func(t *testing.T) {
		t.Parallel()

		raw, err := docview.ParseConfig([]byte(`
container: docs
source:
  type: github
  repo: acme/widgets
  path: docs
search:
  maxEditDistance: 1
cache:
  ttlMs: 0
`))

		require.NoError(t, err)
		assert.Equal(t, "docs", raw.Container)
		assert.Equal(t, "acme/widgets", raw.Source.Repo)
		require.NotNil(t, raw.Search.MaxEditDistance)
		assert.Equal(t, 1, *raw.Search.MaxEditDistance)
		require.NotNil(t, raw.Cache.TTLMs)
		assert.Zero(t, *raw.Cache.TTLMs)
		assert.Nil(t, raw.Load)
	})

	t.Run("decodes json", func(t *testing.T) {
		t.Parallel()

		raw, err := docview.ParseConfig([]byte(`{"container":"c","source":{"type":"url","baseUrl":"https://example.com/docs/"}}`))

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/docs/", raw.Source.BaseURL)
	})

	t.Run("malformed input", func(t *testing.T) {
		t.Parallel()

		_, err := docview.ParseConfig([]byte("container: [unterminated"))

		assert.Equal(t, docview.EINVALID, docview.ErrorCode(err))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := docview.Validate(&docview.RawConfig{
			Container: " docs ",
			Source:    &docview.RawSource{Type: "Local", BasePath: "./docs"},
		})

		require.NoError(t, err)
		assert.Equal(t, "docs", cfg.Container)
		assert.Equal(t, docview.SourceLocal, cfg.Source.Kind)
		assert.Equal(t, []string{"**/*.md"}, cfg.Source.Include)
		assert.False(t, cfg.Navigation.AutoSort)
		assert.True(t, cfg.Search.Enabled)
		assert.True(t, cfg.Search.Fuzzy)
		assert.Equal(t, 2, cfg.Search.MaxEditDistance)
		assert.Equal(t, 100, cfg.Cache.MaxEntries)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, 10*time.Second, cfg.Load.Timeout)
		assert.Equal(t, 3, cfg.Load.MaxRetries)
		assert.Equal(t, 6, cfg.Load.MaxConcurrentLoads)
		assert.Equal(t, time.Second, cfg.Load.RetryBaseDelay)
	})

	t.Run("overrides only given fields", func(t *testing.T) {
		t.Parallel()

		cfg, err := docview.Validate(&docview.RawConfig{
			Container:  "docs",
			Source:     &docview.RawSource{Type: "inline", Documents: []docview.SourceDocument{{ID: "a", Content: "# A"}}},
			Navigation: &docview.RawNavigation{AutoSort: boolPtr(true)},
			Cache:      &docview.RawCache{TTLMs: intPtr(0)},
			Load:       &docview.RawLoad{MaxRetries: intPtr(0), TimeoutMs: intPtr(250)},
		})

		require.NoError(t, err)
		assert.True(t, cfg.Navigation.AutoSort)
		assert.Zero(t, cfg.Cache.TTL)
		assert.Equal(t, 100, cfg.Cache.MaxEntries)
		assert.Zero(t, cfg.Load.MaxRetries)
		assert.Equal(t, 250*time.Millisecond, cfg.Load.Timeout)
		assert.Empty(t, cfg.Source.Include)
	})

	t.Run("github defaults ref", func(t *testing.T) {
		t.Parallel()

		cfg, err := docview.Validate(&docview.RawConfig{
			Container: "docs",
			Source:    &docview.RawSource{Type: "github", Repo: "acme/widgets", Path: "/docs/"},
		})

		require.NoError(t, err)
		assert.Equal(t, "main", cfg.Source.Ref)
		assert.Equal(t, "docs", cfg.Source.Path)
	})

	t.Run("url sources match every sitemap entry by default", func(t *testing.T) {
		t.Parallel()

		cfg, err := docview.Validate(&docview.RawConfig{
			Container: "docs",
			Source:    &docview.RawSource{Type: "url", BaseURL: "https://example.com/docs/"},
		})

		require.NoError(t, err)
		assert.Empty(t, cfg.Source.Include)
	})

	t.Run("reports two errors together", func(t *testing.T) {
		t.Parallel()

		_, err := docview.Validate(&docview.RawConfig{})

		assert.Equal(t, []string{"container", "source"}, fields(err))
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := docview.Validate(nil)

		assert.Len(t, fields(err), 2)
	})

	tests := []struct {
		name  string
		raw   *docview.RawConfig
		field string
	}{
		{"missing source type", &docview.RawConfig{Container: "c", Source: &docview.RawSource{}}, "source.type"},
		{"unknown source type", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "ftp"}}, "source.type"},
		{"local without base path", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local"}}, "source.basePath"},
		{"relative base url", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "url", BaseURL: "/docs"}}, "source.baseUrl"},
		{"non-http base url", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "url", BaseURL: "ftp://example.com"}}, "source.baseUrl"},
		{"malformed repo", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "github", Repo: "widgets"}}, "source.repo"},
		{"inline without documents", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "inline"}}, "source.documents"},
		{"inline without content", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "inline", Documents: []docview.SourceDocument{{ID: "a"}}}}, "source.documents[0].content"},
		{"document without path", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: ".", Documents: []docview.SourceDocument{{Title: "A"}}}}, "source.documents[0].path"},
		{"documents and patterns", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: ".", Documents: []docview.SourceDocument{{Path: "a.md"}}, Include: []string{"*.md"}}}, "source.include"},
		{"malformed include", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: ".", Include: []string{"[a"}}}, "source.include[0]"},
		{"malformed exclude", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: ".", Exclude: []string{"[a"}}}, "source.exclude[0]"},
		{"edit distance out of range", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Search: &docview.RawSearch{MaxEditDistance: intPtr(4)}}, "search.maxEditDistance"},
		{"fuzzy without search", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Search: &docview.RawSearch{Enabled: boolPtr(false), FuzzySearch: boolPtr(true)}}, "search.fuzzySearch"},
		{"zero cache size", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Cache: &docview.RawCache{MaxEntries: intPtr(0)}}, "cache.maxEntries"},
		{"negative ttl", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Cache: &docview.RawCache{TTLMs: intPtr(-1)}}, "cache.ttlMs"},
		{"zero timeout", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Load: &docview.RawLoad{TimeoutMs: intPtr(0)}}, "load.timeoutMs"},
		{"negative retries", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Load: &docview.RawLoad{MaxRetries: intPtr(-1)}}, "load.maxRetries"},
		{"zero concurrency", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Load: &docview.RawLoad{MaxConcurrentLoads: intPtr(0)}}, "load.maxConcurrentLoads"},
		{"negative backoff", &docview.RawConfig{Container: "c", Source: &docview.RawSource{Type: "local", BasePath: "."}, Load: &docview.RawLoad{RetryBaseDelayMs: intPtr(-5)}}, "load.retryBaseDelayMs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := docview.Validate(tt.raw)

			require.Error(t, err)
			assert.Equal(t, []string{tt.field}, fields(err))
		})
	}
}
