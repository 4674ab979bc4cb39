package docview

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Configuration defaults.
const (
	DefaultAutoSort           = false
	DefaultSearchEnabled      = true
	DefaultFuzzySearch        = true
	DefaultMaxEditDistance    = 2
	DefaultMaxCacheEntries    = 100
	DefaultCacheTTL           = 5 * time.Minute
	DefaultLoadTimeout        = 10 * time.Second
	DefaultMaxRetries         = 3
	DefaultMaxConcurrentLoads = 6
	DefaultRetryBaseDelay     = time.Second
	DefaultGitHubRef          = "main"
)

// DefaultInclude is the discovery pattern used when none is configured.
var DefaultInclude = []string{"**/*.md"}

// Config is a validated viewer configuration with every default applied.
type Config struct {
	Container  string
	Source     Source
	Navigation NavigationOptions
	Search     SearchOptions
	Cache      CacheOptions
	Load       LoadOptions
	Theme      string
}

// NavigationOptions configures the navigation tree.
type NavigationOptions struct {
	AutoSort bool
}

// SearchOptions configures the search index.
type SearchOptions struct {
	Enabled         bool
	Fuzzy           bool
	MaxEditDistance int
}

// CacheOptions configures the document cache.
type CacheOptions struct {
	MaxEntries int
	// TTL of zero disables expiry.
	TTL time.Duration
}

// LoadOptions configures the document loader.
type LoadOptions struct {
	Timeout            time.Duration
	MaxRetries         int
	MaxConcurrentLoads int
	RetryBaseDelay     time.Duration
}

// RawConfig is the configuration as supplied by the caller. Optional fields
// are pointers so that absent values can be told apart from zero values.
type RawConfig struct {
	Container  string         `yaml:"container" json:"container"`
	Source     *RawSource     `yaml:"source" json:"source"`
	Navigation *RawNavigation `yaml:"navigation" json:"navigation"`
	Search     *RawSearch     `yaml:"search" json:"search"`
	Cache      *RawCache      `yaml:"cache" json:"cache"`
	Load       *RawLoad       `yaml:"load" json:"load"`
	Theme      string         `yaml:"theme" json:"theme"`
}

// RawSource is the source descriptor as supplied by the caller.
type RawSource struct {
	Type      string           `yaml:"type" json:"type"`
	BasePath  string           `yaml:"basePath" json:"basePath"`
	BaseURL   string           `yaml:"baseUrl" json:"baseUrl"`
	Repo      string           `yaml:"repo" json:"repo"`
	Ref       string           `yaml:"ref" json:"ref"`
	Path      string           `yaml:"path" json:"path"`
	Documents []SourceDocument `yaml:"documents" json:"documents"`
	Include   []string         `yaml:"include" json:"include"`
	Exclude   []string         `yaml:"exclude" json:"exclude"`
}

// RawNavigation holds optional navigation settings.
type RawNavigation struct {
	AutoSort *bool `yaml:"autoSort" json:"autoSort"`
}

// RawSearch holds optional search settings.
type RawSearch struct {
	Enabled         *bool `yaml:"enabled" json:"enabled"`
	FuzzySearch     *bool `yaml:"fuzzySearch" json:"fuzzySearch"`
	MaxEditDistance *int  `yaml:"maxEditDistance" json:"maxEditDistance"`
}

// RawCache holds optional cache settings.
type RawCache struct {
	MaxEntries *int `yaml:"maxEntries" json:"maxEntries"`
	TTLMs      *int `yaml:"ttlMs" json:"ttlMs"`
}

// RawLoad holds optional load settings.
type RawLoad struct {
	TimeoutMs          *int `yaml:"timeoutMs" json:"timeoutMs"`
	MaxRetries         *int `yaml:"maxRetries" json:"maxRetries"`
	MaxConcurrentLoads *int `yaml:"maxConcurrentLoads" json:"maxConcurrentLoads"`
	RetryBaseDelayMs   *int `yaml:"retryBaseDelayMs" json:"retryBaseDelayMs"`
}

// ParseConfig decodes a YAML (or JSON) configuration document.
func ParseConfig(data []byte) (*RawConfig, error) {
	var raw RawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, WrapError(EINVALID, err, "malformed configuration")
	}
	return &raw, nil
}

// ValidationError describes a single configuration violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every violation found in one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks raw and returns a Config with defaults applied. When any
// violation is found the returned error is ValidationErrors listing all of
// them.
func Validate(raw *RawConfig) (*Config, error) {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if raw == nil {
		raw = &RawConfig{}
	}

	cfg := &Config{
		Container: strings.TrimSpace(raw.Container),
		Theme:     raw.Theme,
		Navigation: NavigationOptions{
			AutoSort: DefaultAutoSort,
		},
		Search: SearchOptions{
			Enabled:         DefaultSearchEnabled,
			Fuzzy:           DefaultFuzzySearch,
			MaxEditDistance: DefaultMaxEditDistance,
		},
		Cache: CacheOptions{
			MaxEntries: DefaultMaxCacheEntries,
			TTL:        DefaultCacheTTL,
		},
		Load: LoadOptions{
			Timeout:            DefaultLoadTimeout,
			MaxRetries:         DefaultMaxRetries,
			MaxConcurrentLoads: DefaultMaxConcurrentLoads,
			RetryBaseDelay:     DefaultRetryBaseDelay,
		},
	}

	if cfg.Container == "" {
		add("container", "container is required")
	}

	if raw.Source == nil {
		add("source", "source is required")
	} else {
		validateSource(raw.Source, &cfg.Source, add)
	}

	if n := raw.Navigation; n != nil && n.AutoSort != nil {
		cfg.Navigation.AutoSort = *n.AutoSort
	}

	if s := raw.Search; s != nil {
		if s.Enabled != nil {
			cfg.Search.Enabled = *s.Enabled
		}
		if s.FuzzySearch != nil {
			cfg.Search.Fuzzy = *s.FuzzySearch
			if *s.FuzzySearch && s.Enabled != nil && !*s.Enabled {
				add("search.fuzzySearch", "fuzzy search requires search to be enabled")
			}
		}
		if s.MaxEditDistance != nil {
			if *s.MaxEditDistance < 0 || *s.MaxEditDistance > 3 {
				add("search.maxEditDistance", "must be between 0 and 3, got %d", *s.MaxEditDistance)
			}
			cfg.Search.MaxEditDistance = *s.MaxEditDistance
		}
	}

	if c := raw.Cache; c != nil {
		if c.MaxEntries != nil {
			if *c.MaxEntries < 1 {
				add("cache.maxEntries", "must be at least 1, got %d", *c.MaxEntries)
			}
			cfg.Cache.MaxEntries = *c.MaxEntries
		}
		if c.TTLMs != nil {
			if *c.TTLMs < 0 {
				add("cache.ttlMs", "must not be negative, got %d", *c.TTLMs)
			}
			cfg.Cache.TTL = time.Duration(*c.TTLMs) * time.Millisecond
		}
	}

	if l := raw.Load; l != nil {
		if l.TimeoutMs != nil {
			if *l.TimeoutMs < 1 {
				add("load.timeoutMs", "must be at least 1, got %d", *l.TimeoutMs)
			}
			cfg.Load.Timeout = time.Duration(*l.TimeoutMs) * time.Millisecond
		}
		if l.MaxRetries != nil {
			if *l.MaxRetries < 0 {
				add("load.maxRetries", "must not be negative, got %d", *l.MaxRetries)
			}
			cfg.Load.MaxRetries = *l.MaxRetries
		}
		if l.MaxConcurrentLoads != nil {
			if *l.MaxConcurrentLoads < 1 {
				add("load.maxConcurrentLoads", "must be at least 1, got %d", *l.MaxConcurrentLoads)
			}
			cfg.Load.MaxConcurrentLoads = *l.MaxConcurrentLoads
		}
		if l.RetryBaseDelayMs != nil {
			if *l.RetryBaseDelayMs < 0 {
				add("load.retryBaseDelayMs", "must not be negative, got %d", *l.RetryBaseDelayMs)
			}
			cfg.Load.RetryBaseDelay = time.Duration(*l.RetryBaseDelayMs) * time.Millisecond
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

func validateSource(raw *RawSource, src *Source, add func(field, format string, args ...any)) {
	src.Kind = SourceKind(strings.ToLower(strings.TrimSpace(raw.Type)))
	src.Documents = raw.Documents
	src.Include = raw.Include
	src.Exclude = raw.Exclude

	explicit := len(raw.Documents) > 0
	patterns := len(raw.Include) > 0 || len(raw.Exclude) > 0

	switch src.Kind {
	case SourceLocal:
		src.BasePath = strings.TrimSpace(raw.BasePath)
		if src.BasePath == "" {
			add("source.basePath", "basePath is required for local sources")
		}
		validateDocumentPaths(raw.Documents, add)
	case SourceURL:
		src.BaseURL = strings.TrimSpace(raw.BaseURL)
		if src.BaseURL == "" {
			add("source.baseUrl", "baseUrl is required for url sources")
		} else if u, err := url.Parse(src.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("source.baseUrl", "baseUrl must be an absolute http(s) URL, got %q", src.BaseURL)
		}
		validateDocumentPaths(raw.Documents, add)
	case SourceGitHub:
		src.Repo = strings.TrimSpace(raw.Repo)
		src.Ref = strings.TrimSpace(raw.Ref)
		src.Path = strings.Trim(strings.TrimSpace(raw.Path), "/")
		if src.Ref == "" {
			src.Ref = DefaultGitHubRef
		}
		owner, name, ok := strings.Cut(src.Repo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			add("source.repo", "repo must have the form owner/name, got %q", src.Repo)
		}
		if explicit {
			add("source.documents", "github sources do not accept an explicit document list")
		}
	case SourceInline:
		if !explicit {
			add("source.documents", "inline sources require at least one document")
		}
		for i, doc := range raw.Documents {
			if strings.TrimSpace(doc.Content) == "" {
				add(fmt.Sprintf("source.documents[%d].content", i), "inline documents require content")
			}
		}
		if patterns {
			add("source.include", "inline sources do not support discovery patterns")
		}
	case "":
		add("source.type", "source type is required")
		return
	default:
		add("source.type", "unknown source type %q", raw.Type)
		return
	}

	if explicit && patterns && src.Kind != SourceInline {
		add("source.include", "explicit documents and discovery patterns are mutually exclusive")
	}

	for i, p := range raw.Include {
		if !doublestar.ValidatePattern(p) {
			add(fmt.Sprintf("source.include[%d]", i), "malformed glob pattern %q", p)
		}
	}
	for i, p := range raw.Exclude {
		if !doublestar.ValidatePattern(p) {
			add(fmt.Sprintf("source.exclude[%d]", i), "malformed glob pattern %q", p)
		}
	}

	// Sitemap URLs rarely carry a file extension, so url discovery matches
	// everything by default.
	if !explicit && len(src.Include) == 0 && src.Kind != SourceURL {
		src.Include = DefaultInclude
	}
}

func validateDocumentPaths(docs []SourceDocument, add func(field, format string, args ...any)) {
	for i, doc := range docs {
		if strings.TrimSpace(doc.Path) == "" {
			add(fmt.Sprintf("source.documents[%d].path", i), "document path is required")
		}
	}
}
