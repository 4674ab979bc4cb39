// Package viewer composes resolution, loading, caching, indexing and
// navigation into a documentation viewer engine for one configuration.
package viewer

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/fwojciec/docview"
	"github.com/fwojciec/docview/cache"
	"github.com/fwojciec/docview/goldmark"
	"github.com/fwojciec/docview/load"
	"github.com/fwojciec/docview/nav"
	"github.com/fwojciec/docview/search"
	"github.com/fwojciec/docview/source"
	"github.com/google/uuid"
)

// collapsedKeyPrefix prefixes the state store keys of navigation collapse
// flags.
const collapsedKeyPrefix = "nav.collapsed."

// Dependencies are the external services an Engine is assembled from. Only
// the services needed by the configured source kind are required.
type Dependencies struct {
	// Fetchers by source kind. Inline sources use a built-in fetcher.
	LocalFetcher  docview.Fetcher
	URLFetcher    docview.Fetcher
	GitHubFetcher docview.Fetcher

	LocalDiscoverer docview.Discoverer
	URLDiscoverer   docview.Discoverer
	Repository      docview.RepositoryLister

	// Parser defaults to the goldmark parser.
	Parser docview.Parser

	// StateStore persists navigation collapse flags. Flags are kept in
	// memory when nil.
	StateStore docview.StateStore

	Logger *slog.Logger
}

// Engine is a documentation viewer instance. It is safe for concurrent use.
type Engine struct {
	id       string
	cfg      *docview.Config
	resolver *source.Resolver
	cache    *cache.Cache
	index    *search.Index
	loader   *load.Loader
	state    docview.StateStore
	logger   *slog.Logger

	mu        sync.RWMutex
	stubs     []*docview.Stub
	byID      map[string]*docview.Stub
	collapsed map[string]bool
	closed    bool
}

// New validates raw, assembles an Engine and performs the first resolution.
// Validation failures are returned as docview.ValidationErrors and no engine
// is created. A resolution failure closes the engine and is returned.
func New(ctx context.Context, raw *docview.RawConfig, deps Dependencies) (*Engine, error) {
	cfg, err := docview.Validate(raw)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parser := deps.Parser
	if parser == nil {
		parser = goldmark.NewParser()
	}

	fetcher, err := fetcherFor(cfg.Source, deps)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.Cache.MaxEntries, cache.WithTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:  uuid.NewString(),
		cfg: cfg,
		resolver: &source.Resolver{
			Local:      deps.LocalDiscoverer,
			Remote:     deps.URLDiscoverer,
			Repository: deps.Repository,
			Parser:     parser,
			Fetcher:    &cachingFetcher{cache: c, next: fetcher},
			Logger:     logger,
		},
		cache:     c,
		index:     search.NewIndex(search.WithFuzzy(cfg.Search.Fuzzy, cfg.Search.MaxEditDistance)),
		state:     deps.StateStore,
		byID:      make(map[string]*docview.Stub),
		collapsed: make(map[string]bool),
	}
	e.logger = logger.With("container", cfg.Container, "instance", e.id)

	opts := []load.Option{
		load.WithTimeout(cfg.Load.Timeout),
		load.WithRetries(cfg.Load.MaxRetries, cfg.Load.RetryBaseDelay),
		load.WithMaxConcurrent(cfg.Load.MaxConcurrentLoads),
		load.WithLogger(e.logger),
	}
	if cfg.Search.Enabled {
		opts = append(opts,
			load.WithOnLoaded(e.indexDocument),
			load.WithOnFailed(e.unindexDocument),
		)
	}
	e.loader = load.NewLoader(fetcher, c, parser, opts...)

	if err := e.Reload(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func fetcherFor(src docview.Source, deps Dependencies) (docview.Fetcher, error) {
	var f docview.Fetcher
	switch src.Kind {
	case docview.SourceLocal:
		f = deps.LocalFetcher
	case docview.SourceURL:
		f = deps.URLFetcher
	case docview.SourceGitHub:
		f = deps.GitHubFetcher
	case docview.SourceInline:
		return source.NewInlineFetcher(src.Documents), nil
	}
	if f == nil {
		return nil, docview.Errorf(docview.EINVALID, "no fetcher configured for %s sources", src.Kind)
	}
	return f, nil
}

// cachingFetcher reads through the document cache keyed by the locator's
// stub id. Content it fetches is stored for the loader.
type cachingFetcher struct {
	cache docview.DocumentCache
	next  docview.Fetcher
}

func (f *cachingFetcher) Fetch(ctx context.Context, loc docview.Locator) (*docview.Response, error) {
	id := docview.StubID(loc)
	if entry, ok := f.cache.Get(id); ok {
		return &docview.Response{Body: entry.Content}, nil
	}
	resp, err := f.next.Fetch(ctx, loc)
	if err != nil || resp == nil {
		return resp, err
	}
	f.cache.Put(&docview.CacheEntry{
		ID:          id,
		Content:     resp.Body,
		Fingerprint: docview.Fingerprint(resp.Body),
	})
	return resp, nil
}

func (e *Engine) indexDocument(doc docview.Document, parsed *docview.Parsed) {
	if e.index.Index(doc.ID(), doc.Fingerprint, parsed) {
		e.logger.Debug("document indexed", "id", doc.ID(), "fingerprint", doc.Fingerprint)
	}
}

// unindexDocument keeps failed documents out of search results.
func (e *Engine) unindexDocument(doc docview.Document) {
	if e.index.Remove(doc.ID()) {
		e.logger.Debug("document removed from index", "id", doc.ID())
	}
}

// ID returns the random identifier of this engine instance.
func (e *Engine) ID() string {
	return e.id
}

// Config returns the validated configuration.
func (e *Engine) Config() *docview.Config {
	return e.cfg
}

// Reload resolves the source again and starts loading the result.
// Documents whose ids are unchanged keep their cached content and postings;
// documents that disappeared are dropped from the cache and the index.
// Reloading an unchanged source is a no-op apart from the resolution.
func (e *Engine) Reload(ctx context.Context) error {
	if e.isClosed() {
		return docview.Errorf(docview.ECANCELED, "engine closed")
	}

	stubs, err := e.resolver.Resolve(ctx, e.cfg.Source)
	if err != nil {
		return err
	}

	e.mu.Lock()
	removed := e.loader.Track(stubs)
	e.stubs = stubs
	e.byID = make(map[string]*docview.Stub, len(stubs))
	for _, stub := range stubs {
		e.byID[stub.ID] = stub
	}
	e.mu.Unlock()

	for _, id := range removed {
		e.index.Remove(id)
		e.cache.Invalidate(id)
	}
	e.logger.Info("source resolved",
		"kind", string(e.cfg.Source.Kind),
		"documents", len(stubs),
		"removed", len(removed),
	)

	e.loader.Prefetch(stubs)
	return nil
}

// Refresh invalidates the documents at the given locations and reloads
// the source, so changed documents are fetched again and added or removed
// documents are picked up.
func (e *Engine) Refresh(ctx context.Context, locations []string) error {
	changed := make(map[string]bool, len(locations))
	for _, loc := range locations {
		changed[loc] = true
	}
	invalidated := 0
	for _, stub := range e.currentStubs() {
		if changed[stub.Locator.Location] && e.loader.Invalidate(stub.ID) {
			invalidated++
		}
	}
	e.logger.Debug("refresh", "changed", len(locations), "invalidated", invalidated)
	return e.Reload(ctx)
}

// Documents returns a snapshot of every document in resolution order.
func (e *Engine) Documents() []docview.Document {
	stubs := e.currentStubs()
	docs := make([]docview.Document, 0, len(stubs))
	for _, stub := range stubs {
		if doc, ok := e.loader.Document(stub.ID); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Document returns a snapshot of one document.
func (e *Engine) Document(id string) (docview.Document, bool) {
	if _, ok := e.stub(id); !ok {
		return docview.Document{}, false
	}
	return e.loader.Document(id)
}

// Get returns the content of a document, loading it on a cache miss. A
// failed load returns the document together with its *docview.ErrorRecord.
func (e *Engine) Get(ctx context.Context, id string) (docview.Document, []byte, error) {
	stub, ok := e.stub(id)
	if !ok {
		return docview.Document{}, nil, docview.Errorf(docview.ENOTFOUND, "document %s not found", id)
	}
	doc, content, err := e.loader.Content(ctx, stub)
	if err != nil {
		return doc, nil, err
	}
	if doc.State == docview.Failed {
		return doc, nil, doc.Err
	}
	return doc, content, nil
}

// LoadAll loads every document and returns them in resolution order.
// Per-document failures are recorded on the documents.
func (e *Engine) LoadAll(ctx context.Context) []docview.Document {
	return e.loader.LoadAll(ctx, e.currentStubs(), false)
}

// Invalidate drops the cached content of a document and marks it stale.
// Its postings stay searchable until the next load replaces them.
func (e *Engine) Invalidate(id string) bool {
	if _, ok := e.stub(id); !ok {
		return false
	}
	return e.loader.Invalidate(id)
}

// Retry forces a fresh load of a document, bypassing the cache.
func (e *Engine) Retry(ctx context.Context, id string) (docview.Document, error) {
	stub, ok := e.stub(id)
	if !ok {
		return docview.Document{}, docview.Errorf(docview.ENOTFOUND, "document %s not found", id)
	}
	return e.loader.Load(ctx, stub, true)
}

// Wait blocks until the current load of a document finishes or ctx ends.
func (e *Engine) Wait(ctx context.Context, id string) (docview.Document, error) {
	if _, ok := e.stub(id); !ok {
		return docview.Document{}, docview.Errorf(docview.ENOTFOUND, "document %s not found", id)
	}
	return e.loader.Wait(ctx, id)
}

// Query searches the documents indexed so far and starts background loads
// for documents that are not yet loaded, so later queries see more of the
// source. It never blocks on loading. Disabled search returns no results.
func (e *Engine) Query(ctx context.Context, text string) ([]docview.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.cfg.Search.Enabled {
		return []docview.Result{}, nil
	}

	var pending []*docview.Stub
	for _, stub := range e.currentStubs() {
		if doc, ok := e.loader.Document(stub.ID); ok && doc.State == docview.NotLoaded {
			pending = append(pending, stub)
		}
	}
	if len(pending) > 0 && !e.isClosed() {
		e.logger.Debug("backfilling index", "pending", len(pending))
		e.loader.Prefetch(pending)
	}

	return e.index.Query(text), nil
}

// Navigation builds the navigation tree with persisted collapse flags
// applied. Flags that cannot be read are treated as expanded.
func (e *Engine) Navigation(ctx context.Context) []*nav.Node {
	return nav.Build(e.currentStubs(), e.cfg.Navigation.AutoSort, func(nodeID string) (bool, bool) {
		return e.collapsedFlag(ctx, nodeID)
	})
}

func (e *Engine) collapsedFlag(ctx context.Context, nodeID string) (bool, bool) {
	if e.state == nil {
		e.mu.RLock()
		defer e.mu.RUnlock()
		v, ok := e.collapsed[nodeID]
		return v, ok
	}
	raw, ok, err := e.state.Get(ctx, e.cfg.Container, collapsedKeyPrefix+nodeID)
	if err != nil {
		e.logger.Warn("reading navigation state", "node", nodeID, "err", err)
		return false, false
	}
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// SetCollapsed persists the collapse flag of a category node.
func (e *Engine) SetCollapsed(ctx context.Context, nodeID string, collapsed bool) error {
	node := nav.Find(e.Navigation(ctx), nodeID)
	if node == nil {
		return docview.Errorf(docview.ENOTFOUND, "navigation node %s not found", nodeID)
	}
	if node.Kind != nav.Category {
		return docview.Errorf(docview.EINVALID, "navigation node %s is not a category", nodeID)
	}

	if e.state == nil {
		e.mu.Lock()
		e.collapsed[nodeID] = collapsed
		e.mu.Unlock()
		return nil
	}
	return e.state.Set(ctx, e.cfg.Container, collapsedKeyPrefix+nodeID, strconv.FormatBool(collapsed))
}

// Stats summarizes the engine state for diagnostics.
type Stats struct {
	Documents int
	Loaded    int
	Failed    int
	Cached    int
	Indexed   int
	Terms     int
}

// Stats returns counts of documents by state, cache entries and index size.
func (e *Engine) Stats() Stats {
	var s Stats
	for _, doc := range e.Documents() {
		s.Documents++
		switch doc.State {
		case docview.Loaded:
			s.Loaded++
		case docview.Failed:
			s.Failed++
		}
	}
	s.Cached = e.cache.Len()
	is := e.index.Stats()
	s.Indexed = is.Documents
	s.Terms = is.Terms
	return s
}

// Close cancels every in-flight load. Later completions are discarded.
// Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	return e.loader.Close()
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

func (e *Engine) stub(id string) (*docview.Stub, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.byID[id]
	return s, ok
}

func (e *Engine) currentStubs() []*docview.Stub {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stubs
}
