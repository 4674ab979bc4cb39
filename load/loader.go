// Package load provides the document loader. It fetches raw content for
// stubs with per-attempt timeouts and exponential-backoff retries, coalesces
// concurrent requests for the same document, bounds the number of concurrent
// fetches and records per-document state.
package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/docview"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// LoadedFunc is called after a document's content has been fetched and
// parsed, before the document is reported as Loaded. It is never called
// after the loader is closed and must not call back into the Loader.
type LoadedFunc func(doc docview.Document, parsed *docview.Parsed)

// FailedFunc is called when a load ends Failed, after the document's cached
// content has been dropped. The same restrictions as LoadedFunc apply.
type FailedFunc func(doc docview.Document)

// entry is the mutable state of one tracked document.
type entry struct {
	doc docview.Document

	// invalidations counts Invalidate calls, so a load that started before
	// an invalidation leaves the document stale.
	invalidations int

	// done is closed exactly once when the current load reaches a terminal
	// state. A fresh channel is installed when the next load starts.
	done       chan struct{}
	doneClosed bool
}

// result is what one coalesced load produces.
type result struct {
	doc     docview.Document
	content []byte
}

// Loader loads documents. All state is owned by the Loader; callers receive
// snapshots.
type Loader struct {
	fetcher docview.Fetcher
	cache   docview.DocumentCache
	parser  docview.Parser

	onLoaded   LoadedFunc
	onFailed   FailedFunc
	logger     *slog.Logger
	timeout    time.Duration
	maxRetries int
	retryBase  time.Duration
	now        func() time.Time

	sem   *semaphore.Weighted
	group singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	docs map[string]*entry
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds each fetch attempt.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithRetries sets the number of retries after the first attempt and the
// base backoff delay.
func WithRetries(maxRetries int, base time.Duration) Option {
	return func(l *Loader) {
		l.maxRetries = maxRetries
		l.retryBase = base
	}
}

// WithMaxConcurrent bounds the number of fetches in flight.
func WithMaxConcurrent(n int) Option {
	return func(l *Loader) {
		l.sem = semaphore.NewWeighted(int64(n))
	}
}

// WithOnLoaded registers the hook run for every successful load.
func WithOnLoaded(fn LoadedFunc) Option {
	return func(l *Loader) {
		l.onLoaded = fn
	}
}

// WithOnFailed registers the hook run for every failed load.
func WithOnFailed(fn FailedFunc) Option {
	return func(l *Loader) {
		l.onFailed = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader with the defaults of docview.Config.
func NewLoader(fetcher docview.Fetcher, cache docview.DocumentCache, parser docview.Parser, opts ...Option) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		fetcher:    fetcher,
		cache:      cache,
		parser:     parser,
		logger:     slog.New(slog.DiscardHandler),
		timeout:    docview.DefaultLoadTimeout,
		maxRetries: docview.DefaultMaxRetries,
		retryBase:  docview.DefaultRetryBaseDelay,
		now:        time.Now,
		sem:        semaphore.NewWeighted(docview.DefaultMaxConcurrentLoads),
		ctx:        ctx,
		cancel:     cancel,
		docs:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Close cancels every in-flight load. Completions that arrive afterwards
// are discarded. Close is idempotent.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel()
	return nil
}

// Track registers stubs as the current document set. Existing documents
// keep their state; documents absent from stubs are forgotten and their ids
// returned.
func (l *Loader) Track(stubs []*docview.Stub) (removed []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	keep := make(map[string]bool, len(stubs))
	for _, stub := range stubs {
		keep[stub.ID] = true
		if e, ok := l.docs[stub.ID]; ok {
			e.doc.Stub = stub
			continue
		}
		l.docs[stub.ID] = newEntry(stub)
	}
	for id, e := range l.docs {
		if keep[id] {
			continue
		}
		delete(l.docs, id)
		if !e.doneClosed {
			close(e.done)
			e.doneClosed = true
		}
		removed = append(removed, id)
	}
	return removed
}

func newEntry(stub *docview.Stub) *entry {
	return &entry{
		doc:  docview.Document{Stub: stub, State: docview.NotLoaded},
		done: make(chan struct{}),
	}
}

// Document returns a snapshot of the document state.
func (l *Loader) Document(id string) (docview.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.docs[id]
	if !ok {
		return docview.Document{}, false
	}
	return e.doc, true
}

// Invalidate drops the cached content of a document and marks it stale so
// that the next load fetches again. It does not start a load.
func (l *Loader) Invalidate(id string) bool {
	l.mu.Lock()
	e, ok := l.docs[id]
	if ok {
		e.doc.Stale = true
		e.invalidations++
	}
	l.mu.Unlock()

	removed := l.cache.Invalidate(id)
	return ok || removed
}

// Load returns the document for stub, loading it when needed. A document
// already Loaded, not stale and still cached is returned without fetching
// unless force is set. Concurrent calls for the same id share one load.
//
// Per-document failures are recorded on the returned Document. The error is
// non-nil only when ctx ends before the load completes or the loader is
// closed.
func (l *Loader) Load(ctx context.Context, stub *docview.Stub, force bool) (docview.Document, error) {
	res, err := l.load(ctx, stub, force)
	return res.doc, err
}

// Content returns the document content, loading it when it is not cached.
func (l *Loader) Content(ctx context.Context, stub *docview.Stub) (docview.Document, []byte, error) {
	res, err := l.load(ctx, stub, false)
	return res.doc, res.content, err
}

func (l *Loader) load(ctx context.Context, stub *docview.Stub, force bool) (result, error) {
	if err := l.ctx.Err(); err != nil {
		doc, _ := l.Document(stub.ID)
		return result{doc: doc}, docview.WrapError(docview.ECANCELED, err, "loader closed")
	}

	l.mu.Lock()
	e, ok := l.docs[stub.ID]
	if !ok {
		e = newEntry(stub)
		l.docs[stub.ID] = e
	}
	if !force && !e.doc.Stale && e.doc.State == docview.Loaded {
		if cached, hit := l.cache.Get(stub.ID); hit && cached.Fingerprint == e.doc.Fingerprint {
			doc := e.doc
			l.mu.Unlock()
			return result{doc: doc, content: cached.Content}, nil
		}
	}
	l.mu.Unlock()

	ch := l.group.DoChan(stub.ID, func() (any, error) {
		return l.run(stub, force), nil
	})

	select {
	case r := <-ch:
		res := r.Val.(result)
		if err := l.ctx.Err(); err != nil {
			return res, docview.WrapError(docview.ECANCELED, err, "loader closed")
		}
		return res, nil
	case <-ctx.Done():
		doc, _ := l.Document(stub.ID)
		return result{doc: doc}, docview.WrapError(docview.ECANCELED, ctx.Err(), "load of %s abandoned", stub.ID)
	}
}

// run performs one admitted load. It is only ever executed once per id at a
// time.
func (l *Loader) run(stub *docview.Stub, force bool) result {
	id := stub.ID

	l.mu.Lock()
	e, ok := l.docs[id]
	if !ok {
		e = newEntry(stub)
		l.docs[id] = e
	}
	if e.doneClosed {
		e.done = make(chan struct{})
		e.doneClosed = false
	}
	prev := e.doc.State
	e.doc.State = docview.Loading
	useCache := !force && !e.doc.Stale
	startInvalidations := e.invalidations
	l.mu.Unlock()

	var (
		body     []byte
		attempts int
		err      error
	)
	if cached, hit := l.cache.Get(id); useCache && hit {
		body = cached.Content
	} else {
		body, attempts, err = l.fetch(stub)
	}

	var parsed *docview.Parsed
	if err == nil {
		parsed, err = l.parser.Parse(body)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Discard completions after close or once the document was dropped by
	// Track.
	if l.ctx.Err() != nil || l.docs[id] != e {
		e.doc.State = prev
		if !e.doneClosed {
			close(e.done)
			e.doneClosed = true
		}
		return result{doc: e.doc}
	}

	e.doc.Attempts = attempts
	if err != nil {
		rec := docview.Classify(err, id)
		e.doc.State = docview.Failed
		e.doc.Err = rec
		e.doc.Fingerprint = ""
		l.cache.Invalidate(id)
		if l.onFailed != nil {
			l.onFailed(e.doc)
		}
		l.logger.Warn("document load failed",
			"id", id,
			"locator", stub.Locator.String(),
			"kind", rec.Kind,
			"retryable", rec.Retryable,
			"attempts", attempts,
			"err", err,
		)
	} else {
		fingerprint := docview.Fingerprint(body)
		l.cache.Put(&docview.CacheEntry{
			ID:          id,
			Content:     body,
			Fingerprint: fingerprint,
		})
		e.doc.Fingerprint = fingerprint
		e.doc.Err = nil
		e.doc.LoadedAt = l.now()
		e.doc.Stale = e.invalidations != startInvalidations
		if l.onLoaded != nil {
			snapshot := e.doc
			snapshot.State = docview.Loaded
			l.onLoaded(snapshot, parsed)
		}
		e.doc.State = docview.Loaded
		l.logger.Debug("document loaded",
			"id", id,
			"locator", stub.Locator.String(),
			"fingerprint", fingerprint,
			"attempts", attempts,
		)
	}

	close(e.done)
	e.doneClosed = true
	return result{doc: e.doc, content: body}
}

// fetch retrieves the raw content of stub with retries.
func (l *Loader) fetch(stub *docview.Stub) ([]byte, int, error) {
	var body []byte
	logger := func(format string, args ...any) {
		l.logger.Debug(fmt.Sprintf(format, args...), "id", stub.ID, "locator", stub.Locator.String())
	}

	attempts, err := Retry(l.ctx, l.maxRetries, l.retryBase, func(ctx context.Context, _ int) error {
		b, err := l.attempt(ctx, stub.Locator)
		if err == nil {
			body = b
		}
		return err
	}, retryable, logger)
	if err != nil && l.ctx.Err() != nil {
		err = docview.WrapError(docview.ECANCELED, l.ctx.Err(), "load canceled")
	}
	return body, attempts, err
}

// attempt performs a single admitted and time-bounded fetch.
func (l *Loader) attempt(ctx context.Context, loc docview.Locator) ([]byte, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, docview.WrapError(docview.ECANCELED, err, "waiting for admission")
	}
	defer l.sem.Release(1)

	actx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.fetcher.Fetch(actx, loc)
	if ctx.Err() != nil {
		return nil, docview.WrapError(docview.ECANCELED, ctx.Err(), "fetch canceled")
	}
	if errors.Is(actx.Err(), context.DeadlineExceeded) {
		return nil, docview.Errorf(docview.ETIMEOUT, "fetch of %s exceeded %s", loc, l.timeout)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, docview.Errorf(docview.ENETWORK, "no response for %s", loc)
	}
	return resp.Body, nil
}

// retryable reports whether err is a transient failure.
func retryable(err error) bool {
	return docview.Classify(err, "").Retryable
}

// LoadAll loads every stub concurrently, subject to admission control, and
// returns the documents in stub order. It never fails as a whole: failed
// documents are reported through their state.
func (l *Loader) LoadAll(ctx context.Context, stubs []*docview.Stub, force bool) []docview.Document {
	docs := make([]docview.Document, len(stubs))
	var g errgroup.Group
	for i, stub := range stubs {
		g.Go(func() error {
			doc, _ := l.Load(ctx, stub, force)
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()
	return docs
}

// Prefetch starts background loads for stubs and returns immediately.
func (l *Loader) Prefetch(stubs []*docview.Stub) {
	if len(stubs) == 0 || l.ctx.Err() != nil {
		return
	}
	go l.LoadAll(l.ctx, stubs, false)
}

// Wait blocks until the current load of id reaches a terminal state, ctx
// ends, or the loader closes. Documents that already reached a terminal
// state return immediately.
func (l *Loader) Wait(ctx context.Context, id string) (docview.Document, error) {
	l.mu.Lock()
	e, ok := l.docs[id]
	if !ok {
		l.mu.Unlock()
		return docview.Document{}, docview.Errorf(docview.ENOTFOUND, "document %s not found", id)
	}
	if e.doneClosed {
		doc := e.doc
		l.mu.Unlock()
		return doc, nil
	}
	done := e.done
	l.mu.Unlock()

	select {
	case <-done:
		doc, _ := l.Document(id)
		return doc, nil
	case <-ctx.Done():
		doc, _ := l.Document(id)
		return doc, docview.WrapError(docview.ETIMEOUT, ctx.Err(), "waiting for %s", id)
	case <-l.ctx.Done():
		doc, _ := l.Document(id)
		return doc, docview.WrapError(docview.ECANCELED, l.ctx.Err(), "loader closed")
	}
}
