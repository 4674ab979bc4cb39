package docview

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Locator identifies where a document's raw content lives. Location is a
// path relative to the source base for local and github sources, an
// absolute URL for url sources and the document key for inline sources.
type Locator struct {
	Kind     SourceKind `json:"kind"`
	Location string     `json:"location"`
}

func (l Locator) String() string {
	return string(l.Kind) + ":" + l.Location
}

// StubID derives a stable document id from a locator. Repeated resolutions
// of an unchanged source yield the same ids.
func StubID(loc Locator) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(loc.String()))
}

// Fingerprint computes the content hash used to detect changes on reload.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// Stub is the pre-fetch descriptor of a document. Stubs are produced once
// per resolution pass and never modified.
type Stub struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category []string `json:"category"`
	Order    int      `json:"order"`
	Locator  Locator  `json:"locator"`
}

// LoadState is the lifecycle state of a Document.
type LoadState int

// LoadState constants.
const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// Terminal reports whether the state ends a load.
func (s LoadState) Terminal() bool {
	return s == Loaded || s == Failed
}

// Document is a stub together with its load state. Content is not held
// here; it lives in the DocumentCache under the document id.
type Document struct {
	Stub        *Stub        `json:"stub"`
	State       LoadState    `json:"state"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Err         *ErrorRecord `json:"error,omitempty"`

	// Stale is set by invalidation and forces the next load to bypass the
	// cache.
	Stale bool `json:"stale"`

	LoadedAt time.Time `json:"loadedAt"`
	Attempts int       `json:"attempts"`
}

// ID returns the document id.
func (d *Document) ID() string {
	return d.Stub.ID
}

// CacheEntry is resolved document content held by a DocumentCache.
type CacheEntry struct {
	ID          string
	Content     []byte
	Fingerprint string
	InsertedAt  time.Time
	// ExpiresAt is zero for entries that never expire.
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// DocumentCache stores resolved document content by document id.
type DocumentCache interface {
	// Get returns the entry for id. Expired entries are reported as misses.
	Get(id string) (*CacheEntry, bool)

	// Put stores an entry, evicting the least recently used entry when the
	// cache is full. InsertedAt and ExpiresAt are set by the cache.
	Put(entry *CacheEntry)

	// Invalidate removes the entry for id and reports whether it existed.
	Invalidate(id string) bool

	// EvictExpired removes every expired entry and returns how many were
	// removed.
	EvictExpired() int
}
