// Package search provides an in-memory inverted index over loaded documents
// with fuzzy, TF-IDF ranked queries.
package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/fwojciec/docview"
)

// DefaultSnippetRadius is the number of bytes of context kept on each side
// of the first match in a snippet.
const DefaultSnippetRadius = 80

// Posting records one document's occurrences of a term.
type Posting struct {
	DocumentID string
	Frequency  int
	Positions  []int
	Offsets    []int
}

// docEntry is the per-document state needed to replace postings and build
// snippets.
type docEntry struct {
	fingerprint string
	text        string
	terms       []string
}

// Index is an inverted index. A document's postings are swapped under a
// write lock, so queries never observe a partially indexed document.
type Index struct {
	mu       sync.RWMutex
	postings map[string][]Posting
	docs     map[string]*docEntry

	fuzzy         bool
	maxEdits      int
	snippetRadius int
}

// Option configures an Index.
type Option func(*Index)

// WithFuzzy enables edit-distance matching bounded by maxEdits for long
// query terms.
func WithFuzzy(enabled bool, maxEdits int) Option {
	return func(x *Index) {
		x.fuzzy = enabled
		x.maxEdits = maxEdits
	}
}

// WithSnippetRadius sets the snippet context size.
func WithSnippetRadius(n int) Option {
	return func(x *Index) {
		x.snippetRadius = n
	}
}

// NewIndex creates an empty Index. Matching is exact unless WithFuzzy is
// given.
func NewIndex(opts ...Option) *Index {
	x := &Index{
		postings:      make(map[string][]Posting),
		docs:          make(map[string]*docEntry),
		snippetRadius: DefaultSnippetRadius,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Index adds or replaces the postings of a document. It reports false when
// the document is already indexed with the same fingerprint.
func (x *Index) Index(id, fingerprint string, parsed *docview.Parsed) bool {
	x.mu.RLock()
	current, ok := x.docs[id]
	x.mu.RUnlock()
	if ok && current.fingerprint == fingerprint {
		return false
	}

	entry, postings := build(id, fingerprint, parsed)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(id)
	for term, p := range postings {
		x.insertLocked(term, p)
	}
	x.docs[id] = entry
	return true
}

// build tokenizes the weighted segments of parsed. Unweighted segments are
// kept in the snippet text only.
func build(id, fingerprint string, parsed *docview.Parsed) (*docEntry, map[string]Posting) {
	var text strings.Builder
	postings := make(map[string]Posting)
	pos := 0

	if parsed != nil {
		for _, seg := range parsed.Segments {
			base := text.Len()
			text.WriteString(seg.Text)
			if !seg.Weighted {
				continue
			}
			for _, tok := range tokenizeFrom(seg.Text, base, pos) {
				p := postings[tok.Term]
				p.DocumentID = id
				p.Frequency++
				p.Positions = append(p.Positions, tok.Position)
				p.Offsets = append(p.Offsets, tok.Offset)
				postings[tok.Term] = p
				pos = tok.Position + 1
			}
		}
	}

	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	return &docEntry{fingerprint: fingerprint, text: text.String(), terms: terms}, postings
}

// Remove drops every posting of a document.
func (x *Index) Remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.removeLocked(id)
}

func (x *Index) removeLocked(id string) bool {
	entry, ok := x.docs[id]
	if !ok {
		return false
	}
	for _, term := range entry.terms {
		list := x.postings[term]
		i := sort.Search(len(list), func(i int) bool { return list[i].DocumentID >= id })
		if i < len(list) && list[i].DocumentID == id {
			list = append(list[:i:i], list[i+1:]...)
		}
		if len(list) == 0 {
			delete(x.postings, term)
		} else {
			x.postings[term] = list
		}
	}
	delete(x.docs, id)
	return true
}

// insertLocked adds p to the term's posting list, kept sorted by document id.
func (x *Index) insertLocked(term string, p Posting) {
	list := x.postings[term]
	i := sort.Search(len(list), func(i int) bool { return list[i].DocumentID >= p.DocumentID })
	list = append(list, Posting{})
	copy(list[i+1:], list[i:])
	list[i] = p
	x.postings[term] = list
}

// Has reports whether a document is indexed.
func (x *Index) Has(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.docs[id]
	return ok
}

// Fingerprint returns the fingerprint a document was indexed with.
func (x *Index) Fingerprint(id string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	entry, ok := x.docs[id]
	if !ok {
		return "", false
	}
	return entry.fingerprint, true
}

// Postings returns a copy of the posting list for term.
func (x *Index) Postings(term string) []Posting {
	x.mu.RLock()
	defer x.mu.RUnlock()
	list := x.postings[term]
	out := make([]Posting, len(list))
	copy(out, list)
	return out
}

// Stats describes the size of the index.
type Stats struct {
	Documents int
	Terms     int
}

// Stats returns the current index size.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Stats{Documents: len(x.docs), Terms: len(x.postings)}
}

// match is an index term matched by a query term.
type match struct {
	term     string
	distance int
}

// hit accumulates the score of one document.
type hit struct {
	score  float64
	offset int
}

// Query returns documents matching text ranked by score, ties broken by
// document id. An empty or token-less query returns no results.
func (x *Index) Query(text string) []docview.Result {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return []docview.Result{}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	total := float64(len(x.docs))
	hits := make(map[string]*hit)
	seen := make(map[string]bool)

	for _, tok := range tokens {
		if seen[tok.Term] {
			continue
		}
		seen[tok.Term] = true

		for _, m := range x.matchLocked(tok.Term) {
			list := x.postings[m.term]
			idf := math.Log(1 + total/float64(len(list)))
			weight := 1 / float64(1+m.distance)
			for _, p := range list {
				tf := 1 + math.Log(float64(p.Frequency))
				h, ok := hits[p.DocumentID]
				if !ok {
					h = &hit{offset: p.Offsets[0]}
					hits[p.DocumentID] = h
				}
				h.score += tf * idf * weight
				if p.Offsets[0] < h.offset {
					h.offset = p.Offsets[0]
				}
			}
		}
	}

	results := make([]docview.Result, 0, len(hits))
	for id, h := range hits {
		results = append(results, docview.Result{
			DocumentID: id,
			Score:      h.score,
			Snippet:    Snippet(x.docs[id].text, h.offset, x.snippetRadius),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	return results
}

// matchLocked returns the index terms within the allowed edit distance of
// term.
func (x *Index) matchLocked(term string) []match {
	limit := x.maxDistance(term)
	if limit == 0 {
		if _, ok := x.postings[term]; ok {
			return []match{{term: term}}
		}
		return nil
	}

	n := runeLen(term)
	var matches []match
	for candidate := range x.postings {
		if d := runeLen(candidate) - n; d > limit || d < -limit {
			continue
		}
		if dist := levenshtein.ComputeDistance(term, candidate); dist <= limit {
			matches = append(matches, match{term: candidate, distance: dist})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].term < matches[j].term })
	return matches
}

// maxDistance scales the edit budget with term length so that short terms
// only match exactly.
func (x *Index) maxDistance(term string) int {
	if !x.fuzzy || x.maxEdits <= 0 {
		return 0
	}
	switch n := runeLen(term); {
	case n < 4:
		return 0
	case n < 8:
		return min(1, x.maxEdits)
	default:
		return x.maxEdits
	}
}

// Snippet returns the text around offset, trimmed to word boundaries with
// whitespace collapsed. Ellipses mark truncated ends.
func Snippet(text string, offset, radius int) string {
	if text == "" {
		return ""
	}
	offset = max(0, min(offset, len(text)))

	start := max(0, offset-radius)
	if start > 0 {
		if i := strings.IndexAny(text[start:offset], " \t\n"); i >= 0 {
			start += i + 1
		}
		for start < offset && !utf8.RuneStart(text[start]) {
			start++
		}
	}

	end := min(len(text), offset+radius)
	if end < len(text) {
		if i := strings.LastIndexAny(text[offset:end], " \t\n"); i > 0 {
			end = offset + i
		}
		for end > offset && !utf8.RuneStart(text[end]) {
			end--
		}
	}

	s := strings.Join(strings.Fields(text[start:end]), " ")
	if start > 0 {
		s = "…" + s
	}
	if end < len(text) {
		s += "…"
	}
	return s
}
