package docview

import "context"

// Response is the raw content returned by a Fetcher.
type Response struct {
	Body        []byte
	ContentType string
}

// Fetcher reads raw document content for a locator.
//
// A nil Response with a nil error is a broken fetch boundary; callers treat
// it as a network error rather than dereferencing it.
type Fetcher interface {
	// Fetch returns the raw content for loc.
	// Missing resources return ENOTFOUND; transport failures ENETWORK.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, loc Locator) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, loc Locator) (*Response, error)

// Fetch calls f(ctx, loc).
func (f FetcherFunc) Fetch(ctx context.Context, loc Locator) (*Response, error) {
	return f(ctx, loc)
}
