package mock

import "github.com/fwojciec/docview"

var _ docview.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of docview.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*docview.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*docview.ExtractResult, error) {
	return e.ExtractFn(html)
}
