package mock

import "github.com/fwojciec/docview"

var _ docview.Parser = (*Parser)(nil)

// Parser is a mock implementation of docview.Parser.
type Parser struct {
	ParseFn func(content []byte) (*docview.Parsed, error)
}

func (p *Parser) Parse(content []byte) (*docview.Parsed, error) {
	return p.ParseFn(content)
}
