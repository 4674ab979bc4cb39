package mock

import "github.com/fwojciec/docview"

var _ docview.FrameworkDetector = (*FrameworkDetector)(nil)

// FrameworkDetector is a mock implementation of docview.FrameworkDetector.
type FrameworkDetector struct {
	DetectFn func(html string) docview.Framework
}

func (d *FrameworkDetector) Detect(html string) docview.Framework {
	return d.DetectFn(html)
}
