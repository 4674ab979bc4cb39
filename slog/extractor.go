package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/docview"
)

// Ensure LoggingExtractor implements docview.Extractor.
var _ docview.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor and logs the framework detected for
// each page.
type LoggingExtractor struct {
	next     docview.Extractor
	detector docview.FrameworkDetector
	logger   *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next docview.Extractor, detector docview.FrameworkDetector, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, detector: detector, logger: logger}
}

// Extract detects the framework, logs it, and delegates.
func (e *LoggingExtractor) Extract(html string) (*docview.ExtractResult, error) {
	begin := time.Now()
	framework := e.detector.Detect(html)
	name := string(framework)
	if framework == docview.FrameworkUnknown {
		name = "(unknown)"
	}
	result, err := e.next.Extract(html)
	e.logger.Debug("extract",
		"framework", name,
		"duration", time.Since(begin),
		"err", err,
	)
	return result, err
}
