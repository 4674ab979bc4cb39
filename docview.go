// Package docview provides the document resolution, caching and search
// indexing core of a documentation viewer. It resolves markdown documents
// from local folders, URLs, GitHub repositories or inline content, loads
// them with retry and coalescing, indexes them for fuzzy search and derives
// a navigation tree for a presentation layer.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goldmark/, github/).
package docview
