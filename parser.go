package docview

// Segment is a run of plain text extracted from markdown. Weighted segments
// (prose, headings) contribute to search scoring; unweighted segments (code,
// link destinations) only provide snippet context.
type Segment struct {
	Text     string
	Weighted bool
}

// Parsed is the plain-text view of a markdown document.
type Parsed struct {
	// Title is the front matter title, else the first heading.
	Title    string
	Sections []Section
	Segments []Segment
	Meta     map[string]any
}

// Parser converts markdown into its plain-text view.
type Parser interface {
	// Parse returns EPARSE when the content is malformed.
	Parse(content []byte) (*Parsed, error)
}
