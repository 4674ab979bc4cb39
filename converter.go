package docview

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms clean HTML, such as the output of an Extractor, into
	// Markdown. Relative links are resolved against pageURL when it is not
	// empty.
	Convert(html, pageURL string) (string, error)
}
