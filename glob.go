package docview

import (
	"github.com/bmatcuk/doublestar/v4"
)

// MatchPatterns reports whether name, a slash-separated path, matches at
// least one include pattern and no exclude pattern. An empty include list
// matches everything. Malformed patterns never match.
func MatchPatterns(name string, include, exclude []string) bool {
	for _, p := range exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, p := range include {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
