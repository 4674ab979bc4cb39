package source

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Humanize turns a file or folder name into a display title: a leading
// numeric ordering prefix such as "01-" is stripped, separators become
// spaces and the first letter of each word is upper-cased.
//
//	"02_getting-started" -> "Getting Started"
func Humanize(name string) string {
	name = stripOrderPrefix(name)
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// stripOrderPrefix removes leading digits followed by a separator. Names
// made only of digits are kept.
func stripOrderPrefix(name string) string {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 || i == len(name) {
		return name
	}
	switch name[i] {
	case '-', '_', '.', ' ':
		if rest := name[i+1:]; rest != "" {
			return rest
		}
	}
	return name
}
