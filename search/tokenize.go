package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a lower-cased term with its ordinal position and byte offset in
// the text it was read from.
type Token struct {
	Term     string
	Position int
	Offset   int
}

// Tokenize splits text into lower-cased runs of letters and digits.
func Tokenize(text string) []Token {
	return tokenizeFrom(text, 0, 0)
}

// tokenizeFrom tokenizes text whose first byte sits at base in a larger
// document, numbering tokens from pos.
func tokenizeFrom(text string, base, pos int) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{
				Term:     strings.ToLower(text[start:i]),
				Position: pos,
				Offset:   base + start,
			})
			pos++
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{
			Term:     strings.ToLower(text[start:]),
			Position: pos,
			Offset:   base + start,
		})
	}
	return tokens
}

// runeLen returns the number of runes in s.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
