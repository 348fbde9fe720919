package utils

import (
	"regexp"
	"unicode/utf8"
)

var charRegex = regexp.MustCompile(`\S+`)

// SplitTextMaxChars groups the whitespace separated tokens of text into pieces
// of at most maxChars runes. A single token longer than maxChars is cut.
func SplitTextMaxChars(text string, maxChars int) []string {
	var pieces []string

	idxs := charRegex.FindAllStringIndex(text, -1)

	start, end := -1, -1
	flush := func() {
		if start >= 0 {
			pieces = append(pieces, text[start:end])
		}
		start, end = -1, -1
	}

	for _, idx := range idxs {
		token := text[idx[0]:idx[1]]

		if utf8.RuneCountInString(token) > maxChars {
			flush()
			runes := []rune(token)
			for len(runes) > maxChars {
				pieces = append(pieces, string(runes[:maxChars]))
				runes = runes[maxChars:]
			}
			if len(runes) > 0 {
				start = idx[1] - len(string(runes))
				end = idx[1]
			}
			continue
		}

		if start >= 0 && utf8.RuneCountInString(text[start:idx[1]]) > maxChars {
			flush()
		}
		if start < 0 {
			start = idx[0]
		}
		end = idx[1]
	}
	flush()

	return pieces
}
