package sqlite

import "strings"

// buildSnippet returns a window of text around the earliest occurrence of
// any needle, or the head of the text when none occurs.
func buildSnippet(text string, needles []string, window int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(runes) {
		// Case folding changed the length; positions would not line up
		lower = runes
	}

	idx := -1
	for _, n := range needles {
		if i := indexRunes(lower, []rune(strings.ToLower(n))); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}

	start := 0
	if idx >= 0 {
		start = idx - window/2
		if start < 0 {
			start = 0
		}
	}
	end := start + window
	if end > len(runes) {
		end = len(runes)
	}
	return strings.TrimSpace(string(runes[start:end]))
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
