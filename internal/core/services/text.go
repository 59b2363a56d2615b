package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// truncateText cuts s to at most maxChars runes, preferring the last
// word boundary in the second half of the window.
func truncateText(s string, maxChars int) string {
	s = strings.TrimSpace(s)
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	all := []rune(s)
	if unicode.IsSpace(all[maxChars]) {
		return strings.TrimRightFunc(string(all[:maxChars]), unicode.IsSpace)
	}
	runes := all[:maxChars]
	cut := len(runes)
	for i := len(runes) - 1; i >= maxChars/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}

// windowAround returns the maxChars-rune window of text centred on the
// first case-insensitive occurrence of needle, or text unchanged when the
// needle does not occur.
func windowAround(text, needle string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	lower := []rune(strings.ToLower(text))
	idx := strings.Index(string(lower), strings.ToLower(needle))
	if idx < 0 || len(lower) != len(runes) {
		return text
	}
	pos := utf8.RuneCountInString(string(lower)[:idx])
	start := pos - maxChars/2
	if start < 0 {
		start = 0
	}
	if start+maxChars > len(runes) {
		start = len(runes) - maxChars
	}
	return string(runes[start : start+maxChars])
}

var stopWords = map[string]struct{}{
	// German
	"der": {}, "die": {}, "das": {}, "den": {}, "dem": {}, "des": {}, "ein": {}, "eine": {},
	"einen": {}, "einem": {}, "einer": {}, "und": {}, "oder": {}, "ist": {}, "sind": {},
	"gibt": {}, "es": {}, "was": {}, "wie": {}, "wer": {}, "wo": {}, "welche": {}, "welcher": {},
	"welches": {}, "mir": {}, "mich": {}, "ich": {}, "zu": {}, "zum": {}, "zur": {}, "mit": {},
	"von": {}, "über": {}, "ueber": {}, "für": {}, "fuer": {}, "im": {}, "in": {}, "auf": {},
	"sag": {}, "mehr": {}, "bitte": {}, "kannst": {}, "du": {}, "habe": {}, "hat": {},
	"noch": {}, "dazu": {}, "davon": {}, "bücher": {}, "buch": {},
	// English
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "is": {}, "are": {}, "what": {},
	"which": {}, "who": {}, "how": {}, "about": {}, "tell": {}, "me": {}, "more": {},
	"of": {}, "on": {}, "for": {}, "to": {}, "with": {}, "do": {}, "does": {}, "there": {},
	"any": {}, "books": {}, "book": {}, "please": {}, "it": {}, "that": {},
}

// keywordTokens splits text into distinct search tokens, dropping stop
// words and boolean operators. Order of first appearance is kept.
func keywordTokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '+' || r == '#')
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-")
		lower := strings.ToLower(f)
		if f == "" || isOperator(f) {
			continue
		}
		if _, stop := stopWords[lower]; stop {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, f)
	}
	return out
}

func isOperator(word string) bool {
	return strings.EqualFold(word, "AND") || strings.EqualFold(word, "OR")
}
