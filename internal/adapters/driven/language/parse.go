package language

import (
	"regexp"
	"strings"
)

var (
	listMarker  = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|[a-z][.)])\s+`)
	labelPrefix = regexp.MustCompile(`(?i)^(?:keywords?|schlagw(?:ö|oe)rter|suchbegriffe|queries|query|suchanfragen?)\s*:\s*`)
)

// parseList turns a model reply into entries. Each line is one entry
// unless the reply is a single line, which is split on commas or
// semicolons when present. Markdown list markers, labels and quotes
// are removed.
func parseList(reply string) []string {
	reply = strings.TrimSpace(stripFences(reply))
	if reply == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		line = labelPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		line = listMarker.ReplaceAllString(line, "")
		if line = cleanEntry(line); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 1 && strings.ContainsAny(lines[0], ",;") {
		parts := strings.FieldsFunc(lines[0], func(r rune) bool { return r == ',' || r == ';' })
		lines = lines[:0]
		for _, p := range parts {
			if p = cleanEntry(p); p != "" {
				lines = append(lines, p)
			}
		}
	}
	return lines
}

func cleanEntry(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	s = strings.Trim(s, "\"'`“”„«»")
	s = strings.TrimSuffix(s, ".")
	return strings.Join(strings.Fields(s), " ")
}

// stripFences removes a surrounding markdown code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
