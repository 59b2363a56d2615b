package html

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	anyTag            = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	multiSpaces       = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// HasMarkup reports whether s contains tags or character references.
func HasMarkup(s string) bool {
	return anyTag.MatchString(s) || strings.Contains(s, "&") && html.UnescapeString(s) != s
}

// ToText strips tags and decodes entities. Block elements become line
// breaks; empty lines are dropped.
func ToText(content string) string {
	if !HasMarkup(content) {
		return strings.TrimSpace(content)
	}

	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	result := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// ToLine is ToText with line breaks folded into spaces, for snippets.
func ToLine(content string) string {
	return strings.Join(strings.Fields(ToText(content)), " ")
}
