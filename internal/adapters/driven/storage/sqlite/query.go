package sqlite

import (
	"regexp"
	"strings"
)

var termSeparators = regexp.MustCompile(`[\s,;]+`)

// parseBooleanQuery splits a query into OR groups of AND terms.
// "fahrzeug AND bussysteme OR ethernet" yields
// [[fahrzeug bussysteme] [ethernet]].
func parseBooleanQuery(raw string) [][]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var groups [][]string
	var current []string
	pendingOr := false

	for _, tok := range termSeparators.Split(raw, -1) {
		switch strings.ToUpper(tok) {
		case "":
			continue
		case "AND":
			pendingOr = false
			continue
		case "OR":
			pendingOr = true
			continue
		}
		if pendingOr && len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, tok)
		pendingOr = false
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// buildWhere renders groups as SQL with one LIKE triple per term.
func buildWhere(groups [][]string) (string, []any) {
	// Both sides are folded by SQLite so non-ASCII letters compare as stored.
	const termClause = `(lower(b.title) LIKE lower(?) ESCAPE '\' OR ` +
		`lower(COALESCE(b.isbn, '')) LIKE lower(?) ESCAPE '\' OR ` +
		`lower(COALESCE(c.text, '')) LIKE lower(?) ESCAPE '\')`

	ors := make([]string, 0, len(groups))
	var args []any
	for _, g := range groups {
		ands := make([]string, 0, len(g))
		for _, term := range g {
			ands = append(ands, termClause)
			pattern := "%" + escapeLike(term) + "%"
			args = append(args, pattern, pattern, pattern)
		}
		ors = append(ors, "("+strings.Join(ands, " AND ")+")")
	}
	return strings.Join(ors, " OR "), args
}

// escapeLike neutralises LIKE wildcards; clauses must use ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// normalizeISBN keeps digits and X.
func normalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}
