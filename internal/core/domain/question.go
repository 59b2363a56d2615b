package domain

import (
	"strings"
	"time"
	"unicode"
)

// Question is a user question for one research turn.
// Construct with NewQuestion; fields are not modified afterwards.
type Question struct {
	// Raw is the question exactly as asked.
	Raw string

	// Normalized is Raw with collapsed whitespace and trimmed punctuation.
	Normalized string

	// Effective is the text used for planning. It equals Normalized
	// unless the question was blended with the previous turn.
	Effective string

	// FollowUp is true when the question was treated as a follow-up.
	FollowUp bool

	// Prior is the context of the previous turn, nil on the first turn.
	Prior *SessionContext
}

// NewQuestion builds a question with its normalized form.
func NewQuestion(raw string, prior *SessionContext) Question {
	n := NormalizeText(raw)
	return Question{Raw: raw, Normalized: n, Effective: n, Prior: prior}
}

// NormalizeText collapses whitespace and trims surrounding punctuation.
func NormalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '?' || r == '!' || r == '.'
	})
}

// HitSummary is the compact form of a hit kept between turns.
type HitSummary struct {
	BookID int64  `json:"book_id"`
	Title  string `json:"title"`
}

// SessionContext carries the previous turn into the next one.
// It never refers further back than the immediately preceding turn.
type SessionContext struct {
	ConversationID   string       `json:"conversation_id"`
	PreviousQuestion string       `json:"previous_question"`
	PreviousHits     []HitSummary `json:"previous_hits,omitempty"`
	Turn             int          `json:"turn"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
