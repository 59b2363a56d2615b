package domain

import "strings"

// Provenance records how a search query came to exist.
type Provenance string

// Query provenances.
const (
	// ProvenancePlanned is a query produced by round-one planning.
	ProvenancePlanned Provenance = "planned"

	// ProvenanceRefined is a query produced by a later refinement round.
	ProvenanceRefined Provenance = "refined"

	// ProvenanceSplitKeyword is one token of a split keyword list.
	ProvenanceSplitKeyword Provenance = "split-keyword"
)

// SearchQuery is one lookup issued against the metadata store.
type SearchQuery struct {
	// Term is the query text, possibly containing AND/OR operators.
	Term string `json:"term"`

	// Round is the 1-based search round that issued the query.
	Round int `json:"round"`

	// Provenance records how the query was produced.
	Provenance Provenance `json:"provenance"`
}

// BooleanOperator joins keyword terms into a single query.
type BooleanOperator string

// Supported operators.
const (
	OperatorAND BooleanOperator = "AND"
	OperatorOR  BooleanOperator = "OR"
)

// IsValid returns true if the operator is recognised.
func (o BooleanOperator) IsValid() bool {
	return o == OperatorAND || o == OperatorOR
}

// Join combines terms with the operator, e.g. "CAN OR LIN".
func (o BooleanOperator) Join(terms []string) string {
	return strings.Join(terms, " "+string(o)+" ")
}

// RawHit is one row returned by the metadata store for a query.
type RawHit struct {
	// BookID is the stable key of the book in the library.
	BookID int64

	// Title is the book title.
	Title string

	// ISBN is the book identifier, empty when unknown.
	ISBN string

	// Snippet is a short text window around the matched term.
	Snippet string

	// Query is the query term that produced the row.
	Query string
}

// Hit is an aggregated, deduplicated search result.
// At most one Hit exists per BookID within a session.
type Hit struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	ISBN    string `json:"isbn,omitempty"`
	Snippet string `json:"snippet"`

	// Terms lists every query term that matched this book in match order.
	Terms []string `json:"terms,omitempty"`

	// FirstRound is the round in which the book was first seen.
	FirstRound int `json:"first_round"`
}

// HasISBN reports whether the hit carries an identifier.
func (h Hit) HasISBN() bool {
	return h.ISBN != ""
}

// ExcerptSource labels where excerpt text came from.
type ExcerptSource string

// Excerpt sources.
const (
	ExcerptFromComments ExcerptSource = "comments"
	ExcerptFromTitle    ExcerptSource = "title"
)

// Excerpt is a short text fragment associated with a hit.
type Excerpt struct {
	BookID     int64         `json:"book_id"`
	Title      string        `json:"title"`
	ISBN       string        `json:"isbn,omitempty"`
	Text       string        `json:"text"`
	SourceHint ExcerptSource `json:"source_hint,omitempty"`
}

// BookRecord is the metadata of a single book used to build excerpts.
type BookRecord struct {
	BookID   int64
	Title    string
	ISBN     string
	Comments string
}

// Source is a citation shown alongside an answer.
type Source struct {
	BookID int64  `json:"book_id"`
	Title  string `json:"title"`
	ISBN   string `json:"isbn,omitempty"`
}
