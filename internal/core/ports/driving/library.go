package driving

import (
	"context"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// Tool argument bounds.
const (
	DefaultSearchLimit = 10
	MinSearchLimit     = 1
	MaxSearchLimit     = 100

	DefaultExcerptChars = 1500
	MinExcerptChars     = 200
	MaxExcerptChars     = 8000
)

// LibraryService exposes direct lookups used by the tool gateway.
type LibraryService interface {
	// FulltextSearch returns at most limit hits for the query after post-processing.
	FulltextSearch(ctx context.Context, query string, limit int) ([]domain.Hit, error)

	// GetExcerpt returns an excerpt for the book carrying the ISBN. When
	// around is set and occurs in the text, the excerpt is centred on it.
	// Returns domain.ErrNotFound when no book matches.
	GetExcerpt(ctx context.Context, isbn, around string, maxChars int) (*domain.Excerpt, error)
}
