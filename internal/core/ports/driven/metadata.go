package driven

import (
	"context"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// MetadataStore provides read-only lookups against the book library.
// Implementations wrap store failures in domain.ErrStoreUnavailable.
type MetadataStore interface {
	// SearchByTerm returns at most limit rows matching the term.
	// The term may combine words with AND / OR. Zero rows is not an error.
	SearchByTerm(ctx context.Context, term string, limit int) ([]domain.RawHit, error)

	// FindByIdentifier resolves an ISBN to a book.
	// Returns domain.ErrNotFound when no book carries the identifier.
	FindByIdentifier(ctx context.Context, isbn string) (*domain.BookRecord, error)

	// FetchExcerptSource returns the metadata used to build an excerpt.
	// Returns domain.ErrNotFound when the book does not exist.
	FetchExcerptSource(ctx context.Context, bookID int64) (*domain.BookRecord, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
