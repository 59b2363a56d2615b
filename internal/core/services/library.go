package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService answers direct search and excerpt lookups.
type LibraryService struct {
	store        driven.MetadataStore
	chain        driven.PostProcessorChain
	storeTimeout time.Duration
}

// NewLibraryService creates a library service. The hook chain is optional (can be nil).
func NewLibraryService(store driven.MetadataStore, chain driven.PostProcessorChain, storeTimeout time.Duration) *LibraryService {
	return &LibraryService{store: store, chain: chain, storeTimeout: storeTimeout}
}

// FulltextSearch returns at most limit hits for the query. A zero limit
// selects the default.
func (s *LibraryService) FulltextSearch(ctx context.Context, query string, limit int) ([]domain.Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty: %w", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = driving.DefaultSearchLimit
	}
	if limit < driving.MinSearchLimit || limit > driving.MaxSearchLimit {
		return nil, fmt.Errorf("limit must be between %d and %d, got %d: %w",
			driving.MinSearchLimit, driving.MaxSearchLimit, limit, domain.ErrInvalidInput)
	}

	logger.Section("Fulltext Search")
	logger.Debug("Query: %q, limit: %d", query, limit)

	callCtx, cancel := withTimeout(ctx, s.storeTimeout)
	rows, err := s.store.SearchByTerm(callCtx, query, limit)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fulltext search: %w", storeError(err))
	}

	hits := make([]domain.Hit, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.BookID]; dup {
			continue
		}
		seen[r.BookID] = struct{}{}
		hits = append(hits, domain.Hit{
			BookID:     r.BookID,
			Title:      r.Title,
			ISBN:       r.ISBN,
			Snippet:    r.Snippet,
			Terms:      []string{query},
			FirstRound: 1,
		})
	}

	if s.chain != nil {
		var failures []driven.HookFailure
		hits, failures = s.chain.ApplyHits(ctx, hits)
		logFailures(failures)
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	logger.Debug("Hits: %d", len(hits))
	return hits, nil
}

// GetExcerpt returns an excerpt of at most maxChars runes for the book
// carrying the ISBN. A zero maxChars selects the default.
func (s *LibraryService) GetExcerpt(ctx context.Context, isbn, around string, maxChars int) (*domain.Excerpt, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("isbn is empty: %w", domain.ErrInvalidInput)
	}
	if maxChars == 0 {
		maxChars = driving.DefaultExcerptChars
	}
	if maxChars < driving.MinExcerptChars || maxChars > driving.MaxExcerptChars {
		return nil, fmt.Errorf("max_chars must be between %d and %d, got %d: %w",
			driving.MinExcerptChars, driving.MaxExcerptChars, maxChars, domain.ErrInvalidInput)
	}

	logger.Section("Excerpt")
	logger.Debug("ISBN: %q, max chars: %d", isbn, maxChars)

	callCtx, cancel := withTimeout(ctx, s.storeTimeout)
	rec, err := s.store.FindByIdentifier(callCtx, isbn)
	cancel()
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no excerpt found for isbn %s: %w", isbn, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find isbn %s: %w", isbn, storeError(err))
	}

	if around = strings.TrimSpace(around); around != "" {
		rec.Comments = windowAround(rec.Comments, around, maxChars)
	}
	ex, ok := buildExcerpt(rec, maxChars)
	if !ok {
		return nil, fmt.Errorf("no excerpt found for isbn %s: %w", isbn, domain.ErrNotFound)
	}

	excerpts := []domain.Excerpt{ex}
	if s.chain != nil {
		var failures []driven.HookFailure
		excerpts, failures = s.chain.ApplyExcerpts(ctx, excerpts)
		logFailures(failures)
	}
	if len(excerpts) == 0 {
		return nil, fmt.Errorf("no excerpt found for isbn %s: %w", isbn, domain.ErrNotFound)
	}

	out := excerpts[0]
	out.Text = truncateText(out.Text, maxChars)
	return &out, nil
}

func logFailures(failures []driven.HookFailure) {
	for _, f := range failures {
		logger.Warn("Hook %s (%s) skipped: %v", f.Hook, f.Stage, f.Err)
	}
}
