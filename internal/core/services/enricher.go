package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Enricher fetches excerpts for the leading hits of a session.
type Enricher struct {
	store driven.MetadataStore
	cfg   domain.ResearchConfig
}

// NewEnricher creates an enricher.
func NewEnricher(store driven.MetadataStore, cfg domain.ResearchConfig) *Enricher {
	return &Enricher{store: store, cfg: cfg}
}

// Enrich returns at most MaxExcerpts excerpts in hit order. Books that
// cannot be resolved are skipped.
func (e *Enricher) Enrich(ctx context.Context, hits []domain.Hit) ([]domain.Excerpt, error) {
	excerpts := make([]domain.Excerpt, 0, e.cfg.MaxExcerpts)
	for _, h := range hits {
		if len(excerpts) >= e.cfg.MaxExcerpts {
			break
		}
		if h.BookID <= 0 {
			continue
		}

		rec, err := e.fetch(ctx, h.BookID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("No excerpt source for book %d", h.BookID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("excerpt for book %d: %w", h.BookID, err)
		}

		ex, ok := buildExcerpt(rec, e.cfg.MaxExcerptChars)
		if !ok {
			continue
		}
		if ex.ISBN == "" {
			ex.ISBN = h.ISBN
		}
		excerpts = append(excerpts, ex)
	}
	return excerpts, nil
}

func (e *Enricher) fetch(ctx context.Context, bookID int64) (*domain.BookRecord, error) {
	callCtx, cancel := withTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	rec, err := e.store.FetchExcerptSource(callCtx, bookID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, storeError(err)
	}
	return rec, err
}

// buildExcerpt prefers comment text and falls back to the title.
func buildExcerpt(rec *domain.BookRecord, maxChars int) (domain.Excerpt, bool) {
	ex := domain.Excerpt{BookID: rec.BookID, Title: rec.Title, ISBN: rec.ISBN}
	if text := strings.TrimSpace(rec.Comments); text != "" {
		ex.Text = truncateText(text, maxChars)
		ex.SourceHint = domain.ExcerptFromComments
	} else {
		ex.Text = truncateText(rec.Title, maxChars)
		ex.SourceHint = domain.ExcerptFromTitle
	}
	return ex, ex.Text != ""
}
