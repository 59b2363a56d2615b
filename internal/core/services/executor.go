package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Executor issues planned queries against the metadata store.
type Executor struct {
	store driven.MetadataStore
	cfg   domain.ResearchConfig
}

// NewExecutor creates an executor.
func NewExecutor(store driven.MetadataStore, cfg domain.ResearchConfig) *Executor {
	return &Executor{store: store, cfg: cfg}
}

// Execute runs the queries in order and concatenates their rows.
// Each query contributes at most MaxHitsPerQuery rows. A store failure
// aborts the round with domain.ErrStoreUnavailable.
func (e *Executor) Execute(ctx context.Context, queries []domain.SearchQuery) ([]domain.RawHit, error) {
	var out []domain.RawHit
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := e.search(ctx, q.Term)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", q.Term, err)
		}
		if len(rows) > e.cfg.MaxHitsPerQuery {
			rows = rows[:e.cfg.MaxHitsPerQuery]
		}
		for i := range rows {
			rows[i].Query = q.Term
		}
		logger.Debug("Query %q returned %d rows", q.Term, len(rows))
		out = append(out, rows...)
	}
	return out, nil
}

func (e *Executor) search(ctx context.Context, term string) ([]domain.RawHit, error) {
	callCtx, cancel := withTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	rows, err := e.store.SearchByTerm(callCtx, term, e.cfg.MaxHitsPerQuery)
	if err != nil {
		return nil, storeError(err)
	}
	return rows, nil
}

// storeError makes sure a store failure carries ErrStoreUnavailable.
func storeError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
