package driven

import (
	"context"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// PostProcessor is a named research hook.
// A hook implements HitProcessor, ExcerptProcessor, or both.
type PostProcessor interface {
	// Name returns the hook name for logging and configuration.
	Name() string
}

// HitProcessor transforms the aggregated hits of a session.
type HitProcessor interface {
	PostProcessor
	OnHits(ctx context.Context, hits []domain.Hit) ([]domain.Hit, error)
}

// ExcerptProcessor transforms excerpts after they are fetched.
type ExcerptProcessor interface {
	PostProcessor
	OnExcerpts(ctx context.Context, excerpts []domain.Excerpt) ([]domain.Excerpt, error)
}

// HookFailure records a hook that failed and was skipped.
type HookFailure struct {
	Hook  string
	Stage string
	Err   error
}

// PostProcessorChain applies hooks in registration order.
type PostProcessorChain interface {
	ApplyHits(ctx context.Context, hits []domain.Hit) ([]domain.Hit, []HookFailure)
	ApplyExcerpts(ctx context.Context, excerpts []domain.Excerpt) ([]domain.Excerpt, []HookFailure)
}
