package driven

import (
	"context"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// LanguageService provides the language capabilities research relies on.
// This is an optional service - when nil, planning is heuristic and
// answers are composed from a template.
type LanguageService interface {
	// ExtractKeywords returns search keywords or phrases for a question.
	// A single entry holding a space-separated token list is split by the planner.
	ExtractKeywords(ctx context.Context, question, hint string) ([]string, error)

	// RefineQueries proposes new queries given the hits found so far.
	RefineQueries(ctx context.Context, question string, hits []domain.Hit, hint string) ([]string, error)

	// ComposeAnswer writes prose answering the question from the hits and excerpts.
	ComposeAnswer(ctx context.Context, req ComposeRequest) (string, error)
}

// ComposeRequest is the input of ComposeAnswer.
type ComposeRequest struct {
	Question  string
	Hits      []domain.Hit
	Excerpts  []domain.Excerpt
	StyleHint string
}
