// Package htmlclean provides a hook that strips markup from hit snippets
// and excerpt text.
package htmlclean

import (
	"context"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/normalisers/html"
)

// Name is the registry name of the hook.
const Name = "html_cleanup"

// Processor removes HTML tags and entities.
type Processor struct{}

// New creates the hook.
func New() *Processor {
	return &Processor{}
}

// Name returns the hook name.
func (p *Processor) Name() string {
	return Name
}

// OnHits cleans snippets and titles.
func (p *Processor) OnHits(_ context.Context, hits []domain.Hit) ([]domain.Hit, error) {
	for i := range hits {
		hits[i].Snippet = html.ToLine(hits[i].Snippet)
		hits[i].Title = html.ToLine(hits[i].Title)
	}
	return hits, nil
}

// OnExcerpts cleans excerpt text, keeping line breaks.
func (p *Processor) OnExcerpts(_ context.Context, excerpts []domain.Excerpt) ([]domain.Excerpt, error) {
	for i := range excerpts {
		excerpts[i].Text = html.ToText(excerpts[i].Text)
	}
	return excerpts, nil
}
