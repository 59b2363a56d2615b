// Package snippettrim provides a hook that shortens hit snippets.
package snippettrim

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// Name is the registry name of the hook.
const Name = "snippet_trim"

// DefaultMaxChars is the default snippet length in characters.
const DefaultMaxChars = 240

// DefaultEllipsis marks a shortened snippet.
const DefaultEllipsis = "…"

// Processor trims snippets to a maximum length on a word boundary.
type Processor struct {
	maxChars int
	ellipsis string
}

// Option configures the processor.
type Option func(*Processor)

// WithMaxChars sets the maximum snippet length in characters.
func WithMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

// WithEllipsis sets the marker appended to shortened snippets.
func WithEllipsis(s string) Option {
	return func(p *Processor) {
		p.ellipsis = s
	}
}

// New creates a snippet trimmer with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars: DefaultMaxChars,
		ellipsis: DefaultEllipsis,
	}

	for _, opt := range opts {
		opt(p)
	}

	// The marker must leave room for text
	if utf8.RuneCountInString(p.ellipsis) >= p.maxChars {
		p.ellipsis = ""
	}

	return p
}

// Name returns the hook name.
func (p *Processor) Name() string {
	return Name
}

// OnHits trims every snippet longer than the limit.
func (p *Processor) OnHits(_ context.Context, hits []domain.Hit) ([]domain.Hit, error) {
	for i := range hits {
		hits[i].Snippet = p.trim(hits[i].Snippet)
	}
	return hits, nil
}

func (p *Processor) trim(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= p.maxChars {
		return s
	}

	budget := p.maxChars - utf8.RuneCountInString(p.ellipsis)
	runes := []rune(s)[:budget]
	cut := len(runes)
	if i := strings.LastIndexFunc(string(runes), func(r rune) bool { return r == ' ' }); i > 0 {
		// LastIndexFunc returns a byte offset
		if n := utf8.RuneCountInString(string(runes)[:i]); n >= budget/2 {
			cut = n
		}
	}
	return strings.TrimRight(string(runes[:cut]), " ,;:") + p.ellipsis
}
