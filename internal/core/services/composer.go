package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

const maxSummaryChars = 300

// Composer builds the final answer and its source list.
type Composer struct {
	language driven.LanguageService
	timeout  time.Duration
}

// NewComposer creates a composer. The language service is optional (can be nil).
func NewComposer(language driven.LanguageService, timeout time.Duration) *Composer {
	return &Composer{language: language, timeout: timeout}
}

// Compose writes the answer. Sources always come from the hits and
// excerpts, never from the prose. Without a working language service
// the answer is templated.
func (c *Composer) Compose(
	ctx context.Context, q domain.Question, hits []domain.Hit, excerpts []domain.Excerpt, styleHint string,
) domain.Answer {
	answer := domain.Answer{Sources: CollectSources(hits, excerpts)}

	if c.language != nil && len(hits) > 0 {
		callCtx, cancel := withTimeout(ctx, c.timeout)
		text, err := c.language.ComposeAnswer(callCtx, driven.ComposeRequest{
			Question:  q.Effective,
			Hits:      hits,
			Excerpts:  excerpts,
			StyleHint: styleHint,
		})
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			answer.Text = strings.TrimSpace(text)
		} else if err != nil {
			logger.Warn("Answer composition failed, using template: %v", err)
		}
	}

	if answer.Text == "" {
		answer.Text = templatedAnswer(q, answer.Sources)
		answer.Templated = true
	}
	answer.Summary = summarise(answer.Text)
	return answer
}

// CollectSources lists hit books then excerpt books, deduplicated by book id.
func CollectSources(hits []domain.Hit, excerpts []domain.Excerpt) []domain.Source {
	seen := make(map[int64]struct{}, len(hits))
	sources := make([]domain.Source, 0, len(hits))
	add := func(id int64, title, isbn string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		sources = append(sources, domain.Source{BookID: id, Title: title, ISBN: isbn})
	}
	for _, h := range hits {
		add(h.BookID, h.Title, h.ISBN)
	}
	for _, e := range excerpts {
		add(e.BookID, e.Title, e.ISBN)
	}
	return sources
}

func templatedAnswer(q domain.Question, sources []domain.Source) string {
	if len(sources) == 0 {
		return fmt.Sprintf("No matching books found for %q.", q.Normalized)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching books for %q.\n\n", len(sources), q.Normalized)
	for _, s := range sources {
		if s.ISBN != "" {
			fmt.Fprintf(&b, "- %s (ISBN %s)\n", s.Title, s.ISBN)
		} else {
			fmt.Fprintf(&b, "- %s\n", s.Title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// summarise returns the first paragraph of the answer, capped in length.
func summarise(text string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n\n")
	return truncateText(first, maxSummaryChars)
}
