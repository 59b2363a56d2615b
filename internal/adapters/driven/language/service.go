// Package language implements the language capabilities research uses
// (keyword extraction, query refinement, answer composition) on top of
// any LLMService.
package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.LanguageService = (*Service)(nil)

// Generation settings per task.
const (
	keywordMaxTokens = 100
	refineMaxTokens  = 150
	answerMaxTokens  = 1200

	plannerTemperature = 0.2
	answerTemperature  = 0.4

	// contextExcerptChars bounds each excerpt in the answer prompt.
	contextExcerptChars = 1200
)

// Service adapts an LLMService to driven.LanguageService.
type Service struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	limiter *RateLimiter
}

// NewService creates a language service. prompts and limiter may be nil.
func NewService(llm driven.LLMService, prompts driven.PromptStore, limiter *RateLimiter) *Service {
	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	return &Service{llm: llm, prompts: prompts, limiter: limiter}
}

// ExtractKeywords asks the model for search keywords.
func (s *Service) ExtractKeywords(ctx context.Context, question, hint string) ([]string, error) {
	prompt := fmt.Sprintf(s.prompt(driven.PromptKeywordExtraction), question, orNone(hint))

	reply, err := s.chat(ctx, prompt, keywordMaxTokens, plannerTemperature)
	if err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}
	return parseList(reply), nil
}

// RefineQueries asks the model for new queries given the hits so far.
func (s *Service) RefineQueries(ctx context.Context, question string, hits []domain.Hit, hint string) ([]string, error) {
	prompt := fmt.Sprintf(s.prompt(driven.PromptQueryRefinement), question, formatHitTitles(hits), orNone(hint))

	reply, err := s.chat(ctx, prompt, refineMaxTokens, plannerTemperature)
	if err != nil {
		return nil, fmt.Errorf("refine queries: %w", err)
	}
	return parseList(reply), nil
}

// ComposeAnswer asks the model for prose answering the question.
func (s *Service) ComposeAnswer(ctx context.Context, req driven.ComposeRequest) (string, error) {
	prompt := fmt.Sprintf(s.prompt(driven.PromptAnswerComposition),
		req.Question, formatContext(req.Hits, req.Excerpts), orNone(req.StyleHint))

	reply, err := s.chat(ctx, prompt, answerMaxTokens, answerTemperature)
	if err != nil {
		return "", fmt.Errorf("compose answer: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("compose answer: empty reply: %w", domain.ErrLanguageUnavailable)
	}
	return reply, nil
}

func (s *Service) chat(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLanguageUnavailable
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLanguageUnavailable, err)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: s.prompt(driven.PromptSystem)},
		{Role: "user", Content: prompt},
	}
	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: maxTokens, Temperature: temperature})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			s.limiter.Backoff(0)
		}
		logger.Debug("language model %s failed: %v", s.llm.ModelName(), err)
		return "", fmt.Errorf("%w: %w", domain.ErrLanguageUnavailable, err)
	}
	return reply, nil
}

// prompt loads a template, falling back to the built-in default.
func (s *Service) prompt(name string) string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p
		}
	}
	return DefaultPrompts()[name]
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func formatHitTitles(hits []domain.Hit) string {
	if len(hits) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s\n", h.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatContext lists hits and excerpts the way the answer prompt expects.
func formatContext(hits []domain.Hit, excerpts []domain.Excerpt) string {
	if len(hits) == 0 && len(excerpts) == 0 {
		return "No matching books found."
	}

	var b strings.Builder
	if len(hits) > 0 {
		b.WriteString("Search results:\n")
		for i, h := range hits {
			fmt.Fprintf(&b, "- [%d] %s (ID=%d", i+1, h.Title, h.BookID)
			if h.HasISBN() {
				fmt.Fprintf(&b, ", ISBN %s", h.ISBN)
			}
			b.WriteString(")")
			if h.Snippet != "" {
				fmt.Fprintf(&b, ": %s", h.Snippet)
			}
			b.WriteString("\n")
		}
	}
	if len(excerpts) > 0 {
		b.WriteString("\nExcerpts:\n")
		for _, e := range excerpts {
			fmt.Fprintf(&b, "Title: %s (ID=%d)\n", e.Title, e.BookID)
			b.WriteString(truncate(e.Text, contextExcerptChars))
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
