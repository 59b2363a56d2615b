package domain

import (
	"fmt"
	"time"
)

// ResearchConfig holds the limits of one research session.
// Build it with Validate; the session treats it as read-only.
type ResearchConfig struct {
	MaxQueryVariants       int
	MaxHitsPerQuery        int
	MaxHitsTotal           int
	TargetSources          int
	MaxExcerpts            int
	MaxExcerptChars        int
	MinHitsRequired        int
	MaxSearchRounds        int
	ContextInfluence       int
	MaxSearchKeywords      int
	KeywordBooleanOperator BooleanOperator

	KeywordExtractionHint string
	RefinementHint        string
	AnswerStyleHint       string

	// LLMPlanning enables language-assisted keyword extraction.
	LLMPlanning bool

	// EnableRefinement allows rounds after the first.
	EnableRefinement bool

	// FollowUpMaxWords is the word count at or below which a question
	// with prior context is treated as a follow-up.
	FollowUpMaxWords int

	StoreTimeout    time.Duration
	LanguageTimeout time.Duration
}

// DefaultResearchConfig returns the shipped research limits.
func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		MaxQueryVariants:       5,
		MaxHitsPerQuery:        10,
		MaxHitsTotal:           25,
		TargetSources:          5,
		MaxExcerpts:            3,
		MaxExcerptChars:        1200,
		MinHitsRequired:        3,
		MaxSearchRounds:        2,
		ContextInfluence:       50,
		MaxSearchKeywords:      5,
		KeywordBooleanOperator: OperatorOR,
		LLMPlanning:            true,
		EnableRefinement:       true,
		FollowUpMaxWords:       6,
		StoreTimeout:           10 * time.Second,
		LanguageTimeout:        60 * time.Second,
	}
}

// Validate checks every limit and returns the config unchanged when valid.
func (c ResearchConfig) Validate() (ResearchConfig, error) {
	positive := []struct {
		name string
		v    int
	}{
		{"max_query_variants", c.MaxQueryVariants},
		{"max_hits_per_query", c.MaxHitsPerQuery},
		{"max_hits_total", c.MaxHitsTotal},
		{"target_sources", c.TargetSources},
		{"max_excerpt_chars", c.MaxExcerptChars},
		{"max_search_rounds", c.MaxSearchRounds},
		{"max_search_keywords", c.MaxSearchKeywords},
	}
	for _, p := range positive {
		if p.v < 1 {
			return c, fmt.Errorf("%s must be at least 1, got %d: %w", p.name, p.v, ErrInvalidConfig)
		}
	}
	if c.MaxExcerpts < 0 {
		return c, fmt.Errorf("max_excerpts must not be negative: %w", ErrInvalidConfig)
	}
	if c.MinHitsRequired < 0 {
		return c, fmt.Errorf("min_hits_required must not be negative: %w", ErrInvalidConfig)
	}
	if c.ContextInfluence < 0 || c.ContextInfluence > 100 {
		return c, fmt.Errorf("context_influence must be within 0..100, got %d: %w", c.ContextInfluence, ErrInvalidConfig)
	}
	if !c.KeywordBooleanOperator.IsValid() {
		return c, fmt.Errorf("keyword_boolean_operator must be AND or OR, got %q: %w", c.KeywordBooleanOperator, ErrInvalidConfig)
	}
	if c.FollowUpMaxWords < 0 {
		return c, fmt.Errorf("follow_up_max_words must not be negative: %w", ErrInvalidConfig)
	}
	return c, nil
}

// ResearchRequest is the input of one research turn.
type ResearchRequest struct {
	Question string

	// ConversationID links follow-up questions. Empty starts a new conversation.
	ConversationID string
}

// ResearchResult is the outcome of one research turn.
type ResearchResult struct {
	ConversationID    string        `json:"conversation_id"`
	Question          string        `json:"question"`
	EffectiveQuestion string        `json:"effective_question"`
	FollowUp          bool          `json:"follow_up"`
	Rounds            int           `json:"rounds"`
	Queries           []SearchQuery `json:"queries"`
	Hits              []Hit         `json:"hits"`
	Excerpts          []Excerpt     `json:"excerpts"`
	Summary           string        `json:"summary"`
	Sources           []Source      `json:"sources"`
	Answer            string        `json:"answer"`

	// Warnings lists degraded steps, such as fallback planning or failed plugins.
	Warnings []string `json:"warnings,omitempty"`
}

// Answer is the composed response for a question.
type Answer struct {
	Summary string
	Sources []Source
	Text    string

	// Templated is true when the language capability was not used.
	Templated bool
}
