package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Ensure ResearchService implements the interface.
var _ driving.ResearchService = (*ResearchService)(nil)

const defaultConversationTTL = 30 * time.Minute

// Session outcomes recorded in metrics.
const (
	outcomeOK       = "ok"
	outcomeNoHits   = "no_hits"
	outcomeError    = "error"
	outcomeCanceled = "canceled"
)

// ResearchService runs research sessions: plan, search, aggregate,
// enrich, post-process and compose, with context carried between turns.
type ResearchService struct {
	store         driven.MetadataStore
	language      driven.LanguageService
	conversations driven.ConversationStore
	chain         driven.PostProcessorChain
	metrics       driven.ResearchMetrics
	cfg           domain.ResearchConfig
	detector      FollowUpDetector
	sessions      *semaphore.Weighted
	ttl           time.Duration
	now           func() time.Time
	newID         func() string
}

// NewResearchService creates a research service. The language service,
// conversation store and hook chain are optional (can be nil). cfg must
// already be validated.
func NewResearchService(
	store driven.MetadataStore,
	language driven.LanguageService,
	conversations driven.ConversationStore,
	chain driven.PostProcessorChain,
	cfg domain.ResearchConfig,
	maxConcurrent int,
) *ResearchService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ResearchService{
		store:         store,
		language:      language,
		conversations: conversations,
		chain:         chain,
		cfg:           cfg,
		detector:      DefaultFollowUpDetector(cfg.FollowUpMaxWords),
		sessions:      semaphore.NewWeighted(int64(maxConcurrent)),
		ttl:           defaultConversationTTL,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// SetMetrics sets the recorder for session metrics.
func (s *ResearchService) SetMetrics(m driven.ResearchMetrics) {
	s.metrics = m
}

// SetFollowUpDetector replaces the follow-up detection strategy.
func (s *ResearchService) SetFollowUpDetector(d FollowUpDetector) {
	s.detector = d
}

// SetConversationTTL sets how long an idle conversation keeps its context.
func (s *ResearchService) SetConversationTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// Research runs one research turn.
func (s *ResearchService) Research(ctx context.Context, req domain.ResearchRequest) (*domain.ResearchResult, error) {
	raw := strings.TrimSpace(req.Question)
	if raw == "" {
		return nil, fmt.Errorf("question is empty: %w", domain.ErrInvalidInput)
	}

	if err := s.sessions.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for session slot: %w", err)
	}
	defer s.sessions.Release(1)

	start := s.now()
	result, err := s.run(ctx, raw, req.ConversationID)
	s.record(result, err, s.now().Sub(start))
	return result, err
}

func (s *ResearchService) run(ctx context.Context, raw, conversationID string) (*domain.ResearchResult, error) {
	cfg := s.cfg

	logger.Section("Research")
	prior := s.loadContext(ctx, conversationID)
	if conversationID == "" {
		conversationID = s.newID()
	}

	q := NewContextManager(s.detector).Blend(raw, prior, cfg.ContextInfluence)
	logger.Debug("Question: %q (follow-up=%t)", q.Normalized, q.FollowUp)
	logger.Debug("Effective question: %q", q.Effective)

	result := &domain.ResearchResult{
		ConversationID:    conversationID,
		Question:          q.Raw,
		EffectiveQuestion: q.Effective,
		FollowUp:          q.FollowUp,
	}

	hits, err := s.search(ctx, q, cfg, result)
	if err != nil {
		return nil, err
	}

	hits = s.applyHitHooks(ctx, hits, cfg, result)

	logger.Section("Excerpts")
	excerpts, err := NewEnricher(s.store, cfg).Enrich(ctx, hits)
	if err != nil {
		return nil, err
	}
	excerpts = s.applyExcerptHooks(ctx, excerpts, cfg, result)
	logger.Debug("Excerpts: %d", len(excerpts))

	logger.Section("Answer")
	answer := NewComposer(s.language, cfg.LanguageTimeout).Compose(ctx, q, hits, excerpts, cfg.AnswerStyleHint)
	if answer.Templated && s.language != nil && len(hits) > 0 {
		s.fallback(result, "answer", "answer composed from template")
	}

	result.Hits = hits
	result.Excerpts = excerpts
	result.Sources = answer.Sources
	result.Answer = answer.Text
	result.Summary = answer.Summary

	s.saveContext(ctx, NewContextManager(s.detector).Update(conversationID, prior, q, hits, s.now()))
	return result, nil
}

// search is the bounded planning and retrieval loop.
func (s *ResearchService) search(
	ctx context.Context, q domain.Question, cfg domain.ResearchConfig, result *domain.ResearchResult,
) ([]domain.Hit, error) {
	planner := NewPlanner(s.language, cfg)
	executor := NewExecutor(s.store, cfg)
	aggregator := NewAggregator(cfg)

	var hits []domain.Hit
	var issued []domain.SearchQuery
	for round := 1; round <= cfg.MaxSearchRounds; round++ {
		logger.Section(fmt.Sprintf("Search Round %d", round))

		queries, fallback := planner.Plan(ctx, q, round, hits, issued)
		if fallback && s.language != nil && cfg.LLMPlanning {
			s.fallback(result, "planning", fmt.Sprintf("round %d planned heuristically", round))
		}
		if len(queries) == 0 {
			logger.Debug("No queries planned, stopping")
			break
		}

		rows, err := executor.Execute(ctx, queries)
		if err != nil {
			return nil, err
		}
		issued = append(issued, queries...)
		result.Queries = append(result.Queries, queries...)
		result.Rounds = round

		var stop bool
		hits, stop = aggregator.Aggregate(hits, rows, round)
		logger.Debug("Aggregated hits: %d", len(hits))
		if stop {
			break
		}
	}
	return hits, nil
}

func (s *ResearchService) applyHitHooks(
	ctx context.Context, hits []domain.Hit, cfg domain.ResearchConfig, result *domain.ResearchResult,
) []domain.Hit {
	if s.chain == nil {
		return hits
	}
	out, failures := s.chain.ApplyHits(ctx, hits)
	s.hookFailures(result, failures)
	if len(out) > cfg.MaxHitsTotal {
		out = out[:cfg.MaxHitsTotal]
	}
	return out
}

func (s *ResearchService) applyExcerptHooks(
	ctx context.Context, excerpts []domain.Excerpt, cfg domain.ResearchConfig, result *domain.ResearchResult,
) []domain.Excerpt {
	if s.chain == nil {
		return excerpts
	}
	out, failures := s.chain.ApplyExcerpts(ctx, excerpts)
	s.hookFailures(result, failures)
	if len(out) > cfg.MaxExcerpts {
		out = out[:cfg.MaxExcerpts]
	}
	for i := range out {
		out[i].Text = truncateText(out[i].Text, cfg.MaxExcerptChars)
	}
	return out
}

func (s *ResearchService) hookFailures(result *domain.ResearchResult, failures []driven.HookFailure) {
	for _, f := range failures {
		result.Warnings = append(result.Warnings, fmt.Sprintf("hook %s (%s) skipped: %v", f.Hook, f.Stage, f.Err))
		if s.metrics != nil {
			s.metrics.HookFailed(f.Hook, f.Stage)
		}
	}
}

func (s *ResearchService) fallback(result *domain.ResearchResult, stage, msg string) {
	result.Warnings = append(result.Warnings, msg)
	if s.metrics != nil {
		s.metrics.LanguageFallback(stage)
	}
}

func (s *ResearchService) loadContext(ctx context.Context, conversationID string) *domain.SessionContext {
	if conversationID == "" || s.conversations == nil {
		return nil
	}
	sc, err := s.conversations.Load(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Failed to load conversation %s: %v", conversationID, err)
		}
		return nil
	}
	return sc
}

func (s *ResearchService) saveContext(ctx context.Context, sc *domain.SessionContext) {
	if s.conversations == nil {
		return
	}
	if err := s.conversations.Save(ctx, sc, s.ttl); err != nil {
		logger.Warn("Failed to save conversation %s: %v", sc.ConversationID, err)
	}
}

func (s *ResearchService) record(result *domain.ResearchResult, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.metrics.SessionFinished(outcomeCanceled, 0, 0, elapsed)
	case err != nil:
		s.metrics.SessionFinished(outcomeError, 0, 0, elapsed)
	case len(result.Hits) == 0:
		s.metrics.SessionFinished(outcomeNoHits, result.Rounds, 0, elapsed)
	default:
		s.metrics.SessionFinished(outcomeOK, result.Rounds, len(result.Hits), elapsed)
	}
}

// EndConversation drops the stored context of a conversation.
func (s *ResearchService) EndConversation(ctx context.Context, conversationID string) error {
	if s.conversations == nil || conversationID == "" {
		return nil
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("end conversation: %w", err)
	}
	return nil
}
