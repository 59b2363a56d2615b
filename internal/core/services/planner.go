package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Planner turns a question into the search queries of one round.
type Planner struct {
	language driven.LanguageService
	cfg      domain.ResearchConfig
}

// NewPlanner creates a planner. The language service is optional (can be nil).
func NewPlanner(language driven.LanguageService, cfg domain.ResearchConfig) *Planner {
	return &Planner{language: language, cfg: cfg}
}

// Plan returns the queries for a round. The boolean result is true when
// the heuristic fallback was used instead of the language service.
// Planning never fails; an empty plan ends the search loop.
func (p *Planner) Plan(
	ctx context.Context, q domain.Question, round int, hits []domain.Hit, issued []domain.SearchQuery,
) ([]domain.SearchQuery, bool) {
	if round < 1 || round > p.cfg.MaxSearchRounds {
		return nil, false
	}
	if round > 1 && !p.cfg.EnableRefinement {
		return nil, false
	}

	var queries []domain.SearchQuery
	fallback := false

	if round == 1 {
		queries = p.planFirstRound(ctx, q)
	} else {
		queries = p.planRefinement(ctx, q, round, hits)
	}

	if len(queries) == 0 {
		fallback = true
		queries = p.heuristic(q, round, issued)
	}

	queries = capQueries(dedupeQueries(queries), p.cfg.MaxQueryVariants)
	for _, sq := range queries {
		logger.Debug("Round %d query (%s): %q", round, sq.Provenance, sq.Term)
	}
	return queries, fallback
}

func (p *Planner) planFirstRound(ctx context.Context, q domain.Question) []domain.SearchQuery {
	if p.language == nil || !p.cfg.LLMPlanning {
		return nil
	}

	callCtx, cancel := withTimeout(ctx, p.cfg.LanguageTimeout)
	defer cancel()

	keywords, err := p.language.ExtractKeywords(callCtx, q.Effective, p.cfg.KeywordExtractionHint)
	if err != nil {
		logger.Warn("Keyword extraction failed, using heuristic: %v", err)
		return nil
	}
	keywords = cleanEntries(keywords)
	logger.Debug("Extracted keywords: %v", keywords)

	switch len(keywords) {
	case 0:
		return nil
	case 1:
		tokens := nonOperatorFields(keywords[0])
		if len(tokens) > 1 {
			out := make([]domain.SearchQuery, 0, len(tokens))
			for _, tok := range tokens {
				out = append(out, domain.SearchQuery{Term: tok, Round: 1, Provenance: domain.ProvenanceSplitKeyword})
			}
			return out
		}
	}

	out := make([]domain.SearchQuery, 0, len(keywords))
	for _, phrase := range keywords {
		if term := p.joinPhrase(phrase); term != "" {
			out = append(out, domain.SearchQuery{Term: term, Round: 1, Provenance: domain.ProvenancePlanned})
		}
	}
	return out
}

func (p *Planner) planRefinement(
	ctx context.Context, q domain.Question, round int, hits []domain.Hit,
) []domain.SearchQuery {
	if p.language == nil || !p.cfg.LLMPlanning {
		return nil
	}

	callCtx, cancel := withTimeout(ctx, p.cfg.LanguageTimeout)
	defer cancel()

	refined, err := p.language.RefineQueries(callCtx, q.Effective, hits, p.cfg.RefinementHint)
	if err != nil {
		logger.Warn("Query refinement failed, using heuristic: %v", err)
		return nil
	}

	out := make([]domain.SearchQuery, 0, len(refined))
	for _, phrase := range cleanEntries(refined) {
		if term := p.joinPhrase(phrase); term != "" {
			out = append(out, domain.SearchQuery{Term: term, Round: round, Provenance: domain.ProvenanceRefined})
		}
	}
	return out
}

// heuristic builds queries from the question text alone. Round one issues
// a single joined query; later rounds widen to individual terms that were
// not searched before.
func (p *Planner) heuristic(q domain.Question, round int, issued []domain.SearchQuery) []domain.SearchQuery {
	terms := keywordTokens(q.Effective)
	if len(terms) > p.cfg.MaxSearchKeywords {
		terms = terms[:p.cfg.MaxSearchKeywords]
	}
	if len(terms) == 0 {
		if q.Effective == "" || round > 1 {
			return nil
		}
		return []domain.SearchQuery{{Term: q.Effective, Round: round, Provenance: domain.ProvenancePlanned}}
	}

	if round == 1 {
		return []domain.SearchQuery{{
			Term:       p.cfg.KeywordBooleanOperator.Join(terms),
			Round:      1,
			Provenance: domain.ProvenancePlanned,
		}}
	}

	seen := make(map[string]struct{}, len(issued))
	for _, sq := range issued {
		seen[strings.ToLower(sq.Term)] = struct{}{}
	}
	var out []domain.SearchQuery
	for _, t := range terms {
		if _, ok := seen[strings.ToLower(t)]; ok {
			continue
		}
		out = append(out, domain.SearchQuery{Term: t, Round: round, Provenance: domain.ProvenanceSplitKeyword})
	}
	return out
}

// joinPhrase caps a phrase to the keyword limit and joins its words with
// the configured operator.
func (p *Planner) joinPhrase(phrase string) string {
	words := nonOperatorFields(phrase)
	if len(words) == 0 {
		return ""
	}
	if len(words) > p.cfg.MaxSearchKeywords {
		words = words[:p.cfg.MaxSearchKeywords]
	}
	return p.cfg.KeywordBooleanOperator.Join(words)
}

func nonOperatorFields(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if !isOperator(f) {
			out = append(out, f)
		}
	}
	return out
}

func cleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(strings.Trim(e, "\"'`*-•"))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func dedupeQueries(queries []domain.SearchQuery) []domain.SearchQuery {
	seen := make(map[string]struct{}, len(queries))
	out := make([]domain.SearchQuery, 0, len(queries))
	for _, q := range queries {
		key := strings.ToLower(q.Term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

func capQueries(queries []domain.SearchQuery, limit int) []domain.SearchQuery {
	if len(queries) > limit {
		return queries[:limit]
	}
	return queries
}
