package services

import (
	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// Aggregator merges raw hits into the deduplicated hit list of a session
// and decides when searching can stop.
type Aggregator struct {
	cfg domain.ResearchConfig
}

// NewAggregator creates an aggregator.
func NewAggregator(cfg domain.ResearchConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate merges incoming rows into existing hits and reports whether
// to stop. The first occurrence of a book wins; later sightings only add
// their query term. The result never exceeds MaxHitsTotal. existing is
// not modified.
func (a *Aggregator) Aggregate(existing []domain.Hit, incoming []domain.RawHit, round int) ([]domain.Hit, bool) {
	out := make([]domain.Hit, len(existing), len(existing)+len(incoming))
	index := make(map[int64]int, len(existing)+len(incoming))
	for i, h := range existing {
		h.Terms = append([]string(nil), h.Terms...)
		out[i] = h
		index[h.BookID] = i
	}

	for _, raw := range incoming {
		if i, ok := index[raw.BookID]; ok {
			out[i].Terms = appendTerm(out[i].Terms, raw.Query)
			continue
		}
		if len(out) >= a.cfg.MaxHitsTotal {
			continue
		}
		index[raw.BookID] = len(out)
		out = append(out, domain.Hit{
			BookID:     raw.BookID,
			Title:      raw.Title,
			ISBN:       raw.ISBN,
			Snippet:    raw.Snippet,
			Terms:      appendTerm(nil, raw.Query),
			FirstRound: round,
		})
	}

	return out, a.shouldStop(out, round)
}

func (a *Aggregator) shouldStop(hits []domain.Hit, round int) bool {
	if round >= a.cfg.MaxSearchRounds {
		return true
	}
	return distinctSources(hits) >= a.cfg.TargetSources && len(hits) >= a.cfg.MinHitsRequired
}

func distinctSources(hits []domain.Hit) int {
	seen := make(map[int64]struct{}, len(hits))
	for _, h := range hits {
		seen[h.BookID] = struct{}{}
	}
	return len(seen)
}

func appendTerm(terms []string, term string) []string {
	if term == "" {
		return terms
	}
	for _, t := range terms {
		if t == term {
			return terms
		}
	}
	return append(terms, term)
}
