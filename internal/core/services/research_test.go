package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/postprocessors"
)

type researchFixture struct {
	store   *fakeStore
	lang    *fakeLanguage
	convs   *fakeConversations
	metrics *fakeMetrics
	svc     *ResearchService
}

func newResearchFixture(cfg domain.ResearchConfig, lang *fakeLanguage, chain driven.PostProcessorChain) *researchFixture {
	f := &researchFixture{
		store:   newFakeStore(busLibrary()...),
		lang:    lang,
		convs:   newFakeConversations(),
		metrics: &fakeMetrics{},
	}
	var language driven.LanguageService
	if lang != nil {
		language = lang
	}
	f.svc = NewResearchService(f.store, language, f.convs, chain, cfg, 2)
	f.svc.SetMetrics(f.metrics)
	f.svc.newID = func() string { return "conv-1" }
	return f
}

func TestResearch_ScenarioKeywordSplit(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSources = 3
	cfg.MinHitsRequired = 3
	lang := &fakeLanguage{
		keywords: []string{"Bussysteme CAN LIN"},
		answer:   "Es gibt CAN, LIN und FlexRay [1].",
	}
	f := newResearchFixture(cfg, lang, nil)

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "Welche Fahrzeug-Bussysteme gibt es?"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Rounds, "target sources reached in the first round")
	assert.Equal(t, []string{"Bussysteme", "CAN", "LIN"}, f.store.searchedTerms())
	for _, q := range result.Queries {
		assert.Equal(t, domain.ProvenanceSplitKeyword, q.Provenance)
	}

	ids := make([]int64, len(result.Hits))
	for i, h := range result.Hits {
		ids[i] = h.BookID
	}
	assert.Equal(t, []int64{1, 3, 5, 2}, ids)
	assert.Equal(t, []string{"Bussysteme", "CAN", "LIN"}, result.Hits[0].Terms)

	require.Len(t, result.Excerpts, 3)
	assert.Equal(t, "Es gibt CAN, LIN und FlexRay [1].", result.Answer)
	assert.Len(t, result.Sources, 4)
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{"ok"}, f.metrics.outcomes)
	assert.Equal(t, 1, f.convs.saved)
}

func TestResearch_RoundBound(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSearchRounds = 3
	cfg.TargetSources = 100
	lang := &fakeLanguage{keywords: []string{"CAN"}, refined: []string{"LIN"}, answer: "ok"}
	f := newResearchFixture(cfg, lang, nil)

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "Bussysteme"})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Rounds)
	assert.Equal(t, 2, lang.refineCalls)
	assert.Len(t, f.store.searchedTerms(), 3)
}

func TestResearch_EmptyPlanEndsLoop(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSearchRounds = 5
	cfg.TargetSources = 100
	f := newResearchFixture(cfg, nil, nil)

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "CAN LIN"})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Rounds)
	assert.Equal(t, []string{"CAN OR LIN", "CAN", "LIN"}, f.store.searchedTerms())
}

func TestResearch_CapsResults(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHitsTotal = 2
	cfg.MaxExcerpts = 1
	cfg.MaxExcerptChars = 20
	f := newResearchFixture(cfg, nil, nil)

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "CAN LIN Ethernet"})

	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Hits), 2)
	require.Len(t, result.Excerpts, 1)
	assert.LessOrEqual(t, utf8.RuneCountInString(result.Excerpts[0].Text), 20)
}

func TestResearch_PluginIsolation(t *testing.T) {
	for _, panics := range []bool{false, true} {
		name := "error"
		if panics {
			name = "panic"
		}
		t.Run(name, func(t *testing.T) {
			chain := postprocessors.NewChain(brokenHook{panics: panics})
			chain.Seal()
			f := newResearchFixture(testConfig(), nil, chain)

			result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "CAN"})

			require.NoError(t, err)
			assert.NotEmpty(t, result.Hits)
			assert.NotEmpty(t, result.Excerpts)
			assert.NotEmpty(t, result.Answer)
			assert.Equal(t, []string{"broken/hits", "broken/excerpts"}, f.metrics.hooks)
			require.Len(t, result.Warnings, 2)
			assert.Contains(t, result.Warnings[0], "hook broken (hits) skipped")
		})
	}
}

func TestResearch_StoreUnavailable(t *testing.T) {
	f := newResearchFixture(testConfig(), nil, nil)
	f.store.searchErr = errors.New("unable to open database file")

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "CAN"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, []string{"error"}, f.metrics.outcomes)
	assert.Zero(t, f.convs.saved)
}

func TestResearch_LanguageDegrades(t *testing.T) {
	lang := &fakeLanguage{
		keywordsErr: domain.ErrLanguageUnavailable,
		refineErr:   domain.ErrLanguageUnavailable,
		answerErr:   domain.ErrLanguageUnavailable,
	}
	f := newResearchFixture(testConfig(), lang, nil)

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "CAN"})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Hits)
	assert.True(t, strings.HasPrefix(result.Answer, "Found "))
	assert.Contains(t, result.Warnings, "round 1 planned heuristically")
	assert.Contains(t, result.Warnings, "answer composed from template")
	assert.Contains(t, f.metrics.fallbacks, "planning")
	assert.Contains(t, f.metrics.fallbacks, "answer")
}

func TestResearch_FollowUp(t *testing.T) {
	cfg := testConfig()
	cfg.ContextInfluence = 100
	f := newResearchFixture(cfg, nil, nil)
	ctx := context.Background()

	first, err := f.svc.Research(ctx, domain.ResearchRequest{Question: "Welche Fahrzeug-Bussysteme gibt es?"})
	require.NoError(t, err)
	assert.False(t, first.FollowUp)

	before := len(f.store.searchedTerms())
	second, err := f.svc.Research(ctx, domain.ResearchRequest{
		Question:       "Sag mir mehr zu LIN",
		ConversationID: first.ConversationID,
	})

	require.NoError(t, err)
	assert.True(t, second.FollowUp)
	assert.Contains(t, second.EffectiveQuestion, "Fahrzeug-Bussysteme")
	assert.Contains(t, second.EffectiveQuestion, "LIN")
	assert.Greater(t, len(f.store.searchedTerms()), before, "a follow-up runs a new search")
	assert.Equal(t, "Fahrzeug-Bussysteme OR LIN", second.Queries[0].Term)

	stored := f.convs.contexts[first.ConversationID]
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.Turn)
	assert.Equal(t, "Sag mir mehr zu LIN", stored.PreviousQuestion)
}

func TestResearch_ContextReachesBackOneTurn(t *testing.T) {
	cfg := testConfig()
	cfg.ContextInfluence = 100
	f := newResearchFixture(cfg, nil, nil)
	ctx := context.Background()

	first, err := f.svc.Research(ctx, domain.ResearchRequest{Question: "Welche Fahrzeug-Bussysteme gibt es?"})
	require.NoError(t, err)

	second, err := f.svc.Research(ctx, domain.ResearchRequest{
		Question:       "Sag mir mehr zu LIN",
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)
	require.True(t, second.FollowUp)

	third, err := f.svc.Research(ctx, domain.ResearchRequest{
		Question:       "Und Ethernet dazu",
		ConversationID: first.ConversationID,
	})

	require.NoError(t, err)
	assert.True(t, third.FollowUp)
	assert.Equal(t, "Sag mir mehr zu LIN Und Ethernet dazu", third.EffectiveQuestion)
	assert.NotContains(t, third.EffectiveQuestion, "Fahrzeug-Bussysteme")

	stored := f.convs.contexts[first.ConversationID]
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.Turn)
	assert.Equal(t, "Und Ethernet dazu", stored.PreviousQuestion)
}

func TestResearch_ConversationStoreFailures(t *testing.T) {
	f := newResearchFixture(testConfig(), nil, nil)
	f.convs.loadErr = errors.New("connection refused")
	f.convs.saveErr = errors.New("connection refused")

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "mehr", ConversationID: "c-9"})

	require.NoError(t, err)
	assert.False(t, result.FollowUp)
	assert.Equal(t, "c-9", result.ConversationID)
}

func TestResearch_NoHits(t *testing.T) {
	f := newResearchFixture(testConfig(), nil, nil)

	result, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "Italienische Pasta"})

	require.NoError(t, err)
	assert.Empty(t, result.Hits)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "No matching books found for \"Italienische Pasta\".", result.Answer)
	assert.Equal(t, []string{"no_hits"}, f.metrics.outcomes)
}

func TestResearch_EmptyQuestion(t *testing.T) {
	f := newResearchFixture(testConfig(), nil, nil)

	_, err := f.svc.Research(context.Background(), domain.ResearchRequest{Question: "   "})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.store.searchedTerms())
	assert.Empty(t, f.metrics.outcomes)
}

func TestResearch_EndConversation(t *testing.T) {
	f := newResearchFixture(testConfig(), nil, nil)
	ctx := context.Background()
	_, err := f.svc.Research(ctx, domain.ResearchRequest{Question: "CAN"})
	require.NoError(t, err)
	require.Contains(t, f.convs.contexts, "conv-1")

	require.NoError(t, f.svc.EndConversation(ctx, "conv-1"))
	assert.NotContains(t, f.convs.contexts, "conv-1")

	assert.NoError(t, f.svc.EndConversation(ctx, "unknown"))
	assert.NoError(t, f.svc.EndConversation(ctx, ""))
}
