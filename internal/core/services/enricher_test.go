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
)

func hitsFor(ids ...int64) []domain.Hit {
	out := make([]domain.Hit, len(ids))
	for i, id := range ids {
		out[i] = domain.Hit{BookID: id}
	}
	return out
}

func TestEnricher_CapsCountAndLength(t *testing.T) {
	books := busLibrary()
	books[0].Comments = strings.Repeat("Bussysteme verbinden Steuergeräte. ", 50)
	cfg := testConfig()
	cfg.MaxExcerpts = 2
	cfg.MaxExcerptChars = 80

	excerpts, err := NewEnricher(newFakeStore(books...), cfg).Enrich(context.Background(), hitsFor(1, 2, 3))

	require.NoError(t, err)
	require.Len(t, excerpts, 2)
	assert.Equal(t, int64(1), excerpts[0].BookID)
	assert.Equal(t, int64(2), excerpts[1].BookID)
	for _, ex := range excerpts {
		assert.LessOrEqual(t, utf8.RuneCountInString(ex.Text), cfg.MaxExcerptChars)
		assert.Equal(t, domain.ExcerptFromComments, ex.SourceHint)
	}
}

func TestEnricher_TitleFallbackAndSkips(t *testing.T) {
	store := newFakeStore(busLibrary()...)
	hits := []domain.Hit{
		{BookID: 99},
		{BookID: 0},
		{BookID: 5},
	}

	excerpts, err := NewEnricher(store, testConfig()).Enrich(context.Background(), hits)

	require.NoError(t, err)
	require.Len(t, excerpts, 1)
	assert.Equal(t, "CAN in Automation", excerpts[0].Text)
	assert.Equal(t, domain.ExcerptFromTitle, excerpts[0].SourceHint)
}

func TestEnricher_ISBNFromHit(t *testing.T) {
	store := newFakeStore(busLibrary()...)

	excerpts, err := NewEnricher(store, testConfig()).Enrich(context.Background(), []domain.Hit{{BookID: 2, ISBN: "1111111111"}})

	require.NoError(t, err)
	require.Len(t, excerpts, 1)
	assert.Equal(t, "1111111111", excerpts[0].ISBN)
}

func TestEnricher_ZeroExcerpts(t *testing.T) {
	cfg := testConfig()
	cfg.MaxExcerpts = 0

	excerpts, err := NewEnricher(newFakeStore(busLibrary()...), cfg).Enrich(context.Background(), hitsFor(1, 2))

	require.NoError(t, err)
	assert.Empty(t, excerpts)
}

func TestEnricher_StoreFailure(t *testing.T) {
	store := newFakeStore(busLibrary()...)
	store.fetchErr = errors.New("disk I/O error")

	_, err := NewEnricher(store, testConfig()).Enrich(context.Background(), hitsFor(1))

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "CAN Bus", 20, "CAN Bus"},
		{"word boundary", "Controller Area Network Bus", 15, "Controller Area"},
		{"no boundary in second half", "Fahrzeugbussysteme", 10, "Fahrzeugbu"},
		{"multibyte", "Überblick über Bussysteme", 9, "Überblick"},
		{"zero", "CAN", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateText(tt.in, tt.max))
		})
	}
}

func TestWindowAround(t *testing.T) {
	text := strings.Repeat("a ", 100) + "FlexRay" + strings.Repeat(" b", 100)

	window := windowAround(text, "flexray", 50)

	assert.Equal(t, 50, utf8.RuneCountInString(window))
	assert.Contains(t, window, "FlexRay")
	assert.Equal(t, text, windowAround(text, "MOST", 50))
	assert.Equal(t, "short", windowAround("short", "x", 50))
}
