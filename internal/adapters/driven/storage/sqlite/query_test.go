package sqlite

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseBooleanQuery(t *testing.T) {
	tests := []struct {
		input string
		want  [][]string
	}{
		{"fahrzeug AND bussysteme", [][]string{{"fahrzeug", "bussysteme"}}},
		{"fahrzeug AND bussysteme OR ethernet", [][]string{{"fahrzeug", "bussysteme"}, {"ethernet"}}},
		{"fahrzeug bussysteme", [][]string{{"fahrzeug", "bussysteme"}}},
		{"CAN or LIN or FlexRay", [][]string{{"CAN"}, {"LIN"}, {"FlexRay"}}},
		{"a, b; c", [][]string{{"a", "b", "c"}}},
		{"OR a", [][]string{{"a"}}},
		{"a OR", [][]string{{"a"}}},
		{"a OR AND b", [][]string{{"a", "b"}}},
		{"", nil},
		{"  AND  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseBooleanQuery(tt.input)); diff != "" {
				t.Errorf("parseBooleanQuery(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere([][]string{{"CAN", "LIN"}, {"50%"}})

	assert.Equal(t, 1, strings.Count(where, " AND "))
	assert.Equal(t, 1, strings.Count(where, ") OR ("))
	assert.Equal(t, 9, strings.Count(where, "LIKE lower(?)"))
	assert.Len(t, args, 9)
	assert.Equal(t, "%CAN%", args[0])
	assert.Equal(t, `%50\%%`, args[6])
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "978365812345X", normalizeISBN("978-3-658-12345-x"))
	assert.Equal(t, "9783834809070", normalizeISBN(" ISBN 978 3834 80907 0 "))
	assert.Empty(t, normalizeISBN("n/a"))
}

func TestBuildSnippet(t *testing.T) {
	long := strings.Repeat("a", 300) + " LIN-Bus " + strings.Repeat("b", 300)

	t.Run("window around first occurrence", func(t *testing.T) {
		s := buildSnippet(long, []string{"lin"}, 200)
		assert.Contains(t, s, "LIN-Bus")
		assert.LessOrEqual(t, len([]rune(s)), 200)
	})

	t.Run("earliest of several needles", func(t *testing.T) {
		s := buildSnippet("x CAN y "+strings.Repeat("z", 400)+" LIN", []string{"LIN", "CAN"}, 20)
		assert.True(t, strings.HasPrefix(s, "x CAN"))
	})

	t.Run("head when not found", func(t *testing.T) {
		s := buildSnippet(long, []string{"ethernet"}, 50)
		assert.Equal(t, strings.Repeat("a", 50), s)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, buildSnippet("  ", []string{"x"}, 10))
	})

	t.Run("multibyte safe", func(t *testing.T) {
		s := buildSnippet(strings.Repeat("ä", 100)+"Öl", []string{"öl"}, 10)
		assert.Contains(t, s, "Öl")
	})
}
