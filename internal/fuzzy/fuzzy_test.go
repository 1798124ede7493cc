package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 100},
		{"abc", "ABC", 100},
		{"abc", "abd", 66.67},
		{"", "", 100},
		{"abc", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ratio(tt.a, tt.b), "Ratio(%q, %q)", tt.a, tt.b)
	}
}

func TestPartialRatio(t *testing.T) {
	content := "Started learning guitar"

	assert.Equal(t, 100.0, PartialRatio("guitar", content))
	assert.Equal(t, 100.0, PartialRatio("GUITAR", content))
	// "gitar" against the window "uitar" is one substitution away.
	assert.Equal(t, 80.0, PartialRatio("gitar", content))
	assert.Equal(t, PartialRatio("gitar", content), PartialRatio(content, "gitar"))

	assert.Equal(t, 0.0, PartialRatio("", content))
	assert.Equal(t, 0.0, PartialRatio("guitar", ""))
	assert.Less(t, PartialRatio("zzzz", content), 20.0)
}

func TestPartialRatioShortContentIsThePattern(t *testing.T) {
	assert.Equal(t, 100.0, PartialRatio("gitar", "a"))
	assert.Equal(t, 100.0, Score("gitar", "a"))
	assert.Equal(t, 0.0, PartialRatio("gitar", "z"))
}

func TestPartialRatioUnicode(t *testing.T) {
	assert.Equal(t, 100.0, PartialRatio("ギター", "ギターを習い始めた"))
}

func TestTokenSortPartialRatio(t *testing.T) {
	assert.Equal(t, 100.0, TokenSortPartialRatio("guitar learning", "learning guitar"))
	assert.Less(t, PartialRatio("guitar learning", "learning guitar"), 100.0)
}

func TestScoreTakesBest(t *testing.T) {
	q, c := "coffee black", "prefers black coffee"
	assert.Equal(t, max(PartialRatio(q, c), TokenSortPartialRatio(q, c)), Score(q, c))
	assert.Equal(t, 100.0, Score(q, c))
}
