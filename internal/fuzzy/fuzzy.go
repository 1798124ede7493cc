// Package fuzzy scores approximate text matches on a 0-100 scale.
//
// PartialRatio aligns the shorter string against every window of the
// same length in the longer one and keeps the best normalized edit
// similarity, so a short query matches a long memory that contains a
// slightly misspelled or reworded form of it.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio is the normalized Levenshtein similarity of a and b.
func Ratio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 100
	}
	return round(similarity(a, b, max(la, lb)))
}

// PartialRatio is the best Ratio between the shorter string and any
// equally long substring of the longer one. Empty input scores 0.
// Either argument can end up as the pattern: a one-letter content
// scores 100 against every query containing that letter.
func PartialRatio(a, b string) float64 {
	short, long := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	if len(short) > len(long) {
		short, long = long, short
	}
	n := len(short)
	if n == 0 {
		return 0
	}

	s := string(short)
	best := 0.0
	for start := 0; start+n <= len(long); start++ {
		score := similarity(s, string(long[start:start+n]), n)
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return round(best)
}

// TokenSortPartialRatio is PartialRatio over the words of a and b sorted
// alphabetically, which makes it insensitive to word order.
func TokenSortPartialRatio(a, b string) float64 {
	return PartialRatio(sortTokens(a), sortTokens(b))
}

// Score is the similarity used for memory search.
func Score(query, content string) float64 {
	return max(PartialRatio(query, content), TokenSortPartialRatio(query, content))
}

func similarity(a, b string, n int) float64 {
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(n))
}

func sortTokens(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func round(x float64) float64 {
	return math.Round(x*100) / 100
}
