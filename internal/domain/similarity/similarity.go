// Package similarity scores how alike two free-text fields are.
//
// Scores are integers in [0,100]:
//   - 0 when either side is empty
//   - 100 for a case-insensitive exact match
//   - 80 when one side contains the other
//   - otherwise the normalized Levenshtein similarity, floored
//
// Example usage:
//
//	similarity.Score("Netflix", "netflix")         // 100
//	similarity.Score("Spotify Premium", "Spotify") // 80
package similarity

import "strings"

// Score constants returned by the shortcut rules
const (
	ExactScore    = 100
	ContainsScore = 80
	MinScore      = 0
)

// Normalize lowercases and trims s. All comparisons run on normalized text.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Score returns the similarity of a and b.
func Score(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return MinScore
	}
	if na == nb {
		return ExactScore
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return ContainsScore
	}

	ra, rb := []rune(na), []rune(nb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	score := 100 * (maxLen - Levenshtein(ra, rb)) / maxLen
	if score < MinScore {
		return MinScore
	}
	return score
}

// Equal reports a case-insensitive exact match of two non-empty strings.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}

// Contains reports whether either normalized string contains the other,
// requiring both to be at least minLen runes long.
func Contains(a, b string, minLen int) bool {
	na, nb := Normalize(a), Normalize(b)
	if len([]rune(na)) < minLen || len([]rune(nb)) < minLen {
		return false
	}
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// Levenshtein returns the edit distance between a and b using two rolling rows.
func Levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
