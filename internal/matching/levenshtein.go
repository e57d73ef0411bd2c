package matching

import "unicode/utf8"

// Levenshtein returns the unit-cost edit distance between s and t, counted in runes.
// The DP keeps a single row sized to the shorter input.
func Levenshtein(s, t string) int {
	long, short := []rune(s), []rune(t)
	if len(long) < len(short) {
		long, short = short, long
	}
	if len(short) == 0 {
		return len(long)
	}

	row := make([]int, len(short)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(long); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(short); j++ {
			above := row[j]
			cost := 1
			if long[i-1] == short[j-1] {
				cost = 0
			}
			row[j] = min(above+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(short)]
}

// Similarity maps edit distance onto [0,1]; two empty strings are identical.
func Similarity(s, t string) float64 {
	n := max(utf8.RuneCountInString(s), utf8.RuneCountInString(t))
	if n == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(s, t))/float64(n)
}
