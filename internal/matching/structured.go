package matching

import (
	"strings"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

// Structured dimension weights. They sum to 100.
const (
	weightKeywords  = 40.0
	weightNarrative = 30.0
	weightPlaces    = 10.0
	weightAnimals   = 7.0
	weightNames     = 5.0
	bonusDreamType  = 4.0
	bonusRecurring  = 4.0
)

// ScoreStructured compares two keyword-based dreams across seven weighted dimensions.
// Keywords are expected to be normalized already and are compared exactly.
func ScoreStructured(a, b domain.Dream) SimilarityResult {
	breakdown := make(map[Dimension]float64, 7)
	counts := make(map[Dimension]int, 4)

	keywordMatches := countShared(a.Keywords, b.Keywords)
	counts[DimensionKeywords] = keywordMatches
	breakdown[DimensionKeywords] = 0
	if n := max(len(a.Keywords), len(b.Keywords)); n > 0 {
		breakdown[DimensionKeywords] = float64(keywordMatches) / float64(n) * weightKeywords
	}

	hits := narrativeHits(a.Keywords, b.FullDescription) + narrativeHits(b.Keywords, a.FullDescription)
	counts[DimensionNarrative] = hits
	breakdown[DimensionNarrative] = 0
	if n := len(a.Keywords) + len(b.Keywords); n > 0 {
		breakdown[DimensionNarrative] = float64(hits) / float64(n) * weightNarrative
	}

	breakdown[DimensionPlaces], counts[DimensionPlaces] = listOverlap(a.Places, b.Places, weightPlaces)
	breakdown[DimensionAnimals], counts[DimensionAnimals] = listOverlap(a.Animals, b.Animals, weightAnimals)
	breakdown[DimensionNames], counts[DimensionNames] = listOverlap(a.Names, b.Names, weightNames)

	breakdown[DimensionDreamType] = 0
	if a.DreamType != "" && a.DreamType == b.DreamType {
		breakdown[DimensionDreamType] = bonusDreamType
	}
	breakdown[DimensionRecurring] = 0
	if a.IsRecurring && b.IsRecurring {
		breakdown[DimensionRecurring] = bonusRecurring
	}

	total := 0.0
	for _, dim := range structuredOrder {
		total += breakdown[dim]
	}

	return SimilarityResult{
		Strategy:     Structured,
		Score:        roundTenth(total),
		Breakdown:    breakdown,
		TotalOverlap: overlapping(breakdown),
		MatchCounts:  counts,
	}
}

// structuredOrder fixes summation order so repeated calls produce identical floats
var structuredOrder = []Dimension{
	DimensionKeywords,
	DimensionNarrative,
	DimensionPlaces,
	DimensionAnimals,
	DimensionNames,
	DimensionDreamType,
	DimensionRecurring,
}

// countShared counts entries of a that also appear in b
func countShared(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range a {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

// narrativeHits counts keywords that occur as substrings of text, ignoring case
func narrativeHits(keywords []string, text string) int {
	text = strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// listOverlap scores two free-form lists by trimmed, case-insensitive equality
func listOverlap(a, b []string, weight float64) (float64, int) {
	na, nb := foldAll(a), foldAll(b)
	matches := countShared(na, nb)
	return float64(matches) / float64(max(len(na), len(nb), 1)) * weight, matches
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
