package matching

import (
	"strings"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

const (
	weightTags        = 0.5
	weightTitle       = 0.2
	weightDescription = 0.3
)

// ScoreLexical compares two title/description/tag dreams.
// Tags use Jaccard overlap; title and description use normalized edit distance
// on the lowercased text. The result is not clamped.
func ScoreLexical(a, b domain.Dream) SimilarityResult {
	tagScore, shared := jaccard(a.Tags, b.Tags)
	titleScore := Similarity(strings.ToLower(a.Title), strings.ToLower(b.Title))
	descScore := Similarity(strings.ToLower(a.Description), strings.ToLower(b.Description))

	breakdown := map[Dimension]float64{
		DimensionTags:        tagScore * weightTags * 100,
		DimensionTitle:       titleScore * weightTitle * 100,
		DimensionDescription: descScore * weightDescription * 100,
	}
	total := 0.0
	for _, dim := range lexicalOrder {
		total += breakdown[dim]
	}

	return SimilarityResult{
		Strategy:     Lexical,
		Score:        roundTenth(total),
		Breakdown:    breakdown,
		TotalOverlap: overlapping(breakdown),
		MatchCounts:  map[Dimension]int{DimensionTags: shared},
	}
}

// jaccard returns |a∩b| / |a∪b| over lowercased tag sets, and the shared count.
// Two empty sets score 0.
func jaccard(a, b []string) (float64, int) {
	setA := tagSet(a)
	setB := tagSet(b)
	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0, 0
	}
	return float64(shared) / float64(union), shared
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
