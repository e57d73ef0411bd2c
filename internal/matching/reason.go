package matching

import "fmt"

// Reason gives a short human-readable explanation of a similarity result
func Reason(res SimilarityResult) string {
	if res.Score < 10 {
		return "Low similarity"
	}
	b := res.Breakdown
	if res.Strategy == Lexical {
		if n := res.MatchCounts[DimensionTags]; n > 0 {
			return fmt.Sprintf("Shared tags (%d in common)", n)
		}
		if b[DimensionDescription] >= b[DimensionTitle] {
			return "Similar descriptions"
		}
		return "Similar titles"
	}

	if n := res.MatchCounts[DimensionKeywords]; n >= 3 {
		return fmt.Sprintf("Strong keyword match (%d shared)", n)
	}
	switch {
	case b[DimensionNarrative] > 15:
		return "Shared dream elements in narrative"
	case b[DimensionPlaces] > 5:
		return "Similar dream locations"
	case b[DimensionAnimals] > 3:
		return "Common creatures appeared"
	case b[DimensionDreamType] == bonusDreamType && b[DimensionRecurring] == bonusRecurring:
		return "Recurring dream type match"
	}
	return "Compatible dreams"
}
