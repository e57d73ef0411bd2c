// Package matching scores pairs of dreams and turns sufficiently similar pairs
// into pending match proposals.
//
// Everything here is pure: no I/O, no shared state, no clock access except
// through the generator's injected clock.
package matching

import (
	"fmt"
	"math"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

// Strategy selects which set of dream fields a comparison looks at
type Strategy int

const (
	// Structured compares keywords, narrative, places, animals, names, type and recurrence
	Structured Strategy = iota
	// Lexical compares tags, title and description via Jaccard and edit distance
	Lexical
)

func (s Strategy) String() string {
	switch s {
	case Structured:
		return "structured"
	case Lexical:
		return "lexical"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// MarshalText renders the strategy by name in JSON output
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StrategyFor picks the strategy matching the dream's field layout
func StrategyFor(d domain.Dream) Strategy {
	if d.IsStructured() {
		return Structured
	}
	return Lexical
}

// Score compares a against b with this strategy
func (s Strategy) Score(a, b domain.Dream) SimilarityResult {
	if s == Lexical {
		return ScoreLexical(a, b)
	}
	return ScoreStructured(a, b)
}

// Dimension names one scored aspect of a comparison
type Dimension string

const (
	DimensionKeywords  Dimension = "keywords"
	DimensionNarrative Dimension = "narrative"
	DimensionPlaces    Dimension = "places"
	DimensionAnimals   Dimension = "animals"
	DimensionNames     Dimension = "names"
	DimensionDreamType Dimension = "dreamType"
	DimensionRecurring Dimension = "recurring"

	DimensionTags        Dimension = "tags"
	DimensionTitle       Dimension = "title"
	DimensionDescription Dimension = "description"
)

var lexicalOrder = []Dimension{DimensionTags, DimensionTitle, DimensionDescription}

// Dimensions lists the breakdown keys a strategy produces, in scoring order
func Dimensions(s Strategy) []Dimension {
	if s == Lexical {
		return append([]Dimension(nil), lexicalOrder...)
	}
	return append([]Dimension(nil), structuredOrder...)
}

// SimilarityResult is the outcome of comparing two dreams.
// Breakdown values are in score points and sum to Score before rounding.
type SimilarityResult struct {
	Strategy     Strategy              `json:"strategy"`
	Score        float64               `json:"score"`
	Breakdown    map[Dimension]float64 `json:"breakdown"`
	TotalOverlap int                   `json:"totalOverlap"`
	MatchCounts  map[Dimension]int     `json:"matchCounts"`
}

// Score compares two dreams using the strategy selected by a's layout
func Score(a, b domain.Dream) SimilarityResult {
	return StrategyFor(a).Score(a, b)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// overlapping counts dimensions that contributed a positive score
func overlapping(breakdown map[Dimension]float64) int {
	n := 0
	for _, v := range breakdown {
		if v > 0 {
			n++
		}
	}
	return n
}
