package matching

import (
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

// DefaultMinOverlap is the number of positively scored dimensions a structured
// comparison needs before it becomes a match
const DefaultMinOverlap = 2

// Generator turns a newly submitted dream into pending matches against a corpus
type Generator struct {
	minOverlap      int
	minLexicalScore float64
	newID           func() string
	now             func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithMinOverlap sets the structured evidence gate; values below 1 keep the default
func WithMinOverlap(n int) Option {
	return func(g *Generator) {
		if n >= 1 {
			g.minOverlap = n
		}
	}
}

// WithMinLexicalScore requires lexical matches to reach score (in addition to being positive)
func WithMinLexicalScore(score float64) Option {
	return func(g *Generator) {
		g.minLexicalScore = score
	}
}

// WithIDFunc overrides match id generation
func WithIDFunc(fn func() string) Option {
	return func(g *Generator) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// WithClock overrides the creation timestamp source
func WithClock(fn func() time.Time) Option {
	return func(g *Generator) {
		if fn != nil {
			g.now = fn
		}
	}
}

// NewGenerator creates a generator with the default acceptance policy
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		minOverlap: DefaultMinOverlap,
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Eligible reports whether candidate may be matched against newDream:
// public, owned by someone else, and not the same dream.
func Eligible(newDream, candidate domain.Dream) bool {
	return candidate.ID != newDream.ID &&
		candidate.UserID != newDream.UserID &&
		candidate.IsPublic
}

// Accepts applies the acceptance policy to a similarity result. Every strategy
// needs evidence from at least minOverlap dimensions; lexical results must also
// reach minLexicalScore.
func (g *Generator) Accepts(res SimilarityResult) bool {
	if res.Score <= 0 || res.TotalOverlap < g.minOverlap {
		return false
	}
	if res.Strategy == Lexical {
		return res.Score >= g.minLexicalScore
	}
	return true
}

// Generate scores newDream against every eligible corpus entry and returns one
// pending match per accepted candidate, in corpus order.
//
// Matches are owned by newDream's author only. Nothing is generated for the
// candidates' owners, and earlier matches are not consulted, so submitting the
// same dream twice yields duplicate matches.
func (g *Generator) Generate(newDream domain.Dream, corpus []domain.Dream) []domain.Match {
	strategy := StrategyFor(newDream)
	createdAt := g.now()

	var matches []domain.Match
	for _, candidate := range corpus {
		if !Eligible(newDream, candidate) {
			continue
		}
		res := strategy.Score(newDream, candidate)
		if !g.Accepts(res) {
			continue
		}
		matches = append(matches, domain.Match{
			ID:                g.newID(),
			DreamID:           candidate.ID,
			OwnerID:           newDream.UserID,
			MatchedWithUserID: candidate.UserID,
			Score:             res.Score,
			Status:            domain.MatchStatusPending,
			Reason:            Reason(res),
			CreatedAt:         createdAt,
		})
	}
	return matches
}
