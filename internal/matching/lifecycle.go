package matching

import (
	"fmt"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

// transitions is the documented status table. Terminal states list nothing.
var transitions = map[domain.MatchStatus][]domain.MatchStatus{
	domain.MatchStatusPending:  {domain.MatchStatusAccepted, domain.MatchStatusRejected},
	domain.MatchStatusAccepted: nil,
	domain.MatchStatusRejected: nil,
}

// AllowedTransitions returns the statuses reachable from status
func AllowedTransitions(status domain.MatchStatus) []domain.MatchStatus {
	return append([]domain.MatchStatus(nil), transitions[status]...)
}

// CanTransition reports whether the table defines from -> to
func CanTransition(from, to domain.MatchStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition replaces m's status. Only the status field changes.
//
// Leaving a terminal state is outside the table but is not refused here;
// callers that expose decisions only for pending matches never attempt it.
func Transition(m *domain.Match, to domain.MatchStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMatchStatus, to)
	}
	m.Status = to
	return nil
}

// SetStatus finds the match with id in matches and transitions it in place
func SetStatus(matches []domain.Match, id string, to domain.MatchStatus) error {
	for i := range matches {
		if matches[i].ID == id {
			return Transition(&matches[i], to)
		}
	}
	return fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
}
