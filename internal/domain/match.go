package domain

import (
	"context"
	"time"
)

// MatchStatus is the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
)

// Valid reports whether s is one of the three lifecycle states
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected:
		return true
	}
	return false
}

// Match records that a newly submitted dream resembled another user's dream.
// It is owned by the submitter; the other user never gets a mirrored record.
type Match struct {
	ID                string      `json:"id"`
	DreamID           string      `json:"dreamId"` // the candidate dream, not the submitted one
	OwnerID           string      `json:"ownerId"`
	MatchedWithUserID string      `json:"matchedWithUserId"`
	Score             float64     `json:"score"`
	Status            MatchStatus `json:"status"`
	Reason            string      `json:"reason,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// MatchRepository defines data access for matches
type MatchRepository interface {
	// AppendAll stores all matches or none of them
	AppendAll(ctx context.Context, matches []Match) error
	GetByID(ctx context.Context, id string) (*Match, error)
	Save(ctx context.Context, match *Match) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Match, error)
	List(ctx context.Context) ([]*Match, error)
}
