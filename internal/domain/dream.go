package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DreamType is the emotional category a dreamer assigns to a structured dream
type DreamType string

const (
	DreamTypeNeutral   DreamType = "neutral"
	DreamTypeGood      DreamType = "good"
	DreamTypeNightmare DreamType = "nightmare"
	DreamTypeSurreal   DreamType = "surreal"
	DreamTypeLucid     DreamType = "lucid"
	DreamTypeProphetic DreamType = "prophetic"
)

// Valid reports whether t is empty or one of the known dream types
func (t DreamType) Valid() bool {
	switch t {
	case "", DreamTypeNeutral, DreamTypeGood, DreamTypeNightmare,
		DreamTypeSurreal, DreamTypeLucid, DreamTypeProphetic:
		return true
	}
	return false
}

// Dream is a single journal entry.
//
// A dream carries either the lexical fields (Title, Description, Tags) or the
// structured fields (Keywords onward). A dream with any keyword is structured.
type Dream struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`

	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	Keywords           []string  `json:"keywords,omitempty"`
	FullDescription    string    `json:"fullDescription,omitempty"`
	Places             []string  `json:"places,omitempty"`
	Names              []string  `json:"names,omitempty"`
	Animals            []string  `json:"animals,omitempty"`
	DreamType          DreamType `json:"dreamType,omitempty"`
	IsRecurring        bool      `json:"isRecurring,omitempty"`
	RecurringFrequency string    `json:"recurringFrequency,omitempty"`
	TimeOfWaking       string    `json:"timeOfWaking,omitempty"`
}

// IsStructured reports whether the dream carries the keyword-based fields
func (d Dream) IsStructured() bool {
	return len(d.Keywords) > 0
}

// ValidateIdentity checks the fields every stored dream must carry
func (d Dream) ValidateIdentity() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDream)
	}
	if d.UserID == "" {
		return fmt.Errorf("%w: dream %s has no owner", ErrInvalidDream, d.ID)
	}
	if d.CreatedAt.IsZero() {
		return fmt.Errorf("%w: dream %s has no creation time", ErrInvalidDream, d.ID)
	}
	if !d.DreamType.Valid() {
		return fmt.Errorf("%w: dream %s has unknown type %q", ErrInvalidDream, d.ID, d.DreamType)
	}
	return nil
}

// NormalizeKeywords lowercases and trims keywords, dropping empties and duplicates.
// Order of first occurrence is kept.
func NormalizeKeywords(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// DreamRepository defines data access for dreams
type DreamRepository interface {
	Save(ctx context.Context, dream *Dream) error
	GetByID(ctx context.Context, id string) (*Dream, error)
	List(ctx context.Context) ([]*Dream, error)
	ListByUser(ctx context.Context, userID string) ([]*Dream, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
