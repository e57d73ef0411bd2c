package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DreamInput is a dream as submitted by a client. Either keywords (structured)
// or title and description (lexical) must be present.
type DreamInput struct {
	IsPublic *bool `json:"isPublic,omitempty"` // defaults to true

	Title       string   `json:"title,omitempty" validate:"max=200"`
	Description string   `json:"description,omitempty" validate:"max=10000"`
	Tags        []string `json:"tags,omitempty" validate:"max=32,dive,max=64"`

	Keywords           []string `json:"keywords,omitempty" validate:"max=32,dive,max=64"`
	FullDescription    string   `json:"fullDescription,omitempty" validate:"max=20000"`
	Places             []string `json:"places,omitempty" validate:"max=32,dive,max=128"`
	Names              []string `json:"names,omitempty" validate:"max=32,dive,max=128"`
	Animals            []string `json:"animals,omitempty" validate:"max=32,dive,max=128"`
	DreamType          string   `json:"dreamType,omitempty" validate:"omitempty,oneof=neutral good nightmare surreal lucid prophetic"`
	IsRecurring        bool     `json:"isRecurring,omitempty"`
	RecurringFrequency string   `json:"recurringFrequency,omitempty" validate:"max=64"`
	TimeOfWaking       string   `json:"timeOfWaking,omitempty" validate:"omitempty,datetime=15:04"`
}

// toDream validates the input and builds a normalized dream
func (in DreamInput) toDream(id, userID string, createdAt time.Time) (*domain.Dream, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	d := &domain.Dream{
		ID:                 id,
		UserID:             userID,
		IsPublic:           in.IsPublic == nil || *in.IsPublic,
		CreatedAt:          createdAt,
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		Tags:               trimAll(in.Tags),
		Keywords:           domain.NormalizeKeywords(in.Keywords),
		FullDescription:    strings.TrimSpace(in.FullDescription),
		Places:             trimAll(in.Places),
		Names:              trimAll(in.Names),
		Animals:            trimAll(in.Animals),
		DreamType:          domain.DreamType(in.DreamType),
		IsRecurring:        in.IsRecurring,
		RecurringFrequency: strings.TrimSpace(in.RecurringFrequency),
		TimeOfWaking:       in.TimeOfWaking,
	}
	if !d.IsRecurring {
		d.RecurringFrequency = ""
	}

	if !d.IsStructured() && (d.Title == "" || d.Description == "") {
		return nil, fmt.Errorf("%w: a dream needs keywords, or a title and a description", ErrInvalidInput)
	}
	return d, nil
}

// trimAll trims entries and drops empty ones
func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
