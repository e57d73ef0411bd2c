package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/redis"
)

// MatchRepository implements domain.MatchRepository using Redis
type MatchRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(redisClient *redis.Client, logger *slog.Logger) *MatchRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchRepository{
		redis:  redisClient,
		logger: logger,
	}
}

// AppendAll stores a batch of new matches in one MULTI/EXEC so concurrent
// submissions never lose each other's matches
func (r *MatchRepository) AppendAll(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	payloads := make([]string, len(matches))
	for i := range matches {
		data, err := json.Marshal(&matches[i])
		if err != nil {
			return fmt.Errorf("failed to marshal match: %w", err)
		}
		payloads[i] = string(data)
	}

	err := r.redis.Tx(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range matches {
			pipe.Set(ctx, matchKey(m.ID), payloads[i], 0)
			pipe.SAdd(ctx, matchesSetKey, m.ID)
			pipe.SAdd(ctx, userMatchesKey(m.OwnerID), m.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store matches: %w", err)
	}

	r.logger.Debug("matches appended", slog.Int("count", len(matches)))
	return nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	data, err := r.redis.Get(ctx, matchKey(id))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	var m domain.Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return &m, nil
}

// Save overwrites an existing match (status changes)
func (r *MatchRepository) Save(ctx context.Context, m *domain.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}
	if err := r.redis.Set(ctx, matchKey(m.ID), string(data), 0); err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}
	r.logger.Debug("match saved", slog.String("match_id", m.ID), slog.String("status", string(m.Status)))
	return nil
}

// ListByOwner returns the matches owned by ownerID
func (r *MatchRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Match, error) {
	return r.listSet(ctx, userMatchesKey(ownerID))
}

// List returns all stored matches
func (r *MatchRepository) List(ctx context.Context) ([]*domain.Match, error) {
	return r.listSet(ctx, matchesSetKey)
}

func (r *MatchRepository) listSet(ctx context.Context, setKey string) ([]*domain.Match, error) {
	ids, err := r.redis.SMembers(ctx, setKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list match ids: %w", err)
	}

	values, found, err := r.redis.MGet(ctx, prefixed(ids, matchKey)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	matches := make([]*domain.Match, 0, len(values))
	for i, data := range values {
		if !found[i] {
			continue
		}
		var m domain.Match
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			r.logger.Error("failed to unmarshal match",
				slog.String("match_id", ids[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		matches = append(matches, &m)
	}
	return matches, nil
}
