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

// DreamRepository implements domain.DreamRepository using Redis.
// Each dream is a JSON blob indexed by the global and per-user id sets.
type DreamRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewDreamRepository creates a new dream repository
func NewDreamRepository(redisClient *redis.Client, logger *slog.Logger) *DreamRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DreamRepository{
		redis:  redisClient,
		logger: logger,
	}
}

// Save stores a dream and indexes it
func (r *DreamRepository) Save(ctx context.Context, dream *domain.Dream) error {
	data, err := json.Marshal(dream)
	if err != nil {
		return fmt.Errorf("failed to marshal dream: %w", err)
	}

	err = r.redis.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dreamKey(dream.ID), string(data), 0)
		pipe.SAdd(ctx, dreamsSetKey, dream.ID)
		pipe.SAdd(ctx, userDreamsKey(dream.UserID), dream.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store dream: %w", err)
	}

	r.logger.Debug("dream saved", slog.String("dream_id", dream.ID), slog.String("user_id", dream.UserID))
	return nil
}

// GetByID retrieves a dream by ID
func (r *DreamRepository) GetByID(ctx context.Context, id string) (*domain.Dream, error) {
	data, err := r.redis.Get(ctx, dreamKey(id))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("dream %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dream: %w", err)
	}

	var dream domain.Dream
	if err := json.Unmarshal([]byte(data), &dream); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dream: %w", err)
	}
	return &dream, nil
}

// List returns every stored dream
func (r *DreamRepository) List(ctx context.Context) ([]*domain.Dream, error) {
	return r.listSet(ctx, dreamsSetKey)
}

// ListByUser returns the dreams owned by userID
func (r *DreamRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Dream, error) {
	return r.listSet(ctx, userDreamsKey(userID))
}

// Count returns the number of stored dreams
func (r *DreamRepository) Count(ctx context.Context) (int, error) {
	n, err := r.redis.SCard(ctx, dreamsSetKey)
	return int(n), err
}

// Delete removes a single dream and its index entries
func (r *DreamRepository) Delete(ctx context.Context, id string) error {
	dream, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = r.redis.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, dreamKey(id))
		pipe.SRem(ctx, dreamsSetKey, id)
		pipe.SRem(ctx, userDreamsKey(dream.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete dream: %w", err)
	}
	r.logger.Debug("dream deleted", slog.String("dream_id", id), slog.String("user_id", dream.UserID))
	return nil
}

// DeleteByUser removes all of userID's dreams and returns how many were removed
func (r *DreamRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	ids, err := r.redis.SMembers(ctx, userDreamsKey(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to list user dreams: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	err = r.redis.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, prefixed(ids, dreamKey)...)
		pipe.SRem(ctx, dreamsSetKey, members...)
		pipe.Del(ctx, userDreamsKey(userID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user dreams: %w", err)
	}

	r.logger.Debug("dreams deleted", slog.String("user_id", userID), slog.Int("count", len(ids)))
	return len(ids), nil
}

func (r *DreamRepository) listSet(ctx context.Context, setKey string) ([]*domain.Dream, error) {
	ids, err := r.redis.SMembers(ctx, setKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list dream ids: %w", err)
	}

	values, found, err := r.redis.MGet(ctx, prefixed(ids, dreamKey)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load dreams: %w", err)
	}

	dreams := make([]*domain.Dream, 0, len(values))
	for i, data := range values {
		if !found[i] {
			r.logger.Warn("dangling dream index entry", slog.String("dream_id", ids[i]), slog.String("set", setKey))
			continue
		}
		var dream domain.Dream
		if err := json.Unmarshal([]byte(data), &dream); err != nil {
			r.logger.Error("failed to unmarshal dream",
				slog.String("dream_id", ids[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		dreams = append(dreams, &dream)
	}
	return dreams, nil
}
