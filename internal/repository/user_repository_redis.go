package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/redis"
)

// RedisUserRepository implements domain.UserRepository using Redis.
// username:{lower} holds the id and doubles as the uniqueness lock.
type RedisUserRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisUserRepository creates a new user repository
func NewRedisUserRepository(redisClient *redis.Client, logger *slog.Logger) *RedisUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisUserRepository{redis: redisClient, logger: logger}
}

// Create stores a new user, assigning an id when missing
func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	claimed, err := r.redis.SetNX(ctx, usernameKey(user.Username), user.ID)
	if err != nil {
		return fmt.Errorf("failed to reserve username: %w", err)
	}
	if !claimed {
		return domain.ErrUsernameTaken
	}

	if err := r.write(ctx, user, true); err != nil {
		if delErr := r.redis.Delete(ctx, usernameKey(user.Username)); delErr != nil {
			r.logger.Error("failed to release username",
				slog.String("username", user.Username),
				slog.String("error", delErr.Error()),
			)
		}
		return err
	}

	r.logger.Debug("user created", slog.String("user_id", user.ID))
	return nil
}

// GetByID retrieves a user by ID
func (r *RedisUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	data, err := r.redis.Get(ctx, userKey(id))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username, ignoring case
func (r *RedisUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	id, err := r.redis.Get(ctx, usernameKey(username))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update overwrites the stored user. Usernames cannot change.
func (r *RedisUserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.write(ctx, user, false)
}

// Delete removes the user and frees the username
func (r *RedisUserRepository) Delete(ctx context.Context, id string) error {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = r.redis.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, userKey(id), usernameKey(user.Username))
		pipe.SRem(ctx, usersSetKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	r.logger.Debug("user deleted", slog.String("user_id", id))
	return nil
}

// Count returns the number of registered users
func (r *RedisUserRepository) Count(ctx context.Context) (int, error) {
	n, err := r.redis.SCard(ctx, usersSetKey)
	return int(n), err
}

func (r *RedisUserRepository) write(ctx context.Context, user *domain.User, index bool) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	err = r.redis.Tx(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKey(user.ID), string(data), 0)
		if index {
			pipe.SAdd(ctx, usersSetKey, user.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}
