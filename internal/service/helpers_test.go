package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/dreammatch/internal/repository"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
)

type stores struct {
	dreams  *repository.DreamRepository
	matches *repository.MatchRepository
	users   *repository.RedisUserRepository
}

func newStores(t *testing.T) stores {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return stores{
		dreams:  repository.NewDreamRepository(client, nil),
		matches: repository.NewMatchRepository(client, nil),
		users:   repository.NewRedisUserRepository(client, nil),
	}
}

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-test-secret-test-secret", "dreammatch-test", time.Hour)
}

// sequence returns deterministic ids with the given prefix
func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// recordingNotifier captures published events
type recordingNotifier struct {
	mu      sync.Mutex
	created []domain.Match
	updated []domain.Match
}

func (n *recordingNotifier) PublishMatches(matches []domain.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, matches...)
}

func (n *recordingNotifier) PublishUpdate(m domain.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, m)
}

// failingList wraps a dream store whose List always fails
type failingList struct {
	domain.DreamRepository
	err   error
	calls int
}

func (f *failingList) List(ctx context.Context) ([]*domain.Dream, error) {
	f.calls++
	return nil, f.err
}

// failingAppend wraps a match store whose AppendAll always fails
type failingAppend struct {
	domain.MatchRepository
	err error
}

func (f *failingAppend) AppendAll(ctx context.Context, matches []domain.Match) error {
	return f.err
}
