package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/redis"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := redis.NewClient("redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func sampleDream(id, userID string) *domain.Dream {
	return &domain.Dream{
		ID:              id,
		UserID:          userID,
		IsPublic:        true,
		CreatedAt:       time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		Keywords:        []string{"flying", "water"},
		FullDescription: "I was flying over water",
		DreamType:       domain.DreamTypeLucid,
	}
}

func TestDreamRepository_SaveAndGet(t *testing.T) {
	client, mr := newRedis(t)
	repo := NewDreamRepository(client, nil)
	ctx := context.Background()

	d := sampleDream("d1", "u1")
	require.NoError(t, repo.Save(ctx, d))

	got, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	assert.True(t, mr.Exists("dream:d1"))
	members, err := mr.SMembers("user:u1:dreams")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, members)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDreamRepository_ListAndDeleteByUser(t *testing.T) {
	client, _ := newRedis(t)
	repo := NewDreamRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleDream("a1", "alice")))
	require.NoError(t, repo.Save(ctx, sampleDream("a2", "alice")))
	require.NoError(t, repo.Save(ctx, sampleDream("b1", "bob")))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	n, err := repo.DeleteByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b1", all[0].ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err = repo.DeleteByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDreamRepository_Delete(t *testing.T) {
	client, mr := newRedis(t)
	repo := NewDreamRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleDream("a1", "alice")))
	require.NoError(t, repo.Save(ctx, sampleDream("a2", "alice")))
	require.NoError(t, repo.Delete(ctx, "a1"))

	assert.False(t, mr.Exists("dream:a1"))
	mine, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a2", mine[0].ID)
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, repo.Delete(ctx, "a1"), domain.ErrNotFound)
}

func TestDreamRepository_SkipsDanglingAndCorrupt(t *testing.T) {
	client, mr := newRedis(t)
	repo := NewDreamRepository(client, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleDream("ok", "u1")))
	_, err := mr.SAdd("dreams", "gone", "bad")
	require.NoError(t, err)
	require.NoError(t, mr.Set("dream:bad", "{not json"))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ok", all[0].ID)
}

func TestMatchRepository(t *testing.T) {
	client, _ := newRedis(t)
	repo := NewMatchRepository(client, nil)
	ctx := context.Background()

	matches := []domain.Match{
		{ID: "m1", DreamID: "d2", OwnerID: "alice", MatchedWithUserID: "bob", Score: 27.5, Status: domain.MatchStatusPending},
		{ID: "m2", DreamID: "d3", OwnerID: "alice", MatchedWithUserID: "carol", Score: 40, Status: domain.MatchStatusPending},
		{ID: "m3", DreamID: "d1", OwnerID: "bob", MatchedWithUserID: "alice", Score: 12, Status: domain.MatchStatusPending},
	}
	require.NoError(t, repo.AppendAll(ctx, matches))
	require.NoError(t, repo.AppendAll(ctx, nil))

	owned, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	m, err := repo.GetByID(ctx, "m3")
	require.NoError(t, err)
	assert.Equal(t, 12.0, m.Score)

	m.Status = domain.MatchStatusAccepted
	require.NoError(t, repo.Save(ctx, m))
	m, err = repo.GetByID(ctx, "m3")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusAccepted, m.Status)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMatchRepository_ConcurrentAppends(t *testing.T) {
	client, _ := newRedis(t)
	repo := NewMatchRepository(client, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := domain.Match{ID: fmt.Sprintf("m%d", i), OwnerID: "alice", MatchedWithUserID: "bob", Status: domain.MatchStatusPending}
			assert.NoError(t, repo.AppendAll(ctx, []domain.Match{m}))
		}(i)
	}
	wg.Wait()

	owned, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, owned, 10)
}

func TestRedisUserRepository(t *testing.T) {
	client, _ := newRedis(t)
	repo := NewRedisUserRepository(client, nil)
	ctx := context.Background()

	u := &domain.User{Username: "Alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	err := repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	got, err := repo.GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice", got.Username)

	got.LastLogin = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, got.LastLogin, again.LastLogin)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrNotFound)

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "y"}), "username is free again")
}
