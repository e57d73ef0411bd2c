package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	st := newStores(t)
	s := NewAuthService(st.users, st.dreams, newTokens(), nil)
	ctx := context.Background()

	r, err := s.Register(ctx, "  alice ", "Password123")
	require.NoError(t, err)
	assert.NotEmpty(t, r.UserID)
	assert.NotEmpty(t, r.Token)
	assert.Equal(t, "alice", r.Username)
	assert.Equal(t, "Bearer", r.TokenType)
	assert.Equal(t, int(time.Hour.Seconds()), r.ExpiresIn)

	claims, err := s.VerifyToken(r.Token)
	require.NoError(t, err)
	assert.Equal(t, r.UserID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	l, err := s.Login(ctx, "alice", "Password123")
	require.NoError(t, err)
	assert.Equal(t, r.UserID, l.UserID)

	u, err := st.users.GetByID(ctx, r.UserID)
	require.NoError(t, err)
	assert.False(t, u.LastLogin.IsZero())
	assert.NotEqual(t, "Password123", u.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	st := newStores(t)
	s := NewAuthService(st.users, st.dreams, newTokens(), nil)
	ctx := context.Background()

	_, err := s.Register(ctx, "", "Password123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Register(ctx, "bob", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	st := newStores(t)
	s := NewAuthService(st.users, st.dreams, newTokens(), nil)
	ctx := context.Background()

	_, err := s.Register(ctx, "Carol", "Password123")
	require.NoError(t, err)

	_, err = s.Register(ctx, "carol", "Password456")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	st := newStores(t)
	s := NewAuthService(st.users, st.dreams, newTokens(), nil)
	ctx := context.Background()

	_, err := s.Register(ctx, "dave", "Password123")
	require.NoError(t, err)

	_, err = s.Login(ctx, "dave", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody", "Password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	st := newStores(t)
	s := NewAuthService(st.users, st.dreams, newTokens(), nil)
	ctx := context.Background()

	r, err := s.Register(ctx, "erin", "Password123")
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, r.UserID, "wrong-old", "NewPassword1"), ErrInvalidCredentials)
	assert.ErrorIs(t, s.ChangePassword(ctx, r.UserID, "Password123", "short"), ErrInvalidInput)
	require.NoError(t, s.ChangePassword(ctx, r.UserID, "Password123", "NewPassword1"))

	_, err = s.Login(ctx, "erin", "Password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "erin", "NewPassword1")
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	st := newStores(t)
	s := NewAuthService(st.users, st.dreams, newTokens(), nil)
	ctx := context.Background()

	var evicted string
	s.OnAccountDeleted(func(userID string) { evicted = userID })

	r, err := s.Register(ctx, "frank", "Password123")
	require.NoError(t, err)
	require.NoError(t, st.dreams.Save(ctx, &domain.Dream{
		ID:        "d1",
		UserID:    r.UserID,
		IsPublic:  true,
		CreatedAt: time.Now().UTC(),
		Keywords:  []string{"falling"},
	}))

	require.NoError(t, s.DeleteAccount(ctx, r.UserID))
	assert.Equal(t, r.UserID, evicted)

	_, err = st.users.GetByID(ctx, r.UserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.dreams.GetByID(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Login(ctx, "frank", "Password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// the name is free again
	_, err = s.Register(ctx, "frank", "Password123")
	assert.NoError(t, err)
}
