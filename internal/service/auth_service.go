package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/security/audit"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
)

const minPasswordLength = 8

// AuthService handles registration, login and account removal
type AuthService struct {
	userRepo  domain.UserRepository
	dreamRepo domain.DreamRepository
	tokens    *auth.TokenManager
	audit     *audit.Logger
	logger    *slog.Logger
	now       func() time.Time
	onDelete  func(userID string)
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	dreamRepo domain.DreamRepository,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo:  userRepo,
		dreamRepo: dreamRepo,
		tokens:    tokens,
		audit:     audit.NewLogger(logger),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// OnAccountDeleted registers a hook run after an account is removed (cache eviction)
func (s *AuthService) OnAccountDeleted(fn func(userID string)) {
	s.onDelete = fn
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
	TokenType string `json:"tokenType"`
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.audit.LogAction(ctx, user.ID, "register", "account", user.ID, "success", "")
	return s.issue(user)
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to look up user", slog.String("error", err.Error()))
		}
		s.logger.Info("login attempt with unknown username", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

// VerifyToken validates a bearer token
func (s *AuthService) VerifyToken(token string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(token)
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	s.logger.Info("user changed password", slog.String("user_id", userID))
	return nil
}

// DeleteAccount removes the user and their dreams. Matches referencing them are kept.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	removed, err := s.dreamRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete dreams: %w", err)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if s.onDelete != nil {
		s.onDelete(userID)
	}

	s.logger.Info("account deleted", slog.String("user_id", userID), slog.Int("dreams_removed", removed))
	s.audit.LogAccountDeleted(ctx, userID, removed)
	return nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}
	return &AuthResult{
		UserID:    user.ID,
		Username:  user.Username,
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
		TokenType: "Bearer",
	}, nil
}
