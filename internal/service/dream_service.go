package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/featureflags"
	"github.com/aryan0dhankhar/dreammatch/internal/matching"
	"github.com/aryan0dhankhar/dreammatch/internal/observability/metrics"
	"github.com/aryan0dhankhar/dreammatch/internal/observability/tracing"
	"github.com/aryan0dhankhar/dreammatch/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/dreammatch/internal/reliability/retry"
	"github.com/aryan0dhankhar/dreammatch/internal/security/audit"
	"github.com/aryan0dhankhar/dreammatch/pkg/cache"
)

// deletedUsername stands in for accounts that no longer exist
const deletedUsername = "deleted user"

// Notifier pushes match events to connected clients
type Notifier interface {
	PublishMatches(matches []domain.Match)
	PublishUpdate(m domain.Match)
}

// DreamService runs dream submission, matching and match decisions
type DreamService struct {
	dreams    domain.DreamRepository
	matches   domain.MatchRepository
	users     domain.UserRepository
	generator *matching.Generator

	notifier  Notifier
	flags     *featureflags.Flags
	breaker   *circuitbreaker.Breaker
	retry     *retry.Config
	userCache *cache.Cache[*domain.User]
	cacheTTL  time.Duration
	audit     *audit.Logger
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// DreamOption configures a DreamService
type DreamOption func(*DreamService)

// WithNotifier publishes new and updated matches while flags has match notifications on
func WithNotifier(n Notifier, flags *featureflags.Flags) DreamOption {
	return func(s *DreamService) {
		s.notifier = n
		s.flags = flags
	}
}

// WithBreaker replaces the corpus store breaker
func WithBreaker(b *circuitbreaker.Breaker) DreamOption {
	return func(s *DreamService) { s.breaker = b }
}

// WithRetry replaces the corpus load retry policy
func WithRetry(cfg *retry.Config) DreamOption {
	return func(s *DreamService) { s.retry = cfg }
}

// WithUserCache shares a username lookup cache
func WithUserCache(c *cache.Cache[*domain.User], ttl time.Duration) DreamOption {
	return func(s *DreamService) {
		s.userCache = c
		s.cacheTTL = ttl
	}
}

// WithDreamClock overrides the dream creation time source
func WithDreamClock(fn func() time.Time) DreamOption {
	return func(s *DreamService) { s.now = fn }
}

// WithDreamIDs overrides dream id generation
func WithDreamIDs(fn func() string) DreamOption {
	return func(s *DreamService) { s.newID = fn }
}

// NewDreamService creates a new dream service
func NewDreamService(
	dreams domain.DreamRepository,
	matches domain.MatchRepository,
	users domain.UserRepository,
	generator *matching.Generator,
	logger *slog.Logger,
	opts ...DreamOption,
) *DreamService {
	if logger == nil {
		logger = slog.Default()
	}
	if generator == nil {
		generator = matching.NewGenerator()
	}

	s := &DreamService{
		dreams:    dreams,
		matches:   matches,
		users:     users,
		generator: generator,
		audit:     audit.NewLogger(logger),
		tracer:    tracing.Tracer(),
		logger:    logger,
		userCache: cache.New[*domain.User](),
		cacheTTL:  5 * time.Minute,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		settings := circuitbreaker.DefaultSettings("dream-store")
		settings.OnStateChange = func(name string, _, to circuitbreaker.State) {
			metrics.SetBreakerState(name, int(to))
		}
		s.breaker = circuitbreaker.New(settings, logger)
	}
	if s.retry == nil {
		s.retry = retry.DefaultConfig()
		s.retry.Retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}
	return s
}

// Submission is the outcome of SubmitDream
type Submission struct {
	Dream    *domain.Dream     `json:"dream"`
	Matches  []domain.Match    `json:"matches"`
	Strategy matching.Strategy `json:"strategy"`
}

// SubmitDream matches a new dream against the stored corpus, then stores the
// dream and its matches. Nothing is kept when either step fails.
func (s *DreamService) SubmitDream(ctx context.Context, userID string, in DreamInput) (sub *Submission, err error) {
	ctx, span := s.tracer.Start(ctx, "DreamService.SubmitDream", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if userID == "" {
		return nil, ErrForbidden
	}
	dream, err := in.toDream(s.newID(), userID, s.now())
	if err != nil {
		return nil, err
	}
	strategy := matching.StrategyFor(*dream)
	span.SetAttributes(attribute.String("dream.strategy", strategy.String()))

	corpus, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	matches := s.generator.Generate(*dream, corpus)
	metrics.ObserveSubmission(strategy.String(), len(corpus), len(matches), time.Since(start))
	span.SetAttributes(attribute.Int("corpus.size", len(corpus)), attribute.Int("match.count", len(matches)))

	if err := s.dreams.Save(ctx, dream); err != nil {
		return nil, fmt.Errorf("save dream: %w", err)
	}
	if err := s.matches.AppendAll(ctx, matches); err != nil {
		if derr := s.dreams.Delete(ctx, dream.ID); derr != nil {
			s.logger.Error("failed to roll back dream",
				slog.String("dream_id", dream.ID),
				slog.String("error", derr.Error()),
			)
		}
		return nil, fmt.Errorf("store matches: %w", err)
	}

	s.logger.Info("dream submitted",
		slog.String("dream_id", dream.ID),
		slog.String("user_id", userID),
		slog.String("strategy", strategy.String()),
		slog.Int("corpus", len(corpus)),
		slog.Int("matches", len(matches)),
	)
	s.audit.LogDreamSubmitted(ctx, userID, dream.ID, len(matches))
	if len(matches) > 0 && s.notificationsOn() {
		s.notifier.PublishMatches(matches)
	}

	if matches == nil {
		matches = []domain.Match{}
	}
	return &Submission{Dream: dream, Matches: matches, Strategy: strategy}, nil
}

// loadCorpus reads every stored dream through the breaker and retry policy,
// dropping entries that lack identity fields
func (s *DreamService) loadCorpus(ctx context.Context) ([]domain.Dream, error) {
	stored, err := circuitbreaker.Execute(s.breaker, func() ([]*domain.Dream, error) {
		return retry.Do(ctx, s.retry, s.logger, "load dream corpus", s.dreams.List)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	corpus := make([]domain.Dream, 0, len(stored))
	rejected := 0
	for _, d := range stored {
		if err := d.ValidateIdentity(); err != nil {
			rejected++
			s.logger.Warn("skipping malformed dream", slog.String("error", err.Error()))
			continue
		}
		corpus = append(corpus, *d)
	}
	metrics.ObserveCorpusRejected(rejected)
	return corpus, nil
}

// ListDreams returns the user's journal, newest first
func (s *DreamService) ListDreams(ctx context.Context, userID string) ([]*domain.Dream, error) {
	dreams, err := s.dreams.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list dreams: %w", err)
	}
	sort.Slice(dreams, func(i, j int) bool {
		if !dreams[i].CreatedAt.Equal(dreams[j].CreatedAt) {
			return dreams[i].CreatedAt.After(dreams[j].CreatedAt)
		}
		return dreams[i].ID < dreams[j].ID
	})
	return dreams, nil
}

// GetDream returns a dream the user owns or one that is public
func (s *DreamService) GetDream(ctx context.Context, userID, dreamID string) (*domain.Dream, error) {
	d, err := s.dreams.GetByID(ctx, dreamID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID && !d.IsPublic {
		return nil, fmt.Errorf("dream %s: %w", dreamID, domain.ErrNotFound)
	}
	return d, nil
}

// MatchView is a match joined with the candidate dream and the other user's name
type MatchView struct {
	domain.Match
	Dream               *domain.Dream `json:"dream,omitempty"`
	MatchedWithUsername string        `json:"matchedWithUsername"`
}

// ListMatches returns the matches the user owns, newest first
func (s *DreamService) ListMatches(ctx context.Context, userID string) ([]MatchView, error) {
	ctx, span := s.tracer.Start(ctx, "DreamService.ListMatches")
	defer span.End()

	owned, err := s.matches.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID < owned[j].ID
	})

	views := make([]MatchView, 0, len(owned))
	for _, m := range owned {
		view := MatchView{Match: *m, MatchedWithUsername: deletedUsername}

		d, err := s.dreams.GetByID(ctx, m.DreamID)
		switch {
		case err == nil:
			view.Dream = d
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("load matched dream: %w", err)
		}

		u, err := s.lookupUser(ctx, m.MatchedWithUserID)
		switch {
		case err == nil:
			view.MatchedWithUsername = u.Username
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("load matched user: %w", err)
		}

		views = append(views, view)
	}
	span.SetAttributes(attribute.Int("match.count", len(views)))
	return views, nil
}

// SetMatchStatus records the owner's decision on a match
func (s *DreamService) SetMatchStatus(ctx context.Context, userID, matchID string, status domain.MatchStatus) (*domain.Match, error) {
	if status != domain.MatchStatusAccepted && status != domain.MatchStatusRejected {
		return nil, fmt.Errorf("%w: status must be accepted or rejected", ErrInvalidInput)
	}

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != userID {
		s.audit.LogDenied(ctx, userID, "match "+matchID+" owned by another user")
		return nil, ErrForbidden
	}

	if err := matching.Transition(m, status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.matches.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save match: %w", err)
	}

	metrics.ObserveMatchDecision(string(status))
	s.audit.LogMatchDecision(ctx, userID, matchID, string(status))
	if s.notificationsOn() {
		s.notifier.PublishUpdate(*m)
	}
	return m, nil
}

// ScoreResult is an ad-hoc comparison of two dreams
type ScoreResult struct {
	matching.SimilarityResult
	Reason string `json:"reason"`
}

// Score compares two submitted dreams without storing anything.
// The strategy follows a's layout.
func (s *DreamService) Score(a, b DreamInput) (*ScoreResult, error) {
	now := s.now()
	da, err := a.toDream("a", "a", now)
	if err != nil {
		return nil, err
	}
	db, err := b.toDream("b", "b", now)
	if err != nil {
		return nil, err
	}
	res := matching.Score(*da, *db)
	return &ScoreResult{SimilarityResult: res, Reason: matching.Reason(res)}, nil
}

// ForgetUser drops cached lookups for userID
func (s *DreamService) ForgetUser(userID string) {
	s.userCache.Delete("user:" + userID)
}

func (s *DreamService) lookupUser(ctx context.Context, id string) (*domain.User, error) {
	return s.userCache.GetOrLoad("user:"+id, s.cacheTTL, func() (*domain.User, error) {
		return s.users.GetByID(ctx, id)
	})
}

func (s *DreamService) notificationsOn() bool {
	return s.notifier != nil && s.flags.Enabled(featureflags.MatchNotifications)
}
