package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/observability/metrics"
	"github.com/aryan0dhankhar/dreammatch/internal/reliability/retry"
)

// Counter reports how many records a store holds
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// MatchLister lists every stored match
type MatchLister interface {
	List(ctx context.Context) ([]*domain.Match, error)
}

// Snapshot is one pass of the stats worker
type Snapshot struct {
	Dreams  int
	Users   int
	Matches map[domain.MatchStatus]int
}

// StatsWorker periodically counts stored dreams, users and matches by status
// and publishes them as gauges
type StatsWorker struct {
	dreams   Counter
	users    Counter
	matches  MatchLister
	retry    *retry.Config
	logger   *slog.Logger
	interval time.Duration
}

// NewStatsWorker creates a new stats worker. users may be nil.
func NewStatsWorker(
	dreams Counter,
	users Counter,
	matches MatchLister,
	logger *slog.Logger,
	interval time.Duration,
) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsWorker{
		dreams:   dreams,
		users:    users,
		matches:  matches,
		retry:    retry.DefaultConfig(),
		logger:   logger,
		interval: interval,
	}
}

// Start runs a pass immediately and then on every tick until ctx is done
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *StatsWorker) runOnce(ctx context.Context) {
	if _, err := w.Collect(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("failed to collect stats", slog.String("error", err.Error()))
	}
}

// Collect counts everything once and updates the gauges
func (w *StatsWorker) Collect(ctx context.Context) (*Snapshot, error) {
	dreams, err := retry.Do(ctx, w.retry, w.logger, "count dreams", w.dreams.Count)
	if err != nil {
		return nil, err
	}

	matches, err := retry.Do(ctx, w.retry, w.logger, "list matches", w.matches.List)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Dreams: dreams,
		Matches: map[domain.MatchStatus]int{
			domain.MatchStatusPending:  0,
			domain.MatchStatusAccepted: 0,
			domain.MatchStatusRejected: 0,
		},
	}
	for _, m := range matches {
		snap.Matches[m.Status]++
	}

	if w.users != nil {
		users, err := retry.Do(ctx, w.retry, w.logger, "count users", w.users.Count)
		if err != nil {
			return nil, err
		}
		snap.Users = users
		metrics.SetStoredUsers(users)
	}

	byStatus := make(map[string]int, len(snap.Matches))
	for status, n := range snap.Matches {
		byStatus[string(status)] = n
	}
	metrics.SetStoredDreams(snap.Dreams)
	metrics.SetStoredMatches(byStatus)

	w.logger.Debug("stats collected",
		slog.Int("dreams", snap.Dreams),
		slog.Int("users", snap.Users),
		slog.Int("matches", len(matches)),
	)
	return snap, nil
}
