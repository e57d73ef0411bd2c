// Package circuitbreaker wraps sony/gobreaker with the settings and
// observability hooks used around store calls.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned without calling the protected function while the breaker is open
var ErrOpen = errors.New("circuit breaker open")

// State mirrors gobreaker's states for callers that should not import it
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// Settings configure a breaker
type Settings struct {
	Name             string
	FailureThreshold uint32        // consecutive failures that trip the breaker
	HalfOpenRequests uint32        // probes allowed while half-open
	OpenTimeout      time.Duration // time spent open before probing
	OnStateChange    func(name string, from, to State)
}

// DefaultSettings returns the settings used for the corpus store
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		FailureThreshold: 5,
		HalfOpenRequests: 1,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker provides fast-fail behavior when a dependency fails repeatedly
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker; state changes are logged and forwarded to OnStateChange
func New(s Settings, log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if s.OnStateChange != nil {
				s.OnStateChange(name, fromGobreaker(from), fromGobreaker(to))
			}
		},
	})
	return &Breaker{cb: cb}
}

// State returns the current state
func (b *Breaker) State() State {
	return fromGobreaker(b.cb.State())
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.cb.Name()
}

// Execute runs fn through the breaker. ErrOpen is returned when the breaker
// refuses the call.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, ErrOpen
	}
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	}
	return StateClosed
}
