package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammatch_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dreammatch_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	dreamsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammatch_dreams_submitted_total",
		Help: "Dreams submitted, by scoring strategy",
	}, []string{"strategy"})

	matchesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammatch_matches_generated_total",
		Help: "Matches created by the generator, by scoring strategy",
	}, []string{"strategy"})

	matchGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dreammatch_match_generation_duration_seconds",
		Help:    "Time spent scoring a new dream against the corpus",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"strategy"})

	corpusSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dreammatch_corpus_size",
		Help:    "Number of dreams considered per submission",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	corpusRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dreammatch_corpus_rejected_total",
		Help: "Stored dreams skipped because they lack identity fields",
	})

	matchDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammatch_match_decisions_total",
		Help: "Match status changes made by owners",
	}, []string{"status"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammatch_notifications_total",
		Help: "Match notifications by delivery result",
	}, []string{"result"})

	storedDreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dreammatch_dreams_stored",
		Help: "Dreams currently stored",
	})

	storedMatches = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dreammatch_matches_stored",
		Help: "Matches currently stored, by status",
	}, []string{"status"})

	storedUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dreammatch_users_stored",
		Help: "Registered users",
	})

	wsSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dreammatch_notification_subscribers",
		Help: "Open match notification streams",
	})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dreammatch_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveSubmission records one dream submission and the matches it produced
func ObserveSubmission(strategy string, corpus, matches int, duration time.Duration) {
	dreamsSubmitted.WithLabelValues(strategy).Inc()
	matchesGenerated.WithLabelValues(strategy).Add(float64(matches))
	matchGenerationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	corpusSize.Observe(float64(corpus))
}

// ObserveCorpusRejected counts stored dreams excluded from matching
func ObserveCorpusRejected(n int) {
	if n > 0 {
		corpusRejected.Add(float64(n))
	}
}

// ObserveMatchDecision counts an accept or reject
func ObserveMatchDecision(status string) {
	matchDecisions.WithLabelValues(status).Inc()
}

// ObserveNotification counts a notification delivery attempt
func ObserveNotification(result string) {
	notificationsSent.WithLabelValues(result).Inc()
}

// SetStoredDreams sets the stored dream gauge.
func SetStoredDreams(count int) {
	if count < 0 {
		count = 0
	}
	storedDreams.Set(float64(count))
}

// SetStoredMatches sets the stored match gauge for each status
func SetStoredMatches(byStatus map[string]int) {
	for status, count := range byStatus {
		storedMatches.WithLabelValues(status).Set(float64(count))
	}
}

// SetStoredUsers sets the registered user gauge
func SetStoredUsers(count int) {
	storedUsers.Set(float64(max(count, 0)))
}

// IncSubscribers and DecSubscribers track open notification streams
func IncSubscribers() { wsSubscribers.Inc() }

func DecSubscribers() { wsSubscribers.Dec() }

// SetBreakerState publishes a breaker's state as 0, 1 or 2
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
