package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/featureflags"
	"github.com/aryan0dhankhar/dreammatch/internal/handler"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/dreammatch/internal/matching"
	"github.com/aryan0dhankhar/dreammatch/internal/notify"
	"github.com/aryan0dhankhar/dreammatch/internal/observability/metrics"
	"github.com/aryan0dhankhar/dreammatch/internal/observability/tracing"
	"github.com/aryan0dhankhar/dreammatch/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/dreammatch/internal/repository"
	"github.com/aryan0dhankhar/dreammatch/internal/security/audit"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
	"github.com/aryan0dhankhar/dreammatch/internal/security/middleware"
	"github.com/aryan0dhankhar/dreammatch/internal/security/ratelimit"
	"github.com/aryan0dhankhar/dreammatch/internal/service"
	"github.com/aryan0dhankhar/dreammatch/internal/worker"
	"github.com/aryan0dhankhar/dreammatch/pkg/cache"
	"github.com/aryan0dhankhar/dreammatch/pkg/config"
	"github.com/aryan0dhankhar/dreammatch/pkg/database"
)

// userStore is what the server needs from either user backend
type userStore interface {
	domain.UserRepository
	worker.Counter
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting DreamMatch server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Options{
		ServiceName: "dreammatch",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize Redis client
	redisClient, err := redis.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize repositories; users move to Postgres when DATABASE_URL is set
	dreamRepo := repository.NewDreamRepository(redisClient, log)
	matchRepo := repository.NewMatchRepository(redisClient, log)

	readiness := map[string]handler.Pinger{"redis": redisClient}
	var users userStore = repository.NewRedisUserRepository(redisClient, log)
	if cfg.DatabaseURL != "" {
		pool, err := database.NewConnectionPool(ctx, database.FromURL(cfg.DatabaseURL), log)
		if err != nil {
			log.Error("failed to connect to PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.EnsureSchema(ctx); err != nil {
			log.Error("failed to prepare schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		users = repository.NewPostgresUserRepository(pool.GetDB(), log)
		readiness["postgres"] = handler.PingFunc(pool.Health)
	}

	// 6. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "dreammatch", cfg.TokenTTL)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	auditLogger := audit.NewLogger(log)

	// 7. Initialize matching and services
	generator := matching.NewGenerator(
		matching.WithMinOverlap(cfg.MatchMinOverlap),
		matching.WithMinLexicalScore(cfg.MatchMinLexicalScore),
	)
	hub := notify.NewHub(32, log)

	breakerSettings := circuitbreaker.DefaultSettings("dream-store")
	breakerSettings.OnStateChange = func(name string, _, to circuitbreaker.State) {
		metrics.SetBreakerState(name, int(to))
	}
	breaker := circuitbreaker.New(breakerSettings, log)

	userCache := cache.New[*domain.User]()
	dreamService := service.NewDreamService(dreamRepo, matchRepo, users, generator, log,
		service.WithNotifier(hub, featureflags.FromEnv()),
		service.WithBreaker(breaker),
		service.WithUserCache(userCache, cfg.UserCacheTTL),
	)
	authService := service.NewAuthService(users, dreamRepo, tokenManager, log)
	authService.OnAccountDeleted(dreamService.ForgetUser)

	// 8. Setup HTTP routes
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Error("invalid trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, log),
		Dreams:         handler.NewDreamHandler(dreamService, log),
		Health:         handler.NewHealthHandler(readiness, log),
		Notifications:  handler.NewNotificationsHandler(hub, tokenManager, cfg.CORSAllowedOrigins, log),
		Tokens:         tokenManager,
		Limiter:        rateLimiter,
		Audit:          auditLogger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies: proxies,
		Logger:         log,
	})

	// 9. Start stats worker in background
	statsWorker := worker.NewStatsWorker(dreamRepo, users, matchRepo, log, cfg.StatsInterval)
	go statsWorker.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("postgres_users", cfg.DatabaseURL != ""),
		slog.Int("rate_limit", cfg.RateLimitRequests),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
		slog.Bool("match_notifications", featureflags.Enabled(featureflags.MatchNotifications)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop stats worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
