package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Environment        string        `mapstructure:"ENVIRONMENT" validate:"required,oneof=development test staging production"`
	ServerPort         int           `mapstructure:"SERVER_PORT" validate:"gt=0,lt=65536"`
	RedisURL           string        `mapstructure:"REDIS_URL" validate:"required,url"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL" validate:"omitempty,url"`
	LogLevel           string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	JWTSecret          string        `mapstructure:"JWT_SECRET" validate:"required_if=Environment production"`
	TokenTTL           time.Duration `mapstructure:"TOKEN_TTL" validate:"gte=1m"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies     []string      `mapstructure:"TRUSTED_PROXIES" validate:"dive,cidr|ip"`
	RateLimitRequests  int           `mapstructure:"RATE_LIMIT_REQUESTS" validate:"gt=0"`
	RateLimitWindow    time.Duration `mapstructure:"RATE_LIMIT_WINDOW" validate:"gte=1s"`
	StatsInterval      time.Duration `mapstructure:"STATS_INTERVAL" validate:"gte=1s"`
	UserCacheTTL       time.Duration `mapstructure:"USER_CACHE_TTL" validate:"gte=0"`

	MatchMinOverlap      int     `mapstructure:"MATCH_MIN_OVERLAP" validate:"gte=1,lte=7"`
	MatchMinLexicalScore float64 `mapstructure:"MATCH_MIN_LEXICAL_SCORE" validate:"gte=0"`

	OTLPEndpoint     string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRatio float64 `mapstructure:"TRACE_SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

var defaults = map[string]any{
	"ENVIRONMENT":                 "development",
	"SERVER_PORT":                 8080,
	"REDIS_URL":                   "redis://localhost:6379",
	"DATABASE_URL":                "",
	"LOG_LEVEL":                   "info",
	"JWT_SECRET":                  "",
	"TOKEN_TTL":                   "24h",
	"CORS_ALLOWED_ORIGINS":        []string{"http://localhost:5173", "http://localhost:3000"},
	"TRUSTED_PROXIES":             []string{},
	"RATE_LIMIT_REQUESTS":         100,
	"RATE_LIMIT_WINDOW":           "1m",
	"STATS_INTERVAL":              "1m",
	"USER_CACHE_TTL":              "5m",
	"MATCH_MIN_OVERLAP":           2,
	"MATCH_MIN_LEXICAL_SCORE":     0.0,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"TRACE_SAMPLE_RATIO":          1.0,
}

const minProductionSecret = 32

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables, layered over an
// optional file named by CONFIG_FILE. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.IsProduction() && len(cfg.JWTSecret) < minProductionSecret {
		return nil, fmt.Errorf("invalid config: JWT_SECRET must be at least %d characters in production", minProductionSecret)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
