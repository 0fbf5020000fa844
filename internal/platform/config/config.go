package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration, built from the environment.
type Config struct {
	Server        Server
	Auth          Auth
	Redis         RedisConfig
	Postgres      PostgresConfig
	Kafka         KafkaConfig
	MarketContext MarketContextConfig
	Upstreams     UpstreamsConfig
	LLM           LLMConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// IsProduction reports whether the service runs in production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Auth holds token validation and admin settings.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	AdminToken    string
}

// RedisConfig configures the shared cache store. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the financial records reader. An empty DSN uses demo data only.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	ClientID   string
	AuditTopic string
}

// MarketContextConfig tunes the market context cache.
type MarketContextConfig struct {
	SummaryTTL       time.Duration
	EconomicTTL      time.Duration
	LiveTTL          time.Duration
	StaleRetention   time.Duration
	RefreshSchedule  string
	WarmDemo         bool
	BreakerThreshold int
	BreakerCooldown  time.Duration
	UpstreamTimeout  time.Duration
}

// UpstreamsConfig holds third-party data API settings.
type UpstreamsConfig struct {
	FREDAPIKey   string
	FREDBaseURL  string
	SearchAPIKey string
	SearchURL    string

	// SearchMaxResults caps real-time search results per question.
	SearchMaxResults int
}

// LLMConfig configures the language model client.
type LLMConfig struct {
	AnthropicAPIKey string
	Model           string
	MaxTokens       int
	Temperature     float64
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:            envOr("FINSIGHT_ADDR", ":8080"),
			Environment:     envOr("ENVIRONMENT", "development"),
			LogLevel:        envOr("LOG_LEVEL", "info"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			JWTSigningKey: jwtSigningKey,
			JWTIssuer:     envOr("JWT_ISSUER", "finsight"),
			JWTAudience:   envOr("JWT_AUDIENCE", "finsight-api"),
			AdminToken:    os.Getenv("ADMIN_API_TOKEN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			KeyPrefix:    envOr("REDIS_KEY_PREFIX", "finsight:"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			ClientID:   envOr("KAFKA_CLIENT_ID", "finsight"),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "finsight.audit"),
		},
		MarketContext: MarketContextConfig{
			SummaryTTL:       envDuration("MARKET_CONTEXT_TTL", 30*time.Minute),
			EconomicTTL:      envDuration("MARKET_CONTEXT_ECONOMIC_TTL", 6*time.Hour),
			LiveTTL:          envDuration("MARKET_CONTEXT_LIVE_TTL", 15*time.Minute),
			StaleRetention:   envDuration("MARKET_CONTEXT_STALE_RETENTION", 24*time.Hour),
			RefreshSchedule:  envOr("MARKET_CONTEXT_REFRESH_SCHEDULE", "@every 25m"),
			WarmDemo:         envBool("MARKET_CONTEXT_WARM_DEMO", true),
			BreakerThreshold: envInt("MARKET_CONTEXT_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  envDuration("MARKET_CONTEXT_BREAKER_COOLDOWN", time.Minute),
			UpstreamTimeout:  envDuration("MARKET_CONTEXT_UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Upstreams: UpstreamsConfig{
			FREDAPIKey:       os.Getenv("FRED_API_KEY"),
			FREDBaseURL:      os.Getenv("FRED_BASE_URL"),
			SearchAPIKey:     os.Getenv("SEARCH_API_KEY"),
			SearchURL:        envOr("SEARCH_API_URL", "https://api.tavily.com/search"),
			SearchMaxResults: envInt("SEARCH_MAX_RESULTS", 5),
		},
		LLM: LLMConfig{
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:           envOr("LLM_MODEL", "claude-sonnet-4-5"),
			MaxTokens:       envInt("LLM_MAX_TOKENS", 1024),
			Temperature:     envFloat("LLM_TEMPERATURE", 0.3),
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envDuration parses key with time.ParseDuration; unset or malformed values use fallback.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
