package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"finsight/internal/assistant"
	assistanthandler "finsight/internal/assistant/handler"
	"finsight/internal/assistant/llm"
	assistantmetrics "finsight/internal/assistant/metrics"
	financestore "finsight/internal/finance/store"
	jwttoken "finsight/internal/jwt_token"
	"finsight/internal/marketcontext"
	mchandler "finsight/internal/marketcontext/handler"
	mcmetrics "finsight/internal/marketcontext/metrics"
	"finsight/internal/marketcontext/providers"
	mcstore "finsight/internal/marketcontext/store"
	"finsight/internal/platform/config"
	"finsight/internal/platform/httpserver"
	"finsight/internal/platform/kafka"
	"finsight/internal/platform/logger"
	"finsight/internal/platform/metrics"
	"finsight/internal/platform/postgres"
	"finsight/internal/platform/redis"
	"finsight/internal/privacy/tokenize"
	httptransport "finsight/internal/transport/http"
	"finsight/pkg/platform/audit/kafkasink"
	"finsight/pkg/platform/audit/publisher"
	auditmemory "finsight/pkg/platform/audit/store/memory"
	auditpostgres "finsight/pkg/platform/audit/store/postgres"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	ctx := context.Background()

	var health []httptransport.HealthCheck

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		health = append(health, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		health = append(health, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka, log)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	auditPublisher := buildAudit(ctx, cfg, db, producer, log)
	if producer != nil {
		defer producer.Close()
		health = append(health, httptransport.HealthCheck{Name: "kafka", Check: producer.Health})
	}
	defer auditPublisher.Close()

	cache, err := buildMarketContext(cfg, rdb, auditPublisher, log)
	if err != nil {
		log.Error("failed to build market context cache", "error", err)
		os.Exit(1)
	}
	refresher, err := marketcontext.NewRefresher(cache, cfg.MarketContext.RefreshSchedule, cfg.MarketContext.WarmDemo, log)
	if err != nil {
		log.Error("invalid market context refresh schedule", "error", err)
		os.Exit(1)
	}

	svc, err := buildAssistant(cfg, db, cache, auditPublisher, log)
	if err != nil {
		log.Error("failed to build assistant", "error", err)
		os.Exit(1)
	}

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    metrics.New(),
		Validator:  jwttoken.NewJWTServiceAdapter(jwt),
		AdminToken: cfg.Auth.AdminToken,
		Assistant:  assistanthandler.New(svc, log),
		Admin:      mchandler.New(cache, log),
		Health:     health,
	})
	if cfg.Auth.AdminToken == "" {
		log.Warn("ADMIN_API_TOKEN not set; admin endpoints reject every request")
	}

	srv := httpserver.New(cfg.Server.Addr, router)

	if err := refresher.Start(ctx); err != nil {
		log.Error("failed to start market context refresher", "error", err)
		os.Exit(1)
	}

	log.Info("starting finsight", "addr", cfg.Server.Addr, "environment", cfg.Server.Environment)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	refresher.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("finsight stopped")
}

func buildAudit(ctx context.Context, cfg config.Config, db *sql.DB, producer *kafka.Producer, log *slog.Logger) *publisher.Publisher {
	var store publisher.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		if _, err := db.ExecContext(ctx, auditpostgres.Schema); err != nil {
			log.Warn("failed to prepare audit schema; audit events stay in memory", "error", err)
		} else {
			store = auditpostgres.New(db)
		}
	}
	if producer != nil {
		if err := producer.EnsureTopic(ctx, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			log.Warn("failed to ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		store = publisher.Tee(store, kafkasink.New(producer, cfg.Kafka.AuditTopic))
	}
	return publisher.NewPublisher(store, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
}

func buildMarketContext(cfg config.Config, rdb *redis.Client, auditor marketcontext.AuditPublisher, log *slog.Logger) (*marketcontext.Service, error) {
	mc := cfg.MarketContext
	var store marketcontext.Store = mcstore.NewInMemoryStore(mc.StaleRetention)
	if rdb != nil {
		store = mcstore.NewRedisStore(rdb.Client, cfg.Redis.KeyPrefix, mc.StaleRetention)
	}
	if cfg.Upstreams.FREDAPIKey == "" {
		log.Warn("FRED_API_KEY not set; live economic indicators will be unavailable")
	}
	live := marketcontext.Sources{
		Economic: providers.NewFREDClient(cfg.Upstreams.FREDBaseURL, cfg.Upstreams.FREDAPIKey),
		Market:   providers.NewSearchClient(cfg.Upstreams.SearchURL, cfg.Upstreams.SearchAPIKey),
	}
	return marketcontext.New(store, live,
		marketcontext.WithLogger(log),
		marketcontext.WithMetrics(mcmetrics.New()),
		marketcontext.WithAuditPublisher(auditor),
		marketcontext.WithDemoSources(marketcontext.Sources{
			Economic: providers.DemoEconomicSource{},
			Market:   providers.DemoMarketSource{},
		}),
		marketcontext.WithTTLs(mc.SummaryTTL, mc.EconomicTTL, mc.LiveTTL),
		marketcontext.WithBreaker(mc.BreakerThreshold, mc.BreakerCooldown),
		marketcontext.WithUpstreamTimeout(mc.UpstreamTimeout),
	)
}

func buildAssistant(cfg config.Config, db *sql.DB, cache assistant.MarketContext, auditor assistant.AuditPublisher, log *slog.Logger) (*assistant.Service, error) {
	var data assistant.DataSource = financestore.NewInMemoryStore()
	if db != nil {
		data = financestore.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set; only demo financial data is available")
	}

	var model assistant.LLM = llm.Unconfigured{}
	if cfg.LLM.AnthropicAPIKey != "" {
		model = llm.NewAnthropic(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	} else {
		log.Warn("ANTHROPIC_API_KEY not set; questions will fail with a processing error")
	}

	var liveSearch assistant.Searcher
	if cfg.Upstreams.SearchAPIKey != "" {
		liveSearch = providers.NewSearchClient(cfg.Upstreams.SearchURL, cfg.Upstreams.SearchAPIKey)
	}

	m := assistantmetrics.New()
	sessions := tokenize.NewSessions(tokenize.WithActiveObserver(m.SetActiveSessions))
	return assistant.New(data, model, sessions,
		assistant.WithLogger(log),
		assistant.WithMetrics(m),
		assistant.WithAuditPublisher(auditor),
		assistant.WithMarketContext(cache),
		assistant.WithSearch(liveSearch, providers.DemoMarketSource{}),
		assistant.WithDemoData(financestore.NewDemoStore()),
		assistant.WithSearchResults(cfg.Upstreams.SearchMaxResults),
		assistant.WithSourceTimeout(cfg.MarketContext.UpstreamTimeout),
	)
}
