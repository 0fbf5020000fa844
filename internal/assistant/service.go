// Package assistant assembles the tier-gated, tokenized prompt for a user's
// question, calls the language model and rehydrates its answer.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"finsight/internal/assistant/metrics"
	"finsight/internal/finance/models"
	mcmodels "finsight/internal/marketcontext/models"
	"finsight/internal/privacy/anonymize"
	"finsight/internal/privacy/rehydrate"
	"finsight/internal/privacy/tokenize"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
	"finsight/pkg/platform/audit"
	"finsight/pkg/platform/sentinel"
	"finsight/pkg/requestcontext"
)

// DataSource reads a user's financial records.
type DataSource interface {
	Snapshot(ctx context.Context, userID string, limit int) (*models.Snapshot, error)
	Profile(ctx context.Context, userID string) (*models.Profile, error)
}

// MarketContext returns the cached market summary for a tier.
type MarketContext interface {
	GetSummary(ctx context.Context, t tier.Tier, demo bool) (string, error)
}

// Searcher runs a real-time web search.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]mcmodels.Headline, error)
}

// LLM completes a prompt. Model choice and sampling belong to the implementation.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Sessions owns the per-session token registries.
type Sessions interface {
	ForSession(sessionID string) *tokenize.Registry
	End(sessionID string) bool
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Question is one user turn.
type Question struct {
	Text string
	Demo bool
}

// Answer is the rehydrated reply with the tier facts the client renders.
type Answer struct {
	Text               string
	Tier               tier.Tier
	AvailableSources   []tier.Source
	UnavailableSources []tier.Source
	UpgradeHints       []tier.UpgradeHint
	UsedRealtimeSearch bool
}

// Service answers questions.
type Service struct {
	data     DataSource
	demoData DataSource
	market   MarketContext
	search   Searcher
	demoSrch Searcher
	llm      LLM
	sessions Sessions

	searchResults int
	sourceTimeout time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
	auditor AuditPublisher
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithMarketContext enables the market summary section for Standard and above.
func WithMarketContext(m MarketContext) Option {
	return func(s *Service) { s.market = m }
}

// WithSearch enables real-time search for Premium. demo answers demo-mode questions.
func WithSearch(live, demo Searcher) Option {
	return func(s *Service) {
		s.search = live
		s.demoSrch = demo
	}
}

// WithDemoData sets the dataset served when a question has the demo flag.
func WithDemoData(d DataSource) Option {
	return func(s *Service) { s.demoData = d }
}

func WithSearchResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.searchResults = n
		}
	}
}

// WithSourceTimeout bounds each context fetch. The model call is not bounded by it.
func WithSourceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sourceTimeout = d
		}
	}
}

// New constructs the assistant.
func New(data DataSource, llm LLM, sessions Sessions, opts ...Option) (*Service, error) {
	if data == nil {
		return nil, errors.New("financial data source is required")
	}
	if llm == nil {
		return nil, errors.New("language model client is required")
	}
	if sessions == nil {
		return nil, errors.New("session registries are required")
	}
	s := &Service{
		data:          data,
		llm:           llm,
		sessions:      sessions,
		searchResults: 5,
		sourceTimeout: 10 * time.Second,
		logger:        slog.Default(),
		tracer:        otel.Tracer("finsight/assistant"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// gathered is everything fetched for one question.
type gathered struct {
	snapshot models.Snapshot
	profile  *models.Profile
	market   string
	search   []mcmodels.Headline
	masked   string
}

// Ask answers a question for the authenticated session in ctx.
func (s *Service) Ask(ctx context.Context, q Question) (*Answer, error) {
	userID := requestcontext.UserID(ctx)
	sessionID := requestcontext.SessionID(ctx)
	if sessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session required")
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "question is required")
	}

	def := tier.Define(tier.Parse(requestcontext.Tier(ctx)))
	ctx, span := s.tracer.Start(ctx, "assistant.ask", trace.WithAttributes(
		attribute.String("tier", string(def.Tier)),
		attribute.Bool("demo", q.Demo),
	))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObservePipeline(time.Since(start)) }()

	registry := s.sessions.ForSession(sessionID)
	formatter := anonymize.New(registry)

	got, err := s.gather(ctx, userID, text, q.Demo, def, formatter)
	if err != nil {
		span.SetStatus(codes.Error, "context assembly failed")
		span.RecordError(err)
		s.metrics.IncrementQuestion(string(def.Tier), "data_error")
		return nil, err
	}

	tc := tier.BuildTierAwareContext(def.Tier, got.snapshot.Accounts, got.snapshot.Transactions, q.Demo)
	usedSearch := len(got.search) > 0

	accounts := formatter.Accounts(tc.Accounts)
	transactions := formatter.Transactions(tc.Transactions)
	var investments, liabilities string
	if def.Allows(tier.SourceInvestments) {
		investments = formatter.Investments(got.snapshot.Holdings)
	}
	if def.Allows(tier.SourceLiabilities) {
		liabilities = formatter.Liabilities(got.snapshot.Liabilities)
	}

	var p promptBuilder
	p.section(SectionProfile, formatProfile(got.profile, registry))
	p.section(SectionAccounts, accounts)
	p.section(SectionTransactions, transactions)
	p.section(SectionInvestments, investments)
	p.section(SectionLiabilities, liabilities)
	p.section(SectionMarket, got.market)
	p.section(SectionSearch, formatSearchResults(got.search))
	p.section(SectionTier, formatTier(tc.Info))
	// masked again: formatting above may have registered names the question mentions
	p.section(SectionQuestion, anonymize.MaskText(registry, text))
	s.metrics.ObserveRegistrySize(registry.Len())

	raw, err := s.llm.Complete(ctx, SystemPrompt, p.String())
	if err != nil {
		s.logger.ErrorContext(ctx, "language model call failed",
			"request_id", requestcontext.RequestID(ctx),
			"tier", def.Tier,
			"error", err,
		)
		span.SetStatus(codes.Error, "model call failed")
		s.metrics.IncrementQuestion(string(def.Tier), "llm_error")
		return nil, dErrors.New(dErrors.CodeInternal, "unable to process your request")
	}

	answer := &Answer{
		Text:               rehydrate.New(registry).ConvertResponse(raw),
		Tier:               def.Tier,
		AvailableSources:   tc.Info.AvailableSources,
		UnavailableSources: tc.Info.UnavailableSources,
		UpgradeHints:       tier.ComputeUpgradeHints(def.Tier, usedSearch),
		UsedRealtimeSearch: usedSearch,
	}
	s.metrics.IncrementQuestion(string(def.Tier), "ok")
	s.emit(ctx, audit.EventQuestionAnswered, map[string]string{
		"tier":     string(def.Tier),
		"demo":     strconv.FormatBool(q.Demo),
		"realtime": strconv.FormatBool(usedSearch),
	})
	return answer, nil
}

// gather runs the context fetches concurrently. Financial data is the only
// required source. The search query is masked with every entity formatted from
// that data, so search runs after it on the same goroutine.
func (s *Service) gather(ctx context.Context, userID, question string, demo bool, def tier.Definition, formatter *anonymize.Formatter) (*gathered, error) {
	data := s.data
	if demo && s.demoData != nil {
		data = s.demoData
	}
	searcher := s.search
	if demo {
		searcher = s.demoSrch
	}
	requestID := requestcontext.RequestID(ctx)
	got := &gathered{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, s.sourceTimeout)
		defer cancel()
		snap, err := data.Snapshot(fctx, userID, def.TransactionLimit)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			snap = &models.Snapshot{}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "financial data unavailable")
		}
		got.snapshot = *snap

		// registers every entity name before the question is masked
		formatter.Accounts(snap.Accounts)
		formatter.Transactions(snap.Transactions)
		if def.Allows(tier.SourceInvestments) {
			formatter.Investments(snap.Holdings)
		}
		if def.Allows(tier.SourceLiabilities) {
			formatter.Liabilities(snap.Liabilities)
		}
		got.masked = anonymize.MaskText(formatter.Registry(), question)

		if searcher == nil || !def.Allows(tier.SourceLiveMarketData) {
			return nil
		}
		sctx, cancel := context.WithTimeout(gctx, s.sourceTimeout)
		defer cancel()
		results, err := searcher.Search(sctx, got.masked, s.searchResults)
		if err != nil {
			s.logger.WarnContext(ctx, "real-time search failed, continuing without it",
				"request_id", requestID, "error", err)
			s.metrics.IncrementSectionOmitted("search")
			return nil
		}
		got.search = results
		return nil
	})
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, s.sourceTimeout)
		defer cancel()
		profile, err := data.Profile(fctx, userID)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				s.logger.WarnContext(ctx, "profile unavailable, continuing without it",
					"request_id", requestID, "error", err)
				s.metrics.IncrementSectionOmitted("profile")
			}
			return nil
		}
		got.profile = profile
		return nil
	})
	if s.market != nil && def.Allows(tier.SourceEconomicIndicators) {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, s.sourceTimeout)
			defer cancel()
			summary, err := s.market.GetSummary(fctx, def.Tier, demo)
			if err != nil {
				s.logger.WarnContext(ctx, "market context unavailable, continuing without it",
					"request_id", requestID, "tier", def.Tier, "error", err)
				s.metrics.IncrementSectionOmitted("market")
				return nil
			}
			got.market = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to load financial data",
			"request_id", requestID, "error", err)
		return nil, err
	}
	return got, nil
}

// EndSession clears the caller's token registry. It is the logout hook and is
// safe to call for a session that never asked anything.
func (s *Service) EndSession(ctx context.Context) (bool, error) {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID == "" {
		return false, dErrors.New(dErrors.CodeUnauthorized, "session required")
	}
	ended := s.sessions.End(sessionID)
	if ended {
		s.metrics.IncrementSessionEnded()
	}
	s.logger.InfoContext(ctx, "session registry cleared",
		"request_id", requestcontext.RequestID(ctx), "had_registry", ended)
	s.emit(ctx, audit.EventSessionEnded, map[string]string{"had_registry": strconv.FormatBool(ended)})
	return ended, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, meta map[string]string) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(action)
	event.UserID = requestcontext.UserID(ctx)
	event.SessionID = requestcontext.SessionID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Metadata = meta
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
