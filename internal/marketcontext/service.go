// Package marketcontext caches tier-specific macro-economic and live market
// summaries. Rebuilds are coalesced per key, served stale when upstreams fail and
// evicted by substring pattern.
package marketcontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"finsight/internal/marketcontext/metrics"
	"finsight/internal/marketcontext/models"
	"finsight/internal/marketcontext/providers"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
	"finsight/pkg/platform/audit"
	"finsight/pkg/platform/circuit"
	"finsight/pkg/platform/sentinel"
	"finsight/pkg/requestcontext"
)

// Store persists cache entries. Get returns sentinel.ErrNotFound for missing keys
// and keeps returning expired entries until the store's own retention lapses.
type Store interface {
	Get(ctx context.Context, key string) (*models.Entry, error)
	Put(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}

// EconomicSource fetches macro-economic indicators.
type EconomicSource interface {
	FetchIndicators(ctx context.Context) ([]models.Indicator, error)
}

// MarketSource fetches live market headlines.
type MarketSource interface {
	FetchHeadlines(ctx context.Context) ([]models.Headline, error)
}

// AuditPublisher emits audit events for admin actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Sources is one set of upstreams: live or demo.
type Sources struct {
	Economic EconomicSource
	Market   MarketSource
}

// Service is the market context cache.
type Service struct {
	store Store
	live  Sources
	demo  Sources

	summaryTTL  time.Duration
	economicTTL time.Duration
	liveTTL     time.Duration

	summaries  singleflight.Group
	components singleflight.Group

	// writeMu orders generation checks with the writes and deletes they guard.
	writeMu     sync.Mutex
	generations map[string]uint64
	lastRefresh time.Time

	breakers         map[string]*circuit.Breaker
	breakerThreshold int
	breakerCooldown  time.Duration
	upstreamTimeout  time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
	auditor AuditPublisher
	tracer  trace.Tracer
	now     func() time.Time
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

// WithDemoSources replaces the built-in deterministic demo sources.
func WithDemoSources(src Sources) Option {
	return func(s *Service) { s.demo = src }
}

// WithTTLs sets the summary and component TTLs. Non-positive values keep defaults.
func WithTTLs(summary, economic, live time.Duration) Option {
	return func(s *Service) {
		if summary > 0 {
			s.summaryTTL = summary
		}
		if economic > 0 {
			s.economicTTL = economic
		}
		if live > 0 {
			s.liveTTL = live
		}
	}
}

// WithBreaker configures the per-upstream circuit breakers.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *Service) {
		s.breakerThreshold = threshold
		s.breakerCooldown = cooldown
	}
}

// WithUpstreamTimeout bounds each upstream fetch.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) { s.upstreamTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the cache over store with live upstream sources.
func New(store Store, live Sources, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("market context store is required")
	}
	s := &Service{
		store:            store,
		live:             live,
		demo:             Sources{Economic: providers.DemoEconomicSource{}, Market: providers.DemoMarketSource{}},
		summaryTTL:       30 * time.Minute,
		economicTTL:      6 * time.Hour,
		liveTTL:          15 * time.Minute,
		generations:      make(map[string]uint64),
		breakerThreshold: 5,
		breakerCooldown:  time.Minute,
		logger:           slog.Default(),
		tracer:           otel.Tracer("finsight/marketcontext"),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.breakers = make(map[string]*circuit.Breaker)
	for _, base := range []string{models.EconomicIndicatorsKey, models.LiveMarketDataKey} {
		for _, demo := range []bool{false, true} {
			key := models.ComponentKey(base, demo)
			s.breakers[key] = circuit.New(key,
				circuit.WithFailureThreshold(s.breakerThreshold),
				circuit.WithCooldown(s.breakerCooldown),
				circuit.WithClock(func() time.Time { return s.now() }),
			)
		}
	}
	return s, nil
}

// componentsFor lists the component caches a tier's summary is composed from.
func componentsFor(t tier.Tier) []string {
	def := tier.Define(t)
	var out []string
	if def.Allows(tier.SourceEconomicIndicators) {
		out = append(out, models.EconomicIndicatorsKey)
	}
	if def.Allows(tier.SourceLiveMarketData) {
		out = append(out, models.LiveMarketDataKey)
	}
	return out
}

// GetSummary returns the market context text for a tier. A fresh cached
// summary is returned as-is; otherwise one coalesced rebuild runs per key.
// Starter has no market sources and always gets "".
func (s *Service) GetSummary(ctx context.Context, t tier.Tier, demo bool) (string, error) {
	t = tier.Parse(string(t))
	if len(componentsFor(t)) == 0 {
		return "", nil
	}
	key := models.SummaryKey(string(t), demo)

	entry, err := s.store.Get(ctx, key)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "market context store read failed", "key", key, "error", err)
	}
	if err == nil && entry.Fresh(s.now()) {
		s.metrics.IncrementLookup(string(t), true)
		return entry.Text, nil
	}
	s.metrics.IncrementLookup(string(t), false)
	res, err := s.rebuild(ctx, t, demo, false)
	if err != nil {
		return "", err
	}
	return res.text, nil
}

// Refresh rebuilds a tier summary, re-fetching its components regardless of TTL.
func (s *Service) Refresh(ctx context.Context, t tier.Tier, demo bool) (string, error) {
	t = tier.Parse(string(t))
	if len(componentsFor(t)) == 0 {
		return "", nil
	}
	key := models.SummaryKey(string(t), demo)
	res, err := s.rebuild(ctx, t, demo, true)
	if err != nil {
		return "", err
	}
	if res.stale {
		s.logger.WarnContext(ctx, "market context refresh fell back to stale data", "key", key)
		return "", dErrors.New(dErrors.CodeUnavailable, "market context refresh failed; previous summary is still served")
	}
	s.emit(ctx, audit.EventMarketContextRefreshed, key, nil)
	return res.text, nil
}

// rebuildResult is a composed summary. stale is set when an upstream failed
// and older data was used in its place.
type rebuildResult struct {
	text  string
	stale bool
}

// rebuild attaches to the in-flight rebuild for the key or starts one. The
// rebuild itself is not cancelled with the caller's context, since other
// callers may be waiting on it.
func (s *Service) rebuild(ctx context.Context, t tier.Tier, demo, force bool) (rebuildResult, error) {
	key := models.SummaryKey(string(t), demo)
	detached := context.WithoutCancel(ctx)
	ch := s.summaries.DoChan(key, func() (any, error) {
		return s.build(detached, t, demo, force)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return rebuildResult{}, res.Err
		}
		return res.Val.(rebuildResult), nil
	case <-ctx.Done():
		return rebuildResult{}, ctx.Err()
	}
}

func (s *Service) build(ctx context.Context, t tier.Tier, demo, force bool) (rebuildResult, error) {
	key := models.SummaryKey(string(t), demo)
	ctx, span := s.tracer.Start(ctx, "marketcontext.rebuild", trace.WithAttributes(
		attribute.String("cache.key", key),
		attribute.Bool("cache.force", force),
	))
	defer span.End()

	start := s.now()
	gen := s.generation(key)
	if !force {
		// a flight that finished just before this one may already have stored it
		if cur, err := s.store.Get(ctx, key); err == nil && cur.Fresh(start) {
			return rebuildResult{text: cur.Text}, nil
		}
	}
	comps := componentsFor(t)
	results := make([]componentResult, len(comps))

	var g errgroup.Group
	for i, base := range comps {
		g.Go(func() error {
			results[i] = s.component(ctx, base, demo, force)
			return nil
		})
	}
	_ = g.Wait()

	var (
		sections []string
		failed   error
		stale    bool
	)
	composed := make(map[string]time.Time, len(comps))
	expires := start.Add(s.summaryTTL)
	for _, r := range results {
		if r.err != nil {
			failed = errors.Join(failed, r.err)
			continue
		}
		stale = stale || r.stale
		composed[r.entry.Key] = r.entry.RefreshedAt
		if r.entry.ExpiresAt.Before(expires) {
			expires = r.entry.ExpiresAt
		}
		if r.entry.Text != "" {
			sections = append(sections, r.entry.Text)
		}
	}

	if failed != nil {
		span.RecordError(failed)
		prev, err := s.store.Get(ctx, key)
		if err == nil && prev != nil {
			s.logger.WarnContext(ctx, "market context rebuild failed, serving stale summary",
				"key", key, "error", failed, "stale_since", prev.ExpiresAt)
			s.metrics.IncrementStaleServed(key)
			s.metrics.ObserveRebuild(string(t), "stale", s.now().Sub(start))
			return rebuildResult{text: prev.Text, stale: true}, nil
		}
		span.SetStatus(codes.Error, "no cached summary")
		s.logger.ErrorContext(ctx, "market context rebuild failed with no cached summary", "key", key, "error", failed)
		s.metrics.ObserveRebuild(string(t), "error", s.now().Sub(start))
		return rebuildResult{}, dErrors.Wrap(failed, dErrors.CodeUnavailable, "market context unavailable")
	}

	// a summary built from stale components is served but immediately due for a rebuild
	if stale && expires.After(start) {
		expires = start
	}
	entry := &models.Entry{
		Key:          key,
		Kind:         models.KindSummary,
		Text:         strings.Join(sections, "\n\n"),
		ComposedFrom: composed,
		RefreshedAt:  start,
		ExpiresAt:    expires,
	}
	stored, err := s.putIfCurrent(ctx, entry, gen)
	if err != nil {
		s.logger.WarnContext(ctx, "market context store write failed", "key", key, "error", err)
	}
	outcome := "ok"
	if !stored && err == nil {
		outcome = "discarded"
		s.logger.InfoContext(ctx, "market context rebuild discarded after invalidation", "key", key)
	}
	if stored {
		s.writeMu.Lock()
		s.lastRefresh = start
		s.writeMu.Unlock()
	}
	s.metrics.ObserveRebuild(string(t), outcome, s.now().Sub(start))
	s.logger.InfoContext(ctx, "market context rebuilt",
		"key", key, "components", len(composed), "stale_components", stale, "expires_at", expires)
	return rebuildResult{text: entry.Text, stale: stale}, nil
}

type componentResult struct {
	entry *models.Entry
	stale bool
	err   error
}

// component returns the cached component text, fetching it when expired or forced.
// Fetches for one component key are coalesced across tiers.
func (s *Service) component(ctx context.Context, base string, demo, force bool) componentResult {
	key := models.ComponentKey(base, demo)
	cached, err := s.store.Get(ctx, key)
	if err != nil {
		cached = nil
	}
	if !force && cached.Fresh(s.now()) {
		return componentResult{entry: cached}
	}

	v, err, _ := s.components.Do(key, func() (any, error) {
		return s.fetchComponent(ctx, base, demo)
	})
	if err != nil {
		s.metrics.IncrementUpstreamFailure(key)
		if cached != nil {
			s.logger.WarnContext(ctx, "upstream fetch failed, using stale component", "key", key, "error", err)
			s.metrics.IncrementStaleServed(key)
			return componentResult{entry: cached, stale: true}
		}
		return componentResult{err: fmt.Errorf("%s: %w", key, err)}
	}
	return componentResult{entry: v.(*models.Entry)}
}

func (s *Service) fetchComponent(ctx context.Context, base string, demo bool) (*models.Entry, error) {
	key := models.ComponentKey(base, demo)
	breaker := s.breakers[key]
	if breaker != nil && !breaker.Allow() {
		return nil, fmt.Errorf("circuit open: %w", sentinel.ErrUnavailable)
	}
	gen := s.generation(key)
	src := s.live
	if demo {
		src = s.demo
	}

	fetchCtx := ctx
	if s.upstreamTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
	}

	start := s.now()
	var (
		text string
		ttl  time.Duration
		err  error
	)
	switch base {
	case models.EconomicIndicatorsKey:
		ttl = s.economicTTL
		if src.Economic == nil {
			err = fmt.Errorf("no economic source: %w", sentinel.ErrUnavailable)
			break
		}
		var indicators []models.Indicator
		if indicators, err = src.Economic.FetchIndicators(fetchCtx); err == nil {
			text = FormatIndicators(indicators, start)
		}
	case models.LiveMarketDataKey:
		ttl = s.liveTTL
		if src.Market == nil {
			err = fmt.Errorf("no market source: %w", sentinel.ErrUnavailable)
			break
		}
		var headlines []models.Headline
		if headlines, err = src.Market.FetchHeadlines(fetchCtx); err == nil {
			text = FormatHeadlines(headlines)
		}
	default:
		err = fmt.Errorf("unknown component %q", base)
	}

	if err != nil {
		if breaker != nil {
			_, change := breaker.RecordFailure()
			if change.Opened {
				s.logger.WarnContext(ctx, "upstream circuit opened", "component", key)
				s.metrics.SetBreakerOpen(key, true)
			}
		}
		return nil, err
	}
	if breaker != nil {
		_, change := breaker.RecordSuccess()
		if change.Closed {
			s.logger.InfoContext(ctx, "upstream circuit closed", "component", key)
			s.metrics.SetBreakerOpen(key, false)
		}
	}

	entry := &models.Entry{
		Key:         key,
		Kind:        models.KindComponent,
		Text:        text,
		RefreshedAt: start,
		ExpiresAt:   start.Add(ttl),
	}
	if _, err := s.putIfCurrent(ctx, entry, gen); err != nil {
		s.logger.WarnContext(ctx, "market context store write failed", "key", key, "error", err)
	}
	return entry, nil
}

func (s *Service) generation(key string) uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.generations[key]
}

// putIfCurrent stores entry only if its key has not been invalidated since gen was read.
func (s *Service) putIfCurrent(ctx context.Context, entry *models.Entry, gen uint64) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.generations[entry.Key] != gen {
		return false, nil
	}
	if err := s.store.Put(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

// knownKeys lists every key the cache can produce.
func knownKeys() []string {
	var keys []string
	for _, demo := range []bool{false, true} {
		keys = append(keys,
			models.ComponentKey(models.EconomicIndicatorsKey, demo),
			models.ComponentKey(models.LiveMarketDataKey, demo),
		)
		for _, t := range tier.All() {
			if len(componentsFor(t)) > 0 {
				keys = append(keys, models.SummaryKey(string(t), demo))
			}
		}
	}
	return keys
}

// dependents returns the summary keys composed from a component key.
func dependents(componentKey string) []string {
	demo := strings.HasSuffix(componentKey, ":demo")
	base := strings.TrimSuffix(componentKey, ":demo")
	var out []string
	for _, t := range tier.All() {
		for _, c := range componentsFor(t) {
			if c == base {
				out = append(out, models.SummaryKey(string(t), demo))
			}
		}
	}
	return out
}

// Invalidate evicts every key containing pattern, and every summary composed
// from an evicted component. An empty pattern evicts everything. Rebuilds that
// started before the call never repopulate an evicted key.
func (s *Service) Invalidate(ctx context.Context, pattern string) ([]string, error) {
	stored, err := s.store.Keys(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list cache keys")
	}

	candidates := make(map[string]struct{})
	for _, k := range append(knownKeys(), stored...) {
		candidates[k] = struct{}{}
	}
	evict := make(map[string]struct{})
	for k := range candidates {
		if pattern == "" || strings.Contains(k, pattern) {
			evict[k] = struct{}{}
			if !models.IsSummaryKey(k) {
				for _, d := range dependents(k) {
					evict[d] = struct{}{}
				}
			}
		}
	}

	keys := make([]string, 0, len(evict))
	for k := range evict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s.writeMu.Lock()
	for _, k := range keys {
		s.generations[k]++
	}
	err = s.store.Delete(ctx, keys...)
	s.writeMu.Unlock()
	for _, k := range keys {
		if models.IsSummaryKey(k) {
			s.summaries.Forget(k)
		} else {
			s.components.Forget(k)
		}
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "evict cache keys")
	}

	present := make(map[string]struct{}, len(stored))
	for _, k := range stored {
		present[k] = struct{}{}
	}
	evicted := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := present[k]; ok {
			evicted = append(evicted, k)
		}
	}
	s.metrics.AddEvictions(len(evicted))
	s.logger.InfoContext(ctx, "market context invalidated", "pattern", pattern, "evicted", len(evicted))
	s.emit(ctx, audit.EventMarketContextInvalidated, pattern, map[string]string{
		"evicted": strings.Join(evicted, ","),
	})
	return evicted, nil
}

// Stats reports the stored keys and the time of the last stored rebuild.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return models.Stats{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "list cache keys")
	}
	stats := models.Stats{Size: len(keys), Keys: keys}
	s.writeMu.Lock()
	if !s.lastRefresh.IsZero() {
		last := s.lastRefresh
		stats.LastRefresh = &last
	}
	s.writeMu.Unlock()
	return stats, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject string, meta map[string]string) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(action)
	event.Subject = subject
	event.Metadata = meta
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
