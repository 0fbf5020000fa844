package marketcontext

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"finsight/internal/tier"
)

// Refresher keeps tier summaries warm on a cron schedule so chat turns rarely
// pay for a rebuild.
type Refresher struct {
	cache    *Service
	schedule string
	demo     bool
	timeout  time.Duration
	engine   *cron.Cron
	logger   *slog.Logger
}

// NewRefresher validates schedule (standard cron or @every descriptors).
// When demo is true the demo summaries are refreshed too.
func NewRefresher(cache *Service, schedule string, demo bool, logger *slog.Logger) (*Refresher, error) {
	if cache == nil {
		return nil, fmt.Errorf("market context service is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("failed to parse refresh schedule: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cache:    cache,
		schedule: schedule,
		demo:     demo,
		timeout:  2 * time.Minute,
		engine:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
	}, nil
}

// Start warms every summary once in the background and schedules refreshes.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.engine.AddFunc(r.schedule, func() { r.RefreshAll(context.WithoutCancel(ctx)) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	r.engine.Start()
	go r.RefreshAll(context.WithoutCancel(ctx))
	r.logger.InfoContext(ctx, "market context refresher started", "schedule", r.schedule, "demo", r.demo)
	return nil
}

// RefreshAll refreshes every tier that has market sources. Failures are
// logged; the cache keeps serving its previous summaries.
func (r *Refresher) RefreshAll(ctx context.Context) {
	modes := []bool{false}
	if r.demo {
		modes = append(modes, true)
	}
	for _, t := range []tier.Tier{tier.Standard, tier.Premium} {
		for _, demo := range modes {
			runCtx, cancel := context.WithTimeout(ctx, r.timeout)
			start := time.Now()
			_, err := r.cache.Refresh(runCtx, t, demo)
			cancel()
			if err != nil {
				r.logger.WarnContext(ctx, "scheduled market context refresh failed",
					"tier", t, "demo", demo, "error", err)
				continue
			}
			r.logger.InfoContext(ctx, "scheduled market context refresh",
				"tier", t, "demo", demo, "duration", time.Since(start))
		}
	}
}

// Stop halts scheduling and waits for a running refresh or ctx expiry.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.engine.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("market context refresher shutdown timeout, a refresh may still be running")
	}
}
