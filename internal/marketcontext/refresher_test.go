package marketcontext

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.uber.org/mock/gomock"

	"finsight/pkg/platform/audit"
)

// =============================================================================
// Refresher
// =============================================================================
// Justification for unit tests: which summaries get refreshed is only
// observable through upstream call counts and the refresh audit trail.

func (s *ServiceSuite) newRefresher(schedule string, demo bool) *Refresher {
	r, err := NewRefresher(s.service, schedule, demo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	return r
}

// recordRefreshes captures the subject of every refresh audit event.
func (s *ServiceSuite) recordRefreshes() func() []string {
	var (
		mu       sync.Mutex
		subjects []string
	)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventMarketContextRefreshed), e.Action)
		mu.Lock()
		subjects = append(subjects, e.Subject)
		mu.Unlock()
		return nil
	}).AnyTimes()
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		out := append([]string(nil), subjects...)
		sort.Strings(out)
		return out
	}
}

func (s *ServiceSuite) TestNewRefresherValidation() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewRefresher(s.service, "not a schedule", false, logger)
	s.ErrorContains(err, "failed to parse refresh schedule")

	_, err = NewRefresher(nil, "@every 25m", false, logger)
	s.ErrorContains(err, "market context service is required")

	r, err := NewRefresher(s.service, "*/5 * * * *", true, nil)
	s.Require().NoError(err)
	s.NotNil(r)
}

func (s *ServiceSuite) TestRefreshAllLiveOnly() {
	// Standard and Premium each force a fresh economic fetch; only Premium needs live data
	s.economic.EXPECT().FetchIndicators(gomock.Any()).Return(testIndicators, nil).Times(2)
	s.market.EXPECT().FetchHeadlines(gomock.Any()).Return(testHeadlines, nil).Times(1)
	subjects := s.recordRefreshes()

	s.newRefresher("@every 25m", false).RefreshAll(context.Background())

	s.Equal([]string{"market_context:premium:live", "market_context:standard:live"}, subjects())
}

func (s *ServiceSuite) TestRefreshAllWithDemo() {
	s.economic.EXPECT().FetchIndicators(gomock.Any()).Return(testIndicators, nil).Times(4)
	s.market.EXPECT().FetchHeadlines(gomock.Any()).Return(testHeadlines, nil).Times(2)
	subjects := s.recordRefreshes()

	s.newRefresher("@every 25m", true).RefreshAll(context.Background())

	s.Equal([]string{
		"market_context:premium:demo",
		"market_context:premium:live",
		"market_context:standard:demo",
		"market_context:standard:live",
	}, subjects())
	for _, subject := range subjects() {
		s.NotContains(subject, "starter")
	}
}

func (s *ServiceSuite) TestRefreshAllContinuesPastFailures() {
	s.economic.EXPECT().FetchIndicators(gomock.Any()).Return(nil, errors.New("fred down")).Times(2)
	s.market.EXPECT().FetchHeadlines(gomock.Any()).Return(testHeadlines, nil).Times(1)
	subjects := s.recordRefreshes()

	s.NotPanics(func() {
		s.newRefresher("@every 25m", false).RefreshAll(context.Background())
	})
	s.Empty(subjects(), "failed refreshes are not audited")
}

func (s *ServiceSuite) TestStartWarmsSummaries() {
	s.economic.EXPECT().FetchIndicators(gomock.Any()).Return(testIndicators, nil).Times(2)
	s.market.EXPECT().FetchHeadlines(gomock.Any()).Return(testHeadlines, nil).Times(1)
	subjects := s.recordRefreshes()

	r := s.newRefresher("@every 1h", false)
	s.Require().NoError(r.Start(context.Background()))
	defer r.Stop(context.Background())

	s.Eventually(func() bool { return len(subjects()) == 2 }, 2*time.Second, 10*time.Millisecond)
}

func (s *ServiceSuite) TestStopReturnsOnContextExpiry() {
	r := s.newRefresher("@every 1h", false)
	running := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)

	_, err := r.engine.AddFunc("@every 1s", func() {
		select {
		case running <- struct{}{}:
		default:
		}
		<-release
	})
	s.Require().NoError(err)
	r.engine.Start()

	select {
	case <-running:
	case <-time.After(3 * time.Second):
		s.FailNow("scheduled job never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	r.Stop(ctx)
	s.Less(time.Since(start), time.Second)
}

func (s *ServiceSuite) TestStopWhenIdle() {
	r := s.newRefresher("@every 1h", false)
	r.engine.Start()

	done := make(chan struct{})
	go func() {
		r.Stop(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Stop blocked with no running refresh")
	}
}
