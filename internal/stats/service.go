package stats

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fasontrack/fasontrack/internal/workorders"
)

// MetricsObserver exports the delayed counter to the metrics registry.
type MetricsObserver interface {
	SetDelayedWorkOrders(n int)
}

// Dashboard is the combined overview payload.
type Dashboard struct {
	Stats   Summary                `json:"stats"`
	Delayed []workorders.WorkOrder `json:"delayedWorkOrders"`
}

// Service computes aggregate figures. Counters are always read fresh
// from the store: the delayed figure depends on the clock, so a cached
// value could drift from reality between writes.
type Service struct {
	repo    Repository
	metrics MetricsObserver
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

func NewService(repo Repository, metrics MetricsObserver, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Stats returns the current counters. Concurrent callers share one
// database round trip.
func (s *Service) Stats(ctx context.Context) (Summary, error) {
	// The collapsed query serves every waiting caller, so it must not
	// die with whichever request happened to start it.
	queryCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("summary", func() (any, error) {
		sum, err := s.repo.Summary(queryCtx, s.now())
		if err != nil {
			return Summary{}, err
		}
		if s.metrics != nil {
			s.metrics.SetDelayedWorkOrders(sum.Delayed)
		}
		return sum, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

// Dashboard returns the counters together with the most overdue orders.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()
	var dash Dashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		dash.Stats = sum
		return nil
	})
	g.Go(func() error {
		delayed, err := s.repo.DelayedWorkOrders(ctx, now, 20)
		if err != nil {
			return err
		}
		dash.Delayed = delayed
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if dash.Delayed == nil {
		dash.Delayed = []workorders.WorkOrder{}
	}
	return dash, nil
}

// DelayedCount refreshes the delayed gauge; used by the background scan.
func (s *Service) DelayedCount(ctx context.Context) (int, error) {
	sum, err := s.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return sum.Delayed, nil
}
