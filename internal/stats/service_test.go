package stats

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fasontrack/fasontrack/internal/workorders"
)

type fakeRepo struct {
	orders       []workorders.WorkOrder
	summaryCalls int
}

func (f *fakeRepo) Summary(ctx context.Context, now time.Time) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	f.summaryCalls++
	var s Summary
	for _, wo := range f.orders {
		s.Total++
		if wo.Status == workorders.StatusDelivered {
			s.Completed++
		} else {
			s.InProgress++
		}
		if wo.IsDelayed(now) {
			s.Delayed++
		}
	}
	return s, nil
}

func (f *fakeRepo) DelayedWorkOrders(ctx context.Context, now time.Time, limit int) ([]workorders.WorkOrder, error) {
	var out []workorders.WorkOrder
	for _, wo := range f.orders {
		if wo.IsDelayed(now) {
			out = append(out, wo)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeGauge struct {
	delayed int
}

func (f *fakeGauge) SetDelayedWorkOrders(n int) { f.delayed = n }

func date(s string) *time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return &d
}

func TestStatsCounters(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{orders: []workorders.WorkOrder{
		{ID: 1, Status: workorders.StatusDelivered, DeliveryDate: date("2025-06-01")},
		{ID: 2, Status: workorders.StatusAtWorkshop, DeliveryDate: date("2025-06-01")},
		{ID: 3, Status: workorders.StatusPending},
		{ID: 4, Status: workorders.StatusProblem, DeliveryDate: date("2025-07-01")},
	}}
	gauge := &fakeGauge{}
	svc := NewService(repo, gauge, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return now }

	sum, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, Summary{Total: 4, Completed: 1, InProgress: 3, Delayed: 1}, sum)
	require.Equal(t, 1, gauge.delayed)
}

func TestDelayedRespectsClock(t *testing.T) {
	repo := &fakeRepo{orders: []workorders.WorkOrder{
		{ID: 1, Status: workorders.StatusAtWorkshop, DeliveryDate: date("2025-06-10")},
	}}
	svc := NewService(repo, nil, slog.New(slog.DiscardHandler))

	svc.now = func() time.Time { return time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) }
	sum, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, sum.Delayed)

	svc.now = func() time.Time { return time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC) }
	sum, err = svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sum.Delayed)
}

func TestStatsSurvivesCallerCancellation(t *testing.T) {
	repo := &fakeRepo{orders: []workorders.WorkOrder{
		{ID: 1, Status: workorders.StatusPending},
	}}
	svc := NewService(repo, nil, slog.New(slog.DiscardHandler))

	// The query is shared across callers, so one caller disconnecting
	// must not poison the result the others receive.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Total)
}

func TestDeliveredOrderIsNeverDelayed(t *testing.T) {
	repo := &fakeRepo{orders: []workorders.WorkOrder{
		{ID: 1, Status: workorders.StatusDelivered, DeliveryDate: date("2020-01-01")},
	}}
	svc := NewService(repo, nil, slog.New(slog.DiscardHandler))

	sum, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, sum.Delayed)
	require.Equal(t, 1, sum.Completed)
}

func TestDashboardIncludesDelayedList(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{orders: []workorders.WorkOrder{
		{ID: 1, OrderNo: "SIP-1", Status: workorders.StatusAtWorkshop, DeliveryDate: date("2025-06-01")},
		{ID: 2, OrderNo: "SIP-2", Status: workorders.StatusPending},
	}}
	svc := NewService(repo, nil, slog.New(slog.DiscardHandler))
	svc.now = func() time.Time { return now }

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, dash.Stats.Total)
	require.Len(t, dash.Delayed, 1)
	require.Equal(t, "SIP-1", dash.Delayed[0].OrderNo)
}
