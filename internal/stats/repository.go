package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasontrack/fasontrack/internal/workorders"
)

// Summary holds the dashboard counters. Completed counts delivered
// orders; inProgress is everything not yet delivered; delayed counts
// orders past their target delivery date and not delivered.
type Summary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Delayed    int `json:"delayed"`
}

// Repository reads aggregate figures from the work order store.
type Repository interface {
	Summary(ctx context.Context, now time.Time) (Summary, error)
	DelayedWorkOrders(ctx context.Context, now time.Time, limit int) ([]workorders.WorkOrder, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Summary(ctx context.Context, now time.Time) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = $1),
		COUNT(*) FILTER (WHERE status <> $1),
		COUNT(*) FILTER (WHERE delivery_date IS NOT NULL AND delivery_date < $2 AND status <> $1)
		FROM work_orders`,
		workorders.StatusDelivered, now,
	).Scan(&s.Total, &s.Completed, &s.InProgress, &s.Delayed)
	if err != nil {
		return Summary{}, fmt.Errorf("stats: summary: %w", err)
	}
	return s, nil
}

func (r *repository) DelayedWorkOrders(ctx context.Context, now time.Time, limit int) ([]workorders.WorkOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_no, product_code, product_name, quantity, customer_name,
		status, priority, delivery_date, notes, assigned_to_mobile, assigned_tracker_id, created_at, updated_at
		FROM work_orders
		WHERE delivery_date IS NOT NULL AND delivery_date < $1 AND status <> $2
		ORDER BY delivery_date ASC
		LIMIT $3`,
		now, workorders.StatusDelivered, limit)
	if err != nil {
		return nil, fmt.Errorf("stats: delayed work orders: %w", err)
	}
	defer rows.Close()

	var orders []workorders.WorkOrder
	for rows.Next() {
		var wo workorders.WorkOrder
		err := rows.Scan(&wo.ID, &wo.OrderNo, &wo.ProductCode, &wo.ProductName, &wo.Quantity, &wo.CustomerName,
			&wo.Status, &wo.Priority, &wo.DeliveryDate, &wo.Notes, &wo.AssignedToMobile, &wo.AssignedTrackerID,
			&wo.CreatedAt, &wo.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("stats: scan: %w", err)
		}
		orders = append(orders, wo)
	}
	return orders, rows.Err()
}
