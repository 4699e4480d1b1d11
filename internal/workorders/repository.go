package workorders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasontrack/fasontrack/internal/platform/db"
	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/shared"
)

// Repository persists work orders.
type Repository interface {
	Create(ctx context.Context, wo WorkOrder) (WorkOrder, error)
	Get(ctx context.Context, id int64) (WorkOrder, error)
	List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error)
	ListMobile(ctx context.Context, filter MobileFilter) ([]MobileWorkOrder, error)
	UpdateFields(ctx context.Context, id int64, updates map[string]any) error
	SetAssignedTracker(ctx context.Context, id int64, trackerID *int64) error
	SetMobileVisibility(ctx context.Context, id int64, visible bool) error
	CountProgressEvents(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
	DeleteCascade(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const workOrderColumns = `id, order_no, product_code, product_name, quantity, customer_name,
	status, priority, delivery_date, notes, assigned_to_mobile, assigned_tracker_id,
	created_at, updated_at`

func scanWorkOrder(row pgx.Row) (WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(
		&wo.ID, &wo.OrderNo, &wo.ProductCode, &wo.ProductName, &wo.Quantity, &wo.CustomerName,
		&wo.Status, &wo.Priority, &wo.DeliveryDate, &wo.Notes, &wo.AssignedToMobile, &wo.AssignedTrackerID,
		&wo.CreatedAt, &wo.UpdatedAt,
	)
	return wo, err
}

func (r *repository) Create(ctx context.Context, wo WorkOrder) (WorkOrder, error) {
	query := `INSERT INTO work_orders
		(order_no, product_code, product_name, quantity, customer_name, status, priority,
		 delivery_date, notes, assigned_to_mobile, search_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	searchText := shared.SearchText(wo.OrderNo, wo.ProductCode, wo.ProductName, wo.CustomerName)
	err := r.pool.QueryRow(ctx, query,
		wo.OrderNo, wo.ProductCode, wo.ProductName, wo.Quantity, wo.CustomerName,
		wo.Status, wo.Priority, wo.DeliveryDate, wo.Notes, wo.AssignedToMobile,
		searchText, now,
	).Scan(&wo.ID, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return WorkOrder{}, fmt.Errorf("order number %q already exists: %w", wo.OrderNo, httpx.ErrDuplicate)
		}
		return WorkOrder{}, fmt.Errorf("workorders: create: %w", err)
	}
	return wo, nil
}

func (r *repository) Get(ctx context.Context, id int64) (WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1`
	wo, err := scanWorkOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorkOrder{}, fmt.Errorf("work order %d: %w", id, httpx.ErrNotFound)
		}
		return WorkOrder{}, fmt.Errorf("workorders: get: %w", err)
	}
	return wo, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		where += ` AND search_text LIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+shared.FoldSearch(filter.Search)+"%")
	}
	if filter.Status != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		argCount++
		where += ` AND priority = $` + strconv.Itoa(argCount)
		args = append(args, *filter.Priority)
	}
	if filter.AssignedToMobile != nil {
		argCount++
		where += ` AND assigned_to_mobile = $` + strconv.Itoa(argCount)
		args = append(args, *filter.AssignedToMobile)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM work_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("workorders: count: %w", err)
	}

	query := `SELECT ` + workOrderColumns + ` FROM work_orders` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("workorders: list: %w", err)
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("workorders: scan: %w", err)
		}
		orders = append(orders, wo)
	}
	return orders, total, rows.Err()
}

func (r *repository) ListMobile(ctx context.Context, filter MobileFilter) ([]MobileWorkOrder, error) {
	// assigned_to_mobile gating is unconditional; filters only narrow further.
	query := `SELECT id, order_no, product_code, product_name, quantity, customer_name,
		status, priority, delivery_date
		FROM work_orders WHERE assigned_to_mobile = TRUE`
	args := []any{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		query += ` AND search_text LIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+shared.FoldSearch(filter.Search)+"%")
	}
	if filter.Status != nil {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("workorders: list mobile: %w", err)
	}
	defer rows.Close()

	var orders []MobileWorkOrder
	for rows.Next() {
		var mo MobileWorkOrder
		err := rows.Scan(&mo.ID, &mo.OrderNo, &mo.ProductCode, &mo.ProductName, &mo.Quantity,
			&mo.CustomerName, &mo.Status, &mo.Priority, &mo.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("workorders: scan mobile: %w", err)
		}
		mo.StatusLabel = mo.Status.Label()
		orders = append(orders, mo)
	}
	return orders, rows.Err()
}

// updatableColumns lists columns a partial update may touch. Status is
// deliberately absent: it changes only through progress events.
var updatableColumns = map[string]bool{
	"order_no":      true,
	"product_code":  true,
	"product_name":  true,
	"quantity":      true,
	"customer_name": true,
	"priority":      true,
	"delivery_date": true,
	"notes":         true,
}

func (r *repository) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `UPDATE work_orders SET updated_at = NOW()`
		args := []any{}
		argCount := 0
		for col, val := range updates {
			if !updatableColumns[col] {
				return fmt.Errorf("workorders: column %q is not updatable", col)
			}
			argCount++
			query += `, ` + col + ` = $` + strconv.Itoa(argCount)
			args = append(args, val)
		}
		argCount++
		query += ` WHERE id = $` + strconv.Itoa(argCount)
		args = append(args, id)

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("order number already exists: %w", httpx.ErrDuplicate)
			}
			return fmt.Errorf("workorders: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("work order %d: %w", id, httpx.ErrNotFound)
		}

		// Keep the folded search text in sync with the identifying fields.
		var orderNo, productCode, productName, customerName string
		err = tx.QueryRow(ctx,
			`SELECT order_no, product_code, product_name, customer_name FROM work_orders WHERE id = $1`, id,
		).Scan(&orderNo, &productCode, &productName, &customerName)
		if err != nil {
			return fmt.Errorf("workorders: reload search fields: %w", err)
		}
		_, err = tx.Exec(ctx, `UPDATE work_orders SET search_text = $1 WHERE id = $2`,
			shared.SearchText(orderNo, productCode, productName, customerName), id)
		if err != nil {
			return fmt.Errorf("workorders: update search text: %w", err)
		}
		return nil
	})
}

// SetAssignedTracker writes only the assignment column, so a status
// change committed by a concurrent progress event is never overwritten.
func (r *repository) SetAssignedTracker(ctx context.Context, id int64, trackerID *int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_orders SET assigned_tracker_id = $1, updated_at = NOW() WHERE id = $2`,
		trackerID, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("tracker %d: %w", derefID(trackerID), httpx.ErrNotFound)
		}
		return fmt.Errorf("workorders: assign tracker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work order %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// SetMobileVisibility writes only the visibility flag, same contract as
// SetAssignedTracker.
func (r *repository) SetMobileVisibility(ctx context.Context, id int64, visible bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_orders SET assigned_to_mobile = $1, updated_at = NOW() WHERE id = $2`,
		visible, id)
	if err != nil {
		return fmt.Errorf("workorders: set mobile visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work order %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) CountProgressEvents(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM progress_events WHERE work_order_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("workorders: count events: %w", err)
	}
	return count, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("work order %d has progress events: %w", id, httpx.ErrConflict)
		}
		return fmt.Errorf("workorders: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work order %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) DeleteCascade(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM progress_events WHERE work_order_id = $1`, id); err != nil {
			return fmt.Errorf("workorders: delete events: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("workorders: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("work order %d: %w", id, httpx.ErrNotFound)
		}
		return nil
	})
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
