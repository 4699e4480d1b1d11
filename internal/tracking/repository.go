package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasontrack/fasontrack/internal/platform/db"
	"github.com/fasontrack/fasontrack/internal/platform/httpx"
	"github.com/fasontrack/fasontrack/internal/workorders"
)

// Repository persists the append-only progress ledger.
type Repository interface {
	// Append inserts the event and updates the owning work order's
	// status in the same transaction. Partial writes cannot happen.
	Append(ctx context.Context, event ProgressEvent) (ProgressEvent, error)
	ListByWorkOrder(ctx context.Context, workOrderID int64) ([]ProgressEvent, error)
	WorkOrderStatus(ctx context.Context, workOrderID int64) (workorders.Status, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Append(ctx context.Context, event ProgressEvent) (ProgressEvent, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now()
		err := tx.QueryRow(ctx, `INSERT INTO progress_events
			(work_order_id, workshop_id, tracker_id, process_stage, status,
			 pickup_date, delivery_date, notes, problem_notes, latitude, longitude, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at`,
			event.WorkOrderID, event.WorkshopID, event.TrackerID, event.ProcessStage, event.Status,
			event.PickupDate, event.DeliveryDate, event.Notes, event.ProblemNotes,
			event.Latitude, event.Longitude, now,
		).Scan(&event.ID, &event.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return fmt.Errorf("referenced record: %w", httpx.ErrNotFound)
			}
			return fmt.Errorf("tracking: insert event: %w", err)
		}

		// Last event applied wins; concurrent submissions are both kept
		// in the ledger and the status reflects whichever committed last.
		tag, err := tx.Exec(ctx,
			`UPDATE work_orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			event.Status, event.WorkOrderID)
		if err != nil {
			return fmt.Errorf("tracking: update work order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("work order %d: %w", event.WorkOrderID, httpx.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return ProgressEvent{}, err
	}
	return event, nil
}

func (r *repository) ListByWorkOrder(ctx context.Context, workOrderID int64) ([]ProgressEvent, error) {
	// created_at is the canonical ordering key; id breaks timestamp ties
	// by insertion sequence.
	rows, err := r.pool.Query(ctx, `SELECT id, work_order_id, workshop_id, tracker_id,
		process_stage, status, pickup_date, delivery_date, notes, problem_notes,
		latitude, longitude, created_at
		FROM progress_events WHERE work_order_id = $1
		ORDER BY created_at ASC, id ASC`, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("tracking: list events: %w", err)
	}
	defer rows.Close()

	var events []ProgressEvent
	for rows.Next() {
		var ev ProgressEvent
		err := rows.Scan(&ev.ID, &ev.WorkOrderID, &ev.WorkshopID, &ev.TrackerID,
			&ev.ProcessStage, &ev.Status, &ev.PickupDate, &ev.DeliveryDate,
			&ev.Notes, &ev.ProblemNotes, &ev.Latitude, &ev.Longitude, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("tracking: scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *repository) WorkOrderStatus(ctx context.Context, workOrderID int64) (workorders.Status, error) {
	var status workorders.Status
	err := r.pool.QueryRow(ctx, `SELECT status FROM work_orders WHERE id = $1`, workOrderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("work order %d: %w", workOrderID, httpx.ErrNotFound)
		}
		return "", fmt.Errorf("tracking: work order status: %w", err)
	}
	return status, nil
}
