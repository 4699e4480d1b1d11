package trackers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fasontrack/fasontrack/internal/platform/httpx"
)

// Repository persists the tracker directory.
type Repository interface {
	List(ctx context.Context) ([]Tracker, error)
	Get(ctx context.Context, id int64) (Tracker, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, tr Tracker) (Tracker, error)
	UpdateFields(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Tracker, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone, created_at, updated_at FROM trackers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("trackers: list: %w", err)
	}
	defer rows.Close()

	var trackers []Tracker
	for rows.Next() {
		var tr Tracker
		if err := rows.Scan(&tr.ID, &tr.Name, &tr.Email, &tr.Phone, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("trackers: scan: %w", err)
		}
		trackers = append(trackers, tr)
	}
	return trackers, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Tracker, error) {
	var tr Tracker
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, created_at, updated_at FROM trackers WHERE id = $1`, id,
	).Scan(&tr.ID, &tr.Name, &tr.Email, &tr.Phone, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tracker{}, fmt.Errorf("tracker %d: %w", id, httpx.ErrNotFound)
		}
		return Tracker{}, fmt.Errorf("trackers: get: %w", err)
	}
	return tr, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trackers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("trackers: exists: %w", err)
	}
	return exists, nil
}

func (r *repository) Create(ctx context.Context, tr Tracker) (Tracker, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO trackers (name, email, phone, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
		 RETURNING id, created_at, updated_at`,
		tr.Name, tr.Email, tr.Phone, now,
	).Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return Tracker{}, fmt.Errorf("trackers: create: %w", err)
	}
	return tr, nil
}

var updatableColumns = map[string]bool{
	"name":  true,
	"email": true,
	"phone": true,
}

func (r *repository) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE trackers SET updated_at = NOW()`
	args := []any{}
	argCount := 0
	for col, val := range updates {
		if !updatableColumns[col] {
			return fmt.Errorf("trackers: column %q is not updatable", col)
		}
		argCount++
		query += `, ` + col + ` = $` + strconv.Itoa(argCount)
		args = append(args, val)
	}
	argCount++
	query += ` WHERE id = $` + strconv.Itoa(argCount)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("trackers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tracker %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trackers WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("tracker %d has recorded progress events: %w", id, httpx.ErrConflict)
		}
		return fmt.Errorf("trackers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tracker %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
