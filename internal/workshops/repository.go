package workshops

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

// Repository persists workshops and their ledger accumulators.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Workshop, error)
	Get(ctx context.Context, id int64) (Workshop, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, ws Workshop) (Workshop, error)
	UpdateFields(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	// AddPayment and AddEarning increment the accumulators atomically
	// and return the workshop with the fresh derived balance.
	AddPayment(ctx context.Context, id int64, amount float64) (Workshop, error)
	AddEarning(ctx context.Context, id int64, amount float64) (Workshop, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// balance is always derived from the two accumulators in the query.
const workshopColumns = `id, name, specialization, contact_person, phone, email, address, is_active,
	total_earnings, total_payments, (total_earnings - total_payments) AS balance,
	created_at, updated_at`

func scanWorkshop(row pgx.Row) (Workshop, error) {
	var ws Workshop
	err := row.Scan(
		&ws.ID, &ws.Name, &ws.Specialization, &ws.ContactPerson, &ws.Phone, &ws.Email, &ws.Address,
		&ws.IsActive, &ws.TotalEarnings, &ws.TotalPayments, &ws.Balance, &ws.CreatedAt, &ws.UpdatedAt,
	)
	return ws, err
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("workshops: list: %w", err)
	}
	defer rows.Close()

	var workshops []Workshop
	for rows.Next() {
		ws, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("workshops: scan: %w", err)
		}
		workshops = append(workshops, ws)
	}
	return workshops, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Workshop, error) {
	ws, err := scanWorkshop(r.pool.QueryRow(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workshop{}, fmt.Errorf("workshop %d: %w", id, httpx.ErrNotFound)
		}
		return Workshop{}, fmt.Errorf("workshops: get: %w", err)
	}
	return ws, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workshops WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("workshops: exists: %w", err)
	}
	return exists, nil
}

func (r *repository) Create(ctx context.Context, ws Workshop) (Workshop, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `INSERT INTO workshops
		(name, specialization, contact_person, phone, email, address, is_active,
		 total_earnings, total_payments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8, $8)
		RETURNING id, created_at, updated_at`,
		ws.Name, ws.Specialization, ws.ContactPerson, ws.Phone, ws.Email, ws.Address, ws.IsActive, now,
	).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return Workshop{}, fmt.Errorf("workshops: create: %w", err)
	}
	return ws, nil
}

var updatableColumns = map[string]bool{
	"name":           true,
	"specialization": true,
	"contact_person": true,
	"phone":          true,
	"email":          true,
	"address":        true,
	"is_active":      true,
}

func (r *repository) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE workshops SET updated_at = NOW()`
	args := []any{}
	argCount := 0
	for col, val := range updates {
		if !updatableColumns[col] {
			return fmt.Errorf("workshops: column %q is not updatable", col)
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
		return fmt.Errorf("workshops: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workshop %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workshops WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("workshop %d is referenced by progress events: %w", id, httpx.ErrConflict)
		}
		return fmt.Errorf("workshops: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workshop %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) AddPayment(ctx context.Context, id int64, amount float64) (Workshop, error) {
	return r.addToLedger(ctx, id, `total_payments`, amount)
}

func (r *repository) AddEarning(ctx context.Context, id int64, amount float64) (Workshop, error) {
	return r.addToLedger(ctx, id, `total_earnings`, amount)
}

func (r *repository) addToLedger(ctx context.Context, id int64, column string, amount float64) (Workshop, error) {
	// Single-statement increment; concurrent ledger operations never
	// lose an update.
	query := `UPDATE workshops SET ` + column + ` = ` + column + ` + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + workshopColumns
	ws, err := scanWorkshop(r.pool.QueryRow(ctx, query, amount, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workshop{}, fmt.Errorf("workshop %d: %w", id, httpx.ErrNotFound)
		}
		return Workshop{}, fmt.Errorf("workshops: ledger update: %w", err)
	}
	return ws, nil
}
