package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/db"
)

// ErrNotFound is returned when a case does not exist or is not visible.
var ErrNotFound = errors.New("case not found")

// ErrInvalidTransition is returned when a status write violates the
// transition table or the case is no longer in the expected status.
var ErrInvalidTransition = errors.New("invalid case status transition")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const caseCols = `id, title, category, requested_level, status,
	assigned_professional_id, assigned_at, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.Title, &c.Category, &c.RequestedLevel, &c.Status,
		&c.AssignedProfessionalID, &c.AssignedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	return scanCase(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+caseCols+` FROM medical_case WHERE id = $1`, id))
}

func (r *repoPG) ListUnclaimed(ctx context.Context, levels []professional.Level, category string, limit int) ([]*Case, error) {
	lvls := make([]string, len(levels))
	for i, l := range levels {
		lvls[i] = string(l)
	}

	query := `SELECT ` + caseCols + ` FROM medical_case
		WHERE status = ANY($1)
		  AND assigned_professional_id IS NULL
		  AND requested_level = ANY($2)`
	args := []interface{}{statusStrings(UnclaimedStatuses()), lvls}
	if category != "" {
		query += ` AND category = $3`
		args = append(args, category)
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT %d`, limit)

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE medical_case SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: case %s not in status %s", ErrInvalidTransition, id, from)
	}
	return nil
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
