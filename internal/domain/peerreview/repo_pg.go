package peerreview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workplace/workplace/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const assignmentColumns = `id, opinion_id, case_id, status, required_level, reviewer_id, assigned_at, completed_at`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.OpinionID, &a.CaseID, &a.Status, &a.RequiredLevel,
		&a.ReviewerID, &a.AssignedAt, &a.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Insert(ctx context.Context, a *Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO peer_review_assignment
			(id, opinion_id, case_id, status, required_level, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.OpinionID, a.CaseID, a.Status, a.RequiredLevel, a.AssignedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return scanAssignment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM peer_review_assignment WHERE id = $1`, id))
}

func (r *repoPG) GetByOpinion(ctx context.Context, opinionID uuid.UUID) (*Assignment, error) {
	return scanAssignment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM peer_review_assignment
		 WHERE opinion_id = $1 ORDER BY assigned_at DESC LIMIT 1`, opinionID))
}

func (r *repoPG) Complete(ctx context.Context, id, reviewerID uuid.UUID, at time.Time) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE peer_review_assignment
		SET status = $1, reviewer_id = $2, completed_at = $3
		WHERE id = $4 AND status = $5`,
		StatusCompleted, reviewerID, at, id, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if probeErr := db.Conn(ctx, r.pool).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM peer_review_assignment WHERE id = $1)`, id).
			Scan(&exists); probeErr != nil {
			return probeErr
		}
		if !exists {
			return ErrNotFound
		}
		return ErrNotPending
	}
	return nil
}

func (r *repoPG) ListPending(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM peer_review_assignment WHERE status = $1`, StatusPending).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn.Query(ctx, `
		SELECT `+assignmentColumns+` FROM peer_review_assignment
		WHERE status = $1
		ORDER BY assigned_at ASC
		LIMIT $2 OFFSET $3`, StatusPending, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
