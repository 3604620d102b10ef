package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) ClaimCase(ctx context.Context, caseID, professionalID uuid.UUID, level professional.Level, now time.Time) error {
	servable := make([]string, 0, 4)
	for _, l := range level.ServableLevels() {
		servable = append(servable, string(l))
	}

	// Compare-and-swap: never read-then-write. The WHERE clause is the
	// entire race guard and carries the level gate, so a claim posted
	// directly against a case the directory would hide still loses.
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE medical_case
		SET assigned_professional_id = $2, assigned_at = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND assigned_professional_id IS NULL AND status = $5
		  AND requested_level = ANY($6)`,
		caseID, professionalID, now, cases.StatusAssigned, cases.StatusPendingAssignment, servable)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Lost: distinguish a lost race from a case that is absent or above the
	// claimer's level. The latter two both read as not-found, so neither the
	// case's existence nor the winner's identity leaks.
	var required professional.Level
	err = db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT requested_level FROM medical_case WHERE id = $1`, caseID).Scan(&required)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !level.CanServe(required) {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *repoPG) ReleaseCase(ctx context.Context, caseID, professionalID uuid.UUID, override bool) error {
	query := `
		UPDATE medical_case
		SET assigned_professional_id = NULL, assigned_at = NULL, status = $3, updated_at = NOW()
		WHERE id = $1 AND assigned_professional_id IS NOT NULL AND status = $4`
	args := []interface{}{caseID, professionalID, cases.StatusPendingAssignment, cases.StatusAssigned}
	if !override {
		query += ` AND assigned_professional_id = $2`
	} else {
		query += ` AND $2::uuid IS NOT NULL`
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var assignee *uuid.UUID
	err = db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT assigned_professional_id FROM medical_case WHERE id = $1`, caseID).Scan(&assignee)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrNotAssignee
}

func (r *repoPG) Insert(ctx context.Context, a *CaseAssignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO case_assignment (id, case_id, professional_id, status, assigned_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.CaseID, a.ProfessionalID, a.Status, a.AssignedAt)
	return err
}

func (r *repoPG) MarkReleased(ctx context.Context, caseID, professionalID uuid.UUID, at time.Time) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE case_assignment SET status = $3, released_at = $4
		WHERE case_id = $1 AND professional_id = $2 AND status = $5`,
		caseID, professionalID, StatusReleased, at, StatusAssigned)
	return err
}

const assignmentCols = `id, case_id, professional_id, status, assigned_at, released_at`

func (r *repoPG) GetActiveByCase(ctx context.Context, caseID uuid.UUID) (*CaseAssignment, error) {
	var a CaseAssignment
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM case_assignment WHERE case_id = $1 AND status = $2`,
		caseID, StatusAssigned).
		Scan(&a.ID, &a.CaseID, &a.ProfessionalID, &a.Status, &a.AssignedAt, &a.ReleasedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) HasActive(ctx context.Context, caseID, professionalID uuid.UUID) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM case_assignment
			WHERE case_id = $1 AND professional_id = $2 AND status = $3
		)`, caseID, professionalID, StatusAssigned).Scan(&ok)
	return ok, err
}
