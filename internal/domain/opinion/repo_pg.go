package opinion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

const draftCols = `id, case_id, professional_id, sections, status, edit_sequence,
	last_modified, finalized_at, created_at`

func scanDraft(row pgx.Row) (*Draft, error) {
	var d Draft
	var sections []byte
	err := row.Scan(&d.ID, &d.CaseID, &d.ProfessionalID, &sections, &d.Status,
		&d.EditSequence, &d.LastModified, &d.FinalizedAt, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &d.Sections); err != nil {
		return nil, fmt.Errorf("decode draft sections: %w", err)
	}
	return &d, nil
}

func (r *repoPG) GetActive(ctx context.Context, caseID, professionalID uuid.UUID) (*Draft, error) {
	return scanDraft(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+draftCols+` FROM second_opinion_draft
		WHERE case_id = $1 AND professional_id = $2 AND status = $3`,
		caseID, professionalID, StatusDraft))
}

func (r *repoPG) GetLatest(ctx context.Context, caseID, professionalID uuid.UUID) (*Draft, error) {
	return scanDraft(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+draftCols+` FROM second_opinion_draft
		WHERE case_id = $1 AND professional_id = $2
		ORDER BY created_at DESC LIMIT 1`,
		caseID, professionalID))
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return scanDraft(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+draftCols+` FROM second_opinion_draft WHERE id = $1`, id))
}

func (r *repoPG) Insert(ctx context.Context, d *Draft) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	sections, err := json.Marshal(d.Sections)
	if err != nil {
		return fmt.Errorf("encode draft sections: %w", err)
	}
	_, err = db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO second_opinion_draft
			(id, case_id, professional_id, sections, status, edit_sequence, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.CaseID, d.ProfessionalID, sections, d.Status, d.EditSequence, d.LastModified)
	return err
}

func (r *repoPG) UpdateSections(ctx context.Context, d *Draft) error {
	sections, err := json.Marshal(d.Sections)
	if err != nil {
		return fmt.Errorf("encode draft sections: %w", err)
	}
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE second_opinion_draft
		SET sections = $2, edit_sequence = $3, last_modified = $4
		WHERE id = $1 AND status = $5`,
		d.ID, sections, d.EditSequence, d.LastModified, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongState
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrWrongState, from, to)
	}
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE second_opinion_draft SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongState
	}
	return nil
}

func (r *repoPG) Finalize(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE second_opinion_draft
		SET status = $2, finalized_at = $3, last_modified = $3
		WHERE id = $1 AND status = $4`,
		id, StatusReadyForSignature, at, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWrongState
	}
	return nil
}
