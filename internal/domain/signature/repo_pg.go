package signature

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workplace/workplace/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Insert(ctx context.Context, sig *DigitalSignature) error {
	if sig.ID == uuid.Nil {
		sig.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO digital_signature
			(id, opinion_id, document_hash, method, signer_id, signature_data, verified, signed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sig.ID, sig.OpinionID, sig.DocumentHash, sig.Method, sig.SignerID,
		sig.SignatureData, sig.Verified, sig.SignedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// Unique violation on opinion_id.
		return ErrAlreadySigned
	}
	return err
}

func (r *repoPG) GetByOpinion(ctx context.Context, opinionID uuid.UUID) (*DigitalSignature, error) {
	var sig DigitalSignature
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, opinion_id, document_hash, method, signer_id, signature_data, verified, signed_at
		FROM digital_signature WHERE opinion_id = $1`, opinionID).
		Scan(&sig.ID, &sig.OpinionID, &sig.DocumentHash, &sig.Method, &sig.SignerID,
			&sig.SignatureData, &sig.Verified, &sig.SignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sig, nil
}
