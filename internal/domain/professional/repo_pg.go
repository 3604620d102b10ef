package professional

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workplace/workplace/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, level, subspecialties, current_load, max_load, created_at
		FROM professional WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Level, &p.Subspecialties, &p.CurrentLoad, &p.MaxLoad, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
