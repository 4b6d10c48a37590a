package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/munim-pos/munim/internal/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed actor repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetActor(ctx context.Context, id int64) (Actor, error) {
	var actor Actor
	err := r.db.QueryRow(ctx, `SELECT id, tenant_id, name, role, key_hash, created_at FROM actors WHERE id=$1`, id).
		Scan(&actor.ID, &actor.TenantID, &actor.Name, &actor.Role, &actor.KeyHash, &actor.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, shared.ErrNotFound
		}
		return Actor{}, err
	}
	return actor, nil
}
