package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/repository"
)

var _ repository.AIToolRepository = (*aiToolRepo)(nil)

type aiToolRepo struct {
	pool *pgxpool.Pool
}

func NewAIToolRepo(pool *pgxpool.Pool) *aiToolRepo {
	return &aiToolRepo{pool: pool}
}

func (r *aiToolRepo) Save(ctx context.Context, tx repository.Tx, tool *model.AITool) error {
	const q = `
INSERT INTO ai_tools (id, slug, name, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (slug) DO UPDATE SET
  name = EXCLUDED.name,
  description = EXCLUDED.description,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		tool.ID, tool.Slug, tool.Name, tool.Description, tool.CreatedAt, tool.UpdatedAt)
	return err
}

func (r *aiToolRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.AITool, error) {
	row, err := pickRow(ctx, r.pool, tx, `
SELECT id, slug, name, description, created_at, updated_at
FROM ai_tools WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}

	var tool model.AITool
	err = row.Scan(&tool.ID, &tool.Slug, &tool.Name, &tool.Description, &tool.CreatedAt, &tool.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &tool, nil
}

// UpdateDescription overwrites only the description, guarded by the
// updated_at version the caller observed. Zero rows affected means either
// the tool vanished or someone wrote in between; both cases refuse the
// write.
func (r *aiToolRepo) UpdateDescription(ctx context.Context, tx repository.Tx, slug, description string, expectedUpdatedAt time.Time) error {
	const q = `
UPDATE ai_tools SET description = $2, updated_at = NOW()
WHERE slug = $1 AND updated_at = $3;`

	tag, err := execSQL(ctx, r.pool, tx, q, slug, description, expectedUpdatedAt)
	if err != nil {
		// Under repeatable read a concurrent committed write raises a
		// serialization failure instead of affecting zero rows.
		if isSerializationFailure(err) {
			return domain.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, ferr := r.FindBySlug(ctx, tx, slug); ferr != nil {
			return ferr
		}
		return domain.ErrConflict
	}
	return nil
}
