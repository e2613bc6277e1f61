package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/repository"
)

var _ repository.BlogPostRepository = (*blogPostRepo)(nil)

type blogPostRepo struct {
	pool *pgxpool.Pool
}

func NewBlogPostRepo(pool *pgxpool.Pool) *blogPostRepo {
	return &blogPostRepo{pool: pool}
}

func (r *blogPostRepo) Save(ctx context.Context, tx repository.Tx, post *model.BlogPost) error {
	const q = `
INSERT INTO blog_posts (id, slug, title, excerpt, content, is_published, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (slug) DO UPDATE SET
  title = EXCLUDED.title,
  excerpt = EXCLUDED.excerpt,
  content = EXCLUDED.content,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		post.ID, post.Slug, post.Title, post.Excerpt, post.Content, post.IsPublished,
		post.CreatedAt, post.UpdatedAt)
	return err
}

func (r *blogPostRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.BlogPost, error) {
	row, err := pickRow(ctx, r.pool, tx, `
SELECT id, slug, title, excerpt, content, is_published, created_at, updated_at
FROM blog_posts WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}

	var post model.BlogPost
	err = row.Scan(&post.ID, &post.Slug, &post.Title, &post.Excerpt, &post.Content,
		&post.IsPublished, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}
