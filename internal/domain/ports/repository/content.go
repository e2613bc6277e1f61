package repository

import (
	"context"
	"time"

	"ai-content-platform/internal/domain/model"
)

type BlogPostRepository interface {
	Save(ctx context.Context, tx Tx, post *model.BlogPost) error
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.BlogPost, error)
}

type AIToolRepository interface {
	Save(ctx context.Context, tx Tx, tool *model.AITool) error
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.AITool, error)
	// UpdateDescription overwrites only the description field. expectedUpdatedAt
	// is the version observed by the caller; the write fails with
	// domain.ErrConflict when the row moved on since.
	UpdateDescription(ctx context.Context, tx Tx, slug, description string, expectedUpdatedAt time.Time) error
}
