package repository

import (
	"context"

	"ai-content-platform/internal/domain/model"
)

// GenerationJobRepository persists content generation job records. Jobs are
// never deleted by this subsystem; removal is an administrative action.
type GenerationJobRepository interface {
	// Save inserts a new job or updates an existing one by id.
	Save(ctx context.Context, tx Tx, job *model.GenerationJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GenerationJob, error)
	// ListByCreator returns the principal's jobs ordered by created_at
	// descending, the order observers poll in.
	ListByCreator(ctx context.Context, tx Tx, createdBy string) ([]*model.GenerationJob, error)
	// ListAll returns every job ordered by created_at descending.
	ListAll(ctx context.Context, tx Tx) ([]*model.GenerationJob, error)
}
