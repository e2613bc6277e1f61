// File: internal/usecase/result_persister.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ ResultPersister = (*resultPersister)(nil)

// excerptRunes is the fixed prefix length used for generated blog excerpts.
const excerptRunes = 200

// ResultPersister promotes a completed job's payload into a durable content
// entity. Promotion is always a manual, human-triggered action; the job
// record stays the source of truth regardless.
type ResultPersister interface {
	PromoteToBlogDraft(ctx context.Context, job *model.GenerationJob, title, slug string) (*model.BlogPost, error)
	PromoteToToolDescription(ctx context.Context, job *model.GenerationJob, toolSlug string) (*model.AITool, error)
}

type resultPersister struct {
	posts repository.BlogPostRepository
	tools repository.AIToolRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewResultPersister(posts repository.BlogPostRepository, tools repository.AIToolRepository, tm repository.TransactionManager, logger *zerolog.Logger) *resultPersister {
	ucLog := logger.With().Str("component", "ResultPersister").Logger()
	return &resultPersister{posts: posts, tools: tools, tm: tm, log: &ucLog}
}

// PromoteToBlogDraft creates an unpublished blog entity from a completed
// job. The excerpt is a fixed-length prefix of the generated body.
func (p *resultPersister) PromoteToBlogDraft(ctx context.Context, job *model.GenerationJob, title, slug string) (*model.BlogPost, error) {
	if job == nil || job.Status != model.JobStatusCompleted {
		return nil, domain.ErrJobNotCompleted
	}
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)
	if title == "" || slug == "" {
		return nil, domain.ErrInvalidArgument
	}

	content := job.ResultContent()
	now := time.Now()
	post := &model.BlogPost{
		ID:          uuid.NewString(),
		Slug:        slug,
		Title:       title,
		Excerpt:     excerpt(content),
		Content:     content,
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.posts.Save(ctx, nil, post); err != nil {
		return nil, err
	}
	p.log.Info().Str("job_id", job.ID).Str("slug", slug).Msg("promoted job to blog draft")
	return post, nil
}

// PromoteToToolDescription overwrites only the description of an existing
// tool. The write is guarded by the updated_at version observed here, so a
// concurrent promotion for the same tool surfaces as ErrConflict rather
// than silently winning last.
func (p *resultPersister) PromoteToToolDescription(ctx context.Context, job *model.GenerationJob, toolSlug string) (*model.AITool, error) {
	if job == nil || job.Status != model.JobStatusCompleted {
		return nil, domain.ErrJobNotCompleted
	}
	toolSlug = strings.TrimSpace(toolSlug)
	if toolSlug == "" {
		return nil, domain.ErrInvalidArgument
	}

	description := job.ResultContent()
	var tool *model.AITool
	// Read and guarded write in one transaction so the version check holds.
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead}
	err := p.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		found, err := p.tools.FindBySlug(ctx, tx, toolSlug)
		if err != nil {
			return err
		}
		if err := p.tools.UpdateDescription(ctx, tx, toolSlug, description, found.UpdatedAt); err != nil {
			return err
		}
		// Re-read inside the transaction so the caller gets the
		// post-write version stamp, not the one observed before the write.
		fresh, err := p.tools.FindBySlug(ctx, tx, toolSlug)
		if err != nil {
			return err
		}
		tool = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("job_id", job.ID).Str("tool_slug", toolSlug).Msg("promoted job to tool description")
	return tool, nil
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptRunes {
		return content
	}
	return string(runes[:excerptRunes])
}
