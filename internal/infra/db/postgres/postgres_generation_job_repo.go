package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-content-platform/internal/domain"
	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/repository"
)

var _ repository.GenerationJobRepository = (*generationJobRepo)(nil)

type generationJobRepo struct {
	pool *pgxpool.Pool
}

func NewGenerationJobRepo(pool *pgxpool.Pool) *generationJobRepo {
	return &generationJobRepo{pool: pool}
}

const jobColumns = `id, job_type, target_type, target_id, prompt, status, result_data, error_message, created_by, created_at, completed_at`

func (r *generationJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	var resultData []byte
	if job.ResultData != nil {
		b, err := json.Marshal(job.ResultData)
		if err != nil {
			return err
		}
		resultData = b
	}

	const q = `
INSERT INTO content_generation_jobs (id, job_type, target_type, target_id, prompt, status, result_data, error_message, created_by, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  result_data = EXCLUDED.result_data,
  error_message = EXCLUDED.error_message,
  completed_at = EXCLUDED.completed_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, string(job.JobType), nullStr(job.TargetType), nullStr(job.TargetID), job.Prompt,
		string(job.Status), resultData, nullStr(job.ErrorMessage), nullStr(job.CreatedBy),
		job.CreatedAt, job.CompletedAt)
	return err
}

func (r *generationJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM content_generation_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *generationJobRepo) ListByCreator(ctx context.Context, tx repository.Tx, createdBy string) ([]*model.GenerationJob, error) {
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM content_generation_jobs WHERE created_by = $1 ORDER BY created_at DESC`, createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *generationJobRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GenerationJob, error) {
	rows, err := pickRows(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM content_generation_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJob(row pgx.Row) (*model.GenerationJob, error) {
	var (
		job         model.GenerationJob
		jobType     string
		status      string
		targetType  *string
		targetID    *string
		resultData  []byte
		errMessage  *string
		createdBy   *string
		completedAt *time.Time
	)
	err := row.Scan(&job.ID, &jobType, &targetType, &targetID, &job.Prompt, &status,
		&resultData, &errMessage, &createdBy, &job.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.JobType = model.JobType(jobType)
	job.Status = model.JobStatus(status)
	job.TargetType = deref(targetType)
	job.TargetID = deref(targetID)
	job.ErrorMessage = deref(errMessage)
	job.CreatedBy = deref(createdBy)
	job.CompletedAt = completedAt
	if len(resultData) > 0 {
		if err := json.Unmarshal(resultData, &job.ResultData); err != nil {
			return nil, err
		}
	}
	return &job, nil
}

func scanJobs(rows pgx.Rows) ([]*model.GenerationJob, error) {
	jobs := make([]*model.GenerationJob, 0, 16)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
