// File: internal/usecase/job_orchestrator.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-content-platform/internal/domain/model"
	"ai-content-platform/internal/domain/ports/adapter"
	"ai-content-platform/internal/domain/ports/repository"
	"ai-content-platform/internal/infra/logging"
	"ai-content-platform/internal/infra/metrics"
	"ai-content-platform/internal/infra/worker"
)

// Compile-time check
var _ JobOrchestrator = (*jobOrchestrator)(nil)

// JobOrchestrator creates generation jobs, dispatches them to the text- or
// image-generation backend and drives their lifecycle. It is the only
// writer of job state.
type JobOrchestrator interface {
	CreateJob(ctx context.Context, jobType model.JobType, prompt, targetType, targetID, createdBy string) (*model.GenerationJob, error)
	GenerateAndSave(ctx context.Context, jobType model.JobType, prompt, targetType, targetID, createdBy string) (*model.GenerationJob, error)
	GenerateAsync(ctx context.Context, jobType model.JobType, prompt, targetType, targetID, createdBy string) (*model.GenerationJob, error)
	GetJob(ctx context.Context, id string) (*model.GenerationJob, error)
	ListJobs(ctx context.Context, createdBy string) ([]*model.GenerationJob, error)
	ListAllJobs(ctx context.Context) ([]*model.GenerationJob, error)
}

// Per-type output budgets, matching what the admin UI requests.
var maxLengthByType = map[model.JobType]int{
	model.JobTypeBlogPost:        2000,
	model.JobTypeToolDescription: 1500,
}

type jobOrchestrator struct {
	jobs  repository.GenerationJobRepository
	text  adapter.TextGenerator
	image adapter.ImageGenerator
	pool  *worker.Pool
	log   *zerolog.Logger
}

func NewJobOrchestrator(jobs repository.GenerationJobRepository, text adapter.TextGenerator, image adapter.ImageGenerator, pool *worker.Pool, logger *zerolog.Logger) *jobOrchestrator {
	ucLog := logger.With().Str("component", "JobOrchestrator").Logger()
	return &jobOrchestrator{jobs: jobs, text: text, image: image, pool: pool, log: &ucLog}
}

// CreateJob persists a new pending record owned by createdBy. A write
// failure propagates: no job exists yet to carry it.
func (o *jobOrchestrator) CreateJob(ctx context.Context, jobType model.JobType, prompt, targetType, targetID, createdBy string) (*model.GenerationJob, error) {
	job, err := model.NewGenerationJob(uuid.NewString(), jobType, prompt, targetType, targetID, createdBy)
	if err != nil {
		return nil, err
	}
	if err := o.jobs.Save(ctx, nil, job); err != nil {
		return nil, err
	}
	o.log.Info().Str("job_id", job.ID).Str("job_type", string(jobType)).Msg("job created")
	return job, nil
}

// GenerateAndSave runs the full composite synchronously. After the create
// succeeds, backend failures are captured into the job's terminal failed
// state instead of being returned; only persistence errors on a status
// update surface to the caller. The final job snapshot is returned in all
// cases once creation succeeded.
func (o *jobOrchestrator) GenerateAndSave(ctx context.Context, jobType model.JobType, prompt, targetType, targetID, createdBy string) (*model.GenerationJob, error) {
	job, err := o.CreateJob(ctx, jobType, prompt, targetType, targetID, createdBy)
	if err != nil {
		return nil, err
	}
	err = o.process(ctx, job)
	return job, err
}

// GenerateAsync persists the pending job, then hands the dispatch to the
// worker pool and returns immediately; observers poll for the outcome.
func (o *jobOrchestrator) GenerateAsync(ctx context.Context, jobType model.JobType, prompt, targetType, targetID, createdBy string) (*model.GenerationJob, error) {
	job, err := o.CreateJob(ctx, jobType, prompt, targetType, targetID, createdBy)
	if err != nil {
		return nil, err
	}
	snapshot := *job
	if err := o.pool.Submit(func(taskCtx context.Context) error {
		if perr := o.process(taskCtx, job); perr != nil {
			o.log.Error().Err(perr).Str("job_id", job.ID).Msg("async job persistence error")
		}
		return nil
	}); err != nil {
		// Queue saturated: record the dispatch failure on the job itself.
		if terr := o.transition(ctx, job, func() error { return job.MarkProcessing() }); terr != nil {
			return &snapshot, terr
		}
		if terr := o.transition(ctx, job, func() error { return job.Fail("dispatch failed: " + err.Error()) }); terr != nil {
			return job, terr
		}
		metrics.IncGenerationJob(string(job.JobType), string(job.Status))
		return job, nil
	}
	return &snapshot, nil
}

// process moves a pending job through processing to a terminal state.
func (o *jobOrchestrator) process(ctx context.Context, job *model.GenerationJob) error {
	ctx = logging.WithJobID(ctx, job.ID)
	log := logging.With(ctx, o.log)
	defer logging.TraceDuration(log, "JobOrchestrator.process")()

	if err := o.transition(ctx, job, func() error { return job.MarkProcessing() }); err != nil {
		return err
	}

	start := time.Now()
	result, backendErr := o.dispatch(ctx, job)
	latency := time.Since(start)

	if backendErr != nil {
		log.Warn().Err(backendErr).Dur("duration", latency).Msg("generation failed")
		if err := o.transition(ctx, job, func() error { return job.Fail(backendErr.Error()) }); err != nil {
			return err
		}
	} else {
		log.Info().Dur("duration", latency).Msg("generation completed")
		if err := o.transition(ctx, job, func() error { return job.Complete(result) }); err != nil {
			return err
		}
	}
	metrics.IncGenerationJob(string(job.JobType), string(job.Status))
	return nil
}

// dispatch routes the job to the matching backend.
func (o *jobOrchestrator) dispatch(ctx context.Context, job *model.GenerationJob) (map[string]interface{}, error) {
	if job.JobType == model.JobTypeImage {
		res, err := o.image.GenerateImage(ctx, job.Prompt, 0, 0, "")
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"image_url": res.ImageURL}, nil
	}
	res, err := o.text.GenerateText(ctx, job.Prompt, job.JobType, maxLengthByType[job.JobType])
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"content": res.Content}, nil
}

// transition applies a state mutation and persists it.
func (o *jobOrchestrator) transition(ctx context.Context, job *model.GenerationJob, mutate func() error) error {
	if err := mutate(); err != nil {
		return err
	}
	return o.jobs.Save(ctx, nil, job)
}

func (o *jobOrchestrator) GetJob(ctx context.Context, id string) (*model.GenerationJob, error) {
	return o.jobs.FindByID(ctx, nil, id)
}

func (o *jobOrchestrator) ListJobs(ctx context.Context, createdBy string) ([]*model.GenerationJob, error) {
	return o.jobs.ListByCreator(ctx, nil, createdBy)
}

func (o *jobOrchestrator) ListAllJobs(ctx context.Context) ([]*model.GenerationJob, error) {
	return o.jobs.ListAll(ctx, nil)
}
