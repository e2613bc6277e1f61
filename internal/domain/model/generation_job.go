package model

import (
	"time"

	"ai-content-platform/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type JobType string

const (
	JobTypeBlogPost        JobType = "blog_post"
	JobTypeToolDescription JobType = "tool_description"
	JobTypeImage           JobType = "image"
	JobTypeSEOContent      JobType = "seo_content"
)

// ValidJobType reports whether t is one of the known generation job types.
func ValidJobType(t JobType) bool {
	switch t {
	case JobTypeBlogPost, JobTypeToolDescription, JobTypeImage, JobTypeSEOContent:
		return true
	}
	return false
}

// GenerationJob is the persisted record of one asynchronous generation
// request. Status only moves forward: pending -> processing -> completed or
// failed. ResultData is set exactly when the job completed, ErrorMessage
// exactly when it failed, and CompletedAt exactly once on entering a
// terminal state.
type GenerationJob struct {
	ID           string                 `json:"id"`
	JobType      JobType                `json:"job_type"`
	TargetType   string                 `json:"target_type,omitempty"`
	TargetID     string                 `json:"target_id,omitempty"`
	Prompt       string                 `json:"prompt"`
	Status       JobStatus              `json:"status"`
	ResultData   map[string]interface{} `json:"result_data,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	CreatedBy    string                 `json:"created_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

func NewGenerationJob(id string, jobType JobType, prompt, targetType, targetID, createdBy string) (*GenerationJob, error) {
	if !ValidJobType(jobType) {
		return nil, domain.ErrInvalidArgument
	}
	if prompt == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &GenerationJob{
		ID:         id,
		JobType:    jobType,
		TargetType: targetType,
		TargetID:   targetID,
		Prompt:     prompt,
		Status:     JobStatusPending,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}, nil
}

// Terminal reports whether the job reached a final state.
func (j *GenerationJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// MarkProcessing moves a pending job to processing.
func (j *GenerationJob) MarkProcessing() error {
	if j.Status != JobStatusPending {
		return domain.ErrInvalidTransition
	}
	j.Status = JobStatusProcessing
	return nil
}

// Complete moves a processing job to completed and attaches the backend
// payload.
func (j *GenerationJob) Complete(result map[string]interface{}) error {
	if j.Status != JobStatusProcessing {
		return domain.ErrInvalidTransition
	}
	j.Status = JobStatusCompleted
	j.ResultData = result
	j.ErrorMessage = ""
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

// Fail moves a processing job to failed with a human-readable message.
// A failed job is a permanent record; it is never requeued.
func (j *GenerationJob) Fail(message string) error {
	if j.Status != JobStatusProcessing {
		return domain.ErrInvalidTransition
	}
	j.Status = JobStatusFailed
	j.ResultData = nil
	j.ErrorMessage = message
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

// ResultContent returns the generated text payload of a completed text job.
func (j *GenerationJob) ResultContent() string {
	if j.ResultData == nil {
		return ""
	}
	if s, ok := j.ResultData["content"].(string); ok {
		return s
	}
	return ""
}

// ShouldPoll is the predicate observers use to decide whether to keep
// re-issuing the job list query: true while any observed job is still
// pending or processing.
func ShouldPoll(jobs []*GenerationJob) bool {
	for _, j := range jobs {
		if !j.Terminal() {
			return true
		}
	}
	return false
}
