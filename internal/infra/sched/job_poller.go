package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-content-platform/internal/domain/model"
)

// JobLister is the minimal surface the poller needs from the orchestrator.
type JobLister interface {
	ListAllJobs(ctx context.Context) ([]*model.GenerationJob, error)
}

// Observer receives each fresh job list while polling is active.
type Observer func(jobs []*model.GenerationJob)

// JobPoller re-issues the job list query on a fixed interval, but only
// while some observed job is still pending or processing. Once every job is
// terminal it idles, bounding polling volume to bursts around active work.
// Nudge wakes an idle poller when new work is created.
type JobPoller struct {
	interval time.Duration
	lister   JobLister
	observer Observer
	nudge    chan struct{}
	log      *zerolog.Logger
}

func NewJobPoller(interval time.Duration, lister JobLister, observer Observer, logger *zerolog.Logger) *JobPoller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	pollLog := logger.With().Str("component", "JobPoller").Logger()
	return &JobPoller{
		interval: interval,
		lister:   lister,
		observer: observer,
		nudge:    make(chan struct{}, 1),
		log:      &pollLog,
	}
}

// Nudge wakes the poller; safe to call from any goroutine, never blocks.
func (p *JobPoller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (p *JobPoller) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("job poller started")
	active := true // one initial poll picks up pre-existing work

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if active {
			active = p.pollOnce(ctx)
		}
		select {
		case <-ctx.Done():
			p.log.Info().Msg("job poller stopping")
			return ctx.Err()
		case <-p.nudge:
			active = true
		case <-ticker.C:
			// next iteration polls only while active
		}
	}
}

// pollOnce lists jobs, informs the observer and reports whether polling
// should continue.
func (p *JobPoller) pollOnce(ctx context.Context) bool {
	jobs, err := p.lister.ListAllJobs(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("job list failed")
		return true // transient; keep polling
	}
	if p.observer != nil {
		p.observer(jobs)
	}
	if !model.ShouldPoll(jobs) {
		p.log.Debug().Int("jobs", len(jobs)).Msg("all jobs terminal, idling")
		return false
	}
	return true
}
