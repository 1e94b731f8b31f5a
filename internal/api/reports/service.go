// Package reports wraps the Marquee report job endpoints: scheduling a
// report run and polling the resulting job to completion.
package reports

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gsquant/marquee-go/internal/session"
)

// Status is a report job lifecycle state.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCancelled
}

// Job is a single run of a report.
type Job struct {
	ID        string `json:"id"`
	ReportID  string `json:"reportId"`
	Status    Status `json:"status"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ScheduleParams bounds the date range of a report run. Dates are ISO 8601
// (YYYY-MM-DD), as the API expects.
type ScheduleParams struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// ErrJobFailed is returned when a polled job reaches the error or cancelled
// state.
var ErrJobFailed = errors.New("report job failed")

// ErrPollLimit is returned when a job is still running after the configured
// number of polls.
var ErrPollLimit = errors.New("report job still running after poll limit")

type Service struct {
	session      *session.Session
	pollInterval time.Duration
	maxPolls     int
	onPoll       func(Job)
}

// ServiceOption tunes the polling behavior.
type ServiceOption func(*Service)

func WithPollInterval(d time.Duration) ServiceOption {
	return func(s *Service) { s.pollInterval = d }
}

func WithMaxPolls(n int) ServiceOption {
	return func(s *Service) { s.maxPolls = n }
}

// WithPollObserver registers a callback invoked with the job state after
// every poll, for progress reporting.
func WithPollObserver(fn func(Job)) ServiceOption {
	return func(s *Service) { s.onPoll = fn }
}

func NewService(sess *session.Session, opts ...ServiceOption) *Service {
	s := &Service{
		session:      sess,
		pollInterval: 5 * time.Second,
		maxPolls:     120,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues a run of the report and returns the created job.
func (s *Service) Schedule(ctx context.Context, reportID string, params ScheduleParams) (Job, error) {
	var job Job
	path := "/reports/" + url.PathEscape(reportID) + "/schedule"
	if err := s.session.Post(ctx, path, params, &job); err != nil {
		return Job{}, fmt.Errorf("schedule report %s: %w", reportID, err)
	}
	log.Info().
		Str("report_id", reportID).
		Str("job_id", job.ID).
		Msg("report job scheduled")
	return job, nil
}

// Job fetches the current state of a report job.
func (s *Service) Job(ctx context.Context, jobID string) (Job, error) {
	var job Job
	path := "/reports/jobs/" + url.PathEscape(jobID)
	if err := s.session.Get(ctx, path, &job); err != nil {
		return Job{}, fmt.Errorf("get report job %s: %w", jobID, err)
	}
	return job, nil
}

// WaitForCompletion polls the job at a fixed interval until it reaches a
// terminal state, the poll limit is hit, or the context is cancelled. A job
// ending in error or cancelled returns the job alongside ErrJobFailed.
func (s *Service) WaitForCompletion(ctx context.Context, jobID string) (Job, error) {
	for attempt := 0; attempt < s.maxPolls; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.pollInterval):
			case <-ctx.Done():
				return Job{}, ctx.Err()
			}
		}

		job, err := s.Job(ctx, jobID)
		if err != nil {
			return Job{}, err
		}

		log.Debug().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Int("attempt", attempt+1).
			Msg("report job polled")
		if s.onPoll != nil {
			s.onPoll(job)
		}

		if !job.Status.Terminal() {
			continue
		}
		if job.Status != StatusDone {
			return job, fmt.Errorf("job %s ended %s: %w", jobID, job.Status, ErrJobFailed)
		}
		return job, nil
	}
	return Job{}, fmt.Errorf("job %s: %w", jobID, ErrPollLimit)
}
