package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/learngvrk/claude-code-skills/constants"
	"github.com/learngvrk/claude-code-skills/internal/jobstore"
	"github.com/learngvrk/claude-code-skills/internal/journal"
)

// Service is the submission surface used by the HTTP layer: it creates the
// job record and hands the work to the queue without ever waiting on a
// pipeline step.
type Service struct {
	store   jobstore.Store
	queue   *JobQueue
	journal *journal.Journal
	logger  *slog.Logger
}

func NewService(store jobstore.Store, queue *JobQueue, jrnl *journal.Journal, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, queue: queue, journal: jrnl, logger: logger}
}

// Start creates the job, schedules it, and returns the identifier
// immediately. The caller must not assume the job has progressed past
// queued when this returns.
func (s *Service) Start(inputPath, outputFilename, displayName string) uuid.UUID {
	jobID := s.store.Create(displayName)
	s.journal.Record(context.Background(), journal.Event{
		JobID:  jobID,
		Status: constants.JobStatusQueued,
	})
	s.queue.Enqueue(Request{
		JobID:          jobID,
		InputPath:      inputPath,
		OutputFilename: outputFilename,
		DisplayName:    displayName,
		Policy:         AbortOnPageError,
	})
	s.logger.Info("job submitted", "job_id", jobID, "source", displayName)
	return jobID
}

// GetStatus returns a snapshot of the job, or ok=false if unknown.
func (s *Service) GetStatus(jobID uuid.UUID) (jobstore.Job, bool) {
	return s.store.Get(jobID)
}

// Jobs returns snapshots of all jobs, for the report export.
func (s *Service) Jobs() []jobstore.Job {
	return s.store.List()
}
