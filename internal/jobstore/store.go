// Package jobstore is the authoritative, concurrency-safe table of
// conversion jobs. Each job is written by exactly one pipeline runner and
// read by any number of status pollers; the store itself only ever hands
// out snapshot copies.
package jobstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learngvrk/claude-code-skills/constants"
)

// Job is one submitted conversion request and its tracked lifecycle state.
type Job struct {
	ID             uuid.UUID           `json:"id"`
	Status         constants.JobStatus `json:"status"`
	Progress       int                 `json:"progress"`
	Total          int                 `json:"total"`
	OutputFilename string              `json:"output_filename,omitempty"`
	Error          string              `json:"error,omitempty"`
	SourceName     string              `json:"source_name,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Update carries a partial set of fields to merge into a job record.
// Nil pointers leave the existing value untouched.
type Update struct {
	Status         *constants.JobStatus
	Progress       *int
	Total          *int
	OutputFilename *string
	Error          *string
}

// Store is the job table contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create allocates a new job in the queued state and returns its ID.
	// It never fails.
	Create(sourceName string) uuid.UUID
	// Get returns a snapshot copy of the job, or ok=false if unknown.
	Get(id uuid.UUID) (Job, bool)
	// Update merges the given fields into the job. Unknown IDs are a
	// no-op, not an error: the writer always created the record first.
	Update(id uuid.UUID, upd Update)
	// List returns snapshot copies of all jobs, newest first.
	List() []Job
}

// MemoryStore keeps jobs in a mutex-guarded map. Table-wide exclusion is
// fine at the expected job volume; no operation blocks longer than a copy.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

func (s *MemoryStore) Create(sourceName string) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	s.mu.Lock()
	s.jobs[id] = &Job{
		ID:         id,
		Status:     constants.JobStatusQueued,
		SourceName: sourceName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.mu.Unlock()
	return id
}

func (s *MemoryStore) Get(id uuid.UUID) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *MemoryStore) Update(id uuid.UUID, upd Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	// A status change that would move backward, or out of a terminal
	// state, drops the whole update: a stale writer must never undo a
	// terminal result or resurrect its output/error fields.
	if upd.Status != nil && !job.Status.CanAdvanceTo(*upd.Status) {
		return
	}
	if upd.Status != nil {
		job.Status = *upd.Status
	}
	if upd.Progress != nil {
		job.Progress = *upd.Progress
	}
	if upd.Total != nil {
		job.Total = *upd.Total
	}
	if upd.OutputFilename != nil {
		job.OutputFilename = *upd.OutputFilename
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}
	job.UpdatedAt = time.Now()
}

func (s *MemoryStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Helpers for building partial updates without pointer noise at call sites.

func StatusUpdate(st constants.JobStatus) Update { return Update{Status: &st} }

func ProgressUpdate(n int) Update { return Update{Progress: &n} }

func FailureUpdate(msg string) Update {
	st := constants.JobStatusError
	return Update{Status: &st, Error: &msg}
}

func CompleteUpdate(outputFilename string) Update {
	st := constants.JobStatusComplete
	return Update{Status: &st, OutputFilename: &outputFilename}
}
