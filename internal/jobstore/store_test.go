package jobstore

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learngvrk/claude-code-skills/constants"
)

func TestCreateInitialState(t *testing.T) {
	s := NewMemoryStore()
	id := s.Create("notes.pdf")

	job, ok := s.Get(id)
	if !ok {
		t.Fatalf("Get(%s) reported not found for a freshly created job", id)
	}
	if job.Status != constants.JobStatusQueued {
		t.Fatalf("initial status = %q, want %q", job.Status, constants.JobStatusQueued)
	}
	if job.Progress != 0 || job.Total != 0 {
		t.Fatalf("initial counters = %d/%d, want 0/0", job.Progress, job.Total)
	}
	if job.OutputFilename != "" || job.Error != "" {
		t.Fatalf("new job must have neither output nor error set")
	}
	if job.SourceName != "notes.pdf" {
		t.Fatalf("source name = %q, want notes.pdf", job.SourceName)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Get(uuid.New()); ok {
		t.Fatal("Get(unknown id) must report not found")
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	s := NewMemoryStore()
	// must not panic or create a record
	s.Update(uuid.New(), ProgressUpdate(3))
	if got := len(s.List()); got != 0 {
		t.Fatalf("update of unknown id created %d records", got)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	id := s.Create("a.pdf")

	before, _ := s.Get(id)
	s.Update(id, StatusUpdate(constants.JobStatusRendering))

	if before.Status != constants.JobStatusQueued {
		t.Fatal("earlier snapshot mutated by a later update")
	}
	after, _ := s.Get(id)
	if after.Status != constants.JobStatusRendering {
		t.Fatalf("status after update = %q, want %q", after.Status, constants.JobStatusRendering)
	}
}

func TestPartialUpdateMerges(t *testing.T) {
	s := NewMemoryStore()
	id := s.Create("a.pdf")

	total := 5
	s.Update(id, Update{Total: &total})
	s.Update(id, ProgressUpdate(2))

	job, _ := s.Get(id)
	if job.Total != 5 {
		t.Fatalf("total = %d after unrelated progress update, want 5", job.Total)
	}
	if job.Progress != 2 {
		t.Fatalf("progress = %d, want 2", job.Progress)
	}
	if job.Status != constants.JobStatusQueued {
		t.Fatalf("status = %q changed by counter-only updates", job.Status)
	}
}

func TestTerminalUpdateExclusivity(t *testing.T) {
	s := NewMemoryStore()

	okID := s.Create("ok.pdf")
	s.Update(okID, CompleteUpdate("ok.docx"))
	job, _ := s.Get(okID)
	if job.Status != constants.JobStatusComplete || job.OutputFilename != "ok.docx" || job.Error != "" {
		t.Fatalf("complete job = %+v, want output set and error empty", job)
	}

	badID := s.Create("bad.pdf")
	s.Update(badID, FailureUpdate("render failed"))
	job, _ = s.Get(badID)
	if job.Status != constants.JobStatusError || job.Error == "" || job.OutputFilename != "" {
		t.Fatalf("failed job = %+v, want error set and output empty", job)
	}
}

func TestUpdateRejectsBackwardTransitions(t *testing.T) {
	s := NewMemoryStore()
	id := s.Create("a.pdf")

	s.Update(id, StatusUpdate(constants.JobStatusOCR))
	s.Update(id, StatusUpdate(constants.JobStatusRendering)) // backward
	job, _ := s.Get(id)
	if job.Status != constants.JobStatusOCR {
		t.Fatalf("status regressed to %q", job.Status)
	}

	s.Update(id, CompleteUpdate("a.docx"))
	s.Update(id, FailureUpdate("late failure")) // out of a terminal state
	job, _ = s.Get(id)
	if job.Status != constants.JobStatusComplete {
		t.Fatalf("terminal state overwritten: %q", job.Status)
	}
	if job.Error != "" || job.OutputFilename != "a.docx" {
		t.Fatalf("dropped update still mutated fields: %+v", job)
	}
}

// Concurrent updates to different jobs must never interfere with each
// other's fields.
func TestConcurrentUpdateIsolation(t *testing.T) {
	s := NewMemoryStore()
	const jobs = 8
	const steps = 100

	ids := make([]uuid.UUID, jobs)
	for i := range ids {
		ids[i] = s.Create("x.pdf")
		total := steps
		s.Update(ids[i], Update{Total: &total})
	}

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			for p := 1; p <= steps; p++ {
				s.Update(id, ProgressUpdate(p))
			}
		}(ids[i])
	}
	wg.Wait()

	for _, id := range ids {
		job, _ := s.Get(id)
		if job.Progress != steps || job.Total != steps {
			t.Fatalf("job %s = %d/%d, want %d/%d", id, job.Progress, job.Total, steps, steps)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	first := s.Create("first.pdf")
	second := s.Create("second.pdf")
	third := s.Create("third.pdf")

	// Pin creation times; clock resolution can tie them otherwise.
	base := time.Now()
	s.jobs[first].CreatedAt = base.Add(-2 * time.Hour)
	s.jobs[second].CreatedAt = base.Add(-1 * time.Hour)
	s.jobs[third].CreatedAt = base

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d jobs, want 3", len(list))
	}
	want := []uuid.UUID{third, second, first}
	for i, j := range list {
		if j.ID != want[i] {
			t.Fatalf("List()[%d] = %s, want %s", i, j.ID, want[i])
		}
	}
}
