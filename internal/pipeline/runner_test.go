package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/learngvrk/claude-code-skills/constants"
	"github.com/learngvrk/claude-code-skills/internal/jobstore"
)

// fakeRenderer returns canned pages or an error.
type fakeRenderer struct {
	pages [][]byte
	err   error
}

func (f *fakeRenderer) Render(ctx context.Context, path string) ([][]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// fakeExtractor transcribes page bytes to "text:<page>" and records the
// order of calls, failing any page listed in failPages. It also detects
// overlapping invocations.
type fakeExtractor struct {
	mu        sync.Mutex
	active    int
	overlap   bool
	calls     [][]byte
	failPages map[int]error // 0-based call index -> error
	panicOn   int           // 1-based call number to panic on, 0 = never
}

func (f *fakeExtractor) ExtractPage(ctx context.Context, page []byte) (string, error) {
	f.mu.Lock()
	if f.active > 0 {
		f.overlap = true
	}
	f.active++
	idx := len(f.calls)
	f.calls = append(f.calls, page)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.panicOn > 0 && idx+1 == f.panicOn {
		panic("extractor blew up")
	}
	if err, ok := f.failPages[idx]; ok {
		return "", err
	}
	return fmt.Sprintf("text:%s", page), nil
}

// recordingStore wraps a MemoryStore and keeps a snapshot after every
// update, so a test can replay what pollers could have observed.
type recordingStore struct {
	*jobstore.MemoryStore
	mu        sync.Mutex
	snapshots []jobstore.Job
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: jobstore.NewMemoryStore()}
}

func (s *recordingStore) Update(id uuid.UUID, upd jobstore.Update) {
	s.MemoryStore.Update(id, upd)
	if job, ok := s.MemoryStore.Get(id); ok {
		s.mu.Lock()
		s.snapshots = append(s.snapshots, job)
		s.mu.Unlock()
	}
}

func pageBytes(n int) [][]byte {
	pages := make([][]byte, n)
	for i := range pages {
		pages[i] = []byte(fmt.Sprintf("page-%d", i+1))
	}
	return pages
}

// tempInput creates a fake uploaded PDF whose deletion the tests assert.
func tempInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runJob(t *testing.T, store jobstore.Store, rend *fakeRenderer, ext *fakeExtractor, policy PageFailurePolicy) (uuid.UUID, string, string) {
	t.Helper()
	outDir := t.TempDir()
	input := tempInput(t)
	r := NewRunner(store, rend, ext, nil, outDir, nil)

	jobID := store.Create("scan.pdf")
	r.Run(context.Background(), Request{
		JobID:          jobID,
		InputPath:      input,
		OutputFilename: "scan.docx",
		DisplayName:    "scan.pdf",
		Policy:         policy,
	})
	return jobID, input, outDir
}

// Scenario A: three pages, success path, observable status progression.
func TestRunSuccessLifecycle(t *testing.T) {
	store := newRecordingStore()
	ext := &fakeExtractor{}
	jobID, input, outDir := runJob(t, store, &fakeRenderer{pages: pageBytes(3)}, ext, AbortOnPageError)

	job, ok := store.Get(jobID)
	if !ok {
		t.Fatal("job vanished")
	}
	if job.Status != constants.JobStatusComplete {
		t.Fatalf("final status = %q (error=%q), want complete", job.Status, job.Error)
	}
	if job.Total != 3 || job.Progress != 3 {
		t.Fatalf("counters = %d/%d, want 3/3", job.Progress, job.Total)
	}
	if job.OutputFilename != "scan.docx" || job.Error != "" {
		t.Fatalf("terminal fields = %+v", job)
	}
	if _, err := os.Stat(filepath.Join(outDir, "scan.docx")); err != nil {
		t.Fatalf("output document missing: %v", err)
	}
	// P3: the uploaded input is gone after the terminal state.
	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Fatalf("input not cleaned up: %v", err)
	}

	// Status sequence seen by pollers is monotonic along the machine.
	wantOrder := []constants.JobStatus{
		constants.JobStatusRendering,
		constants.JobStatusOCR,
		constants.JobStatusBuilding,
		constants.JobStatusComplete,
	}
	var seen []constants.JobStatus
	for _, snap := range store.snapshots {
		if len(seen) == 0 || seen[len(seen)-1] != snap.Status {
			seen = append(seen, snap.Status)
		}
	}
	if len(seen) != len(wantOrder) {
		t.Fatalf("status sequence = %v, want %v", seen, wantOrder)
	}
	for i := range seen {
		if seen[i] != wantOrder[i] {
			t.Fatalf("status sequence = %v, want %v", seen, wantOrder)
		}
	}
}

// P1: progress is non-decreasing and never exceeds total.
func TestProgressMonotonic(t *testing.T) {
	store := newRecordingStore()
	ext := &fakeExtractor{}
	runJob(t, store, &fakeRenderer{pages: pageBytes(5)}, ext, AbortOnPageError)

	prev := 0
	for _, snap := range store.snapshots {
		if snap.Progress < prev {
			t.Fatalf("progress regressed: %d after %d", snap.Progress, prev)
		}
		if snap.Total > 0 && snap.Progress > snap.Total {
			t.Fatalf("progress %d exceeds total %d", snap.Progress, snap.Total)
		}
		prev = snap.Progress
	}
	if prev != 5 {
		t.Fatalf("final progress = %d, want 5", prev)
	}
}

// P4: the extractor runs exactly once per page, in page order, with no
// two invocations for the job overlapping.
func TestSequentialExtraction(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ext := &fakeExtractor{}
	runJob(t, store, &fakeRenderer{pages: pageBytes(4)}, ext, AbortOnPageError)

	if len(ext.calls) != 4 {
		t.Fatalf("extractor called %d times, want 4", len(ext.calls))
	}
	for i, call := range ext.calls {
		want := fmt.Sprintf("page-%d", i+1)
		if string(call) != want {
			t.Fatalf("call %d got %q, want %q", i, call, want)
		}
	}
	if ext.overlap {
		t.Fatal("extractor invocations overlapped")
	}
}

// Scenario B: rendering failure is terminal error with message, no output.
func TestRenderFailure(t *testing.T) {
	store := jobstore.NewMemoryStore()
	jobID, input, _ := runJob(t, store, &fakeRenderer{err: errors.New("corrupt xref table")}, &fakeExtractor{}, AbortOnPageError)

	job, _ := store.Get(jobID)
	if job.Status != constants.JobStatusError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if job.Error == "" || job.OutputFilename != "" {
		t.Fatalf("terminal fields = %+v, want error set and output empty", job)
	}
	// P3 holds on the failure path too.
	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Fatal("input not cleaned up after failure")
	}
}

// Scenario C: a zero-page render ends in error, not an empty document.
func TestZeroPagesIsError(t *testing.T) {
	store := jobstore.NewMemoryStore()
	jobID, _, outDir := runJob(t, store, &fakeRenderer{pages: nil}, &fakeExtractor{}, AbortOnPageError)

	job, _ := store.Get(jobID)
	if job.Status != constants.JobStatusError {
		t.Fatalf("status = %q, want error for zero-page input", job.Status)
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Fatalf("output dir not empty: %v", entries)
	}
}

func TestAbortPolicyFailsJobOnPageError(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ext := &fakeExtractor{failPages: map[int]error{1: errors.New("api overloaded")}}
	jobID, _, _ := runJob(t, store, &fakeRenderer{pages: pageBytes(3)}, ext, AbortOnPageError)

	job, _ := store.Get(jobID)
	if job.Status != constants.JobStatusError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if len(ext.calls) != 2 {
		t.Fatalf("extraction continued after failure: %d calls", len(ext.calls))
	}
}

func TestBlankPolicyKeepsGoing(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ext := &fakeExtractor{failPages: map[int]error{1: errors.New("api overloaded")}}
	jobID, _, _ := runJob(t, store, &fakeRenderer{pages: pageBytes(3)}, ext, BlankOnPageError)

	job, _ := store.Get(jobID)
	if job.Status != constants.JobStatusComplete {
		t.Fatalf("status = %q (error=%q), want complete under blank policy", job.Status, job.Error)
	}
	if job.Progress != 3 || job.Total != 3 {
		t.Fatalf("counters = %d/%d, want 3/3 (blank page keeps the count aligned)", job.Progress, job.Total)
	}
	if len(ext.calls) != 3 {
		t.Fatalf("extractor called %d times, want 3", len(ext.calls))
	}
}

// A panic inside a collaborator must still leave a terminal error state
// and perform cleanup.
func TestPanicRecovery(t *testing.T) {
	store := jobstore.NewMemoryStore()
	ext := &fakeExtractor{panicOn: 2}
	jobID, input, _ := runJob(t, store, &fakeRenderer{pages: pageBytes(3)}, ext, AbortOnPageError)

	job, _ := store.Get(jobID)
	if job.Status != constants.JobStatusError {
		t.Fatalf("status after panic = %q, want error", job.Status)
	}
	if job.Error == "" {
		t.Fatal("error message empty after panic")
	}
	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Fatal("input not cleaned up after panic")
	}
}
