// Package pipeline drives a conversion job through its lifecycle:
//
//	queued → rendering_pages → running_ocr → building_document → complete
//	                                       ↘ error (from any non-terminal state)
//
// Each job is executed by exactly one runner invocation, which is the sole
// writer of that job's record. Progress is written to the job store after
// every page so pollers can observe it mid-flight.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/learngvrk/claude-code-skills/constants"
	"github.com/learngvrk/claude-code-skills/internal/docx"
	"github.com/learngvrk/claude-code-skills/internal/jobstore"
	"github.com/learngvrk/claude-code-skills/internal/journal"
	"github.com/learngvrk/claude-code-skills/internal/render"
	"github.com/learngvrk/claude-code-skills/internal/vision"
)

// PageFailurePolicy decides what a failed page extraction does to the job.
type PageFailurePolicy int

const (
	// AbortOnPageError fails the whole job on the first page error.
	// This is the service behavior: no partial output is ever exposed.
	AbortOnPageError PageFailurePolicy = iota
	// BlankOnPageError substitutes an empty page and keeps going,
	// keeping the page count aligned. This is the batch-CLI behavior.
	BlankOnPageError
)

// Request describes one job execution.
type Request struct {
	JobID          uuid.UUID
	InputPath      string // uploaded temp PDF, deleted on every exit path
	OutputFilename string // target .docx name within OutputDir
	DisplayName    string // user's original filename, for document metadata
	Policy         PageFailurePolicy
}

// Runner executes jobs against the three collaborators.
type Runner struct {
	store     jobstore.Store
	renderer  render.PageRenderer
	extractor vision.TextExtractor
	journal   *journal.Journal // nil disables journaling
	outputDir string
	logger    *slog.Logger
}

func NewRunner(
	store jobstore.Store,
	renderer render.PageRenderer,
	extractor vision.TextExtractor,
	jrnl *journal.Journal,
	outputDir string,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:     store,
		renderer:  renderer,
		extractor: extractor,
		journal:   jrnl,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Run drives one job to a terminal state. It never returns an error to the
// scheduler: every failure is recorded on the job itself, and the uploaded
// input is deleted no matter how the run ends.
func (r *Runner) Run(ctx context.Context, req Request) {
	defer func() {
		// Clean up the uploaded PDF regardless of success/failure.
		// A cleanup failure is swallowed: the outcome is already decided.
		if err := os.Remove(req.InputPath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("pipeline.cleanup.failed", "job_id", req.JobID, "path", req.InputPath, "error", err)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(req.JobID, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	start := time.Now()

	// rendering_pages
	r.transition(req.JobID, constants.JobStatusRendering)
	pages, err := r.renderer.Render(ctx, req.InputPath)
	if err != nil {
		r.fail(req.JobID, "rendering failed: "+err.Error())
		return
	}
	total := len(pages)

	// running_ocr
	r.update(req.JobID, jobstore.Update{
		Total:  &total,
		Status: statusPtr(constants.JobStatusOCR),
	})

	// Strictly sequential, in page order: the hosted model is
	// rate-limited, so per-page calls for one job must never overlap.
	texts := make([]string, 0, total)
	for i, page := range pages {
		text, err := r.extractor.ExtractPage(ctx, page)
		if err != nil {
			if req.Policy == BlankOnPageError {
				r.logger.Warn("pipeline.page.failed_blanked",
					"job_id", req.JobID, "page", i+1, "total", total, "error", err)
				text = ""
			} else {
				r.fail(req.JobID, fmt.Sprintf("text extraction failed on page %d/%d: %v", i+1, total, err))
				return
			}
		}
		texts = append(texts, text)
		r.update(req.JobID, jobstore.ProgressUpdate(i + 1))
	}

	// building_document
	r.transition(req.JobID, constants.JobStatusBuilding)
	outputPath := filepath.Join(r.outputDir, req.OutputFilename)
	if err := docx.Build(texts, outputPath, req.DisplayName); err != nil {
		r.fail(req.JobID, "building document failed: "+err.Error())
		return
	}

	// complete
	r.update(req.JobID, jobstore.CompleteUpdate(req.OutputFilename))
	r.logger.Info("pipeline.complete",
		"job_id", req.JobID,
		"pages", total,
		"output", req.OutputFilename,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func (r *Runner) transition(jobID uuid.UUID, st constants.JobStatus) {
	r.update(jobID, jobstore.StatusUpdate(st))
}

func (r *Runner) fail(jobID uuid.UUID, msg string) {
	r.logger.Error("pipeline.failed", "job_id", jobID, "error", msg)
	r.update(jobID, jobstore.FailureUpdate(msg))
}

// update merges fields into the job record and mirrors the resulting
// snapshot into the journal.
func (r *Runner) update(jobID uuid.UUID, upd jobstore.Update) {
	r.store.Update(jobID, upd)
	if job, ok := r.store.Get(jobID); ok {
		r.journal.Record(context.Background(), journal.Event{
			JobID:    job.ID,
			Status:   job.Status,
			Progress: job.Progress,
			Total:    job.Total,
			Error:    job.Error,
		})
	}
}

func statusPtr(st constants.JobStatus) *constants.JobStatus { return &st }
