// Package pdfops implements PDF manipulation (merge, page extraction,
// repair, info) by shelling out to qpdf, with Ghostscript as the repair
// fallback. Structurally damaged inputs are repaired transparently: any
// read that fails is retried once through a repaired copy.
package pdfops

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the external tool binaries.
type Config struct {
	Qpdf        string // binary name or absolute path; if empty -> "qpdf"
	Ghostscript string // binary name or absolute path; if empty -> "gs"
}

// Ops exposes the PDF operations over the configured tools.
type Ops struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Ops {
	if cfg.Qpdf == "" {
		cfg.Qpdf = "qpdf"
	}
	if cfg.Ghostscript == "" {
		cfg.Ghostscript = "gs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ops{cfg: cfg, runner: newExecRunner(logger), logger: logger}
}

// InfoResult describes a PDF file.
type InfoResult struct {
	File         string `json:"file"`
	TotalPages   int    `json:"total_pages"`
	RepairNeeded bool   `json:"repair_needed"`
	RepairedFile string `json:"repaired_file,omitempty"`
}

// MergedFile records one input's contribution to a merge.
type MergedFile struct {
	File     string `json:"file"`
	Pages    int    `json:"pages"`
	Repaired bool   `json:"repaired"`
}

// MergeResult summarizes a merge operation.
type MergeResult struct {
	OutputFile  string       `json:"output_file"`
	FilesMerged int          `json:"files_merged"`
	TotalPages  int          `json:"total_pages"`
	Files       []MergedFile `json:"files_info"`
}

// ExtractResult summarizes a page-range extraction.
type ExtractResult struct {
	InputFile          string `json:"input_file"`
	OutputFile         string `json:"output_file"`
	TotalPagesInSource int    `json:"total_pages_in_source"`
	PagesExtracted     int    `json:"pages_extracted"`
	PageRange          string `json:"page_range"`
	RepairNeeded       bool   `json:"repair_needed"`
}

// Info returns page count and metadata, repairing the file first if it
// cannot be read directly.
func (o *Ops) Info(ctx context.Context, path string) (InfoResult, error) {
	readable, repaired, err := o.openWithRepair(ctx, path)
	if err != nil {
		return InfoResult{}, err
	}

	pages, err := o.pageCount(ctx, readable)
	if err != nil {
		return InfoResult{}, err
	}
	res := InfoResult{File: path, TotalPages: pages, RepairNeeded: repaired != ""}
	if repaired != "" {
		res.RepairedFile = repaired
	}
	return res, nil
}

// Merge concatenates the inputs, in order, into a single output PDF.
func (o *Ops) Merge(ctx context.Context, inputPaths []string, outputPath string) (MergeResult, error) {
	if len(inputPaths) == 0 {
		return MergeResult{}, fmt.Errorf("no input files provided")
	}

	res := MergeResult{OutputFile: outputPath, FilesMerged: len(inputPaths)}
	readables := make([]string, 0, len(inputPaths))

	for _, path := range inputPaths {
		readable, repaired, err := o.openWithRepair(ctx, path)
		if err != nil {
			return MergeResult{}, fmt.Errorf("merge input %s: %w", path, err)
		}
		pages, err := o.pageCount(ctx, readable)
		if err != nil {
			return MergeResult{}, fmt.Errorf("merge input %s: %w", path, err)
		}
		res.Files = append(res.Files, MergedFile{File: path, Pages: pages, Repaired: repaired != ""})
		res.TotalPages += pages
		readables = append(readables, readable)
	}

	// qpdf --empty --pages a.pdf b.pdf -- out.pdf
	args := []string{"--empty", "--pages"}
	args = append(args, readables...)
	args = append(args, "--", outputPath)
	if _, errb, err := o.runner.Run(ctx, o.cfg.Qpdf, args...); err != nil {
		return MergeResult{}, fmt.Errorf("qpdf merge: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	o.logger.Info("pdfops.merge.ok",
		"files", res.FilesMerged, "pages", res.TotalPages, "output", outputPath)
	return res, nil
}

// ExtractPages copies pages [startPage, endPage] (0-indexed, inclusive)
// into a new PDF. Out-of-range bounds are clamped, matching the behavior
// callers of the original tool rely on.
func (o *Ops) ExtractPages(ctx context.Context, inputPath, outputPath string, startPage, endPage int) (ExtractResult, error) {
	readable, repaired, err := o.openWithRepair(ctx, inputPath)
	if err != nil {
		return ExtractResult{}, err
	}

	total, err := o.pageCount(ctx, readable)
	if err != nil {
		return ExtractResult{}, err
	}
	if total == 0 {
		return ExtractResult{}, fmt.Errorf("%s has no pages", inputPath)
	}

	if startPage < 0 {
		startPage = 0
	}
	if startPage > total-1 {
		startPage = total - 1
	}
	if endPage > total-1 {
		endPage = total - 1
	}
	if endPage < startPage {
		return ExtractResult{}, fmt.Errorf("page range %d-%d is empty after clamping", startPage, endPage)
	}

	// qpdf in.pdf --pages . 2-5 -- out.pdf  (qpdf ranges are 1-based)
	rng := fmt.Sprintf("%d-%d", startPage+1, endPage+1)
	if _, errb, err := o.runner.Run(ctx, o.cfg.Qpdf, readable, "--pages", ".", rng, "--", outputPath); err != nil {
		return ExtractResult{}, fmt.Errorf("qpdf extract: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	res := ExtractResult{
		InputFile:          inputPath,
		OutputFile:         outputPath,
		TotalPagesInSource: total,
		PagesExtracted:     endPage - startPage + 1,
		PageRange:          fmt.Sprintf("%d-%d", startPage, endPage),
		RepairNeeded:       repaired != "",
	}
	o.logger.Info("pdfops.extract.ok",
		"input", inputPath, "range", res.PageRange, "pages", res.PagesExtracted)
	return res, nil
}

// Repair rewrites a damaged PDF: qpdf first, Ghostscript if that fails.
func (o *Ops) Repair(ctx context.Context, inputPath, outputPath string) error {
	if _, _, err := o.runner.Run(ctx, o.cfg.Qpdf, inputPath, outputPath); err == nil {
		o.logger.Info("pdfops.repair.ok", "tool", "qpdf", "input", inputPath)
		return nil
	}
	_, errb, err := o.runner.Run(ctx, o.cfg.Ghostscript,
		"-o", outputPath, "-sDEVICE=pdfwrite", "-dPDFSETTINGS=/prepress", inputPath)
	if err != nil {
		return fmt.Errorf("all repair attempts failed: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	o.logger.Info("pdfops.repair.ok", "tool", "ghostscript", "input", inputPath)
	return nil
}

// pageCount runs qpdf --show-npages on an already readable file.
func (o *Ops) pageCount(ctx context.Context, path string) (int, error) {
	out, errb, err := o.runner.Run(ctx, o.cfg.Qpdf, "--show-npages", path)
	if err != nil {
		return 0, fmt.Errorf("qpdf --show-npages: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("parse page count %q: %w", strings.TrimSpace(string(out)), err)
	}
	return n, nil
}

// openWithRepair verifies path is readable by qpdf; if not, repairs it to
// a sibling *_repaired.pdf and returns that path. The repaired copy is
// left on disk and reported, so callers can keep working with it.
// Returns (readablePath, repairedPath, err); repairedPath is empty when no
// repair was needed.
func (o *Ops) openWithRepair(ctx context.Context, path string) (string, string, error) {
	if _, _, err := o.runner.Run(ctx, o.cfg.Qpdf, "--check", path); err == nil {
		return path, "", nil
	}

	repaired := strings.TrimSuffix(path, filepath.Ext(path)) + "_repaired.pdf"
	if err := o.Repair(ctx, path, repaired); err != nil {
		return "", "", fmt.Errorf("failed to read %s and repair attempts failed: %w", path, err)
	}
	if _, _, err := o.runner.Run(ctx, o.cfg.Qpdf, "--check", repaired); err != nil {
		return "", "", fmt.Errorf("reading repaired %s failed: %w", repaired, err)
	}
	o.logger.Warn("pdfops.repair_applied", "input", path, "repaired", repaired)
	return repaired, repaired, nil
}
