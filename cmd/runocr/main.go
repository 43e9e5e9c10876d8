// runocr converts one scanned PDF to a Word document from the command
// line, without the service. Pages that fail extraction become blank pages
// so the output keeps the original pagination.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/learngvrk/claude-code-skills/constants"
	"github.com/learngvrk/claude-code-skills/internal/common"
	"github.com/learngvrk/claude-code-skills/internal/jobstore"
	"github.com/learngvrk/claude-code-skills/internal/pdfops"
	"github.com/learngvrk/claude-code-skills/internal/pipeline"
	"github.com/learngvrk/claude-code-skills/internal/render"
	"github.com/learngvrk/claude-code-skills/internal/vision"
	"github.com/learngvrk/claude-code-skills/internal/vision/anthropic"
	"github.com/learngvrk/claude-code-skills/internal/vision/tesseract"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	abort := flag.Bool("abort-on-error", false, "fail the whole run on the first page error instead of inserting a blank page")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] input.pdf [output.docx]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)
	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".docx"
	if flag.NArg() == 2 {
		outputPath = flag.Arg(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	ops := pdfops.New(pdfops.Config{
		Qpdf:        cfg.PDF.Qpdf,
		Ghostscript: cfg.PDF.Ghostscript,
	}, logger)
	renderer := render.NewFitzRenderer(render.Config{DPI: cfg.Render.DPI}, ops, logger)

	var extractor vision.TextExtractor
	switch cfg.Vision.Engine {
	case "tesseract":
		extractor = tesseract.NewEngine(tesseract.Config{
			Language: cfg.Vision.Language,
			DPI:      cfg.Render.DPI,
		}, logger)
	default:
		extractor = anthropic.NewClient(anthropic.Config{
			APIKey:    cfg.Vision.APIKey,
			BaseURL:   cfg.Vision.BaseURL,
			Model:     cfg.Vision.Model,
			MaxTokens: cfg.Vision.MaxTokens,
			Prompt:    cfg.Vision.Prompt,
			Timeout:   cfg.Vision.Timeout,
		}, logger)
	}

	// The runner deletes its input when done; a batch run must not eat the
	// user's file, so it works from a throwaway copy.
	workCopy, err := copyToTemp(inputPath)
	if err != nil {
		return err
	}

	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	store := jobstore.NewMemoryStore()
	runner := pipeline.NewRunner(store, renderer, extractor, nil, outDir, logger)

	policy := pipeline.BlankOnPageError
	if *abort {
		policy = pipeline.AbortOnPageError
	}

	jobID := store.Create(filepath.Base(inputPath))
	runner.Run(context.Background(), pipeline.Request{
		JobID:          jobID,
		InputPath:      workCopy,
		OutputFilename: filepath.Base(outputPath),
		DisplayName:    filepath.Base(inputPath),
		Policy:         policy,
	})

	job, _ := store.Get(jobID)
	if job.Status != constants.JobStatusComplete {
		return fmt.Errorf("conversion failed: %s", job.Error)
	}

	fmt.Printf("converted %d page(s): %s\n", job.Total, outputPath)
	return nil
}

func copyToTemp(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	f, err := os.CreateTemp("", "runocr-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
