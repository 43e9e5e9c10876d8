// scribed is the OCR conversion service: upload a scanned handwritten PDF,
// poll the job, download the transcribed Word document.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/learngvrk/claude-code-skills/internal/common"
	"github.com/learngvrk/claude-code-skills/internal/jobstore"
	"github.com/learngvrk/claude-code-skills/internal/journal"
	"github.com/learngvrk/claude-code-skills/internal/pdfops"
	"github.com/learngvrk/claude-code-skills/internal/pipeline"
	"github.com/learngvrk/claude-code-skills/internal/render"
	"github.com/learngvrk/claude-code-skills/internal/server"
	"github.com/learngvrk/claude-code-skills/internal/skills"
	"github.com/learngvrk/claude-code-skills/internal/vision"
	"github.com/learngvrk/claude-code-skills/internal/vision/anthropic"
	"github.com/learngvrk/claude-code-skills/internal/vision/tesseract"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, dir := range []string{cfg.Server.UploadDir, cfg.Server.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
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
	logger.Info("ocr engine selected", "engine", cfg.Vision.Engine)

	var jrnl *journal.Journal
	if cfg.Journal.Path != "" {
		var err error
		jrnl, err = journal.Open(context.Background(), cfg.Journal.Path, logger)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jrnl.Close()
	}

	store := jobstore.NewMemoryStore()
	runner := pipeline.NewRunner(store, renderer, extractor, jrnl, cfg.Server.OutputDir, logger)
	queue := pipeline.NewJobQueue(runner, logger,
		pipeline.WithWorkers(cfg.Jobs.Workers),
		pipeline.WithQueueSize(cfg.Jobs.QueueSize),
		pipeline.WithJobTimeout(cfg.Jobs.Timeout),
	)
	svc := pipeline.NewService(store, queue, jrnl, logger)

	registry := skills.NewRegistry(logger)
	if err := registry.Register(skills.NewPDFSkill(ops)); err != nil {
		return fmt.Errorf("register pdf skill: %w", err)
	}

	srv := server.New(svc, registry, cfg.Server, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}
