// Package tesseract implements vision.TextExtractor with a local Tesseract
// install via gosseract. Useful when no API key is configured or for
// offline runs; transcription quality on handwriting is well below the
// hosted vision model.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// Config for the local OCR engine.
type Config struct {
	Language string // trained data language, default "eng"
	DPI      int    // hint for layout heuristics; zero means unknown
}

type Engine struct {
	cfg           Config
	logger        *slog.Logger
	clientFactory func() *gosseract.Client
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger, clientFactory: gosseract.NewClient}
}

// ExtractPage recognizes one PNG page. A fresh client per call keeps the
// engine safe for use from multiple job runners.
func (e *Engine) ExtractPage(ctx context.Context, pagePNG []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	start := time.Now()

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(pagePNG); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.cfg.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if e.cfg.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.cfg.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)

	e.logger.Debug("tesseract.extract.ok",
		"chars", len(text),
		"lang", e.cfg.Language,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
