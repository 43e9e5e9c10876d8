// Package render converts a PDF into an ordered sequence of page images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/learngvrk/claude-code-skills/internal/common"
)

// PageRenderer produces one PNG per page, in page order.
type PageRenderer interface {
	Render(ctx context.Context, path string) ([][]byte, error)
}

// Repairer rewrites a structurally damaged PDF into a readable one.
// Implemented by pdfops.
type Repairer interface {
	Repair(ctx context.Context, inputPath, outputPath string) error
}

// Config for the fitz-backed renderer.
type Config struct {
	DPI int // rendering resolution, default 150
}

// FitzRenderer renders pages with MuPDF (go-fitz). If the document cannot
// be opened it makes one best-effort repair pass before giving up.
type FitzRenderer struct {
	cfg      Config
	repairer Repairer
	logger   *slog.Logger
}

func NewFitzRenderer(cfg Config, repairer Repairer, logger *slog.Logger) *FitzRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	return &FitzRenderer{cfg: cfg, repairer: repairer, logger: logger}
}

func (r *FitzRenderer) Render(ctx context.Context, path string) ([][]byte, error) {
	start := time.Now()

	doc, cleanup, err := r.open(ctx, path)
	if err != nil {
		r.logger.Error("render.open.failed", "path", path, "error", err)
		return nil, err
	}
	defer cleanup()

	pageCount := doc.NumPage()
	pages := make([][]byte, 0, pageCount)

	for n := 0; n < pageCount; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		img, err := doc.ImageDPI(n, float64(r.cfg.DPI))
		if err != nil {
			return nil, common.WrapError(err, fmt.Sprintf("render page %d", n+1))
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, common.WrapError(err, fmt.Sprintf("encode page %d", n+1))
		}
		pages = append(pages, buf.Bytes())
	}

	r.logger.Info("render.ok",
		"path", path,
		"pages", pageCount,
		"dpi", r.cfg.DPI,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// open tries the document directly, then once more through the repairer.
// The repaired copy is transient and removed with the returned cleanup.
func (r *FitzRenderer) open(ctx context.Context, path string) (fitzDocument, func(), error) {
	doc, err := openFitz(path)
	if err == nil {
		return doc, func() { doc.Close() }, nil
	}
	if r.repairer == nil {
		return nil, nil, common.WrapError(err, "open pdf")
	}

	r.logger.Warn("render.open.retry_with_repair", "path", path, "error", err)
	repaired := filepath.Join(os.TempDir(), fmt.Sprintf("repaired-%d.pdf", time.Now().UnixNano()))
	if rerr := r.repairer.Repair(ctx, path, repaired); rerr != nil {
		return nil, nil, fmt.Errorf("open pdf (repair also failed: %v): %w", rerr, err)
	}
	doc, err = openFitz(repaired)
	if err != nil {
		_ = os.Remove(repaired)
		return nil, nil, common.WrapError(err, "open repaired pdf")
	}
	return doc, func() {
		doc.Close()
		_ = os.Remove(repaired)
	}, nil
}
