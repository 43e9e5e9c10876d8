// pdftool runs the PDF utility operations (merge, extract, repair, info)
// from the command line and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/learngvrk/claude-code-skills/internal/common"
	"github.com/learngvrk/claude-code-skills/internal/pdfops"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `usage:
  %[1]s merge output.pdf input1.pdf input2.pdf [...]
  %[1]s extract input.pdf output.pdf start end   (0-indexed, inclusive)
  %[1]s repair input.pdf output.pdf
  %[1]s info input.pdf
`, prog)
	os.Exit(2)
}

func run() error {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		usage()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := common.LoadConfig()
	ops := pdfops.New(pdfops.Config{
		Qpdf:        cfg.PDF.Qpdf,
		Ghostscript: cfg.PDF.Ghostscript,
	}, logger)

	ctx := context.Background()

	var result any
	switch cmd, rest := args[0], args[1:]; cmd {
	case "merge":
		if len(rest) < 2 {
			usage()
		}
		res, err := ops.Merge(ctx, rest[1:], rest[0])
		if err != nil {
			return err
		}
		result = res
	case "extract":
		if len(rest) != 4 {
			usage()
		}
		var start, end int
		if _, err := fmt.Sscanf(rest[2], "%d", &start); err != nil {
			return fmt.Errorf("start page %q: %w", rest[2], err)
		}
		if _, err := fmt.Sscanf(rest[3], "%d", &end); err != nil {
			return fmt.Errorf("end page %q: %w", rest[3], err)
		}
		res, err := ops.ExtractPages(ctx, rest[0], rest[1], start, end)
		if err != nil {
			return err
		}
		result = res
	case "repair":
		if len(rest) != 2 {
			usage()
		}
		if err := ops.Repair(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		result = map[string]string{"input_file": rest[0], "output_file": rest[1], "status": "repaired"}
	case "info":
		if len(rest) != 1 {
			usage()
		}
		res, err := ops.Info(ctx, rest[0])
		if err != nil {
			return err
		}
		result = res
	default:
		usage()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
