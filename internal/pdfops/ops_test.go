package pdfops

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubRunner scripts responses per command prefix and records every call.
type stubRunner struct {
	calls [][]string
	// respond maps a space-joined "<bin> <args...>" prefix to a response.
	respond func(name string, args []string) (string, error)
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	call := append([]string{name}, args...)
	s.calls = append(s.calls, call)
	out, err := s.respond(name, args)
	if err != nil {
		return nil, []byte(err.Error()), err
	}
	return []byte(out), nil, nil
}

func newOps(r Runner) *Ops {
	o := New(Config{Qpdf: "qpdf", Ghostscript: "gs"}, nil)
	o.runner = r
	return o
}

func healthyPDF(pages string) func(string, []string) (string, error) {
	return func(name string, args []string) (string, error) {
		switch {
		case len(args) > 0 && args[0] == "--check":
			return "", nil
		case len(args) > 0 && args[0] == "--show-npages":
			return pages + "\n", nil
		default:
			return "", nil
		}
	}
}

func TestInfoHealthyFile(t *testing.T) {
	r := &stubRunner{respond: healthyPDF("7")}
	res, err := newOps(r).Info(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if res.TotalPages != 7 {
		t.Fatalf("pages = %d, want 7", res.TotalPages)
	}
	if res.RepairNeeded {
		t.Fatal("repair reported for a healthy file")
	}
}

func TestInfoRepairsUnreadableFile(t *testing.T) {
	r := &stubRunner{respond: func(name string, args []string) (string, error) {
		switch {
		case args[0] == "--check" && args[1] == "broken.pdf":
			return "", errors.New("qpdf: damaged")
		case args[0] == "--check": // repaired copy checks out
			return "", nil
		case args[0] == "--show-npages":
			return "3", nil
		case name == "qpdf" && len(args) == 2: // qpdf in out (repair)
			return "", nil
		}
		return "", nil
	}}
	res, err := newOps(r).Info(context.Background(), "broken.pdf")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !res.RepairNeeded {
		t.Fatal("repair not reported")
	}
	if res.RepairedFile != "broken_repaired.pdf" {
		t.Fatalf("repaired file = %q", res.RepairedFile)
	}
	if res.TotalPages != 3 {
		t.Fatalf("pages = %d, want 3", res.TotalPages)
	}
}

func TestRepairFallsBackToGhostscript(t *testing.T) {
	r := &stubRunner{respond: func(name string, args []string) (string, error) {
		if name == "qpdf" {
			return "", errors.New("qpdf cannot fix this")
		}
		return "", nil // gs succeeds
	}}
	if err := newOps(r).Repair(context.Background(), "in.pdf", "out.pdf"); err != nil {
		t.Fatalf("Repair: %v", err)
	}

	last := r.calls[len(r.calls)-1]
	if last[0] != "gs" {
		t.Fatalf("fallback tool = %q, want gs", last[0])
	}
	joined := strings.Join(last, " ")
	if !strings.Contains(joined, "-sDEVICE=pdfwrite") || !strings.Contains(joined, "-dPDFSETTINGS=/prepress") {
		t.Fatalf("ghostscript argv = %v", last)
	}
}

func TestRepairAllToolsFail(t *testing.T) {
	r := &stubRunner{respond: func(string, []string) (string, error) {
		return "", errors.New("nope")
	}}
	if err := newOps(r).Repair(context.Background(), "in.pdf", "out.pdf"); err == nil {
		t.Fatal("expected error when both tools fail")
	}
}

func TestMergeArgv(t *testing.T) {
	r := &stubRunner{respond: healthyPDF("2")}
	res, err := newOps(r).Merge(context.Background(), []string{"a.pdf", "b.pdf"}, "out.pdf")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.FilesMerged != 2 || res.TotalPages != 4 {
		t.Fatalf("merge result = %+v", res)
	}

	last := r.calls[len(r.calls)-1]
	want := []string{"qpdf", "--empty", "--pages", "a.pdf", "b.pdf", "--", "out.pdf"}
	if strings.Join(last, " ") != strings.Join(want, " ") {
		t.Fatalf("merge argv = %v, want %v", last, want)
	}
}

func TestMergeRejectsEmptyInput(t *testing.T) {
	r := &stubRunner{respond: healthyPDF("1")}
	if _, err := newOps(r).Merge(context.Background(), nil, "out.pdf"); err == nil {
		t.Fatal("expected error for empty input list")
	}
}

func TestExtractPagesClampsAndConverts(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		wantRange  string // qpdf 1-based range
		wantPages  int
	}{
		{"in range", 0, 2, "1-3", 3},
		{"end past total", 3, 99, "4-5", 2},
		{"start negative", -2, 0, "1-1", 1},
		{"both past total", 99, 99, "5-5", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &stubRunner{respond: healthyPDF("5")}
			res, err := newOps(r).ExtractPages(context.Background(), "in.pdf", "out.pdf", tt.start, tt.end)
			if err != nil {
				t.Fatalf("ExtractPages: %v", err)
			}
			if res.PagesExtracted != tt.wantPages {
				t.Fatalf("pages extracted = %d, want %d", res.PagesExtracted, tt.wantPages)
			}
			last := r.calls[len(r.calls)-1]
			joined := strings.Join(last, " ")
			if !strings.Contains(joined, "--pages . "+tt.wantRange+" --") {
				t.Fatalf("extract argv = %v, want range %s", last, tt.wantRange)
			}
		})
	}
}

func TestExtractPagesEmptyRangeAfterClamp(t *testing.T) {
	r := &stubRunner{respond: healthyPDF("5")}
	if _, err := newOps(r).ExtractPages(context.Background(), "in.pdf", "out.pdf", 3, 1); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
