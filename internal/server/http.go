// Package server exposes the conversion pipeline over HTTP. The surface is
// deliberately poll-based: upload returns a job ID immediately and clients
// poll status until the job reaches a terminal state, then fetch the
// document by filename.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/learngvrk/claude-code-skills/constants"
	"github.com/learngvrk/claude-code-skills/internal/common"
	"github.com/learngvrk/claude-code-skills/internal/export"
	"github.com/learngvrk/claude-code-skills/internal/pipeline"
	"github.com/learngvrk/claude-code-skills/internal/skills"
)

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	svc      *pipeline.Service
	registry *skills.Registry
	cfg      common.ServerConfig
	logger   *slog.Logger
}

func New(svc *pipeline.Service, registry *skills.Registry, cfg common.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, registry: registry, cfg: cfg, logger: logger}
}

// Router builds the chi mux with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/status/{job_id}", s.handleStatus)
	r.Get("/download/{filename}", s.handleDownload)
	r.Get("/report.xlsx", s.handleReport)
	r.Get("/skills", s.handleListSkills)
	r.Post("/skills/{skill}/{op}", s.handleInvokeSkill)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a multipart PDF, persists it to the upload dir, and
// schedules the conversion. It responds 202 before any pipeline work runs.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "no file part in request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}
	if !constants.IsAllowedExt(filepath.Ext(header.Filename)) {
		writeError(w, http.StatusBadRequest, "only PDF files are supported")
		return
	}

	base := sanitizeFilename(header.Filename)
	// A unique prefix keeps concurrent uploads of the same filename apart.
	inputName := uuid.NewString() + "_" + base
	inputPath := filepath.Join(s.cfg.UploadDir, inputName)

	dst, err := os.Create(inputPath)
	if err != nil {
		s.logger.Error("upload.save_failed", "path", inputPath, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(inputPath)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
			return
		}
		s.logger.Error("upload.save_failed", "path", inputPath, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save upload")
		return
	}
	dst.Close()

	outputName := strings.TrimSuffix(base, filepath.Ext(base)) + ".docx"
	jobID := s.svc.Start(inputPath, outputName, base)

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID.String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	job, ok := s.svc.GetStatus(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleDownload serves a finished document. Only bare .docx filenames are
// accepted; anything that could traverse out of the output dir is rejected.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !strings.HasSuffix(strings.ToLower(name), ".docx") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(s.cfg.OutputDir, name)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	io.Copy(w, f)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, err := export.Report(s.svc.Jobs(), s.logger)
	if err != nil {
		s.logger.Error("report.build_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build report")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="conversions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"skills": s.registry.List()})
}

func (s *Server) handleInvokeSkill(w http.ResponseWriter, r *http.Request) {
	skillName := chi.URLParam(r, "skill")
	opName := chi.URLParam(r, "op")

	params, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	result, err := s.registry.Invoke(r.Context(), skillName, opName, params)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, common.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			var appErr *common.AppError
			if errors.As(err, &appErr) && appErr.Code == "PARAMS_INVALID" {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Error("skills.invoke_failed", "skill", skillName, "operation", opName, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// sanitizeFilename strips path components and characters that have no
// business in a stored filename, keeping the extension intact.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		out = "upload.pdf"
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
