package skills

import (
	"context"
	"encoding/json"

	"github.com/learngvrk/claude-code-skills/internal/pdfops"
)

const mergeSchema = `{
	"type": "object",
	"required": ["inputs", "output"],
	"additionalProperties": false,
	"properties": {
		"inputs": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"output": {"type": "string", "minLength": 1}
	}
}`

const extractSchema = `{
	"type": "object",
	"required": ["input", "output", "start_page", "end_page"],
	"additionalProperties": false,
	"properties": {
		"input": {"type": "string", "minLength": 1},
		"output": {"type": "string", "minLength": 1},
		"start_page": {"type": "integer", "minimum": 0},
		"end_page": {"type": "integer", "minimum": 0}
	}
}`

const repairSchema = `{
	"type": "object",
	"required": ["input", "output"],
	"additionalProperties": false,
	"properties": {
		"input": {"type": "string", "minLength": 1},
		"output": {"type": "string", "minLength": 1}
	}
}`

const infoSchema = `{
	"type": "object",
	"required": ["file"],
	"additionalProperties": false,
	"properties": {
		"file": {"type": "string", "minLength": 1}
	}
}`

// NewPDFSkill wraps the pdfops operations as a registrable skill.
func NewPDFSkill(ops *pdfops.Ops) *Skill {
	return &Skill{
		Name:        "pdf",
		Description: "Merge, extract pages from, repair, and inspect PDF files",
		Operations: []Operation{
			{
				Name:        "merge",
				Description: "Merge multiple PDFs into one",
				ParamSchema: mergeSchema,
				Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
					var p struct {
						Inputs []string `json:"inputs"`
						Output string   `json:"output"`
					}
					if err := json.Unmarshal(params, &p); err != nil {
						return nil, err
					}
					return ops.Merge(ctx, p.Inputs, p.Output)
				},
			},
			{
				Name:        "extract",
				Description: "Extract a 0-indexed inclusive page range into a new PDF",
				ParamSchema: extractSchema,
				Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
					var p struct {
						Input     string `json:"input"`
						Output    string `json:"output"`
						StartPage int    `json:"start_page"`
						EndPage   int    `json:"end_page"`
					}
					if err := json.Unmarshal(params, &p); err != nil {
						return nil, err
					}
					return ops.ExtractPages(ctx, p.Input, p.Output, p.StartPage, p.EndPage)
				},
			},
			{
				Name:        "repair",
				Description: "Rewrite a corrupted PDF (qpdf, then Ghostscript)",
				ParamSchema: repairSchema,
				Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
					var p struct {
						Input  string `json:"input"`
						Output string `json:"output"`
					}
					if err := json.Unmarshal(params, &p); err != nil {
						return nil, err
					}
					if err := ops.Repair(ctx, p.Input, p.Output); err != nil {
						return nil, err
					}
					return map[string]string{"status": "success", "output_file": p.Output}, nil
				},
			},
			{
				Name:        "info",
				Description: "Page count and repair status for a PDF",
				ParamSchema: infoSchema,
				Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
					var p struct {
						File string `json:"file"`
					}
					if err := json.Unmarshal(params, &p); err != nil {
						return nil, err
					}
					return ops.Info(ctx, p.File)
				},
			},
		},
	}
}
