// Package skills is a small plugin registry: named skills expose named
// operations, each with a JSON Schema describing its parameters.
// Invocations are validated against the schema before the handler runs, so
// handlers only ever see well-formed input.
package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/learngvrk/claude-code-skills/internal/common"
)

// Handler executes one operation with schema-validated parameters.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Operation is one invocable action of a skill.
type Operation struct {
	Name        string
	Description string
	ParamSchema string // JSON Schema for the params document
	Handler     Handler

	compiled *jsonschema.Schema
}

// Skill groups related operations under one name.
type Skill struct {
	Name        string
	Description string
	Operations  []Operation
}

// SkillInfo is the serializable listing entry for a registered skill.
type SkillInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Operations  []string `json:"operations"`
}

// Registry is a mutex-guarded name→skill table.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]*Skill
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{skills: make(map[string]*Skill), logger: logger}
}

// Register adds a skill, compiling every operation's parameter schema.
// Registering a duplicate name or a bad schema is a programming error and
// is reported rather than silently overwritten.
func (r *Registry) Register(s *Skill) error {
	if s == nil || s.Name == "" {
		return common.NewAppError("SKILL_INVALID", "skill must have a name", common.ErrInvalidInput)
	}

	for i := range s.Operations {
		op := &s.Operations[i]
		compiler := jsonschema.NewCompiler()
		url := fmt.Sprintf("skill://%s/%s.json", s.Name, op.Name)
		if err := compiler.AddResource(url, strings.NewReader(op.ParamSchema)); err != nil {
			return fmt.Errorf("add schema for %s.%s: %w", s.Name, op.Name, err)
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			return fmt.Errorf("compile schema for %s.%s: %w", s.Name, op.Name, err)
		}
		op.compiled = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.skills[s.Name]; exists {
		return common.NewAppError("SKILL_DUPLICATE", "skill already registered: "+s.Name, common.ErrInvalidInput)
	}
	r.skills[s.Name] = s
	r.logger.Info("skills.registered", "skill", s.Name, "operations", len(s.Operations))
	return nil
}

// Get returns a skill by name.
func (r *Registry) Get(name string) (*Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[name]
	return s, ok
}

// List returns all registered skills, sorted by name.
func (r *Registry) List() []SkillInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SkillInfo, 0, len(r.skills))
	for _, s := range r.skills {
		info := SkillInfo{Name: s.Name, Description: s.Description}
		for _, op := range s.Operations {
			info.Operations = append(info.Operations, op.Name)
		}
		sort.Strings(info.Operations)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke validates params against the operation's schema and dispatches.
func (r *Registry) Invoke(ctx context.Context, skillName, opName string, params json.RawMessage) (any, error) {
	skill, ok := r.Get(skillName)
	if !ok {
		return nil, common.NewAppError("SKILL_NOT_FOUND", "unknown skill: "+skillName, common.ErrNotFound)
	}

	var op *Operation
	for i := range skill.Operations {
		if skill.Operations[i].Name == opName {
			op = &skill.Operations[i]
			break
		}
	}
	if op == nil {
		return nil, common.NewAppError("OPERATION_NOT_FOUND",
			fmt.Sprintf("skill %s has no operation %s", skillName, opName), common.ErrNotFound)
	}

	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	var doc any
	if err := json.Unmarshal(params, &doc); err != nil {
		return nil, common.NewAppError("PARAMS_INVALID", "params are not valid JSON", err)
	}
	if err := op.compiled.Validate(doc); err != nil {
		return nil, common.NewAppError("PARAMS_INVALID", "params failed schema validation", err)
	}

	r.logger.Info("skills.invoke", "skill", skillName, "operation", opName)
	return op.Handler(ctx, params)
}
