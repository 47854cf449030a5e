package engine

import (
	"fmt"

	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/runtimemodule"
)

// Context is the mutable state one chunk's rules work on.
//
// It is passed by reference into every rule call and scoped to a single
// chunk task. Rules may add flags to Requirements and register modules in
// RuntimeModules; Graph is read-only.
type Context struct {
	Chunk          graph.ChunkKey
	Graph          graph.View
	Requirements   *globals.Requirements
	RuntimeModules *runtimemodule.Registry
}

// NewContext creates a Context seeded with initial requirements.
func NewContext(chunk graph.ChunkKey, view graph.View, initial globals.RuntimeGlobals) *Context {
	return &Context{
		Chunk:          chunk,
		Graph:          view,
		Requirements:   globals.NewRequirements(initial),
		RuntimeModules: runtimemodule.NewRegistry(),
	}
}

// Freeze makes the context's accumulator and registry read-only.
func (c *Context) Freeze() {
	c.Requirements.Freeze()
	c.RuntimeModules.Freeze()
}

// Rule reacts to a chunk's current requirements.
//
// Apply must be idempotent: given unchanged flags it must not add new flags
// or register different modules.
type Rule interface {
	Name() string
	Apply(ctx *Context) error
}

// RuleFunc adapts a function into a Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(ctx *Context) error
}

// Name implements Rule.
func (r RuleFunc) Name() string { return r.RuleName }

// Apply implements Rule.
func (r RuleFunc) Apply(ctx *Context) error { return r.Fn(ctx) }

// RuleError wraps a rule failure with chunk and rule context.
type RuleError struct {
	Chunk graph.ChunkKey
	Rule  string
	Pass  int
	Err   error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s failed on chunk %s (pass %d): %v", e.Rule, e.Chunk, e.Pass, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
