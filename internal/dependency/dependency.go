// Package dependency holds code-generation dependencies that contribute to a
// chunk's runtime requirements.
//
// During module code generation every dependency of a module is asked to
// generate. Most dependencies emit module-scoped code; a
// RuntimeRequirementsDependency emits nothing and only widens the requirement
// set of the chunk being generated.
package dependency

import (
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
)

// Injector receives runtime requirements. *globals.Requirements satisfies it.
type Injector interface {
	Add(flags globals.RuntimeGlobals) bool
}

// CodeGenContext is the state handed to each dependency while one module of
// one chunk is being generated.
type CodeGenContext struct {
	Chunk  graph.ChunkKey
	Module graph.ModuleKey

	// RuntimeRequirements is the owning chunk's accumulator.
	RuntimeRequirements Injector
}

// Dependency is a graph node taking part in code generation.
type Dependency interface {
	// ParentModule returns the owning module. Dependencies without an owner
	// contribute to the chunk rather than to any module's emitted code.
	ParentModule() (graph.ModuleKey, bool)

	Generate(ctx *CodeGenContext) error
}

// RuntimeRequirementsDependency injects a fixed set of runtime requirements.
type RuntimeRequirementsDependency struct {
	RuntimeRequirements globals.RuntimeGlobals
}

var _ Dependency = (*RuntimeRequirementsDependency)(nil)

// NewRuntimeRequirementsDependency creates a dependency injecting flags.
func NewRuntimeRequirementsDependency(flags globals.RuntimeGlobals) *RuntimeRequirementsDependency {
	return &RuntimeRequirementsDependency{RuntimeRequirements: flags}
}

// ParentModule always reports no owner.
func (d *RuntimeRequirementsDependency) ParentModule() (graph.ModuleKey, bool) {
	return "", false
}

// Generate unions the dependency's flags into the chunk accumulator. It never fails.
func (d *RuntimeRequirementsDependency) Generate(ctx *CodeGenContext) error {
	Inject(d.RuntimeRequirements, ctx)
	return nil
}

// Inject unconditionally unions flags into the context's accumulator.
func Inject(flags globals.RuntimeGlobals, ctx *CodeGenContext) {
	ctx.RuntimeRequirements.Add(flags)
}

// Seed runs code generation for every dependency of one module in order.
// The first failing dependency aborts seeding.
func Seed(ctx *CodeGenContext, deps []Dependency) error {
	for _, dep := range deps {
		if err := dep.Generate(ctx); err != nil {
			return err
		}
	}
	return nil
}
