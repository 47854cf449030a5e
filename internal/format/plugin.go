// Package format holds chunk-format plugins.
//
// A chunk format decides how a chunk is linked to its runtime: which
// requirements it adds, what it contributes to the content hash, and how the
// final chunk source is assembled. Formats are interchangeable
// implementations of one Plugin interface, chosen at configuration time from
// a Registry.
//
// Hook points, in the order a compilation pass invokes them:
//
//  1. AdditionalChunkRuntimeRequirements: once per chunk, after module code
//     generation seeded the accumulator.
//  2. RuntimeRequirementsInTree: inside the rule engine, possibly many times
//     per chunk until a fixed point is reached.
//  3. ChunkHash: once per chunk, against a frozen snapshot.
//  4. RenderChunk: once per chunk, against a frozen snapshot.
//
// Any hook may return an error; every error aborts the compilation pass.
package format

import (
	"github.com/sladyn98/rspack/internal/chunkhash"
	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/filename"
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/runtimemodule"
	"github.com/sladyn98/rspack/internal/source"
)

// Plugin is the chunk-format capability interface.
type Plugin interface {
	Name() string

	// AdditionalChunkRuntimeRequirements seeds format-specific requirements.
	AdditionalChunkRuntimeRequirements(ctx *engine.Context) error

	// RuntimeRequirementsInTree is a rule-engine rule. It must be idempotent.
	RuntimeRequirementsInTree(ctx *engine.Context) error

	// ChunkHash contributes to the chunk content hash.
	ChunkHash(ctx *HashContext) error

	// RenderChunk assembles the chunk. A nil Source means the plugin does
	// not render this chunk.
	RenderChunk(ctx *RenderContext) (source.Source, error)
}

// StartupRenderer is implemented by plugins contributing to the startup
// fragment of entry chunks.
type StartupRenderer interface {
	RenderStartup(ctx *StartupContext) (source.Source, error)
}

// Base provides no-op implementations of every hook. Embed it and override
// the hooks a plugin cares about.
type Base struct{}

// AdditionalChunkRuntimeRequirements implements Plugin.
func (Base) AdditionalChunkRuntimeRequirements(*engine.Context) error { return nil }

// RuntimeRequirementsInTree implements Plugin.
func (Base) RuntimeRequirementsInTree(*engine.Context) error { return nil }

// ChunkHash implements Plugin.
func (Base) ChunkHash(*HashContext) error { return nil }

// RenderChunk implements Plugin.
func (Base) RenderChunk(*RenderContext) (source.Source, error) { return nil, nil }

// HashContext is handed to ChunkHash hooks.
type HashContext struct {
	Chunk  graph.ChunkKey
	Graph  graph.View
	Hasher *chunkhash.Hasher
}

// RenderContext is handed to RenderChunk hooks. Everything in it is a
// frozen snapshot of the resolution and hashing phases.
type RenderContext struct {
	Chunk          graph.ChunkKey
	Graph          graph.View
	Requirements   globals.RuntimeGlobals
	RuntimeModules []runtimemodule.RuntimeModule
	Template       filename.Template

	// Hashes holds the render hash of every chunk in the compilation.
	Hashes map[graph.ChunkKey]string

	// Startup renders the startup fragment for one entry module.
	Startup func(ctx *StartupContext) (source.Source, error)
}

// RenderHash returns the render hash computed for a chunk.
func (c *RenderContext) RenderHash(key graph.ChunkKey) (string, bool) {
	h, ok := c.Hashes[key]
	return h, ok
}

// StartupContext identifies the entry module whose startup is rendered.
type StartupContext struct {
	Chunk  graph.ChunkKey
	Module graph.ModuleKey
	Graph  graph.View
}
