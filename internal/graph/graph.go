// Package graph is the read-only chunk graph the runtime stage queries.
//
// The module graph, chunk graph and chunk-group graph are built upstream.
// This package only models them far enough to answer the lookups code
// generation needs: chunk and group by key, ordered entry modules per chunk,
// transitive ancestors per group, and module ids.
//
// A Graph is immutable once Build returns and safe for concurrent reads.
package graph

import (
	"slices"
)

// ModuleKey identifies a module within the compilation.
type ModuleKey string

// ChunkKey identifies a chunk within the compilation.
type ChunkKey string

// ChunkGroupKey identifies a chunk group within the compilation.
type ChunkGroupKey string

// Module is one unit of source code placed into chunks.
type Module struct {
	Key ModuleKey

	// ID is the stable id emitted into the module table. Empty means the
	// module has not been assigned one.
	ID string

	// Source is the already-generated module body.
	Source string
}

// EntryModule pairs an entry module with the chunk group it starts.
type EntryModule struct {
	Module ModuleKey
	Group  ChunkGroupKey
}

// Chunk is a unit of emitted output.
type Chunk struct {
	Key  ChunkKey
	ID   string
	Name string

	// Modules lists the chunk's modules in insertion order.
	Modules []ModuleKey

	// Entries lists entry modules in declaration order. Order is significant:
	// hashing and startup rendering both depend on it.
	Entries []EntryModule

	groups []ChunkGroupKey
}

// Groups returns the keys of the chunk groups containing this chunk.
func (c *Chunk) Groups() []ChunkGroupKey {
	return slices.Clone(c.groups)
}

// NameForFilenameTemplate returns the chunk name, falling back to its id.
func (c *Chunk) NameForFilenameTemplate() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// ChunkGroup is a set of chunks produced together for an entry point or a
// dynamic split point.
type ChunkGroup struct {
	Key ChunkGroupKey

	// Chunks lists member chunks in order.
	Chunks []ChunkKey

	// Parents lists direct parent groups.
	Parents []ChunkGroupKey

	// Initial is true for groups loaded synchronously (entry points).
	Initial bool

	// RuntimeChunk designates the chunk carrying this group's runtime.
	// Only meaningful for initial groups.
	RuntimeChunk ChunkKey

	ancestors []ChunkGroupKey
}

// IsEntrypoint reports whether the group is an entry point with a runtime chunk.
func (g *ChunkGroup) IsEntrypoint() bool {
	return g.Initial && g.RuntimeChunk != ""
}

// View is the query surface code generation consumes.
type View interface {
	Chunk(key ChunkKey) (*Chunk, error)
	ChunkGroup(key ChunkGroupKey) (*ChunkGroup, error)
	Module(key ModuleKey) (*Module, error)

	// Ancestors returns every transitive parent of the group, sorted by key.
	Ancestors(key ChunkGroupKey) ([]ChunkGroupKey, error)

	// EntryModules returns the chunk's entry modules in declaration order.
	EntryModules(key ChunkKey) []EntryModule

	// ChunkModules returns the chunk's modules in insertion order.
	ChunkModules(key ChunkKey) []*Module

	HasEntryModule(key ChunkKey) bool

	// HasRuntime reports whether the chunk is the runtime chunk of any
	// entry point containing it.
	HasRuntime(key ChunkKey) bool

	// ChunkKeys returns all chunk keys in sorted order.
	ChunkKeys() []ChunkKey
}

// Graph is the in-memory View implementation.
type Graph struct {
	modules map[ModuleKey]*Module
	chunks  map[ChunkKey]*Chunk
	groups  map[ChunkGroupKey]*ChunkGroup
	order   []ChunkKey
}

var _ View = (*Graph)(nil)

// Chunk looks up a chunk by key.
func (g *Graph) Chunk(key ChunkKey) (*Chunk, error) {
	c, ok := g.chunks[key]
	if !ok {
		return nil, NewMissingChunkError(key)
	}
	return c, nil
}

// ChunkGroup looks up a chunk group by key.
func (g *Graph) ChunkGroup(key ChunkGroupKey) (*ChunkGroup, error) {
	cg, ok := g.groups[key]
	if !ok {
		return nil, NewMissingChunkGroupError(key)
	}
	return cg, nil
}

// Module looks up a module by key.
func (g *Graph) Module(key ModuleKey) (*Module, error) {
	m, ok := g.modules[key]
	if !ok {
		return nil, NewMissingModuleError(key)
	}
	return m, nil
}

// Ancestors returns the transitive parents of a group.
func (g *Graph) Ancestors(key ChunkGroupKey) ([]ChunkGroupKey, error) {
	cg, err := g.ChunkGroup(key)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cg.ancestors), nil
}

// EntryModules returns the chunk's entry modules in declaration order.
func (g *Graph) EntryModules(key ChunkKey) []EntryModule {
	c, ok := g.chunks[key]
	if !ok {
		return nil
	}
	return slices.Clone(c.Entries)
}

// ChunkModules returns the chunk's modules in insertion order.
func (g *Graph) ChunkModules(key ChunkKey) []*Module {
	c, ok := g.chunks[key]
	if !ok {
		return nil
	}
	out := make([]*Module, 0, len(c.Modules))
	for _, mk := range c.Modules {
		out = append(out, g.modules[mk])
	}
	return out
}

// HasEntryModule reports whether the chunk has at least one entry module.
func (g *Graph) HasEntryModule(key ChunkKey) bool {
	c, ok := g.chunks[key]
	return ok && len(c.Entries) > 0
}

// HasRuntime reports whether the chunk is the runtime chunk of an entry
// point it belongs to.
func (g *Graph) HasRuntime(key ChunkKey) bool {
	c, ok := g.chunks[key]
	if !ok {
		return false
	}
	for _, gk := range c.groups {
		cg := g.groups[gk]
		if cg.IsEntrypoint() && cg.RuntimeChunk == key {
			return true
		}
	}
	return false
}

// ChunkKeys returns all chunk keys sorted.
func (g *Graph) ChunkKeys() []ChunkKey {
	return slices.Clone(g.order)
}
