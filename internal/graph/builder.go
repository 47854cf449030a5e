package graph

import (
	"errors"
	"fmt"
	"slices"
)

// Builder assembles an immutable Graph.
//
// Add* calls only record input. Build validates every cross reference and
// computes derived data (group membership per chunk, transitive ancestors).
type Builder struct {
	modules []*Module
	chunks  []*Chunk
	groups  []*ChunkGroup
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddModule records a module.
func (b *Builder) AddModule(m Module) *Builder {
	b.modules = append(b.modules, &m)
	return b
}

// AddChunk records a chunk. Slices are copied.
func (b *Builder) AddChunk(c Chunk) *Builder {
	c.Modules = slices.Clone(c.Modules)
	c.Entries = slices.Clone(c.Entries)
	c.groups = nil
	b.chunks = append(b.chunks, &c)
	return b
}

// AddChunkGroup records a chunk group. Slices are copied.
func (b *Builder) AddChunkGroup(cg ChunkGroup) *Builder {
	cg.Chunks = slices.Clone(cg.Chunks)
	cg.Parents = slices.Clone(cg.Parents)
	cg.ancestors = nil
	b.groups = append(b.groups, &cg)
	return b
}

// Build validates the recorded input and returns the Graph.
// All validation failures are joined into one error.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		modules: make(map[ModuleKey]*Module, len(b.modules)),
		chunks:  make(map[ChunkKey]*Chunk, len(b.chunks)),
		groups:  make(map[ChunkGroupKey]*ChunkGroup, len(b.groups)),
	}
	var errs []error

	for _, m := range b.modules {
		if _, dup := g.modules[m.Key]; dup {
			errs = append(errs, fmt.Errorf("duplicate module %q", m.Key))
			continue
		}
		g.modules[m.Key] = m
	}
	for _, c := range b.chunks {
		if _, dup := g.chunks[c.Key]; dup {
			errs = append(errs, fmt.Errorf("duplicate chunk %q", c.Key))
			continue
		}
		g.chunks[c.Key] = c
		g.order = append(g.order, c.Key)
	}
	for _, cg := range b.groups {
		if _, dup := g.groups[cg.Key]; dup {
			errs = append(errs, fmt.Errorf("duplicate chunk group %q", cg.Key))
			continue
		}
		g.groups[cg.Key] = cg
	}
	slices.Sort(g.order)

	for _, key := range g.order {
		errs = append(errs, g.checkChunk(g.chunks[key])...)
	}

	groupKeys := make([]ChunkGroupKey, 0, len(g.groups))
	for key := range g.groups {
		groupKeys = append(groupKeys, key)
	}
	slices.Sort(groupKeys)

	for _, key := range groupKeys {
		cg := g.groups[key]
		for _, ck := range cg.Chunks {
			c, ok := g.chunks[ck]
			if !ok {
				errs = append(errs, fmt.Errorf("group %q: %w", key, NewMissingChunkError(ck)))
				continue
			}
			c.groups = append(c.groups, key)
		}
		for _, pk := range cg.Parents {
			if _, ok := g.groups[pk]; !ok {
				errs = append(errs, fmt.Errorf("group %q parent: %w", key, NewMissingChunkGroupError(pk)))
			}
		}
		if cg.RuntimeChunk != "" {
			if _, ok := g.chunks[cg.RuntimeChunk]; !ok {
				errs = append(errs, fmt.Errorf("group %q: %w", key, NewMissingRuntimeChunkError(cg.RuntimeChunk, key)))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, key := range groupKeys {
		g.groups[key].ancestors = g.collectAncestors(key)
	}
	return g, nil
}

func (g *Graph) checkChunk(c *Chunk) []error {
	var errs []error
	members := make(map[ModuleKey]bool, len(c.Modules))
	for _, mk := range c.Modules {
		if _, ok := g.modules[mk]; !ok {
			errs = append(errs, fmt.Errorf("chunk %q: %w", c.Key, NewMissingModuleError(mk)))
		}
		members[mk] = true
	}

	seen := make(map[ModuleKey]bool, len(c.Entries))
	for _, e := range c.Entries {
		if seen[e.Module] {
			errs = append(errs, fmt.Errorf("chunk %q: entry module %q declared twice", c.Key, e.Module))
			continue
		}
		seen[e.Module] = true
		if !members[e.Module] {
			errs = append(errs, fmt.Errorf("chunk %q: entry module %q is not a chunk module", c.Key, e.Module))
		}
		if _, ok := g.groups[e.Group]; !ok {
			errs = append(errs, fmt.Errorf("chunk %q entry %q: %w", c.Key, e.Module, NewMissingChunkGroupError(e.Group)))
		}
	}
	return errs
}

// collectAncestors walks Parents transitively. The visited set keeps
// cyclic parent links from looping.
func (g *Graph) collectAncestors(key ChunkGroupKey) []ChunkGroupKey {
	visited := map[ChunkGroupKey]bool{key: true}
	var out []ChunkGroupKey
	stack := slices.Clone(g.groups[key].Parents)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[next] {
			continue
		}
		visited[next] = true
		out = append(out, next)
		stack = append(stack, g.groups[next].Parents...)
	}
	slices.Sort(out)
	return out
}
