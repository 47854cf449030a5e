package chunkhash

import (
	"fmt"
	"slices"

	"github.com/sladyn98/rspack/internal/graph"
)

// HashEntryStartup feeds the startup-relevant identity of an entry chunk.
//
// For each entry in declaration order it writes the module's stable id,
// then the ids of every chunk reachable from the entry's group through
// initial ancestors, excluding chunk itself and the group's runtime chunk.
// Reachable ids are sorted before they are written.
func HashEntryStartup(h *Hasher, view graph.View, entries []graph.EntryModule, chunk graph.ChunkKey) error {
	for _, entry := range entries {
		m, err := view.Module(entry.Module)
		if err != nil {
			return fmt.Errorf("hash entry startup: %w", err)
		}
		if m.ID != "" {
			h.WriteString(m.ID)
		}

		group, err := view.ChunkGroup(entry.Group)
		if err != nil {
			return fmt.Errorf("hash entry startup: %w", err)
		}

		ids, err := ReachableChunkIDs(view, group.Key, chunk, group.RuntimeChunk)
		if err != nil {
			return fmt.Errorf("hash entry startup: %w", err)
		}
		for _, id := range ids {
			h.WriteString(id)
		}
	}
	return nil
}

// ReachableChunks collects the member chunks of group and of every initial
// ancestor group, excluding the two given chunk keys.
//
// Non-initial ancestors are skipped entirely: they are asynchronous split
// points and must not perturb the startup hash. Their own initial ancestors
// are still reached because Ancestors is transitive. The result is sorted
// by key.
func ReachableChunks(view graph.View, group graph.ChunkGroupKey, exclude1, exclude2 graph.ChunkKey) ([]graph.ChunkKey, error) {
	chunks := make(map[graph.ChunkKey]struct{})
	visited := make(map[graph.ChunkGroupKey]bool)

	var add func(key graph.ChunkGroupKey) error
	add = func(key graph.ChunkGroupKey) error {
		if visited[key] {
			return nil
		}
		visited[key] = true

		cg, err := view.ChunkGroup(key)
		if err != nil {
			return err
		}
		for _, c := range cg.Chunks {
			if c == exclude1 || c == exclude2 {
				continue
			}
			chunks[c] = struct{}{}
		}

		ancestors, err := view.Ancestors(key)
		if err != nil {
			return err
		}
		for _, parentKey := range ancestors {
			parent, err := view.ChunkGroup(parentKey)
			if err != nil {
				return err
			}
			if !parent.Initial {
				continue
			}
			if err := add(parentKey); err != nil {
				return err
			}
		}
		return nil
	}

	if err := add(group); err != nil {
		return nil, err
	}

	out := make([]graph.ChunkKey, 0, len(chunks))
	for c := range chunks {
		out = append(out, c)
	}
	slices.Sort(out)
	return out, nil
}

// ReachableChunkIDs resolves ReachableChunks to chunk ids in sorted order.
// Chunks without an assigned id contribute the empty string.
func ReachableChunkIDs(view graph.View, group graph.ChunkGroupKey, exclude1, exclude2 graph.ChunkKey) ([]string, error) {
	keys, err := ReachableChunks(view, group, exclude1, exclude2)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		c, err := view.Chunk(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	slices.Sort(ids)
	return ids, nil
}
