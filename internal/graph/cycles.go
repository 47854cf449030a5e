package graph

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning reports chunk groups whose parent links form a cycle.
//
// Cycles are warnings, not errors: async groups that import each other
// produce them, and ancestor collection tolerates them.
type CycleWarning struct {
	Path    []ChunkGroupKey `json:"path"` // ["a", "b", "a"]
	Message string          `json:"message"`
}

// GroupCycles finds every cycle in the group parent relation. Warnings are
// sorted by the first group of their path, which is the smallest key of
// the cycle.
func (g *Graph) GroupCycles() []CycleWarning {
	edges := make(map[ChunkGroupKey][]ChunkGroupKey, len(g.groups))
	keys := make([]ChunkGroupKey, 0, len(g.groups))
	for key, cg := range g.groups {
		keys = append(keys, key)
		parents := slices.Clone(cg.Parents)
		slices.Sort(parents)
		edges[key] = slices.Compact(parents)
	}
	slices.Sort(keys)

	var warnings []CycleWarning
	for _, scc := range stronglyConnected(keys, edges) {
		if len(scc) == 1 && !slices.Contains(edges[scc[0]], scc[0]) {
			continue
		}
		path := cyclePath(scc, edges)
		names := make([]string, len(path))
		for i, k := range path {
			names[i] = string(k)
		}
		warnings = append(warnings, CycleWarning{
			Path:    path,
			Message: fmt.Sprintf("chunk group parent cycle: %s", strings.Join(names, " → ")),
		})
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(string(a.Path[0]), string(b.Path[0]))
	})
	return warnings
}

// stronglyConnected is Tarjan's algorithm over nodes in the given order.
func stronglyConnected(nodes []ChunkGroupKey, edges map[ChunkGroupKey][]ChunkGroupKey) [][]ChunkGroupKey {
	var (
		index   int
		stack   []ChunkGroupKey
		indices = make(map[ChunkGroupKey]int)
		lowlink = make(map[ChunkGroupKey]int)
		onStack = make(map[ChunkGroupKey]bool)
		sccs    [][]ChunkGroupKey
	)

	var connect func(ChunkGroupKey)
	connect = func(v ChunkGroupKey) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []ChunkGroupKey
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			connect(n)
		}
	}
	return sccs
}

// cyclePath walks parent links inside scc from its smallest member back to
// itself. scc must be sorted.
func cyclePath(scc []ChunkGroupKey, edges map[ChunkGroupKey][]ChunkGroupKey) []ChunkGroupKey {
	start := scc[0]
	if len(scc) == 1 {
		return []ChunkGroupKey{start, start}
	}

	path := []ChunkGroupKey{start}
	visited := map[ChunkGroupKey]bool{start: true}
	current := start
	for {
		var next ChunkGroupKey
		for _, w := range edges[current] {
			if !slices.Contains(scc, w) {
				continue
			}
			if w == start && len(path) > 1 {
				return append(path, start)
			}
			if !visited[w] && next == "" {
				next = w
			}
		}
		if next == "" {
			return path
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
}
