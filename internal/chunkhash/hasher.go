// Package chunkhash computes deterministic chunk content hashes.
//
// Hash input is always fed in a canonical order. Entry modules keep their
// declaration order (it is semantically significant); every set-like input
// (reachable chunk ids, module tables) is sorted before it is written.
// Nothing here iterates a map into the digest.
package chunkhash

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/runtimemodule"
)

// Hasher is an xxhash64 digest with length-prefixed string writes, so that
// adjacent values cannot run together ("ab"+"c" never equals "a"+"bc").
type Hasher struct {
	d *xxhash.Digest
}

// New creates an empty Hasher.
func New() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// Write implements io.Writer, feeding raw bytes.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.d.Write(p)
}

// WriteString feeds a length-prefixed string.
func (h *Hasher) WriteString(s string) {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(s)))
	_, _ = h.d.Write(prefix[:n])
	_, _ = h.d.WriteString(s)
}

// WriteOptional feeds a presence marker followed by s when present.
func (h *Hasher) WriteOptional(s string, present bool) {
	if !present {
		_, _ = h.d.Write([]byte{0})
		return
	}
	_, _ = h.d.Write([]byte{1})
	h.WriteString(s)
}

// Sum returns the digest as 16 lowercase hex characters.
func (h *Hasher) Sum() string {
	return fmt.Sprintf("%016x", h.d.Sum64())
}

// ChunkContent feeds the chunk's own content: its id, its modules sorted
// by id, and its runtime modules in registration order.
func (h *Hasher) ChunkContent(chunk *graph.Chunk, modules []*graph.Module, runtime []runtimemodule.RuntimeModule) {
	h.WriteOptional(chunk.ID, chunk.ID != "")

	sorted := slices.Clone(modules)
	slices.SortFunc(sorted, func(a, b *graph.Module) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return cmp.Compare(string(a.Key), string(b.Key))
	})
	for _, m := range sorted {
		h.WriteOptional(m.ID, m.ID != "")
		h.WriteString(m.Source)
	}

	for _, rm := range runtime {
		h.WriteString(rm.Name())
		h.WriteString(rm.Generate())
	}
}
