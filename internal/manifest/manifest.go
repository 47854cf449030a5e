package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Domain prefixes for hashes derived from a manifest. The version suffix
// allows the algorithm to change without colliding with old values.
const (
	DomainFullHash = "rspack/full-hash/v1"
	DomainArtifact = "rspack/artifact/v1"
)

// Chunk is one emitted chunk.
type Chunk struct {
	Key            string
	ID             string
	Filename       string
	ContentHash    string
	Requirements   []string
	RuntimeModules []string
}

// Manifest lists every chunk of a pass.
type Manifest struct {
	Chunks []Chunk
}

// Sorted returns a copy with chunks ordered by key.
func (m Manifest) Sorted() Manifest {
	chunks := slices.Clone(m.Chunks)
	slices.SortFunc(chunks, func(a, b Chunk) int {
		return strings.Compare(a.Key, b.Key)
	})
	return Manifest{Chunks: chunks}
}

func (c Chunk) value() map[string]any {
	return map[string]any{
		"key":             c.Key,
		"id":              c.ID,
		"filename":        c.Filename,
		"content_hash":    c.ContentHash,
		"requirements":    nonNil(c.Requirements),
		"runtime_modules": nonNil(c.RuntimeModules),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MarshalCanonical encodes the manifest, chunks sorted by key.
func (m Manifest) MarshalCanonical() ([]byte, error) {
	sorted := m.Sorted()
	chunks := make([]any, len(sorted.Chunks))
	for i, c := range sorted.Chunks {
		chunks[i] = c.value()
	}
	return MarshalCanonical(map[string]any{"chunks": chunks})
}

// FullHash hashes the canonical manifest.
func (m Manifest) FullHash() (string, error) {
	data, err := m.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("full hash: %w", err)
	}
	return HashWithDomain(DomainFullHash, data), nil
}

// ArtifactHash identifies emitted chunk source independent of the pass.
func ArtifactHash(filename, source string) string {
	return HashWithDomain(DomainArtifact, []byte(filename+"\x00"+source))
}

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The separator keeps the domain and data boundary unambiguous.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
