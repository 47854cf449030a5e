package format

import (
	"github.com/sladyn98/rspack/internal/filename"
	"github.com/sladyn98/rspack/internal/graph"
)

// ResolveRuntimeChunkPath returns the path an entry chunk requires its
// runtime from, relative to the chunk and prefixed with "./".
//
// The first entry module decides the entry point. The runtime chunk's render
// hash fills every hash placeholder of the template.
func ResolveRuntimeChunkPath(ctx *RenderContext) (string, error) {
	entries := ctx.Graph.EntryModules(ctx.Chunk)
	if len(entries) == 0 {
		return "", graph.NewMissingEntryPointError(ctx.Chunk)
	}

	group, err := ctx.Graph.ChunkGroup(entries[0].Group)
	if err != nil {
		return "", err
	}
	if group.RuntimeChunk == "" {
		return "", graph.NewMissingRuntimeChunkError("", group.Key)
	}

	rt, err := ctx.Graph.Chunk(group.RuntimeChunk)
	if err != nil {
		return "", graph.NewMissingRuntimeChunkError(group.RuntimeChunk, group.Key)
	}

	hash, _ := ctx.RenderHash(rt.Key)
	name, err := ctx.Template.Render(filename.RenderOptions{
		Name:        rt.NameForFilenameTemplate(),
		Extension:   ".js",
		ID:          rt.ID,
		ContentHash: hash,
		ChunkHash:   hash,
		Hash:        hash,
	})
	if err != nil {
		return "", err
	}
	return "./" + name, nil
}
