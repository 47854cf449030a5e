package format

import (
	"strings"

	"github.com/sladyn98/rspack/internal/chunkhash"
	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/source"
)

// CommonJSName is the registry name of the CommonJS chunk format.
const CommonJSName = "commonjs"

// CommonJsChunkFormat emits chunks as CommonJS modules. Non-runtime chunks
// export their ids, module table and runtime table; entry chunks require
// their runtime chunk and install themselves into it.
type CommonJsChunkFormat struct {
	Base
}

// NewCommonJsChunkFormat creates the CommonJS chunk format.
func NewCommonJsChunkFormat() *CommonJsChunkFormat {
	return &CommonJsChunkFormat{}
}

// Name implements Plugin.
func (*CommonJsChunkFormat) Name() string { return CommonJSName }

// AdditionalChunkRuntimeRequirements implements Plugin. Entry chunks that do
// not carry a runtime need the require function and the install hook of the
// runtime they load.
func (*CommonJsChunkFormat) AdditionalChunkRuntimeRequirements(ctx *engine.Context) error {
	if _, err := ctx.Graph.Chunk(ctx.Chunk); err != nil {
		return err
	}
	if ctx.Graph.HasRuntime(ctx.Chunk) {
		return nil
	}
	if ctx.Graph.HasEntryModule(ctx.Chunk) {
		ctx.Requirements.Add(globals.Require | globals.ExternalInstallChunk)
	}
	return nil
}

// ChunkHash implements Plugin.
func (p *CommonJsChunkFormat) ChunkHash(ctx *HashContext) error {
	if ctx.Graph.HasRuntime(ctx.Chunk) {
		return nil
	}
	ctx.Hasher.WriteString(p.Name())
	return chunkhash.HashEntryStartup(ctx.Hasher, ctx.Graph, ctx.Graph.EntryModules(ctx.Chunk), ctx.Chunk)
}

// RenderChunk implements Plugin.
func (p *CommonJsChunkFormat) RenderChunk(ctx *RenderContext) (source.Source, error) {
	chunk, err := ctx.Graph.Chunk(ctx.Chunk)
	if err != nil {
		return nil, err
	}
	if ctx.Graph.HasRuntime(ctx.Chunk) {
		return RenderBootstrap(ctx)
	}

	out := source.NewConcatSource()
	out.AddString("exports.ids = [" + singleQuote(chunk.ID) + "];\n")
	out.AddString("exports.modules = ")
	out.Add(RenderModules(ctx.Graph, ctx.Chunk))
	out.AddString(";\n")
	if len(ctx.RuntimeModules) > 0 {
		out.AddString("exports.runtime = ")
		out.Add(RenderRuntimeModules(ctx.RuntimeModules))
		out.AddString(";\n")
	}

	if !ctx.Graph.HasEntryModule(ctx.Chunk) {
		return out, nil
	}

	path, err := ResolveRuntimeChunkPath(ctx)
	if err != nil {
		return nil, err
	}
	out.AddString("\nvar " + globals.Require.Expr() + " = require(" + singleQuote(path) + ");\n")
	out.AddString("\n" + globals.ExternalInstallChunk.Expr() + "(exports)\n")

	entry, err := renderEntries(ctx)
	if err != nil {
		return nil, err
	}
	out.Add(entry)
	return out, nil
}

// renderEntries emits entry invocation code for every entry module and the
// startup fragment for the last one only.
func renderEntries(ctx *RenderContext) (source.Source, error) {
	ids, err := EntryModuleIDs(ctx.Graph, ctx.Chunk)
	if err != nil {
		return nil, err
	}
	out := source.NewConcatSource(GenerateChunkEntryCode(ids))

	entries := ctx.Graph.EntryModules(ctx.Chunk)
	last := entries[len(entries)-1]
	if ctx.Startup == nil {
		return out, nil
	}
	s, err := ctx.Startup(&StartupContext{Chunk: ctx.Chunk, Module: last.Module, Graph: ctx.Graph})
	if err != nil {
		return nil, err
	}
	out.Add(s)
	return out, nil
}

func singleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
