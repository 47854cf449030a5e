package compilation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladyn98/rspack/internal/dependency"
	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/filename"
	"github.com/sladyn98/rspack/internal/format"
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/runtimemodule"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// appGraph models an entry point with a separate runtime chunk and an async
// split point below it:
//
//	main  (initial, runtime=runtime) chunks [runtime, main]
//	async (parent main)              chunks [lazy]
func appGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.NewBuilder().
		AddModule(graph.Module{Key: "./a.js", ID: "a", Source: "__webpack_require__.e(\"lazy\");"}).
		AddModule(graph.Module{Key: "./b.js", ID: "b", Source: "module.exports = 'b';"}).
		AddModule(graph.Module{Key: "./lazy.js", ID: "lazy", Source: "exports.x = 1;"}).
		AddChunk(graph.Chunk{Key: "runtime", ID: "runtime", Name: "runtime"}).
		AddChunk(graph.Chunk{
			Key:     "main",
			ID:      "main",
			Name:    "main",
			Modules: []graph.ModuleKey{"./a.js", "./b.js"},
			Entries: []graph.EntryModule{{Module: "./a.js", Group: "main"}, {Module: "./b.js", Group: "main"}},
		}).
		AddChunk(graph.Chunk{Key: "lazy", ID: "lazy", Modules: []graph.ModuleKey{"./lazy.js"}}).
		AddChunkGroup(graph.ChunkGroup{Key: "main", Chunks: []graph.ChunkKey{"runtime", "main"}, Initial: true, RuntimeChunk: "runtime"}).
		AddChunkGroup(graph.ChunkGroup{Key: "async", Chunks: []graph.ChunkKey{"lazy"}, Parents: []graph.ChunkGroupKey{"main"}}).
		Build()
	require.NoError(t, err)
	return g
}

func appDeps() map[graph.ModuleKey][]dependency.Dependency {
	return map[graph.ModuleKey][]dependency.Dependency{
		"./a.js": {dependency.NewRuntimeRequirementsDependency(globals.EnsureChunk | globals.EnsureChunkHandlers)},
	}
}

func plugins(t *testing.T) []format.Plugin {
	t.Helper()
	p, err := format.DefaultRegistry().Select(format.CommonJSName, format.ModuleChunkLoadingName, format.CommonJSLibraryName)
	require.NoError(t, err)
	return p
}

func run(t *testing.T, opts ...Option) *Result {
	t.Helper()
	base := []Option{
		WithDependencies(appDeps()),
		WithPassIDGenerator(NewFixedGenerator("pass-1")),
		WithLogger(discardLogger()),
	}
	result, err := New(appGraph(t), plugins(t), append(base, opts...)...).Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestRun_ChunkOrderAndPassID(t *testing.T) {
	result := run(t)

	assert.Equal(t, "pass-1", result.PassID)
	require.Len(t, result.Chunks, 3)
	keys := []graph.ChunkKey{result.Chunks[0].Key, result.Chunks[1].Key, result.Chunks[2].Key}
	assert.Equal(t, []graph.ChunkKey{"lazy", "main", "runtime"}, keys)
	assert.Len(t, result.FullHash, 64)
}

func TestRun_RuntimeChunkGetsTreeRequirements(t *testing.T) {
	result := run(t)

	rt, ok := result.Chunk("runtime")
	require.True(t, ok)

	want := globals.Require | globals.ExternalInstallChunk | globals.EnsureChunk |
		globals.EnsureChunkHandlers | globals.GetChunkScriptFilename |
		globals.ModuleFactoriesAddOnly | globals.HasOwnProperty
	assert.Equal(t, want, rt.Requirements)
	assert.Equal(t, []string{runtimemodule.ExportRequireName, runtimemodule.ModuleChunkLoadingName}, rt.RuntimeModules)
	assert.Contains(t, rt.Source, "__webpack_require__.f.j = function(chunkId, promises) {")
	assert.Contains(t, rt.Source, "__webpack_require__.C = installChunk;")

	main, ok := result.Chunk("main")
	require.True(t, ok)
	assert.Equal(t, globals.Require|globals.ExternalInstallChunk|globals.EnsureChunk|globals.EnsureChunkHandlers, main.Requirements)
	assert.Empty(t, main.RuntimeModules, "rules only act on chunks carrying a runtime")
}

func TestRun_EntryChunkLinksRuntime(t *testing.T) {
	result := run(t, WithTemplate(filename.MustParse("[name].[contenthash].js")))

	rt, _ := result.Chunk("runtime")
	main, _ := result.Chunk("main")

	assert.Len(t, rt.RenderHash, DefaultHashLength)
	assert.Equal(t, "runtime."+rt.RenderHash+".js", rt.Filename)
	assert.Equal(t, "main."+main.RenderHash+".js", main.Filename)
	assert.Contains(t, main.Source, "var __webpack_require__ = require('./"+rt.Filename+"');\n")
	assert.Equal(t, 1, strings.Count(main.Source, "module.exports = __webpack_exports__;"), "startup for the last entry only")
	assert.True(t, strings.HasPrefix(main.Source, "exports.ids = ['main'];\n"))
}

func TestRun_Deterministic(t *testing.T) {
	a := run(t, WithConcurrency(1))
	b := run(t, WithConcurrency(8))

	assert.Equal(t, a.FullHash, b.FullHash)
	for i := range a.Chunks {
		assert.Equal(t, a.Chunks[i].ContentHash, b.Chunks[i].ContentHash, a.Chunks[i].Key)
		assert.Equal(t, a.Chunks[i].Source, b.Chunks[i].Source, a.Chunks[i].Key)
	}
}

func TestRun_HashTracksModuleSource(t *testing.T) {
	before := run(t)

	g, err := graph.NewBuilder().
		AddModule(graph.Module{Key: "./lazy.js", ID: "lazy", Source: "exports.x = 2;"}).
		AddChunk(graph.Chunk{Key: "lazy", ID: "lazy", Modules: []graph.ModuleKey{"./lazy.js"}}).
		Build()
	require.NoError(t, err)
	after, err := New(g, plugins(t), WithLogger(discardLogger()), WithPassIDGenerator(NewFixedGenerator("x"))).Run(context.Background())
	require.NoError(t, err)

	b, _ := before.Chunk("lazy")
	a, _ := after.Chunk("lazy")
	assert.NotEqual(t, b.ContentHash, a.ContentHash)
}

type failingDependency struct{}

func (failingDependency) ParentModule() (graph.ModuleKey, bool) { return "./b.js", true }
func (failingDependency) Generate(*dependency.CodeGenContext) error {
	return errors.New("boom")
}

func TestRun_DependencyFailureAbortsPass(t *testing.T) {
	deps := map[graph.ModuleKey][]dependency.Dependency{"./b.js": {failingDependency{}}}

	result, err := New(appGraph(t), plugins(t), WithDependencies(deps), WithLogger(discardLogger())).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "generate module ./b.js in chunk main")
}

type churnModule struct{ code string }

func (m churnModule) Name() string     { return "test/churn" }
func (m churnModule) Generate() string { return m.code }

// churnPlugin registers different code on every pass and never converges.
type churnPlugin struct {
	format.Base
	n int
}

func (*churnPlugin) Name() string { return "churn" }

func (p *churnPlugin) RuntimeRequirementsInTree(ctx *engine.Context) error {
	p.n++
	ctx.RuntimeModules.Add(churnModule{code: strconv.Itoa(p.n)})
	return nil
}

func TestRun_FixedPointOverrun(t *testing.T) {
	ps := append(plugins(t), &churnPlugin{})

	_, err := New(appGraph(t), ps,
		WithConcurrency(1),
		WithMaxIterations(3),
		WithLogger(discardLogger()),
	).Run(context.Background())
	require.Error(t, err)
	assert.True(t, engine.IsFixedPointOverrun(err))

	var fp *engine.FixedPointError
	require.ErrorAs(t, err, &fp)
	assert.Equal(t, 3, fp.Limit)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(appGraph(t), plugins(t), WithLogger(discardLogger())).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Manifest(t *testing.T) {
	result := run(t)
	m := result.Manifest()

	require.Len(t, m.Chunks, 3)
	assert.Equal(t, "runtime", m.Chunks[2].Key)
	assert.Contains(t, m.Chunks[2].Requirements, "MODULE_FACTORIES_ADD_ONLY")

	full, err := m.FullHash()
	require.NoError(t, err)
	assert.Equal(t, result.FullHash, full)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}
