package runtimemodule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladyn98/rspack/internal/globals"
)

type fakeModule struct {
	name string
	code string
}

func (f fakeModule) Name() string     { return f.name }
func (f fakeModule) Generate() string { return f.code }

func TestRegistry_KeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Add(fakeModule{"b", "b"}))
	assert.True(t, r.Add(fakeModule{"a", "a"}))
	assert.True(t, r.Add(fakeModule{"c", "c"}))

	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_IdempotentInsertion(t *testing.T) {
	r := NewRegistry()
	r.Add(fakeModule{"a", "code"})
	v := r.Version()

	assert.False(t, r.Add(fakeModule{"a", "code"}))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, v, r.Version())
}

func TestRegistry_ReplaceInPlace(t *testing.T) {
	r := NewRegistry()
	r.Add(fakeModule{"a", "v1"})
	r.Add(fakeModule{"b", "b"})
	v := r.Version()

	assert.True(t, r.Add(fakeModule{"a", "v2"}))
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Greater(t, r.Version(), v)

	m, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "v2", m.Generate())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	assert.Panics(t, func() { r.Add(fakeModule{"a", "a"}) })
}

func TestRegistry_ModulesIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Add(fakeModule{"a", "a"})

	mods := r.Modules()
	mods[0] = fakeModule{"x", "x"}
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestExportRequire(t *testing.T) {
	m := NewExportRequire()
	assert.Equal(t, ExportRequireName, m.Name())
	assert.Equal(t, "module.exports = __webpack_require__;\n", m.Generate())
}

func TestModuleChunkLoading_CodeFollowsRequirements(t *testing.T) {
	base := NewModuleChunkLoading(globals.ModuleFactoriesAddOnly | globals.HasOwnProperty).Generate()
	assert.Contains(t, base, "var installChunk = function(data) {")
	assert.NotContains(t, base, "__webpack_require__.f.j")
	assert.NotContains(t, base, "__webpack_require__.C = installChunk;")
	assert.NotContains(t, base, "import.meta.url")

	full := NewModuleChunkLoading(globals.EnsureChunkHandlers | globals.ExternalInstallChunk |
		globals.OnChunksLoaded | globals.BaseURI).Generate()
	assert.Contains(t, full, "__webpack_require__.b = new URL(\"./\", import.meta.url);")
	assert.Contains(t, full, "__webpack_require__.f.j = function(chunkId, promises) {")
	assert.Contains(t, full, "__webpack_require__.u(chunkId)")
	assert.Contains(t, full, "__webpack_require__.C = installChunk;")
	assert.Contains(t, full, "__webpack_require__.O.j = function(chunkId)")
	assert.Contains(t, full, "\t__webpack_require__.O();\n")
}

func TestModuleChunkLoading_DistinctSetsReplace(t *testing.T) {
	r := NewRegistry()
	r.Add(NewModuleChunkLoading(globals.HasOwnProperty))

	assert.False(t, r.Add(NewModuleChunkLoading(globals.HasOwnProperty)))
	assert.True(t, r.Add(NewModuleChunkLoading(globals.HasOwnProperty|globals.ExternalInstallChunk)))

	m, ok := r.Get(ModuleChunkLoadingName)
	require.True(t, ok)
	assert.Equal(t, globals.HasOwnProperty|globals.ExternalInstallChunk, m.(*ModuleChunkLoading).Requirements())
}
