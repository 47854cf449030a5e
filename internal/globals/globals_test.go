package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeGlobals_AddHas(t *testing.T) {
	g := None.Add(Require).Add(EnsureChunkHandlers)

	assert.True(t, g.Has(Require))
	assert.True(t, g.Has(Require|EnsureChunkHandlers))
	assert.False(t, g.Has(Require|BaseURI))
	assert.True(t, g.HasAny(BaseURI|Require))
	assert.False(t, g.HasAny(BaseURI|OnChunksLoaded))
	assert.Equal(t, 2, g.Len())
}

func TestRuntimeGlobals_IterIsAscending(t *testing.T) {
	g := HasOwnProperty | Require | ExternalInstallChunk

	assert.Equal(t, []RuntimeGlobals{Require, ExternalInstallChunk, HasOwnProperty}, g.Iter())
	assert.Equal(t, []string{"REQUIRE", "EXTERNAL_INSTALL_CHUNK", "HAS_OWN_PROPERTY"}, g.Names())
	assert.Equal(t, "REQUIRE|EXTERNAL_INSTALL_CHUNK|HAS_OWN_PROPERTY", g.String())
}

func TestRuntimeGlobals_Empty(t *testing.T) {
	assert.True(t, None.IsEmpty())
	assert.Empty(t, None.Iter())
	assert.Equal(t, "NONE", None.String())
}

func TestRuntimeGlobals_Expr(t *testing.T) {
	assert.Equal(t, "__webpack_require__", Require.Expr())
	assert.Equal(t, "__webpack_require__.C", ExternalInstallChunk.Expr())
	assert.Panics(t, func() { _ = (Require | BaseURI).Expr() })
}

func TestParse(t *testing.T) {
	flag, err := Parse("ensure_chunk_handlers")
	require.NoError(t, err)
	assert.Equal(t, EnsureChunkHandlers, flag)

	_, err = Parse("NOT_A_FLAG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_A_FLAG")
}

func TestParseList(t *testing.T) {
	set, err := ParseList([]string{"REQUIRE", "BASE_URI", "REQUIRE"})
	require.NoError(t, err)
	assert.Equal(t, Require|BaseURI, set)

	_, err = ParseList([]string{"REQUIRE", "bogus"})
	require.Error(t, err)
}

func TestEveryFlagHasName(t *testing.T) {
	for flag := Require; flag <= Global; flag <<= 1 {
		name := flag.String()
		assert.NotContains(t, name, "UNKNOWN", "flag %#x", uint64(flag))

		parsed, err := Parse(name)
		require.NoError(t, err)
		assert.Equal(t, flag, parsed)
	}
}

func TestRequirements_Monotonic(t *testing.T) {
	r := NewRequirements(Require)

	assert.False(t, r.Add(Require), "re-adding an existing flag is not growth")
	assert.True(t, r.Add(BaseURI))
	assert.Equal(t, Require|BaseURI, r.Snapshot())

	before := r.Snapshot()
	r.Add(None)
	assert.True(t, r.Snapshot().Has(before))
}

func TestRequirements_Freeze(t *testing.T) {
	r := NewRequirements(None)
	r.Add(Require)
	r.Freeze()

	assert.True(t, r.Frozen())
	assert.True(t, r.Has(Require))
	assert.Panics(t, func() { r.Add(BaseURI) })
}
