package dependency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
)

type failingDependency struct{ err error }

func (f failingDependency) ParentModule() (graph.ModuleKey, bool) { return "./owner.js", true }
func (f failingDependency) Generate(*CodeGenContext) error       { return f.err }

func newContext(initial globals.RuntimeGlobals) (*CodeGenContext, *globals.Requirements) {
	reqs := globals.NewRequirements(initial)
	return &CodeGenContext{Chunk: "main", Module: "./a.js", RuntimeRequirements: reqs}, reqs
}

func TestRuntimeRequirementsDependency_HasNoParent(t *testing.T) {
	dep := NewRuntimeRequirementsDependency(globals.Require)

	key, ok := dep.ParentModule()
	assert.False(t, ok)
	assert.Empty(t, key)
}

func TestRuntimeRequirementsDependency_GenerateUnions(t *testing.T) {
	ctx, reqs := newContext(globals.BaseURI)
	dep := NewRuntimeRequirementsDependency(globals.Require | globals.EnsureChunkHandlers)

	require.NoError(t, dep.Generate(ctx))
	assert.Equal(t, globals.BaseURI|globals.Require|globals.EnsureChunkHandlers, reqs.Snapshot())

	// Generating again changes nothing.
	require.NoError(t, dep.Generate(ctx))
	assert.Equal(t, 3, reqs.Snapshot().Len())
}

func TestInject_EmptySet(t *testing.T) {
	ctx, reqs := newContext(globals.Require)
	Inject(globals.None, ctx)
	assert.Equal(t, globals.Require, reqs.Snapshot())
}

func TestSeed(t *testing.T) {
	ctx, reqs := newContext(globals.None)
	deps := []Dependency{
		NewRuntimeRequirementsDependency(globals.Require),
		NewRuntimeRequirementsDependency(globals.OnChunksLoaded),
	}

	require.NoError(t, Seed(ctx, deps))
	assert.Equal(t, globals.Require|globals.OnChunksLoaded, reqs.Snapshot())
}

func TestSeed_StopsOnError(t *testing.T) {
	ctx, reqs := newContext(globals.None)
	boom := errors.New("boom")
	deps := []Dependency{
		NewRuntimeRequirementsDependency(globals.Require),
		failingDependency{err: boom},
		NewRuntimeRequirementsDependency(globals.BaseURI),
	}

	err := Seed(ctx, deps)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, globals.Require, reqs.Snapshot())
}
