package format

import (
	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/runtimemodule"
)

// ModuleChunkLoadingName is the registry name of the chunk-loading rule.
const ModuleChunkLoadingName = "module"

// ModuleChunkLoading turns chunk-loading capabilities into runtime modules.
//
// It only acts on chunks that carry a runtime: the runtime chunk's tree
// requirements decide what the shared bootstrap must support.
type ModuleChunkLoading struct {
	Base
}

// NewModuleChunkLoading creates the chunk-loading rule plugin.
func NewModuleChunkLoading() *ModuleChunkLoading {
	return &ModuleChunkLoading{}
}

// Name implements Plugin.
func (*ModuleChunkLoading) Name() string { return ModuleChunkLoadingName }

// RuntimeRequirementsInTree implements Plugin.
//
//   - ENSURE_CHUNK_HANDLERS adds GET_CHUNK_SCRIPT_FILENAME
//   - EXTERNAL_INSTALL_CHUNK registers the export-require module
//   - ON_CHUNKS_LOADED and BASE_URI only activate chunk loading
//
// When chunk loading is active, MODULE_FACTORIES_ADD_ONLY and
// HAS_OWN_PROPERTY are added and the chunk-loading module is registered
// last, generated from the complete flag set of the pass.
func (*ModuleChunkLoading) RuntimeRequirementsInTree(ctx *engine.Context) error {
	if _, err := ctx.Graph.Chunk(ctx.Chunk); err != nil {
		return err
	}
	if !ctx.Graph.HasRuntime(ctx.Chunk) {
		return nil
	}

	req := ctx.Requirements
	active := false

	if req.Has(globals.EnsureChunkHandlers) {
		req.Add(globals.GetChunkScriptFilename)
		active = true
	}
	if req.Has(globals.ExternalInstallChunk) {
		ctx.RuntimeModules.Add(runtimemodule.NewExportRequire())
		active = true
	}
	if req.Snapshot().HasAny(globals.OnChunksLoaded | globals.BaseURI) {
		active = true
	}

	if !active {
		return nil
	}
	req.Add(globals.ModuleFactoriesAddOnly | globals.HasOwnProperty)
	ctx.RuntimeModules.Add(runtimemodule.NewModuleChunkLoading(req.Snapshot()))
	return nil
}
