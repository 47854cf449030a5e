package runtimemodule

import (
	"strings"

	"github.com/sladyn98/rspack/internal/globals"
)

const (
	// ExportRequireName names the module that exports the require function
	// from the runtime chunk.
	ExportRequireName = "webpack/runtime/export_require"

	// ModuleChunkLoadingName names the chunk-loading runtime module.
	ModuleChunkLoadingName = "webpack/runtime/module_chunk_loading"
)

// ExportRequire exports the runtime's require function so that entry chunks
// can obtain it with require().
type ExportRequire struct{}

// NewExportRequire creates the export-require module.
func NewExportRequire() *ExportRequire {
	return &ExportRequire{}
}

// Name implements RuntimeModule.
func (*ExportRequire) Name() string { return ExportRequireName }

// Generate implements RuntimeModule.
func (*ExportRequire) Generate() string {
	return "module.exports = " + globals.Require.Expr() + ";\n"
}

// ModuleChunkLoading installs loaded chunks into the running runtime.
//
// Its code depends on the exact capability set of the chunk, so it is
// parameterized by the final requirements of the resolution pass.
type ModuleChunkLoading struct {
	requirements globals.RuntimeGlobals
}

// NewModuleChunkLoading creates the module for the given requirement set.
func NewModuleChunkLoading(requirements globals.RuntimeGlobals) *ModuleChunkLoading {
	return &ModuleChunkLoading{requirements: requirements}
}

// Name implements RuntimeModule.
func (*ModuleChunkLoading) Name() string { return ModuleChunkLoadingName }

// Requirements returns the capability set the module was generated for.
func (m *ModuleChunkLoading) Requirements() globals.RuntimeGlobals {
	return m.requirements
}

// Generate implements RuntimeModule.
func (m *ModuleChunkLoading) Generate() string {
	req := globals.Require.Expr()
	has := globals.HasOwnProperty.Expr()
	factories := globals.ModuleFactories.Expr()

	var b strings.Builder
	if m.requirements.Has(globals.BaseURI) {
		b.WriteString(globals.BaseURI.Expr() + " = new URL(\"./\", import.meta.url);\n")
	}

	b.WriteString("// 0 = chunk loaded, [resolve, promise] = chunk loading\n")
	b.WriteString("var installedChunks = {};\n")
	b.WriteString("var installChunk = function(data) {\n")
	b.WriteString("\tvar ids = data.ids;\n")
	b.WriteString("\tvar modules = data.modules;\n")
	b.WriteString("\tvar runtime = data.runtime;\n")
	b.WriteString("\tvar moduleId, chunkId, i = 0;\n")
	b.WriteString("\tfor (moduleId in modules) {\n")
	b.WriteString("\t\tif (" + has + "(modules, moduleId)) {\n")
	b.WriteString("\t\t\t" + factories + "[moduleId] = modules[moduleId];\n")
	b.WriteString("\t\t}\n")
	b.WriteString("\t}\n")
	b.WriteString("\tif (runtime) runtime(" + req + ");\n")
	b.WriteString("\tfor (; i < ids.length; i++) {\n")
	b.WriteString("\t\tchunkId = ids[i];\n")
	b.WriteString("\t\tif (" + has + "(installedChunks, chunkId) && installedChunks[chunkId]) {\n")
	b.WriteString("\t\t\tinstalledChunks[chunkId][0]();\n")
	b.WriteString("\t\t}\n")
	b.WriteString("\t\tinstalledChunks[ids[i]] = 0;\n")
	b.WriteString("\t}\n")
	if m.requirements.Has(globals.OnChunksLoaded) {
		b.WriteString("\t" + globals.OnChunksLoaded.Expr() + "();\n")
	}
	b.WriteString("};\n")

	if m.requirements.Has(globals.EnsureChunkHandlers) {
		b.WriteString(globals.EnsureChunkHandlers.Expr() + ".j = function(chunkId, promises) {\n")
		b.WriteString("\tvar installedChunkData = " + has + "(installedChunks, chunkId) ? installedChunks[chunkId] : undefined;\n")
		b.WriteString("\tif (installedChunkData !== 0) {\n")
		b.WriteString("\t\tif (installedChunkData) {\n")
		b.WriteString("\t\t\tpromises.push(installedChunkData[1]);\n")
		b.WriteString("\t\t} else {\n")
		b.WriteString("\t\t\tvar promise = import(" + globals.PublicPath.Expr() + " + " + globals.GetChunkScriptFilename.Expr() + "(chunkId)).then(installChunk, function(e) {\n")
		b.WriteString("\t\t\t\tif (installedChunks[chunkId] !== 0) installedChunks[chunkId] = undefined;\n")
		b.WriteString("\t\t\t\tthrow e;\n")
		b.WriteString("\t\t\t});\n")
		b.WriteString("\t\t\tpromise = Promise.race([promise, new Promise(function(resolve) {\n")
		b.WriteString("\t\t\t\tinstalledChunkData = installedChunks[chunkId] = [resolve];\n")
		b.WriteString("\t\t\t})]);\n")
		b.WriteString("\t\t\tpromises.push(installedChunkData[1] = promise);\n")
		b.WriteString("\t\t}\n")
		b.WriteString("\t}\n")
		b.WriteString("};\n")
	}
	if m.requirements.Has(globals.ExternalInstallChunk) {
		b.WriteString(globals.ExternalInstallChunk.Expr() + " = installChunk;\n")
	}
	if m.requirements.Has(globals.OnChunksLoaded) {
		b.WriteString(globals.OnChunksLoaded.Expr() + ".j = function(chunkId) { return installedChunks[chunkId] === 0; };\n")
	}
	return b.String()
}
