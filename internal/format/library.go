package format

import (
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/source"
)

// CommonJSLibraryName is the registry name of the CommonJS library plugin.
const CommonJSLibraryName = "commonjs-library"

// CommonJSLibrary exposes the exports of an entry chunk's last entry module
// as the CommonJS module's exports.
type CommonJSLibrary struct {
	Base
}

// NewCommonJSLibrary creates the library plugin.
func NewCommonJSLibrary() *CommonJSLibrary {
	return &CommonJSLibrary{}
}

// Name implements Plugin.
func (*CommonJSLibrary) Name() string { return CommonJSLibraryName }

// RenderStartup implements StartupRenderer.
func (*CommonJSLibrary) RenderStartup(*StartupContext) (source.Source, error) {
	return source.RawSource("module.exports = " + globals.Exports.Expr() + ";\n"), nil
}
