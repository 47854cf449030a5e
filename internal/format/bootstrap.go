package format

import (
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/source"
)

// RenderBootstrap renders a chunk that carries its own runtime: the module
// table, the module cache, the require function, the chunk's runtime
// modules in registration order and finally its own entry code.
func RenderBootstrap(ctx *RenderContext) (source.Source, error) {
	req := globals.Require.Expr()

	out := source.NewConcatSource()
	out.AddString("var __webpack_modules__ = (")
	out.Add(RenderModules(ctx.Graph, ctx.Chunk))
	out.AddString(");\n")
	out.AddString("var __webpack_module_cache__ = {};\n")
	out.AddString("function " + req + "(moduleId) {\n")
	out.AddString("\tvar cachedModule = __webpack_module_cache__[moduleId];\n")
	out.AddString("\tif (cachedModule !== undefined) {\n")
	out.AddString("\t\treturn cachedModule.exports;\n")
	out.AddString("\t}\n")
	out.AddString("\tvar module = __webpack_module_cache__[moduleId] = { exports: {} };\n")
	out.AddString("\t__webpack_modules__[moduleId](module, module.exports, " + req + ");\n")
	out.AddString("\treturn module.exports;\n")
	out.AddString("}\n")

	if ctx.Requirements.HasAny(globals.ModuleFactories | globals.ModuleFactoriesAddOnly) {
		out.AddString(globals.ModuleFactories.Expr() + " = __webpack_modules__;\n")
	}
	if ctx.Requirements.Has(globals.HasOwnProperty) {
		out.AddString(globals.HasOwnProperty.Expr() + " = function(obj, prop) { return Object.prototype.hasOwnProperty.call(obj, prop); };\n")
	}
	for _, m := range ctx.RuntimeModules {
		out.Add(renderRuntimeModule(m))
	}

	if !ctx.Graph.HasEntryModule(ctx.Chunk) {
		return out, nil
	}
	entry, err := renderEntries(ctx)
	if err != nil {
		return nil, err
	}
	out.Add(entry)
	return out, nil
}
