package format

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"

	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/runtimemodule"
	"github.com/sladyn98/rspack/internal/source"
)

// moduleID returns the id a module is emitted under. Modules without an
// assigned id fall back to their key.
func moduleID(m *graph.Module) string {
	if m.ID != "" {
		return m.ID
	}
	return string(m.Key)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// RenderModules renders the chunk's module table, sorted by module id.
//
//	{
//	"a": (function (module, exports, __webpack_require__) {
//	...
//	}),
//	}
func RenderModules(view graph.View, chunk graph.ChunkKey) source.Source {
	modules := view.ChunkModules(chunk)
	slices.SortFunc(modules, func(a, b *graph.Module) int {
		return cmp.Compare(moduleID(a), moduleID(b))
	})

	out := source.NewConcatSource(source.RawSource("{\n"))
	for _, m := range modules {
		out.AddString(jsString(moduleID(m)) + ": (function (module, exports, " + globals.Require.Expr() + ") {\n")
		out.AddString(strings.TrimSuffix(m.Source, "\n") + "\n")
		out.AddString("}),\n")
	}
	out.AddString("}")
	return out
}

// RenderRuntimeModules renders runtime modules, in registration order, as
// one function receiving the require function.
func RenderRuntimeModules(modules []runtimemodule.RuntimeModule) source.Source {
	req := globals.Require.Expr()
	out := source.NewConcatSource(source.RawSource("function(" + req + ") {\n"))
	for _, m := range modules {
		out.Add(renderRuntimeModule(m))
	}
	out.AddString("}")
	return out
}

func renderRuntimeModule(m runtimemodule.RuntimeModule) source.Source {
	return source.NewConcatSource(
		source.RawSource("// "+m.Name()+"\n"),
		source.RawSource("(function() {\n"),
		source.RawSource(strings.TrimSuffix(m.Generate(), "\n")+"\n"),
		source.RawSource("})();\n"),
	)
}

// GenerateChunkEntryCode invokes every entry module in declaration order.
// The value of the last entry becomes the chunk's exports.
func GenerateChunkEntryCode(entryIDs []string) source.Source {
	req := globals.Require.Expr()
	calls := make([]string, len(entryIDs))
	for i, id := range entryIDs {
		calls[i] = "__webpack_exec__(" + jsString(id) + ")"
	}
	return source.NewConcatSource(
		source.RawSource("var __webpack_exec__ = function(moduleId) { return "+req+"("+globals.EntryModuleID.Expr()+" = moduleId); };\n"),
		source.RawSource("var "+globals.Exports.Expr()+" = ("+strings.Join(calls, ", ")+");\n"),
	)
}
