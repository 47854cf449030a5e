// Package globals defines the runtime capability flags a chunk may require.
//
// A RuntimeGlobals value is a bit set. Each bit names one piece of runtime
// support the emitted bootstrap must provide (the module-loading function,
// chunk-loading handlers, cross-chunk install hooks and so on).
//
// Iteration order is ascending bit order. It never depends on map iteration,
// so anything derived from Iter or Names is reproducible across runs.
package globals

import (
	"fmt"
	"math/bits"
	"strings"
)

// RuntimeGlobals is a set of runtime capability flags.
type RuntimeGlobals uint64

const (
	Require RuntimeGlobals = 1 << iota
	ModuleFactories
	ModuleFactoriesAddOnly
	ModuleCache
	EnsureChunk
	EnsureChunkHandlers
	ExternalInstallChunk
	OnChunksLoaded
	BaseURI
	HasOwnProperty
	GetChunkScriptFilename
	PublicPath
	EntryModuleID
	DefinePropertyGetters
	MakeNamespaceObject
	Exports
	Module
	LoadScript
	Startup
	Global
)

// None is the empty set.
const None RuntimeGlobals = 0

type flagInfo struct {
	name string
	expr string
}

var flagTable = map[RuntimeGlobals]flagInfo{
	Require:                {"REQUIRE", "__webpack_require__"},
	ModuleFactories:        {"MODULE_FACTORIES", "__webpack_require__.m"},
	ModuleFactoriesAddOnly: {"MODULE_FACTORIES_ADD_ONLY", "__webpack_require__.m (add only)"},
	ModuleCache:            {"MODULE_CACHE", "__webpack_require__.c"},
	EnsureChunk:            {"ENSURE_CHUNK", "__webpack_require__.e"},
	EnsureChunkHandlers:    {"ENSURE_CHUNK_HANDLERS", "__webpack_require__.f"},
	ExternalInstallChunk:   {"EXTERNAL_INSTALL_CHUNK", "__webpack_require__.C"},
	OnChunksLoaded:         {"ON_CHUNKS_LOADED", "__webpack_require__.O"},
	BaseURI:                {"BASE_URI", "__webpack_require__.b"},
	HasOwnProperty:         {"HAS_OWN_PROPERTY", "__webpack_require__.o"},
	GetChunkScriptFilename: {"GET_CHUNK_SCRIPT_FILENAME", "__webpack_require__.u"},
	PublicPath:             {"PUBLIC_PATH", "__webpack_require__.p"},
	EntryModuleID:          {"ENTRY_MODULE_ID", "__webpack_require__.s"},
	DefinePropertyGetters:  {"DEFINE_PROPERTY_GETTERS", "__webpack_require__.d"},
	MakeNamespaceObject:    {"MAKE_NAMESPACE_OBJECT", "__webpack_require__.r"},
	Exports:                {"EXPORTS", "__webpack_exports__"},
	Module:                 {"MODULE", "module"},
	LoadScript:             {"LOAD_SCRIPT", "__webpack_require__.l"},
	Startup:                {"STARTUP", "__webpack_require__.x"},
	Global:                 {"GLOBAL", "__webpack_require__.g"},
}

var byName = func() map[string]RuntimeGlobals {
	m := make(map[string]RuntimeGlobals, len(flagTable))
	for flag, info := range flagTable {
		m[info.name] = flag
	}
	return m
}()

// Add returns the union of g and other.
func (g RuntimeGlobals) Add(other RuntimeGlobals) RuntimeGlobals {
	return g | other
}

// Has reports whether every flag in other is present in g.
func (g RuntimeGlobals) Has(other RuntimeGlobals) bool {
	return g&other == other
}

// HasAny reports whether at least one flag in other is present in g.
func (g RuntimeGlobals) HasAny(other RuntimeGlobals) bool {
	return g&other != 0
}

// IsEmpty reports whether no flag is set.
func (g RuntimeGlobals) IsEmpty() bool {
	return g == None
}

// Len returns the number of flags in the set.
func (g RuntimeGlobals) Len() int {
	return bits.OnesCount64(uint64(g))
}

// Iter returns the individual flags of g in ascending bit order.
func (g RuntimeGlobals) Iter() []RuntimeGlobals {
	out := make([]RuntimeGlobals, 0, g.Len())
	for rest := uint64(g); rest != 0; rest &= rest - 1 {
		out = append(out, RuntimeGlobals(uint64(1)<<bits.TrailingZeros64(rest)))
	}
	return out
}

// Names returns the flag names of g in ascending bit order.
func (g RuntimeGlobals) Names() []string {
	flags := g.Iter()
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = f.name()
	}
	return names
}

// Expr returns the JavaScript expression a single flag stands for.
// It panics if g is not exactly one known flag.
func (g RuntimeGlobals) Expr() string {
	info, ok := flagTable[g]
	if !ok {
		panic(fmt.Sprintf("globals: Expr called on %v, want a single known flag", g))
	}
	return info.expr
}

func (g RuntimeGlobals) name() string {
	if info, ok := flagTable[g]; ok {
		return info.name
	}
	return fmt.Sprintf("UNKNOWN(%#x)", uint64(g))
}

// String formats the set as "A|B|C", or "NONE".
func (g RuntimeGlobals) String() string {
	if g.IsEmpty() {
		return "NONE"
	}
	return strings.Join(g.Names(), "|")
}

// Parse resolves a single flag by name. Names are case-insensitive.
func Parse(name string) (RuntimeGlobals, error) {
	flag, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return None, fmt.Errorf("unknown runtime global %q", name)
	}
	return flag, nil
}

// ParseList resolves a list of names into one set.
func ParseList(names []string) (RuntimeGlobals, error) {
	var set RuntimeGlobals
	for _, name := range names {
		flag, err := Parse(name)
		if err != nil {
			return None, err
		}
		set = set.Add(flag)
	}
	return set, nil
}
