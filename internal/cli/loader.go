package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/sladyn98/rspack/internal/dependency"
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build or decode failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeInvalidGraph       = "E101" // Dangling or duplicate graph reference
	ErrCodeUnknownRequirement = "E102" // Unknown runtime requirement name

	ErrCodeConfig = "E201" // Invalid configuration
	ErrCodeCache  = "E202" // Artifact cache error

	ErrCodePassFailed = "E301" // Compilation pass failed
)

// Project is a decoded chunk graph plus the runtime requirements each module
// declares.
type Project struct {
	Graph        *graph.Graph
	Dependencies map[graph.ModuleKey][]dependency.Dependency
	FileCount    int
}

// LoadError is a project loading failure.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error     // underlying cause, if any
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, so graph error kinds stay visible
// to errors.Is and the graph.IsMissing helpers.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// projectFile mirrors the CUE project layout:
//
//	package project
//
//	modules: "./a.js": {id: "a", source: "...", requirements: ["ENSURE_CHUNK"]}
//	chunks: main: {modules: ["./a.js"], entries: [{module: "./a.js", group: "main"}]}
//	groups: main: {chunks: ["main"], initial: true, runtime: "main"}
type projectFile struct {
	Modules map[string]moduleSpec `json:"modules"`
	Chunks  map[string]chunkSpec  `json:"chunks"`
	Groups  map[string]groupSpec  `json:"groups"`
}

type moduleSpec struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Requirements []string `json:"requirements"`
}

type chunkSpec struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Modules []string    `json:"modules"`
	Entries []entrySpec `json:"entries"`
}

type entrySpec struct {
	Module string `json:"module"`
	Group  string `json:"group"`
}

type groupSpec struct {
	Chunks  []string `json:"chunks"`
	Parents []string `json:"parents"`
	Initial bool     `json:"initial"`
	Runtime string   `json:"runtime"`
}

// LoadProject loads a CUE project from a directory or a single .cue file.
func LoadProject(path string) (*Project, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing project: %v", err)}
	}

	// Files are passed to the loader by name, so a project without a
	// package clause loads the same as one with it. A CUE instance spans a
	// single directory; files in subdirectories are not part of it.
	dir, args := path, []string(nil)
	if info.IsDir() {
		files, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		for _, f := range files {
			if filepath.Dir(f) == filepath.Clean(path) {
				args = append(args, filepath.Base(f))
			}
		}
		if len(args) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		slices.Sort(args)
	} else {
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "building CUE value", err)
	}

	var pf projectFile
	if err := value.Decode(&pf); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "decoding project", err)
	}

	project, err := buildProject(pf)
	if err != nil {
		return nil, err
	}
	project.FileCount = len(args)
	return project, nil
}

func cueLoadError(code, what string, err error) *LoadError {
	le := &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", what, err)}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}

// buildProject feeds the decoded project into a graph builder. Map keys are
// visited in sorted order so errors are reported deterministically.
func buildProject(pf projectFile) (*Project, error) {
	b := graph.NewBuilder()
	deps := make(map[graph.ModuleKey][]dependency.Dependency)

	for _, key := range sortedKeys(pf.Modules) {
		spec := pf.Modules[key]
		b.AddModule(graph.Module{Key: graph.ModuleKey(key), ID: spec.ID, Source: spec.Source})

		flags, err := globals.ParseList(spec.Requirements)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeUnknownRequirement, Message: fmt.Sprintf("module %s: %v", key, err)}
		}
		if !flags.IsEmpty() {
			deps[graph.ModuleKey(key)] = []dependency.Dependency{dependency.NewRuntimeRequirementsDependency(flags)}
		}
	}

	for _, key := range sortedKeys(pf.Chunks) {
		spec := pf.Chunks[key]
		id := spec.ID
		if id == "" {
			id = key
		}
		chunk := graph.Chunk{Key: graph.ChunkKey(key), ID: id, Name: spec.Name}
		for _, m := range spec.Modules {
			chunk.Modules = append(chunk.Modules, graph.ModuleKey(m))
		}
		for _, e := range spec.Entries {
			chunk.Entries = append(chunk.Entries, graph.EntryModule{Module: graph.ModuleKey(e.Module), Group: graph.ChunkGroupKey(e.Group)})
		}
		b.AddChunk(chunk)
	}

	for _, key := range sortedKeys(pf.Groups) {
		spec := pf.Groups[key]
		group := graph.ChunkGroup{
			Key:          graph.ChunkGroupKey(key),
			Initial:      spec.Initial,
			RuntimeChunk: graph.ChunkKey(spec.Runtime),
		}
		for _, c := range spec.Chunks {
			group.Chunks = append(group.Chunks, graph.ChunkKey(c))
		}
		for _, p := range spec.Parents {
			group.Parents = append(group.Parents, graph.ChunkGroupKey(p))
		}
		b.AddChunkGroup(group)
	}

	g, err := b.Build()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidGraph, Message: err.Error(), Err: err}
	}
	return &Project{Graph: g, Dependencies: deps}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
