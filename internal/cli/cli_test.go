package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladyn98/rspack/internal/graph"
)

var projectDir = filepath.Join("testdata", "project")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rspack-rt", cmd.Use)

	for _, name := range []string{"build", "inspect", "hash"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "hash", projectDir)
	assert.ErrorContains(t, err, `invalid format "yaml"`)
}

func TestLoadProject(t *testing.T) {
	p, err := LoadProject(projectDir)
	require.NoError(t, err)
	assert.Equal(t, 1, p.FileCount)
	assert.Len(t, p.Graph.ChunkKeys(), 3)
	assert.Len(t, p.Dependencies["./src/index.js"], 1)
	assert.Empty(t, p.Dependencies["./src/util.js"])

	lazy, err := p.Graph.Chunk("lazy")
	require.NoError(t, err)
	assert.Equal(t, "lazy", lazy.ID, "chunk id defaults to its key")

	single, err := LoadProject(filepath.Join(projectDir, "project.cue"))
	require.NoError(t, err)
	assert.Equal(t, p.Graph.ChunkKeys(), single.Graph.ChunkKeys())
}

func TestLoadProject_Errors(t *testing.T) {
	tests := []struct {
		path string
		code string
	}{
		{filepath.Join("testdata", "missing"), ErrCodeNotFound},
		{filepath.Join("testdata", "broken"), ErrCodeUnknownRequirement},
		{filepath.Join("testdata", "dangling"), ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := LoadProject(tt.path)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}

	_, err := LoadProject(t.TempDir())
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadProject_DirectoryWithoutPackageClause(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"modules.cue": `modules: "./a.js": {id: "a", source: "exports.a = 1;"}` + "\n",
		"graph.cue": `chunks: main: {modules: ["./a.js"], entries: [{module: "./a.js", group: "main"}]}
groups: main: {chunks: ["main"], initial: true, runtime: "main"}
`,
		filepath.Join("nested", "ignored.cue"): "this is not valid CUE {{{\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	p, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, p.FileCount, "files in subdirectories are not loaded")
	assert.Equal(t, []graph.ChunkKey{"main"}, p.Graph.ChunkKeys())
	assert.True(t, p.Graph.HasRuntime("main"))
}

func TestLoadProject_DanglingKeepsGraphErrorKind(t *testing.T) {
	_, err := LoadProject(filepath.Join("testdata", "dangling"))
	require.Error(t, err)
	assert.True(t, graph.IsMissingChunk(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestInspect_Text(t *testing.T) {
	out, err := execute(t, "inspect", projectDir)
	require.NoError(t, err)

	assert.Contains(t, out, "runtime chunk runtime (id runtime) -> runtime.js")
	assert.Contains(t, out, "chunk main (id main) -> main.js")
	assert.Contains(t, out, "entries:         ./src/index.js, ./src/util.js")
	assert.Contains(t, out, "webpack/runtime/export_require, webpack/runtime/module_chunk_loading")
	assert.Contains(t, out, "GET_CHUNK_SCRIPT_FILENAME")
}

func TestInspect_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "inspect", projectDir)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Chunks, 3)

	rt := resp.Data.Chunks[2]
	assert.Equal(t, "runtime", rt.Key)
	assert.True(t, rt.HasRuntime)
	assert.Contains(t, rt.Requirements, "MODULE_FACTORIES_ADD_ONLY")
	assert.Contains(t, rt.Requirements, "HAS_OWN_PROPERTY")

	lazy := resp.Data.Chunks[0]
	assert.Empty(t, lazy.RuntimeModules)
	assert.Empty(t, lazy.Requirements)
}

func TestHash_Deterministic(t *testing.T) {
	first, err := execute(t, "--format", "json", "hash", projectDir)
	require.NoError(t, err)
	second, err := execute(t, "--format", "json", "hash", projectDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var resp struct {
		Data HashReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &resp))
	assert.Len(t, resp.Data.FullHash, 64)
	for _, c := range resp.Data.Chunks {
		assert.Len(t, c.ContentHash, 16, c.Key)
		assert.Len(t, c.RenderHash, 8, c.Key)
	}
}

func TestHash_ProjectError(t *testing.T) {
	out, err := execute(t, "--format", "json", "hash", filepath.Join("testdata", "broken"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeUnknownRequirement, resp.Error.Code)
}

func TestBuild_WritesChunks(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "dist")

	out, err := execute(t, "build", projectDir, "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote   "+filepath.Join(outDir, "main.js"))

	main, err := os.ReadFile(filepath.Join(outDir, "main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "var __webpack_require__ = require('./runtime.js');")

	rt, err := os.ReadFile(filepath.Join(outDir, "runtime.js"))
	require.NoError(t, err)
	assert.Contains(t, string(rt), "__webpack_require__.C = installChunk;")

	_, err = os.Stat(filepath.Join(outDir, "lazy.js"))
	assert.NoError(t, err)
}

func TestBuild_CacheSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rspack.yaml")
	cfg := "output:\n  path: " + filepath.Join(dir, "dist") + "\ncache: " + filepath.Join(dir, "cache.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var first BuildSummary
	out, err := execute(t, "--config", cfgPath, "--format", "json", "build", projectDir)
	require.NoError(t, err)
	decodeData(t, out, &first)
	assert.Len(t, first.Written, 3)
	assert.Empty(t, first.Skipped)

	var second BuildSummary
	out, err = execute(t, "--config", cfgPath, "--format", "json", "build", projectDir)
	require.NoError(t, err)
	decodeData(t, out, &second)
	assert.Empty(t, second.Written)
	assert.ElementsMatch(t, []string{"lazy.js", "main.js", "runtime.js"}, second.Skipped)
	assert.Equal(t, first.FullHash, second.FullHash)
	assert.NotEqual(t, first.PassID, second.PassID)

	require.NoError(t, os.Remove(filepath.Join(dir, "dist", "main.js")))
	var third BuildSummary
	out, err = execute(t, "--config", cfgPath, "--format", "json", "build", projectDir)
	require.NoError(t, err)
	decodeData(t, out, &third)
	assert.Equal(t, []string{"main.js"}, third.Written, "missing files are rewritten")
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "rspack.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("chunk_format: jsonp\n"), 0o644))

	out, err := execute(t, "--config", cfgPath, "build", projectDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
	assert.Contains(t, out, `unknown plugin "jsonp"`)
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestExitError(t *testing.T) {
	err := WrapExitError(ExitFailure, "E301", assert.AnError)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
}

func TestInspect_ReportsGroupCycles(t *testing.T) {
	dir := filepath.Join("testdata", "cyclic")

	out, err := execute(t, "inspect", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: chunk group parent cycle: a → b → a")

	out, err = execute(t, "--format", "json", "inspect", dir)
	require.NoError(t, err)
	var report InspectReport
	decodeData(t, out, &report)
	require.Len(t, report.Cycles, 1)
	assert.Equal(t, "a", string(report.Cycles[0].Path[0]))
}
