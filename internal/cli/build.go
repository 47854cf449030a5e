package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sladyn98/rspack/internal/compilation"
	"github.com/sladyn98/rspack/internal/config"
	"github.com/sladyn98/rspack/internal/manifest"
	"github.com/sladyn98/rspack/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output  string // overrides output.path
	NoCache bool
}

// BuildSummary is the result of the build command.
type BuildSummary struct {
	PassID    string   `json:"pass_id"`
	FullHash  string   `json:"full_hash"`
	OutputDir string   `json:"output_dir"`
	Written   []string `json:"written"`
	Skipped   []string `json:"skipped"`
}

// Text implements textOutput.
func (s BuildSummary) Text(w io.Writer) {
	for _, name := range s.Written {
		fmt.Fprintf(w, "wrote   %s\n", filepath.Join(s.OutputDir, name))
	}
	for _, name := range s.Skipped {
		fmt.Fprintf(w, "cached  %s\n", filepath.Join(s.OutputDir, name))
	}
	fmt.Fprintf(w, "✓ pass %s (%s)\n", s.PassID, s.FullHash)
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <project>",
		Short: "Run a compilation pass and write the chunks",
		Long: `Run one compilation pass over a CUE project and write every assembled
chunk to the output directory.

With a cache configured, files whose content did not change since the last
pass are left untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (overrides output.path)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "ignore the artifact cache")

	return cmd
}

func runBuild(ctx context.Context, opts *BuildOptions, projectPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	run, err := runPass(ctx, opts.RootOptions, cmd, projectPath, func(c *config.Config) {
		if opts.Output != "" {
			c.Output.Path = opts.Output
		}
		if opts.NoCache {
			c.Cache = ""
		}
	})
	if err != nil {
		return err
	}
	f := run.formatter
	outDir := run.config.Output.Path

	var cache *store.Store
	if run.config.Cache != "" {
		cache, err = store.Open(run.config.Cache)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeCache, err)
		}
		defer cache.Close()
	}

	summary, err := writeChunks(ctx, cache, outDir, run.result)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	return f.Success(summary)
}

// writeChunks writes every chunk into outDir, skipping files the cache
// reports as unchanged and still present on disk.
func writeChunks(ctx context.Context, cache *store.Store, outDir string, result *compilation.Result) (BuildSummary, error) {
	summary := BuildSummary{
		PassID:    result.PassID,
		FullHash:  result.FullHash,
		OutputDir: outDir,
		Written:   []string{},
		Skipped:   []string{},
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}
	if cache != nil {
		if _, err := cache.RecordPass(ctx, result.PassID, result.FullHash, len(result.Chunks)); err != nil {
			return summary, err
		}
	}

	for _, chunk := range result.Chunks {
		path := filepath.Join(outDir, chunk.Filename)
		sourceHash := manifest.ArtifactHash(chunk.Filename, chunk.Source)

		skip := false
		if cache != nil {
			unchanged, err := cache.Unchanged(ctx, chunk.Filename, sourceHash)
			if err != nil {
				return summary, err
			}
			_, statErr := os.Stat(path)
			skip = unchanged && statErr == nil
		}

		if skip {
			summary.Skipped = append(summary.Skipped, chunk.Filename)
		} else {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return summary, fmt.Errorf("create directory for %s: %w", chunk.Filename, err)
			}
			if err := os.WriteFile(path, []byte(chunk.Source), 0o644); err != nil {
				return summary, fmt.Errorf("write %s: %w", chunk.Filename, err)
			}
			summary.Written = append(summary.Written, chunk.Filename)
		}

		if cache != nil {
			err := cache.PutArtifact(ctx, store.Artifact{
				Filename:    chunk.Filename,
				ChunkKey:    string(chunk.Key),
				ContentHash: chunk.ContentHash,
				SourceHash:  sourceHash,
				Size:        len(chunk.Source),
				PassID:      result.PassID,
			})
			if err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}
