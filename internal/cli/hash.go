package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ChunkHash is one chunk's hashes.
type ChunkHash struct {
	Key         string `json:"key"`
	ContentHash string `json:"content_hash"`
	RenderHash  string `json:"render_hash"`
}

// HashReport is the result of the hash command.
type HashReport struct {
	FullHash string      `json:"full_hash"`
	Chunks   []ChunkHash `json:"chunks"`
}

// Text implements textOutput.
func (r HashReport) Text(w io.Writer) {
	for _, c := range r.Chunks {
		fmt.Fprintf(w, "%s  %s\n", c.ContentHash, c.Key)
	}
	fmt.Fprintf(w, "full hash %s\n", r.FullHash)
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "hash <project>",
		Short:         "Print chunk content hashes and the full hash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			run, err := runPass(ctx, rootOpts, cmd, args[0], nil)
			if err != nil {
				return err
			}

			report := HashReport{FullHash: run.result.FullHash, Chunks: make([]ChunkHash, len(run.result.Chunks))}
			for i, out := range run.result.Chunks {
				report.Chunks[i] = ChunkHash{Key: string(out.Key), ContentHash: out.ContentHash, RenderHash: out.RenderHash}
			}
			return run.formatter.Success(report)
		},
	}
}
