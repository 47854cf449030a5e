package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sladyn98/rspack/internal/graph"
)

// ChunkReport describes one resolved chunk.
type ChunkReport struct {
	Key            string   `json:"key"`
	ID             string   `json:"id"`
	Filename       string   `json:"filename"`
	HasRuntime     bool     `json:"has_runtime"`
	Entries        []string `json:"entries"`
	Requirements   []string `json:"requirements"`
	RuntimeModules []string `json:"runtime_modules"`
}

// InspectReport is the result of the inspect command.
type InspectReport struct {
	Chunks []ChunkReport        `json:"chunks"`
	Cycles []graph.CycleWarning `json:"cycles"`
}

// Text implements textOutput.
func (r InspectReport) Text(w io.Writer) {
	for i, c := range r.Chunks {
		if i > 0 {
			fmt.Fprintln(w)
		}
		kind := "chunk"
		if c.HasRuntime {
			kind = "runtime chunk"
		}
		fmt.Fprintf(w, "%s %s (id %s) -> %s\n", kind, c.Key, c.ID, c.Filename)
		if len(c.Entries) > 0 {
			fmt.Fprintf(w, "  entries:         %s\n", strings.Join(c.Entries, ", "))
		}
		fmt.Fprintf(w, "  requirements:    %s\n", orNone(c.Requirements))
		fmt.Fprintf(w, "  runtime modules: %s\n", orNone(c.RuntimeModules))
	}
	for _, c := range r.Cycles {
		fmt.Fprintf(w, "\nwarning: %s\n", c.Message)
	}
}

func orNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <project>",
		Short: "Show resolved requirements and runtime modules per chunk",
		Long: `Run one compilation pass without writing anything and report, for every
chunk, the runtime requirements it resolved to and the runtime modules that
were synthesized for it.`,
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
			return run.formatter.Success(inspectReport(run))
		},
	}
}

func inspectReport(run *passRun) InspectReport {
	view := run.project.Graph
	report := InspectReport{
		Chunks: make([]ChunkReport, 0, len(run.result.Chunks)),
		Cycles: view.GroupCycles(),
	}
	if report.Cycles == nil {
		report.Cycles = []graph.CycleWarning{}
	}
	for _, out := range run.result.Chunks {
		entries := []string{}
		for _, e := range view.EntryModules(out.Key) {
			entries = append(entries, string(e.Module))
		}
		report.Chunks = append(report.Chunks, ChunkReport{
			Key:            string(out.Key),
			ID:             out.ID,
			Filename:       out.Filename,
			HasRuntime:     view.HasRuntime(out.Key),
			Entries:        entries,
			Requirements:   nonNil(out.Requirements.Names()),
			RuntimeModules: nonNil(out.RuntimeModules),
		})
	}
	return report
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
