package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sladyn98/rspack/internal/compilation"
	"github.com/sladyn98/rspack/internal/config"
	"github.com/sladyn98/rspack/internal/format"
)

// passRun is the shared front half of every command: load config and
// project, run one compilation pass.
type passRun struct {
	formatter *OutputFormatter
	config    config.Config
	project   *Project
	result    *compilation.Result
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// runPass loads everything and runs the pass. Errors are already reported
// through the formatter and carry exit codes.
func runPass(ctx context.Context, opts *RootOptions, cmd *cobra.Command, projectPath string, configure func(*config.Config)) (*passRun, error) {
	f := newFormatter(opts, cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeConfig, err)
	}
	if configure != nil {
		configure(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, f.fail(ExitCommandError, ErrCodeConfig, err)
		}
	}

	project, err := LoadProject(projectPath)
	if err != nil {
		code := ErrCodeGeneric
		var le *LoadError
		if errors.As(err, &le) {
			code = le.Code
		}
		return nil, f.fail(ExitCommandError, code, err)
	}
	f.VerboseLog("Loaded %d CUE file(s) from %s", project.FileCount, projectPath)

	plugins, err := format.DefaultRegistry().Select(cfg.Plugins()...)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeConfig, err)
	}
	tmpl, err := cfg.Template()
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeConfig, err)
	}

	logger := opts.logger(f.GetErrWriter())
	for _, c := range project.Graph.GroupCycles() {
		logger.Warn(c.Message)
	}

	comp := compilation.New(project.Graph, plugins,
		compilation.WithDependencies(project.Dependencies),
		compilation.WithTemplate(tmpl),
		compilation.WithHashLength(cfg.Output.HashLength),
		compilation.WithConcurrency(cfg.Concurrency),
		compilation.WithMaxIterations(cfg.MaxIterations),
		compilation.WithLogger(logger),
	)
	result, err := comp.Run(ctx)
	if err != nil {
		return nil, f.fail(ExitFailure, ErrCodePassFailed, err)
	}
	f.VerboseLog("Pass %s: %d chunk(s), full hash %s", result.PassID, len(result.Chunks), result.FullHash)

	return &passRun{formatter: f, config: cfg, project: project, result: result}, nil
}
