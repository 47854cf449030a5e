package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxIterations is the default fixed-point pass cap per chunk.
// Real rule sets converge in two or three passes.
const DefaultMaxIterations = 32

// DefaultConcurrency is the default number of chunks resolved in parallel.
const DefaultConcurrency = 4

// Engine applies an ordered rule list to chunks until each reaches a fixed point.
//
// INVARIANTS:
//   - rules slice order never changes after construction
//   - rules run sequentially within one chunk
type Engine struct {
	rules         []Rule
	maxIterations int
	concurrency   int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations sets the fixed-point pass cap.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIterations = n
	}
}

// WithConcurrency sets how many chunks ResolveAll works on at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine. The rules slice is copied so later mutation by the
// caller cannot reorder evaluation.
func New(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		rules:         append([]Rule(nil), rules...),
		maxIterations: DefaultMaxIterations,
		concurrency:   DefaultConcurrency,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	return e
}

// Rules returns the rule names in evaluation order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Resolve runs the rule list over c until a pass adds no flag and changes
// no runtime module. It returns the number of passes run, including the
// final stable pass.
func (e *Engine) Resolve(ctx context.Context, c *Context) (int, error) {
	limiter := NewIterationLimiter(e.maxIterations)

	for {
		if err := ctx.Err(); err != nil {
			return limiter.Current(), err
		}
		if err := limiter.Check(c.Chunk); err != nil {
			e.logger.Error("fixed point not reached",
				"chunk", c.Chunk,
				"passes", limiter.Current()-1,
				"requirements", c.Requirements.Snapshot().String(),
			)
			return limiter.Current() - 1, err
		}
		pass := limiter.Current()

		flagsBefore := c.Requirements.Snapshot()
		versionBefore := c.RuntimeModules.Version()

		for _, rule := range e.rules {
			if err := rule.Apply(c); err != nil {
				return pass, &RuleError{Chunk: c.Chunk, Rule: rule.Name(), Pass: pass, Err: err}
			}
		}

		if c.Requirements.Snapshot() == flagsBefore && c.RuntimeModules.Version() == versionBefore {
			e.logger.Debug("requirements resolved",
				"chunk", c.Chunk,
				"passes", pass,
				"requirements", c.Requirements.Snapshot().String(),
				"runtime_modules", c.RuntimeModules.Len(),
			)
			return pass, nil
		}
	}
}

// ResolveAll resolves every context in parallel. Chunks have no ordering
// dependency on each other during rule application. The first error cancels
// the remaining work and is returned.
func (e *Engine) ResolveAll(ctx context.Context, contexts []*Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, c := range contexts {
		g.Go(func() error {
			if _, err := e.Resolve(gctx, c); err != nil {
				return fmt.Errorf("resolve chunk %s: %w", c.Chunk, err)
			}
			return nil
		})
	}
	return g.Wait()
}
