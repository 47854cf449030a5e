// Package compilation drives one pass over a chunk graph: requirement
// seeding, fixed-point resolution, hashing and assembly.
//
// Phases run in a fixed partial order. Within a phase chunks are processed
// in parallel; a phase starts only after the previous one finished for every
// chunk, so hashing always sees the final requirements of other chunks.
package compilation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sladyn98/rspack/internal/chunkhash"
	"github.com/sladyn98/rspack/internal/dependency"
	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/filename"
	"github.com/sladyn98/rspack/internal/format"
	"github.com/sladyn98/rspack/internal/globals"
	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/manifest"
)

// DefaultHashLength is the default render hash length.
const DefaultHashLength = 8

const tracerName = "github.com/sladyn98/rspack/internal/compilation"

// Compilation runs passes over one read-only chunk graph.
type Compilation struct {
	graph         graph.View
	driver        *format.Driver
	deps          map[graph.ModuleKey][]dependency.Dependency
	template      filename.Template
	hashLength    int
	concurrency   int
	maxIterations int
	ids           PassIDGenerator
	logger        *slog.Logger
	tracer        trace.Tracer
}

// Option configures a Compilation.
type Option func(*Compilation)

// WithDependencies sets the code-generation dependencies of each module.
func WithDependencies(deps map[graph.ModuleKey][]dependency.Dependency) Option {
	return func(c *Compilation) {
		c.deps = deps
	}
}

// WithTemplate sets the chunk filename template.
func WithTemplate(t filename.Template) Option {
	return func(c *Compilation) {
		c.template = t
	}
}

// WithHashLength sets the length render hashes are truncated to.
func WithHashLength(n int) Option {
	return func(c *Compilation) {
		c.hashLength = n
	}
}

// WithConcurrency bounds how many chunks a phase works on at once.
func WithConcurrency(n int) Option {
	return func(c *Compilation) {
		c.concurrency = n
	}
}

// WithMaxIterations sets the fixed-point pass cap per chunk.
func WithMaxIterations(n int) Option {
	return func(c *Compilation) {
		c.maxIterations = n
	}
}

// WithPassIDGenerator sets the pass id source.
func WithPassIDGenerator(g PassIDGenerator) Option {
	return func(c *Compilation) {
		c.ids = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compilation) {
		c.logger = l
	}
}

// WithTracerProvider sets where pass and phase spans are sent. The default
// is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Compilation) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// New creates a Compilation over view using plugins in order.
func New(view graph.View, plugins []format.Plugin, opts ...Option) *Compilation {
	c := &Compilation{
		graph:         view,
		driver:        format.NewDriver(plugins),
		template:      filename.MustParse("[name].js"),
		hashLength:    DefaultHashLength,
		concurrency:   engine.DefaultConcurrency,
		maxIterations: engine.DefaultMaxIterations,
		ids:           UUIDv7Generator{},
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	return c
}

// ChunkOutput is one assembled chunk.
type ChunkOutput struct {
	Key      graph.ChunkKey
	ID       string
	Filename string

	// ContentHash is the full chunk hash; RenderHash is its truncated form
	// used in filenames.
	ContentHash string
	RenderHash  string

	Requirements   globals.RuntimeGlobals
	RuntimeModules []string
	Source         string
}

// Result is the output of one pass. Chunks are sorted by key.
type Result struct {
	PassID   string
	FullHash string
	Chunks   []ChunkOutput
}

// Chunk returns the output for key.
func (r *Result) Chunk(key graph.ChunkKey) (*ChunkOutput, bool) {
	for i := range r.Chunks {
		if r.Chunks[i].Key == key {
			return &r.Chunks[i], true
		}
	}
	return nil, false
}

// Manifest describes the result for hashing and caching.
func (r *Result) Manifest() manifest.Manifest {
	m := manifest.Manifest{Chunks: make([]manifest.Chunk, len(r.Chunks))}
	for i, out := range r.Chunks {
		m.Chunks[i] = manifest.Chunk{
			Key:            string(out.Key),
			ID:             out.ID,
			Filename:       out.Filename,
			ContentHash:    out.ContentHash,
			Requirements:   out.Requirements.Names(),
			RuntimeModules: out.RuntimeModules,
		}
	}
	return m
}

// Run executes one pass. Any error aborts the pass and no partial result
// is returned.
func (c *Compilation) Run(ctx context.Context) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "compilation.pass")
	defer span.End()

	result, err := c.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("rspack.pass_id", result.PassID),
		attribute.String("rspack.full_hash", result.FullHash),
		attribute.Int("rspack.chunks", len(result.Chunks)),
	)
	return result, nil
}

func (c *Compilation) run(ctx context.Context) (*Result, error) {
	keys := c.graph.ChunkKeys()
	slices.Sort(keys)

	contexts := make([]*engine.Context, len(keys))
	for i, key := range keys {
		contexts[i] = engine.NewContext(key, c.graph, globals.None)
	}

	if err := c.phase(ctx, "seed", func(ctx context.Context) error {
		if err := c.forEach(ctx, contexts, c.seed); err != nil {
			return err
		}
		return c.unionTrees(contexts)
	}); err != nil {
		return nil, err
	}

	eng := engine.New(c.driver.TreeRules(),
		engine.WithMaxIterations(c.maxIterations),
		engine.WithConcurrency(c.concurrency),
		engine.WithLogger(c.logger),
	)
	if err := c.phase(ctx, "resolve", func(ctx context.Context) error {
		return eng.ResolveAll(ctx, contexts)
	}); err != nil {
		return nil, err
	}
	for _, rc := range contexts {
		rc.Freeze()
	}
	c.logger.Debug("requirements resolved", "chunks", len(contexts), "rules", eng.Rules())

	outputs := make([]ChunkOutput, len(contexts))
	for i, rc := range contexts {
		outputs[i] = ChunkOutput{
			Key:            rc.Chunk,
			Requirements:   rc.Requirements.Snapshot(),
			RuntimeModules: rc.RuntimeModules.Names(),
		}
	}

	if err := c.phase(ctx, "hash", func(ctx context.Context) error {
		return c.forEachIndex(ctx, len(contexts), func(i int) error {
			return c.hash(contexts[i], &outputs[i])
		})
	}); err != nil {
		return nil, err
	}

	hashes := make(map[graph.ChunkKey]string, len(outputs))
	for _, out := range outputs {
		hashes[out.Key] = out.RenderHash
	}

	if err := c.phase(ctx, "assemble", func(ctx context.Context) error {
		return c.forEachIndex(ctx, len(contexts), func(i int) error {
			return c.assemble(contexts[i], hashes, &outputs[i])
		})
	}); err != nil {
		return nil, err
	}

	result := &Result{PassID: c.ids.Generate(), Chunks: outputs}
	full, err := result.Manifest().FullHash()
	if err != nil {
		return nil, err
	}
	result.FullHash = full

	c.logger.Info("compilation pass complete",
		"pass_id", result.PassID,
		"chunks", len(outputs),
		"full_hash", full,
	)
	return result, nil
}

// seed runs module code generation and the format's additional
// requirements hook for one chunk.
func (c *Compilation) seed(rc *engine.Context) error {
	for _, m := range c.graph.ChunkModules(rc.Chunk) {
		cg := &dependency.CodeGenContext{
			Chunk:               rc.Chunk,
			Module:              m.Key,
			RuntimeRequirements: rc.Requirements,
		}
		if err := dependency.Seed(cg, c.deps[m.Key]); err != nil {
			return fmt.Errorf("generate module %s in chunk %s: %w", m.Key, rc.Chunk, err)
		}
	}
	if err := c.driver.AdditionalChunkRuntimeRequirements(rc); err != nil {
		return fmt.Errorf("chunk %s: %w", rc.Chunk, err)
	}
	return nil
}

// unionTrees adds the seeded requirements of every chunk in a runtime
// chunk's tree to the runtime chunk. The tree of a runtime chunk is every
// entry point it is the runtime for, plus every group descending from one.
func (c *Compilation) unionTrees(contexts []*engine.Context) error {
	seeded := make(map[graph.ChunkKey]globals.RuntimeGlobals, len(contexts))
	for _, rc := range contexts {
		seeded[rc.Chunk] = rc.Requirements.Snapshot()
	}

	groups, err := c.allGroups(contexts)
	if err != nil {
		return err
	}

	for _, rc := range contexts {
		if !c.graph.HasRuntime(rc.Chunk) {
			continue
		}
		tree, err := c.treeChunks(rc.Chunk, groups)
		if err != nil {
			return err
		}
		for _, member := range tree {
			rc.Requirements.Add(seeded[member])
		}
		c.logger.Debug("runtime tree",
			"chunk", rc.Chunk,
			"members", len(tree),
			"requirements", rc.Requirements.Snapshot().String(),
		)
	}
	return nil
}

func (c *Compilation) allGroups(contexts []*engine.Context) ([]*graph.ChunkGroup, error) {
	seen := make(map[graph.ChunkGroupKey]bool)
	var groups []*graph.ChunkGroup
	for _, rc := range contexts {
		chunk, err := c.graph.Chunk(rc.Chunk)
		if err != nil {
			return nil, err
		}
		for _, key := range chunk.Groups() {
			if seen[key] {
				continue
			}
			seen[key] = true
			g, err := c.graph.ChunkGroup(key)
			if err != nil {
				return nil, err
			}
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (c *Compilation) treeChunks(runtime graph.ChunkKey, groups []*graph.ChunkGroup) ([]graph.ChunkKey, error) {
	entrypoints := make(map[graph.ChunkGroupKey]bool)
	for _, g := range groups {
		if g.IsEntrypoint() && g.RuntimeChunk == runtime {
			entrypoints[g.Key] = true
		}
	}

	var members []graph.ChunkKey
	for _, g := range groups {
		inTree := entrypoints[g.Key]
		if !inTree {
			ancestors, err := c.graph.Ancestors(g.Key)
			if err != nil {
				return nil, err
			}
			inTree = slices.ContainsFunc(ancestors, func(k graph.ChunkGroupKey) bool { return entrypoints[k] })
		}
		if !inTree {
			continue
		}
		for _, key := range g.Chunks {
			if key != runtime && !slices.Contains(members, key) {
				members = append(members, key)
			}
		}
	}
	slices.Sort(members)
	return members, nil
}

// hash computes the content hash of one frozen chunk.
func (c *Compilation) hash(rc *engine.Context, out *ChunkOutput) error {
	chunk, err := c.graph.Chunk(rc.Chunk)
	if err != nil {
		return err
	}
	h := chunkhash.New()
	h.ChunkContent(chunk, c.graph.ChunkModules(rc.Chunk), rc.RuntimeModules.Modules())
	h.WriteString(rc.Requirements.Snapshot().String())
	if err := c.driver.ChunkHash(&format.HashContext{Chunk: rc.Chunk, Graph: c.graph, Hasher: h}); err != nil {
		return fmt.Errorf("hash chunk %s: %w", rc.Chunk, err)
	}

	out.ID = chunk.ID
	out.ContentHash = h.Sum()
	out.RenderHash = out.ContentHash
	if c.hashLength > 0 && c.hashLength < len(out.RenderHash) {
		out.RenderHash = out.RenderHash[:c.hashLength]
	}
	return nil
}

// assemble renders one chunk and its filename.
func (c *Compilation) assemble(rc *engine.Context, hashes map[graph.ChunkKey]string, out *ChunkOutput) error {
	chunk, err := c.graph.Chunk(rc.Chunk)
	if err != nil {
		return err
	}
	src, err := c.driver.RenderChunk(&format.RenderContext{
		Chunk:          rc.Chunk,
		Graph:          c.graph,
		Requirements:   rc.Requirements.Snapshot(),
		RuntimeModules: rc.RuntimeModules.Modules(),
		Template:       c.template,
		Hashes:         hashes,
	})
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	name, err := c.template.Render(filename.RenderOptions{
		Name:        chunk.NameForFilenameTemplate(),
		Extension:   ".js",
		ID:          chunk.ID,
		ContentHash: out.RenderHash,
		ChunkHash:   out.RenderHash,
		Hash:        out.RenderHash,
	})
	if err != nil {
		return fmt.Errorf("filename for chunk %s: %w", rc.Chunk, err)
	}
	out.Filename = name
	out.Source = src.Source()
	return nil
}

// phase runs fn inside a child span named after the phase.
func (c *Compilation) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "compilation."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Compilation) forEach(ctx context.Context, contexts []*engine.Context, fn func(*engine.Context) error) error {
	return c.forEachIndex(ctx, len(contexts), func(i int) error {
		return fn(contexts[i])
	})
}

// forEachIndex runs fn for 0..n-1 on a bounded worker group. The first
// error cancels the remaining work.
func (c *Compilation) forEachIndex(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
