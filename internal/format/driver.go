package format

import (
	"fmt"

	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/graph"
	"github.com/sladyn98/rspack/internal/source"
)

// Driver fans hook calls out to the configured plugins in order.
type Driver struct {
	plugins []Plugin
}

// NewDriver creates a driver over plugins. The slice is copied.
func NewDriver(plugins []Plugin) *Driver {
	return &Driver{plugins: append([]Plugin(nil), plugins...)}
}

// Plugins returns plugin names in invocation order.
func (d *Driver) Plugins() []string {
	names := make([]string, len(d.plugins))
	for i, p := range d.plugins {
		names[i] = p.Name()
	}
	return names
}

// AdditionalChunkRuntimeRequirements runs hook (a) for every plugin.
func (d *Driver) AdditionalChunkRuntimeRequirements(ctx *engine.Context) error {
	for _, p := range d.plugins {
		if err := p.AdditionalChunkRuntimeRequirements(ctx); err != nil {
			return fmt.Errorf("%s: additional chunk runtime requirements: %w", p.Name(), err)
		}
	}
	return nil
}

// TreeRules exposes hook (b) of every plugin as engine rules, in plugin order.
func (d *Driver) TreeRules() []engine.Rule {
	rules := make([]engine.Rule, len(d.plugins))
	for i, p := range d.plugins {
		rules[i] = engine.RuleFunc{RuleName: p.Name(), Fn: p.RuntimeRequirementsInTree}
	}
	return rules
}

// ChunkHash runs hook (c) for every plugin.
func (d *Driver) ChunkHash(ctx *HashContext) error {
	for _, p := range d.plugins {
		if err := p.ChunkHash(ctx); err != nil {
			return fmt.Errorf("%s: chunk hash: %w", p.Name(), err)
		}
	}
	return nil
}

// RenderChunk runs hook (d) and returns the first non-nil result.
func (d *Driver) RenderChunk(ctx *RenderContext) (source.Source, error) {
	if ctx.Startup == nil {
		ctx.Startup = d.RenderStartup
	}
	for _, p := range d.plugins {
		s, err := p.RenderChunk(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: render chunk %s: %w", p.Name(), ctx.Chunk, err)
		}
		if s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no plugin rendered chunk %s (plugins: %v)", ctx.Chunk, d.Plugins())
}

// RenderStartup concatenates the startup fragments of every StartupRenderer.
// Returns nil when no plugin contributes.
func (d *Driver) RenderStartup(ctx *StartupContext) (source.Source, error) {
	out := source.NewConcatSource()
	for _, p := range d.plugins {
		sr, ok := p.(StartupRenderer)
		if !ok {
			continue
		}
		s, err := sr.RenderStartup(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: render startup: %w", p.Name(), err)
		}
		out.Add(s)
	}
	if out.Children() == 0 {
		return nil, nil
	}
	return out, nil
}

// EntryModuleIDs resolves a chunk's entry modules to ids, in declaration order.
func EntryModuleIDs(view graph.View, chunk graph.ChunkKey) ([]string, error) {
	entries := view.EntryModules(chunk)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		m, err := view.Module(e.Module)
		if err != nil {
			return nil, err
		}
		ids = append(ids, moduleID(m))
	}
	return ids, nil
}
