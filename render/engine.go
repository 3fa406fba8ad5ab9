// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/feature"
	"github.com/gogpu/fxgraph/graph"
	"github.com/gogpu/fxgraph/internal/cache"
	"github.com/gogpu/fxgraph/kernel"
)

// Engine is the top-level rendering facade: it owns the kernel and feature
// registries' wiring, expands feature-reference nodes into their compiled
// fragments, and executes the resulting graphs.
type Engine struct {
	kernels  *kernel.Registry
	features *feature.Registry
	compiler *feature.Compiler
	executor *Executor

	// frags caches compiled fragments per feature node shape. Keys embed
	// the registry revision, so a bundle reload invalidates by key miss.
	frags *cache.Sharded[string, *graph.Fragment]
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFeatures supplies the feature registry used to expand
// feature-reference nodes and serve CompileFeature. Without one, feature
// nodes fail to render.
func WithFeatures(reg *feature.Registry) EngineOption {
	return func(e *Engine) { e.features = reg }
}

// WithExecutor supplies a pre-configured executor (custom pool, device,
// generator fallback). The default executor uses a private pool and a null
// device.
func WithExecutor(ex *Executor) EngineOption {
	return func(e *Engine) { e.executor = ex }
}

// NewEngine creates an engine dispatching against the given kernel
// registry.
func NewEngine(kernels *kernel.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		kernels:  kernels,
		compiler: feature.NewCompiler(kernels),
		frags:    cache.NewSharded[string, *graph.Fragment](0, cache.StringHasher),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		e.executor = NewExecutor(kernels)
	}
	return e
}

// Executor returns the engine's executor.
func (e *Engine) Executor() *Executor { return e.executor }

// CompileFeature compiles a registered feature into a graph fragment. See
// feature.Compiler.Compile for the binding and override semantics.
func (e *Engine) CompileFeature(id string, external map[string]graph.NodeID, overrides map[string]fxgraph.Value, opts ...feature.CompileOption) (*graph.Fragment, error) {
	if e.features == nil {
		return nil, fmt.Errorf("%w: %q (no feature registry attached)", feature.ErrUnknownFeature, id)
	}
	m, ok := e.features.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", feature.ErrUnknownFeature, id)
	}
	return e.compiler.Compile(m, external, overrides, opts...)
}

// Render expands any feature-reference nodes in the graph and executes it,
// returning a copy of the root node's pixels.
func (e *Engine) Render(ctx context.Context, g *graph.Graph, ec Context) (*image.RGBA, Stats, error) {
	expanded, err := e.expand(g)
	if err != nil {
		return nil, Stats{}, err
	}
	return e.executor.Execute(ctx, expanded, ec)
}

// expand rewrites every KindFeature node into its compiled fragment. The
// input graph is never mutated; expansion builds a fresh graph with the
// feature's passes spliced in and all references re-pointed at the
// fragment roots.
//
// A feature node's Inputs become the compilation's external bindings and
// its Params the parameter overrides, so a feature node is exactly a
// deferred Compile call namespaced by the node's id.
func (e *Engine) expand(g *graph.Graph) (*graph.Graph, error) {
	out := graph.New()
	rewired := make(map[graph.NodeID]graph.NodeID)

	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if n.Kind != graph.KindFeature {
			if err := out.Add(n.Clone()); err != nil {
				return nil, err
			}
			continue
		}

		if e.features == nil {
			return nil, nodeErr(n.ID, fmt.Errorf("%w: %q (no feature registry attached)", feature.ErrUnknownFeature, n.Feature))
		}
		m, ok := e.features.Lookup(n.Feature)
		if !ok {
			return nil, nodeErr(n.ID, fmt.Errorf("%w: %q", feature.ErrUnknownFeature, n.Feature))
		}

		key := fragmentKey(n, e.features.Revision())
		frag, cached := e.frags.Get(key)
		if !cached {
			var err error
			frag, err = e.compiler.Compile(m, n.Inputs, n.Params, feature.WithInstance(string(n.ID)))
			if err != nil {
				return nil, nodeErr(n.ID, err)
			}
			e.frags.Set(key, frag)
		}
		if err := out.AddFragment(frag); err != nil {
			return nil, err
		}
		rewired[n.ID] = frag.Root
	}

	// Re-point every edge that referenced a feature node at that feature's
	// fragment root. Fragment-internal edges may themselves reference other
	// feature nodes (they were the compile-time external bindings), so the
	// rewrite covers all nodes of the expanded graph.
	for _, id := range out.NodeIDs() {
		n := out.Node(id)
		var rewritten *graph.Node
		for name, src := range n.Inputs {
			to, ok := rewired[src]
			if !ok {
				continue
			}
			if rewritten == nil {
				rewritten = n.Clone()
			}
			rewritten.Inputs[name] = to
		}
		if rewritten != nil {
			if err := out.Replace(rewritten); err != nil {
				return nil, err
			}
		}
	}

	root := g.Root()
	if to, ok := rewired[root]; ok {
		root = to
	}
	out.SetRoot(root)
	return out, nil
}

// fragmentKey canonicalizes a feature node's compile request: feature,
// registry revision, instance, external bindings and overrides in sorted
// order. Two nodes with the same key compile to identical fragments, so the
// cached one is reused as-is (fragments are immutable once compiled).
func fragmentKey(n *graph.Node, revision uint64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%d\x00%s", n.Feature, revision, n.ID)

	names := make([]string, 0, len(n.Inputs))
	for name := range n.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\x00i:%s=%s", name, n.Inputs[name])
	}

	names = names[:0]
	for name := range n.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\x00p:%s=%s", name, n.Params[name].GoString())
	}
	return b.String()
}
