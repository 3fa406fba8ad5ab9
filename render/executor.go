// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/graph"
	"github.com/gogpu/fxgraph/kernel"
)

// Stats summarizes one graph execution.
type Stats struct {
	// NodesEvaluated counts node dispatches actually performed.
	NodesEvaluated int

	// MemoHits counts input edges satisfied from an already-computed
	// result instead of a re-evaluation.
	MemoHits int

	// AdaptersInserted counts resize dispatches synthesized on
	// size-mismatched edges.
	AdaptersInserted int

	// Warnings counts tolerated mismatches under RequireExplicitAdapters.
	Warnings int

	// Elapsed is the wall-clock execution time.
	Elapsed time.Duration
}

// Executor evaluates validated render graphs.
//
// Evaluation is a memoized bottom-up walk from the root: each node is
// dispatched once per temporal context, intermediates are borrowed from the
// pool and returned as soon as their last consumer has read them. An
// Executor is stateless between calls and safe for concurrent use as long
// as its pool is.
type Executor struct {
	kernels *kernel.Registry
	pool    *fxgraph.Pool
	device  fxgraph.DeviceHandle

	generatorFallback bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPool supplies the texture pool intermediates are borrowed from.
// The default is a private unbounded pool.
func WithPool(p *fxgraph.Pool) ExecutorOption {
	return func(e *Executor) { e.pool = p }
}

// WithDevice supplies the GPU device handle forwarded to shader-backed
// kernels. The default is a null handle, which CPU kernels ignore.
func WithDevice(d fxgraph.DeviceHandle) ExecutorOption {
	return func(e *Executor) { e.device = d }
}

// WithGeneratorFallback makes the executor substitute a neutral transparent
// frame, with a logged warning, when a generator node's kernel is not
// registered. Filters and compositors never fall back: silently passing
// imagery through a missing filter would be indistinguishable from the
// filter doing nothing.
func WithGeneratorFallback(enabled bool) ExecutorOption {
	return func(e *Executor) { e.generatorFallback = enabled }
}

// NewExecutor creates an executor resolving kernels against the given
// registry.
func NewExecutor(kernels *kernel.Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		kernels: kernels,
		device:  fxgraph.NullDeviceHandle{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = fxgraph.NewPool()
	}
	return e
}

// Pool returns the executor's texture pool.
func (e *Executor) Pool() *fxgraph.Pool { return e.pool }

// entry is one memoized evaluation result. Entries are reference-counted
// by consumer edges; a temporal-remap entry aliases its upstream entry's
// texture instead of owning one.
type entry struct {
	tex   *fxgraph.Texture
	owned bool
	refs  int
	alias *entry
}

// Execute evaluates the graph at the given frame context and returns a copy
// of the root node's pixels. The graph must validate; feature-reference
// nodes must have been expanded beforehand.
func (e *Executor) Execute(ctx context.Context, g *graph.Graph, ec Context) (*image.RGBA, Stats, error) {
	start := time.Now()
	var stats Stats

	if err := g.Validate(); err != nil {
		return nil, stats, err
	}
	if ec.Width <= 0 || ec.Height <= 0 {
		return nil, stats, fmt.Errorf("render: invalid target resolution %dx%d", ec.Width, ec.Height)
	}

	counts := e.consumerCounts(g, ec.Time)
	rootKey := evalKey{id: g.Root(), time: ec.Time}
	counts[rootKey]++ // keep the root result alive until copied out

	memo := make(map[evalKey]*entry, g.Len())

	err := e.run(ctx, g, ec, rootKey, counts, memo, &stats)
	if err != nil {
		releaseAll(e.pool, memo)
		return nil, stats, err
	}

	root := memo[rootKey]
	out := cloneImage(root.tex.Image())
	e.releaseRef(root)

	stats.Elapsed = time.Since(start)
	return out, stats, nil
}

// consumerCounts walks the graph from the root, threading temporal contexts
// exactly as evaluation will, and counts consumer edges per (node, time)
// evaluation. The executor releases a pooled intermediate the moment this
// count is spent.
//
// The walk is context-aware because a node below two different remap scopes
// is two computations with two independent lifetimes; the context-free
// Graph.Consumers counts would conflate them.
func (e *Executor) consumerCounts(g *graph.Graph, rootTime float64) map[evalKey]int {
	counts := make(map[evalKey]int, g.Len())
	visited := make(map[evalKey]bool, g.Len())

	stack := []evalKey{{id: g.Root(), time: rootTime}}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[k] {
			continue
		}
		visited[k] = true

		n := g.Node(k.id)
		if n == nil {
			continue
		}
		childTime := k.time
		if n.Kind == graph.KindTimeRemap {
			childTime = n.RemapTime(k.time)
		}
		for _, src := range n.Inputs {
			ck := evalKey{id: src, time: childTime}
			counts[ck]++
			stack = append(stack, ck)
		}
	}
	return counts
}

// runFrame is one explicit-stack frame of the post-order walk.
type runFrame struct {
	key      evalKey
	expanded bool
}

// run performs the memoized post-order evaluation rooted at rootKey.
func (e *Executor) run(ctx context.Context, g *graph.Graph, ec Context, rootKey evalKey, counts map[evalKey]int, memo map[evalKey]*entry, stats *Stats) error {
	stack := []runFrame{{key: rootKey}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if _, done := memo[f.key]; done {
			if !f.expanded {
				stats.MemoHits++
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		n := g.Node(f.key.id)
		if !f.expanded {
			f.expanded = true
			childTime := f.key.time
			if n.Kind == graph.KindTimeRemap {
				childTime = n.RemapTime(f.key.time)
			}
			// Push dependencies; plan order is irrelevant here, memoization
			// makes the visit order immaterial to the result.
			for _, src := range n.Inputs {
				stack = append(stack, runFrame{key: evalKey{id: src, time: childTime}})
			}
			continue
		}

		stack = stack[:len(stack)-1]
		en, err := e.evaluate(n, f.key, ec, counts, memo, stats)
		if err != nil {
			return err
		}
		memo[f.key] = en
		stats.NodesEvaluated++
	}
	return nil
}

// evaluate dispatches one node with all dependencies already memoized.
func (e *Executor) evaluate(n *graph.Node, key evalKey, ec Context, counts map[evalKey]int, memo map[evalKey]*entry, stats *Stats) (*entry, error) {
	switch n.Kind {
	case graph.KindFeature:
		return nil, nodeErr(n.ID, fmt.Errorf("%w: %q", ErrUnexpandedFeature, n.Feature))

	case graph.KindTimeRemap:
		src, ok := n.PrimaryInput()
		if !ok {
			return nil, nodeErr(n.ID, fmt.Errorf("%w: time remap has no input", ErrUnboundInput))
		}
		upstream := memo[evalKey{id: src, time: n.RemapTime(key.time)}]
		// Forward the upstream result without copying; the alias holds the
		// upstream's consumer edge until this entry's own consumers finish.
		return &entry{tex: upstream.tex, alias: upstream, refs: counts[key]}, nil
	}

	return e.dispatch(n, key, ec, counts, memo, stats)
}

// dispatch runs one kernel node: binding plan, resolution negotiation,
// output acquisition, kernel call, input release.
func (e *Executor) dispatch(n *graph.Node, key evalKey, ec Context, counts map[evalKey]int, memo map[evalKey]*entry, stats *Stats) (*entry, error) {
	outW, outH, format := e.outputSize(n, ec)
	outDesc := fxgraph.Descriptor{
		Width:  outW,
		Height: outH,
		Format: format,
		Usage:  fxgraph.UsageIntermediate,
	}

	k, ok := e.kernels.Resolve(n.Kernel)
	if !ok {
		if e.generatorFallback && len(n.Inputs) == 0 {
			fxgraph.Logger().Warn("generator kernel missing, substituting neutral frame",
				"node", n.ID, "kernel", n.Kernel)
			tex, err := e.pool.Acquire(outDesc)
			if err != nil {
				return nil, nodeErr(n.ID, fmt.Errorf("%w: %v", ErrAllocation, err))
			}
			return &entry{tex: tex, owned: true, refs: counts[key]}, nil
		}
		return nil, nodeErr(n.ID, fmt.Errorf("%w: %q", kernel.ErrUnresolved, n.Kernel))
	}

	plan, err := PlanBindings(n, k)
	if err != nil {
		return nil, nodeErr(n.ID, err)
	}

	bindings := make([]*fxgraph.Texture, len(plan.Producers))
	var adapters []*fxgraph.Texture
	releaseAdapters := func() {
		for _, a := range adapters {
			e.pool.Release(a)
		}
	}

	for slot, producer := range plan.Producers {
		if slot == plan.OutputSlot {
			continue
		}
		src := memo[evalKey{id: producer, time: key.time}]
		tex := src.tex

		// Primary inputs must match the node's output size; extras (masks)
		// are sampled in normalized coordinates and tolerate a mismatch.
		if slot < plan.OutputSlot && (tex.Width() != outW || tex.Height() != outH) {
			switch ec.EdgePolicy {
			case fxgraph.AutoResizeBilinear:
				adapted, err := e.resize(tex, outDesc, ec.Quality)
				if err != nil {
					releaseAdapters()
					return nil, nodeErr(n.ID, err)
				}
				adapters = append(adapters, adapted)
				tex = adapted
				stats.AdaptersInserted++
			case fxgraph.RequireExplicitAdapters:
				fxgraph.Logger().Warn("resolution mismatch on edge, proceeding unadapted",
					"node", n.ID, "input", plan.Names[slot],
					"have", fmt.Sprintf("%dx%d", tex.Width(), tex.Height()),
					"want", fmt.Sprintf("%dx%d", outW, outH))
				stats.Warnings++
			}
		}
		bindings[slot] = tex
	}

	out, err := e.pool.Acquire(outDesc)
	if err != nil {
		releaseAdapters()
		return nil, nodeErr(n.ID, fmt.Errorf("%w: %v", ErrAllocation, err))
	}
	bindings[plan.OutputSlot] = out

	dc := &kernel.DispatchContext{
		Bindings:   bindings,
		OutputSlot: plan.OutputSlot,
		Params:     n.Params,
		Time:       key.time,
		Quality:    ec.Quality,
		Device:     e.device,
	}
	if err := k.Func(dc); err != nil {
		releaseAdapters()
		e.pool.Release(out)
		return nil, nodeErr(n.ID, err)
	}
	releaseAdapters()

	// Each consumed edge spends one reference; inputs whose consumers are
	// all done go back to the pool immediately.
	for slot, producer := range plan.Producers {
		if slot == plan.OutputSlot {
			continue
		}
		e.releaseRef(memo[evalKey{id: producer, time: key.time}])
	}

	return &entry{tex: out, owned: true, refs: counts[key]}, nil
}

// resize dispatches the bilinear adapter kernel into a pooled texture.
func (e *Executor) resize(src *fxgraph.Texture, desc fxgraph.Descriptor, q fxgraph.Quality) (*fxgraph.Texture, error) {
	k, err := e.kernels.ResolveOrErr(kernel.ResizeBilinear)
	if err != nil {
		return nil, err
	}
	dst, err := e.pool.Acquire(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	dc := &kernel.DispatchContext{
		Bindings:   []*fxgraph.Texture{src, dst},
		OutputSlot: 1,
		Quality:    q,
		Device:     e.device,
	}
	if err := k.Func(dc); err != nil {
		e.pool.Release(dst)
		return nil, err
	}
	return dst, nil
}

// outputSize resolves a node's concrete output size and format against the
// frame's target resolution.
func (e *Executor) outputSize(n *graph.Node, ec Context) (w, h int, format gputypes.TextureFormat) {
	format = gputypes.TextureFormatRGBA8Unorm
	if n.Output == nil {
		return ec.Width, ec.Height, format
	}
	w, h = n.Output.Tier.Resolve(ec.Width, ec.Height)
	if n.Output.Format != gputypes.TextureFormatUndefined {
		format = n.Output.Format
	}
	return w, h, format
}

// releaseRef spends one consumer reference on an entry, returning its
// texture to the pool when the last one is gone. Alias entries forward the
// release to the entry they borrowed from.
func (e *Executor) releaseRef(en *entry) {
	if en == nil {
		return
	}
	en.refs--
	if en.refs > 0 {
		return
	}
	if en.owned && en.tex != nil {
		e.pool.Release(en.tex)
		en.tex = nil
	}
	if en.alias != nil {
		e.releaseRef(en.alias)
		en.alias = nil
	}
}

// releaseAll returns every still-held intermediate to the pool. Called on
// the error path so a failed or cancelled render leaks nothing.
func releaseAll(pool *fxgraph.Pool, memo map[evalKey]*entry) {
	for _, en := range memo {
		if en.owned && en.tex != nil && en.refs > 0 {
			pool.Release(en.tex)
			en.tex = nil
		}
	}
}

// cloneImage copies a texture's pixels so the caller owns them outright.
func cloneImage(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
