// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render executes compiled render graphs: it schedules node
// dispatches bottom-up, negotiates resolutions on edges, borrows
// intermediates from a texture pool and returns the root node's pixels.
package render

import (
	"github.com/gogpu/fxgraph"
	"github.com/gogpu/fxgraph/graph"
)

// Context is the per-frame evaluation context. It is a value: temporal
// remap nodes derive modified copies for their subgraphs without affecting
// siblings.
//
// External assets (clip media, still images) are host-owned and enter the
// graph as producer nodes the host's kernels decode, so the context carries
// no asset accessor of its own.
type Context struct {
	// Time is the evaluation time in seconds on the composition timeline.
	Time float64

	// Width and Height are the frame's target resolution. Tier-relative
	// output specs resolve against them.
	Width, Height int

	// Quality selects the speed/fidelity trade-off forwarded to kernels.
	Quality fxgraph.Quality

	// EdgePolicy governs resolution negotiation on size-mismatched edges.
	EdgePolicy fxgraph.EdgePolicy
}

// evalKey identifies one evaluation of one node. The same node evaluated
// under two remapped times is two distinct computations with distinct
// results; everything that varies per remap scope is part of the key.
type evalKey struct {
	id   graph.NodeID
	time float64
}
