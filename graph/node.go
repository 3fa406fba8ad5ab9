// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/gogpu/fxgraph"
)

// NodeID is the opaque identifier of a render node within one graph.
type NodeID string

// NewNodeID returns a fresh unique node id for assembler-created nodes
// (compositors, color transforms, sources). The feature compiler derives
// its ids deterministically from manifest and pass names instead, so that
// compiled fragments are stable across runs.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// Kind discriminates the node types the executor understands.
type Kind uint8

const (
	// KindKernel is a regular node: one GPU dispatch of a named kernel.
	KindKernel Kind = iota

	// KindTimeRemap rewrites the temporal context for the node's single
	// upstream subgraph. It dispatches no kernel and allocates no output;
	// it evaluates its input under the remapped time and forwards the
	// result.
	KindTimeRemap

	// KindFeature references a feature by id. The engine expands it into
	// the feature's compiled fragment before execution; the executor
	// itself rejects unexpanded feature nodes.
	KindFeature
)

// String returns a human-readable name for the node kind.
func (k Kind) String() string {
	switch k {
	case KindKernel:
		return "Kernel"
	case KindTimeRemap:
		return "TimeRemap"
	case KindFeature:
		return "Feature"
	default:
		return "Unknown"
	}
}

// Input names with meaning to the executor.
const (
	// InputPrimary is the conventional name of a node's primary input.
	InputPrimary = "input"

	// InputSource is the clip-compilation alias for the primary input.
	InputSource = "source"
)

// OutputSpec declares a node's output resolution tier and pixel format.
// Nodes without a spec inherit the frame's target resolution and format.
type OutputSpec struct {
	// Tier is the declared output size class.
	Tier fxgraph.ResolutionTier

	// Format is the output pixel format. The zero value
	// (gputypes.TextureFormatUndefined) inherits the frame format.
	Format gputypes.TextureFormat
}

// Node is one scheduled dispatch in a per-frame render graph.
//
// Nodes are immutable once inserted into a graph: a new compilation
// produces new nodes rather than mutating old ones. The Inputs map wires
// logical input names to upstream producer ids; the executor turns those
// names into physical binding slots by a fixed convention (see render).
type Node struct {
	// ID is the node's identifier, unique within its graph.
	ID NodeID

	// Kind selects the executor behavior for this node.
	Kind Kind

	// Kernel is the logical kernel function name (KindKernel only).
	Kernel string

	// Feature is the referenced feature id (KindFeature only).
	Feature string

	// Inputs maps logical input names to producer node ids.
	Inputs map[string]NodeID

	// Params carries the node's parameter values by name.
	Params map[string]fxgraph.Value

	// Output optionally declares the node's output tier and format.
	Output *OutputSpec
}

// Time remap parameter names (KindTimeRemap).
const (
	// ParamTimeOffset shifts the upstream time by a constant (seconds).
	ParamTimeOffset = "offset"

	// ParamTimeScale multiplies the upstream time. Defaults to 1.
	ParamTimeScale = "scale"

	// ParamTimeAbsolute pins the upstream time to a constant, ignoring
	// offset and scale.
	ParamTimeAbsolute = "time"
)

// RemapTime computes the upstream time a KindTimeRemap node propagates,
// given the time it was itself evaluated at.
func (n *Node) RemapTime(current float64) float64 {
	if abs, ok := n.Params[ParamTimeAbsolute]; ok {
		if v, isFloat := abs.AsFloat(); isFloat {
			return v
		}
	}
	t := current
	if scale, ok := n.Params[ParamTimeScale]; ok {
		t *= scale.FloatOr(1)
	}
	if offset, ok := n.Params[ParamTimeOffset]; ok {
		t += offset.FloatOr(0)
	}
	return t
}

// PrimaryInput returns the producer of the node's primary input and true,
// or false if the node has no primary input. Both the "input" and "source"
// spellings are accepted; "input" wins if both are present.
func (n *Node) PrimaryInput() (NodeID, bool) {
	if id, ok := n.Inputs[InputPrimary]; ok {
		return id, true
	}
	if id, ok := n.Inputs[InputSource]; ok {
		return id, true
	}
	return "", false
}

// Clone returns a deep copy of the node. Cloning is how assemblers derive
// variants; the original is never mutated.
func (n *Node) Clone() *Node {
	c := *n
	if n.Inputs != nil {
		c.Inputs = make(map[string]NodeID, len(n.Inputs))
		for name, id := range n.Inputs {
			c.Inputs[name] = id
		}
	}
	if n.Params != nil {
		c.Params = make(map[string]fxgraph.Value, len(n.Params))
		for name, v := range n.Params {
			c.Params[name] = v
		}
	}
	if n.Output != nil {
		out := *n.Output
		c.Output = &out
	}
	return &c
}
