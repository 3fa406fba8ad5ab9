// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/fxgraph/graph"
)

// Execution errors. Node-level failures are wrapped in *NodeError carrying
// the failing node id; callers branch with errors.Is.
var (
	// ErrUnboundInput indicates a node was missing a required input binding.
	ErrUnboundInput = errors.New("render: unbound input")

	// ErrAllocation indicates the texture pool could not supply an
	// intermediate.
	ErrAllocation = errors.New("render: allocation failed")

	// ErrUnexpandedFeature indicates the executor met a feature-reference
	// node. Feature nodes must be expanded into their compiled fragments
	// before execution; the engine does this in Render.
	ErrUnexpandedFeature = errors.New("render: unexpanded feature node")
)

// NodeError ties an execution failure to the node it occurred at.
type NodeError struct {
	// Node is the id of the failing node.
	Node graph.NodeID

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("render: node %q: %v", e.Node, e.Err)
}

// Unwrap returns the underlying failure.
func (e *NodeError) Unwrap() error { return e.Err }

func nodeErr(id graph.NodeID, err error) error {
	return &NodeError{Node: id, Err: err}
}
